/*
Package form tracks the answers of a form step while it is displayed.

A DataAdapter builds one ItemGroup per input field and lays the groups out
in sections of rows. Hosts route answer changes through SaveAnswer and
SelectAnswer using (section, row) index paths or flat row indexes, and read
the step's CollectionResult back with Result.

Operations report failures through Status values rather than panicking:
stale positions resolve to StatusNotFound, and rehydrating a group from a
result of the wrong type is rejected with StatusTypeMismatch.
*/
package form
