/*
Package dsl provides a fluent Go builder for study tasks.

It is the code-first counterpart of task files: steps, sections, input fields,
choices and survey rules are declared with chained calls and validated by the
same rules as a YAML definition, so a mistake such as a choice value that does
not match the field's data type is reported by Build.

Example usage:

	b := dsl.New("survey").Title("Morning check-in")

	b.Instruction("intro").Title("Welcome").Text("This takes a minute.")

	q := b.Form("mood").Title("How do you feel?")
	q.Field("mood", "singleChoice.string").
		Choices("good", "bad").
		SkipTo("good", "done")

	b.Section("details").
		Form("why").Field("reason", "string")

	b.Completion("done")

	loader, err := b.Build()
	if err != nil {
		// ...
	}
	// loader implements ports.TaskLoader
*/
package dsl
