// Package schema validates loosely typed data, such as decoded task
// definitions and answer values, against a small type system.
//
// Types mirror the base answer types of input fields (boolean, integer,
// decimal, string, ...) and can be wrapped in lists for multiple choice
// answers:
//
//	t, err := schema.ForDataType(field.DataType)
//	if err != nil {
//	    return err
//	}
//	if err := t.Validate(choice.Value); err != nil {
//	    // the choice value does not match the declared type
//	}
//
// A Schema checks the keys of a decoded map before it is turned into a
// typed value:
//
//	s := schema.Schema{
//	    "id":    schema.String(),
//	    "title": schema.Optional(schema.String()),
//	}
//	err := schema.Validate(s, raw)
//
// Every failure is reported, wrapped in an *AggregateError.
package schema
