// Package taskdef reads task definitions from YAML or JSON documents.
//
// A definition lists the steps of a task in display order. Sections nest
// further steps; form steps declare input fields whose data type, choices and
// survey rules are validated before the task is built:
//
//	id: onboarding
//	progress_markers: [consent, symptoms]
//	skip: [legacy-question]
//	branches:
//	  - after: symptoms
//	    field: smoker
//	    matching: false
//	    skip_to: diet
//	steps:
//	  - id: intro
//	    title: Welcome
//	  - id: consent
//	    fields:
//	      - id: agree
//	        data_type: singleChoice.boolean
//	        choices:
//	          - {text: "I agree", value: true}
//	          - {text: "I do not agree", value: false}
//	        rules:
//	          - {matching: false, skip_to: exit}
//
// Decoding is strict: unknown keys are reported, and every problem found is
// returned at once in a *DefinitionError wrapping a *schema.AggregateError.
package taskdef
