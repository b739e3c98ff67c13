/*
Package domain contains the core models of the stepflow navigator.

It defines the task graph (Steps, Sections, InputFields and Choices) and the
Result model that records what happened while a participant walked through it.
This package is kept pure and free of I/O or persistence concerns; adapters in
other packages load tasks and store results.

# Key Entities

  - Step: an identified unit of a task. Optional capabilities (SectionStep,
    FormStep, NextStepStrategy, SkipStepStrategy, BackStepStrategy) are checked
    at runtime through interface assertions.
  - Task: the root of the step graph, plus optional progress markers.
  - Result: a tagged union of BaseResult, StepResult, AnswerResult,
    CollectionResult and ErrorResult. Navigation overrides are composed in
    through the Navigation value.
  - TaskResult: the ordered step history of one task run. It is the only
    input the navigator reads.
*/
package domain
