/*
Package stepflow navigates research-study tasks and records participant answers.

A task is a tree of steps: instructions, forms with input fields, active tasks
and sections grouping them. As the participant moves through the task, every
step produces a result and the accumulated TaskResult is the only state of a
run. Navigation is a pure function of the task and that TaskResult:

  - skip-to overrides recorded on a step's result win;
  - a step may pick its successor from its own answers (survey rules);
  - registered conditional rules may skip, replace or redirect steps;
  - otherwise the next leaf of the tree follows.

Because the navigator holds no per-run state, a run can be stopped, persisted
with any ports.TaskResultStore and resumed on another process.

# Usage

	flow, err := stepflow.Open(ctx, "survey.yaml")
	if err != nil {
		log.Fatal(err)
	}

	tr := flow.Start()
	step, _ := flow.GetNextStep(nil, tr)
	for step != nil {
		f := flow.Form(step, tr)
		// ... present the step, collect answers through f ...
		tr.AddStepHistory(f.Result())

		step, err = flow.GetNextStep(step, tr)
		if err != nil {
			log.Fatal(err)
		}
	}

Tasks can also be built in code with package dsl, or read from a directory of
markdown step documents (see pkg/adapters/loam).
*/
package stepflow
