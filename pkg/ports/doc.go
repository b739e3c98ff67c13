/*
Package ports defines the driven ports (interfaces) of the stepflow navigator.

These interfaces decouple the navigation core from task sources, result
storage and the conditional rules that steer a run.

# Key Interfaces

  - StepNavigator: next/previous/progress decisions over a task and its TaskResult.
  - ConditionalRule and ReplacementRule: pluggable overrides consulted by the navigator.
  - TaskLoader: loads a Task definition (YAML file, Loam repository, memory).
  - TaskResultStore: persists in-progress TaskResults by run ID.
  - DistributedLocker: distributed locking for concurrent access to one run.
*/
package ports
