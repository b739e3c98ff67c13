/*
Package rules provides ready-made conditional rules for the navigator.

  - Funcs adapts plain functions.
  - SkipSteps hides a fixed set of steps.
  - AnswerRule branches on an answer recorded anywhere in the run.
  - Replacements swaps steps for variants (e.g. localized copies).
  - Snapshot serves decisions computed asynchronously by the caller and
    discards superseded evaluations.
*/
package rules
