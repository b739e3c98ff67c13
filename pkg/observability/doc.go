/*
Package observability turns navigator and form lifecycle hooks into metrics
and structured logs.

Metrics registers prometheus counters and exposes them as domain.LifecycleHooks.
LogHooks writes the same events to a slog.Logger. Combine merges several hook
sets so both can be attached to one navigator.
*/
package observability
