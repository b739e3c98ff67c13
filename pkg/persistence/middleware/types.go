// Package middleware decorates task result stores with cross-cutting behavior
// such as encryption at rest and answer redaction.
package middleware

import "github.com/aretw0/stepflow/pkg/ports"

// Middleware wraps a TaskResultStore to add behavior.
type Middleware func(ports.TaskResultStore) ports.TaskResultStore

// Chain applies middlewares so the first one is the outermost.
func Chain(store ports.TaskResultStore, mws ...Middleware) ports.TaskResultStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
