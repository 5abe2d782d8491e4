package step

import "context"

// RunContext provides context for step execution (Apply, Revert).
// Everything a step needs beyond its own configuration travels here
// explicitly; steps never consult ambient process state.
type RunContext struct {
	ctx context.Context
}

// NewRunContext creates a new RunContext with the given context.
func NewRunContext(ctx context.Context) RunContext {
	return RunContext{ctx: ctx}
}

// Context returns the underlying context.Context.
func (r RunContext) Context() context.Context {
	return r.ctx
}
