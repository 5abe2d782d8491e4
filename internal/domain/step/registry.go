package step

import (
	"errors"
	"fmt"
)

// ErrDuplicateStep is returned when registering a step whose ID is taken.
var ErrDuplicateStep = errors.New("step with this ID already exists")

// Registry is the ordered list of declared provisioning steps.
// Registration order is execution order; the registry performs no
// execution itself.
type Registry struct {
	ordered []Step
	byID    map[string]Step
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byID: make(map[string]Step),
	}
}

// Register appends a step to the declared order.
// Returns ErrDuplicateStep if a step with the same ID already exists.
func (r *Registry) Register(s Step) error {
	id := s.ID().String()
	if _, exists := r.byID[id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateStep, id)
	}
	r.byID[id] = s
	r.ordered = append(r.ordered, s)
	return nil
}

// RegisterAll registers steps in order, stopping at the first failure.
func (r *Registry) RegisterAll(steps ...Step) error {
	for _, s := range steps {
		if err := r.Register(s); err != nil {
			return err
		}
	}
	return nil
}

// Ordered returns the steps in declared order. The returned slice is a
// copy; the declared order is stable across calls.
func (r *Registry) Ordered() []Step {
	out := make([]Step, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Get retrieves a step by ID.
func (r *Registry) Get(id StepID) (Step, bool) {
	s, ok := r.byID[id.String()]
	return s, ok
}

// Len returns the number of registered steps.
func (r *Registry) Len() int {
	return len(r.ordered)
}
