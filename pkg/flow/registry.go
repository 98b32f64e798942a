package flow

import (
	"sync"

	"github.com/odvcencio/beacon/pkg/gather"
)

// RunnerOptionsLookup resolves the runner options recorded for a step. The
// audit pipeline treats a miss, or a nil lookup, as "reconstruct".
type RunnerOptionsLookup interface {
	RunnerOptions(step *GatherStep) (*gather.RunnerOptions, bool)
}

// OptionsRegistry associates live gather steps with the runner options they
// were produced under. The association is non-owning by contract: keys are
// step identities, and a caller that discards a step prunes the entry with
// Drop or Reset, so the registry never extends a step's lifetime.
type OptionsRegistry struct {
	mu      sync.Mutex
	options map[*GatherStep]*gather.RunnerOptions
}

// NewOptionsRegistry returns an empty registry.
func NewOptionsRegistry() *OptionsRegistry {
	return &OptionsRegistry{options: make(map[*GatherStep]*gather.RunnerOptions)}
}

// Set records the options a step was gathered under.
func (r *OptionsRegistry) Set(step *GatherStep, opts *gather.RunnerOptions) {
	if step == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.options[step] = opts
}

// RunnerOptions returns the options recorded for step, if any. Nil-safe.
func (r *OptionsRegistry) RunnerOptions(step *GatherStep) (*gather.RunnerOptions, bool) {
	if r == nil || step == nil {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	opts, ok := r.options[step]
	return opts, ok
}

// Drop removes the association for step, if present.
func (r *OptionsRegistry) Drop(step *GatherStep) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.options, step)
}

// Reset removes every association.
func (r *OptionsRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.options = make(map[*GatherStep]*gather.RunnerOptions)
}

// Len reports the number of live associations.
func (r *OptionsRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.options)
}
