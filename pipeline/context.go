package pipeline

import (
	"time"

	"github.com/Allen15763/accrual-bot-sub000/dataset"
	"github.com/google/uuid"
)

// Metadata identifies a pipeline run. It is immutable for the run's
// lifetime.
type Metadata struct {
	RunID uuid.UUID `json:"runId"`
	// Entity is the business-entity identifier the run processes.
	Entity string `json:"entity"`
	// ProcessingType distinguishes record families (e.g. purchase orders
	// vs. purchase requisitions).
	ProcessingType string `json:"processingType"`
	// ProcessingDate is the accrual period in YYYYMM form.
	ProcessingDate int `json:"processingDate"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Context is the per-run mutable bundle passed to every step: the working
// dataset, the auxiliary dataset registry, run metadata, a variable store,
// and accumulated diagnostics. It is owned by exactly one run.
//
// Under the sequential and conditional operators exactly one step mutates
// the context at a time by construction. The parallel operator never shares
// a Context: each branch receives an isolated copy via Branch, merged back
// deterministically after all branches complete.
type Context struct {
	Data *dataset.Dataset
	Aux  *dataset.AuxStore
	Meta Metadata

	variables map[string]any
	errs      []string
	warnings  []string
}

// NewContext creates the context for one run.
func NewContext(data *dataset.Dataset, entity, processingType string, processingDate int) *Context {
	return &Context{
		Data: data,
		Aux:  dataset.NewAuxStore(),
		Meta: Metadata{
			RunID:          uuid.New(),
			Entity:         entity,
			ProcessingType: processingType,
			ProcessingDate: processingDate,
			CreatedAt:      time.Now(),
		},
		variables: make(map[string]any),
	}
}

// SetVar stores a shared variable.
func (c *Context) SetVar(key string, value any) {
	c.variables[key] = value
}

// Var returns a shared variable.
func (c *Context) Var(key string) (any, bool) {
	v, ok := c.variables[key]
	return v, ok
}

// Vars returns a copy of the variable store.
func (c *Context) Vars() map[string]any {
	out := make(map[string]any, len(c.variables))
	for k, v := range c.variables {
		out[k] = v
	}

	return out
}

// AddError appends to the run's error list.
func (c *Context) AddError(msg string) {
	c.errs = append(c.errs, msg)
}

// AddWarning appends to the run's warning list.
func (c *Context) AddWarning(msg string) {
	c.warnings = append(c.warnings, msg)
}

// Errors returns a copy of the accumulated errors, in append order.
func (c *Context) Errors() []string {
	out := make([]string, len(c.errs))
	copy(out, c.errs)

	return out
}

// Warnings returns a copy of the accumulated warnings, in append order.
func (c *Context) Warnings() []string {
	out := make([]string, len(c.warnings))
	copy(out, c.warnings)

	return out
}

// Branch returns an isolated deep copy for one parallel child: cloned
// dataset and auxiliary registry, copied variables and diagnostics, shared
// immutable metadata.
func (c *Context) Branch() *Context {
	return &Context{
		Data:      c.Data.Clone(),
		Aux:       c.Aux.Clone(),
		Meta:      c.Meta,
		variables: c.Vars(),
		errs:      c.Errors(),
		warnings:  c.Warnings(),
	}
}

// State is the serializable form of a Context, used for checkpoints.
type State struct {
	Meta      Metadata                           `json:"meta"`
	Data      *dataset.Dataset                   `json:"data"`
	Aux       map[dataset.AuxKey]*dataset.Dataset `json:"aux,omitempty"`
	Variables map[string]any                     `json:"variables,omitempty"`
	Errors    []string                           `json:"errors,omitempty"`
	Warnings  []string                           `json:"warnings,omitempty"`
}

// State captures a deep snapshot of the context for external persistence.
func (c *Context) State() *State {
	aux := make(map[dataset.AuxKey]*dataset.Dataset, c.Aux.Len())
	for _, key := range c.Aux.Keys() {
		if ds, ok := c.Aux.Get(key); ok {
			aux[key] = ds.Clone()
		}
	}

	return &State{
		Meta:      c.Meta,
		Data:      c.Data.Clone(),
		Aux:       aux,
		Variables: c.Vars(),
		Errors:    c.Errors(),
		Warnings:  c.Warnings(),
	}
}

// FromState restores a Context from a persisted snapshot, so an external
// caller can resume a run after the step that produced the snapshot.
func FromState(s *State) *Context {
	aux := dataset.NewAuxStore()
	for key, ds := range s.Aux {
		aux.Put(key, ds)
	}

	variables := s.Variables
	if variables == nil {
		variables = make(map[string]any)
	}

	return &Context{
		Data:      s.Data,
		Aux:       aux,
		Meta:      s.Meta,
		variables: variables,
		errs:      s.Errors,
		warnings:  s.Warnings,
	}
}
