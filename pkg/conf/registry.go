package conf

import (
	"fmt"

	"github.com/permaconf/permaconf-go/pkg/group"
)

// MaxElements is the registry capacity. The group set is fixed by the build,
// so exceeding it is a programming error, not runtime data.
const MaxElements = 16

// Element is one registered configuration group.
type Element struct {
	// Name is the group's unique name.
	Name string

	// Handler is the group's capability set, owned by the registering
	// caller, which must outlive the engine.
	Handler group.Handler

	// Updated is invoked after the group's in-memory state may have
	// changed (set, load). Consumers must tolerate spurious invocations.
	Updated func()
}

// Registry is a fixed-capacity, insertion-ordered collection of elements.
// It grows only during the registration phase and is read-only afterwards.
type Registry struct {
	elements [MaxElements]Element
	n        int
	index    map[string]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int, MaxElements)}
}

// Register adds a group. Duplicate names and capacity overflow are
// programming errors and panic before any command can run.
func (r *Registry) Register(name string, handler group.Handler, updated func()) {
	if _, dup := r.index[name]; dup {
		panic(fmt.Sprintf("conf: duplicate group %q", name))
	}
	if r.n == MaxElements {
		panic(fmt.Sprintf("conf: registry capacity (%d) exceeded registering %q", MaxElements, name))
	}
	if updated == nil {
		updated = func() {}
	}
	r.elements[r.n] = Element{Name: name, Handler: handler, Updated: updated}
	r.index[name] = r.n
	r.n++
}

// Find returns the element registered under name.
func (r *Registry) Find(name string) (*Element, bool) {
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return &r.elements[i], true
}

// Len returns the number of registered elements.
func (r *Registry) Len() int {
	return r.n
}

// At returns the element at registration position i.
func (r *Registry) At(i int) *Element {
	return &r.elements[i]
}
