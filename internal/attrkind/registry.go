package attrkind

import (
	"slices"
	"strings"
	"sync"

	"attrschema/internal/domain/entity"
)

// FallbackKind is the kind used when a definition's kind is unknown or does
// not implement a capability.
const FallbackKind = "text"

// completeKind implements every dispatchable capability.
type completeKind interface {
	Kind
	Renderer
	Validator
	Sanitizer
}

// Registry maps kind names to implementations. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	kinds    map[string]Kind
	order    []string
	fallback completeKind
}

// NewRegistry returns an empty registry. Dispatch still works through the
// built-in text kind, which is not listed until registered.
func NewRegistry() *Registry {
	return &Registry{
		kinds:    make(map[string]Kind),
		fallback: newText(),
	}
}

// NewDefaultRegistry returns a registry populated with every built-in kind.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, k := range Builtins() {
		r.Register(k)
	}

	return r
}

// Register adds a kind under its descriptor name. It returns false when the
// name is empty or already taken; an existing registration is never replaced.
func (r *Registry) Register(k Kind) bool {
	if k == nil {
		return false
	}
	name := strings.TrimSpace(k.Descriptor().Name)
	if name == "" {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.kinds[name]; exists {
		return false
	}
	r.kinds[name] = k
	r.order = append(r.order, name)

	return true
}

// Unregister removes a kind and reports whether it was present.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.kinds[name]; !exists {
		return false
	}
	delete(r.kinds, name)
	r.order = slices.DeleteFunc(r.order, func(n string) bool { return n == name })

	return true
}

// Lookup returns the kind registered under name.
func (r *Registry) Lookup(name string) (Kind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	k, ok := r.kinds[name]

	return k, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Lookup(name)

	return ok
}

// Names returns the registered kind names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.order)
}

// Descriptors returns the descriptors of all registered kinds in registration order.
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.kinds[name].Descriptor())
	}

	return out
}

// Descriptor returns the descriptor for name, falling back to the text kind.
func (r *Registry) Descriptor(name string) Descriptor {
	if k, ok := r.Lookup(name); ok {
		return k.Descriptor()
	}

	return r.fallbackKind().Descriptor()
}

// Render dispatches to the definition kind's Renderer.
func (r *Registry) Render(def *entity.AttributeDefinition, value any, args RenderArgs) (string, error) {
	if k, ok := r.Lookup(def.Kind); ok {
		if renderer, ok := k.(Renderer); ok {
			return renderer.Render(def, value, args)
		}
	}

	return r.fallbackKind().Render(def, value, args)
}

// Validate dispatches to the definition kind's Validator. Kinds without one
// get the required-if-empty check plus the generic text rules.
func (r *Registry) Validate(def *entity.AttributeDefinition, value any) Result {
	if k, ok := r.Lookup(def.Kind); ok {
		if validator, ok := k.(Validator); ok {
			return validator.Validate(def, value)
		}
	}

	return r.fallbackKind().Validate(def, value)
}

// Sanitize dispatches to the definition kind's Sanitizer.
func (r *Registry) Sanitize(def *entity.AttributeDefinition, value any) any {
	if k, ok := r.Lookup(def.Kind); ok {
		if sanitizer, ok := k.(Sanitizer); ok {
			return sanitizer.Sanitize(def, value)
		}
	}

	return r.fallbackKind().Sanitize(def, value)
}

// Project dispatches to the definition kind's Projector. Kinds without one
// get a numeric projection when the value is a plain number.
func (r *Registry) Project(def *entity.AttributeDefinition, value any) Projection {
	if k, ok := r.Lookup(def.Kind); ok {
		if projector, ok := k.(Projector); ok {
			return projector.Project(def, value)
		}
	}
	if f, ok := entity.ToFloat(value); ok {
		if _, isString := value.(string); !isString {
			return Projection{Numeric: &f}
		}
	}

	return Projection{}
}

// fallbackKind prefers a registered text kind so an override of "text" also
// changes the fallback behavior.
func (r *Registry) fallbackKind() completeKind {
	if k, ok := r.Lookup(FallbackKind); ok {
		if full, ok := k.(completeKind); ok {
			return full
		}
	}

	return r.fallback
}
