// Package ecs provides the entity-component storage used by the simulation
// systems. Entities are plain identifiers; components are arbitrary values
// attached to them, stored in per-type buckets.
//
// Iteration order is deterministic: buckets in creation order, entities in
// attachment order within a bucket. Simulations built on the registry replay
// identically from run to run.
package ecs

import "reflect"

// An Entity identifies one simulated object.
type Entity uint64

// Registry stores components attached to entities.
//
// The registry is not safe for concurrent use; like the scheduling engine it
// belongs to a single driving thread.
type Registry struct {
	lastID      Entity
	bucketOrder []reflect.Type
	buckets     map[reflect.Type]*bucket
}

type bucket struct {
	order []Entity
	items map[Entity]any
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		buckets: make(map[reflect.Type]*bucket),
	}
}

// Create allocates a fresh entity id.
func (r *Registry) Create() Entity {
	r.lastID++
	return r.lastID
}

// Emplace attaches component c to entity e, replacing any existing component
// of the same concrete type. It returns c so callers can keep the handle.
func Emplace[T any](r *Registry, e Entity, c T) T {
	key := reflect.TypeOf(c)

	b, ok := r.buckets[key]
	if !ok {
		b = &bucket{items: make(map[Entity]any)}
		r.buckets[key] = b
		r.bucketOrder = append(r.bucketOrder, key)
	}

	if _, exists := b.items[e]; !exists {
		b.order = append(b.order, e)
	}
	b.items[e] = c

	return c
}

// Get returns the component of concrete type T attached to e, if any.
func Get[T any](r *Registry, e Entity) (T, bool) {
	var zero T

	b, ok := r.buckets[reflect.TypeOf(zero)]
	if !ok {
		return zero, false
	}

	c, ok := b.items[e]
	if !ok {
		return zero, false
	}

	return c.(T), true
}

// Each calls fn for every stored component assignable to T, in deterministic
// order. T may be a concrete type or an interface; with an interface, every
// bucket whose components implement it contributes.
func Each[T any](r *Registry, fn func(c T, e Entity)) {
	for _, key := range r.bucketOrder {
		b := r.buckets[key]
		for _, e := range b.order {
			if c, ok := b.items[e].(T); ok {
				fn(c, e)
			}
		}
	}
}
