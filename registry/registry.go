// Package registry provides the ordered, key-addressable collection that
// holds every pluggable pipeline stage.
//
// Order is significant: block handlers and inline patterns are consulted in
// registry order, so position is priority. Entries are placed with a
// location string:
//
//	"start" or "_begin"      first position
//	"end" or "_end"          last position
//	"before:key" or "<key"   immediately before key
//	"after:key" or ">key"    immediately after key (the end when key is last)
package registry

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for registry operations.
var (
	ErrInvalidLocation = errors.New("invalid registry location")
	ErrUnknownKey      = errors.New("unknown registry key")
	ErrDuplicateKey    = errors.New("duplicate registry key")
)

// Registry is an insertion-ordered collection of values addressed by key.
// It is not safe for concurrent use.
type Registry[T any] struct {
	keys  []string
	items map[string]T
}

// New returns an empty registry.
func New[T any]() *Registry[T] {
	return &Registry[T]{items: make(map[string]T)}
}

// Len returns the number of entries.
func (r *Registry[T]) Len() int { return len(r.keys) }

// Keys returns the keys in order.
func (r *Registry[T]) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Get returns the value stored under key.
func (r *Registry[T]) Get(key string) (T, bool) {
	v, ok := r.items[key]
	return v, ok
}

// Index returns the position of key.
func (r *Registry[T]) Index(key string) (int, bool) {
	for i, k := range r.keys {
		if k == key {
			return i, true
		}
	}
	return -1, false
}

// Append adds item at the end. An existing key keeps its position and has
// its value replaced.
func (r *Registry[T]) Append(key string, item T) {
	if _, ok := r.items[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.items[key] = item
}

// Insert adds item at location. The key must not be present.
func (r *Registry[T]) Insert(key string, item T, location string) error {
	if _, ok := r.items[key]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateKey, key)
	}
	i, err := r.resolve(location)
	if err != nil {
		return err
	}
	r.insertKey(i, key)
	r.items[key] = item
	return nil
}

// Relocate moves an existing key to location. On failure the order is
// left as it was.
func (r *Registry[T]) Relocate(key, location string) error {
	pos, ok := r.Index(key)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	saved := r.Keys()
	r.keys = append(r.keys[:pos], r.keys[pos+1:]...)
	i, err := r.resolve(location)
	if err != nil {
		r.keys = saved
		return err
	}
	r.insertKey(i, key)
	return nil
}

// Delete removes key and reports whether it was present.
func (r *Registry[T]) Delete(key string) bool {
	pos, ok := r.Index(key)
	if !ok {
		return false
	}
	r.keys = append(r.keys[:pos], r.keys[pos+1:]...)
	delete(r.items, key)
	return true
}

// Snapshot returns the values in order. The slice is a copy: stages may
// change the registry while the snapshot is being iterated.
func (r *Registry[T]) Snapshot() []T {
	out := make([]T, len(r.keys))
	for i, k := range r.keys {
		out[i] = r.items[k]
	}
	return out
}

func (r *Registry[T]) insertKey(i int, key string) {
	r.keys = append(r.keys, "")
	copy(r.keys[i+1:], r.keys[i:])
	r.keys[i] = key
}

// resolve turns a location string into an insertion index.
func (r *Registry[T]) resolve(location string) (int, error) {
	switch location {
	case "start", "_begin":
		return 0, nil
	case "end", "_end":
		return len(r.keys), nil
	}

	var ref string
	var after bool
	switch {
	case strings.HasPrefix(location, "before:"):
		ref = strings.TrimPrefix(location, "before:")
	case strings.HasPrefix(location, "after:"):
		ref, after = strings.TrimPrefix(location, "after:"), true
	case strings.HasPrefix(location, "<"):
		ref = location[1:]
	case strings.HasPrefix(location, ">"):
		ref, after = location[1:], true
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidLocation, location)
	}
	if ref == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLocation, location)
	}

	i, ok := r.Index(ref)
	if !ok {
		return 0, fmt.Errorf("%w: %q in location %q", ErrUnknownKey, ref, location)
	}
	if after {
		i++
	}
	return i, nil
}
