// Package identified provides ordered collections addressed by element identity.
package identified

import (
	"encoding/json"
	"fmt"
	"iter"
	"slices"
)

// Identifiable is implemented by elements that carry a stable identity token,
// distinct from structural equality.
type Identifiable[ID comparable] interface {
	Identity() ID
}

// Array is an ordered collection of uniquely identified elements.
// It is a value: every mutating method returns a new Array and leaves the
// receiver untouched, so it can live inside reducer state.
type Array[ID comparable, T Identifiable[ID]] struct {
	items []T
	index map[ID]int
}

// New builds an Array from elements. Later duplicates replace earlier ones in place.
func New[ID comparable, T Identifiable[ID]](elements ...T) Array[ID, T] {
	var a Array[ID, T]
	for _, e := range elements {
		if _, ok := a.index[e.Identity()]; ok {
			a = a.Update(e)
			continue
		}
		a = a.Append(e)
	}
	return a
}

// Len returns the number of elements.
func (a Array[ID, T]) Len() int {
	return len(a.items)
}

// Get returns the element with id.
func (a Array[ID, T]) Get(id ID) (T, bool) {
	i, ok := a.index[id]
	if !ok {
		var zero T
		return zero, false
	}
	return a.items[i], true
}

// Has reports whether an element with id is present.
func (a Array[ID, T]) Has(id ID) bool {
	_, ok := a.index[id]
	return ok
}

// At returns the element at position i.
func (a Array[ID, T]) At(i int) T {
	return a.items[i]
}

// Append adds e at the end. If an element with the same identity exists it is
// replaced in place.
func (a Array[ID, T]) Append(e T) Array[ID, T] {
	if _, ok := a.index[e.Identity()]; ok {
		return a.Update(e)
	}
	items := make([]T, len(a.items), len(a.items)+1)
	copy(items, a.items)
	items = append(items, e)
	return build[ID](items)
}

// Update replaces the element carrying e's identity. Absent identities leave
// the Array unchanged.
func (a Array[ID, T]) Update(e T) Array[ID, T] {
	i, ok := a.index[e.Identity()]
	if !ok {
		return a
	}
	items := slices.Clone(a.items)
	items[i] = e
	return Array[ID, T]{items: items, index: a.index}
}

// Remove drops the element with id.
func (a Array[ID, T]) Remove(id ID) Array[ID, T] {
	i, ok := a.index[id]
	if !ok {
		return a
	}
	items := slices.Delete(slices.Clone(a.items), i, i+1)
	return build[ID](items)
}

// RemoveLast drops the last n elements.
func (a Array[ID, T]) RemoveLast(n int) Array[ID, T] {
	if n <= 0 {
		return a
	}
	if n >= len(a.items) {
		return Array[ID, T]{}
	}
	return build[ID](slices.Clone(a.items[:len(a.items)-n]))
}

// IDs returns the identities in order.
func (a Array[ID, T]) IDs() []ID {
	ids := make([]ID, len(a.items))
	for i, e := range a.items {
		ids[i] = e.Identity()
	}
	return ids
}

// Values returns a copy of the elements in order.
func (a Array[ID, T]) Values() []T {
	return slices.Clone(a.items)
}

// All iterates over the elements in order.
func (a Array[ID, T]) All() iter.Seq2[ID, T] {
	return func(yield func(ID, T) bool) {
		for _, e := range a.items {
			if !yield(e.Identity(), e) {
				return
			}
		}
	}
}

// MarshalJSON encodes the Array as a plain JSON array.
func (a Array[ID, T]) MarshalJSON() ([]byte, error) {
	if a.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a.items)
}

// UnmarshalJSON decodes a plain JSON array, rejecting duplicate identities.
func (a *Array[ID, T]) UnmarshalJSON(data []byte) error {
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	seen := make(map[ID]struct{}, len(items))
	for _, e := range items {
		if _, dup := seen[e.Identity()]; dup {
			return fmt.Errorf("identified: duplicate identity %v", e.Identity())
		}
		seen[e.Identity()] = struct{}{}
	}
	*a = build[ID](items)
	return nil
}

// build indexes items. Empty arrays are always the zero value so that
// equal contents compare equal with reflect.DeepEqual.
func build[ID comparable, T Identifiable[ID]](items []T) Array[ID, T] {
	if len(items) == 0 {
		return Array[ID, T]{}
	}
	index := make(map[ID]int, len(items))
	for i, e := range items {
		index[e.Identity()] = i
	}
	return Array[ID, T]{items: items, index: index}
}
