// Copyright 2023 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package ident provides case-insensitive identifiers for entity and
// column names used throughout the planner and execution engine.
package ident

import "strings"

// An Ident is a case-insensitive name. Equality and map lookups use the
// folded form; Raw preserves the originally supplied casing for display.
type Ident struct {
	raw    string
	folded string
}

// New returns an Ident for the given raw name.
func New(raw string) Ident {
	return Ident{raw: raw, folded: strings.ToLower(raw)}
}

// Raw returns the identifier exactly as it was constructed.
func (i Ident) Raw() string { return i.raw }

// String implements fmt.Stringer.
func (i Ident) String() string { return i.raw }

// Empty reports whether the identifier carries no name.
func (i Ident) Empty() bool { return i.folded == "" }

// Equal compares two identifiers case-insensitively.
func (i Ident) Equal(o Ident) bool { return i.folded == o.folded }

// EqualString compares an identifier to a raw string case-insensitively.
func (i Ident) EqualString(s string) bool { return i.folded == strings.ToLower(s) }

// A Table is a two-part entity/alias reference: the owning entity (or
// linked-entity alias) and, optionally, the join tag used to
// disambiguate repeated entities in a FetchXML link-entity tree.
type Table struct {
	Entity Ident
	Alias  Ident
}

// NewTable constructs a Table from raw entity and alias names. An empty
// alias means "the base entity, unaliased".
func NewTable(entity, alias string) Table {
	return Table{Entity: New(entity), Alias: New(alias)}
}

// Name returns the alias if present, otherwise the entity name — the
// identifier that should be used to qualify a column reference.
func (t Table) Name() Ident {
	if !t.Alias.Empty() {
		return t.Alias
	}
	return t.Entity
}

// String implements fmt.Stringer.
func (t Table) String() string {
	if t.Alias.Empty() {
		return t.Entity.Raw()
	}
	return t.Entity.Raw() + " AS " + t.Alias.Raw()
}

// Map is a case-insensitive, first-insertion-wins map keyed by Ident,
// matching the Row model's first-insertion-wins-on-conflict behavior.
type Map[V any] struct {
	keys   []string // folded keys, insertion order
	raw    map[string]string
	values map[string]V
}

// NewMap constructs an empty Map.
func NewMap[V any]() *Map[V] {
	return &Map[V]{raw: map[string]string{}, values: map[string]V{}}
}

// Put inserts a value for the given identifier. If the identifier is
// already present, the existing value and original casing are retained
// (first insertion wins), matching the Row invariant.
func (m *Map[V]) Put(id Ident, v V) {
	if _, ok := m.values[id.folded]; ok {
		return
	}
	m.keys = append(m.keys, id.folded)
	m.raw[id.folded] = id.raw
	m.values[id.folded] = v
}

// Set inserts or overwrites a value for the given identifier, used by
// callers (e.g. SET / variable assignment) that need overwrite
// semantics rather than first-insertion-wins.
func (m *Map[V]) Set(id Ident, v V) {
	if _, ok := m.values[id.folded]; !ok {
		m.keys = append(m.keys, id.folded)
		m.raw[id.folded] = id.raw
	}
	m.values[id.folded] = v
}

// Get looks up a value by identifier.
func (m *Map[V]) Get(id Ident) (V, bool) {
	v, ok := m.values[id.folded]
	return v, ok
}

// GetZero looks up a value, returning the zero value if absent.
func (m *Map[V]) GetZero(id Ident) V {
	return m.values[id.folded]
}

// Delete removes an identifier from the map.
func (m *Map[V]) Delete(id Ident) {
	if _, ok := m.values[id.folded]; !ok {
		return
	}
	delete(m.values, id.folded)
	delete(m.raw, id.folded)
	for i, k := range m.keys {
		if k == id.folded {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of entries.
func (m *Map[V]) Len() int { return len(m.keys) }

// Keys returns identifiers in insertion order.
func (m *Map[V]) Keys() []Ident {
	out := make([]Ident, len(m.keys))
	for i, k := range m.keys {
		out[i] = Ident{raw: m.raw[k], folded: k}
	}
	return out
}

// Range iterates entries in insertion order, stopping early on error.
func (m *Map[V]) Range(fn func(Ident, V) error) error {
	for _, k := range m.keys {
		id := Ident{raw: m.raw[k], folded: k}
		if err := fn(id, m.values[k]); err != nil {
			return err
		}
	}
	return nil
}

// TableMap is a Map keyed by Table, folding on entity+alias.
type TableMap[V any] struct {
	inner *Map[V]
}

func tableKey(t Table) Ident {
	return New(t.Entity.folded + "\x00" + t.Alias.folded)
}

// Put inserts a value for the table, first-insertion-wins.
func (m *TableMap[V]) Put(t Table, v V) {
	if m.inner == nil {
		m.inner = NewMap[V]()
	}
	m.inner.Put(tableKey(t), v)
}

// Get looks up a value by table.
func (m *TableMap[V]) Get(t Table) (V, bool) {
	if m.inner == nil {
		var zero V
		return zero, false
	}
	return m.inner.Get(tableKey(t))
}

// GetZero looks up a value, returning the zero value if absent.
func (m *TableMap[V]) GetZero(t Table) V {
	if m.inner == nil {
		var zero V
		return zero
	}
	return m.inner.GetZero(tableKey(t))
}
