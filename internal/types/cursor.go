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

package types

import "github.com/joshsmithxrm/ppds-queryengine/internal/value"

// A Cursor holds the materialized state for one DECLARE CURSOR name: the child plan, its fully materialized row list, a
// 0-based position (-1 before the first FETCH), and an open flag.
// DEALLOCATE removes the Cursor from its owning scope entirely; CLOSE
// only flips Open to false so a later OPEN can reuse the entry.
type Cursor struct {
	Plan     PlanNode
	Rows     []value.Row
	Position int
	Open     bool
}

// NewCursor constructs an unopened Cursor bound to plan.
func NewCursor(plan PlanNode) *Cursor {
	return &Cursor{Plan: plan, Position: -1}
}

// Fetch advances the cursor by one row and returns it. ok is false at
// end of the materialized set; the caller (FETCH NEXT) surfaces this as
// @@FETCH_STATUS = -1.
func (c *Cursor) Fetch() (value.Row, bool) {
	next := c.Position + 1
	if next >= len(c.Rows) {
		c.Position = len(c.Rows)
		return value.Row{}, false
	}
	c.Position = next
	return c.Rows[next], true
}

// Reopen resets position to before-first-row and marks the cursor open,
// re-materializing rows into the cursor, for OPEN on a previously closed
// (but not deallocated) cursor.
func (c *Cursor) Reopen(rows []value.Row) {
	c.Rows = rows
	c.Position = -1
	c.Open = true
}

// Close flips Open to false without discarding materialized rows, so a
// subsequent OPEN is a cheap re-arm rather than a re-declare.
func (c *Cursor) Close() { c.Open = false }

// DeclareCursor registers a new, unopened cursor under name in the
// scope, replacing any existing cursor of the same name.
func (s *VariableScope) DeclareCursor(name string, plan PlanNode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursors[normalizeVarName(name)] = NewCursor(plan)
}

// Cursor looks up a declared cursor by name.
func (s *VariableScope) Cursor(name string) (*Cursor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cursors[normalizeVarName(name)]
	return c, ok
}

// DeallocateCursor removes a cursor entry entirely; only
// DEALLOCATE (not CLOSE) does this.
func (s *VariableScope) DeallocateCursor(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cursors, normalizeVarName(name))
}
