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

import (
	"strings"
	"sync"

	"github.com/joshsmithxrm/ppds-queryengine/internal/value"
)

// A Variable is one DECLAREd name: its declared type tag and current
// value.
type Variable struct {
	Type  value.TypeTag
	Value value.Value
}

// VariableScope is a per-script name→Variable mapping:
// flat within a script execution (IF/WHILE/TRY bodies share the
// enclosing scope). Names are referenced as "@name" and looked up
// case-insensitively. Not safe for concurrent use across executions;
// a single script execution owns one scope.
type VariableScope struct {
	mu   sync.Mutex
	vars map[string]*Variable
	// cursors is owned by the scope so that cursor lifetime matches
	// the duration of one script execution.
	cursors map[string]*Cursor
}

// NewVariableScope constructs an empty scope.
func NewVariableScope() *VariableScope {
	return &VariableScope{vars: map[string]*Variable{}, cursors: map[string]*Cursor{}}
}

func normalizeVarName(name string) string {
	return strings.ToLower(strings.TrimPrefix(name, "@"))
}

// Declare registers a variable with its type and initial value (Null if
// not otherwise initialized).
func (s *VariableScope) Declare(name string, typ value.TypeTag, initial value.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vars[normalizeVarName(name)] = &Variable{Type: typ, Value: initial}
}

// Set stores a new value for an already-declared variable. It declares
// the variable as TypeUnknown if not already present, a permissive
// behavior needed for session-level scalars such as @@ERROR_MESSAGE
// that are never explicitly DECLAREd.
func (s *VariableScope) Set(name string, v value.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := normalizeVarName(name)
	if existing, ok := s.vars[key]; ok {
		existing.Value = v
		return
	}
	s.vars[key] = &Variable{Type: value.TypeUnknown, Value: v}
}

// Get looks up a variable's current value. ok is false if undeclared.
func (s *VariableScope) Get(name string) (value.Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vars[normalizeVarName(name)]
	if !ok {
		return value.Null, false
	}
	return v.Value, true
}

// Declared reports whether name has been declared in this scope.
func (s *VariableScope) Declared(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.vars[normalizeVarName(name)]
	return ok
}

// The four error-context variable names, declared on demand by the
// catch handler.
const (
	ErrorMessageVar  = "@@ERROR_MESSAGE"
	ErrorNumberVar   = "@@ERROR_NUMBER"
	ErrorSeverityVar = "@@ERROR_SEVERITY"
	ErrorStateVar    = "@@ERROR_STATE"
)

// SetErrorContext populates @@ERROR_* from a caught error. The values
// are retained for the lifetime of the enclosing script execution and
// are always fully overwritten (all four) by the error that triggered
// the CATCH.
func (s *VariableScope) SetErrorContext(message string, number, severity, state int64) {
	s.Set(ErrorMessageVar, value.NewString(message))
	s.Set(ErrorNumberVar, value.NewInt64(number))
	s.Set(ErrorSeverityVar, value.NewInt64(severity))
	s.Set(ErrorStateVar, value.NewInt64(state))
}

// ClearErrorContext unsets @@ERROR_*, so a later read sees them as
// undeclared. The script executor does not call it; error variables set
// by a CATCH stay in the scope until they are overwritten or cleared here.
func (s *VariableScope) ClearErrorContext() {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.vars, normalizeVarName(ErrorMessageVar))
	delete(s.vars, normalizeVarName(ErrorNumberVar))
	delete(s.vars, normalizeVarName(ErrorSeverityVar))
	delete(s.vars, normalizeVarName(ErrorStateVar))
}
