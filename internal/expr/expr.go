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

// Package expr implements the client-side scalar expression evaluator:
// arithmetic, string, date, conditional, cast, and numeric builtins,
// plus the three-valued predicate collapse used by client-side filters,
// IF/WHILE conditions, and computed projection columns.
//
// An Expr tree is built once by the planner from its own intermediate
// representation (this core does not itself parse SQL text) and compiled once into a closure; Eval never re-walks the
// tree.
package expr

import (
	"github.com/joshsmithxrm/ppds-queryengine/internal/types"
	"github.com/joshsmithxrm/ppds-queryengine/internal/value"
)

// Expr is a compiled scalar expression: one call to Eval produces one
// Value for the given row, under the given execution context (needed
// for @variable lookups and @@ERROR_* introspection).
type Expr interface {
	Eval(ec *types.ExecContext, row value.Row) (value.Value, error)
}

// exprFunc adapts a plain function to the Expr interface, matching the
// "no AST re-walking" shape: every constructor below returns an
// exprFunc closing over its already-validated operands.
type exprFunc func(ec *types.ExecContext, row value.Row) (value.Value, error)

// Eval implements Expr.
func (f exprFunc) Eval(ec *types.ExecContext, row value.Row) (value.Value, error) {
	return f(ec, row)
}

// Column references an output column by name, the basic
// column-reference primitive. Missing columns evaluate to Null,
// matching the Row.Get contract.
func Column(name string) Expr {
	return exprFunc(func(_ *types.ExecContext, row value.Row) (value.Value, error) {
		return row.GetOrNull(name), nil
	})
}

// Literal wraps a constant Value.
func Literal(v value.Value) Expr {
	return exprFunc(func(*types.ExecContext, value.Row) (value.Value, error) {
		return v, nil
	})
}

// Variable reads a script @variable from the execution context's
// scope. Referencing an undeclared variable evaluates to Null rather
// than erroring, matching T-SQL's permissive read-before-declare
// behavior for session scalars.
func Variable(name string) Expr {
	return exprFunc(func(ec *types.ExecContext, _ value.Row) (value.Value, error) {
		if ec == nil || ec.Scope == nil {
			return value.Null, nil
		}
		v, _ := ec.Scope.Get(name)
		return v, nil
	})
}
