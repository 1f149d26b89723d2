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

package expr

import (
	"fmt"

	"github.com/joshsmithxrm/ppds-queryengine/internal/types"
	"github.com/joshsmithxrm/ppds-queryengine/internal/value"
)

type arithFn func(a, b value.Value) (value.Value, error)

// Arith builds a binary arithmetic expression for one of +, -, *, /, %,
// or the string concatenation operator ||. When op is + and either
// operand evaluates to a string, it concatenates (with Null propagating,
// unlike the CONCAT() function) instead of adding numerically.
// The operator is validated once at construction; Eval only dispatches.
func Arith(op string, left, right Expr) (Expr, error) {
	var fn arithFn
	switch op {
	case "+":
		fn = value.Add
	case "||":
		fn = value.ConcatOp
	case "-":
		fn = value.Sub
	case "*":
		fn = value.Mul
	case "/":
		fn = value.Div
	case "%":
		fn = value.Mod
	default:
		return nil, fmt.Errorf("unsupported arithmetic operator %q", op)
	}
	plusOperator := op == "+"
	return exprFunc(func(ec *types.ExecContext, row value.Row) (value.Value, error) {
		l, err := left.Eval(ec, row)
		if err != nil {
			return value.Value{}, err
		}
		r, err := right.Eval(ec, row)
		if err != nil {
			return value.Value{}, err
		}
		if plusOperator && (l.Kind == value.KindString || r.Kind == value.KindString) {
			return value.ConcatOp(l, r)
		}
		return fn(l, r)
	}), nil
}

// Neg builds a unary negation expression.
func Neg(operand Expr) Expr {
	return exprFunc(func(ec *types.ExecContext, row value.Row) (value.Value, error) {
		v, err := operand.Eval(ec, row)
		if err != nil {
			return value.Value{}, err
		}
		return value.Negate(v)
	})
}

// Concat implements string concatenation, treating Null as the empty
// string, matching SQL CONCAT semantics (distinct from '+' on
// strings, which propagates Null).
func Concat(parts ...Expr) Expr {
	return exprFunc(func(ec *types.ExecContext, row value.Row) (value.Value, error) {
		var sb []byte
		for _, p := range parts {
			v, err := p.Eval(ec, row)
			if err != nil {
				return value.Value{}, err
			}
			if v.IsNull() {
				continue
			}
			sb = append(sb, v.Display()...)
		}
		return value.NewString(string(sb)), nil
	})
}
