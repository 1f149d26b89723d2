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

// triValue lifts a Tri into a Value: True/False become bool Values,
// Unknown becomes Null, representing three-valued results as nullable
// booleans.
func triValue(t value.Tri) value.Value {
	switch t {
	case value.True:
		return value.NewBool(true)
	case value.False:
		return value.NewBool(false)
	default:
		return value.Null
	}
}

func asTri(v value.Value) value.Tri {
	if v.IsNull() {
		return value.Unknown
	}
	if v.Kind == value.KindBool {
		return value.FromBool(v.Bool)
	}
	return value.Unknown
}

// Compare builds a binary comparison expression for one of =, <>, !=,
// <, <=, >, >=. The result is a nullable boolean
func Compare(op string, left, right Expr) (Expr, error) {
	switch op {
	case "=", "<>", "!=", "<", "<=", ">", ">=":
	default:
		return nil, fmt.Errorf("unsupported comparison operator %q", op)
	}
	return exprFunc(func(ec *types.ExecContext, row value.Row) (value.Value, error) {
		l, err := left.Eval(ec, row)
		if err != nil {
			return value.Value{}, err
		}
		r, err := right.Eval(ec, row)
		if err != nil {
			return value.Value{}, err
		}
		var t value.Tri
		switch op {
		case "=":
			t = value.Equal(l, r)
		case "<>", "!=":
			t = value.Equal(l, r).Not()
		case "<":
			t = value.Less(l, r)
		case ">":
			t = value.Greater(l, r)
		case "<=":
			t = value.Greater(l, r).Not()
		case ">=":
			t = value.Less(l, r).Not()
		}
		return triValue(t), nil
	}), nil
}

// LikePredicate builds a LIKE expression.
func LikePredicate(subject, pattern Expr) Expr {
	return exprFunc(func(ec *types.ExecContext, row value.Row) (value.Value, error) {
		s, err := subject.Eval(ec, row)
		if err != nil {
			return value.Value{}, err
		}
		p, err := pattern.Eval(ec, row)
		if err != nil {
			return value.Value{}, err
		}
		return triValue(value.Like(s, p)), nil
	})
}

// And builds a three-valued AND, evaluating both operands (client-side
// predicates over already-materialized rows have no short-circuit
// benefit worth the added branching).
func And(left, right Expr) Expr {
	return exprFunc(func(ec *types.ExecContext, row value.Row) (value.Value, error) {
		l, err := left.Eval(ec, row)
		if err != nil {
			return value.Value{}, err
		}
		r, err := right.Eval(ec, row)
		if err != nil {
			return value.Value{}, err
		}
		return triValue(asTri(l).And(asTri(r))), nil
	})
}

// Or builds a three-valued OR.
func Or(left, right Expr) Expr {
	return exprFunc(func(ec *types.ExecContext, row value.Row) (value.Value, error) {
		l, err := left.Eval(ec, row)
		if err != nil {
			return value.Value{}, err
		}
		r, err := right.Eval(ec, row)
		if err != nil {
			return value.Value{}, err
		}
		return triValue(asTri(l).Or(asTri(r))), nil
	})
}

// Not builds a three-valued NOT.
func Not(operand Expr) Expr {
	return exprFunc(func(ec *types.ExecContext, row value.Row) (value.Value, error) {
		v, err := operand.Eval(ec, row)
		if err != nil {
			return value.Value{}, err
		}
		return triValue(asTri(v).Not()), nil
	})
}

// IsNull builds an IS NULL test, which (unlike = NULL) always returns a
// definite true/false, never Unknown.
func IsNull(operand Expr) Expr {
	return exprFunc(func(ec *types.ExecContext, row value.Row) (value.Value, error) {
		v, err := operand.Eval(ec, row)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewBool(v.IsNull()), nil
	})
}

// IsNotNull builds an IS NOT NULL test.
func IsNotNull(operand Expr) Expr {
	return exprFunc(func(ec *types.ExecContext, row value.Row) (value.Value, error) {
		v, err := operand.Eval(ec, row)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewBool(!v.IsNull()), nil
	})
}
