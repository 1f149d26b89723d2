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

package value

import "fmt"

// Add implements numeric +, promoting to the widest operand kind.
// Either operand being null yields Null.
func Add(a, b Value) (Value, error) { return arith(a, b, "+") }

// Sub implements numeric -.
func Sub(a, b Value) (Value, error) { return arith(a, b, "-") }

// Mul implements numeric *.
func Mul(a, b Value) (Value, error) { return arith(a, b, "*") }

// Div implements numeric /. Division by zero returns an error rather
// than a panic or an infinity Value.
func Div(a, b Value) (Value, error) { return arith(a, b, "/") }

// Mod implements numeric %, always via integer or decimal modulo (never
// floating point), matching T-SQL's exact-remainder semantics.
func Mod(a, b Value) (Value, error) { return arith(a, b, "%") }

// ConcatOp implements the `+`/`||` string concatenation operator: unlike
// Concat (the CONCAT() function, which treats Null as empty string),
// either operand being Null makes the whole result Null.
func ConcatOp(a, b Value) (Value, error) {
	if a.IsNull() || b.IsNull() {
		return Null, nil
	}
	return NewString(a.Display() + b.Display()), nil
}

func arith(a, b Value, op string) (Value, error) {
	if a.IsNull() || b.IsNull() {
		return Null, nil
	}
	if !isNumeric(a.Kind) || !isNumeric(b.Kind) {
		return Value{}, fmt.Errorf("non-numeric operand for %q", op)
	}
	w := widest(a.Kind, b.Kind)
	if w == KindDouble {
		fa, fb := a.asFloat(), b.asFloat()
		switch op {
		case "+":
			return NewDouble(fa + fb), nil
		case "-":
			return NewDouble(fa - fb), nil
		case "*":
			return NewDouble(fa * fb), nil
		case "/":
			if fb == 0 {
				return Value{}, fmt.Errorf("division by zero")
			}
			return NewDouble(fa / fb), nil
		case "%":
			if fb == 0 {
				return Value{}, fmt.Errorf("division by zero")
			}
			return NewDouble(float64(int64(fa) % int64(fb))), nil
		}
	}
	da, db := a.asDecimal(), b.asDecimal()
	switch op {
	case "+":
		out := da.Add(db)
		if w == KindInt64 {
			return NewInt64(out.IntPart()), nil
		}
		return NewDecimal(out), nil
	case "-":
		out := da.Sub(db)
		if w == KindInt64 {
			return NewInt64(out.IntPart()), nil
		}
		return NewDecimal(out), nil
	case "*":
		out := da.Mul(db)
		if w == KindInt64 {
			return NewInt64(out.IntPart()), nil
		}
		return NewDecimal(out), nil
	case "/":
		if db.IsZero() {
			return Value{}, fmt.Errorf("division by zero")
		}
		out := da.DivRound(db, 12)
		if w == KindInt64 {
			return NewDecimal(out), nil
		}
		return NewDecimal(out), nil
	case "%":
		if db.IsZero() {
			return Value{}, fmt.Errorf("division by zero")
		}
		out := da.Mod(db)
		if w == KindInt64 {
			return NewInt64(out.IntPart()), nil
		}
		return NewDecimal(out), nil
	}
	return Value{}, fmt.Errorf("unsupported operator %q", op)
}

// Negate implements unary -.
func Negate(a Value) (Value, error) {
	if a.IsNull() {
		return Null, nil
	}
	switch a.Kind {
	case KindInt64:
		return NewInt64(-a.Int64), nil
	case KindDecimal:
		return NewDecimal(a.Decimal.Neg()), nil
	case KindDouble:
		return NewDouble(-a.Double), nil
	default:
		return Value{}, fmt.Errorf("non-numeric operand for unary -")
	}
}
