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

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Tri is SQL's three-valued logic result: True, False, or Unknown.
type Tri int

// The three truth values.
const (
	Unknown Tri = iota
	False
	True
)

// Bool converts Unknown to false, the standard "Unknown is treated
// as false" control-flow collapse.
func (t Tri) Bool() bool { return t == True }

// FromBool lifts a Go bool into Tri.
func FromBool(b bool) Tri {
	if b {
		return True
	}
	return False
}

// And implements SQL AND's three-valued truth table.
func (t Tri) And(o Tri) Tri {
	if t == False || o == False {
		return False
	}
	if t == Unknown || o == Unknown {
		return Unknown
	}
	return True
}

// Or implements SQL OR's three-valued truth table.
func (t Tri) Or(o Tri) Tri {
	if t == True || o == True {
		return True
	}
	if t == Unknown || o == Unknown {
		return Unknown
	}
	return False
}

// Not implements SQL NOT; NOT Unknown is Unknown.
func (t Tri) Not() Tri {
	switch t {
	case True:
		return False
	case False:
		return True
	default:
		return Unknown
	}
}

// widest promotes two numeric kinds to the widest representation needed
// to compare them without loss ("numerics compare by
// promotion to the widest type involved").
func widest(a, b Kind) Kind {
	rank := func(k Kind) int {
		switch k {
		case KindInt64:
			return 1
		case KindDecimal:
			return 2
		case KindDouble:
			return 3
		default:
			return 0
		}
	}
	if rank(a) >= rank(b) {
		return a
	}
	return b
}

func (v Value) asDecimal() decimal.Decimal {
	switch v.Kind {
	case KindInt64:
		return decimal.NewFromInt(v.Int64)
	case KindDecimal:
		return v.Decimal
	case KindDouble:
		return decimal.NewFromFloat(v.Double)
	default:
		return decimal.Zero
	}
}

func (v Value) asFloat() float64 {
	switch v.Kind {
	case KindInt64:
		return float64(v.Int64)
	case KindDecimal:
		f, _ := v.Decimal.Float64()
		return f
	case KindDouble:
		return v.Double
	default:
		return 0
	}
}

func isNumeric(k Kind) bool {
	return k == KindInt64 || k == KindDecimal || k == KindDouble
}

// Compare returns (-1, 0, 1, ok) for two non-null values of compatible
// kinds. ok is false if the values cannot be ordered (e.g. mismatched
// non-numeric kinds).
func Compare(a, b Value) (int, bool) {
	if a.IsNull() || b.IsNull() {
		return 0, false
	}
	switch {
	case isNumeric(a.Kind) && isNumeric(b.Kind):
		w := widest(a.Kind, b.Kind)
		if w == KindDouble {
			fa, fb := a.asFloat(), b.asFloat()
			switch {
			case fa < fb:
				return -1, true
			case fa > fb:
				return 1, true
			default:
				return 0, true
			}
		}
		return a.asDecimal().Cmp(b.asDecimal()), true
	case a.Kind == KindString && b.Kind == KindString:
		return strings.Compare(strings.ToLower(a.String), strings.ToLower(b.String)), true
	case a.Kind == KindTimestamp && b.Kind == KindTimestamp:
		ua, ub := a.Timestamp.UTC(), b.Timestamp.UTC()
		switch {
		case ua.Before(ub):
			return -1, true
		case ua.After(ub):
			return 1, true
		default:
			return 0, true
		}
	case a.Kind == KindUUID && b.Kind == KindUUID:
		ba, bb := a.UUID[:], b.UUID[:]
		for i := range ba {
			if ba[i] != bb[i] {
				if ba[i] < bb[i] {
					return -1, true
				}
				return 1, true
			}
		}
		return 0, true
	default:
		return 0, false
	}
}

// Equal implements SQL's three-valued =: any null
// operand yields Unknown; strings compare case-insensitively; booleans
// only compare with = and <>.
func Equal(a, b Value) Tri {
	if a.IsNull() || b.IsNull() {
		return Unknown
	}
	if a.Kind == KindBool || b.Kind == KindBool {
		if a.Kind != KindBool || b.Kind != KindBool {
			return Unknown
		}
		return FromBool(a.Bool == b.Bool)
	}
	if a.Kind == KindBytes || b.Kind == KindBytes {
		if a.Kind != KindBytes || b.Kind != KindBytes {
			return Unknown
		}
		if len(a.Bytes) != len(b.Bytes) {
			return False
		}
		for i := range a.Bytes {
			if a.Bytes[i] != b.Bytes[i] {
				return False
			}
		}
		return True
	}
	c, ok := Compare(a, b)
	if !ok {
		return Unknown
	}
	return FromBool(c == 0)
}

// Less implements three-valued <.
func Less(a, b Value) Tri {
	if a.IsNull() || b.IsNull() {
		return Unknown
	}
	c, ok := Compare(a, b)
	if !ok {
		return Unknown
	}
	return FromBool(c < 0)
}

// Greater implements three-valued >.
func Greater(a, b Value) Tri {
	if a.IsNull() || b.IsNull() {
		return Unknown
	}
	c, ok := Compare(a, b)
	if !ok {
		return Unknown
	}
	return FromBool(c > 0)
}

// Like implements SQL LIKE with % and _ wildcards and backslash
// escaping, case-insensitively.
func Like(s, pattern Value) Tri {
	if s.IsNull() || pattern.IsNull() {
		return Unknown
	}
	if s.Kind != KindString || pattern.Kind != KindString {
		return Unknown
	}
	return FromBool(likeMatch(strings.ToLower(s.String), strings.ToLower(pattern.String)))
}

// likeMatch implements a standard backtracking LIKE matcher supporting
// '%' (any run, including empty), '_' (exactly one char), and '\' as an
// escape for a following '%', '_', or '\'.
func likeMatch(s, pattern string) bool {
	sr, pr := []rune(s), []rune(pattern)

	var match func(si, pi int) bool
	match = func(si, pi int) bool {
		for pi < len(pr) {
			switch pr[pi] {
			case '\\':
				if pi+1 >= len(pr) {
					return false
				}
				if si >= len(sr) || sr[si] != pr[pi+1] {
					return false
				}
				si++
				pi += 2
			case '%':
				// Collapse consecutive '%'.
				for pi < len(pr) && pr[pi] == '%' {
					pi++
				}
				if pi == len(pr) {
					return true
				}
				for k := si; k <= len(sr); k++ {
					if match(k, pi) {
						return true
					}
				}
				return false
			case '_':
				if si >= len(sr) {
					return false
				}
				si++
				pi++
			default:
				if si >= len(sr) || sr[si] != pr[pi] {
					return false
				}
				si++
				pi++
			}
		}
		return si == len(sr)
	}
	return match(0, 0)
}
