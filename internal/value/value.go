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

// Package value implements the typed cell, column descriptor, and row
// model used throughout query execution.
package value

import (
	"encoding/hex"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind is the closed set of raw value kinds a Value may carry.
type Kind int

// The supported raw value kinds.
const (
	KindNull Kind = iota
	KindInt64
	KindDecimal
	KindDouble
	KindBool
	KindString
	KindTimestamp
	KindUUID
	KindBytes
	KindMultiSelect
)

// TypeTag is the closed set of declared column types.
type TypeTag int

// The supported declared column type tags.
const (
	TypeUnknown TypeTag = iota
	TypeString
	TypeInteger
	TypeBigInt
	TypeDecimal
	TypeDouble
	TypeBoolean
	TypeDateTime
	TypeGuid
	TypeLookup
	TypeOptionSet
	TypeMultiSelectOptionSet
	TypeMoney
	TypeMemo
	TypeImage
)

// String implements fmt.Stringer for debugging and plan descriptions.
func (t TypeTag) String() string {
	switch t {
	case TypeString:
		return "String"
	case TypeInteger:
		return "Integer"
	case TypeBigInt:
		return "BigInt"
	case TypeDecimal:
		return "Decimal"
	case TypeDouble:
		return "Double"
	case TypeBoolean:
		return "Boolean"
	case TypeDateTime:
		return "DateTime"
	case TypeGuid:
		return "Guid"
	case TypeLookup:
		return "Lookup"
	case TypeOptionSet:
		return "OptionSet"
	case TypeMultiSelectOptionSet:
		return "MultiSelectOptionSet"
	case TypeMoney:
		return "Money"
	case TypeMemo:
		return "Memo"
	case TypeImage:
		return "Image"
	default:
		return "Unknown"
	}
}

// A Value is one cell: a raw value of a closed kind set,
// an optional pre-formatted display string, and (for lookups) the
// target entity name and uuid.
type Value struct {
	Kind Kind

	Int64     int64
	Decimal   decimal.Decimal
	Double    float64
	Bool      bool
	String    string
	Timestamp time.Time // normalized to UTC by NewTimestamp; the source offset is not kept
	UUID      uuid.UUID
	Bytes     []byte
	MultiSelect []Value

	// FormattedText is the optional pre-formatted display string used
	// by lookups, option sets, and formatted numerics.
	FormattedText *string

	// LookupEntity and LookupID are populated only when the Value
	// represents a lookup reference.
	LookupEntity string
	LookupID     uuid.UUID
}

// Null is the canonical null Value.
var Null = Value{Kind: KindNull}

// IsNull reports whether the Value is SQL NULL.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// NewInt64 constructs an integer Value.
func NewInt64(i int64) Value { return Value{Kind: KindInt64, Int64: i} }

// NewDecimal constructs a decimal Value.
func NewDecimal(d decimal.Decimal) Value { return Value{Kind: KindDecimal, Decimal: d} }

// NewDouble constructs a floating-point Value.
func NewDouble(f float64) Value { return Value{Kind: KindDouble, Double: f} }

// NewBool constructs a boolean Value.
func NewBool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// NewString constructs a string Value.
func NewString(s string) Value { return Value{Kind: KindString, String: s} }

// NewTimestamp constructs a timestamp Value, normalized to UTC ("timestamps compare in UTC").
func NewTimestamp(t time.Time) Value { return Value{Kind: KindTimestamp, Timestamp: t.UTC()} }

// NewUUID constructs a uuid Value.
func NewUUID(u uuid.UUID) Value { return Value{Kind: KindUUID, UUID: u} }

// NewBytes constructs a byte-sequence Value.
func NewBytes(b []byte) Value { return Value{Kind: KindBytes, Bytes: b} }

// NewLookup constructs a uuid Value carrying lookup metadata, with an
// optional formatted display name.
func NewLookup(id uuid.UUID, entity string, formatted string) Value {
	v := Value{Kind: KindUUID, UUID: id, LookupEntity: entity, LookupID: id}
	if formatted != "" {
		v.FormattedText = &formatted
	}
	return v
}

// WithFormatted attaches a pre-formatted display string to a copy of v.
func (v Value) WithFormatted(text string) Value {
	v.FormattedText = &text
	return v
}

// Display returns the FormattedText if present, otherwise a canonical
// textual rendering of the raw value by Kind. This is the basis for
// join keys, partition keys, and group-by keys, so every Kind must
// round-trip to a distinct, stable string.
func (v Value) Display() string {
	if v.FormattedText != nil {
		return *v.FormattedText
	}
	switch v.Kind {
	case KindNull:
		return ""
	case KindInt64:
		return strconv.FormatInt(v.Int64, 10)
	case KindDecimal:
		return v.Decimal.String()
	case KindDouble:
		return strconv.FormatFloat(v.Double, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindString:
		return v.String
	case KindTimestamp:
		return v.Timestamp.UTC().Format(time.RFC3339Nano)
	case KindUUID:
		return v.UUID.String()
	case KindBytes:
		return hex.EncodeToString(v.Bytes)
	case KindMultiSelect:
		parts := make([]string, len(v.MultiSelect))
		for i, item := range v.MultiSelect {
			parts[i] = item.Display()
		}
		out := ""
		for i, p := range parts {
			if i > 0 {
				out += ","
			}
			out += p
		}
		return out
	default:
		return v.String
	}
}
