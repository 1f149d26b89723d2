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
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joshsmithxrm/ppds-queryengine/internal/types"
	"github.com/joshsmithxrm/ppds-queryengine/internal/value"
)

// dateLayouts are the formats CAST/CONVERT tries, in order, when
// parsing a string into a timestamp.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Cast builds a CAST(expr AS target)/CONVERT(target, expr) expression.
// The target type is validated once here; Eval only converts already-
// evaluated values.
func Cast(operand Expr, target value.TypeTag) Expr {
	return exprFunc(func(ec *types.ExecContext, row value.Row) (value.Value, error) {
		v, err := operand.Eval(ec, row)
		if err != nil || v.IsNull() {
			return value.Null, err
		}
		return castValue(v, target)
	})
}

func castValue(v value.Value, target value.TypeTag) (value.Value, error) {
	switch target {
	case value.TypeString, value.TypeMemo:
		return value.NewString(displayFor(v)), nil
	case value.TypeInteger, value.TypeBigInt:
		n, err := castInt(v)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewInt64(n), nil
	case value.TypeDecimal, value.TypeMoney:
		d, err := castDecimal(v)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewDecimal(d), nil
	case value.TypeDouble:
		f, err := castFloat(v)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewDouble(f), nil
	case value.TypeBoolean:
		return value.NewBool(castBool(v)), nil
	case value.TypeDateTime:
		t, err := castTimestamp(v)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewTimestamp(t), nil
	case value.TypeGuid:
		u, err := castUUID(v)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewUUID(u), nil
	default:
		return value.Value{}, fmt.Errorf("unsupported cast target %v", target)
	}
}

func displayFor(v value.Value) string {
	if v.FormattedText != nil {
		return *v.FormattedText
	}
	switch v.Kind {
	case value.KindInt64:
		return strconv.FormatInt(v.Int64, 10)
	case value.KindDecimal:
		return v.Decimal.String()
	case value.KindDouble:
		return strconv.FormatFloat(v.Double, 'g', -1, 64)
	case value.KindBool:
		return strconv.FormatBool(v.Bool)
	case value.KindTimestamp:
		return v.Timestamp.Format(time.RFC3339)
	case value.KindUUID:
		return v.UUID.String()
	default:
		return v.String
	}
}

func castInt(v value.Value) (int64, error) {
	switch v.Kind {
	case value.KindInt64:
		return v.Int64, nil
	case value.KindDecimal:
		return v.Decimal.IntPart(), nil
	case value.KindDouble:
		return int64(v.Double), nil
	case value.KindBool:
		if v.Bool {
			return 1, nil
		}
		return 0, nil
	case value.KindString:
		n, err := strconv.ParseInt(v.String, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot cast %q to integer", v.String)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("cannot cast to integer")
	}
}

func castDecimal(v value.Value) (decimal.Decimal, error) {
	switch v.Kind {
	case value.KindInt64:
		return decimal.NewFromInt(v.Int64), nil
	case value.KindDecimal:
		return v.Decimal, nil
	case value.KindDouble:
		return decimal.NewFromFloat(v.Double), nil
	case value.KindString:
		d, err := decimal.NewFromString(v.String)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("cannot cast %q to decimal", v.String)
		}
		return d, nil
	default:
		return decimal.Decimal{}, fmt.Errorf("cannot cast to decimal")
	}
}

func castFloat(v value.Value) (float64, error) {
	switch v.Kind {
	case value.KindInt64:
		return float64(v.Int64), nil
	case value.KindDecimal:
		f, _ := v.Decimal.Float64()
		return f, nil
	case value.KindDouble:
		return v.Double, nil
	case value.KindString:
		f, err := strconv.ParseFloat(v.String, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot cast %q to double", v.String)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("cannot cast to double")
	}
}

func castBool(v value.Value) bool {
	switch v.Kind {
	case value.KindBool:
		return v.Bool
	case value.KindInt64:
		return v.Int64 != 0
	case value.KindString:
		s := v.String
		return s == "1" || s == "true" || s == "TRUE"
	default:
		return false
	}
}

func castTimestamp(v value.Value) (time.Time, error) {
	switch v.Kind {
	case value.KindTimestamp:
		return v.Timestamp, nil
	case value.KindString:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, v.String); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("cannot cast %q to datetime", v.String)
	default:
		return time.Time{}, fmt.Errorf("cannot cast to datetime")
	}
}

func castUUID(v value.Value) (uuid.UUID, error) {
	switch v.Kind {
	case value.KindUUID:
		return v.UUID, nil
	case value.KindString:
		u, err := uuid.Parse(v.String)
		if err != nil {
			return uuid.UUID{}, fmt.Errorf("cannot cast %q to uniqueidentifier", v.String)
		}
		return u, nil
	default:
		return uuid.UUID{}, fmt.Errorf("cannot cast to uniqueidentifier")
	}
}
