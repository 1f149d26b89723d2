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
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joshsmithxrm/ppds-queryengine/internal/types"
	"github.com/joshsmithxrm/ppds-queryengine/internal/value"
)

// Func builds a builtin scalar function call covering the
// string/date/conditional/cast/numeric/error-introspection function
// groups. The function name and argument count are validated once,
// here; Eval only evaluates already-bound argument expressions.
func Func(name string, args []Expr) (Expr, error) {
	upper := strings.ToUpper(name)
	build, ok := builtins[upper]
	if !ok {
		return nil, fmt.Errorf("unknown function %q", name)
	}
	return build(args)
}

type builtinBuilder func(args []Expr) (Expr, error)

var builtins map[string]builtinBuilder

func init() {
	builtins = map[string]builtinBuilder{
		"LEN":               fixedArgs(1, fnLen),
		"LOWER":             fixedArgs(1, fnLower),
		"UPPER":             fixedArgs(1, fnUpper),
		"LTRIM":             fixedArgs(1, fnLTrim),
		"RTRIM":             fixedArgs(1, fnRTrim),
		"SUBSTRING":         fixedArgs(3, fnSubstring),
		"REPLACE":           fixedArgs(3, fnReplace),
		"LEFT":              fixedArgs(2, fnLeft),
		"RIGHT":             fixedArgs(2, fnRight),
		"CONCAT":            varArgs(concatBuild),
		"COALESCE":          varArgs(coalesceBuild),
		"ISNULL":            fixedArgs(2, fnIsNull2),
		"NULLIF":            fixedArgs(2, fnNullIf),
		"IIF":               fixedArgs(3, fnIIf),
		"ABS":               fixedArgs(1, fnAbs),
		"ROUND":             fixedArgs(2, fnRound),
		"FLOOR":             fixedArgs(1, fnFloor),
		"CEILING":           fixedArgs(1, fnCeiling),
		"YEAR":              fixedArgs(1, fnDatePart(dpYear)),
		"MONTH":             fixedArgs(1, fnDatePart(dpMonth)),
		"DAY":               fixedArgs(1, fnDatePart(dpDay)),
		"GETDATE":           fixedArgs(0, fnGetDate),
		"SYSUTCDATETIME":    fixedArgs(0, fnSysUTCDateTime),
		"DATEADD":           fixedArgs(3, fnDateAdd),
		"DATEDIFF":          fixedArgs(3, fnDateDiff),
		"DATEPART":          fixedArgs(2, fnDatePartCall),
		"ERROR_MESSAGE":     fixedArgs(0, fnErrorMessage),
		"ERROR_NUMBER":      fixedArgs(0, fnErrorNumber),
		"ERROR_SEVERITY":    fixedArgs(0, fnErrorSeverity),
		"ERROR_STATE":       fixedArgs(0, fnErrorState),
	}
}

func fixedArgs(n int, fn func(args []Expr) Expr) builtinBuilder {
	return func(args []Expr) (Expr, error) {
		if len(args) != n {
			return nil, fmt.Errorf("expected %d argument(s), got %d", n, len(args))
		}
		return fn(args), nil
	}
}

func varArgs(fn func(args []Expr) Expr) builtinBuilder {
	return func(args []Expr) (Expr, error) { return fn(args), nil }
}

func eval1(args []Expr, ec *types.ExecContext, row value.Row) (value.Value, error) {
	return args[0].Eval(ec, row)
}

// --- string functions ---

func fnLen(args []Expr) Expr {
	return exprFunc(func(ec *types.ExecContext, row value.Row) (value.Value, error) {
		v, err := eval1(args, ec, row)
		if err != nil || v.IsNull() {
			return value.Null, err
		}
		return value.NewInt64(int64(len([]rune(v.String)))), nil
	})
}

func fnLower(args []Expr) Expr {
	return exprFunc(func(ec *types.ExecContext, row value.Row) (value.Value, error) {
		v, err := eval1(args, ec, row)
		if err != nil || v.IsNull() {
			return value.Null, err
		}
		return value.NewString(strings.ToLower(v.String)), nil
	})
}

func fnUpper(args []Expr) Expr {
	return exprFunc(func(ec *types.ExecContext, row value.Row) (value.Value, error) {
		v, err := eval1(args, ec, row)
		if err != nil || v.IsNull() {
			return value.Null, err
		}
		return value.NewString(strings.ToUpper(v.String)), nil
	})
}

func fnLTrim(args []Expr) Expr {
	return exprFunc(func(ec *types.ExecContext, row value.Row) (value.Value, error) {
		v, err := eval1(args, ec, row)
		if err != nil || v.IsNull() {
			return value.Null, err
		}
		return value.NewString(strings.TrimLeft(v.String, " ")), nil
	})
}

func fnRTrim(args []Expr) Expr {
	return exprFunc(func(ec *types.ExecContext, row value.Row) (value.Value, error) {
		v, err := eval1(args, ec, row)
		if err != nil || v.IsNull() {
			return value.Null, err
		}
		return value.NewString(strings.TrimRight(v.String, " ")), nil
	})
}

func fnSubstring(args []Expr) Expr {
	return exprFunc(func(ec *types.ExecContext, row value.Row) (value.Value, error) {
		s, err := args[0].Eval(ec, row)
		if err != nil || s.IsNull() {
			return value.Null, err
		}
		start, err := args[1].Eval(ec, row)
		if err != nil {
			return value.Value{}, err
		}
		length, err := args[2].Eval(ec, row)
		if err != nil {
			return value.Value{}, err
		}
		if start.IsNull() || length.IsNull() {
			return value.Null, nil
		}
		r := []rune(s.String)
		// SQL SUBSTRING is 1-based.
		i := int(start.Int64) - 1
		n := int(length.Int64)
		if i < 0 {
			n += i
			i = 0
		}
		if i >= len(r) || n <= 0 {
			return value.NewString(""), nil
		}
		end := i + n
		if end > len(r) {
			end = len(r)
		}
		return value.NewString(string(r[i:end])), nil
	})
}

func fnReplace(args []Expr) Expr {
	return exprFunc(func(ec *types.ExecContext, row value.Row) (value.Value, error) {
		s, err := args[0].Eval(ec, row)
		if err != nil || s.IsNull() {
			return value.Null, err
		}
		old, err := args[1].Eval(ec, row)
		if err != nil {
			return value.Value{}, err
		}
		repl, err := args[2].Eval(ec, row)
		if err != nil {
			return value.Value{}, err
		}
		if old.IsNull() || repl.IsNull() {
			return value.Null, nil
		}
		return value.NewString(strings.ReplaceAll(s.String, old.String, repl.String)), nil
	})
}

func fnLeft(args []Expr) Expr {
	return exprFunc(func(ec *types.ExecContext, row value.Row) (value.Value, error) {
		s, err := args[0].Eval(ec, row)
		if err != nil || s.IsNull() {
			return value.Null, err
		}
		n, err := args[1].Eval(ec, row)
		if err != nil || n.IsNull() {
			return value.Null, err
		}
		r := []rune(s.String)
		k := int(n.Int64)
		if k < 0 {
			k = 0
		}
		if k > len(r) {
			k = len(r)
		}
		return value.NewString(string(r[:k])), nil
	})
}

func fnRight(args []Expr) Expr {
	return exprFunc(func(ec *types.ExecContext, row value.Row) (value.Value, error) {
		s, err := args[0].Eval(ec, row)
		if err != nil || s.IsNull() {
			return value.Null, err
		}
		n, err := args[1].Eval(ec, row)
		if err != nil || n.IsNull() {
			return value.Null, err
		}
		r := []rune(s.String)
		k := int(n.Int64)
		if k < 0 {
			k = 0
		}
		if k > len(r) {
			k = len(r)
		}
		return value.NewString(string(r[len(r)-k:])), nil
	})
}

func concatBuild(args []Expr) Expr { return Concat(args...) }

// --- conditional functions ---

func coalesceBuild(args []Expr) Expr {
	return exprFunc(func(ec *types.ExecContext, row value.Row) (value.Value, error) {
		for _, a := range args {
			v, err := a.Eval(ec, row)
			if err != nil {
				return value.Value{}, err
			}
			if !v.IsNull() {
				return v, nil
			}
		}
		return value.Null, nil
	})
}

func fnIsNull2(args []Expr) Expr {
	return exprFunc(func(ec *types.ExecContext, row value.Row) (value.Value, error) {
		v, err := args[0].Eval(ec, row)
		if err != nil {
			return value.Value{}, err
		}
		if !v.IsNull() {
			return v, nil
		}
		return args[1].Eval(ec, row)
	})
}

func fnNullIf(args []Expr) Expr {
	return exprFunc(func(ec *types.ExecContext, row value.Row) (value.Value, error) {
		a, err := args[0].Eval(ec, row)
		if err != nil {
			return value.Value{}, err
		}
		b, err := args[1].Eval(ec, row)
		if err != nil {
			return value.Value{}, err
		}
		if value.Equal(a, b).Bool() {
			return value.Null, nil
		}
		return a, nil
	})
}

func fnIIf(args []Expr) Expr {
	return exprFunc(func(ec *types.ExecContext, row value.Row) (value.Value, error) {
		cond, err := args[0].Eval(ec, row)
		if err != nil {
			return value.Value{}, err
		}
		if asTri(cond).Bool() {
			return args[1].Eval(ec, row)
		}
		return args[2].Eval(ec, row)
	})
}

// --- numeric functions ---

func fnAbs(args []Expr) Expr {
	return exprFunc(func(ec *types.ExecContext, row value.Row) (value.Value, error) {
		v, err := eval1(args, ec, row)
		if err != nil || v.IsNull() {
			return value.Null, err
		}
		switch v.Kind {
		case value.KindInt64:
			n := v.Int64
			if n < 0 {
				n = -n
			}
			return value.NewInt64(n), nil
		case value.KindDouble:
			return value.NewDouble(math.Abs(v.Double)), nil
		default:
			return value.NewDecimal(v.Decimal.Abs()), nil
		}
	})
}

func fnRound(args []Expr) Expr {
	return exprFunc(func(ec *types.ExecContext, row value.Row) (value.Value, error) {
		v, err := args[0].Eval(ec, row)
		if err != nil || v.IsNull() {
			return value.Null, err
		}
		p, err := args[1].Eval(ec, row)
		if err != nil || p.IsNull() {
			return value.Null, err
		}
		places := int32(p.Int64)
		switch v.Kind {
		case value.KindDouble:
			scale := math.Pow(10, float64(places))
			return value.NewDouble(math.Round(v.Double*scale) / scale), nil
		default:
			d := v.Decimal
			if v.Kind == value.KindInt64 {
				d = decimal.NewFromInt(v.Int64)
			}
			return value.NewDecimal(d.Round(places)), nil
		}
	})
}

func fnFloor(args []Expr) Expr {
	return exprFunc(func(ec *types.ExecContext, row value.Row) (value.Value, error) {
		v, err := eval1(args, ec, row)
		if err != nil || v.IsNull() {
			return value.Null, err
		}
		switch v.Kind {
		case value.KindInt64:
			return v, nil
		case value.KindDouble:
			return value.NewDouble(math.Floor(v.Double)), nil
		default:
			return value.NewDecimal(v.Decimal.Floor()), nil
		}
	})
}

func fnCeiling(args []Expr) Expr {
	return exprFunc(func(ec *types.ExecContext, row value.Row) (value.Value, error) {
		v, err := eval1(args, ec, row)
		if err != nil || v.IsNull() {
			return value.Null, err
		}
		switch v.Kind {
		case value.KindInt64:
			return v, nil
		case value.KindDouble:
			return value.NewDouble(math.Ceil(v.Double)), nil
		default:
			return value.NewDecimal(v.Decimal.Ceil()), nil
		}
	})
}

// --- date functions ---

type datePart int

const (
	dpYear datePart = iota
	dpMonth
	dpDay
	dpHour
	dpMinute
	dpSecond
)

func parseDatePart(s string) (datePart, bool) {
	switch strings.ToLower(s) {
	case "year", "yy", "yyyy":
		return dpYear, true
	case "month", "mm", "m":
		return dpMonth, true
	case "day", "dd", "d":
		return dpDay, true
	case "hour", "hh":
		return dpHour, true
	case "minute", "mi", "n":
		return dpMinute, true
	case "second", "ss", "s":
		return dpSecond, true
	default:
		return 0, false
	}
}

func fnDatePart(part datePart) func(args []Expr) Expr {
	return func(args []Expr) Expr {
		return exprFunc(func(ec *types.ExecContext, row value.Row) (value.Value, error) {
			v, err := eval1(args, ec, row)
			if err != nil || v.IsNull() {
				return value.Null, err
			}
			return value.NewInt64(extractDatePart(v.Timestamp, part)), nil
		})
	}
}

func extractDatePart(t time.Time, part datePart) int64 {
	switch part {
	case dpYear:
		return int64(t.Year())
	case dpMonth:
		return int64(t.Month())
	case dpDay:
		return int64(t.Day())
	case dpHour:
		return int64(t.Hour())
	case dpMinute:
		return int64(t.Minute())
	case dpSecond:
		return int64(t.Second())
	default:
		return 0
	}
}

func fnDatePartCall(args []Expr) Expr {
	return exprFunc(func(ec *types.ExecContext, row value.Row) (value.Value, error) {
		partArg, err := args[0].Eval(ec, row)
		if err != nil {
			return value.Value{}, err
		}
		part, ok := parseDatePart(partArg.String)
		if !ok {
			return value.Value{}, fmt.Errorf("unsupported datepart %q", partArg.String)
		}
		v, err := args[1].Eval(ec, row)
		if err != nil || v.IsNull() {
			return value.Null, err
		}
		return value.NewInt64(extractDatePart(v.Timestamp, part)), nil
	})
}

func fnDateAdd(args []Expr) Expr {
	return exprFunc(func(ec *types.ExecContext, row value.Row) (value.Value, error) {
		partArg, err := args[0].Eval(ec, row)
		if err != nil {
			return value.Value{}, err
		}
		part, ok := parseDatePart(partArg.String)
		if !ok {
			return value.Value{}, fmt.Errorf("unsupported datepart %q", partArg.String)
		}
		n, err := args[1].Eval(ec, row)
		if err != nil || n.IsNull() {
			return value.Null, err
		}
		d, err := args[2].Eval(ec, row)
		if err != nil || d.IsNull() {
			return value.Null, err
		}
		t := d.Timestamp
		amount := int(n.Int64)
		switch part {
		case dpYear:
			t = t.AddDate(amount, 0, 0)
		case dpMonth:
			t = t.AddDate(0, amount, 0)
		case dpDay:
			t = t.AddDate(0, 0, amount)
		case dpHour:
			t = t.Add(time.Duration(amount) * time.Hour)
		case dpMinute:
			t = t.Add(time.Duration(amount) * time.Minute)
		case dpSecond:
			t = t.Add(time.Duration(amount) * time.Second)
		}
		return value.NewTimestamp(t), nil
	})
}

func fnDateDiff(args []Expr) Expr {
	return exprFunc(func(ec *types.ExecContext, row value.Row) (value.Value, error) {
		partArg, err := args[0].Eval(ec, row)
		if err != nil {
			return value.Value{}, err
		}
		part, ok := parseDatePart(partArg.String)
		if !ok {
			return value.Value{}, fmt.Errorf("unsupported datepart %q", partArg.String)
		}
		start, err := args[1].Eval(ec, row)
		if err != nil || start.IsNull() {
			return value.Null, err
		}
		end, err := args[2].Eval(ec, row)
		if err != nil || end.IsNull() {
			return value.Null, err
		}
		d := end.Timestamp.Sub(start.Timestamp)
		switch part {
		case dpYear:
			return value.NewInt64(int64(end.Timestamp.Year() - start.Timestamp.Year())), nil
		case dpMonth:
			months := (end.Timestamp.Year()-start.Timestamp.Year())*12 + int(end.Timestamp.Month()-start.Timestamp.Month())
			return value.NewInt64(int64(months)), nil
		case dpDay:
			return value.NewInt64(int64(d.Hours() / 24)), nil
		case dpHour:
			return value.NewInt64(int64(d.Hours())), nil
		case dpMinute:
			return value.NewInt64(int64(d.Minutes())), nil
		case dpSecond:
			return value.NewInt64(int64(d.Seconds())), nil
		default:
			return value.Null, nil
		}
	})
}

func fnGetDate(args []Expr) Expr {
	return exprFunc(func(*types.ExecContext, value.Row) (value.Value, error) {
		return value.NewTimestamp(time.Now()), nil
	})
}

func fnSysUTCDateTime(args []Expr) Expr {
	return exprFunc(func(*types.ExecContext, value.Row) (value.Value, error) {
		return value.NewTimestamp(time.Now().UTC()), nil
	})
}

// --- error introspection ---
//
// These read the four @@ERROR_* scope variables populated by a catch
// handler (internal/types.VariableScope.SetErrorContext); outside a
// CATCH block they are unset and read back as Null.

func fnErrorMessage(args []Expr) Expr  { return Variable(types.ErrorMessageVar) }
func fnErrorNumber(args []Expr) Expr   { return Variable(types.ErrorNumberVar) }
func fnErrorSeverity(args []Expr) Expr { return Variable(types.ErrorSeverityVar) }
func fnErrorState(args []Expr) Expr    { return Variable(types.ErrorStateVar) }
