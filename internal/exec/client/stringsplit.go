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

package client

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/joshsmithxrm/ppds-queryengine/internal/expr"
	"github.com/joshsmithxrm/ppds-queryengine/internal/types"
	"github.com/joshsmithxrm/ppds-queryengine/internal/value"
)

// StringSplit implements STRING_SPLIT's row-multiplying cross apply:
// for each input row, it evaluates Source and Separator and emits one
// output row per split segment, with the segment bound to ValueColumn
// and the outer row's columns preserved.
type StringSplit struct {
	describeNode
	Source      expr.Expr
	Separator   expr.Expr
	ValueColumn string
}

// NewStringSplit constructs a StringSplit.
func NewStringSplit(child types.PlanNode, source, separator expr.Expr, valueColumn string) *StringSplit {
	return &StringSplit{describeNode: describeNode{label: "StringSplit", child: child}, Source: source, Separator: separator, ValueColumn: valueColumn}
}

var _ types.PlanNode = (*StringSplit)(nil)

// Execute implements types.PlanNode.
func (s *StringSplit) Execute(ctx context.Context, ec *types.ExecContext) (types.RowIter, error) {
	inner, err := s.child.Execute(ctx, ec)
	if err != nil {
		return nil, err
	}
	return &stringSplitIter{inner: inner, op: s, ec: ec}, nil
}

type stringSplitIter struct {
	inner   types.RowIter
	op      *StringSplit
	ec      *types.ExecContext
	pending []value.Row
}

func (it *stringSplitIter) Next(ctx context.Context) (value.Row, bool, error) {
	for {
		if len(it.pending) > 0 {
			r := it.pending[0]
			it.pending = it.pending[1:]
			return r, true, nil
		}
		outer, ok, err := it.inner.Next(ctx)
		if err != nil || !ok {
			return value.Row{}, false, err
		}
		src, err := it.op.Source.Eval(it.ec, outer)
		if err != nil {
			return value.Row{}, false, err
		}
		if src.IsNull() {
			continue
		}
		sep, err := it.op.Separator.Eval(it.ec, outer)
		if err != nil {
			return value.Row{}, false, err
		}
		separator := ","
		if !sep.IsNull() {
			separator = sep.String
		}
		for _, part := range strings.Split(src.String, separator) {
			it.pending = append(it.pending, outer.WithSet(it.op.ValueColumn, value.NewString(part)))
		}
	}
}

func (it *stringSplitIter) Close() error { return it.inner.Close() }

// OpenJson implements OPENJSON's row-multiplying cross apply over a
// JSON array or object column, emitting one row per element with Key,
// Value, and Type columns alongside the outer row.
type OpenJson struct {
	describeNode
	Source expr.Expr
}

// NewOpenJson constructs an OpenJson.
func NewOpenJson(child types.PlanNode, source expr.Expr) *OpenJson {
	return &OpenJson{describeNode: describeNode{label: "OpenJson", child: child}, Source: source}
}

var _ types.PlanNode = (*OpenJson)(nil)

// Execute implements types.PlanNode.
func (j *OpenJson) Execute(ctx context.Context, ec *types.ExecContext) (types.RowIter, error) {
	inner, err := j.child.Execute(ctx, ec)
	if err != nil {
		return nil, err
	}
	return &openJSONIter{inner: inner, op: j, ec: ec}, nil
}

type openJSONIter struct {
	inner   types.RowIter
	op      *OpenJson
	ec      *types.ExecContext
	pending []value.Row
}

func (it *openJSONIter) Next(ctx context.Context) (value.Row, bool, error) {
	for {
		if len(it.pending) > 0 {
			r := it.pending[0]
			it.pending = it.pending[1:]
			return r, true, nil
		}
		outer, ok, err := it.inner.Next(ctx)
		if err != nil || !ok {
			return value.Row{}, false, err
		}
		src, err := it.op.Source.Eval(it.ec, outer)
		if err != nil {
			return value.Row{}, false, err
		}
		if src.IsNull() {
			continue
		}
		var arr []json.RawMessage
		var obj map[string]json.RawMessage
		if err := json.Unmarshal([]byte(src.String), &arr); err == nil {
			for i, raw := range arr {
				it.pending = append(it.pending, jsonElementRow(outer, itoa(i), raw))
			}
			continue
		}
		if err := json.Unmarshal([]byte(src.String), &obj); err == nil {
			for k, raw := range obj {
				it.pending = append(it.pending, jsonElementRow(outer, k, raw))
			}
			continue
		}
		return value.Row{}, false, err
	}
}

func (it *openJSONIter) Close() error { return it.inner.Close() }

func jsonElementRow(outer value.Row, key string, raw json.RawMessage) value.Row {
	var s string
	typ := "string"
	if err := json.Unmarshal(raw, &s); err != nil {
		s = string(raw)
		typ = "raw"
	}
	out := outer.WithSet("key", value.NewString(key))
	out = out.WithSet("value", value.NewString(s))
	out = out.WithSet("type", value.NewString(typ))
	return out
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
