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

package dml

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshsmithxrm/ppds-queryengine/internal/expr"
	"github.com/joshsmithxrm/ppds-queryengine/internal/types"
	"github.com/joshsmithxrm/ppds-queryengine/internal/value"
)

func TestInsertValuesWritesOneRowPerTuple(t *testing.T) {
	write := &fakeWriteClient{}
	n := &InsertValues{
		Entity:  "account",
		Columns: []string{"name"},
		Rows: [][]expr.Expr{
			{expr.Literal(value.NewString("Contoso"))},
			{expr.Literal(value.NewString("Fabrikam"))},
		},
	}

	row := drainOne(t, n, newDMLExecContext(write))
	action, _ := row.Get("$action")
	inserted, _ := row.Get("inserted_count")
	assert.Equal(t, "INSERT", action.String)
	assert.Equal(t, int64(2), inserted.Int64)
	assert.Len(t, write.writes, 2)
	assert.Equal(t, "Contoso", write.writes[0].Columns["name"].String)
}

func TestInsertValuesRowCapRejectsBeforeWriting(t *testing.T) {
	write := &fakeWriteClient{}
	n := &InsertValues{
		Entity:  "account",
		Columns: []string{"name"},
		Rows:    [][]expr.Expr{{expr.Literal(value.NewString("A"))}, {expr.Literal(value.NewString("B"))}},
		Opts:    Options{RowCap: 1},
	}

	_, err := n.Execute(context.Background(), newDMLExecContext(write))
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindQueryRowCapExceeded))
	assert.Empty(t, write.writes, "exceeding the row cap must reject before any write is issued")
}

func TestInsertValuesStopsOnFirstErrorByDefault(t *testing.T) {
	write := &fakeWriteClient{failAt: map[int]error{0: errors.New("duplicate key")}}
	n := &InsertValues{
		Entity:  "account",
		Columns: []string{"name"},
		Rows:    [][]expr.Expr{{expr.Literal(value.NewString("A"))}, {expr.Literal(value.NewString("B"))}},
	}

	_, err := n.Execute(context.Background(), newDMLExecContext(write))
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindDMLPerRecord))
	assert.Len(t, write.writes, 1, "ContinueOnError is false, so the second row must never be attempted")
}

func TestInsertValuesContinueOnErrorTalliesFailures(t *testing.T) {
	write := &fakeWriteClient{failAt: map[int]error{0: errors.New("duplicate key")}}
	n := &InsertValues{
		Entity:  "account",
		Columns: []string{"name"},
		Rows:    [][]expr.Expr{{expr.Literal(value.NewString("A"))}, {expr.Literal(value.NewString("B"))}},
		Opts:    Options{ContinueOnError: true},
	}

	row := drainOne(t, n, newDMLExecContext(write))
	inserted, _ := row.Get("inserted_count")
	errored, _ := row.Get("error_count")
	assert.Equal(t, int64(1), inserted.Int64)
	assert.Equal(t, int64(1), errored.Int64)
	assert.Len(t, write.writes, 2, "ContinueOnError must still attempt the second row")
}

func TestInsertSelectMapsColumnsByOrdinalPosition(t *testing.T) {
	write := &fakeWriteClient{}
	source := &fakeDrivingSource{rows: []value.Row{
		value.NewRow("stagingaccount").WithSet("srcname", value.NewString("Contoso")).WithSet("srcrevenue", value.NewInt64(100)),
	}}
	n := NewInsertSelect(source, "account", []string{"name", "revenue"}, Options{})

	row := drainOne(t, n, newDMLExecContext(write))
	inserted, _ := row.Get("inserted_count")
	assert.Equal(t, int64(1), inserted.Int64)
	assert.Equal(t, "Contoso", write.writes[0].Columns["name"].String)
	assert.Equal(t, int64(100), write.writes[0].Columns["revenue"].Int64)
}
