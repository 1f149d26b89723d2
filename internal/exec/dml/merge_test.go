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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joshsmithxrm/ppds-queryengine/internal/expr"
	"github.com/joshsmithxrm/ppds-queryengine/internal/value"
)

// fakeLookup matches a source row by a fixed key column's value against
// a small in-memory target table.
type fakeLookup struct {
	keyColumn string
	targets   map[string]value.Row
}

func (f *fakeLookup) Lookup(_ context.Context, _ string, _ []string, row value.Row) (value.Row, bool, error) {
	key := row.GetOrNull(f.keyColumn).Display()
	target, ok := f.targets[key]
	return target, ok, nil
}

func TestMergeRunsPlanOnlyWithoutLookup(t *testing.T) {
	write := &fakeWriteClient{}
	source := &fakeDrivingSource{rows: []value.Row{value.NewRow("stagingaccount"), value.NewRow("stagingaccount")}}
	n := NewMerge(source, "account", []string{"accountid"}, nil, Options{})

	row := drainOne(t, n, newDMLExecContext(write))
	sourceCount, _ := row.Get("source_count")
	assert.Equal(t, int64(2), sourceCount.Int64)
	assert.Empty(t, write.writes, "without a TargetLookup, Merge must issue no writes")
}

func TestMergeUpdatesOnMatch(t *testing.T) {
	write := &fakeWriteClient{}
	lookup := &fakeLookup{keyColumn: "accountid", targets: map[string]value.Row{
		"1": value.NewRow("account").WithSet("id", value.NewInt64(100)),
	}}
	source := &fakeDrivingSource{rows: []value.Row{value.NewRow("stagingaccount").WithSet("accountid", value.NewInt64(1))}}
	n := NewMerge(source, "account", []string{"accountid"}, lookup, Options{})
	n.WhenMatch = MatchUpdate
	n.UpdateSets = []SetItem{{Column: "name", Expr: expr.Literal(value.NewString("Synced"))}}

	row := drainOne(t, n, newDMLExecContext(write))
	updated, _ := row.Get("updated_count")
	assert.Equal(t, int64(1), updated.Int64)
	assert.Equal(t, int64(100), write.writes[0].ID.Int64)
}

func TestMergeDeletesOnMatchWhenWhenMatchIsDelete(t *testing.T) {
	write := &fakeWriteClient{}
	lookup := &fakeLookup{keyColumn: "accountid", targets: map[string]value.Row{
		"1": value.NewRow("account").WithSet("id", value.NewInt64(100)),
	}}
	source := &fakeDrivingSource{rows: []value.Row{value.NewRow("stagingaccount").WithSet("accountid", value.NewInt64(1))}}
	n := NewMerge(source, "account", []string{"accountid"}, lookup, Options{})
	n.WhenMatch = MatchDelete

	row := drainOne(t, n, newDMLExecContext(write))
	deleted, _ := row.Get("deleted_count")
	assert.Equal(t, int64(1), deleted.Int64)
}

func TestMergeInsertsOnNoMatch(t *testing.T) {
	write := &fakeWriteClient{}
	lookup := &fakeLookup{keyColumn: "accountid", targets: map[string]value.Row{}}
	source := &fakeDrivingSource{rows: []value.Row{value.NewRow("stagingaccount").WithSet("accountid", value.NewInt64(99)).WithSet("srcname", value.NewString("NewCo"))}}
	n := NewMerge(source, "account", []string{"accountid"}, lookup, Options{})
	n.WhenMatch = MatchUpdate
	n.InsertCols = []string{"name"}
	n.InsertExpr = []expr.Expr{expr.Column("srcname")}

	row := drainOne(t, n, newDMLExecContext(write))
	inserted, _ := row.Get("inserted_count")
	assert.Equal(t, int64(1), inserted.Int64)
	assert.Equal(t, "NewCo", write.writes[0].Columns["name"].String)
}
