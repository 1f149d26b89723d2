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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joshsmithxrm/ppds-queryengine/internal/expr"
	"github.com/joshsmithxrm/ppds-queryengine/internal/value"
)

func TestUpdateWritesOnePerDrivingRowWithPrimaryKeyAsID(t *testing.T) {
	write := &fakeWriteClient{}
	source := &fakeDrivingSource{rows: []value.Row{
		value.NewRow("account").WithSet("accountid", value.NewInt64(1)),
		value.NewRow("account").WithSet("accountid", value.NewInt64(2)),
	}}
	n := NewUpdate(source, "account", "accountid", []SetItem{{Column: "name", Expr: expr.Literal(value.NewString("Renamed"))}}, Options{})

	row := drainOne(t, n, newDMLExecContext(write))
	updated, _ := row.Get("updated_count")
	assert.Equal(t, int64(2), updated.Int64)
	assert.Equal(t, int64(1), write.writes[0].ID.Int64)
	assert.Equal(t, int64(2), write.writes[1].ID.Int64)
	assert.Equal(t, "Renamed", write.writes[0].Columns["name"].String)
}

func TestUpdateEvaluatesSetExpressionsAgainstDrivingRow(t *testing.T) {
	write := &fakeWriteClient{}
	source := &fakeDrivingSource{rows: []value.Row{
		value.NewRow("account").WithSet("accountid", value.NewInt64(1)).WithSet("revenue", value.NewInt64(100)),
	}}
	doubled, err := expr.Arith("+", expr.Column("revenue"), expr.Column("revenue"))
	assert.NoError(t, err)
	n := NewUpdate(source, "account", "accountid", []SetItem{{Column: "revenue", Expr: doubled}}, Options{})

	drainOne(t, n, newDMLExecContext(write))
	assert.Equal(t, int64(200), write.writes[0].Columns["revenue"].Int64)
}
