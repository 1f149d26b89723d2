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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joshsmithxrm/ppds-queryengine/internal/types"
	"github.com/joshsmithxrm/ppds-queryengine/internal/value"
)

func TestDeleteIssuesOneWriteDeletePerDrivingRow(t *testing.T) {
	write := &fakeWriteClient{}
	source := &fakeDrivingSource{rows: []value.Row{
		value.NewRow("account").WithSet("accountid", value.NewInt64(1)),
		value.NewRow("account").WithSet("accountid", value.NewInt64(2)),
	}}
	n := NewDelete(source, "account", "accountid", Options{})

	row := drainOne(t, n, newDMLExecContext(write))
	deleted, _ := row.Get("deleted_count")
	assert.Equal(t, int64(2), deleted.Int64)
	assert.Equal(t, types.WriteDelete, write.writes[0].Op)
	assert.Equal(t, types.WriteDelete, write.writes[1].Op)
}

func TestDeleteContinueOnErrorTalliesFailedRecords(t *testing.T) {
	write := &fakeWriteClient{failAt: map[int]error{1: errors.New("record locked")}}
	source := &fakeDrivingSource{rows: []value.Row{
		value.NewRow("account").WithSet("accountid", value.NewInt64(1)),
		value.NewRow("account").WithSet("accountid", value.NewInt64(2)),
	}}
	n := NewDelete(source, "account", "accountid", Options{ContinueOnError: true})

	row := drainOne(t, n, newDMLExecContext(write))
	deleted, _ := row.Get("deleted_count")
	errored, _ := row.Get("error_count")
	assert.Equal(t, int64(1), deleted.Int64)
	assert.Equal(t, int64(1), errored.Int64)
}
