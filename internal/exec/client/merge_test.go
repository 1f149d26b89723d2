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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshsmithxrm/ppds-queryengine/internal/value"
)

func leftRow(id int64) value.Row {
	return value.NewRow("account").WithSet("accountid", value.NewInt64(id))
}

func rightRow(parentID int64, name string) value.Row {
	return value.NewRow("contact").WithSet("parentcustomerid", value.NewInt64(parentID)).WithSet("name", value.NewString(name))
}

func TestMergeInnerJoinDropsUnmatchedLeftRows(t *testing.T) {
	left := &fakeSource{rows: []value.Row{leftRow(1), leftRow(2)}}
	right := &fakeSource{rows: []value.Row{rightRow(1, "Alice")}}
	m := NewMerge(left, right, "accountid", "parentcustomerid", InnerJoin, []string{"name"})

	out := drainAll(t, m, newTestExecContext())
	require.Len(t, out, 1, "account 2 has no matching contact and should be dropped by an inner join")
	name, _ := out[0].Get("name")
	assert.Equal(t, "Alice", name.String)
}

func TestMergeInnerJoinFansOutOnMultipleMatches(t *testing.T) {
	left := &fakeSource{rows: []value.Row{leftRow(1)}}
	right := &fakeSource{rows: []value.Row{rightRow(1, "Alice"), rightRow(1, "Bob")}}
	m := NewMerge(left, right, "accountid", "parentcustomerid", InnerJoin, []string{"name"})

	out := drainAll(t, m, newTestExecContext())
	assert.Len(t, out, 2, "one left row matching two right rows should produce two output rows")
}

func TestMergeLeftOuterJoinKeepsUnmatchedWithNullRightColumns(t *testing.T) {
	left := &fakeSource{rows: []value.Row{leftRow(1), leftRow(2)}}
	right := &fakeSource{rows: []value.Row{rightRow(1, "Alice")}}
	m := NewMerge(left, right, "accountid", "parentcustomerid", LeftOuterJoin, []string{"name"})

	out := drainAll(t, m, newTestExecContext())
	require.Len(t, out, 2)

	var matched, unmatched value.Row
	for _, r := range out {
		id, _ := r.Get("accountid")
		if id.Int64 == 1 {
			matched = r
		} else {
			unmatched = r
		}
	}
	name, _ := matched.Get("name")
	assert.Equal(t, "Alice", name.String)
	assert.True(t, unmatched.GetOrNull("name").IsNull(), "the unmatched left row's right columns must come back null")
}
