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

package scan

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshsmithxrm/ppds-queryengine/internal/types"
	"github.com/joshsmithxrm/ppds-queryengine/internal/value"
)

func TestFetchXmlScanPagesUntilMoreRecordsFalse(t *testing.T) {
	fetch := &fakeFetchClient{pages: []*types.FetchPage{
		{Records: []value.Row{value.NewRow("account")}, MoreRecords: true, PagingCookie: "c1"},
		{Records: []value.Row{value.NewRow("account"), value.NewRow("account")}, MoreRecords: false},
	}}
	s := NewFetchXmlScan("account", "<fetch/>", nil, 0, false)
	ec := newScanExecContext()
	ec.Fetch = fetch

	out := drainScan(t, s, ec)
	assert.Len(t, out, 3)
	assert.Equal(t, 2, fetch.calls)
}

func TestFetchXmlScanRowCapStopsEarly(t *testing.T) {
	fetch := &fakeFetchClient{pages: []*types.FetchPage{
		{Records: []value.Row{value.NewRow("account"), value.NewRow("account"), value.NewRow("account")}, MoreRecords: true},
		{Records: []value.Row{value.NewRow("account")}, MoreRecords: false},
	}}
	s := NewFetchXmlScan("account", "<fetch/>", nil, 2, false)
	ec := newScanExecContext()
	ec.Fetch = fetch

	out := drainScan(t, s, ec)
	assert.Len(t, out, 2, "RowCap should stop the scan after the first two rows even though more pages exist")
}

func TestFetchXmlScanPropagatesBackendError(t *testing.T) {
	s := NewFetchXmlScan("account", "<fetch/>", nil, 0, false)
	ec := newScanExecContext()
	ec.Fetch = &erroringFetchClient{}

	iter, err := s.Execute(ec.Context, ec)
	require.NoError(t, err)
	_, _, err = iter.Next(ec.Context)
	assert.Error(t, err)
}

type erroringFetchClient struct{}

func (erroringFetchClient) Execute(context.Context, string, int, string, bool) (*types.FetchPage, error) {
	return nil, errors.New("backend unavailable")
}
