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

	"github.com/joshsmithxrm/ppds-queryengine/internal/types"
	"github.com/joshsmithxrm/ppds-queryengine/internal/value"
)

// fakeFetchClient serves FetchXmlScan a fixed sequence of pages,
// regardless of the FetchXML text, ignoring paging cookies beyond
// counting how many times Execute was called.
type fakeFetchClient struct {
	pages []*types.FetchPage
	calls int
}

func (f *fakeFetchClient) Execute(_ context.Context, _ string, page int, _ string, _ bool) (*types.FetchPage, error) {
	f.calls++
	if page-1 >= len(f.pages) {
		return &types.FetchPage{MoreRecords: false}, nil
	}
	return f.pages[page-1], nil
}

// fakeMetadataClient answers MetadataScan/CountOptimizedScan from fixed
// in-memory data.
type fakeMetadataClient struct {
	entities      []value.Row
	attributes    map[string][]value.Row
	relationships map[string][]value.Row
	recordCounts  map[string]int64
}

func (f *fakeMetadataClient) QueryEntities(_ context.Context, filter func(value.Row) bool) ([]value.Row, []value.Column, error) {
	return applyRowFilter(f.entities, filter), nil, nil
}

func (f *fakeMetadataClient) QueryAttributes(_ context.Context, entity string, filter func(value.Row) bool) ([]value.Row, []value.Column, error) {
	return applyRowFilter(f.attributes[entity], filter), nil, nil
}

func (f *fakeMetadataClient) QueryRelationships(_ context.Context, entity string, filter func(value.Row) bool) ([]value.Row, []value.Column, error) {
	return applyRowFilter(f.relationships[entity], filter), nil, nil
}

func (f *fakeMetadataClient) EntityRecordCount(_ context.Context, entity string) (int64, error) {
	return f.recordCounts[entity], nil
}

func applyRowFilter(rows []value.Row, filter func(value.Row) bool) []value.Row {
	if filter == nil {
		return rows
	}
	out := make([]value.Row, 0, len(rows))
	for _, r := range rows {
		if filter(r) {
			out = append(out, r)
		}
	}
	return out
}

func newScanExecContext() *types.ExecContext {
	return &types.ExecContext{Context: context.Background()}
}

func drainScan(t interface {
	Fatalf(string, ...interface{})
}, node types.PlanNode, ec *types.ExecContext) []value.Row {
	iter, err := node.Execute(context.Background(), ec)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	rows, err := types.Drain(context.Background(), iter)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	return rows
}
