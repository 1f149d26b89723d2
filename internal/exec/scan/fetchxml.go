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
	"time"

	"github.com/pkg/errors"

	"github.com/joshsmithxrm/ppds-queryengine/internal/types"
	"github.com/joshsmithxrm/ppds-queryengine/internal/util/metrics"
	"github.com/joshsmithxrm/ppds-queryengine/internal/value"
)

// FetchXmlScan is the primary leaf scan: it pages through a transpiled
// FetchXML query against the backend. It auto-pages
// by default; RowCap, if positive, stops once that many rows have been
// yielded across all pages.
type FetchXmlScan struct {
	describeNode
	FetchXML     string
	Entity       string
	Columns      []value.Column
	RowCap       int64
	IncludeCount bool
}

// NewFetchXmlScan constructs a FetchXmlScan.
func NewFetchXmlScan(entity, fetchXML string, cols []value.Column, rowCap int64, includeCount bool) *FetchXmlScan {
	return &FetchXmlScan{
		describeNode: describeNode{label: "FetchXmlScan(" + entity + ")", est: -1},
		FetchXML:     fetchXML,
		Entity:       entity,
		Columns:      cols,
		RowCap:       rowCap,
		IncludeCount: includeCount,
	}
}

var _ types.PlanNode = (*FetchXmlScan)(nil)

// Execute implements types.PlanNode.
func (s *FetchXmlScan) Execute(ctx context.Context, ec *types.ExecContext) (types.RowIter, error) {
	if err := ec.CheckCanceled(); err != nil {
		return nil, err
	}
	return &fetchXMLIter{scan: s, ec: ec, page: 1}, nil
}

type fetchXMLIter struct {
	scan     *FetchXmlScan
	ec       *types.ExecContext
	page     int
	cookie   string
	buf      []value.Row
	pos      int
	more     bool
	total    *int64
	done     bool
	rowCount int64
}

func (it *fetchXMLIter) Next(ctx context.Context) (value.Row, bool, error) {
	for {
		if it.scan.RowCap > 0 && it.rowCount >= it.scan.RowCap {
			it.done = true
			return value.Row{}, false, nil
		}
		if it.pos < len(it.buf) {
			r := it.buf[it.pos]
			it.pos++
			it.rowCount++
			return r, true, nil
		}
		if it.done {
			return value.Row{}, false, nil
		}
		if err := it.fetchPage(ctx); err != nil {
			return value.Row{}, false, err
		}
	}
}

func (it *fetchXMLIter) fetchPage(ctx context.Context) error {
	if err := waitForThrottle(it.ec); err != nil {
		return err
	}
	start := time.Now()
	page, err := it.ec.Fetch.Execute(ctx, it.scan.FetchXML, it.page, it.cookie, it.scan.IncludeCount && it.page == 1)
	if err != nil {
		logScanError("FetchXmlScan", err)
		return errors.WithStack(err)
	}
	metrics.ScanPagesFetched.WithLabelValues("FetchXmlScan").Inc()
	if it.ec.Stats != nil {
		it.ec.Stats.AddPagesFetched(1)
		it.ec.Stats.AddRowsScanned(int64(len(page.Records)))
	}
	observeOperator("FetchXmlScan", start, len(page.Records))

	it.buf = page.Records
	it.pos = 0
	it.more = page.MoreRecords
	it.cookie = page.PagingCookie
	if page.TotalCount != nil {
		it.total = page.TotalCount
	}
	recordPaging(it.ec, it.cookie, it.page, it.more, it.total)

	if !it.more {
		it.done = true
	} else {
		it.page++
	}
	return nil
}

func (it *fetchXMLIter) Close() error { return nil }
