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

package types

import "sync/atomic"

// Stats holds thread-safe counters shared across every operator in one
// execution. Paging metadata fields are populated
// only by the outermost scan of a non-partitioned plan; ParallelPartition
// suppresses them by setting ExecContext.Suppressing.
type Stats struct {
	rowsScanned  atomic.Int64
	pagesFetched atomic.Int64
	retries      atomic.Int64
	dmlWrites    atomic.Int64
	dmlErrors    atomic.Int64

	pagingCookie atomic.Pointer[string]
	pageNumber   atomic.Int64
	moreRecords  atomic.Bool
	totalCount   atomic.Pointer[int64]
}

// NewStats constructs a zeroed Stats.
func NewStats() *Stats { return &Stats{} }

// AddRowsScanned atomically increments the scanned-row counter.
func (s *Stats) AddRowsScanned(n int64) { s.rowsScanned.Add(n) }

// RowsScanned returns the current scanned-row count.
func (s *Stats) RowsScanned() int64 { return s.rowsScanned.Load() }

// AddPagesFetched atomically increments the fetched-page counter.
func (s *Stats) AddPagesFetched(n int64) { s.pagesFetched.Add(n) }

// PagesFetched returns the current fetched-page count.
func (s *Stats) PagesFetched() int64 { return s.pagesFetched.Load() }

// AddRetries atomically increments the transient-retry counter.
func (s *Stats) AddRetries(n int64) { s.retries.Add(n) }

// Retries returns the current retry count.
func (s *Stats) Retries() int64 { return s.retries.Load() }

// AddDMLWrite atomically increments the successful-write counter.
func (s *Stats) AddDMLWrite(n int64) { s.dmlWrites.Add(n) }

// AddDMLError atomically increments the per-record-error counter.
func (s *Stats) AddDMLError(n int64) { s.dmlErrors.Add(n) }

// DMLWrites returns the current successful-write count.
func (s *Stats) DMLWrites() int64 { return s.dmlWrites.Load() }

// DMLErrors returns the current per-record-error count.
func (s *Stats) DMLErrors() int64 { return s.dmlErrors.Load() }

// SetPaging records the outermost scan's paging metadata. suppress
// callers (parallel partition children) should not call this.
func (s *Stats) SetPaging(cookie string, page int, more bool, total *int64) {
	s.pagingCookie.Store(&cookie)
	s.pageNumber.Store(int64(page))
	s.moreRecords.Store(more)
	if total != nil {
		t := *total
		s.totalCount.Store(&t)
	}
}

// Paging returns the recorded paging metadata.
func (s *Stats) Paging() (cookie string, page int, more bool, total *int64) {
	if p := s.pagingCookie.Load(); p != nil {
		cookie = *p
	}
	page = int(s.pageNumber.Load())
	more = s.moreRecords.Load()
	total = s.totalCount.Load()
	return
}
