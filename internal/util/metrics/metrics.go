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

// Package metrics holds shared Prometheus metric definitions for the
// execution engine's operators.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// LatencyBuckets is the shared histogram bucket scheme for operator
// timings, from sub-millisecond page fetches up to multi-minute
// backfilling DML statements.
var LatencyBuckets = []float64{
	.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 300,
}

// OperatorLabel is the label name used to tag a metric with the
// operator kind that produced it (e.g. "FetchXmlScan", "ClientFilter").
const OperatorLabel = "operator"

// OperatorLabels is the shared label set for per-operator metrics.
var OperatorLabels = []string{OperatorLabel}

var (
	// RowsEmitted counts rows yielded by each operator kind.
	RowsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "queryengine_operator_rows_emitted_total",
		Help: "the number of rows yielded by an operator",
	}, OperatorLabels)

	// OperatorDuration times how long an operator's Execute call takes
	// to fully drain, from first to last yielded row.
	OperatorDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "queryengine_operator_duration_seconds",
		Help:    "wall time spent draining an operator",
		Buckets: LatencyBuckets,
	}, OperatorLabels)

	// ScanPagesFetched counts pages retrieved from the backend.
	ScanPagesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "queryengine_scan_pages_fetched_total",
		Help: "the number of pages fetched from the backend FetchXML client",
	}, OperatorLabels)

	// AggregateOverflows counts AggregateOverflow errors observed,
	// partitioned by whether the split retried or exhausted its depth.
	AggregateOverflows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "queryengine_aggregate_overflow_total",
		Help: "the number of times a backend aggregate query overflowed the row limit",
	}, []string{"outcome"})

	// DMLRecordErrors counts per-record DML failures.
	DMLRecordErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "queryengine_dml_record_errors_total",
		Help: "the number of per-record DML write failures",
	}, []string{"operation"})

	// ThrottleRetries counts transient-error retries driven by the
	// throttle tracker's advice.
	ThrottleRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "queryengine_throttle_retries_total",
		Help: "the number of retries performed after a transient/throttled error",
	}, OperatorLabels)
)
