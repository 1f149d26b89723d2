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

// Package config binds the planner's user-visible options to command
// line flags and YAML defaults, with a Bind/Preflight split: Bind wires
// flags to fields, Preflight validates the resulting values.
package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v2"

	"github.com/joshsmithxrm/ppds-queryengine/internal/types"
)

// Options is the Planner options record.
type Options struct {
	PoolCapacity            int
	UseBackendSQLPassthrough bool
	ExplainOnly             bool
	MaxRows                 int64
	PageNumber              int
	PagingCookie            string
	IncludeCount            bool
	OriginalSQL             string
	EstimatedRecordCount    int64
	MinDate                 time.Time
	MaxDate                 time.Time
	AggregateRecordLimit    int64
	MaxRecordsPerPartition  int64
	DMLRowCap               int64
	EnablePrefetch          bool
	PrefetchBufferSize      int
	MaxLoopIterations       int64
	ForcePartition          bool
	ContinueOnError         bool

	// VariableScope is the bound session scope for a script execution,
	// nil outside one.
	VariableScope *types.VariableScope
}

// Defaults returns an Options populated with this engine's built-in
// defaults, the starting point LoadYAML and Bind both overlay onto.
func Defaults() Options {
	return Options{
		PoolCapacity:           4,
		AggregateRecordLimit:   50000,
		MaxRecordsPerPartition: 40000,
		EnablePrefetch:         true,
		PrefetchBufferSize:     2,
		MaxLoopIterations:      10000,
	}
}

// yamlDefaults is the subset of Options a deployment can preset from a
// config file, read before flags are bound so command-line flags still
// take precedence over file-sourced defaults.
type yamlDefaults struct {
	PoolCapacity           *int   `yaml:"poolCapacity"`
	UseBackendSQLPassthrough *bool `yaml:"useBackendSqlPassthrough"`
	AggregateRecordLimit   *int64 `yaml:"aggregateRecordLimit"`
	MaxRecordsPerPartition *int64 `yaml:"maxRecordsPerPartition"`
	EnablePrefetch         *bool  `yaml:"enablePrefetch"`
	PrefetchBufferSize     *int   `yaml:"prefetchBufferSize"`
}

// LoadYAML reads deployment-level defaults from path and applies them
// to o. Call before Bind so the flags it registers pick up the
// file-sourced values as their defaults; an explicit flag on the
// command line still overrides them.
func (o *Options) LoadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "config: reading yaml defaults")
	}
	var defaults yamlDefaults
	if err := yaml.Unmarshal(data, &defaults); err != nil {
		return errors.Wrap(err, "config: parsing yaml defaults")
	}
	if defaults.PoolCapacity != nil {
		o.PoolCapacity = *defaults.PoolCapacity
	}
	if defaults.UseBackendSQLPassthrough != nil {
		o.UseBackendSQLPassthrough = *defaults.UseBackendSQLPassthrough
	}
	if defaults.AggregateRecordLimit != nil {
		o.AggregateRecordLimit = *defaults.AggregateRecordLimit
	}
	if defaults.MaxRecordsPerPartition != nil {
		o.MaxRecordsPerPartition = *defaults.MaxRecordsPerPartition
	}
	if defaults.EnablePrefetch != nil {
		o.EnablePrefetch = *defaults.EnablePrefetch
	}
	if defaults.PrefetchBufferSize != nil {
		o.PrefetchBufferSize = *defaults.PrefetchBufferSize
	}
	return nil
}

// Bind registers the CLI flags backing Options. o's current field
// values become each flag's default, so a caller that starts from
// Defaults() and optionally overlays LoadYAML before calling Bind gets
// the expected precedence: built-in default < config file < command
// line.
func (o *Options) Bind(flags *pflag.FlagSet) {
	flags.IntVar(&o.PoolCapacity, "poolCapacity", o.PoolCapacity,
		"the maximum number of concurrent backend connections")
	flags.BoolVar(&o.UseBackendSQLPassthrough, "useBackendSqlPassthrough", o.UseBackendSQLPassthrough,
		"route compatible SELECTs through the secondary SQL wire protocol instead of FetchXML")
	flags.BoolVar(&o.ExplainOnly, "explainOnly", o.ExplainOnly,
		"build the plan tree and return its description without executing it")
	flags.Int64Var(&o.MaxRows, "maxRows", o.MaxRows,
		"the maximum number of rows a single query may return; 0 means unbounded")
	flags.BoolVar(&o.IncludeCount, "includeCount", o.IncludeCount,
		"request a total-count alongside the first page of results")
	flags.Int64Var(&o.AggregateRecordLimit, "aggregateRecordLimit", o.AggregateRecordLimit,
		"the backend's hard ceiling on candidate rows for an aggregate query")
	flags.Int64Var(&o.MaxRecordsPerPartition, "maxRecordsPerPartition", o.MaxRecordsPerPartition,
		"the target row count per ParallelPartition slice, kept below aggregateRecordLimit for headroom")
	flags.Int64Var(&o.DMLRowCap, "dmlRowCap", o.DMLRowCap,
		"the maximum number of driving rows a DML statement may touch; 0 means unbounded")
	flags.BoolVar(&o.EnablePrefetch, "enablePrefetch", o.EnablePrefetch,
		"wrap FetchXmlScan in a background-prefetching PrefetchScan")
	flags.IntVar(&o.PrefetchBufferSize, "prefetchBufferSize", o.PrefetchBufferSize,
		"the number of rows PrefetchScan buffers ahead of its consumer")
	flags.Int64Var(&o.MaxLoopIterations, "maxLoopIterations", o.MaxLoopIterations,
		"the WHILE iteration cap before InfiniteLoopSuspected is raised; 0 means use the default")
	flags.BoolVar(&o.ForcePartition, "forcePartition", o.ForcePartition,
		"request ParallelPartition even for aggregates that would not otherwise trigger it")
	flags.BoolVar(&o.ContinueOnError, "continueOnError", o.ContinueOnError,
		"tally per-record DML failures into the summary row instead of stopping at the first one")
}

// Preflight validates Options and cross-checks fields that depend on
// one another.
func (o *Options) Preflight() error {
	if o.PoolCapacity <= 0 {
		return errors.New("poolCapacity must be positive")
	}
	if o.UseBackendSQLPassthrough && o.OriginalSQL == "" {
		return errors.New("useBackendSqlPassthrough requires originalSql")
	}
	if o.AggregateRecordLimit <= 0 {
		return errors.New("aggregateRecordLimit must be positive")
	}
	if o.MaxRecordsPerPartition <= 0 || o.MaxRecordsPerPartition >= o.AggregateRecordLimit {
		return errors.New("maxRecordsPerPartition must be positive and less than aggregateRecordLimit")
	}
	if !o.MinDate.IsZero() && !o.MaxDate.IsZero() && !o.MinDate.Before(o.MaxDate) {
		return errors.New("minDate must be before maxDate")
	}
	return nil
}
