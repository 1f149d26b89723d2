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

// Package diag provides a small registry of named, inspectable
// components (connection pools, statement caches, the throttle
// tracker) so that a host process can expose their state without this
// core depending on any particular HTTP/metrics framework.
package diag

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// A Diagnostic reports a human-readable snapshot of its own state.
type Diagnostic interface {
	Diagnostic(ctx context.Context) (any, error)
}

// Diagnostics is a registry of named Diagnostic instances.
type Diagnostics struct {
	mu   sync.Mutex
	vals map[string]Diagnostic
}

// New constructs an empty Diagnostics registry. The returned cleanup
// function is a no-op; it exists to match the constructor-returns-cleanup
// convention used throughout this module's provider functions.
func New(_ context.Context) (*Diagnostics, func()) {
	return &Diagnostics{vals: make(map[string]Diagnostic)}, func() {}
}

// Register associates a name with a Diagnostic. It is an error to
// register the same name twice.
func (d *Diagnostics) Register(name string, val Diagnostic) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.vals[name]; ok {
		return errors.Errorf("diagnostic %q already registered", name)
	}
	d.vals[name] = val
	return nil
}

// Unregister removes a named Diagnostic, if present.
func (d *Diagnostics) Unregister(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.vals, name)
}

// Snapshot collects the current state of every registered Diagnostic,
// keyed by name. Errors from individual diagnostics are collected
// rather than aborting the snapshot.
func (d *Diagnostics) Snapshot(ctx context.Context) map[string]any {
	d.mu.Lock()
	names := make([]string, 0, len(d.vals))
	vals := make(map[string]Diagnostic, len(d.vals))
	for name, v := range d.vals {
		names = append(names, name)
		vals[name] = v
	}
	d.mu.Unlock()

	sort.Strings(names)
	out := make(map[string]any, len(names))
	for _, name := range names {
		v, err := vals[name].Diagnostic(ctx)
		if err != nil {
			out[name] = errors.Wrap(err, name).Error()
			continue
		}
		out[name] = v
	}
	return out
}
