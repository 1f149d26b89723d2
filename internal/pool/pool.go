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

// Package pool implements the bounded connection-handle pool used by
// scan and DML operators to borrow backend connections
// ("borrow/capacity/invalidate" contract).
package pool

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/joshsmithxrm/ppds-queryengine/internal/types"
	"github.com/joshsmithxrm/ppds-queryengine/internal/util/stopper"
)

// Opener constructs one fresh handle for a named profile (e.g. a
// Dataverse environment connection string).
type Opener[H any] func(ctx context.Context) (H, error)

// Closer releases a handle's underlying resources.
type Closer[H any] func(h H)

// Pool is a generic bounded pool of borrowed handles, one per
// connection profile, satisfying types.ConnectionPool when H implements
// types.ConnectionHandle.
type Pool[H any] struct {
	capacity int
	open     Opener[H]
	close    Closer[H]

	sem *semaphore.Weighted

	mu       sync.Mutex
	handles  map[string][]H
	invalid  map[string]bool
}

// New constructs a Pool bounded at capacity concurrent borrows, with a
// stopper goroutine tearing everything down on shutdown.
func New[H any](ctx *stopper.Context, capacity int, open Opener[H], closeFn Closer[H]) *Pool[H] {
	p := &Pool[H]{
		capacity: capacity,
		open:     open,
		close:    closeFn,
		sem:      semaphore.NewWeighted(int64(capacity)),
		handles:  make(map[string][]H),
		invalid:  make(map[string]bool),
	}
	ctx.Go(func() error {
		<-ctx.Stopping()
		p.mu.Lock()
		defer p.mu.Unlock()
		for profile, hs := range p.handles {
			for _, h := range hs {
				p.close(h)
			}
			delete(p.handles, profile)
		}
		return nil
	})
	return p
}

// Capacity returns the pool's maximum concurrent-borrow count.
func (p *Pool[H]) Capacity() int { return p.capacity }

// Borrow acquires a semaphore slot and returns a handle for profile,
// reusing an idle one if available or opening a fresh one otherwise.
func (p *Pool[H]) Borrow(ctx context.Context, profile string) (H, func(), error) {
	var zero H
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return zero, nil, errors.WithStack(err)
	}
	p.mu.Lock()
	if p.invalid[profile] {
		delete(p.invalid, profile)
		for _, h := range p.handles[profile] {
			p.close(h)
		}
		delete(p.handles, profile)
	}
	var h H
	if hs := p.handles[profile]; len(hs) > 0 {
		h = hs[len(hs)-1]
		p.handles[profile] = hs[:len(hs)-1]
		p.mu.Unlock()
	} else {
		p.mu.Unlock()
		var err error
		h, err = p.open(ctx)
		if err != nil {
			p.sem.Release(1)
			return zero, nil, err
		}
	}
	release := func() {
		p.mu.Lock()
		if p.invalid[profile] {
			p.close(h)
		} else {
			p.handles[profile] = append(p.handles[profile], h)
		}
		p.mu.Unlock()
		p.sem.Release(1)
	}
	return h, release, nil
}

// Invalidate marks a profile's pooled handles as stale; the next Borrow
// for that profile discards them and opens a fresh one. Used after an
// auth failure forces reacquisition.
func (p *Pool[H]) Invalidate(profileName string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.invalid[profileName] = true
	log.WithField("profile", profileName).Info("connection pool invalidated")
}

// poolAdapter satisfies types.ConnectionPool over a Pool whose handle
// type implements types.ConnectionHandle, binding Borrow to a fixed
// profile so it matches the single-argument collaborator contract.
type poolAdapter[H types.ConnectionHandle] struct {
	pool    *Pool[H]
	profile string
}

// Adapt returns a types.ConnectionPool view of p scoped to one profile.
func Adapt[H types.ConnectionHandle](p *Pool[H], profile string) types.ConnectionPool {
	return &poolAdapter[H]{pool: p, profile: profile}
}

func (a *poolAdapter[H]) Borrow(ctx context.Context) (types.ConnectionHandle, error) {
	h, release, err := a.pool.Borrow(ctx, a.profile)
	if err != nil {
		return nil, err
	}
	return releasingHandle[H]{h: h, release: release}, nil
}

func (a *poolAdapter[H]) Capacity() int { return a.pool.Capacity() }

func (a *poolAdapter[H]) Invalidate(profileName string) { a.pool.Invalidate(profileName) }

type releasingHandle[H types.ConnectionHandle] struct {
	h       H
	release func()
}

func (r releasingHandle[H]) Release() {
	r.h.Release()
	r.release()
}
