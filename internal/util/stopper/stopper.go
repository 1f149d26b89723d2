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

// Package stopper provides a cancellation-scoped goroutine group. It is
// the cooperative-shutdown primitive used to thread the single
// cancellation token through every operator
// that owns a background goroutine (PrefetchScan's lookahead loop,
// ParallelPartition's siblings).
package stopper

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// A Context wraps a context.Context with a group of goroutines that are
// all canceled together and whose errors are collected.
type Context struct {
	context.Context

	mu struct {
		sync.Mutex
		err    error
		stopCh chan struct{}
		once   sync.Once
	}
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New wraps a parent context in a stopper.Context.
func New(parent context.Context) (*Context, context.CancelFunc) {
	inner, cancel := context.WithCancel(parent)
	ret := &Context{Context: inner, cancel: cancel}
	ret.mu.stopCh = make(chan struct{})
	go func() {
		<-inner.Done()
		ret.mu.once.Do(func() { close(ret.mu.stopCh) })
	}()
	stop := func() {
		cancel()
		ret.mu.once.Do(func() { close(ret.mu.stopCh) })
	}
	return ret, stop
}

// Go launches fn in a new goroutine tracked by the Context. If fn
// returns a non-nil error, it is recorded and the Context's Stopping
// channel is closed, signaling sibling goroutines to wind down.
func (c *Context) Go(fn func() error) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := fn(); err != nil {
			c.mu.Lock()
			if c.mu.err == nil {
				c.mu.err = err
			}
			c.mu.Unlock()
			c.mu.once.Do(func() { close(c.mu.stopCh) })
		}
	}()
}

// Stopping returns a channel that is closed once shutdown has begun,
// either because the parent context was canceled or a tracked goroutine
// failed.
func (c *Context) Stopping() <-chan struct{} {
	return c.mu.stopCh
}

// Wait blocks until all tracked goroutines have returned and reports the
// first error, if any, wrapped with its originating stack.
func (c *Context) Wait() error {
	c.wg.Wait()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mu.err == nil {
		return nil
	}
	return errors.WithStack(c.mu.err)
}

// Stop cancels the Context and all derived contexts.
func (c *Context) Stop() {
	c.cancel()
	c.mu.once.Do(func() { close(c.mu.stopCh) })
}
