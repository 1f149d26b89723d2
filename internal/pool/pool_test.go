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

package pool

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshsmithxrm/ppds-queryengine/internal/util/stopper"
)

type fakeHandle struct {
	id     int
	closed bool
}

func newCountingOpener() (Opener[*fakeHandle], *int) {
	n := 0
	return func(context.Context) (*fakeHandle, error) {
		n++
		return &fakeHandle{id: n}, nil
	}, &n
}

func TestPoolReusesReleasedHandle(t *testing.T) {
	ctx, stop := stopper.New(context.Background())
	defer stop()
	open, opens := newCountingOpener()
	p := New[*fakeHandle](ctx, 1, open, func(*fakeHandle) {})

	h1, release1, err := p.Borrow(context.Background(), "env-a")
	require.NoError(t, err)
	release1()

	h2, release2, err := p.Borrow(context.Background(), "env-a")
	require.NoError(t, err)
	defer release2()

	assert.Equal(t, h1.id, h2.id, "a released handle should be reused rather than reopened")
	assert.Equal(t, 1, *opens)
}

func TestPoolBlocksAtCapacity(t *testing.T) {
	ctx, stop := stopper.New(context.Background())
	defer stop()
	open, _ := newCountingOpener()
	p := New[*fakeHandle](ctx, 1, open, func(*fakeHandle) {})

	_, release, err := p.Borrow(context.Background(), "env-a")
	require.NoError(t, err)

	borrowCtx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, _, err = p.Borrow(borrowCtx, "env-a")
	assert.Error(t, err, "borrowing past capacity must block until the deadline expires")

	release()
}

func TestPoolInvalidateClosesIdleHandlesOnNextBorrow(t *testing.T) {
	ctx, stop := stopper.New(context.Background())
	defer stop()
	closed := 0
	open, _ := newCountingOpener()
	p := New[*fakeHandle](ctx, 1, open, func(h *fakeHandle) { closed++; h.closed = true })

	h1, release1, err := p.Borrow(context.Background(), "env-a")
	require.NoError(t, err)
	release1()
	p.Invalidate("env-a")

	h2, release2, err := p.Borrow(context.Background(), "env-a")
	require.NoError(t, err)
	defer release2()

	assert.NotEqual(t, h1.id, h2.id, "invalidation must force a fresh handle on the next borrow")
	assert.Equal(t, 1, closed)
}

func TestPoolOpenErrorReleasesSemaphoreSlot(t *testing.T) {
	ctx, stop := stopper.New(context.Background())
	defer stop()
	wantErr := errors.New("dial failed")
	p := New[*fakeHandle](ctx, 1, func(context.Context) (*fakeHandle, error) {
		return nil, wantErr
	}, func(*fakeHandle) {})

	_, _, err := p.Borrow(context.Background(), "env-a")
	require.ErrorIs(t, err, wantErr)

	// The semaphore slot must have been released on open failure, or this
	// second Borrow would block forever.
	borrowCtx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, _, err = p.Borrow(borrowCtx, "env-a")
	assert.ErrorIs(t, err, wantErr)
}
