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

package script

import (
	"context"
	"hash/fnv"

	"github.com/joshsmithxrm/ppds-queryengine/internal/expr"
	"github.com/joshsmithxrm/ppds-queryengine/internal/types"
	"github.com/joshsmithxrm/ppds-queryengine/internal/value"
)

// fnv1a32 returns the FNV-1a hash of s, used for the deterministic
// test-only synthetic @@ERROR_NUMBER here, where no real backend
// mapping is wired.
func fnv1a32(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

// defaultMaxLoopIterations is the WHILE iteration cap used when a While's
// MaxIterations is zero or negative; the cap can never be disabled
// entirely.
const defaultMaxLoopIterations = 10000

// If implements IF (cond) then-body [ELSE else-body].
type If struct {
	Cond expr.Predicate
	Then []Stmt
	Else []Stmt
}

var _ Stmt = (*If)(nil)

// Exec implements Stmt.
func (n *If) Exec(ctx context.Context, ec *types.ExecContext) ([]value.Row, []value.Column, bool, error) {
	ok, err := n.Cond(ec, value.Row{})
	if err != nil {
		return nil, nil, false, err
	}
	body := n.Else
	if ok {
		body = n.Then
	}
	res, produced, err := Run(ctx, ec, body)
	if err != nil {
		return nil, nil, false, err
	}
	return res.Rows, res.Columns, produced, nil
}

// While implements WHILE (cond) body, with a hard iteration cap raising
// InfiniteLoopSuspected.
type While struct {
	Cond          expr.Predicate
	Body          []Stmt
	MaxIterations int64
}

var _ Stmt = (*While)(nil)

// Exec implements Stmt.
func (n *While) Exec(ctx context.Context, ec *types.ExecContext) ([]value.Row, []value.Column, bool, error) {
	maxIter := n.MaxIterations
	if maxIter <= 0 {
		maxIter = defaultMaxLoopIterations
	}
	var res Result
	produced := false
	for i := int64(0); ; i++ {
		if i >= maxIter {
			return nil, nil, false, types.InfiniteLoopSuspected("WHILE exceeded the maximum iteration count")
		}
		if err := ec.CheckCanceled(); err != nil {
			return nil, nil, false, err
		}
		ok, err := n.Cond(ec, value.Row{})
		if err != nil {
			return nil, nil, false, err
		}
		if !ok {
			break
		}
		bodyRes, bodyProduced, err := Run(ctx, ec, n.Body)
		if err != nil {
			return nil, nil, false, err
		}
		if bodyProduced {
			res = bodyRes
			produced = true
		}
	}
	return res.Rows, res.Columns, produced, nil
}

// TryCatch implements TRY...CATCH: on any non-cancellation error from
// the try body, stores @@ERROR_* and runs the catch body.
type TryCatch struct {
	Try   []Stmt
	Catch []Stmt
}

var _ Stmt = (*TryCatch)(nil)

// Exec implements Stmt.
func (n *TryCatch) Exec(ctx context.Context, ec *types.ExecContext) ([]value.Row, []value.Column, bool, error) {
	res, produced, err := Run(ctx, ec, n.Try)
	if err == nil {
		return res.Rows, res.Columns, produced, nil
	}
	if types.IsCancellation(err) {
		return nil, nil, false, err
	}
	qe, ok := types.AsQueryError(err)
	message := err.Error()
	var number int64
	if ok {
		message = qe.Error()
		number = int64(fnv1a32(string(qe.Kind)))
	}
	ec.Scope.SetErrorContext(message, number, 16, 1)

	catchRes, catchProduced, err := Run(ctx, ec, n.Catch)
	if err != nil {
		return nil, nil, false, err
	}
	return catchRes.Rows, catchRes.Columns, catchProduced, nil
}
