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

	"github.com/joshsmithxrm/ppds-queryengine/internal/types"
	"github.com/joshsmithxrm/ppds-queryengine/internal/value"
)

// DeclareCursor implements DECLARE name CURSOR FOR plan: registers the cursor, initially closed.
type DeclareCursor struct {
	Name string
	Plan types.PlanNode
}

var _ Stmt = (*DeclareCursor)(nil)

// Exec implements Stmt.
func (d *DeclareCursor) Exec(_ context.Context, ec *types.ExecContext) ([]value.Row, []value.Column, bool, error) {
	ec.Scope.DeclareCursor(d.Name, d.Plan)
	return nil, nil, false, nil
}

// OpenCursor implements OPEN name: executes the child plan to
// completion and materializes all rows.
type OpenCursor struct {
	Name string
}

var _ Stmt = (*OpenCursor)(nil)

// Exec implements Stmt.
func (o *OpenCursor) Exec(ctx context.Context, ec *types.ExecContext) ([]value.Row, []value.Column, bool, error) {
	cur, ok := ec.Scope.Cursor(o.Name)
	if !ok {
		return nil, nil, false, types.SessionNotFound("cursor " + o.Name + " is not declared")
	}
	iter, err := cur.Plan.Execute(ctx, ec)
	if err != nil {
		return nil, nil, false, err
	}
	rows, err := types.Drain(ctx, iter)
	if err != nil {
		return nil, nil, false, err
	}
	cur.Reopen(rows)
	return nil, nil, false, nil
}

// FetchNext implements FETCH NEXT FROM name INTO @v1, @v2, ...: advances
// position, assigns output columns in declared column order to the
// named variables, and sets @@FETCH_STATUS.
type FetchNext struct {
	Name    string
	Targets []string
}

var _ Stmt = (*FetchNext)(nil)

// Exec implements Stmt.
func (f *FetchNext) Exec(_ context.Context, ec *types.ExecContext) ([]value.Row, []value.Column, bool, error) {
	cur, ok := ec.Scope.Cursor(f.Name)
	if !ok {
		return nil, nil, false, types.SessionNotFound("cursor " + f.Name + " is not declared")
	}
	row, ok := cur.Fetch()
	if !ok {
		ec.Scope.Set(FetchStatusVar, value.NewInt64(-1))
		return nil, nil, false, nil
	}
	values := row.Values()
	for i, target := range f.Targets {
		if i < len(values) {
			ec.Scope.Set(target, values[i])
		}
	}
	ec.Scope.Set(FetchStatusVar, value.NewInt64(0))
	return nil, nil, false, nil
}

// CloseCursor implements CLOSE name: clears position and open flag,
// retaining materialized rows.
type CloseCursor struct {
	Name string
}

var _ Stmt = (*CloseCursor)(nil)

// Exec implements Stmt.
func (c *CloseCursor) Exec(_ context.Context, ec *types.ExecContext) ([]value.Row, []value.Column, bool, error) {
	cur, ok := ec.Scope.Cursor(c.Name)
	if !ok {
		return nil, nil, false, types.SessionNotFound("cursor " + c.Name + " is not declared")
	}
	cur.Close()
	return nil, nil, false, nil
}

// DeallocateCursor implements DEALLOCATE name: removes the cursor
// entirely.
type DeallocateCursor struct {
	Name string
}

var _ Stmt = (*DeallocateCursor)(nil)

// Exec implements Stmt.
func (d *DeallocateCursor) Exec(_ context.Context, ec *types.ExecContext) ([]value.Row, []value.Column, bool, error) {
	ec.Scope.DeallocateCursor(d.Name)
	return nil, nil, false, nil
}
