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

// Package script implements the statement-list executor: DECLARE/SET,
// IF/WHILE, BEGIN...END, TRY...CATCH, cursor operators, EXECUTE AS /
// REVERT, and EXEC message.
package script

import (
	"context"

	"github.com/joshsmithxrm/ppds-queryengine/internal/types"
	"github.com/joshsmithxrm/ppds-queryengine/internal/value"
)

// FetchStatusVar is the variable FETCH NEXT sets after every fetch (0=ok, -1=past end).
const FetchStatusVar = "@@FETCH_STATUS"

// A Stmt is one statement in a script body. Exec runs the statement
// against the shared scope carried by ec; produced reports whether it
// yielded a rowset (only row-producing statements set produced=true),
// which is how a script body's result reflects the last
// row-producing statement.
type Stmt interface {
	Exec(ctx context.Context, ec *types.ExecContext) (rows []value.Row, cols []value.Column, produced bool, err error)
}

// Result is the outcome of running a script body: the rows and columns
// of the last row-producing statement, or an empty result if none ran.
type Result struct {
	Rows    []value.Row
	Columns []value.Column
}

// Run executes stmts in order against ec, threading ec.Scope through
// every statement, and returns the result of the last row-producing
// one. BEGIN...END blocks are represented as a plain []Stmt run inline
// by this same function, so they share the enclosing scope rather than
// introducing a nested one.
func Run(ctx context.Context, ec *types.ExecContext, stmts []Stmt) (Result, bool, error) {
	var res Result
	produced := false
	for _, st := range stmts {
		if err := ec.CheckCanceled(); err != nil {
			return res, produced, err
		}
		rows, cols, did, err := st.Exec(ctx, ec)
		if err != nil {
			return res, produced, err
		}
		if did {
			res = Result{Rows: rows, Columns: cols}
			produced = true
		}
	}
	return res, produced, nil
}

// Block is a BEGIN...END body: a flat statement list sharing the
// enclosing scope.
type Block struct {
	Body []Stmt
}

var _ Stmt = (*Block)(nil)

// Exec implements Stmt.
func (b *Block) Exec(ctx context.Context, ec *types.ExecContext) ([]value.Row, []value.Column, bool, error) {
	res, produced, err := Run(ctx, ec, b.Body)
	if err != nil {
		return nil, nil, false, err
	}
	return res.Rows, res.Columns, produced, nil
}
