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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshsmithxrm/ppds-queryengine/internal/expr"
	"github.com/joshsmithxrm/ppds-queryengine/internal/types"
	"github.com/joshsmithxrm/ppds-queryengine/internal/value"
)

func TestIfRunsThenBranchWhenConditionTrue(t *testing.T) {
	ec := newScriptExecContext()
	n := &If{
		Cond: truePred,
		Then: []Stmt{&Set{Name: "@x", Expr: expr.Literal(value.NewString("then"))}},
		Else: []Stmt{&Set{Name: "@x", Expr: expr.Literal(value.NewString("else"))}},
	}
	_, _, _, err := n.Exec(context.Background(), ec)
	require.NoError(t, err)

	v, _ := ec.Scope.Get("@x")
	assert.Equal(t, "then", v.String)
}

func TestIfRunsElseBranchWhenConditionFalse(t *testing.T) {
	ec := newScriptExecContext()
	n := &If{
		Cond: falsePred,
		Then: []Stmt{&Set{Name: "@x", Expr: expr.Literal(value.NewString("then"))}},
		Else: []Stmt{&Set{Name: "@x", Expr: expr.Literal(value.NewString("else"))}},
	}
	_, _, _, err := n.Exec(context.Background(), ec)
	require.NoError(t, err)

	v, _ := ec.Scope.Get("@x")
	assert.Equal(t, "else", v.String)
}

func TestWhileLoopsUntilConditionFalse(t *testing.T) {
	ec := newScriptExecContext()
	ec.Scope.Declare("@i", value.TypeInteger, value.NewInt64(0))
	cond := func(ec *types.ExecContext, _ value.Row) (bool, error) {
		v, _ := ec.Scope.Get("@i")
		return v.Int64 < 3, nil
	}
	incr, err := expr.Arith("+", expr.Variable("@i"), expr.Literal(value.NewInt64(1)))
	require.NoError(t, err)
	n := &While{Cond: cond, Body: []Stmt{&Set{Name: "@i", Expr: incr}}}

	_, _, _, err = n.Exec(context.Background(), ec)
	require.NoError(t, err)

	v, _ := ec.Scope.Get("@i")
	assert.Equal(t, int64(3), v.Int64)
}

func TestWhileExceedingMaxIterationsRaisesInfiniteLoopSuspected(t *testing.T) {
	ec := newScriptExecContext()
	n := &While{Cond: truePred, Body: nil, MaxIterations: 5}

	_, _, _, err := n.Exec(context.Background(), ec)
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindQueryInfiniteLoopSuspected))
}

func TestTryCatchRunsCatchAndSetsErrorContextOnFailure(t *testing.T) {
	ec := newScriptExecContext()
	failing := stmtFunc(func(context.Context, *types.ExecContext) ([]value.Row, []value.Column, bool, error) {
		return nil, nil, false, types.NewQueryError(types.KindValidation, "bad input", nil)
	})
	n := &TryCatch{
		Try:   []Stmt{failing},
		Catch: []Stmt{&Set{Name: "@caught", Expr: expr.Literal(value.NewBool(true))}},
	}

	_, _, _, err := n.Exec(context.Background(), ec)
	require.NoError(t, err, "a successful catch body must not propagate the original error")

	caught, _ := ec.Scope.Get("@caught")
	assert.True(t, caught.Bool)
	msg, ok := ec.Scope.Get(types.ErrorMessageVar)
	require.True(t, ok)
	assert.Contains(t, msg.String, "bad input")
}

func TestTryCatchSkipsCatchOnSuccess(t *testing.T) {
	ec := newScriptExecContext()
	n := &TryCatch{
		Try:   []Stmt{&Set{Name: "@x", Expr: expr.Literal(value.NewInt64(1))}},
		Catch: []Stmt{&Set{Name: "@x", Expr: expr.Literal(value.NewInt64(2))}},
	}
	_, _, _, err := n.Exec(context.Background(), ec)
	require.NoError(t, err)

	v, _ := ec.Scope.Get("@x")
	assert.Equal(t, int64(1), v.Int64)
}

// stmtFunc adapts a plain function to the Stmt interface for tests that
// need a statement whose only purpose is to fail in a controlled way.
type stmtFunc func(context.Context, *types.ExecContext) ([]value.Row, []value.Column, bool, error)

func (f stmtFunc) Exec(ctx context.Context, ec *types.ExecContext) ([]value.Row, []value.Column, bool, error) {
	return f(ctx, ec)
}
