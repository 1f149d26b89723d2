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
	"github.com/joshsmithxrm/ppds-queryengine/internal/value"
)

func TestDeclareWithoutInitializerIsNull(t *testing.T) {
	ec := newScriptExecContext()
	d := &Declare{Name: "@x", Type: value.TypeInteger}

	_, _, produced, err := d.Exec(context.Background(), ec)
	require.NoError(t, err)
	assert.False(t, produced)

	v, ok := ec.Scope.Get("@x")
	require.True(t, ok)
	assert.True(t, v.IsNull())
}

func TestDeclareWithInitializerEvaluatesExpr(t *testing.T) {
	ec := newScriptExecContext()
	d := &Declare{Name: "@x", Type: value.TypeInteger, Initial: expr.Literal(value.NewInt64(7))}

	_, _, _, err := d.Exec(context.Background(), ec)
	require.NoError(t, err)

	v, _ := ec.Scope.Get("@x")
	assert.Equal(t, int64(7), v.Int64)
}

func TestSetOverwritesDeclaredVariable(t *testing.T) {
	ec := newScriptExecContext()
	ec.Scope.Declare("@x", value.TypeInteger, value.NewInt64(1))
	s := &Set{Name: "@x", Expr: expr.Literal(value.NewInt64(99))}

	_, _, _, err := s.Exec(context.Background(), ec)
	require.NoError(t, err)

	v, _ := ec.Scope.Get("@x")
	assert.Equal(t, int64(99), v.Int64)
}

func TestSetOnUndeclaredVariableDeclaresItPermissively(t *testing.T) {
	ec := newScriptExecContext()
	s := &Set{Name: "@@ERROR_MESSAGE", Expr: expr.Literal(value.NewString("boom"))}

	_, _, _, err := s.Exec(context.Background(), ec)
	require.NoError(t, err)

	v, ok := ec.Scope.Get("@@ERROR_MESSAGE")
	require.True(t, ok)
	assert.Equal(t, "boom", v.String)
}
