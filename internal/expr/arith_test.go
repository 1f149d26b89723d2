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

package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshsmithxrm/ppds-queryengine/internal/value"
)

func TestArithAdd(t *testing.T) {
	ec := newTestExecContext()
	row := value.NewRow("account")

	add, err := Arith("+", Literal(value.NewInt64(2)), Literal(value.NewInt64(3)))
	require.NoError(t, err)
	v, err := add.Eval(ec, row)
	require.NoError(t, err)
	assert.Equal(t, value.NewInt64(5), v)
}

func TestArithUnsupportedOperator(t *testing.T) {
	_, err := Arith("^", Literal(value.NewInt64(1)), Literal(value.NewInt64(1)))
	assert.Error(t, err)
}

func TestArithDivisionByZeroPropagatesError(t *testing.T) {
	ec := newTestExecContext()
	row := value.NewRow("account")

	div, err := Arith("/", Literal(value.NewInt64(1)), Literal(value.NewInt64(0)))
	require.NoError(t, err)
	_, err = div.Eval(ec, row)
	assert.Error(t, err)
}

func TestNeg(t *testing.T) {
	ec := newTestExecContext()
	row := value.NewRow("account")

	v, err := Neg(Literal(value.NewInt64(4))).Eval(ec, row)
	require.NoError(t, err)
	assert.Equal(t, value.NewInt64(-4), v)
}

func TestConcatTreatsNullAsEmpty(t *testing.T) {
	ec := newTestExecContext()
	row := value.NewRow("account")

	v, err := Concat(Literal(value.NewString("a")), Literal(value.Null), Literal(value.NewString("b"))).Eval(ec, row)
	require.NoError(t, err)
	assert.Equal(t, value.NewString("ab"), v)
}

func TestArithPlusConcatenatesStrings(t *testing.T) {
	ec := newTestExecContext()
	row := value.NewRow("account")

	plus, err := Arith("+", Literal(value.NewString("foo")), Literal(value.NewString("bar")))
	require.NoError(t, err)
	v, err := plus.Eval(ec, row)
	require.NoError(t, err)
	assert.Equal(t, value.NewString("foobar"), v)
}

func TestArithPlusOnStringsPropagatesNull(t *testing.T) {
	ec := newTestExecContext()
	row := value.NewRow("account")

	plus, err := Arith("+", Literal(value.NewString("foo")), Literal(value.Null))
	require.NoError(t, err)
	v, err := plus.Eval(ec, row)
	require.NoError(t, err)
	assert.True(t, v.IsNull(), "string + NULL must be NULL, unlike CONCAT()'s empty-string treatment")
}

func TestArithDoublePipeConcatenates(t *testing.T) {
	ec := newTestExecContext()
	row := value.NewRow("account")

	concat, err := Arith("||", Literal(value.NewString("foo")), Literal(value.NewString("bar")))
	require.NoError(t, err)
	v, err := concat.Eval(ec, row)
	require.NoError(t, err)
	assert.Equal(t, value.NewString("foobar"), v)
}
