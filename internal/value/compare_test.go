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

package value

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTriLogic(t *testing.T) {
	assert.Equal(t, False, True.And(False))
	assert.Equal(t, Unknown, True.And(Unknown))
	assert.Equal(t, True, True.Or(Unknown))
	assert.Equal(t, Unknown, False.Or(Unknown))
	assert.Equal(t, Unknown, Unknown.Not())
	assert.False(t, Unknown.Bool())
	assert.True(t, True.Bool())
}

func TestEqualNullIsUnknown(t *testing.T) {
	assert.Equal(t, Unknown, Equal(Null, NewInt64(1)))
	assert.Equal(t, Unknown, Equal(NewInt64(1), Null))
}

func TestEqualStringCaseInsensitive(t *testing.T) {
	assert.Equal(t, True, Equal(NewString("Account"), NewString("account")))
	assert.Equal(t, False, Equal(NewString("Account"), NewString("contact")))
}

func TestEqualBoolRequiresBothBool(t *testing.T) {
	assert.Equal(t, Unknown, Equal(NewBool(true), NewInt64(1)))
	assert.Equal(t, True, Equal(NewBool(true), NewBool(true)))
}

func TestCompareNumericPromotion(t *testing.T) {
	c, ok := Compare(NewInt64(3), NewDouble(3.5))
	assert.True(t, ok)
	assert.Equal(t, -1, c)
}

func TestCompareTimestampUTC(t *testing.T) {
	est, _ := time.LoadLocation("America/New_York")
	a := NewTimestamp(time.Date(2024, 1, 1, 0, 0, 0, 0, est))
	b := NewTimestamp(time.Date(2024, 1, 1, 5, 0, 0, 0, time.UTC))
	c, ok := Compare(a, b)
	assert.True(t, ok)
	assert.Equal(t, 0, c)
}

func TestCompareIncompatibleKinds(t *testing.T) {
	_, ok := Compare(NewString("x"), NewInt64(1))
	assert.False(t, ok)
}

func TestLikeWildcards(t *testing.T) {
	assert.Equal(t, True, Like(NewString("Contoso Ltd"), NewString("contoso%")))
	assert.Equal(t, True, Like(NewString("abc"), NewString("a_c")))
	assert.Equal(t, False, Like(NewString("abc"), NewString("a_d")))
	assert.Equal(t, True, Like(NewString("50% off"), NewString("50\\% off")))
}

func TestLikeNullIsUnknown(t *testing.T) {
	assert.Equal(t, Unknown, Like(Null, NewString("a%")))
}
