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

package backendsql

import (
	"context"
	"errors"
	"testing"
	"time"

	mssql "github.com/denisenkom/go-mssqldb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshsmithxrm/ppds-queryengine/internal/types"
	"github.com/joshsmithxrm/ppds-queryengine/internal/value"
)

func TestSqlValueMapsDeclaredIntegerTypes(t *testing.T) {
	v := sqlValue(int64(42), value.TypeBigInt)
	assert.Equal(t, value.KindInt64, v.Kind)
	assert.Equal(t, int64(42), v.Int64)
}

func TestSqlValueNilRawIsNull(t *testing.T) {
	v := sqlValue(nil, value.TypeString)
	assert.True(t, v.IsNull())
}

func TestSqlValueFallsBackToRawGoTypeWhenTagMismatches(t *testing.T) {
	v := sqlValue("hello", value.TypeInteger)
	assert.Equal(t, value.KindString, v.Kind)
	assert.Equal(t, "hello", v.String)
}

func TestSqlValueDateTimeBecomesUTCTimestamp(t *testing.T) {
	loc, _ := time.LoadLocation("America/Chicago")
	local := time.Date(2024, 1, 2, 3, 4, 5, 0, loc)
	v := sqlValue(local, value.TypeDateTime)
	assert.Equal(t, value.KindTimestamp, v.Kind)
	assert.Equal(t, local.UTC(), v.Timestamp)
}

func TestSqlTypeTagMapsDatabaseTypeNames(t *testing.T) {
	assert.Equal(t, value.TypeBigInt, sqlTypeTagFromName("BIGINT"))
	assert.Equal(t, value.TypeDecimal, sqlTypeTagFromName("MONEY"))
	assert.Equal(t, value.TypeGuid, sqlTypeTagFromName("UNIQUEIDENTIFIER"))
	assert.Equal(t, value.TypeString, sqlTypeTagFromName("NVARCHAR"))
}

func TestClassifyErrorMapsCancellation(t *testing.T) {
	assert.ErrorIs(t, classifyError(context.Canceled), types.ErrCanceled)
	assert.ErrorIs(t, classifyError(context.DeadlineExceeded), types.ErrCanceled)
}

func TestClassifyErrorWrapsOtherFailuresAsTransient(t *testing.T) {
	err := classifyError(errors.New("connection reset"))
	_, transient := types.IsTransient(err)
	assert.True(t, transient)
}

func TestClassifyErrorNilIsNil(t *testing.T) {
	assert.NoError(t, classifyError(nil))
}

func TestClassifyErrorMapsPermanentSQLErrorNumberToNonRetryable(t *testing.T) {
	sqlErr := mssql.Error{Number: 2627, Message: "Violation of PRIMARY KEY constraint"}
	err := classifyError(sqlErr)
	qe, ok := types.AsQueryError(err)
	require.True(t, ok, "expected *types.QueryError, got %T", err)
	assert.Equal(t, types.KindValidation, qe.Kind)
	_, transient := types.IsTransient(err)
	assert.False(t, transient, "permanent SQL errors must not be retried")
}

func TestClassifyErrorTreatsUnrecognizedSQLErrorNumberAsTransient(t *testing.T) {
	sqlErr := mssql.Error{Number: 1205, Message: "transaction was deadlocked"}
	err := classifyError(sqlErr)
	_, transient := types.IsTransient(err)
	assert.True(t, transient, "deadlock/timeout errors not in the permanent table should still retry")
}
