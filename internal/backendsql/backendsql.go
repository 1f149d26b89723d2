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

// Package backendsql implements types.BackendSQLClient over the
// backend's secondary, TDS-wire-compatible SQL endpoint, serving the
// BackendSqlScan passthrough path.
package backendsql

import (
	"context"
	"database/sql"
	"time"

	mssql "github.com/denisenkom/go-mssqldb" // registers the "sqlserver" driver
	"github.com/pkg/errors"

	"github.com/joshsmithxrm/ppds-queryengine/internal/types"
	"github.com/joshsmithxrm/ppds-queryengine/internal/value"
)

// Client is a types.BackendSQLClient backed by database/sql and the
// go-mssqldb driver.
type Client struct {
	db *sql.DB
}

var _ types.BackendSQLClient = (*Client)(nil)

// Open connects to the backend's secondary SQL endpoint: open, ping,
// return, against the sqlserver driver.
func Open(ctx context.Context, dsn string) (*Client, error) {
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "could not open backend sql connection")
	}
	db.SetConnMaxLifetime(30 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		return nil, errors.Wrap(err, "could not ping backend sql endpoint")
	}
	return &Client{db: db}, nil
}

// Close releases the underlying connection pool.
func (c *Client) Close() error { return c.db.Close() }

// Execute runs sql against the backend, capping the number of rows
// materialized at maxRows, the caller's BackendSqlScan row cap.
func (c *Client) Execute(ctx context.Context, query string, maxRows int) (types.RowIter, []value.Column, error) {
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, classifyError(err)
	}
	cols, err := columnsOf(rows)
	if err != nil {
		rows.Close()
		return nil, nil, errors.WithStack(err)
	}
	return &rowIter{rows: rows, cols: cols, maxRows: maxRows}, cols, nil
}

func columnsOf(rows *sql.Rows) ([]value.Column, error) {
	ct, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	out := make([]value.Column, len(ct))
	for i, c := range ct {
		out[i] = value.Column{Name: c.Name(), Alias: c.Name(), Type: sqlTypeTag(c)}
	}
	return out, nil
}

func sqlTypeTag(c *sql.ColumnType) value.TypeTag {
	return sqlTypeTagFromName(c.DatabaseTypeName())
}

func sqlTypeTagFromName(name string) value.TypeTag {
	switch name {
	case "INT", "SMALLINT", "TINYINT":
		return value.TypeInteger
	case "BIGINT":
		return value.TypeBigInt
	case "DECIMAL", "NUMERIC", "MONEY", "SMALLMONEY":
		return value.TypeDecimal
	case "FLOAT", "REAL":
		return value.TypeDouble
	case "BIT":
		return value.TypeBoolean
	case "DATETIME", "DATETIME2", "DATE", "SMALLDATETIME":
		return value.TypeDateTime
	case "UNIQUEIDENTIFIER":
		return value.TypeGuid
	default:
		return value.TypeString
	}
}

type rowIter struct {
	rows    *sql.Rows
	cols    []value.Column
	maxRows int
	n       int
}

func (it *rowIter) Next(ctx context.Context) (value.Row, bool, error) {
	if it.maxRows > 0 && it.n >= it.maxRows {
		return value.Row{}, false, nil
	}
	select {
	case <-ctx.Done():
		return value.Row{}, false, types.ErrCanceled
	default:
	}
	if !it.rows.Next() {
		return value.Row{}, false, classifyError(it.rows.Err())
	}
	dest := make([]any, len(it.cols))
	ptrs := make([]any, len(it.cols))
	for i := range dest {
		ptrs[i] = &dest[i]
	}
	if err := it.rows.Scan(ptrs...); err != nil {
		return value.Row{}, false, errors.WithStack(err)
	}
	row := value.NewRow("")
	for i, c := range it.cols {
		row = row.With(c.Name, sqlValue(dest[i], c.Type))
	}
	it.n++
	return row, true, nil
}

func (it *rowIter) Close() error { return it.rows.Close() }

func sqlValue(raw any, typ value.TypeTag) value.Value {
	if raw == nil {
		return value.Null
	}
	switch typ {
	case value.TypeInteger, value.TypeBigInt:
		switch n := raw.(type) {
		case int64:
			return value.NewInt64(n)
		}
	case value.TypeBoolean:
		if b, ok := raw.(bool); ok {
			return value.NewBool(b)
		}
	case value.TypeDateTime:
		if t, ok := raw.(time.Time); ok {
			return value.NewTimestamp(t)
		}
	}
	switch v := raw.(type) {
	case []byte:
		return value.NewString(string(v))
	case string:
		return value.NewString(v)
	case float64:
		return value.NewDouble(v)
	case int64:
		return value.NewInt64(v)
	case bool:
		return value.NewBool(v)
	case time.Time:
		return value.NewTimestamp(v)
	default:
		return value.Null
	}
}

// permanentSQLErrorNumbers are SQL Server error numbers that mean the
// statement itself is broken - bad syntax, an unknown object, a denied
// permission, a violated constraint, a failed login - so retrying the
// exact same request can never succeed. Anything else reaching
// classifyError (timeouts, deadlocks, connection resets) is treated as
// transient and left to the caller's retry loop.
var permanentSQLErrorNumbers = map[int32]bool{
	102:   true, // incorrect syntax near ...
	207:   true, // invalid column name
	208:   true, // invalid object name
	229:   true, // permission denied
	547:   true, // statement conflicted with a constraint
	2601:  true, // cannot insert duplicate key row
	2627:  true, // violation of PRIMARY KEY/UNIQUE KEY constraint
	18456: true, // login failed
}

// classifyError maps driver-level failures into the stable error kinds
// by inspecting the returned error rather than decoding the wire
// protocol directly. A *mssql.Error carrying one of
// permanentSQLErrorNumbers surfaces as a non-retryable QueryError so the
// executor aborts the statement instead of retrying; everything else is
// wrapped as Connection.Transient.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return types.ErrCanceled
	}
	var sqlErr mssql.Error
	if errors.As(err, &sqlErr) && permanentSQLErrorNumbers[sqlErr.Number] {
		return types.NewQueryError(types.KindValidation, sqlErr.Message, err)
	}
	return types.Transient("backend sql query failed", 2*time.Second, err)
}
