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

package types

import (
	"time"

	"github.com/pkg/errors"
)

// ErrorKind is one of the stable error identifiers surfaced to callers.
type ErrorKind string

// The stable error kinds.
const (
	KindParseError                 ErrorKind = "ParseError"
	KindValidation                 ErrorKind = "Validation"
	KindAuthNoActiveProfile        ErrorKind = "Auth.NoActiveProfile"
	KindAuthInvalidCredentials     ErrorKind = "Auth.InvalidCredentials"
	KindConnectionEnvNotFound      ErrorKind = "Connection.EnvironmentNotFound"
	KindConnectionTransient        ErrorKind = "Connection.Transient"
	KindOperationNotSupported      ErrorKind = "Operation.NotSupported"
	KindQueryAggregateOverflow     ErrorKind = "Query.AggregateOverflow"
	KindQueryMemoryLimitExceeded   ErrorKind = "Query.MemoryLimitExceeded"
	KindQueryInfiniteLoopSuspected ErrorKind = "Query.InfiniteLoopSuspected"
	KindQueryRowCapExceeded        ErrorKind = "Query.RowCapExceeded"
	KindDMLPerRecord               ErrorKind = "DML.PerRecord"
	KindSessionNotFound            ErrorKind = "Session.NotFound"
	KindSessionAlreadyExists       ErrorKind = "Session.AlreadyExists"
)

// QueryError is the structured error surfaced to callers: a stable kind, a message, and an optional payload.
type QueryError struct {
	Kind    ErrorKind
	Message string

	// RetryAfter is set for KindConnectionTransient.
	RetryAfter time.Duration
	// RequiresReauth is set for KindAuthInvalidCredentials.
	RequiresReauth bool
	// RecordIndex is set for KindDMLPerRecord.
	RecordIndex int
	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	if e.Message != "" {
		return string(e.Kind) + ": " + e.Message
	}
	return string(e.Kind)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *QueryError) Unwrap() error { return e.Cause }

// NewQueryError constructs a QueryError, wrapping cause with a stack
// trace via pkg/errors if non-nil.
func NewQueryError(kind ErrorKind, message string, cause error) *QueryError {
	if cause != nil {
		cause = errors.WithStack(cause)
	}
	return &QueryError{Kind: kind, Message: message, Cause: cause}
}

// Transient constructs a Connection.Transient error carrying retry
// advice.
func Transient(message string, retryAfter time.Duration, cause error) *QueryError {
	e := NewQueryError(KindConnectionTransient, message, cause)
	e.RetryAfter = retryAfter
	return e
}

// AggregateOverflow constructs a Query.AggregateOverflow error.
func AggregateOverflow(message string) *QueryError {
	return NewQueryError(KindQueryAggregateOverflow, message, nil)
}

// NotSupported constructs an Operation.NotSupported error.
func NotSupported(message string) *QueryError {
	return NewQueryError(KindOperationNotSupported, message, nil)
}

// RowCapExceeded constructs a Query.RowCapExceeded error.
func RowCapExceeded(message string) *QueryError {
	return NewQueryError(KindQueryRowCapExceeded, message, nil)
}

// MemoryLimitExceeded constructs a Query.MemoryLimitExceeded error.
func MemoryLimitExceeded(message string) *QueryError {
	return NewQueryError(KindQueryMemoryLimitExceeded, message, nil)
}

// InfiniteLoopSuspected constructs a Query.InfiniteLoopSuspected error.
func InfiniteLoopSuspected(message string) *QueryError {
	return NewQueryError(KindQueryInfiniteLoopSuspected, message, nil)
}

// PerRecord constructs a DML.PerRecord error carrying the failing
// record's index and underlying cause.
func PerRecord(index int, cause error) *QueryError {
	e := NewQueryError(KindDMLPerRecord, "write failed", cause)
	e.RecordIndex = index
	return e
}

// AuthRequiresReauth constructs an Auth.InvalidCredentials error with
// the requires-reauth flag set.
func AuthRequiresReauth(message string, cause error) *QueryError {
	e := NewQueryError(KindAuthInvalidCredentials, message, cause)
	e.RequiresReauth = true
	return e
}

// SessionNotFound constructs a Session.NotFound error.
func SessionNotFound(message string) *QueryError {
	return NewQueryError(KindSessionNotFound, message, nil)
}

// SessionAlreadyExists constructs a Session.AlreadyExists error.
func SessionAlreadyExists(message string) *QueryError {
	return NewQueryError(KindSessionAlreadyExists, message, nil)
}

// AsQueryError extracts a *QueryError from err, using the same
// typed-error-plus-predicate pattern as errors.As.
func AsQueryError(err error) (*QueryError, bool) {
	var qe *QueryError
	ok := errors.As(err, &qe)
	return qe, ok
}

// IsKind reports whether err is a QueryError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	qe, ok := AsQueryError(err)
	return ok && qe.Kind == kind
}

// IsTransient reports whether err is a retryable Connection.Transient
// error and, if so, returns its retry-after advice.
func IsTransient(err error) (time.Duration, bool) {
	qe, ok := AsQueryError(err)
	if !ok || qe.Kind != KindConnectionTransient {
		return 0, false
	}
	return qe.RetryAfter, true
}

// IsAggregateOverflow reports whether err is a Query.AggregateOverflow
// error.
func IsAggregateOverflow(err error) bool {
	return IsKind(err, KindQueryAggregateOverflow)
}

// IsCancellation reports whether err represents context cancellation,
// which is "never caught by TRY/CATCH".
func IsCancellation(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// ErrCanceled is returned/wrapped by operators when execution is
// canceled via the shared cancellation token.
var ErrCanceled = errors.New("query execution canceled")
