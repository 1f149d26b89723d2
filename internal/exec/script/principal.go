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

	"github.com/google/uuid"

	"github.com/joshsmithxrm/ppds-queryengine/internal/types"
	"github.com/joshsmithxrm/ppds-queryengine/internal/value"
)

// ExecuteAs implements EXECUTE AS principal_name: sets the session's
// impersonation principal. Resolution to a real backend uuid is the
// caller's responsibility via a hook that isn't wired in this core; a
// deterministic namespace-uuid placeholder is used instead.
type ExecuteAs struct {
	Principal string
}

var _ Stmt = (*ExecuteAs)(nil)

// Exec implements Stmt.
func (e *ExecuteAs) Exec(_ context.Context, ec *types.ExecContext) ([]value.Row, []value.Column, bool, error) {
	ec.Principal = uuid.NewSHA1(uuid.Nil, []byte(e.Principal))
	return nil, nil, false, nil
}

// Revert implements REVERT: clears the impersonation principal.
type Revert struct{}

var _ Stmt = (*Revert)(nil)

// Exec implements Stmt.
func (r *Revert) Exec(_ context.Context, ec *types.ExecContext) ([]value.Row, []value.Column, bool, error) {
	ec.Principal = uuid.Nil
	return nil, nil, false, nil
}
