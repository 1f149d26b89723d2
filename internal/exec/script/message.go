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

	"github.com/joshsmithxrm/ppds-queryengine/internal/expr"
	"github.com/joshsmithxrm/ppds-queryengine/internal/types"
	"github.com/joshsmithxrm/ppds-queryengine/internal/value"
)

// ExecuteMessage implements EXEC message_name @param = expr, ...: a
// generic remote-procedure call to the backend's message surface. Until
// that wiring exists, it yields a single summary row containing the
// declared parameters and a status placeholder.
type ExecuteMessage struct {
	MessageName string
	Params      map[string]expr.Expr
}

var _ Stmt = (*ExecuteMessage)(nil)

// Exec implements Stmt.
func (m *ExecuteMessage) Exec(_ context.Context, ec *types.ExecContext) ([]value.Row, []value.Column, bool, error) {
	row := value.NewRow("")
	row = row.WithSet("message_name", value.NewString(m.MessageName))
	row = row.WithSet("status", value.NewString("not_wired"))
	for name, e := range m.Params {
		v, err := e.Eval(ec, value.Row{})
		if err != nil {
			return nil, nil, false, err
		}
		row = row.WithSet(name, v)
	}
	cols := make([]value.Column, 0, len(row.Names()))
	for _, name := range row.Names() {
		cols = append(cols, value.Column{Name: name})
	}
	return []value.Row{row}, cols, true, nil
}
