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

// Declare implements DECLARE @name type [= initializer].
type Declare struct {
	Name    string
	Type    value.TypeTag
	Initial expr.Expr // nil means Null
}

var _ Stmt = (*Declare)(nil)

// Exec implements Stmt.
func (d *Declare) Exec(_ context.Context, ec *types.ExecContext) ([]value.Row, []value.Column, bool, error) {
	initial := value.Null
	if d.Initial != nil {
		v, err := d.Initial.Eval(ec, value.Row{})
		if err != nil {
			return nil, nil, false, err
		}
		initial = v
	}
	ec.Scope.Declare(d.Name, d.Type, initial)
	return nil, nil, false, nil
}

// Set implements SET @name = expr.
type Set struct {
	Name string
	Expr expr.Expr
}

var _ Stmt = (*Set)(nil)

// Exec implements Stmt.
func (s *Set) Exec(_ context.Context, ec *types.ExecContext) ([]value.Row, []value.Column, bool, error) {
	v, err := s.Expr.Eval(ec, value.Row{})
	if err != nil {
		return nil, nil, false, err
	}
	ec.Scope.Set(s.Name, v)
	return nil, nil, false, nil
}
