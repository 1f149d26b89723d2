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
	"github.com/joshsmithxrm/ppds-queryengine/internal/types"
	"github.com/joshsmithxrm/ppds-queryengine/internal/value"
)

// Predicate is a compiled boolean test with the three-valued-to-false
// collapse already applied, for use at WHERE/HAVING/IF/WHILE
// boundaries.
type Predicate func(ec *types.ExecContext, row value.Row) (bool, error)

// CompilePredicate wraps e so that Unknown (including any evaluation
// error propagated as Null would be, which is why errors are returned
// rather than swallowed) collapses to false exactly once, at the
// boundary, rather than at every AND/OR node.
func CompilePredicate(e Expr) Predicate {
	return func(ec *types.ExecContext, row value.Row) (bool, error) {
		v, err := e.Eval(ec, row)
		if err != nil {
			return false, err
		}
		return asTri(v).Bool(), nil
	}
}
