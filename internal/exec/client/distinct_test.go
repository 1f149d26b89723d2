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

package client

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joshsmithxrm/ppds-queryengine/internal/value"
)

func TestDistinctDropsDuplicateTuples(t *testing.T) {
	src := &fakeSource{rows: []value.Row{
		value.NewRow("account").WithSet("name", value.NewString("Contoso")),
		value.NewRow("account").WithSet("name", value.NewString("contoso")),
		value.NewRow("account").WithSet("name", value.NewString("Fabrikam")),
	}}

	rows := drainAll(t, NewDistinct(src), newTestExecContext())
	assert.Len(t, rows, 2)
}
