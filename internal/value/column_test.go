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

	"github.com/stretchr/testify/assert"
)

func TestOutputNamePrefersAlias(t *testing.T) {
	c := Column{Name: "name", Alias: "accountname"}
	assert.Equal(t, "accountname", c.OutputName())

	c2 := Column{Name: "name"}
	assert.Equal(t, "name", c2.OutputName())
}

func TestDedupeSuffixesCollisions(t *testing.T) {
	cols := []Column{{Name: "name"}, {Name: "Name"}, {Name: "Name"}}
	out := Dedupe(cols)

	assert.Equal(t, "name", out[0].OutputName())
	assert.Equal(t, "Name_2", out[1].OutputName())
	assert.Equal(t, "Name_3", out[2].OutputName())
}

func TestDedupeNoCollisionsUnchanged(t *testing.T) {
	cols := []Column{{Name: "name"}, {Name: "revenue"}}
	out := Dedupe(cols)
	assert.Equal(t, "name", out[0].OutputName())
	assert.Equal(t, "revenue", out[1].OutputName())
}
