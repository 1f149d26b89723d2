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

// Command engineprobe is a smoke-test harness: it binds
// internal/config.Options to flags, plans one hardcoded SELECT against
// a fixed FetchXML body, and prints the resulting operator tree. It
// exists to exercise the planner end to end without a real transpiler
// or backend wired in; it is not the product's query interface.
package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/joshsmithxrm/ppds-queryengine/internal/config"
	"github.com/joshsmithxrm/ppds-queryengine/internal/plan"
	"github.com/joshsmithxrm/ppds-queryengine/internal/types"
	"github.com/joshsmithxrm/ppds-queryengine/internal/value"
)

func main() {
	opts := config.Defaults()
	configFile := pflag.String("config", "", "optional YAML file of deployment-level option defaults")
	entity := pflag.String("entity", "account", "entity to probe a plan against")
	pflag.CommandLine.ParseErrorsWhitelist.UnknownFlags = true
	pflag.Parse()

	if *configFile != "" {
		if err := opts.LoadYAML(*configFile); err != nil {
			log.WithError(err).Fatal("loading config file")
		}
	}
	opts.Bind(pflag.CommandLine)
	pflag.CommandLine.ParseErrorsWhitelist.UnknownFlags = false
	pflag.Parse()

	if err := opts.Preflight(); err != nil {
		log.WithError(err).Fatal("invalid options")
	}

	p := plan.New(opts, nil)
	req := &plan.SelectRequest{
		Entity:   *entity,
		Columns:  []value.Column{{Name: "name"}, {Name: "createdon", Type: value.TypeDateTime}},
		FetchXML: fmt.Sprintf("<fetch><entity name=%q><attribute name='name'/><attribute name='createdon'/></entity></fetch>", *entity),
	}

	node, err := p.PlanSelect(req)
	if err != nil {
		log.WithError(err).Fatal("planning failed")
	}

	printTree(node, 0)
}

func printTree(node types.PlanNode, depth int) {
	for i := 0; i < depth; i++ {
		fmt.Fprint(os.Stdout, "  ")
	}
	fmt.Fprintf(os.Stdout, "%s (rows=%d)\n", node.Describe(), node.EstimatedRows())
	for _, child := range node.Children() {
		printTree(child, depth+1)
	}
}
