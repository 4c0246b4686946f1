// Copyright 2025 The condastack Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cmdlist contains the list command
package cmdlist

import (
	"context"

	"github.com/condastackdev/condastack/internal/errors"
	"github.com/condastackdev/condastack/internal/manifest"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// NewRunner returns a command runner
func NewRunner(ctx context.Context) *Runner {
	r := &Runner{
		ctx: ctx,
	}
	c := &cobra.Command{
		Use:     "list MANIFEST [RECIPE...]",
		Args:    cobra.MinimumNArgs(1),
		Short:   "List the recipes in a manifest",
		Long:    "List the recipes in a manifest, in processing order.",
		Example: "  condastack list specs.yaml",
		RunE:    r.runE,
	}
	r.Command = c
	c.Flags().StringVar(&r.startFrom, "start-from", "",
		"recipe name to start from in manifest order")
	return r
}

func NewCommand(ctx context.Context) *cobra.Command {
	return NewRunner(ctx).Command
}

// Runner contains the run function
type Runner struct {
	ctx     context.Context
	Command *cobra.Command

	startFrom string
}

func (r *Runner) runE(cmd *cobra.Command, args []string) error {
	const op errors.Op = "cmdlist.runE"

	m, err := manifest.Load(args[0])
	if err != nil {
		return errors.E(op, err)
	}
	recipes, err := m.Select(r.ctx, args[1:], r.startFrom)
	if err != nil {
		return errors.E(op, err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"NAME", "REPO", "TAG", "SUBDIR"})
	for i := range recipes {
		t.AppendRow(table.Row{
			recipes[i].Name,
			recipes[i].RecipeRepo,
			recipes[i].Tag,
			recipes[i].RecipeSubdir,
		})
	}
	t.Render()
	return nil
}
