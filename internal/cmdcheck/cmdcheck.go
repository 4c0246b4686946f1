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

// Package cmdcheck contains the check command
package cmdcheck

import (
	"context"

	"github.com/condastackdev/condastack/internal/conda"
	"github.com/condastackdev/condastack/internal/errors"
	"github.com/condastackdev/condastack/internal/manifest"
	"github.com/condastackdev/condastack/internal/printer"
	"github.com/condastackdev/condastack/internal/util/publish"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// NewRunner returns a command runner
func NewRunner(ctx context.Context) *Runner {
	r := &Runner{
		ctx: ctx,
	}
	c := &cobra.Command{
		Use:   "check MANIFEST RECIPE",
		Args:  cobra.ExactArgs(2),
		Short: "Check the destination channel for a recipe's build",
		Long: "Render one recipe and report whether its exact build already\n" +
			"exists on the destination channel. Existing builds of the package\n" +
			"are listed newest version first.",
		Example: "  condastack check specs.yaml pkg-a --label devel",
		RunE:    r.runE,
		PreRunE: r.preRunE,
	}
	r.Command = c
	c.Flags().StringArrayVar(&r.labels, "label", nil,
		"also search under this anaconda label, repeatable")
	return r
}

func NewCommand(ctx context.Context) *cobra.Command {
	return NewRunner(ctx).Command
}

// Runner contains the run function
type Runner struct {
	ctx     context.Context
	Command *cobra.Command

	labels []string

	manifest *manifest.Manifest
	spec     manifest.RecipeSpec
}

func (r *Runner) preRunE(_ *cobra.Command, args []string) error {
	const op errors.Op = "cmdcheck.preRunE"
	m, err := manifest.Load(args[0])
	if err != nil {
		return errors.E(op, err)
	}
	spec, err := m.Recipe(args[1])
	if err != nil {
		return errors.E(op, err)
	}
	r.manifest = m
	r.spec = spec
	return nil
}

func (r *Runner) runE(cmd *cobra.Command, _ []string) error {
	const op errors.Op = "cmdcheck.runE"
	pr := printer.FromContextOrDie(r.ctx)

	labels := publish.CombineLabels(r.labels, r.manifest.ChannelLabel)
	rendered, err := publish.RenderOne(r.ctx, r.manifest, r.spec, labels, "")
	if err != nil {
		return errors.E(op, err)
	}

	tool := conda.New(r.manifest, labels, "")
	records, err := tool.Search(r.ctx, r.spec.Name)
	if err != nil {
		return errors.E(op, errors.Recipe(r.spec.Name), err)
	}

	if conda.HasExactBuild(records, rendered.Version, rendered.BuildString) {
		pr.Printf("%s exists on %s\n", rendered.Spec(), r.manifest.Shared.DestinationChannel)
	} else {
		pr.Printf("%s not found on %s\n", rendered.Spec(), r.manifest.Shared.DestinationChannel)
	}

	if len(records) == 0 {
		return nil
	}
	conda.SortByVersion(records)
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"VERSION", "BUILD", "CHANNEL"})
	for _, rec := range records {
		t.AppendRow(table.Row{rec.Version, rec.Build, rec.Channel})
	}
	t.Render()
	return nil
}
