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

// Package cmdrender contains the render command
package cmdrender

import (
	"context"

	"github.com/condastackdev/condastack/internal/errors"
	"github.com/condastackdev/condastack/internal/manifest"
	"github.com/condastackdev/condastack/internal/printer"
	"github.com/condastackdev/condastack/internal/util/publish"
	"github.com/spf13/cobra"
)

// NewRunner returns a command runner
func NewRunner(ctx context.Context) *Runner {
	r := &Runner{
		ctx: ctx,
	}
	c := &cobra.Command{
		Use:   "render MANIFEST RECIPE",
		Args:  cobra.ExactArgs(2),
		Short: "Render one recipe and print the resolved package",
		Long: "Render one recipe and print the exact name-version-buildstring\n" +
			"triple a build would produce, plus the artifact paths.",
		Example: "  condastack render specs.yaml pkg-a",
		RunE:    r.runE,
		PreRunE: r.preRunE,
	}
	r.Command = c
	return r
}

func NewCommand(ctx context.Context) *cobra.Command {
	return NewRunner(ctx).Command
}

// Runner contains the run function
type Runner struct {
	ctx     context.Context
	Command *cobra.Command

	manifest *manifest.Manifest
	spec     manifest.RecipeSpec
}

func (r *Runner) preRunE(_ *cobra.Command, args []string) error {
	const op errors.Op = "cmdrender.preRunE"
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

func (r *Runner) runE(_ *cobra.Command, _ []string) error {
	const op errors.Op = "cmdrender.runE"
	pr := printer.FromContextOrDie(r.ctx)

	rendered, err := publish.RenderOne(r.ctx, r.manifest, r.spec, nil, "")
	if err != nil {
		return errors.E(op, errors.Recipe(r.spec.Name), err)
	}

	pr.Printf("%s\n", rendered.Spec())
	for _, artifact := range rendered.Artifacts {
		pr.OptPrintf(printer.NewOpt().Indent(2), "%s\n", artifact)
	}
	return nil
}
