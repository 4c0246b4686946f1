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

// Package cmdpublish contains the publish command
package cmdpublish

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/condastackdev/condastack/internal/conda"
	"github.com/condastackdev/condastack/internal/errors"
	"github.com/condastackdev/condastack/internal/manifest"
	"github.com/condastackdev/condastack/internal/report"
	"github.com/condastackdev/condastack/internal/util/publish"
	"github.com/spf13/cobra"
)

// StartFromEnv overrides the default of the --start-from flag.
const StartFromEnv = "CONDASTACK_START_FROM"

const (
	shortDocs = "Build and upload the recipes in a manifest"
	longDocs  = `
Processes each selected recipe in the manifest: checks out the recipe repo at
the requested tag, renders the recipe to resolve the exact
name-version-buildstring triple, and queries the destination channel. Recipes
whose exact build already exists are skipped; the rest are built with conda
build (or conda mambabuild) and uploaded with anaconda upload.

A YAML summary of the run is rewritten after every recipe.
`
	examples = `
  # publish every recipe in the manifest
  condastack publish specs.yaml

  # publish two selected recipes under the devel label
  condastack publish specs.yaml pkg-a pkg-b --label devel
`
)

// NewRunner returns a command runner
func NewRunner(ctx context.Context) *Runner {
	r := &Runner{
		ctx: ctx,
	}
	c := &cobra.Command{
		Use:     "publish MANIFEST [RECIPE...]",
		Args:    cobra.MinimumNArgs(1),
		Short:   shortDocs,
		Long:    shortDocs + "\n" + longDocs,
		Example: examples,
		RunE:    r.runE,
		PreRunE: r.preRunE,
	}
	r.Command = c
	c.Flags().StringArrayVar(&r.labels, "label", nil,
		"upload under this anaconda label, repeatable")
	c.Flags().StringVar(&r.token, "token", "",
		"token used for anaconda upload")
	c.Flags().StringVar(&r.startFrom, "start-from", os.Getenv(StartFromEnv),
		"recipe name to start from in manifest order")
	c.Flags().StringVarP(&r.logfile, "logfile", "o", "",
		"path of the run summary YAML file, or a directory to store it in")
	return r
}

func NewCommand(ctx context.Context) *cobra.Command {
	return NewRunner(ctx).Command
}

// Runner contains the run function
type Runner struct {
	ctx     context.Context
	Command *cobra.Command

	labels    []string
	token     string
	startFrom string
	logfile   string

	publish publish.Command
}

func (r *Runner) preRunE(_ *cobra.Command, args []string) error {
	const op errors.Op = "cmdpublish.preRunE"

	m, err := manifest.Load(args[0])
	if err != nil {
		return errors.E(op, err)
	}
	recipes, err := m.Select(r.ctx, args[1:], r.startFrom)
	if err != nil {
		return errors.E(op, err)
	}

	labels := publish.CombineLabels(r.labels, m.ChannelLabel)
	summaryPath, err := report.OutputPath(r.logfile, time.Now())
	if err != nil {
		return errors.E(op, err)
	}

	r.publish = publish.Command{
		Manifest:    m,
		Recipes:     recipes,
		Labels:      labels,
		Tool:        conda.New(m, labels, r.token),
		SummaryPath: summaryPath,
		ToolVersion: r.Command.Root().Version,
		Args:        r.summaryArgs(args),
	}
	return nil
}

func (r *Runner) runE(_ *cobra.Command, _ []string) error {
	const op errors.Op = "cmdpublish.runE"
	if err := r.publish.Run(r.ctx); err != nil {
		return errors.E(op, err)
	}
	return nil
}

// summaryArgs records the invocation in the run summary. The token value is
// never included.
func (r *Runner) summaryArgs(args []string) map[string]string {
	out := map[string]string{
		"manifest": args[0],
		"recipes":  strings.Join(args[1:], " "),
		"labels":   strings.Join(r.labels, " "),
	}
	if r.startFrom != "" {
		out["start-from"] = r.startFrom
	}
	if r.logfile != "" {
		out["logfile"] = r.logfile
	}
	if r.token != "" {
		out["token"] = "<redacted>"
	}
	return out
}
