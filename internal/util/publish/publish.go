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

// Package publish contains the build-and-upload pipeline: for each selected
// recipe, check out the tag, render, query the destination channel, and
// build and upload when the exact build is absent.
package publish

import (
	"context"
	"fmt"
	"time"

	"github.com/condastackdev/condastack/internal/conda"
	"github.com/condastackdev/condastack/internal/errors"
	"github.com/condastackdev/condastack/internal/gitutil"
	"github.com/condastackdev/condastack/internal/manifest"
	"github.com/condastackdev/condastack/internal/printer"
	"github.com/condastackdev/condastack/internal/report"
	"github.com/condastackdev/condastack/internal/types"
)

// CondaTool is the part of the conda toolchain the pipeline drives. It is
// satisfied by *conda.Tool and faked in tests.
type CondaTool interface {
	Platform(ctx context.Context) (string, error)
	Render(ctx context.Context, repoDir, subdir, name string, env []string) (*conda.RenderedPackage, error)
	Search(ctx context.Context, name string) ([]conda.PackageRecord, error)
	Build(ctx context.Context, repoDir, subdir string, flags, env []string) error
	Upload(ctx context.Context, artifact string) error
}

// CheckoutFunc checks out ref of the repo in the cache dir and returns the
// repo path. The default clones through git; tests substitute a stub.
type CheckoutFunc func(ctx context.Context, repoURI, cacheDir, ref string) (types.UniquePath, error)

// Command publishes the selected recipes of a manifest.
type Command struct {
	// Manifest is the loaded recipe specs file.
	Manifest *manifest.Manifest

	// Recipes is the selection to process, already ordered.
	Recipes []manifest.RecipeSpec

	// Labels are the anaconda labels in use, including any label stripped
	// from the destination channel.
	Labels []string

	// Tool drives the conda toolchain.
	Tool CondaTool

	// Checkout manages the recipe repo cache. Defaults to git.
	Checkout CheckoutFunc

	// SummaryPath is where the YAML run summary is written.
	SummaryPath string

	// ToolVersion and Args are recorded in the summary.
	ToolVersion string
	Args        map[string]string
}

// Run processes the recipes in order. The first failing recipe aborts the
// run; the summary on disk is current up to and including the failure.
func (c Command) Run(ctx context.Context) error {
	const op errors.Op = "publish.Run"
	pr := printer.FromContextOrDie(ctx)

	if c.Checkout == nil {
		c.Checkout = func(ctx context.Context, repoURI, cacheDir, ref string) (types.UniquePath, error) {
			return gitutil.NewRecipeRepo(repoURI, cacheDir).Checkout(ctx, ref)
		}
	}

	platform, err := c.Tool.Platform(ctx)
	if err != nil {
		return errors.E(op, err)
	}

	start := time.Now()
	summary := report.New(c.ToolVersion, c.Args, start)

	for i := range c.Recipes {
		spec := c.Recipes[i]
		if err := c.processRecipe(ctx, spec, platform, summary); err != nil {
			summary.RecordError(spec.Name, err)
			if werr := summary.WriteFile(c.SummaryPath); werr != nil {
				pr.OptPrintf(printer.NewOpt().Stderr(),
					"failed to write summary: %v\n", werr)
			}
			return errors.E(op, errors.Recipe(spec.Name), err)
		}
		if err := summary.WriteFile(c.SummaryPath); err != nil {
			return errors.E(op, err)
		}
	}

	summary.Finish(start, time.Now())
	if err := summary.WriteFile(c.SummaryPath); err != nil {
		return errors.E(op, err)
	}

	pr.Printf("--------\n")
	pr.Printf("DONE, result written to %s\n", c.SummaryPath)
	pr.Printf("--------\n")
	pr.Printf("Summary:\n%s", summary.String())
	return nil
}

func (c Command) processRecipe(ctx context.Context, spec manifest.RecipeSpec, platform string, summary *report.Summary) error {
	const op errors.Op = "publish.processRecipe"
	pr := printer.FromContextOrDie(ctx)

	pr.Printf("-------------------------------------------\n")
	pr.Printf("Processing %s\n", spec.Name)

	if !spec.BuildsOn(platform) {
		reason := fmt.Sprintf("not built on platform %s, only on %v", platform, spec.BuildOn)
		pr.OptPrintf(printer.NewOpt().WithRecipe(spec.Name), "%s\n", reason)
		summary.RecordSkipped(spec.Name, reason)
		return nil
	}

	env := spec.EnvOverrides()
	flags, err := spec.BuildFlagArgs()
	if err != nil {
		return errors.E(op, err)
	}

	repoDir, err := c.Checkout(ctx, spec.RecipeRepo, c.Manifest.Shared.RepoCacheDir, spec.Tag)
	if err != nil {
		return errors.E(op, errors.Recipe(spec.Name), err)
	}

	pr.OptPrintf(printer.NewOpt().WithRecipe(spec.Name), "rendering %s\n", spec.RecipeSubdir)
	rendered, err := c.Tool.Render(ctx, repoDir.String(), spec.RecipeSubdir, spec.Name, env)
	if err != nil {
		return errors.E(op, errors.Recipe(spec.Name), err)
	}
	pr.OptPrintf(printer.NewOpt().WithRecipe(spec.Name), "resolved to %s\n", rendered.Spec())

	records, err := c.Tool.Search(ctx, spec.Name)
	if err != nil {
		return errors.E(op, errors.Recipe(spec.Name), err)
	}
	info := report.PackageInfo{
		Name:        rendered.Name,
		Version:     rendered.Version,
		BuildString: rendered.BuildString,
	}
	if conda.HasExactBuild(records, rendered.Version, rendered.BuildString) {
		pr.OptPrintf(printer.NewOpt().WithRecipe(spec.Name),
			"found %s on %s, skipping build\n",
			rendered.Spec(), c.Manifest.Shared.DestinationChannel)
		summary.RecordFound(info)
		return nil
	}

	buildStart := time.Now()
	if err := c.Tool.Build(ctx, repoDir.String(), spec.RecipeSubdir, flags, env); err != nil {
		return errors.E(op, errors.Recipe(spec.Name), err)
	}
	info.BuildDuration = time.Since(buildStart).Round(time.Second).String()

	for _, artifact := range rendered.Artifacts {
		pr.OptPrintf(printer.NewOpt().WithRecipe(spec.Name), "uploading %s\n", artifact)
		if err := c.Tool.Upload(ctx, artifact); err != nil {
			return errors.E(op, errors.Recipe(spec.Name), err)
		}
	}
	summary.RecordBuilt(info)
	return nil
}

// RenderOne checks out one recipe's repo and renders it. Used by the render
// and check commands, which resolve a single recipe outside a full run.
func RenderOne(ctx context.Context, m *manifest.Manifest, spec manifest.RecipeSpec, labels []string, token string) (*conda.RenderedPackage, error) {
	const op errors.Op = "publish.RenderOne"

	repo := gitutil.NewRecipeRepo(spec.RecipeRepo, m.Shared.RepoCacheDir)
	repoDir, err := repo.Checkout(ctx, spec.Tag)
	if err != nil {
		return nil, errors.E(op, errors.Recipe(spec.Name), err)
	}

	tool := conda.New(m, labels, token)
	rendered, err := tool.Render(ctx, repoDir.String(), spec.RecipeSubdir, spec.Name, spec.EnvOverrides())
	if err != nil {
		return nil, errors.E(op, errors.Recipe(spec.Name), err)
	}
	return rendered, nil
}

// CombineLabels merges the --label flags with the label stripped from the
// destination channel, without duplicates, preserving flag order.
func CombineLabels(flagLabels []string, channelLabel string) []string {
	labels := make([]string, 0, len(flagLabels)+1)
	seen := make(map[string]bool)
	for _, l := range flagLabels {
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		labels = append(labels, l)
	}
	if channelLabel != "" && !seen[channelLabel] {
		labels = append(labels, channelLabel)
	}
	return labels
}
