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

// Package conda drives the external conda toolchain: conda render, conda
// search, conda build (or conda mambabuild), and anaconda upload. It builds
// the argument lists, execs the binaries and parses their output. It never
// inspects package contents itself.
package conda

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/condastackdev/condastack/internal/errors"
	"github.com/condastackdev/condastack/internal/manifest"
	"k8s.io/klog/v2"
)

// Tool invokes the conda toolchain for a single publish run. The zero value
// is not usable; construct it with New.
type Tool struct {
	// Backend is conda or mamba. Only build goes through the backend;
	// render and search always use conda.
	Backend string

	// SourceChannels are the channels dependencies are resolved from
	// during render and build.
	SourceChannels []string

	// VariantConfig is an optional variant config file passed with -m.
	VariantConfig string

	// UploadChannel is the bare destination channel (no label suffix).
	UploadChannel string

	// Labels are the anaconda labels applied to searches and uploads.
	Labels []string

	// Token is the anaconda API token, or empty for ambient credentials.
	Token string
}

// New returns a Tool configured from the manifest plus the run's labels and
// token.
func New(m *manifest.Manifest, labels []string, token string) *Tool {
	backend := m.Shared.Backend
	if backend == "" {
		backend = manifest.BackendConda
	}
	return &Tool{
		Backend:        backend,
		SourceChannels: m.Shared.SourceChannels,
		VariantConfig:  m.Shared.MasterCondaBuildConfig,
		UploadChannel:  m.UploadChannel,
		Labels:         labels,
		Token:          token,
	}
}

func (t *Tool) sourceChannelArgs() []string {
	var args []string
	for _, ch := range t.SourceChannels {
		args = append(args, "-c", ch)
	}
	return args
}

func (t *Tool) variantArgs() []string {
	if t.VariantConfig == "" {
		return nil
	}
	return []string{"-m", t.VariantConfig}
}

// renderArgs builds the conda render invocation. Render is not supported by
// mamba, so this always execs conda.
func (t *Tool) renderArgs(subdir, metaFile string) (string, []string) {
	args := []string{"render", subdir}
	args = append(args, t.sourceChannelArgs()...)
	args = append(args, t.variantArgs()...)
	args = append(args, "--file", metaFile, "--output")
	return manifest.BackendConda, args
}

// searchArgs builds the channel query. The destination channel is searched
// under every label in use, since anaconda refuses an upload when the same
// build exists under any label.
func (t *Tool) searchArgs(name string) (string, []string) {
	args := []string{
		"search", "--json", "--full-name", "--override-channels",
		"--channel", t.UploadChannel,
	}
	for _, label := range t.Labels {
		args = append(args, "--channel",
			fmt.Sprintf("%s/label/%s", t.UploadChannel, label))
	}
	args = append(args, name)
	return t.Backend, args
}

// buildArgs builds the package build invocation. The mamba backend uses the
// conda mambabuild subcommand provided by boa.
func (t *Tool) buildArgs(subdir string, flags []string) (string, []string) {
	var args []string
	if t.Backend == manifest.BackendMamba {
		args = []string{"mambabuild"}
	} else {
		args = []string{"build"}
	}
	args = append(args, flags...)
	args = append(args, t.sourceChannelArgs()...)
	args = append(args, t.variantArgs()...)
	args = append(args, subdir)
	return manifest.BackendConda, args
}

func (t *Tool) uploadArgs(artifact string) (string, []string) {
	var args []string
	if t.Token != "" {
		args = append(args, "-t", t.Token)
	}
	args = append(args, "upload", "-u", t.UploadChannel)
	for _, label := range t.Labels {
		args = append(args, "--label", label)
	}
	args = append(args, artifact)
	return "anaconda", args
}

// Platform returns the OS token (linux, osx or win) of the platform conda
// builds for on this host, read from conda info.
func (t *Tool) Platform(ctx context.Context) (string, error) {
	const op errors.Op = "conda.Platform"
	runner := &Runner{}
	rr, err := runner.Run(ctx, manifest.BackendConda, "info", "--json")
	if err != nil {
		return "", errors.E(op, err)
	}
	var info struct {
		Platform string `json:"platform"`
	}
	if err := json.Unmarshal([]byte(rr.Stdout), &info); err != nil {
		return "", errors.E(op, fmt.Errorf("parsing conda info output: %w", err))
	}
	if info.Platform == "" {
		return "", errors.E(op, fmt.Errorf("conda info reported no platform"))
	}
	osToken, _, _ := strings.Cut(info.Platform, "-")
	return osToken, nil
}

// Search queries the destination channel for existing builds of the named
// package. A failing search is treated as "no packages found": conda search
// exits non-zero when the package does not exist at all.
func (t *Tool) Search(ctx context.Context, name string) ([]PackageRecord, error) {
	const op errors.Op = "conda.Search"
	bin, args := t.searchArgs(name)
	runner := &Runner{}
	rr, err := runner.Run(ctx, bin, args...)
	if err != nil {
		klog.V(2).Infof("search for %s failed, treating as not found: %v", name, err)
		return nil, nil
	}
	records, err := parseSearchResults([]byte(rr.Stdout), name)
	if err != nil {
		return nil, errors.E(op, errors.Search, err)
	}
	return records, nil
}

// Build runs the package build in the repo directory with the per-recipe
// environment and flags. Build output is streamed to the user.
func (t *Tool) Build(ctx context.Context, repoDir, subdir string, flags, env []string) error {
	const op errors.Op = "conda.Build"
	bin, args := t.buildArgs(subdir, flags)
	runner := &Runner{Dir: repoDir, Env: env}
	if _, err := runner.RunVerbose(ctx, bin, args...); err != nil {
		return errors.E(op, errors.Build, err)
	}
	return nil
}

// Upload uploads a built artifact to the destination channel. A rendered
// path that does not exist after the build is retried in the sibling noarch
// directory before giving up.
func (t *Tool) Upload(ctx context.Context, artifact string) error {
	const op errors.Op = "conda.Upload"

	if _, err := os.Stat(artifact); os.IsNotExist(err) {
		noarch := filepath.Join(
			filepath.Dir(filepath.Dir(artifact)), "noarch", filepath.Base(artifact))
		if _, err := os.Stat(noarch); err != nil {
			return errors.E(op, errors.Upload,
				fmt.Errorf("can't find built package: %s", filepath.Base(artifact)))
		}
		artifact = noarch
	}

	bin, args := t.uploadArgs(artifact)
	runner := &Runner{Redact: []string{t.Token}}
	if _, err := runner.Run(ctx, bin, args...); err != nil {
		return errors.E(op, errors.Upload, err)
	}
	return nil
}
