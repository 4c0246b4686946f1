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

package conda

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/condastackdev/condastack/internal/errors"
	"gopkg.in/yaml.v3"
)

// RenderedPackage is the result of conda render: the exact triple a build of
// the recipe would produce, plus the artifact paths it would write.
type RenderedPackage struct {
	// Name is the package name from the rendered metadata.
	Name string

	// Version is the package version from the rendered metadata.
	Version string

	// BuildString is the build string including the variant hash, taken
	// from the rendered artifact filename.
	BuildString string

	// Artifacts are the absolute paths conda build would write, one per
	// variant.
	Artifacts []string
}

// Spec returns the name-version-buildstring triple.
func (p *RenderedPackage) Spec() string {
	return fmt.Sprintf("%s-%s-%s", p.Name, p.Version, p.BuildString)
}

// Render evaluates the recipe's templated metadata (jinja templates and
// selectors) and returns the concrete package the recipe would build. name
// is the package name the manifest claims; a rendered name that differs is
// an error, since the channel query and upload would then target the wrong
// package.
func (t *Tool) Render(ctx context.Context, repoDir, subdir, name string, env []string) (*RenderedPackage, error) {
	const op errors.Op = "conda.Render"

	metaFile, err := os.CreateTemp("", "condastack-rendered-meta-*.yaml")
	if err != nil {
		return nil, errors.E(op, errors.IO, err)
	}
	metaPath := metaFile.Name()
	_ = metaFile.Close()
	defer os.Remove(metaPath)

	bin, args := t.renderArgs(subdir, metaPath)
	runner := &Runner{Dir: repoDir, Env: env}
	rr, err := runner.Run(ctx, bin, args...)
	if err != nil {
		return nil, errors.E(op, errors.Render, err)
	}

	artifacts, buildString, err := parseRenderOutput(rr.Stdout)
	if err != nil {
		return nil, errors.E(op, errors.Render, err)
	}

	metaData, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, errors.E(op, errors.IO, err)
	}
	var meta struct {
		Package struct {
			Name    string `yaml:"name"`
			Version string `yaml:"version"`
		} `yaml:"package"`
	}
	if err := yaml.Unmarshal(metaData, &meta); err != nil {
		return nil, errors.E(op, errors.YAML,
			fmt.Errorf("parsing rendered metadata: %w", err))
	}

	if meta.Package.Name != name {
		return nil, errors.E(op, errors.Render, fmt.Errorf(
			"recipe for package %q has unexpected name %q", name, meta.Package.Name))
	}

	return &RenderedPackage{
		Name:        meta.Package.Name,
		Version:     meta.Package.Version,
		BuildString: buildString,
		Artifacts:   artifacts,
	}, nil
}

// parseRenderOutput parses the --output lines of conda render: one artifact
// path per line. The build string comes from the last artifact, matching
// variant order.
func parseRenderOutput(out string) ([]string, string, error) {
	var artifacts []string
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(strings.TrimSuffix(scanner.Text(), ","))
		if line == "" {
			continue
		}
		artifacts = append(artifacts, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, "", fmt.Errorf("reading render output: %w", err)
	}
	if len(artifacts) == 0 {
		return nil, "", fmt.Errorf("conda render produced no output paths")
	}
	buildString, err := buildStringFromPath(artifacts[len(artifacts)-1])
	if err != nil {
		return nil, "", err
	}
	return artifacts, buildString, nil
}

// buildStringFromPath extracts the build string from an artifact path:
// the final dash-delimited segment of the filename with the package
// extension stripped.
func buildStringFromPath(path string) (string, error) {
	base := filepath.Base(path)
	switch {
	case strings.HasSuffix(base, ".tar.bz2"):
		base = strings.TrimSuffix(base, ".tar.bz2")
	case strings.HasSuffix(base, ".conda"):
		base = strings.TrimSuffix(base, ".conda")
	}
	idx := strings.LastIndex(base, "-")
	if idx < 0 || idx == len(base)-1 {
		return "", fmt.Errorf("unexpected artifact filename from conda render: %q", filepath.Base(path))
	}
	return base[idx+1:], nil
}
