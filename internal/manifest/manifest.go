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

// Package manifest reads the recipe specs YAML file that drives a publish
// run: a shared-config section followed by an ordered list of recipe specs.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/condastackdev/condastack/internal/errors"
	"github.com/google/shlex"
	"gopkg.in/yaml.v3"
)

// Backends supported for conda build. Render always goes through conda
// since mamba has no render subcommand.
const (
	BackendConda = "conda"
	BackendMamba = "mamba"
)

// Platform tokens accepted in the build-on list.
var KnownPlatforms = []string{"linux", "osx", "win"}

// SharedConfig is the shared-config section of the manifest.
type SharedConfig struct {
	// SourceChannels are passed as -c arguments to render and build so
	// recipe dependencies resolve the same way in both steps.
	SourceChannels []string `yaml:"source-channels"`

	// DestinationChannel is the channel packages are uploaded to. It may
	// carry a /label/<name> suffix.
	DestinationChannel string `yaml:"destination-channel"`

	// RepoCacheDir is where recipe repos are cloned. Relative paths are
	// resolved against the manifest's directory.
	RepoCacheDir string `yaml:"repo-cache-dir"`

	// MasterCondaBuildConfig is an optional variant config (pin file)
	// passed to both render and build with -m. Relative paths are resolved
	// against the manifest's directory.
	MasterCondaBuildConfig string `yaml:"master-conda-build-config,omitempty"`

	// Backend selects the build tool, conda (default) or mamba.
	Backend string `yaml:"backend,omitempty"`
}

// RecipeSpec describes a single recipe in the manifest.
type RecipeSpec struct {
	// Name is the conda package name the recipe produces.
	Name string `yaml:"name"`

	// RecipeRepo is the git URI of the repo containing the recipe.
	RecipeRepo string `yaml:"recipe-repo"`

	// Tag is the tag, branch or commit of the recipe repo to build from.
	Tag string `yaml:"tag"`

	// RecipeSubdir is the recipe directory within the repo.
	RecipeSubdir string `yaml:"recipe-subdir"`

	// Environment holds extra environment variables defined during render
	// and build. Values may be any YAML scalar and are coerced to strings.
	Environment map[string]interface{} `yaml:"environment,omitempty"`

	// CondaBuildFlags are extra arguments for conda build, in shell
	// quoting.
	CondaBuildFlags string `yaml:"conda-build-flags,omitempty"`

	// BuildOn restricts the platforms the recipe is built on. Empty means
	// all platforms.
	BuildOn []string `yaml:"build-on,omitempty"`

	// DependsOn names recipes in this manifest whose packages this
	// recipe's build environment installs. They are built first.
	DependsOn []string `yaml:"depends-on,omitempty"`
}

// EnvOverrides returns the per-recipe environment as KEY=value strings
// suitable for exec.Cmd.Env.
func (r *RecipeSpec) EnvOverrides() []string {
	var env []string
	for k, v := range r.Environment {
		env = append(env, fmt.Sprintf("%s=%v", k, v))
	}
	return env
}

// BuildFlagArgs splits the conda-build-flags string using shell quoting
// rules.
func (r *RecipeSpec) BuildFlagArgs() ([]string, error) {
	const op errors.Op = "manifest.BuildFlagArgs"
	if r.CondaBuildFlags == "" {
		return nil, nil
	}
	args, err := shlex.Split(r.CondaBuildFlags)
	if err != nil {
		return nil, errors.E(op, errors.Recipe(r.Name), errors.InvalidParam,
			fmt.Errorf("conda-build-flags %q: %w", r.CondaBuildFlags, err))
	}
	return args, nil
}

// BuildsOn reports whether the recipe should be built on the given platform
// token (linux, osx or win). An empty build-on list means all platforms.
func (r *RecipeSpec) BuildsOn(platform string) bool {
	if len(r.BuildOn) == 0 {
		return true
	}
	for _, p := range r.BuildOn {
		if p == platform {
			return true
		}
	}
	return false
}

// Manifest is a parsed recipe specs file.
type Manifest struct {
	Shared  SharedConfig `yaml:"shared-config"`
	Recipes []RecipeSpec `yaml:"recipe-specs"`

	// Path is the absolute path of the manifest file.
	Path string `yaml:"-"`

	// UploadChannel is DestinationChannel with any /label/<name> suffix
	// stripped.
	UploadChannel string `yaml:"-"`

	// ChannelLabel is the label stripped from DestinationChannel, or "".
	ChannelLabel string `yaml:"-"`
}

// Load reads and validates the manifest at the given path. Relative paths in
// shared-config are resolved against the manifest's directory and the repo
// cache directory is created if absent.
func Load(path string) (*Manifest, error) {
	const op errors.Op = "manifest.Load"

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.E(op, errors.IO, err)
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, errors.E(op, errors.IO, err)
	}

	m := &Manifest{}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, errors.E(op, errors.YAML,
			fmt.Errorf("parsing %s: %w", path, err))
	}
	m.Path = absPath

	if err := m.validate(); err != nil {
		return nil, errors.E(op, err)
	}

	manifestDir := filepath.Dir(absPath)
	if !filepath.IsAbs(m.Shared.RepoCacheDir) {
		m.Shared.RepoCacheDir = filepath.Join(manifestDir, m.Shared.RepoCacheDir)
	}
	if err := os.MkdirAll(m.Shared.RepoCacheDir, 0755); err != nil {
		return nil, errors.E(op, errors.IO,
			fmt.Errorf("creating repo cache dir: %w", err))
	}
	if m.Shared.MasterCondaBuildConfig != "" &&
		!filepath.IsAbs(m.Shared.MasterCondaBuildConfig) {
		m.Shared.MasterCondaBuildConfig = filepath.Join(
			manifestDir, m.Shared.MasterCondaBuildConfig)
	}

	m.UploadChannel, m.ChannelLabel = StripLabel(m.Shared.DestinationChannel)
	return m, nil
}

func (m *Manifest) validate() error {
	const op errors.Op = "manifest.validate"
	if len(m.Shared.SourceChannels) == 0 {
		return errors.E(op, errors.MissingParam,
			"shared-config is missing required key source-channels")
	}
	if m.Shared.DestinationChannel == "" {
		return errors.E(op, errors.MissingParam,
			"shared-config is missing required key destination-channel")
	}
	if m.Shared.RepoCacheDir == "" {
		return errors.E(op, errors.MissingParam,
			"shared-config is missing required key repo-cache-dir")
	}
	switch m.Shared.Backend {
	case "", BackendConda, BackendMamba:
	default:
		return errors.E(op, errors.InvalidParam, fmt.Errorf(
			"unknown backend %q, only %q and %q are supported",
			m.Shared.Backend, BackendConda, BackendMamba))
	}

	if len(m.Recipes) == 0 {
		return errors.E(op, errors.MissingParam, "recipe-specs is empty")
	}
	seen := make(map[string]bool, len(m.Recipes))
	for i := range m.Recipes {
		r := &m.Recipes[i]
		if err := r.validate(); err != nil {
			return errors.E(op, err)
		}
		if seen[r.Name] {
			return errors.E(op, errors.Recipe(r.Name), errors.InvalidParam,
				"recipe listed more than once")
		}
		seen[r.Name] = true
	}
	for i := range m.Recipes {
		r := &m.Recipes[i]
		for _, dep := range r.DependsOn {
			if !seen[dep] {
				return errors.E(op, errors.Recipe(r.Name), errors.InvalidParam,
					fmt.Errorf("depends-on names unknown recipe %q", dep))
			}
		}
	}
	return nil
}

func (r *RecipeSpec) validate() error {
	const op errors.Op = "manifest.RecipeSpec.validate"
	if r.Name == "" {
		return errors.E(op, errors.MissingParam, "recipe spec is missing name")
	}
	for key, val := range map[string]string{
		"recipe-repo":   r.RecipeRepo,
		"tag":           r.Tag,
		"recipe-subdir": r.RecipeSubdir,
	} {
		if val == "" {
			return errors.E(op, errors.Recipe(r.Name), errors.MissingParam,
				fmt.Errorf("recipe spec is missing %s", key))
		}
	}
	for _, p := range r.BuildOn {
		if !isKnownPlatform(p) {
			return errors.E(op, errors.Recipe(r.Name), errors.InvalidParam,
				fmt.Errorf("build-on entry %q is not one of linux, osx, win", p))
		}
	}
	return nil
}

func isKnownPlatform(p string) bool {
	for _, known := range KnownPlatforms {
		if p == known {
			return true
		}
	}
	return false
}

// Recipe returns the named recipe spec from the manifest.
func (m *Manifest) Recipe(name string) (RecipeSpec, error) {
	const op errors.Op = "manifest.Recipe"
	for i := range m.Recipes {
		if m.Recipes[i].Name == name {
			return m.Recipes[i], nil
		}
	}
	return RecipeSpec{}, errors.E(op, errors.InvalidParam,
		fmt.Errorf("recipe %q is not listed in %s", name, m.Path))
}

var labelRe = regexp.MustCompile(`/label/([a-zA-Z0-9-]+)$`)

// StripLabel splits a destination channel of the form chan/label/<name> into
// the bare channel and the label. Channels without a label suffix are
// returned unchanged with an empty label.
func StripLabel(channel string) (string, string) {
	res := labelRe.FindStringSubmatch(channel)
	if res == nil {
		return channel, ""
	}
	return channel[:len(channel)-len(res[0])], res[1]
}
