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
	"testing"

	"github.com/condastackdev/condastack/internal/manifest"
	"github.com/stretchr/testify/assert"
)

func newTestTool() *Tool {
	return &Tool{
		Backend:        manifest.BackendConda,
		SourceChannels: []string{"conda-forge", "defaults"},
		UploadChannel:  "myorg",
		Labels:         []string{"devel"},
	}
}

func TestRenderArgs(t *testing.T) {
	tool := newTestTool()
	tool.VariantConfig = "/specs/pins.yaml"

	bin, args := tool.renderArgs("recipe", "/tmp/meta.yaml")
	assert.Equal(t, "conda", bin)
	assert.Equal(t, []string{
		"render", "recipe",
		"-c", "conda-forge", "-c", "defaults",
		"-m", "/specs/pins.yaml",
		"--file", "/tmp/meta.yaml", "--output",
	}, args)
}

func TestRenderArgsUsesCondaForMambaBackend(t *testing.T) {
	tool := newTestTool()
	tool.Backend = manifest.BackendMamba

	bin, _ := tool.renderArgs("recipe", "/tmp/meta.yaml")
	assert.Equal(t, "conda", bin, "mamba has no render subcommand")
}

func TestSearchArgs(t *testing.T) {
	tool := newTestTool()

	bin, args := tool.searchArgs("pkg-a")
	assert.Equal(t, "conda", bin)
	assert.Equal(t, []string{
		"search", "--json", "--full-name", "--override-channels",
		"--channel", "myorg",
		"--channel", "myorg/label/devel",
		"pkg-a",
	}, args)
}

func TestBuildArgs(t *testing.T) {
	testCases := map[string]struct {
		backend      string
		flags        []string
		expectedBin  string
		expectedArgs []string
	}{
		"conda backend": {
			backend:     manifest.BackendConda,
			flags:       []string{"--no-test"},
			expectedBin: "conda",
			expectedArgs: []string{
				"build", "--no-test",
				"-c", "conda-forge", "-c", "defaults",
				"recipe",
			},
		},
		"mamba backend": {
			backend:     manifest.BackendMamba,
			expectedBin: "conda",
			expectedArgs: []string{
				"mambabuild",
				"-c", "conda-forge", "-c", "defaults",
				"recipe",
			},
		},
	}

	for tn, tc := range testCases {
		t.Run(tn, func(t *testing.T) {
			tool := newTestTool()
			tool.Backend = tc.backend

			bin, args := tool.buildArgs("recipe", tc.flags)
			assert.Equal(t, tc.expectedBin, bin)
			assert.Equal(t, tc.expectedArgs, args)
		})
	}
}

func TestUploadArgs(t *testing.T) {
	tool := newTestTool()
	tool.Token = "secret"

	bin, args := tool.uploadArgs("/bld/linux-64/pkg-a-1.0-0.tar.bz2")
	assert.Equal(t, "anaconda", bin)
	assert.Equal(t, []string{
		"-t", "secret",
		"upload", "-u", "myorg",
		"--label", "devel",
		"/bld/linux-64/pkg-a-1.0-0.tar.bz2",
	}, args)
}

func TestUploadArgsNoToken(t *testing.T) {
	tool := newTestTool()
	tool.Labels = nil

	_, args := tool.uploadArgs("/bld/noarch/pkg.conda")
	assert.Equal(t, []string{"upload", "-u", "myorg", "/bld/noarch/pkg.conda"}, args)
}

func TestNewDefaultsBackend(t *testing.T) {
	m := &manifest.Manifest{
		Shared: manifest.SharedConfig{
			SourceChannels:     []string{"conda-forge"},
			DestinationChannel: "myorg/label/devel",
		},
		UploadChannel: "myorg",
		ChannelLabel:  "devel",
	}
	tool := New(m, []string{"devel"}, "tok")
	assert.Equal(t, manifest.BackendConda, tool.Backend)
	assert.Equal(t, "myorg", tool.UploadChannel)
	assert.Equal(t, "tok", tool.Token)
}

func TestRunnerRedaction(t *testing.T) {
	r := &Runner{Redact: []string{"secret"}}
	assert.Equal(t, []string{"-t", "<redacted>", "upload"},
		r.redactArgs([]string{"-t", "secret", "upload"}))
	assert.Equal(t, "no match", r.redact("no match"))
}
