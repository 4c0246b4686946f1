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

package manifest_test

import (
	"bytes"
	"io"
	"testing"

	. "github.com/condastackdev/condastack/internal/manifest"
	"github.com/condastackdev/condastack/internal/printer/fake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const selectManifest = `
shared-config:
  source-channels: [conda-forge]
  destination-channel: myorg
  repo-cache-dir: ./cache
recipe-specs:
  - {name: a, recipe-repo: r, tag: t, recipe-subdir: s}
  - {name: b, recipe-repo: r, tag: t, recipe-subdir: s}
  - {name: c, recipe-repo: r, tag: t, recipe-subdir: s}
  - {name: d, recipe-repo: r, tag: t, recipe-subdir: s}
`

const dependsManifest = `
shared-config:
  source-channels: [conda-forge]
  destination-channel: myorg
  repo-cache-dir: ./cache
recipe-specs:
  - {name: app, recipe-repo: r, tag: t, recipe-subdir: s, depends-on: [lib]}
  - {name: tool, recipe-repo: r, tag: t, recipe-subdir: s}
  - {name: lib, recipe-repo: r, tag: t, recipe-subdir: s}
`

func names(specs []RecipeSpec) []string {
	out := make([]string, len(specs))
	for i := range specs {
		out[i] = specs[i].Name
	}
	return out
}

func TestSelect(t *testing.T) {
	testCases := map[string]struct {
		selection []string
		startFrom string
		expected  []string
	}{
		"everything": {
			expected: []string{"a", "b", "c", "d"},
		},
		"start-from": {
			startFrom: "c",
			expected:  []string{"c", "d"},
		},
		"explicit selection": {
			selection: []string{"b", "d"},
			expected:  []string{"b", "d"},
		},
		"selection out of manifest order": {
			selection: []string{"d", "a"},
			expected:  []string{"a", "d"},
		},
		"start-from and selection": {
			selection: []string{"c", "d"},
			startFrom: "b",
			expected:  []string{"c", "d"},
		},
	}

	for tn, tc := range testCases {
		t.Run(tn, func(t *testing.T) {
			path := writeManifest(t, selectManifest)
			m, err := Load(path)
			require.NoError(t, err)

			specs, err := m.Select(fake.CtxWithDefaultPrinter(), tc.selection, tc.startFrom)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, names(specs))
		})
	}
}

func TestSelectErrors(t *testing.T) {
	testCases := map[string]struct {
		selection   []string
		startFrom   string
		expectedErr string
	}{
		"unknown recipe": {
			selection:   []string{"a", "ghost"},
			expectedErr: "ghost",
		},
		"unknown start-from": {
			startFrom:   "ghost",
			expectedErr: "ghost",
		},
		"selection before start-from": {
			selection:   []string{"a"},
			startFrom:   "c",
			expectedErr: "a",
		},
	}

	for tn, tc := range testCases {
		t.Run(tn, func(t *testing.T) {
			path := writeManifest(t, selectManifest)
			m, err := Load(path)
			require.NoError(t, err)

			_, err = m.Select(fake.CtxWithDefaultPrinter(), tc.selection, tc.startFrom)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expectedErr)
		})
	}
}

func TestSelectWarnsOnReorderedSelection(t *testing.T) {
	path := writeManifest(t, selectManifest)
	m, err := Load(path)
	require.NoError(t, err)

	errBuf := &bytes.Buffer{}
	ctx := fake.CtxWithPrinter(io.Discard, errBuf)
	specs, err := m.Select(ctx, []string{"c", "a"}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, names(specs))
	assert.Contains(t, errBuf.String(), "manifest order")
}

func TestSelectOrdersByDependencies(t *testing.T) {
	path := writeManifest(t, dependsManifest)
	m, err := Load(path)
	require.NoError(t, err)

	specs, err := m.Select(fake.CtxWithDefaultPrinter(), nil, "")
	require.NoError(t, err)

	got := names(specs)
	require.Len(t, got, 3)
	assert.Less(t, indexOf(got, "lib"), indexOf(got, "app"),
		"lib must be built before app")
}

func TestSelectIgnoresDependencyOutsideSelection(t *testing.T) {
	path := writeManifest(t, dependsManifest)
	m, err := Load(path)
	require.NoError(t, err)

	specs, err := m.Select(fake.CtxWithDefaultPrinter(), []string{"app"}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"app"}, names(specs))
}

func TestSelectDependencyCycle(t *testing.T) {
	path := writeManifest(t, `
shared-config:
  source-channels: [conda-forge]
  destination-channel: myorg
  repo-cache-dir: ./cache
recipe-specs:
  - {name: x, recipe-repo: r, tag: t, recipe-subdir: s, depends-on: [y]}
  - {name: y, recipe-repo: r, tag: t, recipe-subdir: s, depends-on: [x]}
`)
	m, err := Load(path)
	require.NoError(t, err)

	_, err = m.Select(fake.CtxWithDefaultPrinter(), nil, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func indexOf(s []string, v string) int {
	for i := range s {
		if s[i] == v {
			return i
		}
	}
	return -1
}
