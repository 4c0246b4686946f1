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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchOutput = `
{
  "pkg-a": [
    {"version": "1.0.0", "build": "0py0", "channel": "myorg"},
    {"version": "1.2.0", "build": "0py0", "channel": "myorg/label/devel"},
    {"version": "1.0.0", "build": "1py0", "channel": "myorg"}
  ]
}
`

func TestParseSearchResults(t *testing.T) {
	records, err := parseSearchResults([]byte(searchOutput), "pkg-a")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "1.0.0", records[0].Version)
	assert.Equal(t, "0py0", records[0].Build)
}

func TestParseSearchResultsPackageAbsent(t *testing.T) {
	records, err := parseSearchResults([]byte(searchOutput), "pkg-b")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestParseSearchResultsMalformed(t *testing.T) {
	_, err := parseSearchResults([]byte("not json"), "pkg-a")
	require.Error(t, err)
}

func TestHasExactBuild(t *testing.T) {
	records, err := parseSearchResults([]byte(searchOutput), "pkg-a")
	require.NoError(t, err)

	assert.True(t, HasExactBuild(records, "1.0.0", "1py0"))
	assert.False(t, HasExactBuild(records, "1.0.0", "2py0"))
	assert.False(t, HasExactBuild(records, "2.0.0", "0py0"))
}

func TestSortByVersion(t *testing.T) {
	records := []PackageRecord{
		{Version: "1.2.0"},
		{Version: "not-semver"},
		{Version: "1.10.0"},
		{Version: "1.9.1"},
	}
	SortByVersion(records)
	assert.Equal(t, "1.10.0", records[0].Version,
		"versions must sort numerically, not lexically")
	assert.Equal(t, "1.9.1", records[1].Version)
	assert.Equal(t, "1.2.0", records[2].Version)
	assert.Equal(t, "not-semver", records[3].Version)
}
