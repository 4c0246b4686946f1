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

package report_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	. "github.com/condastackdev/condastack/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestOutputPath(t *testing.T) {
	start := time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)

	t.Run("default name in working directory", func(t *testing.T) {
		path, err := OutputPath("", start)
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(path))
		assert.Equal(t, "20250314-150926_build_out.yaml", filepath.Base(path))
	})

	t.Run("existing directory gets default name", func(t *testing.T) {
		dir := t.TempDir()
		path, err := OutputPath(dir, start)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "20250314-150926_build_out.yaml"), path)
	})

	t.Run("explicit file path", func(t *testing.T) {
		dir := t.TempDir()
		want := filepath.Join(dir, "run.yaml")
		path, err := OutputPath(want, start)
		require.NoError(t, err)
		assert.Equal(t, want, path)
	})
}

func TestSummaryRoundTrip(t *testing.T) {
	start := time.Now()
	s := New("1.2.3", map[string]string{"manifest": "specs.yaml"}, start)

	s.RecordFound(PackageInfo{Name: "pkg-a", Version: "1.0", BuildString: "0py0"})
	s.RecordBuilt(PackageInfo{Name: "pkg-b", Version: "2.0", BuildString: "1py0", BuildDuration: "42s"})
	s.RecordSkipped("pkg-c", "not built on platform win")
	s.RecordError("pkg-d", errors.New("render exploded"))
	s.Finish(start, start.Add(90*time.Second))

	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, s.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var loaded Summary
	require.NoError(t, yaml.Unmarshal(data, &loaded))
	assert.Equal(t, "1.2.3", loaded.Version)
	require.Len(t, loaded.Found, 1)
	assert.Equal(t, "pkg-a", loaded.Found[0].Name)
	require.Len(t, loaded.Built, 1)
	assert.Equal(t, "42s", loaded.Built[0].BuildDuration)
	require.Len(t, loaded.Skipped, 1)
	require.Len(t, loaded.Errors, 1)
	assert.Contains(t, loaded.Errors[0].Error, "render exploded")
	assert.Equal(t, "1m30s", loaded.Duration)
	assert.NotEmpty(t, loaded.LastUpdated)
}

func TestSummaryString(t *testing.T) {
	s := New("dev", nil, time.Now())
	s.RecordFound(PackageInfo{Name: "pkg-a", Version: "1.0", BuildString: "0"})
	out := s.String()
	assert.True(t, strings.Contains(out, "pkg-a"))
	assert.True(t, strings.Contains(out, "found:"))
}
