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

// Package testutil provides fixtures for tests that need git repos and
// manifest files on disk.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/condastackdev/condastack/internal/gitutil"
	"github.com/otiai10/copy"
	"github.com/stretchr/testify/require"
)

// WriteFiles writes the given relative path -> content map under dir.
func WriteFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

// SetupRepo initializes a git repo in a fresh temp dir with the given files
// committed. If tag is non-empty the commit is tagged. Returns the repo path.
func SetupRepo(t *testing.T, files map[string]string, tag string) string {
	t.Helper()
	dir := t.TempDir()
	WriteFiles(t, dir, files)
	commitAll(t, dir, tag)
	return dir
}

// SetupRepoFromDir initializes a git repo in a fresh temp dir populated from
// the contents of srcDir, typically a testdata fixture.
func SetupRepoFromDir(t *testing.T, srcDir, tag string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, copy.Copy(srcDir, dir))
	commitAll(t, dir, tag)
	return dir
}

func commitAll(t *testing.T, dir, tag string) {
	t.Helper()
	ctx := context.Background()
	runner, err := gitutil.NewLocalGitRunner(dir)
	require.NoError(t, err)

	_, err = runner.Run(ctx, "init", "--initial-branch=main")
	require.NoError(t, err)
	_, err = runner.Run(ctx, "add", ".")
	require.NoError(t, err)
	_, err = runner.Run(ctx,
		"-c", "user.name=condastack",
		"-c", "user.email=test@condastack.dev",
		"commit", "-m", "initial commit")
	require.NoError(t, err)
	if tag != "" {
		_, err = runner.Run(ctx, "tag", tag)
		require.NoError(t, err)
	}
}

// WriteManifest writes a manifest file with the given content to a fresh
// temp dir and returns its path.
func WriteManifest(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "specs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
