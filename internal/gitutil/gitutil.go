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

// Package gitutil manages the local cache of recipe repos. Each recipe repo
// is cloned once under the configured cache directory and updated on
// subsequent runs.
package gitutil

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"

	"github.com/condastackdev/condastack/internal/errors"
	"github.com/condastackdev/condastack/internal/printer"
	"github.com/condastackdev/condastack/internal/types"
	"k8s.io/klog/v2"
)

// NewLocalGitRunner returns a new GitLocalRunner for the given directory.
func NewLocalGitRunner(dir string) (*GitLocalRunner, error) {
	const op errors.Op = "gitutil.NewLocalGitRunner"
	p, err := exec.LookPath("git")
	if err != nil {
		return nil, errors.E(op, errors.Git,
			fmt.Errorf("no 'git' program on path: %w", err))
	}

	return &GitLocalRunner{
		gitPath: p,
		Dir:     dir,
	}, nil
}

// GitLocalRunner runs git commands in a local git repo.
type GitLocalRunner struct {
	// Path to the git executable.
	gitPath string

	// Dir is the directory the commands are run in.
	Dir string
}

type RunResult struct {
	Stdout string
	Stderr string
}

// Run runs a git command.
// Omit the 'git' part of the command.
// The first return value contains the output to Stdout and Stderr when
// running the command.
func (g *GitLocalRunner) Run(ctx context.Context, args ...string) (RunResult, error) {
	return g.run(ctx, false, args...)
}

// RunVerbose runs a git command, streaming its output to stdout/stderr in
// addition to capturing it.
func (g *GitLocalRunner) RunVerbose(ctx context.Context, args ...string) (RunResult, error) {
	return g.run(ctx, true, args...)
}

func (g *GitLocalRunner) run(ctx context.Context, verbose bool, args ...string) (RunResult, error) {
	const op errors.Op = "gitutil.run"

	klog.V(2).Infof("running git %s in %s", strings.Join(args, " "), g.Dir)
	cmd := exec.CommandContext(ctx, g.gitPath, args...)
	cmd.Dir = g.Dir
	// The pager would block non-interactive runs of `git log`.
	cmd.Env = append(os.Environ(), "GIT_PAGER=")

	cmdStdout := &bytes.Buffer{}
	cmdStderr := &bytes.Buffer{}
	if verbose {
		cmd.Stdout = io.MultiWriter(cmdStdout, os.Stdout)
		cmd.Stderr = io.MultiWriter(cmdStderr, os.Stderr)
	} else {
		cmd.Stdout = cmdStdout
		cmd.Stderr = cmdStderr
	}

	err := cmd.Run()
	if err != nil {
		gitErr := &GitExecError{
			Args:   args,
			Err:    err,
			StdOut: cmdStdout.String(),
			StdErr: cmdStderr.String(),
		}
		gitErr.Type = determineErrorType(gitErr.StdErr)
		return RunResult{}, errors.E(op, errors.Git, gitErr)
	}
	return RunResult{
		Stdout: cmdStdout.String(),
		Stderr: cmdStderr.String(),
	}, nil
}

// NewRecipeRepo returns a RecipeRepo for the given repo URI, rooted in the
// given cache directory.
func NewRecipeRepo(uri, cacheDir string) *RecipeRepo {
	return &RecipeRepo{
		URI:      uri,
		CacheDir: cacheDir,
	}
}

// RecipeRepo is a clone of a recipe repo in the local cache directory.
type RecipeRepo struct {
	// URI is the git URI of the recipe repo.
	URI string

	// CacheDir is the directory the repo is cloned under.
	CacheDir string
}

// RepoName returns the directory name of the clone in the cache: the last
// path segment of the URI with any .git suffix removed.
func (r *RecipeRepo) RepoName() string {
	base := path.Base(strings.TrimSuffix(r.URI, "/"))
	return strings.TrimSuffix(base, ".git")
}

// RemoteName returns the name used for the git remote: the second-to-last
// path segment of the URI, e.g. github.com/org/repo.git -> org. Naming the
// remote after the org lets two forks of the same recipe repo share a clone.
func (r *RecipeRepo) RemoteName() string {
	trimmed := strings.TrimSuffix(r.URI, "/")
	segments := strings.Split(trimmed, "/")
	if len(segments) < 2 {
		return "origin"
	}
	name := segments[len(segments)-2]
	// scp-like syntax: git@github.com:org/repo.git
	if i := strings.LastIndex(name, ":"); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		return "origin"
	}
	return name
}

// RepoDir returns the absolute path of the clone in the cache directory.
func (r *RecipeRepo) RepoDir() types.UniquePath {
	return types.UniquePath(filepath.Join(r.CacheDir, r.RepoName()))
}

// Checkout ensures the repo is cloned in the cache directory, fetches the
// remote, checks out the given ref and updates submodules. It returns the
// path to the checked-out repo.
func (r *RecipeRepo) Checkout(ctx context.Context, ref string) (types.UniquePath, error) {
	const op errors.Op = "gitutil.Checkout"
	pr := printer.FromContextOrDie(ctx)

	repoDir := r.RepoDir()
	remote := r.RemoteName()

	if _, err := os.Stat(repoDir.String()); os.IsNotExist(err) {
		cloneRunner, err := NewLocalGitRunner(r.CacheDir)
		if err != nil {
			return "", errors.E(op, errors.Repo(r.URI), err)
		}
		if _, err := cloneRunner.Run(ctx, "clone", "-o", remote, r.URI, r.RepoName()); err != nil {
			return "", errors.E(op, errors.Repo(r.URI), err)
		}
	}

	runner, err := NewLocalGitRunner(repoDir.String())
	if err != nil {
		return "", errors.E(op, errors.Repo(r.URI), err)
	}

	// The repo may have been cloned for a different fork of the same
	// recipe repo. Reuse a matching remote or add ours.
	remotes, err := listRemotes(ctx, runner)
	if err != nil {
		return "", errors.E(op, errors.Repo(r.URI), err)
	}
	if name, found := remotes[r.URI]; found {
		remote = name
	} else if !hasRemoteNamed(remotes, remote) {
		if _, err := runner.Run(ctx, "remote", "add", remote, r.URI); err != nil {
			return "", errors.E(op, errors.Repo(r.URI), err)
		}
	}

	if _, err := runner.Run(ctx, "fetch", remote); err != nil {
		return "", errors.E(op, errors.Repo(r.URI), err)
	}
	if _, err := runner.Run(ctx, "checkout", ref); err != nil {
		return "", errors.E(op, errors.Repo(r.URI), err)
	}
	// Fast-forward in case ref is a branch that moved since the last run.
	if _, err := runner.Run(ctx, "pull", "--ff-only", remote, ref); err != nil {
		return "", errors.E(op, errors.Repo(r.URI), err)
	}
	if _, err := runner.Run(ctx, "submodule", "update", "--init", "--recursive"); err != nil {
		return "", errors.E(op, errors.Repo(r.URI), err)
	}

	head, err := runner.Run(ctx, "log", "-n1", "--oneline")
	if err != nil {
		return "", errors.E(op, errors.Repo(r.URI), err)
	}
	pr.Printf("Checked out %s of %s at %s", ref, r.RepoName(), head.Stdout)

	return repoDir, nil
}

// listRemotes parses `git remote -v` output into a map from remote URI to
// remote name.
func listRemotes(ctx context.Context, runner *GitLocalRunner) (map[string]string, error) {
	const op errors.Op = "gitutil.listRemotes"
	rr, err := runner.Run(ctx, "remote", "-v")
	if err != nil {
		return nil, errors.E(op, err)
	}
	return parseRemotes(rr.Stdout)
}

func parseRemotes(out string) (map[string]string, error) {
	const op errors.Op = "gitutil.parseRemotes"
	remotes := make(map[string]string)
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		txt := strings.TrimSpace(scanner.Text())
		if txt == "" {
			continue
		}
		fields := strings.Fields(txt)
		if len(fields) < 2 {
			return nil, errors.E(op, errors.Git,
				fmt.Errorf("unexpected output from `git remote -v`: %q", txt))
		}
		remotes[fields[1]] = fields[0]
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.E(op, errors.Git,
			fmt.Errorf("error parsing response from git: %w", err))
	}
	return remotes, nil
}

func hasRemoteNamed(remotes map[string]string, name string) bool {
	for _, n := range remotes {
		if n == name {
			return true
		}
	}
	return false
}
