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
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	goerrors "errors"

	"k8s.io/klog/v2"
)

const redacted = "<redacted>"

// Runner executes conda-ecosystem binaries (conda, mamba, anaconda) with
// captured output.
type Runner struct {
	// Dir is the working directory commands run in. Empty means the
	// current directory.
	Dir string

	// Env holds extra KEY=value entries appended to the inherited
	// environment.
	Env []string

	// Redact lists secrets that must never appear in logs or errors.
	Redact []string
}

// RunResult holds the captured output of a command.
type RunResult struct {
	Stdout string
	Stderr string
}

// Run executes the command and captures its output.
func (r *Runner) Run(ctx context.Context, bin string, args ...string) (RunResult, error) {
	return r.run(ctx, false, bin, args...)
}

// RunVerbose executes the command, streaming output to the process streams
// in addition to capturing it. Used for builds, which can run for a long
// time and whose output the user wants to watch.
func (r *Runner) RunVerbose(ctx context.Context, bin string, args ...string) (RunResult, error) {
	return r.run(ctx, true, bin, args...)
}

func (r *Runner) run(ctx context.Context, verbose bool, bin string, args ...string) (RunResult, error) {
	path, err := exec.LookPath(bin)
	if err != nil {
		return RunResult{}, fmt.Errorf("no %q program on path: %w", bin, err)
	}

	klog.V(2).Infof("running %s %s in %q", bin, strings.Join(r.redactArgs(args), " "), r.Dir)
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = r.Dir
	cmd.Env = append(os.Environ(), r.Env...)

	cmdStdout := &bytes.Buffer{}
	cmdStderr := &bytes.Buffer{}
	if verbose {
		cmd.Stdout = io.MultiWriter(cmdStdout, os.Stdout)
		cmd.Stderr = io.MultiWriter(cmdStderr, os.Stderr)
	} else {
		cmd.Stdout = cmdStdout
		cmd.Stderr = cmdStderr
	}

	if err := cmd.Run(); err != nil {
		execErr := &ExecError{
			Bin:    bin,
			Args:   r.redactArgs(args),
			Err:    err,
			StdOut: cmdStdout.String(),
			StdErr: r.redact(cmdStderr.String()),
		}
		var exitErr *exec.ExitError
		if goerrors.As(err, &exitErr) {
			execErr.ExitCode = exitErr.ExitCode()
		}
		return RunResult{}, execErr
	}
	return RunResult{
		Stdout: cmdStdout.String(),
		Stderr: cmdStderr.String(),
	}, nil
}

func (r *Runner) redactArgs(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = r.redact(a)
	}
	return out
}

func (r *Runner) redact(s string) string {
	for _, secret := range r.Redact {
		if secret == "" {
			continue
		}
		s = strings.ReplaceAll(s, secret, redacted)
	}
	return s
}

// ExecError is the error returned for a failed external command. Argv and
// stderr are token-redacted before being stored.
type ExecError struct {
	Bin      string
	Args     []string
	Err      error
	ExitCode int
	StdOut   string
	StdErr   string
}

func (e *ExecError) Error() string {
	b := new(strings.Builder)
	fmt.Fprintf(b, "%s %s: %s", e.Bin, strings.Join(e.Args, " "), e.Err.Error())
	if e.StdErr != "" {
		b.WriteString(": ")
		b.WriteString(strings.TrimSpace(e.StdErr))
	}
	return b.String()
}

func (e *ExecError) Unwrap() error {
	return e.Err
}
