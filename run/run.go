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

// Package run builds the condastack root command.
package run

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"

	"github.com/condastackdev/condastack/commands"
	"github.com/condastackdev/condastack/internal/printer"
	"github.com/condastackdev/condastack/internal/util/runner"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"k8s.io/klog/v2"
)

var version = "unknown"

const cliShort = "Build and publish a stack of conda package recipes"

const cliLong = `
condastack reads a YAML manifest describing a set of conda package recipes
(git repo, tag, subdirectory), clones or updates each recipe into a local
cache, renders it to resolve the exact package build a recipe would produce,
and checks the destination channel for that exact build. Recipes whose build
is absent are built with conda build (or conda mambabuild) and uploaded with
anaconda upload.
`

// GetMain returns the root command with the printer wired into the context.
func GetMain(ctx context.Context) (*cobra.Command, context.Context) {
	cmd := &cobra.Command{
		Use:          "condastack",
		Short:        cliShort,
		Long:         cliShort + "\n" + cliLong,
		Version:      version,
		SilenceUsage: true,
		// Errors are handled in main after return from cobra so the
		// message can be adjusted before printing.
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := cmd.Flags().GetBool("help")
			if err != nil {
				return err
			}
			if h {
				return cmd.Help()
			}
			return cmd.Usage()
		},
	}

	klog.InitFlags(nil)
	cmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	// wire the global printer
	pr := printer.New(cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctx = printer.WithContext(ctx, pr)

	cmd.InitDefaultHelpCmd()
	cmd.AddCommand(commands.GetCondastackCommands(ctx)...)

	// enable stack traces
	cmd.PersistentFlags().BoolVar(&runner.StackOnError, "stack-trace", false,
		"print a stack-trace on failure")

	if _, err := exec.LookPath("git"); err != nil {
		fmt.Fprintln(os.Stderr, "condastack requires that `git` is installed and on the PATH")
		os.Exit(1)
	}

	hideKlogFlags(cmd)
	return cmd, ctx
}

// hideKlogFlags hides the klog flags that are unlikely to be used. -v stays
// visible for debugging the git and conda invocations.
func hideKlogFlags(cmd *cobra.Command) {
	hidden := map[string]bool{
		"add_dir_header":    true,
		"alsologtostderr":   true,
		"log_backtrace_at":  true,
		"log_dir":           true,
		"log_file":          true,
		"log_file_max_size": true,
		"logtostderr":       true,
		"one_output":        true,
		"skip_headers":      true,
		"skip_log_headers":  true,
		"stderrthreshold":   true,
		"vmodule":           true,
	}
	cmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		if hidden[f.Name] {
			f.Hidden = true
		}
	})
}
