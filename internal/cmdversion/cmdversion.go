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

// Package cmdversion contains the version command
package cmdversion

import (
	"context"

	"github.com/condastackdev/condastack/internal/printer"
	"github.com/spf13/cobra"
)

// NewCommand returns the version command.
func NewCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of condastack",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pr := printer.FromContextOrDie(ctx)
			pr.Printf("%s\n", cmd.Root().Version)
			return nil
		},
	}
}
