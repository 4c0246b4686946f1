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

// Package commands assembles the condastack command tree.
package commands

import (
	"context"

	"github.com/condastackdev/condastack/internal/cmdcheck"
	"github.com/condastackdev/condastack/internal/cmdlist"
	"github.com/condastackdev/condastack/internal/cmdpublish"
	"github.com/condastackdev/condastack/internal/cmdrender"
	"github.com/condastackdev/condastack/internal/cmdversion"
	"github.com/spf13/cobra"
)

// GetCondastackCommands returns the set of condastack commands to be
// registered on the root command.
func GetCondastackCommands(ctx context.Context) []*cobra.Command {
	return []*cobra.Command{
		cmdpublish.NewCommand(ctx),
		cmdlist.NewCommand(ctx),
		cmdrender.NewCommand(ctx),
		cmdcheck.NewCommand(ctx),
		cmdversion.NewCommand(ctx),
	}
}
