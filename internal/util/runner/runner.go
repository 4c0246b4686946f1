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

// Package runner handles errors escaping the command tree.
package runner

import (
	"context"
	"fmt"

	"github.com/condastackdev/condastack/internal/printer"
	goerrors "github.com/go-errors/errors"
)

// StackOnError if true, will print a stack trace on failure.
var StackOnError bool

// HandleError prints the error to the error stream of the context printer.
// It returns the error unchanged so callers can decide the exit code.
func HandleError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	pr := printer.FromContextOrDie(ctx)
	if StackOnError {
		var stackErr *goerrors.Error
		if !goerrors.As(err, &stackErr) {
			stackErr = goerrors.Wrap(err, 1)
		}
		fmt.Fprintf(pr.ErrStream(), "%s\n", stackErr.ErrorStack())
	}
	fmt.Fprintf(pr.ErrStream(), "Error: %v\n", err)
	return err
}
