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

package errors_test

import (
	"fmt"
	"testing"

	"github.com/condastackdev/condastack/internal/errors"
	"github.com/condastackdev/condastack/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessage(t *testing.T) {
	testCases := map[string]struct {
		err      error
		expected string
	}{
		"op and kind": {
			err:      errors.E(errors.Op("manifest.Load"), errors.YAML),
			expected: "manifest.Load: yaml error",
		},
		"recipe and wrapped error": {
			err: errors.E(errors.Op("publish.Run"), errors.Recipe("mypkg"),
				fmt.Errorf("boom")),
			expected: "publish.Run: recipe mypkg: boom",
		},
		"repo and path": {
			err: errors.E(errors.Op("gitutil.Checkout"),
				errors.Repo("https://github.com/org/recipes.git"),
				types.UniquePath("/cache/recipes"), errors.Git),
			expected: "gitutil.Checkout: repo https://github.com/org/recipes.git: " +
				"path /cache/recipes: git error",
		},
		"chained errors on separate lines": {
			err: errors.E(errors.Op("publish.Run"), errors.Recipe("mypkg"),
				errors.E(errors.Op("conda.Render"), errors.Render, fmt.Errorf("boom"))),
			expected: "publish.Run: recipe mypkg:\n\tconda.Render: render error: boom",
		},
		"repeated fields stated once": {
			err: errors.E(errors.Op("publish.Run"), errors.Recipe("mypkg"),
				errors.E(errors.Op("conda.Build"), errors.Recipe("mypkg"), errors.Build)),
			expected: "publish.Run: recipe mypkg:\n\tconda.Build: build error",
		},
	}

	for tn, tc := range testCases {
		t.Run(tn, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.err.Error())
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := errors.E(errors.Op("publish.Run"), errors.Recipe("mypkg"),
		errors.E(errors.Op("conda.Build"), errors.Build, cause))
	assert.True(t, errors.Is(err, cause))

	var e *errors.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, errors.Op("publish.Run"), e.Op)
}

func TestErrorChainDoesNotMutateWrapped(t *testing.T) {
	inner := errors.E(errors.Op("conda.Build"), errors.Recipe("mypkg"), errors.Build)
	_ = errors.E(errors.Op("publish.Run"), errors.Recipe("mypkg"), inner)

	// E copies the wrapped *Error before suppressing repeated fields, so
	// the original keeps its recipe.
	var e *errors.Error
	require.True(t, errors.As(inner, &e))
	assert.Equal(t, errors.Recipe("mypkg"), e.Recipe)
}
