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

package gitutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRemotes(t *testing.T) {
	testCases := map[string]struct {
		output   string
		expected map[string]string
		errMsg   string
	}{
		"no remotes": {
			output:   "",
			expected: map[string]string{},
		},
		"fetch and push lines collapse to one entry": {
			output: "origin\thttps://github.com/org/repo.git (fetch)\n" +
				"origin\thttps://github.com/org/repo.git (push)\n",
			expected: map[string]string{
				"https://github.com/org/repo.git": "origin",
			},
		},
		"multiple remotes": {
			output: "org\thttps://github.com/org/repo.git (fetch)\n" +
				"org\thttps://github.com/org/repo.git (push)\n" +
				"fork\thttps://github.com/fork/repo.git (fetch)\n" +
				"fork\thttps://github.com/fork/repo.git (push)\n",
			expected: map[string]string{
				"https://github.com/org/repo.git":  "org",
				"https://github.com/fork/repo.git": "fork",
			},
		},
		"malformed line": {
			output: "origin\n",
			errMsg: "unexpected output",
		},
	}

	for tn, tc := range testCases {
		t.Run(tn, func(t *testing.T) {
			remotes, err := parseRemotes(tc.output)
			if tc.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, remotes)
		})
	}
}

func TestDetermineErrorType(t *testing.T) {
	testCases := map[string]struct {
		stdErr   string
		expected GitExecErrorType
	}{
		"unknown revision": {
			stdErr:   "fatal: ambiguous argument 'v9.9.9': unknown revision or path not in the working tree.",
			expected: UnknownReference,
		},
		"unknown pathspec": {
			stdErr:   "error: pathspec 'v9.9.9' did not match any file(s) known to git",
			expected: UnknownReference,
		},
		"auth required": {
			stdErr:   "fatal: could not read Username for 'https://github.com': terminal prompts disabled",
			expected: HTTPSAuthRequired,
		},
		"unresolvable host": {
			stdErr:   "fatal: unable to access 'https://example.invalid/repo.git/': Could not resolve host: example.invalid",
			expected: RepositoryUnavailable,
		},
		"repo not found": {
			stdErr:   "fatal: repository 'https://github.com/org/nope.git/' not found",
			expected: RepositoryNotFound,
		},
		"anything else": {
			stdErr:   "error: your local changes would be overwritten",
			expected: Unknown,
		},
	}

	for tn, tc := range testCases {
		t.Run(tn, func(t *testing.T) {
			assert.Equal(t, tc.expected, determineErrorType(tc.stdErr))
		})
	}
}
