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
	"encoding/json"
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"
)

// PackageRecord is one existing build of a package on a channel, as reported
// by conda search --json.
type PackageRecord struct {
	Version string `json:"version"`
	Build   string `json:"build"`
	Channel string `json:"channel"`
}

// parseSearchResults extracts the records for the named package from conda
// search --json output. The output maps package names to record lists; a
// missing key means no builds exist.
func parseSearchResults(data []byte, name string) ([]PackageRecord, error) {
	var results map[string]json.RawMessage
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("parsing search results: %w", err)
	}
	raw, found := results[name]
	if !found {
		return nil, nil
	}
	var records []PackageRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("parsing search results for %q: %w", name, err)
	}
	return records, nil
}

// HasExactBuild reports whether the records contain the exact version and
// build string.
func HasExactBuild(records []PackageRecord, version, buildString string) bool {
	for _, r := range records {
		if r.Version == version && r.Build == buildString {
			return true
		}
	}
	return false
}

// SortByVersion orders the records newest-first. Versions that parse as
// semver are compared semantically; the rest sort lexically after them.
func SortByVersion(records []PackageRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		vi, errI := semver.NewVersion(records[i].Version)
		vj, errJ := semver.NewVersion(records[j].Version)
		switch {
		case errI == nil && errJ == nil:
			return vi.GreaterThan(vj)
		case errI == nil:
			return true
		case errJ == nil:
			return false
		default:
			return records[i].Version > records[j].Version
		}
	})
}
