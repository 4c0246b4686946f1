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

package manifest

import (
	"context"
	"fmt"
	"strings"

	"github.com/condastackdev/condastack/internal/errors"
	"github.com/condastackdev/condastack/internal/printer"
	toposort "github.com/philopon/go-toposort"
)

// Select returns the recipes to process. startFrom slices the manifest-order
// list from the named recipe, names filters it down to an explicit
// selection, and the result is ordered so that every selected recipe comes
// after its selected depends-on recipes. Manifest order is preserved among
// recipes with no dependency relation.
func (m *Manifest) Select(ctx context.Context, names []string, startFrom string) ([]RecipeSpec, error) {
	const op errors.Op = "manifest.Select"
	pr := printer.FromContextOrDie(ctx)

	specs := m.Recipes
	if startFrom != "" {
		idx := -1
		for i := range specs {
			if specs[i].Name == startFrom {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, errors.E(op, errors.InvalidParam, fmt.Errorf(
				"start-from recipe %q is not listed in %s", startFrom, m.Path))
		}
		specs = specs[idx:]
	}

	if len(names) > 0 {
		available := make(map[string]bool, len(specs))
		for i := range specs {
			available[specs[i].Name] = true
		}
		var invalid []string
		for _, name := range names {
			if !available[name] {
				invalid = append(invalid, name)
			}
		}
		if len(invalid) > 0 {
			return nil, errors.E(op, errors.InvalidParam, fmt.Errorf(
				"the following recipes are not listed in %s: %s",
				m.Path, strings.Join(invalid, ", ")))
		}

		selected := make(map[string]bool, len(names))
		for _, name := range names {
			selected[name] = true
		}
		var filtered []RecipeSpec
		for i := range specs {
			if selected[specs[i].Name] {
				filtered = append(filtered, specs[i])
			}
		}
		filteredNames := make([]string, len(filtered))
		for i := range filtered {
			filteredNames[i] = filtered[i].Name
		}
		if !equalStrings(filteredNames, names) {
			pr.OptPrintf(printer.NewOpt().Stderr(),
				"Selection was not given in manifest order, processing as: %s\n",
				strings.Join(filteredNames, ", "))
		}
		specs = filtered
	}

	return sortByDependencies(specs)
}

// sortByDependencies topologically orders the specs by their depends-on
// edges. Specs without edges keep their relative order. Dependencies outside
// the selection are ignored; they are an ordering hint, not a requirement
// that the dependency is rebuilt.
func sortByDependencies(specs []RecipeSpec) ([]RecipeSpec, error) {
	const op errors.Op = "manifest.sortByDependencies"

	hasEdges := false
	for i := range specs {
		if len(specs[i].DependsOn) > 0 {
			hasEdges = true
			break
		}
	}
	if !hasEdges {
		return specs, nil
	}

	byName := make(map[string]RecipeSpec, len(specs))
	graph := toposort.NewGraph(len(specs))
	for i := range specs {
		byName[specs[i].Name] = specs[i]
		graph.AddNode(specs[i].Name)
	}
	for i := range specs {
		for _, dep := range specs[i].DependsOn {
			if _, inSelection := byName[dep]; !inSelection {
				continue
			}
			graph.AddEdge(dep, specs[i].Name)
		}
	}

	order, ok := graph.Toposort()
	if !ok {
		return nil, errors.E(op, errors.InvalidParam,
			"depends-on entries form a cycle")
	}
	sorted := make([]RecipeSpec, 0, len(order))
	for _, name := range order {
		sorted = append(sorted, byName[name])
	}
	return sorted, nil
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
