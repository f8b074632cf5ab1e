// Package deps validates the dependency graph of an extracted recipe set.
package deps

import (
	"fmt"
	"strings"

	"github.com/toolprint/justparse/internal/parser"
)

// ValidationError describes one structurally invalid dependency reference.
type ValidationError struct {
	Recipe     string
	Dependency string
	Message    string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("recipe %q, dependency %q: %s", e.Recipe, e.Dependency, e.Message)
}

// ValidationResult aggregates every finding over one recipe set. It is data
// for the caller to surface, never an abort.
type ValidationResult struct {
	CircularDependencies [][]string
	MissingDependencies  []string
	InvalidDependencies  []ValidationError
}

// OK reports whether the recipe set has no findings at all.
func (r ValidationResult) OK() bool {
	return len(r.CircularDependencies) == 0 &&
		len(r.MissingDependencies) == 0 &&
		len(r.InvalidDependencies) == 0
}

// ValidateAll checks cycles, references to undefined recipes, and malformed
// dependency shapes across the whole recipe set. The input is not mutated.
func ValidateAll(recipes []parser.RecipeInfo) ValidationResult {
	var result ValidationResult

	defined := make(map[string]int, len(recipes))
	for i, r := range recipes {
		defined[r.Name] = i
	}

	seenMissing := make(map[string]bool)
	for _, r := range recipes {
		for _, d := range r.Dependencies {
			if strings.TrimSpace(d.Name) == "" {
				result.InvalidDependencies = append(result.InvalidDependencies, ValidationError{
					Recipe:  r.Name,
					Message: "dependency has an empty name",
				})
				continue
			}
			for i, arg := range d.Arguments {
				if strings.TrimSpace(arg) == "" {
					result.InvalidDependencies = append(result.InvalidDependencies, ValidationError{
						Recipe:     r.Name,
						Dependency: d.Name,
						Message:    fmt.Sprintf("argument %d is empty", i+1),
					})
				}
			}
			if d.IsConditional && (d.Condition == nil || strings.TrimSpace(*d.Condition) == "") {
				result.InvalidDependencies = append(result.InvalidDependencies, ValidationError{
					Recipe:     r.Name,
					Dependency: d.Name,
					Message:    "conditional dependency has an empty condition",
				})
			}
			if _, ok := defined[d.Name]; !ok && !seenMissing[d.Name] {
				seenMissing[d.Name] = true
				result.MissingDependencies = append(result.MissingDependencies, d.Name)
			}
		}
	}

	result.CircularDependencies = findCycles(recipes, defined)
	return result
}

const (
	white = iota
	gray
	black
)

// findCycles runs a DFS over recipe -> dependency edges tracking the current
// path. A back-edge to a node on the path yields the cycle from that node
// forward. Every recipe is visited, so independent cycles are all reported.
func findCycles(recipes []parser.RecipeInfo, defined map[string]int) [][]string {
	color := make([]int, len(recipes))
	var path []int
	var cycles [][]string

	var dfs func(u int)
	dfs = func(u int) {
		color[u] = gray
		path = append(path, u)

		for _, d := range recipes[u].Dependencies {
			v, ok := defined[d.Name]
			if !ok {
				continue
			}
			switch color[v] {
			case white:
				dfs(v)
			case gray:
				// Back-edge: the cycle runs from v's position on the
				// current path through u.
				var cycle []string
				for i := len(path) - 1; i >= 0; i-- {
					cycle = append([]string{recipes[path[i]].Name}, cycle...)
					if path[i] == v {
						break
					}
				}
				cycles = append(cycles, cycle)
			}
		}

		path = path[:len(path)-1]
		color[u] = black
	}

	for i := range recipes {
		if color[i] == white {
			dfs(i)
		}
	}
	return cycles
}
