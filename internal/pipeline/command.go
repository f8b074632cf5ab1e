package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/toolprint/justparse/internal/parser"
)

// commandTier shells out to the external `just` binary and adapts its JSON
// dump into recipe records. A hung tool is cut off by the timeout so control
// always falls through to the next tier.
type commandTier struct {
	bin           string
	timeout       time.Duration
	typeInference bool
}

func (commandTier) name() string { return tierCommand }

func (ct commandTier) parse(path string, content []byte) ([]parser.RecipeInfo, error) {
	if path == "" {
		tmp, err := os.CreateTemp("", "justparse-*.just")
		if err != nil {
			return nil, fmt.Errorf("staging temp justfile: %w", err)
		}
		defer os.Remove(tmp.Name())
		if _, err := tmp.Write(content); err != nil {
			tmp.Close()
			return nil, fmt.Errorf("staging temp justfile: %w", err)
		}
		tmp.Close()
		path = tmp.Name()
	}

	ctx, cancel := context.WithTimeout(context.Background(), ct.timeout)
	defer cancel()

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	cmd := exec.CommandContext(ctx, ct.bin, "--justfile", abs, "--dump", "--dump-format", "json")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("running %s: %w", ct.bin, err)
	}
	return ct.adaptDump(out)
}

// Loose mirror of just's JSON dump. Anything that does not fit is a tier
// failure, not a crash.
type dumpFile struct {
	Recipes map[string]dumpRecipe `json:"recipes"`
}

type dumpRecipe struct {
	Name         string           `json:"name"`
	Doc          string           `json:"doc"`
	Private      bool             `json:"private"`
	Parameters   []dumpParameter  `json:"parameters"`
	Dependencies []dumpDependency `json:"dependencies"`
	Attributes   []any            `json:"attributes"`
	Body         [][]any          `json:"body"`
}

type dumpParameter struct {
	Name    string `json:"name"`
	Default any    `json:"default"`
	Kind    string `json:"kind"`
}

type dumpDependency struct {
	Recipe    string `json:"recipe"`
	Arguments []any  `json:"arguments"`
}

func (ct commandTier) adaptDump(data []byte) ([]parser.RecipeInfo, error) {
	var dump dumpFile
	if err := json.Unmarshal(data, &dump); err != nil {
		return nil, fmt.Errorf("decoding %s dump: %w", ct.bin, err)
	}
	if dump.Recipes == nil {
		return nil, fmt.Errorf("decoding %s dump: no recipes object", ct.bin)
	}

	// The dump is keyed by name; sort for a deterministic order since the
	// original source order is not recoverable from it.
	names := make([]string, 0, len(dump.Recipes))
	for name := range dump.Recipes {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []parser.RecipeInfo
	for _, name := range names {
		dr := dump.Recipes[name]
		r := parser.RecipeInfo{
			Name:      name,
			Doc:       dr.Doc,
			IsPrivate: dr.Private || strings.HasPrefix(name, "_"),
		}
		if dr.Doc != "" {
			r.Comments = []string{dr.Doc}
		}

		for pos, dp := range dr.Parameters {
			p := parser.ParameterInfo{
				Name:       dp.Name,
				Position:   pos,
				IsVariadic: dp.Kind == "plus" || dp.Kind == "star",
			}
			if s, ok := dp.Default.(string); ok {
				raw := s
				p.RawDefault = &raw
				v := s
				p.DefaultValue = &v
			}
			p.IsRequired = p.RawDefault == nil && !p.IsVariadic
			if ct.typeInference {
				p.Type = parser.InferParameterType(p.Name, p.RawDefault, p.IsVariadic)
			} else {
				p.Type = parser.TypeUnknown
			}
			r.Parameters = append(r.Parameters, p)
		}

		for pos, dd := range dr.Dependencies {
			d := parser.DependencyInfo{Name: dd.Recipe, Position: pos}
			for _, a := range dd.Arguments {
				if s, ok := a.(string); ok {
					d.Arguments = append(d.Arguments, s)
				}
			}
			d.Type = parser.ClassifyDependency(len(d.Arguments) > 0, false)
			r.Dependencies = append(r.Dependencies, d)
		}

		for pos, da := range dr.Attributes {
			switch v := da.(type) {
			case string:
				r.Attributes = append(r.Attributes, parser.AttributeInfo{
					Name: v, IsBoolean: true, Position: pos,
				})
			case map[string]any:
				for k, raw := range v {
					attr := parser.AttributeInfo{Name: k, Position: pos}
					if s, ok := raw.(string); ok {
						attr.Arguments = []string{s}
						attr.Value = &attr.Arguments[0]
					}
					r.Attributes = append(r.Attributes, attr)
				}
			}
		}
		for _, a := range r.Attributes {
			switch a.Name {
			case "private":
				r.IsPrivate = true
			case "group":
				if a.Value != nil {
					r.Group = *a.Value
				}
			case "confirm":
				if a.Value != nil {
					r.ConfirmMessage = *a.Value
				}
			}
		}

		var bodyLines []string
		for _, fragments := range dr.Body {
			var line strings.Builder
			for _, f := range fragments {
				if s, ok := f.(string); ok {
					line.WriteString(s)
				}
			}
			bodyLines = append(bodyLines, line.String())
		}
		r.Body = strings.Join(bodyLines, "\n")

		out = append(out, r)
	}
	return out, nil
}
