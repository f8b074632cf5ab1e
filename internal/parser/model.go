package parser

import "strings"

// Layer 2: the application model extracted from the syntax tree.

// ParameterType classifies a recipe parameter, inferred from its default
// value or from name heuristics.
type ParameterType string

const (
	TypeString  ParameterType = "string"
	TypeNumber  ParameterType = "number"
	TypeBoolean ParameterType = "boolean"
	TypePath    ParameterType = "path"
	TypeArray   ParameterType = "array"
	TypeUnknown ParameterType = "unknown"
)

// DependencyType is fully determined by whether a dependency carries
// arguments and whether it carries a condition.
type DependencyType string

const (
	DepSimple        DependencyType = "simple"
	DepParameterized DependencyType = "parameterized"
	DepConditional   DependencyType = "conditional"
	DepComplex       DependencyType = "complex"
)

// ClassifyDependency derives the dependency type from its shape.
func ClassifyDependency(hasArgs, hasCondition bool) DependencyType {
	switch {
	case hasArgs && hasCondition:
		return DepComplex
	case hasArgs:
		return DepParameterized
	case hasCondition:
		return DepConditional
	default:
		return DepSimple
	}
}

// ParameterInfo describes one recipe parameter.
type ParameterInfo struct {
	Name         string
	DefaultValue *string // evaluated (unquoted, escapes processed)
	RawDefault   *string // unevaluated source text
	IsVariadic   bool
	IsRequired   bool // no default and not variadic
	Description  string
	Type         ParameterType
	Position     int
}

// DependencyInfo describes one dependency reference in a recipe header.
type DependencyInfo struct {
	Name          string
	Arguments     []string
	IsConditional bool
	Condition     *string
	Type          DependencyType
	Position      int
}

// AttributeInfo describes one bracketed annotation on a recipe.
type AttributeInfo struct {
	Name      string
	Value     *string // first argument, when present
	Arguments []string
	IsBoolean bool // no value expected
	Position  int
}

// RecipeInfo is one extracted recipe. Name is non-empty except in fallback
// stubs, which are tagged by a parse-error marker in the name itself.
type RecipeInfo struct {
	Name         string
	LineNumber   int
	Body         string // de-indented
	Parameters   []ParameterInfo
	Dependencies []DependencyInfo
	Attributes   []AttributeInfo

	IsPrivate      bool
	Group          string
	ConfirmMessage string
	Doc            string
	Comments       []string
}

// HasAttribute reports whether the recipe carries an attribute by name.
func (r *RecipeInfo) HasAttribute(name string) bool {
	for _, a := range r.Attributes {
		if a.Name == name {
			return true
		}
	}
	return false
}

// booleanAttrs take no value; valuedAttrs require exactly one argument.
var booleanAttrs = map[string]bool{
	"private":              true,
	"no-cd":                true,
	"no-exit-message":      true,
	"no-quiet":             true,
	"positional-arguments": true,
	"windows":              true,
	"linux":                true,
	"macos":                true,
	"unix":                 true,
}

var valuedAttrs = map[string]bool{
	"group":             true,
	"confirm":           true,
	"doc":               true,
	"extension":         true,
	"working-directory": true,
}

var platformAttrs = []string{"windows", "linux", "macos", "unix"}

// ValidateAttributes applies the cross-attribute rules over one recipe's
// attribute set and returns human-readable findings. Unknown attributes are
// accepted as long as their own argument shape is self-consistent.
func ValidateAttributes(attrs []AttributeInfo) []string {
	var findings []string

	groups := 0
	platforms := 0
	hasPrivate := false
	hasConfirm := false

	for _, a := range attrs {
		switch {
		case booleanAttrs[a.Name]:
			if len(a.Arguments) != 0 {
				findings = append(findings, "attribute '"+a.Name+"' takes no arguments")
			}
		case valuedAttrs[a.Name]:
			if len(a.Arguments) != 1 {
				findings = append(findings, "attribute '"+a.Name+"' requires exactly one argument")
			}
		default:
			// Open extension point: unknown names pass when self-consistent.
			if a.IsBoolean && len(a.Arguments) != 0 {
				findings = append(findings, "attribute '"+a.Name+"' declared without a value but has arguments")
			}
		}

		switch a.Name {
		case "group":
			groups++
		case "private":
			hasPrivate = true
		case "confirm":
			hasConfirm = true
		}
		for _, p := range platformAttrs {
			if a.Name == p {
				platforms++
			}
		}
	}

	if groups > 1 {
		findings = append(findings, "multiple group attributes")
	}
	if hasPrivate && hasConfirm {
		findings = append(findings, "attributes 'private' and 'confirm' cannot be combined")
	}
	if platforms > 1 {
		findings = append(findings, "conflicting platform attributes")
	}

	return findings
}

// pathExtensions are the suffixes the default-value heuristic treats as
// filesystem paths.
var pathExtensions = []string{
	".txt", ".md", ".json", ".yaml", ".yml", ".toml",
	".sh", ".py", ".go", ".rs", ".js", ".ts", ".log", ".db",
}

// InferParameterType applies the documented precedence: boolean literal,
// numeric literal, path shape, then string. With no default, name heuristics
// decide; they are best-effort and intentionally imprecise.
func InferParameterType(name string, defaultValue *string, variadic bool) ParameterType {
	if variadic {
		return TypeArray
	}
	if defaultValue != nil {
		v := unquote(*defaultValue)
		if v == "true" || v == "false" {
			return TypeBoolean
		}
		if isNumericLiteral(v) {
			return TypeNumber
		}
		if looksLikePath(v) {
			return TypePath
		}
		return TypeString
	}

	lower := strings.ToLower(name)
	for _, hint := range []string{"file", "dir", "path", "output", "input"} {
		if strings.Contains(lower, hint) {
			return TypePath
		}
	}
	for _, hint := range []string{"count", "limit", "size", "port", "timeout", "iterations", "interval"} {
		if strings.Contains(lower, hint) {
			return TypeNumber
		}
	}
	for _, prefix := range []string{"enable", "disable", "verbose", "debug", "force"} {
		if strings.HasPrefix(lower, prefix) {
			return TypeBoolean
		}
	}
	return TypeUnknown
}

// isNumericLiteral matches an optional sign, digits, and at most one decimal
// point.
func isNumericLiteral(s string) bool {
	if s == "" {
		return false
	}
	i := 0
	if s[0] == '+' || s[0] == '-' {
		i++
	}
	digits := 0
	dots := 0
	for ; i < len(s); i++ {
		switch {
		case s[i] >= '0' && s[i] <= '9':
			digits++
		case s[i] == '.':
			dots++
			if dots > 1 {
				return false
			}
		default:
			return false
		}
	}
	return digits > 0
}

func looksLikePath(s string) bool {
	if strings.HasPrefix(s, "./") || strings.HasPrefix(s, "../") || strings.HasPrefix(s, "/") {
		return true
	}
	for _, ext := range pathExtensions {
		if strings.HasSuffix(s, ext) {
			return true
		}
	}
	return false
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
