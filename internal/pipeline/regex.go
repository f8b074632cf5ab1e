package pipeline

import (
	"errors"
	"regexp"
	"strings"

	"github.com/toolprint/justparse/internal/parser"
)

// regexTier is the legacy line-oriented extractor. It has no syntax tree and
// recovers the same record shape with best-effort text patterns.
type regexTier struct {
	typeInference bool
}

func (regexTier) name() string { return tierRegex }

var (
	legacyAttrLine  = regexp.MustCompile(`^\[(.+)\]\s*$`)
	legacyHeader    = regexp.MustCompile(`^(@?[A-Za-z_][A-Za-z0-9_-]*)((?:\s+[^\s:][^:]*)?):(.*)$`)
	legacyDepToken  = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_-]*)(?:\((.*)\))?$`)
	legacyAttrToken = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_-]*)(?:\((.*)\))?\s*$`)
)

var errNoRecipesRecognized = errors.New("no recipes recognized in input")

func (rt regexTier) parse(_ string, content []byte) ([]parser.RecipeInfo, error) {
	lines := strings.Split(string(content), "\n")

	var recipes []parser.RecipeInfo
	var comments []string
	var attrs []parser.AttributeInfo
	sawContent := false

	i := 0
	for i < len(lines) {
		line := strings.TrimRight(lines[i], " \t\r")
		trimmed := strings.TrimSpace(line)

		if trimmed == "" {
			comments = nil
			i++
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			comments = append(comments, strings.TrimSpace(strings.TrimPrefix(trimmed, "#")))
			i++
			continue
		}
		// Assignments, settings and aliases carry no recipe data.
		if strings.Contains(trimmed, ":=") || strings.HasPrefix(trimmed, "set ") {
			comments = nil
			attrs = nil
			i++
			continue
		}
		if m := legacyAttrLine.FindStringSubmatch(trimmed); m != nil && !strings.HasPrefix(line, " ") && !strings.HasPrefix(line, "\t") {
			for pos, piece := range strings.Split(m[1], ",") {
				piece = strings.TrimSpace(piece)
				am := legacyAttrToken.FindStringSubmatch(piece)
				if am == nil {
					continue
				}
				attr := parser.AttributeInfo{Name: am[1], Position: pos}
				if am[2] != "" {
					for _, arg := range strings.Split(am[2], ",") {
						attr.Arguments = append(attr.Arguments, unquoteLoose(strings.TrimSpace(arg)))
					}
				}
				attr.IsBoolean = len(attr.Arguments) == 0
				if len(attr.Arguments) > 0 {
					attr.Value = &attr.Arguments[0]
				}
				attrs = append(attrs, attr)
			}
			i++
			continue
		}

		m := legacyHeader.FindStringSubmatch(line)
		if m == nil || strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") {
			sawContent = true
			comments = nil
			attrs = nil
			i++
			continue
		}

		r := parser.RecipeInfo{
			Name:       strings.TrimPrefix(m[1], "@"),
			LineNumber: i + 1,
			Attributes: attrs,
			Comments:   comments,
		}
		if len(comments) > 0 {
			r.Doc = comments[len(comments)-1]
		}
		r.Parameters = rt.legacyParameters(m[2])
		r.Dependencies = legacyDependencies(m[3])

		r.IsPrivate = strings.HasPrefix(r.Name, "_") || r.HasAttribute("private")
		for _, a := range r.Attributes {
			if a.Name == "group" && len(a.Arguments) > 0 {
				r.Group = a.Arguments[0]
			}
			if a.Name == "confirm" && len(a.Arguments) > 0 {
				r.ConfirmMessage = a.Arguments[0]
			}
		}

		attrs = nil
		comments = nil
		i++

		// Indented body lines.
		var body []string
		for i < len(lines) {
			bl := strings.TrimRight(lines[i], " \t\r")
			if strings.TrimSpace(bl) == "" {
				if len(body) > 0 {
					body = append(body, bl)
				}
				i++
				continue
			}
			if !strings.HasPrefix(bl, " ") && !strings.HasPrefix(bl, "\t") {
				break
			}
			body = append(body, bl)
			i++
		}
		for len(body) > 0 && strings.TrimSpace(body[len(body)-1]) == "" {
			body = body[:len(body)-1]
		}
		r.Body = parser.Dedent(body)

		recipes = append(recipes, r)
	}

	if len(recipes) == 0 && sawContent {
		return nil, errNoRecipesRecognized
	}
	return recipes, nil
}

func (rt regexTier) legacyParameters(s string) []parser.ParameterInfo {
	var out []parser.ParameterInfo
	for pos, tok := range quotedFields(s) {
		p := parser.ParameterInfo{Position: pos}
		if strings.HasPrefix(tok, "+") || strings.HasPrefix(tok, "*") {
			p.IsVariadic = true
			tok = tok[1:]
		}
		tok = strings.TrimPrefix(tok, "$")
		if eq := strings.IndexByte(tok, '='); eq >= 0 {
			raw := tok[eq+1:]
			p.Name = tok[:eq]
			p.RawDefault = &raw
			v := unquoteLoose(raw)
			p.DefaultValue = &v
		} else {
			p.Name = tok
		}
		p.IsRequired = p.RawDefault == nil && !p.IsVariadic
		if rt.typeInference {
			p.Type = parser.InferParameterType(p.Name, p.RawDefault, p.IsVariadic)
		} else {
			p.Type = parser.TypeUnknown
		}
		out = append(out, p)
	}
	return out
}

func legacyDependencies(s string) []parser.DependencyInfo {
	var out []parser.DependencyInfo
	tokens := quotedFields(s)
	i := 0
	for i < len(tokens) {
		tok := tokens[i]
		if tok == "&&" {
			i++
			continue
		}
		if tok == "if" && len(out) > 0 {
			cond := strings.Join(tokens[i+1:], " ")
			if cond != "" {
				last := &out[len(out)-1]
				last.Condition = &cond
				last.IsConditional = true
				last.Type = parser.ClassifyDependency(len(last.Arguments) > 0, true)
			}
			break
		}
		m := legacyDepToken.FindStringSubmatch(tok)
		if m == nil {
			i++
			continue
		}
		d := parser.DependencyInfo{Name: m[1], Position: len(out)}
		if m[2] != "" {
			for _, arg := range strings.Split(m[2], ",") {
				d.Arguments = append(d.Arguments, unquoteLoose(strings.TrimSpace(arg)))
			}
		}
		d.Type = parser.ClassifyDependency(len(d.Arguments) > 0, false)
		out = append(out, d)
		i++
	}
	return out
}

// quotedFields splits on whitespace keeping quoted spans and balanced
// parentheses inside one field.
func quotedFields(s string) []string {
	var out []string
	var cur strings.Builder
	depth := 0
	var quote byte
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			cur.WriteByte(c)
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
			cur.WriteByte(c)
		case '(':
			depth++
			cur.WriteByte(c)
		case ')':
			if depth > 0 {
				depth--
			}
			cur.WriteByte(c)
		case ' ', '\t':
			if depth == 0 {
				flush()
			} else {
				cur.WriteByte(c)
			}
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return out
}

func unquoteLoose(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
