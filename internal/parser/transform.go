package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/toolprint/justparse/internal/interp"
)

// paramDocPattern matches a `{{name}}: description` comment used to document
// a recipe parameter. Malformed shapes simply fail the match and are ignored.
var paramDocPattern = regexp.MustCompile(`^\{\{([A-Za-z_][A-Za-z0-9_-]*)\}\}:\s*(\S.*)$`)

type paramDoc struct {
	line int
	name string
	desc string
}

type commentEntry struct {
	line int
	text string // without the leading '#', trimmed
}

// ExtractRecipes turns a syntax tree into recipe records. Extraction is
// best-effort: nodes that cannot be interpreted are skipped rather than
// failing the whole call.
func (p *Parser) ExtractRecipes(t *Tree) ([]RecipeInfo, error) {
	if t == nil {
		return nil, fmt.Errorf("extracting recipes: nil tree")
	}

	recipeQ, err := p.cache.GetOrCompile(PatternRecipe)
	if err != nil {
		return nil, fmt.Errorf("extracting recipes: %w", err)
	}
	paramQ, err := p.cache.GetOrCompile(PatternParameter)
	if err != nil {
		return nil, fmt.Errorf("extracting recipes: %w", err)
	}
	depQ, err := p.cache.GetOrCompile(PatternDependency)
	if err != nil {
		return nil, fmt.Errorf("extracting recipes: %w", err)
	}
	attrQ, err := p.cache.GetOrCompile(PatternAttribute)
	if err != nil {
		return nil, fmt.Errorf("extracting recipes: %w", err)
	}
	commentQ, err := p.cache.GetOrCompile(PatternComment)
	if err != nil {
		return nil, fmt.Errorf("extracting recipes: %w", err)
	}

	var comments []commentEntry
	var docs []paramDoc
	for _, n := range commentQ.Collect(t) {
		text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(n.Text()), "#"))
		entry := commentEntry{line: n.StartLine(), text: text}
		comments = append(comments, entry)
		if m := paramDocPattern.FindStringSubmatch(text); m != nil {
			docs = append(docs, paramDoc{line: entry.line, name: m[1], desc: strings.TrimSpace(m[2])})
		}
	}

	var recipes []RecipeInfo
	for _, rn := range recipeQ.Collect(t) {
		header, ok := rn.ChildByKind(KindRecipeHeader)
		if !ok {
			continue
		}
		nameNode, ok := header.ChildByKind(KindIdentifier)
		if !ok {
			continue
		}

		r := RecipeInfo{
			Name:       nameNode.Text(),
			LineNumber: header.StartLine(),
		}

		if paramsNode, ok := header.ChildByKind(KindParameters); ok {
			pos := 0
			for _, pn := range paramsNode.Children() {
				if !paramQ.Matches(pn) {
					continue
				}
				param, ok := p.extractParameter(pn, pos)
				if !ok {
					continue
				}
				param.Description = descriptionFor(docs, param.Name, header.StartLine())
				r.Parameters = append(r.Parameters, param)
				pos++
			}
		}

		if depsNode, ok := header.ChildByKind(KindDependencies); ok {
			pos := 0
			for _, dn := range depsNode.Children() {
				if !depQ.Matches(dn) {
					continue
				}
				dep, ok := extractDependency(dn, pos)
				if !ok {
					continue
				}
				r.Dependencies = append(r.Dependencies, dep)
				pos++
			}
		}

		for i, an := range rn.Children() {
			if !attrQ.Matches(an) {
				continue
			}
			attr, ok := extractAttribute(an, i)
			if !ok {
				continue
			}
			r.Attributes = append(r.Attributes, attr)
		}

		if bodyNode, ok := rn.ChildByKind(KindBody); ok {
			var lines []string
			for _, bl := range bodyNode.ChildrenByKind(KindRecipeLine) {
				lines = append(lines, bl.Text())
			}
			r.Body = Dedent(lines)
		}

		r.Comments, r.Doc = commentsAbove(comments, rn.StartLine())
		r.IsPrivate = strings.HasPrefix(r.Name, "_") || r.HasAttribute("private")
		if g := firstArgument(r.Attributes, "group"); g != nil {
			r.Group = *g
		}
		if c := firstArgument(r.Attributes, "confirm"); c != nil {
			r.ConfirmMessage = *c
		}

		recipes = append(recipes, r)
	}

	return recipes, nil
}

func (p *Parser) extractParameter(n Node, pos int) (ParameterInfo, bool) {
	nameNode, ok := n.ChildByKind(KindIdentifier)
	if !ok {
		return ParameterInfo{}, false
	}
	param := ParameterInfo{
		Name:       nameNode.Text(),
		IsVariadic: n.Kind() == KindVariadicParameter,
		Position:   pos,
	}
	if def, ok := n.ChildByKind(KindDefaultValue); ok {
		raw := def.Text()
		param.RawDefault = &raw
		evaluated := evaluateDefault(raw)
		param.DefaultValue = &evaluated
	}
	param.IsRequired = param.RawDefault == nil && !param.IsVariadic
	if p.typeInference {
		param.Type = InferParameterType(param.Name, param.RawDefault, param.IsVariadic)
	} else {
		param.Type = TypeUnknown
	}
	return param, true
}

// evaluateDefault resolves a raw default into its literal value: quotes are
// stripped and, for double-quoted text, escape sequences are processed.
func evaluateDefault(raw string) string {
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		return interp.ProcessEscapes(raw[1 : len(raw)-1])
	}
	return unquote(raw)
}

func extractDependency(n Node, pos int) (DependencyInfo, bool) {
	nameNode, ok := n.ChildByKind(KindIdentifier)
	if !ok {
		return DependencyInfo{}, false
	}
	dep := DependencyInfo{
		Name:     nameNode.Text(),
		Position: pos,
	}
	for _, arg := range n.ChildrenByKind(KindDependencyArgument) {
		dep.Arguments = append(dep.Arguments, unquote(arg.Text()))
	}
	if cond, ok := n.ChildByKind(KindCondition); ok {
		text := cond.Text()
		dep.Condition = &text
	}
	dep.IsConditional = dep.Condition != nil
	dep.Type = ClassifyDependency(len(dep.Arguments) > 0, dep.IsConditional)
	return dep, true
}

func extractAttribute(n Node, pos int) (AttributeInfo, bool) {
	nameNode, ok := n.ChildByKind(KindIdentifier)
	if !ok || nameNode.Text() == "" {
		return AttributeInfo{}, false
	}
	attr := AttributeInfo{
		Name:     nameNode.Text(),
		Position: pos,
	}
	for _, arg := range n.ChildrenByKind(KindAttributeArgument) {
		attr.Arguments = append(attr.Arguments, unquote(arg.Text()))
	}
	attr.IsBoolean = len(attr.Arguments) == 0
	if len(attr.Arguments) > 0 {
		attr.Value = &attr.Arguments[0]
	}
	return attr, true
}

// descriptionFor returns the closest `{{name}}: ...` doc comment above the
// recipe header for the given parameter, or "".
func descriptionFor(docs []paramDoc, name string, headerLine int) string {
	desc := ""
	for _, d := range docs {
		if d.line < headerLine && d.name == name {
			desc = d.desc
		}
	}
	return desc
}

// commentsAbove collects the contiguous comment lines directly above a
// recipe's first line and picks the recipe doc from them. Parameter doc
// comments never become the recipe doc.
func commentsAbove(comments []commentEntry, firstLine int) ([]string, string) {
	byLine := make(map[int]string, len(comments))
	for _, c := range comments {
		byLine[c.line] = c.text
	}

	var collected []string
	line := firstLine - 1
	for line > 0 {
		text, ok := byLine[line]
		if !ok {
			break
		}
		collected = append([]string{text}, collected...)
		line--
	}

	doc := ""
	for i := len(collected) - 1; i >= 0; i-- {
		if !paramDocPattern.MatchString(collected[i]) {
			doc = collected[i]
			break
		}
	}
	return collected, doc
}

func firstArgument(attrs []AttributeInfo, name string) *string {
	for _, a := range attrs {
		if a.Name == name && len(a.Arguments) > 0 {
			return &a.Arguments[0]
		}
	}
	return nil
}

// Dedent strips the longest leading whitespace common to every non-blank
// line and joins them. The prefix is compared byte for byte, so a tab never
// cancels against spaces of the same width.
func Dedent(lines []string) string {
	prefix := ""
	first := true
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		lead := l[:len(l)-len(strings.TrimLeft(l, " \t"))]
		if first {
			prefix = lead
			first = false
		} else {
			prefix = commonPrefix(prefix, lead)
		}
	}
	if prefix == "" {
		return strings.Join(lines, "\n")
	}
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if strings.HasPrefix(l, prefix) {
			out = append(out, l[len(prefix):])
		} else {
			out = append(out, strings.TrimLeft(l, " \t"))
		}
	}
	return strings.Join(out, "\n")
}

func commonPrefix(a, b string) string {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return a[:i]
}
