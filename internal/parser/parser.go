package parser

import (
	"fmt"
	"regexp"
	"strings"
)

// InitError means the grammar tables could not be constructed. It is the only
// fatal error in this package; every other failure is recoverable.
type InitError struct {
	Reason string
}

func (e *InitError) Error() string {
	return fmt.Sprintf("grammar initialization failed: %s", e.Reason)
}

// ParseError reports a recoverable parse failure.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// Options configures a Parser instance.
type Options struct {
	// TypeInference enables parameter-type inference during extraction.
	TypeInference bool
}

// Parser turns raw justfile text into a Tree. An instance is stateless with
// respect to prior input and may be reused across many Parse calls, but a
// single instance is not safe for concurrent callers: it owns a QueryCache
// that is mutated during extraction.
type Parser struct {
	cache         *QueryCache
	typeInference bool
}

// New returns a parser with type inference enabled.
func New() (*Parser, error) {
	return NewWithOptions(Options{TypeInference: true})
}

func NewWithOptions(opts Options) (*Parser, error) {
	for _, id := range AllPatterns {
		if _, ok := patternKinds[id]; !ok {
			return nil, &InitError{Reason: fmt.Sprintf("no grammar kinds registered for pattern %q", id)}
		}
	}
	return &Parser{
		cache:         NewQueryCache(),
		typeInference: opts.TypeInference,
	}, nil
}

// Cache exposes the parser's compiled-query cache.
func (p *Parser) Cache() *QueryCache {
	return p.cache
}

type sourceLine struct {
	text  string // without trailing newline or carriage return
	start int    // byte offset of line start
}

func splitLines(content []byte) []sourceLine {
	var out []sourceLine
	start := 0
	s := string(content)
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == '\n' {
			text := strings.TrimSuffix(s[start:i], "\r")
			out = append(out, sourceLine{text: text, start: start})
			start = i + 1
		}
	}
	return out
}

// pendingAttr buffers a bracketed annotation until the recipe it belongs to
// is seen.
type pendingAttr struct {
	name      string
	nameStart int // absolute byte offset
	args      []attrArg
	start     int
	end       int
	line      int
}

type attrArg struct {
	start int
	end   int
}

// Parse turns text into a concrete syntax tree. The returned error covers
// failures of the parse call itself; malformed input surfaces as error nodes
// on an otherwise valid tree.
func (p *Parser) Parse(content []byte) (*Tree, error) {
	t := &Tree{source: content}
	t.root = t.addNode(KindSourceFile, 0, len(content), 1, 0, NoNode)

	lines := splitLines(content)
	var pending []pendingAttr

	i := 0
	for i < len(lines) {
		ln := lines[i]
		trimmed := strings.TrimSpace(ln.text)
		if trimmed == "" {
			i++
			continue
		}

		indent := len(ln.text) - len(strings.TrimLeft(ln.text, " \t"))
		lineNum := i + 1
		lineEnd := ln.start + len(strings.TrimRight(ln.text, " \t"))

		// Indented content outside a recipe body is malformed.
		if indent > 0 {
			t.addNode(KindError, ln.start, lineEnd, lineNum, 0, t.root)
			i++
			continue
		}

		if strings.HasPrefix(trimmed, "#") {
			t.addNode(KindComment, ln.start, lineEnd, lineNum, 0, t.root)
			i++
			continue
		}

		if strings.HasPrefix(trimmed, "[") {
			attrs, ok := parseAttributeLine(ln.text, ln.start, lineNum)
			if !ok {
				t.addNode(KindError, ln.start, lineEnd, lineNum, 0, t.root)
			} else {
				pending = append(pending, attrs...)
			}
			i++
			continue
		}

		if strings.HasPrefix(trimmed, "alias ") && strings.Contains(trimmed, ":=") {
			t.addNode(KindAlias, ln.start, lineEnd, lineNum, 0, t.root)
			pending = nil
			i++
			continue
		}

		if strings.HasPrefix(trimmed, "set ") {
			t.addNode(KindSetting, ln.start, lineEnd, lineNum, 0, t.root)
			pending = nil
			i++
			continue
		}

		if isAssignmentLine(trimmed) {
			t.addNode(KindAssignment, ln.start, lineEnd, lineNum, 0, t.root)
			pending = nil
			i++
			continue
		}

		colon := topLevelColon(ln.text)
		if colon < 0 {
			t.addNode(KindError, ln.start, lineEnd, lineNum, 0, t.root)
			pending = nil
			i++
			continue
		}

		// Recipe: attributes, header, then an indented body. The recipe node
		// starts at its first attribute so comment association sees the whole
		// block.
		recipeStart := ln.start
		recipeLine := lineNum
		if len(pending) > 0 && pending[0].start < recipeStart {
			recipeStart = pending[0].start
			recipeLine = pending[0].line
		}
		recipe := t.addNode(KindRecipe, recipeStart, lineEnd, recipeLine, 0, t.root)
		for _, pa := range pending {
			attr := t.addNode(KindAttribute, pa.start, pa.end, pa.line, 0, recipe)
			t.addNode(KindIdentifier, pa.nameStart, pa.nameStart+len(pa.name), pa.line, 0, attr)
			for _, arg := range pa.args {
				t.addNode(KindAttributeArgument, arg.start, arg.end, pa.line, 0, attr)
			}
		}
		pending = nil

		p.parseHeader(t, recipe, ln, colon, lineNum)
		i++

		// Body: subsequent indented lines, with interior blanks kept and
		// trailing blanks dropped.
		bodyStart := i
		lastContent := -1
		for i < len(lines) {
			bt := strings.TrimSpace(lines[i].text)
			if bt == "" {
				i++
				continue
			}
			bi := len(lines[i].text) - len(strings.TrimLeft(lines[i].text, " \t"))
			if bi == 0 {
				break
			}
			lastContent = i
			i++
		}
		if lastContent >= 0 {
			for bodyStart < lastContent && strings.TrimSpace(lines[bodyStart].text) == "" {
				bodyStart++
			}
			first := lines[bodyStart]
			last := lines[lastContent]
			bodyEnd := last.start + len(strings.TrimRight(last.text, " \t"))
			body := t.addNode(KindBody, first.start, bodyEnd, bodyStart+1, 0, recipe)
			for j := bodyStart; j <= lastContent; j++ {
				rl := lines[j]
				end := rl.start + len(strings.TrimRight(rl.text, " \t"))
				t.addNode(KindRecipeLine, rl.start, end, j+1, 0, body)
			}
			t.nodes[recipe].endByte = bodyEnd
		} else {
			i = bodyStart
		}
	}

	// Attributes with no recipe header after them annotate nothing.
	if len(pending) > 0 {
		last := pending[len(pending)-1]
		t.addNode(KindError, pending[0].start, last.end, pending[0].line, 0, t.root)
	}

	return t, nil
}

// parseAttributeLine parses a `[attr, attr('arg')]` line into buffered
// attribute specs. Returns ok=false on unbalanced brackets.
func parseAttributeLine(text string, lineStart, lineNum int) ([]pendingAttr, bool) {
	trimmed := strings.TrimRight(text, " \t")
	open := strings.IndexByte(trimmed, '[')
	closeIdx := strings.LastIndexByte(trimmed, ']')
	if open < 0 || closeIdx < 0 || closeIdx < open || strings.TrimSpace(trimmed[closeIdx+1:]) != "" {
		return nil, false
	}
	inner := trimmed[open+1 : closeIdx]
	var out []pendingAttr
	for _, piece := range splitTopLevel(inner, ',') {
		if piece.text == "" {
			continue
		}
		abs := lineStart + open + 1 + piece.start
		pa := pendingAttr{
			start: abs,
			end:   abs + len(piece.text),
			line:  lineNum,
		}
		name := piece.text
		if p := strings.IndexByte(name, '('); p >= 0 {
			if !strings.HasSuffix(name, ")") {
				return nil, false
			}
			argsText := name[p+1 : len(name)-1]
			name = name[:p]
			for _, arg := range splitTopLevel(argsText, ',') {
				if arg.text == "" {
					continue
				}
				argAbs := abs + p + 1 + arg.start
				pa.args = append(pa.args, attrArg{start: argAbs, end: argAbs + len(arg.text)})
			}
		} else if p := strings.IndexByte(name, ':'); p >= 0 {
			// Colon form: [group: 'name']
			rest := name[p+1:]
			value := strings.TrimSpace(rest)
			argStart := abs + p + 1 + (len(rest) - len(strings.TrimLeft(rest, " \t")))
			name = strings.TrimSpace(name[:p])
			if value != "" {
				pa.args = append(pa.args, attrArg{start: argStart, end: argStart + len(value)})
			}
		}
		pa.name = strings.TrimSpace(name)
		pa.nameStart = abs
		out = append(out, pa)
	}
	return out, true
}

// parseHeader builds the recipe_header subtree from a `name params: deps`
// line. colon is the byte index of the top-level colon within the line.
func (p *Parser) parseHeader(t *Tree, recipe NodeID, ln sourceLine, colon int, lineNum int) {
	lineEnd := ln.start + len(strings.TrimRight(ln.text, " \t"))
	header := t.addNode(KindRecipeHeader, ln.start, lineEnd, lineNum, 0, recipe)

	left := ln.text[:colon]
	right := ln.text[colon+1:]

	tokens := splitTokens(left)
	if len(tokens) == 0 {
		t.addNode(KindError, ln.start, ln.start+colon, lineNum, 0, header)
		return
	}

	name := tokens[0]
	nameText := strings.TrimPrefix(name.text, "@")
	nameStart := ln.start + name.start + (len(name.text) - len(nameText))
	if !identPattern.MatchString(nameText) {
		t.addNode(KindError, nameStart, nameStart+len(nameText), lineNum, name.start, header)
		return
	}
	t.addNode(KindIdentifier, nameStart, nameStart+len(nameText), lineNum, name.start, header)

	if len(tokens) > 1 {
		last := tokens[len(tokens)-1]
		params := t.addNode(KindParameters,
			ln.start+tokens[1].start,
			ln.start+last.start+len(last.text),
			lineNum, tokens[1].start, header)
		for _, tok := range tokens[1:] {
			p.parseParameter(t, params, tok, ln.start, lineNum)
		}
	}

	depTokens := splitTokens(right)
	if len(depTokens) == 0 {
		return
	}
	lastDep := depTokens[len(depTokens)-1]
	depsNode := t.addNode(KindDependencies,
		ln.start+colon+1+depTokens[0].start,
		ln.start+colon+1+lastDep.start+len(lastDep.text),
		lineNum, 0, header)
	parseDependencies(t, depsNode, depTokens, ln.start+colon+1, lineNum)
}

// parseParameter builds a parameter node from one header token such as
// `target`, `out="dist"`, `+files` or `$env`.
func (p *Parser) parseParameter(t *Tree, params NodeID, tok token, lineStart, lineNum int) {
	kind := KindParameter
	text := tok.text
	offset := tok.start
	if strings.HasPrefix(text, "+") || strings.HasPrefix(text, "*") {
		kind = KindVariadicParameter
		text = text[1:]
		offset++
	}
	if strings.HasPrefix(text, "$") {
		text = text[1:]
		offset++
	}

	param := t.addNode(kind, lineStart+tok.start, lineStart+tok.start+len(tok.text), lineNum, tok.start, params)

	eq := topLevelIndex(text, '=')
	nameText := text
	if eq >= 0 {
		nameText = text[:eq]
	}
	if !identPattern.MatchString(nameText) {
		t.addNode(KindError, lineStart+offset, lineStart+offset+len(nameText), lineNum, offset, param)
		return
	}
	t.addNode(KindIdentifier, lineStart+offset, lineStart+offset+len(nameText), lineNum, offset, param)
	if eq >= 0 {
		defStart := offset + eq + 1
		t.addNode(KindDefaultValue, lineStart+defStart, lineStart+offset+len(text), lineNum, defStart, param)
	}
}

// parseDependencies builds dependency nodes from the tokens after the
// header's colon. An `if` token attaches a condition to the preceding
// dependency; `&&` sequencing markers are skipped.
func parseDependencies(t *Tree, depsNode NodeID, tokens []token, base, lineNum int) {
	var lastDep NodeID = NoNode
	i := 0
	for i < len(tokens) {
		tok := tokens[i]
		if tok.text == "&&" {
			i++
			continue
		}
		if tok.text == "if" && lastDep != NoNode {
			condStart, condEnd, next := collectCondition(tokens, i+1)
			if next > i+1 {
				t.addNode(KindCondition, base+condStart, base+condEnd, lineNum, condStart, lastDep)
			}
			i = next
			continue
		}

		text := tok.text
		start := tok.start
		// Parenthesized form: (name arg ...)
		if strings.HasPrefix(text, "(") && strings.HasSuffix(text, ")") {
			inner := text[1 : len(text)-1]
			parts := splitTokens(inner)
			if len(parts) == 0 {
				t.addNode(KindError, base+start, base+start+len(text), lineNum, start, depsNode)
				i++
				continue
			}
			dep := t.addNode(KindDependency, base+start, base+start+len(text), lineNum, start, depsNode)
			nameTok := parts[0]
			t.addNode(KindIdentifier, base+start+1+nameTok.start, base+start+1+nameTok.start+len(nameTok.text), lineNum, 0, dep)
			for _, arg := range parts[1:] {
				t.addNode(KindDependencyArgument, base+start+1+arg.start, base+start+1+arg.start+len(arg.text), lineNum, 0, dep)
			}
			lastDep = dep
			i++
			continue
		}

		// Call form: name(arg, ...) or a bare name.
		nameEnd := strings.IndexByte(text, '(')
		nameText := text
		if nameEnd >= 0 {
			nameText = text[:nameEnd]
		}
		if !identPattern.MatchString(nameText) {
			t.addNode(KindError, base+start, base+start+len(text), lineNum, start, depsNode)
			i++
			continue
		}
		dep := t.addNode(KindDependency, base+start, base+start+len(text), lineNum, start, depsNode)
		t.addNode(KindIdentifier, base+start, base+start+len(nameText), lineNum, start, dep)
		if nameEnd >= 0 && strings.HasSuffix(text, ")") {
			argsText := text[nameEnd+1 : len(text)-1]
			for _, arg := range splitTopLevel(argsText, ',') {
				if arg.text == "" {
					continue
				}
				t.addNode(KindDependencyArgument, base+start+nameEnd+1+arg.start, base+start+nameEnd+1+arg.start+len(arg.text), lineNum, 0, dep)
			}
		}
		lastDep = dep
		i++
	}
}

// collectCondition consumes tokens forming a condition expression: one
// operand, then operator/operand pairs while a comparison operator follows.
func collectCondition(tokens []token, i int) (start, end, next int) {
	if i >= len(tokens) {
		return 0, 0, i
	}
	start = tokens[i].start
	end = tokens[i].start + len(tokens[i].text)
	i++
	for i+1 < len(tokens) && isConditionOperator(tokens[i].text) {
		end = tokens[i+1].start + len(tokens[i+1].text)
		i += 2
	}
	return start, end, i
}

func isConditionOperator(s string) bool {
	return s == "==" || s == "!=" || s == "||"
}

func isAssignmentLine(trimmed string) bool {
	idx := strings.Index(trimmed, ":=")
	if idx < 0 {
		return false
	}
	lhs := strings.TrimSpace(trimmed[:idx])
	lhs = strings.TrimPrefix(lhs, "export ")
	return identPattern.MatchString(strings.TrimSpace(lhs))
}

// topLevelColon returns the index of the first ':' that is outside quotes
// and brackets and not part of ':=', or -1.
func topLevelColon(s string) int {
	depth := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		case ':':
			if depth == 0 {
				if i+1 < len(s) && s[i+1] == '=' {
					return -1
				}
				return i
			}
		}
	}
	return -1
}

// topLevelIndex returns the index of the first occurrence of c outside
// quotes, or -1.
func topLevelIndex(s string, c byte) int {
	var quote byte
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if quote != 0 {
			if ch == quote {
				quote = 0
			}
			continue
		}
		if ch == '\'' || ch == '"' {
			quote = ch
			continue
		}
		if ch == c {
			return i
		}
	}
	return -1
}

type token struct {
	text  string
	start int
}

// splitTokens splits on whitespace while keeping quoted strings and balanced
// parenthesized groups inside a single token.
func splitTokens(s string) []token {
	var out []token
	i := 0
	for i < len(s) {
		for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
			i++
		}
		if i >= len(s) {
			break
		}
		start := i
		depth := 0
		var quote byte
	scan:
		for i < len(s) {
			c := s[i]
			if quote != 0 {
				if c == quote {
					quote = 0
				}
				i++
				continue
			}
			switch c {
			case '\'', '"':
				quote = c
			case '(':
				depth++
			case ')':
				if depth > 0 {
					depth--
				}
			case ' ', '\t':
				if depth == 0 {
					break scan
				}
			}
			i++
		}
		out = append(out, token{text: s[start:i], start: start})
	}
	return out
}

// splitTopLevel splits s on sep outside quotes and parentheses, trimming each
// piece and keeping its offset within s.
func splitTopLevel(s string, sep byte) []token {
	var out []token
	depth := 0
	var quote byte
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case sep:
			if depth == 0 {
				out = append(out, trimmedToken(s, start, i))
				start = i + 1
			}
		}
	}
	out = append(out, trimmedToken(s, start, len(s)))
	return out
}

func trimmedToken(s string, start, end int) token {
	piece := s[start:end]
	lead := len(piece) - len(strings.TrimLeft(piece, " \t"))
	return token{text: strings.TrimSpace(piece), start: start + lead}
}
