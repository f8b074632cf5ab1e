package interp

import (
	"regexp"
	"strings"
)

// ArgKind classifies one argument of a function call to drive recursive
// evaluation and arity validation.
type ArgKind string

const (
	ArgString      ArgKind = "string"
	ArgNumber      ArgKind = "number"
	ArgBoolean     ArgKind = "boolean"
	ArgVariable    ArgKind = "variable"
	ArgCall        ArgKind = "call"
	ArgConditional ArgKind = "conditional"
	ArgOther       ArgKind = "other"
)

var (
	callPattern     = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*\(.*\)$`)
	variablePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)
	numberPattern   = regexp.MustCompile(`^[+-]?[0-9]+(\.[0-9]+)?$`)
)

// SplitArgs splits a comma-separated argument list. Commas inside quoted
// strings or balanced parentheses are not separators. Backslash escapes
// inside quotes are honored.
func SplitArgs(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	depth := 0
	var quote byte
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == '\\' && i+1 < len(s) {
				i++
				continue
			}
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
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	out = append(out, strings.TrimSpace(s[start:]))
	return out
}

// ClassifyArg reports the syntactic shape of one argument.
func ClassifyArg(s string) ArgKind {
	s = strings.TrimSpace(s)
	switch {
	case isQuoted(s):
		return ArgString
	case numberPattern.MatchString(s):
		return ArgNumber
	case s == "true" || s == "false":
		return ArgBoolean
	case strings.HasPrefix(s, "if ") || hasTopLevelByte(s, '?'):
		return ArgConditional
	case callPattern.MatchString(s):
		return ArgCall
	case variablePattern.MatchString(s):
		return ArgVariable
	default:
		return ArgOther
	}
}

func isQuoted(s string) bool {
	if len(s) < 2 {
		return false
	}
	if s[0] != '"' && s[0] != '\'' {
		return false
	}
	return s[len(s)-1] == s[0]
}

// hasTopLevelByte reports whether c occurs outside quotes and parentheses.
func hasTopLevelByte(s string, c byte) bool {
	return indexTopLevel(s, c, 0) >= 0
}

// indexTopLevel returns the index of the first occurrence of c at or after
// from that sits outside quotes and parentheses, or -1.
func indexTopLevel(s string, c byte, from int) int {
	depth := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if quote != 0 {
			if ch == '\\' && i+1 < len(s) {
				i++
				continue
			}
			if ch == quote {
				quote = 0
			}
			continue
		}
		switch ch {
		case '\'', '"':
			quote = ch
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		default:
			if ch == c && depth == 0 && i >= from {
				return i
			}
		}
	}
	return -1
}
