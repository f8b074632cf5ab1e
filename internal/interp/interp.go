// Package interp evaluates {{...}} interpolations, built-in function calls,
// conditionals and arithmetic inside recipe text.
package interp

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"
)

// DefaultMaxDepth bounds nested interpolation.
const DefaultMaxDepth = 5

var (
	ErrNestingTooDeep  = errors.New("nesting too deep")
	ErrUnbalanced      = errors.New("unbalanced interpolation braces")
	ErrMissingVariable = errors.New("missing variable")
	ErrDivisionByZero  = errors.New("division by zero")
)

// EvaluateInterpolatedString resolves every {{...}} span in template against
// the variable mapping, innermost expressions first, with the default
// nesting bound. A missing variable is an error unless allowMissing is set,
// in which case it evaluates to an empty string.
func EvaluateInterpolatedString(template string, vars map[string]string, allowMissing bool) (string, error) {
	return Evaluate(template, vars, allowMissing, DefaultMaxDepth)
}

// Evaluate is EvaluateInterpolatedString with an explicit nesting ceiling.
func Evaluate(template string, vars map[string]string, allowMissing bool, maxDepth int) (string, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	opens, depth, err := measureNesting(template)
	if err != nil {
		return "", err
	}
	if depth > maxDepth {
		return "", fmt.Errorf("%w: %d levels exceed the maximum of %d", ErrNestingTooDeep, depth, maxDepth)
	}

	s := template
	// Substituted values may themselves introduce braces; the budget keeps
	// adversarial input from looping forever.
	budget := opens + maxDepth
	for strings.Contains(s, "{{") {
		if budget == 0 {
			return "", fmt.Errorf("%w: interpolation did not converge", ErrNestingTooDeep)
		}
		budget--

		end := strings.Index(s, "}}")
		if end < 0 {
			return "", ErrUnbalanced
		}
		start := strings.LastIndex(s[:end], "{{")
		if start < 0 {
			return "", ErrUnbalanced
		}
		value, err := evalExpr(strings.TrimSpace(s[start+2:end]), vars, allowMissing)
		if err != nil {
			return "", err
		}
		s = s[:start] + value + s[end+2:]
	}
	return s, nil
}

// measureNesting validates brace pairing and returns the number of opening
// tokens and the maximum nesting depth.
func measureNesting(s string) (opens, maxDepth int, err error) {
	depth := 0
	for i := 0; i < len(s); {
		switch {
		case strings.HasPrefix(s[i:], "{{"):
			opens++
			depth++
			if depth > maxDepth {
				maxDepth = depth
			}
			i += 2
		case strings.HasPrefix(s[i:], "}}"):
			depth--
			if depth < 0 {
				return 0, 0, ErrUnbalanced
			}
			i += 2
		default:
			i++
		}
	}
	if depth != 0 {
		return 0, 0, ErrUnbalanced
	}
	return opens, maxDepth, nil
}

// Truthy reports condition truth: non-empty and not "false"/"0"/"no".
func Truthy(s string) bool {
	return s != "" && s != "false" && s != "0" && s != "no"
}

// evalExpr evaluates one expression with no surrounding braces.
func evalExpr(expr string, vars map[string]string, allowMissing bool) (string, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return "", nil
	}

	if isStringLiteral(expr) {
		return stringLiteralValue(expr), nil
	}

	// A defined variable wins outright, so names containing '-' are not
	// misread as subtraction.
	if v, ok := vars[expr]; ok {
		return v, nil
	}

	// Ternary binds loosest.
	if q := indexTopLevel(expr, '?', 0); q >= 0 {
		colon := ternaryColon(expr, q)
		if colon > q {
			cond, err := evalExpr(expr[:q], vars, allowMissing)
			if err != nil {
				return "", err
			}
			if Truthy(cond) {
				return evalExpr(expr[q+1:colon], vars, allowMissing)
			}
			return evalExpr(expr[colon+1:], vars, allowMissing)
		}
	}

	if strings.HasPrefix(expr, "if ") {
		return evalIf(expr, vars, allowMissing)
	}

	if op := lastTopLevelOp(expr, "+-"); op >= 0 {
		return evalBinary(expr, op, vars, allowMissing)
	}
	if op := lastTopLevelOp(expr, "*/"); op >= 0 {
		return evalBinary(expr, op, vars, allowMissing)
	}

	return evalPrimary(expr, vars, allowMissing)
}

func evalIf(expr string, vars map[string]string, allowMissing bool) (string, error) {
	rest := expr[len("if "):]
	thenIdx := indexTopLevelWord(rest, " then ")
	if thenIdx < 0 {
		return "", fmt.Errorf("malformed conditional: missing 'then' in %q", expr)
	}
	cond, err := evalExpr(rest[:thenIdx], vars, allowMissing)
	if err != nil {
		return "", err
	}
	branches := rest[thenIdx+len(" then "):]
	elseIdx := indexTopLevelWord(branches, " else ")
	if Truthy(cond) {
		if elseIdx < 0 {
			return evalExpr(branches, vars, allowMissing)
		}
		return evalExpr(branches[:elseIdx], vars, allowMissing)
	}
	if elseIdx < 0 {
		return "", nil
	}
	return evalExpr(branches[elseIdx+len(" else "):], vars, allowMissing)
}

func evalBinary(expr string, op int, vars map[string]string, allowMissing bool) (string, error) {
	operator := expr[op]
	left, err := evalExpr(expr[:op], vars, allowMissing)
	if err != nil {
		return "", err
	}
	right, err := evalExpr(expr[op+1:], vars, allowMissing)
	if err != nil {
		return "", err
	}

	lv, lok := parseNumber(left)
	rv, rok := parseNumber(right)

	switch operator {
	case '+':
		if lok && rok {
			return formatNumber(lv + rv), nil
		}
		return left + right, nil
	case '-':
		if !lok || !rok {
			return "", fmt.Errorf("non-numeric operand in subtraction: %q - %q", left, right)
		}
		return formatNumber(lv - rv), nil
	case '*':
		if !lok || !rok {
			return "", fmt.Errorf("non-numeric operand in multiplication: %q * %q", left, right)
		}
		return formatNumber(lv * rv), nil
	case '/':
		if !lok || !rok {
			return "", fmt.Errorf("non-numeric operand in division: %q / %q", left, right)
		}
		if rv == 0 {
			return "", ErrDivisionByZero
		}
		return formatNumber(lv / rv), nil
	}
	return "", fmt.Errorf("unknown operator %q", string(operator))
}

func evalPrimary(expr string, vars map[string]string, allowMissing bool) (string, error) {
	// Parenthesized group.
	if strings.HasPrefix(expr, "(") && strings.HasSuffix(expr, ")") && indexTopLevel(expr[1:len(expr)-1], ')', 0) < 0 {
		return evalExpr(expr[1:len(expr)-1], vars, allowMissing)
	}

	if numberPattern.MatchString(expr) {
		return expr, nil
	}
	if expr == "true" || expr == "false" {
		return expr, nil
	}

	if callPattern.MatchString(expr) {
		open := strings.IndexByte(expr, '(')
		return evalCall(expr[:open], expr[open+1:len(expr)-1], vars, allowMissing)
	}

	if variablePattern.MatchString(expr) {
		if v, ok := vars[expr]; ok {
			return v, nil
		}
		if allowMissing {
			return "", nil
		}
		return "", fmt.Errorf("%w: %q", ErrMissingVariable, expr)
	}

	return "", fmt.Errorf("cannot evaluate expression: %q", expr)
}

func evalCall(name, argsText string, vars map[string]string, allowMissing bool) (string, error) {
	raw := SplitArgs(argsText)
	args := make([]string, len(raw))
	for i, a := range raw {
		v, err := evalExpr(a, vars, allowMissing)
		if err != nil {
			return "", err
		}
		args[i] = v
	}

	switch name {
	case "uppercase":
		if len(args) != 1 {
			return "", arityError(name, 1, len(args))
		}
		return strings.ToUpper(args[0]), nil
	case "lowercase":
		if len(args) != 1 {
			return "", arityError(name, 1, len(args))
		}
		return strings.ToLower(args[0]), nil
	case "trim":
		if len(args) != 1 {
			return "", arityError(name, 1, len(args))
		}
		return strings.TrimSpace(args[0]), nil
	case "len":
		if len(args) != 1 {
			return "", arityError(name, 1, len(args))
		}
		return formatNumber(float64(utf8.RuneCountInString(args[0]))), nil
	case "replace":
		if len(args) != 3 {
			return "", arityError(name, 3, len(args))
		}
		return strings.ReplaceAll(args[0], args[1], args[2]), nil
	case "env_var":
		if len(args) != 1 && len(args) != 2 {
			return "", fmt.Errorf("function env_var expects 1 or 2 arguments, got %d", len(args))
		}
		if v, ok := os.LookupEnv(args[0]); ok {
			return v, nil
		}
		if len(args) == 2 {
			return args[1], nil
		}
		return "", fmt.Errorf("environment variable %q is not set", args[0])
	}
	return "", fmt.Errorf("unknown function %q", name)
}

func arityError(name string, want, got int) error {
	return fmt.Errorf("function %s expects exactly %d argument(s), got %d", name, want, got)
}

// isStringLiteral reports whether the whole expression is one quoted string.
func isStringLiteral(s string) bool {
	if len(s) < 2 || (s[0] != '"' && s[0] != '\'') {
		return false
	}
	quote := s[0]
	for i := 1; i < len(s); i++ {
		if s[i] == '\\' {
			i++
			continue
		}
		if s[i] == quote {
			return i == len(s)-1
		}
	}
	return false
}

func stringLiteralValue(s string) string {
	inner := s[1 : len(s)-1]
	if s[0] == '"' {
		return ProcessEscapes(inner)
	}
	return inner
}

// ternaryColon finds the ':' matching the '?' at q, honoring nested
// ternaries. Returns -1 when absent.
func ternaryColon(s string, q int) int {
	depth := 0
	var quote byte
	nested := 0
	for i := q + 1; i < len(s); i++ {
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
		case '?':
			if depth == 0 {
				nested++
			}
		case ':':
			if depth == 0 {
				if nested == 0 {
					return i
				}
				nested--
			}
		}
	}
	return -1
}

// indexTopLevelWord finds a word delimiter such as " then " outside quotes
// and parentheses.
func indexTopLevelWord(s, word string) int {
	depth := 0
	var quote byte
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
		}
		if depth == 0 && quote == 0 && strings.HasPrefix(s[i:], word) {
			return i
		}
	}
	return -1
}

// lastTopLevelOp returns the index of the rightmost binary operator drawn
// from ops, skipping unary signs.
func lastTopLevelOp(s string, ops string) int {
	depth := 0
	var quote byte
	last := -1
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
			continue
		case '(':
			depth++
			continue
		case ')':
			if depth > 0 {
				depth--
			}
			continue
		}
		if depth != 0 || strings.IndexByte(ops, c) < 0 {
			continue
		}
		if isUnaryPosition(s, i) {
			continue
		}
		last = i
	}
	return last
}

// isUnaryPosition reports whether an operator at index i has no left
// operand, which makes a '+' or '-' a sign rather than an operator.
func isUnaryPosition(s string, i int) bool {
	j := i - 1
	for j >= 0 && (s[j] == ' ' || s[j] == '\t') {
		j--
	}
	if j < 0 {
		return true
	}
	switch s[j] {
	case '+', '-', '*', '/', '(', ',', '?', ':':
		return true
	}
	return false
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !numberPattern.MatchString(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// formatNumber renders integral results without a decimal point and keeps a
// floating-point quotient otherwise.
func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
