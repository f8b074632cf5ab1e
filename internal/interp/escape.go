package interp

import (
	"strconv"
	"strings"
)

// ProcessEscapes resolves escape sequences in a string literal: \n \t \" \\,
// the Unicode form \u{XXXX} and the two-digit hex form \xXX. Unknown or
// truncated sequences are passed through unmodified.
func ProcessEscapes(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	i := 0
	for i < len(s) {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			i++
			continue
		}
		switch s[i+1] {
		case 'n':
			b.WriteByte('\n')
			i += 2
		case 't':
			b.WriteByte('\t')
			i += 2
		case '"':
			b.WriteByte('"')
			i += 2
		case '\\':
			b.WriteByte('\\')
			i += 2
		case 'u':
			if i+2 < len(s) && s[i+2] == '{' {
				end := strings.IndexByte(s[i+3:], '}')
				if end > 0 {
					hex := s[i+3 : i+3+end]
					if v, err := strconv.ParseUint(hex, 16, 32); err == nil {
						b.WriteRune(rune(v))
						i += 3 + end + 1
						continue
					}
				}
			}
			b.WriteByte(c)
			i++
		case 'x':
			if i+4 <= len(s) {
				if v, err := strconv.ParseUint(s[i+2:i+4], 16, 8); err == nil {
					b.WriteByte(byte(v))
					i += 4
					continue
				}
			}
			b.WriteByte(c)
			i++
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}
