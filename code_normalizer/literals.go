package code_normalizer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
)

const stringPrefixChars = "rRbBuUfF"

// stringLiteral is the decoded value of a non-formatted string literal.
// Bytes literals keep one rune per byte.
type stringLiteral struct {
	value   []rune
	isBytes bool
	uPrefix bool
}

// canonicalStringNode renders a string or an implicitly concatenated string
// the way Python's repr shows its value, so quoting style, escapes, prefixes
// and line splits do not reach the token sequence. f-strings and literals that
// cannot be decoded report false and are kept verbatim.
func canonicalStringNode(n *sitter.Node, source []byte) (string, bool) {
	switch n.Type() {
	case "string":
		lit, ok := decodeStringLiteral(n.Content(source))
		if !ok {
			return "", false
		}
		return lit.repr(), true

	case "concatenated_string":
		var joined stringLiteral
		parts := 0
		for i := 0; i < int(n.NamedChildCount()); i++ {
			part := n.NamedChild(i)
			if skippedTypes[part.Type()] {
				continue
			}
			if part.Type() != "string" {
				return "", false
			}
			lit, ok := decodeStringLiteral(part.Content(source))
			if !ok {
				return "", false
			}
			if parts == 0 {
				joined.isBytes = lit.isBytes
				joined.uPrefix = lit.uPrefix
			} else if lit.isBytes != joined.isBytes {
				return "", false
			}
			joined.value = append(joined.value, lit.value...)
			parts++
		}
		if parts == 0 {
			return "", false
		}
		return joined.repr(), true
	}

	return "", false
}

// decodeStringLiteral evaluates a Python string literal as written in source.
func decodeStringLiteral(text string) (stringLiteral, bool) {
	prefixEnd := 0
	for prefixEnd < len(text) && strings.IndexByte(stringPrefixChars, text[prefixEnd]) >= 0 {
		prefixEnd++
	}
	prefix := strings.ToLower(text[:prefixEnd])
	if strings.Contains(prefix, "f") {
		return stringLiteral{}, false
	}

	lit := stringLiteral{
		isBytes: strings.Contains(prefix, "b"),
		uPrefix: prefix == "u",
	}
	raw := strings.Contains(prefix, "r")

	rest := text[prefixEnd:]
	var quote string
	switch {
	case strings.HasPrefix(rest, `"""`), strings.HasPrefix(rest, `'''`):
		quote = rest[:3]
	case strings.HasPrefix(rest, `"`), strings.HasPrefix(rest, `'`):
		quote = rest[:1]
	default:
		return stringLiteral{}, false
	}
	if len(rest) < 2*len(quote) || !strings.HasSuffix(rest, quote) {
		return stringLiteral{}, false
	}

	body := rest[len(quote) : len(rest)-len(quote)]
	body = strings.ReplaceAll(body, "\r\n", "\n")
	body = strings.ReplaceAll(body, "\r", "\n")

	if lit.isBytes {
		for i := 0; i < len(body); i++ {
			if body[i] >= utf8.RuneSelf {
				return stringLiteral{}, false
			}
		}
	}

	if raw {
		lit.value = []rune(body)
		return lit, true
	}

	value, ok := unescape(body, lit.isBytes)
	if !ok {
		return stringLiteral{}, false
	}
	lit.value = value
	return lit, true
}

var simpleEscapes = map[byte]rune{
	'\\': '\\',
	'\'': '\'',
	'"':  '"',
	'a':  '\a',
	'b':  '\b',
	'f':  '\f',
	'n':  '\n',
	'r':  '\r',
	't':  '\t',
	'v':  '\v',
}

// unescape applies Python's backslash escapes. \N{...} names are not
// resolved and make the literal undecodable.
func unescape(body string, isBytes bool) ([]rune, bool) {
	value := make([]rune, 0, len(body))

	for i := 0; i < len(body); {
		if body[i] != '\\' {
			r, size := utf8.DecodeRuneInString(body[i:])
			value = append(value, r)
			i += size
			continue
		}

		if i+1 >= len(body) {
			return nil, false
		}
		c := body[i+1]
		i += 2

		if c == '\n' {
			continue
		}
		if r, ok := simpleEscapes[c]; ok {
			value = append(value, r)
			continue
		}

		switch {
		case c >= '0' && c <= '7':
			end := i - 1
			for end < len(body) && end < i+2 && body[end] >= '0' && body[end] <= '7' {
				end++
			}
			n, _ := strconv.ParseUint(body[i-1:end], 8, 32)
			if isBytes {
				n &= 0xff
			}
			value = append(value, rune(n))
			i = end

		case c == 'x':
			r, ok := hexEscape(body, i, 2)
			if !ok {
				return nil, false
			}
			value = append(value, r)
			i += 2

		case (c == 'u' || c == 'U') && !isBytes:
			width := 4
			if c == 'U' {
				width = 8
			}
			r, ok := hexEscape(body, i, width)
			if !ok || !utf8.ValidRune(r) {
				return nil, false
			}
			value = append(value, r)
			i += width

		case c == 'N' && !isBytes:
			return nil, false

		default:
			// unknown escapes keep their backslash
			value = append(value, '\\')
			r, size := utf8.DecodeRuneInString(body[i-1:])
			value = append(value, r)
			i += size - 1
		}
	}

	return value, true
}

func hexEscape(body string, start, width int) (rune, bool) {
	if start+width > len(body) {
		return 0, false
	}
	n, err := strconv.ParseUint(body[start:start+width], 16, 32)
	if err != nil {
		return 0, false
	}
	return rune(n), true
}

// repr renders the value like Python's repr(): single quotes unless the value
// holds a single quote and no double quote.
func (lit stringLiteral) repr() string {
	quote := '\''
	if containsRune(lit.value, '\'') && !containsRune(lit.value, '"') {
		quote = '"'
	}

	var sb strings.Builder
	if lit.isBytes {
		sb.WriteByte('b')
	} else if lit.uPrefix {
		sb.WriteByte('u')
	}
	sb.WriteRune(quote)

	for _, r := range lit.value {
		switch {
		case r == quote || r == '\\':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case r == '\t':
			sb.WriteString(`\t`)
		case r == '\n':
			sb.WriteString(`\n`)
		case r == '\r':
			sb.WriteString(`\r`)
		case r < ' ' || r == 0x7f:
			fmt.Fprintf(&sb, `\x%02x`, r)
		case r < utf8.RuneSelf:
			sb.WriteRune(r)
		case lit.isBytes || (!unicode.IsPrint(r) && r <= 0xff):
			fmt.Fprintf(&sb, `\x%02x`, r)
		case unicode.IsPrint(r):
			sb.WriteRune(r)
		case r <= 0xffff:
			fmt.Fprintf(&sb, `\u%04x`, r)
		default:
			fmt.Fprintf(&sb, `\U%08x`, r)
		}
	}

	sb.WriteRune(quote)
	return sb.String()
}

func containsRune(value []rune, target rune) bool {
	for _, r := range value {
		if r == target {
			return true
		}
	}
	return false
}
