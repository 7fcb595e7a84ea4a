package engine

import (
	"strings"

	"github.com/fatih/color"
)

// Colors loosely follow jq's own --color-output palette: punctuation dim,
// null bold dim, booleans and numbers plain, strings green, object keys bold
// blue.
var (
	colorPunct  = color.New(color.FgHiBlack)
	colorNull   = color.New(color.FgHiBlack, color.Bold)
	colorBool   = color.New(color.FgWhite)
	colorNumber = color.New(color.FgWhite)
	colorString = color.New(color.FgGreen)
	colorKey    = color.New(color.FgBlue, color.Bold)
)

// colorizeJSON re-scans text -- already-valid JSON from ToJSONText or a raw
// dispatch slice -- and wraps each token in the ANSI style fatih/color
// assigns its kind. Re-scanning the serialized text rather than threading a
// color mode through the encoder keeps every other formatting path (sort
// keys, tab/indent width, ASCII escaping) unaware that color exists at all.
func colorizeJSON(text string) string {
	var b strings.Builder
	b.Grow(len(text) + 16)
	i, n := 0, len(text)
	for i < n {
		c := text[i]
		switch {
		case c == '"':
			j := scanString(text, i)
			lit := text[i:j]
			if nextSignificant(text, j) == ':' {
				colorKey.Fprint(&b, lit)
			} else {
				colorString.Fprint(&b, lit)
			}
			i = j

		case c == '{' || c == '}' || c == '[' || c == ']' || c == ':' || c == ',':
			colorPunct.Fprint(&b, string(c))
			i++

		case strings.HasPrefix(text[i:], "null"):
			colorNull.Fprint(&b, "null")
			i += 4

		case strings.HasPrefix(text[i:], "true"):
			colorBool.Fprint(&b, "true")
			i += 4

		case strings.HasPrefix(text[i:], "false"):
			colorBool.Fprint(&b, "false")
			i += 5

		case c == '-' || (c >= '0' && c <= '9'):
			j := scanNumber(text, i)
			colorNumber.Fprint(&b, text[i:j])
			i = j

		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

// scanString returns the index just past the closing quote of the string
// literal starting at text[i] (text[i] == '"'), honoring backslash escapes.
func scanString(text string, i int) int {
	j := i + 1
	for j < len(text) {
		switch text[j] {
		case '\\':
			j += 2
			continue
		case '"':
			return j + 1
		}
		j++
	}
	return j
}

// scanNumber returns the index just past the JSON number literal starting
// at text[i].
func scanNumber(text string, i int) int {
	j := i
	if j < len(text) && text[j] == '-' {
		j++
	}
	for j < len(text) {
		c := text[j]
		if (c >= '0' && c <= '9') || c == '.' || c == 'e' || c == 'E' || c == '+' || c == '-' {
			j++
			continue
		}
		break
	}
	return j
}

// nextSignificant returns the first non-whitespace byte at or after i, or 0
// if text runs out first.
func nextSignificant(text string, i int) byte {
	for ; i < len(text); i++ {
		switch text[i] {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return text[i]
		}
	}
	return 0
}
