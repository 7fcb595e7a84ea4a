package eval

import (
	"github.com/dlclark/regexp2"

	"github.com/simdjq/simdjq/internal/value"
)

// compileRegex builds a PCRE-style regexp honoring jq's flag letters:
// g (handled by the caller, not the engine), i, x, s, m, n, l, p. This
// package leans on regexp2 specifically because Go's stdlib regexp is
// RE2-only and cannot run the backreference/lookaround patterns jq's test
// suite exercises.
func compileRegex(pattern, flags string) (*regexp2.Regexp, error) {
	opts := regexp2.RE2
	for _, f := range flags {
		switch f {
		case 'i':
			opts |= regexp2.IgnoreCase
		case 'x':
			opts |= regexp2.IgnorePatternWhitespace
		case 's':
			opts |= regexp2.Singleline
		case 'm':
			opts |= regexp2.Multiline
		case 'g', 'n', 'l', 'p':
			// g: global match, handled by caller. n/l/p: jq-specific
			// modifiers (ignore empty matches / find longest / Oniguruma
			// compat) with no direct regexp2 equivalent; approximated by
			// doing nothing rather than failing the compile.
		default:
			return nil, NewError("%c is not a valid modifier string character", f)
		}
	}
	re, err := regexp2.Compile(pattern, opts)
	if err != nil {
		return nil, NewError("invalid regex: %v", err)
	}
	return re, nil
}

type matchResult struct {
	offset  int
	length  int
	text    string
	caps    []capResult
}

type capResult struct {
	offset int
	length int
	text   string
	name   string
}

func regexMatches(re *regexp2.Regexp, s string, global bool) ([]matchResult, error) {
	runes := []rune(s)
	var out []matchResult
	m, err := re.FindStringMatch(s)
	if err != nil {
		return nil, NewError("regex match failed: %v", err)
	}
	for m != nil {
		mr := matchResult{
			offset: runeOffsetOf(runes, s, m.Index),
			length: len([]rune(m.String())),
			text:   m.String(),
		}
		for _, g := range m.Groups() {
			if len(g.Captures) == 0 {
				mr.caps = append(mr.caps, capResult{offset: -1, length: 0, name: groupName(g)})
				continue
			}
			c := g.Captures[0]
			mr.caps = append(mr.caps, capResult{
				offset: runeOffsetOf(runes, s, c.Index),
				length: len([]rune(c.String())),
				text:   c.String(),
				name:   groupName(g),
			})
		}
		// drop the implicit whole-match group 0 from captures
		if len(mr.caps) > 0 {
			mr.caps = mr.caps[1:]
		}
		out = append(out, mr)
		if !global {
			break
		}
		m, err = re.FindNextMatch(m)
		if err != nil {
			return nil, NewError("regex match failed: %v", err)
		}
	}
	return out, nil
}

func groupName(g *regexp2.Group) string {
	if isNumericName(g.Name) {
		return ""
	}
	return g.Name
}

func isNumericName(s string) bool {
	if s == "" {
		return true
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// runeOffsetOf converts a byte offset in s to a rune offset, matching jq's
// codepoint-indexed `offset`/`length` fields.
func runeOffsetOf(runes []rune, s string, byteOffset int) int {
	count := 0
	for i := range s {
		if i >= byteOffset {
			return count
		}
		count++
	}
	return len(runes)
}

func matchToValue(m matchResult) value.Value {
	obj := value.NewEmptyObject()
	obj = obj.Set("offset", value.Int(int64(m.offset)))
	obj = obj.Set("length", value.Int(int64(m.length)))
	obj = obj.Set("string", value.String(m.text))
	caps := make([]value.Value, len(m.caps))
	for i, c := range m.caps {
		co := value.NewEmptyObject()
		co = co.Set("offset", value.Int(int64(c.offset)))
		co = co.Set("length", value.Int(int64(c.length)))
		if c.offset < 0 {
			co = co.Set("string", value.Null)
		} else {
			co = co.Set("string", value.String(c.text))
		}
		if c.name == "" {
			co = co.Set("name", value.Null)
		} else {
			co = co.Set("name", value.String(c.name))
		}
		caps[i] = value.NewObject(co)
	}
	obj = obj.Set("captures", value.NewArray(caps))
	return value.NewObject(obj)
}

func captureObject(m matchResult) value.Value {
	obj := value.NewEmptyObject()
	for _, c := range m.caps {
		if c.name == "" {
			continue
		}
		if c.offset < 0 {
			obj = obj.Set(c.name, value.Null)
		} else {
			obj = obj.Set(c.name, value.String(c.text))
		}
	}
	return value.NewObject(obj)
}

// parseRegexArgs extracts (pattern, flags) from jq's two calling
// conventions: test(re), test(re; flags), and test([re, flags]).
func parseRegexArgs(v value.Value, flagsArg string) (string, string, error) {
	if arr, ok := v.Array(); ok {
		if arr.Len() == 0 {
			return "", "", NewError("regex array must have at least a pattern")
		}
		pat, ok := arr.At(0).AsString()
		if !ok {
			return "", "", NewError("regex pattern must be a string")
		}
		flags := flagsArg
		if arr.Len() > 1 {
			if f, ok := arr.At(1).AsString(); ok {
				flags = f
			}
		}
		return pat, flags, nil
	}
	pat, ok := v.AsString()
	if !ok {
		return "", "", NewError("%s is not a string", v.TypeName())
	}
	return pat, flagsArg, nil
}
