package eval

import (
	"encoding/base32"
	"encoding/base64"
	"net/url"
	"strings"

	"github.com/simdjq/simdjq/internal/ast"
	"github.com/simdjq/simdjq/internal/value"
)

// evalFormat implements `@base64` etc, both bare (applies to `.`) and
// piped into a string literal for interpolation (`@base64 "\(.)"`, where
// each interpolated piece is escaped instead of the whole result).
func evalFormat(n *ast.Node, in value.Value, env *Env, emit Emit) error {
	enc, ok := formatEncoders[n.Str]
	if !ok {
		return NewError("%s is not a valid format", n.Str)
	}
	if n.Left == nil {
		return emit(value.String(enc(in)))
	}
	if n.Left.Kind == ast.KindString {
		return evalFormatStringParts(n.Left.Parts, 0, "", enc, in, env, emit)
	}
	return Eval(n.Left, in, env, func(v value.Value) error {
		return emit(value.String(enc(v)))
	})
}

func evalFormatStringParts(parts []ast.StringPart, i int, acc string, enc func(value.Value) string, in value.Value, env *Env, emit Emit) error {
	if i == len(parts) {
		return emit(value.String(acc))
	}
	part := parts[i]
	if part.Expr == nil {
		return evalFormatStringParts(parts, i+1, acc+part.Lit, enc, in, env, emit)
	}
	return Eval(part.Expr, in, env, func(v value.Value) error {
		return evalFormatStringParts(parts, i+1, acc+enc(v), enc, in, env, emit)
	})
}

var formatEncoders = map[string]func(value.Value) string{
	"text":   formatText,
	"json":   formatJSON,
	"html":   formatHTML,
	"uri":    formatURI,
	"csv":    formatCSVRow,
	"tsv":    formatTSVRow,
	"sh":     formatSh,
	"base64": formatBase64,
	"base64d": formatBase64d,
	"base32": formatBase32,
	"base32d": formatBase32d,
}

func formatText(v value.Value) string {
	s, err := ToStringForInterpolation(v)
	if err != nil {
		return ""
	}
	return s
}

func formatJSON(v value.Value) string {
	s, _ := ToJSONText(v, false, false)
	return s
}

func formatHTML(v value.Value) string {
	s := formatText(v)
	replacer := strings.NewReplacer(
		"&", "&amp;", "<", "&lt;", ">", "&gt;", "'", "&#39;", `"`, "&quot;")
	return replacer.Replace(s)
}

func formatURI(v value.Value) string {
	return url.QueryEscape(formatText(v))
}

func formatCSVRow(v value.Value) string {
	arr, ok := v.Array()
	if !ok {
		return ""
	}
	fields := make([]string, arr.Len())
	for i := 0; i < arr.Len(); i++ {
		item := arr.At(i)
		switch item.Kind() {
		case value.KindString:
			s, _ := item.AsString()
			fields[i] = `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
		case value.KindNull:
			fields[i] = ""
		default:
			fields[i], _ = ToJSONText(item, false, false)
		}
	}
	return strings.Join(fields, ",")
}

func formatTSVRow(v value.Value) string {
	arr, ok := v.Array()
	if !ok {
		return ""
	}
	fields := make([]string, arr.Len())
	replacer := strings.NewReplacer("\\", `\\`, "\t", `\t`, "\n", `\n`, "\r", `\r`)
	for i := 0; i < arr.Len(); i++ {
		item := arr.At(i)
		switch item.Kind() {
		case value.KindString:
			s, _ := item.AsString()
			fields[i] = replacer.Replace(s)
		case value.KindNull:
			fields[i] = ""
		default:
			fields[i], _ = ToJSONText(item, false, false)
		}
	}
	return strings.Join(fields, "\t")
}

func formatSh(v value.Value) string {
	quote := func(s string) string {
		return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
	}
	if arr, ok := v.Array(); ok {
		parts := make([]string, arr.Len())
		for i := 0; i < arr.Len(); i++ {
			parts[i] = shQuoteOne(arr.At(i), quote)
		}
		return strings.Join(parts, " ")
	}
	return shQuoteOne(v, quote)
}

func shQuoteOne(v value.Value, quote func(string) string) string {
	if s, ok := v.AsString(); ok {
		return quote(s)
	}
	s, _ := ToJSONText(v, false, false)
	return s
}

func formatBase64(v value.Value) string {
	return base64.StdEncoding.EncodeToString([]byte(formatText(v)))
}

func formatBase64d(v value.Value) string {
	s := formatText(v)
	if n := len(s) % 4; n != 0 {
		s += strings.Repeat("=", 4-n)
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return ""
	}
	return string(b)
}

func formatBase32(v value.Value) string {
	return base32.StdEncoding.EncodeToString([]byte(formatText(v)))
}

func formatBase32d(v value.Value) string {
	b, err := base32.StdEncoding.DecodeString(formatText(v))
	if err != nil {
		return ""
	}
	return string(b)
}
