package cli

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"

	"github.com/simdjq/simdjq/internal/parser"
	"github.com/simdjq/simdjq/internal/value"
)

// NamedArgs resolves --arg/--argjson/--slurpfile into the map threaded into
// eval.NewRootEnv, plus the $ARGS.named/$ARGS.positional object jq filters
// read via `$ARGS`.
type NamedArgs struct {
	Values map[string]value.Value
	Order  []string // order in which names were first set; $ARGS.named follows it
}

func newNamedArgs() *NamedArgs {
	return &NamedArgs{Values: map[string]value.Value{}}
}

func (n *NamedArgs) set(name string, v value.Value) {
	if _, exists := n.Values[name]; !exists {
		n.Order = append(n.Order, name)
	}
	n.Values[name] = v
}

// AddArg implements --arg NAME=VALUE: VALUE is bound as a jq string,
// unconditionally, the way jq's own --arg never tries to guess the type.
func (n *NamedArgs) AddArg(name, v string) { n.set(name, value.String(v)) }

// AddArgJSON implements --argjson NAME=JSON: JSON is parsed as a JSON
// document and bound as whatever value results.
func (n *NamedArgs) AddArgJSON(name, json string) error {
	v, err := decodeJSONScratch(json)
	if err != nil {
		return fmt.Errorf("--argjson %s: %w", name, err)
	}
	n.set(name, v)
	return nil
}

// AddSlurpfile implements --slurpfile NAME=FILE: the named variable is
// bound to an array of every top-level JSON value in FILE, parsed with the
// same parser the main pipeline uses rather than a second JSON decoder.
func (n *NamedArgs) AddSlurpfile(name, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("--slurpfile %s: %w", name, err)
	}
	var items []value.Value
	handle := parser.NewParser(parser.WithNumberText(true))
	err = handle.IterateMany(parser.PadBuffer(data), func(t *parser.Tape) error {
		v, err := value.DecodeDocument(t)
		if err != nil {
			return err
		}
		items = append(items, v)
		return nil
	})
	if err != nil {
		return fmt.Errorf("--slurpfile %s: %w", name, err)
	}
	n.set(name, value.NewArray(items))
	return nil
}

// ToArgsObject builds the $ARGS value jq filters can read directly:
// {"positional": [...], "named": {...}}.
func (n *NamedArgs) ToArgsObject(positional []string, jsonPositional bool) (value.Value, error) {
	named := value.NewEmptyObject()
	for _, k := range n.Order {
		named = named.Set(k, n.Values[k])
	}
	var posVals []value.Value
	for _, p := range positional {
		if jsonPositional {
			v, err := decodeJSONScratch(p)
			if err != nil {
				return value.Value{}, fmt.Errorf("--jsonargs %q: %w", p, err)
			}
			posVals = append(posVals, v)
		} else {
			posVals = append(posVals, value.String(p))
		}
	}
	obj := value.NewEmptyObject()
	obj = obj.Set("positional", value.NewArray(posVals))
	obj = obj.Set("named", value.NewObject(named))
	return value.NewObject(obj), nil
}

// decodeJSONScratch decodes a short, already-in-memory JSON value (a CLI
// argument, never a multi-megabyte document) via json-iterator rather than
// standing up a full simdjq tape for a handful of bytes -- the teacher
// module's own codec dependency, reused here for exactly the small-scratch
// decoding role its own callers give it.
func decodeJSONScratch(s string) (value.Value, error) {
	var raw interface{}
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.UnmarshalFromString(s, &raw); err != nil {
		return value.Value{}, err
	}
	return fromInterface(raw), nil
}

func fromInterface(raw interface{}) value.Value {
	switch v := raw.(type) {
	case nil:
		return value.Null
	case bool:
		return value.Bool(v)
	case float64:
		return value.Double(v)
	case string:
		return value.String(v)
	case []interface{}:
		items := make([]value.Value, len(v))
		for i, e := range v {
			items[i] = fromInterface(e)
		}
		return value.NewArray(items)
	case map[string]interface{}:
		obj := value.NewEmptyObject()
		for k, e := range v {
			obj = obj.Set(k, fromInterface(e))
		}
		return value.NewObject(obj)
	default:
		return value.Null
	}
}
