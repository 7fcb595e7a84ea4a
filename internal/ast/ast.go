// Package ast defines the filter language's abstract syntax tree and the
// recursive-descent parser that builds it. The tree is what the dispatcher
// pattern-matches against and what both the flat-token and value-tree
// evaluators walk; neither evaluator ever sees filter source text.
package ast

// Kind discriminates a Node's variant. One struct serves every node shape
// rather than one Go type per variant, matching how the teacher's tape
// format favors a single tagged representation over many small types.
type Kind uint8

const (
	KindIdentity Kind = iota
	KindRecurseDefault // ".."
	KindField          // .foo -- Str holds "foo"
	KindOptional       // X? -- Left holds X
	KindIndex          // X[Y] -- Left=X, Right=Y (Right nil means iterate-all X[])
	KindSlice          // X[lo:hi] -- Left=X, Lo, Hi (either may be nil)
	KindIterate        // X[] sugar, same shape as KindIndex with Right==nil

	KindPipe  // Left | Right
	KindComma // Left , Right

	KindNull
	KindBool    // Bool
	KindNumber  // Num, NumText (preserves source text)
	KindString  // Parts (a string without interpolation is one literal part)
	KindFormat  // @base64 etc. -- Str holds format name, Left holds piped-through filter (may be nil)

	KindArray  // [Left] -- Left may be nil for `[]`
	KindObject // ObjectEntries

	KindNeg // -Left
	KindBinOp // Left Op Right, Str holds Op: + - * / % == != < <= > >= (and/or are KindAnd/KindOr)
	KindAnd
	KindOr
	KindAlt // Left // Right

	KindVar   // $name -- Str
	KindFuncCall // Str = name, Args = arguments (0-arity call has empty Args)

	KindIf     // IfBranches (cond/body pairs) + Left as final else (nil => identity)
	KindTry    // Left=body, Right=handler (may be nil), Short reports `?` form
	KindReduce // Source as Pattern (Init; Update)
	KindForeach // Source as Pattern (Init; Update; Extract), Extract may be nil

	KindBind // Left as Patterns | Body  (several Patterns are ?// alternatives)
	KindFuncDef // Str=name, Params, Def=body, Rest (filter this def scopes over)

	KindLabel // label $out | Left
	KindBreak // break $out -- Str holds label name

	KindAssign     // Left = Right
	KindUpdateOp   // Left |= Right, Left += Right, etc. -- Str holds the operator text
)

// Pattern is a destructuring target for `as` bindings: a plain variable, an
// array pattern, or an object pattern (whose values are themselves Patterns
// via nested FuncCall-shaped nodes is overkill, so we model patterns
// directly).
type Pattern struct {
	Var    string     // set when this is a leaf $name binding
	Array  []*Pattern // set for [$a, $b] style patterns
	Object []ObjectPatternEntry
}

// ObjectPatternEntry is one `key: pattern` or `$key` entry of an object
// destructuring pattern.
type ObjectPatternEntry struct {
	KeyVar   string   // set for the {$a} shorthand: key "a", binds $a
	KeyExpr  *Node    // set for {(expr): pattern}
	KeyName  string   // set for {ident: pattern} and {"lit": pattern}
	Value    *Pattern
}

// ObjectEntry is one key/value pair of an object construction expression.
// A bare `{$x}` or `{foo}` shorthand entry has Value == nil, meaning "look
// the key up against the current input the way the key's own expression
// implies".
type ObjectEntry struct {
	KeyVar  string // {$x} / {$x: V} shorthand: key name "x"
	KeyName string // {foo: V} / {foo}: literal key "foo"
	KeyExpr *Node  // {(EXPR): V}: computed key
	Value   *Node  // nil for shorthand forms
}

// IfBranch is one `if`/`elif` condition/body pair.
type IfBranch struct {
	Cond *Node
	Body *Node
}

// StringPart is one piece of an interpolated string: either a literal
// fragment (Lit, Expr == nil) or an interpolation `\(EXPR)` (Expr set).
type StringPart struct {
	Lit  string
	Expr *Node
}

// Node is one AST node. Only the fields relevant to Kind are populated;
// callers must switch on Kind before reading any other field.
type Node struct {
	Kind Kind

	Left  *Node
	Right *Node

	Str     string // field name, variable name, function name, format name, operator text
	Bool    bool
	Num     float64
	NumText string // preserved source text of a number literal, when not canonical
	Parts   []StringPart

	Lo, Hi *Node // KindSlice bounds

	Args    []*Node       // KindFuncCall arguments
	Entries []ObjectEntry // KindObject

	IfBranches []IfBranch

	// KindReduce / KindForeach
	Source  *Node
	Pattern *Pattern
	Init    *Node
	Update  *Node
	Extract *Node // foreach's optional third (extract) clause

	// KindBind
	Patterns []*Pattern // one or more `as` alternatives via `?//`
	Body     *Node

	// KindFuncDef
	Params []string
	Def    *Node // function body
	Rest   *Node // filter this definition scopes over

	Short bool // KindTry: true when written as postfix `?` rather than try/catch
}

// Position records where in the source text a parse error occurred.
type Position struct {
	Line, Col int
	Offset    int
}
