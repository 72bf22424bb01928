package pyast

import (
	"context"
	"fmt"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/leapstack-labs/driftnet/pkg/core"
)

// The grammar is immutable and safe to share; parsers are not.
var language = python.GetLanguage()

// Parse parses Python source and returns the lowered module node.
// Source that does not parse yields a *core.ParseError.
func Parse(src []byte) (*Node, error) {
	return ParseFile("", src)
}

// ParseFile is Parse with a file name used in error messages.
func ParseFile(filename string, src []byte) (*Node, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(language)

	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, &core.ParseError{File: filename, Line: 1, Column: 1, Msg: err.Error()}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		perr := syntaxError(root, src)
		perr.File = filename
		return nil, perr
	}

	l := &lowerer{src: src}
	mod := l.lower(root)
	if l.err != nil {
		l.err.File = filename
		return nil, l.err
	}
	return mod, nil
}

// syntaxError locates the first ERROR or MISSING node in document order.
func syntaxError(root *sitter.Node, src []byte) *core.ParseError {
	var found *sitter.Node
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if found != nil || n == nil {
			return
		}
		if n.Type() == "ERROR" || n.IsMissing() {
			found = n
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			visit(n.Child(i))
		}
	}
	visit(root)

	if found == nil {
		return &core.ParseError{Line: 1, Column: 1, Msg: "invalid syntax"}
	}
	pt := found.StartPoint()
	msg := "invalid syntax"
	if found.IsMissing() {
		msg = fmt.Sprintf("missing %s", found.Type())
	} else if text := found.Content(src); text != "" {
		msg = fmt.Sprintf("invalid syntax near %q", truncate(text, 20))
	}
	return &core.ParseError{Line: int(pt.Row) + 1, Column: int(pt.Column) + 1, Msg: msg}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// lowerer converts the concrete tree. The grammar also accepts some
// Python 2 forms and a few constructs the Python 3 compiler rejects; the
// first of those in document order is kept in err.
type lowerer struct {
	src []byte
	err *core.ParseError
}

func (l *lowerer) fail(n *sitter.Node, msg string) {
	if l.err != nil {
		return
	}
	pt := n.StartPoint()
	l.err = &core.ParseError{Line: int(pt.Row) + 1, Column: int(pt.Column) + 1, Msg: msg}
}

func lineOf(n *sitter.Node) int {
	return int(n.StartPoint().Row) + 1
}

// namedChildren returns the named children of n without comments.
func namedChildren(n *sitter.Node) []*sitter.Node {
	count := int(n.NamedChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		c := n.NamedChild(i)
		if c == nil || c.Type() == "comment" {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (l *lowerer) lower(n *sitter.Node) *Node {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "identifier":
		return &Node{Kind: KindName, Line: lineOf(n), Name: n.Content(l.src)}

	case "attribute":
		out := &Node{Kind: KindAttribute, Line: lineOf(n), X: l.lower(n.ChildByFieldName("object"))}
		if attr := n.ChildByFieldName("attribute"); attr != nil {
			out.Name = attr.Content(l.src)
		}
		return out

	case "subscript":
		return l.lowerSubscript(n)

	case "call":
		return l.lowerCall(n)

	case "keyword_argument":
		return l.lowerKeyword(n)

	case "string":
		return l.lowerString(n)

	case "concatenated_string":
		return l.lowerConcatenated(n)

	case "list":
		out := &Node{Kind: KindList, Line: lineOf(n)}
		for _, c := range namedChildren(n) {
			out.Elts = append(out.Elts, l.lower(c))
		}
		return out

	case "dictionary":
		return l.lowerDict(n)

	case "parenthesized_expression":
		kids := namedChildren(n)
		if len(kids) == 1 {
			return l.lower(kids[0])
		}
		return l.other(n)

	case "print_statement", "exec_statement":
		l.fail(n, fmt.Sprintf("Missing parentheses in call to '%s'", strings.TrimSuffix(n.Type(), "_statement")))
		return l.other(n)

	case "delete_statement":
		for _, c := range namedChildren(n) {
			l.checkDeleteTarget(c)
		}
		return l.other(n)

	case "conditional_expression":
		// body if test else orelse is visited test first.
		out := l.other(n)
		if len(out.Children) == 3 {
			c := out.Children
			out.Children = []*Node{c[1], c[0], c[2]}
		}
		return out

	case "decorated_definition":
		return l.lowerDecorated(n)

	case "function_definition", "class_definition":
		return l.lowerDefinition(n, nil)

	case "lambda":
		out := &Node{Kind: KindOther, Line: lineOf(n), Type: n.Type()}
		if params := n.ChildByFieldName("parameters"); params != nil {
			out.Children = append(out.Children, l.lowerParameters(params))
		}
		if body := l.lower(n.ChildByFieldName("body")); body != nil {
			out.Children = append(out.Children, body)
		}
		return out

	default:
		return l.other(n)
	}
}

func (l *lowerer) other(n *sitter.Node) *Node {
	out := &Node{Kind: KindOther, Line: lineOf(n), Type: n.Type()}
	for _, c := range namedChildren(n) {
		if low := l.lower(c); low != nil {
			out.Children = append(out.Children, low)
		}
	}
	return out
}

func (l *lowerer) lowerSubscript(n *sitter.Node) *Node {
	out := &Node{Kind: KindSubscript, Line: lineOf(n), X: l.lower(n.ChildByFieldName("value"))}

	kids := namedChildren(n)
	var indexes []*sitter.Node
	if len(kids) > 1 {
		indexes = kids[1:]
	}
	trailingComma := false
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); c != nil && c.Type() == "," {
			trailingComma = true
		}
	}

	if len(indexes) == 1 && !trailingComma {
		out.Index = l.lower(indexes[0])
		return out
	}
	tuple := &Node{Kind: KindOther, Line: out.Line, Type: "tuple"}
	for _, c := range indexes {
		tuple.Children = append(tuple.Children, l.lower(c))
	}
	out.Index = tuple
	return out
}

func (l *lowerer) lowerCall(n *sitter.Node) *Node {
	out := &Node{Kind: KindCall, Line: lineOf(n), X: l.lower(n.ChildByFieldName("function"))}
	args := n.ChildByFieldName("arguments")
	if args == nil {
		return out
	}
	if args.Type() != "argument_list" {
		out.Args = append(out.Args, l.lower(args))
		return out
	}
	var sawKeyword, sawKwargs bool
	for _, c := range namedChildren(args) {
		switch c.Type() {
		case "keyword_argument":
			sawKeyword = true
			out.Keywords = append(out.Keywords, l.lowerKeyword(c))
		case "dictionary_splat":
			sawKwargs = true
			out.Keywords = append(out.Keywords, &Node{Kind: KindKeyword, Line: lineOf(c), X: l.other(c)})
		case "list_splat":
			if sawKwargs {
				l.fail(c, "iterable argument unpacking follows keyword argument unpacking")
			}
			out.Args = append(out.Args, l.lower(c))
		default:
			switch {
			case sawKwargs:
				l.fail(c, "positional argument follows keyword argument unpacking")
			case sawKeyword:
				l.fail(c, "positional argument follows keyword argument")
			}
			out.Args = append(out.Args, l.lower(c))
		}
	}
	return out
}

// checkDeleteTarget rejects del targets that are not assignable.
func (l *lowerer) checkDeleteTarget(n *sitter.Node) {
	switch n.Type() {
	case "expression_list", "tuple", "list", "parenthesized_expression":
		for _, c := range namedChildren(n) {
			l.checkDeleteTarget(c)
		}
	case "call":
		l.fail(n, "cannot delete function call")
	case "string", "concatenated_string", "integer", "float", "true", "false", "none":
		l.fail(n, "cannot delete literal")
	}
}

// lowerDecorated attaches the decorators to the definition they wrap.
func (l *lowerer) lowerDecorated(n *sitter.Node) *Node {
	var decorators []*sitter.Node
	for _, c := range namedChildren(n) {
		if c.Type() == "decorator" {
			decorators = append(decorators, c)
		}
	}
	def := n.ChildByFieldName("definition")
	if def == nil {
		return l.other(n)
	}
	return l.lowerDefinition(def, decorators)
}

// lowerDefinition orders the parts of a function or class the way the
// Python compiler visits them: signature, body, decorators, then the
// return annotation. Class bases come before class keywords.
func (l *lowerer) lowerDefinition(n *sitter.Node, decorators []*sitter.Node) *Node {
	out := &Node{Kind: KindOther, Line: lineOf(n), Type: n.Type()}
	add := func(c *Node) {
		if c != nil {
			out.Children = append(out.Children, c)
		}
	}
	if len(decorators) > 0 {
		out.Line = lineOf(decorators[0])
	}

	if params := n.ChildByFieldName("parameters"); params != nil {
		add(l.lowerParameters(params))
	}
	if supers := n.ChildByFieldName("superclasses"); supers != nil {
		var keywords []*Node
		for _, c := range namedChildren(supers) {
			low := l.lower(c)
			if c.Type() == "keyword_argument" || c.Type() == "dictionary_splat" {
				keywords = append(keywords, low)
				continue
			}
			add(low)
		}
		for _, k := range keywords {
			add(k)
		}
	}
	add(l.lower(n.ChildByFieldName("body")))
	for _, d := range decorators {
		add(l.lower(d))
	}
	add(l.lower(n.ChildByFieldName("return_type")))
	if tp := n.ChildByFieldName("type_parameters"); tp != nil {
		add(l.lower(tp))
	}
	return out
}

// lowerParameters visits annotations before defaults: positional
// annotations, *args, keyword-only annotations and defaults, **kwargs,
// then positional defaults.
func (l *lowerer) lowerParameters(n *sitter.Node) *Node {
	out := &Node{Kind: KindOther, Line: lineOf(n), Type: n.Type()}
	var (
		posAnn, varAnn, kwAnn, kwDefaults, kwargAnn, posDefaults []*Node
		keywordOnly                                              bool
	)
	lowerField := func(c *sitter.Node, field string) *Node {
		return l.lower(c.ChildByFieldName(field))
	}
	for _, c := range namedChildren(n) {
		switch c.Type() {
		case "keyword_separator":
			keywordOnly = true
		case "list_splat_pattern":
			keywordOnly = true
		case "typed_parameter":
			ann := lowerField(c, "type")
			switch first := c.NamedChild(0); {
			case first != nil && first.Type() == "list_splat_pattern":
				keywordOnly = true
				varAnn = append(varAnn, ann)
			case first != nil && first.Type() == "dictionary_splat_pattern":
				kwargAnn = append(kwargAnn, ann)
			case keywordOnly:
				kwAnn = append(kwAnn, ann)
			default:
				posAnn = append(posAnn, ann)
			}
		case "default_parameter", "typed_default_parameter":
			ann := lowerField(c, "type")
			def := lowerField(c, "value")
			if keywordOnly {
				kwAnn = append(kwAnn, ann)
				kwDefaults = append(kwDefaults, def)
			} else {
				posAnn = append(posAnn, ann)
				posDefaults = append(posDefaults, def)
			}
		}
	}
	for _, group := range [][]*Node{posAnn, varAnn, kwAnn, kwDefaults, kwargAnn, posDefaults} {
		for _, c := range group {
			if c != nil {
				out.Children = append(out.Children, c)
			}
		}
	}
	return out
}

func (l *lowerer) lowerKeyword(n *sitter.Node) *Node {
	out := &Node{Kind: KindKeyword, Line: lineOf(n), X: l.lower(n.ChildByFieldName("value"))}
	if name := n.ChildByFieldName("name"); name != nil {
		out.Name = name.Content(l.src)
	}
	return out
}

func (l *lowerer) lowerDict(n *sitter.Node) *Node {
	out := &Node{Kind: KindDict, Line: lineOf(n)}
	for _, c := range namedChildren(n) {
		if c.Type() == "pair" {
			out.Keys = append(out.Keys, l.lower(c.ChildByFieldName("key")))
			out.Values = append(out.Values, l.lower(c.ChildByFieldName("value")))
			continue
		}
		// **mapping entries have no key.
		out.Values = append(out.Values, l.lower(c))
	}
	return out
}

func (l *lowerer) lowerString(n *sitter.Node) *Node {
	lit := splitLiteral(n.Content(l.src))
	switch {
	case lit.bytes():
		return &Node{Kind: KindOther, Line: lineOf(n), Type: "bytes"}
	case lit.fmt():
		out := &Node{Kind: KindOther, Line: lineOf(n), Type: "fstring"}
		var pending strings.Builder
		l.fstringParts(n, lit, out, &pending)
		flushFragment(out, &pending)
		return out
	default:
		return &Node{Kind: KindString, Line: lineOf(n), Value: l.decode(n, lit)}
	}
}

// decode decodes a plain literal, recording escapes the compiler rejects.
func (l *lowerer) decode(n *sitter.Node, lit literal) string {
	value, err := decodeBody(lit.body, lit.raw(), false)
	if err != nil {
		l.fail(n, err.Error())
	}
	return value
}

// fstringParts appends the parts of an f-string to out. Literal text
// accumulates in pending so that adjacent fragments, including those of
// neighbouring plain literals, form one String node.
func (l *lowerer) fstringParts(n *sitter.Node, lit literal, out *Node, pending *strings.Builder) {
	bodyStart := int(n.StartByte()) + len(lit.prefix) + lit.quoteLen
	bodyEnd := int(n.EndByte()) - lit.quoteLen
	if bodyEnd < bodyStart {
		return
	}

	var interps []*sitter.Node
	for _, c := range namedChildren(n) {
		if c.Type() == "interpolation" {
			interps = append(interps, c)
		}
	}
	sort.Slice(interps, func(i, j int) bool { return interps[i].StartByte() < interps[j].StartByte() })

	fragment := func(from, to int) {
		if to <= from {
			return
		}
		// Escapes inside f-strings are decoded leniently.
		text, _ := decodeBody(string(l.src[from:to]), lit.raw(), true)
		pending.WriteString(text)
	}

	cursor := bodyStart
	for _, in := range interps {
		fragment(cursor, int(in.StartByte()))
		expr := in.ChildByFieldName("expression")
		if expr == nil {
			if kids := namedChildren(in); len(kids) > 0 {
				expr = kids[0]
			}
		}
		if low := l.lower(expr); low != nil {
			flushFragment(out, pending)
			out.Children = append(out.Children, low)
		}
		cursor = int(in.EndByte())
	}
	fragment(cursor, bodyEnd)
}

func flushFragment(out *Node, pending *strings.Builder) {
	if pending.Len() == 0 {
		return
	}
	out.Children = append(out.Children, &Node{Kind: KindString, Line: out.Line, Value: pending.String()})
	pending.Reset()
}

// lowerConcatenated folds implicitly concatenated literals the way the
// Python compiler does: plain strings become one String node, and a run
// containing an f-string becomes one f-string whose adjacent literal text
// is merged.
func (l *lowerer) lowerConcatenated(n *sitter.Node) *Node {
	parts := namedChildren(n)
	var hasBytes, hasText, hasFString bool
	for _, p := range parts {
		if p.Type() != "string" {
			return l.other(n)
		}
		lit := splitLiteral(p.Content(l.src))
		switch {
		case lit.bytes():
			hasBytes = true
		case lit.fmt():
			hasText, hasFString = true, true
		default:
			hasText = true
		}
	}

	switch {
	case hasBytes && hasText:
		l.fail(n, "cannot mix bytes and nonbytes literals")
		return &Node{Kind: KindOther, Line: lineOf(n), Type: "bytes"}
	case hasBytes:
		return &Node{Kind: KindOther, Line: lineOf(n), Type: "bytes"}
	case hasFString:
		out := &Node{Kind: KindOther, Line: lineOf(n), Type: "fstring"}
		var pending strings.Builder
		for _, p := range parts {
			lit := splitLiteral(p.Content(l.src))
			if lit.fmt() {
				l.fstringParts(p, lit, out, &pending)
				continue
			}
			pending.WriteString(l.decode(p, lit))
		}
		flushFragment(out, &pending)
		return out
	default:
		var value strings.Builder
		for _, p := range parts {
			value.WriteString(l.decode(p, splitLiteral(p.Content(l.src))))
		}
		return &Node{Kind: KindString, Line: lineOf(n), Value: value.String()}
	}
}
