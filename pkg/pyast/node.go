// Package pyast parses Python source and lowers the concrete syntax tree
// into a small tagged-node tree that schema detectors can dispatch on.
//
// Only the shapes detectors care about get their own kind. Everything
// else is an Other node that keeps its sub-expressions as Children, so a
// traversal still reaches every nested name, call and literal.
package pyast

// Kind tags a Node.
type Kind int

// Node kinds.
const (
	KindOther Kind = iota
	KindName
	KindAttribute
	KindSubscript
	KindCall
	KindKeyword
	KindString
	KindList
	KindDict
)

var kindNames = [...]string{
	KindOther:     "other",
	KindName:      "name",
	KindAttribute: "attribute",
	KindSubscript: "subscript",
	KindCall:      "call",
	KindKeyword:   "keyword",
	KindString:    "string",
	KindList:      "list",
	KindDict:      "dict",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Node is one lowered syntax node. Which fields are set depends on Kind:
//
//	Name       Name
//	Attribute  X (object), Name (attribute)
//	Subscript  X (value), Index
//	Call       X (callee), Args, Keywords
//	Keyword    Name ("" for **kwargs), X (value)
//	String     Value (decoded literal)
//	List       Elts
//	Dict       Keys, Values
//	Other      Children, Type
type Node struct {
	Kind  Kind
	Line  int
	Name  string
	Value string
	Type  string

	X        *Node
	Index    *Node
	Args     []*Node
	Keywords []*Node
	Elts     []*Node
	Keys     []*Node
	Values   []*Node
	Children []*Node
}

// Kids returns the direct children of n in visit order: receiver first,
// then positional arguments before keywords, dict keys before values.
func (n *Node) Kids() []*Node {
	if n == nil {
		return nil
	}
	var kids []*Node
	add := func(ns ...*Node) {
		for _, c := range ns {
			if c != nil {
				kids = append(kids, c)
			}
		}
	}
	add(n.X, n.Index)
	add(n.Args...)
	add(n.Keywords...)
	add(n.Elts...)
	add(n.Keys...)
	add(n.Values...)
	add(n.Children...)
	return kids
}

// Walk traverses the tree depth-first in pre-order and calls fn for each
// node. If fn returns false the children of that node are skipped.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Kids() {
		Walk(c, fn)
	}
}
