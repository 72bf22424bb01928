package extract

import "github.com/leapstack-labs/driftnet/pkg/pyast"

// Unresolved is the source identifier of receivers that are not a name,
// attribute path, subscript or call chain.
const Unresolved = "_"

// Resolve reduces an expression to the identifier of the source it reads
// from. Subscripts and calls collapse onto their base, so df.loc['x'] and
// df.head() both resolve to the identifier of df.
func Resolve(n *pyast.Node) string {
	if n == nil {
		return Unresolved
	}
	switch n.Kind {
	case pyast.KindName:
		return n.Name
	case pyast.KindAttribute:
		return Resolve(n.X) + "." + n.Name
	case pyast.KindSubscript, pyast.KindCall:
		return Resolve(n.X)
	default:
		return Unresolved
	}
}
