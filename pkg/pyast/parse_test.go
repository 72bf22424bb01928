package pyast

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/driftnet/pkg/core"
)

// collect returns every node of the given kind in walk order.
func collect(root *Node, kind Kind) []*Node {
	var out []*Node
	Walk(root, func(n *Node) bool {
		if n.Kind == kind {
			out = append(out, n)
		}
		return true
	})
	return out
}

func TestParse_Subscript(t *testing.T) {
	root, err := Parse([]byte("x = df['user_id']\n"))
	require.NoError(t, err)

	subs := collect(root, KindSubscript)
	require.Len(t, subs, 1)
	assert.Equal(t, KindName, subs[0].X.Kind)
	assert.Equal(t, "df", subs[0].X.Name)
	require.NotNil(t, subs[0].Index)
	assert.Equal(t, KindString, subs[0].Index.Kind)
	assert.Equal(t, "user_id", subs[0].Index.Value)
	assert.Equal(t, 1, subs[0].Line)
}

func TestParse_SubscriptTuple(t *testing.T) {
	for _, src := range []string{"df['a', 'b']\n", "df['a',]\n"} {
		t.Run(src, func(t *testing.T) {
			root, err := Parse([]byte(src))
			require.NoError(t, err)
			subs := collect(root, KindSubscript)
			require.Len(t, subs, 1)
			assert.Equal(t, KindOther, subs[0].Index.Kind)
			assert.Equal(t, "tuple", subs[0].Index.Type)
		})
	}
}

func TestParse_CallArguments(t *testing.T) {
	src := "df.merge(other, 'x', on='user_id', **extra)\n"
	root, err := Parse([]byte(src))
	require.NoError(t, err)

	calls := collect(root, KindCall)
	require.Len(t, calls, 1)
	call := calls[0]

	require.Equal(t, KindAttribute, call.X.Kind)
	assert.Equal(t, "merge", call.X.Name)
	assert.Equal(t, "df", call.X.X.Name)

	require.Len(t, call.Args, 2)
	assert.Equal(t, KindName, call.Args[0].Kind)
	assert.Equal(t, "x", call.Args[1].Value)

	require.Len(t, call.Keywords, 2)
	assert.Equal(t, "on", call.Keywords[0].Name)
	assert.Equal(t, "user_id", call.Keywords[0].X.Value)
	assert.Equal(t, "", call.Keywords[1].Name)
}

func TestParse_ContainerLiterals(t *testing.T) {
	root, err := Parse([]byte("a = ['x', y]\nb = {'k': 1, **rest}\n"))
	require.NoError(t, err)

	lists := collect(root, KindList)
	require.Len(t, lists, 1)
	require.Len(t, lists[0].Elts, 2)
	assert.Equal(t, "x", lists[0].Elts[0].Value)
	assert.Equal(t, KindName, lists[0].Elts[1].Kind)

	dicts := collect(root, KindDict)
	require.Len(t, dicts, 1)
	require.Len(t, dicts[0].Keys, 1)
	assert.Equal(t, "k", dicts[0].Keys[0].Value)
	assert.Len(t, dicts[0].Values, 2)
	assert.Equal(t, 2, dicts[0].Line)
}

func TestParse_StringLiterals(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"single quoted", `s = 'abc'`, "abc"},
		{"double quoted", `s = "abc"`, "abc"},
		{"escapes", `s = 'a\tb\x41é'`, "a\tbAé"},
		{"escaped quote", `s = 'it\'s'`, "it's"},
		{"unknown escape kept", `s = '\d+'`, `\d+`},
		{"raw", `s = r'\d+\n'`, `\d+\n`},
		{"triple", "s = '''a\nb'''", "a\nb"},
		{"implicit concatenation", `s = 'ab' "cd"`, "abcd"},
		{"parenthesized", `s = ('x')`, "x"},
		{"unicode prefix", `s = u'x'`, "x"},
		{"named escape", `s = '\N{BULLET}'`, "•"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := Parse([]byte(tt.src + "\n"))
			require.NoError(t, err)
			strs := collect(root, KindString)
			require.Len(t, strs, 1)
			assert.Equal(t, tt.want, strs[0].Value)
		})
	}
}

func TestParse_BytesAreNotStrings(t *testing.T) {
	root, err := Parse([]byte("s = b'abc'\n"))
	require.NoError(t, err)
	assert.Empty(t, collect(root, KindString))
}

func TestParse_FStringFragments(t *testing.T) {
	root, err := Parse([]byte(`q = f"SELECT {cols} FROM users WHERE id = {uid}"` + "\n"))
	require.NoError(t, err)

	var fstr *Node
	Walk(root, func(n *Node) bool {
		if n.Kind == KindOther && n.Type == "fstring" {
			fstr = n
			return false
		}
		return true
	})
	require.NotNil(t, fstr)

	var fragments, names []string
	for _, c := range fstr.Children {
		switch c.Kind {
		case KindString:
			fragments = append(fragments, c.Value)
		case KindName:
			names = append(names, c.Name)
		}
	}
	assert.Equal(t, []string{"SELECT ", " FROM users WHERE id = "}, fragments)
	assert.Equal(t, []string{"cols", "uid"}, names)
}

func TestParse_CommentsDropped(t *testing.T) {
	root, err := Parse([]byte("# leading\nx = 1  # trailing\n"))
	require.NoError(t, err)
	Walk(root, func(n *Node) bool {
		assert.NotEqual(t, "comment", n.Type)
		return true
	})
}

func TestParse_LineNumbers(t *testing.T) {
	src := "import pandas as pd\n\ndf = pd.read_csv('users.csv')\nnames = df['user_id']\n"
	root, err := Parse([]byte(src))
	require.NoError(t, err)

	subs := collect(root, KindSubscript)
	require.Len(t, subs, 1)
	assert.Equal(t, 4, subs[0].Line)

	calls := collect(root, KindCall)
	require.Len(t, calls, 1)
	assert.Equal(t, 3, calls[0].Line)
}

func TestParse_SyntaxError(t *testing.T) {
	_, err := ParseFile("broken.py", []byte("def broken(:\n    pass\n"))
	require.Error(t, err)

	var perr *core.ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "broken.py", perr.File)
	assert.Equal(t, 1, perr.Line)
	assert.Contains(t, err.Error(), "broken.py:1:")
}

func TestParse_Python2Statement(t *testing.T) {
	_, err := ParseFile("legacy.py", []byte("import os\n\nprint 'done'\n"))
	require.Error(t, err)

	var perr *core.ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "legacy.py", perr.File)
	assert.Equal(t, 3, perr.Line)
	assert.Equal(t, 1, perr.Column)
	assert.Equal(t, "Missing parentheses in call to 'print'", perr.Msg)
}

func TestParse_ConcatenatedFString(t *testing.T) {
	root, err := Parse([]byte(`q = ("SELECT a " f"FROM {tbl} " "WHERE x = {{1}}")` + "\n"))
	require.NoError(t, err)

	var fstr *Node
	Walk(root, func(n *Node) bool {
		if n.Kind == KindOther && n.Type == "fstring" {
			fstr = n
			return false
		}
		return true
	})
	require.NotNil(t, fstr)
	require.Len(t, fstr.Children, 3)
	assert.Equal(t, "SELECT a FROM ", fstr.Children[0].Value)
	assert.Equal(t, "tbl", fstr.Children[1].Name)
	assert.Equal(t, " WHERE x = {{1}}", fstr.Children[2].Value)
}

func TestParse_ConditionalVisitsTestFirst(t *testing.T) {
	root, err := Parse([]byte("x = a if b else c\n"))
	require.NoError(t, err)

	var names []string
	for _, n := range collect(root, KindName) {
		names = append(names, n.Name)
	}
	assert.Equal(t, []string{"x", "b", "a", "c"}, names)
}

func TestWalk_SkipChildren(t *testing.T) {
	root, err := Parse([]byte("df['a']['b']\n"))
	require.NoError(t, err)

	visited := 0
	Walk(root, func(n *Node) bool {
		if n.Kind == KindSubscript {
			visited++
			return false
		}
		return true
	})
	assert.Equal(t, 1, visited)
}
