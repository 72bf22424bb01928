package introspect

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/driftnet/internal/testutil"
	"github.com/leapstack-labs/driftnet/pkg/adapter"
	"github.com/leapstack-labs/driftnet/pkg/core"
)

// fakeAdapter serves table metadata from memory. Keys are schema.table.
type fakeAdapter struct {
	tables  map[string][]string
	lookups []string
	failOn  string
}

func (f *fakeAdapter) Connect(context.Context, core.AdapterConfig) error { return nil }
func (f *fakeAdapter) Close() error                                      { return nil }
func (f *fakeAdapter) DialectName() string                               { return "fake" }

func (f *fakeAdapter) GetTableMetadata(_ context.Context, table string) (*core.TableMetadata, error) {
	f.lookups = append(f.lookups, table)
	if table == f.failOn {
		return nil, errors.New("connection reset")
	}
	key := table
	if !strings.Contains(key, ".") {
		key = "main." + key
	}
	cols, ok := f.tables[key]
	if !ok {
		return nil, &adapter.TableNotFoundError{Table: table}
	}
	meta := &core.TableMetadata{Name: table}
	for n, c := range cols {
		meta.Columns = append(meta.Columns, core.Column{Name: c, Position: n + 1})
	}
	return meta, nil
}

func (f *fakeAdapter) ListTables(_ context.Context, schema string) ([]string, error) {
	if schema == "" {
		schema = "main"
	}
	var out []string
	for k := range f.tables {
		if s, t, _ := strings.Cut(k, "."); s == schema {
			out = append(out, t)
		}
	}
	return out, nil
}

func newFake() *fakeAdapter {
	return &fakeAdapter{tables: map[string][]string{
		"main.users":   {"user_id", "email", "name"},
		"main.orders":  {"id", "total"},
		"sales.orders": {"id", "amount"},
	}}
}

func TestSources(t *testing.T) {
	fake := newFake()
	in := New(fake, WithLogger(testutil.NewTestLogger(t)))

	res, err := in.Sources(context.Background(), []string{"users", "df", "_", "orders"})
	require.NoError(t, err)

	assert.Equal(t, []string{"users", "orders"}, res.Schema.Sources())
	assert.Equal(t, []string{"df"}, res.NotFound)
	assert.NotContains(t, fake.lookups, "_")

	users, _ := res.Schema.Get("users")
	assert.Equal(t, []string{"email", "name", "user_id"}, users.Columns)
	assert.Nil(t, users.References)
}

func TestSources_TableMap(t *testing.T) {
	fake := newFake()
	in := New(fake, WithTableMap(map[string]string{"df": "users", "sales_df": "sales.orders"}))

	res, err := in.Sources(context.Background(), []string{"df", "sales_df"})
	require.NoError(t, err)
	assert.Empty(t, res.NotFound)

	df, ok := res.Schema.Get("df")
	require.True(t, ok)
	assert.Equal(t, []string{"email", "name", "user_id"}, df.Columns)

	sales, ok := res.Schema.Get("sales_df")
	require.True(t, ok)
	assert.Equal(t, []string{"amount", "id"}, sales.Columns)

	assert.Equal(t, "users", in.TableFor("df"))
	assert.Equal(t, "other", in.TableFor("other"))
}

func TestSources_AdapterError(t *testing.T) {
	fake := newFake()
	fake.failOn = "orders"

	_, err := New(fake).Sources(context.Background(), []string{"users", "orders"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "introspect orders")
}

func TestSources_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(newFake()).Sources(ctx, []string{"users"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestContract(t *testing.T) {
	contract := core.NewSchema()
	contract.Set("orders", core.SourceSchema{Columns: []string{"id"}})
	contract.Set("users", core.SourceSchema{Columns: []string{"email"}})

	res, err := New(newFake()).Contract(context.Background(), contract)
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "users"}, res.Schema.Sources())
}

func TestAll(t *testing.T) {
	res, err := New(newFake()).All(context.Background(), "sales")
	require.NoError(t, err)
	assert.Equal(t, []string{"sales.orders"}, res.Schema.Sources())

	res, err = New(newFake()).All(context.Background(), "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"users", "orders"}, res.Schema.Sources())
}
