package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dozefs/dozefs/pkg/dataset"
)

func TestFieldList(t *testing.T) {
	fields := ParseFields("name,available,capacity")
	assert.Equal(t, []string{"name", "avail", "cap"}, fields.Names())
	assert.Equal(t, []string{"name", "available", "capacity"}, fields.Items())
	assert.False(t, fields.IsAll())
	assert.True(t, ParseFields("all").IsAll())

	require.NoError(t, fields.ValidateAgainst("name", "avail", "cap"))
	err := ParseFields("name,bogus").ValidateAgainst("name")
	require.Error(t, err)
	assert.True(t, dataset.IsCode(err, dataset.CodeUnknownField))
}

func TestTabulateAlignment(t *testing.T) {
	records := []map[string]string{
		{"name": "foo", "used": "105"},
		{"name": "foo/longer", "used": "5"},
	}
	out, err := Tabulate(records, Fields("name", "used"), Options{})
	require.NoError(t, err)

	// text columns pad right, numeric columns pad left, header upper-cased
	assert.Equal(t,
		"NAME      \tUSED\n"+
			"foo       \t 105\n"+
			"foo/longer\t   5",
		out)
}

func TestTabulateMissingValues(t *testing.T) {
	records := []map[string]string{{"name": "foo"}}
	out, err := Tabulate(records, Fields("name", "mountpoint"), Options{Scriptable: true})
	require.NoError(t, err)
	assert.Equal(t, "foo\t-", out)
}

func TestTabulateScriptable(t *testing.T) {
	records := []map[string]string{
		{"name": "foo", "mountpoint": "/a"},
		{"name": "bar", "mountpoint": "/b"},
	}
	out, err := Tabulate(records, Fields("name", "mountpoint"), Options{Scriptable: true})
	require.NoError(t, err)
	assert.Equal(t, "foo\t/a\nbar\t/b", out)
}

func TestTabulateSorting(t *testing.T) {
	records := []map[string]string{
		{"name": "foo", "myvar": "1"},
		{"name": "bar", "myvar": "2"},
	}

	out, err := Tabulate(records, Fields("name", "myvar"),
		Options{Scriptable: true, SortAsc: []string{"name"}})
	require.NoError(t, err)
	assert.Equal(t, "bar\t2\nfoo\t1", out)

	// the last sort flag dominates: stable sorts applied in order
	out, err = Tabulate(records, Fields("name", "myvar"),
		Options{Scriptable: true, SortAsc: []string{"myvar", "name"}})
	require.NoError(t, err)
	assert.Equal(t, "bar\t2\nfoo\t1", out)

	out, err = Tabulate(records, Fields("name", "myvar"),
		Options{Scriptable: true, SortDesc: []string{"name"}})
	require.NoError(t, err)
	assert.Equal(t, "foo\t1\nbar\t2", out)
}

func TestTabulateUnknownSortColumn(t *testing.T) {
	records := []map[string]string{{"name": "foo"}}
	_, err := Tabulate(records, Fields("name"), Options{SortAsc: []string{"unshown"}})
	require.Error(t, err)
	assert.True(t, dataset.IsCode(err, dataset.CodeUnknownField))
}

func TestTabulateEmpty(t *testing.T) {
	out, err := Tabulate(nil, Fields("name"), Options{})
	require.NoError(t, err)
	assert.Empty(t, out)
}
