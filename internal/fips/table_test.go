package fips

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMassachusettsCounties(t *testing.T) {
	tbl := MassachusettsCounties()
	require.Equal(t, 14, tbl.Len())

	e, ok := tbl.Lookup(25025)
	require.True(t, ok)
	assert.Equal(t, "Suffolk County, Massachusetts", e.County)

	_, ok = tbl.Lookup(25029)
	assert.False(t, ok)
}

func TestEntries_SortedAndCopied(t *testing.T) {
	tbl := MassachusettsCounties()
	entries := tbl.Entries()
	for i := 1; i < len(entries); i++ {
		assert.Less(t, entries[i-1].Code, entries[i].Code)
	}

	entries[0].Code = 99999
	e, ok := tbl.Lookup(25001)
	require.True(t, ok)
	assert.Equal(t, 25001, e.Code)
}

func TestByName(t *testing.T) {
	tbl := MassachusettsCounties()

	e, ok := tbl.ByName("Middlesex County, Massachusetts")
	require.True(t, ok)
	assert.Equal(t, 25017, e.Code)

	e, ok = tbl.ByName("  middlesex   COUNTY, massachusetts ")
	require.True(t, ok)
	assert.Equal(t, 25017, e.Code)

	e, ok = tbl.ByName("nantucket county")
	require.True(t, ok)
	assert.Equal(t, 25019, e.Code)

	_, ok = tbl.ByName("Cook County, Illinois")
	assert.False(t, ok)
}

func TestNewTable_FirstDuplicateWins(t *testing.T) {
	tbl := NewTable([]Entry{
		{County: "A", Code: 1},
		{County: "B", Code: 1},
		{County: "C", Code: 2},
	})
	assert.Equal(t, 2, tbl.Len())
	e, ok := tbl.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, "A", e.County)
}

func TestNilTable(t *testing.T) {
	var tbl *Table
	assert.Equal(t, 0, tbl.Len())
	assert.Nil(t, tbl.Entries())
	_, ok := tbl.Lookup(25001)
	assert.False(t, ok)
	_, ok = tbl.ByName("Suffolk County")
	assert.False(t, ok)
}
