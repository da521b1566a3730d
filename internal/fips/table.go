// Package fips holds the county reference table used to join tabular
// datasets to region geometry by 5-digit state+county FIPS code.
package fips

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// Entry pairs a canonical county name with its 5-digit FIPS code.
type Entry struct {
	County string `json:"county" yaml:"county"`
	Code   int    `json:"fips_code" yaml:"fips_code"`
}

// massachusetts lists the 14 Massachusetts counties.
var massachusetts = []Entry{
	{County: "Barnstable County, Massachusetts", Code: 25001},
	{County: "Berkshire County, Massachusetts", Code: 25003},
	{County: "Bristol County, Massachusetts", Code: 25005},
	{County: "Dukes County, Massachusetts", Code: 25007},
	{County: "Essex County, Massachusetts", Code: 25009},
	{County: "Franklin County, Massachusetts", Code: 25011},
	{County: "Hampden County, Massachusetts", Code: 25013},
	{County: "Hampshire County, Massachusetts", Code: 25015},
	{County: "Middlesex County, Massachusetts", Code: 25017},
	{County: "Nantucket County, Massachusetts", Code: 25019},
	{County: "Norfolk County, Massachusetts", Code: 25021},
	{County: "Plymouth County, Massachusetts", Code: 25023},
	{County: "Suffolk County, Massachusetts", Code: 25025},
	{County: "Worcester County, Massachusetts", Code: 25027},
}

// Table is an immutable code and name index over a set of entries.
// The zero value is an empty table.
type Table struct {
	entries []Entry
	byCode  map[int]Entry
	byName  map[string]Entry
}

var maTable = NewTable(massachusetts)

// MassachusettsCounties returns the shared Massachusetts reference table.
func MassachusettsCounties() *Table {
	return maTable
}

// NewTable builds a table from entries. Later duplicates of a code or name
// are ignored so the first entry wins.
func NewTable(entries []Entry) *Table {
	t := &Table{
		entries: make([]Entry, 0, len(entries)),
		byCode:  make(map[int]Entry, len(entries)),
		byName:  make(map[string]Entry, len(entries)),
	}
	for _, e := range entries {
		if _, dup := t.byCode[e.Code]; dup {
			continue
		}
		t.entries = append(t.entries, e)
		t.byCode[e.Code] = e
		key := nameKey(e.County)
		if _, dup := t.byName[key]; !dup {
			t.byName[key] = e
		}
	}
	sort.Slice(t.entries, func(i, j int) bool { return t.entries[i].Code < t.entries[j].Code })
	return t
}

// Lookup returns the entry for a FIPS code.
func (t *Table) Lookup(code int) (Entry, bool) {
	if t == nil {
		return Entry{}, false
	}
	e, ok := t.byCode[code]
	return e, ok
}

// ByName returns the entry for a county name. Matching ignores case and
// surrounding whitespace, and accepts the short form without the state
// suffix ("suffolk county").
func (t *Table) ByName(name string) (Entry, bool) {
	if t == nil {
		return Entry{}, false
	}
	key := nameKey(name)
	if e, ok := t.byName[key]; ok {
		return e, true
	}
	for _, e := range t.entries {
		short, _, _ := strings.Cut(e.County, ",")
		if nameKey(short) == key {
			return e, true
		}
	}
	return Entry{}, false
}

// Entries returns a copy of the entries ordered by code.
func (t *Table) Entries() []Entry {
	if t == nil {
		return nil
	}
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// nameKey normalizes a county name for lookup. Casers are stateful, so
// each call gets its own.
func nameKey(s string) string {
	return cases.Fold().String(strings.Join(strings.Fields(s), " "))
}
