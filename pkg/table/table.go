// Package table renders record lists as aligned tables or tab-delimited
// script output for the list/get commands.
package table

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dozefs/dozefs/pkg/dataset"
)

// numericFields are right-aligned when tabulated.
var numericFields = map[string]bool{
	"alloc": true, "avail": true, "cap": true, "free": true,
	"refer": true, "size": true, "used": true,
}

// shorthand maps synonymous field names to their canonical form.
var shorthand = map[string]string{
	"available": "avail",
	"capacity":  "cap",
}

// FieldList is an ordered list of output field names, parsed from a
// comma-separated argument.
type FieldList struct {
	items []string
}

// ParseFields parses a comma-separated field list.
func ParseFields(s string) FieldList {
	return FieldList{items: strings.Split(s, ",")}
}

// Fields builds a FieldList from already-split names.
func Fields(names ...string) FieldList {
	return FieldList{items: names}
}

// Names returns the canonical field names, shorthand resolved.
func (l FieldList) Names() []string {
	names := make([]string, len(l.items))
	for i, item := range l.items {
		if canonical, ok := shorthand[item]; ok {
			names[i] = canonical
		} else {
			names[i] = item
		}
	}
	return names
}

// Items returns the raw field names as given by the user.
func (l FieldList) Items() []string {
	return l.items
}

// IsAll reports whether the list is the single field "all".
func (l FieldList) IsAll() bool {
	return len(l.items) == 1 && l.items[0] == "all"
}

// ValidateAgainst fails with an unrecognized-field error when any canonical
// name is not in the accepted set.
func (l FieldList) ValidateAgainst(accepted ...string) error {
	ok := make(map[string]bool, len(accepted))
	for _, a := range accepted {
		ok[a] = true
	}
	for _, name := range l.Names() {
		if !ok[name] {
			return dataset.Errf(dataset.CodeUnknownField, name, "unrecognized property name")
		}
	}
	return nil
}

// Options control tabulation.
type Options struct {
	// Scriptable produces tab-delimited rows with no header.
	Scriptable bool

	// SortAsc and SortDesc name fields to sort by, applied in order,
	// descending sorts after ascending ones.
	SortAsc  []string
	SortDesc []string
}

// Tabulate renders records (field name to value maps) using the ordered
// field list. Missing values render as "-". In the default mode each column
// is sized to its longest value, text columns left-aligned and numeric
// columns right-aligned, under an upper-cased header row.
func Tabulate(records []map[string]string, fields FieldList, opts Options) (string, error) {
	if len(records) == 0 {
		return "", nil
	}
	names := fields.Names()

	for _, field := range append(append([]string{}, opts.SortAsc...), opts.SortDesc...) {
		if !contains(names, field) {
			return "", dataset.Errf(dataset.CodeUnknownField, field, "no such column")
		}
	}
	sorted := make([]map[string]string, len(records))
	copy(sorted, records)
	for _, field := range opts.SortAsc {
		stableSortBy(sorted, field, false)
	}
	for _, field := range opts.SortDesc {
		stableSortBy(sorted, field, true)
	}

	cell := func(rec map[string]string, name string) string {
		if v := rec[name]; v != "" {
			return v
		}
		return "-"
	}

	var rows []string
	if opts.Scriptable {
		for _, rec := range sorted {
			vals := make([]string, len(names))
			for i, name := range names {
				vals[i] = cell(rec, name)
			}
			rows = append(rows, strings.Join(vals, "\t"))
		}
		return strings.Join(rows, "\n"), nil
	}

	// Column widths from data plus the header row.
	widths := make([]int, len(names))
	for i, name := range names {
		widths[i] = len(name)
		for _, rec := range sorted {
			if w := len(cell(rec, name)); w > widths[i] {
				widths[i] = w
			}
		}
	}
	format := func(vals []string) string {
		cells := make([]string, len(names))
		for i, v := range vals {
			if numericFields[names[i]] {
				cells[i] = fmt.Sprintf("%*s", widths[i], v)
			} else {
				cells[i] = fmt.Sprintf("%-*s", widths[i], v)
			}
		}
		return strings.Join(cells, "\t")
	}

	header := make([]string, len(names))
	for i, name := range names {
		header[i] = strings.ToUpper(name)
	}
	rows = append(rows, format(header))
	for _, rec := range sorted {
		vals := make([]string, len(names))
		for i, name := range names {
			vals[i] = cell(rec, name)
		}
		rows = append(rows, format(vals))
	}
	return strings.Join(rows, "\n"), nil
}

func stableSortBy(records []map[string]string, field string, desc bool) {
	sort.SliceStable(records, func(i, j int) bool {
		if desc {
			return records[i][field] > records[j][field]
		}
		return records[i][field] < records[j][field]
	})
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
