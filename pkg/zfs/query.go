package zfs

import (
	"sort"

	"github.com/dozefs/dozefs/pkg/dataset"
	"github.com/dozefs/dozefs/pkg/table"
)

// getFields are the columns the get command can display.
var getFields = []string{"name", "property", "value", "source"}

// GetOptions carry the get command's flags.
type GetOptions struct {
	// Headers is the -o field subset; "all" means every get column.
	Headers table.FieldList

	// Types filters the working set by dataset kind (-t).
	Types table.FieldList

	// Sources keeps only properties whose resolved source matches (-s).
	Sources table.FieldList

	Scriptable bool
	Recursive  bool
	MaxDepth   int
}

// DefaultGetOptions mirror the CLI defaults.
func DefaultGetOptions() GetOptions {
	return GetOptions{
		Headers: table.ParseFields("all"),
		Types:   table.ParseFields("filesystem"),
		Sources: table.ParseFields("local,inherited"),
	}
}

// Get renders the requested properties of the identified datasets, one row
// per dataset/property pair. Properties whose source does not match the
// sources filter are omitted; a property that is absent everywhere has
// source none and never matches.
func Get(root *dataset.Root, props table.FieldList, identifiers []string, opts GetOptions) (string, error) {
	headers := opts.Headers
	if headers.IsAll() {
		headers = table.Fields(getFields...)
	} else if err := headers.ValidateAgainst(getFields...); err != nil {
		return "", err
	}
	if err := opts.Sources.ValidateAgainst("local", "inherited"); err != nil {
		return "", err
	}
	wantSource := make(map[string]bool)
	for _, s := range opts.Sources.Names() {
		wantSource[s] = true
	}

	refs, err := root.AllDatasets(identifiers, opts.Types.Names(), opts.Recursive, opts.MaxDepth)
	if err != nil {
		return "", err
	}

	var records []map[string]string
	row := func(name, prop, value string, source dataset.Source) {
		if !wantSource[source.String()] {
			return
		}
		records = append(records, map[string]string{
			"name": name, "property": prop, "value": value, "source": source.String(),
		})
	}

	for _, ref := range refs {
		ds := ref.Dataset()
		if props.IsAll() {
			for _, kv := range sortedPairs(dataset.LocalProperties(ds)) {
				row(ref.Name(), kv[0], kv[1], dataset.SourceLocal)
			}
			for _, kv := range sortedPairs(dataset.InheritedProperties(ds)) {
				row(ref.Name(), kv[0], kv[1], dataset.SourceInherited)
			}
			continue
		}
		for _, prop := range props.Names() {
			value, source := dataset.Property(ds, prop)
			row(ref.Name(), prop, value, source)
		}
	}

	return table.Tabulate(records, headers, table.Options{Scriptable: opts.Scriptable})
}

// ListOptions carry the list command's flags.
type ListOptions struct {
	// Headers is the -o field list; unlike get, arbitrary property names
	// are allowed and missing values render as "-".
	Headers table.FieldList

	// Types filters the working set by dataset kind (-t).
	Types table.FieldList

	Scriptable bool
	Recursive  bool
	MaxDepth   int
	SortAsc    []string
	SortDesc   []string
}

// DefaultListOptions mirror the CLI defaults.
func DefaultListOptions() ListOptions {
	return ListOptions{
		Headers: table.ParseFields("name,used,available,refer,mountpoint"),
		Types:   table.ParseFields("filesystem"),
	}
}

// List tabulates one row per dataset in the working set, one column per
// requested property.
func List(root *dataset.Root, identifiers []string, opts ListOptions) (string, error) {
	refs, err := root.AllDatasets(identifiers, opts.Types.Names(), opts.Recursive, opts.MaxDepth)
	if err != nil {
		return "", err
	}

	records := make([]map[string]string, 0, len(refs))
	for _, ref := range refs {
		record := make(map[string]string, len(opts.Headers.Names()))
		for _, h := range opts.Headers.Names() {
			value, _ := dataset.Property(ref.Dataset(), h)
			record[h] = value
		}
		records = append(records, record)
	}

	return table.Tabulate(records, opts.Headers, table.Options{
		Scriptable: opts.Scriptable,
		SortAsc:    opts.SortAsc,
		SortDesc:   opts.SortDesc,
	})
}

func sortedPairs(m map[string]string) [][2]string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([][2]string, len(keys))
	for i, k := range keys {
		pairs[i] = [2]string{k, m[k]}
	}
	return pairs
}
