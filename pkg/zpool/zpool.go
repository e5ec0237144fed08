// Package zpool implements the pool command operations: create, destroy,
// history, and list.
package zpool

import (
	"fmt"
	"strings"

	"github.com/dozefs/dozefs/pkg/dataset"
	"github.com/dozefs/dozefs/pkg/history"
	"github.com/dozefs/dozefs/pkg/table"
)

// listFields are the columns the pool list command accepts. Only name and
// health carry values in this model; the capacity columns render as "-".
var listFields = []string{"name", "size", "alloc", "free", "cap", "health", "altroot"}

// Create adds a pool backed by the given disk directory and creates its
// root filesystem.
func Create(root *dataset.Root, name, disk string) (*dataset.Pool, error) {
	if !dataset.ValidateComponent(name, false) {
		return nil, dataset.Errf(dataset.CodeInvalidIdentifier, name, "invalid pool name")
	}
	pool := root.Pool(name)
	if err := pool.Create(disk); err != nil {
		return nil, err
	}
	return pool, nil
}

// Destroy removes a pool's backing data and metadata.
func Destroy(root *dataset.Root, name string) error {
	return root.Pool(name).Destroy()
}

// History renders the command history of the named pools, or of every pool
// when none are named.
func History(root *dataset.Root, poolNames []string, long bool) (string, error) {
	pools, err := selectPools(root, poolNames)
	if err != nil {
		return "", err
	}

	var lines []string
	for _, pool := range pools {
		// Every pool has at least one record, from its own creation.
		lines = append(lines, fmt.Sprintf("History for '%s':", pool.Name()))
		records, err := history.Records(pool)
		if err != nil {
			return "", err
		}
		for _, r := range records {
			lines = append(lines, r.String(long))
		}
	}
	return strings.Join(lines, "\n"), nil
}

// List tabulates pools with the requested fields.
func List(root *dataset.Root, poolName string, headers table.FieldList, scriptable bool) (string, error) {
	if err := headers.ValidateAgainst(listFields...); err != nil {
		return "", err
	}

	var names []string
	if poolName != "" {
		names = []string{poolName}
	}
	pools, err := selectPools(root, names)
	if err != nil {
		return "", err
	}

	records := make([]map[string]string, len(pools))
	for i, pool := range pools {
		records[i] = map[string]string{"name": pool.Name(), "health": "ONLINE"}
	}
	return table.Tabulate(records, headers, table.Options{Scriptable: scriptable})
}

func selectPools(root *dataset.Root, names []string) ([]*dataset.Pool, error) {
	if len(names) == 0 {
		return root.Pools(), nil
	}
	pools := make([]*dataset.Pool, len(names))
	for i, name := range names {
		pool := root.Pool(name)
		if !pool.Exists() {
			return nil, dataset.Errf(dataset.CodeNoSuchPool, name, "no such pool")
		}
		pools[i] = pool
	}
	return pools, nil
}
