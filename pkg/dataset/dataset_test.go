package dataset

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

// newTestRoot returns a Root backed by a temp directory with one pool
// created per name, each on its own temp disk.
func newTestRoot(t *testing.T, pools ...string) *Root {
	t.Helper()
	root := NewRoot(t.TempDir())
	for _, name := range pools {
		require.NoError(t, root.Pool(name).Create(t.TempDir()))
	}
	return root
}

func writeTestFile(t *testing.T, dir, name, contents string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

// treeFiles lists the regular files under dir as sorted relative paths.
func treeFiles(t *testing.T, dir string) []string {
	t.Helper()
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return err
			}
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	require.NoError(t, err)
	sort.Strings(files)
	return files
}
