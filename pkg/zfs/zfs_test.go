package zfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dozefs/dozefs/pkg/dataset"
)

func newTestRoot(t *testing.T, pools ...string) *dataset.Root {
	t.Helper()
	root := dataset.NewRoot(t.TempDir())
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

func refNames(refs []dataset.Ref) []string {
	names := make([]string, len(refs))
	for i, ref := range refs {
		names[i] = ref.Name()
	}
	return names
}

func TestParseAssignment(t *testing.T) {
	a, err := ParseAssignment("myvar=nothing")
	require.NoError(t, err)
	assert.Equal(t, PropertyAssignment{Key: "myvar", Value: "nothing"}, a)

	// empty values are allowed
	a, err = ParseAssignment("myvar=")
	require.NoError(t, err)
	assert.Equal(t, PropertyAssignment{Key: "myvar", Value: ""}, a)

	_, err = ParseAssignment("novalue")
	assert.True(t, dataset.IsCode(err, dataset.CodeInvalidPropertyFormat))

	_, err = ParseAssignment("bad key=x")
	assert.True(t, dataset.IsCode(err, dataset.CodeInvalidPropertyKey))
}

func TestCreateWithProperties(t *testing.T) {
	root := newTestRoot(t, "foo")

	ref, err := Create(root, "foo/sub", false, []PropertyAssignment{{Key: "myvar", Value: "42"}})
	require.NoError(t, err)
	assert.Equal(t, "foo/sub", ref.Name())

	value, source := dataset.Property(ref.Filesystem(), "myvar")
	assert.Equal(t, "42", value)
	assert.Equal(t, dataset.SourceLocal, source)

	_, err = Create(root, "foo/sub", false, nil)
	assert.True(t, dataset.IsCode(err, dataset.CodeExists))

	_, err = Create(root, "foo/a/b", false, nil)
	assert.True(t, dataset.IsCode(err, dataset.CodeParentMissing))

	_, err = Create(root, "nopool/sub", false, nil)
	assert.True(t, dataset.IsCode(err, dataset.CodeNoSuchPool))
}

func TestDestroy(t *testing.T) {
	root := newTestRoot(t, "foo")
	_, err := Create(root, "foo/a", false, nil)
	require.NoError(t, err)
	_, err = Create(root, "foo/a/b", false, nil)
	require.NoError(t, err)

	_, err = Destroy(root, "foo/a", false)
	assert.True(t, dataset.IsCode(err, dataset.CodeHasDependents))

	ref, err := Destroy(root, "foo/a", true)
	require.NoError(t, err)
	assert.Equal(t, "foo/a", ref.Name())
	assert.False(t, root.Filesystem("foo/a").Exists())
	assert.False(t, root.Filesystem("foo/a/b").Exists())

	_, err = Destroy(root, "foo/a", false)
	assert.True(t, dataset.IsCode(err, dataset.CodeNotFound))
}

func TestSnapshotBatch(t *testing.T) {
	root := newTestRoot(t, "foo", "bar")

	refs, err := Snapshot(root, []string{"foo@s1", "bar@s1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"foo@s1", "bar@s1"}, refNames(refs))
	assert.True(t, root.Snapshot("foo", "s1").Exists())
	assert.True(t, root.Snapshot("bar", "s1").Exists())
}

func TestSnapshotDuplicateInBatch(t *testing.T) {
	root := newTestRoot(t, "foo")

	// both entries resolve before either exists; the first commits, the
	// second fails when reached
	_, err := Snapshot(root, []string{"foo@dup", "foo@dup"}, nil)
	require.Error(t, err)
	assert.True(t, dataset.IsCode(err, dataset.CodeExists))
	assert.True(t, root.Snapshot("foo", "dup").Exists())
}

func TestSnapshotWithProperties(t *testing.T) {
	root := newTestRoot(t, "foo")

	refs, err := Snapshot(root, []string{"foo@s1"}, []PropertyAssignment{{Key: "reason", Value: "backup"}})
	require.NoError(t, err)
	value, source := dataset.Property(refs[0].Snapshot(), "reason")
	assert.Equal(t, "backup", value)
	assert.Equal(t, dataset.SourceLocal, source)
}

func TestRollback(t *testing.T) {
	root := newTestRoot(t, "foo")
	fs := root.Filesystem("foo")
	writeTestFile(t, fs.Mountpoint(), "f.txt", "v1")
	_, err := Snapshot(root, []string{"foo@s1"}, nil)
	require.NoError(t, err)
	writeTestFile(t, fs.Mountpoint(), "f.txt", "v2")

	ref, err := Rollback(root, "foo@s1")
	require.NoError(t, err)
	assert.Equal(t, "foo@s1", ref.Name())

	data, err := os.ReadFile(filepath.Join(fs.Mountpoint(), "f.txt"))
	require.NoError(t, err)
	assert.Equal(t, "v1", string(data))

	_, err = Rollback(root, "foo@absent")
	assert.True(t, dataset.IsCode(err, dataset.CodeNotFound))
}

func TestRenameFilesystem(t *testing.T) {
	root := newTestRoot(t, "foo", "bar")
	_, err := Create(root, "foo/old", false, nil)
	require.NoError(t, err)

	ref, err := Rename(root, "foo/old", "foo/new")
	require.NoError(t, err)
	assert.Equal(t, "foo/new", ref.Name())
	assert.False(t, root.Filesystem("foo/old").Exists())
	assert.True(t, root.Filesystem("foo/new").Exists())

	_, err = Rename(root, "foo/new", "bar/new")
	assert.True(t, dataset.IsCode(err, dataset.CodeMismatchedNamespace))
}

func TestRenameSnapshot(t *testing.T) {
	root := newTestRoot(t, "foo")
	_, err := Snapshot(root, []string{"foo@third"}, nil)
	require.NoError(t, err)

	// a bare target is a sibling snapshot of the same filesystem
	ref, err := Rename(root, "foo@third", "fourth")
	require.NoError(t, err)
	assert.Equal(t, "foo@fourth", ref.Name())
	assert.False(t, root.Snapshot("foo", "third").Exists())
	assert.True(t, root.Snapshot("foo", "fourth").Exists())

	_, err = Create(root, "foo/sub", false, nil)
	require.NoError(t, err)
	_, err = Snapshot(root, []string{"foo/sub@first"}, nil)
	require.NoError(t, err)

	_, err = Rename(root, "foo/sub@first", "foo@first")
	assert.True(t, dataset.IsCode(err, dataset.CodeMismatchedNamespace))

	// a bare target with a slash cannot name a sibling snapshot
	_, err = Rename(root, "foo/sub@first", "other/name")
	assert.True(t, dataset.IsCode(err, dataset.CodeInvalidIdentifier))
}

func TestCloneAndPromote(t *testing.T) {
	root := newTestRoot(t, "foo")
	fs := root.Filesystem("foo")
	writeTestFile(t, fs.Mountpoint(), "payload.txt", "data")
	_, err := Snapshot(root, []string{"foo@base"}, nil)
	require.NoError(t, err)

	ref, err := Clone(root, "foo@base", "foo/beta")
	require.NoError(t, err)
	clone := ref.Filesystem()

	value, source := dataset.Property(clone, dataset.OriginProperty)
	assert.Equal(t, "foo@base", value)
	assert.Equal(t, dataset.SourceLocal, source)
	assert.FileExists(t, filepath.Join(clone.Mountpoint(), "payload.txt"))

	_, err = Promote(root, "foo/beta")
	require.NoError(t, err)
	value, source = dataset.Property(clone, dataset.OriginProperty)
	assert.Empty(t, value)
	assert.Equal(t, dataset.SourceNone, source)
	assert.FileExists(t, filepath.Join(clone.Mountpoint(), "payload.txt"))

	// promoting twice is harmless
	_, err = Promote(root, "foo/beta")
	require.NoError(t, err)
}

func TestSetAndInherit(t *testing.T) {
	root := newTestRoot(t, "foo")
	_, err := Create(root, "foo/sub", false, nil)
	require.NoError(t, err)

	refs, err := Set(root, "myvar=nothing", []string{"foo"})
	require.NoError(t, err)
	assert.Equal(t, []string{"foo"}, refNames(refs))

	sub := root.Filesystem("foo/sub")
	value, source := dataset.Property(sub, "myvar")
	assert.Equal(t, "nothing", value)
	assert.Equal(t, dataset.SourceInherited, source)

	_, err = Set(root, "myvar=mine", []string{"foo/sub"})
	require.NoError(t, err)
	value, source = dataset.Property(sub, "myvar")
	assert.Equal(t, "mine", value)
	assert.Equal(t, dataset.SourceLocal, source)

	_, err = Inherit(root, "myvar", []string{"foo/sub"})
	require.NoError(t, err)
	value, source = dataset.Property(sub, "myvar")
	assert.Equal(t, "nothing", value)
	assert.Equal(t, dataset.SourceInherited, source)

	_, err = Set(root, "novalue", []string{"foo"})
	assert.True(t, dataset.IsCode(err, dataset.CodeInvalidPropertyFormat))

	_, err = Inherit(root, "bad/key", []string{"foo"})
	assert.True(t, dataset.IsCode(err, dataset.CodeInvalidPropertyKey))
}
