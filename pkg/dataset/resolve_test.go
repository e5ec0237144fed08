package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	root := newTestRoot(t, "foo")
	require.NoError(t, root.Filesystem("foo/sub").Create(false))
	require.NoError(t, root.Snapshot("foo/sub", "s1").Create())

	ref, err := root.Resolve("foo/sub", KindFilesystem, MustExist)
	require.NoError(t, err)
	assert.Equal(t, KindFilesystem, ref.Kind())
	assert.Equal(t, "foo/sub", ref.Name())

	ref, err = root.Resolve("foo/sub@s1", KindSnapshot, MustExist)
	require.NoError(t, err)
	assert.Equal(t, KindSnapshot, ref.Kind())
	assert.Equal(t, "foo/sub@s1", ref.Name())

	_, err = root.Resolve("foo/sub@s1", KindFilesystem, MustExist)
	assert.True(t, IsCode(err, CodeTypeMismatch))

	_, err = root.Resolve("foo/sub", KindSnapshot, MustExist)
	assert.True(t, IsCode(err, CodeTypeMismatch))

	_, err = root.Resolve("foo/absent", KindAny, MustExist)
	assert.True(t, IsCode(err, CodeNotFound))

	_, err = root.Resolve("foo/sub", KindAny, MustNotExist)
	assert.True(t, IsCode(err, CodeExists))

	_, err = root.Resolve("nopool/sub", KindAny, MustNotExist)
	assert.True(t, IsCode(err, CodeNoSuchPool))
}

func refNames(refs []Ref) []string {
	names := make([]string, len(refs))
	for i, ref := range refs {
		names[i] = ref.Name()
	}
	return names
}

func TestAllDatasets(t *testing.T) {
	root := newTestRoot(t, "foo", "bar")
	require.NoError(t, root.Filesystem("foo/a").Create(false))
	require.NoError(t, root.Filesystem("foo/a/b").Create(false))
	require.NoError(t, root.Snapshot("foo/a", "s1").Create())
	require.NoError(t, root.Snapshot("foo/a/b", "s2").Create())

	// no identifiers: every filesystem and snapshot of every pool
	refs, err := root.AllDatasets(nil, []string{"all"}, false, 0)
	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]string{"bar", "foo", "foo/a", "foo/a/b", "foo/a@s1", "foo/a/b@s2"},
		refNames(refs))

	// default type keeps only filesystems
	refs, err = root.AllDatasets(nil, []string{"filesystem"}, false, 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"bar", "foo", "foo/a", "foo/a/b"}, refNames(refs))

	// snapshots of recursively expanded descendants survive a snap-only filter
	refs, err = root.AllDatasets([]string{"foo/a"}, []string{"snap"}, true, 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"foo/a@s1", "foo/a/b@s2"}, refNames(refs))

	// depth-limited expansion
	refs, err = root.AllDatasets([]string{"foo"}, []string{"filesystem"}, false, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"foo", "foo/a"}, refNames(refs))

	_, err = root.AllDatasets(nil, []string{"bogus"}, false, 0)
	assert.True(t, IsCode(err, CodeUnknownField))
}
