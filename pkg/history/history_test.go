package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dozefs/dozefs/pkg/dataset"
)

func newTestPool(t *testing.T) *dataset.Pool {
	t.Helper()
	root := dataset.NewRoot(t.TempDir())
	pool := root.Pool("foo")
	require.NoError(t, pool.Create(t.TempDir()))
	return pool
}

func TestAppendAndRecords(t *testing.T) {
	pool := newTestPool(t)
	stamp := time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC)

	require.NoError(t, Append(pool, []string{"dozefs", "create", "foo/sub"}, stamp, "alice", "box1"))
	require.NoError(t, Append(pool, []string{"dozefs", "destroy", "foo/sub"}, stamp, "alice", "box1"))

	records, err := Records(pool)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, Record{
		Time:    "2024-03-01.12:30:45",
		Command: "dozefs create foo/sub",
		User:    "alice",
		Host:    "box1",
	}, records[0])
	assert.Equal(t, "dozefs destroy foo/sub", records[1].Command)
}

func TestAppendDefaults(t *testing.T) {
	pool := newTestPool(t)
	require.NoError(t, Append(pool, []string{"dozepool", "create", "foo", "/disk"}, time.Time{}, "", ""))

	records, err := Records(pool)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.NotEmpty(t, records[0].Time)
	assert.NotEmpty(t, records[0].Host)
}

func TestRecordString(t *testing.T) {
	r := Record{Time: "2024-03-01.12:30:45", Command: "dozefs snapshot foo@s1", User: "alice", Host: "box1"}
	assert.Equal(t, "2024-03-01.12:30:45 dozefs snapshot foo@s1", r.String(false))
	assert.Equal(t, "2024-03-01.12:30:45 dozefs snapshot foo@s1 [user alice on box1]", r.String(true))
}

func TestRecordsWithoutHistory(t *testing.T) {
	root := dataset.NewRoot(t.TempDir())
	pool := root.Pool("foo")
	require.NoError(t, pool.Create(t.TempDir()))
	require.NoError(t, pool.Destroy())

	records, err := Records(pool)
	require.NoError(t, err)
	assert.Empty(t, records)
}
