package history

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_Append(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)

	rec, err := s.Append(Record{
		Operation:    OpGenerate,
		FilesStaged:  3,
		FilesDeleted: 1,
		BytesStaged:  4096,
		Elapsed:      250 * time.Millisecond,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID, "zero ID is filled in")
	assert.False(t, rec.Time.IsZero(), "zero time is filled in")

	got, err := s.Get(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, OpGenerate, got.Operation)
	assert.Equal(t, 3, got.FilesStaged)
	assert.EqualValues(t, 4096, got.BytesStaged)
}

func TestStore_List(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := s.Append(Record{
			Operation: OpReconcile,
			Time:      base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	t.Run("newest first", func(t *testing.T) {
		records, err := s.List(0)
		require.NoError(t, err)
		require.Len(t, records, 5)
		for i := 0; i < len(records)-1; i++ {
			assert.True(t, records[i].Time.After(records[i+1].Time))
		}
	})

	t.Run("respects limit", func(t *testing.T) {
		records, err := s.List(2)
		require.NoError(t, err)
		assert.Len(t, records, 2)
		assert.Equal(t, base.Add(4*time.Minute), records[0].Time)
	})
}

func TestStore_List_Empty(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)

	records, err := s.List(0)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestStore_Get_NotFound(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)

	_, err := s.Get("no-such-id")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "history")

	s, err := Open(dir)
	require.NoError(t, err)
	rec, err := s.Append(Record{Operation: OpGenerate})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(dir)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	got, err := s.Get(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
}
