package repository

import (
	"context"
	"errors"
	"fmt"
	"go-access-gate/model"
	"os"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPath = "/data/links.json"

func newMemStore(t *testing.T) (*FileTokenStore, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/data", 0o755))
	return NewFileTokenStore(fs, testPath), fs
}

func TestFileTokenStore_LoadMissingFileIsEmpty(t *testing.T) {
	store, _ := newMemStore(t)

	table, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, table)
	assert.Empty(t, table)
}

func TestFileTokenStore_LoadEmptyFileIsEmpty(t *testing.T) {
	store, fs := newMemStore(t)
	require.NoError(t, afero.WriteFile(fs, testPath, []byte("  \n"), 0o600))

	table, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, table)
}

func TestFileTokenStore_SaveThenLoad(t *testing.T) {
	store, fs := newMemStore(t)
	ctx := context.Background()

	in := model.TokenTable{
		"abc": {ExpiresAt: 1700000000000},
		"def": {ExpiresAt: 1700000360000},
	}
	require.NoError(t, store.Save(ctx, in))

	out, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	raw, err := afero.ReadFile(fs, testPath)
	require.NoError(t, err)
	assert.JSONEq(t, `{"abc":{"expiresAt":1700000000000},"def":{"expiresAt":1700000360000}}`, string(raw))
}

func TestFileTokenStore_SaveOverwritesAndLeavesNoTempFiles(t *testing.T) {
	store, fs := newMemStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, model.TokenTable{"old": {ExpiresAt: 1}}))
	require.NoError(t, store.Save(ctx, model.TokenTable{"new": {ExpiresAt: 2}}))

	out, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.TokenTable{"new": {ExpiresAt: 2}}, out)

	entries, err := afero.ReadDir(fs, "/data")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "links.json", entries[0].Name())
}

func TestFileTokenStore_LoadCorruptFile(t *testing.T) {
	store, fs := newMemStore(t)
	require.NoError(t, afero.WriteFile(fs, testPath, []byte("{not json"), 0o600))

	_, err := store.Load(context.Background())
	assert.Error(t, err)
}

func TestFileTokenStore_ReadFailure(t *testing.T) {
	store := NewFileTokenStore(afero.NewReadOnlyFs(afero.NewMemMapFs()), testPath)

	// A missing file on a read-only fs is still an empty table.
	table, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, table)

	err = store.Save(context.Background(), model.TokenTable{"a": {ExpiresAt: 1}})
	assert.Error(t, err)
	assert.ErrorIs(t, err, os.ErrPermission)
}

func TestFileTokenStore_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("saves when changed", func(t *testing.T) {
		store, _ := newMemStore(t)
		err := store.Update(ctx, func(table model.TokenTable) (bool, error) {
			table["x"] = model.TokenRecord{ExpiresAt: 42}
			return true, nil
		})
		require.NoError(t, err)

		out, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(42), out["x"].ExpiresAt)
	})

	t.Run("skips save when unchanged", func(t *testing.T) {
		store, fs := newMemStore(t)
		err := store.Update(ctx, func(table model.TokenTable) (bool, error) {
			table["ignored"] = model.TokenRecord{ExpiresAt: 1}
			return false, nil
		})
		require.NoError(t, err)

		exists, err := afero.Exists(fs, testPath)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("propagates fn error without saving", func(t *testing.T) {
		store, fs := newMemStore(t)
		boom := errors.New("boom")
		err := store.Update(ctx, func(table model.TokenTable) (bool, error) {
			table["ignored"] = model.TokenRecord{ExpiresAt: 1}
			return true, boom
		})
		assert.ErrorIs(t, err, boom)

		exists, _ := afero.Exists(fs, testPath)
		assert.False(t, exists)
	})
}

func TestFileTokenStore_ConcurrentUpdatesDoNotLoseWrites(t *testing.T) {
	store, _ := newMemStore(t)
	ctx := context.Background()

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := store.Update(ctx, func(table model.TokenTable) (bool, error) {
				table[fmt.Sprintf("token-%d", i)] = model.TokenRecord{ExpiresAt: int64(i)}
				return true, nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	table, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, table, writers)
}
