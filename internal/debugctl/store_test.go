package debugctl

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/29thnight/SwiftScript/internal/vm"
)

func TestStoreSaveLoadDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenStore(filepath.Join(dir, "breakpoints.db"))
	require.NoError(t, err)
	defer store.Close()

	bp := &Breakpoint{ID: "bp-1", File: "main.sws", Line: 7}
	require.NoError(t, store.Save(bp))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "main.sws", loaded[0].File)
	assert.Equal(t, 7, loaded[0].Line)

	require.NoError(t, store.Delete(bp.ID))
	loaded, err = store.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestStoreSaveUpserts(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenStore(filepath.Join(dir, "breakpoints.db"))
	require.NoError(t, err)
	defer store.Close()

	bp := &Breakpoint{ID: "bp-1", File: "main.sws", Line: 7}
	require.NoError(t, store.Save(bp))
	bp.Line = 9
	require.NoError(t, store.Save(bp))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, 9, loaded[0].Line)
}

func TestControllerWithStoreRestoresBreakpoints(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "breakpoints.db")

	store1, err := OpenStore(dbPath)
	require.NoError(t, err)
	c1 := New().WithStore(store1)
	c1.SetBreakpoint("main.sws", 42)
	require.NoError(t, store1.Close())

	store2, err := OpenStore(dbPath)
	require.NoError(t, err)
	defer store2.Close()
	c2 := New().WithStore(store2)

	assert.NotEqual(t, vm.ActionContinue, c2.BeforeLine("main.sws", 42, 1))
}
