package analyzer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doge-run/doge/pkg/repomap/store"
)

const sampleGoSource = `package sample

// Greet says hello.
func Greet(name string) string {
	return "hello " + name
}
`

func writeSampleProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sample.go"), []byte(sampleGoSource), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "vendor"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vendor", "ignored.go"), []byte(sampleGoSource), 0644))
	return dir
}

func TestDriver_Build_ExtractsSymbolsAndSkipsVendor(t *testing.T) {
	dir := writeSampleProject(t)
	d := New(dir, nil)

	rm, hashes, err := d.Build(context.Background())
	require.NoError(t, err)

	require.Len(t, rm.Symbols, 1)
	assert.Equal(t, "Greet", rm.Symbols[0].Name)
	assert.Len(t, hashes, 1)
}

func TestDriver_BuildCached_UsesCacheWhenUnchanged(t *testing.T) {
	dir := writeSampleProject(t)
	st, err := store.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer st.Close()

	d := New(dir, st)

	first, _, err := d.BuildCached(context.Background())
	require.NoError(t, err)
	require.Len(t, first.Symbols, 1)

	rec, ok, err := st.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first, rec.Repomap)

	second, _, err := d.BuildCached(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDriver_BuildCached_RebuildsWhenFileChanges(t *testing.T) {
	dir := writeSampleProject(t)
	st, err := store.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer st.Close()

	d := New(dir, st)
	_, _, err = d.BuildCached(context.Background())
	require.NoError(t, err)

	updated := sampleGoSource + "\nfunc Farewell() string { return \"bye\" }\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sample.go"), []byte(updated), 0644))

	rm, _, err := d.BuildCached(context.Background())
	require.NoError(t, err)
	assert.Len(t, rm.Symbols, 2)
}

func TestDriver_ClearCache_ForcesRebuildOnNextCall(t *testing.T) {
	dir := writeSampleProject(t)
	st, err := store.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer st.Close()

	d := New(dir, st)
	_, _, err = d.BuildCached(context.Background())
	require.NoError(t, err)

	require.NoError(t, d.ClearCache())

	_, ok, err := st.Load()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDriver_ClearCache_NilStoreIsNoop(t *testing.T) {
	d := New(t.TempDir(), nil)
	assert.NoError(t, d.ClearCache())
}
