package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskStoreRoundTrip(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	url := "https://download.bls.gov/pub/time.series/ln/ln.lfst"

	got, err := store.Get(ctx, url)
	require.NoError(t, err)
	assert.Nil(t, got, "empty store should miss")

	e := &Entry{
		URL:          url,
		LastModified: "Wed, 01 Jan 2025 00:00:00 GMT",
		FetchedAt:    time.Now().UTC().Truncate(time.Second),
		Body:         []byte("lfst_code\tlfst_text\n10\tEmployed\n"),
	}
	require.NoError(t, store.Put(ctx, url, e))

	got, err = store.Get(ctx, url)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, e.LastModified, got.LastModified)
	assert.Equal(t, e.Body, got.Body)
	assert.True(t, e.FetchedAt.Equal(got.FetchedAt))
}

func TestDiskStoreCorruptEntryIsMiss(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDiskStore(dir)
	require.NoError(t, err)

	url := "https://example.test/file"
	require.NoError(t, os.WriteFile(filepath.Join(dir, Key(url)+".json"), []byte("{not json"), 0o644))

	got, err := store.Get(context.Background(), url)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDiskStoreOverwrite(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	url := "https://example.test/file"
	require.NoError(t, store.Put(ctx, url, &Entry{URL: url, Body: []byte("old")}))
	require.NoError(t, store.Put(ctx, url, &Entry{URL: url, Body: []byte("new")}))

	got, err := store.Get(ctx, url)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []byte("new"), got.Body)
}

func TestKeyIsStableAndDistinct(t *testing.T) {
	a := Key("https://example.test/a")
	b := Key("https://example.test/b")
	assert.Equal(t, a, Key("https://example.test/a"))
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 64)
}
