package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foolcalls/pkg/store"
)

func TestFSStore_PutGetList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := store.NewFSStoreOn(afero.NewMemMapFs())

	day := time.Date(2020, 7, 14, 0, 0, 0, 0, time.UTC)
	keys := []string{
		store.DownloadedKey(day, "2020-07-13-b"),
		store.DownloadedKey(day, "2020-07-13-a"),
		store.StructuredKey("202007.1", "2020-07-13-a"),
	}
	for _, k := range keys {
		require.NoError(t, s.Put(ctx, k, []byte(k), store.PutOptions{
			ContentType: store.ContentTypeHTML,
			Metadata:    map[string]string{store.MetaCID: "x"},
		}))
	}

	got, err := s.Get(ctx, keys[0])
	require.NoError(t, err)
	assert.Equal(t, keys[0], string(got))

	listed, err := s.List(ctx, store.DownloadedPrefix)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"state=downloaded/rundate=20200714/cid=2020-07-13-a.gz",
		"state=downloaded/rundate=20200714/cid=2020-07-13-b.gz",
	}, listed)

	listed, err = s.List(ctx, store.StructuredPrefixFor("202007.1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"state=structured/version=202007.1/cid=2020-07-13-a.json"}, listed)

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	opts, err := s.Stat(ctx, keys[0])
	require.NoError(t, err)
	assert.Equal(t, store.ContentTypeHTML, opts.ContentType)
	assert.Equal(t, "x", opts.Metadata[store.MetaCID])
}

func TestFSStore_Missing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := store.NewFSStoreOn(afero.NewMemMapFs())

	_, err := s.Get(ctx, "state=downloaded/rundate=20200101/cid=nope.gz")
	assert.ErrorIs(t, err, store.ErrNotExist)

	keys, err := s.List(ctx, "state=structured/version=1/")
	require.NoError(t, err)
	assert.Empty(t, keys)

	err = s.Put(ctx, "../escape", []byte("x"), store.PutOptions{})
	assert.ErrorIs(t, err, store.ErrBadKey)
}

func TestFSStore_OnDisk(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := store.NewFSStore(t.TempDir())

	key := store.StructuredKey("v1", "2021-01-01-acme")
	require.NoError(t, s.Put(ctx, key, []byte(`{}`), store.PutOptions{ContentType: store.ContentTypeJSON}))

	keys, err := s.List(ctx, store.StructuredPrefix)
	require.NoError(t, err)
	assert.Equal(t, []string{key}, keys)
}

func TestParseDownloadedKey(t *testing.T) {
	t.Parallel()

	info, err := store.ParseDownloadedKey("state=downloaded/rundate=20200714/cid=2020-07-13-acme-acme-q2-2020.gz")
	require.NoError(t, err)
	assert.Equal(t, store.DownloadedKeyInfo{RunDate: "20200714", CID: "2020-07-13-acme-acme-q2-2020"}, info)

	for _, bad := range []string{
		"state=structured/version=1/cid=a.json",
		"state=downloaded/rundate=2020/cid=a.gz",
		"state=downloaded/rundate=20200714/a.gz",
		"state=downloaded/rundate=20200714/cid=a.json",
		"state=downloaded/rundate=20200714/extra/cid=a.gz",
	} {
		_, err := store.ParseDownloadedKey(bad)
		assert.ErrorIs(t, err, store.ErrBadKey, bad)
	}
}

func TestParseStructuredKey(t *testing.T) {
	t.Parallel()

	version, cid, err := store.ParseStructuredKey(store.StructuredKey("202007.1", "2020-07-13-acme"))
	require.NoError(t, err)
	assert.Equal(t, "202007.1", version)
	assert.Equal(t, "2020-07-13-acme", cid)

	_, _, err = store.ParseStructuredKey("state=structured/cid=x.json")
	assert.ErrorIs(t, err, store.ErrBadKey)
}

func TestGzip(t *testing.T) {
	t.Parallel()

	raw := []byte("<html><body>transcript</body></html>")
	packed, err := store.Gzip(raw)
	require.NoError(t, err)
	assert.True(t, store.IsGzip(packed))
	assert.False(t, store.IsGzip(raw))

	unpacked, err := store.Gunzip(packed)
	require.NoError(t, err)
	assert.Equal(t, raw, unpacked)

	_, err = store.Gunzip(raw)
	assert.Error(t, err)
}
