package kvstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemGetPutDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMem()

	_, ok, err := store.Get(ctx, []byte("k"))
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Put(ctx, []byte("k"), []byte("v")))
	v, ok, err := store.Get(ctx, []byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v"), v)

	require.NoError(t, store.Delete(ctx, []byte("k")))
	_, ok, err = store.Get(ctx, []byte("k"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemIterPrefixOrder(t *testing.T) {
	ctx := context.Background()
	store := NewMem()

	for _, k := range []string{"m:b\x00", "m:a\x00", "m:b\x00c\x00", "c:hash-algorithm"} {
		require.NoError(t, store.Put(ctx, []byte(k), []byte(k)))
	}

	it, err := store.IterPrefix(ctx, []byte("m:"))
	require.NoError(t, err)
	defer it.Close()

	var got []string
	for it.Next() {
		got = append(got, string(it.Key()))
	}
	require.NoError(t, it.Err())
	require.Equal(t, []string{"m:a\x00", "m:b\x00", "m:b\x00c\x00"}, got)
}

func TestMemBatchAtomic(t *testing.T) {
	ctx := context.Background()
	store := NewMem()

	require.NoError(t, store.Batch(ctx, []Op{
		Put([]byte("a"), []byte("1")),
		Put([]byte("b"), []byte("2")),
	}))

	va, _, _ := store.Get(ctx, []byte("a"))
	vb, _, _ := store.Get(ctx, []byte("b"))
	require.Equal(t, []byte("1"), va)
	require.Equal(t, []byte("2"), vb)

	require.NoError(t, store.Batch(ctx, []Op{
		Del([]byte("a")),
		Put([]byte("b"), []byte("3")),
	}))
	_, ok, _ := store.Get(ctx, []byte("a"))
	require.False(t, ok)
	vb, _, _ = store.Get(ctx, []byte("b"))
	require.Equal(t, []byte("3"), vb)
}
