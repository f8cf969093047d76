package kvbase

import (
	"context"
	"testing"

	"github.com/sherwoodwang/rededup/kvstore"
	"github.com/stretchr/testify/require"
)

func TestBaseRejectsEmptyKey(t *testing.T) {
	ctx := context.Background()
	base := Wrap(kvstore.NewMem())

	_, _, err := base.Get(ctx, nil)
	require.ErrorIs(t, err, ErrEmptyKey)

	require.ErrorIs(t, base.Put(ctx, nil, []byte("v")), ErrEmptyKey)
	require.ErrorIs(t, base.Delete(ctx, nil), ErrEmptyKey)

	_, err = base.IterPrefix(ctx, nil)
	require.ErrorIs(t, err, ErrEmptyKey)
}

func TestBaseProxiesToUnderlyingStore(t *testing.T) {
	ctx := context.Background()
	base := Wrap(kvstore.NewMem())

	require.NoError(t, base.Put(ctx, []byte("k"), []byte("v")))
	v, ok, err := base.Get(ctx, []byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v"), v)
}
