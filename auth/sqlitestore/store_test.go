package sqlitestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	v, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, s.Set(ctx, "token", []byte("abc")))
	v, err = s.Get(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), v)

	require.NoError(t, s.Set(ctx, "token", []byte("def")))
	v, err = s.Get(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, []byte("def"), v)

	require.NoError(t, s.Delete(ctx, "token"))
	v, err = s.Get(ctx, "token")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestStore_SetMany(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	err := s.SetMany(ctx, map[string][]byte{
		"mix_access_token":  []byte(`{"accessToken":"a"}`),
		"mix_refresh_token": []byte("r1"),
	})
	require.NoError(t, err)

	v, err := s.Get(ctx, "mix_refresh_token")
	require.NoError(t, err)
	assert.Equal(t, []byte("r1"), v)
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.Set(ctx, "a", []byte("1")))
	require.NoError(t, s.Set(ctx, "b", []byte("2")))
	require.NoError(t, s.Clear(ctx))

	for _, key := range []string{"a", "b"} {
		v, err := s.Get(ctx, key)
		require.NoError(t, err)
		assert.Nil(t, v)
	}
}

func TestStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.db")

	first, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "token", []byte("persisted")))
	require.NoError(t, first.Close())

	second, err := Open(ctx, path)
	require.NoError(t, err)
	defer second.Close()

	v, err := second.Get(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, []byte("persisted"), v)
	assert.True(t, second.Available())
}
