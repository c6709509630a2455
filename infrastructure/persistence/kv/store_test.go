package kv

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adriaan-vdb/map-my-mind-WebApp/application/ports"
)

// runStoreContract exercises the KeyValueStore behaviour every backend shares.
func runStoreContract(t *testing.T, s ports.KeyValueStore) {
	ctx := context.Background()

	_, found, err := s.Get(ctx, "mindmaps:missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, "mindmaps:b", []byte(`{"v":1}`)))
	require.NoError(t, s.Set(ctx, "mindmaps:a", []byte(`{"v":2}`)))
	require.NoError(t, s.Set(ctx, "other:a", []byte(`x`)))
	require.NoError(t, s.Set(ctx, "mindmaps:b", []byte(`{"v":3}`)))

	v, found, err := s.Get(ctx, "mindmaps:b")
	require.NoError(t, err)
	require.True(t, found)
	assert.JSONEq(t, `{"v":3}`, string(v))

	keys, err := s.Keys(ctx, "mindmaps:")
	require.NoError(t, err)
	assert.Equal(t, []string{"mindmaps:a", "mindmaps:b"}, keys)

	require.NoError(t, s.Delete(ctx, "mindmaps:a"))
	require.NoError(t, s.Delete(ctx, "mindmaps:a"), "deleting twice is fine")

	keys, err = s.Keys(ctx, "mindmaps:")
	require.NoError(t, err)
	assert.Equal(t, []string{"mindmaps:b"}, keys)

	keys, err = s.Keys(ctx, "mindmaps_")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestBackends(t *testing.T) {
	tests := []struct {
		name string
		open func(t *testing.T) ports.KeyValueStore
	}{
		{
			name: "memory",
			open: func(t *testing.T) ports.KeyValueStore { return NewMemoryStore() },
		},
		{
			name: "sqlite in memory",
			open: func(t *testing.T) ports.KeyValueStore {
				s, err := NewSQLiteStore(":memory:")
				require.NoError(t, err)
				return s
			},
		},
		{
			name: "sqlite file",
			open: func(t *testing.T) ports.KeyValueStore {
				s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "nested", "maps.db"))
				require.NoError(t, err)
				return s
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.open(t)
			defer s.Close()
			runStoreContract(t, s)
		})
	}
}

func TestMemoryStore_ValuesAreCopied(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	buf := []byte("abc")
	require.NoError(t, s.Set(ctx, "k", buf))
	buf[0] = 'z'

	v, _, _ := s.Get(ctx, "k")
	assert.Equal(t, "abc", string(v))
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "maps.db")

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "mindmaps:keep", []byte("{}")))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()
	_, found, err := s.Get(ctx, "mindmaps:keep")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Options{Driver: "etcd"}, nil)
	assert.Error(t, err)
}
