package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	appName := fmt.Sprintf("vfx_cache_test_%d", time.Now().UnixNano())
	s, err := Open(appName)
	if err != nil {
		return nil
	}
	t.Cleanup(func() {
		if home, err := os.UserHomeDir(); err == nil {
			os.RemoveAll(filepath.Join(home, ".local", "share", appName))
		}
	})
	return s
}

func TestStore_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	if s == nil {
		t.Skip("cannot open gdata store")
	}
	_, ok, err := s.Load("abc123")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Store("abc123", []byte("init: fn main() {}\n")))
	data, ok, err := s.Load("abc123")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "init: fn main() {}\n", string(data))
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	_, ok, _ := m.Load("k")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Hits())

	buf := []byte("v1")
	require.NoError(t, m.Store("k", buf))
	buf[0] = 'x'

	data, ok, err := m.Load("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v1", string(data))
	assert.Equal(t, 1, m.Hits())
	assert.Equal(t, 1, m.Len())
}

func TestMemoryOver(t *testing.T) {
	disk := NewMemory()
	require.NoError(t, disk.Store("old", []byte("from disk")))

	m := NewMemoryOver(disk)
	data, ok, err := m.Load("old")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "from disk", string(data))
	assert.Equal(t, 1, m.Len())

	// Served from memory the second time.
	_, _, _ = m.Load("old")
	assert.Equal(t, 1, disk.Hits())
	assert.Equal(t, 2, m.Hits())

	require.NoError(t, m.Store("new", []byte("v")))
	data, ok, err = disk.Load("new")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", string(data))

	_, ok, err = m.Load("missing")
	require.NoError(t, err)
	assert.False(t, ok)
}
