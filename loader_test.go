package vfx

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func writeEffect(t *testing.T, dir, name string, asset *EffectAsset) string {
	t.Helper()
	data, err := Encode(asset)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestLoader_LoadFile(t *testing.T) {
	path := writeEffect(t, t.TempDir(), "sparks.effect", fullAsset())
	loader := NewEffectAssetLoader(nil)

	asset, err := loader.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "sparks", asset.Name())
	assert.Equal(t, []uint32{512, 128}, asset.Capacities())

	assert.Equal(t, []string{"effect"}, loader.Extensions())
	assert.True(t, loader.CanLoad("a/b/fire.EFFECT"))
	assert.False(t, loader.CanLoad("fire.yaml"))
}

func TestLoader_ErrorKinds(t *testing.T) {
	loader := NewEffectAssetLoader(nil)

	_, err := loader.LoadFile(filepath.Join(t.TempDir(), "missing.effect"))
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, LoadErrorIO, le.Kind)
	assert.ErrorIs(t, err, ErrIO)
	assert.NotErrorIs(t, err, ErrDecode)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = loader.Load(failingReader{})
	assert.ErrorIs(t, err, ErrIO)

	_, err = loader.Load(strings.NewReader("capacities: [4\n"))
	require.ErrorAs(t, err, &le)
	assert.Equal(t, LoadErrorDecode, le.Kind)
	assert.ErrorIs(t, err, ErrDecode)
	assert.NotErrorIs(t, err, ErrIO)

	_, err = loader.Load(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrDecode)
}

func TestLoadError_Message(t *testing.T) {
	err := &LoadError{Kind: LoadErrorDecode, Path: "fire.effect", Err: errors.New("bad")}
	assert.Equal(t, "load effect fire.effect: decode: bad", err.Error())
	err.Path = ""
	assert.Equal(t, "load effect: decode: bad", err.Error())
}

func TestAssetServer(t *testing.T) {
	dir := t.TempDir()
	path := writeEffect(t, dir, "sparks.effect", fullAsset())
	server := NewAssetServer(DefaultCompileOptions())

	id, err := server.Load(path)
	require.NoError(t, err)
	again, err := server.Load(path)
	require.NoError(t, err)
	assert.Equal(t, id, again, "reloading a path keeps its id")

	compiled, err := server.Compiled(id)
	require.NoError(t, err)
	cached, err := server.Compiled(id)
	require.NoError(t, err)
	assert.Same(t, compiled, cached)
	assert.Len(t, compiled.Update, 2)

	built := server.Add(newTestAsset())
	assert.NotEqual(t, id, built)
	assert.Len(t, server.Ids(), 2)

	server.Remove(id)
	_, ok := server.Get(id)
	assert.False(t, ok)
	_, err = server.Compiled(id)
	assert.Error(t, err)

	_, err = server.Load(filepath.Join(dir, "sparks.yaml"))
	assert.ErrorIs(t, err, ErrIO)
}
