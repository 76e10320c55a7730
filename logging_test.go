package vfx

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultLogger(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewLogger("vfx", false, &out, &errOut)

	l.Debugf("hidden %d", 1)
	assert.Empty(t, out.String())

	l.SetDebug(true)
	assert.True(t, l.DebugEnabled())
	l.Debugf("shown %d", 2)
	l.Infof("compiled %s", "fire")
	assert.Contains(t, out.String(), "[vfx] DEBUG: shown 2")
	assert.Contains(t, out.String(), "[vfx] INFO: compiled fire")

	l.Warnf("careful")
	l.Errorf("broken")
	assert.Contains(t, errOut.String(), "[vfx] WARN: careful")
	assert.Contains(t, errOut.String(), "[vfx] ERROR: broken")

	bare := NewLogger("", false, &out, &errOut)
	bare.Errorf("no prefix")
	assert.Contains(t, errOut.String(), "ERROR: no prefix")
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.SetDebug(true)
	assert.False(t, l.DebugEnabled())
	assert.NotNil(t, loggerOrNop(nil))
}

func TestDefaultLogger_CompileDiagnostics(t *testing.T) {
	var out, errOut bytes.Buffer
	opts := DefaultCompileOptions()
	opts.Logger = NewLogger("effectc", false, &out, &errOut)

	_, err := Compile(newTestAsset().WithName("smoke"), opts)
	assert.NoError(t, err)
	assert.Contains(t, out.String(), "[effectc] INFO: compiled effect smoke: 1 groups")
	assert.Empty(t, errOut.String())

	// Unencodable assets warn only when a cache would have been used.
	opts.Cache = failingCache{}
	_, err = Compile(newTestAsset().Update(scaleVelocity{factor: 2}), opts)
	assert.NoError(t, err)
	assert.Contains(t, errOut.String(), "WARN: effect <unnamed>: compiling without cache")
}

type failingCache struct{}

func (failingCache) Load(string) ([]byte, bool, error) { panic("cache used without a key") }
func (failingCache) Store(string, []byte) error       { panic("cache used without a key") }
