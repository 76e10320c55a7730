package vfx

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// EffectExtension is the file extension of serialized effect assets.
const EffectExtension = ".effect"

var (
	ErrIO     = errors.New("effect i/o error")
	ErrDecode = errors.New("effect decode error")
)

type LoadErrorKind uint8

const (
	LoadErrorIO LoadErrorKind = iota
	LoadErrorDecode
)

func (k LoadErrorKind) String() string {
	if k == LoadErrorDecode {
		return "decode"
	}
	return "io"
}

// LoadError reports a failed load. Kind tells reading failures apart from
// malformed documents; errors.Is matches ErrIO or ErrDecode accordingly.
type LoadError struct {
	Kind LoadErrorKind
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("load effect %s: %s: %v", e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("load effect: %s: %v", e.Kind, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func (e *LoadError) Is(target error) bool {
	switch target {
	case ErrIO:
		return e.Kind == LoadErrorIO
	case ErrDecode:
		return e.Kind == LoadErrorDecode
	}
	return false
}

// EffectAssetLoader reads .effect documents.
type EffectAssetLoader struct {
	logger Logger
}

func NewEffectAssetLoader(logger Logger) *EffectAssetLoader {
	return &EffectAssetLoader{logger: loggerOrNop(logger)}
}

// Extensions lists the file extensions the loader handles, without the dot.
func (l *EffectAssetLoader) Extensions() []string {
	return []string{strings.TrimPrefix(EffectExtension, ".")}
}

// CanLoad reports whether path has the effect extension.
func (l *EffectAssetLoader) CanLoad(path string) bool {
	return strings.EqualFold(filepath.Ext(path), EffectExtension)
}

func (l *EffectAssetLoader) Load(r io.Reader) (*EffectAsset, error) {
	return l.load(r, "")
}

func (l *EffectAssetLoader) LoadFile(path string) (*EffectAsset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Kind: LoadErrorIO, Path: path, Err: err}
	}
	defer f.Close()
	return l.load(f, path)
}

func (l *EffectAssetLoader) load(r io.Reader, path string) (*EffectAsset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &LoadError{Kind: LoadErrorIO, Path: path, Err: err}
	}
	asset, err := Decode(data)
	if err != nil {
		l.logger.Warnf("effect %s: %v", path, err)
		return nil, &LoadError{Kind: LoadErrorDecode, Path: path, Err: err}
	}
	l.logger.Debugf("loaded effect %q (%d groups, %d modifiers) from %s",
		asset.Name(), asset.GroupCount(), len(asset.Modifiers()), path)
	return asset, nil
}
