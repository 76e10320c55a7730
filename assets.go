package vfx

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"
)

type AssetId string

// AssetServer owns loaded effect assets and their compiled form. Compilation
// happens on first use and is cached until the asset is replaced or removed.
type AssetServer struct {
	mu       sync.Mutex
	loader   *EffectAssetLoader
	options  CompileOptions
	logger   Logger
	effects  map[AssetId]*EffectAsset
	compiled map[AssetId]*CompiledEffect
	paths    map[string]AssetId
}

func NewAssetServer(opts CompileOptions) *AssetServer {
	opts.Logger = loggerOrNop(opts.Logger)
	return &AssetServer{
		loader:   NewEffectAssetLoader(opts.Logger),
		options:  opts,
		logger:   opts.Logger,
		effects:  make(map[AssetId]*EffectAsset),
		compiled: make(map[AssetId]*CompiledEffect),
		paths:    make(map[string]AssetId),
	}
}

// Add registers an asset built in code.
func (server *AssetServer) Add(asset *EffectAsset) AssetId {
	id := makeAssetId()
	server.mu.Lock()
	server.effects[id] = asset
	server.mu.Unlock()
	return id
}

// Load reads an .effect file. Loading the same path again replaces the asset
// under its existing id.
func (server *AssetServer) Load(path string) (AssetId, error) {
	if !server.loader.CanLoad(path) {
		return "", &LoadError{Kind: LoadErrorIO, Path: path, Err: fmt.Errorf("unsupported extension %q", filepath.Ext(path))}
	}
	asset, err := server.loader.LoadFile(path)
	if err != nil {
		return "", err
	}
	key := filepath.Clean(path)

	server.mu.Lock()
	defer server.mu.Unlock()
	id, ok := server.paths[key]
	if !ok {
		id = makeAssetId()
		server.paths[key] = id
	}
	server.effects[id] = asset
	delete(server.compiled, id)
	server.logger.Debugf("asset %s <- %s", id, key)
	return id, nil
}

func (server *AssetServer) Get(id AssetId) (*EffectAsset, bool) {
	server.mu.Lock()
	defer server.mu.Unlock()
	asset, ok := server.effects[id]
	return asset, ok
}

// Compiled returns the compiled effect for id, compiling it on first use.
func (server *AssetServer) Compiled(id AssetId) (*CompiledEffect, error) {
	server.mu.Lock()
	defer server.mu.Unlock()
	if c, ok := server.compiled[id]; ok {
		return c, nil
	}
	asset, ok := server.effects[id]
	if !ok {
		return nil, fmt.Errorf("unknown asset %s", id)
	}
	c, err := Compile(asset, server.options)
	if err != nil {
		server.logger.Errorf("asset %s: %v", id, err)
		return nil, err
	}
	server.compiled[id] = c
	return c, nil
}

func (server *AssetServer) Remove(id AssetId) {
	server.mu.Lock()
	defer server.mu.Unlock()
	delete(server.effects, id)
	delete(server.compiled, id)
	for path, pid := range server.paths {
		if pid == id {
			delete(server.paths, path)
		}
	}
}

// Ids lists the registered assets, sorted.
func (server *AssetServer) Ids() []AssetId {
	server.mu.Lock()
	defer server.mu.Unlock()
	ids := make([]AssetId, 0, len(server.effects))
	for id := range server.effects {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func makeAssetId() AssetId {
	return AssetId(uuid.NewString())
}
