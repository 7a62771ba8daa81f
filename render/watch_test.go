// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShaderWatcher(t *testing.T) {
	dir := t.TempDir()
	var mu sync.Mutex
	changed := map[string]bool{}
	sw, err := NewShaderWatcher(dir, func(name string) {
		mu.Lock()
		changed[name] = true
		mu.Unlock()
	})
	require.NoError(t, err)
	defer sw.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shadows.frag.spv"), []byte{3, 2, 35, 7}, 0o644))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return changed["shadows"]
	}, 5*time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Len(t, changed, 1)
	mu.Unlock()

	assert.NoError(t, sw.Close())
	assert.NoError(t, sw.Close())
}

func TestShaderWatcherMissingDir(t *testing.T) {
	_, err := NewShaderWatcher(filepath.Join(t.TempDir(), "missing"), func(string) {})
	assert.Error(t, err)
}

func TestWatchShadersReload(t *testing.T) {
	dir := t.TempDir()
	fsys := testShaders()
	for name, f := range fsys {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), f.Data, 0o644))
	}
	fd := newFakeDevice(4096)
	cfg := DefaultConfig()
	cfg.ShaderDir = dir
	cfg.WatchShaders = true
	r, err := New(fd, cfg, nil)
	require.NoError(t, err)
	defer r.Release()
	require.NotNil(t, r.watcher)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "underlines.vert.spv"), fsys["underlines.vert.spv"].Data, 0o644))
	require.Eventually(t, func() bool {
		r.dirtyMu.Lock()
		defer r.dirtyMu.Unlock()
		return r.dirty["underlines"]
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, r.Draw(nil))
	assert.Equal(t, 2, fd.builds("underlines"))
}
