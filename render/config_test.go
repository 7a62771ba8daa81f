// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"os"
	"path/filepath"
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	require.NoError(t, c.Validate())
	assert.Equal(t, 33554432, c.StagingSize)
	assert.Equal(t, 256, c.Alignment)
	assert.Equal(t, 2, c.ImageCount)
	assert.Equal(t, [4]float32{0, 0, 0, 1}, c.ClearColor)

	opts, err := c.Options()
	require.NoError(t, err)
	assert.Equal(t, vk.PresentModeFifoRelaxed, opts.PresentMode)
	assert.Equal(t, c.StagingSize, opts.StagingSize)
}

func TestConfigValidate(t *testing.T) {
	c := DefaultConfig()
	c.StagingSize = 0
	c.Alignment = 48
	c.PresentMode = "vsync"
	err := c.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "staging_size")
	assert.ErrorContains(t, err, "alignment")
	assert.ErrorContains(t, err, "vsync")
}

func TestOpenConfigTOML(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "vkdraw.toml")
	require.NoError(t, os.WriteFile(fn, []byte("image_count = 3\npresent_mode = \"mailbox\"\nclear_color = [1.0, 0.5, 0.0, 1.0]\n"), 0o644))
	c, err := OpenConfig(fn)
	require.NoError(t, err)
	assert.Equal(t, 3, c.ImageCount)
	assert.Equal(t, "mailbox", c.PresentMode)
	assert.Equal(t, [4]float32{1, 0.5, 0, 1}, c.ClearColor)
	assert.Equal(t, 33554432, c.StagingSize, "missing settings keep defaults")
}

func TestOpenConfigYAML(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "vkdraw.yaml")
	require.NoError(t, os.WriteFile(fn, []byte("staging_size: 1048576\nwatch_shaders: true\n"), 0o644))
	c, err := OpenConfig(fn)
	require.NoError(t, err)
	assert.Equal(t, 1048576, c.StagingSize)
	assert.True(t, c.WatchShaders)
	assert.Equal(t, "fifo-relaxed", c.PresentMode)
}

func TestOpenConfigInvalid(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "vkdraw.toml")
	require.NoError(t, os.WriteFile(fn, []byte("alignment = 3\n"), 0o644))
	_, err := OpenConfig(fn)
	assert.ErrorContains(t, err, "alignment")

	_, err = OpenConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConfigSaveOpen(t *testing.T) {
	dir := t.TempDir()
	c := DefaultConfig()
	c.AtlasSize = 2048
	c.Validation = true
	for _, name := range []string{"vkdraw.toml", "vkdraw.yml"} {
		fn := filepath.Join(dir, name)
		require.NoError(t, c.Save(fn))
		got, err := OpenConfig(fn)
		require.NoError(t, err)
		assert.Equal(t, c, got, name)
	}
}
