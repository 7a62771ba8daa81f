// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cogentcore.org/core/base/errors"
	"cogentcore.org/vkdraw/stage"
	"cogentcore.org/vkdraw/vgpu"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config has the settings of a [Renderer] and the device it draws with.
// It can be read from TOML or YAML files with [OpenConfig].
type Config struct {

	// StagingSize is the capacity in bytes of the staging buffer
	// that holds all primitive data of one frame.
	StagingSize int `default:"33554432" toml:"staging_size" yaml:"staging_size"`

	// Alignment is the byte alignment of each batch in the staging
	// buffer. It must be a power of two, at least the device's
	// storage buffer offset alignment.
	Alignment int `default:"256" toml:"alignment" yaml:"alignment"`

	// ImageCount is the requested number of swapchain images.
	ImageCount int `default:"2" toml:"image_count" yaml:"image_count"`

	// PresentMode is one of immediate, mailbox, fifo or fifo-relaxed.
	// Unsupported modes fall back to fifo.
	PresentMode string `default:"fifo-relaxed" toml:"present_mode" yaml:"present_mode"`

	// ClearColor is the RGBA color each frame is cleared to.
	ClearColor [4]float32 `toml:"clear_color" yaml:"clear_color"`

	// ShaderDir is the directory with the compiled SPIR-V shaders.
	ShaderDir string `default:"shaders" toml:"shader_dir" yaml:"shader_dir"`

	// WatchShaders rebuilds pipelines when their shaders in
	// ShaderDir change.
	WatchShaders bool `toml:"watch_shaders" yaml:"watch_shaders"`

	// AtlasSize is the width and height of each atlas texture page.
	AtlasSize int `default:"1024" toml:"atlas_size" yaml:"atlas_size"`

	// Validation enables the vulkan validation layers.
	Validation bool `toml:"validation" yaml:"validation"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		StagingSize: 32 << 20,
		Alignment:   stage.DefaultAlign,
		ImageCount:  2,
		PresentMode: "fifo-relaxed",
		ClearColor:  [4]float32{0, 0, 0, 1},
		ShaderDir:   "shaders",
		AtlasSize:   1024,
	}
}

// Validate returns an error for settings that cannot work.
func (c *Config) Validate() error {
	var errs []error
	if c.StagingSize <= 0 {
		errs = append(errs, fmt.Errorf("staging_size must be positive, not %d", c.StagingSize))
	}
	if c.Alignment <= 0 || c.Alignment&(c.Alignment-1) != 0 {
		errs = append(errs, fmt.Errorf("alignment must be a power of two, not %d", c.Alignment))
	}
	if c.ImageCount <= 0 {
		errs = append(errs, fmt.Errorf("image_count must be positive, not %d", c.ImageCount))
	}
	if _, err := vgpu.ParsePresentMode(c.PresentMode); err != nil {
		errs = append(errs, err)
	}
	if c.AtlasSize <= 0 {
		errs = append(errs, fmt.Errorf("atlas_size must be positive, not %d", c.AtlasSize))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("render: invalid config: %w", err)
	}
	return nil
}

// Options returns the vgpu system options for the config.
func (c *Config) Options() (*vgpu.Options, error) {
	mode, err := vgpu.ParsePresentMode(c.PresentMode)
	if err != nil {
		return nil, err
	}
	opts := vgpu.DefaultOptions()
	opts.StagingSize = c.StagingSize
	opts.ImageCount = c.ImageCount
	opts.PresentMode = mode
	opts.ClearColor = c.ClearColor
	return opts, nil
}

func isYAML(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".yaml" || ext == ".yml"
}

// OpenConfig reads the config from a .toml, .yaml or .yml file.
// Settings missing from the file keep their default values.
func OpenConfig(filename string) (*Config, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	c := DefaultConfig()
	if isYAML(filename) {
		err = yaml.Unmarshal(b, c)
	} else {
		err = toml.Unmarshal(b, c)
	}
	if err != nil {
		return nil, fmt.Errorf("render: reading config %s: %w", filename, err)
	}
	return c, c.Validate()
}

// Save writes the config to a .toml, .yaml or .yml file.
func (c *Config) Save(filename string) error {
	var b []byte
	var err error
	if isYAML(filename) {
		b, err = yaml.Marshal(c)
	} else {
		b, err = toml.Marshal(c)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(filename, b, 0o644)
}
