// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"image"
	"io/fs"

	"cogentcore.org/vkdraw/vgpu"
	vk "github.com/goki/vulkan"
)

// NewVulkan makes a [vgpu.System] for the window surface and a
// renderer drawing with it. Construction is all or nothing: on error
// the system and surface are released. The GPU is owned by the caller.
func NewVulkan(gp *vgpu.GPU, surface vk.Surface, size image.Point, cfg *Config, fsys fs.FS) (*Renderer, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	sy, err := vgpu.NewSystem(gp, surface, size, opts)
	if err != nil {
		return nil, err
	}
	r, err := New(sy, cfg, fsys)
	if err != nil {
		sy.Release()
		return nil, err
	}
	return r, nil
}
