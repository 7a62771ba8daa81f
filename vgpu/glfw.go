// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !offscreen && ((darwin && !ios) || windows || (linux && !android) || dragonfly || openbsd)

package vgpu

import (
	"image"

	"cogentcore.org/core/base/errors"
	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
)

// note: this file contains the glfw dependencies, for desktop platform builds.

// Init initializes vulkan for use with glfw windows.
// Must call before doing any vgpu stuff.
// Calls glfw.Init, sets the Vulkan instance proc addr and calls vk.Init.
// IMPORTANT: must be called on the main initial thread!
func Init() error {
	err := glfw.Init()
	if err != nil {
		return errors.Log(err)
	}
	vk.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	return errors.Log(vk.Init())
}

// Terminate shuts down glfw. Call as last thing before quitting.
// IMPORTANT: must be called on the main initial thread!
func Terminate() {
	glfw.Terminate()
}

// NewWindowGPU makes a GPU configured with the instance extensions
// that the window needs for presenting, and with the validation
// layers if debug is on.
func NewWindowGPU(name string, w *glfw.Window, debug bool) (*GPU, error) {
	gp := NewGPU(name, w.GetRequiredInstanceExtensions())
	gp.Debug = debug
	if err := gp.Config(); err != nil {
		return nil, err
	}
	return gp, nil
}

// NewWindowSurface makes a vulkan surface for the window on the GPU
// instance.
func NewWindowSurface(gp *GPU, w *glfw.Window) (vk.Surface, error) {
	ptr, err := w.CreateWindowSurface(gp.Instance, nil)
	if err != nil {
		return vk.NullSurface, err
	}
	return vk.SurfaceFromPointer(ptr), nil
}

// WindowSize returns the framebuffer size of the window in pixels.
func WindowSize(w *glfw.Window) image.Point {
	width, height := w.GetFramebufferSize()
	return image.Pt(width, height)
}
