// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command vkdraw opens a window and draws a demo scene of quads,
// shadows and underlines with the vulkan renderer.
package main

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"runtime"

	"cogentcore.org/core/base/errors"
	"cogentcore.org/core/base/logx"
	"cogentcore.org/core/cli"
	"cogentcore.org/vkdraw/render"
	"cogentcore.org/vkdraw/vgpu"
	"cogentcore.org/vkdraw/vkinit"
	"github.com/go-gl/glfw/v3.3/glfw"
)

func init() {
	// glfw and the vulkan surface must stay on the main thread
	runtime.LockOSThread()
}

// Config is the configuration of the vkdraw command.
type Config struct {

	// Render has the renderer settings.
	Render render.Config

	// File is an optional TOML or YAML file with renderer settings,
	// which replace those in Render.
	File string `flag:"f,file"`

	// Width is the initial window width in pixels.
	Width int `default:"1024"`

	// Height is the initial window height in pixels.
	Height int `default:"768"`

	// Frames is the number of frames to draw before exiting.
	// Zero draws until the window is closed.
	Frames int

	// ListGPUs lists the vulkan devices and exits.
	ListGPUs bool `flag:"list-gpus"`
}

func main() { //types:skip
	opts := cli.DefaultOptions("vkdraw", "Draws a demo scene with the vulkan primitive renderer.")
	cli.Run(opts, &Config{Render: *render.DefaultConfig()}, Run)
}

// Run opens the window and draws until it is closed.
func Run(c *Config) error { //cli:cmd -root
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logx.UserLevel})))
	render.SetLogger(slog.Default())
	if c.File != "" {
		rc, err := render.OpenConfig(c.File)
		if err != nil {
			return err
		}
		c.Render = *rc
	}
	if c.ListGPUs {
		return listGPUs()
	}

	if err := vgpu.Init(); err != nil {
		return err
	}
	defer vgpu.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	w, err := glfw.CreateWindow(c.Width, c.Height, "vkdraw", nil, nil)
	if err != nil {
		return err
	}
	defer w.Destroy()

	gp, err := vgpu.NewWindowGPU("vkdraw", w, c.Render.Validation)
	if err != nil {
		return err
	}
	defer gp.Destroy()
	surface, err := vgpu.NewWindowSurface(gp, w)
	if err != nil {
		return err
	}
	r, err := render.NewVulkan(gp, surface, vgpu.WindowSize(w), &c.Render, nil)
	if err != nil {
		return err
	}
	defer r.Release()

	d, err := newDemo(r)
	if err != nil {
		return err
	}
	// the callbacks share the renderer, which does its own locking
	w.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		errors.Log(r.Resize(image.Pt(width, height)))
	})
	w.SetRefreshCallback(func(_ *glfw.Window) {
		errors.Log(d.draw())
	})

	for frame := 0; !w.ShouldClose() && (c.Frames == 0 || frame < c.Frames); frame++ {
		glfw.PollEvents()
		if err := d.draw(); err != nil {
			if render.IsFatal(err) {
				return err
			}
			slog.Warn("vkdraw: frame failed", "err", err)
		}
	}
	st := r.Stats()
	slog.Info("vkdraw: done", "frames", st.Frames, "draws", st.TotalDraws, "recreations", st.Recreations, "failures", st.Failures)
	return nil
}

// listGPUs prints the vulkan devices, loading vulkan without a window.
func listGPUs() error {
	if err := vkinit.LoadVulkan(); err != nil {
		return err
	}
	gp := vgpu.NewGPU("vkdraw", nil)
	if err := gp.Config(); err != nil {
		return err
	}
	defer gp.Destroy()
	devs, err := gp.PhysicalDevices()
	if err != nil {
		return err
	}
	for i, pd := range devs {
		fmt.Printf("%d: %s\n", i, vgpu.Describe(pd))
	}
	return nil
}
