// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vgpu

import (
	"fmt"
	"image"
	"strings"

	"cogentcore.org/core/base/errors"
	vk "github.com/goki/vulkan"
)

// Options configure a [System].
type Options struct {

	// StagingSize is the capacity in bytes of the staging buffer.
	StagingSize int

	// ImageCount is the requested number of swapchain images.
	ImageCount int

	// PresentMode is the requested present mode.
	PresentMode vk.PresentMode

	// ClearColor is the RGBA color the target is cleared to.
	ClearColor [4]float32

	// MaxPipelines bounds the number of pipelines, each of which
	// needs its own descriptor set.
	MaxPipelines int
}

// DefaultOptions returns options for a 32 MiB staging buffer,
// double buffering with FIFO relaxed presentation, and an opaque
// black clear color.
func DefaultOptions() *Options {
	return &Options{
		StagingSize:  32 << 20,
		ImageCount:   2,
		PresentMode:  vk.PresentModeFifoRelaxed,
		ClearColor:   [4]float32{0, 0, 0, 1},
		MaxPipelines: 16,
	}
}

var presentModes = map[string]vk.PresentMode{
	"immediate":    vk.PresentModeImmediate,
	"mailbox":      vk.PresentModeMailbox,
	"fifo":         vk.PresentModeFifo,
	"fifo-relaxed": vk.PresentModeFifoRelaxed,
}

// ParsePresentMode returns the present mode for one of the names
// "immediate", "mailbox", "fifo" or "fifo-relaxed".
func ParsePresentMode(s string) (vk.PresentMode, error) {
	if m, ok := presentModes[strings.ToLower(s)]; ok {
		return m, nil
	}
	return vk.PresentModeFifo, fmt.Errorf("vgpu: unknown present mode %q", s)
}

// System draws primitive batches into the swapchain of a window
// surface. It owns the logical device, the swapchain and frames,
// one pipeline per primitive kind sharing one render pass and one
// descriptor set layout, and the mapped staging buffer that all
// pipelines read from.
type System struct {

	// optional name of this System
	Name string

	// gpu device
	GPU *GPU

	// logical device for this System
	Device Device

	// Surface has the swapchain and frame targets.
	Surface Surface

	// RenderPass shared by all pipelines and frames.
	RenderPass RenderPass

	// Desc is the descriptor set layout shared by all pipelines.
	Desc DescLayout

	// cmd pool for recording frames
	CmdPool CmdPool

	// StagingBuff holds all primitive data for a frame.
	StagingBuff StagingBuffer

	// all pipelines
	Pipelines []*Pipeline

	// map of all pipelines, names must be unique
	PipelineMap map[string]*Pipeline

	// ClearColor is the RGBA color the target is cleared to.
	ClearColor [4]float32

	// frameFence is signaled when a submitted frame has finished.
	frameFence vk.Fence

	// uploadCmd and uploadFence are used for texture uploads,
	// which can come from other goroutines than drawing.
	uploadCmd   CmdPool
	uploadFence vk.Fence

	// bound is the pipeline bound in the current recording.
	bound *Pipeline

	// suboptimal is set when an image was acquired from a
	// swapchain that no longer matches the surface.
	suboptimal bool
}

// NewSystem makes a System for the given window surface at the given
// size, selecting a physical device of gp that can present to it.
// Construction is all or nothing: on error, everything made so far
// is destroyed, including the surface.
func NewSystem(gp *GPU, vs vk.Surface, size image.Point, opts *Options) (*System, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	sy := &System{Name: gp.Name, GPU: gp, ClearColor: opts.ClearColor}
	sy.PipelineMap = make(map[string]*Pipeline)
	sy.Surface.GPU = gp
	sy.Surface.Surface = vs
	if err := sy.init(vs, size, opts); err != nil {
		sy.Release()
		return nil, err
	}
	return sy, nil
}

func (sy *System) init(vs vk.Surface, size image.Point, opts *Options) error {
	gp := sy.GPU
	if err := gp.SelectGPU(vs); err != nil {
		return err
	}
	if err := sy.Device.Init(gp, vs); err != nil {
		return err
	}
	dev := sy.Device.Device
	if err := sy.RenderPass.Init(dev, SurfaceFormat); err != nil {
		return err
	}
	sy.Surface.NFrames = opts.ImageCount
	sy.Surface.PresentMode = opts.PresentMode
	if err := sy.Surface.Init(gp, &sy.Device, &sy.RenderPass, vs, size); err != nil {
		return err
	}
	if err := sy.Desc.Init(dev, max(opts.MaxPipelines, 1)); err != nil {
		return err
	}
	if err := sy.CmdPool.Init(&sy.Device); err != nil {
		return err
	}
	if err := sy.CmdPool.NewBuffer(&sy.Device); err != nil {
		return err
	}
	if err := sy.uploadCmd.Init(&sy.Device); err != nil {
		return err
	}
	if err := sy.uploadCmd.NewBuffer(&sy.Device); err != nil {
		return err
	}
	var err error
	if sy.frameFence, err = NewFence(&sy.Device); err != nil {
		return err
	}
	if sy.uploadFence, err = NewFence(&sy.Device); err != nil {
		return err
	}
	return sy.StagingBuff.Alloc(gp, dev, opts.StagingSize, vk.BufferUsageStorageBufferBit)
}

// Staging returns the mapped staging buffer memory.
func (sy *System) Staging() []byte {
	return sy.StagingBuff.Bytes()
}

// StorageAlign returns the dynamic offset alignment of the device.
func (sy *System) StorageAlign() int {
	return sy.GPU.StorageAlign()
}

// HasPipeline returns whether there is a pipeline with the given name.
func (sy *System) HasPipeline(name string) bool {
	_, ok := sy.PipelineMap[name]
	return ok
}

// SetPipeline makes the named pipeline from vertex and fragment
// SPIR-V code, or rebuilds it with new code if it exists.
// Rebuilding keeps its layout and descriptor set.
func (sy *System) SetPipeline(name string, vert, frag []byte) error {
	if pl, ok := sy.PipelineMap[name]; ok {
		if err := sy.Device.WaitIdle(); err != nil {
			return err
		}
		return pl.Build(vert, frag, &sy.RenderPass)
	}
	if len(sy.Pipelines) >= sy.Desc.MaxSets {
		return fmt.Errorf("vgpu: too many pipelines, max is %d", sy.Desc.MaxSets)
	}
	pl, err := NewPipeline(sy.Device.Device, name, vert, frag, &sy.RenderPass, &sy.Desc)
	if err != nil {
		return err
	}
	sy.Pipelines = append(sy.Pipelines, pl)
	sy.PipelineMap[name] = pl
	return nil
}

func (sy *System) pipeline(name string) (*Pipeline, error) {
	pl, ok := sy.PipelineMap[name]
	if !ok {
		return nil, fmt.Errorf("vgpu: pipeline %q not found", name)
	}
	return pl, nil
}

// SetRange points the named pipeline's descriptor set at the staging
// buffer, with rng bytes addressed from each bind offset.
func (sy *System) SetRange(name string, rng int) error {
	pl, err := sy.pipeline(name)
	if err != nil {
		return err
	}
	pl.Desc.Update(sy.StagingBuff.Buffer, rng)
	return nil
}

// Acquire returns the index of the next swapchain image, which is
// ready to render to. A suboptimal swapchain is reported on Present.
func (sy *System) Acquire() (int, error) {
	idx, err := sy.Surface.AcquireNextImage()
	if errors.Is(err, ErrSuboptimal) {
		sy.suboptimal = true
		return idx, nil
	}
	return idx, err
}

// Begin begins recording the frame for the given image, and the
// render pass on its framebuffer.
func (sy *System) Begin(image int) error {
	if image < 0 || image >= len(sy.Surface.Frames) {
		return fmt.Errorf("vgpu: image index %d out of range [0:%d]", image, len(sy.Surface.Frames))
	}
	if err := sy.CmdPool.BeginCmd(); err != nil {
		return err
	}
	cmd := sy.CmdPool.Buff
	sy.RenderPass.Begin(cmd, sy.Surface.Frames[image], sy.ClearColor)
	SetViewport(cmd, sy.Surface.Format.Size)
	return nil
}

// Bind binds the named pipeline, its descriptor set at the given
// offset, and the viewport size.
func (sy *System) Bind(name string, offset int) error {
	pl, err := sy.pipeline(name)
	if err != nil {
		return err
	}
	pl.Bind(sy.CmdPool.Buff, offset, sy.Surface.Format.Size)
	sy.bound = pl
	return nil
}

// Draw draws instances quads with the last bound pipeline.
func (sy *System) Draw(instances int) {
	if sy.bound == nil {
		return
	}
	sy.bound.Draw(sy.CmdPool.Buff, instances)
}

// End ends the render pass and the recording.
func (sy *System) End() error {
	sy.RenderPass.End(sy.CmdPool.Buff)
	sy.bound = nil
	return sy.CmdPool.EndCmd()
}

// Submit submits the recorded frame and blocks until the GPU has
// finished it.
func (sy *System) Submit() error {
	sy.Device.QueueMu.Lock()
	defer sy.Device.QueueMu.Unlock()
	return sy.CmdPool.SubmitWait(&sy.Device, sy.frameFence)
}

// Present presents the image. It returns an error wrapping
// [ErrSuboptimal] if the swapchain should be recreated even though
// the image was presented.
func (sy *System) Present(image int) error {
	sy.Device.QueueMu.Lock()
	err := sy.Surface.PresentImage(image)
	sy.Device.QueueMu.Unlock()
	if err == nil && sy.suboptimal {
		sy.suboptimal = false
		return fmt.Errorf("vgpu: present: %w", ErrSuboptimal)
	}
	return err
}

// Resize recreates the swapchain and frames at the given size.
func (sy *System) Resize(size image.Point) error {
	sy.suboptimal = false
	return sy.Surface.Resize(size)
}

// Size returns the current size of the swapchain images.
func (sy *System) Size() image.Point {
	return sy.Surface.Format.Size
}

// Release waits for the device to finish and destroys everything
// owned by the System. The GPU instance is not destroyed.
func (sy *System) Release() {
	dev := sy.Device.Device
	if dev != nil {
		sy.Device.WaitIdle()
		for _, pl := range sy.Pipelines {
			pl.Destroy()
		}
		sy.Pipelines = nil
		clear(sy.PipelineMap)
		sy.StagingBuff.Free()
		for _, f := range []*vk.Fence{&sy.frameFence, &sy.uploadFence} {
			if *f != nil {
				vk.DestroyFence(dev, *f, nil)
				*f = nil
			}
		}
		sy.uploadCmd.Destroy(dev)
		sy.CmdPool.Destroy(dev)
		sy.Desc.Destroy()
	}
	sy.Surface.Destroy()
	sy.RenderPass.Destroy()
	sy.Device.Destroy()
}
