// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vgpu

import (
	"image"
	"log/slog"

	"cogentcore.org/core/base/errors"
	vk "github.com/goki/vulkan"
)

// SurfaceFormat is the color format of swapchain images:
// 8-bit BGRA, presented in the sRGB nonlinear color space.
const SurfaceFormat = vk.FormatB8g8r8a8Unorm

// Surface manages the swapchain for presenting images to a window
// surface, and the frame target set of one framebuffer per image.
type Surface struct {

	// pointer to gpu device, for convenience
	GPU *GPU

	// device for this surface
	Device *Device

	// RenderPass that the framebuffers are bound to.
	RenderPass *RenderPass

	// Format has the current swapchain image format and dimensions.
	Format ImageFormat

	// NFrames is the number of images requested in the swapchain,
	// and after Init the actual number.
	NFrames int

	// PresentMode is the requested present mode, with a fallback
	// to FIFO if it is not supported.
	PresentMode vk.PresentMode

	// Frames has one framebuffer per swapchain image, in image order.
	Frames []*Framebuffer

	// vulkan handle for surface
	Surface vk.Surface

	// vulkan handle for swapchain
	Swapchain vk.Swapchain

	// acquire is signaled when an acquired image is ready.
	acquire vk.Fence
}

// Defaults sets the requested double buffering and present mode.
func (sf *Surface) Defaults() {
	sf.NFrames = 2
	sf.PresentMode = vk.PresentModeFifoRelaxed
}

// Init initializes the swapchain and frames for the surface at the
// given requested size. The device must have been made for the
// surface, and the render pass must use [SurfaceFormat].
func (sf *Surface) Init(gp *GPU, dev *Device, rp *RenderPass, vs vk.Surface, size image.Point) error {
	sf.GPU = gp
	sf.Device = dev
	sf.RenderPass = rp
	sf.Surface = vs
	if sf.NFrames == 0 {
		sf.Defaults()
	}
	fence, err := NewFence(dev)
	if err != nil {
		return err
	}
	sf.acquire = fence
	return sf.InitSwapchain(size)
}

// ChoosePresentMode returns want if it is among the available modes,
// and otherwise FIFO, which every device supports.
func ChoosePresentMode(available []vk.PresentMode, want vk.PresentMode) vk.PresentMode {
	for _, m := range available {
		if m == want {
			return want
		}
	}
	return vk.PresentModeFifo
}

// ChooseExtent returns the current extent of the surface if the
// window system fixes it, and otherwise the requested size clamped
// to the allowed range.
func ChooseExtent(caps *vk.SurfaceCapabilities, size image.Point) vk.Extent2D {
	if caps.CurrentExtent.Width != vk.MaxUint32 {
		return caps.CurrentExtent
	}
	clamp := func(v int, lo, hi uint32) uint32 {
		return max(lo, min(hi, uint32(max(v, 0))))
	}
	return vk.Extent2D{
		Width:  clamp(size.X, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(size.Y, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// ImageCount returns the requested number of images within the
// limits of the surface. A max of 0 means no limit.
func ImageCount(want int, minCount, maxCount uint32) uint32 {
	n := max(uint32(want), minCount)
	if maxCount > 0 && n > maxCount {
		n = maxCount
	}
	return n
}

func (sf *Surface) presentModes() []vk.PresentMode {
	var n uint32
	vk.GetPhysicalDeviceSurfacePresentModes(sf.GPU.GPU, sf.Surface, &n, nil)
	modes := make([]vk.PresentMode, n)
	vk.GetPhysicalDeviceSurfacePresentModes(sf.GPU.GPU, sf.Surface, &n, modes)
	return modes
}

// colorSpace returns the color space the surface offers for
// [SurfaceFormat], or an error if it does not offer the format.
func (sf *Surface) colorSpace() (vk.ColorSpace, error) {
	var n uint32
	vk.GetPhysicalDeviceSurfaceFormats(sf.GPU.GPU, sf.Surface, &n, nil)
	formats := make([]vk.SurfaceFormat, n)
	vk.GetPhysicalDeviceSurfaceFormats(sf.GPU.GPU, sf.Surface, &n, formats)
	for _, f := range formats {
		f.Deref()
		// a single undefined format means any format may be used
		if f.Format == SurfaceFormat || (n == 1 && f.Format == vk.FormatUndefined) {
			return f.ColorSpace, nil
		}
	}
	return 0, errors.New("vgpu: surface does not support 8-bit BGRA images")
}

// InitSwapchain makes the swapchain for the given requested size,
// replacing any existing one, and the frames for its images.
func (sf *Surface) InitSwapchain(size image.Point) error {
	var caps vk.SurfaceCapabilities
	ret := vk.GetPhysicalDeviceSurfaceCapabilities(sf.GPU.GPU, sf.Surface, &caps)
	if err := NewError("GetPhysicalDeviceSurfaceCapabilities", ret); err != nil {
		return err
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()

	colorSpace, err := sf.colorSpace()
	if err != nil {
		return err
	}
	extent := ChooseExtent(&caps, size)
	mode := ChoosePresentMode(sf.presentModes(), sf.PresentMode)
	if mode != sf.PresentMode {
		slog.Info("vgpu: present mode not supported, using FIFO", "requested", sf.PresentMode)
	}

	oldSwapchain := sf.Swapchain
	swci := &vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          sf.Surface,
		MinImageCount:    ImageCount(sf.NFrames, caps.MinImageCount, caps.MaxImageCount),
		ImageFormat:      SurfaceFormat,
		ImageColorSpace:  colorSpace,
		ImageExtent:      extent,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     caps.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		ImageArrayLayers: 1,
		ImageSharingMode: vk.SharingModeExclusive,
		PresentMode:      mode,
		OldSwapchain:     oldSwapchain,
		Clipped:          vk.True,
	}
	var swapchain vk.Swapchain
	if err := NewError("CreateSwapchain", vk.CreateSwapchain(sf.Device.Device, swci, nil, &swapchain)); err != nil {
		return err
	}
	sf.destroyFrames()
	if oldSwapchain != vk.NullSwapchain {
		vk.DestroySwapchain(sf.Device.Device, oldSwapchain, nil)
	}
	sf.Swapchain = swapchain
	sf.Format.Set(int(extent.Width), int(extent.Height), SurfaceFormat)

	var n uint32
	if err := NewError("GetSwapchainImages", vk.GetSwapchainImages(sf.Device.Device, sf.Swapchain, &n, nil)); err != nil {
		return err
	}
	images := make([]vk.Image, n)
	if err := NewError("GetSwapchainImages", vk.GetSwapchainImages(sf.Device.Device, sf.Swapchain, &n, images)); err != nil {
		return err
	}
	sf.NFrames = int(n)
	sf.Frames = make([]*Framebuffer, 0, n)
	for _, img := range images[:n] {
		fb := &Framebuffer{}
		if err := fb.Config(sf.Device.Device, sf.RenderPass, sf.Format, img); err != nil {
			fb.Destroy()
			return err
		}
		sf.Frames = append(sf.Frames, fb)
	}
	slog.Debug("vgpu: swapchain", "size", sf.Format.Size, "images", sf.NFrames, "mode", mode)
	return nil
}

// Resize waits for the device to be idle and remakes the swapchain
// and frames at the given size. Shader modules, pipelines and
// descriptor layouts are not affected.
func (sf *Surface) Resize(size image.Point) error {
	if err := sf.Device.WaitIdle(); err != nil {
		return err
	}
	return sf.InitSwapchain(size)
}

// AcquireNextImage gets the index of the next available swapchain
// image, blocking with no timeout until it is ready to render to.
// A suboptimal swapchain still returns a usable image along with
// an error wrapping [ErrSuboptimal].
func (sf *Surface) AcquireNextImage() (int, error) {
	dev := sf.Device
	if err := NewError("ResetFences", vk.ResetFences(dev.Device, 1, []vk.Fence{sf.acquire})); err != nil {
		return -1, err
	}
	var idx uint32
	ret := vk.AcquireNextImage(dev.Device, sf.Swapchain, vk.MaxUint64, nil, sf.acquire, &idx)
	if IsError(ret) {
		return -1, NewError("AcquireNextImage", ret)
	}
	if err := WaitFence(dev, sf.acquire); err != nil {
		return -1, err
	}
	return int(idx), NewError("AcquireNextImage", ret)
}

// PresentImage presents the image at the given index on the
// device queue.
func (sf *Surface) PresentImage(idx int) error {
	ret := vk.QueuePresent(sf.Device.Queue, &vk.PresentInfo{
		SType:          vk.StructureTypePresentInfo,
		SwapchainCount: 1,
		PSwapchains:    []vk.Swapchain{sf.Swapchain},
		PImageIndices:  []uint32{uint32(idx)},
	})
	return NewError("QueuePresent", ret)
}

func (sf *Surface) destroyFrames() {
	for _, fb := range sf.Frames {
		fb.Destroy()
	}
	sf.Frames = nil
}

// Destroy destroys the frames, swapchain and surface.
func (sf *Surface) Destroy() {
	if sf.Device != nil && sf.Device.Device != nil {
		sf.Device.WaitIdle()
		sf.destroyFrames()
		if sf.Swapchain != vk.NullSwapchain {
			vk.DestroySwapchain(sf.Device.Device, sf.Swapchain, nil)
			sf.Swapchain = vk.NullSwapchain
		}
		if sf.acquire != nil {
			vk.DestroyFence(sf.Device.Device, sf.acquire, nil)
			sf.acquire = nil
		}
	}
	if sf.Surface != vk.NullSurface && sf.GPU != nil {
		vk.DestroySurface(sf.GPU.Instance, sf.Surface, nil)
		sf.Surface = vk.NullSurface
	}
}
