// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vgpu

import vk "github.com/goki/vulkan"

// Framebuffer is the render target for one swapchain image:
// the image, its view, and the framebuffer binding the view to
// the render pass.
type Framebuffer struct {

	// Format has the size and format of the image.
	Format ImageFormat

	// Image is owned by the swapchain.
	Image vk.Image

	// View is owned by the Framebuffer.
	View vk.ImageView

	Framebuffer vk.Framebuffer

	dev vk.Device
}

// Config makes the view and framebuffer for the given swapchain
// image and render pass, destroying any existing ones.
func (fb *Framebuffer) Config(dev vk.Device, rp *RenderPass, format ImageFormat, img vk.Image) error {
	fb.Destroy()
	fb.dev = dev
	fb.Format = format
	fb.Image = img
	view, err := NewImageView(dev, img, format.Format)
	if err != nil {
		return err
	}
	fb.View = view
	w, h := format.Size32()
	var frameBuff vk.Framebuffer
	ret := vk.CreateFramebuffer(dev, &vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      rp.VkPass,
		AttachmentCount: 1,
		PAttachments:    []vk.ImageView{fb.View},
		Width:           w,
		Height:          h,
		Layers:          1,
	}, nil, &frameBuff)
	if err := NewError("CreateFramebuffer", ret); err != nil {
		return err
	}
	fb.Framebuffer = frameBuff
	return nil
}

// Destroy destroys the framebuffer and view. The image belongs to
// the swapchain.
func (fb *Framebuffer) Destroy() {
	if fb.dev == nil {
		return
	}
	if fb.Framebuffer != nil {
		vk.DestroyFramebuffer(fb.dev, fb.Framebuffer, nil)
		fb.Framebuffer = nil
	}
	if fb.View != nil {
		vk.DestroyImageView(fb.dev, fb.View, nil)
		fb.View = nil
	}
	fb.Image = nil
}
