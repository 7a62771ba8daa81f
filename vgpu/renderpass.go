// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vgpu

import vk "github.com/goki/vulkan"

// RenderPass is a render pass with a single color attachment that
// is cleared on load and left ready for presentation.
type RenderPass struct {
	Dev vk.Device

	// Format of the color attachment.
	Format vk.Format

	VkPass vk.RenderPass
}

// Init makes the render pass for the given color format.
func (rp *RenderPass) Init(dev vk.Device, format vk.Format) error {
	rp.Dev = dev
	rp.Format = format
	color := vk.AttachmentDescription{
		Format:         format,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}
	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments: []vk.AttachmentReference{{
			Attachment: 0,
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
		}},
	}
	dependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
	}
	var pass vk.RenderPass
	ret := vk.CreateRenderPass(dev, &vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: 1,
		PAttachments:    []vk.AttachmentDescription{color},
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}, nil, &pass)
	if err := NewError("CreateRenderPass", ret); err != nil {
		return err
	}
	rp.VkPass = pass
	return nil
}

// Begin begins the render pass on the framebuffer, clearing it
// to the given color, with the render area covering the whole
// framebuffer.
func (rp *RenderPass) Begin(cmd vk.CommandBuffer, fb *Framebuffer, clear [4]float32) {
	w, h := fb.Format.Size32()
	var cv vk.ClearValue
	cv.SetColor(clear[:])
	vk.CmdBeginRenderPass(cmd, &vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  rp.VkPass,
		Framebuffer: fb.Framebuffer,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: vk.Extent2D{Width: w, Height: h},
		},
		ClearValueCount: 1,
		PClearValues:    []vk.ClearValue{cv},
	}, vk.SubpassContentsInline)
}

// End ends the render pass.
func (rp *RenderPass) End(cmd vk.CommandBuffer) {
	vk.CmdEndRenderPass(cmd)
}

func (rp *RenderPass) Destroy() {
	if rp.VkPass == nil {
		return
	}
	vk.DestroyRenderPass(rp.Dev, rp.VkPass, nil)
	rp.VkPass = nil
}
