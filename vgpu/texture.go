// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vgpu

import (
	"fmt"
	"image"

	"cogentcore.org/vkdraw/atlas"
	vk "github.com/goki/vulkan"
)

// TextureFormat returns the image format for an atlas texture kind.
func TextureFormat(kind atlas.TextureKinds) vk.Format {
	if kind == atlas.Polychrome {
		return vk.FormatB8g8r8a8Unorm
	}
	return vk.FormatR8Unorm
}

// Texture is a device local image holding one atlas page, with a
// view for sampling. It implements [atlas.Texture].
type Texture struct {
	Kind   atlas.TextureKinds
	Format ImageFormat

	Image vk.Image
	Mem   vk.DeviceMemory
	View  vk.ImageView

	sys *System

	// layout is the current layout of the image.
	layout vk.ImageLayout
}

// NewTexture makes a new texture page on the system device.
// It implements [atlas.TextureAllocator].
func (sy *System) NewTexture(kind atlas.TextureKinds, size image.Point) (atlas.Texture, error) {
	tx := &Texture{Kind: kind, sys: sy, layout: vk.ImageLayoutUndefined}
	tx.Format.Set(size.X, size.Y, TextureFormat(kind))
	dev := sy.Device.Device
	w, h := tx.Format.Size32()
	var img vk.Image
	ret := vk.CreateImage(dev, &vk.ImageCreateInfo{
		SType:         vk.StructureTypeImageCreateInfo,
		ImageType:     vk.ImageType2d,
		Format:        tx.Format.Format,
		Extent:        vk.Extent3D{Width: w, Height: h, Depth: 1},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         vk.ImageUsageFlags(vk.ImageUsageTransferDstBit | vk.ImageUsageSampledBit),
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}, nil, &img)
	if err := NewError("CreateImage", ret); err != nil {
		return nil, err
	}
	tx.Image = img
	mem, err := AllocImageMem(sy.GPU, dev, img, vk.MemoryPropertyDeviceLocalBit)
	if err != nil {
		tx.Release()
		return nil, err
	}
	tx.Mem = mem
	view, err := NewImageView(dev, img, tx.Format.Format)
	if err != nil {
		tx.Release()
		return nil, err
	}
	tx.View = view
	return tx, nil
}

// Upload copies tightly packed pixels into the region r of the
// texture through a temporary host buffer, and waits for the copy
// to finish. Existing contents outside r are kept.
func (tx *Texture) Upload(r image.Rectangle, pix []byte) error {
	if !r.In(image.Rectangle{Max: tx.Format.Size}) {
		return fmt.Errorf("vgpu: upload region %v outside texture %v", r, tx.Format.Size)
	}
	sy := tx.sys
	dev := sy.Device.Device
	var stg StagingBuffer
	if err := stg.Alloc(sy.GPU, dev, len(pix), vk.BufferUsageTransferSrcBit); err != nil {
		return err
	}
	defer stg.Free()
	copy(stg.Bytes(), pix)

	sy.Device.QueueMu.Lock()
	defer sy.Device.QueueMu.Unlock()
	cp := &sy.uploadCmd
	if err := cp.BeginCmd(); err != nil {
		return err
	}
	tx.transition(cp.Buff, vk.ImageLayoutTransferDstOptimal)
	vk.CmdCopyBufferToImage(cp.Buff, stg.Buffer, tx.Image, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{{
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LayerCount: 1,
		},
		ImageOffset: vk.Offset3D{X: int32(r.Min.X), Y: int32(r.Min.Y)},
		ImageExtent: vk.Extent3D{Width: uint32(r.Dx()), Height: uint32(r.Dy()), Depth: 1},
	}})
	tx.transition(cp.Buff, vk.ImageLayoutShaderReadOnlyOptimal)
	if err := cp.EndCmd(); err != nil {
		return err
	}
	return cp.SubmitWait(&sy.Device, sy.uploadFence)
}

// transition records a barrier moving the image to the given layout.
func (tx *Texture) transition(cmd vk.CommandBuffer, to vk.ImageLayout) {
	src := vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit)
	dst := vk.PipelineStageFlags(vk.PipelineStageTransferBit)
	var srcAccess, dstAccess vk.AccessFlags
	if to == vk.ImageLayoutShaderReadOnlyOptimal {
		src = vk.PipelineStageFlags(vk.PipelineStageTransferBit)
		dst = vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit)
		srcAccess = vk.AccessFlags(vk.AccessTransferWriteBit)
		dstAccess = vk.AccessFlags(vk.AccessShaderReadBit)
	} else {
		if tx.layout == vk.ImageLayoutShaderReadOnlyOptimal {
			src = vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit)
			srcAccess = vk.AccessFlags(vk.AccessShaderReadBit)
		}
		dstAccess = vk.AccessFlags(vk.AccessTransferWriteBit)
	}
	vk.CmdPipelineBarrier(cmd, src, dst, 0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       srcAccess,
		DstAccessMask:       dstAccess,
		OldLayout:           tx.layout,
		NewLayout:           to,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               tx.Image,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LevelCount: 1,
			LayerCount: 1,
		},
	}})
	tx.layout = to
}

// Release destroys the view and image and frees the memory.
func (tx *Texture) Release() {
	dev := tx.sys.Device.Device
	if dev == nil {
		return
	}
	if tx.View != nil {
		vk.DestroyImageView(dev, tx.View, nil)
		tx.View = nil
	}
	if tx.Image != nil {
		vk.DestroyImage(dev, tx.Image, nil)
		tx.Image = nil
	}
	FreeBuffMem(dev, &tx.Mem)
}
