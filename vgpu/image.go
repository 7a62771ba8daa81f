// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vgpu

import (
	"image"

	vk "github.com/goki/vulkan"
)

// ImageFormat describes the size and format of an Image
type ImageFormat struct {

	// Size of image
	Size image.Point

	// Image format. FormatB8g8r8a8Unorm is used for the swapchain.
	Format vk.Format
}

func (im *ImageFormat) Set(w, h int, ft vk.Format) {
	im.Size = image.Point{X: w, Y: h}
	im.Format = ft
}

// Size32 returns size as uint32 values
func (im *ImageFormat) Size32() (width, height uint32) {
	width = uint32(im.Size.X)
	height = uint32(im.Size.Y)
	return
}

// Extent returns the size as a vulkan extent.
func (im *ImageFormat) Extent() vk.Extent2D {
	w, h := im.Size32()
	return vk.Extent2D{Width: w, Height: h}
}

// NewImageView makes a standard 2D color view of the image.
func NewImageView(dev vk.Device, img vk.Image, format vk.Format) (vk.ImageView, error) {
	var view vk.ImageView
	ret := vk.CreateImageView(dev, &vk.ImageViewCreateInfo{
		SType:  vk.StructureTypeImageViewCreateInfo,
		Format: format,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LevelCount: 1,
			LayerCount: 1,
		},
		ViewType: vk.ImageViewType2d,
		Image:    img,
	}, nil, &view)
	return view, NewError("CreateImageView", ret)
}
