// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vgpu

import (
	"errors"
	"image"
	"testing"
	"time"

	"cogentcore.org/vkdraw/atlas"
	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewError(t *testing.T) {
	assert.NoError(t, NewError("op", vk.Success))

	tests := []struct {
		ret  vk.Result
		want error
	}{
		{vk.ErrorOutOfDate, ErrOutOfDate},
		{vk.Suboptimal, ErrSuboptimal},
		{vk.ErrorDeviceLost, ErrDeviceLost},
		{vk.ErrorSurfaceLost, ErrSurfaceLost},
	}
	for _, tt := range tests {
		err := NewError("QueuePresent", tt.ret)
		require.Error(t, err)
		assert.ErrorIs(t, err, tt.want)
		assert.Contains(t, err.Error(), "QueuePresent")
	}

	err := NewError("AllocateMemory", vk.ErrorOutOfDeviceMemory)
	require.Error(t, err)
	for _, s := range []error{ErrOutOfDate, ErrSuboptimal, ErrDeviceLost, ErrSurfaceLost} {
		assert.False(t, errors.Is(err, s))
	}
}

func TestIsError(t *testing.T) {
	assert.False(t, IsError(vk.Success))
	assert.False(t, IsError(vk.Suboptimal))
	assert.True(t, IsError(vk.ErrorOutOfDate))
	assert.True(t, IsError(vk.ErrorDeviceLost))
}

func TestChoosePresentMode(t *testing.T) {
	avail := []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox}
	assert.Equal(t, vk.PresentModeMailbox, ChoosePresentMode(avail, vk.PresentModeMailbox))
	assert.Equal(t, vk.PresentModeFifo, ChoosePresentMode(avail, vk.PresentModeFifoRelaxed))
	assert.Equal(t, vk.PresentModeFifo, ChoosePresentMode(nil, vk.PresentModeImmediate))
}

func TestParsePresentMode(t *testing.T) {
	m, err := ParsePresentMode("fifo-relaxed")
	require.NoError(t, err)
	assert.Equal(t, vk.PresentModeFifoRelaxed, m)

	m, err = ParsePresentMode("Mailbox")
	require.NoError(t, err)
	assert.Equal(t, vk.PresentModeMailbox, m)

	_, err = ParsePresentMode("vsync")
	assert.Error(t, err)
}

func TestChooseExtent(t *testing.T) {
	caps := &vk.SurfaceCapabilities{
		CurrentExtent:  vk.Extent2D{Width: 0xFFFFFFFF, Height: 0xFFFFFFFF},
		MinImageExtent: vk.Extent2D{Width: 1, Height: 1},
		MaxImageExtent: vk.Extent2D{Width: 4096, Height: 4096},
	}
	ext := ChooseExtent(caps, image.Pt(800, 600))
	assert.Equal(t, uint32(800), ext.Width)
	assert.Equal(t, uint32(600), ext.Height)

	ext = ChooseExtent(caps, image.Pt(10000, 0))
	assert.Equal(t, uint32(4096), ext.Width)
	assert.Equal(t, uint32(1), ext.Height)

	// a defined current extent is what the surface requires
	caps.CurrentExtent = vk.Extent2D{Width: 640, Height: 480}
	ext = ChooseExtent(caps, image.Pt(800, 600))
	assert.Equal(t, uint32(640), ext.Width)
	assert.Equal(t, uint32(480), ext.Height)
}

func TestImageCount(t *testing.T) {
	assert.Equal(t, uint32(2), ImageCount(2, 1, 3))
	assert.Equal(t, uint32(3), ImageCount(2, 3, 8))
	assert.Equal(t, uint32(3), ImageCount(5, 2, 3))
	assert.Equal(t, uint32(5), ImageCount(5, 2, 0))
}

func TestFindRequiredMemoryType(t *testing.T) {
	host := vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)
	local := vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)
	types := []vk.MemoryPropertyFlags{local, vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit), host | local}

	idx, ok := FindRequiredMemoryType(types, 0b111, host)
	require.True(t, ok)
	assert.Equal(t, uint32(2), idx)

	idx, ok = FindRequiredMemoryType(types, 0b111, local)
	require.True(t, ok)
	assert.Equal(t, uint32(0), idx)

	idx, ok = FindRequiredMemoryType(types, 0b110, local)
	require.True(t, ok)
	assert.Equal(t, uint32(2), idx)

	_, ok = FindRequiredMemoryType(types, 0b011, host)
	assert.False(t, ok)
}

func TestBlendState(t *testing.T) {
	bs := BlendState()
	assert.Equal(t, vk.Bool32(vk.True), bs.BlendEnable)
	assert.Equal(t, vk.BlendFactorSrcAlpha, bs.SrcColorBlendFactor)
	assert.Equal(t, vk.BlendFactorOneMinusSrcAlpha, bs.DstColorBlendFactor)
	assert.Equal(t, vk.BlendFactorOne, bs.SrcAlphaBlendFactor)
	assert.Equal(t, vk.BlendFactorOne, bs.DstAlphaBlendFactor)
	assert.Equal(t, vk.BlendOpAdd, bs.ColorBlendOp)
	assert.Equal(t, vk.BlendOpAdd, bs.AlphaBlendOp)
}

func TestDeviceScore(t *testing.T) {
	assert.Equal(t, 0, DeviceScore(true, false))
	assert.Equal(t, 0, DeviceScore(false, false))
	assert.Greater(t, DeviceScore(true, true), DeviceScore(false, true))
	assert.Positive(t, DeviceScore(false, true))
}

func TestTextureFormat(t *testing.T) {
	assert.Equal(t, vk.FormatR8Unorm, TextureFormat(atlas.Monochrome))
	assert.Equal(t, vk.FormatB8g8r8a8Unorm, TextureFormat(atlas.Polychrome))
}

func TestSafeStrings(t *testing.T) {
	assert.Equal(t, "abc\x00", safeString("abc"))
	assert.Equal(t, "abc\x00", safeString("abc\x00"))
	assert.Equal(t, []string{"a\x00", "b\x00"}, safeStrings([]string{"a", "b\x00"}))
}

func TestWaitIdleHoldsQueue(t *testing.T) {
	var dv Device
	dv.QueueMu.Lock()
	done := make(chan error, 1)
	go func() {
		done <- dv.WaitIdle()
	}()
	assert.Never(t, func() bool { return len(done) > 0 }, 50*time.Millisecond, 5*time.Millisecond)
	dv.QueueMu.Unlock()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("WaitIdle did not return after the queue was unlocked")
	}
}

func TestNewShaderModuleBadCode(t *testing.T) {
	_, err := NewShaderModule(nil, nil)
	assert.Error(t, err)
	_, err = NewShaderModule(nil, []byte{3, 2, 0x23, 0x07, 1})
	assert.Error(t, err)
}
