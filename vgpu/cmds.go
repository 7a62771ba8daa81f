// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vgpu

import vk "github.com/goki/vulkan"

// CmdPool is a command pool and buffer
type CmdPool struct {
	Pool vk.CommandPool
	Buff vk.CommandBuffer
}

// Init initializes a pool whose buffers can be individually reset
// and recorded again.
func (cp *CmdPool) Init(dv *Device) error {
	var cmdPool vk.CommandPool
	ret := vk.CreateCommandPool(dv.Device, &vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: dv.QueueIndex,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}, nil, &cmdPool)
	if err := NewError("CreateCommandPool", ret); err != nil {
		return err
	}
	cp.Pool = cmdPool
	return nil
}

// NewBuffer allocates a primary command buffer in the pool and
// sets it as Buff.
func (cp *CmdPool) NewBuffer(dv *Device) error {
	cmdBuff := make([]vk.CommandBuffer, 1)
	ret := vk.AllocateCommandBuffers(dv.Device, &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        cp.Pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}, cmdBuff)
	if err := NewError("AllocateCommandBuffers", ret); err != nil {
		return err
	}
	cp.Buff = cmdBuff[0]
	return nil
}

// BeginCmd resets Buff and begins recording a one time submission.
func (cp *CmdPool) BeginCmd() error {
	if err := NewError("ResetCommandBuffer", vk.ResetCommandBuffer(cp.Buff, 0)); err != nil {
		return err
	}
	return NewError("BeginCommandBuffer", vk.BeginCommandBuffer(cp.Buff, &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}))
}

// EndCmd ends recording of Buff.
func (cp *CmdPool) EndCmd() error {
	return NewError("EndCommandBuffer", vk.EndCommandBuffer(cp.Buff))
}

// SubmitWait submits Buff to the device queue and blocks until the
// given fence signals that the GPU has finished executing it.
// The fence is reset first.
func (cp *CmdPool) SubmitWait(dv *Device, fence vk.Fence) error {
	if err := NewError("ResetFences", vk.ResetFences(dv.Device, 1, []vk.Fence{fence})); err != nil {
		return err
	}
	ret := vk.QueueSubmit(dv.Queue, 1, []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{cp.Buff},
	}}, fence)
	if err := NewError("QueueSubmit", ret); err != nil {
		return err
	}
	return WaitFence(dv, fence)
}

// Destroy destroys the pool and its buffers.
func (cp *CmdPool) Destroy(dev vk.Device) {
	if cp.Pool == nil {
		return
	}
	vk.DestroyCommandPool(dev, cp.Pool, nil)
	cp.Pool = nil
	cp.Buff = nil
}

// NewFence makes a new unsignaled fence.
func NewFence(dv *Device) (vk.Fence, error) {
	var fence vk.Fence
	ret := vk.CreateFence(dv.Device, &vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}, nil, &fence)
	return fence, NewError("CreateFence", ret)
}

// WaitFence blocks with no timeout until the fence is signaled.
func WaitFence(dv *Device, fence vk.Fence) error {
	return NewError("WaitForFences", vk.WaitForFences(dv.Device, 1, []vk.Fence{fence}, vk.True, vk.MaxUint64))
}
