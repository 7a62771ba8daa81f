// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vgpu

import (
	"unsafe"

	"cogentcore.org/core/base/errors"
	vk "github.com/goki/vulkan"
)

// StagingBuffer is a host visible, coherent storage buffer that
// stays mapped for its whole lifetime, so that the host can write
// primitive data that shaders read directly.
type StagingBuffer struct {

	// allocated buffer size
	Size int

	// logical descriptor for the buffer
	Buffer vk.Buffer

	// host visible memory bound to Buffer
	Mem vk.DeviceMemory

	// memory mapped pointer into Mem, which remains mapped
	HostPtr unsafe.Pointer

	dev vk.Device
}

// Alloc makes the buffer with the given size in bytes and usage,
// allocates and binds its memory, and maps it.
func (sb *StagingBuffer) Alloc(gp *GPU, dev vk.Device, size int, usage vk.BufferUsageFlagBits) error {
	sb.dev = dev
	buff, err := NewBuffer(dev, size, usage)
	if err != nil {
		return err
	}
	sb.Buffer = buff
	mem, err := AllocBuffMem(gp, dev, buff, vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit)
	if err != nil {
		sb.Free()
		return err
	}
	sb.Mem = mem
	ptr, err := MapMemory(dev, mem, size)
	if err != nil {
		sb.Free()
		return err
	}
	sb.HostPtr = ptr
	sb.Size = size
	return nil
}

// Bytes returns the mapped memory as a byte slice. Writes are
// visible to the device without flushing.
func (sb *StagingBuffer) Bytes() []byte {
	if sb.HostPtr == nil {
		return nil
	}
	return unsafe.Slice((*byte)(sb.HostPtr), sb.Size)
}

// Free unmaps and frees the memory and destroys the buffer.
func (sb *StagingBuffer) Free() {
	if sb.dev == nil {
		return
	}
	if sb.HostPtr != nil {
		vk.UnmapMemory(sb.dev, sb.Mem)
		sb.HostPtr = nil
	}
	FreeBuffMem(sb.dev, &sb.Mem)
	DestroyBuffer(sb.dev, &sb.Buffer)
	sb.Size = 0
}

/////////////////////////////////////////////////////////////////////
// Basic memory functions

// NewBuffer makes a buffer of given size, usage
func NewBuffer(dev vk.Device, size int, usage vk.BufferUsageFlagBits) (vk.Buffer, error) {
	if size <= 0 {
		return vk.NullBuffer, errors.New("vgpu: buffer size must be positive")
	}
	var buffer vk.Buffer
	ret := vk.CreateBuffer(dev, &vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Usage:       vk.BufferUsageFlags(usage),
		Size:        vk.DeviceSize(size),
		SharingMode: vk.SharingModeExclusive,
	}, nil, &buffer)
	return buffer, NewError("CreateBuffer", ret)
}

// AllocBuffMem allocates memory for given buffer, with given properties,
// and binds it to the buffer.
func AllocBuffMem(gp *GPU, dev vk.Device, buffer vk.Buffer, props vk.MemoryPropertyFlagBits) (vk.DeviceMemory, error) {
	var memReqs vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(dev, buffer, &memReqs)
	memReqs.Deref()
	return allocMem(gp, dev, memReqs, props, func(mem vk.DeviceMemory) vk.Result {
		return vk.BindBufferMemory(dev, buffer, mem, 0)
	})
}

// AllocImageMem allocates memory for given image, with given properties,
// and binds it to the image.
func AllocImageMem(gp *GPU, dev vk.Device, img vk.Image, props vk.MemoryPropertyFlagBits) (vk.DeviceMemory, error) {
	var memReqs vk.MemoryRequirements
	vk.GetImageMemoryRequirements(dev, img, &memReqs)
	memReqs.Deref()
	return allocMem(gp, dev, memReqs, props, func(mem vk.DeviceMemory) vk.Result {
		return vk.BindImageMemory(dev, img, mem, 0)
	})
}

func allocMem(gp *GPU, dev vk.Device, memReqs vk.MemoryRequirements, props vk.MemoryPropertyFlagBits, bind func(mem vk.DeviceMemory) vk.Result) (vk.DeviceMemory, error) {
	memType, ok := FindRequiredMemoryType(MemoryTypeFlags(gp.MemoryProperties), memReqs.MemoryTypeBits, vk.MemoryPropertyFlags(props))
	if !ok {
		return vk.NullDeviceMemory, errors.New("vgpu: failed to find required memory type")
	}
	var memory vk.DeviceMemory
	ret := vk.AllocateMemory(dev, &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: memType,
	}, nil, &memory)
	if err := NewError("AllocateMemory", ret); err != nil {
		return vk.NullDeviceMemory, err
	}
	if err := NewError("BindMemory", bind(memory)); err != nil {
		vk.FreeMemory(dev, memory, nil)
		return vk.NullDeviceMemory, err
	}
	return memory, nil
}

// MapMemory maps the buffer memory, returning a pointer into start of buffer memory
func MapMemory(dev vk.Device, mem vk.DeviceMemory, size int) (unsafe.Pointer, error) {
	var buffPtr unsafe.Pointer
	ret := vk.MapMemory(dev, mem, 0, vk.DeviceSize(size), 0, &buffPtr)
	return buffPtr, NewError("MapMemory", ret)
}

// FreeBuffMem frees given device memory to nil
func FreeBuffMem(dev vk.Device, memory *vk.DeviceMemory) {
	if *memory == vk.NullDeviceMemory {
		return
	}
	vk.FreeMemory(dev, *memory, nil)
	*memory = vk.NullDeviceMemory
}

// DestroyBuffer destroys given buffer and nils the pointer
func DestroyBuffer(dev vk.Device, buff *vk.Buffer) {
	if *buff == vk.NullBuffer {
		return
	}
	vk.DestroyBuffer(dev, *buff, nil)
	*buff = vk.NullBuffer
}

// MemoryTypeFlags returns the property flags of each memory type.
func MemoryTypeFlags(props vk.PhysicalDeviceMemoryProperties) []vk.MemoryPropertyFlags {
	n := min(props.MemoryTypeCount, vk.MaxMemoryTypes)
	flags := make([]vk.MemoryPropertyFlags, n)
	for i := range n {
		props.MemoryTypes[i].Deref()
		flags[i] = props.MemoryTypes[i].PropertyFlags
	}
	return flags
}

// FindRequiredMemoryType returns the index of the first memory type
// that is allowed by the typeBits mask of a memory requirement and
// has all of the required property flags.
func FindRequiredMemoryType(types []vk.MemoryPropertyFlags, typeBits uint32, required vk.MemoryPropertyFlags) (uint32, bool) {
	for i, flags := range types {
		if typeBits&(1<<uint32(i)) == 0 {
			continue
		}
		if flags&required == required {
			return uint32(i), true
		}
	}
	return 0, false
}
