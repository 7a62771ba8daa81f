// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vgpu

import vk "github.com/goki/vulkan"

// DescStages are the shader stages that can read the storage buffer.
const DescStages = vk.ShaderStageVertexBit | vk.ShaderStageFragmentBit

// DescLayout is the descriptor set layout shared by all pipelines:
// exactly one binding, a dynamically offset storage buffer visible
// to the vertex and fragment stages. It also owns the pool that
// per-pipeline sets are allocated from.
type DescLayout struct {
	Dev vk.Device

	// MaxSets is the number of sets that can be allocated.
	MaxSets int

	VkLayout vk.DescriptorSetLayout
	VkPool   vk.DescriptorPool
}

// Init makes the layout and a pool with room for maxSets sets.
func (dl *DescLayout) Init(dev vk.Device, maxSets int) error {
	dl.Dev = dev
	dl.MaxSets = maxSets
	binding := vk.DescriptorSetLayoutBinding{
		Binding:         0,
		DescriptorType:  vk.DescriptorTypeStorageBufferDynamic,
		DescriptorCount: 1,
		StageFlags:      vk.ShaderStageFlags(DescStages),
	}
	var layout vk.DescriptorSetLayout
	ret := vk.CreateDescriptorSetLayout(dev, &vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: 1,
		PBindings:    []vk.DescriptorSetLayoutBinding{binding},
	}, nil, &layout)
	if err := NewError("CreateDescriptorSetLayout", ret); err != nil {
		return err
	}
	dl.VkLayout = layout

	var pool vk.DescriptorPool
	ret = vk.CreateDescriptorPool(dev, &vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       uint32(maxSets),
		PoolSizeCount: 1,
		PPoolSizes: []vk.DescriptorPoolSize{{
			Type:            vk.DescriptorTypeStorageBufferDynamic,
			DescriptorCount: uint32(maxSets),
		}},
	}, nil, &pool)
	if err := NewError("CreateDescriptorPool", ret); err != nil {
		return err
	}
	dl.VkPool = pool
	return nil
}

// NewSet allocates a new descriptor set with this layout.
func (dl *DescLayout) NewSet() (*DescSet, error) {
	sets := make([]vk.DescriptorSet, 1)
	ret := vk.AllocateDescriptorSets(dl.Dev, &vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     dl.VkPool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{dl.VkLayout},
	}, &sets[0])
	if err := NewError("AllocateDescriptorSets", ret); err != nil {
		return nil, err
	}
	return &DescSet{Dev: dl.Dev, VkSet: sets[0]}, nil
}

func (dl *DescLayout) Destroy() {
	if dl.Dev == nil {
		return
	}
	if dl.VkPool != nil {
		vk.DestroyDescriptorPool(dl.Dev, dl.VkPool, nil)
		dl.VkPool = nil
	}
	if dl.VkLayout != nil {
		vk.DestroyDescriptorSetLayout(dl.Dev, dl.VkLayout, nil)
		dl.VkLayout = nil
	}
}

// DescSet is one descriptor set, pointing at a range of a buffer
// whose start is given by a dynamic offset when it is bound.
type DescSet struct {
	Dev   vk.Device
	VkSet vk.DescriptorSet

	// Range is the current size in bytes of the bound region.
	Range int
}

// Update points the set at the given buffer, with the region that
// each bind addresses being rng bytes long. It must not be called
// while a command buffer using the set is being recorded or is
// executing.
func (ds *DescSet) Update(buff vk.Buffer, rng int) {
	ds.Range = rng
	write := vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          ds.VkSet,
		DstBinding:      0,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeStorageBufferDynamic,
		PBufferInfo: []vk.DescriptorBufferInfo{{
			Buffer: buff,
			Offset: 0,
			Range:  vk.DeviceSize(rng),
		}},
	}
	vk.UpdateDescriptorSets(ds.Dev, 1, []vk.WriteDescriptorSet{write}, 0, nil)
}
