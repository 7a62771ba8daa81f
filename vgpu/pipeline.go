// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vgpu

import (
	"image"
	"unsafe"

	"cogentcore.org/core/base/errors"
	vk "github.com/goki/vulkan"
)

// PushSize is the size in bytes of the push constant holding the
// viewport width and height as two int32 values.
const PushSize = 8

// VerticesPerInstance is the number of vertices drawn per primitive:
// two triangles forming a quad.
const VerticesPerInstance = 6

// Pipeline draws one kind of primitive. It reads instance records
// from the shared storage buffer through its own descriptor set,
// with no vertex input.
type Pipeline struct {

	// unique name of this pipeline
	Name string

	// Layout is the pipeline layout: the shared descriptor set
	// layout and the viewport push constant range.
	Layout vk.PipelineLayout

	// Desc is the descriptor set of this pipeline.
	Desc *DescSet

	// VkConfig has the pipeline configuration options
	VkConfig vk.GraphicsPipelineCreateInfo

	// the created vulkan pipeline
	VkPipeline vk.Pipeline

	// cache
	VkCache vk.PipelineCache

	dev     vk.Device
	modules [2]vk.ShaderModule
}

// NewPipeline builds a pipeline from vertex and fragment SPIR-V code
// for the render pass, with a descriptor set allocated from dl.
func NewPipeline(dev vk.Device, name string, vert, frag []byte, rp *RenderPass, dl *DescLayout) (*Pipeline, error) {
	pl := &Pipeline{Name: name, dev: dev}
	desc, err := dl.NewSet()
	if err != nil {
		return nil, err
	}
	pl.Desc = desc
	var layout vk.PipelineLayout
	ret := vk.CreatePipelineLayout(dev, &vk.PipelineLayoutCreateInfo{
		SType:                  vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount:         1,
		PSetLayouts:            []vk.DescriptorSetLayout{dl.VkLayout},
		PushConstantRangeCount: 1,
		PPushConstantRanges: []vk.PushConstantRange{{
			StageFlags: vk.ShaderStageFlags(vk.ShaderStageVertexBit),
			Offset:     0,
			Size:       PushSize,
		}},
	}, nil, &layout)
	if err := NewError("CreatePipelineLayout", ret); err != nil {
		return nil, err
	}
	pl.Layout = layout
	pl.SetGraphicsDefaults()
	if err := pl.Build(vert, frag, rp); err != nil {
		pl.Destroy()
		return nil, err
	}
	return pl, nil
}

// NewShaderModule makes a shader module from SPIR-V code.
func NewShaderModule(dev vk.Device, code []byte) (vk.ShaderModule, error) {
	if len(code) == 0 || len(code)%4 != 0 {
		return nil, errors.New("vgpu: SPIR-V code must be a non-empty multiple of 4 bytes")
	}
	var module vk.ShaderModule
	ret := vk.CreateShaderModule(dev, &vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(len(code)),
		PCode:    unsafe.Slice((*uint32)(unsafe.Pointer(&code[0])), len(code)/4),
	}, nil, &module)
	return module, NewError("CreateShaderModule", ret)
}

// Build makes the vulkan pipeline from the given shader code,
// replacing any existing pipeline and shader modules. The layout
// and descriptor set are kept.
func (pl *Pipeline) Build(vert, frag []byte, rp *RenderPass) error {
	vm, err := NewShaderModule(pl.dev, vert)
	if err != nil {
		return errors.Join(errors.New("vgpu: vertex shader for "+pl.Name), err)
	}
	fm, err := NewShaderModule(pl.dev, frag)
	if err != nil {
		vk.DestroyShaderModule(pl.dev, vm, nil)
		return errors.Join(errors.New("vgpu: fragment shader for "+pl.Name), err)
	}
	pl.VkConfig.StageCount = 2
	pl.VkConfig.PStages = []vk.PipelineShaderStageCreateInfo{
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageVertexBit,
			Module: vm,
			PName:  "main\x00",
		},
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFragmentBit,
			Module: fm,
			PName:  "main\x00",
		},
	}
	pl.VkConfig.SType = vk.StructureTypeGraphicsPipelineCreateInfo
	pl.VkConfig.Layout = pl.Layout
	pl.VkConfig.RenderPass = rp.VkPass
	pl.VkConfig.PVertexInputState = &vk.PipelineVertexInputStateCreateInfo{
		SType: vk.StructureTypePipelineVertexInputStateCreateInfo,
	}
	pl.VkConfig.PMultisampleState = &vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: vk.SampleCount1Bit,
	}
	pl.VkConfig.PViewportState = &vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ScissorCount:  1,
		ViewportCount: 1,
	}

	var cache vk.PipelineCache
	ret := vk.CreatePipelineCache(pl.dev, &vk.PipelineCacheCreateInfo{
		SType: vk.StructureTypePipelineCacheCreateInfo,
	}, nil, &cache)
	if err := NewError("CreatePipelineCache", ret); err != nil {
		vk.DestroyShaderModule(pl.dev, vm, nil)
		vk.DestroyShaderModule(pl.dev, fm, nil)
		return err
	}
	pipeline := make([]vk.Pipeline, 1)
	ret = vk.CreateGraphicsPipelines(pl.dev, cache, 1, []vk.GraphicsPipelineCreateInfo{pl.VkConfig}, nil, pipeline)
	if err := NewError("CreateGraphicsPipelines", ret); err != nil {
		vk.DestroyPipelineCache(pl.dev, cache, nil)
		vk.DestroyShaderModule(pl.dev, vm, nil)
		vk.DestroyShaderModule(pl.dev, fm, nil)
		return err
	}
	pl.DestroyPipeline()
	pl.FreeShaders()
	pl.VkCache = cache
	pl.VkPipeline = pipeline[0]
	pl.modules = [2]vk.ShaderModule{vm, fm}
	return nil
}

// FreeShaders destroys the shader modules of the current pipeline.
func (pl *Pipeline) FreeShaders() {
	for i, m := range pl.modules {
		if m != nil {
			vk.DestroyShaderModule(pl.dev, m, nil)
			pl.modules[i] = nil
		}
	}
}

func (pl *Pipeline) DestroyPipeline() {
	if pl.VkPipeline != nil {
		vk.DestroyPipeline(pl.dev, pl.VkPipeline, nil)
		pl.VkPipeline = nil
	}
	if pl.VkCache != nil {
		vk.DestroyPipelineCache(pl.dev, pl.VkCache, nil)
		pl.VkCache = nil
	}
}

func (pl *Pipeline) Destroy() {
	pl.DestroyPipeline()
	pl.FreeShaders()
	if pl.Layout != nil {
		vk.DestroyPipelineLayout(pl.dev, pl.Layout, nil)
		pl.Layout = nil
	}
}

//////////////////////////////////////////////////////////////
// Set graphics options

// SetGraphicsDefaults configures the fixed state shared by all
// primitive pipelines: dynamic viewport and scissor, triangle list
// topology, filled polygons with no culling, and alpha blending.
func (pl *Pipeline) SetGraphicsDefaults() {
	pl.SetDynamicState()
	pl.VkConfig.PInputAssemblyState = &vk.PipelineInputAssemblyStateCreateInfo{
		SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology: vk.PrimitiveTopologyTriangleList,
	}
	pl.VkConfig.PRasterizationState = &vk.PipelineRasterizationStateCreateInfo{
		SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
		PolygonMode: vk.PolygonModeFill,
		CullMode:    vk.CullModeFlags(vk.CullModeNone),
		FrontFace:   vk.FrontFaceCounterClockwise,
		LineWidth:   1,
	}
	cb := BlendState()
	pl.VkConfig.PColorBlendState = &vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOpEnable:   vk.False,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{cb},
	}
}

// SetDynamicState sets the Viewport and Scissor as dynamic, so that
// they follow the target size without rebuilding the pipeline.
func (pl *Pipeline) SetDynamicState() {
	pl.VkConfig.PDynamicState = &vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: 2,
		PDynamicStates: []vk.DynamicState{
			vk.DynamicStateScissor,
			vk.DynamicStateViewport,
		},
	}
}

// BlendState returns the color blend state of all pipelines:
// color is src*srcAlpha + dst*(1-srcAlpha), and alpha
// accumulates as src + dst.
func BlendState() vk.PipelineColorBlendAttachmentState {
	return vk.PipelineColorBlendAttachmentState{
		BlendEnable:         vk.True,
		SrcColorBlendFactor: vk.BlendFactorSrcAlpha,
		DstColorBlendFactor: vk.BlendFactorOneMinusSrcAlpha,
		ColorBlendOp:        vk.BlendOpAdd,
		SrcAlphaBlendFactor: vk.BlendFactorOne,
		DstAlphaBlendFactor: vk.BlendFactorOne,
		AlphaBlendOp:        vk.BlendOpAdd,
		ColorWriteMask:      0xF,
	}
}

////////////////////////////////////////////////////////
// Graphics render

// SetViewport sets the dynamic viewport and scissor to cover size.
func SetViewport(cmd vk.CommandBuffer, size image.Point) {
	vk.CmdSetViewport(cmd, 0, 1, []vk.Viewport{{
		Width:    float32(size.X),
		Height:   float32(size.Y),
		MinDepth: 0,
		MaxDepth: 1,
	}})
	vk.CmdSetScissor(cmd, 0, 1, []vk.Rect2D{{
		Extent: vk.Extent2D{Width: uint32(size.X), Height: uint32(size.Y)},
	}})
}

// Bind adds commands to bind this pipeline, then its descriptor set
// at the given dynamic offset into the storage buffer, and then the
// viewport size push constant. This order is required before Draw.
func (pl *Pipeline) Bind(cmd vk.CommandBuffer, offset int, size image.Point) {
	vk.CmdBindPipeline(cmd, vk.PipelineBindPointGraphics, pl.VkPipeline)
	vk.CmdBindDescriptorSets(cmd, vk.PipelineBindPointGraphics, pl.Layout, 0, 1,
		[]vk.DescriptorSet{pl.Desc.VkSet}, 1, []uint32{uint32(offset)})
	// note: must be a local variable for cgo
	push := [2]int32{int32(size.X), int32(size.Y)}
	vk.CmdPushConstants(cmd, pl.Layout, vk.ShaderStageFlags(vk.ShaderStageVertexBit), 0, PushSize, unsafe.Pointer(&push))
}

// Draw adds a CmdDraw of instances quads.
func (pl *Pipeline) Draw(cmd vk.CommandBuffer, instances int) {
	vk.CmdDraw(cmd, VerticesPerInstance, uint32(instances), 0, 0)
}
