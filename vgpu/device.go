// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vgpu

import (
	"sync"

	"cogentcore.org/core/base/errors"
	vk "github.com/goki/vulkan"
)

// Device holds Device and associated Queue info
type Device struct {

	// logical device
	Device vk.Device

	// queue family index for device
	QueueIndex uint32

	// queue for device, used for both graphics and present
	Queue vk.Queue

	// QueueMu must be held for any use of Queue, including waiting
	// for the whole device to be idle.
	QueueMu sync.Mutex
}

// FindQueue returns the index of the first queue family of the
// physical device that supports graphics and can present to the
// given surface.
func FindQueue(pd vk.PhysicalDevice, surface vk.Surface) (uint32, bool) {
	var n uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &n, nil)
	props := make([]vk.QueueFamilyProperties, n)
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &n, props)
	for i := uint32(0); i < n; i++ {
		props[i].Deref()
		if props[i].QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) == 0 {
			continue
		}
		var present vk.Bool32
		if IsError(vk.GetPhysicalDeviceSurfaceSupport(pd, i, surface, &present)) {
			continue
		}
		if present.B() {
			return i, true
		}
	}
	return 0, false
}

// Init finds the graphics and present queue for the surface on the
// selected GPU, and makes the logical device and its queue.
func (dv *Device) Init(gp *GPU, surface vk.Surface) error {
	idx, ok := FindQueue(gp.GPU, surface)
	if !ok {
		return errors.New("vgpu: could not find a queue with graphics and present capabilities")
	}
	dv.QueueIndex = idx
	return dv.MakeDevice(gp)
}

// MakeDevice makes the Device and Queue based on QueueIndex
func (dv *Device) MakeDevice(gp *GPU) error {
	queueInfos := []vk.DeviceQueueCreateInfo{{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: dv.QueueIndex,
		QueueCount:       1,
		PQueuePriorities: []float32{1.0},
	}}
	info := &vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(gp.DeviceExts)),
		PpEnabledExtensionNames: safeStrings(gp.DeviceExts),
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{{}},
	}
	if gp.Debug {
		info.EnabledLayerCount = uint32(len(gp.ValidationLayers))
		info.PpEnabledLayerNames = safeStrings(gp.ValidationLayers)
	}
	var device vk.Device
	if err := NewError("CreateDevice", vk.CreateDevice(gp.GPU, info, nil, &device)); err != nil {
		return err
	}
	dv.Device = device

	var queue vk.Queue
	vk.GetDeviceQueue(dv.Device, dv.QueueIndex, 0, &queue)
	dv.Queue = queue
	return nil
}

// WaitIdle waits until the device has finished all work, holding
// QueueMu while it waits.
func (dv *Device) WaitIdle() error {
	dv.QueueMu.Lock()
	defer dv.QueueMu.Unlock()
	if dv.Device == nil {
		return nil
	}
	return NewError("DeviceWaitIdle", vk.DeviceWaitIdle(dv.Device))
}

func (dv *Device) Destroy() {
	if dv.Device == nil {
		return
	}
	dv.WaitIdle()
	vk.DestroyDevice(dv.Device, nil)
	dv.Device = nil
}
