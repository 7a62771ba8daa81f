// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vgpu

import (
	"fmt"
	"log/slog"

	"cogentcore.org/core/base/errors"
	vk "github.com/goki/vulkan"
)

// GPU holds the vulkan instance and the selected physical device.
type GPU struct {

	// Name is the application name given to the instance.
	Name string

	// Instance is the vulkan instance.
	Instance vk.Instance

	// GPU is the selected physical device, set by [GPU.SelectGPU].
	GPU vk.PhysicalDevice

	// DeviceName is the name of the selected physical device.
	DeviceName string

	// Properties of the selected physical device.
	Properties vk.PhysicalDeviceProperties

	// MemoryProperties of the selected physical device.
	MemoryProperties vk.PhysicalDeviceMemoryProperties

	// InstanceExts are the instance extensions to enable.
	InstanceExts []string

	// DeviceExts are the device extensions to enable.
	DeviceExts []string

	// ValidationLayers are the layers to enable if Debug is on.
	ValidationLayers []string

	// Debug enables the validation layers.
	Debug bool
}

// NewGPU returns a new GPU for the given application name, which
// will enable the given instance extensions, typically those
// required by the window system. Call [GPU.Config] next.
func NewGPU(name string, instanceExts []string) *GPU {
	gp := &GPU{Name: name}
	gp.InstanceExts = append(gp.InstanceExts, instanceExts...)
	gp.DeviceExts = []string{vk.KhrSwapchainExtensionName}
	gp.ValidationLayers = []string{"VK_LAYER_KHRONOS_validation"}
	PlatformDefaults(gp)
	return gp
}

// Config creates the vulkan instance.
func (gp *GPU) Config() error {
	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		PApplicationName:   safeString(gp.Name),
		ApplicationVersion: vk.MakeVersion(1, 0, 0),
		PEngineName:        "vkdraw\x00",
		EngineVersion:      vk.MakeVersion(1, 0, 0),
		ApiVersion:         vk.MakeVersion(1, 0, 0),
	}
	info := &vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        appInfo,
		EnabledExtensionCount:   uint32(len(gp.InstanceExts)),
		PpEnabledExtensionNames: safeStrings(gp.InstanceExts),
	}
	if gp.Debug {
		info.EnabledLayerCount = uint32(len(gp.ValidationLayers))
		info.PpEnabledLayerNames = safeStrings(gp.ValidationLayers)
	}
	var instance vk.Instance
	if err := NewError("CreateInstance", vk.CreateInstance(info, nil, &instance)); err != nil {
		return err
	}
	gp.Instance = instance
	return errors.Log(vk.InitInstance(instance))
}

// PhysicalDevices returns all physical devices of the instance.
func (gp *GPU) PhysicalDevices() ([]vk.PhysicalDevice, error) {
	var n uint32
	if err := NewError("EnumeratePhysicalDevices", vk.EnumeratePhysicalDevices(gp.Instance, &n, nil)); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, errors.New("vgpu: no GPU with vulkan support")
	}
	devs := make([]vk.PhysicalDevice, n)
	if err := NewError("EnumeratePhysicalDevices", vk.EnumeratePhysicalDevices(gp.Instance, &n, devs)); err != nil {
		return nil, err
	}
	return devs[:n], nil
}

// DeviceInfo describes a physical device.
type DeviceInfo struct {
	Name     string
	Type     vk.PhysicalDeviceType
	Discrete bool

	// Score is the suitability score, 0 if unsuitable.
	Score int
}

func (di DeviceInfo) String() string {
	return fmt.Sprintf("%s (discrete: %v, score: %d)", di.Name, di.Discrete, di.Score)
}

// Describe returns the name and type of a physical device,
// with a score of 1 or 1000 for a discrete GPU.
func Describe(pd vk.PhysicalDevice) DeviceInfo {
	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(pd, &props)
	props.Deref()
	di := DeviceInfo{Name: vk.ToString(props.DeviceName[:]), Type: props.DeviceType}
	di.Discrete = props.DeviceType == vk.PhysicalDeviceTypeDiscreteGpu
	di.Score = DeviceScore(di.Discrete, true)
	return di
}

// DeviceScore returns how suitable a device is. Discrete GPUs are
// preferred, and a device that cannot present is never used.
func DeviceScore(discrete, canPresent bool) int {
	if !canPresent {
		return 0
	}
	if discrete {
		return 1000
	}
	return 1
}

// SelectGPU picks the best physical device that has a queue family
// supporting both graphics and presentation to the given surface,
// preferring discrete GPUs.
func (gp *GPU) SelectGPU(surface vk.Surface) error {
	devs, err := gp.PhysicalDevices()
	if err != nil {
		return err
	}
	best := -1
	bestScore := 0
	for i, pd := range devs {
		di := Describe(pd)
		_, ok := FindQueue(pd, surface)
		di.Score = DeviceScore(di.Discrete, ok)
		slog.Debug("vgpu: physical device", "device", di.String())
		if di.Score > bestScore {
			best, bestScore = i, di.Score
		}
	}
	if best < 0 {
		return errors.New("vgpu: no suitable GPU found that can present to the surface")
	}
	gp.GPU = devs[best]
	vk.GetPhysicalDeviceProperties(gp.GPU, &gp.Properties)
	gp.Properties.Deref()
	gp.Properties.Limits.Deref()
	vk.GetPhysicalDeviceMemoryProperties(gp.GPU, &gp.MemoryProperties)
	gp.MemoryProperties.Deref()
	gp.DeviceName = vk.ToString(gp.Properties.DeviceName[:])
	slog.Info("vgpu: selected GPU", "device", gp.DeviceName)
	return nil
}

// StorageAlign returns the minimum dynamic offset alignment for
// storage buffers on the selected device.
func (gp *GPU) StorageAlign() int {
	return int(gp.Properties.Limits.MinStorageBufferOffsetAlignment)
}

// Destroy destroys the instance.
func (gp *GPU) Destroy() {
	if gp.Instance == nil {
		return
	}
	vk.DestroyInstance(gp.Instance, nil)
	gp.Instance = nil
}

// safeString returns s with a terminating NUL, as vulkan needs.
func safeString(s string) string {
	if len(s) == 0 || s[len(s)-1] != 0 {
		return s + "\x00"
	}
	return s
}

func safeStrings(list []string) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = safeString(s)
	}
	return out
}
