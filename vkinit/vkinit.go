// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build (linux && cgo) || (darwin && cgo) || (freebsd && cgo)

// Package vkinit loads the vulkan library directly, without a window
// system, for tools that only need an instance, such as listing the
// available GPUs.
package vkinit

// #cgo LDFLAGS: -ldl
// #include <stdlib.h>
// #include <dlfcn.h>
import "C"
import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
)

// LoadVulkan opens the vulkan library named [DlName], sets the
// instance proc addr from it, and initializes the bindings.
func LoadVulkan() error {
	clibnm := C.CString(DlName)
	defer C.free(unsafe.Pointer(clibnm))
	handle := C.dlopen(clibnm, C.RTLD_LAZY)
	if handle == nil {
		return fmt.Errorf("vkinit: vulkan library %q not found", DlName)
	}
	cpAddr := C.CString("vkGetInstanceProcAddr")
	defer C.free(unsafe.Pointer(cpAddr))
	pAddr := C.dlsym(handle, cpAddr)
	if pAddr == nil {
		return fmt.Errorf("vkinit: vkGetInstanceProcAddr not found in %q", DlName)
	}
	vk.SetGetInstanceProcAddr(pAddr)
	return vk.Init()
}
