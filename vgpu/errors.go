// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vgpu

import (
	"fmt"

	"cogentcore.org/core/base/errors"
	vk "github.com/goki/vulkan"
)

var (
	// ErrOutOfDate is returned when the swapchain no longer matches
	// the surface, and must be recreated before presenting again.
	ErrOutOfDate = errors.New("vgpu: swapchain out of date")

	// ErrSuboptimal is returned when an image was presented but the
	// swapchain no longer matches the surface exactly.
	ErrSuboptimal = errors.New("vgpu: swapchain suboptimal")

	// ErrDeviceLost is returned when the logical device has been lost.
	// Nothing on the device can be used again.
	ErrDeviceLost = errors.New("vgpu: device lost")

	// ErrSurfaceLost is returned when the window surface is gone.
	ErrSurfaceLost = errors.New("vgpu: surface lost")
)

// IsError returns true if ret is not a success code.
// Suboptimal is a success code.
func IsError(ret vk.Result) bool {
	return ret != vk.Success && ret != vk.Suboptimal
}

// NewError returns an error for the given vulkan result, or nil for
// [vk.Success]. Results that callers need to act on wrap one of
// [ErrOutOfDate], [ErrSuboptimal], [ErrDeviceLost] or [ErrSurfaceLost],
// so that they can be tested with [errors.Is]. The op names the
// vulkan call for the error message.
func NewError(op string, ret vk.Result) error {
	if ret == vk.Success {
		return nil
	}
	var sentinel error
	switch ret {
	case vk.ErrorOutOfDate:
		sentinel = ErrOutOfDate
	case vk.Suboptimal:
		sentinel = ErrSuboptimal
	case vk.ErrorDeviceLost:
		sentinel = ErrDeviceLost
	case vk.ErrorSurfaceLost:
		sentinel = ErrSurfaceLost
	}
	if sentinel != nil {
		return fmt.Errorf("%s: %w (%d)", op, sentinel, ret)
	}
	return fmt.Errorf("%s: vulkan error: %w (%d)", op, vk.Error(ret), ret)
}
