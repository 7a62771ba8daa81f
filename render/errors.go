// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"cogentcore.org/core/base/errors"
	"cogentcore.org/vkdraw/vgpu"
)

var (
	// ErrLost is returned by all drawing after the device was lost.
	// The renderer can only be released.
	ErrLost = errors.New("render: device lost")

	// ErrReleased is returned by all drawing after Release.
	ErrReleased = errors.New("render: renderer released")
)

// IsRetryable returns whether err is resolved by recreating the
// swapchain and drawing again.
func IsRetryable(err error) bool {
	return errors.Is(err, vgpu.ErrOutOfDate) || errors.Is(err, vgpu.ErrSuboptimal)
}

// IsFatal returns whether err means that nothing more can be drawn
// with the device.
func IsFatal(err error) bool {
	return errors.Is(err, vgpu.ErrDeviceLost) || errors.Is(err, vgpu.ErrSurfaceLost) || errors.Is(err, ErrLost)
}
