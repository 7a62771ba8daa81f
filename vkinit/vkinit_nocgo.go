// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !((linux && cgo) || (darwin && cgo) || (freebsd && cgo))

package vkinit

import "cogentcore.org/core/base/errors"

// LoadVulkan is not available without cgo on this platform.
func LoadVulkan() error {
	return errors.New("vkinit: loading vulkan directly requires cgo on linux, darwin or freebsd")
}
