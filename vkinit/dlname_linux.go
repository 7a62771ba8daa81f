// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux || freebsd

package vkinit

// DlName is the name of the vulkan library to load.
var DlName = "libvulkan.so.1"
