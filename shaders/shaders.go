// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package shaders has the GLSL sources of the primitive pipelines,
// one vertex and fragment pair per primitive kind, and loads their
// compiled SPIR-V. Each pair reads one dynamically offset storage
// buffer of records in the layout of the matching scene record, and
// an 8 byte push constant with the viewport size.
package shaders

//go:generate glslc -fshader-stage=vertex -O quads.vert -o quads.vert.spv
//go:generate glslc -fshader-stage=fragment -O quads.frag -o quads.frag.spv
//go:generate glslc -fshader-stage=vertex -O shadows.vert -o shadows.vert.spv
//go:generate glslc -fshader-stage=fragment -O shadows.frag -o shadows.frag.spv
//go:generate glslc -fshader-stage=vertex -O underlines.vert -o underlines.vert.spv
//go:generate glslc -fshader-stage=fragment -O underlines.frag -o underlines.frag.spv

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
)

// Sources has the GLSL sources.
//
//go:embed *.vert *.frag
var Sources embed.FS

const (
	vertSuffix = ".vert.spv"
	fragSuffix = ".frag.spv"
)

// VertFile returns the SPIR-V file name of the vertex shader
// of the named kind.
func VertFile(name string) string { return name + vertSuffix }

// FragFile returns the SPIR-V file name of the fragment shader
// of the named kind.
func FragFile(name string) string { return name + fragSuffix }

// KindOf returns the kind name of a SPIR-V file name produced by
// [VertFile] or [FragFile], and false for any other file.
func KindOf(file string) (string, bool) {
	base := file
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	for _, sfx := range []string{vertSuffix, fragSuffix} {
		if name, ok := strings.CutSuffix(base, sfx); ok && name != "" {
			return name, true
		}
	}
	return "", false
}

// Load reads the vertex and fragment SPIR-V of the named kind from fsys.
func Load(fsys fs.FS, name string) (vert, frag []byte, err error) {
	vert, err = fs.ReadFile(fsys, VertFile(name))
	if err != nil {
		return nil, nil, fmt.Errorf("shaders: %s vertex shader: %w", name, err)
	}
	frag, err = fs.ReadFile(fsys, FragFile(name))
	if err != nil {
		return nil, nil, fmt.Errorf("shaders: %s fragment shader: %w", name, err)
	}
	if err := check(vert); err != nil {
		return nil, nil, fmt.Errorf("shaders: %s: %w", VertFile(name), err)
	}
	if err := check(frag); err != nil {
		return nil, nil, fmt.Errorf("shaders: %s: %w", FragFile(name), err)
	}
	return vert, frag, nil
}

// Magic is the SPIR-V magic number, in little endian byte order
// as written by glslc.
var Magic = [4]byte{0x03, 0x02, 0x23, 0x07}

func check(code []byte) error {
	if len(code) < 20 || len(code)%4 != 0 {
		return fmt.Errorf("invalid SPIR-V length %d", len(code))
	}
	if [4]byte(code[:4]) != Magic {
		return fmt.Errorf("missing SPIR-V magic number")
	}
	return nil
}
