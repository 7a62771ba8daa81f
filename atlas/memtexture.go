// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package atlas

import (
	"fmt"
	"image"
	"sync/atomic"
)

// MemTexture is a [Texture] held in host memory, for headless use
// and tests.
type MemTexture struct {
	Kind TextureKinds
	Size image.Point

	// Pix holds the pixels, with stride Size.X * bytes per pixel.
	Pix []byte

	// Uploads counts calls to Upload.
	Uploads atomic.Int32

	Released bool
}

// Upload implements [Texture].
func (mt *MemTexture) Upload(r image.Rectangle, pix []byte) error {
	if !r.In(image.Rectangle{Max: mt.Size}) {
		return fmt.Errorf("atlas: upload region %v outside texture %v", r, mt.Size)
	}
	bpp := mt.Kind.BytesPerPixel()
	row := r.Dx() * bpp
	stride := mt.Size.X * bpp
	for y := 0; y < r.Dy(); y++ {
		dst := (r.Min.Y+y)*stride + r.Min.X*bpp
		copy(mt.Pix[dst:dst+row], pix[y*row:(y+1)*row])
	}
	mt.Uploads.Add(1)
	return nil
}

// Release implements [Texture].
func (mt *MemTexture) Release() {
	mt.Released = true
	mt.Pix = nil
}

// MemAllocator is a [TextureAllocator] making [MemTexture]s.
type MemAllocator struct {
	Textures []*MemTexture
}

// NewTexture implements [TextureAllocator].
func (ma *MemAllocator) NewTexture(kind TextureKinds, size image.Point) (Texture, error) {
	mt := &MemTexture{Kind: kind, Size: size, Pix: make([]byte, size.X*size.Y*kind.BytesPerPixel())}
	ma.Textures = append(ma.Textures, mt)
	return mt, nil
}
