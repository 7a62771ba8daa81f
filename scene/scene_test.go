// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scene

import (
	"image/color"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

func TestRecordSizes(t *testing.T) {
	// std430 arrays of these structs need 16 byte multiples.
	assert.Equal(t, 96, QuadSize)
	assert.Equal(t, 80, ShadowSize)
	assert.Equal(t, 64, UnderlineSize)
	assert.Equal(t, uintptr(64), unsafe.Offsetof(Shadow{}.BlurRadius))
	assert.Equal(t, uintptr(48), unsafe.Offsetof(Underline{}.Thickness))
}

func TestBatchBytes(t *testing.T) {
	qs := QuadBatch{{Bounds: NewBounds(1, 2, 3, 4)}, {}}
	b := qs.Bytes()
	assert.Len(t, b, 2*QuadSize)
	assert.Equal(t, float32(1), *(*float32)(unsafe.Pointer(&b[0])))
	assert.Equal(t, float32(4), *(*float32)(unsafe.Pointer(&b[12])))

	assert.Nil(t, QuadBatch{}.Bytes())
	assert.Equal(t, Shadows, ShadowBatch{{}}.Kind())
	assert.Equal(t, 3, UnderlineBatch{{}, {}, {}}.Len())
}

func TestSceneBatching(t *testing.T) {
	sc := &Scene{}
	sc.AddQuad(Quad{})
	sc.AddQuad(Quad{})
	sc.AddShadow(Shadow{})
	sc.AddQuad(Quad{})
	sc.AddUnderline(Underline{})
	sc.AddUnderline(Underline{})

	bs := sc.Batches()
	if assert.Len(t, bs, 4) {
		assert.Equal(t, Quads, bs[0].Kind())
		assert.Equal(t, 2, bs[0].Len())
		assert.Equal(t, Shadows, bs[1].Kind())
		assert.Equal(t, 1, bs[2].Len())
		assert.Equal(t, Underlines, bs[3].Kind())
		assert.Equal(t, 2, bs[3].Len())
	}

	sc.Reset()
	assert.Equal(t, 0, sc.Len())
	var nilScene *Scene
	assert.Equal(t, 0, nilScene.Len())
}

func TestKinds(t *testing.T) {
	assert.Equal(t, "shadows", Shadows.String())
	assert.False(t, KindsN.IsValid())
	assert.Equal(t, "kind(7)", Kinds(7).String())

	var k Kinds
	assert.NoError(t, k.SetString("Underlines"))
	assert.Equal(t, Underlines, k)
	assert.Error(t, k.SetString("sprites"))
	assert.Len(t, KindsValues(), int(KindsN))
}

func TestBounds(t *testing.T) {
	a := NewBounds(0, 0, 10, 10)
	b := NewBounds(5, 5, 10, 10)
	assert.Equal(t, NewBounds(5, 5, 5, 5), a.Intersect(b))
	c := NewBounds(20, 20, 1, 1)
	assert.Equal(t, float32(0), a.Intersect(c).Size.X)
}

func TestColor(t *testing.T) {
	c := ColorOf(color.RGBA{255, 0, 0, 255})
	assert.Equal(t, Color{1, 0, 0, 1}, c)

	half := ColorOf(color.RGBA{64, 0, 0, 128})
	assert.InDelta(t, 0.5, half.R, 0.01)
	assert.InDelta(t, 0.5, half.A, 0.01)

	red := Hsla(0, 1, 0.5, 1)
	assert.InDelta(t, 1, red.R, 1e-5)
	assert.InDelta(t, 0, red.G, 1e-5)
	assert.False(t, red.Transparent())
	assert.True(t, Color{}.Transparent())
}
