// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scene

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is a straight (non-premultiplied) alpha color with
// components in the 0-1 range, as read by the shaders.
type Color struct {
	R, G, B, A float32
}

// ColorOf converts a standard library color to a straight alpha [Color].
func ColorOf(c color.Color) Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Color{
		R: float32(n.R) / 255,
		G: float32(n.G) / 255,
		B: float32(n.B) / 255,
		A: float32(n.A) / 255,
	}
}

// Hsla returns the color for given hue, saturation, lightness and
// alpha, all in the 0-1 range.
func Hsla(h, s, l, a float32) Color {
	c := colorful.Hsl(float64(h)*360, float64(s), float64(l)).Clamped()
	return Color{R: float32(c.R), G: float32(c.G), B: float32(c.B), A: a}
}

// Transparent reports whether the color has zero alpha.
func (c Color) Transparent() bool {
	return c.A == 0
}
