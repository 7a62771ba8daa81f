// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"image"
	"image/color"
	"log/slog"
	"time"

	"cogentcore.org/vkdraw/atlas"
	"cogentcore.org/vkdraw/atlas/raster"
	"cogentcore.org/vkdraw/render"
	"cogentcore.org/vkdraw/scene"
	"golang.org/x/image/colornames"
	"golang.org/x/image/math/fixed"
	"golang.org/x/sync/errgroup"
)

const title = "vkdraw primitives"

// demo draws an animated grid of cards with shadows, and a row of
// glyph boxes for the title laid out from its atlas tiles.
type demo struct {
	r     *render.Renderer
	sc    *scene.Scene
	start time.Time

	// glyphs are the tile sizes of the title runes.
	glyphs []image.Point

	// ink is the color of the title. A nil or transparent ink
	// hides the title glyphs.
	ink color.Color
}

func newDemo(r *render.Renderer) (*demo, error) {
	d := &demo{r: r, sc: scene.New(), start: time.Now(), ink: colornames.Whitesmoke}
	at := r.Atlas()
	if at == nil {
		return d, nil
	}
	face, err := raster.DefaultFace(32)
	if err != nil {
		return nil, err
	}
	runes := []rune(title)
	d.glyphs = make([]image.Point, len(runes))
	// repeated runes share one build
	var g errgroup.Group
	for i, ch := range runes {
		g.Go(func() error {
			key := atlas.Key{Texture: atlas.Monochrome, Source: "goregular", ID: uint32(ch), Size: 32}
			t, err := at.GetOrInsert(key, face.Glyph(ch, fixed.Point26_6{}))
			if err != nil {
				return err
			}
			d.glyphs[i] = t.Bounds.Size()
			return nil
		})
	}
	if _, err := at.GetOrInsert(atlas.Key{Texture: atlas.Monochrome, Source: "icons", ID: 1, Size: 16}, raster.Circle(16)); err != nil {
		return nil, err
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	slog.Info("vkdraw: atlas ready", "tiles", at.Len(), "pages", at.Pages(atlas.Monochrome))
	return d, nil
}

// build rebuilds the scene for the given time and target size.
func (d *demo) build(t float32, size image.Point) *scene.Scene {
	sc := d.sc
	sc.Reset()
	full := scene.NewBounds(0, 0, float32(size.X), float32(size.Y))
	// cards are clipped to the area below the title
	grid := full.Intersect(scene.NewBounds(0, 120, float32(size.X), float32(size.Y)))

	const cols, rows, gap = 6, 4, 24
	cw := (float32(size.X) - gap*(cols+1)) / cols
	ch := (float32(size.Y) - 120 - gap*(rows+1)) / rows
	if cw <= 0 || ch <= 0 {
		return sc
	}
	for y := range rows {
		for x := range cols {
			b := scene.NewBounds(gap+float32(x)*(cw+gap), 120+gap+float32(y)*(ch+gap), cw, ch)
			sc.AddShadow(scene.Shadow{
				Bounds:      scene.NewBounds(b.Origin.X+4, b.Origin.Y+6, b.Size.X, b.Size.Y),
				ContentMask: grid,
				Color:       scene.Color{A: 0.4},
				CornerRadii: scene.UniformCorners(12),
				BlurRadius:  8,
			})
		}
	}
	for y := range rows {
		for x := range cols {
			hue := float32(x+y*cols)/float32(cols*rows) + t*0.05
			hue -= float32(int(hue))
			b := scene.NewBounds(gap+float32(x)*(cw+gap), 120+gap+float32(y)*(ch+gap), cw, ch)
			sc.AddQuad(scene.Quad{
				Bounds:       b,
				ContentMask:  grid,
				Background:   scene.Hsla(hue, 0.6, 0.55, 1),
				BorderColor:  scene.Hsla(hue, 0.6, 0.3, 1),
				CornerRadii:  scene.UniformCorners(12),
				BorderWidths: scene.UniformEdges(2),
			})
		}
	}

	// title glyph boxes with an underline as wide as the title
	var ink scene.Color
	if d.ink != nil {
		ink = scene.ColorOf(d.ink)
	}
	pen := float32(gap)
	for _, g := range d.glyphs {
		if g.X > 0 && !ink.Transparent() {
			sc.AddQuad(scene.Quad{
				Bounds:      scene.NewBounds(pen, 72-float32(g.Y), float32(g.X), float32(g.Y)),
				ContentMask: full,
				Background:  ink,
				CornerRadii: scene.UniformCorners(2),
			})
		}
		pen += float32(max(g.X, 10)) + 2
	}
	sc.AddUnderline(scene.Underline{
		Bounds:      scene.NewBounds(gap, 80, pen-gap, 8),
		ContentMask: full,
		Color:       scene.ColorOf(colornames.Tomato),
		Thickness:   2,
		Wavy:        1,
	})
	return sc
}

func (d *demo) draw() error {
	t := float32(time.Since(d.start).Seconds())
	return d.r.Draw(d.build(t, d.r.Size()))
}
