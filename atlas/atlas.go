// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package atlas provides a cache of rasterized glyphs and icons
// packed into GPU textures. Each key is built at most once even
// when many goroutines ask for it at the same time.
package atlas

import (
	"fmt"
	"image"
	"math"
	"sync"

	"cogentcore.org/core/base/errors"
	"golang.org/x/sync/singleflight"
)

// TextureKinds are the pixel formats of atlas textures.
type TextureKinds int32

const (
	// Monochrome textures hold one 8-bit coverage value per pixel,
	// used for glyphs tinted at draw time.
	Monochrome TextureKinds = iota

	// Polychrome textures hold 8-bit BGRA pixels, used for
	// color emoji and images.
	Polychrome

	TextureKindsN
)

// BytesPerPixel returns the number of bytes per pixel of the kind.
func (tk TextureKinds) BytesPerPixel() int {
	if tk == Polychrome {
		return 4
	}
	return 1
}

func (tk TextureKinds) String() string {
	switch tk {
	case Monochrome:
		return "monochrome"
	case Polychrome:
		return "polychrome"
	}
	return fmt.Sprintf("texture(%d)", int32(tk))
}

// Key is the content-addressed identity of a rasterized unit,
// such as a glyph at a given size and subpixel offset.
type Key struct {

	// Texture is the kind of texture the pixels are stored in.
	Texture TextureKinds

	// Source identifies the font or icon set.
	Source string

	// ID is the glyph or icon id within Source.
	ID uint32

	// Size is the font size or icon size in pixels.
	Size float32

	// Subpixel is the quantized subpixel offset of the origin.
	Subpixel image.Point
}

// canonical returns the key with a zero Size made positive, so that
// keys equal as map keys are also equal as strings. It returns false
// for a Size that is NaN or infinite.
func (k Key) canonical() (Key, bool) {
	if math.IsNaN(float64(k.Size)) || math.IsInf(float64(k.Size), 0) {
		return k, false
	}
	if k.Size == 0 {
		k.Size = 0
	}
	return k, true
}

func (k Key) String() string {
	return fmt.Sprintf("%d/%q/%d/%g/%d,%d", k.Texture, k.Source, k.ID, k.Size, k.Subpixel.X, k.Subpixel.Y)
}

// TextureID identifies one texture page of the atlas.
type TextureID struct {
	Kind  TextureKinds
	Index int
}

// Tile is the location of a rasterized unit in the atlas.
type Tile struct {

	// Texture is the page holding the pixels.
	Texture TextureID

	// Bounds are the pixel bounds within the texture.
	// Bounds is empty for units with no pixels, such as spaces.
	Bounds image.Rectangle
}

// BuildFunc rasterizes a unit on the CPU, returning its size
// and pixels in the layout of the key's texture kind, tightly packed.
type BuildFunc func() (image.Point, []byte, error)

// Texture is a GPU texture page that tiles are uploaded into.
type Texture interface {

	// Upload copies tightly packed pixels into the given region.
	Upload(r image.Rectangle, pix []byte) error

	// Release frees the texture.
	Release()
}

// TextureAllocator makes new texture pages.
type TextureAllocator interface {
	NewTexture(kind TextureKinds, size image.Point) (Texture, error)
}

// BuildError is returned by [Atlas.GetOrInsert] when the build
// function fails. Nothing is inserted in that case.
type BuildError struct {
	Key Key
	Err error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("atlas: building %v: %v", e.Key, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

var (
	// ErrTooLarge is returned for a unit larger than a texture page.
	ErrTooLarge = errors.New("atlas: tile larger than texture page")

	// ErrPixels is returned when a build returns the wrong number of bytes.
	ErrPixels = errors.New("atlas: pixel data does not match size")

	// ErrKey is returned for a key whose Size is NaN or infinite.
	ErrKey = errors.New("atlas: key size must be finite")
)

type page struct {
	tex  Texture
	pack *Packer
}

// Atlas maps keys to tiles. Tiles are never evicted.
// It is safe for concurrent use.
type Atlas struct {

	// PageSize is the size of each texture page.
	PageSize image.Point

	// Padding is the gap left between tiles.
	Padding int

	alloc TextureAllocator

	// mu guards tiles and pages. It is not held while building.
	mu    sync.RWMutex
	tiles map[Key]Tile
	pages [TextureKindsN][]*page

	builds singleflight.Group
}

// New returns a new atlas making pages of given size with alloc.
func New(alloc TextureAllocator, pageSize image.Point) *Atlas {
	return &Atlas{
		PageSize: pageSize,
		Padding:  1,
		alloc:    alloc,
		tiles:    make(map[Key]Tile),
	}
}

// Tile returns the tile for key, if present.
func (at *Atlas) Tile(key Key) (Tile, bool) {
	key, ok := key.canonical()
	if !ok {
		return Tile{}, false
	}
	at.mu.RLock()
	defer at.mu.RUnlock()
	t, ok := at.tiles[key]
	return t, ok
}

// Len returns the number of tiles.
func (at *Atlas) Len() int {
	at.mu.RLock()
	defer at.mu.RUnlock()
	return len(at.tiles)
}

// Pages returns the number of texture pages of given kind.
func (at *Atlas) Pages(kind TextureKinds) int {
	at.mu.RLock()
	defer at.mu.RUnlock()
	return len(at.pages[kind])
}

// GetOrInsert returns the tile for key. If the key is not present,
// build is called, its pixels are uploaded and the new tile is
// recorded. Concurrent callers for the same key share a single call
// to build and all receive the same tile. Builds for different keys
// run concurrently. If build fails, a [*BuildError] is returned and
// nothing is recorded, so a later call will build again.
// A key with a NaN or infinite Size is rejected with [ErrKey].
func (at *Atlas) GetOrInsert(key Key, build BuildFunc) (Tile, error) {
	key, ok := key.canonical()
	if !ok {
		return Tile{}, fmt.Errorf("%w: %v", ErrKey, key)
	}
	if t, ok := at.Tile(key); ok {
		return t, nil
	}
	v, err, _ := at.builds.Do(key.String(), func() (any, error) {
		// a build that finished after our miss has already inserted
		if t, ok := at.Tile(key); ok {
			return t, nil
		}
		size, pix, err := build()
		if err != nil {
			return Tile{}, &BuildError{Key: key, Err: err}
		}
		return at.insert(key, size, pix)
	})
	if err != nil {
		return Tile{}, err
	}
	return v.(Tile), nil
}

// insert packs and uploads the pixels and records the tile.
// The region is reserved under at.mu and uploaded without it,
// so lookups of other keys do not wait for the upload.
func (at *Atlas) insert(key Key, size image.Point, pix []byte) (Tile, error) {
	kind := key.Texture
	if kind < 0 || kind >= TextureKindsN {
		return Tile{}, fmt.Errorf("atlas: invalid texture kind %v", kind)
	}
	if size.X <= 0 || size.Y <= 0 {
		t := Tile{Texture: TextureID{Kind: kind}}
		at.mu.Lock()
		at.tiles[key] = t
		at.mu.Unlock()
		return t, nil
	}
	if n := size.X * size.Y * kind.BytesPerPixel(); len(pix) != n {
		return Tile{}, fmt.Errorf("%w: %v needs %d bytes, got %d", ErrPixels, size, n, len(pix))
	}
	if size.X > at.PageSize.X || size.Y > at.PageSize.Y {
		return Tile{}, fmt.Errorf("%w: %v > %v", ErrTooLarge, size, at.PageSize)
	}

	at.mu.Lock()
	idx, r, err := at.allocLocked(kind, size)
	var tex Texture
	if err == nil {
		tex = at.pages[kind][idx].tex
	}
	at.mu.Unlock()
	if err != nil {
		return Tile{}, err
	}
	// a failed upload leaves r unused in the page.
	if err := tex.Upload(r, pix); err != nil {
		return Tile{}, err
	}
	t := Tile{Texture: TextureID{Kind: kind, Index: idx}, Bounds: r}
	at.mu.Lock()
	at.tiles[key] = t
	at.mu.Unlock()
	return t, nil
}

// allocLocked finds room for size in an existing page of kind,
// or makes a new page. at.mu must be held.
func (at *Atlas) allocLocked(kind TextureKinds, size image.Point) (int, image.Rectangle, error) {
	for i, pg := range at.pages[kind] {
		if r, ok := pg.pack.Alloc(size); ok {
			return i, r, nil
		}
	}
	tex, err := at.alloc.NewTexture(kind, at.PageSize)
	if err != nil {
		return 0, image.Rectangle{}, err
	}
	pg := &page{tex: tex, pack: NewPacker(at.PageSize, at.Padding)}
	at.pages[kind] = append(at.pages[kind], pg)
	r, _ := pg.pack.Alloc(size)
	return len(at.pages[kind]) - 1, r, nil
}

// Texture returns the texture page for id, or nil.
func (at *Atlas) Texture(id TextureID) Texture {
	at.mu.RLock()
	defer at.mu.RUnlock()
	if id.Kind < 0 || id.Kind >= TextureKindsN || id.Index < 0 || id.Index >= len(at.pages[id.Kind]) {
		return nil
	}
	return at.pages[id.Kind][id.Index].tex
}

// Release releases all texture pages and removes all tiles.
func (at *Atlas) Release() {
	at.mu.Lock()
	defer at.mu.Unlock()
	for k := range at.pages {
		for _, pg := range at.pages[k] {
			pg.tex.Release()
		}
		at.pages[k] = nil
	}
	clear(at.tiles)
}
