// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package render draws scenes of primitive batches with a [Device],
// one fully fenced frame at a time.
package render

import (
	"fmt"
	"image"
	"io/fs"
	"os"
	"sync"

	"cogentcore.org/core/base/errors"
	"cogentcore.org/vkdraw/atlas"
	"cogentcore.org/vkdraw/scene"
	"cogentcore.org/vkdraw/shaders"
	"cogentcore.org/vkdraw/stage"
)

// Device is the GPU side of a [Renderer]: one pipeline per named
// primitive kind reading from one mapped staging buffer, and a
// swapchain of images to draw into. [vgpu.System] is the vulkan
// implementation.
//
// A frame calls Acquire, SetRange for each kind drawn, Begin, then
// Bind and Draw for each batch, End, Submit and Present. Submit
// returns only after the GPU has finished the frame.
type Device interface {

	// Staging returns the mapped staging buffer memory.
	Staging() []byte

	// HasPipeline returns whether there is a pipeline for the kind.
	HasPipeline(name string) bool

	// SetPipeline makes the pipeline for the kind from SPIR-V code,
	// or rebuilds it with new code.
	SetPipeline(name string, vert, frag []byte) error

	// SetRange sets the byte range of the staging buffer that each
	// bind of the kind's pipeline addresses from its offset.
	SetRange(name string, rng int) error

	// Acquire returns the index of the next image to draw into.
	Acquire() (int, error)

	// Begin begins recording the frame for the image.
	Begin(image int) error

	// Bind binds the kind's pipeline with its records at the
	// staging buffer offset.
	Bind(name string, offset int) error

	// Draw draws instances primitives with the bound pipeline.
	Draw(instances int)

	// End ends recording.
	End() error

	// Submit submits the recorded frame and waits for it to finish.
	Submit() error

	// Present presents the image.
	Present(image int) error

	// Resize recreates the swapchain at the given size.
	Resize(size image.Point) error

	// Size returns the size of the swapchain images.
	Size() image.Point

	// Release destroys the device and everything on it.
	Release()
}

// Stats are counters of a [Renderer].
type Stats struct {

	// Frames is the number of frames submitted.
	Frames int

	// Draws is the number of draw calls in the last frame.
	Draws int

	// TotalDraws is the number of draw calls in all frames.
	TotalDraws int

	// Bytes is the number of bytes staged in the last frame.
	Bytes int

	// Skipped is the number of batches skipped in the last frame
	// because there is no pipeline for their kind.
	Skipped int

	// Deferred is the number of frames not drawn because the
	// target had zero size.
	Deferred int

	// Recreations is the number of swapchain recreations.
	Recreations int

	// Failures is the number of frames that returned an error.
	Failures int
}

// drawCall is one planned draw of a frame.
type drawCall struct {
	name      string
	offset    int
	instances int
}

// Renderer draws scenes with a [Device]. All of its methods may be
// called from any goroutine; drawing is serialized.
type Renderer struct {
	dev     Device
	cfg     Config
	shaders fs.FS
	atlas   *atlas.Atlas
	watcher *ShaderWatcher

	// mu is held for the whole of every frame.
	mu       sync.Mutex
	alloc    *stage.Allocator
	size     image.Point
	deferred bool
	lost     bool
	released bool
	stats    Stats
	plan     []drawCall

	dirtyMu sync.Mutex
	dirty   map[string]bool
}

// New returns a renderer drawing with dev, building one pipeline per
// scene kind from the SPIR-V shaders in fsys. If fsys is nil, the
// shaders are read from cfg.ShaderDir. If cfg is nil, [DefaultConfig]
// is used. If dev is also an [atlas.TextureAllocator], the renderer
// has an [atlas.Atlas] on it.
//
// On error, dev is not released.
func New(dev Device, cfg *Config, fsys fs.FS) (*Renderer, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if fsys == nil {
		fsys = os.DirFS(cfg.ShaderDir)
	}
	r := &Renderer{dev: dev, cfg: *cfg, shaders: fsys, dirty: map[string]bool{}}
	for _, k := range scene.KindsValues() {
		name := k.String()
		vert, frag, err := shaders.Load(fsys, name)
		if err != nil {
			return nil, err
		}
		if err := dev.SetPipeline(name, vert, frag); err != nil {
			return nil, fmt.Errorf("render: building %s pipeline: %w", name, err)
		}
	}
	align := cfg.Alignment
	if sa, ok := dev.(interface{ StorageAlign() int }); ok {
		align = max(align, sa.StorageAlign())
	}
	r.alloc = stage.NewAllocator(dev.Staging(), align)
	r.size = dev.Size()
	if alloc, ok := dev.(atlas.TextureAllocator); ok {
		r.atlas = atlas.New(alloc, image.Pt(cfg.AtlasSize, cfg.AtlasSize))
	}
	if cfg.WatchShaders {
		w, err := NewShaderWatcher(cfg.ShaderDir, r.MarkShaderDirty)
		if err != nil {
			Logger().Warn("render: not watching shaders", "dir", cfg.ShaderDir, "err", err)
		} else {
			r.watcher = w
		}
	}
	Logger().Debug("render: renderer ready", "size", r.size, "staging", r.alloc.Cap(), "align", align)
	return r, nil
}

// Atlas returns the sprite atlas on the device, or nil if the device
// cannot make textures.
func (r *Renderer) Atlas() *atlas.Atlas {
	return r.atlas
}

// Stats returns the current counters.
func (r *Renderer) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// Size returns the size that is drawn to.
func (r *Renderer) Size() image.Point {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

// Draw draws one frame of the scene and presents it. Batches are
// drawn in order, each over the ones before. Batches of kinds that
// have no pipeline are skipped.
//
// Draw returns an error wrapping [stage.ErrOverflow] without drawing
// if the scene does not fit in the staging buffer. Each batch must
// have room for the largest batch of its kind from its offset, since
// that is the range its pipeline reads, so a scene can overflow
// before its data reaches the end of the buffer. An out of date
// swapchain is recreated, and the frame retried once if that happens
// on acquire. If the device is lost, the error wraps [ErrLost], and
// all later draws return [ErrLost].
func (r *Renderer) Draw(sc *scene.Scene) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return ErrReleased
	}
	if r.lost {
		return ErrLost
	}
	if r.deferred {
		r.stats.Deferred++
		return nil
	}
	r.reloadShaders()
	err := r.drawFrame(sc)
	if err == nil {
		return nil
	}
	r.stats.Failures++
	if IsFatal(err) {
		r.lost = true
		Logger().Error("render: device lost", "err", err)
		return fmt.Errorf("%w: %w", ErrLost, err)
	}
	Logger().Debug("render: frame failed", "err", err)
	return err
}

// drawFrame stages all batches, then records, submits and presents.
func (r *Renderer) drawFrame(sc *scene.Scene) error {
	// Submit of the previous frame has returned, so the GPU is done
	// reading the staging buffer.
	r.alloc.Mem = r.dev.Staging()
	r.alloc.Reset()
	r.plan = r.plan[:0]

	batches := sc.Batches()
	skipped := 0
	var spans [scene.KindsN]int
	for _, b := range batches {
		k := b.Kind()
		if b.Len() == 0 {
			continue
		}
		if !k.IsValid() || !r.dev.HasPipeline(k.String()) {
			skipped++
			continue
		}
		spans[k] = max(spans[k], len(b.Bytes()))
	}
	for i, b := range batches {
		k := b.Kind()
		if b.Len() == 0 || !k.IsValid() || spans[k] == 0 {
			continue
		}
		data := b.Bytes()
		// the whole range of the kind's descriptor must fit from
		// the offset, not just this batch.
		if off, fits := r.alloc.Next(spans[k]); !fits {
			return fmt.Errorf("render: batch %d (%s): %w: range of %d bytes at offset %d exceeds capacity %d",
				i, k, stage.ErrOverflow, spans[k], off, r.alloc.Cap())
		}
		off, err := r.alloc.Write(data)
		if err != nil {
			return fmt.Errorf("render: batch %d (%s): %w", i, k, err)
		}
		r.plan = append(r.plan, drawCall{name: k.String(), offset: off, instances: b.Len()})
	}

	img, err := r.acquire()
	if err != nil {
		return err
	}
	if err := r.submit(img, spans); err != nil {
		if IsFatal(err) {
			return err
		}
		// the acquired image is not presented, so it is given back
		// by remaking the swapchain.
		Logger().Debug("render: recreating swapchain after failed frame", "err", err)
		if rerr := r.recreate(r.size); rerr != nil {
			return errors.Join(err, rerr)
		}
		return err
	}

	r.stats.Frames++
	r.stats.Draws = len(r.plan)
	r.stats.TotalDraws += len(r.plan)
	r.stats.Bytes = r.alloc.Cursor()
	r.stats.Skipped = skipped

	if err := r.dev.Present(img); err != nil {
		if !IsRetryable(err) {
			return err
		}
		Logger().Debug("render: recreating swapchain after present", "err", err)
		return r.recreate(r.size)
	}
	return nil
}

// submit records the planned draws into the image and submits them.
func (r *Renderer) submit(img int, spans [scene.KindsN]int) error {
	for k, span := range spans {
		if span == 0 {
			continue
		}
		if err := r.dev.SetRange(scene.Kinds(k).String(), span); err != nil {
			return err
		}
	}
	if err := r.dev.Begin(img); err != nil {
		return err
	}
	for _, dc := range r.plan {
		if err := r.dev.Bind(dc.name, dc.offset); err != nil {
			return err
		}
		r.dev.Draw(dc.instances)
	}
	if err := r.dev.End(); err != nil {
		return err
	}
	return r.dev.Submit()
}

// acquire acquires the next image, recreating the swapchain and
// trying once more if it is out of date.
func (r *Renderer) acquire() (int, error) {
	img, err := r.dev.Acquire()
	if err == nil || !IsRetryable(err) {
		return img, err
	}
	Logger().Debug("render: recreating swapchain after acquire", "err", err)
	if err := r.recreate(r.size); err != nil {
		return 0, err
	}
	return r.dev.Acquire()
}

func (r *Renderer) recreate(size image.Point) error {
	if err := r.dev.Resize(size); err != nil {
		return fmt.Errorf("render: recreating swapchain: %w", err)
	}
	r.stats.Recreations++
	r.size = r.dev.Size()
	return nil
}

// Resize recreates the swapchain and frame targets at the given size
// in pixels. Pipelines and their shaders are kept. A zero size, as
// for a minimized window, stops drawing until a non-zero size is
// given.
func (r *Renderer) Resize(size image.Point) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return ErrReleased
	}
	if r.lost {
		return ErrLost
	}
	if size.X <= 0 || size.Y <= 0 {
		r.deferred = true
		Logger().Debug("render: zero size, drawing deferred")
		return nil
	}
	r.deferred = false
	r.size = size
	err := r.recreate(size)
	if err != nil && IsFatal(err) {
		r.lost = true
		return fmt.Errorf("%w: %w", ErrLost, err)
	}
	return err
}

// MarkShaderDirty schedules the pipeline of the named kind to be
// rebuilt from its shaders before the next frame.
func (r *Renderer) MarkShaderDirty(name string) {
	r.dirtyMu.Lock()
	r.dirty[name] = true
	r.dirtyMu.Unlock()
}

// reloadShaders rebuilds the pipelines marked dirty. Failures are
// logged and the old pipeline kept.
func (r *Renderer) reloadShaders() {
	r.dirtyMu.Lock()
	if len(r.dirty) == 0 {
		r.dirtyMu.Unlock()
		return
	}
	names := make([]string, 0, len(r.dirty))
	for name := range r.dirty {
		names = append(names, name)
	}
	clear(r.dirty)
	r.dirtyMu.Unlock()

	for _, name := range names {
		if !r.dev.HasPipeline(name) {
			continue
		}
		vert, frag, err := shaders.Load(r.shaders, name)
		if err == nil {
			err = r.dev.SetPipeline(name, vert, frag)
		}
		if err != nil {
			Logger().Warn("render: shader reload failed", "kind", name, "err", err)
			continue
		}
		Logger().Info("render: reloaded shaders", "kind", name)
	}
}

// Release stops watching shaders and releases the atlas and the
// device. The renderer cannot be used after.
func (r *Renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return
	}
	r.released = true
	if r.watcher != nil {
		r.watcher.Close()
		r.watcher = nil
	}
	if r.atlas != nil {
		r.atlas.Release()
	}
	r.dev.Release()
}
