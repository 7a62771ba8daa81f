// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"image"
	"sync"
	"testing"
	"time"

	"cogentcore.org/core/base/errors"
	"cogentcore.org/vkdraw/scene"
	"cogentcore.org/vkdraw/stage"
	"cogentcore.org/vkdraw/vgpu"
	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBuildsPipelines(t *testing.T) {
	_, fd := newTestRenderer(t, 4096)
	assert.Equal(t, map[string]int{"quads": 1, "shadows": 1, "underlines": 1}, fd.pipelines)
}

func TestNewMissingShader(t *testing.T) {
	fsys := testShaders()
	delete(fsys, "shadows.frag.spv")
	_, err := New(newFakeDevice(4096), nil, fsys)
	assert.ErrorContains(t, err, "shadows")
}

func TestNewInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Alignment = 100
	_, err := New(newFakeDevice(4096), cfg, testShaders())
	assert.Error(t, err)
}

func TestDrawEmptyScene(t *testing.T) {
	r, fd := newTestRenderer(t, 4096)
	require.NoError(t, r.Draw(scene.New()))
	assert.Equal(t, []string{"staging", "acquire", "begin 0", "end", "submit", "present"}, fd.events)
	assert.Empty(t, fd.draws)

	st := r.Stats()
	assert.Equal(t, 1, st.Frames)
	assert.Equal(t, 0, st.Draws)
	assert.Equal(t, 0, st.Bytes)
}

func TestDrawNilScene(t *testing.T) {
	r, fd := newTestRenderer(t, 4096)
	require.NoError(t, r.Draw(nil))
	assert.Empty(t, fd.draws)
}

func TestDrawSingleQuadBatch(t *testing.T) {
	r, fd := newTestRenderer(t, 4096)
	sc := scene.New()
	for i := range 3 {
		sc.AddQuad(scene.Quad{Bounds: scene.NewBounds(float32(i*10), 0, 10, 10)})
	}
	require.NoError(t, r.Draw(sc))
	require.Len(t, fd.draws, 1)
	assert.Equal(t, fakeDraw{name: "quads", offset: 0, instances: 3}, fd.draws[0])
	assert.Equal(t, 3*scene.QuadSize, fd.ranges["quads"])
	assert.Equal(t, 3*scene.QuadSize, r.Stats().Bytes)

	// the records are in the staging buffer
	assert.Equal(t, sc.Batches()[0].Bytes(), fd.mem[:3*scene.QuadSize])
}

func TestDrawMixedOffsets(t *testing.T) {
	r, fd := newTestRenderer(t, 4096)
	sc := scene.New(
		&scene.Raw{K: scene.Quads, N: 2, Data: make([]byte, 64)},
		&scene.Raw{K: scene.Shadows, N: 1, Data: make([]byte, scene.ShadowSize)},
	)
	require.NoError(t, r.Draw(sc))
	require.Len(t, fd.draws, 2)
	assert.Equal(t, fakeDraw{name: "quads", offset: 0, instances: 2}, fd.draws[0])
	assert.Equal(t, fakeDraw{name: "shadows", offset: 256, instances: 1}, fd.draws[1])
}

func TestDrawOffsetsAligned(t *testing.T) {
	r, fd := newTestRenderer(t, 1<<16)
	sc := scene.New()
	sizes := []int{1, 300, 256, 17, 1000}
	for i, n := range sizes {
		k := scene.Kinds(i % int(scene.KindsN))
		sc.Add(&scene.Raw{K: k, N: 1, Data: make([]byte, n)})
	}
	require.NoError(t, r.Draw(sc))
	require.Len(t, fd.draws, len(sizes))
	end := 0
	for i, d := range fd.draws {
		assert.Zero(t, d.offset%stage.DefaultAlign, "draw %d", i)
		assert.GreaterOrEqual(t, d.offset, end, "draw %d overlaps", i)
		end = d.offset + sizes[i]
	}
}

func TestDrawBatchOrder(t *testing.T) {
	r, fd := newTestRenderer(t, 4096)
	sc := scene.New()
	sc.AddShadow(scene.Shadow{BlurRadius: 2})
	sc.AddQuad(scene.Quad{})
	sc.AddQuad(scene.Quad{})
	sc.AddUnderline(scene.Underline{Thickness: 1})
	require.NoError(t, r.Draw(sc))
	var names []string
	for _, d := range fd.draws {
		names = append(names, d.name)
	}
	assert.Equal(t, []string{"shadows", "quads", "underlines"}, names)
	assert.Equal(t, 2, fd.draws[1].instances)
}

func TestDrawUnknownKind(t *testing.T) {
	r, fd := newTestRenderer(t, 4096)
	sc := scene.New(&scene.Raw{K: scene.Kinds(7), N: 4, Data: make([]byte, 128)})
	require.NoError(t, r.Draw(sc))
	assert.Empty(t, fd.draws)
	assert.Equal(t, 0, r.alloc.Cursor())

	st := r.Stats()
	assert.Equal(t, 1, st.Skipped)
	assert.Equal(t, 1, st.Frames)
}

func TestDrawEmptyBatchSkipped(t *testing.T) {
	r, fd := newTestRenderer(t, 4096)
	sc := scene.New(scene.QuadBatch{}, &scene.Raw{K: scene.Underlines, N: 1, Data: make([]byte, 64)})
	require.NoError(t, r.Draw(sc))
	require.Len(t, fd.draws, 1)
	assert.Equal(t, "underlines", fd.draws[0].name)
	assert.Equal(t, 0, fd.draws[0].offset)
	assert.NotContains(t, fd.events, "range quads 0")
}

func TestDrawOverflow(t *testing.T) {
	r, fd := newTestRenderer(t, 512)
	sc := scene.New(
		&scene.Raw{K: scene.Quads, N: 1, Data: make([]byte, 200)},
		&scene.Raw{K: scene.Shadows, N: 1, Data: make([]byte, 200)},
		&scene.Raw{K: scene.Underlines, N: 1, Data: make([]byte, 200)},
	)
	err := r.Draw(sc)
	require.ErrorIs(t, err, stage.ErrOverflow)
	assert.NotContains(t, fd.events, "acquire")
	assert.Empty(t, fd.draws)
	assert.Equal(t, 1, r.Stats().Failures)

	// the same scene fails the same way
	assert.ErrorIs(t, r.Draw(sc), stage.ErrOverflow)

	// a scene that fits draws normally afterwards
	fd.clearEvents()
	require.NoError(t, r.Draw(scene.New(&scene.Raw{K: scene.Quads, N: 1, Data: make([]byte, 200)})))
	assert.Len(t, fd.draws, 1)
}

func TestDrawOverflowRange(t *testing.T) {
	// the second quad batch fits by itself, but not the range of
	// the largest quad batch from its offset.
	r, fd := newTestRenderer(t, 600)
	sc := scene.New(
		&scene.Raw{K: scene.Quads, N: 1, Data: make([]byte, 300)},
		&scene.Raw{K: scene.Quads, N: 1, Data: make([]byte, 16)},
	)
	assert.ErrorIs(t, r.Draw(sc), stage.ErrOverflow)
	assert.NotContains(t, fd.events, "acquire")
}

func TestDrawRecordFailureRecreates(t *testing.T) {
	r, fd := newTestRenderer(t, 4096)
	fail := errors.New("out of host memory")
	fd.beginErrs = []error{fail}
	quad := scene.New(&scene.Raw{K: scene.Quads, N: 1, Data: make([]byte, 96)})
	err := r.Draw(quad)
	require.ErrorIs(t, err, fail)
	assert.False(t, IsFatal(err))
	assert.Equal(t, []string{"staging", "acquire", "range quads 96", "begin 0", "resize 800x600"}, fd.events)
	assert.Equal(t, 1, r.Stats().Recreations)
	assert.Equal(t, 0, r.Stats().Frames)

	fd.clearEvents()
	require.NoError(t, r.Draw(quad))
	assert.Contains(t, fd.events, "present")
}

func TestDrawRetryOutOfDateAcquire(t *testing.T) {
	r, fd := newTestRenderer(t, 4096)
	fd.acquireErrs = []error{vgpu.NewError("AcquireNextImage", vk.ErrorOutOfDate)}
	require.NoError(t, r.Draw(scene.New(&scene.Raw{K: scene.Quads, N: 1, Data: make([]byte, 96)})))
	assert.Equal(t, []string{"staging", "acquire", "resize 800x600", "acquire", "range quads 96", "begin 0", "bind quads 0", "draw 1", "end", "submit", "present"}, fd.events)
	st := r.Stats()
	assert.Equal(t, 1, st.Recreations)
	assert.Equal(t, 1, st.Frames)
}

func TestDrawOutOfDateTwice(t *testing.T) {
	r, fd := newTestRenderer(t, 4096)
	outOfDate := vgpu.NewError("AcquireNextImage", vk.ErrorOutOfDate)
	fd.acquireErrs = []error{outOfDate, outOfDate}
	err := r.Draw(scene.New())
	require.Error(t, err)
	assert.True(t, IsRetryable(err))
	assert.False(t, IsFatal(err))

	// the next frame draws
	require.NoError(t, r.Draw(scene.New()))
}

func TestDrawSuboptimalPresent(t *testing.T) {
	r, fd := newTestRenderer(t, 4096)
	fd.presentErrs = []error{vgpu.NewError("QueuePresent", vk.Suboptimal)}
	require.NoError(t, r.Draw(scene.New()))
	assert.Equal(t, "resize 800x600", fd.events[len(fd.events)-1])
	assert.Equal(t, 1, r.Stats().Recreations)
}

func TestDrawDeviceLost(t *testing.T) {
	r, fd := newTestRenderer(t, 4096)
	fd.submitErrs = []error{vgpu.NewError("QueueSubmit", vk.ErrorDeviceLost)}
	err := r.Draw(scene.New())
	require.ErrorIs(t, err, ErrLost)
	assert.ErrorIs(t, err, vgpu.ErrDeviceLost)
	assert.True(t, IsFatal(err))
	assert.NotContains(t, fd.events, "present")

	fd.clearEvents()
	assert.ErrorIs(t, r.Draw(scene.New()), ErrLost)
	assert.ErrorIs(t, r.Resize(image.Pt(10, 10)), ErrLost)
	assert.Empty(t, fd.events)

	r.Release()
	assert.True(t, fd.released)
	assert.ErrorIs(t, r.Draw(scene.New()), ErrReleased)
}

func TestResize(t *testing.T) {
	r, fd := newTestRenderer(t, 4096)
	require.NoError(t, r.Resize(image.Pt(1024, 768)))
	assert.Equal(t, image.Pt(1024, 768), fd.size)
	assert.Equal(t, image.Pt(1024, 768), r.Size())
	assert.Equal(t, 1, fd.pipelines["quads"], "pipelines are not rebuilt on resize")

	// zero size defers drawing until a real size arrives
	fd.clearEvents()
	require.NoError(t, r.Resize(image.Pt(0, 768)))
	require.NoError(t, r.Draw(scene.New()))
	assert.Empty(t, fd.events)
	assert.Equal(t, 1, r.Stats().Deferred)

	require.NoError(t, r.Resize(image.Pt(640, 480)))
	require.NoError(t, r.Draw(scene.New()))
	assert.Equal(t, "resize 640x480", fd.events[0])
	assert.Contains(t, fd.events, "present")
}

func TestFrameIsolation(t *testing.T) {
	r, fd := newTestRenderer(t, 4096)
	fd.submitDelay = 2 * time.Millisecond
	sc := scene.New(&scene.Raw{K: scene.Quads, N: 1, Data: make([]byte, 96)})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 4 {
				assert.NoError(t, r.Draw(sc))
			}
		}()
	}
	wg.Wait()
	assert.Zero(t, fd.violations.Load())
	assert.Equal(t, 32, r.Stats().Frames)

	// each frame stages only after the previous one was submitted
	// and presented
	last := ""
	for _, ev := range fd.events {
		if ev == "staging" {
			assert.True(t, last == "" || last == "present", "staging after %q", last)
		}
		last = ev
	}
}

func TestShaderReload(t *testing.T) {
	r, fd := newTestRenderer(t, 4096)
	r.MarkShaderDirty("quads")
	r.MarkShaderDirty("unknown")
	require.NoError(t, r.Draw(scene.New()))
	assert.Equal(t, 2, fd.pipelines["quads"])
	assert.Equal(t, 1, fd.pipelines["shadows"])
	_, ok := fd.pipelines["unknown"]
	assert.False(t, ok)

	// only once
	require.NoError(t, r.Draw(scene.New()))
	assert.Equal(t, 2, fd.pipelines["quads"])
}

func TestAtlasOnDevice(t *testing.T) {
	r, fd := newTestRenderer(t, 4096)
	require.NotNil(t, r.Atlas())
	r.Release()
	assert.True(t, fd.released)
	r.Release()
}

func TestErrorClassification(t *testing.T) {
	assert.True(t, IsRetryable(vgpu.ErrOutOfDate))
	assert.True(t, IsRetryable(vgpu.ErrSuboptimal))
	assert.False(t, IsRetryable(vgpu.ErrDeviceLost))
	assert.True(t, IsFatal(vgpu.ErrDeviceLost))
	assert.True(t, IsFatal(vgpu.ErrSurfaceLost))
	assert.False(t, IsFatal(stage.ErrOverflow))
	assert.False(t, IsRetryable(stage.ErrOverflow))
}
