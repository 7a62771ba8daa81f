// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"cogentcore.org/vkdraw/atlas"
	"cogentcore.org/vkdraw/shaders"
	"github.com/stretchr/testify/require"
)

type fakeDraw struct {
	name      string
	offset    int
	instances int
}

// fakeDevice records the calls a renderer makes.
type fakeDevice struct {
	atlas.MemAllocator

	mu        sync.Mutex
	mem       []byte
	size      image.Point
	pipelines map[string]int
	ranges    map[string]int
	events    []string
	draws     []fakeDraw
	bound     fakeDraw
	released  bool

	// errors returned by successive calls, then nil
	acquireErrs []error
	beginErrs   []error
	presentErrs []error
	submitErrs  []error

	submitDelay time.Duration
	inflight    atomic.Bool
	violations  atomic.Int32
}

func newFakeDevice(staging int) *fakeDevice {
	return &fakeDevice{
		mem:       make([]byte, staging),
		size:      image.Pt(800, 600),
		pipelines: map[string]int{},
		ranges:    map[string]int{},
	}
}

func (fd *fakeDevice) event(format string, args ...any) {
	fd.events = append(fd.events, fmt.Sprintf(format, args...))
}

func pop(errs *[]error) error {
	if len(*errs) == 0 {
		return nil
	}
	err := (*errs)[0]
	*errs = (*errs)[1:]
	return err
}

func (fd *fakeDevice) Staging() []byte {
	if fd.inflight.Load() {
		fd.violations.Add(1)
	}
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.event("staging")
	return fd.mem
}

func (fd *fakeDevice) HasPipeline(name string) bool {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	_, ok := fd.pipelines[name]
	return ok
}

func (fd *fakeDevice) SetPipeline(name string, vert, frag []byte) error {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.pipelines[name]++
	return nil
}

func (fd *fakeDevice) SetRange(name string, rng int) error {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.ranges[name] = rng
	fd.event("range %s %d", name, rng)
	return nil
}

func (fd *fakeDevice) Acquire() (int, error) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.event("acquire")
	return 0, pop(&fd.acquireErrs)
}

func (fd *fakeDevice) Begin(image int) error {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.event("begin %d", image)
	return pop(&fd.beginErrs)
}

func (fd *fakeDevice) Bind(name string, offset int) error {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.bound = fakeDraw{name: name, offset: offset}
	fd.event("bind %s %d", name, offset)
	return nil
}

func (fd *fakeDevice) Draw(instances int) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	d := fd.bound
	d.instances = instances
	fd.draws = append(fd.draws, d)
	fd.event("draw %d", instances)
}

func (fd *fakeDevice) End() error {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.event("end")
	return nil
}

func (fd *fakeDevice) Submit() error {
	fd.inflight.Store(true)
	time.Sleep(fd.submitDelay)
	fd.inflight.Store(false)
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.event("submit")
	return pop(&fd.submitErrs)
}

func (fd *fakeDevice) Present(image int) error {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.event("present")
	return pop(&fd.presentErrs)
}

func (fd *fakeDevice) Resize(size image.Point) error {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.size = size
	fd.event("resize %dx%d", size.X, size.Y)
	return nil
}

func (fd *fakeDevice) Size() image.Point {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	return fd.size
}

func (fd *fakeDevice) Release() {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.released = true
}

// clearEvents forgets the events recorded so far.
func (fd *fakeDevice) clearEvents() {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	fd.events = nil
	fd.draws = nil
}

// testShaders returns a file system with valid looking SPIR-V for
// all scene kinds.
func testShaders() fstest.MapFS {
	code := make([]byte, 20)
	copy(code, shaders.Magic[:])
	fsys := fstest.MapFS{}
	for _, name := range []string{"quads", "shadows", "underlines"} {
		fsys[shaders.VertFile(name)] = &fstest.MapFile{Data: code}
		fsys[shaders.FragFile(name)] = &fstest.MapFile{Data: code}
	}
	return fsys
}

// newTestRenderer returns a renderer on a fake device with the
// given staging capacity, with the construction events cleared.
func newTestRenderer(t *testing.T, staging int) (*Renderer, *fakeDevice) {
	t.Helper()
	fd := newFakeDevice(staging)
	cfg := DefaultConfig()
	cfg.StagingSize = staging
	r, err := New(fd, cfg, testShaders())
	require.NoError(t, err)
	fd.clearEvents()
	return r, fd
}

// builds returns how many times the named pipeline was set.
func (fd *fakeDevice) builds(name string) int {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	return fd.pipelines[name]
}
