// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"sync"

	"cogentcore.org/vkdraw/shaders"
	"github.com/fsnotify/fsnotify"
)

// ShaderWatcher watches a directory of SPIR-V shaders and reports
// the kind name of each shader file that is written or created.
type ShaderWatcher struct {
	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// NewShaderWatcher starts watching dir, calling onChange from its own
// goroutine with the kind name of each changed shader file.
func NewShaderWatcher(dir string, onChange func(name string)) (*ShaderWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}
	sw := &ShaderWatcher{watcher: w, done: make(chan struct{})}
	sw.wg.Add(1)
	go sw.run(onChange)
	return sw, nil
}

func (sw *ShaderWatcher) run(onChange func(name string)) {
	defer sw.wg.Done()
	for {
		select {
		case <-sw.done:
			return
		case ev, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if name, ok := shaders.KindOf(ev.Name); ok {
				Logger().Debug("render: shader changed", "file", ev.Name)
				onChange(name)
			}
		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			Logger().Warn("render: shader watcher", "err", err)
		}
	}
}

// Close stops watching and waits for the watch goroutine to exit.
func (sw *ShaderWatcher) Close() error {
	var err error
	sw.once.Do(func() {
		close(sw.done)
		err = sw.watcher.Close()
		sw.wg.Wait()
	})
	return err
}
