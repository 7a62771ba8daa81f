// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scene defines the ordered list of primitive batches
// that is drawn by the renderer once per frame.
package scene

// Batch is a same-kind group of primitive records drawn with one
// pipeline bind and one instanced draw call.
type Batch interface {

	// Kind returns the kind of primitive in the batch.
	Kind() Kinds

	// Len returns the number of records.
	Len() int

	// Bytes returns the raw bytes of all records, in the layout
	// read by the kind's shaders.
	Bytes() []byte
}

// QuadBatch is a batch of [Quad] records.
type QuadBatch []Quad

func (qs QuadBatch) Kind() Kinds   { return Quads }
func (qs QuadBatch) Len() int      { return len(qs) }
func (qs QuadBatch) Bytes() []byte { return sliceBytes(qs) }

// ShadowBatch is a batch of [Shadow] records.
type ShadowBatch []Shadow

func (ss ShadowBatch) Kind() Kinds   { return Shadows }
func (ss ShadowBatch) Len() int      { return len(ss) }
func (ss ShadowBatch) Bytes() []byte { return sliceBytes(ss) }

// UnderlineBatch is a batch of [Underline] records.
type UnderlineBatch []Underline

func (us UnderlineBatch) Kind() Kinds   { return Underlines }
func (us UnderlineBatch) Len() int      { return len(us) }
func (us UnderlineBatch) Bytes() []byte { return sliceBytes(us) }

// Raw is a batch of opaque records of any kind, including kinds
// that the renderer does not know how to draw.
type Raw struct {
	K    Kinds
	N    int
	Data []byte
}

func (r *Raw) Kind() Kinds   { return r.K }
func (r *Raw) Len() int      { return r.N }
func (r *Raw) Bytes() []byte { return r.Data }

// Scene is an ordered sequence of batches produced once per frame.
// Later batches are composited over earlier ones.
// The renderer does not retain a Scene after drawing it.
type Scene struct {
	batches []Batch
}

// New returns a new scene with the given batches.
func New(batches ...Batch) *Scene {
	return &Scene{batches: batches}
}

// Batches returns the batches in draw order.
// The returned slice must not be modified.
func (sc *Scene) Batches() []Batch {
	if sc == nil {
		return nil
	}
	return sc.batches
}

// Len returns the number of batches.
func (sc *Scene) Len() int {
	return len(sc.Batches())
}

// Reset removes all batches, keeping capacity.
func (sc *Scene) Reset() {
	clear(sc.batches)
	sc.batches = sc.batches[:0]
}

// Add appends the given batch as-is.
func (sc *Scene) Add(b Batch) {
	sc.batches = append(sc.batches, b)
}

// last returns the trailing batch, or nil.
func (sc *Scene) last() Batch {
	if len(sc.batches) == 0 {
		return nil
	}
	return sc.batches[len(sc.batches)-1]
}

// AddQuad adds the quad to the trailing batch if it holds quads,
// and otherwise starts a new batch.
func (sc *Scene) AddQuad(q Quad) {
	if qs, ok := sc.last().(QuadBatch); ok {
		sc.batches[len(sc.batches)-1] = append(qs, q)
		return
	}
	sc.Add(QuadBatch{q})
}

// AddShadow adds the shadow to the trailing batch if it holds shadows,
// and otherwise starts a new batch.
func (sc *Scene) AddShadow(s Shadow) {
	if ss, ok := sc.last().(ShadowBatch); ok {
		sc.batches[len(sc.batches)-1] = append(ss, s)
		return
	}
	sc.Add(ShadowBatch{s})
}

// AddUnderline adds the underline to the trailing batch if it holds
// underlines, and otherwise starts a new batch.
func (sc *Scene) AddUnderline(u Underline) {
	if us, ok := sc.last().(UnderlineBatch); ok {
		sc.batches[len(sc.batches)-1] = append(us, u)
		return
	}
	sc.Add(UnderlineBatch{u})
}
