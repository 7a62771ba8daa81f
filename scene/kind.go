// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scene

import (
	"fmt"
	"strings"
)

// Kinds are the kinds of primitive that a [Batch] can hold.
// Each kind is drawn by its own pipeline.
type Kinds int32

const (
	// Quads are filled, optionally bordered and rounded rectangles.
	Quads Kinds = iota

	// Shadows are blurred rounded rectangles drawn under quads.
	Shadows

	// Underlines are straight or wavy text decorations.
	Underlines

	// KindsN is the number of known kinds. Batches with
	// a kind >= KindsN are not drawn.
	KindsN
)

var kindNames = [KindsN]string{"quads", "shadows", "underlines"}

// String returns the lower-case name of the kind, which is also the
// name of its pipeline and the base name of its shader files.
func (k Kinds) String() string {
	if !k.IsValid() {
		return fmt.Sprintf("kind(%d)", int32(k))
	}
	return kindNames[k]
}

// IsValid returns whether the kind is one of the known kinds.
func (k Kinds) IsValid() bool {
	return k >= 0 && k < KindsN
}

// SetString sets the kind from its name, ignoring case.
func (k *Kinds) SetString(s string) error {
	for i, nm := range kindNames {
		if strings.EqualFold(nm, s) {
			*k = Kinds(i)
			return nil
		}
	}
	return fmt.Errorf("%q is not a valid primitive kind", s)
}

// KindsValues returns all known kinds.
func KindsValues() []Kinds {
	return []Kinds{Quads, Shadows, Underlines}
}

// MarshalText implements [encoding.TextMarshaler].
func (k Kinds) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (k *Kinds) UnmarshalText(text []byte) error {
	return k.SetString(string(text))
}
