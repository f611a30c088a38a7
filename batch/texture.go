// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package batch

import "sync/atomic"

// textureIDs hands out texture identities. Zero is never used.
var textureIDs atomic.Uint64

// TextureSource is the identity of a GPU texture as seen by the batcher.
//
// The batcher never touches the texture data; it only needs a stable
// identity to assign sampler slots. Handle carries whatever the backend
// adaptor needs to bind the texture (for example a hal.TextureView).
type TextureSource struct {
	id uint64

	// Label is an optional debug name.
	Label string

	// Layer is the array layer sampled by layered techniques.
	Layer uint32

	// Handle is the backend resource bound for this texture.
	Handle any

	// Residency in the batch currently being built. Written only by
	// Batcher.Break; valid while arena.tick == tick.
	arena *Arena
	tick  uint64
	slot  int
}

// NewTextureSource creates a texture identity.
func NewTextureSource(label string) *TextureSource {
	return &TextureSource{
		id:    textureIDs.Add(1),
		Label: label,
	}
}

// ID returns the unique identity of the texture.
func (t *TextureSource) ID() uint64 { return t.id }

// residentIn reports whether t already holds a slot in the batch that a
// is currently building.
func (t *TextureSource) residentIn(a *Arena) bool {
	return t.arena == a && t.tick == a.tick
}

func (t *TextureSource) markResident(a *Arena, slot int) {
	t.arena = a
	t.tick = a.tick
	t.slot = slot
}
