// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package drawable provides the drawables that feed a batch.Batcher.
//
// Each drawable owns exactly one batch.Element and refreshes it from its
// own state on Element(). The scene graph that positions drawables lives
// outside this module; drawables only receive a world transform.
package drawable

import (
	"github.com/gogpu/ggbatch"
	"github.com/gogpu/ggbatch/batch"
)

// Frame is a sub-rectangle of a texture in texels.
type Frame struct {
	X, Y, W, H float32
}

// Sprite is a textured quad.
type Sprite struct {
	Texture *batch.TextureSource

	// TextureWidth and TextureHeight are the full texture size, used to
	// convert Frame to normalized UVs. Zero means Frame is ignored.
	TextureWidth, TextureHeight float32

	// Frame selects the region of the texture. A zero frame uses the
	// whole texture.
	Frame Frame

	// Width and Height are the local size of the quad.
	Width, Height float32

	// AnchorX and AnchorY place the origin within the quad, in [0, 1].
	AnchorX, AnchorY float32

	Tint        ggbatch.RGBA
	Blend       batch.BlendMode
	Technique   string
	RoundPixels bool

	// World is the transform computed by the scene graph.
	World ggbatch.Matrix

	element batch.Element
}

// NewSprite creates a sprite showing the whole texture at the given size.
func NewSprite(tex *batch.TextureSource, width, height float32) *Sprite {
	return &Sprite{
		Texture: tex,
		Width:   width,
		Height:  height,
		Tint:    ggbatch.White,
		World:   ggbatch.Identity(),
	}
}

// Element refreshes and returns the sprite's element snapshot. The batch
// assignment of a previous frame is left intact so CheckAndUpdateTexture
// keeps working until the element is re-added.
func (s *Sprite) Element() *batch.Element {
	e := &s.element
	e.Technique = s.Technique
	e.Blend = s.Blend
	e.Texture = s.Texture
	e.Transform = s.World
	e.Color = s.Tint.Pack()
	e.RoundPixels = s.RoundPixels
	e.Quad = true
	e.Bounds = batch.Rect{
		MinX: -s.AnchorX * s.Width,
		MinY: -s.AnchorY * s.Height,
		MaxX: (1 - s.AnchorX) * s.Width,
		MaxY: (1 - s.AnchorY) * s.Height,
	}
	e.UVs = s.uvs()
	return e
}

func (s *Sprite) uvs() [8]float32 {
	f := s.Frame
	if f.W == 0 || f.H == 0 || s.TextureWidth == 0 || s.TextureHeight == 0 {
		return batch.FullUVs
	}
	u0, v0 := f.X/s.TextureWidth, f.Y/s.TextureHeight
	u1, v1 := (f.X+f.W)/s.TextureWidth, (f.Y+f.H)/s.TextureHeight
	return [8]float32{u0, v0, u1, v0, u1, v1, u0, v1}
}

// SetTexture changes the sprite's texture. When the new texture is already
// bound in the sprite's current batch the packed vertices are rewritten in
// place and SetTexture returns false. It returns true when the sprite must
// be re-batched.
func (s *Sprite) SetTexture(tex *batch.TextureSource) (rebatch bool) {
	s.Texture = tex
	return swapTexture(&s.element, tex)
}

// Detach releases the sprite's element from its batcher, for example when
// the sprite leaves the scene.
func (s *Sprite) Detach() {
	s.element.Reset()
}

// swapTexture tries the cheap in-place texture swap on an element that
// has already been packed.
func swapTexture(e *batch.Element, tex *batch.TextureSource) bool {
	b := e.Batcher()
	if b == nil {
		return true
	}
	if tex == nil || !b.CheckAndUpdateTexture(e, tex) {
		return true
	}
	return !b.UpdateElement(e)
}
