// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package batch

import "github.com/gogpu/ggbatch"

// Rect is an axis-aligned rectangle in local space.
type Rect struct {
	MinX, MinY, MaxX, MaxY float32
}

// FullUVs covers the whole texture, corners in the order top-left,
// top-right, bottom-right, bottom-left.
var FullUVs = [8]float32{0, 0, 1, 0, 1, 1, 0, 1}

// Element is the per-drawable snapshot consumed by a Batcher.
//
// The owning drawable fills the public fields and calls Batcher.Add. The
// batcher assigns the offsets during Add and the texture slot and batch
// during Break; those are exposed read-only through accessors.
type Element struct {
	// Technique identifies the GPU technique. Elements with different
	// techniques never share a batch.
	Technique string

	// Blend is the blend mode. Elements with different modes never share
	// a batch.
	Blend BlendMode

	// Texture is sampled by the element. A nil texture is drawn without a
	// slot (slot 0) and does not occupy the slot table.
	Texture *TextureSource

	// Transform maps local positions to world positions.
	Transform ggbatch.Matrix

	// Color is the packed premultiplied tint, see ggbatch.RGBA.Pack.
	Color uint32

	// RoundPixels asks the shader to snap vertices to the pixel grid.
	RoundPixels bool

	// Quad selects the quad fast path: Bounds and UVs describe four
	// vertices and the indices are fixed.
	Quad bool

	// Bounds is the local-space quad rectangle.
	Bounds Rect

	// UVs are the quad texture coordinates, see FullUVs for the order.
	UVs [8]float32

	// Positions are local-space x,y pairs of a mesh.
	Positions []float32

	// MeshUVs are u,v pairs of a mesh, one per position pair.
	MeshUVs []float32

	// Indices are triangle-list indices into the mesh vertices.
	Indices []uint32

	textureSlot     int
	indexOffset     int
	attributeOffset int
	batch           BatchHandle
	batcher         *Batcher
}

// NewQuadElement returns a quad element covering bounds with the full
// texture and an identity transform.
func NewQuadElement(tex *TextureSource, bounds Rect) *Element {
	return &Element{
		Texture:   tex,
		Transform: ggbatch.Identity(),
		Color:     0xFFFFFFFF,
		Quad:      true,
		Bounds:    bounds,
		UVs:       FullUVs,
	}
}

// IndexSize returns the number of indices the element contributes.
func (e *Element) IndexSize() int {
	if e.Quad {
		return 6
	}
	return len(e.Indices)
}

// AttributeSize returns the number of vertices the element contributes.
func (e *Element) AttributeSize() int {
	if e.Quad {
		return 4
	}
	return len(e.Positions) / 2
}

// TextureSlot returns the slot assigned during the last Break.
func (e *Element) TextureSlot() int { return e.textureSlot }

// IndexOffset returns the first index slot of the element.
func (e *Element) IndexOffset() int { return e.indexOffset }

// AttributeOffset returns the first vertex of the element.
func (e *Element) AttributeOffset() int { return e.attributeOffset }

// Batch returns the batch the element was packed into, or nil if it has not
// been packed or the batch has since been recycled.
func (e *Element) Batch() *Batch {
	b, _ := e.batch.Get()
	return b
}

// Batcher returns the batcher the element was added to, or nil.
func (e *Element) Batcher() *Batcher { return e.batcher }

// Reset detaches the element from its batcher and batch.
func (e *Element) Reset() {
	e.textureSlot = 0
	e.indexOffset = 0
	e.attributeOffset = 0
	e.batch = BatchHandle{}
	e.batcher = nil
}
