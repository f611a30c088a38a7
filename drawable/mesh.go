// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package drawable

import (
	"errors"
	"fmt"

	"github.com/gogpu/ggbatch"
	"github.com/gogpu/ggbatch/batch"
)

// ErrInvalidMesh is returned by NewMesh for inconsistent geometry.
var ErrInvalidMesh = errors.New("drawable: invalid mesh")

// Mesh is an arbitrary textured triangle list.
type Mesh struct {
	Texture     *batch.TextureSource
	Tint        ggbatch.RGBA
	Blend       batch.BlendMode
	Technique   string
	RoundPixels bool
	World       ggbatch.Matrix

	positions []float32
	uvs       []float32
	indices   []uint32

	element batch.Element
}

// NewMesh creates a mesh from x,y positions, u,v coordinates and triangle
// indices. The slices are retained, not copied.
func NewMesh(tex *batch.TextureSource, positions, uvs []float32, indices []uint32) (*Mesh, error) {
	if len(positions)%2 != 0 {
		return nil, fmt.Errorf("%w: odd position count %d", ErrInvalidMesh, len(positions))
	}
	if uvs != nil && len(uvs) != len(positions) {
		return nil, fmt.Errorf("%w: %d uvs for %d positions", ErrInvalidMesh, len(uvs), len(positions))
	}
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("%w: index count %d is not a triangle list", ErrInvalidMesh, len(indices))
	}
	vertices := uint32(len(positions) / 2)
	for i, idx := range indices {
		if idx >= vertices {
			return nil, fmt.Errorf("%w: index %d = %d out of range (%d vertices)", ErrInvalidMesh, i, idx, vertices)
		}
	}
	return &Mesh{
		Texture:   tex,
		Tint:      ggbatch.White,
		World:     ggbatch.Identity(),
		positions: positions,
		uvs:       uvs,
		indices:   indices,
	}, nil
}

// Element refreshes and returns the mesh's element snapshot.
func (m *Mesh) Element() *batch.Element {
	e := &m.element
	e.Technique = m.Technique
	e.Blend = m.Blend
	e.Texture = m.Texture
	e.Transform = m.World
	e.Color = m.Tint.Pack()
	e.RoundPixels = m.RoundPixels
	e.Quad = false
	e.Positions = m.positions
	e.MeshUVs = m.uvs
	e.Indices = m.indices
	return e
}

// SetTexture changes the mesh texture; see Sprite.SetTexture.
func (m *Mesh) SetTexture(tex *batch.TextureSource) (rebatch bool) {
	m.Texture = tex
	return swapTexture(&m.element, tex)
}

// Detach releases the mesh's element from its batcher.
func (m *Mesh) Detach() {
	m.element.Reset()
}
