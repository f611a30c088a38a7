// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package batch

import "github.com/gogpu/gputypes"

// AttributePacker writes the interleaved vertex records of one element.
//
// offset is the element's first vertex; the packer writes Stride words per
// vertex starting at word offset*Stride. slot is the texture slot assigned
// to the element within its batch.
type AttributePacker interface {
	// Name identifies the packer in configuration.
	Name() string

	// Stride returns the number of 32-bit words per vertex.
	Stride() int

	// Layout describes the vertex record for pipeline creation.
	Layout() gputypes.VertexBufferLayout

	// PackQuadAttributes writes the four vertices of a quad element.
	PackQuadAttributes(e *Element, f32 []float32, u32 []uint32, offset int, slot uint32)

	// PackAttributes writes the vertices of a mesh element.
	PackAttributes(e *Element, f32 []float32, u32 []uint32, offset int, slot uint32)
}

// Vertex record word offsets shared by the packers.
const (
	wordX = iota
	wordY
	wordU
	wordV
	wordColor
	wordSlot
	wordLayer
)

// defaultStride is x, y, u, v, color, slot|round.
const defaultStride = 6

// layeredStride adds the texture array layer.
const layeredStride = 7

// slotWord combines the texture slot and the round-to-pixel flag.
func slotWord(slot uint32, round bool) uint32 {
	w := slot << 16
	if round {
		w |= 1
	}
	return w
}

// DefaultPacker packs position, uv, color and the slot word.
type DefaultPacker struct{}

// Name implements AttributePacker.
func (DefaultPacker) Name() string { return "default" }

// Stride implements AttributePacker.
func (DefaultPacker) Stride() int { return defaultStride }

// Layout implements AttributePacker.
func (DefaultPacker) Layout() gputypes.VertexBufferLayout {
	return gputypes.VertexBufferLayout{
		ArrayStride: defaultStride * 4,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes:  baseAttributes(),
	}
}

// PackQuadAttributes implements AttributePacker.
func (DefaultPacker) PackQuadAttributes(e *Element, f32 []float32, u32 []uint32, offset int, slot uint32) {
	packQuad(e, f32, u32, offset*defaultStride, defaultStride, slotWord(slot, e.RoundPixels))
}

// PackAttributes implements AttributePacker.
func (DefaultPacker) PackAttributes(e *Element, f32 []float32, u32 []uint32, offset int, slot uint32) {
	packMesh(e, f32, u32, offset*defaultStride, defaultStride, slotWord(slot, e.RoundPixels))
}

// LayeredPacker extends DefaultPacker with the texture array layer, for
// techniques that sample 2D array textures.
type LayeredPacker struct{}

// Name implements AttributePacker.
func (LayeredPacker) Name() string { return "layered" }

// Stride implements AttributePacker.
func (LayeredPacker) Stride() int { return layeredStride }

// Layout implements AttributePacker.
func (LayeredPacker) Layout() gputypes.VertexBufferLayout {
	attrs := append(baseAttributes(), gputypes.VertexAttribute{
		Format: gputypes.VertexFormatUint32, Offset: wordLayer * 4, ShaderLocation: 4,
	})
	return gputypes.VertexBufferLayout{
		ArrayStride: layeredStride * 4,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes:  attrs,
	}
}

// PackQuadAttributes implements AttributePacker.
func (LayeredPacker) PackQuadAttributes(e *Element, f32 []float32, u32 []uint32, offset int, slot uint32) {
	base := offset * layeredStride
	packQuad(e, f32, u32, base, layeredStride, slotWord(slot, e.RoundPixels))
	layer := textureLayer(e)
	for i := 0; i < 4; i++ {
		u32[base+i*layeredStride+wordLayer] = layer
	}
}

// PackAttributes implements AttributePacker.
func (LayeredPacker) PackAttributes(e *Element, f32 []float32, u32 []uint32, offset int, slot uint32) {
	base := offset * layeredStride
	packMesh(e, f32, u32, base, layeredStride, slotWord(slot, e.RoundPixels))
	layer := textureLayer(e)
	for i := range e.AttributeSize() {
		u32[base+i*layeredStride+wordLayer] = layer
	}
}

func textureLayer(e *Element) uint32 {
	if e.Texture == nil {
		return 0
	}
	return e.Texture.Layer
}

func baseAttributes() []gputypes.VertexAttribute {
	return []gputypes.VertexAttribute{
		{Format: gputypes.VertexFormatFloat32x2, Offset: wordX * 4, ShaderLocation: 0}, // position
		{Format: gputypes.VertexFormatFloat32x2, Offset: wordU * 4, ShaderLocation: 1}, // uv
		{Format: gputypes.VertexFormatUnorm8x4, Offset: wordColor * 4, ShaderLocation: 2},
		{Format: gputypes.VertexFormatUint32, Offset: wordSlot * 4, ShaderLocation: 3}, // slot<<16 | round
	}
}

// packQuad writes the corners top-left, top-right, bottom-right,
// bottom-left starting at word base.
func packQuad(e *Element, f32 []float32, u32 []uint32, base, stride int, slot uint32) {
	m := e.Transform.Float32()
	r := e.Bounds
	xs := [4]float32{r.MinX, r.MaxX, r.MaxX, r.MinX}
	ys := [4]float32{r.MinY, r.MinY, r.MaxY, r.MaxY}

	for i := 0; i < 4; i++ {
		w := base + i*stride
		x, y := xs[i], ys[i]
		f32[w+wordX] = m[0]*x + m[1]*y + m[2]
		f32[w+wordY] = m[3]*x + m[4]*y + m[5]
		f32[w+wordU] = e.UVs[i*2]
		f32[w+wordV] = e.UVs[i*2+1]
		u32[w+wordColor] = e.Color
		u32[w+wordSlot] = slot
	}
}

// packMesh writes every mesh vertex starting at word base.
func packMesh(e *Element, f32 []float32, u32 []uint32, base, stride int, slot uint32) {
	m := e.Transform.Float32()
	pos := e.Positions
	uvs := e.MeshUVs

	for i := 0; i < len(pos)/2; i++ {
		w := base + i*stride
		x, y := pos[i*2], pos[i*2+1]
		f32[w+wordX] = m[0]*x + m[1]*y + m[2]
		f32[w+wordY] = m[3]*x + m[4]*y + m[5]
		if i*2+1 < len(uvs) {
			f32[w+wordU] = uvs[i*2]
			f32[w+wordV] = uvs[i*2+1]
		} else {
			f32[w+wordU], f32[w+wordV] = 0, 0
		}
		u32[w+wordColor] = e.Color
		u32[w+wordSlot] = slot
	}
}
