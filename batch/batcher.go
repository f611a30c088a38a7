// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package batch

import (
	"context"
	"log/slog"

	"github.com/gogpu/ggbatch"
)

// Batcher accumulates elements and groups them into batches.
//
// Per frame the call order is Begin, Add*, then Break* and Finish. The
// attribute and index buffers belong to the Batcher; an adaptor reads them
// after Finish and until the next Begin.
type Batcher struct {
	arena       *Arena
	packer      AttributePacker
	maxTextures int

	attributes *AttributeBuffer
	indices    *IndexBuffer

	elements     []*Element
	elementStart int

	// Running totals since Begin, in indices and vertices.
	indexSize     int
	attributeSize int

	// Index count already packed by earlier Break calls this frame.
	packedIndexSize int

	// Batches emitted since Begin. Released at the next Begin.
	issued []*Batch

	dirty bool
}

// NewBatcher creates a Batcher.
func NewBatcher(opts ...Option) *Batcher {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.attributeWords <= 0 {
		o.attributeWords = 4 * o.packer.Stride()
	}
	if o.indexCount <= 0 {
		o.indexCount = 6
	}
	if o.arena == nil {
		o.arena = NewArena(o.maxTextures)
	}

	return &Batcher{
		arena:       o.arena,
		packer:      o.packer,
		maxTextures: o.maxTextures,
		attributes:  newAttributeBuffer(o.attributeWords),
		indices:     newIndexBuffer(o.indexCount),
	}
}

// MaxTextures returns the slot table size.
func (b *Batcher) MaxTextures() int { return b.maxTextures }

// Packer returns the vertex layout strategy.
func (b *Batcher) Packer() AttributePacker { return b.packer }

// Arena returns the arena batches are drawn from.
func (b *Batcher) Arena() *Arena { return b.arena }

// Attributes returns the attribute buffer.
func (b *Batcher) Attributes() *AttributeBuffer { return b.attributes }

// Indices returns the index buffer.
func (b *Batcher) Indices() *IndexBuffer { return b.indices }

// IndexSize returns the number of indices added since Begin.
func (b *Batcher) IndexSize() int { return b.indexSize }

// AttributeSize returns the number of vertices added since Begin.
func (b *Batcher) AttributeSize() int { return b.attributeSize }

// AttributeWords returns the number of attribute words in use.
func (b *Batcher) AttributeWords() int { return b.attributeSize * b.packer.Stride() }

// Dirty reports whether the buffers changed since ClearDirty.
func (b *Batcher) Dirty() bool { return b.dirty }

// ClearDirty is called by an adaptor after uploading the buffers.
func (b *Batcher) ClearDirty() { b.dirty = false }

// EnsureAttributeBuffer guarantees room for n attribute words, preserving
// contents, and returns the buffer. It never shrinks; when no growth is
// needed the same buffer with the same backing memory is returned.
func (b *Batcher) EnsureAttributeBuffer(n int) *AttributeBuffer {
	old := b.attributes.Cap()
	if b.attributes.ensure(n) {
		ggbatch.Logger().Debug("batch: attribute buffer grown",
			"from", old, "to", b.attributes.Cap())
	}
	return b.attributes
}

// EnsureIndexBuffer guarantees room for n indices, preserving contents,
// and returns the buffer. Growing past 65535 entries promotes the buffer
// to 32-bit indices. When no growth is needed the backing memory is left
// untouched.
func (b *Batcher) EnsureIndexBuffer(n int) *IndexBuffer {
	old := b.indices.Len()
	was32 := b.indices.Is32()
	if b.indices.ensure(n) {
		ggbatch.Logger().Debug("batch: index buffer grown",
			"from", old, "to", b.indices.Len(), "uint32", b.indices.Is32())
		if !was32 && b.indices.Is32() {
			ggbatch.Logger().Debug("batch: index buffer promoted to 32-bit")
		}
	}
	return b.indices
}

// Begin starts a new frame. Batches emitted during the previous frame are
// returned to the arena and must no longer be used.
func (b *Batcher) Begin() {
	for _, bt := range b.issued {
		b.arena.releaseBatch(bt)
	}
	clear(b.issued)
	b.issued = b.issued[:0]

	clear(b.elements)
	b.elements = b.elements[:0]
	b.elementStart = 0
	b.indexSize = 0
	b.attributeSize = 0
	b.packedIndexSize = 0
}

// Add queues an element for the next Break. It records the element's
// index and vertex offsets; packing happens in Break.
func (b *Batcher) Add(e *Element) {
	e.indexOffset = b.indexSize
	e.attributeOffset = b.attributeSize
	e.batch = BatchHandle{}
	e.batcher = b

	b.indexSize += e.IndexSize()
	b.attributeSize += e.AttributeSize()
	b.elements = append(b.elements, e)
}

// Finish packs all pending elements into out. Calling it again without new
// elements emits nothing.
func (b *Batcher) Finish(out *InstructionSet) {
	b.Break(out)
}

// Break groups the elements added since the previous break point into
// batches, packs their geometry and appends the batches to out in
// insertion order. With no pending elements it does nothing.
func (b *Batcher) Break(out *InstructionSet) {
	pending := b.elements[b.elementStart:]
	if len(pending) == 0 {
		return
	}

	stride := b.packer.Stride()
	b.EnsureAttributeBuffer(b.attributeSize * stride)
	b.EnsureIndexBuffer(b.indexSize)
	if b.attributeSize > maxUint16Index+1 && b.indices.promote() {
		ggbatch.Logger().Debug("batch: index buffer promoted to 32-bit",
			"vertices", b.attributeSize)
	}

	f32 := b.attributes.Float32()
	u32 := b.attributes.Uint32()
	arena := b.arena
	emitted := 0

	first := pending[0]
	blend := first.Blend
	technique := first.Technique
	current := arena.acquireBatch()
	start := b.packedIndexSize
	size := start

	for i, e := range pending {
		pending[i] = nil
		tex := e.Texture
		breakRequired := e.Blend != blend || e.Technique != technique

		if tex == nil || tex.residentIn(arena) {
			if breakRequired {
				if b.finishBatch(current, start, size-start, blend, technique, out) {
					emitted++
				}
				start = size
				blend, technique = e.Blend, e.Technique
				current = arena.acquireBatch()
			}
			// Residency may have been lost to the boundary above.
			if tex == nil {
				e.textureSlot = 0
			} else if tex.residentIn(arena) {
				e.textureSlot = tex.slot
			} else {
				e.textureSlot = current.Textures.add(tex)
				tex.markResident(arena, e.textureSlot)
			}
		} else {
			if current.Textures.Count() >= b.maxTextures || breakRequired {
				if b.finishBatch(current, start, size-start, blend, technique, out) {
					emitted++
				}
				start = size
				blend, technique = e.Blend, e.Technique
				current = arena.acquireBatch()
			}
			e.textureSlot = current.Textures.add(tex)
			tex.markResident(arena, e.textureSlot)
		}

		e.batch = current.Handle()
		size += e.IndexSize()
		b.pack(e, f32, u32)
	}

	if b.finishBatch(current, start, size-start, blend, technique, out) {
		emitted++
	}

	b.elementStart = len(b.elements)
	b.packedIndexSize = size
	b.dirty = true

	if l := ggbatch.Logger(); l.Enabled(context.Background(), slog.LevelDebug) {
		l.Debug("batch: break",
			"elements", len(pending), "batches", emitted,
			"indices", size, "tick", arena.tick)
	}
}

// finishBatch closes the batch being built. A batch without indices is
// recycled instead of emitted. Either way the tick advances, so textures
// marked during the batch are no longer resident.
func (b *Batcher) finishBatch(bt *Batch, start, size int, blend BlendMode, technique string, out *InstructionSet) bool {
	b.arena.advance()
	if size <= 0 {
		b.arena.releaseBatch(bt)
		return false
	}
	bt.Start = start
	bt.Size = size
	bt.Blend = blend
	bt.Technique = technique
	out.Add(bt)
	b.issued = append(b.issued, bt)
	return true
}

// pack writes the element's vertices and indices at its offsets.
func (b *Batcher) pack(e *Element, f32 []float32, u32 []uint32) {
	slot := uint32(e.textureSlot)
	base := uint32(e.attributeOffset)
	at := e.indexOffset

	if e.Quad {
		b.packer.PackQuadAttributes(e, f32, u32, e.attributeOffset, slot)
		if idx := b.indices.u32; idx != nil {
			idx[at], idx[at+1], idx[at+2] = base, base+1, base+2
			idx[at+3], idx[at+4], idx[at+5] = base, base+2, base+3
		} else {
			idx := b.indices.u16
			b16 := uint16(base)
			idx[at], idx[at+1], idx[at+2] = b16, b16+1, b16+2
			idx[at+3], idx[at+4], idx[at+5] = b16, b16+2, b16+3
		}
		return
	}

	b.packer.PackAttributes(e, f32, u32, e.attributeOffset, slot)
	if idx := b.indices.u32; idx != nil {
		for i, v := range e.Indices {
			idx[at+i] = v + base
		}
	} else {
		idx := b.indices.u16
		for i, v := range e.Indices {
			idx[at+i] = uint16(v + base)
		}
	}
}

// CheckAndUpdateTexture swaps the element's texture in place when tex
// already occupies a slot of the element's batch. It reports false when
// the element must be re-batched instead: tex is not in that batch, or the
// batch has been recycled.
//
// On success call UpdateElement to rewrite the packed vertices.
func (b *Batcher) CheckAndUpdateTexture(e *Element, tex *TextureSource) bool {
	bt, ok := e.batch.Get()
	if !ok || e.batcher != b {
		return false
	}
	slot, ok := bt.Textures.Slot(tex)
	if !ok {
		return false
	}
	e.textureSlot = slot
	e.Texture = tex
	return true
}

// UpdateElement repacks the vertices of an already packed element, for
// example after a successful CheckAndUpdateTexture or a transform change.
// The element's index range and batch are unchanged.
func (b *Batcher) UpdateElement(e *Element) bool {
	if _, ok := e.batch.Get(); !ok || e.batcher != b {
		return false
	}
	slot := uint32(e.textureSlot)
	if e.Quad {
		b.packer.PackQuadAttributes(e, b.attributes.floats, b.attributes.words, e.attributeOffset, slot)
	} else {
		b.packer.PackAttributes(e, b.attributes.floats, b.attributes.words, e.attributeOffset, slot)
	}
	b.dirty = true
	return true
}

// Destroy releases the batches and drops the buffers. Any later use of the
// Batcher is a programming error and faults.
func (b *Batcher) Destroy() {
	b.Begin()
	b.elements = nil
	b.issued = nil
	b.attributes = nil
	b.indices = nil
}
