// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package batch

import "fmt"

// Instruction is one entry of an InstructionSet. Batches are the only
// instructions produced by this package; renderers may interleave their
// own (filters, masks, render-target switches).
type Instruction interface {
	InstructionType() string
}

// Batch is one indexed draw call: a contiguous index range drawn with one
// blend mode, one technique and up to maxTextures bound textures.
//
// A Batch is owned by the Arena that produced it. It is valid until the
// next Begin of the emitting Batcher.
type Batch struct {
	id  uint64
	gen uint64

	// Start is the first index of the range in the shared index buffer.
	Start int

	// Size is the number of indices to draw. Always > 0 once emitted.
	Size int

	// Blend is the blend mode of every element in the batch.
	Blend BlendMode

	// Technique identifies the GPU technique (pipeline) to draw with.
	Technique string

	// Textures maps the batch textures to sampler slots.
	Textures *TextureSlotTable
}

// InstructionType implements Instruction.
func (*Batch) InstructionType() string { return "batch" }

// ID returns an identity that is stable for the lifetime of the pooled
// Batch object. Adaptors key their per-batch side tables with it.
func (b *Batch) ID() uint64 { return b.id }

// Handle returns a handle that stops resolving once b is recycled.
func (b *Batch) Handle() BatchHandle {
	return BatchHandle{batch: b, gen: b.gen}
}

// String returns a compact description for logs and test failures.
func (b *Batch) String() string {
	textures := 0
	if b.Textures != nil {
		textures = b.Textures.Count()
	}
	return fmt.Sprintf("Batch[id=%d start=%d size=%d blend=%s technique=%q textures=%d]",
		b.id, b.Start, b.Size, b.Blend, b.Technique, textures)
}

// BatchHandle is a generation-checked reference to a Batch.
// The zero value resolves to nothing.
type BatchHandle struct {
	batch *Batch
	gen   uint64
}

// Get returns the batch if it has not been recycled since the handle was
// taken.
func (h BatchHandle) Get() (*Batch, bool) {
	if h.batch == nil || h.batch.gen != h.gen {
		return nil, false
	}
	return h.batch, true
}

// InstructionSet is the ordered output of one or more Batchers for a frame.
type InstructionSet struct {
	instructions []Instruction
}

// Add appends an instruction.
func (s *InstructionSet) Add(in Instruction) {
	s.instructions = append(s.instructions, in)
}

// Len returns the number of instructions.
func (s *InstructionSet) Len() int { return len(s.instructions) }

// Instructions returns the instructions in submission order.
func (s *InstructionSet) Instructions() []Instruction { return s.instructions }

// Batches returns the Batch instructions in submission order.
func (s *InstructionSet) Batches() []*Batch {
	var out []*Batch
	for _, in := range s.instructions {
		if b, ok := in.(*Batch); ok {
			out = append(out, b)
		}
	}
	return out
}

// Reset removes all instructions, keeping the storage.
func (s *InstructionSet) Reset() {
	clear(s.instructions)
	s.instructions = s.instructions[:0]
}
