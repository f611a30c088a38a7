// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package batch

import (
	"github.com/gogpu/gputypes"
	"golang.org/x/exp/constraints"
	"honnef.co/go/safeish"
)

// maxUint16Index is the largest vertex index a 16-bit index buffer can hold.
const maxUint16Index = 0xFFFF

// AttributeBuffer is growable storage for interleaved vertex words.
//
// The same memory is exposed as float32 and uint32 views so a packer can
// write positions and packed integer fields side by side.
type AttributeBuffer struct {
	words  []uint32
	floats []float32
}

func newAttributeBuffer(words int) *AttributeBuffer {
	b := &AttributeBuffer{}
	b.resize(words)
	return b
}

// Cap returns the capacity in 32-bit words.
func (b *AttributeBuffer) Cap() int { return len(b.words) }

// Float32 returns the float32 view of the whole buffer.
func (b *AttributeBuffer) Float32() []float32 { return b.floats }

// Uint32 returns the uint32 view of the whole buffer.
func (b *AttributeBuffer) Uint32() []uint32 { return b.words }

// Bytes returns the first words words as bytes, ready for upload.
func (b *AttributeBuffer) Bytes(words int) []byte {
	return safeish.SliceCast[[]byte](b.words[:words])
}

// ensure grows the buffer to hold at least n words. Growth doubles the
// current capacity when that is larger than n. It reports whether the
// backing memory changed.
func (b *AttributeBuffer) ensure(n int) bool {
	if n <= len(b.words) {
		return false
	}
	b.resize(max(n, len(b.words)*2))
	return true
}

func (b *AttributeBuffer) resize(n int) {
	words := make([]uint32, n)
	copy(words, b.words)
	b.words = words
	b.floats = safeish.SliceCast[[]float32](words)
}

// IndexBuffer is growable index storage. It starts with 16-bit elements
// and promotes irreversibly to 32-bit elements once it has to address
// more than 65535.
type IndexBuffer struct {
	u16 []uint16
	u32 []uint32
}

// newIndexBuffer allocates n index slots rounded up to an even count, so a
// 16-bit upload can always be padded to a 4-byte boundary.
func newIndexBuffer(n int) *IndexBuffer {
	n += n % 2
	b := &IndexBuffer{}
	if n > maxUint16Index {
		b.u32 = make([]uint32, n)
	} else {
		b.u16 = make([]uint16, n)
	}
	return b
}

// Len returns the number of index slots.
func (b *IndexBuffer) Len() int {
	if b.u32 != nil {
		return len(b.u32)
	}
	return len(b.u16)
}

// Is32 reports whether the buffer holds 32-bit indices.
func (b *IndexBuffer) Is32() bool { return b.u32 != nil }

// Format returns the index format to bind the buffer with.
func (b *IndexBuffer) Format() gputypes.IndexFormat {
	if b.u32 != nil {
		return gputypes.IndexFormatUint32
	}
	return gputypes.IndexFormatUint16
}

// ElementSize returns the size of one index in bytes.
func (b *IndexBuffer) ElementSize() int {
	if b.u32 != nil {
		return 4
	}
	return 2
}

// Uint16 returns the 16-bit view, or nil after promotion.
func (b *IndexBuffer) Uint16() []uint16 { return b.u16 }

// Uint32 returns the 32-bit view, or nil before promotion.
func (b *IndexBuffer) Uint32() []uint32 { return b.u32 }

// At returns the index stored at i.
func (b *IndexBuffer) At(i int) uint32 {
	if b.u32 != nil {
		return b.u32[i]
	}
	return uint32(b.u16[i])
}

// Set stores v at i. Values above 65535 require a promoted buffer.
func (b *IndexBuffer) Set(i int, v uint32) {
	if b.u32 != nil {
		b.u32[i] = v
		return
	}
	b.u16[i] = uint16(v)
}

// Bytes returns the first n indices as bytes, ready for upload.
func (b *IndexBuffer) Bytes(n int) []byte {
	if b.u32 != nil {
		return safeish.SliceCast[[]byte](b.u32[:n])
	}
	return safeish.SliceCast[[]byte](b.u16[:n])
}

// ensure grows the buffer to hold at least n indices. Growth is 1.5x the
// current length rounded up to an even count. It reports whether the
// backing memory changed.
func (b *IndexBuffer) ensure(n int) bool {
	cur := b.Len()
	if n <= cur {
		return false
	}
	size := max(n, (cur*3+1)/2)
	size += size % 2

	if b.u32 != nil || size > maxUint16Index {
		u32 := make([]uint32, size)
		if b.u32 != nil {
			copy(u32, b.u32)
		} else {
			widen(u32, b.u16)
		}
		b.u16, b.u32 = nil, u32
		return true
	}

	u16 := make([]uint16, size)
	copy(u16, b.u16)
	b.u16 = u16
	return true
}

// promote switches to 32-bit storage without growing. It is used when the
// vertex count, rather than the index count, outgrows 16 bits.
func (b *IndexBuffer) promote() bool {
	if b.u32 != nil {
		return false
	}
	u32 := make([]uint32, len(b.u16))
	widen(u32, b.u16)
	b.u16, b.u32 = nil, u32
	return true
}

// widen copies src into dst value by value.
func widen[D, S constraints.Unsigned](dst []D, src []S) {
	for i, v := range src {
		dst[i] = D(v)
	}
}
