// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package batch coalesces independent drawable elements that share
// compatible GPU state into the minimum number of indexed draw calls.
//
// # Frame Lifecycle
//
//	b.Begin()          // recycles last frame's batches
//	b.Add(e) ...       // stamps offsets, no packing yet
//	b.Break(&set)      // optional, closes the current run of elements
//	b.Finish(&set)     // packs the remaining elements
//
// Each emitted [Batch] covers a contiguous index range of the shared
// [IndexBuffer] and carries a [TextureSlotTable] mapping textures to the
// sampler slots written into the vertex data. A backend adaptor binds the
// buffers once and issues one DrawIndexed(Size, 1, Start) per Batch.
//
// # Ownership
//
// Batches and slot tables are drawn from an [Arena] and stay valid until
// the next Begin of the Batcher that emitted them. Code that keeps a batch
// beyond that point must hold a [BatchHandle], whose Get fails after the
// batch has been recycled.
//
// # Draw Order
//
// Elements are packed and batches are emitted strictly in insertion order.
// A batch boundary is introduced when the slot table is full or the blend
// mode or technique changes, so merging never reorders visible output.
//
// # Thread Safety
//
// A Batcher and its Arena are NOT thread-safe. Use them from the render
// goroutine only.
package batch
