// Package ggbatch is the batching engine of a 2D GPU scene renderer.
//
// # Overview
//
// Drawables (sprites, meshes) describe themselves as element snapshots. The
// engine coalesces elements that share compatible GPU state into the
// minimum number of indexed draw calls, packing their interleaved vertex
// data into shared growable buffers.
//
//	b := batch.NewBatcher(batch.WithMaxTextures(16))
//	var out batch.InstructionSet
//
//	b.Begin()
//	for _, s := range sprites {
//	    b.Add(s.Element())
//	}
//	b.Finish(&out)
//
//	// hand out to a backend adaptor, e.g. backend/wgpu
//	adaptor.Upload(b)
//	adaptor.Draw(pass, &out)
//
// # Architecture
//
// The module is organized into:
//   - Root: Matrix, Point, RGBA and the shared logger
//   - batch: buffers, texture slot tables, pools, packers, the Batcher
//   - drawable: Sprite and Mesh drawables producing elements
//   - platform: derivation of the per-batch texture limit
//   - backend/wgpu: adaptor issuing one DrawIndexed per Batch
//   - config: YAML/TOML configuration of a Batcher
//
// # Coordinate System
//
// Uses standard computer graphics coordinates:
//   - Origin (0,0) at top-left
//   - X increases right
//   - Y increases down
//
// # Thread Safety
//
// A Batcher is used from a single render goroutine. Only SetLogger and
// Logger are safe for concurrent use.
package ggbatch

// Version is the current version of the library.
const Version = "0.3.0"
