// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package batch

// DefaultMaxTextures is the slot table size used when no platform limit
// is supplied.
const DefaultMaxTextures = 16

// Option configures a Batcher during creation.
//
// Example:
//
//	b := batch.NewBatcher(
//	    batch.WithMaxTextures(limit),
//	    batch.WithPacker(batch.LayeredPacker{}),
//	)
type Option func(*options)

type options struct {
	maxTextures    int
	packer         AttributePacker
	attributeWords int
	indexCount     int
	arena          *Arena
}

func defaultOptions() options {
	return options{
		maxTextures: DefaultMaxTextures,
		packer:      DefaultPacker{},
	}
}

// WithMaxTextures sets the number of texture slots per batch, normally
// obtained from platform.MaxTexturesPerBatch. Values below 1 are raised
// to 1.
func WithMaxTextures(n int) Option {
	return func(o *options) {
		o.maxTextures = max(n, 1)
	}
}

// WithPacker sets the vertex layout strategy.
func WithPacker(p AttributePacker) Option {
	return func(o *options) {
		if p != nil {
			o.packer = p
		}
	}
}

// WithInitialSize sets the initial attribute capacity in words and the
// initial index buffer length. Zero keeps the default of one quad.
func WithInitialSize(attributeWords, indexCount int) Option {
	return func(o *options) {
		o.attributeWords = attributeWords
		o.indexCount = indexCount
	}
}

// WithArena shares an Arena between Batchers that draw the same textures.
func WithArena(a *Arena) Option {
	return func(o *options) {
		o.arena = a
	}
}
