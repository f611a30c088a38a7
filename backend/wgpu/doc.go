// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package wgpu uploads batcher output to a gogpu/wgpu HAL device and
// records the draw calls.
//
// The adaptor owns one vertex buffer and one index buffer. Upload copies
// the used range of a batch.Batcher's CPU buffers into them, growing the
// GPU buffers by doubling. Draw binds both buffers once and issues one
// DrawIndexed per batch.Batch:
//
//	a, err := wgpu.NewFromProvider(provider, makeBindGroup)
//	...
//	batcher.Begin()
//	for _, s := range sprites {
//		batcher.Add(s.Element())
//	}
//	batcher.Finish(&set)
//	if err := a.Upload(batcher); err != nil {
//		return err
//	}
//	err = a.Draw(pass, &set)
//
// Texture bind groups are created by the host through a BindGroupFactory.
// The adaptor remembers the group for each batch by batch ID and shares
// groups between batches that bind the same texture set.
package wgpu
