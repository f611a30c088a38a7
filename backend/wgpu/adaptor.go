// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/ggbatch"
	"github.com/gogpu/ggbatch/batch"
	"github.com/gogpu/ggbatch/internal/cache"
)

// DefaultBindGroupCacheSize is the number of distinct texture sets whose
// bind groups are kept alive.
const DefaultBindGroupCacheSize = 64

// Errors returned by the adaptor.
var (
	ErrNilDevice   = errors.New("wgpu: nil device or queue")
	ErrNoFactory   = errors.New("wgpu: nil bind group factory")
	ErrDestroyed   = errors.New("wgpu: adaptor destroyed")
	ErrNotUploaded = errors.New("wgpu: draw before upload")
	ErrNoHAL       = errors.New("wgpu: provider does not expose HAL types")
)

// Device is the subset of hal.Device the adaptor uses.
type Device interface {
	CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error)
	DestroyBuffer(buffer hal.Buffer)
	DestroyBindGroup(group hal.BindGroup)
}

// Queue uploads buffer data.
type Queue interface {
	WriteBuffer(buffer hal.Buffer, offset uint64, data []byte)
}

// PassEncoder is the subset of hal.RenderPassEncoder used by Draw.
type PassEncoder interface {
	SetBindGroup(index uint32, group hal.BindGroup, offsets []uint32)
	SetVertexBuffer(slot uint32, buffer hal.Buffer, offset uint64)
	SetIndexBuffer(buffer hal.Buffer, format gputypes.IndexFormat, offset uint64)
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32)
}

// BindGroupFactory creates the bind group for a batch's texture set.
// textures[i] is bound to sampler slot i. The adaptor destroys the group
// when it is evicted.
type BindGroupFactory func(textures []*batch.TextureSource) (hal.BindGroup, error)

// Option configures an Adaptor.
type Option func(*Adaptor)

// WithBindGroupCacheSize sets how many texture sets keep their bind group.
func WithBindGroupCacheSize(n int) Option {
	return func(a *Adaptor) { a.cacheSize = max(n, 1) }
}

// WithTextureGroup sets the bind group index the textures are bound at.
// The default is 1; group 0 is left to the host's uniforms.
func WithTextureGroup(index uint32) Option {
	return func(a *Adaptor) { a.textureGroup = index }
}

// Stats reports adaptor activity since creation.
type Stats struct {
	Uploads      int
	BufferGrowth int
	DrawCalls    int
	BindGroups   cache.Stats

	// RetiredBindGroups is the number of evicted groups waiting for the
	// next frame boundary to be destroyed.
	RetiredBindGroups int
}

// Adaptor draws batch output on a HAL device.
//
// Adaptor is safe for concurrent use, but Upload and Draw for one frame
// must not interleave with another frame's.
type Adaptor struct {
	mu sync.Mutex

	device  Device
	queue   Queue
	factory BindGroupFactory

	cacheSize    int
	textureGroup uint32

	vertex gpuBuffer
	index  gpuBuffer
	format gputypes.IndexFormat

	// groups is the per-batch side table, keyed by batch.Batch.ID.
	groups map[uint64]boundGroup
	shared *cache.Cache[string, hal.BindGroup]

	// retired holds bind groups evicted from shared. A pass recorded by
	// Draw may still reference them, so they are destroyed at the next
	// frame boundary (Upload) or at Destroy.
	retired []hal.BindGroup

	stats     Stats
	destroyed bool
}

type boundGroup struct {
	signature string
	group     hal.BindGroup
}

type gpuBuffer struct {
	label string
	usage gputypes.BufferUsage
	buf   hal.Buffer
	size  uint64
}

// New creates an adaptor on device and queue.
func New(device Device, queue Queue, factory BindGroupFactory, opts ...Option) (*Adaptor, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	if factory == nil {
		return nil, ErrNoFactory
	}
	a := &Adaptor{
		device:       device,
		queue:        queue,
		factory:      factory,
		cacheSize:    DefaultBindGroupCacheSize,
		textureGroup: 1,
		vertex: gpuBuffer{
			label: "ggbatch-vertices",
			usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
		},
		index: gpuBuffer{
			label: "ggbatch-indices",
			usage: gputypes.BufferUsageIndex | gputypes.BufferUsageCopyDst,
		},
		format: gputypes.IndexFormatUint16,
		groups: make(map[uint64]boundGroup),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.shared = cache.New[string, hal.BindGroup](a.cacheSize)
	a.shared.OnEvict(a.evictGroup)
	ggbatch.Logger().Info("wgpu: adaptor created",
		"bindGroupCache", a.cacheSize, "textureGroup", a.textureGroup)
	return a, nil
}

// NewFromProvider creates an adaptor on the HAL device of a gpucontext
// provider, such as a gogpu window. The provider must implement
// HalDevice() any and HalQueue() any returning hal.Device and hal.Queue.
func NewFromProvider(provider gpucontext.DeviceProvider, factory BindGroupFactory, opts ...Option) (*Adaptor, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHAL)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHAL)
	}
	return New(device, HALQueue(queue), factory, opts...)
}

// HALQueue adapts a hal.Queue to Queue.
func HALQueue(q hal.Queue) Queue {
	return halQueue{q}
}

type halQueue struct {
	q hal.Queue
}

func (h halQueue) WriteBuffer(buffer hal.Buffer, offset uint64, data []byte) {
	h.q.WriteBuffer(buffer, offset, data)
}

// Upload copies the batcher's used vertex and index ranges to the GPU.
// Nothing is written when the batcher is not dirty and the GPU buffers
// already exist.
//
// Upload starts a frame: bind groups evicted while recording the previous
// frame are destroyed here, so the previous pass must have been submitted.
func (a *Adaptor) Upload(b *batch.Batcher) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.destroyed {
		return ErrDestroyed
	}
	a.releaseRetired()
	if !b.Dirty() && a.vertex.buf != nil && a.index.buf != nil {
		return nil
	}

	vertices := b.Attributes().Bytes(b.AttributeWords())
	indices := b.Indices()
	n := b.IndexSize()
	// Writes must be 4-byte aligned. Index storage is allocated and grown
	// to even lengths, so the padding slot exists.
	if !indices.Is32() && n%2 == 1 && n < indices.Len() {
		n++
	}
	indexBytes := indices.Bytes(n)

	if err := a.write(&a.vertex, vertices); err != nil {
		return err
	}
	if err := a.write(&a.index, indexBytes); err != nil {
		return err
	}
	a.format = indices.Format()
	a.stats.Uploads++
	b.ClearDirty()
	return nil
}

// write grows dst to hold data and uploads it. Caller must hold a.mu.
func (a *Adaptor) write(dst *gpuBuffer, data []byte) error {
	need := max(uint64(len(data)), 4)
	if dst.buf == nil || dst.size < need {
		size := max(need, dst.size*2)
		buf, err := a.device.CreateBuffer(&hal.BufferDescriptor{
			Label: dst.label,
			Size:  size,
			Usage: dst.usage,
		})
		if err != nil {
			return fmt.Errorf("wgpu: create %s (%d bytes): %w", dst.label, size, err)
		}
		if dst.buf != nil {
			a.device.DestroyBuffer(dst.buf)
			a.stats.BufferGrowth++
		}
		ggbatch.Logger().Debug("wgpu: buffer resized",
			"label", dst.label, "old", dst.size, "new", size)
		dst.buf, dst.size = buf, size
	}
	if len(data) > 0 {
		a.queue.WriteBuffer(dst.buf, 0, data)
	}
	return nil
}

// Draw records one DrawIndexed per batch of set, in order. Instructions
// that are not batches are skipped; the host draws those itself.
// The host must have set a pipeline matching every batch's technique and
// blend mode.
func (a *Adaptor) Draw(pass PassEncoder, set *batch.InstructionSet) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.bindBuffers(pass); err != nil {
		return err
	}
	for _, bt := range set.Batches() {
		if err := a.drawBatch(pass, bt); err != nil {
			return err
		}
	}
	return nil
}

// DrawBatch binds the buffers and records a single batch. Hosts that
// switch pipelines per technique or blend mode walk the InstructionSet
// themselves and call DrawBatch for each batch.
func (a *Adaptor) DrawBatch(pass PassEncoder, bt *batch.Batch) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.bindBuffers(pass); err != nil {
		return err
	}
	return a.drawBatch(pass, bt)
}

// bindBuffers binds the vertex and index buffers. Caller must hold a.mu.
func (a *Adaptor) bindBuffers(pass PassEncoder) error {
	if a.destroyed {
		return ErrDestroyed
	}
	if a.vertex.buf == nil || a.index.buf == nil {
		return ErrNotUploaded
	}
	pass.SetVertexBuffer(0, a.vertex.buf, 0)
	pass.SetIndexBuffer(a.index.buf, a.format, 0)
	return nil
}

// drawBatch records bt. Caller must hold a.mu.
func (a *Adaptor) drawBatch(pass PassEncoder, bt *batch.Batch) error {
	group, err := a.bindGroup(bt)
	if err != nil {
		return err
	}
	pass.SetBindGroup(a.textureGroup, group, nil)
	pass.DrawIndexed(uint32(bt.Size), 1, uint32(bt.Start), 0, 0)
	a.stats.DrawCalls++
	return nil
}

// bindGroup resolves the bind group for bt through the side table, then
// the shared cache. Caller must hold a.mu.
func (a *Adaptor) bindGroup(bt *batch.Batch) (hal.BindGroup, error) {
	var textures []*batch.TextureSource
	if bt.Textures != nil {
		textures = bt.Textures.Textures()
	}
	sig := signature(textures)
	if g, ok := a.groups[bt.ID()]; ok && g.signature == sig {
		return g.group, nil
	}
	group, err := a.shared.GetOrCreate(sig, func() (hal.BindGroup, error) {
		return a.factory(textures)
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: bind group for %s: %w", bt, err)
	}
	a.groups[bt.ID()] = boundGroup{signature: sig, group: group}
	return group, nil
}

// evictGroup forgets every batch that referenced a bind group leaving the
// shared cache and retires the group. Runs with a.mu held.
func (a *Adaptor) evictGroup(sig string, group hal.BindGroup) {
	for id, g := range a.groups {
		if g.signature == sig {
			delete(a.groups, id)
		}
	}
	a.retired = append(a.retired, group)
}

// releaseRetired destroys the retired bind groups. Caller must hold a.mu.
func (a *Adaptor) releaseRetired() {
	for i, g := range a.retired {
		a.device.DestroyBindGroup(g)
		a.retired[i] = nil
	}
	a.retired = a.retired[:0]
}

// signature identifies a texture set by its ordered texture IDs.
func signature(textures []*batch.TextureSource) string {
	buf := make([]byte, 0, len(textures)*4)
	for i, t := range textures {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendUint(buf, t.ID(), 10)
	}
	return string(buf)
}

// Stats returns adaptor statistics.
func (a *Adaptor) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := a.stats
	s.BindGroups = a.shared.Stats()
	s.RetiredBindGroups = len(a.retired)
	return s
}

// IndexFormat returns the index format of the last upload.
func (a *Adaptor) IndexFormat() gputypes.IndexFormat {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.format
}

// Destroy releases the GPU buffers and every bind group. Destroy is
// idempotent.
func (a *Adaptor) Destroy() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.destroyed {
		return
	}
	a.shared.Clear()
	a.releaseRetired()
	for _, b := range []*gpuBuffer{&a.vertex, &a.index} {
		if b.buf != nil {
			a.device.DestroyBuffer(b.buf)
			b.buf, b.size = nil, 0
		}
	}
	a.groups = nil
	a.destroyed = true
	ggbatch.Logger().Info("wgpu: adaptor destroyed",
		"uploads", a.stats.Uploads, "drawCalls", a.stats.DrawCalls)
}
