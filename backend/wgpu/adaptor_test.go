// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/ggbatch"
	"github.com/gogpu/ggbatch/batch"
)

// fakeBuffer is a test double for hal.Buffer.
type fakeBuffer struct {
	label string
	size  uint64
	usage gputypes.BufferUsage
}

func (b *fakeBuffer) Destroy() {}

func (b *fakeBuffer) NativeHandle() uintptr { return 0 }

// fakeGroup is a test double for hal.BindGroup.
type fakeGroup struct {
	textures []uint64
}

func (g *fakeGroup) Destroy() {}

type fakeDevice struct {
	created        []*fakeBuffer
	destroyed      []hal.Buffer
	groupsReleased []hal.BindGroup
	failCreate     bool
}

func (d *fakeDevice) CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error) {
	if d.failCreate {
		return nil, errors.New("out of memory")
	}
	b := &fakeBuffer{label: desc.Label, size: desc.Size, usage: desc.Usage}
	d.created = append(d.created, b)
	return b, nil
}

func (d *fakeDevice) DestroyBuffer(b hal.Buffer) { d.destroyed = append(d.destroyed, b) }

func (d *fakeDevice) DestroyBindGroup(g hal.BindGroup) {
	d.groupsReleased = append(d.groupsReleased, g)
}

type write struct {
	buffer hal.Buffer
	size   int
}

type fakeQueue struct {
	writes []write
}

func (q *fakeQueue) WriteBuffer(b hal.Buffer, _ uint64, data []byte) {
	q.writes = append(q.writes, write{buffer: b, size: len(data)})
}

type drawCall struct {
	count, first uint32
	group        hal.BindGroup
}

type fakePass struct {
	vertex hal.Buffer
	index  hal.Buffer
	format gputypes.IndexFormat
	group  hal.BindGroup
	draws  []drawCall
}

func (p *fakePass) SetBindGroup(_ uint32, g hal.BindGroup, _ []uint32) { p.group = g }
func (p *fakePass) SetVertexBuffer(_ uint32, b hal.Buffer, _ uint64)   { p.vertex = b }
func (p *fakePass) SetIndexBuffer(b hal.Buffer, f gputypes.IndexFormat, _ uint64) {
	p.index, p.format = b, f
}
func (p *fakePass) DrawIndexed(count, _, first uint32, _ int32, _ uint32) {
	p.draws = append(p.draws, drawCall{count: count, first: first, group: p.group})
}

type factoryCounter struct {
	calls int
	err   error
}

func (f *factoryCounter) make(textures []*batch.TextureSource) (hal.BindGroup, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.calls++
	g := &fakeGroup{}
	for _, t := range textures {
		g.textures = append(g.textures, t.ID())
	}
	return g, nil
}

func newTestAdaptor(t *testing.T, opts ...Option) (*Adaptor, *fakeDevice, *fakeQueue, *factoryCounter) {
	t.Helper()
	dev, q, f := &fakeDevice{}, &fakeQueue{}, &factoryCounter{}
	a, err := New(dev, q, f.make, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return a, dev, q, f
}

func frame(b *batch.Batcher, out *batch.InstructionSet, textures ...*batch.TextureSource) {
	out.Reset()
	b.Begin()
	for _, tex := range textures {
		b.Add(batch.NewQuadElement(tex, batch.Rect{MaxX: 1, MaxY: 1}))
	}
	b.Finish(out)
}

func TestNewValidation(t *testing.T) {
	f := &factoryCounter{}
	if _, err := New(nil, &fakeQueue{}, f.make); !errors.Is(err, ErrNilDevice) {
		t.Errorf("New(nil device) error = %v", err)
	}
	if _, err := New(&fakeDevice{}, nil, f.make); !errors.Is(err, ErrNilDevice) {
		t.Errorf("New(nil queue) error = %v", err)
	}
	if _, err := New(&fakeDevice{}, &fakeQueue{}, nil); !errors.Is(err, ErrNoFactory) {
		t.Errorf("New(nil factory) error = %v", err)
	}
}

func TestUploadAndDraw(t *testing.T) {
	a, dev, q, f := newTestAdaptor(t)
	b := batch.NewBatcher(batch.WithMaxTextures(2))
	var set batch.InstructionSet
	t0, t1, t2 := batch.NewTextureSource("t0"), batch.NewTextureSource("t1"), batch.NewTextureSource("t2")
	frame(b, &set, t0, t1, t2)

	var pass fakePass
	if err := a.Draw(&pass, &set); !errors.Is(err, ErrNotUploaded) {
		t.Fatalf("Draw before Upload error = %v, want ErrNotUploaded", err)
	}
	if err := a.Upload(b); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if len(dev.created) != 2 || len(q.writes) != 2 {
		t.Fatalf("created %d buffers, %d writes; want 2 and 2", len(dev.created), len(q.writes))
	}
	if got, want := q.writes[0].size, b.AttributeWords()*4; got != want {
		t.Errorf("vertex upload = %d bytes, want %d", got, want)
	}
	if got, want := q.writes[1].size, b.IndexSize()*2; got != want {
		t.Errorf("index upload = %d bytes, want %d", got, want)
	}
	if b.Dirty() {
		t.Error("Upload() did not clear the dirty flag")
	}

	if err := a.Draw(&pass, &set); err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	if pass.vertex != dev.created[0] || pass.index != dev.created[1] {
		t.Error("Draw() did not bind the uploaded buffers")
	}
	if pass.format != gputypes.IndexFormatUint16 {
		t.Errorf("index format = %v, want uint16", pass.format)
	}
	want := []drawCall{{count: 12, first: 0}, {count: 6, first: 12}}
	if len(pass.draws) != len(want) {
		t.Fatalf("draws = %+v, want %d", pass.draws, len(want))
	}
	for i, d := range pass.draws {
		if d.count != want[i].count || d.first != want[i].first {
			t.Errorf("draw %d = (%d, %d), want (%d, %d)", i, d.count, d.first, want[i].count, want[i].first)
		}
	}
	if pass.draws[0].group == pass.draws[1].group {
		t.Error("batches with different texture sets share a bind group")
	}
	if f.calls != 2 {
		t.Errorf("factory calls = %d, want 2", f.calls)
	}
	if got := pass.draws[0].group.(*fakeGroup).textures; len(got) != 2 || got[0] != t0.ID() || got[1] != t1.ID() {
		t.Errorf("first group textures = %v, want [t0 t1]", got)
	}
	if s := a.Stats(); s.DrawCalls != 2 || s.Uploads != 1 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestUploadSkipsCleanBatcher(t *testing.T) {
	a, _, q, _ := newTestAdaptor(t)
	b := batch.NewBatcher()
	var set batch.InstructionSet
	frame(b, &set, batch.NewTextureSource("t"))

	for range 3 {
		if err := a.Upload(b); err != nil {
			t.Fatal(err)
		}
	}
	if len(q.writes) != 2 {
		t.Errorf("writes = %d, want 2 (one upload)", len(q.writes))
	}
}

func TestUploadPadsOddIndexCount(t *testing.T) {
	a, _, q, _ := newTestAdaptor(t)
	b := batch.NewBatcher()
	var set batch.InstructionSet
	b.Begin()
	b.Add(&batch.Element{
		Texture:   batch.NewTextureSource("mesh"),
		Transform: ggbatch.Identity(),
		Positions: []float32{0, 0, 1, 0, 0, 1},
		Indices:   []uint32{0, 1, 2},
	})
	b.Finish(&set)

	if err := a.Upload(b); err != nil {
		t.Fatal(err)
	}
	if got := q.writes[1].size; got != 8 {
		t.Errorf("index upload = %d bytes, want 8 (3 indices padded)", got)
	}
}

func TestUploadOddInitialIndexLength(t *testing.T) {
	a, _, q, _ := newTestAdaptor(t)
	b := batch.NewBatcher(batch.WithInitialSize(0, 3))
	var set batch.InstructionSet
	b.Begin()
	b.Add(&batch.Element{
		Texture:   batch.NewTextureSource("mesh"),
		Transform: ggbatch.Identity(),
		Positions: []float32{0, 0, 1, 0, 0, 1},
		Indices:   []uint32{0, 1, 2},
	})
	b.Finish(&set)

	if err := a.Upload(b); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if got := q.writes[1].size; got%4 != 0 || got < 6 {
		t.Errorf("index upload = %d bytes, want a 4-byte multiple >= 6", got)
	}
}

func TestUploadGrowsByDoubling(t *testing.T) {
	a, dev, _, _ := newTestAdaptor(t)
	b := batch.NewBatcher()
	var set batch.InstructionSet
	tex := batch.NewTextureSource("t")

	frame(b, &set, tex)
	if err := a.Upload(b); err != nil {
		t.Fatal(err)
	}
	first := dev.created[0].size

	frame(b, &set, tex, tex, tex)
	if err := a.Upload(b); err != nil {
		t.Fatal(err)
	}
	if len(dev.created) != 4 || len(dev.destroyed) != 2 {
		t.Fatalf("created %d, destroyed %d; want 4 and 2", len(dev.created), len(dev.destroyed))
	}
	need := uint64(b.AttributeWords() * 4)
	if got := dev.created[2].size; got != max(need, 2*first) {
		t.Errorf("vertex buffer size = %d, want %d", got, max(need, 2*first))
	}
	if a.Stats().BufferGrowth != 2 {
		t.Errorf("BufferGrowth = %d, want 2", a.Stats().BufferGrowth)
	}
	if dev.created[2].usage&gputypes.BufferUsageVertex == 0 || dev.created[3].usage&gputypes.BufferUsageIndex == 0 {
		t.Error("buffers created with wrong usage")
	}
}

func TestUploadUint32Indices(t *testing.T) {
	a, _, _, _ := newTestAdaptor(t)
	b := batch.NewBatcher()
	var set batch.InstructionSet
	tex := batch.NewTextureSource("t")
	elems := make([]*batch.TextureSource, 20000)
	for i := range elems {
		elems[i] = tex
	}
	frame(b, &set, elems...)
	if !b.Indices().Is32() {
		t.Fatal("batcher did not promote to 32-bit indices")
	}
	if err := a.Upload(b); err != nil {
		t.Fatal(err)
	}
	var pass fakePass
	if err := a.Draw(&pass, &set); err != nil {
		t.Fatal(err)
	}
	if pass.format != gputypes.IndexFormatUint32 || a.IndexFormat() != gputypes.IndexFormatUint32 {
		t.Errorf("index format = %v, want uint32", pass.format)
	}
}

func TestUploadCreateError(t *testing.T) {
	a, dev, _, _ := newTestAdaptor(t)
	dev.failCreate = true
	b := batch.NewBatcher()
	var set batch.InstructionSet
	frame(b, &set, batch.NewTextureSource("t"))
	if err := a.Upload(b); err == nil {
		t.Fatal("Upload() succeeded with failing device")
	}
	if !b.Dirty() {
		t.Error("failed Upload() cleared the dirty flag")
	}
}

func TestBindGroupSideTable(t *testing.T) {
	a, _, _, f := newTestAdaptor(t)
	b := batch.NewBatcher()
	var set batch.InstructionSet
	t0, t1 := batch.NewTextureSource("t0"), batch.NewTextureSource("t1")

	var pass fakePass
	for range 3 {
		frame(b, &set, t0)
		if err := a.Upload(b); err != nil {
			t.Fatal(err)
		}
		if err := a.Draw(&pass, &set); err != nil {
			t.Fatal(err)
		}
	}
	if f.calls != 1 {
		t.Errorf("factory calls = %d, want 1 for a stable texture set", f.calls)
	}

	// The recycled batch now binds a different texture set.
	frame(b, &set, t1)
	if err := a.Upload(b); err != nil {
		t.Fatal(err)
	}
	if err := a.Draw(&pass, &set); err != nil {
		t.Fatal(err)
	}
	if f.calls != 2 {
		t.Errorf("factory calls = %d, want 2 after texture change", f.calls)
	}
	got := pass.draws[len(pass.draws)-1].group.(*fakeGroup).textures
	if len(got) != 1 || got[0] != t1.ID() {
		t.Errorf("bound textures = %v, want [t1]", got)
	}
}

func TestBindGroupEviction(t *testing.T) {
	a, dev, _, f := newTestAdaptor(t, WithBindGroupCacheSize(1))
	b := batch.NewBatcher()
	var set batch.InstructionSet
	t0, t1 := batch.NewTextureSource("t0"), batch.NewTextureSource("t1")

	var pass fakePass
	for _, tex := range []*batch.TextureSource{t0, t1, t0} {
		frame(b, &set, tex)
		if err := a.Upload(b); err != nil {
			t.Fatal(err)
		}
		if err := a.Draw(&pass, &set); err != nil {
			t.Fatal(err)
		}
	}
	if f.calls != 3 {
		t.Errorf("factory calls = %d, want 3 with a one-entry cache", f.calls)
	}
	// The group evicted by the last Draw waits for the next frame.
	if len(dev.groupsReleased) != 1 || a.Stats().RetiredBindGroups != 1 {
		t.Errorf("released %d bind groups with %d retired, want 1 and 1",
			len(dev.groupsReleased), a.Stats().RetiredBindGroups)
	}
	if err := a.Upload(b); err != nil {
		t.Fatal(err)
	}
	if len(dev.groupsReleased) != 2 || a.Stats().RetiredBindGroups != 0 {
		t.Errorf("after next Upload released %d bind groups with %d retired, want 2 and 0",
			len(dev.groupsReleased), a.Stats().RetiredBindGroups)
	}
}

func TestBindGroupEvictedWithinDrawStaysAlive(t *testing.T) {
	a, dev, _, f := newTestAdaptor(t, WithBindGroupCacheSize(1))
	b := batch.NewBatcher(batch.WithMaxTextures(1))
	var set batch.InstructionSet
	frame(b, &set, batch.NewTextureSource("t0"), batch.NewTextureSource("t1"))
	if err := a.Upload(b); err != nil {
		t.Fatal(err)
	}

	var pass fakePass
	if err := a.Draw(&pass, &set); err != nil {
		t.Fatal(err)
	}
	if len(pass.draws) != 2 || f.calls != 2 {
		t.Fatalf("draws = %d, factory calls = %d; want 2 and 2", len(pass.draws), f.calls)
	}
	for i, d := range pass.draws {
		for _, g := range dev.groupsReleased {
			if g == d.group {
				t.Errorf("bind group of draw %d destroyed while the pass is recording", i)
			}
		}
	}

	// Next frame: the group evicted during the previous Draw is released.
	frame(b, &set, batch.NewTextureSource("t2"))
	if err := a.Upload(b); err != nil {
		t.Fatal(err)
	}
	if len(dev.groupsReleased) != 1 || dev.groupsReleased[0] != pass.draws[0].group {
		t.Errorf("released = %v, want the first draw's group", dev.groupsReleased)
	}
}

func TestBindGroupFactoryError(t *testing.T) {
	a, _, _, f := newTestAdaptor(t)
	f.err = errors.New("no layout")
	b := batch.NewBatcher()
	var set batch.InstructionSet
	frame(b, &set, batch.NewTextureSource("t"))
	if err := a.Upload(b); err != nil {
		t.Fatal(err)
	}
	if err := a.Draw(&fakePass{}, &set); !errors.Is(err, f.err) {
		t.Errorf("Draw() error = %v, want wrapped factory error", err)
	}
}

func TestDrawBatchAndSkipsForeignInstructions(t *testing.T) {
	a, _, _, _ := newTestAdaptor(t)
	b := batch.NewBatcher()
	var set batch.InstructionSet
	frame(b, &set, batch.NewTextureSource("t"))
	set.Add(marker{})
	if err := a.Upload(b); err != nil {
		t.Fatal(err)
	}
	var pass fakePass
	if err := a.Draw(&pass, &set); err != nil {
		t.Fatal(err)
	}
	if len(pass.draws) != 1 {
		t.Errorf("draws = %d, want 1", len(pass.draws))
	}
	if err := a.DrawBatch(&pass, set.Batches()[0]); err != nil {
		t.Fatal(err)
	}
	if len(pass.draws) != 2 {
		t.Errorf("draws after DrawBatch = %d, want 2", len(pass.draws))
	}
}

func TestDestroy(t *testing.T) {
	a, dev, _, _ := newTestAdaptor(t)
	b := batch.NewBatcher()
	var set batch.InstructionSet
	frame(b, &set, batch.NewTextureSource("t"))
	if err := a.Upload(b); err != nil {
		t.Fatal(err)
	}
	if err := a.Draw(&fakePass{}, &set); err != nil {
		t.Fatal(err)
	}

	a.Destroy()
	a.Destroy()
	if len(dev.destroyed) != 2 || len(dev.groupsReleased) != 1 {
		t.Errorf("destroyed %d buffers and %d groups, want 2 and 1", len(dev.destroyed), len(dev.groupsReleased))
	}
	if err := a.Upload(b); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Upload after Destroy error = %v", err)
	}
	if err := a.Draw(&fakePass{}, &set); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Draw after Destroy error = %v", err)
	}
}

func TestSignature(t *testing.T) {
	t0, t1 := batch.NewTextureSource("a"), batch.NewTextureSource("b")
	if signature(nil) != "" {
		t.Error("empty signature is not empty")
	}
	want := fmt.Sprintf("%d,%d", t0.ID(), t1.ID())
	if got := signature([]*batch.TextureSource{t0, t1}); got != want {
		t.Errorf("signature() = %q, want %q", got, want)
	}
	if signature([]*batch.TextureSource{t0, t1}) == signature([]*batch.TextureSource{t1, t0}) {
		t.Error("signature ignores slot order")
	}
}

// halProvider exposes a noop HAL device through gpucontext.
type halProvider struct {
	device hal.Device
	queue  hal.Queue
}

func (p *halProvider) Device() gpucontext.Device             { return nil }
func (p *halProvider) Queue() gpucontext.Queue               { return nil }
func (p *halProvider) Adapter() gpucontext.Adapter           { return nil }
func (p *halProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatBGRA8Unorm }
func (p *halProvider) HalDevice() any                        { return p.device }
func (p *halProvider) HalQueue() any                         { return p.queue }
func (p *halProvider) AdapterInfo() gpucontext.AdapterInfo   { return gpucontext.AdapterInfo{} }

type plainProvider struct{ halProvider }

func (plainProvider) HalDevice() {}

func TestNewFromProviderNoop(t *testing.T) {
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	defer instance.Destroy()
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer openDev.Device.Destroy()

	f := &factoryCounter{}
	a, err := NewFromProvider(&halProvider{device: openDev.Device, queue: openDev.Queue}, f.make)
	if err != nil {
		t.Fatalf("NewFromProvider() error = %v", err)
	}
	defer a.Destroy()

	b := batch.NewBatcher()
	var set batch.InstructionSet
	frame(b, &set, batch.NewTextureSource("t"))
	if err := a.Upload(b); err != nil {
		t.Fatalf("Upload() on noop device error = %v", err)
	}
}

func TestNewFromProviderWithoutHAL(t *testing.T) {
	f := &factoryCounter{}
	if _, err := NewFromProvider(&plainProvider{}, f.make); !errors.Is(err, ErrNoHAL) {
		t.Errorf("NewFromProvider() error = %v, want ErrNoHAL", err)
	}
	if _, err := NewFromProvider(&halProvider{}, f.make); !errors.Is(err, ErrNoHAL) {
		t.Errorf("NewFromProvider(nil device) error = %v, want ErrNoHAL", err)
	}
}

type marker struct{}

func (marker) InstructionType() string { return "marker" }
