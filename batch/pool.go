// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package batch

import "github.com/eapache/queue"

// Pool is an explicit free list of *T.
//
// Unlike sync.Pool it never drops objects, so reuse is deterministic and
// observable in tests. Pool is NOT thread-safe.
type Pool[T any] struct {
	free    *queue.Queue
	newFn   func() *T
	created int
}

// NewPool creates a pool that allocates with newFn when empty.
func NewPool[T any](newFn func() *T) *Pool[T] {
	return &Pool[T]{
		free:  queue.New(),
		newFn: newFn,
	}
}

// Acquire returns a free object, allocating one if the pool is empty.
func (p *Pool[T]) Acquire() *T {
	if p.free.Length() > 0 {
		return p.free.Remove().(*T)
	}
	p.created++
	return p.newFn()
}

// Release returns v to the pool. v must not be used afterwards.
func (p *Pool[T]) Release(v *T) {
	if v == nil {
		return
	}
	p.free.Add(v)
}

// Len returns the number of free objects.
func (p *Pool[T]) Len() int { return p.free.Length() }

// Created returns the number of objects allocated by the pool.
func (p *Pool[T]) Created() int { return p.created }

// ArenaStats is a snapshot of an Arena's counters.
type ArenaStats struct {
	Tick           uint64
	FreeBatches    int
	FreeTables     int
	BatchesCreated int
	TablesCreated  int
}

// Arena owns the generation tick and the Batch and TextureSlotTable pools.
//
// Batchers that share textures must share an Arena: texture residency is
// recorded against the arena and its tick, and every completed batch
// advances the tick, so no batcher can mistake another batcher's open batch
// for its own.
type Arena struct {
	tick   uint64
	nextID uint64

	batches *Pool[Batch]
	tables  *Pool[TextureSlotTable]
}

// NewArena creates an arena whose slot tables are sized for maxTextures.
func NewArena(maxTextures int) *Arena {
	return &Arena{
		tick:    1,
		batches: NewPool(func() *Batch { return &Batch{} }),
		tables: NewPool(func() *TextureSlotTable {
			return NewTextureSlotTable(maxTextures)
		}),
	}
}

// Tick returns the current generation tick.
func (a *Arena) Tick() uint64 { return a.tick }

// Stats returns the current counters.
func (a *Arena) Stats() ArenaStats {
	return ArenaStats{
		Tick:           a.tick,
		FreeBatches:    a.batches.Len(),
		FreeTables:     a.tables.Len(),
		BatchesCreated: a.batches.Created(),
		TablesCreated:  a.tables.Created(),
	}
}

// advance closes the current tick window.
func (a *Arena) advance() { a.tick++ }

// acquireBatch returns an empty batch with an empty slot table.
func (a *Arena) acquireBatch() *Batch {
	b := a.batches.Acquire()
	if b.id == 0 {
		a.nextID++
		b.id = a.nextID
	}
	b.Textures = a.tables.Acquire()
	return b
}

// releaseBatch recycles b and its slot table. Outstanding handles to b stop
// resolving.
func (a *Arena) releaseBatch(b *Batch) {
	b.gen++
	if b.Textures != nil {
		b.Textures.reset()
		a.tables.Release(b.Textures)
	}
	b.Textures = nil
	b.Start, b.Size = 0, 0
	b.Blend = BlendNormal
	b.Technique = ""
	a.batches.Release(b)
}
