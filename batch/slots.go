// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package batch

// TextureSlotTable maps the textures of one Batch to sampler slots.
// Slots are assigned densely in first-use order starting at zero.
type TextureSlotTable struct {
	textures []*TextureSource
	slots    map[*TextureSource]int
}

// NewTextureSlotTable creates an empty table sized for maxTextures.
func NewTextureSlotTable(maxTextures int) *TextureSlotTable {
	return &TextureSlotTable{
		textures: make([]*TextureSource, 0, maxTextures),
		slots:    make(map[*TextureSource]int, maxTextures),
	}
}

// Count returns the number of occupied slots.
func (t *TextureSlotTable) Count() int { return len(t.textures) }

// Textures returns the textures in slot order. The slice is owned by the
// table and is only valid until the owning Batch is recycled.
func (t *TextureSlotTable) Textures() []*TextureSource { return t.textures }

// Slot returns the slot assigned to tex.
func (t *TextureSlotTable) Slot(tex *TextureSource) (int, bool) {
	slot, ok := t.slots[tex]
	return slot, ok
}

// Contains reports whether tex occupies a slot.
func (t *TextureSlotTable) Contains(tex *TextureSource) bool {
	_, ok := t.slots[tex]
	return ok
}

// add appends tex and returns its slot. The caller guarantees tex is not
// present and the table is not full.
func (t *TextureSlotTable) add(tex *TextureSource) int {
	slot := len(t.textures)
	t.textures = append(t.textures, tex)
	t.slots[tex] = slot
	return slot
}

// reset empties the table, keeping its storage.
func (t *TextureSlotTable) reset() {
	clear(t.textures)
	t.textures = t.textures[:0]
	clear(t.slots)
}
