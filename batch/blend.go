// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package batch

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// BlendMode selects how a batch is composited onto the target.
// Colors are premultiplied.
type BlendMode uint8

const (
	// BlendNormal is source-over compositing.
	BlendNormal BlendMode = iota
	// BlendAdd adds source to destination.
	BlendAdd
	// BlendMultiply multiplies source and destination.
	BlendMultiply
	// BlendScreen is the inverse of multiplying the inverses.
	BlendScreen
	// BlendErase clears the destination where the source is opaque.
	BlendErase
	// BlendNone replaces the destination.
	BlendNone
)

// String returns the name of the blend mode.
func (m BlendMode) String() string {
	switch m {
	case BlendNormal:
		return "normal"
	case BlendAdd:
		return "add"
	case BlendMultiply:
		return "multiply"
	case BlendScreen:
		return "screen"
	case BlendErase:
		return "erase"
	case BlendNone:
		return "none"
	default:
		return fmt.Sprintf("BlendMode(%d)", uint8(m))
	}
}

// ParseBlendMode returns the blend mode with the given name.
func ParseBlendMode(name string) (BlendMode, bool) {
	for m := BlendNormal; m <= BlendNone; m++ {
		if m.String() == name {
			return m, true
		}
	}
	return BlendNormal, false
}

// State returns the fixed-function blend state for the mode.
func (m BlendMode) State() gputypes.BlendState {
	switch m {
	case BlendAdd:
		return blendState(gputypes.BlendFactorOne, gputypes.BlendFactorOne,
			gputypes.BlendFactorOne, gputypes.BlendFactorOne)
	case BlendMultiply:
		return blendState(gputypes.BlendFactorDst, gputypes.BlendFactorOneMinusSrcAlpha,
			gputypes.BlendFactorOne, gputypes.BlendFactorOneMinusSrcAlpha)
	case BlendScreen:
		return blendState(gputypes.BlendFactorOne, gputypes.BlendFactorOneMinusSrc,
			gputypes.BlendFactorOne, gputypes.BlendFactorOneMinusSrcAlpha)
	case BlendErase:
		return blendState(gputypes.BlendFactorZero, gputypes.BlendFactorOneMinusSrcAlpha,
			gputypes.BlendFactorZero, gputypes.BlendFactorOneMinusSrcAlpha)
	case BlendNone:
		return blendState(gputypes.BlendFactorOne, gputypes.BlendFactorZero,
			gputypes.BlendFactorOne, gputypes.BlendFactorZero)
	default:
		return gputypes.BlendStatePremultiplied()
	}
}

func blendState(colorSrc, colorDst, alphaSrc, alphaDst gputypes.BlendFactor) gputypes.BlendState {
	return gputypes.BlendState{
		Color: gputypes.BlendComponent{
			SrcFactor: colorSrc,
			DstFactor: colorDst,
			Operation: gputypes.BlendOperationAdd,
		},
		Alpha: gputypes.BlendComponent{
			SrcFactor: alphaSrc,
			DstFactor: alphaDst,
			Operation: gputypes.BlendOperationAdd,
		},
	}
}
