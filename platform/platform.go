// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package platform derives the per-batch texture budget for a device.
//
// The budget is the device's sampled texture limit intersected with the
// number of texture branches the shader toolchain accepts in a single
// fragment shader. It is computed once and passed to batch.WithMaxTextures.
package platform

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/ggbatch"
)

// MaxTextureCap bounds the budget regardless of what the device reports.
const MaxTextureCap = 32

// ErrNoTextureUnits is returned when no texture count is usable.
var ErrNoTextureUnits = errors.New("platform: no usable texture units")

// Probe reports whether a fragment shader selecting between n textures
// can be built.
type Probe interface {
	Accepts(n int) (bool, error)
}

// MaxTexturesPerBatch returns the texture budget for limits.
// A nil probe accepts every count.
func MaxTexturesPerBatch(limits gputypes.Limits, probe Probe) (int, error) {
	return MaxTextures(int(limits.MaxSampledTexturesPerShaderStage), probe)
}

// MaxTextures is MaxTexturesPerBatch for a raw texture-unit count.
//
// The probe is assumed monotonic: if it accepts n textures it accepts
// every smaller count. The largest accepted count is found by bisection.
func MaxTextures(units int, probe Probe) (int, error) {
	n := min(units, MaxTextureCap)
	if n <= 0 {
		return 0, fmt.Errorf("%w: device reports %d", ErrNoTextureUnits, units)
	}
	if probe == nil {
		return n, nil
	}
	ok, err := accepts(probe, n)
	if err != nil {
		return 0, err
	}
	if !ok {
		ggbatch.Logger().Warn("platform: probe rejected device limit", "textures", n)
		// lo is accepted (0 stands for none), hi is rejected.
		lo, hi := 0, n
		for hi-lo > 1 {
			mid := lo + (hi-lo)/2
			ok, err := accepts(probe, mid)
			if err != nil {
				return 0, err
			}
			if ok {
				lo = mid
			} else {
				hi = mid
			}
		}
		if lo == 0 {
			return 0, ErrNoTextureUnits
		}
		n = lo
	}
	ggbatch.Logger().Info("platform: texture budget", "units", units, "max", n)
	return n, nil
}

func accepts(probe Probe, n int) (bool, error) {
	ok, err := probe.Accepts(n)
	if err != nil {
		return false, fmt.Errorf("platform: probe %d textures: %w", n, err)
	}
	return ok, nil
}

// StaticProbe accepts every count up to its value.
type StaticProbe int

// Accepts implements Probe.
func (p StaticProbe) Accepts(n int) (bool, error) {
	return n <= int(p), nil
}
