// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package platform

import (
	"fmt"
	"strings"

	"github.com/gogpu/naga"
)

// NagaProbe compiles a sampler-select shader with naga. Any compile
// failure is treated as a rejection of that texture count.
type NagaProbe struct {
	// Compile defaults to naga.Compile.
	Compile func(source string) ([]byte, error)
}

// Accepts implements Probe.
func (p NagaProbe) Accepts(n int) (bool, error) {
	if n <= 0 {
		return false, nil
	}
	compile := p.Compile
	if compile == nil {
		compile = naga.Compile
	}
	if _, err := compile(SelectShader(n)); err != nil {
		return false, nil //nolint:nilerr // a compile failure is the answer
	}
	return true, nil
}

// SelectShader returns a WGSL fragment shader that samples one of n
// textures chosen by the vertex texture slot.
func SelectShader(n int) string {
	var sb strings.Builder
	sb.WriteString("@group(0) @binding(0) var samp: sampler;\n")
	for i := range n {
		fmt.Fprintf(&sb, "@group(0) @binding(%d) var tex%d: texture_2d<f32>;\n", i+1, i)
	}
	sb.WriteString(`
struct FragmentInput {
    @location(0) uv: vec2<f32>,
    @location(1) slot: f32,
}

@fragment
fn fs_main(in: FragmentInput) -> @location(0) vec4<f32> {
    var color: vec4<f32>;
`)
	for i := range n {
		switch {
		case i == 0:
			sb.WriteString("    if in.slot < 0.5 {\n")
		case i == n-1:
			sb.WriteString("    } else {\n")
		default:
			fmt.Fprintf(&sb, "    } else if in.slot < %d.5 {\n", i)
		}
		fmt.Fprintf(&sb, "        color = textureSampleLevel(tex%d, samp, in.uv, 0.0);\n", i)
	}
	sb.WriteString("    }\n    return color;\n}\n")
	return sb.String()
}
