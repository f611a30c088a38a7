// Command batchdemo pushes frames of sprites through the batching engine
// and prints how many draw calls each frame needs.
//
// Usage:
//
//	batchdemo -sprites 10000 -textures 40 -frames 60 -config batch.yaml -v
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/ggbatch"
	"github.com/gogpu/ggbatch/backend/wgpu"
	"github.com/gogpu/ggbatch/batch"
	"github.com/gogpu/ggbatch/config"
	"github.com/gogpu/ggbatch/drawable"
	"github.com/gogpu/ggbatch/platform"
)

type options struct {
	sprites, textures, frames int
	blends, probe, upload     bool
	verbose                   bool
	config                    string
}

func main() {
	var o options
	flag.IntVar(&o.sprites, "sprites", 10000, "sprites per frame")
	flag.IntVar(&o.textures, "textures", 40, "distinct textures")
	flag.IntVar(&o.frames, "frames", 60, "frames to run")
	flag.BoolVar(&o.blends, "blends", false, "mix blend modes")
	flag.StringVar(&o.config, "config", "", "YAML or TOML batcher config")
	flag.BoolVar(&o.probe, "probe", false, "probe the texture budget with naga")
	flag.BoolVar(&o.upload, "upload", true, "upload and draw each frame on a noop GPU device")
	flag.BoolVar(&o.verbose, "v", false, "debug logging")
	flag.Parse()

	if err := run(o); err != nil {
		log.Fatalf("batchdemo: %v", err)
	}
}

func run(o options) error {
	cfg := config.Default()
	if o.config != "" {
		var err error
		if cfg, err = config.LoadFile(o.config); err != nil {
			return err
		}
	}
	level, _ := cfg.Level()
	if o.verbose {
		level = slog.LevelDebug
	}
	ggbatch.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	maxTextures, err := textureBudget(o.probe)
	if err != nil {
		return err
	}

	b := batch.NewBatcher(cfg.Options(maxTextures)...)
	defer b.Destroy()

	var adaptor *wgpu.Adaptor
	if o.upload {
		a, cleanup, err := noopAdaptor(cfg)
		if err != nil {
			return err
		}
		defer cleanup()
		adaptor = a
	}

	scene := newScene(o.sprites, o.textures, o.blends)
	var (
		set   batch.InstructionSet
		pass  countingPass
		total time.Duration
	)
	for f := range o.frames {
		start := time.Now()
		set.Reset()
		b.Begin()
		for _, s := range scene {
			s.World = ggbatch.Translate(1, 0).Multiply(s.World)
			b.Add(s.Element())
		}
		b.Finish(&set)
		if adaptor != nil {
			if err := adaptor.Upload(b); err != nil {
				return fmt.Errorf("frame %d: upload: %w", f, err)
			}
			if err := adaptor.Draw(&pass, &set); err != nil {
				return fmt.Errorf("frame %d: draw: %w", f, err)
			}
		}
		total += time.Since(start)
	}

	st := b.Arena().Stats()
	fmt.Printf("sprites:      %d\n", o.sprites)
	fmt.Printf("textures:     %d (max %d per batch, packer %s)\n", o.textures, b.MaxTextures(), b.Packer().Name())
	fmt.Printf("draw calls:   %d per frame\n", len(set.Batches()))
	fmt.Printf("indices:      %d (%d-bit)\n", b.IndexSize(), b.Indices().ElementSize()*8)
	fmt.Printf("pool:         %d batches created, %d free\n", st.BatchesCreated, st.FreeBatches)
	if o.frames > 0 {
		fmt.Printf("frame time:   %v avg over %d frames\n", total/time.Duration(o.frames), o.frames)
	}
	if adaptor != nil {
		as := adaptor.Stats()
		fmt.Printf("uploads:      %d (%d buffer reallocations)\n", as.Uploads, as.BufferGrowth)
		fmt.Printf("recorded:     %d draws, %d indices\n", pass.draws, pass.indices)
		fmt.Printf("bind groups:  %d cached, %.0f%% hit rate\n", as.BindGroups.Len, as.BindGroups.HitRate*100)
	}
	return nil
}

// countingPass is a render pass that records nothing but call counts.
type countingPass struct {
	draws   int
	indices uint64
}

func (*countingPass) SetBindGroup(uint32, hal.BindGroup, []uint32)           {}
func (*countingPass) SetVertexBuffer(uint32, hal.Buffer, uint64)             {}
func (*countingPass) SetIndexBuffer(hal.Buffer, gputypes.IndexFormat, uint64) {}

func (p *countingPass) DrawIndexed(count, _, _ uint32, _ int32, _ uint32) {
	p.draws++
	p.indices += uint64(count)
}

// textureBudget returns the per-batch texture count for the default
// device limits.
func textureBudget(probe bool) (int, error) {
	var p platform.Probe
	if probe {
		p = platform.NagaProbe{}
	}
	return platform.MaxTexturesPerBatch(gputypes.DefaultLimits(), p)
}

func newScene(n, textures int, blends bool) []*drawable.Sprite {
	texs := make([]*batch.TextureSource, max(textures, 1))
	for i := range texs {
		texs[i] = batch.NewTextureSource(fmt.Sprintf("tex-%d", i))
	}
	rng := rand.New(rand.NewPCG(1, 2))
	modes := []batch.BlendMode{batch.BlendNormal, batch.BlendAdd, batch.BlendMultiply}

	scene := make([]*drawable.Sprite, n)
	for i := range scene {
		s := drawable.NewSprite(texs[rng.IntN(len(texs))], 32, 32)
		s.AnchorX, s.AnchorY = 0.5, 0.5
		s.World = ggbatch.Translate(rng.Float64()*1920, rng.Float64()*1080)
		s.Tint = ggbatch.RGBA{R: rng.Float32(), G: rng.Float32(), B: rng.Float32(), A: 1}
		if blends && rng.IntN(10) == 0 {
			s.Blend = modes[rng.IntN(len(modes))]
		}
		scene[i] = s
	}
	return scene
}

// noopAdaptor opens the noop HAL device and wraps it in an adaptor.
func noopAdaptor(cfg config.Config) (*wgpu.Adaptor, func(), error) {
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		return nil, nil, fmt.Errorf("create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, nil, errors.New("no noop adapter")
	}
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, nil, fmt.Errorf("open device: %w", err)
	}
	device := openDev.Device
	factory := func(textures []*batch.TextureSource) (hal.BindGroup, error) {
		return device.CreateBindGroup(&hal.BindGroupDescriptor{Label: "batchdemo-textures"})
	}
	a, err := wgpu.New(device, wgpu.HALQueue(openDev.Queue), factory, cfg.AdaptorOptions()...)
	if err != nil {
		device.Destroy()
		instance.Destroy()
		return nil, nil, err
	}
	cleanup := func() {
		a.Destroy()
		device.Destroy()
		instance.Destroy()
	}
	return a, cleanup, nil
}
