// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/gogpu/ggbatch/batch"
)

func TestParse(t *testing.T) {
	yamlDoc := []byte(`
max_textures: 8
packer: layered
initial_vertices: 400
log_level: debug
`)
	tomlDoc := []byte(`
max_textures = 8
packer = "layered"
initial_vertices = 400
log_level = "debug"
`)
	tests := []struct {
		name   string
		data   []byte
		format Format
	}{
		{"yaml", yamlDoc, YAML},
		{"toml", tomlDoc, TOML},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse(tt.data, tt.format)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if cfg.MaxTextures != 8 || cfg.Packer != "layered" || cfg.InitialVertices != 400 {
				t.Errorf("Parse() = %+v", cfg)
			}
			if cfg.InitialIndices != 6 {
				t.Errorf("InitialIndices = %d, want default 6", cfg.InitialIndices)
			}
			if l, _ := cfg.Level(); l != slog.LevelDebug {
				t.Errorf("Level() = %v, want debug", l)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format Format
		want   error
	}{
		{"unknown format", "", Format("json"), ErrUnknownFormat},
		{"bad packer", "packer: fancy", YAML, ErrInvalid},
		{"too many textures", "max_textures: 64", YAML, ErrInvalid},
		{"negative size", "initial_indices = -1", TOML, ErrInvalid},
		{"bad level", "log_level: loud", YAML, ErrInvalid},
		{"negative cache", "bind_group_cache: -2", YAML, ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), tt.format)
			if !errors.Is(err, tt.want) {
				t.Errorf("Parse() error = %v, want %v", err, tt.want)
			}
		})
	}
	if _, err := Parse([]byte("max_textures: [1"), YAML); err == nil {
		t.Error("Parse() accepted malformed YAML")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "batch.toml")
	if err := os.WriteFile(path, []byte("max_textures = 4\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.MaxTextures != 4 {
		t.Errorf("MaxTextures = %d, want 4", cfg.MaxTextures)
	}

	if _, err := LoadFile(filepath.Join(dir, "batch.ini")); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("LoadFile(.ini) error = %v", err)
	}
	if _, err := LoadFile(filepath.Join(dir, "missing.yml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadFile(missing) error = %v", err)
	}
}

func TestOptions(t *testing.T) {
	cfg := Default()
	cfg.Packer = "layered"
	cfg.InitialVertices = 10

	b := batch.NewBatcher(cfg.Options(12)...)
	if b.MaxTextures() != 12 {
		t.Errorf("MaxTextures() = %d, want platform budget 12", b.MaxTextures())
	}
	if b.Packer().Name() != "layered" {
		t.Errorf("Packer() = %s, want layered", b.Packer().Name())
	}
	if got := b.Attributes().Cap(); got != 70 {
		t.Errorf("attribute capacity = %d, want 70", got)
	}

	cfg.MaxTextures = 3
	if b := batch.NewBatcher(cfg.Options(12)...); b.MaxTextures() != 3 {
		t.Errorf("MaxTextures() = %d, want override 3", b.MaxTextures())
	}
	if len(cfg.AdaptorOptions()) != 1 {
		t.Error("AdaptorOptions() dropped the cache size")
	}
}
