// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package config loads batcher and adaptor settings from YAML or TOML.
//
// Example YAML:
//
//	max_textures: 8
//	packer: layered
//	initial_vertices: 4096
//	initial_indices: 6144
//	bind_group_cache: 128
//	log_level: debug
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/ggbatch/backend/wgpu"
	"github.com/gogpu/ggbatch/batch"
	"github.com/gogpu/ggbatch/platform"
)

// Errors returned by the loaders and Validate.
var (
	ErrUnknownFormat = errors.New("config: unknown format")
	ErrInvalid       = errors.New("config: invalid value")
)

// Format is a configuration file syntax.
type Format string

// Supported formats.
const (
	YAML Format = "yaml"
	TOML Format = "toml"
)

// Config holds batcher and adaptor settings. Zero fields take defaults.
type Config struct {
	// MaxTextures overrides the platform texture budget. Zero means probe.
	MaxTextures int `yaml:"max_textures" toml:"max_textures"`

	// Packer names the vertex layout: "default" or "layered".
	Packer string `yaml:"packer" toml:"packer"`

	// InitialVertices and InitialIndices presize the batcher buffers.
	InitialVertices int `yaml:"initial_vertices" toml:"initial_vertices"`
	InitialIndices  int `yaml:"initial_indices" toml:"initial_indices"`

	// BindGroupCache is the number of texture sets whose bind groups the
	// adaptor keeps.
	BindGroupCache int `yaml:"bind_group_cache" toml:"bind_group_cache"`

	// LogLevel is a slog level name: debug, info, warn or error.
	LogLevel string `yaml:"log_level" toml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Packer:          "default",
		InitialVertices: 4,
		InitialIndices:  6,
		BindGroupCache:  wgpu.DefaultBindGroupCacheSize,
		LogLevel:        "info",
	}
}

// Parse decodes data in the given format over the defaults and validates
// the result.
func Parse(data []byte, format Format) (Config, error) {
	cfg := Default()
	var err error
	switch format {
	case YAML:
		err = yaml.Unmarshal(data, &cfg)
	case TOML:
		err = toml.Unmarshal(data, &cfg)
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", format, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FormatOf returns the format for a file name's extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML, nil
	case ".toml":
		return TOML, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// LoadFile reads and parses a YAML or TOML file.
func LoadFile(path string) (Config, error) {
	format, err := FormatOf(path)
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(data, format)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every field.
func (c Config) Validate() error {
	if c.MaxTextures < 0 || c.MaxTextures > platform.MaxTextureCap {
		return fmt.Errorf("%w: max_textures %d outside 0..%d", ErrInvalid, c.MaxTextures, platform.MaxTextureCap)
	}
	if _, ok := batch.PackerByName(c.Packer); !ok {
		return fmt.Errorf("%w: packer %q", ErrInvalid, c.Packer)
	}
	if c.InitialVertices < 0 || c.InitialIndices < 0 {
		return fmt.Errorf("%w: negative initial size", ErrInvalid)
	}
	if c.BindGroupCache < 0 {
		return fmt.Errorf("%w: bind_group_cache %d", ErrInvalid, c.BindGroupCache)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level returns the parsed log level.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("%w: log_level %q", ErrInvalid, c.LogLevel)
	}
	return l, nil
}

// Options converts the configuration to batcher options. maxTextures is
// the platform budget, used when MaxTextures is zero.
func (c Config) Options(maxTextures int) []batch.Option {
	packer, ok := batch.PackerByName(c.Packer)
	if !ok {
		packer = batch.DefaultPacker{}
	}
	if c.MaxTextures > 0 {
		maxTextures = c.MaxTextures
	}
	return []batch.Option{
		batch.WithMaxTextures(maxTextures),
		batch.WithPacker(packer),
		batch.WithInitialSize(c.InitialVertices*packer.Stride(), c.InitialIndices),
	}
}

// AdaptorOptions converts the configuration to adaptor options.
func (c Config) AdaptorOptions() []wgpu.Option {
	var opts []wgpu.Option
	if c.BindGroupCache > 0 {
		opts = append(opts, wgpu.WithBindGroupCacheSize(c.BindGroupCache))
	}
	return opts
}
