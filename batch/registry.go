// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package batch

import (
	"slices"
	"sync"
)

// PackerFactory creates an attribute packer.
type PackerFactory func() AttributePacker

var (
	registryMu sync.RWMutex
	packers    = map[string]PackerFactory{
		"default": func() AttributePacker { return DefaultPacker{} },
		"layered": func() AttributePacker { return LayeredPacker{} },
	}
)

// RegisterPacker makes a packer selectable by name, for example from a
// configuration file. A packer already registered under name is replaced.
func RegisterPacker(name string, factory PackerFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	packers[name] = factory
}

// UnregisterPacker removes a packer from the registry.
func UnregisterPacker(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(packers, name)
}

// Packers returns the registered packer names in sorted order.
func Packers() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(packers))
	for name := range packers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// PackerByName returns a new packer registered under name. The empty name
// selects "default".
func PackerByName(name string) (AttributePacker, bool) {
	if name == "" {
		name = "default"
	}
	registryMu.RLock()
	factory, ok := packers[name]
	registryMu.RUnlock()
	if !ok {
		return nil, false
	}
	return factory(), true
}
