// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package cache provides a small LRU cache for GPU objects that must be
// released when they fall out of the cache.
//
// The backend adaptor uses it to share texture bind groups between batches
// that bind the same texture set. Evicted values are handed to an OnEvict
// callback so the owner can destroy them.
package cache
