// go-openlog
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-openlog.
//
// go-openlog is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-openlog is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-openlog; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package detection

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/ZaparooProject/go-openlog/internal/syncutil"
)

// cacheKey identifies one scan: the bus plus the exact addresses probed.
type cacheKey struct {
	bus       string
	addresses string
}

func newCacheKey(bus string, addrs []uint16) cacheKey {
	sorted := slices.Clone(addrs)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	var b strings.Builder
	for i, addr := range sorted {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatUint(uint64(addr), 16))
	}
	return cacheKey{bus: bus, addresses: b.String()}
}

// cacheEntry holds the devices found by one scan.
type cacheEntry struct {
	timestamp time.Time
	devices   []DeviceInfo
}

type detectionCache struct {
	entries map[cacheKey]cacheEntry
	mu      syncutil.RWMutex
}

var cache = &detectionCache{
	entries: make(map[cacheKey]cacheEntry),
}

// getCached returns a copy of the devices cached for key if younger than ttl.
func getCached(key cacheKey, ttl time.Duration) ([]DeviceInfo, bool) {
	cache.mu.RLock()
	defer cache.mu.RUnlock()

	entry, exists := cache.entries[key]
	if !exists || time.Since(entry.timestamp) > ttl {
		return nil, false
	}

	devices := make([]DeviceInfo, len(entry.devices))
	copy(devices, entry.devices)
	return devices, true
}

func setCached(key cacheKey, devices []DeviceInfo) {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	devicesCopy := make([]DeviceInfo, len(devices))
	copy(devicesCopy, devices)
	cache.entries[key] = cacheEntry{
		devices:   devicesCopy,
		timestamp: time.Now(),
	}
}

// clearCacheForBus drops every scan cached for bus, whatever its addresses.
func clearCacheForBus(bus string) {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	for key := range cache.entries {
		if key.bus == bus {
			delete(cache.entries, key)
		}
	}
}

// ClearDetectionCache forgets every cached scan.
func ClearDetectionCache() {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	cache.entries = make(map[cacheKey]cacheEntry)
}
