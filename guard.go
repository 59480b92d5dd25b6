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

package openlog

import (
	"github.com/ZaparooProject/go-openlog/internal/syncutil"
)

// Guard serializes whole operations on a shared Device. A Device operation
// is a write followed by reads, and another goroutine's command landing in
// between corrupts both replies, so locking single bus transactions is not
// enough.
type Guard struct {
	dev *Device
	mu  syncutil.Mutex
}

// NewGuard wraps dev. All access to dev must then go through Do.
func NewGuard(dev *Device) *Guard {
	return &Guard{dev: dev}
}

// Do runs fn with exclusive use of the Device.
func (g *Guard) Do(fn func(*Device) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fn(g.dev)
}
