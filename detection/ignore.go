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
	"path/filepath"
	"strings"

	transport "github.com/ZaparooProject/go-openlog/transport/i2c"
)

// IsPathIgnored reports whether devicePath ("/dev/i2c-1:0x2A") is listed in
// ignorePaths, either itself or through its bus ("/dev/i2c-1"). Matching
// ignores case so hex digits compare equal.
func IsPathIgnored(devicePath string, ignorePaths []string) bool {
	if devicePath == "" || len(ignorePaths) == 0 {
		return false
	}

	device := normalizedPath(devicePath)
	bus, _, _ := transport.ParsePath(devicePath)
	bus = normalizedPath(bus)

	for _, ignorePath := range ignorePaths {
		if ignorePath == "" {
			continue
		}
		ignore := normalizedPath(ignorePath)
		if ignore == device || ignore == bus {
			return true
		}
	}
	return false
}

func normalizedPath(path string) string {
	return strings.ToLower(filepath.Clean(path))
}
