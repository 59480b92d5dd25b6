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
	"fmt"
	"strings"
)

// FirmwareVersion contains OpenLog firmware information
type FirmwareVersion struct {
	Version string
	Major   byte
	Minor   byte
}

func newFirmwareVersion(major, minor byte) *FirmwareVersion {
	return &FirmwareVersion{
		Major:   major,
		Minor:   minor,
		Version: fmt.Sprintf("%d.%d", major, minor),
	}
}

func (v *FirmwareVersion) String() string {
	return v.Version
}

// Status is the OpenLog status byte.
type Status byte

// Status bits
const (
	StatusSDInitGood           Status = 1 << 0
	StatusLastCommandSucceeded Status = 1 << 1
	StatusLastCommandKnown     Status = 1 << 2
	StatusFileOpen             Status = 1 << 3
	StatusInRootDirectory      Status = 1 << 4

	// statusReserved bits always read back as zero
	statusReserved Status = 0xE0
)

// SDInitGood reports whether the card initialized.
func (s Status) SDInitGood() bool { return s&StatusSDInitGood != 0 }

// LastCommandSucceeded reports whether the previous command completed.
func (s Status) LastCommandSucceeded() bool { return s&StatusLastCommandSucceeded != 0 }

// LastCommandKnown reports whether the previous command was recognized.
func (s Status) LastCommandKnown() bool { return s&StatusLastCommandKnown != 0 }

// FileOpen reports whether a log file is open for raw writes.
func (s Status) FileOpen() bool { return s&StatusFileOpen != 0 }

// InRootDirectory reports whether the working directory is the root.
func (s Status) InRootDirectory() bool { return s&StatusInRootDirectory != 0 }

// Reserved returns the future-use bits, which should be zero.
func (s Status) Reserved() byte { return byte(s & statusReserved) }

// String lists the set bits, e.g. "0x13[sd,ok,root]".
func (s Status) String() string {
	var names []string
	for _, bit := range []struct {
		name string
		mask Status
	}{
		{"sd", StatusSDInitGood},
		{"ok", StatusLastCommandSucceeded},
		{"known", StatusLastCommandKnown},
		{"open", StatusFileOpen},
		{"root", StatusInRootDirectory},
	} {
		if s&bit.mask != 0 {
			names = append(names, bit.name)
		}
	}
	return fmt.Sprintf("0x%02X[%s]", byte(s), strings.Join(names, ","))
}
