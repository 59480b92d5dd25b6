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

// Package i2c opens host I2C buses for an OpenLog Device.
package i2c

import (
	"fmt"
	"strconv"
	"strings"

	openlog "github.com/ZaparooProject/go-openlog"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// MaxClockFreq is the fastest clock the OpenLog's ATmega328 handles.
const MaxClockFreq = 400 * physic.KiloHertz

const maxAddress = 0x7F

// Open initializes the periph host drivers and opens the bus named by path.
// path is anything i2creg accepts ("/dev/i2c-1", "1", "" for the first
// bus), optionally followed by an address suffix as produced by FormatPath;
// the suffix is ignored here. The caller must Close the returned bus.
func Open(path string) (i2c.BusCloser, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	name, _, _ := ParsePath(path)
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus %q: %w", name, err)
	}

	setSpeed(bus, name)
	return bus, nil
}

// setSpeed raises the clock to MaxClockFreq. Not every adapter can change
// speed and the default clock works too, so a failure is only logged.
func setSpeed(bus i2c.Bus, name string) {
	if err := bus.SetSpeed(MaxClockFreq); err != nil {
		openlog.Debugf("set %s speed to %s: %v", name, MaxClockFreq, err)
	}
}

// ParsePath splits "/dev/i2c-1:0x2A" into the bus name and address. ok is
// false when path carries no valid 7-bit address suffix, in which case bus
// is path unchanged.
func ParsePath(path string) (bus string, addr uint16, ok bool) {
	i := strings.LastIndexByte(path, ':')
	if i < 0 {
		return path, 0, false
	}
	n, err := strconv.ParseUint(path[i+1:], 0, 16)
	if err != nil || n > maxAddress {
		return path, 0, false
	}
	return path[:i], uint16(n), true
}

// FormatPath joins a bus name and address in the form ParsePath reads.
func FormatPath(bus string, addr uint16) string {
	return fmt.Sprintf("%s:0x%02X", bus, addr)
}
