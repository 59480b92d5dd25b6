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
	"context"
	"strconv"
)

// OpenLog command verbs
const (
	cmdVersion = "ver"
	cmdStatus  = "stat"
	cmdAddress = "adr"
	cmdAppend  = "append"
	cmdNew     = "new"
	cmdMkdir   = "md"
	cmdChdir   = "cd"
	cmdSize    = "size"
	cmdRead    = "read"
	cmdList    = "ls"
	cmdRemove  = "rm"

	// flagRecursive makes rm delete directory contents as well
	flagRecursive = "-rf"
)

// maxCommandArgs is the most options any OpenLog command takes.
const maxCommandArgs = 2

// encodeCommand builds a command frame: the escape prefix, the verb, then
// each non-empty argument preceded by a single space. There is no
// terminator; the end of the bus transaction ends the command.
func encodeCommand(escape byte, count int, verb string, args ...string) []byte {
	size := count + len(verb)
	for _, arg := range args {
		if arg != "" {
			size += 1 + len(arg)
		}
	}

	frame := make([]byte, 0, size)
	for range count {
		frame = append(frame, escape)
	}
	frame = append(frame, verb...)
	for _, arg := range args {
		if arg == "" {
			continue
		}
		frame = append(frame, ' ')
		frame = append(frame, arg...)
	}
	return frame
}

// SendCommand transmits verb with up to two options as one bus
// transaction. Empty options are skipped. It reads nothing back; commands
// with a reply must be followed by the matching read.
func (d *Device) SendCommand(ctx context.Context, verb string, args ...string) error {
	if verb == "" {
		return invalidParam("empty command")
	}
	if len(args) > maxCommandArgs {
		return invalidParam("%s takes at most %d options, got %d", verb, maxCommandArgs, len(args))
	}

	frame := encodeCommand(d.escapeChar, d.escapeCount, verb, args...)
	Debugf("OpenLog 0x%02X TX command %q", d.address, frame[d.escapeCount:])
	return d.transmit(ctx, verb, frame)
}

// GetFirmwareVersion asks the OpenLog for its firmware version.
func (d *Device) GetFirmwareVersion(ctx context.Context) (*FirmwareVersion, error) {
	resp, err := d.query(ctx, 2, cmdVersion)
	if err != nil {
		return nil, err
	}
	return newFirmwareVersion(resp[0], resp[1]), nil
}

// GetStatus reads the status byte. It assumes no other reply is queued on
// the peripheral; calling it in the middle of a read or listing returns
// whatever byte the OpenLog had pending.
func (d *Device) GetStatus(ctx context.Context) (Status, error) {
	resp, err := d.query(ctx, 1, cmdStatus)
	if err != nil {
		return 0, err
	}
	return Status(resp[0]), nil
}

// SetAddress moves the OpenLog to a new bus address. The peripheral stores
// the address in EEPROM and config.txt and answers only on it from then on,
// so the Device switches to addr even when the request was not
// acknowledged. The returned error only describes the request; re-query
// (GetStatus) to confirm the peripheral followed.
func (d *Device) SetAddress(ctx context.Context, addr uint16) error {
	if addr > maxAddress {
		return invalidParam("address 0x%02X is not a 7-bit address", addr)
	}

	err := d.SendCommand(ctx, cmdAddress, strconv.FormatUint(uint64(addr), 10))
	Debugf("OpenLog address 0x%02X -> 0x%02X (err=%v)", d.address, addr, err)
	d.address = addr
	return err
}
