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
	"encoding/binary"
	"strconv"
)

// Append opens name for logging, creating it if needed. Raw bytes written
// afterwards (Write, WriteByte, WriteString) go to this file until another
// Append or Create.
func (d *Device) Append(ctx context.Context, name string) error {
	return d.SendCommand(ctx, cmdAppend, name)
}

// Create makes a new file in the current directory. The OpenLog keeps
// logging to the file that was already open.
func (d *Device) Create(ctx context.Context, name string) error {
	return d.SendCommand(ctx, cmdNew, name)
}

// MakeDirectory creates a directory in the current directory.
func (d *Device) MakeDirectory(ctx context.Context, name string) error {
	return d.SendCommand(ctx, cmdMkdir, name)
}

// ChangeDirectory changes the working directory; ".." moves up.
func (d *Device) ChangeDirectory(ctx context.Context, name string) error {
	return d.SendCommand(ctx, cmdChdir, name)
}

// Size returns the size of name in bytes. The OpenLog defines no marker for
// a missing file; the result is whatever four bytes it sends back.
func (d *Device) Size(ctx context.Context, name string) (int32, error) {
	resp, err := d.query(ctx, 4, cmdSize, name)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(resp)), nil //nolint:gosec // two's complement as sent by the peripheral
}

// Read fills buf with the contents of name starting at offset. The reply is
// pulled in MaxTransfer sized reads. Past the end of the file the OpenLog
// sends zeros, so a short file leaves trailing zero bytes in buf that cannot
// be told apart from file content; use Size to know where data ends.
func (d *Device) Read(ctx context.Context, buf []byte, name string, offset int) error {
	if offset < 0 {
		return invalidParam("negative offset %d", offset)
	}
	if err := d.SendCommand(ctx, cmdRead, name, strconv.Itoa(offset)); err != nil {
		return err
	}

	for pos := 0; pos < len(buf); {
		n := min(d.maxTransfer, len(buf)-pos)
		if err := d.receive(ctx, cmdRead, buf[pos:pos+n]); err != nil {
			return err
		}
		pos += n
	}
	Debugf("OpenLog read %d bytes of %q from offset %d", len(buf), name, offset)
	return nil
}

// ReadAll returns the whole content of name, sized by a Size query.
func (d *Device) ReadAll(ctx context.Context, name string) ([]byte, error) {
	size, err := d.Size(ctx, name)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		return []byte{}, nil
	}

	buf := make([]byte, size)
	if err := d.Read(ctx, buf, name, 0); err != nil {
		return nil, err
	}
	return buf, nil
}

// RemoveFile deletes files matching name (wildcards allowed) and returns
// how many were removed.
func (d *Device) RemoveFile(ctx context.Context, name string) (uint32, error) {
	return d.Remove(ctx, name, false)
}

// RemoveDirectory deletes a directory with everything in it. The OpenLog
// reports 1 for a directory no matter how much it contained.
func (d *Device) RemoveDirectory(ctx context.Context, name string) (uint32, error) {
	return d.Remove(ctx, name, true)
}

// Remove sends "rm" (or "rm -rf" when recursive) for path and returns the
// removed item count. Non-empty directories need recursive.
func (d *Device) Remove(ctx context.Context, path string, recursive bool) (uint32, error) {
	args := []string{path}
	if recursive {
		args = []string{flagRecursive, path}
	}

	resp, err := d.query(ctx, 4, cmdRemove, args...)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(resp), nil
}
