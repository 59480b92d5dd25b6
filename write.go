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
	"io"
)

// WriteByte sends one raw byte. It is logged to the file opened by the last
// Append or Create.
func (d *Device) WriteByte(c byte) error {
	return d.transmit(context.Background(), "WriteByte", []byte{c})
}

// Write sends p as raw log data, one bus transaction per MaxTransfer sized
// chunk. It stops at the first chunk that is not acknowledged and reports 0
// bytes written, because the OpenLog gives no way to tell how much of the
// failed chunk was logged.
func (d *Device) Write(p []byte) (int, error) {
	return d.WriteContext(context.Background(), p)
}

// WriteContext is Write with a context checked before each chunk.
func (d *Device) WriteContext(ctx context.Context, p []byte) (int, error) {
	for start := 0; start < len(p); start += d.maxTransfer {
		end := min(start+d.maxTransfer, len(p))
		if err := d.transmit(ctx, "Write", p[start:end]); err != nil {
			Debugf("OpenLog write aborted at byte %d of %d: %v", start, len(p), err)
			return 0, err
		}
	}
	Debugf("OpenLog 0x%02X TX %d data bytes", d.address, len(p))
	return len(p), nil
}

// WriteString sends s as raw log data with the same chunking as Write.
func (d *Device) WriteString(s string) (int, error) {
	return d.WriteContext(context.Background(), []byte(s))
}

var (
	_ io.Writer       = (*Device)(nil)
	_ io.ByteWriter   = (*Device)(nil)
	_ io.StringWriter = (*Device)(nil)
)
