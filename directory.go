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
	"errors"
	"iter"
)

const (
	// nameTerminator ends each directory entry
	nameTerminator = 0x00
	// endOfListing as the first byte of a reply ends the listing
	endOfListing = 0xFF
)

// SearchDirectory starts listing the current directory. Wildcards are
// allowed in pattern ("*.txt"); an empty pattern lists everything. Entries
// are then pulled one by one with NextDirectoryItem.
func (d *Device) SearchDirectory(ctx context.Context, pattern string) error {
	if err := d.SendCommand(ctx, cmdList, pattern); err != nil {
		return err
	}
	d.listing = true
	return nil
}

// Listing reports whether a directory listing is in progress.
func (d *Device) Listing() bool {
	return d.listing
}

// NextDirectoryItem returns the next file or directory name of the listing
// started by SearchDirectory.
//
// It returns "" with a nil error once the listing is over, and without
// touching the bus when no listing was started. Each call issues one read of
// MaxTransfer bytes. When that read ends before the terminating NUL the
// partial name is returned with ErrNameIncomplete and the next call yields
// the rest. Current firmware is not known to send names that long.
func (d *Device) NextDirectoryItem(ctx context.Context) (string, error) {
	if !d.listing {
		return "", nil
	}

	chunk := make([]byte, d.maxTransfer)
	if err := d.receive(ctx, cmdList, chunk); err != nil {
		return "", err
	}

	if chunk[0] == endOfListing {
		d.listing = false
		return "", nil
	}
	for i, b := range chunk {
		if b == nameTerminator {
			return string(chunk[:i]), nil
		}
	}
	return string(chunk), ErrNameIncomplete
}

// Entries lists the current directory lazily. The sequence can be ranged
// over once; stopping early leaves the rest of the listing queued on the
// peripheral until the next command.
func (d *Device) Entries(ctx context.Context, pattern string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if err := d.SearchDirectory(ctx, pattern); err != nil {
			yield("", err)
			return
		}

		var partial []byte
		for d.listing {
			name, err := d.NextDirectoryItem(ctx)
			if errors.Is(err, ErrNameIncomplete) {
				partial = append(partial, name...)
				continue
			}
			if err != nil {
				yield("", err)
				return
			}
			if len(partial) > 0 {
				name = string(partial) + name
				partial = partial[:0]
			}
			if name == "" {
				continue
			}
			if !yield(name, nil) {
				return
			}
		}
	}
}
