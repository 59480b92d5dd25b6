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
	"errors"
	"fmt"
)

// Error categories. The OpenLog reports nothing richer than an ACK on the
// bus, so transmission failure is the only error the wire can produce; the
// rest are local validation and probe results.
var (
	// ErrTransmissionFailed is matched by every *TransportError.
	ErrTransmissionFailed = errors.New("transmission failed")

	// ErrSDInitFailed is returned by Init when the status byte does not
	// report a working card.
	ErrSDInitFailed = errors.New("SD card did not initialize")

	// ErrInvalidParameter rejects arguments before anything is sent.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrNameIncomplete is returned with a partial directory entry when a
	// whole read chunk arrived without a terminating NUL. The next call to
	// NextDirectoryItem continues the same name.
	ErrNameIncomplete = errors.New("directory entry continues in next chunk")
)

// TransportError wraps a bus failure with the operation and address that
// produced it.
type TransportError struct {
	Err     error  // Underlying bus error
	Op      string // Operation that failed
	Address uint16 // Peripheral address used for the transaction
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s 0x%02X: %v", e.Op, e.Address, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is makes every TransportError match ErrTransmissionFailed.
func (*TransportError) Is(target error) bool {
	return target == ErrTransmissionFailed
}

// NewTransportError creates a TransportError for op at addr.
func NewTransportError(op string, addr uint16, err error) *TransportError {
	return &TransportError{Op: op, Address: addr, Err: err}
}

// IsRetryable returns true if repeating the operation might succeed.
// Only transmission failures qualify; validation errors and a missing card
// will fail the same way again.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrTransmissionFailed)
}

// invalidParam builds an ErrInvalidParameter with detail.
func invalidParam(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidParameter, fmt.Sprintf(format, args...))
}
