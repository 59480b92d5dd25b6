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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransportError(t *testing.T) {
	t.Parallel()

	err := NewTransportError("read", 0x2A, errMockNACK)

	assert.Equal(t, "read 0x2A: mock: NACK", err.Error())
	require.ErrorIs(t, err, ErrTransmissionFailed)
	require.ErrorIs(t, err, errMockNACK)
	assert.NotErrorIs(t, err, ErrSDInitFailed)

	wrapped := fmt.Errorf("listing: %w", err)
	var te *TransportError
	require.ErrorAs(t, wrapped, &te)
	assert.Equal(t, uint16(0x2A), te.Address)
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "transport error", err: NewTransportError("ls", 0x2A, errMockNACK), want: true},
		{name: "wrapped transport error", err: fmt.Errorf("init: %w", NewTransportError("stat", 0x2A, errMockNACK)), want: true},
		{name: "sentinel", err: ErrTransmissionFailed, want: true},
		{name: "missing card", err: ErrSDInitFailed, want: false},
		{name: "invalid parameter", err: invalidParam("offset %d", -1), want: false},
		{name: "incomplete name", err: ErrNameIncomplete, want: false},
		{name: "unrelated", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestInvalidParam(t *testing.T) {
	t.Parallel()

	err := invalidParam("offset %d", -4)
	require.ErrorIs(t, err, ErrInvalidParameter)
	assert.Contains(t, err.Error(), "offset -4")
}
