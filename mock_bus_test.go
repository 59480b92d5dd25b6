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
	"testing"

	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

var errMockNACK = errors.New("mock: NACK")

// mockOp is one recorded bus transaction
type mockOp struct {
	w       []byte
	addr    uint16
	readLen int
}

// mockBus records transactions and serves queued read replies in order.
// A read with nothing queued returns zeros.
type mockBus struct {
	failAt  map[int]error
	reads   [][]byte
	ops     []mockOp
	failAll bool
}

func newMockBus(reads ...[]byte) *mockBus {
	return &mockBus{reads: reads, failAt: make(map[int]error)}
}

func (m *mockBus) Tx(addr uint16, w, r []byte) error {
	idx := len(m.ops)
	m.ops = append(m.ops, mockOp{addr: addr, w: append([]byte(nil), w...), readLen: len(r)})

	if m.failAll {
		return errMockNACK
	}
	if err, ok := m.failAt[idx]; ok {
		return err
	}

	if len(r) > 0 {
		clear(r)
		if len(m.reads) > 0 {
			copy(r, m.reads[0])
			m.reads = m.reads[1:]
		}
	}
	return nil
}

func (*mockBus) SetSpeed(_ physic.Frequency) error { return nil }

func (*mockBus) String() string { return "mock://i2c" }

// failOn makes transaction idx (0-based) return errMockNACK.
func (m *mockBus) failOn(idx int) {
	m.failAt[idx] = errMockNACK
}

func (m *mockBus) writes() [][]byte {
	var out [][]byte
	for _, op := range m.ops {
		if len(op.w) > 0 {
			out = append(out, op.w)
		}
	}
	return out
}

func (m *mockBus) readLens() []int {
	var out []int
	for _, op := range m.ops {
		if op.readLen > 0 {
			out = append(out, op.readLen)
		}
	}
	return out
}

var _ i2c.Bus = (*mockBus)(nil)

// escaped prefixes s with the default escape sequence.
func escaped(s string) []byte {
	return append([]byte{DefaultEscapeChar, DefaultEscapeChar, DefaultEscapeChar}, s...)
}

func newMockDevice(t *testing.T, reads ...[]byte) (*Device, *mockBus) {
	t.Helper()
	bus := newMockBus(reads...)
	dev, err := New(bus)
	require.NoError(t, err)
	return dev, bus
}
