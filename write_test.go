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
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDevice_WriteByte(t *testing.T) {
	t.Parallel()

	dev, bus := newMockDevice(t)

	require.NoError(t, dev.WriteByte('x'))
	assert.Equal(t, [][]byte{{'x'}}, bus.writes())

	bus.failAll = true
	require.ErrorIs(t, dev.WriteByte('y'), ErrTransmissionFailed)
}

func TestDevice_Write_Chunks(t *testing.T) {
	t.Parallel()

	dev, bus := newMockDevice(t)
	data := bytes.Repeat([]byte("0123456789"), 7)

	n, err := dev.Write(data)
	require.NoError(t, err)
	assert.Equal(t, 70, n)

	writes := bus.writes()
	require.Len(t, writes, 3)
	assert.Len(t, writes[0], 32)
	assert.Len(t, writes[1], 32)
	assert.Len(t, writes[2], 6)
	assert.Equal(t, data, bytes.Join(writes, nil))
	for _, w := range writes {
		assert.NotEqual(t, DefaultEscapeChar, w[0], "raw data carries no escape prefix")
	}
}

func TestDevice_Write_AbortsOnFailure(t *testing.T) {
	t.Parallel()

	dev, bus := newMockDevice(t)
	bus.failOn(1)

	n, err := dev.Write(make([]byte, 100))
	require.ErrorIs(t, err, ErrTransmissionFailed)
	assert.Zero(t, n)
	assert.Len(t, bus.ops, 2, "nothing sent after the failed chunk")
}

func TestDevice_Write_Empty(t *testing.T) {
	t.Parallel()

	dev, bus := newMockDevice(t)

	n, err := dev.Write(nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, bus.ops)
}

func TestDevice_WriteString(t *testing.T) {
	t.Parallel()

	bus := newMockBus()
	dev, err := New(bus, WithMaxTransfer(5))
	require.NoError(t, err)

	n, err := fmt.Fprintf(dev, "t=%d,v=%s\n", 12, "ok")
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, [][]byte{[]byte("t=12,"), []byte("v=ok\n")}, bus.writes())

	bus.ops = nil
	n, err = dev.WriteString("hello world")
	require.NoError(t, err)
	assert.Equal(t, 11, n)
	assert.Equal(t, [][]byte{[]byte("hello"), []byte(" worl"), []byte("d")}, bus.writes())
}

func TestDevice_WriteContext_Canceled(t *testing.T) {
	t.Parallel()

	dev, bus := newMockDevice(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, err := dev.WriteContext(ctx, []byte("data"))
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)
	assert.Empty(t, bus.ops)
}
