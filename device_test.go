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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    []Option
		wantCfg Config
		wantErr bool
	}{
		{
			name:    "Defaults",
			wantCfg: Config{Address: 0x2A, EscapeChar: 26, EscapeCount: 3, MaxTransfer: 32},
		},
		{
			name:    "Custom",
			opts:    []Option{WithAddress(0x30), WithEscape('$', 2), WithMaxTransfer(16)},
			wantCfg: Config{Address: 0x30, EscapeChar: '$', EscapeCount: 2, MaxTransfer: 16},
		},
		{
			name:    "WholeConfig",
			opts:    []Option{WithConfig(&Config{Address: 0x10, EscapeChar: 1, EscapeCount: 1, MaxTransfer: 8})},
			wantCfg: Config{Address: 0x10, EscapeChar: 1, EscapeCount: 1, MaxTransfer: 8},
		},
		{
			name:    "No_Escape",
			opts:    []Option{WithEscape(26, 0)},
			wantCfg: Config{Address: 0x2A, EscapeChar: 26, EscapeCount: 0, MaxTransfer: 32},
		},
		{name: "Address_Too_High", opts: []Option{WithAddress(0x80)}, wantErr: true},
		{name: "Negative_Escape_Count", opts: []Option{WithEscape(26, -1)}, wantErr: true},
		{name: "Zero_Max_Transfer", opts: []Option{WithMaxTransfer(0)}, wantErr: true},
		{name: "Nil_Config", opts: []Option{WithConfig(nil)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dev, err := New(newMockBus(), tt.opts...)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidParameter)
				assert.Nil(t, dev)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantCfg.Address, dev.Address())
			assert.Equal(t, tt.wantCfg.EscapeChar, dev.escapeChar)
			assert.Equal(t, tt.wantCfg.EscapeCount, dev.escapeCount)
			assert.Equal(t, tt.wantCfg.MaxTransfer, dev.MaxTransfer())
			assert.False(t, dev.Listing())
		})
	}
}

func TestNew_NilBus(t *testing.T) {
	t.Parallel()

	dev, err := New(nil)
	require.ErrorIs(t, err, ErrInvalidParameter)
	assert.Nil(t, dev)
}

func TestNew_IndependentSessions(t *testing.T) {
	t.Parallel()

	bus := newMockBus()
	first, err := New(bus, WithAddress(0x2A))
	require.NoError(t, err)
	second, err := New(bus, WithAddress(0x2B))
	require.NoError(t, err)

	require.NoError(t, first.SendCommand(context.Background(), "stat"))
	require.NoError(t, second.SendCommand(context.Background(), "stat"))

	require.Len(t, bus.ops, 2)
	assert.Equal(t, uint16(0x2A), bus.ops[0].addr)
	assert.Equal(t, uint16(0x2B), bus.ops[1].addr)
}

func TestDevice_Init(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  byte
		failTx  bool
		wantErr error
	}{
		{name: "SD_Good", status: 0x17},
		{name: "SD_Good_Only_Bit", status: 0x01},
		{name: "SD_Missing", status: 0x16, wantErr: ErrSDInitFailed},
		{name: "No_ACK", failTx: true, wantErr: ErrTransmissionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dev, bus := newMockDevice(t, []byte{tt.status})
			bus.failAll = tt.failTx

			err := dev.Init(context.Background())
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, [][]byte{escaped("stat")}, bus.writes())
			assert.Equal(t, []int{1}, bus.readLens())
		})
	}
}

func TestDevice_GetFirmwareVersion(t *testing.T) {
	t.Parallel()

	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: DefaultAddress, W: escaped("ver")},
			{Addr: DefaultAddress, R: []byte{3, 1}},
		},
	}
	dev, err := New(bus)
	require.NoError(t, err)

	version, err := dev.GetFirmwareVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "3.1", version.String())
	assert.Equal(t, byte(3), version.Major)
	assert.Equal(t, byte(1), version.Minor)
	require.NoError(t, bus.Close())
}

func TestDevice_GetFirmwareVersion_TwoDigits(t *testing.T) {
	t.Parallel()

	dev, _ := newMockDevice(t, []byte{12, 105})

	version, err := dev.GetFirmwareVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "12.105", version.Version)
}

func TestDevice_GetStatus(t *testing.T) {
	t.Parallel()

	dev, bus := newMockDevice(t, []byte{0x1F})

	status, err := dev.GetStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, status.SDInitGood())
	assert.True(t, status.LastCommandSucceeded())
	assert.True(t, status.LastCommandKnown())
	assert.True(t, status.FileOpen())
	assert.True(t, status.InRootDirectory())
	assert.Zero(t, status.Reserved())
	assert.Equal(t, [][]byte{escaped("stat")}, bus.writes())
}

func TestDevice_GetStatus_ReadFailure(t *testing.T) {
	t.Parallel()

	dev, bus := newMockDevice(t)
	bus.failOn(1)

	_, err := dev.GetStatus(context.Background())
	require.ErrorIs(t, err, ErrTransmissionFailed)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "stat", te.Op)
	assert.Equal(t, DefaultAddress, te.Address)
	assert.ErrorIs(t, err, errMockNACK)
}

func TestDevice_SetAddress(t *testing.T) {
	t.Parallel()

	dev, bus := newMockDevice(t)

	require.NoError(t, dev.SetAddress(context.Background(), 0x55))
	assert.Equal(t, uint16(0x55), dev.Address())
	assert.Equal(t, [][]byte{escaped("adr 85")}, bus.writes())
	assert.Equal(t, DefaultAddress, bus.ops[0].addr, "request goes to the old address")

	require.NoError(t, dev.SendCommand(context.Background(), "stat"))
	assert.Equal(t, uint16(0x55), bus.ops[1].addr, "later commands use the new address")
}

func TestDevice_SetAddress_CommitsOnFailure(t *testing.T) {
	t.Parallel()

	dev, bus := newMockDevice(t)
	bus.failAll = true

	err := dev.SetAddress(context.Background(), 0x55)
	require.ErrorIs(t, err, ErrTransmissionFailed)
	assert.Equal(t, uint16(0x55), dev.Address())
}

func TestDevice_SetAddress_Invalid(t *testing.T) {
	t.Parallel()

	dev, bus := newMockDevice(t)

	err := dev.SetAddress(context.Background(), 0x100)
	require.ErrorIs(t, err, ErrInvalidParameter)
	assert.Equal(t, DefaultAddress, dev.Address())
	assert.Empty(t, bus.ops)
}

func TestDevice_ContextCanceled(t *testing.T) {
	t.Parallel()

	dev, bus := newMockDevice(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := dev.GetStatus(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, ErrTransmissionFailed))
	assert.Empty(t, bus.ops)
}

func TestStatus_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0x13[sd,ok,root]", Status(0x13).String())
	assert.Equal(t, "0x00[]", Status(0).String())
	assert.Equal(t, "0x1F[sd,ok,known,open,root]", Status(0x1F).String())
}
