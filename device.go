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
	"fmt"

	"periph.io/x/conn/v3/i2c"
)

const (
	// DefaultAddress is the factory 7-bit I2C address of the Qwiic OpenLog.
	DefaultAddress uint16 = 0x2A

	// DefaultEscapeChar is Ctrl+Z, the byte OpenLog watches for to leave
	// logging mode and take a command.
	DefaultEscapeChar byte = 26

	// DefaultEscapeCount is how many escape characters prefix a command.
	DefaultEscapeCount = 3

	// DefaultMaxTransfer is the largest payload moved in one bus
	// transaction. It is a property of the host's I2C buffer, not of the
	// OpenLog; the common Arduino Wire buffer is 32 bytes.
	DefaultMaxTransfer = 32

	// maxAddress is the highest 7-bit address.
	maxAddress uint16 = 0x7F
)

// Config holds the construction-time parameters of a Device.
type Config struct {
	// Address is the 7-bit bus address of the peripheral
	Address uint16
	// EscapeCount is the number of EscapeChar bytes sent before a command
	EscapeCount int
	// MaxTransfer caps the bytes moved per bus transaction
	MaxTransfer int
	// EscapeChar is the command escape byte configured on the peripheral
	EscapeChar byte
}

// DefaultConfig returns the factory configuration of a Qwiic OpenLog.
func DefaultConfig() *Config {
	return &Config{
		Address:     DefaultAddress,
		EscapeChar:  DefaultEscapeChar,
		EscapeCount: DefaultEscapeCount,
		MaxTransfer: DefaultMaxTransfer,
	}
}

func (c *Config) validate() error {
	if c.Address > maxAddress {
		return invalidParam("address 0x%02X is not a 7-bit address", c.Address)
	}
	if c.EscapeCount < 0 {
		return invalidParam("escape count %d", c.EscapeCount)
	}
	if c.MaxTransfer < 1 {
		return invalidParam("max transfer %d", c.MaxTransfer)
	}
	return nil
}

// Option configures a Device at construction.
type Option func(*Config) error

// WithAddress sets the peripheral address.
func WithAddress(addr uint16) Option {
	return func(c *Config) error {
		c.Address = addr
		return nil
	}
}

// WithEscape sets the escape character and how many times it is repeated.
// Both must match the peripheral's config.txt.
func WithEscape(char byte, count int) Option {
	return func(c *Config) error {
		c.EscapeChar = char
		c.EscapeCount = count
		return nil
	}
}

// WithMaxTransfer sets the largest payload per bus transaction. Use the
// smaller of the host adapter's limit and the peripheral's receive buffer.
func WithMaxTransfer(n int) Option {
	return func(c *Config) error {
		c.MaxTransfer = n
		return nil
	}
}

// WithConfig copies a whole Config.
func WithConfig(cfg *Config) Option {
	return func(c *Config) error {
		if cfg == nil {
			return invalidParam("nil config")
		}
		*c = *cfg
		return nil
	}
}

// Device is a command session with one Qwiic OpenLog.
//
// Thread Safety: Device is NOT thread-safe and holds no locks. Every
// operation is one write transaction followed by reads that must not be
// interleaved with another command, so callers sharing a Device across
// goroutines must serialize whole operations, for example through a Guard.
type Device struct {
	bus         i2c.Bus
	address     uint16
	escapeCount int
	maxTransfer int
	escapeChar  byte
	listing     bool
}

// New creates a Device talking to the OpenLog on bus. The bus must already
// be configured (speed, mode); New does not touch it.
func New(bus i2c.Bus, opts ...Option) (*Device, error) {
	if bus == nil {
		return nil, invalidParam("nil bus")
	}

	cfg := DefaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &Device{
		bus:         bus,
		address:     cfg.Address,
		escapeChar:  cfg.EscapeChar,
		escapeCount: cfg.EscapeCount,
		maxTransfer: cfg.MaxTransfer,
	}, nil
}

// Init checks that the OpenLog answers and that its card came up.
// It is a connectivity probe, not a handshake.
func (d *Device) Init(ctx context.Context) error {
	status, err := d.GetStatus(ctx)
	if err != nil {
		return fmt.Errorf("status probe failed: %w", err)
	}
	if !status.SDInitGood() {
		return fmt.Errorf("%w (status %s)", ErrSDInitFailed, status)
	}
	Debugf("OpenLog at 0x%02X ready, status %s", d.address, status)
	return nil
}

// Bus returns the bus the Device talks over.
func (d *Device) Bus() i2c.Bus {
	return d.bus
}

// Address returns the address the Device currently uses.
func (d *Device) Address() uint16 {
	return d.address
}

// MaxTransfer returns the per-transaction payload limit.
func (d *Device) MaxTransfer() int {
	return d.maxTransfer
}

// dev binds the bus to the current address. SetAddress can change the
// address between calls, so this is built per transaction.
func (d *Device) dev() *i2c.Dev {
	return &i2c.Dev{Addr: d.address, Bus: d.bus}
}

// transmit performs one write transaction.
func (d *Device) transmit(ctx context.Context, op string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := d.dev().Tx(data, nil); err != nil {
		return NewTransportError(op, d.address, err)
	}
	return nil
}

// receive performs one read transaction filling buf.
func (d *Device) receive(ctx context.Context, op string, buf []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := d.dev().Tx(nil, buf); err != nil {
		return NewTransportError(op, d.address, err)
	}
	return nil
}

// query sends a command and reads an n byte reply in one read transaction.
func (d *Device) query(ctx context.Context, n int, verb string, args ...string) ([]byte, error) {
	if err := d.SendCommand(ctx, verb, args...); err != nil {
		return nil, err
	}
	resp := make([]byte, n)
	if err := d.receive(ctx, verb, resp); err != nil {
		return nil, err
	}
	return resp, nil
}
