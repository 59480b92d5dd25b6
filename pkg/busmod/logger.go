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

// Package busmod wraps an i2c.Bus to observe the traffic an OpenLog Device
// generates: structured per-transaction logging and Prometheus counters.
package busmod

import (
	"encoding/hex"
	"io"
	"sync/atomic"

	"github.com/loopholelabs/logging/types"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// Logger logs every transaction on the wrapped bus at debug level.
type Logger struct {
	bus     i2c.Bus
	log     types.Logger
	prefix  string
	enabled atomic.Bool
}

// NewLogger wraps bus. prefix names the bus in each log line.
func NewLogger(bus i2c.Bus, prefix string, log types.Logger) *Logger {
	l := &Logger{
		bus:    bus,
		log:    log,
		prefix: prefix,
	}
	l.enabled.Store(true)
	return l
}

func (l *Logger) Disable() {
	if l.enabled.Load() && l.log != nil {
		l.log.Debug().Str("bus", l.prefix).Msg("logging disabled")
	}
	l.enabled.Store(false)
}

func (l *Logger) Enable() {
	l.enabled.Store(true)
	if l.log != nil {
		l.log.Debug().Str("bus", l.prefix).Msg("logging enabled")
	}
}

// Tx implements i2c.Bus. The read payload is logged after the transaction
// so it shows what the peripheral sent.
func (l *Logger) Tx(addr uint16, w, r []byte) error {
	err := l.bus.Tx(addr, w, r)
	if l.enabled.Load() && l.log != nil {
		l.log.Debug().
			Str("bus", l.prefix).
			Int("addr", int(addr)).
			Int("wlen", len(w)).
			Str("w", hex.EncodeToString(w)).
			Int("rlen", len(r)).
			Str("r", hex.EncodeToString(r)).
			Err(err).
			Msg("Tx")
	}
	return err
}

// SetSpeed implements i2c.Bus.
func (l *Logger) SetSpeed(f physic.Frequency) error {
	err := l.bus.SetSpeed(f)
	if l.enabled.Load() && l.log != nil {
		l.log.Debug().
			Str("bus", l.prefix).
			Str("speed", f.String()).
			Err(err).
			Msg("SetSpeed")
	}
	return err
}

func (l *Logger) String() string {
	return l.bus.String()
}

// Close closes the wrapped bus when it is closable.
func (l *Logger) Close() error {
	c, ok := l.bus.(io.Closer)
	if !ok {
		return nil
	}
	err := c.Close()
	if l.enabled.Load() && l.log != nil {
		l.log.Debug().Str("bus", l.prefix).Err(err).Msg("Close")
	}
	return err
}

var _ i2c.BusCloser = (*Logger)(nil)
