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

package testing

import (
	"math/rand/v2"
	"time"

	"github.com/ZaparooProject/go-openlog/internal/syncutil"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// FlakyConfig configures FlakyBus.
type FlakyConfig struct {
	// NackRate is the probability in [0,1] that a transaction is NACKed
	// before reaching the backend
	NackRate float64
	// MaxLatency delays each transaction by up to this long
	MaxLatency time.Duration
	// Seed makes the failure pattern repeatable; 0 picks a random seed
	Seed uint64
}

// FlakyBus wraps an i2c.Bus to simulate a marginal bus: long wires, a
// missing pull-up or a peripheral busy flushing its card. A NACKed
// transaction never reaches the backend, as on a real bus where the
// address byte went unacknowledged.
type FlakyBus struct {
	backend i2c.Bus
	rng     *rand.Rand
	config  FlakyConfig
	mu      syncutil.Mutex
	nacks   int
}

// NewFlakyBus wraps backend.
func NewFlakyBus(backend i2c.Bus, config FlakyConfig) *FlakyBus {
	var rng *rand.Rand
	if config.Seed != 0 {
		rng = rand.New(rand.NewPCG(config.Seed, config.Seed^0xDEADBEEF)) //nolint:gosec // Test code, not crypto
	} else {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint:gosec // Test code, not crypto
	}
	return &FlakyBus{backend: backend, config: config, rng: rng}
}

// Tx implements i2c.Bus.
func (f *FlakyBus) Tx(addr uint16, w, r []byte) error {
	f.mu.Lock()
	nack := f.rng.Float64() < f.config.NackRate
	var delay time.Duration
	if f.config.MaxLatency > 0 {
		delay = time.Duration(f.rng.Int64N(int64(f.config.MaxLatency)))
	}
	if nack {
		f.nacks++
	}
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if nack {
		return ErrNoAck
	}
	return f.backend.Tx(addr, w, r)
}

// Nacks returns how many transactions were dropped so far.
func (f *FlakyBus) Nacks() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nacks
}

// SetSpeed implements i2c.Bus.
func (f *FlakyBus) SetSpeed(freq physic.Frequency) error {
	return f.backend.SetSpeed(freq)
}

func (f *FlakyBus) String() string {
	return "flaky(" + f.backend.String() + ")"
}

var _ i2c.Bus = (*FlakyBus)(nil)
