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

package busmod

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// Transaction kinds used as the "kind" label
const (
	kindWrite     = "write"
	kindRead      = "read"
	kindWriteRead = "write_read"
)

// Metrics holds the bus counters. One Metrics can observe several buses;
// each is labelled by its String().
type Metrics struct {
	transactions *prometheus.CounterVec
	failures     *prometheus.CounterVec
	bytesWritten *prometheus.CounterVec
	bytesRead    *prometheus.CounterVec
}

// NewMetrics creates the counters under namespace and registers them.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	m := &Metrics{
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "i2c", Name: "transactions_total", Help: "Bus transactions"}, []string{"bus", "kind"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "i2c", Name: "failures_total", Help: "Failed bus transactions"}, []string{"bus", "kind"}),
		bytesWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "i2c", Name: "written_bytes_total", Help: "Bytes written"}, []string{"bus"}),
		bytesRead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "i2c", Name: "read_bytes_total", Help: "Bytes read"}, []string{"bus"}),
	}

	reg.MustRegister(m.transactions, m.failures, m.bytesWritten, m.bytesRead)
	return m
}

// Wrap returns bus with every transaction counted.
func (m *Metrics) Wrap(bus i2c.Bus) *MeteredBus {
	return &MeteredBus{bus: bus, metrics: m, name: bus.String()}
}

// MeteredBus is an i2c.Bus feeding a Metrics.
type MeteredBus struct {
	bus     i2c.Bus
	metrics *Metrics
	name    string
}

// Tx implements i2c.Bus.
func (b *MeteredBus) Tx(addr uint16, w, r []byte) error {
	kind := kindWriteRead
	switch {
	case len(r) == 0:
		kind = kindWrite
	case len(w) == 0:
		kind = kindRead
	}

	err := b.bus.Tx(addr, w, r)
	b.metrics.transactions.WithLabelValues(b.name, kind).Inc()
	if err != nil {
		b.metrics.failures.WithLabelValues(b.name, kind).Inc()
		return err
	}
	b.metrics.bytesWritten.WithLabelValues(b.name).Add(float64(len(w)))
	b.metrics.bytesRead.WithLabelValues(b.name).Add(float64(len(r)))
	return nil
}

// SetSpeed implements i2c.Bus.
func (b *MeteredBus) SetSpeed(f physic.Frequency) error {
	return b.bus.SetSpeed(f)
}

func (b *MeteredBus) String() string {
	return b.name
}

// Close closes the wrapped bus when it is closable.
func (b *MeteredBus) Close() error {
	if c, ok := b.bus.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

var _ i2c.BusCloser = (*MeteredBus)(nil)
