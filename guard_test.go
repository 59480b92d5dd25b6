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
	"sync"
	"testing"

	testutil "github.com/ZaparooProject/go-openlog/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuard_SerializesOperations(t *testing.T) {
	t.Parallel()

	sim := testutil.NewVirtualOpenLog()
	dev, err := New(sim)
	require.NoError(t, err)
	guard := NewGuard(dev)
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name := fmt.Sprintf("w%d.txt", i)
			err := guard.Do(func(d *Device) error {
				if err := d.Append(ctx, name); err != nil {
					return err
				}
				if _, err := fmt.Fprintf(d, "worker %d\n", i); err != nil {
					return err
				}
				size, err := d.Size(ctx, name)
				if err != nil {
					return err
				}
				if int(size) != len(fmt.Sprintf("worker %d\n", i)) {
					return fmt.Errorf("%s: size %d", name, size)
				}
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	for i := range workers {
		data, ok := sim.File(fmt.Sprintf("w%d.txt", i))
		require.True(t, ok)
		assert.Equal(t, fmt.Sprintf("worker %d\n", i), string(data))
	}
}

func TestGuard_ReturnsError(t *testing.T) {
	t.Parallel()

	dev, _ := newMockDevice(t)
	guard := NewGuard(dev)

	err := guard.Do(func(*Device) error { return ErrSDInitFailed })
	require.ErrorIs(t, err, ErrSDInitFailed)
}
