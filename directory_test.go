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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunk pads s with zeros to a full 32 byte read.
func chunk(s string) []byte {
	buf := make([]byte, DefaultMaxTransfer)
	copy(buf, s)
	return buf
}

func endChunk() []byte {
	buf := make([]byte, DefaultMaxTransfer)
	for i := range buf {
		buf[i] = 0xFF
	}
	return buf
}

func TestDevice_DirectoryListing(t *testing.T) {
	t.Parallel()

	dev, bus := newMockDevice(t, chunk("a.txt\x00"), chunk("b.txt\x00"), endChunk())
	ctx := context.Background()

	require.NoError(t, dev.SearchDirectory(ctx, "*.txt"))
	assert.True(t, dev.Listing())
	assert.Equal(t, [][]byte{escaped("ls *.txt")}, bus.writes())

	var got []string
	for range 3 {
		name, err := dev.NextDirectoryItem(ctx)
		require.NoError(t, err)
		got = append(got, name)
	}

	assert.Equal(t, []string{"a.txt", "b.txt", ""}, got)
	assert.False(t, dev.Listing())
	assert.Equal(t, []int{32, 32, 32}, bus.readLens())
}

func TestDevice_NextDirectoryItem_Idle(t *testing.T) {
	t.Parallel()

	dev, bus := newMockDevice(t)

	name, err := dev.NextDirectoryItem(context.Background())
	require.NoError(t, err)
	assert.Empty(t, name)
	assert.Empty(t, bus.ops, "no bus transaction without a listing")
}

func TestDevice_SearchDirectory_Failure(t *testing.T) {
	t.Parallel()

	dev, bus := newMockDevice(t)
	bus.failAll = true

	err := dev.SearchDirectory(context.Background(), "*")
	require.ErrorIs(t, err, ErrTransmissionFailed)
	assert.False(t, dev.Listing())

	bus.failAll = false
	bus.ops = nil
	name, err := dev.NextDirectoryItem(context.Background())
	require.NoError(t, err)
	assert.Empty(t, name)
	assert.Empty(t, bus.ops)
}

func TestDevice_NextDirectoryItem_ContinuesLongName(t *testing.T) {
	t.Parallel()

	bus := newMockBus([]byte("abcd"), []byte("ef\x00\x00"), []byte{0xFF, 0xFF, 0xFF, 0xFF})
	dev, err := New(bus, WithMaxTransfer(4))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, dev.SearchDirectory(ctx, ""))
	assert.Equal(t, [][]byte{escaped("ls")}, bus.writes())

	name, err := dev.NextDirectoryItem(ctx)
	require.ErrorIs(t, err, ErrNameIncomplete)
	assert.Equal(t, "abcd", name)
	assert.True(t, dev.Listing())

	name, err = dev.NextDirectoryItem(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ef", name)

	name, err = dev.NextDirectoryItem(ctx)
	require.NoError(t, err)
	assert.Empty(t, name)
	assert.False(t, dev.Listing())
}

func TestDevice_NextDirectoryItem_FFOnlyAtStart(t *testing.T) {
	t.Parallel()

	dev, _ := newMockDevice(t, chunk("a\xffb\x00"))
	ctx := context.Background()

	require.NoError(t, dev.SearchDirectory(ctx, "*"))
	name, err := dev.NextDirectoryItem(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a\xffb", name)
	assert.True(t, dev.Listing())
}

func TestDevice_NextDirectoryItem_ReadFailure(t *testing.T) {
	t.Parallel()

	dev, bus := newMockDevice(t)
	ctx := context.Background()

	require.NoError(t, dev.SearchDirectory(ctx, "*"))
	bus.failOn(1)

	_, err := dev.NextDirectoryItem(ctx)
	require.ErrorIs(t, err, ErrTransmissionFailed)
	assert.True(t, dev.Listing(), "listing stays open for the caller to retry or abandon")
}

func TestDevice_Entries(t *testing.T) {
	t.Parallel()

	bus := newMockBus(
		[]byte("one\x00"),
		[]byte("long"), []byte("name"), []byte("\x00\x00\x00\x00"),
		[]byte("dir/"), []byte("\x00\x00\x00\x00"),
		[]byte{0xFF, 0xFF, 0xFF, 0xFF},
	)
	dev, err := New(bus, WithMaxTransfer(4))
	require.NoError(t, err)

	var names []string
	for name, err := range dev.Entries(context.Background(), "*") {
		require.NoError(t, err)
		names = append(names, name)
	}

	assert.Equal(t, []string{"one", "longname", "dir/"}, names)
	assert.False(t, dev.Listing())
}

func TestDevice_Entries_StopEarly(t *testing.T) {
	t.Parallel()

	dev, bus := newMockDevice(t, chunk("a\x00"), chunk("b\x00"), endChunk())

	for name := range dev.Entries(context.Background(), "*") {
		assert.Equal(t, "a", name)
		break
	}
	assert.Equal(t, []int{32}, bus.readLens())
	assert.True(t, dev.Listing())
}

func TestDevice_Entries_CommandFailure(t *testing.T) {
	t.Parallel()

	dev, bus := newMockDevice(t)
	bus.failAll = true

	var errs []error
	for _, err := range dev.Entries(context.Background(), "*") {
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	require.ErrorIs(t, errs[0], ErrTransmissionFailed)
}
