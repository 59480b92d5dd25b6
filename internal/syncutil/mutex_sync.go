//go:build !deadlock

// Package syncutil provides the mutex types used by openlog.Guard and the
// test simulator. Plain sync types by default; build with -tags=deadlock to
// swap in github.com/sasha-s/go-deadlock and catch lock-order bugs in code
// sharing a Device.
package syncutil

import "sync"

// Mutex is sync.Mutex unless built with -tags=deadlock.
//
//nolint:gocritic // embedding exposes Lock/Unlock directly
type Mutex struct {
	sync.Mutex
}

// RWMutex is sync.RWMutex unless built with -tags=deadlock.
//
//nolint:gocritic // embedding exposes the full RWMutex API
type RWMutex struct {
	sync.RWMutex
}
