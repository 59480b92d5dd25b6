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

// Package detection finds Qwiic OpenLogs on the host's I2C buses.
package detection

import (
	"context"
	"errors"
	"fmt"
	"time"

	openlog "github.com/ZaparooProject/go-openlog"
	transport "github.com/ZaparooProject/go-openlog/transport/i2c"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// Mode selects which addresses are probed.
type Mode int

const (
	// Safe probes only Options.Addresses.
	Safe Mode = iota
	// Full probes every non-reserved 7-bit address. Other peripherals on
	// the bus receive the probe command as data, so only use it on a bus
	// whose devices tolerate stray writes.
	Full
)

// First and last non-reserved 7-bit addresses
const (
	firstScanAddress = 0x08
	lastScanAddress  = 0x77
)

// Confidence represents the confidence level of device detection
type Confidence int

const (
	// Low: the address acknowledged but no working card was reported
	Low Confidence = iota
	// Medium: the status byte reports a card, the version query failed
	Medium
	// High: status and version both answered
	High
)

func (c Confidence) String() string {
	switch c {
	case Low:
		return "low"
	case Medium:
		return "medium"
	case High:
		return "high"
	default:
		return "unknown"
	}
}

// DeviceInfo describes one detected OpenLog.
type DeviceInfo struct {
	// Extra details such as the firmware version
	Metadata map[string]string
	// Connection path, bus and address ("/dev/i2c-1:0x2A")
	Path string
	// Human-readable device name
	Name       string
	Address    uint16
	Status     openlog.Status
	Confidence Confidence
}

func (d DeviceInfo) String() string {
	return fmt.Sprintf("%s at %s (status %s, confidence: %s)", d.Name, d.Path, d.Status, d.Confidence)
}

// Options configures detection.
type Options struct {
	// Addresses probed in Safe mode (empty = openlog.DefaultAddress)
	Addresses []uint16
	// Bus or device paths to skip ("/dev/i2c-0" or "/dev/i2c-1:0x2A")
	IgnorePaths []string
	// Cache TTL duration
	CacheTTL time.Duration
	// Maximum time to wait for detection
	Timeout time.Duration
	// Detection invasiveness level
	Mode Mode
	// Enable result caching per bus
	EnableCache bool
}

// DefaultOptions returns sensible default detection options
func DefaultOptions() Options {
	return Options{
		Mode:        Safe,
		Addresses:   []uint16{openlog.DefaultAddress},
		Timeout:     5 * time.Second,
		EnableCache: true,
		CacheTTL:    30 * time.Second,
	}
}

// Errors
var (
	// ErrNoDevicesFound indicates no OpenLog answered
	ErrNoDevicesFound = errors.New("no OpenLog devices found")
	// ErrDetectionTimeout indicates detection timed out
	ErrDetectionTimeout = errors.New("detection timeout")
)

const deviceName = "Qwiic OpenLog"

// Probe checks for an OpenLog at addr. A transmission failure means nothing
// answered there.
func Probe(ctx context.Context, bus i2c.Bus, addr uint16) (DeviceInfo, error) {
	dev, err := openlog.New(bus, openlog.WithAddress(addr))
	if err != nil {
		return DeviceInfo{}, err
	}

	status, err := dev.GetStatus(ctx)
	if err != nil {
		return DeviceInfo{}, err
	}

	info := DeviceInfo{
		Path:       transport.FormatPath(bus.String(), addr),
		Name:       deviceName,
		Address:    addr,
		Status:     status,
		Confidence: Low,
		Metadata:   map[string]string{},
	}
	if !status.SDInitGood() || status.Reserved() != 0 {
		return info, nil
	}

	info.Confidence = Medium
	version, err := dev.GetFirmwareVersion(ctx)
	if err != nil {
		openlog.Debugf("probe 0x%02X: version query failed: %v", addr, err)
		return info, nil
	}
	info.Confidence = High
	info.Metadata["firmware"] = version.Version
	return info, nil
}

// addresses returns the addresses a scan with opts visits.
func (opts *Options) addresses() []uint16 {
	if opts.Mode == Full {
		addrs := make([]uint16, 0, lastScanAddress-firstScanAddress+1)
		for addr := uint16(firstScanAddress); addr <= lastScanAddress; addr++ {
			addrs = append(addrs, addr)
		}
		return addrs
	}
	if len(opts.Addresses) == 0 {
		return []uint16{openlog.DefaultAddress}
	}
	return opts.Addresses
}

// Scan probes bus at the addresses opts selects. Addresses that do not
// acknowledge are skipped; ErrNoDevicesFound is returned when none did.
func Scan(ctx context.Context, bus i2c.Bus, opts *Options) ([]DeviceInfo, error) {
	if opts == nil {
		defaults := DefaultOptions()
		opts = &defaults
	}
	return scanPath(ctx, bus, bus.String(), opts)
}

// scanPath is Scan with the bus known by path in results and IgnorePaths.
func scanPath(ctx context.Context, bus i2c.Bus, path string, opts *Options) ([]DeviceInfo, error) {
	var devices []DeviceInfo
	for _, addr := range opts.addresses() {
		devicePath := transport.FormatPath(path, addr)
		if IsPathIgnored(devicePath, opts.IgnorePaths) {
			continue
		}
		info, err := Probe(ctx, bus, addr)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return devices, ctxErr
		}
		if errors.Is(err, openlog.ErrTransmissionFailed) {
			continue
		}
		if err != nil {
			return devices, err
		}
		info.Path = devicePath
		devices = append(devices, info)
	}

	if len(devices) == 0 {
		return nil, ErrNoDevicesFound
	}
	return devices, nil
}

type scanResult struct {
	err     error
	devices []DeviceInfo
}

// DetectAll scans every I2C bus registered with periph.io.
func DetectAll(ctx context.Context, opts *Options) ([]DeviceInfo, error) {
	if opts == nil {
		defaults := DefaultOptions()
		opts = &defaults
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}
	return detectOn(ctx, i2creg.All(), opts)
}

// detectOn scans refs in parallel, one goroutine per bus.
func detectOn(ctx context.Context, refs []*i2creg.Ref, opts *Options) ([]DeviceInfo, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	results := make(chan scanResult, len(refs))
	for _, ref := range refs {
		go func() {
			results <- scanRef(ctx, ref, opts)
		}()
	}

	var devices []DeviceInfo
	var errs []error
	for range refs {
		select {
		case res := <-results:
			if res.err != nil {
				errs = append(errs, res.err)
			}
			devices = append(devices, res.devices...)
		case <-ctx.Done():
			return nil, ErrDetectionTimeout
		}
	}

	if len(devices) > 0 {
		return devices, nil
	}
	if len(errs) > 0 {
		return nil, errs[0]
	}
	return nil, ErrNoDevicesFound
}

func refPath(ref *i2creg.Ref) string {
	if len(ref.Aliases) > 0 {
		return ref.Aliases[0]
	}
	return ref.Name
}

func scanRef(ctx context.Context, ref *i2creg.Ref, opts *Options) scanResult {
	path := refPath(ref)
	if IsPathIgnored(path, opts.IgnorePaths) {
		return scanResult{}
	}
	key := newCacheKey(path, opts.addresses())
	if opts.EnableCache {
		if cached, ok := getCached(key, opts.CacheTTL); ok {
			return scanResult{devices: filterDevices(cached, opts)}
		}
	}

	bus, err := ref.Open()
	if err != nil {
		return scanResult{err: fmt.Errorf("failed to open I2C bus %s: %w", path, err)}
	}
	defer func() {
		if closeErr := bus.Close(); closeErr != nil {
			openlog.Debugf("close %s: %v", path, closeErr)
		}
	}()

	devices, err := scanPath(ctx, bus, path, opts)
	if err != nil && !errors.Is(err, ErrNoDevicesFound) {
		return scanResult{err: err}
	}

	if opts.EnableCache {
		if len(devices) > 0 {
			setCached(key, devices)
		} else {
			clearCacheForBus(path)
		}
	}
	return scanResult{devices: devices}
}

// Best returns the device with the highest confidence, the earliest one on
// a tie. ok is false when none reaches minimum.
func Best(devices []DeviceInfo, minimum Confidence) (best DeviceInfo, ok bool) {
	for _, device := range devices {
		if device.Confidence < minimum {
			continue
		}
		if !ok || device.Confidence > best.Confidence {
			best, ok = device, true
		}
	}
	return best, ok
}

// filterDevices applies IgnorePaths to cached results.
func filterDevices(devices []DeviceInfo, opts *Options) []DeviceInfo {
	if len(opts.IgnorePaths) == 0 {
		return devices
	}
	var filtered []DeviceInfo
	for _, device := range devices {
		if !IsPathIgnored(device.Path, opts.IgnorePaths) {
			filtered = append(filtered, device)
		}
	}
	return filtered
}
