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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	openlog "github.com/ZaparooProject/go-openlog"
	"github.com/ZaparooProject/go-openlog/detection"
	"github.com/ZaparooProject/go-openlog/pkg/busmod"
	"github.com/ZaparooProject/go-openlog/pkg/config"
	transport "github.com/ZaparooProject/go-openlog/transport/i2c"
	"github.com/loopholelabs/logging"
	"github.com/loopholelabs/logging/types"
	"github.com/spf13/cobra"
	"periph.io/x/conn/v3/i2c"
)

// app carries the persistent flags and the hooks tests replace.
type app struct {
	openBus    func(path string) (i2c.BusCloser, error)
	detect     func(ctx context.Context, opts *detection.Options) ([]detection.DeviceInfo, error)
	traceOut   io.Writer
	configPath string
	deviceName string
	busPath    string
	address    string
	sessionLog string
	retries    int
	debug      bool
	trace      bool
}

func newApp() *app {
	return &app{
		openBus:  transport.Open,
		detect:   detection.DetectAll,
		traceOut: os.Stderr,
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "openlog",
		Short:         "Talk to a Qwiic OpenLog over I2C.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if a.debug {
				openlog.SetDebugEnabled(true)
			}
			if a.sessionLog != "" {
				path, err := openlog.InitSessionLog(a.sessionLog)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Session log: %s\n", path)
			}
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return openlog.CloseSessionLog()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "HCL device configuration file")
	flags.StringVarP(&a.deviceName, "device", "d", "", "Device name in the configuration file")
	flags.StringVarP(&a.busPath, "bus", "b", "", "I2C bus, optionally with address (/dev/i2c-1:0x2A); auto-detect if empty")
	flags.StringVarP(&a.address, "address", "a", "", "Peripheral address (default 0x2A)")
	flags.IntVar(&a.retries, "retries", 3, "Attempts at the initial status probe")
	flags.BoolVar(&a.debug, "debug", false, "Enable debug output")
	flags.BoolVar(&a.trace, "trace", false, "Log every bus transaction")
	flags.StringVar(&a.sessionLog, "session-log", "", "Write a debug session log into this directory")

	root.AddCommand(
		newStatusCmd(a),
		newVersionCmd(a),
		newListCmd(a),
		newCatCmd(a),
		newSizeCmd(a),
		newRemoveCmd(a),
		newMkdirCmd(a),
		newChdirCmd(a),
		newCreateCmd(a),
		newAppendCmd(a),
		newSetAddressCmd(a),
		newLogCmd(a),
		newDetectCmd(a),
	)
	return root
}

// target resolves where the OpenLog is: the config file first, then the
// address suffix of --bus, then --address.
func (a *app) target(ctx context.Context) (string, []openlog.Option, error) {
	var busPath string
	var opts []openlog.Option

	if a.configPath != "" {
		schema, err := config.ReadSchema(a.configPath)
		if err != nil {
			return "", nil, err
		}
		ds, err := schema.Find(a.deviceName)
		if err != nil {
			return "", nil, err
		}
		dsOpts, err := ds.Options()
		if err != nil {
			return "", nil, err
		}
		busPath = ds.Bus
		opts = append(opts, dsOpts...)
	}

	if a.busPath != "" {
		busPath = a.busPath
	}

	if busPath == "" && a.configPath == "" {
		detectOpts := detection.DefaultOptions()
		devices, err := a.detect(ctx, &detectOpts)
		if err != nil {
			return "", nil, fmt.Errorf("no --bus given and auto-detection failed: %w", err)
		}
		best, ok := detection.Best(devices, detection.Medium)
		if !ok {
			return "", nil, fmt.Errorf("auto-detection found %d device(s) but none reported a working card: %w",
				len(devices), detection.ErrNoDevicesFound)
		}
		openlog.Debugf("auto-detected %s", best)
		busPath = best.Path
	}

	if _, addr, ok := transport.ParsePath(busPath); ok {
		opts = append(opts, openlog.WithAddress(addr))
	}
	if a.address != "" {
		addr, err := config.ParseAddress(a.address)
		if err != nil {
			return "", nil, err
		}
		opts = append(opts, openlog.WithAddress(addr))
	}
	return busPath, opts, nil
}

// connect opens the bus, wraps it for tracing and metrics, and checks the
// OpenLog is ready. The returned func closes the bus.
func (a *app) connect(ctx context.Context, metrics *busmod.Metrics) (*openlog.Device, func(), error) {
	busPath, opts, err := a.target(ctx)
	if err != nil {
		return nil, nil, err
	}

	raw, err := a.openBus(busPath)
	if err != nil {
		return nil, nil, err
	}
	closeBus := func() {
		if err := raw.Close(); err != nil {
			openlog.Debugf("close bus: %v", err)
		}
	}

	var bus i2c.Bus = raw
	if metrics != nil {
		bus = metrics.Wrap(bus)
	}
	if a.trace {
		log := logging.New(logging.Zerolog, "openlog", a.traceOut)
		log.SetLevel(types.TraceLevel)
		bus = busmod.NewLogger(bus, busPath, log)
	}

	dev, err := openlog.New(bus, opts...)
	if err != nil {
		closeBus()
		return nil, nil, err
	}

	retry := openlog.DefaultRetryConfig()
	retry.MaxAttempts = a.retries
	if err := openlog.RetryWithConfig(ctx, retry, func() error { return dev.Init(ctx) }); err != nil {
		closeBus()
		return nil, nil, fmt.Errorf("OpenLog at 0x%02X: %w", dev.Address(), err)
	}
	return dev, closeBus, nil
}

// withDevice runs fn against a connected Device.
func (a *app) withDevice(cmd *cobra.Command, fn func(ctx context.Context, dev *openlog.Device) error) error {
	ctx := cmd.Context()
	dev, closeBus, err := a.connect(ctx, nil)
	if err != nil {
		return err
	}
	defer closeBus()
	return fn(ctx, dev)
}

// errNoSuchFile is reported when size answers -1.
var errNoSuchFile = errors.New("no such file")
