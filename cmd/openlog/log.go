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
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	openlog "github.com/ZaparooProject/go-openlog"
	"github.com/ZaparooProject/go-openlog/pkg/busmod"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

type logOptions struct {
	metricsAddr  string
	pollInterval time.Duration
}

func newLogCmd(a *app) *cobra.Command {
	opts := &logOptions{}
	cmd := &cobra.Command{
		Use:   "log <file>",
		Short: "Log standard input line by line, watching the card status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runLog(cmd, args[0], opts)
		},
	}
	cmd.Flags().StringVarP(&opts.metricsAddr, "metrics", "m", "", "Serve Prometheus metrics on this address")
	cmd.Flags().DurationVar(&opts.pollInterval, "poll", 5*time.Second, "Status poll interval (0 disables)")
	return cmd
}

func (a *app) runLog(cmd *cobra.Command, name string, opts *logOptions) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var metrics *busmod.Metrics
	if opts.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		metrics = busmod.NewMetrics(reg, "openlog")
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		stop, err := serveMetrics(opts.metricsAddr, reg)
		if err != nil {
			return err
		}
		defer stop()
	}

	dev, closeBus, err := a.connect(ctx, metrics)
	if err != nil {
		return err
	}
	defer closeBus()

	guard := openlog.NewGuard(dev)
	if err := guard.Do(func(d *openlog.Device) error { return d.Append(ctx, name) }); err != nil {
		return err
	}

	errOut := cmd.ErrOrStderr()
	if opts.pollInterval > 0 {
		watchCtx, stopWatch := context.WithCancel(ctx)
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			watchStatus(watchCtx, guard, opts.pollInterval, errOut)
		}()
		defer func() {
			stopWatch()
			wg.Wait()
		}()
	}

	lines, err := copyLines(ctx, guard, cmd.InOrStdin())
	_, _ = fmt.Fprintf(errOut, "Logged %d lines to %s\n", lines, name)
	return err
}

// copyLines writes each input line through the guard, adding a newline to
// a final unterminated line. Lines longer than the read buffer are sent in
// pieces and still count once.
func copyLines(ctx context.Context, guard *openlog.Guard, in io.Reader) (int, error) {
	reader := bufio.NewReader(in)
	write := func(p []byte) error {
		return guard.Do(func(d *openlog.Device) error {
			_, err := d.WriteContext(ctx, p)
			return err
		})
	}

	lines := 0
	partial := false
	for {
		if err := ctx.Err(); err != nil {
			return lines, err
		}
		chunk, readErr := reader.ReadSlice('\n')
		data := make([]byte, len(chunk), len(chunk)+1)
		copy(data, chunk)

		switch {
		case readErr == nil:
			if err := write(data); err != nil {
				return lines, err
			}
			lines++
			partial = false
		case errors.Is(readErr, bufio.ErrBufferFull):
			if err := write(data); err != nil {
				return lines, err
			}
			partial = true
		case errors.Is(readErr, io.EOF):
			if len(data) == 0 && !partial {
				return lines, nil
			}
			if err := write(append(data, '\n')); err != nil {
				return lines, err
			}
			return lines + 1, nil
		default:
			return lines, readErr
		}
	}
}

// watchStatus polls the status byte and reports a lost card or a failed
// command until ctx ends.
func watchStatus(ctx context.Context, guard *openlog.Guard, interval time.Duration, out io.Writer) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		var status openlog.Status
		err := guard.Do(func(d *openlog.Device) error {
			var err error
			status, err = d.GetStatus(ctx)
			return err
		})
		switch {
		case errors.Is(err, context.Canceled):
			return
		case err != nil:
			_, _ = fmt.Fprintf(out, "status poll: %v\n", err)
		case !status.SDInitGood():
			_, _ = fmt.Fprintf(out, "SD card not ready (%s)\n", status)
		case !status.FileOpen():
			_, _ = fmt.Fprintf(out, "no log file open (%s)\n", status)
		}
	}
}

// serveMetrics exposes reg on addr until the returned func is called.
func serveMetrics(addr string, reg *prometheus.Registry) (func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(
		reg,
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
			Registry:          reg,
		},
	))
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			openlog.Debugf("metrics server: %v", err)
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}, nil
}
