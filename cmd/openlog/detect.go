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
	"fmt"

	"github.com/ZaparooProject/go-openlog/detection"
	"github.com/ZaparooProject/go-openlog/pkg/config"
	"github.com/spf13/cobra"
)

func newDetectCmd(a *app) *cobra.Command {
	var full bool
	var ignore []string
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Look for OpenLogs on every I2C bus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := detection.DefaultOptions()
			opts.EnableCache = false
			opts.IgnorePaths = ignore
			if full {
				opts.Mode = detection.Full
			}
			if a.address != "" {
				addr, err := config.ParseAddress(a.address)
				if err != nil {
					return err
				}
				opts.Addresses = []uint16{addr}
			}

			devices, err := a.detect(cmd.Context(), &opts)
			if err != nil {
				return err
			}
			for _, device := range devices {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), device)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "Probe every address instead of --address")
	cmd.Flags().StringSliceVar(&ignore, "ignore", nil, "Bus or device paths to skip")
	return cmd
}
