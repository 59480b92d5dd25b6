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
	"fmt"
	"io"

	openlog "github.com/ZaparooProject/go-openlog"
	"github.com/ZaparooProject/go-openlog/pkg/config"
	"github.com/spf13/cobra"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the status byte",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withDevice(cmd, func(ctx context.Context, dev *openlog.Device) error {
				status, err := dev.GetStatus(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(out, "Status:         %s\n", status)
				_, _ = fmt.Fprintf(out, "SD card:        %s\n", yesNo(status.SDInitGood()))
				_, _ = fmt.Fprintf(out, "Last command:   %s\n", lastCommand(status))
				_, _ = fmt.Fprintf(out, "File open:      %s\n", yesNo(status.FileOpen()))
				_, _ = fmt.Fprintf(out, "Root directory: %s\n", yesNo(status.InRootDirectory()))
				return nil
			})
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func lastCommand(s openlog.Status) string {
	switch {
	case !s.LastCommandKnown():
		return "unknown"
	case s.LastCommandSucceeded():
		return "succeeded"
	default:
		return "failed"
	}
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the firmware version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withDevice(cmd, func(ctx context.Context, dev *openlog.Device) error {
				version, err := dev.GetFirmwareVersion(ctx)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "OpenLog firmware %s\n", version)
				return nil
			})
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ls [pattern]",
		Short: "List the current directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := ""
			if len(args) == 1 {
				pattern = args[0]
			}
			return a.withDevice(cmd, func(ctx context.Context, dev *openlog.Device) error {
				for name, err := range dev.Entries(ctx, pattern) {
					if err != nil {
						return err
					}
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			})
		},
	}
}

// fileSize returns the size of name, or errNoSuchFile.
func fileSize(ctx context.Context, dev *openlog.Device, name string) (int32, error) {
	size, err := dev.Size(ctx, name)
	if err != nil {
		return 0, err
	}
	if size < 0 {
		return 0, fmt.Errorf("%s: %w", name, errNoSuchFile)
	}
	return size, nil
}

func newCatCmd(a *app) *cobra.Command {
	var offset int
	cmd := &cobra.Command{
		Use:   "cat <file>",
		Short: "Print a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			return a.withDevice(cmd, func(ctx context.Context, dev *openlog.Device) error {
				size, err := fileSize(ctx, dev, name)
				if err != nil {
					return err
				}
				if offset >= int(size) {
					return nil
				}
				buf := make([]byte, int(size)-offset)
				if err := dev.Read(ctx, buf, name, offset); err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(buf)
				return err
			})
		},
	}
	cmd.Flags().IntVar(&offset, "offset", 0, "Start reading at this byte")
	return cmd
}

func newSizeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "size <file>",
		Short: "Print the size of a file in bytes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDevice(cmd, func(ctx context.Context, dev *openlog.Device) error {
				size, err := fileSize(ctx, dev, args[0])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), size)
				return nil
			})
		},
	}
}

func newRemoveCmd(a *app) *cobra.Command {
	var recursive bool
	cmd := &cobra.Command{
		Use:   "rm [-r] <path>",
		Short: "Remove files or directories; wildcards allowed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDevice(cmd, func(ctx context.Context, dev *openlog.Device) error {
				count, err := dev.Remove(ctx, args[0], recursive)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed %d\n", count)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Remove directories and their contents")
	return cmd
}

// simpleCmd builds a command taking one name and reporting nothing.
func simpleCmd(a *app, use, short string, op func(*openlog.Device, context.Context, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDevice(cmd, func(ctx context.Context, dev *openlog.Device) error {
				return op(dev, ctx, args[0])
			})
		},
	}
}

func newMkdirCmd(a *app) *cobra.Command {
	return simpleCmd(a, "md <dir>", "Create a directory", (*openlog.Device).MakeDirectory)
}

func newChdirCmd(a *app) *cobra.Command {
	return simpleCmd(a, "cd <dir>", "Change the working directory", (*openlog.Device).ChangeDirectory)
}

func newCreateCmd(a *app) *cobra.Command {
	return simpleCmd(a, "new <file>", "Create an empty file", (*openlog.Device).Create)
}

func newAppendCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "append <file>",
		Short: "Append standard input to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDevice(cmd, func(ctx context.Context, dev *openlog.Device) error {
				if err := dev.Append(ctx, args[0]); err != nil {
					return err
				}
				n, err := io.Copy(dev, cmd.InOrStdin())
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d bytes to %s\n", n, args[0])
				return nil
			})
		},
	}
}

func newSetAddressCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set-address <addr>",
		Short: "Move the OpenLog to a new I2C address",
		Long: "Move the OpenLog to a new I2C address. The peripheral stores it and " +
			"answers only there from then on, including after a power cycle.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := config.ParseAddress(args[0])
			if err != nil {
				return err
			}
			return a.withDevice(cmd, func(ctx context.Context, dev *openlog.Device) error {
				old := dev.Address()
				if err := dev.SetAddress(ctx, addr); err != nil {
					return err
				}
				if _, err := dev.GetStatus(ctx); err != nil {
					return fmt.Errorf("no answer at 0x%02X after the move: %w", addr, err)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Moved 0x%02X -> 0x%02X\n", old, addr)
				return nil
			})
		},
	}
}
