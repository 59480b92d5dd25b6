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

// Package config reads OpenLog device definitions from HCL files:
//
//	device "logger" {
//	  bus          = "/dev/i2c-1"
//	  address      = "0x2A"
//	  escape_char  = 26
//	  escape_count = 3
//	  max_transfer = 32
//	}
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	openlog "github.com/ZaparooProject/go-openlog"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/hashicorp/hcl/v2/hclwrite"
)

// ErrDeviceNotFound is returned by Find for an unknown device name.
var ErrDeviceNotFound = errors.New("device not defined in config")

// Schema is a whole config file.
type Schema struct {
	Device []*DeviceSchema `hcl:"device,block"`
}

// DeviceSchema describes one OpenLog. Unset attributes keep the driver
// defaults.
type DeviceSchema struct {
	Name        string `hcl:"name,label"`
	Bus         string `hcl:"bus,optional"`
	Address     string `hcl:"address,optional"`
	EscapeChar  *int   `hcl:"escape_char,optional"`
	EscapeCount *int   `hcl:"escape_count,optional"`
	MaxTransfer *int   `hcl:"max_transfer,optional"`
}

// ReadSchema loads and decodes an HCL file.
func ReadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the user
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	s := new(Schema)
	return s, s.Decode(data)
}

// Decode parses HCL source into s.
func (s *Schema) Decode(data []byte) error {
	file, diag := hclsyntax.ParseConfig(data, "", hcl.Pos{Line: 1, Column: 1})
	if diag.HasErrors() {
		return diag.Errs()[0]
	}
	diag = gohcl.DecodeBody(file.Body, nil, s)
	if diag.HasErrors() {
		return diag.Errs()[0]
	}
	return nil
}

// Encode renders s as HCL.
func (s *Schema) Encode() []byte {
	f := hclwrite.NewEmptyFile()
	gohcl.EncodeIntoBody(s, f.Body())
	return f.Bytes()
}

// Find returns the device called name. An empty name selects the only
// device of a single-device file.
func (s *Schema) Find(name string) (*DeviceSchema, error) {
	if name == "" && len(s.Device) == 1 {
		return s.Device[0], nil
	}
	for _, ds := range s.Device {
		if ds.Name == name {
			return ds, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrDeviceNotFound, name)
}

// EncodeAsBlock renders a single device block.
func (ds *DeviceSchema) EncodeAsBlock() []byte {
	f := hclwrite.NewEmptyFile()
	f.Body().AppendBlock(gohcl.EncodeAsBlock(ds, "device"))
	return f.Bytes()
}

// ParseAddress reads "0x2A", "42" or "0o52" as a 7-bit address.
func ParseAddress(s string) (uint16, error) {
	n, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("address %q: %w", s, err)
	}
	if n > 0x7F {
		return 0, fmt.Errorf("address %q is not a 7-bit address", s)
	}
	return uint16(n), nil
}

// Options converts the set attributes into Device options. Values are
// range checked here; the rest is left to openlog.New.
func (ds *DeviceSchema) Options() ([]openlog.Option, error) {
	var opts []openlog.Option

	if ds.Address != "" {
		addr, err := ParseAddress(ds.Address)
		if err != nil {
			return nil, fmt.Errorf("device %q: %w", ds.Name, err)
		}
		opts = append(opts, openlog.WithAddress(addr))
	}

	if ds.EscapeChar != nil || ds.EscapeCount != nil {
		char, count := int(openlog.DefaultEscapeChar), openlog.DefaultEscapeCount
		if ds.EscapeChar != nil {
			char = *ds.EscapeChar
		}
		if ds.EscapeCount != nil {
			count = *ds.EscapeCount
		}
		if char < 0 || char > 0xFF {
			return nil, fmt.Errorf("device %q: escape_char %d is not a byte", ds.Name, char)
		}
		opts = append(opts, openlog.WithEscape(byte(char), count))
	}

	if ds.MaxTransfer != nil {
		opts = append(opts, openlog.WithMaxTransfer(*ds.MaxTransfer))
	}
	return opts, nil
}
