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

/*
Package openlog drives a SparkFun Qwiic OpenLog, a microSD data logger
commanded over I2C.

The OpenLog runs its own FAT file system. This package only frames
commands (an escape prefix, a verb and up to two options), sends them as one
bus write and reads back the reply: two version bytes, a status byte, four
big-endian bytes for sizes and removal counts, or streamed file contents and
directory entries. Bytes written without the escape prefix are appended to
the open log file.

Any periph.io i2c.Bus works as the transport. On Linux:

	bus, err := i2c.Open("/dev/i2c-1") // transport/i2c
	if err != nil {
	    log.Fatal(err)
	}
	defer bus.Close()

	dev, err := openlog.New(bus)
	if err != nil {
	    log.Fatal(err)
	}
	if err := dev.Init(ctx); err != nil {
	    log.Fatal(err)
	}

	if err := dev.Append(ctx, "data.csv"); err != nil {
	    log.Fatal(err)
	}
	fmt.Fprintf(dev, "%d,%d\n", time.Now().Unix(), reading)

	for name, err := range dev.Entries(ctx, "*.csv") {
	    if err != nil {
	        log.Fatal(err)
	    }
	    fmt.Println(name)
	}

The only failure the OpenLog reports on the wire is a missing ACK, surfaced
as an error matching ErrTransmissionFailed. Whether a command actually did
what was asked (file found, directory created) is visible only in the status
byte from GetStatus. Nothing is retried internally; see RetryWithConfig.

A Device is not safe for concurrent use. Share one through a Guard.
*/
package openlog
