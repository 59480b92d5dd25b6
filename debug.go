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
	"fmt"
	"os"
	"time"
)

// debugEnabled gates console debug output
var debugEnabled = os.Getenv("OPENLOG_DEBUG") != "" || os.Getenv("DEBUG") != ""

// Debugf logs a formatted debug message. It always goes to the session log
// when one is open and to stdout only when debugging is enabled.
func Debugf(format string, args ...any) {
	emitDebug(fmt.Sprintf(format, args...))
}

// Debugln logs its operands like fmt.Sprint under the same rules as Debugf.
func Debugln(args ...any) {
	emitDebug(fmt.Sprint(args...))
}

func emitDebug(message string) {
	if w := sessionWriter(); w != nil {
		_, _ = fmt.Fprintf(w, "%s DEBUG: %s\n", time.Now().Format("15:04:05.000"), message)
	}
	if debugEnabled {
		_, _ = fmt.Printf("DEBUG: %s\n", message)
	}
}

// SetDebugEnabled turns console debug output on or off.
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}
