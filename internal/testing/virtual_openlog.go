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

// Package testing provides a simulated Qwiic OpenLog for tests.
//
// VirtualOpenLog implements periph.io's i2c.Bus and answers the OpenLog
// command set against an in-memory file tree: escape-prefixed writes are
// parsed as commands, other writes are appended to the open log file, and
// reads are served from the reply the last command queued.
package testing

import (
	"encoding/binary"
	"errors"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/ZaparooProject/go-openlog/internal/syncutil"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// Defaults matching a factory-fresh Qwiic OpenLog
const (
	DefaultAddress     uint16 = 0x2A
	DefaultEscapeChar  byte   = 26
	DefaultEscapeCount        = 3

	// BootLogName is the file the firmware opens for logging at power-up.
	BootLogName = "LOG00001.TXT"
)

// Status bits reported by "stat"
const (
	statusSDInitGood = 1 << iota
	statusLastCommandSucceeded
	statusLastCommandKnown
	statusFileOpen
	statusInRootDirectory
)

const (
	minUserAddress = 0x08
	maxUserAddress = 0x77
	endOfListing   = 0xFF
)

var (
	// ErrNoAck is returned for transactions the simulator refuses, as a real
	// bus driver reports an address or data NACK.
	ErrNoAck = errors.New("i2c: no ACK from device")
	// ErrBusClosed is returned after Close.
	ErrBusClosed = errors.New("i2c: bus closed")
)

type replyMode int

const (
	replyNone replyMode = iota
	replyFixed
	replyFile
	replyListing
)

// Transaction records one Tx call.
type Transaction struct {
	W       []byte
	Addr    uint16
	ReadLen int
}

// IsRead reports whether the transaction only read.
func (t Transaction) IsRead() bool {
	return len(t.W) == 0 && t.ReadLen > 0
}

// VirtualOpenLog simulates a Qwiic OpenLog at the I2C transaction level.
type VirtualOpenLog struct {
	files        map[string][]byte
	dirs         map[string]bool
	cwd          string
	openFile     string
	reply        []byte
	replyFile    string
	listing      []string
	transactions []Transaction
	mu           syncutil.Mutex
	replyPos     int
	mode         replyMode
	failWrites   int
	failReads    int
	escapeCount  int
	address      uint16
	escapeChar   byte
	versionMajor byte
	versionMinor byte
	sdReady      bool
	lastOK       bool
	lastKnown    bool
	closed       bool
}

// NewVirtualOpenLog creates a simulator at DefaultAddress with a working
// card, firmware 3.1 and BootLogName open in the root directory.
func NewVirtualOpenLog() *VirtualOpenLog {
	v := &VirtualOpenLog{
		files:        make(map[string][]byte),
		dirs:         map[string]bool{"/": true},
		cwd:          "/",
		address:      DefaultAddress,
		escapeChar:   DefaultEscapeChar,
		escapeCount:  DefaultEscapeCount,
		versionMajor: 3,
		versionMinor: 1,
		sdReady:      true,
		lastOK:       true,
		lastKnown:    true,
	}
	v.files["/"+BootLogName] = []byte{}
	v.openFile = "/" + BootLogName
	return v
}

// Tx implements i2c.Bus.
func (v *VirtualOpenLog) Tx(addr uint16, w, r []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.transactions = append(v.transactions, Transaction{
		Addr:    addr,
		W:       append([]byte(nil), w...),
		ReadLen: len(r),
	})

	if v.closed {
		return ErrBusClosed
	}
	if addr != v.address {
		return ErrNoAck
	}

	if len(w) > 0 {
		if v.failWrites > 0 {
			v.failWrites--
			return ErrNoAck
		}
		v.handleWrite(w)
	}

	if len(r) > 0 {
		if v.failReads > 0 {
			v.failReads--
			return ErrNoAck
		}
		v.fillReply(r)
	}
	return nil
}

// SetSpeed implements i2c.Bus.
func (*VirtualOpenLog) SetSpeed(_ physic.Frequency) error {
	return nil
}

// String implements i2c.Bus.
func (*VirtualOpenLog) String() string {
	return "virtual://openlog"
}

// Close implements i2c.BusCloser.
func (v *VirtualOpenLog) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	return nil
}

func (v *VirtualOpenLog) handleWrite(w []byte) {
	if v.escapeCount > 0 && len(w) >= v.escapeCount && isEscape(w[:v.escapeCount], v.escapeChar) {
		v.handleCommand(string(w[v.escapeCount:]))
		return
	}
	if v.openFile != "" && v.sdReady {
		v.files[v.openFile] = append(v.files[v.openFile], w...)
	}
}

func isEscape(prefix []byte, escape byte) bool {
	for _, b := range prefix {
		if b != escape {
			return false
		}
	}
	return true
}

func (v *VirtualOpenLog) handleCommand(line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		v.finish(false, false)
		return
	}

	verb, args := fields[0], fields[1:]
	v.mode = replyNone

	switch verb {
	case "stat":
		// Reports on the previous command, so leaves lastOK/lastKnown alone.
		v.setFixed([]byte{v.status()})
	case "ver":
		v.setFixed([]byte{v.versionMajor, v.versionMinor})
		v.finish(true, true)
	case "adr":
		v.finish(v.cmdAddress(args), true)
	case "append":
		v.finish(v.cmdAppend(args), true)
	case "new":
		v.finish(v.cmdNew(args), true)
	case "md":
		v.finish(v.cmdMkdir(args), true)
	case "cd":
		v.finish(v.cmdChdir(args), true)
	case "size":
		v.finish(v.cmdSize(args), true)
	case "read":
		v.finish(v.cmdRead(args), true)
	case "ls":
		v.finish(v.cmdList(args), true)
	case "rm":
		v.finish(v.cmdRemove(args), true)
	default:
		v.finish(false, false)
	}
}

func (v *VirtualOpenLog) finish(ok, known bool) {
	v.lastOK = ok
	v.lastKnown = known
}

func (v *VirtualOpenLog) status() byte {
	var s byte
	if v.sdReady {
		s |= statusSDInitGood
	}
	if v.lastOK {
		s |= statusLastCommandSucceeded
	}
	if v.lastKnown {
		s |= statusLastCommandKnown
	}
	if v.openFile != "" {
		s |= statusFileOpen
	}
	if v.cwd == "/" {
		s |= statusInRootDirectory
	}
	return s
}

func (v *VirtualOpenLog) setFixed(data []byte) {
	v.mode = replyFixed
	v.reply = data
	v.replyPos = 0
}

func (v *VirtualOpenLog) setCount(n int32) {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(n)) //nolint:gosec // two's complement on the wire
	v.setFixed(buf)
}

func (v *VirtualOpenLog) resolve(name string) string {
	if strings.HasPrefix(name, "/") {
		return path.Clean(name)
	}
	return path.Join(v.cwd, name)
}

func (v *VirtualOpenLog) cmdAddress(args []string) bool {
	if len(args) != 1 {
		return false
	}
	addr, err := strconv.Atoi(args[0])
	if err != nil || addr < minUserAddress || addr > maxUserAddress {
		return false
	}
	v.address = uint16(addr) //nolint:gosec // range checked above
	return true
}

func (v *VirtualOpenLog) cmdAppend(args []string) bool {
	if len(args) != 1 || !v.sdReady {
		return false
	}
	full := v.resolve(args[0])
	if v.dirs[full] || !v.dirs[path.Dir(full)] {
		return false
	}
	if _, ok := v.files[full]; !ok {
		v.files[full] = []byte{}
	}
	v.openFile = full
	return true
}

func (v *VirtualOpenLog) cmdNew(args []string) bool {
	if len(args) != 1 || !v.sdReady {
		return false
	}
	full := v.resolve(args[0])
	if v.dirs[full] || !v.dirs[path.Dir(full)] {
		return false
	}
	if _, ok := v.files[full]; !ok {
		v.files[full] = []byte{}
	}
	return true
}

func (v *VirtualOpenLog) cmdMkdir(args []string) bool {
	if len(args) != 1 || !v.sdReady {
		return false
	}
	full := v.resolve(args[0])
	if _, isFile := v.files[full]; isFile || v.dirs[full] || !v.dirs[path.Dir(full)] {
		return false
	}
	v.dirs[full] = true
	return true
}

func (v *VirtualOpenLog) cmdChdir(args []string) bool {
	if len(args) != 1 {
		return false
	}
	full := v.resolve(args[0])
	if !v.dirs[full] {
		return false
	}
	v.cwd = full
	return true
}

func (v *VirtualOpenLog) cmdSize(args []string) bool {
	if len(args) != 1 {
		v.setCount(-1)
		return false
	}
	data, ok := v.files[v.resolve(args[0])]
	if !ok {
		v.setCount(-1)
		return false
	}
	v.setCount(int32(len(data))) //nolint:gosec // test files are small
	return true
}

func (v *VirtualOpenLog) cmdRead(args []string) bool {
	if len(args) < 1 || len(args) > 2 {
		return false
	}
	full := v.resolve(args[0])
	if _, ok := v.files[full]; !ok {
		return false
	}
	offset := 0
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 0 {
			return false
		}
		offset = n
	}
	v.mode = replyFile
	v.replyFile = full
	v.replyPos = offset
	return true
}

func (v *VirtualOpenLog) cmdList(args []string) bool {
	pattern := "*"
	if len(args) > 0 {
		pattern = args[0]
	}
	if _, err := path.Match(pattern, ""); err != nil {
		return false
	}

	var entries []string
	for _, name := range v.children() {
		base := strings.TrimSuffix(name, "/")
		if ok, _ := path.Match(pattern, base); ok {
			entries = append(entries, name)
		}
	}

	v.mode = replyListing
	v.listing = entries
	v.reply = nil
	return true
}

// children lists the working directory, directories with a trailing slash.
func (v *VirtualOpenLog) children() []string {
	var names []string
	for full := range v.files {
		if path.Dir(full) == v.cwd {
			names = append(names, path.Base(full))
		}
	}
	for full := range v.dirs {
		if full != "/" && path.Dir(full) == v.cwd {
			names = append(names, path.Base(full)+"/")
		}
	}
	sort.Strings(names)
	return names
}

func (v *VirtualOpenLog) cmdRemove(args []string) bool {
	recursive := false
	if len(args) == 2 && args[0] == "-rf" {
		recursive = true
		args = args[1:]
	}
	if len(args) != 1 {
		v.setCount(0)
		return false
	}

	pattern := v.resolve(args[0])
	var removed int32
	for full := range v.files {
		if ok, _ := path.Match(pattern, full); ok {
			delete(v.files, full)
			if full == v.openFile {
				v.openFile = ""
			}
			removed++
		}
	}
	for full := range v.dirs {
		if full == "/" {
			continue
		}
		if ok, _ := path.Match(pattern, full); !ok {
			continue
		}
		if !recursive && v.hasChildren(full) {
			continue
		}
		v.removeTree(full)
		removed++
	}

	v.setCount(removed)
	return removed > 0
}

func (v *VirtualOpenLog) hasChildren(dir string) bool {
	prefix := dir + "/"
	for full := range v.files {
		if strings.HasPrefix(full, prefix) {
			return true
		}
	}
	for full := range v.dirs {
		if strings.HasPrefix(full, prefix) {
			return true
		}
	}
	return false
}

func (v *VirtualOpenLog) removeTree(dir string) {
	prefix := dir + "/"
	for full := range v.files {
		if strings.HasPrefix(full, prefix) {
			delete(v.files, full)
			if full == v.openFile {
				v.openFile = ""
			}
		}
	}
	for full := range v.dirs {
		if full == dir || strings.HasPrefix(full, prefix) {
			delete(v.dirs, full)
		}
	}
	if v.cwd == dir || strings.HasPrefix(v.cwd, prefix) {
		v.cwd = "/"
	}
}

func (v *VirtualOpenLog) fillReply(r []byte) {
	clear(r)

	switch v.mode {
	case replyNone:
	case replyFixed:
		v.replyPos += copy(r, v.reply[min(v.replyPos, len(v.reply)):])
	case replyFile:
		data := v.files[v.replyFile]
		if v.replyPos < len(data) {
			copy(r, data[v.replyPos:])
		}
		v.replyPos += len(r)
	case replyListing:
		v.fillListing(r)
	}
}

// fillListing serves one entry per read request, NUL terminated. An entry
// longer than the request continues in the next one. 0xFF fills every
// request once the entries run out.
func (v *VirtualOpenLog) fillListing(r []byte) {
	if len(v.reply) == 0 {
		if len(v.listing) == 0 {
			for i := range r {
				r[i] = endOfListing
			}
			return
		}
		v.reply = append([]byte(v.listing[0]), 0)
		v.listing = v.listing[1:]
	}
	n := copy(r, v.reply)
	v.reply = v.reply[n:]
}

// SetFirmwareVersion sets the "ver" reply.
func (v *VirtualOpenLog) SetFirmwareVersion(major, minor byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.versionMajor = major
	v.versionMinor = minor
}

// SetSDReady simulates a missing or failed card when ready is false.
func (v *VirtualOpenLog) SetSDReady(ready bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sdReady = ready
}

// SetEscape changes the escape sequence the simulator recognizes.
func (v *VirtualOpenLog) SetEscape(char byte, count int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.escapeChar = char
	v.escapeCount = count
}

// SetAddress moves the simulator to addr without a command.
func (v *VirtualOpenLog) SetAddress(addr uint16) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.address = addr
}

// Address returns the address the simulator answers on.
func (v *VirtualOpenLog) Address() uint16 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.address
}

// FailNextWrites NACKs the next n write transactions.
func (v *VirtualOpenLog) FailNextWrites(n int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.failWrites = n
}

// FailNextReads NACKs the next n read transactions.
func (v *VirtualOpenLog) FailNextReads(n int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.failReads = n
}

// AddFile creates or replaces a file; parent directories must exist.
func (v *VirtualOpenLog) AddFile(name string, data []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	full := v.resolve(name)
	if !v.dirs[path.Dir(full)] {
		return fmt.Errorf("no directory %s", path.Dir(full))
	}
	v.files[full] = append([]byte(nil), data...)
	return nil
}

// AddDir creates a directory and any missing parents.
func (v *VirtualOpenLog) AddDir(name string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for dir := v.resolve(name); dir != "/"; dir = path.Dir(dir) {
		v.dirs[dir] = true
	}
}

// File returns a copy of a file's content.
func (v *VirtualOpenLog) File(name string) ([]byte, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	data, ok := v.files[v.resolve(name)]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}

// HasDir reports whether a directory exists.
func (v *VirtualOpenLog) HasDir(name string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.dirs[v.resolve(name)]
}

// OpenFile returns the absolute path raw writes go to, or "".
func (v *VirtualOpenLog) OpenFile() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.openFile
}

// Cwd returns the working directory.
func (v *VirtualOpenLog) Cwd() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cwd
}

// Transactions returns a copy of every Tx seen so far.
func (v *VirtualOpenLog) Transactions() []Transaction {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]Transaction(nil), v.transactions...)
}

// ResetTransactions forgets recorded transactions.
func (v *VirtualOpenLog) ResetTransactions() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.transactions = nil
}

var _ i2c.BusCloser = (*VirtualOpenLog)(nil)
