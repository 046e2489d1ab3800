// Copyright 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pn532

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const defaultTraceSize = 16

// TraceDirection indicates the direction of wire data
type TraceDirection string

const (
	// TraceTX is host to chip
	TraceTX TraceDirection = "TX"
	// TraceRX is chip to host
	TraceRX TraceDirection = "RX"
)

// TraceEntry is one frame written or read, or a wait that timed out.
type TraceEntry struct {
	Timestamp time.Time
	Direction TraceDirection
	Note      string
	Data      []byte
	Timeout   bool
}

func (e TraceEntry) body() string {
	if e.Timeout {
		return "timeout waiting for " + e.Note
	}
	if e.Note == "" {
		return FormatHex(e.Data)
	}
	return FormatHex(e.Data) + " (" + e.Note + ")"
}

// String formats the entry with its timestamp.
func (e TraceEntry) String() string {
	return fmt.Sprintf("[%s] %s: %s", e.Timestamp.Format("15:04:05.000"), e.Direction, e.body())
}

// TraceableError carries the wire trace of the exchange that failed.
// Use GetTrace or errors.As to reach it:
//
//	if te := pn532.GetTrace(err); te != nil {
//	    log.Print(te.FormatTrace())
//	}
type TraceableError struct {
	Err       error
	Transport string
	Port      string
	Trace     []TraceEntry
}

func (e *TraceableError) Error() string {
	return e.Err.Error()
}

func (e *TraceableError) Unwrap() error {
	return e.Err
}

// FormatTrace renders the trace one frame per line, ">" for TX and "<"
// for RX.
func (e *TraceableError) FormatTrace() string {
	if len(e.Trace) == 0 {
		return fmt.Sprintf("[%s:%s] (no trace data)", e.Transport, e.Port)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s:%s] Wire trace (%d entries):\n", e.Transport, e.Port, len(e.Trace))
	for _, entry := range e.Trace {
		arrow := ">"
		if entry.Direction == TraceRX {
			arrow = "<"
		}
		fmt.Fprintf(&sb, "  %s %s\n", arrow, entry.body())
	}
	return sb.String()
}

// GetTrace returns the trace attached to err, or nil.
func GetTrace(err error) *TraceableError {
	var te *TraceableError
	if errors.As(err, &te) {
		return te
	}
	return nil
}

// TraceBuffer is a ring of the most recent wire operations of one
// connection. It is not safe for concurrent use; the connection mutex
// guards it.
type TraceBuffer struct {
	transport string
	port      string
	ring      []TraceEntry
	next      int
	full      bool
}

// NewTraceBuffer creates a buffer holding up to size entries. A
// non-positive size selects 16.
func NewTraceBuffer(transport, port string, size int) *TraceBuffer {
	if size <= 0 {
		size = defaultTraceSize
	}
	return &TraceBuffer{
		transport: transport,
		port:      port,
		ring:      make([]TraceEntry, size),
	}
}

// RecordTX records a frame written to the chip.
func (tb *TraceBuffer) RecordTX(data []byte, note string) {
	tb.push(TraceEntry{Direction: TraceTX, Data: append([]byte(nil), data...), Note: note})
}

// RecordRX records a frame read from the chip.
func (tb *TraceBuffer) RecordRX(data []byte, note string) {
	tb.push(TraceEntry{Direction: TraceRX, Data: append([]byte(nil), data...), Note: note})
}

// RecordTimeout records a read that gave up waiting for what.
func (tb *TraceBuffer) RecordTimeout(what string) {
	tb.push(TraceEntry{Direction: TraceRX, Note: what, Timeout: true})
}

func (tb *TraceBuffer) push(entry TraceEntry) {
	entry.Timestamp = time.Now()
	tb.ring[tb.next] = entry
	tb.next = (tb.next + 1) % len(tb.ring)
	if tb.next == 0 {
		tb.full = true
	}
}

// Entries returns the recorded entries, oldest first.
func (tb *TraceBuffer) Entries() []TraceEntry {
	if !tb.full {
		return append([]TraceEntry(nil), tb.ring[:tb.next]...)
	}
	out := make([]TraceEntry, 0, len(tb.ring))
	out = append(out, tb.ring[tb.next:]...)
	return append(out, tb.ring[:tb.next]...)
}

// Clear drops all entries.
func (tb *TraceBuffer) Clear() {
	clear(tb.ring)
	tb.next = 0
	tb.full = false
}

// WrapError attaches a snapshot of the buffer to err. A nil err stays nil.
func (tb *TraceBuffer) WrapError(err error) error {
	if err == nil {
		return nil
	}
	return &TraceableError{
		Err:       err,
		Transport: tb.transport,
		Port:      tb.port,
		Trace:     tb.Entries(),
	}
}
