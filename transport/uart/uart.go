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
// Package uart provides UART transport implementation for PN532
package uart

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"runtime"
	"strings"
	"time"

	pn532 "github.com/ZaparooProject/pn532scan"
	"go.bug.st/serial"
)

const (
	// DefaultDevice is the Raspberry Pi primary UART.
	DefaultDevice = "/dev/ttyAMA0"

	// DefaultBaudRate is the PN532 HSU default.
	DefaultBaudRate = 115200

	// Serial read timeout; ReadExact polls at this granularity.
	readPollTimeout = 10 * time.Millisecond
)

// Over UART the PN532 must be woken by a 0x55 preamble followed by padding
var wakeSequence = []byte{0x55, 0x55, 0x00, 0x00, 0x00}

// Config selects the serial device and speed.
type Config struct {
	Device   string
	BaudRate int
}

// DefaultConfig returns /dev/ttyAMA0 at 115200 baud.
func DefaultConfig() Config {
	return Config{Device: DefaultDevice, BaudRate: DefaultBaudRate}
}

// port is the part of serial.Port the transport uses.
type port interface {
	io.ReadWriteCloser
	Drain() error
	ResetInputBuffer() error
	SetReadTimeout(t time.Duration) error
}

// Transport implements the pn532.Transport interface for UART communication.
// A serial line has no ready signal, so reads accumulate bytes as they
// arrive and the connection reads frames incrementally.
type Transport struct {
	port     port
	openPort func(name string, mode *serial.Mode) (port, error)
	desc     pn532.Descriptor
	config   Config
}

// New creates an unopened UART transport.
func New(config Config) *Transport {
	if config.BaudRate == 0 {
		config.BaudRate = DefaultBaudRate
	}
	return &Transport{
		config: config,
		desc: pn532.Descriptor{
			ID:            "serial-" + config.Device,
			Name:          "Serial " + config.Device,
			DisplaySuffix: "Serial Device " + config.Device,
		},
		openPort: func(name string, mode *serial.Mode) (port, error) {
			return serial.Open(name, mode)
		},
	}
}

// Open opens the serial device at 8N1.
func (t *Transport) Open() error {
	if t.port != nil {
		return nil
	}

	p, err := t.openPort(t.config.Device, &serial.Mode{
		BaudRate: t.config.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return pn532.NewTransportError("open", t.desc.ID, classifyOpenError(err), pn532.ErrorTypePermanent)
	}

	if err := p.SetReadTimeout(readPollTimeout); err != nil {
		_ = p.Close()
		return pn532.NewTransportError("set read timeout", t.desc.ID, err, pn532.ErrorTypePermanent)
	}

	t.port = p
	return nil
}

func classifyOpenError(err error) error {
	var portErr *serial.PortError
	notFound := errors.As(err, &portErr) && portErr.Code() == serial.PortNotFound
	if notFound || errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %w", pn532.ErrDeviceNotFound, err)
	}
	return err
}

// Wake sends the wake sequence, waits for it to leave the UART and
// discards whatever the chip sent before waking.
func (t *Transport) Wake() error {
	if t.port == nil {
		return pn532.NewTransportClosedError("wake", t.desc.ID)
	}
	if err := t.write("wake", wakeSequence); err != nil {
		return err
	}
	return t.discardInput("wake")
}

// PreWrite drops stale input so the next read starts at the ACK.
func (t *Transport) PreWrite() error {
	if t.port == nil {
		return pn532.NewTransportClosedError("write", t.desc.ID)
	}
	return t.discardInput("write")
}

// WriteFrame writes the frame and waits for it to be transmitted.
func (t *Transport) WriteFrame(frame []byte) error {
	if t.port == nil {
		return pn532.NewTransportClosedError("write", t.desc.ID)
	}
	return t.write("write", frame)
}

// PostWrite gives the Windows serial driver time to flush its buffers.
func (*Transport) PostWrite() error {
	windowsPostWriteDelay()
	return nil
}

func (t *Transport) write(op string, data []byte) error {
	n, err := t.port.Write(data)
	if err != nil {
		return pn532.WrapTransportError(op, t.desc.ID, err)
	}
	if n != len(data) {
		return pn532.NewTransportWriteError(op, t.desc.ID)
	}
	return t.drainWithRetry(op)
}

func (t *Transport) discardInput(op string) error {
	if err := t.port.ResetInputBuffer(); err != nil {
		return pn532.WrapTransportError(op, t.desc.ID, err)
	}
	return nil
}

// WaitReady always reports ready; readiness shows as bytes arriving.
func (t *Transport) WaitReady(time.Duration) (bool, error) {
	if t.port == nil {
		return false, pn532.NewTransportClosedError("read", t.desc.ID)
	}
	return true, nil
}

// ReadExact accumulates bytes until buf is full or the timeout elapses.
// Bytes read before a timeout are discarded with it.
func (t *Transport) ReadExact(buf []byte, timeout time.Duration) (bool, error) {
	if t.port == nil {
		return false, pn532.NewTransportClosedError("read", t.desc.ID)
	}

	deadline := time.Now().Add(timeout)
	total := 0
	for total < len(buf) {
		n, err := t.port.Read(buf[total:])
		if err != nil {
			return false, pn532.WrapTransportError("read", t.desc.ID, err)
		}
		total += n
		if total < len(buf) && !time.Now().Before(deadline) {
			return false, nil
		}
	}
	return true, nil
}

// IsOpen reports whether the serial device is open.
func (t *Transport) IsOpen() bool {
	return t.port != nil
}

// Close closes the serial device.
func (t *Transport) Close() error {
	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	if err != nil {
		return pn532.WrapTransportError("close", t.desc.ID, err)
	}
	return nil
}

// Type returns the transport type
func (*Transport) Type() pn532.TransportType {
	return pn532.TransportUART
}

// Descriptor identifies the serial device.
func (t *Transport) Descriptor() pn532.Descriptor {
	return t.desc
}

// HasCapability implements the TransportCapabilityChecker interface
func (*Transport) HasCapability(capability pn532.TransportCapability) bool {
	return capability == pn532.CapabilityIncrementalRead
}

// isWindows returns true if running on Windows
func isWindows() bool {
	return runtime.GOOS == "windows"
}

// windowsPostWriteDelay adds Windows-specific delay after write operations
func windowsPostWriteDelay() {
	if isWindows() {
		time.Sleep(15 * time.Millisecond) // Windows needs time for buffer flushing
	}
}

// isInterruptedSystemCall checks if an error is caused by an interrupted system call
func isInterruptedSystemCall(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "interrupted system call") ||
		strings.Contains(errStr, "eintr")
}

// drainWithRetry performs port drain with retry logic for interrupted system calls
func (t *Transport) drainWithRetry(op string) error {
	const maxRetries = 3
	baseDelay := 2 * time.Millisecond

	var err error
	for attempt := range maxRetries {
		err = t.port.Drain()
		if err == nil {
			return nil
		}
		if !isInterruptedSystemCall(err) {
			break
		}
		if attempt < maxRetries-1 {
			time.Sleep(baseDelay * time.Duration(1<<attempt)) // 2ms, 4ms
		}
	}
	return pn532.WrapTransportError(op+" drain", t.desc.ID, err)
}

// Ensure Transport implements pn532.Transport
var (
	_ pn532.Transport                  = (*Transport)(nil)
	_ pn532.WriteHooks                 = (*Transport)(nil)
	_ pn532.TransportCapabilityChecker = (*Transport)(nil)
)
