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

import "time"

// Transport is the capability set the command session needs from a
// physical bus. Implementations exist for I2C, SPI and UART.
//
// A Transport is used by a single Connection and is not safe for
// concurrent use.
type Transport interface {
	// Open claims the bus. It is called once, under the bus guard.
	Open() error

	// Wake runs the bus-specific wake sequence.
	Wake() error

	// WriteFrame writes an encoded frame.
	WriteFrame(frame []byte) error

	// WaitReady blocks until the chip signals that data is available or
	// the timeout elapses.
	WaitReady(timeout time.Duration) (bool, error)

	// ReadExact fills buf within the timeout. It returns false on timeout;
	// partial data is discarded. Bus faults are returned as errors.
	ReadExact(buf []byte, timeout time.Duration) (bool, error)

	// IsOpen reports whether the bus is currently claimed.
	IsOpen() bool

	// Close releases the bus. Closing a closed transport is a no-op.
	Close() error

	// Type returns the transport type
	Type() TransportType

	// Descriptor identifies the bus and device address.
	Descriptor() Descriptor
}

// WriteHooks is implemented by transports that need to frame every write,
// such as chip-select gating. PreWrite runs immediately before WriteFrame
// and PostWrite immediately after it.
type WriteHooks interface {
	PreWrite() error
	PostWrite() error
}

// TransportType represents the type of transport
type TransportType string

const (
	// TransportUART represents UART/serial transport.
	TransportUART TransportType = "uart"
	// TransportI2C represents I2C bus transport.
	TransportI2C TransportType = "i2c"
	// TransportSPI represents SPI bus transport.
	TransportSPI TransportType = "spi"
	// TransportMock represents a mock transport for testing
	TransportMock TransportType = "mock"
)

// Descriptor names a transport instance.
type Descriptor struct {
	// ID is a stable machine identifier, e.g. "i2c-1-0x24".
	ID string
	// Name is a short label, e.g. "I2C 1 0x24".
	Name string
	// DisplaySuffix is appended to the chip model in display names,
	// e.g. "I2C Bus 1, Device 0x24".
	DisplaySuffix string
}

// TransportCapability represents specific capabilities or behaviors of a transport
type TransportCapability string

const (
	// CapabilityIncrementalRead indicates a stream bus where consecutive
	// reads continue where the previous one stopped. Block buses (I2C, SPI)
	// restart every read transaction at the first byte of the frame, so a
	// response must be read in one transaction.
	CapabilityIncrementalRead TransportCapability = "incremental_read"
)

// TransportCapabilityChecker defines an interface for querying transport capabilities
type TransportCapabilityChecker interface {
	// HasCapability returns true if the transport has the specified capability
	HasCapability(capability TransportCapability) bool
}

// HasCapability reports whether t declares the capability.
func HasCapability(t Transport, capability TransportCapability) bool {
	checker, ok := t.(TransportCapabilityChecker)
	return ok && checker.HasCapability(capability)
}
