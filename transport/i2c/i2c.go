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
// Package i2c provides I2C transport implementation for PN532
package i2c

import (
	"fmt"
	"strconv"
	"time"

	pn532 "github.com/ZaparooProject/pn532scan"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

const (
	// DefaultBus is the I2C bus number of the Raspberry Pi header.
	DefaultBus = 1

	// DefaultAddress is the PN532 7-bit I2C address (datasheet says 0x48,
	// which is the 8-bit write address including the R/W bit; periph.io and
	// the Linux kernel expect the 7-bit form: 0x48 >> 1 = 0x24).
	DefaultAddress = 0x24

	// Max clock frequency (400 kHz).
	maxClockFreq = 400 * physic.KiloHertz

	// The first byte of every read is the status byte; bit 0 is set once
	// the chip has a frame ready.
	pn532Ready = 0x01

	defaultWakeDelay    = 500 * time.Millisecond
	defaultPollInterval = 10 * time.Millisecond
)

// Config selects the bus and device address.
type Config struct {
	Bus     int
	Address uint16
}

// DefaultConfig returns bus 1, address 0x24.
func DefaultConfig() Config {
	return Config{Bus: DefaultBus, Address: DefaultAddress}
}

// Transport implements pn532.Transport over an I2C bus. Every read is a
// single bus transaction that starts at the first byte of the pending
// frame, preceded by the status byte.
type Transport struct {
	bus i2c.BusCloser // Held so Close() can release the OS file descriptor
	dev *i2c.Dev

	initHost func() error
	openBus  func(name string) (i2c.BusCloser, error)

	desc   pn532.Descriptor
	config Config

	wakeDelay    time.Duration
	pollInterval time.Duration
}

// New creates an unopened I2C transport.
func New(config Config) *Transport {
	return &Transport{
		config: config,
		desc: pn532.Descriptor{
			ID:            fmt.Sprintf("i2c-%d-0x%x", config.Bus, config.Address),
			Name:          fmt.Sprintf("I2C %d 0x%x", config.Bus, config.Address),
			DisplaySuffix: fmt.Sprintf("I2C Bus %d, Device 0x%x", config.Bus, config.Address),
		},
		initHost: func() error {
			_, err := host.Init()
			return err
		},
		openBus:      i2creg.Open,
		wakeDelay:    defaultWakeDelay,
		pollInterval: defaultPollInterval,
	}
}

// Open initializes the host drivers and opens the bus.
func (t *Transport) Open() error {
	if t.bus != nil {
		return nil
	}
	if err := t.initHost(); err != nil {
		return pn532.NewTransportError("init host", t.desc.ID, err, pn532.ErrorTypePermanent)
	}

	bus, err := t.openBus(strconv.Itoa(t.config.Bus))
	if err != nil {
		return pn532.NewTransportError("open", t.desc.ID, err, pn532.ErrorTypePermanent)
	}

	// Ignore error, continue with default speed
	_ = bus.SetSpeed(maxClockFreq)

	t.bus = bus
	t.dev = &i2c.Dev{Addr: t.config.Address, Bus: bus}
	return nil
}

// Wake gives the chip time to leave power-down; I2C needs no wake bytes.
func (t *Transport) Wake() error {
	if t.dev == nil {
		return pn532.NewTransportClosedError("wake", t.desc.ID)
	}
	time.Sleep(t.wakeDelay)
	return nil
}

// WriteFrame writes a frame in one transaction.
func (t *Transport) WriteFrame(frame []byte) error {
	if t.dev == nil {
		return pn532.NewTransportClosedError("write", t.desc.ID)
	}
	if err := t.dev.Tx(frame, nil); err != nil {
		return pn532.WrapTransportError("write", t.desc.ID, err)
	}
	return nil
}

// WaitReady polls the status byte until the ready bit is set.
func (t *Transport) WaitReady(timeout time.Duration) (bool, error) {
	status := make([]byte, 1)
	return t.pollRead(status, timeout)
}

// ReadExact reads len(buf) bytes after the status byte, retrying until the
// chip reports ready or the timeout elapses.
func (t *Transport) ReadExact(buf []byte, timeout time.Duration) (bool, error) {
	block := make([]byte, len(buf)+1)
	ok, err := t.pollRead(block, timeout)
	if err != nil || !ok {
		return false, err
	}
	copy(buf, block[1:])
	return true, nil
}

func (t *Transport) pollRead(block []byte, timeout time.Duration) (bool, error) {
	if t.dev == nil {
		return false, pn532.NewTransportClosedError("read", t.desc.ID)
	}

	deadline := time.Now().Add(timeout)
	for {
		if err := t.dev.Tx(nil, block); err != nil {
			return false, pn532.WrapTransportError("read", t.desc.ID, err)
		}
		if block[0]&pn532Ready != 0 {
			return true, nil
		}
		if !time.Now().Before(deadline) {
			return false, nil
		}
		time.Sleep(t.pollInterval)
	}
}

// IsOpen reports whether the bus is open.
func (t *Transport) IsOpen() bool {
	return t.bus != nil
}

// Close releases the bus.
func (t *Transport) Close() error {
	if t.bus == nil {
		return nil
	}
	err := t.bus.Close()
	t.bus = nil
	t.dev = nil
	if err != nil {
		return pn532.WrapTransportError("close", t.desc.ID, err)
	}
	return nil
}

// Type returns the transport type
func (*Transport) Type() pn532.TransportType {
	return pn532.TransportI2C
}

// Descriptor identifies the bus and address.
func (t *Transport) Descriptor() pn532.Descriptor {
	return t.desc
}
