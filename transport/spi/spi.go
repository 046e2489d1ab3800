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
// Package spi provides SPI transport implementation for PN532
package spi

import (
	"fmt"
	"time"

	pn532 "github.com/ZaparooProject/pn532scan"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

const (
	// SPI protocol constants
	spiStatRead  = 0x02
	spiDataWrite = 0x01
	spiDataRead  = 0x03
	spiReady     = 0x01

	// Default SPI settings
	defaultFreq = 1 * physic.MegaHertz
	// CPOL=0, CPHA=0. LSB first is handled by bit reversal; chip select is
	// driven through a GPIO so it can stay asserted across transactions.
	mode = spi.Mode0 | spi.NoCS

	// CSPinCE0 and CSPinCE1 are the BCM numbers of the Raspberry Pi
	// hardware chip-select lines.
	CSPinCE0 = 8
	CSPinCE1 = 7

	// DefaultChannel is the SPI channel of the Raspberry Pi header.
	DefaultChannel = 0

	defaultCSSettle     = 2 * time.Millisecond
	defaultPollInterval = 10 * time.Millisecond
)

// Config selects the SPI port and chip-select pin. An empty Port means
// "SPI0.<Channel>"; an empty CSName means "GPIO<CSPin>".
type Config struct {
	Port    string
	CSName  string
	Channel int
	CSPin   int
}

// DefaultConfig returns channel 0 with chip select on CE0.
func DefaultConfig() Config {
	return Config{Channel: DefaultChannel, CSPin: CSPinCE0}
}

// chipSelect is the part of gpio.PinIO the transport drives.
type chipSelect interface {
	Out(l gpio.Level) error
}

// Transport implements the pn532.Transport interface for SPI communication.
// The PN532 expects LSB-first bytes, so every byte is bit-reversed on the
// way out and on the way in.
type Transport struct {
	port spi.PortCloser
	conn spi.Conn
	cs   chipSelect

	initHost func() error
	openPort func(name string) (spi.PortCloser, error)
	openPin  func(name string) (chipSelect, error)

	desc   pn532.Descriptor
	config Config

	csSettle     time.Duration
	pollInterval time.Duration
}

// New creates an unopened SPI transport.
func New(config Config) *Transport {
	if config.Port == "" {
		config.Port = fmt.Sprintf("SPI0.%d", config.Channel)
	}
	if config.CSName == "" {
		config.CSName = fmt.Sprintf("GPIO%d", config.CSPin)
	}

	return &Transport{
		config: config,
		desc: pn532.Descriptor{
			ID:            fmt.Sprintf("spi-%d-%d", config.Channel, config.CSPin),
			Name:          fmt.Sprintf("SPI %d %d", config.Channel, config.CSPin),
			DisplaySuffix: fmt.Sprintf("SPI Channel %d, CS Pin %d", config.Channel, config.CSPin),
		},
		initHost: func() error {
			_, err := host.Init()
			return err
		},
		openPort:     spireg.Open,
		openPin:      openGPIO,
		csSettle:     defaultCSSettle,
		pollInterval: defaultPollInterval,
	}
}

func openGPIO(name string) (chipSelect, error) {
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("chip select %s: %w", name, pn532.ErrDeviceNotFound)
	}
	return pin, nil
}

// Open initializes the host drivers, connects to the SPI port and claims
// the chip-select pin, leaving it deasserted.
func (t *Transport) Open() error {
	if t.port != nil {
		return nil
	}
	if err := t.initHost(); err != nil {
		return pn532.NewTransportError("init host", t.desc.ID, err, pn532.ErrorTypePermanent)
	}

	port, err := t.openPort(t.config.Port)
	if err != nil {
		return pn532.NewTransportError("open", t.desc.ID, err, pn532.ErrorTypePermanent)
	}

	conn, err := port.Connect(defaultFreq, mode, 8)
	if err != nil {
		_ = port.Close()
		return pn532.NewTransportError("connect", t.desc.ID, err, pn532.ErrorTypePermanent)
	}

	cs, err := t.openPin(t.config.CSName)
	if err == nil {
		err = cs.Out(gpio.High)
	}
	if err != nil {
		_ = port.Close()
		return pn532.NewTransportError("chip select", t.desc.ID, err, pn532.ErrorTypePermanent)
	}

	t.port = port
	t.conn = conn
	t.cs = cs
	return nil
}

// Wake pulses chip select.
func (t *Transport) Wake() error {
	if t.conn == nil {
		return pn532.NewTransportClosedError("wake", t.desc.ID)
	}
	if err := t.selectChip(); err != nil {
		return err
	}
	return t.releaseChip()
}

// PreWrite asserts chip select and sends the data-write marker.
func (t *Transport) PreWrite() error {
	if t.conn == nil {
		return pn532.NewTransportClosedError("write", t.desc.ID)
	}
	if err := t.selectChip(); err != nil {
		return err
	}
	if err := t.tx([]byte{reverseBit(spiDataWrite)}, nil); err != nil {
		_ = t.releaseChip()
		return err
	}
	return nil
}

// WriteFrame writes the frame bytes; chip select must already be asserted.
func (t *Transport) WriteFrame(frame []byte) error {
	if t.conn == nil {
		return pn532.NewTransportClosedError("write", t.desc.ID)
	}
	return t.tx(reverseBytes(frame), nil)
}

// PostWrite deasserts chip select.
func (t *Transport) PostWrite() error {
	if t.cs == nil {
		return nil
	}
	return t.releaseChip()
}

// WaitReady polls the status register every poll interval until the chip
// reports ready or the timeout elapses.
func (t *Transport) WaitReady(timeout time.Duration) (bool, error) {
	if t.conn == nil {
		return false, pn532.NewTransportClosedError("read", t.desc.ID)
	}

	deadline := time.Now().Add(timeout)
	for {
		ready, err := t.isReady()
		if err != nil || ready {
			return ready, err
		}
		if !time.Now().Before(deadline) {
			return false, nil
		}
		time.Sleep(t.pollInterval)
	}
}

func (t *Transport) isReady() (bool, error) {
	if err := t.cs.Out(gpio.Low); err != nil {
		return false, pn532.WrapTransportError("chip select", t.desc.ID, err)
	}

	status := make([]byte, 2)
	err := t.tx([]byte{reverseBit(spiStatRead), 0x00}, status)
	if releaseErr := t.releaseChip(); err == nil {
		err = releaseErr
	}
	if err != nil {
		return false, err
	}
	return reverseBit(status[1]) == spiReady, nil
}

// ReadExact waits for the chip to become ready, then clocks in len(buf)
// bytes after the data-read marker.
func (t *Transport) ReadExact(buf []byte, timeout time.Duration) (bool, error) {
	ready, err := t.WaitReady(timeout)
	if err != nil || !ready {
		return false, err
	}

	if err := t.selectChip(); err != nil {
		return false, err
	}

	w := make([]byte, len(buf)+1)
	w[0] = reverseBit(spiDataRead)
	r := make([]byte, len(buf)+1)
	err = t.tx(w, r)
	if releaseErr := t.releaseChip(); err == nil {
		err = releaseErr
	}
	if err != nil {
		return false, err
	}

	for i, b := range r[1:] {
		buf[i] = reverseBit(b)
	}
	return true, nil
}

func (t *Transport) selectChip() error {
	if err := t.cs.Out(gpio.Low); err != nil {
		return pn532.WrapTransportError("chip select", t.desc.ID, err)
	}
	time.Sleep(t.csSettle)
	return nil
}

func (t *Transport) releaseChip() error {
	if err := t.cs.Out(gpio.High); err != nil {
		return pn532.WrapTransportError("chip select", t.desc.ID, err)
	}
	return nil
}

func (t *Transport) tx(w, r []byte) error {
	if err := t.conn.Tx(w, r); err != nil {
		return pn532.WrapTransportError("transfer", t.desc.ID, err)
	}
	return nil
}

// IsOpen reports whether the port is open.
func (t *Transport) IsOpen() bool {
	return t.port != nil
}

// Close releases chip select and the SPI port.
func (t *Transport) Close() error {
	if t.port == nil {
		return nil
	}
	_ = t.cs.Out(gpio.High)
	err := t.port.Close()
	t.port = nil
	t.conn = nil
	t.cs = nil
	if err != nil {
		return pn532.WrapTransportError("close", t.desc.ID, err)
	}
	return nil
}

// Type returns the transport type
func (*Transport) Type() pn532.TransportType {
	return pn532.TransportSPI
}

// Descriptor identifies the channel and chip-select pin.
func (t *Transport) Descriptor() pn532.Descriptor {
	return t.desc
}

// reverseBit reverses the bits in a byte (LSB <-> MSB)
// PN532 uses LSB first, but most SPI implementations are MSB first
func reverseBit(b byte) byte {
	var result byte
	for range 8 {
		result <<= 1
		result |= b & 1
		b >>= 1
	}
	return result
}

// reverseBytes returns a bit-reversed copy of data.
func reverseBytes(data []byte) []byte {
	reversed := make([]byte, len(data))
	for i, b := range data {
		reversed[i] = reverseBit(b)
	}
	return reversed
}
