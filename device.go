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
	"fmt"

	"go.uber.org/zap"

	"github.com/ZaparooProject/pn532scan/internal/frame"
)

// Device represents a PN532 NFC reader device
//
// Device is NOT thread-safe beyond the exchange serialization provided by
// its Connection: it owns a single response buffer, so all methods must be
// called from one goroutine.
type Device struct {
	conn   *Connection
	packet [frame.MaxPayloadLength]byte
}

// New creates a device on an unopened connection over transport.
func New(transport Transport, opts ...Option) (*Device, error) {
	conn, err := NewConnection(transport, opts...)
	if err != nil {
		return nil, err
	}
	return NewDevice(conn), nil
}

// NewDevice wraps an existing connection.
func NewDevice(conn *Connection) *Device {
	return &Device{conn: conn}
}

// Connection returns the underlying connection.
func (d *Device) Connection() *Connection {
	return d.conn
}

// Initialize opens the bus and wakes the chip. Bus faults are returned
// unchanged; there is no retry.
func (d *Device) Initialize() error {
	if err := d.conn.Begin(); err != nil {
		return err
	}
	return d.conn.Wakeup()
}

// FirmwareVersion queries the chip and returns its packed version code.
// On success the connection display name includes model and firmware.
func (d *Device) FirmwareVersion() (uint32, TransferResult, error) {
	info, result, err := d.FirmwareInfo()
	if err != nil || !result.OK() {
		return 0, result, err
	}
	return info.Code(), result, nil
}

// FirmwareInfo queries the chip firmware version. An all-zero response is
// reported as ResultInvalidFirmwareVersion.
func (d *Device) FirmwareInfo() (FirmwareInfo, TransferResult, error) {
	result, err := d.conn.WriteCommand([]byte{cmdGetFirmwareVersion}, nil)
	if err != nil || !result.OK() {
		return FirmwareInfo{}, result, err
	}

	n, result, err := d.conn.ReadResponse(d.packet[:firmwareLength], d.conn.ReadTimeout())
	if err != nil || !result.OK() {
		return FirmwareInfo{}, result, err
	}
	if n != firmwareLength {
		return FirmwareInfo{}, ResultInvalidFrame, nil
	}

	info := FirmwareInfo{
		IC:       d.packet[0],
		Version:  d.packet[1],
		Revision: d.packet[2],
		Support:  d.packet[3],
	}
	if info.IsZero() {
		return FirmwareInfo{}, ResultInvalidFirmwareVersion, nil
	}

	d.conn.setIdentity(info.Model(), info.FirmwareString())
	d.conn.Logger().Debug("firmware version",
		zap.String("model", info.Model()),
		zap.String("firmware", info.FirmwareString()),
		zap.Uint32("code", info.Code()))
	return info, ResultOK, nil
}

// SAMConfig puts the chip in normal mode with the IRQ ready line enabled,
// which is required before reading cards.
func (d *Device) SAMConfig() (TransferResult, error) {
	result, err := d.conn.WriteCommand(
		[]byte{cmdSamConfiguration},
		[]byte{samModeNormal, samTimeout, samUseIRQ},
	)
	if err != nil || !result.OK() {
		return result, err
	}

	_, result, err = d.conn.ReadResponse(d.packet[:0], d.conn.ReadTimeout())
	return result, err
}

// ReadPassiveTargetID looks for a single card at the given baud rate and
// copies its UID into uid, returning the UID length.
//
// When no card answers, the result is ResultUndefined. That covers a target
// count other than one and a response timeout after the chip acknowledged
// the command; in the latter case the command is aborted first.
func (d *Device) ReadPassiveTargetID(baud byte, uid []byte) (int, TransferResult, error) {
	result, err := d.conn.WriteCommand([]byte{cmdInListPassiveTarget}, []byte{maxTargetsOne, baud})
	if err != nil || !result.OK() {
		return 0, result, err
	}

	n, result, err := d.conn.ReadResponse(d.packet[:passiveTargetBufferLen], d.conn.ReadTimeout())
	if err != nil {
		return 0, result, err
	}
	if result == ResultTimeout {
		if err := d.conn.Abort(); err != nil {
			return 0, ResultUndefined, fmt.Errorf("abort passive target search: %w", err)
		}
		return 0, ResultUndefined, nil
	}
	if !result.OK() {
		return 0, result, nil
	}

	return parsePassiveTarget(d.packet[:n], uid)
}

func parsePassiveTarget(payload, uid []byte) (int, TransferResult, error) {
	if len(payload) == 0 {
		return 0, ResultInvalidFrame, nil
	}
	if payload[0] != 1 {
		return 0, ResultUndefined, nil
	}
	if len(payload) < targetHeaderLen {
		return 0, ResultInvalidFrame, nil
	}

	uidLen := int(payload[5])
	if targetHeaderLen+uidLen > len(payload) {
		return 0, ResultInvalidFrame, nil
	}
	if uidLen > len(uid) {
		return 0, ResultInsufficientSpace, nil
	}
	return copy(uid, payload[targetHeaderLen:targetHeaderLen+uidLen]), ResultOK, nil
}

// DisplayName returns the connection display name.
func (d *Device) DisplayName() string {
	return d.conn.DisplayName()
}

// Close releases the bus.
func (d *Device) Close() error {
	return d.conn.Close()
}
