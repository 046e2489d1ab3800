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
// Package testing provides a wire-level PN532 simulator and helpers for
// exercising transports and the command session without hardware.
package testing

import (
	"bytes"
	"errors"

	"github.com/ZaparooProject/pn532scan/internal/syncutil"
)

const (
	pn532Preamble   = 0x00
	pn532StartCode1 = 0x00
	pn532StartCode2 = 0xFF
	pn532Postamble  = 0x00

	tfiHostToPN532 = 0xD4 // Commands from host controller to PN532
	tfiPN532ToHost = 0xD5 // Responses from PN532 to host controller
	tfiError       = 0x7F // Application level error frame
)

const (
	cmdGetFirmwareVersion  = 0x02
	cmdSAMConfiguration    = 0x14
	cmdInListPassiveTarget = 0x4A
)

// ACKFrame is sent to acknowledge successful frame reception, and by the
// host to abort the running command.
var ACKFrame = []byte{0x00, 0x00, 0xFF, 0x00, 0xFF, 0x00}

// ErrMalformedFrame is returned by Write when the host sent bytes that do
// not form a valid frame.
var ErrMalformedFrame = errors.New("simulator: malformed host frame")

// VirtualPN532 simulates the PN532 at the frame level. Host frames are fed
// with Write; the ACK and response frames it produces are queued and
// consumed either as a byte stream (Read) or one frame per bus transaction
// (ReadBlock).
type VirtualPN532 struct {
	tag      *VirtualTag
	rxBuffer bytes.Buffer
	outbox   [][]byte
	commands []byte

	mu syncutil.Mutex

	firmwareIC      byte
	firmwareVer     byte
	firmwareRev     byte
	firmwareSupport byte

	aborts int

	injectChecksumError bool
	dropNextACK         bool
	corruptNextACK      bool
	dropNextResponse    bool
	answerNoTarget      bool
	samConfigured       bool
}

// NewVirtualPN532 creates a simulator reporting PN532 firmware 1.6 with no
// card in the field. Without a card, InListPassiveTarget is acknowledged
// but never answered, as on real hardware with infinite retries.
func NewVirtualPN532() *VirtualPN532 {
	return &VirtualPN532{
		firmwareIC:      0x32,
		firmwareVer:     0x01,
		firmwareRev:     0x06,
		firmwareSupport: 0x07,
	}
}

// Write receives bytes from the host controller and processes every
// complete frame.
func (v *VirtualPN532) Write(data []byte) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.rxBuffer.Write(data)
	return len(data), v.processReceivedData()
}

// Read returns queued output as a byte stream.
func (v *VirtualPN532) Read(buf []byte) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	n := 0
	for n < len(buf) && len(v.outbox) > 0 {
		copied := copy(buf[n:], v.outbox[0])
		n += copied
		if copied == len(v.outbox[0]) {
			v.outbox = v.outbox[1:]
		} else {
			v.outbox[0] = v.outbox[0][copied:]
		}
	}
	return n, nil
}

// ReadBlock reads the next queued frame in one bus transaction, the way
// I2C and SPI reads behave: buf receives the frame from its first byte,
// padded with zeros, and the frame is consumed. It returns false when
// nothing is queued.
func (v *VirtualPN532) ReadBlock(buf []byte) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if len(v.outbox) == 0 {
		return false
	}
	n := copy(buf, v.outbox[0])
	clear(buf[n:])
	v.outbox = v.outbox[1:]
	return true
}

// HasPendingResponse returns true if the simulator has output waiting to be read.
func (v *VirtualPN532) HasPendingResponse() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.outbox) > 0
}

// SetTag places a single card in the field.
func (v *VirtualPN532) SetTag(tag *VirtualTag) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.tag = tag
}

// RemoveTag clears the field.
func (v *VirtualPN532) RemoveTag() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.tag = nil
}

// SetAnswerNoTarget makes InListPassiveTarget answer with a zero target
// count when no card is present, instead of staying silent.
func (v *VirtualPN532) SetAnswerNoTarget(answer bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.answerNoTarget = answer
}

// SetFirmwareVersion configures the firmware version returned by GetFirmwareVersion.
func (v *VirtualPN532) SetFirmwareVersion(ic, ver, rev, support byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.firmwareIC = ic
	v.firmwareVer = ver
	v.firmwareRev = rev
	v.firmwareSupport = support
}

// InjectChecksumError causes the next response to have an invalid checksum.
func (v *VirtualPN532) InjectChecksumError() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.injectChecksumError = true
}

// DropNextACK causes the simulator to not send ACK for the next command.
// The command is not executed.
func (v *VirtualPN532) DropNextACK() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.dropNextACK = true
}

// CorruptNextACK replaces the next ACK with a NACK frame.
func (v *VirtualPN532) CorruptNextACK() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.corruptNextACK = true
}

// DropNextResponse acknowledges the next command but never answers it.
func (v *VirtualPN532) DropNextResponse() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.dropNextResponse = true
}

// Commands returns the command codes received so far, in order.
func (v *VirtualPN532) Commands() []byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]byte(nil), v.commands...)
}

// Aborts returns how many ACK frames the host sent to abort a command.
func (v *VirtualPN532) Aborts() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.aborts
}

// SAMConfigured reports whether SAMConfiguration was received.
func (v *VirtualPN532) SAMConfigured() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.samConfigured
}

func (v *VirtualPN532) processReceivedData() error {
	for {
		data := v.rxBuffer.Bytes()
		if len(data) < len(ACKFrame) {
			return nil
		}

		if bytes.HasPrefix(data, ACKFrame) {
			v.rxBuffer.Next(len(ACKFrame))
			v.aborts++
			v.outbox = nil
			continue
		}

		if data[0] != pn532Preamble || data[1] != pn532StartCode1 || data[2] != pn532StartCode2 {
			v.rxBuffer.Reset()
			return ErrMalformedFrame
		}
		length := int(data[3])
		if byte(length)+data[4] != 0 || length < 2 {
			v.rxBuffer.Reset()
			return ErrMalformedFrame
		}
		total := 5 + length + 2
		if len(data) < total {
			return nil
		}

		body := data[5 : 5+length]
		var sum byte
		for _, b := range data[5 : 5+length+1] {
			sum += b
		}
		if body[0] != tfiHostToPN532 || sum != 0 || data[total-1] != pn532Postamble {
			v.rxBuffer.Reset()
			return ErrMalformedFrame
		}

		cmd := body[1]
		params := append([]byte(nil), body[2:]...)
		v.rxBuffer.Next(total)
		v.processCommand(cmd, params)
	}
}

func (v *VirtualPN532) processCommand(cmd byte, params []byte) {
	v.commands = append(v.commands, cmd)

	if v.dropNextACK {
		v.dropNextACK = false
		return
	}
	if v.corruptNextACK {
		v.corruptNextACK = false
		v.outbox = append(v.outbox, []byte{0x00, 0x00, 0xFF, 0xFF, 0x00, 0x00})
		return
	}
	v.outbox = append(v.outbox, append([]byte(nil), ACKFrame...))

	response := v.handle(cmd, params)
	if response == nil {
		return
	}
	if v.dropNextResponse {
		v.dropNextResponse = false
		return
	}
	if v.injectChecksumError {
		v.injectChecksumError = false
		response[len(response)-2]++
	}
	v.outbox = append(v.outbox, response)
}

func (v *VirtualPN532) handle(cmd byte, params []byte) []byte {
	switch cmd {
	case cmdGetFirmwareVersion:
		return BuildFirmwareVersionFrame(v.firmwareIC, v.firmwareVer, v.firmwareRev, v.firmwareSupport)
	case cmdSAMConfiguration:
		if len(params) < 1 {
			return BuildErrorFrame()
		}
		v.samConfigured = true
		return BuildSAMConfigurationFrame()
	case cmdInListPassiveTarget:
		if len(params) < 2 || params[0] != 0x01 {
			return BuildErrorFrame()
		}
		if v.tag != nil {
			return BuildPassiveTargetFrame(v.tag)
		}
		if v.answerNoTarget {
			return BuildNoTargetFrame()
		}
		return nil
	default:
		return BuildErrorFrame()
	}
}
