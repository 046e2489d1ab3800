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

// Package frame implements the PN532 normal information frame: encoding
// host commands and validating chip responses.
package frame

// Frame identifier bytes (TFI)
const (
	HostToPn532 = 0xD4 // Commands from host to PN532
	Pn532ToHost = 0xD5 // Responses from PN532 to host
)

// Frame structure constants
const (
	Preamble   = 0x00 // Frame preamble byte
	StartCode1 = 0x00 // Start code byte 1
	StartCode2 = 0xFF // Start code byte 2
	Postamble  = 0x00 // Frame postamble byte
)

// Frame size limits
const (
	// HeaderLength covers preamble, start codes, LEN and LCS.
	HeaderLength = 5
	// Overhead is every byte of a response frame that is not payload:
	// header, TFI, command echo, DCS and postamble.
	Overhead = HeaderLength + 4
	// MaxDataLength is the largest LEN a normal frame can carry.
	MaxDataLength = 0xFF
	// MaxPayloadLength is the largest payload after TFI and command byte.
	MaxPayloadLength = MaxDataLength - 2
	// MaxFrameLength is a complete normal frame at MaxDataLength.
	MaxFrameLength = HeaderLength + MaxDataLength + 2
	// AckLength is the size of the ACK frame.
	AckLength = 6
)

// AckFrame is sent by the chip after accepting a command, and by the host to
// abort the command in progress.
var AckFrame = []byte{0x00, 0x00, 0xFF, 0x00, 0xFF, 0x00}
