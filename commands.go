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

// PN532 Command codes
const (
	cmdGetFirmwareVersion  = 0x02
	cmdSamConfiguration    = 0x14
	cmdInListPassiveTarget = 0x4A
)

// SAM configuration parameters
const (
	samModeNormal   = 0x01 // Normal mode, the SAM is not used
	samTimeout      = 0x14 // 20 x 50 ms, only used in virtual card mode
	samUseIRQ       = 0x01 // Drive the P70_IRQ ready line
	maxTargetsOne   = 0x01
	firmwareLength  = 4
	targetHeaderLen = 6 // Tg count, Tg, SENS_RES (2), SEL_RES, NFCID length
)

// Card baud rates for InListPassiveTarget
const (
	BaudISO14443A byte = 0x00 // 106 kbps type A (Mifare, NTAG)
)

// MaxUIDLength is the longest NFCID1 the chip reports (triple size UID).
const MaxUIDLength = 10

// passiveTargetBufferLen holds one ISO14443A target: header, a triple size
// UID and an ATS of up to 48 bytes.
const passiveTargetBufferLen = targetHeaderLen + MaxUIDLength + 48
