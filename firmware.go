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
	"strconv"
)

// FirmwareInfo is the decoded GetFirmwareVersion response.
type FirmwareInfo struct {
	IC       byte // Chip variant, 0x32 for the PN532
	Version  byte
	Revision byte
	Support  byte // Supported protocol bit field
}

// Code packs the response into IC<<24 | Version<<16 | Revision<<8 | Support.
func (f FirmwareInfo) Code() uint32 {
	return uint32(f.IC)<<24 | uint32(f.Version)<<16 | uint32(f.Revision)<<8 | uint32(f.Support)
}

// Model returns the chip model name, e.g. "PN532".
func (f FirmwareInfo) Model() string {
	return "PN5" + strconv.FormatUint(uint64(f.IC), 16)
}

// FirmwareString returns "Version.Revision", e.g. "1.6".
func (f FirmwareInfo) FirmwareString() string {
	return fmt.Sprintf("%d.%d", f.Version, f.Revision)
}

// IsZero reports an all-zero response, which some buses return when no
// chip is attached.
func (f FirmwareInfo) IsZero() bool {
	return f.Code() == 0
}

// SupportsISO14443A reports ISO/IEC 14443 type A support.
func (f FirmwareInfo) SupportsISO14443A() bool { return f.Support&0x01 != 0 }

// SupportsISO14443B reports ISO/IEC 14443 type B support.
func (f FirmwareInfo) SupportsISO14443B() bool { return f.Support&0x02 != 0 }

// SupportsISO18092 reports ISO 18092 (NFCIP-1) support.
func (f FirmwareInfo) SupportsISO18092() bool { return f.Support&0x04 != 0 }

// String implements fmt.Stringer.
func (f FirmwareInfo) String() string {
	return f.Model() + " firmware " + f.FirmwareString()
}
