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
package testing

// VirtualTag is an ISO14443A card in the simulated RF field.
type VirtualTag struct {
	UID     []byte
	SensRes [2]byte // ATQA
	SelRes  byte    // SAK
}

// NewVirtualTag creates a tag with the given UID. The SENS_RES and SEL_RES
// bytes follow the UID size: NTAG2xx for 7-byte UIDs, MIFARE Classic 1K
// otherwise.
func NewVirtualTag(uid []byte) *VirtualTag {
	tag := &VirtualTag{UID: append([]byte(nil), uid...)}
	if len(uid) == 7 {
		tag.SensRes = [2]byte{0x00, 0x44}
		tag.SelRes = 0x00
	} else {
		tag.SensRes = [2]byte{0x00, 0x04}
		tag.SelRes = 0x08
	}
	return tag
}

// targetData encodes the InListPassiveTarget payload for this tag.
func (t *VirtualTag) targetData(tg byte) []byte {
	out := make([]byte, 0, 6+len(t.UID))
	out = append(out, 0x01, tg, t.SensRes[0], t.SensRes[1], t.SelRes, byte(len(t.UID)))
	return append(out, t.UID...)
}
