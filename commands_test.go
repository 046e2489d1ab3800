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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandConstants(t *testing.T) {
	t.Parallel()

	assert.Equal(t, byte(0x02), byte(cmdGetFirmwareVersion))
	assert.Equal(t, byte(0x14), byte(cmdSamConfiguration))
	assert.Equal(t, byte(0x4A), byte(cmdInListPassiveTarget))
	assert.Equal(t, byte(0x00), BaudISO14443A)
	assert.Equal(t, 10, MaxUIDLength)
}

func TestParsePassiveTarget(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload []byte
		uidCap  int
		want    []byte
		result  TransferResult
	}{
		{
			name:    "one target",
			payload: []byte{0x01, 0x01, 0x00, 0x04, 0x08, 0x04, 0xAA, 0xBB, 0xCC, 0xDD},
			uidCap:  MaxUIDLength,
			want:    []byte{0xAA, 0xBB, 0xCC, 0xDD},
			result:  ResultOK,
		},
		{
			name:    "trailing ATS ignored",
			payload: []byte{0x01, 0x01, 0x03, 0x44, 0x20, 0x02, 0x11, 0x22, 0x05, 0x78, 0x80},
			uidCap:  MaxUIDLength,
			want:    []byte{0x11, 0x22},
			result:  ResultOK,
		},
		{name: "no targets", payload: []byte{0x00}, uidCap: MaxUIDLength, result: ResultUndefined},
		{name: "two targets", payload: []byte{0x02, 0x01}, uidCap: MaxUIDLength, result: ResultUndefined},
		{name: "empty", payload: nil, uidCap: MaxUIDLength, result: ResultInvalidFrame},
		{name: "short header", payload: []byte{0x01, 0x01, 0x00}, uidCap: MaxUIDLength, result: ResultInvalidFrame},
		{
			name:    "uid past payload",
			payload: []byte{0x01, 0x01, 0x00, 0x04, 0x08, 0x07, 0xAA},
			uidCap:  MaxUIDLength,
			result:  ResultInvalidFrame,
		},
		{
			name:    "uid buffer too small",
			payload: []byte{0x01, 0x01, 0x00, 0x04, 0x08, 0x04, 0xAA, 0xBB, 0xCC, 0xDD},
			uidCap:  3,
			result:  ResultInsufficientSpace,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			uid := make([]byte, tt.uidCap)
			n, result, err := parsePassiveTarget(tt.payload, uid)
			assert.NoError(t, err)
			assert.Equal(t, tt.result, result)
			assert.Equal(t, len(tt.want), n)
			if tt.want != nil {
				assert.Equal(t, tt.want, uid[:n])
			}
		})
	}
}

func TestFirmwareInfo(t *testing.T) {
	t.Parallel()

	info := FirmwareInfo{IC: 0x32, Version: 0x01, Revision: 0x06, Support: 0x07}
	assert.Equal(t, uint32(0x32010607), info.Code())
	assert.Equal(t, "PN532", info.Model())
	assert.Equal(t, "1.6", info.FirmwareString())
	assert.Equal(t, "PN532 firmware 1.6", info.String())
	assert.True(t, info.SupportsISO14443A())
	assert.True(t, info.SupportsISO14443B())
	assert.True(t, info.SupportsISO18092())
	assert.False(t, info.IsZero())
	assert.True(t, FirmwareInfo{}.IsZero())
}
