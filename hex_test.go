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

func TestFormatHex(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "(empty)", FormatHex(nil))
	assert.Equal(t, "00 00 FF 00 FF 00", FormatHex([]byte{0x00, 0x00, 0xFF, 0x00, 0xFF, 0x00}))

	long := make([]byte, 50)
	for i := range long {
		long[i] = byte(i)
	}
	formatted := FormatHex(long)
	assert.Contains(t, formatted, "1F ... (50 bytes total)")
	assert.NotContains(t, formatted, " 20 ")
}

func TestFormatUID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want string
		uid  []byte
	}{
		{name: "empty", want: "", uid: nil},
		{name: "single size", want: "AABBCCDD", uid: []byte{0xAA, 0xBB, 0xCC, 0xDD}},
		{name: "leading zero", want: "0401A0", uid: []byte{0x04, 0x01, 0xA0}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatUID(tt.uid), tt.name)
	}
}
