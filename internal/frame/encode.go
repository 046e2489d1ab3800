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
package frame

import "errors"

var (
	// ErrEmptyHeader is returned when a command has no command byte.
	ErrEmptyHeader = errors.New("frame: empty command header")
	// ErrFrameTooLarge is returned when the frame data does not fit in LEN.
	ErrFrameTooLarge = errors.New("frame: data exceeds maximum frame length")
)

// Encode builds a host-to-chip frame. header[0] is the command code; the
// rest of header and all of body form the command parameters.
//
//	00 00 FF LEN LCS D4 header... body... DCS 00
func Encode(header, body []byte) ([]byte, error) {
	if len(header) == 0 {
		return nil, ErrEmptyHeader
	}
	dataLen := 1 + len(header) + len(body)
	if dataLen > MaxDataLength {
		return nil, ErrFrameTooLarge
	}

	out := make([]byte, 0, HeaderLength+dataLen+2)
	length := byte(dataLen)
	out = append(out, Preamble, StartCode1, StartCode2, length, LengthChecksum(length), HostToPn532)
	out = append(out, header...)
	out = append(out, body...)

	out = append(out, DataChecksum(out[HeaderLength:]...), Postamble)
	return out, nil
}
