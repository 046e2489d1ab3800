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

import "bytes"

// IsAck reports whether raw is exactly the ACK frame.
func IsAck(raw []byte) bool {
	return bytes.Equal(raw, AckFrame)
}

// ParseResponse validates a chip-to-host frame answering lastCommand and
// copies its payload into dst. len(dst) is the largest payload accepted.
//
// Checks run in a fixed order: start bytes, length checksum, TFI and
// command echo, payload size, data checksum, postamble. Bytes after the
// postamble are ignored, so raw may be a fixed-size block read.
func ParseResponse(raw []byte, lastCommand byte, dst []byte) (int, Result) {
	if len(raw) < 3 || raw[0] != Preamble || raw[1] != StartCode1 || raw[2] != StartCode2 {
		return 0, ResultInvalidFrame
	}

	if len(raw) < HeaderLength {
		return 0, ResultInvalidFrame
	}
	length := raw[3]
	if length+raw[4] != 0 {
		return 0, ResultInvalidFrame
	}

	if len(raw) < HeaderLength+2 || length < 2 {
		return 0, ResultInvalidFrame
	}
	if raw[5] != Pn532ToHost || raw[6] != lastCommand+1 {
		return 0, ResultInvalidFrame
	}

	payloadLen := int(length) - 2
	if payloadLen > len(dst) {
		return 0, ResultInsufficientSpace
	}

	dcsAt := HeaderLength + int(length)
	if len(raw) < dcsAt+1 {
		return 0, ResultInvalidFrame
	}
	if CalculateChecksum(raw[HeaderLength:dcsAt+1]) != 0 {
		return 0, ResultInvalidFrame
	}

	if len(raw) < dcsAt+2 || raw[dcsAt+1] != Postamble {
		return 0, ResultInvalidFrame
	}

	return copy(dst, raw[HeaderLength+2:dcsAt]), ResultOK
}

// ResponseLength returns the total frame size announced by a response
// header, or false when the header is not a valid frame start.
func ResponseLength(header []byte) (int, bool) {
	if len(header) < HeaderLength ||
		header[0] != Preamble || header[1] != StartCode1 || header[2] != StartCode2 ||
		header[3]+header[4] != 0 {
		return 0, false
	}
	return HeaderLength + int(header[3]) + 2, true
}
