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

import "strconv"

// Result is the outcome of a protocol exchange. Bus faults are reported as
// errors, never as a Result.
type Result int

// Result values. The numeric codes are stable and may be logged.
const (
	ResultOK                     Result = 0
	ResultUndefined              Result = -1
	ResultTimeout                Result = -2
	ResultInvalidAck             Result = -3
	ResultInvalidFrame           Result = -4
	ResultInvalidFirmwareVersion Result = -5
	ResultInsufficientSpace      Result = -6
)

// String returns the result name.
func (r Result) String() string {
	switch r {
	case ResultOK:
		return "OK"
	case ResultUndefined:
		return "UNDEFINED"
	case ResultTimeout:
		return "TIMEOUT"
	case ResultInvalidAck:
		return "INVALID_ACK"
	case ResultInvalidFrame:
		return "INVALID_FRAME"
	case ResultInvalidFirmwareVersion:
		return "INVALID_FW_VERSION"
	case ResultInsufficientSpace:
		return "INSUFFICIENT_SPACE"
	default:
		return "RESULT(" + strconv.Itoa(int(r)) + ")"
	}
}

// OK reports whether the exchange succeeded.
func (r Result) OK() bool {
	return r == ResultOK
}
