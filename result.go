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

import "github.com/ZaparooProject/pn532scan/internal/frame"

// TransferResult is the protocol-level outcome of an exchange with the chip.
// It is returned alongside a nil error; bus faults are reported as errors.
type TransferResult = frame.Result

// Transfer results.
const (
	ResultOK                     = frame.ResultOK
	ResultUndefined              = frame.ResultUndefined
	ResultTimeout                = frame.ResultTimeout
	ResultInvalidAck             = frame.ResultInvalidAck
	ResultInvalidFrame           = frame.ResultInvalidFrame
	ResultInvalidFirmwareVersion = frame.ResultInvalidFirmwareVersion
	ResultInsufficientSpace      = frame.ResultInsufficientSpace
)
