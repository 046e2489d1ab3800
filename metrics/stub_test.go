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
package metrics_test

import pn532 "github.com/ZaparooProject/pn532scan"

type stubReader struct{}

func (stubReader) Initialize() error { return nil }

func (stubReader) FirmwareVersion() (uint32, pn532.TransferResult, error) {
	return 0, pn532.ResultOK, nil
}

func (stubReader) SAMConfig() (pn532.TransferResult, error) { return pn532.ResultOK, nil }

func (stubReader) ReadPassiveTargetID(byte, []byte) (int, pn532.TransferResult, error) {
	return 0, pn532.ResultUndefined, nil
}

func (stubReader) DisplayName() string { return "stub" }

func (stubReader) Close() error { return nil }
