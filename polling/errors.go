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
package polling

import (
	"errors"
	"fmt"

	pn532 "github.com/ZaparooProject/pn532scan"
)

var (
	// ErrWorkerStarted is returned when Start is called twice.
	ErrWorkerStarted = errors.New("worker already started")
	// ErrNilReader is returned by NewLoop without a reader.
	ErrNilReader = errors.New("reader is nil")
)

// ScanError describes why a scan loop ended in StateFailed. Err is nil
// when the chip answered with a protocol result other than OK.
type ScanError struct {
	Err    error
	State  State
	Result pn532.TransferResult
}

func (e *ScanError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("scan failed in %s: %v", e.State, e.Err)
	}
	return fmt.Sprintf("scan failed in %s: %s", e.State, e.Result)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}
