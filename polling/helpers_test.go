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
package polling_test

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	pn532 "github.com/ZaparooProject/pn532scan"
	virt "github.com/ZaparooProject/pn532scan/internal/testing"
	"github.com/ZaparooProject/pn532scan/polling"
)

type failure struct {
	err    error
	state  polling.State
	result pn532.TransferResult
}

// recordingListener captures loop events for assertions.
type recordingListener struct {
	mu       sync.Mutex
	messages []string
	uids     []string
	names    []string
	failures []failure
}

func (r *recordingListener) OnMessage(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
}

func (r *recordingListener) OnUID(displayName string, uid []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, displayName)
	r.uids = append(r.uids, polling.FormatUID(uid))
}

func (r *recordingListener) OnFailure(state polling.State, result pn532.TransferResult, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, failure{state: state, result: result, err: err})
}

func (r *recordingListener) UIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.uids...)
}

func (r *recordingListener) Failures() []failure {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]failure(nil), r.failures...)
}

func (r *recordingListener) HasMessage(suffix string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages {
		if strings.HasSuffix(m, suffix) {
			return true
		}
	}
	return false
}

type scanStep struct {
	err    error
	uid    []byte
	result pn532.TransferResult
}

// fakeReader scripts device results. Scans past the end of the script
// report no target.
type fakeReader struct {
	initErr     error
	firmwareErr error
	samErr      error

	mu             sync.Mutex
	scans          []scanStep
	firmwareResult pn532.TransferResult
	samResult      pn532.TransferResult
	closes         int
	reads          int
}

func (f *fakeReader) Initialize() error { return f.initErr }

func (f *fakeReader) FirmwareVersion() (uint32, pn532.TransferResult, error) {
	if f.firmwareErr != nil {
		return 0, pn532.ResultUndefined, f.firmwareErr
	}
	return 0x32010607, f.firmwareResult, nil
}

func (f *fakeReader) SAMConfig() (pn532.TransferResult, error) {
	if f.samErr != nil {
		return pn532.ResultUndefined, f.samErr
	}
	return f.samResult, nil
}

func (f *fakeReader) ReadPassiveTargetID(_ byte, uid []byte) (int, pn532.TransferResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.reads++
	if len(f.scans) == 0 {
		return 0, pn532.ResultUndefined, nil
	}
	step := f.scans[0]
	f.scans = f.scans[1:]
	if step.err != nil || !step.result.OK() {
		return 0, step.result, step.err
	}
	return copy(uid, step.uid), pn532.ResultOK, nil
}

func (*fakeReader) DisplayName() string { return "PN532-1.6 Fake 0" }

func (f *fakeReader) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return nil
}

func (f *fakeReader) Closes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes
}

func fastConfig() *polling.Config {
	return &polling.Config{
		PollInterval: 2 * time.Millisecond,
		SettleDelay:  0,
		BaudRate:     pn532.BaudISO14443A,
	}
}

func newSimDevice(t *testing.T, sim *virt.VirtualPN532) (*pn532.Device, *virt.SimulatorTransport) {
	t.Helper()

	transport := virt.NewSimulatorTransport(sim)
	device, err := pn532.New(transport,
		pn532.WithBusGuard(pn532.NewBusGuard()),
		pn532.WithAckTimeout(10*time.Millisecond),
		pn532.WithReadTimeout(10*time.Millisecond))
	require.NoError(t, err)
	return device, transport
}
