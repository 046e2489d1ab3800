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

import (
	"errors"
	"time"

	pn532 "github.com/ZaparooProject/pn532scan"
	"github.com/ZaparooProject/pn532scan/internal/syncutil"
)

// ErrInjected is the bus fault returned by the Fail* knobs.
var ErrInjected = errors.New("simulator: injected bus fault")

// SimulatorTransport wraps VirtualPN532 and implements pn532.Transport with
// block-bus read semantics, so the command session can be exercised end to
// end without hardware. Waits return immediately: a frame that is not
// queued when read is a timeout.
type SimulatorTransport struct {
	sim *VirtualPN532

	OpenErr  error
	WakeErr  error
	WriteErr error
	ReadErr  error

	mu syncutil.Mutex

	opens, wakes, closes int
	preWrites            int
	postWrites           int
	readTimeouts         []time.Duration
	open                 bool
	incremental          bool
}

// NewSimulatorTransport creates a new transport backed by VirtualPN532
func NewSimulatorTransport(sim *VirtualPN532) *SimulatorTransport {
	return &SimulatorTransport{sim: sim}
}

// Sim returns the backing simulator.
func (t *SimulatorTransport) Sim() *VirtualPN532 {
	return t.sim
}

// SetIncremental makes the transport declare stream read semantics.
func (t *SimulatorTransport) SetIncremental(incremental bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.incremental = incremental
}

// Open implements pn532.Transport.
func (t *SimulatorTransport) Open() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.opens++
	if t.OpenErr != nil {
		return pn532.WrapTransportError("open", "sim", t.OpenErr)
	}
	t.open = true
	return nil
}

// Wake implements pn532.Transport.
func (t *SimulatorTransport) Wake() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.wakes++
	if t.WakeErr != nil {
		return pn532.WrapTransportError("wake", "sim", t.WakeErr)
	}
	return nil
}

// PreWrite implements pn532.WriteHooks.
func (t *SimulatorTransport) PreWrite() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.preWrites++
	return nil
}

// PostWrite implements pn532.WriteHooks.
func (t *SimulatorTransport) PostWrite() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.postWrites++
	return nil
}

// WriteFrame implements pn532.Transport.
func (t *SimulatorTransport) WriteFrame(frame []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.open {
		return pn532.NewTransportClosedError("write", "sim")
	}
	if t.WriteErr != nil {
		return pn532.WrapTransportError("write", "sim", t.WriteErr)
	}
	if _, err := t.sim.Write(frame); err != nil {
		return pn532.WrapTransportError("write", "sim", err)
	}
	return nil
}

// WaitReady implements pn532.Transport.
func (t *SimulatorTransport) WaitReady(time.Duration) (bool, error) {
	return t.sim.HasPendingResponse(), nil
}

// ReadExact implements pn532.Transport.
func (t *SimulatorTransport) ReadExact(buf []byte, timeout time.Duration) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.readTimeouts = append(t.readTimeouts, timeout)
	if !t.open {
		return false, pn532.NewTransportClosedError("read", "sim")
	}
	if t.ReadErr != nil {
		return false, pn532.WrapTransportError("read", "sim", t.ReadErr)
	}
	if t.incremental {
		if !t.sim.HasPendingResponse() {
			return false, nil
		}
		n, _ := t.sim.Read(buf)
		return n == len(buf), nil
	}
	return t.sim.ReadBlock(buf), nil
}

// IsOpen implements pn532.Transport.
func (t *SimulatorTransport) IsOpen() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.open
}

// Close implements pn532.Transport.
func (t *SimulatorTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.open {
		t.closes++
	}
	t.open = false
	return nil
}

// Type implements pn532.Transport.
func (*SimulatorTransport) Type() pn532.TransportType {
	return pn532.TransportMock
}

// Descriptor implements pn532.Transport.
func (*SimulatorTransport) Descriptor() pn532.Descriptor {
	return pn532.Descriptor{ID: "sim-0", Name: "Sim 0", DisplaySuffix: "Simulator 0"}
}

// HasCapability implements pn532.TransportCapabilityChecker.
func (t *SimulatorTransport) HasCapability(capability pn532.TransportCapability) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return capability == pn532.CapabilityIncrementalRead && t.incremental
}

// Stats is a snapshot of transport call counters.
type Stats struct {
	ReadTimeouts []time.Duration
	Opens        int
	Wakes        int
	Closes       int
	PreWrites    int
	PostWrites   int
}

// Stats returns the call counters.
func (t *SimulatorTransport) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Stats{
		Opens:        t.opens,
		Wakes:        t.wakes,
		Closes:       t.closes,
		PreWrites:    t.preWrites,
		PostWrites:   t.postWrites,
		ReadTimeouts: append([]time.Duration(nil), t.readTimeouts...),
	}
}
