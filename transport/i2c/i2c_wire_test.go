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
package i2c

import (
	"errors"
	"sync"
	"testing"
	"time"

	pn532 "github.com/ZaparooProject/pn532scan"
	virt "github.com/ZaparooProject/pn532scan/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

var errBusFault = errors.New("i2c: remote I/O error")

// MockI2CBus implements i2c.BusCloser backed by VirtualPN532. A read starts
// with the status byte followed by the pending frame.
type MockI2CBus struct {
	sim *virt.VirtualPN532

	mu        sync.Mutex
	addrs     []uint16
	busyReads int // Reads that report not-ready before the frame shows
	txErr     error
	closed    bool
}

func NewMockI2CBus(sim *virt.VirtualPN532) *MockI2CBus {
	return &MockI2CBus{sim: sim}
}

func (m *MockI2CBus) Tx(addr uint16, w, r []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.addrs = append(m.addrs, addr)
	if m.txErr != nil {
		return m.txErr
	}
	if len(w) > 0 {
		if _, err := m.sim.Write(w); err != nil {
			return err
		}
	}
	if len(r) == 0 {
		return nil
	}

	clear(r)
	if m.busyReads > 0 {
		m.busyReads--
		return nil
	}
	if !m.sim.HasPendingResponse() {
		return nil
	}
	r[0] = pn532Ready
	if len(r) > 1 {
		m.sim.ReadBlock(r[1:])
	}
	return nil
}

func (*MockI2CBus) SetSpeed(physic.Frequency) error { return nil }

func (m *MockI2CBus) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (*MockI2CBus) String() string { return "mock://i2c" }

func newTestTransport(t *testing.T, bus *MockI2CBus) *Transport {
	t.Helper()

	tr := New(DefaultConfig())
	tr.initHost = func() error { return nil }
	tr.openBus = func(name string) (i2c.BusCloser, error) {
		assert.Equal(t, "1", name)
		return bus, nil
	}
	tr.wakeDelay = 0
	tr.pollInterval = time.Millisecond
	return tr
}

func newTestDevice(t *testing.T, sim *virt.VirtualPN532) (*pn532.Device, *MockI2CBus) {
	t.Helper()

	bus := NewMockI2CBus(sim)
	device, err := pn532.New(newTestTransport(t, bus),
		pn532.WithBusGuard(pn532.NewBusGuard()),
		pn532.WithAckTimeout(50*time.Millisecond),
		pn532.WithReadTimeout(50*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, device.Initialize())
	t.Cleanup(func() { _ = device.Close() })
	return device, bus
}

func TestI2C_Descriptor(t *testing.T) {
	t.Parallel()

	tr := New(Config{Bus: 3, Address: 0x24})
	desc := tr.Descriptor()
	assert.Equal(t, "i2c-3-0x24", desc.ID)
	assert.Equal(t, "I2C 3 0x24", desc.Name)
	assert.Equal(t, "I2C Bus 3, Device 0x24", desc.DisplaySuffix)
	assert.Equal(t, pn532.TransportI2C, tr.Type())
	assert.False(t, tr.IsOpen())
}

func TestI2C_GetFirmwareVersion(t *testing.T) {
	t.Parallel()

	sim := virt.NewVirtualPN532()
	device, bus := newTestDevice(t, sim)

	code, result, err := device.FirmwareVersion()
	require.NoError(t, err)
	require.Equal(t, pn532.ResultOK, result)
	assert.Equal(t, uint32(0x32010607), code)
	assert.Equal(t, "PN532-1.6 I2C Bus 1, Device 0x24", device.DisplayName())

	bus.mu.Lock()
	defer bus.mu.Unlock()
	for _, addr := range bus.addrs {
		assert.Equal(t, uint16(DefaultAddress), addr)
	}
}

func TestI2C_SAMConfiguration(t *testing.T) {
	t.Parallel()

	sim := virt.NewVirtualPN532()
	device, _ := newTestDevice(t, sim)

	result, err := device.SAMConfig()
	require.NoError(t, err)
	assert.Equal(t, pn532.ResultOK, result)
	assert.True(t, sim.SAMConfigured())
}

func TestI2C_ReadPassiveTarget(t *testing.T) {
	t.Parallel()

	sim := virt.NewVirtualPN532()
	sim.SetTag(virt.NewVirtualTag([]byte{0x04, 0xA1, 0xB2, 0xC3, 0xD4, 0xE5, 0x80}))
	device, _ := newTestDevice(t, sim)

	uid := make([]byte, pn532.MaxUIDLength)
	n, result, err := device.ReadPassiveTargetID(pn532.BaudISO14443A, uid)
	require.NoError(t, err)
	require.Equal(t, pn532.ResultOK, result)
	assert.Equal(t, []byte{0x04, 0xA1, 0xB2, 0xC3, 0xD4, 0xE5, 0x80}, uid[:n])
}

func TestI2C_ReadPassiveTarget_NoCard(t *testing.T) {
	t.Parallel()

	sim := virt.NewVirtualPN532()
	device, _ := newTestDevice(t, sim)

	n, result, err := device.ReadPassiveTargetID(pn532.BaudISO14443A, make([]byte, pn532.MaxUIDLength))
	require.NoError(t, err)
	assert.Equal(t, pn532.ResultUndefined, result)
	assert.Zero(t, n)
	assert.Equal(t, 1, sim.Aborts())
}

func TestI2C_BusyBeforeReady(t *testing.T) {
	t.Parallel()

	sim := virt.NewVirtualPN532()
	device, bus := newTestDevice(t, sim)

	bus.mu.Lock()
	bus.busyReads = 5
	bus.mu.Unlock()

	_, result, err := device.FirmwareVersion()
	require.NoError(t, err)
	assert.Equal(t, pn532.ResultOK, result)
}

func TestI2C_ChecksumError(t *testing.T) {
	t.Parallel()

	sim := virt.NewVirtualPN532()
	device, _ := newTestDevice(t, sim)
	sim.InjectChecksumError()

	_, result, err := device.FirmwareVersion()
	require.NoError(t, err)
	assert.Equal(t, pn532.ResultInvalidFrame, result)
}

func TestI2C_AckTimeout(t *testing.T) {
	t.Parallel()

	sim := virt.NewVirtualPN532()
	device, _ := newTestDevice(t, sim)
	sim.DropNextACK()

	result, err := device.SAMConfig()
	require.NoError(t, err)
	assert.Equal(t, pn532.ResultTimeout, result)
}

func TestI2C_BusFault(t *testing.T) {
	t.Parallel()

	sim := virt.NewVirtualPN532()
	device, bus := newTestDevice(t, sim)

	bus.mu.Lock()
	bus.txErr = errBusFault
	bus.mu.Unlock()

	_, _, err := device.FirmwareVersion()
	require.Error(t, err)
	assert.True(t, pn532.IsTransportError(err))
	assert.ErrorIs(t, err, errBusFault)
}

func TestI2C_ReadExactTimeout(t *testing.T) {
	t.Parallel()

	tr := newTestTransport(t, NewMockI2CBus(virt.NewVirtualPN532()))
	require.NoError(t, tr.Open())

	ok, err := tr.ReadExact(make([]byte, 6), 5*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok)

	ready, err := tr.WaitReady(0)
	require.NoError(t, err)
	assert.False(t, ready)
}

func TestI2C_OpenFailure(t *testing.T) {
	t.Parallel()

	tr := New(DefaultConfig())
	tr.initHost = func() error { return nil }
	tr.openBus = func(string) (i2c.BusCloser, error) { return nil, errBusFault }

	err := tr.Open()
	require.Error(t, err)
	assert.True(t, pn532.IsFatal(err))
	assert.False(t, tr.IsOpen())
}

func TestI2C_Closed(t *testing.T) {
	t.Parallel()

	bus := NewMockI2CBus(virt.NewVirtualPN532())
	tr := newTestTransport(t, bus)
	require.NoError(t, tr.Open())
	assert.True(t, tr.IsOpen())

	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close())
	assert.True(t, bus.closed)
	assert.False(t, tr.IsOpen())

	err := tr.WriteFrame([]byte{0x00})
	assert.ErrorIs(t, err, pn532.ErrTransportClosed)
	_, err = tr.ReadExact(make([]byte, 1), 0)
	assert.ErrorIs(t, err, pn532.ErrTransportClosed)
	assert.ErrorIs(t, tr.Wake(), pn532.ErrTransportClosed)
}
