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
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	pn532 "github.com/ZaparooProject/pn532scan"
	"github.com/ZaparooProject/pn532scan/polling"
)

// sessionFactory hands out scripted readers, one per session.
type sessionFactory struct {
	err      error
	listener polling.Listener
	readers  []*fakeReader
	ids      []string
	mu       sync.Mutex
}

func (f *sessionFactory) New(opts ...polling.LoopOption) (*polling.Loop, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	reader := &fakeReader{}
	if len(f.readers) > len(f.ids) {
		reader = f.readers[len(f.ids)]
	}
	loop, err := polling.NewLoop(reader, f.listener, fastConfig(), opts...)
	if err != nil {
		return nil, err
	}
	f.ids = append(f.ids, loop.SessionID())
	return loop, nil
}

func (f *sessionFactory) Sessions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ids...)
}

func TestSupervisor_GivesUpAfterMaxRestarts(t *testing.T) {
	t.Parallel()

	fault := errors.New("no such device")
	factory := &sessionFactory{readers: []*fakeReader{
		{initErr: fault}, {initErr: fault}, {initErr: fault}, {initErr: fault},
	}}
	core, logs := observer.New(zapcore.WarnLevel)
	supervisor := polling.NewSupervisor(factory.New,
		polling.SupervisorConfig{Burst: 1, MaxRestarts: 2}, zap.New(core))

	state, err := supervisor.Run(context.Background())
	assert.Equal(t, polling.StateFailed, state)
	require.ErrorIs(t, err, fault)

	sessions := factory.Sessions()
	require.Len(t, sessions, 3)
	assert.NotEqual(t, sessions[0], sessions[1])
	assert.NotEqual(t, sessions[1], sessions[2])
	assert.Equal(t, sessions[2], supervisor.Current().SessionID())

	metrics := supervisor.Metrics()
	assert.Equal(t, int64(2), metrics.Restarts)
	assert.Equal(t, int64(3), metrics.Failures)
	assert.Equal(t, polling.StateFailed, metrics.State)

	assert.Equal(t, 2, logs.FilterMessage("scan session failed, restarting").Len())
	assert.Equal(t, 1, logs.FilterMessage("giving up after restarts").Len())
	scanLogs := logs.FilterMessage("scan failed").All()
	require.Len(t, scanLogs, 3)
	assert.Equal(t, sessions[0], scanLogs[0].ContextMap()["session"])
}

func TestSupervisor_DeviceGoneNotRestarted(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		name string
	}{
		{name: "device not found", err: pn532.NewTransportError("open", "/dev/ttyUSB0", pn532.ErrDeviceNotFound, pn532.ErrorTypePermanent)},
		{name: "transport closed", err: pn532.NewTransportClosedError("read", "/dev/ttyUSB0")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			factory := &sessionFactory{readers: []*fakeReader{{initErr: tt.err}, {}}}
			core, logs := observer.New(zapcore.WarnLevel)
			supervisor := polling.NewSupervisor(factory.New, polling.SupervisorConfig{Burst: 5}, zap.New(core))

			state, err := supervisor.Run(context.Background())
			assert.Equal(t, polling.StateFailed, state)
			require.ErrorIs(t, err, tt.err)
			assert.True(t, pn532.IsFatal(err))

			assert.Len(t, factory.Sessions(), 1)
			assert.Zero(t, supervisor.Metrics().Restarts)
			assert.Equal(t, 1, logs.FilterMessage("device unavailable, not restarting").Len())
			assert.Zero(t, logs.FilterMessage("scan session failed, restarting").Len())
		})
	}
}

func TestSupervisor_RecoversAfterFailure(t *testing.T) {
	t.Parallel()

	listener := &recordingListener{}
	factory := &sessionFactory{
		listener: listener,
		readers: []*fakeReader{
			{scans: []scanStep{{err: errors.New("bus gone")}}},
			{scans: []scanStep{{uid: []byte{0x11, 0x22, 0x33, 0x44}}}},
		},
	}
	supervisor := polling.NewSupervisor(factory.New, polling.SupervisorConfig{Burst: 1}, nil)

	worker := polling.NewWorker(supervisor)
	require.NoError(t, worker.Start(context.Background()))
	require.Eventually(t, func() bool { return len(listener.UIDs()) == 1 }, time.Second, time.Millisecond)

	state, err := worker.Stop()
	require.NoError(t, err)
	assert.Equal(t, polling.StateStopped, state)
	assert.Equal(t, []string{"11223344"}, listener.UIDs())
	assert.Len(t, listener.Failures(), 1)
	assert.Len(t, factory.Sessions(), 2)
	assert.Equal(t, 1, factory.readers[0].Closes())
	assert.Equal(t, 1, factory.readers[1].Closes())

	metrics := supervisor.Metrics()
	assert.Equal(t, int64(1), metrics.Restarts)
	assert.Equal(t, int64(1), metrics.CardsDetected)
	assert.Equal(t, polling.StateStopped, metrics.State)
}

func TestSupervisor_CancelWhileThrottled(t *testing.T) {
	t.Parallel()

	fault := errors.New("no such device")
	factory := &sessionFactory{readers: []*fakeReader{{initErr: fault}, {initErr: fault}, {initErr: fault}}}
	supervisor := polling.NewSupervisor(factory.New,
		polling.SupervisorConfig{Interval: time.Hour, Burst: 1}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	state, err := supervisor.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, polling.StateStopped, state)
	// The first restart uses the burst token, the second waits for the interval
	assert.Len(t, factory.Sessions(), 2)
	assert.Equal(t, int64(1), supervisor.Metrics().Restarts)
}

func TestSupervisor_FactoryError(t *testing.T) {
	t.Parallel()

	factory := &sessionFactory{err: assert.AnError}
	supervisor := polling.NewSupervisor(factory.New, polling.DefaultSupervisorConfig(), nil)

	state, err := supervisor.Run(context.Background())
	assert.Equal(t, polling.StateFailed, state)
	require.ErrorIs(t, err, assert.AnError)
	assert.Nil(t, supervisor.Current())
}

func TestDefaultSupervisorConfig(t *testing.T) {
	t.Parallel()

	config := polling.DefaultSupervisorConfig()
	assert.Equal(t, 5*time.Second, config.Interval)
	assert.Equal(t, 1, config.Burst)
	assert.Zero(t, config.MaxRestarts)
}
