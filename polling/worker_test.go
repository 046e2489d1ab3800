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
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZaparooProject/pn532scan/polling"
)

type blockingRunner struct {
	started chan struct{}
}

func (r *blockingRunner) Run(ctx context.Context) (polling.State, error) {
	close(r.started)
	<-ctx.Done()
	return polling.StateStopped, nil
}

func TestWorker_StartOnce(t *testing.T) {
	t.Parallel()

	runner := &blockingRunner{started: make(chan struct{})}
	worker := polling.NewWorker(runner)

	require.NoError(t, worker.Start(context.Background()))
	require.ErrorIs(t, worker.Start(context.Background()), polling.ErrWorkerStarted)

	<-runner.started
	select {
	case <-worker.Done():
		t.Fatal("worker exited before Stop")
	default:
	}

	state, err := worker.Stop()
	require.NoError(t, err)
	assert.Equal(t, polling.StateStopped, state)

	// Stop after exit returns the stored result
	state, err = worker.Stop()
	require.NoError(t, err)
	assert.Equal(t, polling.StateStopped, state)
}

func TestWorker_StopBeforeStart(t *testing.T) {
	t.Parallel()

	worker := polling.NewWorker(&blockingRunner{started: make(chan struct{})})
	state, err := worker.Stop()
	require.NoError(t, err)
	assert.Equal(t, polling.StateStopped, state)
}

func TestWorker_ConcurrentStartStop(t *testing.T) {
	t.Parallel()

	for range 50 {
		worker := polling.NewWorker(&blockingRunner{started: make(chan struct{})})

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, worker.Start(context.Background()))
		}()
		go func() {
			defer wg.Done()
			_, err := worker.Stop()
			assert.NoError(t, err)
		}()
		wg.Wait()

		state, err := worker.Stop()
		require.NoError(t, err)
		assert.Equal(t, polling.StateStopped, state)
	}
}

func TestWorker_RunnerFailure(t *testing.T) {
	t.Parallel()

	reader := &fakeReader{initErr: assert.AnError}
	loop, err := polling.NewLoop(reader, nil, fastConfig())
	require.NoError(t, err)

	worker := polling.NewWorker(loop)
	require.NoError(t, worker.Start(context.Background()))

	select {
	case <-worker.Done():
	case <-time.After(time.Second):
		t.Fatal("worker did not exit")
	}
	require.ErrorIs(t, worker.Err(), assert.AnError)

	state, err := worker.Result()
	assert.Equal(t, polling.StateFailed, state)
	require.ErrorIs(t, err, assert.AnError)
}

func TestWorker_ParentContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	runner := &blockingRunner{started: make(chan struct{})}
	worker := polling.NewWorker(runner)
	require.NoError(t, worker.Start(ctx))

	<-runner.started
	cancel()

	select {
	case <-worker.Done():
	case <-time.After(time.Second):
		t.Fatal("worker ignored parent cancellation")
	}
	state, err := worker.Result()
	require.NoError(t, err)
	assert.Equal(t, polling.StateStopped, state)
}
