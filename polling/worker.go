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
	"context"

	"github.com/ZaparooProject/pn532scan/internal/syncutil"
)

// Runner is anything that runs a scan session to a terminal state; both
// *Loop and *Supervisor are runners.
type Runner interface {
	Run(ctx context.Context) (State, error)
}

// Worker runs a Runner on its own goroutine.
type Worker struct {
	runner Runner
	cancel context.CancelFunc
	done   chan struct{}
	err    error
	mu     syncutil.Mutex
	state  State
}

// NewWorker creates a stopped worker.
func NewWorker(runner Runner) *Worker {
	return &Worker{runner: runner, done: make(chan struct{})}
}

// Start launches the runner. A worker can be started only once.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	// A non-nil cancel marks the worker as started
	if w.cancel != nil {
		return ErrWorkerStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	go func() {
		defer close(w.done)
		defer cancel()

		state, err := w.runner.Run(ctx)

		w.mu.Lock()
		w.state = state
		w.err = err
		w.mu.Unlock()
	}()
	return nil
}

// Stop cancels the runner and waits for it to exit. It returns the
// terminal state and error. Stopping a worker that was never started
// returns immediately.
func (w *Worker) Stop() (State, error) {
	w.mu.Lock()
	cancel := w.cancel
	w.mu.Unlock()
	if cancel == nil {
		return StateStopped, nil
	}
	cancel()

	<-w.done
	return w.Result()
}

// Done is closed when the runner has exited.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// Err returns the runner error once Done is closed.
func (w *Worker) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Result returns the terminal state and error once Done is closed.
func (w *Worker) Result() (State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state, w.err
}
