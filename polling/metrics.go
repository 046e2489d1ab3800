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
	"sync/atomic"
	"time"
)

// Metrics is a point-in-time snapshot of scan counters
type Metrics struct {
	PollCycles      int64         // Passive target reads attempted
	NoTargetPolls   int64         // Reads that found no card
	CardsDetected   int64         // Reads that returned a UID
	Failures        int64         // Sessions that ended in StateFailed
	Restarts        int64         // Sessions restarted by a Supervisor
	LastPollLatency time.Duration // Duration of the last passive target read
	State           State         // State of the current session
}

// Recorder accumulates metrics with atomic counters. One recorder may be
// shared by consecutive sessions so counters survive restarts.
type Recorder struct {
	pollCycles      atomic.Int64
	noTargetPolls   atomic.Int64
	cardsDetected   atomic.Int64
	failures        atomic.Int64
	restarts        atomic.Int64
	lastPollLatency atomic.Int64 // in nanoseconds
	state           atomic.Int32
}

// NewRecorder returns a recorder with all counters at zero.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Snapshot reads all counters without locking.
func (r *Recorder) Snapshot() Metrics {
	return Metrics{
		PollCycles:      r.pollCycles.Load(),
		NoTargetPolls:   r.noTargetPolls.Load(),
		CardsDetected:   r.cardsDetected.Load(),
		Failures:        r.failures.Load(),
		Restarts:        r.restarts.Load(),
		LastPollLatency: time.Duration(r.lastPollLatency.Load()),
		State:           State(r.state.Load()),
	}
}

func (r *Recorder) observePoll(latency time.Duration) {
	r.pollCycles.Add(1)
	r.lastPollLatency.Store(int64(latency))
}

func (r *Recorder) setState(s State) {
	r.state.Store(int32(s))
}
