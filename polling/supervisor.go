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
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	pn532 "github.com/ZaparooProject/pn532scan"
)

// LoopFactory builds a fresh scan session. The supervisor passes options
// that must be forwarded to NewLoop.
type LoopFactory func(opts ...LoopOption) (*Loop, error)

// SupervisorConfig controls session restarts
type SupervisorConfig struct {
	// Interval is the minimum spacing between restarts once Burst is used up
	Interval time.Duration
	// Burst is how many restarts may happen back to back
	Burst int
	// MaxRestarts stops the supervisor after this many restarts; zero means
	// no limit
	MaxRestarts int
}

// DefaultSupervisorConfig returns one restart every five seconds.
func DefaultSupervisorConfig() SupervisorConfig {
	return SupervisorConfig{Interval: 5 * time.Second, Burst: 1}
}

// Supervisor restarts failed scan sessions. Each session gets a fresh
// device from the factory and a new session ID; restarts are throttled
// with a token bucket.
type Supervisor struct {
	factory  LoopFactory
	limiter  *rate.Limiter
	logger   *zap.Logger
	recorder *Recorder
	current  atomic.Pointer[Loop]
	config   SupervisorConfig
}

// NewSupervisor creates a supervisor. A nil logger discards output.
func NewSupervisor(factory LoopFactory, config SupervisorConfig, logger *zap.Logger) *Supervisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Burst < 1 {
		config.Burst = 1
	}
	limit := rate.Inf
	if config.Interval > 0 {
		limit = rate.Every(config.Interval)
	}
	return &Supervisor{
		factory:  factory,
		limiter:  rate.NewLimiter(limit, config.Burst),
		logger:   logger,
		recorder: NewRecorder(),
		config:   config,
	}
}

// Metrics returns counters accumulated over all sessions.
func (s *Supervisor) Metrics() Metrics {
	return s.recorder.Snapshot()
}

// Current returns the running session, or nil before the first one.
func (s *Supervisor) Current() *Loop {
	return s.current.Load()
}

// Run starts sessions until one stops cleanly or ctx is cancelled. It
// also gives up once the restart budget is spent or when a session fails
// because the device is gone. The first session starts immediately.
func (s *Supervisor) Run(ctx context.Context) (State, error) {
	for {
		sessionID := uuid.NewString()
		loop, err := s.factory(
			WithSessionID(sessionID),
			WithRecorder(s.recorder),
			WithLogger(s.logger),
		)
		if err != nil {
			return StateFailed, err
		}
		s.current.Store(loop)

		state, err := loop.Run(ctx)
		if state != StateFailed || ctx.Err() != nil {
			return state, err
		}

		if pn532.IsFatal(err) {
			s.logger.Error("device unavailable, not restarting",
				zap.String("session", sessionID),
				zap.Error(err))
			return state, err
		}

		restarts := s.recorder.restarts.Load()
		if s.config.MaxRestarts > 0 && restarts >= int64(s.config.MaxRestarts) {
			s.logger.Error("giving up after restarts", zap.Int64("restarts", restarts), zap.Error(err))
			return state, err
		}

		s.logger.Warn("scan session failed, restarting",
			zap.String("session", sessionID),
			zap.Error(err))
		if waitErr := s.limiter.Wait(ctx); waitErr != nil {
			if ctx.Err() != nil {
				return StateStopped, nil
			}
			return state, errors.Join(err, waitErr)
		}
		s.recorder.restarts.Add(1)
	}
}
