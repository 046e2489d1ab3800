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
package pn532

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Default exchange timeouts
const (
	DefaultAckTimeout  = 1000 * time.Millisecond
	DefaultReadTimeout = 1000 * time.Millisecond
)

// Option is a functional option for configuring a Connection
type Option func(*Connection) error

// WithLogger sets the logger used for protocol tracing. A nil logger
// disables logging.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Connection) error {
		if logger == nil {
			logger = zap.NewNop()
		}
		c.logger = logger
		return nil
	}
}

// WithBusGuard sets the guard held while the transport is opened.
func WithBusGuard(guard *BusGuard) Option {
	return func(c *Connection) error {
		if guard == nil {
			return fmt.Errorf("bus guard: %w", ErrInvalidOption)
		}
		c.guard = guard
		return nil
	}
}

// WithAckTimeout sets how long to wait for the ACK frame after a command
func WithAckTimeout(timeout time.Duration) Option {
	return func(c *Connection) error {
		return c.SetAckTimeout(timeout)
	}
}

// WithReadTimeout sets the default response timeout
func WithReadTimeout(timeout time.Duration) Option {
	return func(c *Connection) error {
		return c.SetReadTimeout(timeout)
	}
}

// WithTraceSize sets how many wire operations are kept for error traces.
func WithTraceSize(entries int) Option {
	return func(c *Connection) error {
		c.traceSize = entries
		return nil
	}
}
