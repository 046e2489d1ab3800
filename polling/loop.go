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
	"fmt"
	"time"

	"go.uber.org/zap"

	pn532 "github.com/ZaparooProject/pn532scan"
)

// Reader is the part of *pn532.Device the scan loop drives.
type Reader interface {
	Initialize() error
	FirmwareVersion() (uint32, pn532.TransferResult, error)
	SAMConfig() (pn532.TransferResult, error)
	ReadPassiveTargetID(baud byte, uid []byte) (int, pn532.TransferResult, error)
	DisplayName() string
	Close() error
}

var _ Reader = (*pn532.Device)(nil)

// LoopOption configures a Loop
type LoopOption func(*Loop)

// WithLogger sets the loop logger.
func WithLogger(logger *zap.Logger) LoopOption {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithRecorder makes the loop report into a shared recorder.
func WithRecorder(recorder *Recorder) LoopOption {
	return func(l *Loop) {
		if recorder != nil {
			l.recorder = recorder
		}
	}
}

// WithSessionID tags log entries with a session identifier.
func WithSessionID(id string) LoopOption {
	return func(l *Loop) {
		l.sessionID = id
	}
}

// Loop runs one scan session on a reader: initialize, settle, query the
// firmware, configure the SAM, then read passive targets until the
// context is cancelled or an exchange fails. A loop runs once.
type Loop struct {
	reader    Reader
	listener  Listener
	config    *Config
	logger    *zap.Logger
	recorder  *Recorder
	sessionID string
	state     State
}

// NewLoop creates a scan loop. A nil config uses DefaultConfig and a nil
// listener discards events.
func NewLoop(reader Reader, listener Listener, config *Config, opts ...LoopOption) (*Loop, error) {
	if reader == nil {
		return nil, ErrNilReader
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if listener == nil {
		listener = ListenerFuncs{}
	}

	l := &Loop{
		reader:   reader,
		listener: listener,
		config:   config,
		logger:   zap.NewNop(),
		recorder: NewRecorder(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.sessionID != "" {
		l.logger = l.logger.With(zap.String("session", l.sessionID))
	}
	return l, nil
}

// Metrics returns a snapshot of the loop counters.
func (l *Loop) Metrics() Metrics {
	return l.recorder.Snapshot()
}

// SessionID returns the identifier set with WithSessionID.
func (l *Loop) SessionID() string {
	return l.sessionID
}

// Run drives the session to a terminal state. StateStopped is returned
// with a nil error after ctx is cancelled; StateFailed is returned with a
// *ScanError. The reader is closed in both cases.
func (l *Loop) Run(ctx context.Context) (State, error) {
	defer func() {
		if err := l.reader.Close(); err != nil {
			l.logger.Warn("close reader", zap.Error(err))
		}
	}()

	l.enter(StateInit)
	if err := l.reader.Initialize(); err != nil {
		l.message("initialize error: %v", err)
		return l.fail(pn532.ResultUndefined, err)
	}

	l.enter(StateWakeDelay)
	if !sleepCtx(ctx, l.config.SettleDelay) {
		return l.stop()
	}

	l.enter(StateQueryFirmware)
	version, result, err := l.reader.FirmwareVersion()
	if err != nil {
		l.message("firmware version error: %v", err)
		return l.fail(result, err)
	}
	if !result.OK() {
		l.message("firmware version returned %s", result)
		return l.fail(result, nil)
	}
	l.logger.Info("reader found", zap.String("reader", l.reader.DisplayName()), zap.Uint32("version", version))
	l.message("found.")

	l.enter(StateConfigureSAM)
	result, err = l.reader.SAMConfig()
	if err != nil {
		l.message("SAM configuration error: %v", err)
		return l.fail(result, err)
	}
	if !result.OK() {
		l.message("SAM configuration failed: %s", result)
		return l.fail(result, nil)
	}
	l.message("running.")

	l.enter(StateScanning)
	return l.scan(ctx)
}

func (l *Loop) scan(ctx context.Context) (State, error) {
	uid := make([]byte, pn532.MaxUIDLength)
	for {
		start := time.Now()
		n, result, err := l.reader.ReadPassiveTargetID(l.config.BaudRate, uid)
		l.recorder.observePoll(time.Since(start))

		switch {
		case err != nil:
			l.message("read passive target error: %v", err)
			return l.fail(result, err)
		case result == pn532.ResultUndefined:
			l.recorder.noTargetPolls.Add(1)
		case !result.OK():
			l.message("read passive target returned %s", result)
			return l.fail(result, nil)
		case n > 0:
			l.recorder.cardsDetected.Add(1)
			card := append([]byte(nil), uid[:n]...)
			l.logger.Debug("card detected", zap.String("uid", FormatUID(card)))
			l.listener.OnUID(l.reader.DisplayName(), card)
		}

		if !sleepCtx(ctx, l.config.PollInterval) {
			return l.stop()
		}
	}
}

func (l *Loop) enter(state State) {
	l.logger.Debug("state", zap.Stringer("from", l.state), zap.Stringer("to", state))
	l.state = state
	l.recorder.setState(state)
}

func (l *Loop) message(format string, args ...any) {
	l.listener.OnMessage(l.reader.DisplayName() + ": " + fmt.Sprintf(format, args...))
}

func (l *Loop) stop() (State, error) {
	l.enter(StateStopped)
	l.message("stopped.")
	return StateStopped, nil
}

func (l *Loop) fail(result pn532.TransferResult, err error) (State, error) {
	scanErr := &ScanError{State: l.state, Result: result, Err: err}
	l.logger.Error("scan failed",
		zap.Stringer("state", l.state),
		zap.Stringer("result", result),
		zap.Error(err))

	l.recorder.failures.Add(1)
	l.listener.OnFailure(l.state, result, err)
	l.enter(StateFailed)
	return StateFailed, scanErr
}

// sleepCtx sleeps for the given duration. It returns false if ctx was
// cancelled before or during the sleep.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
