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
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ZaparooProject/pn532scan/internal/frame"
	"github.com/ZaparooProject/pn532scan/internal/syncutil"
)

const defaultModelName = "PN5xx"

// Connection runs command exchanges with a PN532 over a single transport.
//
// An exchange is WriteCommand (encode, write, wait for ACK) followed by
// ReadResponse. The protocol is half-duplex: exchanges are serialized and
// the response must be read before the next command is written.
type Connection struct {
	transport Transport
	logger    *zap.Logger
	guard     *BusGuard
	trace     *TraceBuffer
	desc      Descriptor

	modelName       string
	firmwareVersion string

	scratch [frame.MaxFrameLength]byte

	ackTimeout  time.Duration
	readTimeout time.Duration
	traceSize   int

	mu     syncutil.Mutex
	metaMu syncutil.RWMutex

	lastCommand byte
	begun       bool
	awake       bool
}

// NewConnection creates an unopened connection on the transport.
func NewConnection(transport Transport, opts ...Option) (*Connection, error) {
	if transport == nil {
		return nil, usageError("new connection", ErrNilTransport)
	}

	c := &Connection{
		transport:   transport,
		logger:      zap.NewNop(),
		guard:       DefaultBusGuard,
		desc:        transport.Descriptor(),
		modelName:   defaultModelName,
		ackTimeout:  DefaultAckTimeout,
		readTimeout: DefaultReadTimeout,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	c.logger = c.logger.With(zap.String("device", c.desc.ID), zap.String("transport", string(transport.Type())))
	c.trace = NewTraceBuffer(string(transport.Type()), c.desc.ID, c.traceSize)
	return c, nil
}

// Begin opens the transport. It may be called only once per connection,
// even when the first attempt failed.
func (c *Connection) Begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.logger.Debug("begin")
	if c.begun {
		return usageError("begin", ErrAlreadyBegun)
	}
	c.begun = true

	if err := c.guard.Do(c.transport.Open); err != nil {
		return fmt.Errorf("%s: begin: %w", c.DisplayName(), err)
	}

	c.logger.Debug("begin successful")
	return nil
}

// Wakeup runs the transport wake sequence.
func (c *Connection) Wakeup() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.logger.Debug("wakeup")
	if !c.begun || !c.transport.IsOpen() {
		return usageError("wakeup", ErrNotBegun)
	}

	if err := c.transport.Wake(); err != nil {
		return fmt.Errorf("%s: wakeup: %w", c.DisplayName(), err)
	}
	c.awake = true

	c.logger.Debug("wakeup successful")
	return nil
}

// WriteCommand sends header[0] as command code with the remaining header
// bytes and body as parameters, then waits for the ACK frame.
func (c *Connection) WriteCommand(header, body []byte) (TransferResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkReady("write command"); err != nil {
		return ResultUndefined, err
	}
	if len(header) == 0 {
		return ResultUndefined, usageError("write command", ErrEmptyHeader)
	}

	c.logger.Debug("write command",
		zap.String("header", FormatHex(header)),
		zap.String("body", FormatHex(body)))

	encoded, err := frame.Encode(header, body)
	if err != nil {
		return ResultUndefined, usageError("write command", err)
	}

	c.trace.Clear()
	c.trace.RecordTX(encoded, "command")
	c.lastCommand = header[0]
	if err := c.writeFrame(encoded); err != nil {
		return ResultUndefined, c.trace.WrapError(fmt.Errorf("%s: write command: %w", c.DisplayName(), err))
	}

	return c.readAck()
}

// ReadAckFrame waits up to the ACK timeout for the ACK frame.
func (c *Connection) ReadAckFrame() (TransferResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkReady("read ack"); err != nil {
		return ResultUndefined, err
	}
	return c.readAck()
}

// ReadResponse reads the response to the last command and copies its
// payload into dst. len(dst) is the largest payload accepted; a longer
// payload yields ResultInsufficientSpace.
func (c *Connection) ReadResponse(dst []byte, timeout time.Duration) (int, TransferResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkReady("read response"); err != nil {
		return 0, ResultUndefined, err
	}

	raw, ok, err := c.readRawResponse(len(dst), timeout)
	if err != nil {
		return 0, ResultUndefined, c.trace.WrapError(fmt.Errorf("%s: read response: %w", c.DisplayName(), err))
	}
	if !ok {
		c.trace.RecordTimeout("response")
		c.logger.Debug("read response timed out", zap.Duration("timeout", timeout))
		return 0, ResultTimeout, nil
	}
	c.trace.RecordRX(raw, "response")

	n, result := frame.ParseResponse(raw, c.lastCommand, dst)
	if !result.OK() {
		c.logger.Debug("read response rejected",
			zap.Stringer("result", result),
			zap.String("raw", FormatHex(raw)))
		return 0, result, nil
	}

	c.logger.Debug("read response", zap.Int("length", n), zap.String("payload", FormatHex(dst[:n])))
	return n, ResultOK, nil
}

// Abort writes an ACK frame, which makes the chip drop the command it is
// executing.
func (c *Connection) Abort() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkReady("abort"); err != nil {
		return err
	}

	c.logger.Debug("abort")
	c.trace.RecordTX(frame.AckFrame, "abort")
	if err := c.writeFrame(frame.AckFrame); err != nil {
		return c.trace.WrapError(fmt.Errorf("%s: abort: %w", c.DisplayName(), err))
	}
	return nil
}

// Close releases the transport. It is a no-op when the connection is not
// open.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.awake = false
	if !c.begun || !c.transport.IsOpen() {
		return nil
	}

	c.logger.Debug("close")
	if err := c.transport.Close(); err != nil {
		return fmt.Errorf("%s: close: %w", c.DisplayName(), err)
	}
	return nil
}

// IsOpen reports whether the transport is open.
func (c *Connection) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.begun && c.transport.IsOpen()
}

// DisplayName returns the chip model, firmware version when known, and the
// transport display suffix, e.g. "PN532-1.6 I2C Bus 1, Device 0x24".
func (c *Connection) DisplayName() string {
	c.metaMu.RLock()
	defer c.metaMu.RUnlock()

	name := c.modelName
	if c.firmwareVersion != "" {
		name += "-" + c.firmwareVersion
	}
	return name + " " + c.desc.DisplaySuffix
}

// Descriptor returns the transport descriptor.
func (c *Connection) Descriptor() Descriptor {
	return c.desc
}

// Logger returns the connection-scoped logger.
func (c *Connection) Logger() *zap.Logger {
	return c.logger
}

// AckTimeout returns the ACK timeout.
func (c *Connection) AckTimeout() time.Duration {
	c.metaMu.RLock()
	defer c.metaMu.RUnlock()
	return c.ackTimeout
}

// SetAckTimeout sets the ACK timeout.
func (c *Connection) SetAckTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return fmt.Errorf("ack timeout %v: %w", timeout, ErrInvalidOption)
	}
	c.metaMu.Lock()
	defer c.metaMu.Unlock()
	c.ackTimeout = timeout
	return nil
}

// ReadTimeout returns the default response timeout.
func (c *Connection) ReadTimeout() time.Duration {
	c.metaMu.RLock()
	defer c.metaMu.RUnlock()
	return c.readTimeout
}

// SetReadTimeout sets the default response timeout.
func (c *Connection) SetReadTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return fmt.Errorf("read timeout %v: %w", timeout, ErrInvalidOption)
	}
	c.metaMu.Lock()
	defer c.metaMu.Unlock()
	c.readTimeout = timeout
	return nil
}

func (c *Connection) setIdentity(model, firmware string) {
	c.metaMu.Lock()
	defer c.metaMu.Unlock()
	c.modelName = model
	c.firmwareVersion = firmware
}

func (c *Connection) checkReady(op string) error {
	if !c.begun || !c.transport.IsOpen() {
		return usageError(op, ErrNotBegun)
	}
	if !c.awake {
		return usageError(op, ErrNotAwake)
	}
	return nil
}

// writeFrame wraps WriteFrame in the transport's write hooks. PostWrite
// runs whenever PreWrite succeeded.
func (c *Connection) writeFrame(data []byte) (err error) {
	hooks, hasHooks := c.transport.(WriteHooks)
	if hasHooks {
		if err := hooks.PreWrite(); err != nil {
			return err
		}
		defer func() {
			err = errors.Join(err, hooks.PostWrite())
		}()
	}
	return c.transport.WriteFrame(data)
}

func (c *Connection) readAck() (TransferResult, error) {
	buf := c.scratch[:frame.AckLength]
	ok, err := c.transport.ReadExact(buf, c.AckTimeout())
	if err != nil {
		return ResultUndefined, c.trace.WrapError(fmt.Errorf("%s: read ack: %w", c.DisplayName(), err))
	}
	if !ok {
		c.trace.RecordTimeout("ack")
		c.logger.Debug("ack timed out")
		return ResultTimeout, nil
	}
	c.trace.RecordRX(buf, "ack")

	if !frame.IsAck(buf) {
		c.logger.Debug("invalid ack", zap.String("raw", FormatHex(buf)))
		return ResultInvalidAck, nil
	}
	return ResultOK, nil
}

// readRawResponse returns the raw response bytes. Block transports restart
// each read at the first frame byte, so the whole frame is read at once,
// sized for maxPayload; the parser ignores trailing padding. Stream
// transports read the header first and then exactly the announced length.
func (c *Connection) readRawResponse(maxPayload int, timeout time.Duration) ([]byte, bool, error) {
	if !HasCapability(c.transport, CapabilityIncrementalRead) {
		size := min(maxPayload+frame.Overhead, len(c.scratch))
		buf := c.scratch[:size]
		ok, err := c.transport.ReadExact(buf, timeout)
		return buf, ok, err
	}

	deadline := time.Now().Add(timeout)
	header := c.scratch[:frame.HeaderLength]
	ok, err := c.transport.ReadExact(header, timeout)
	if err != nil || !ok {
		return nil, ok, err
	}

	total, valid := frame.ResponseLength(header)
	if !valid {
		return header, true, nil
	}

	buf := c.scratch[:total]
	ok, err = c.transport.ReadExact(buf[frame.HeaderLength:], max(time.Until(deadline), 0))
	return buf, ok, err
}
