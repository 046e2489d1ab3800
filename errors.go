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
	"io"
)

// Transport errors
var (
	ErrTransportWrite  = errors.New("transport write failed")
	ErrTransportClosed = errors.New("transport is closed")
	ErrDeviceNotFound  = errors.New("device not found")
)

// Usage errors. These report a caller bug, never a chip condition.
var (
	ErrAlreadyBegun  = errors.New("begin can only be called once")
	ErrNotBegun      = errors.New("connection not opened, call Begin first")
	ErrNotAwake      = errors.New("connection not awake, call Wakeup first")
	ErrEmptyHeader   = errors.New("command header is empty")
	ErrNilTransport  = errors.New("transport is nil")
	ErrInvalidOption = errors.New("invalid option")
)

// ErrorType represents the category of error for retry logic
type ErrorType int

const (
	// ErrorTypeTransient indicates a potentially retryable error
	ErrorTypeTransient ErrorType = iota
	// ErrorTypePermanent indicates a non-retryable error
	ErrorTypePermanent
)

// TransportError wraps a bus fault with the operation and port it hit.
type TransportError struct {
	Err       error     // Underlying error
	Op        string    // Operation that failed
	Port      string    // Port or device identifier
	Type      ErrorType // Error category
	Retryable bool      // Whether the error is retryable
}

func (e *TransportError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Port, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// UsageError reports an API contract violation, such as sending a command
// on a connection that was never opened.
type UsageError struct {
	Err error
	Op  string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("pn532: %s: %v", e.Op, e.Err)
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

func usageError(op string, err error) *UsageError {
	return &UsageError{Op: op, Err: err}
}

// IsUsageError reports whether err is an API contract violation.
func IsUsageError(err error) bool {
	var ue *UsageError
	return errors.As(err, &ue)
}

// IsTransportError reports whether err came from the bus layer.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsRetryable returns true if the error is potentially retryable
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable
	}

	return errors.Is(err, ErrTransportWrite)
}

// IsFatal returns true if the error indicates the device is gone and the
// session cannot continue on this connection.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	if IsDeviceGone(err) {
		return true
	}

	var te *TransportError
	if errors.As(err, &te) && te.Type == ErrorTypePermanent {
		return true
	}

	switch {
	case errors.Is(err, ErrTransportClosed),
		errors.Is(err, ErrDeviceNotFound),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrClosedPipe):
		return true
	default:
		return false
	}
}

// IsDeviceGone checks for OS-level errors indicating the device was
// disconnected during I/O.
func IsDeviceGone(err error) bool {
	if err == nil {
		return false
	}
	return isDeviceGoneErrno(err)
}

// NewTransportError creates a standard transport error with consistent formatting
func NewTransportError(op, port string, err error, errType ErrorType) *TransportError {
	return &TransportError{
		Op:        op,
		Port:      port,
		Err:       err,
		Type:      errType,
		Retryable: errType == ErrorTypeTransient,
	}
}

// NewTransportWriteError creates a write error (transient)
func NewTransportWriteError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTransportWrite, ErrorTypeTransient)
}

// NewTransportClosedError reports I/O on a transport that is not open.
func NewTransportClosedError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTransportClosed, ErrorTypePermanent)
}

// WrapTransportError wraps a bus fault. Device-gone errnos are classified
// permanent, everything else transient.
func WrapTransportError(op, port string, err error) error {
	if err == nil {
		return nil
	}
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}
	errType := ErrorTypeTransient
	if IsDeviceGone(err) {
		errType = ErrorTypePermanent
	}
	return NewTransportError(op, port, err, errType)
}
