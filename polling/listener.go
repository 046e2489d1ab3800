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

import pn532 "github.com/ZaparooProject/pn532scan"

// Listener receives scan loop events. Calls are made from the loop
// goroutine and must not block for long.
type Listener interface {
	// OnMessage receives progress messages prefixed with the reader
	// display name.
	OnMessage(message string)
	// OnUID is called for every card read; uid is owned by the listener.
	OnUID(displayName string, uid []byte)
	// OnFailure is called once when the loop ends in StateFailed.
	OnFailure(state State, result pn532.TransferResult, err error)
}

// ListenerFuncs adapts optional functions to a Listener
type ListenerFuncs struct {
	Message func(message string)
	UID     func(displayName string, uid []byte)
	Failure func(state State, result pn532.TransferResult, err error)
}

func (f ListenerFuncs) OnMessage(message string) {
	if f.Message != nil {
		f.Message(message)
	}
}

func (f ListenerFuncs) OnUID(displayName string, uid []byte) {
	if f.UID != nil {
		f.UID(displayName, uid)
	}
}

func (f ListenerFuncs) OnFailure(state State, result pn532.TransferResult, err error) {
	if f.Failure != nil {
		f.Failure(state, result, err)
	}
}

// FormatUID renders a UID as uppercase hex without separators, e.g.
// "04A1B2C3D4E580".
func FormatUID(uid []byte) string {
	return pn532.FormatUID(uid)
}
