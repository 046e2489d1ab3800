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

// State is the scan loop state machine position
type State int32

const (
	StateInit State = iota
	StateWakeDelay
	StateQueryFirmware
	StateConfigureSAM
	StateScanning
	StateStopped
	StateFailed
)

var stateNames = [...]string{
	StateInit:          "init",
	StateWakeDelay:     "wake delay",
	StateQueryFirmware: "query firmware",
	StateConfigureSAM:  "configure SAM",
	StateScanning:      "scanning",
	StateStopped:       "stopped",
	StateFailed:        "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// IsTerminal reports whether the loop has exited in this state.
func (s State) IsTerminal() bool {
	return s == StateStopped || s == StateFailed
}
