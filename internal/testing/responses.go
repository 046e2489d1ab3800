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
package testing

// BuildResponseFrame wraps payload in a chip-to-host frame answering cmd.
func BuildResponseFrame(cmd byte, payload []byte) []byte {
	data := make([]byte, 0, 2+len(payload))
	data = append(data, tfiPN532ToHost, cmd+1)
	data = append(data, payload...)
	return buildFrame(data)
}

// BuildFirmwareVersionFrame creates a GetFirmwareVersion response frame
func BuildFirmwareVersionFrame(ic, ver, rev, support byte) []byte {
	return BuildResponseFrame(cmdGetFirmwareVersion, []byte{ic, ver, rev, support})
}

// BuildSAMConfigurationFrame creates the empty SAMConfiguration response frame
func BuildSAMConfigurationFrame() []byte {
	return BuildResponseFrame(cmdSAMConfiguration, nil)
}

// BuildPassiveTargetFrame creates an InListPassiveTarget response frame with
// one ISO14443A target.
func BuildPassiveTargetFrame(tag *VirtualTag) []byte {
	return BuildResponseFrame(cmdInListPassiveTarget, tag.targetData(1))
}

// BuildNoTargetFrame creates an InListPassiveTarget response with no target
func BuildNoTargetFrame() []byte {
	return BuildResponseFrame(cmdInListPassiveTarget, []byte{0x00})
}

// BuildErrorFrame creates the application level error frame the chip sends
// for a command it cannot parse.
func BuildErrorFrame() []byte {
	return buildFrame([]byte{tfiError, 0x81})
}

func buildFrame(data []byte) []byte {
	out := make([]byte, 0, len(data)+7)
	length := byte(len(data))
	out = append(out, pn532Preamble, pn532StartCode1, pn532StartCode2, length, ^length+1)
	out = append(out, data...)

	var sum byte
	for _, b := range data {
		sum += b
	}
	return append(out, ^sum+1, pn532Postamble)
}
