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

import (
	"io"
	"math/rand/v2"
)

// JitterConfig configures the behavior of JitteryReader.
type JitterConfig struct {
	Seed             uint64
	FragmentMinBytes int
	// FragmentMaxBytes caps each read; zero means no cap.
	FragmentMaxBytes int
	// EmptyReadEvery returns an empty read every N reads, like a serial
	// read timeout expiring between bursts. Zero disables it.
	EmptyReadEvery int
}

// JitteryReader wraps an io.Reader to simulate how USB-UART bridges deliver
// a frame in unpredictable fragments. Data is buffered, never dropped.
type JitteryReader struct {
	backend io.Reader
	rng     *rand.Rand
	readBuf []byte
	config  JitterConfig
	reads   int
}

// NewJitteryReader wraps backend with fragmentation.
func NewJitteryReader(backend io.Reader, config JitterConfig) *JitteryReader {
	seed := config.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	if config.FragmentMinBytes < 1 {
		config.FragmentMinBytes = 1
	}
	return &JitteryReader{
		backend: backend,
		config:  config,
		rng:     rand.New(rand.NewPCG(seed, seed^0xDEADBEEF)), //nolint:gosec // Test code, not crypto
	}
}

// Read returns the next fragment of buffered backend data.
func (j *JitteryReader) Read(buf []byte) (int, error) {
	j.reads++
	if j.config.EmptyReadEvery > 0 && j.reads%j.config.EmptyReadEvery == 0 {
		return 0, nil
	}

	if len(j.readBuf) == 0 {
		tempBuf := make([]byte, 512)
		n, err := j.backend.Read(tempBuf)
		if err != nil {
			return 0, err //nolint:wrapcheck // Pass-through wrapper
		}
		j.readBuf = append(j.readBuf, tempBuf[:n]...)
	}

	toReturn := min(len(j.readBuf), len(buf))
	if j.config.FragmentMaxBytes > 0 {
		toReturn = min(toReturn, j.config.FragmentMaxBytes)
	}
	if toReturn > j.config.FragmentMinBytes {
		toReturn = j.config.FragmentMinBytes + j.rng.IntN(toReturn-j.config.FragmentMinBytes+1)
	}

	copy(buf, j.readBuf[:toReturn])
	j.readBuf = j.readBuf[toReturn:]
	return toReturn, nil
}

// Buffered returns how many fetched bytes have not been returned yet.
func (j *JitteryReader) Buffered() int {
	return len(j.readBuf)
}

// Discard drops buffered data, as a serial input flush would.
func (j *JitteryReader) Discard() {
	j.readBuf = j.readBuf[:0]
}
