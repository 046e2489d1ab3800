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
	"errors"
	"fmt"
	"time"

	pn532 "github.com/ZaparooProject/pn532scan"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid polling config")

// Config holds polling configuration options
type Config struct {
	// PollInterval is the pause between passive target reads
	PollInterval time.Duration
	// SettleDelay is how long the chip is left alone after wakeup
	SettleDelay time.Duration
	// BaudRate selects the card type to look for. Only pn532.BaudISO14443A
	// is supported since UIDs are parsed from the type A target layout.
	BaudRate byte
}

// DefaultConfig returns the default polling configuration
func DefaultConfig() *Config {
	return &Config{
		PollInterval: 100 * time.Millisecond,
		SettleDelay:  1000 * time.Millisecond,
		BaudRate:     pn532.BaudISO14443A,
	}
}

// Validate rejects negative delays, a zero poll interval and card types
// other than ISO14443A.
func (c *Config) Validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: poll interval %v", ErrInvalidConfig, c.PollInterval)
	}
	if c.SettleDelay < 0 {
		return fmt.Errorf("%w: settle delay %v", ErrInvalidConfig, c.SettleDelay)
	}
	if c.BaudRate != pn532.BaudISO14443A {
		return fmt.Errorf("%w: baud rate 0x%02X", ErrInvalidConfig, c.BaudRate)
	}
	return nil
}
