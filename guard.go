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

import "github.com/ZaparooProject/pn532scan/internal/syncutil"

// BusGuard serializes bus-driver initialization. Host driver registries
// are not safe to initialize concurrently, so every Connection opens its
// transport while holding a guard shared by all connections in the process.
type BusGuard struct {
	mu syncutil.Mutex
}

// NewBusGuard returns an unlocked guard.
func NewBusGuard() *BusGuard {
	return &BusGuard{}
}

// DefaultBusGuard is used by connections created without WithBusGuard.
var DefaultBusGuard = NewBusGuard()

// Do runs open while holding the guard.
func (g *BusGuard) Do(open func() error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return open()
}
