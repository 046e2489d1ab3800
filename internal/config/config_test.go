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
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "pn532scan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, TransportI2C, cfg.Transport)
	assert.Equal(t, 1, cfg.I2C.Bus)
	assert.Equal(t, uint16(0x24), cfg.I2C.Address)
	assert.Equal(t, 8, cfg.SPI.CSPin)
	assert.Equal(t, "/dev/ttyAMA0", cfg.UART.Device)
	assert.Equal(t, 115200, cfg.UART.BaudRate)
	assert.Equal(t, time.Second, cfg.Timeouts.Ack)
	assert.Equal(t, time.Second, cfg.Timeouts.Read)
	assert.Equal(t, 100*time.Millisecond, cfg.Polling.Interval)
	assert.Equal(t, time.Second, cfg.Polling.Settle)
	assert.True(t, cfg.Restart.Enabled)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Empty(t, cfg.Metrics.Addr)
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, `
transport: spi
spi:
  channel: 1
  cs_pin: 7
timeouts:
  ack: 250ms
polling:
  interval: 50ms
log:
  level: debug
  format: json
metrics:
  addr: ":9532"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, TransportSPI, cfg.Transport)
	assert.Equal(t, 1, cfg.SPI.Channel)
	assert.Equal(t, 7, cfg.SPI.CSPin)
	assert.Equal(t, 250*time.Millisecond, cfg.Timeouts.Ack)
	assert.Equal(t, time.Second, cfg.Timeouts.Read)
	assert.Equal(t, 50*time.Millisecond, cfg.Polling.Interval)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, ":9532", cfg.Metrics.Addr)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "transport: spi\n")
	t.Setenv("PN532_TRANSPORT", "uart")
	t.Setenv("PN532_UART_DEVICE", "/dev/ttyUSB0")
	t.Setenv("PN532_I2C_ADDRESS", "0x48")
	t.Setenv("PN532_TIMEOUTS_READ", "2s")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, TransportUART, cfg.Transport)
	assert.Equal(t, "/dev/ttyUSB0", cfg.UART.Device)
	assert.Equal(t, uint16(0x48), cfg.I2C.Address)
	assert.Equal(t, 2*time.Second, cfg.Timeouts.Read)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = Load(writeFile(t, "transport: [i2c\n"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		mutate func(*Config)
		name   string
	}{
		{name: "unknown transport", mutate: func(c *Config) { c.Transport = "usb" }},
		{name: "wide address", mutate: func(c *Config) { c.I2C.Address = 0x100 }},
		{name: "zero baud", mutate: func(c *Config) { c.UART.BaudRate = 0 }},
		{name: "zero ack timeout", mutate: func(c *Config) { c.Timeouts.Ack = 0 }},
		{name: "negative read timeout", mutate: func(c *Config) { c.Timeouts.Read = -time.Second }},
		{name: "zero poll interval", mutate: func(c *Config) { c.Polling.Interval = 0 }},
		{name: "negative settle", mutate: func(c *Config) { c.Polling.Settle = -1 }},
		{name: "type B card", mutate: func(c *Config) { c.Polling.BaudRate = 0x03 }},
		{name: "negative restart interval", mutate: func(c *Config) { c.Restart.Interval = -1 }},
		{name: "log format", mutate: func(c *Config) { c.Log.Format = "xml" }},
	}

	t.Chdir(t.TempDir())
	for _, tt := range tests {
		cfg, err := Load("")
		require.NoError(t, err)
		tt.mutate(cfg)
		assert.ErrorIs(t, cfg.Validate(), ErrInvalid, tt.name)
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Transport = "usb"
	cfg.Timeouts.Ack = 0

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "usb")
	assert.Contains(t, err.Error(), "timeouts.ack")
}

func TestYAML_RoundTrip(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Transport = TransportUART
	cfg.I2C.Address = 0x48
	cfg.Polling.Settle = 1500 * time.Millisecond
	cfg.Log.File = "/var/log/pn532.log"

	out, err := cfg.YAML()
	require.NoError(t, err)
	text := string(out)
	assert.Contains(t, text, "transport: uart")
	assert.Contains(t, text, "settle: 1.5s")
	assert.Contains(t, text, "0x48")

	loaded, err := Load(writeFile(t, text))
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
