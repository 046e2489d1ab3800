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

// Package config loads scanner settings from a YAML file, PN532_*
// environment variables and defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment overrides, e.g. PN532_I2C_BUS.
const EnvPrefix = "PN532"

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid configuration")

// Transport names
const (
	TransportI2C  = "i2c"
	TransportSPI  = "spi"
	TransportUART = "uart"
)

// I2CConfig selects the I2C bus and device address.
type I2CConfig struct {
	Bus     int    `mapstructure:"bus"`
	Address uint16 `mapstructure:"address"`
}

// SPIConfig selects the SPI port and chip-select pin.
type SPIConfig struct {
	Port    string `mapstructure:"port"`
	CSName  string `mapstructure:"cs_name"`
	Channel int    `mapstructure:"channel"`
	CSPin   int    `mapstructure:"cs_pin"`
}

// UARTConfig selects the serial device.
type UARTConfig struct {
	Device   string `mapstructure:"device"`
	BaudRate int    `mapstructure:"baud_rate"`
}

// TimeoutsConfig bounds the ACK and response waits.
type TimeoutsConfig struct {
	Ack  time.Duration `mapstructure:"ack"`
	Read time.Duration `mapstructure:"read"`
}

// PollingConfig controls the scan loop.
type PollingConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Settle   time.Duration `mapstructure:"settle"`
	BaudRate uint8         `mapstructure:"baud_rate"`
}

// RestartConfig controls session restarts after a failure.
type RestartConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Interval    time.Duration `mapstructure:"interval"`
	Burst       int           `mapstructure:"burst"`
	MaxRestarts int           `mapstructure:"max_restarts"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// MetricsConfig controls the Prometheus endpoint. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// Config is the top-level configuration
type Config struct {
	Transport string         `mapstructure:"transport"`
	I2C       I2CConfig      `mapstructure:"i2c"`
	SPI       SPIConfig      `mapstructure:"spi"`
	UART      UARTConfig     `mapstructure:"uart"`
	Timeouts  TimeoutsConfig `mapstructure:"timeouts"`
	Polling   PollingConfig  `mapstructure:"polling"`
	Restart   RestartConfig  `mapstructure:"restart"`
	Log       LogConfig      `mapstructure:"log"`
	Metrics   MetricsConfig  `mapstructure:"metrics"`
}

// Load reads configuration. An explicit path must exist; without one,
// pn532scan.yaml is looked up in the working directory and
// /etc/pn532scan, and missing files fall back to defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("pn532scan")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/pn532scan")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("transport", TransportI2C)

	v.SetDefault("i2c.bus", 1)
	v.SetDefault("i2c.address", 0x24)

	v.SetDefault("spi.port", "")
	v.SetDefault("spi.cs_name", "")
	v.SetDefault("spi.channel", 0)
	v.SetDefault("spi.cs_pin", 8)

	v.SetDefault("uart.device", "/dev/ttyAMA0")
	v.SetDefault("uart.baud_rate", 115200)

	v.SetDefault("timeouts.ack", time.Second)
	v.SetDefault("timeouts.read", time.Second)

	v.SetDefault("polling.interval", 100*time.Millisecond)
	v.SetDefault("polling.settle", time.Second)
	v.SetDefault("polling.baud_rate", 0)

	v.SetDefault("restart.enabled", true)
	v.SetDefault("restart.interval", 5*time.Second)
	v.SetDefault("restart.burst", 1)
	v.SetDefault("restart.max_restarts", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)

	v.SetDefault("metrics.addr", "")
}

// Validate rejects settings the scanner cannot run with.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	switch c.Transport {
	case TransportI2C, TransportSPI, TransportUART:
	default:
		check(false, "unknown transport %q", c.Transport)
	}
	check(c.I2C.Address <= 0x7F, "i2c.address 0x%x is not a 7-bit address", c.I2C.Address)
	check(c.UART.BaudRate > 0, "uart.baud_rate must be positive")
	check(c.Timeouts.Ack > 0, "timeouts.ack must be positive")
	check(c.Timeouts.Read > 0, "timeouts.read must be positive")
	check(c.Polling.Interval > 0, "polling.interval must be positive")
	check(c.Polling.Settle >= 0, "polling.settle must not be negative")
	check(c.Polling.BaudRate == 0, "polling.baud_rate 0x%02X is not supported, only 0 (ISO14443A)", c.Polling.BaudRate)
	check(c.Restart.Interval >= 0, "restart.interval must not be negative")
	check(c.Restart.MaxRestarts >= 0, "restart.max_restarts must not be negative")

	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		check(false, "unknown log.format %q", c.Log.Format)
	}
	return errors.Join(errs...)
}

// YAML renders the effective configuration with the same keys Load reads.
func (c *Config) YAML() ([]byte, error) {
	doc := map[string]any{
		"transport": c.Transport,
		"i2c": map[string]any{
			"bus":     c.I2C.Bus,
			"address": fmt.Sprintf("0x%02x", c.I2C.Address),
		},
		"spi": map[string]any{
			"port":    c.SPI.Port,
			"cs_name": c.SPI.CSName,
			"channel": c.SPI.Channel,
			"cs_pin":  c.SPI.CSPin,
		},
		"uart": map[string]any{
			"device":    c.UART.Device,
			"baud_rate": c.UART.BaudRate,
		},
		"timeouts": map[string]any{
			"ack":  c.Timeouts.Ack.String(),
			"read": c.Timeouts.Read.String(),
		},
		"polling": map[string]any{
			"interval":  c.Polling.Interval.String(),
			"settle":    c.Polling.Settle.String(),
			"baud_rate": c.Polling.BaudRate,
		},
		"restart": map[string]any{
			"enabled":      c.Restart.Enabled,
			"interval":     c.Restart.Interval.String(),
			"burst":        c.Restart.Burst,
			"max_restarts": c.Restart.MaxRestarts,
		},
		"log": map[string]any{
			"level":        c.Log.Level,
			"format":       c.Log.Format,
			"file":         c.Log.File,
			"max_size_mb":  c.Log.MaxSizeMB,
			"max_backups":  c.Log.MaxBackups,
			"max_age_days": c.Log.MaxAgeDays,
		},
		"metrics": map[string]any{
			"addr": c.Metrics.Addr,
		},
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return out, nil
}
