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

// Command pn532scan polls a PN532 reader and prints the UID of every card
// it detects.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ZaparooProject/pn532scan/internal/config"
	"github.com/ZaparooProject/pn532scan/internal/logging"
	"github.com/ZaparooProject/pn532scan/internal/syncutil"
)

// lockSlack pads the deadlock detector timeout beyond one bus exchange.
const lockSlack = 5 * time.Second

type flags struct {
	configPath  string
	transport   string
	device      string
	metricsAddr string
	i2cBus      int
	i2cAddress  uint
	spiChannel  int
	csPin       int
	debug       bool
	printConfig bool
	noRestart   bool
}

func newFlagSet(f *flags) *flag.FlagSet {
	fs := flag.NewFlagSet("pn532scan", flag.ContinueOnError)
	fs.StringVar(&f.configPath, "config", "", "Path to a YAML config file")
	fs.StringVar(&f.transport, "transport", "", "Bus to use: i2c, spi or uart")
	fs.StringVar(&f.device, "device", "", "Serial device for the uart transport")
	fs.StringVar(&f.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	fs.IntVar(&f.i2cBus, "i2c-bus", 0, "I2C bus number")
	fs.UintVar(&f.i2cAddress, "i2c-addr", 0, "I2C device address")
	fs.IntVar(&f.spiChannel, "spi-channel", 0, "SPI channel")
	fs.IntVar(&f.csPin, "cs-pin", 0, "SPI chip select GPIO")
	fs.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	fs.BoolVar(&f.printConfig, "print-config", false, "Print the effective config and exit")
	fs.BoolVar(&f.noRestart, "no-restart", false, "Exit on the first scan failure")
	return fs
}

// applyFlags overrides cfg with the flags that were set on the command line.
func applyFlags(fs *flag.FlagSet, f *flags, cfg *config.Config) {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "transport":
			cfg.Transport = f.transport
		case "device":
			cfg.UART.Device = f.device
		case "metrics-addr":
			cfg.Metrics.Addr = f.metricsAddr
		case "i2c-bus":
			cfg.I2C.Bus = f.i2cBus
		case "i2c-addr":
			cfg.I2C.Address = uint16(f.i2cAddress) //nolint:gosec // range checked by Validate
		case "spi-channel":
			cfg.SPI.Channel = f.spiChannel
		case "cs-pin":
			cfg.SPI.CSPin = f.csPin
		case "debug":
			if f.debug {
				cfg.Log.Level = "debug"
			}
		case "no-restart":
			cfg.Restart.Enabled = !f.noRestart
		}
	})
}

func loadConfig(args []string) (*config.Config, *flags, error) {
	f := &flags{}
	fs := newFlagSet(f)
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, nil, err
	}
	applyFlags(fs, f, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, f, nil
}

func main() {
	os.Exit(mainWithExitCode(os.Args[1:], os.Stdout, os.Stderr))
}

func mainWithExitCode(args []string, stdout, stderr io.Writer) int {
	cfg, f, err := loadConfig(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	if f.printConfig {
		out, yamlErr := cfg.YAML()
		if yamlErr != nil {
			_, _ = fmt.Fprintf(stderr, "Error: %v\n", yamlErr)
			return 1
		}
		_, _ = stdout.Write(out)
		return 0
	}

	logger, err := logging.New(logging.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	}, stderr)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	defer func() {
		_ = logger.Close()
	}()

	syncutil.SetLockTimeout(cfg.Timeouts.Ack + cfg.Timeouts.Read + lockSlack)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := newApp(cfg, logger.Logger, stdout)
	if err := a.run(ctx); err != nil {
		logger.Error("scanner stopped", zap.Error(err))
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
