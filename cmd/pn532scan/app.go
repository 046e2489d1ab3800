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
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	pn532 "github.com/ZaparooProject/pn532scan"
	"github.com/ZaparooProject/pn532scan/internal/config"
	"github.com/ZaparooProject/pn532scan/metrics"
	"github.com/ZaparooProject/pn532scan/polling"
	"github.com/ZaparooProject/pn532scan/transport/i2c"
	"github.com/ZaparooProject/pn532scan/transport/spi"
	"github.com/ZaparooProject/pn532scan/transport/uart"
)

const shutdownTimeout = 2 * time.Second

type transportFactory func(cfg *config.Config) (pn532.Transport, error)

// newTransport builds the bus selected by cfg.Transport.
func newTransport(cfg *config.Config) (pn532.Transport, error) {
	switch cfg.Transport {
	case config.TransportI2C:
		return i2c.New(i2c.Config{Bus: cfg.I2C.Bus, Address: cfg.I2C.Address}), nil
	case config.TransportSPI:
		return spi.New(spi.Config{
			Port:    cfg.SPI.Port,
			CSName:  cfg.SPI.CSName,
			Channel: cfg.SPI.Channel,
			CSPin:   cfg.SPI.CSPin,
		}), nil
	case config.TransportUART:
		return uart.New(uart.Config{Device: cfg.UART.Device, BaudRate: cfg.UART.BaudRate}), nil
	default:
		return nil, fmt.Errorf("unsupported transport type: %s", cfg.Transport)
	}
}

// printer writes scan events for a human at a terminal.
type printer struct {
	out    io.Writer
	logger *zap.Logger
	mu     sync.Mutex
}

func (p *printer) OnMessage(message string) {
	p.println(message)
}

func (p *printer) OnUID(displayName string, uid []byte) {
	p.println(fmt.Sprintf("%s: UID '%s' received.", displayName, polling.FormatUID(uid)))
}

func (p *printer) OnFailure(state polling.State, result pn532.TransferResult, err error) {
	p.logger.Warn("scan failure",
		zap.Stringer("state", state),
		zap.Stringer("result", result),
		zap.Error(err))
}

func (p *printer) println(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintln(p.out, line)
}

type app struct {
	cfg          *config.Config
	logger       *zap.Logger
	listener     *printer
	newTransport transportFactory
	runID        string
}

func newApp(cfg *config.Config, logger *zap.Logger, out io.Writer) *app {
	runID := uuid.NewString()
	logger = logger.With(zap.String("run_id", runID))
	return &app{
		cfg:          cfg,
		logger:       logger,
		listener:     &printer{out: out, logger: logger},
		newTransport: newTransport,
		runID:        runID,
	}
}

func (a *app) pollingConfig() *polling.Config {
	return &polling.Config{
		PollInterval: a.cfg.Polling.Interval,
		SettleDelay:  a.cfg.Polling.Settle,
		BaudRate:     a.cfg.Polling.BaudRate,
	}
}

// newLoop is the polling.LoopFactory: every session gets a fresh bus.
func (a *app) newLoop(opts ...polling.LoopOption) (*polling.Loop, error) {
	transport, err := a.newTransport(a.cfg)
	if err != nil {
		return nil, err
	}
	device, err := pn532.New(transport,
		pn532.WithLogger(a.logger.Named("pn532")),
		pn532.WithAckTimeout(a.cfg.Timeouts.Ack),
		pn532.WithReadTimeout(a.cfg.Timeouts.Read))
	if err != nil {
		return nil, fmt.Errorf("failed to create device: %w", err)
	}
	return polling.NewLoop(device, a.listener, a.pollingConfig(), opts...)
}

// runner returns a supervisor when restarts are enabled, else one loop.
func (a *app) runner() (polling.Runner, metrics.Source, error) {
	if a.cfg.Restart.Enabled {
		supervisor := polling.NewSupervisor(a.newLoop, polling.SupervisorConfig{
			Interval:    a.cfg.Restart.Interval,
			Burst:       a.cfg.Restart.Burst,
			MaxRestarts: a.cfg.Restart.MaxRestarts,
		}, a.logger)
		return supervisor, supervisor, nil
	}

	loop, err := a.newLoop(polling.WithLogger(a.logger), polling.WithSessionID(uuid.NewString()))
	if err != nil {
		return nil, nil, err
	}
	return loop, loop, nil
}

func (a *app) run(ctx context.Context) error {
	runner, source, err := a.runner()
	if err != nil {
		return err
	}

	if a.cfg.Metrics.Addr != "" {
		reg := metrics.NewRegistry()
		reg.MustRegister(metrics.NewCollector(source, a.runID))
		server := metrics.NewServer(a.cfg.Metrics.Addr, reg)
		go func() {
			if serveErr := server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
				a.logger.Error("metrics server failed", zap.Error(serveErr))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
		a.logger.Info("serving metrics", zap.String("addr", a.cfg.Metrics.Addr))
	}

	a.logger.Info("starting scanner", zap.String("transport", a.cfg.Transport))
	worker := polling.NewWorker(runner)
	if err := worker.Start(ctx); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
	case <-worker.Done():
	}
	state, err := worker.Stop()
	a.logger.Info("scanner exited", zap.Stringer("state", state))
	if err != nil {
		return err
	}
	if state == polling.StateFailed {
		return errors.New("scan failed")
	}
	return nil
}
