// cmd/armcheck/wiring.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tamzrod/modbus-armcheck/internal/arm"
	"github.com/tamzrod/modbus-armcheck/internal/bus"
	"github.com/tamzrod/modbus-armcheck/internal/bus/mbclient"
	"github.com/tamzrod/modbus-armcheck/internal/bus/memory"
	busmodbus "github.com/tamzrod/modbus-armcheck/internal/bus/modbus"
	"github.com/tamzrod/modbus-armcheck/internal/config"
	"github.com/tamzrod/modbus-armcheck/internal/peripheral"
	"github.com/tamzrod/modbus-armcheck/internal/store"
)

// openBus returns the bus for the configured driver. Simulated drivers
// start their arm model (and server) in g; cleanup releases everything
// openBus created except the goroutines, which end with ctx.
func openBus(ctx context.Context, g *errgroup.Group, c *config.ArmcheckConfig, m arm.AddressMap, log *slog.Logger) (bus.Bus, func(), error) {
	dev := c.Device
	timeout := time.Duration(dev.TimeoutMs) * time.Millisecond

	switch dev.Driver {
	case config.DriverSimulated:
		st := startSimulation(ctx, g, c, m, log)
		b := memory.New(st)
		return b, func() { _ = b.Close() }, nil

	case config.DriverLoopback:
		st := startSimulation(ctx, g, c, m, log)
		srv, err := peripheral.NewServer(c.Simulator.Listen, st, log)
		if err != nil {
			return nil, nil, err
		}
		if err := srv.Start(); err != nil {
			return nil, nil, err
		}
		b, err := busmodbus.New(busmodbus.Config{
			Endpoint: strings.TrimPrefix(c.Simulator.Listen, "tcp://"),
			UnitID:   dev.UnitID,
			Timeout:  timeout,
		})
		if err != nil {
			_ = srv.Stop()
			return nil, nil, err
		}
		return b, func() {
			_ = b.Close()
			_ = srv.Stop()
		}, nil

	case config.DriverGoburrow:
		b, err := busmodbus.New(busmodbus.Config{
			Endpoint: dev.Endpoint,
			Mode:     dev.Mode,
			UnitID:   dev.UnitID,
			Timeout:  timeout,
			BaudRate: dev.Serial.BaudRate,
			DataBits: dev.Serial.DataBits,
			Parity:   dev.Serial.Parity,
			StopBits: dev.Serial.StopBits,
		})
		if err != nil {
			return nil, nil, err
		}
		return b, func() { _ = b.Close() }, nil

	case config.DriverSimonvetter:
		b, err := mbclient.New(mbclient.Config{
			Endpoint: dev.Endpoint,
			Mode:     dev.Mode,
			UnitID:   dev.UnitID,
			Timeout:  timeout,
			BaudRate: dev.Serial.BaudRate,
			DataBits: dev.Serial.DataBits,
			Parity:   dev.Serial.Parity,
			StopBits: dev.Serial.StopBits,
		})
		if err != nil {
			return nil, nil, err
		}
		return b, func() { _ = b.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown driver %q", dev.Driver)
	}
}

// startSimulation seeds a store and runs the arm model on it until ctx ends.
func startSimulation(ctx context.Context, g *errgroup.Group, c *config.ArmcheckConfig, m arm.AddressMap, log *slog.Logger) *store.Store {
	st := store.New(log)
	peripheral.Seed(st, m)

	a := peripheral.NewArm(st, m, peripheral.ConfigFromSimulator(c.Simulator), log)
	g.Go(func() error { return a.Run(ctx) })
	return st
}
