// internal/bus/mbclient/client.go
package mbclient

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/simonvetter/modbus"

	"github.com/tamzrod/modbus-armcheck/internal/bus"
)

// api is the subset of *modbus.ModbusClient the bus uses.
type api interface {
	ReadCoils(addr uint16, quantity uint16) ([]bool, error)
	ReadDiscreteInputs(addr uint16, quantity uint16) ([]bool, error)
	ReadRegisters(addr uint16, quantity uint16, regType modbus.RegType) ([]uint16, error)
	WriteCoil(addr uint16, value bool) error
	WriteCoils(addr uint16, values []bool) error
	WriteRegister(addr uint16, value uint16) error
	WriteRegisters(addr uint16, values []uint16) error
	Close() error
}

// Client implements bus.Bus over simonvetter/modbus.
// The library client already serializes requests.
type Client struct {
	mc api
}

var _ bus.Bus = (*Client)(nil)

type Config struct {
	Endpoint string // host:port for tcp, device path for rtu
	Mode     string // "tcp" (default) or "rtu"
	UnitID   uint8
	Timeout  time.Duration

	// RTU only
	BaudRate int
	DataBits int
	Parity   string
	StopBits int
}

// URL renders the library's transport URL for cfg.
func (cfg Config) URL() (string, error) {
	if strings.Contains(cfg.Endpoint, "://") {
		return cfg.Endpoint, nil
	}
	switch cfg.Mode {
	case "", "tcp":
		return "tcp://" + cfg.Endpoint, nil
	case "rtu":
		return "rtu://" + cfg.Endpoint, nil
	default:
		return "", fmt.Errorf("bus mbclient: unknown mode %q", cfg.Mode)
	}
}

// New creates and opens a client.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("bus mbclient: endpoint required")
	}
	url, err := cfg.URL()
	if err != nil {
		return nil, err
	}

	mc, err := modbus.NewClient(&modbus.ClientConfiguration{
		URL:      url,
		Speed:    uint(cfg.BaudRate),
		DataBits: uint(cfg.DataBits),
		Parity:   parity(cfg.Parity),
		StopBits: uint(cfg.StopBits),
		Timeout:  cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("bus mbclient: %w", err)
	}
	if err := mc.Open(); err != nil {
		return nil, bus.Wrap("connect", 0, bus.KindTransport, err)
	}
	if err := mc.SetUnitId(cfg.UnitID); err != nil {
		_ = mc.Close()
		return nil, fmt.Errorf("bus mbclient: %w", err)
	}

	return &Client{mc: mc}, nil
}

func parity(p string) uint {
	switch p {
	case "E":
		return modbus.PARITY_EVEN
	case "O":
		return modbus.PARITY_ODD
	default:
		return modbus.PARITY_NONE
	}
}

func (c *Client) Close() error { return c.mc.Close() }

// ---- bus.Bus interface ----

func (c *Client) ReadCoils(addr, qty uint16) ([]bool, error) {
	v, err := c.mc.ReadCoils(addr, qty)
	return v, wrap("read coils", addr, err)
}

func (c *Client) ReadDiscreteInputs(addr, qty uint16) ([]bool, error) {
	v, err := c.mc.ReadDiscreteInputs(addr, qty)
	return v, wrap("read discrete inputs", addr, err)
}

func (c *Client) ReadHoldingRegisters(addr, qty uint16) ([]uint16, error) {
	v, err := c.mc.ReadRegisters(addr, qty, modbus.HOLDING_REGISTER)
	return v, wrap("read holding registers", addr, err)
}

func (c *Client) WriteCoil(addr uint16, v bool) error {
	return wrap("write coil", addr, c.mc.WriteCoil(addr, v))
}

func (c *Client) WriteCoils(addr uint16, vs []bool) error {
	return wrap("write coils", addr, c.mc.WriteCoils(addr, vs))
}

func (c *Client) WriteRegister(addr, v uint16) error {
	return wrap("write register", addr, c.mc.WriteRegister(addr, v))
}

func (c *Client) WriteRegisters(addr uint16, vs []uint16) error {
	return wrap("write registers", addr, c.mc.WriteRegisters(addr, vs))
}

func wrap(op string, addr uint16, err error) error {
	if err == nil {
		return nil
	}
	kind := bus.KindTransport
	switch {
	case errors.Is(err, modbus.ErrIllegalDataAddress):
		kind = bus.KindAddressing
	case errors.Is(err, modbus.ErrIllegalFunction):
		kind = bus.KindFunction
	}
	return bus.Wrap(op, addr, kind, err)
}
