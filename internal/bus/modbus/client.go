// internal/bus/modbus/client.go
package modbus

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/goburrow/modbus"

	"github.com/tamzrod/modbus-armcheck/internal/bus"
)

// Client implements bus.Bus over goburrow/modbus (TCP or RTU).
// It serializes requests: one in-flight request per connection.
type Client struct {
	mu      sync.Mutex
	handler io.Closer
	api     modbus.Client
}

var _ bus.Bus = (*Client)(nil)

// Config is minimal transport config.
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

type connector interface {
	io.Closer
	Connect() error
}

// New creates a connected client.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("bus modbus: endpoint required")
	}

	var (
		h      connector
		client modbus.Client
	)

	switch cfg.Mode {
	case "", "tcp":
		th := modbus.NewTCPClientHandler(cfg.Endpoint)
		th.Timeout = cfg.Timeout
		th.SlaveId = cfg.UnitID
		h, client = th, modbus.NewClient(th)

	case "rtu":
		rh := modbus.NewRTUClientHandler(cfg.Endpoint)
		rh.BaudRate = cfg.BaudRate
		rh.DataBits = cfg.DataBits
		rh.Parity = cfg.Parity
		rh.StopBits = cfg.StopBits
		rh.Timeout = cfg.Timeout
		rh.SlaveId = cfg.UnitID
		h, client = rh, modbus.NewClient(rh)

	default:
		return nil, fmt.Errorf("bus modbus: unknown mode %q", cfg.Mode)
	}

	if err := h.Connect(); err != nil {
		return nil, bus.Wrap("connect", 0, bus.KindTransport, err)
	}

	return &Client{handler: h, api: client}, nil
}

// newWithAPI wraps an already built goburrow client.
func newWithAPI(api modbus.Client, closer io.Closer) *Client {
	return &Client{handler: closer, api: api}
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handler == nil {
		return nil
	}
	return c.handler.Close()
}

// ---- bus.Bus interface ----

func (c *Client) ReadCoils(addr, qty uint16) ([]bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, err := c.api.ReadCoils(addr, qty)
	if err != nil {
		return nil, wrap("read coils", addr, err)
	}
	return unpackBits(raw, int(qty)), nil
}

func (c *Client) ReadDiscreteInputs(addr, qty uint16) ([]bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, err := c.api.ReadDiscreteInputs(addr, qty)
	if err != nil {
		return nil, wrap("read discrete inputs", addr, err)
	}
	return unpackBits(raw, int(qty)), nil
}

func (c *Client) ReadHoldingRegisters(addr, qty uint16) ([]uint16, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, err := c.api.ReadHoldingRegisters(addr, qty)
	if err != nil {
		return nil, wrap("read holding registers", addr, err)
	}
	if len(raw) != 2*int(qty) {
		return nil, bus.Wrap("read holding registers", addr, bus.KindTransport,
			fmt.Errorf("payload length %d, want %d", len(raw), 2*int(qty)))
	}
	return unpackRegisters(raw), nil
}

func (c *Client) WriteCoil(addr uint16, v bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// FC5 encodes ON as 0xFF00 and OFF as 0x0000.
	var value uint16
	if v {
		value = 0xFF00
	}
	_, err := c.api.WriteSingleCoil(addr, value)
	return wrap("write coil", addr, err)
}

func (c *Client) WriteCoils(addr uint16, vs []bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.api.WriteMultipleCoils(addr, uint16(len(vs)), packBits(vs))
	return wrap("write coils", addr, err)
}

func (c *Client) WriteRegister(addr, v uint16) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.api.WriteSingleRegister(addr, v)
	return wrap("write register", addr, err)
}

func (c *Client) WriteRegisters(addr uint16, vs []uint16) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.api.WriteMultipleRegisters(addr, uint16(len(vs)), packRegisters(vs))
	return wrap("write registers", addr, err)
}

// wrap classifies goburrow errors: exception replies carry a code,
// everything else is the wire.
func wrap(op string, addr uint16, err error) error {
	if err == nil {
		return nil
	}
	kind := bus.KindTransport

	var me *modbus.ModbusError
	if errors.As(err, &me) {
		switch me.ExceptionCode {
		case modbus.ExceptionCodeIllegalDataAddress:
			kind = bus.KindAddressing
		case modbus.ExceptionCodeIllegalFunction:
			kind = bus.KindFunction
		}
	}
	return bus.Wrap(op, addr, kind, err)
}

// ---- helpers (pure geometry) ----

func unpackBits(data []byte, count int) []bool {
	out := make([]bool, count)
	for i := 0; i < count; i++ {
		byteIdx := i / 8
		bitIdx := i % 8
		if byteIdx >= len(data) {
			out[i] = false
			continue
		}
		out[i] = (data[byteIdx]&(1<<bitIdx) != 0)
	}
	return out
}

func packBits(bits []bool) []byte {
	n := (len(bits) + 7) / 8
	out := make([]byte, n)
	for i, v := range bits {
		if v {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}

func unpackRegisters(data []byte) []uint16 {
	n := len(data) / 2
	out := make([]uint16, n)
	for i := 0; i < n; i++ {
		out[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}
	return out
}

func packRegisters(regs []uint16) []byte {
	out := make([]byte, len(regs)*2)
	for i, r := range regs {
		out[2*i] = byte(r >> 8)
		out[2*i+1] = byte(r)
	}
	return out
}
