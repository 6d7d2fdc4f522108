// internal/peripheral/handler.go
package peripheral

import (
	"log/slog"

	"github.com/simonvetter/modbus"

	"github.com/tamzrod/modbus-armcheck/internal/logging"
	"github.com/tamzrod/modbus-armcheck/internal/store"
)

// Handler serves the store to Modbus clients.
// It runs on the server's goroutines, concurrently with Arm.Step.
type Handler struct {
	st  *store.Store
	log *slog.Logger
}

func NewHandler(st *store.Store, log *slog.Logger) *Handler {
	return &Handler{st: st, log: logging.For(log, logging.ComponentPeripheral)}
}

func (h *Handler) HandleCoils(req *modbus.CoilsRequest) ([]bool, error) {
	if req.IsWrite {
		h.st.WriteCoils(req.Addr, req.Args)
		return nil, nil
	}
	return h.st.ReadCoils(req.Addr, req.Quantity), nil
}

func (h *Handler) HandleDiscreteInputs(req *modbus.DiscreteInputsRequest) ([]bool, error) {
	return h.st.ReadInputs(req.Addr, req.Quantity), nil
}

func (h *Handler) HandleHoldingRegisters(req *modbus.HoldingRegistersRequest) ([]uint16, error) {
	if req.IsWrite {
		if err := h.st.WriteRegisters(req.Addr, req.Args); err != nil {
			h.log.Debug("rejected register write", "client", req.ClientAddr, "error", err)
			return nil, modbus.ErrIllegalDataAddress
		}
		return nil, nil
	}

	vs, err := h.st.ReadRegisters(req.Addr, req.Quantity)
	if err != nil {
		h.log.Debug("rejected register read", "client", req.ClientAddr, "error", err)
		return nil, modbus.ErrIllegalDataAddress
	}
	return vs, nil
}

// HandleInputRegisters: the arm exposes no input registers.
func (h *Handler) HandleInputRegisters(*modbus.InputRegistersRequest) ([]uint16, error) {
	return nil, modbus.ErrIllegalFunction
}
