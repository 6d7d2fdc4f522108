// internal/writer/types.go
package writer

// StatusPlan is the fully-built plan for one run status block.
type StatusPlan struct {
	Endpoint string
	UnitID   uint8
	BaseSlot uint16 // block number; address = BaseSlot * status.SlotsPerBlock
	Name     string
}

// endpointClient is the register write surface of wmodbus.EndpointClient.
type endpointClient interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}
