// internal/writer/builder.go
package writer

import (
	"errors"
	"time"

	cfg "github.com/tamzrod/modbus-armcheck/internal/config"
	wmodbus "github.com/tamzrod/modbus-armcheck/internal/writer/modbus"
)

// BuildStatusPlan converts the optional status config.
// ok is false when status publishing is disabled.
// Assumes config has already passed Validate and Normalize.
func BuildStatusPlan(st *cfg.StatusConfig) (plan StatusPlan, ok bool, err error) {
	if st == nil {
		return StatusPlan{}, false, nil
	}
	if st.Endpoint == "" {
		return StatusPlan{}, false, errors.New("writer: status.endpoint required")
	}
	return StatusPlan{
		Endpoint: st.Endpoint,
		UnitID:   st.UnitID,
		BaseSlot: st.BaseSlot,
		Name:     st.Name,
	}, true, nil
}

// BuildEndpointClient creates the TCP client for the status endpoint.
// The connection is opened lazily by the first write.
func BuildEndpointClient(st *cfg.StatusConfig) (*wmodbus.EndpointClient, error) {
	return wmodbus.NewEndpointClient(wmodbus.Config{
		Endpoint: st.Endpoint,
		Timeout:  time.Duration(st.TimeoutMs) * time.Millisecond,
	})
}
