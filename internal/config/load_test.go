package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sample = `
armcheck:
  device:
    driver: goburrow
    endpoint: 192.168.1.21:502
    unit_id: 1
    timeout_ms: 500
  address_map:
    variant: arm
  timing:
    poll_interval_ms: 5
  policy:
    on_anomaly: continue
  simulator:
    routines:
      3: 200
  scenario:
    kind: early_stop
    index: 3
    delay_ms: 1
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "armcheck.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if err := Validate(c); err != nil {
		t.Fatalf("Validate err=%v", err)
	}

	a := c.Armcheck
	if a.Device.Endpoint != "192.168.1.21:502" || a.Device.TimeoutMs != 500 {
		t.Fatalf("device: %+v", a.Device)
	}
	if a.Simulator.Routines[3] != 200 {
		t.Fatalf("routines: %+v", a.Simulator.Routines)
	}
	if a.Scenario.Kind != "early_stop" || a.Scenario.DelayMs != 1 {
		t.Fatalf("scenario: %+v", a.Scenario)
	}
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("armcheck:\n  devise:\n    driver: simulated\n"))
	if err == nil {
		t.Fatalf("expected unknown field error")
	}
}

func TestParse_Empty(t *testing.T) {
	c, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse err=%v", err)
	}
	if c == nil {
		t.Fatalf("expected empty config")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error")
	}
}
