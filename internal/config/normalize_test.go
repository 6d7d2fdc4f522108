package config

import "testing"

func TestNormalize_ArmVariant(t *testing.T) {
	c := cfgWith(func(a *ArmcheckConfig) {
		a.AddressMap = AddressMapConfig{Variant: VariantArm}
	})
	if err := Validate(c); err != nil {
		t.Fatalf("Validate err=%v", err)
	}
	Normalize(c)

	am := c.Armcheck.AddressMap
	if *am.EnableCoil != 3 || *am.RunningAddress != 4 || *am.IndexRegister != 0 {
		t.Fatalf("arm variant not expanded: %+v", am)
	}
	if am.RunningKind != RunningDiscreteInput {
		t.Fatalf("running kind: got=%s want=%s", am.RunningKind, RunningDiscreteInput)
	}
	if am.ProgramSelectCoil == nil || *am.ProgramSelectCoil != 4 {
		t.Fatalf("program select coil missing")
	}
}

func TestNormalize_ExplicitFieldsOverrideVariant(t *testing.T) {
	c := cfgWith(func(a *ArmcheckConfig) {
		a.AddressMap = AddressMapConfig{Variant: VariantBench, EnableCoil: ptr(20)}
	})
	Normalize(c)

	am := c.Armcheck.AddressMap
	if *am.EnableCoil != 20 {
		t.Fatalf("enable coil: got=%d want=20", *am.EnableCoil)
	}
	if *am.RunningAddress != 9 {
		t.Fatalf("running address: got=%d want=9", *am.RunningAddress)
	}
	if am.ProgramSelectCoil != nil {
		t.Fatalf("bench variant has no program select coil")
	}
}

func TestNormalize_Defaults(t *testing.T) {
	c := &Config{}
	Normalize(c)
	a := c.Armcheck

	if a.Device.Driver != DriverSimulated {
		t.Fatalf("driver: got=%q", a.Device.Driver)
	}
	if a.Timing.StartTimeoutMs != 1000 || a.Timing.CompletionTimeoutMs != 60000 {
		t.Fatalf("timeouts not defaulted: %+v", a.Timing)
	}
	if a.Timing.SettleMs != 100 || a.Timing.StopGraceMs != 1000 {
		t.Fatalf("settle/grace not defaulted: %+v", a.Timing)
	}
	if a.Sweep.Factor != 4 || a.Sweep.StartUs != 1 || a.Sweep.CeilingMs != 1000 {
		t.Fatalf("sweep not defaulted: %+v", a.Sweep)
	}
	if a.Policy.OnAnomaly != AnomalyAbort {
		t.Fatalf("policy: got=%q", a.Policy.OnAnomaly)
	}
}

func TestNormalize_StatusNameTruncated(t *testing.T) {
	c := cfgWith(func(a *ArmcheckConfig) {
		a.Status = &StatusConfig{Endpoint: "hmi:502", Name: "CELL-07-ARM-LEFT-SIDE"}
	})
	Normalize(c)

	if got := c.Armcheck.Status.Name; got != "CELL-07-ARM-LEFT" {
		t.Fatalf("name: got=%q", got)
	}
}
