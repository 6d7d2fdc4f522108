// internal/config/normalize.go
package config

// Defaults applied by Normalize.
const (
	DefaultTimeoutMs           = 1000
	DefaultStartTimeoutMs      = 1000
	DefaultCompletionTimeoutMs = 60000
	DefaultStopGraceMs         = 1000
	DefaultSettleMs            = 100
	DefaultPollIntervalMs      = 10

	DefaultSweepStartUs      = 1
	DefaultSweepFactor       = 4
	DefaultSweepCeilingMs    = 1000
	DefaultSweepMaxIteration = 32

	DefaultListen         = "tcp://127.0.0.1:5502"
	DefaultTickUs         = 1000
	DefaultStartLatencyMs = 5
	DefaultStopLatencyMs  = 5
	DefaultRunMs          = 200

	DefaultBaudRate = 9600
	DefaultDataBits = 8
	DefaultStopBits = 1
	DefaultParity   = "E"

	StatusNameMaxChars = 16
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	a := &cfg.Armcheck

	// ------------------------------------------------------------
	// DEVICE
	// ------------------------------------------------------------

	if a.Device.Driver == "" {
		a.Device.Driver = DriverSimulated
	}
	if a.Device.Mode == "" {
		a.Device.Mode = ModeTCP
	}
	if a.Device.UnitID == 0 {
		a.Device.UnitID = 1
	}
	setDefault(&a.Device.TimeoutMs, DefaultTimeoutMs)
	setDefault(&a.Device.Serial.BaudRate, DefaultBaudRate)
	setDefault(&a.Device.Serial.DataBits, DefaultDataBits)
	setDefault(&a.Device.Serial.StopBits, DefaultStopBits)
	if a.Device.Serial.Parity == "" {
		a.Device.Serial.Parity = DefaultParity
	}

	// ------------------------------------------------------------
	// ADDRESS MAP: expand variant, explicit fields win
	// ------------------------------------------------------------

	am := &a.AddressMap
	if am.Variant == "" {
		am.Variant = VariantBench
	}

	var base AddressMapConfig
	switch am.Variant {
	case VariantBench:
		// in-process test server
		base = AddressMapConfig{
			EnableCoil:     u16(8),
			RunningKind:    RunningCoil,
			RunningAddress: u16(9),
			IndexRegister:  u16(8),
		}
	case VariantArm:
		// routine_index 40001, enable 00004, running 10005, program select 00005
		base = AddressMapConfig{
			EnableCoil:        u16(3),
			RunningKind:       RunningDiscreteInput,
			RunningAddress:    u16(4),
			IndexRegister:     u16(0),
			ProgramSelectCoil: u16(4),
		}
	default:
		base = AddressMapConfig{RunningKind: RunningCoil}
	}

	if am.EnableCoil == nil {
		am.EnableCoil = base.EnableCoil
	}
	if am.RunningKind == "" {
		am.RunningKind = base.RunningKind
	}
	if am.RunningAddress == nil {
		am.RunningAddress = base.RunningAddress
	}
	if am.IndexRegister == nil {
		am.IndexRegister = base.IndexRegister
	}
	if am.ProgramSelectCoil == nil {
		am.ProgramSelectCoil = base.ProgramSelectCoil
	}

	// ------------------------------------------------------------
	// TIMING / SWEEP / POLICY
	// ------------------------------------------------------------

	setDefault(&a.Timing.StartTimeoutMs, DefaultStartTimeoutMs)
	setDefault(&a.Timing.CompletionTimeoutMs, DefaultCompletionTimeoutMs)
	setDefault(&a.Timing.StopGraceMs, DefaultStopGraceMs)
	setDefault(&a.Timing.SettleMs, DefaultSettleMs)
	setDefault(&a.Timing.PollIntervalMs, DefaultPollIntervalMs)

	setDefault(&a.Sweep.StartUs, DefaultSweepStartUs)
	setDefault(&a.Sweep.Factor, DefaultSweepFactor)
	setDefault(&a.Sweep.CeilingMs, DefaultSweepCeilingMs)
	setDefault(&a.Sweep.MaxIterations, DefaultSweepMaxIteration)

	if a.Policy.OnAnomaly == "" {
		a.Policy.OnAnomaly = AnomalyAbort
	}

	// ------------------------------------------------------------
	// SIMULATOR
	// ------------------------------------------------------------

	if a.Simulator.Listen == "" {
		a.Simulator.Listen = DefaultListen
	}
	setDefault(&a.Simulator.TickUs, DefaultTickUs)
	setDefault(&a.Simulator.StartLatencyMs, DefaultStartLatencyMs)
	setDefault(&a.Simulator.StopLatencyMs, DefaultStopLatencyMs)
	setDefault(&a.Simulator.DefaultRunMs, DefaultRunMs)

	// ------------------------------------------------------------
	// STATUS BLOCK (OPT-IN)
	// ------------------------------------------------------------

	if st := a.Status; st != nil {
		// ASCII already validated; truncate to the name slots.
		if len(st.Name) > StatusNameMaxChars {
			st.Name = st.Name[:StatusNameMaxChars]
		}
		setDefault(&st.TimeoutMs, DefaultTimeoutMs)
		if st.UnitID == 0 {
			st.UnitID = 1
		}
	}

	// ------------------------------------------------------------
	// LOG
	// ------------------------------------------------------------

	if a.Log.Level == "" {
		a.Log.Level = "info"
	}
	if a.Log.Format == "" {
		a.Log.Format = "text"
	}
}

func setDefault(v *int, def int) {
	if *v == 0 {
		*v = def
	}
}

func u16(v uint16) *uint16 { return &v }
