// internal/config/config.go
package config

type Config struct {
	Armcheck ArmcheckConfig `yaml:"armcheck"`
}

type ArmcheckConfig struct {
	Device     DeviceConfig     `yaml:"device"`
	AddressMap AddressMapConfig `yaml:"address_map"`
	Timing     TimingConfig     `yaml:"timing"`
	Sweep      SweepConfig      `yaml:"sweep"`
	Policy     PolicyConfig     `yaml:"policy"`
	Simulator  SimulatorConfig  `yaml:"simulator"`
	Status     *StatusConfig    `yaml:"status"` // optional, opt-in
	Scenario   ScenarioConfig   `yaml:"scenario"`
	Log        LogConfig        `yaml:"log"`
}

// ---- DEVICE ----

const (
	DriverSimulated   = "simulated"   // memory bus + in-process arm model
	DriverLoopback    = "loopback"    // simulated arm served over TCP, goburrow client
	DriverGoburrow    = "goburrow"    // real device, goburrow/modbus
	DriverSimonvetter = "simonvetter" // real device, simonvetter/modbus

	ModeTCP = "tcp"
	ModeRTU = "rtu"
)

type DeviceConfig struct {
	Driver    string       `yaml:"driver"`
	Endpoint  string       `yaml:"endpoint"` // host:port (tcp) or serial device path (rtu)
	Mode      string       `yaml:"mode"`
	UnitID    uint8        `yaml:"unit_id"`
	TimeoutMs int          `yaml:"timeout_ms"`
	Serial    SerialConfig `yaml:"serial"`
}

type SerialConfig struct {
	BaudRate int    `yaml:"baud_rate"`
	DataBits int    `yaml:"data_bits"`
	Parity   string `yaml:"parity"` // N, E, O
	StopBits int    `yaml:"stop_bits"`
}

// ---- ADDRESS MAP ----

const (
	VariantBench  = "bench"
	VariantArm    = "arm"
	VariantCustom = "custom"

	RunningCoil          = "coil"
	RunningDiscreteInput = "discrete_input"
)

// AddressMapConfig selects a named variant; explicit fields override it.
type AddressMapConfig struct {
	Variant           string  `yaml:"variant"`
	EnableCoil        *uint16 `yaml:"enable_coil"`
	RunningKind       string  `yaml:"running_kind"`
	RunningAddress    *uint16 `yaml:"running_address"`
	IndexRegister     *uint16 `yaml:"index_register"`
	ProgramSelectCoil *uint16 `yaml:"program_select_coil"`
}

// ---- TIMING ----

type TimingConfig struct {
	StartTimeoutMs      int `yaml:"start_timeout_ms"`
	CompletionTimeoutMs int `yaml:"completion_timeout_ms"`
	StopGraceMs         int `yaml:"stop_grace_ms"`
	SettleMs            int `yaml:"settle_ms"`
	PollIntervalMs      int `yaml:"poll_interval_ms"`
}

// ---- SWEEP ----

type SweepConfig struct {
	StartUs         int  `yaml:"start_us"`
	Factor          int  `yaml:"factor"`
	CeilingMs       int  `yaml:"ceiling_ms"`
	MaxIterations   int  `yaml:"max_iterations"`
	StopOnEarlyStop bool `yaml:"stop_on_early_stop"`
}

// ---- POLICY ----

const (
	AnomalyAbort    = "abort"
	AnomalyContinue = "continue"
)

type PolicyConfig struct {
	OnAnomaly string `yaml:"on_anomaly"`
}

// ---- SIMULATOR ----

type SimulatorConfig struct {
	Listen              string         `yaml:"listen"` // loopback driver only
	TickUs              int            `yaml:"tick_us"`
	StartLatencyMs      int            `yaml:"start_latency_ms"`
	StopLatencyMs       int            `yaml:"stop_latency_ms"`
	DefaultRunMs        int            `yaml:"default_run_ms"`
	Routines            map[uint16]int `yaml:"routines"` // index -> run time (ms)
	RejectUnknown       bool           `yaml:"reject_unknown"`
	IgnoreStop          bool           `yaml:"ignore_stop"`
	RestartWhileEnabled bool           `yaml:"restart_while_enabled"`
}

// ---- STATUS ----

type StatusConfig struct {
	Endpoint  string `yaml:"endpoint"`
	UnitID    uint8  `yaml:"unit_id"`
	BaseSlot  uint16 `yaml:"base_slot"`
	Name      string `yaml:"name"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// ---- SCENARIO ----

type ScenarioConfig struct {
	Kind    string `yaml:"kind"`
	Index   uint16 `yaml:"index"`
	DelayMs int    `yaml:"delay_ms"`
}

// ---- LOG ----

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}
