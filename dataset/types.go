// SPDX-License-Identifier: MIT

// Package dataset: component records, enumerations and the Dataset container.
// All physical quantities are SI (V, Ω, F, S, W, var, A, rad); conversion to
// per-unit happens in the admittance package.
package dataset

// ID identifies a component. All component tables share one id namespace.
type ID int32

// Status is the switching state of a component terminal.
// The zero value is Disconnected, so records must set Connected explicitly.
type Status int8

const (
	Disconnected Status = 0
	Connected    Status = 1
)

// On reports whether the terminal is closed.
func (s Status) On() bool { return s == Connected }

// LoadType selects the voltage dependency of a load or generator:
// S(V) = S_specified · |V|^k with k = 0, 2, 1 respectively.
type LoadType int8

const (
	ConstPower     LoadType = 0
	ConstImpedance LoadType = 1
	ConstCurrent   LoadType = 2
)

// Exponent returns k in S(V) = S_specified · |V|^k.
func (t LoadType) Exponent() float64 {
	switch t {
	case ConstImpedance:
		return 2
	case ConstCurrent:
		return 1
	default:
		return 0
	}
}

func (t LoadType) String() string {
	switch t {
	case ConstPower:
		return "const_power"
	case ConstImpedance:
		return "const_impedance"
	case ConstCurrent:
		return "const_current"
	default:
		return "unknown"
	}
}

// TerminalType tells a power sensor which side of which component it sits on.
type TerminalType int8

const (
	BranchFrom        TerminalType = 0
	BranchTo          TerminalType = 1
	SourceTerminal    TerminalType = 2
	ShuntTerminal     TerminalType = 3
	LoadTerminal      TerminalType = 4
	GeneratorTerminal TerminalType = 5
	NodeTerminal      TerminalType = 9
)

func (t TerminalType) String() string {
	switch t {
	case BranchFrom:
		return "branch_from"
	case BranchTo:
		return "branch_to"
	case SourceTerminal:
		return "source"
	case ShuntTerminal:
		return "shunt"
	case LoadTerminal:
		return "load"
	case GeneratorTerminal:
		return "generator"
	case NodeTerminal:
		return "node"
	default:
		return "unknown"
	}
}

// Component names the tables; used in diagnostics and object lookups.
type Component string

const (
	ComponentNode          Component = "node"
	ComponentLine          Component = "line"
	ComponentSource        Component = "source"
	ComponentSymLoad       Component = "sym_load"
	ComponentSymGen        Component = "sym_gen"
	ComponentShunt         Component = "shunt"
	ComponentVoltageSensor Component = "sym_voltage_sensor"
	ComponentPowerSensor   Component = "sym_power_sensor"
)

// Node is an electrical bus.
type Node struct {
	ID     ID      `yaml:"id"`
	URated float64 `yaml:"u_rated"` // rated line-to-line voltage
}

// Line is a symmetric pi-model branch.
type Line struct {
	ID         ID      `yaml:"id"`
	FromNode   ID      `yaml:"from_node"`
	ToNode     ID      `yaml:"to_node"`
	FromStatus Status  `yaml:"from_status"`
	ToStatus   Status  `yaml:"to_status"`
	R1         float64 `yaml:"r1"`   // series resistance
	X1         float64 `yaml:"x1"`   // series reactance
	C1         float64 `yaml:"c1"`   // shunt capacitance
	Tan1       float64 `yaml:"tan1"` // shunt loss factor
	IN         float64 `yaml:"i_n"`  // rated current, 0 disables loading
}

// Source is a voltage source behind an internal impedance.
// SK == 0 selects DefaultSK. RXRatio is used as given.
type Source struct {
	ID        ID      `yaml:"id"`
	Node      ID      `yaml:"node"`
	Status    Status  `yaml:"status"`
	URef      float64 `yaml:"u_ref"`       // pu
	URefAngle float64 `yaml:"u_ref_angle"` // rad
	SK        float64 `yaml:"sk"`          // short-circuit power
	RXRatio   float64 `yaml:"rx_ratio"`
}

// DefaultSK is the short-circuit power of a source with SK unset.
const DefaultSK = 1e10

// SymLoad consumes power (load reference direction).
type SymLoad struct {
	ID         ID       `yaml:"id"`
	Node       ID       `yaml:"node"`
	Status     Status   `yaml:"status"`
	Type       LoadType `yaml:"type"`
	PSpecified float64  `yaml:"p_specified"`
	QSpecified float64  `yaml:"q_specified"`
}

// SymGen injects power (generator reference direction).
type SymGen struct {
	ID         ID       `yaml:"id"`
	Node       ID       `yaml:"node"`
	Status     Status   `yaml:"status"`
	Type       LoadType `yaml:"type"`
	PSpecified float64  `yaml:"p_specified"`
	QSpecified float64  `yaml:"q_specified"`
}

// Shunt is a fixed admittance to ground.
type Shunt struct {
	ID     ID      `yaml:"id"`
	Node   ID      `yaml:"node"`
	Status Status  `yaml:"status"`
	G1     float64 `yaml:"g1"`
	B1     float64 `yaml:"b1"`
}

// SymVoltageSensor measures the voltage magnitude of a node and, when
// AngleMeasured is set, its angle too.
type SymVoltageSensor struct {
	ID             ID      `yaml:"id"`
	MeasuredObject ID      `yaml:"measured_object"`
	USigma         float64 `yaml:"u_sigma"`
	UMeasured      float64 `yaml:"u_measured"`
	UAngleMeasured float64 `yaml:"u_angle_measured"`
	AngleMeasured  bool    `yaml:"angle_measured"`
}

// SymPowerSensor measures active and reactive power at a terminal.
// PSigma and QSigma override PowerSigma when positive.
type SymPowerSensor struct {
	ID               ID           `yaml:"id"`
	MeasuredObject   ID           `yaml:"measured_object"`
	MeasuredTerminal TerminalType `yaml:"measured_terminal_type"`
	PowerSigma       float64      `yaml:"power_sigma"`
	PMeasured        float64      `yaml:"p_measured"`
	QMeasured        float64      `yaml:"q_measured"`
	PSigma           float64      `yaml:"p_sigma"`
	QSigma           float64      `yaml:"q_sigma"`
}

// Sigmas returns the effective (σP, σQ) in SI units.
func (s SymPowerSensor) Sigmas() (float64, float64) {
	sp, sq := s.PowerSigma, s.PowerSigma
	if s.PSigma > 0 {
		sp = s.PSigma
	}
	if s.QSigma > 0 {
		sq = s.QSigma
	}

	return sp, sq
}
