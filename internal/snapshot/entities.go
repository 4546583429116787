// Package snapshot implements the Snapshot Data Model (spec.md §4.C): the
// immutable, content-addressed image of a network at one point in its
// action history. A Snapshot is constructed once, validated against the
// invariants in spec.md §3.3, and never mutated afterward; every exported
// accessor returns a value sorted by element id.
package snapshot

import "dnsc/internal/catalog"

// NodeKind is the closed set of electrical roles a node may hold.
type NodeKind string

const (
	NodeSlack    NodeKind = "slack"
	NodePQ       NodeKind = "pq"
	NodePV       NodeKind = "pv"
	NodeIsolated NodeKind = "isolated"
)

// Node is a network bus.
type Node struct {
	ID                      string
	DisplayName             string
	Kind                    NodeKind
	NominalVoltageKV        float64
	ScheduledActiveMW       *float64
	ScheduledReactiveMvar   *float64
	InitialVoltageMagnitude *float64
	InitialVoltageAngleDeg  *float64
}

// BranchKind is the closed set of branch roles.
type BranchKind string

const (
	BranchLine          BranchKind = "line"
	BranchCable         BranchKind = "cable"
	BranchTransformer   BranchKind = "transformer"
	BranchSwitchAsLine  BranchKind = "switch-as-branch"
)

// InlineImpedance is an inline, non-catalog impedance for a branch.
type InlineImpedance struct {
	ROhmPerKm          float64
	XOhmPerKm          float64
	BMicroSiemensPerKm float64
	LengthKm           float64
}

// ImpedanceOverride is a total-over-segment override that dominates every
// other impedance source for a line/cable branch.
type ImpedanceOverride struct {
	RTotalOhm          float64
	XTotalOhm          float64
	BTotalMicroSiemens float64
	Reason             string
}

// CatalogBinding is the frozen, per-element result of materializing an
// element's parameters against the registry that was current when the
// snapshot was formed (spec.md §4.E).
type CatalogBinding struct {
	Namespace           catalog.Namespace
	ItemID              catalog.ItemID
	ItemVersion         catalog.Version
	MaterializedFields  map[string]float64
	MaterializedHash    string
	Provenance          []catalog.FieldProvenance
}

// Branch is a line, cable, transformer, or switch modeled as a branch.
type Branch struct {
	ID                string
	DisplayName       string
	Kind              BranchKind
	FromNode          string
	ToNode            string
	InService         bool
	LengthKm          float64
	CatalogBinding    *CatalogBinding
	InlineImpedance   *InlineImpedance
	ImpedanceOverride *ImpedanceOverride
}

// SwitchKind is the closed set of switching device roles.
type SwitchKind string

const (
	SwitchBreaker     SwitchKind = "breaker"
	SwitchDisconnector SwitchKind = "disconnector"
	SwitchLoadSwitch  SwitchKind = "load-switch"
	SwitchFuse        SwitchKind = "fuse"
)

// SwitchState is open or closed.
type SwitchState string

const (
	SwitchOpen   SwitchState = "open"
	SwitchClosed SwitchState = "closed"
)

// Switch is a zero-impedance switching apparatus.
type Switch struct {
	ID        string
	FromNode  string
	ToNode    string
	Kind      SwitchKind
	State     SwitchState
	InService bool
}

// SourceModel is the closed set of electrical source models.
type SourceModel string

const (
	SourceShortCircuitPower      SourceModel = "short-circuit-power"
	SourceVoltageBehindImpedance SourceModel = "voltage-behind-impedance"
	SourceGrid                   SourceModel = "grid"
)

// Source is an electrical injection bound to a node.
type Source struct {
	ID        string
	NodeID    string
	Model     SourceModel
	InService bool
	Payload   map[string]float64
}

// Load is a P/Q consumer bound to a node.
type Load struct {
	ID        string
	NodeID    string
	PMW       float64
	QMvar     float64
	Model     string
	InService bool
}

// Substation groups buses, bays, and transformers.
type Substation struct {
	ID              string
	BusRefs         []string
	BayRefs         []string
	TransformerRefs []string
}

// Bay groups apparatus on a bus.
type Bay struct {
	ID            string
	BusRef        string
	ApparatusRefs []string
}

// Junction is a purely topological point.
type Junction struct {
	ID     string
	NodeRef string
}

// Corridor is an ordered trunk of branches.
type Corridor struct {
	ID        string
	BranchRefs []string
}

// Measurement is a CT/VT element bound to another element.
type Measurement struct {
	ID             string
	ElementRef     string
	CatalogBinding *CatalogBinding
}

// ProtectionAssignment binds a protection device and optional setting
// template to a switch or branch.
type ProtectionAssignment struct {
	ID                     string
	ElementRef             string
	DeviceBinding          *CatalogBinding
	SettingTemplateBinding *CatalogBinding
}

// GeneratorTechnology is the closed set of generator technologies.
type GeneratorTechnology string

const (
	TechnologyPVInverter   GeneratorTechnology = "pv_inverter"
	TechnologyBESSInverter GeneratorTechnology = "bess_inverter"
	TechnologySynchronous  GeneratorTechnology = "synchronous"
)

// ConnectionVariant is the closed set of inverter-based generator
// connection topologies (spec.md §3.3.5).
type ConnectionVariant string

const (
	ConnectionNNSide          ConnectionVariant = "nn_side"
	ConnectionBlockTransformer ConnectionVariant = "block_transformer"
)

// Generator is a renewable inverter, BESS inverter, or synchronous machine.
type Generator struct {
	ID                string
	NodeID            string
	Technology        GeneratorTechnology
	ConnectionVariant *ConnectionVariant // nil for synchronous machines
	SubstationRef     *string            // required iff ConnectionVariant == nn_side
	TransformerRef    *string            // required iff ConnectionVariant == block_transformer
	CatalogBinding    *CatalogBinding
	InService         bool
}
