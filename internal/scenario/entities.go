// Package scenario holds the QOMET data model: nodes, interfaces,
// environments, objects, connections and motions, plus the Scenario that
// owns all of them. Cross-entity references are resolved indices, never
// shared pointers — see Resolve.
package scenario

import "time"

// Coordinate is three doubles, interpreted as (x,y,z) cartesian meters or
// (lat,lon,alt) depending on Scenario.CartesianCoordSyst.
type Coordinate [3]float64

// MinDistance clamps distance() results to avoid singularities at r->0.
const MinDistance = 0.01 // meters

// AntennaMaxAttenuation represents "no signal" for a directional antenna
// pointed away from the receiver. Matches deltaQ/generic.h's
// ANTENNA_MAX_ATTENUATION; kept in sync with geo.AntennaMaxAttenuation.
const AntennaMaxAttenuation = paddingLargeDB

const paddingLargeDB = 100.0

// Band identifies the RF band an interface's Pr0 was computed for, since
// a multi-standard interface may need more than one reference power.
type Band int

const (
	Band2_4GHz Band = iota
	Band5GHz
	Band900MHz // active tag / ZigBee sub-GHz variants
	Band3_5GHz // generic WiMAX default
)

// AdapterKind identifies a per-standard parameter table, one row of
// fixed hardware characteristics per radio/adapter model.
type AdapterKind int

const (
	AdapterORiNOCO AdapterKind = iota
	AdapterDei80211mr
	AdapterCisco340
	AdapterCiscoABG
	AdapterJennic // ZigBee
	AdapterActiveTagGeneric
	AdapterWimaxGeneric
	AdapterEthernetGeneric
)

// String names an adapter table the way the settings snapshot and log
// lines refer to it.
func (a AdapterKind) String() string {
	switch a {
	case AdapterORiNOCO:
		return "orinoco"
	case AdapterDei80211mr:
		return "dei80211mr"
	case AdapterCisco340:
		return "cisco340"
	case AdapterCiscoABG:
		return "cisco-abg"
	case AdapterJennic:
		return "jennic"
	case AdapterActiveTagGeneric:
		return "activetag-generic"
	case AdapterWimaxGeneric:
		return "wimax-generic"
	case AdapterEthernetGeneric:
		return "ethernet-generic"
	default:
		return "unknown"
	}
}

// MIMOAntennas is the Nt/Nr pair for an interface's antenna array.
type MIMOAntennas struct {
	Nt int
	Nr int
}

// WimaxCapacity is the OFDMA capacity sub-state carried per WiMAX
// interface: FFT size, subcarrier spacing, symbol timing, DL/UL splits,
// MCS, MIMO type, and the thermal-noise figure the capacity model needs.
// Field meanings and derivation live in internal/phy/wimax; this struct
// is just the data the scenario owns.
type WimaxCapacity struct {
	SystemBandwidthHz float64
	MCS               int // index into the wimax MCS table
	MIMOType          int // 0=SISO, 1=Matrix-A, 2=Matrix-B
	ThermalNoiseDBm   float64

	// Derived at init/whenever the above change; phy/wimax populates these.
	FFTSize        int
	SamplingFactor float64
	SubcarrierHz   float64
	SymbolTimeUs   float64
	DLSymbols      int
	ULSymbols      int
	UsedSubcarr    int
	DataSubcarr    int
	SlotsDL        int
	SlotsUL        int
}

// Interface is one radio (or wired) adapter on a Node.
type Interface struct {
	Name   string
	ID     IfaceID
	NodeID NodeID

	AntennaGainDBi float64
	AzimuthDeg     float64
	ElevationDeg   float64
	BeamwidthDeg   float64 // 360 => omni

	Adapter      AdapterKind
	Antennas     MIMOAntennas
	Pr0DBm       map[Band]float64

	NoiseSource bool
	NoiseStart  time.Duration
	NoiseEnd    time.Duration

	Wimax *WimaxCapacity // non-nil only for AdapterWimaxGeneric interfaces

	// accounted is the per-tick interference-sweep marker. It is reset by
	// interference.Sweep at the start of every sweep and must never be
	// read across ticks; kept here (rather than a package-level set) only
	// because Scenario already indexes interfaces by ID and this avoids an
	// allocation per tick. A *scoped* per-sweep flag, not a long-lived
	// global.
	accounted bool
}

// IsOmni reports whether the interface radiates uniformly.
func (i *Interface) IsOmni() bool { return i.BeamwidthDeg >= 360 }

// Accounted reports whether this interface has already been charged as an
// interferer in the current sweep.
func (i *Interface) Accounted() bool { return i.accounted }

// SetAccounted marks/clears the per-sweep interference flag.
func (i *Interface) SetAccounted(v bool) { i.accounted = v }

// Node is one emulated host.
type Node struct {
	Name string
	ID   NodeID

	Position Coordinate
	Velocity [3]float64 // meters/sec, maintained by the motion engine

	InternalDelay time.Duration
	PtDBm         float64 // transmit power

	Interfaces []IfaceID // ordered, indices into Scenario.Interfaces
}

// Segment is one leg of a (possibly multi-segment, dynamic) propagation
// environment.
type Segment struct {
	Alpha      float64 // path-loss exponent
	SigmaDB    float64 // shadow-fading stdev
	WallDB     float64 // wall attenuation
	LengthM    float64 // -1 => use runtime distance
	NoisePower float64 // dBm
}

// Environment is a named, ordered list of segments. At least one segment
// is required (validated in Validate).
type Environment struct {
	Name      string
	ID        EnvID
	IsDynamic bool
	Segments  []Segment
}

// ObjectType distinguishes buildings (closed polygons) from roads
// (polylines).
type ObjectType int

const (
	ObjectBuilding ObjectType = iota
	ObjectRoad
)

// Object is a named polygon/polyline loaded from the geo collaborator
// (out of scope for this module; the only loader here is
// scenario/testscenario's JSON decoder). The invariant
// that polygons close (first vertex == last) is enforced defensively in
// Validate even though this module never produces Objects itself.
type Object struct {
	Name       string
	ID         ObjectID
	Type       ObjectType
	HeightM    float64
	EnvName    string
	EnvID      EnvID
	Vertices   []Coordinate
	IsPolyline bool
}

// StandardKind is the per-connection PHY/MAC family selector.
type StandardKind int

const (
	Standard80211b StandardKind = iota
	Standard80211g
	Standard80211a
	StandardEthernet10
	StandardEthernet100
	StandardEthernet1000
	StandardActiveTag
	StandardZigBee
	Standard80216e
)

// Family groups standards that may interfere with one another.
func (s StandardKind) Family() string {
	switch s {
	case Standard80211b, Standard80211g:
		return "bg"
	case Standard80211a:
		return "a"
	case StandardZigBee:
		return "zigbee"
	case StandardActiveTag:
		return "activetag"
	case Standard80216e:
		return "wimax"
	default:
		return "wired"
	}
}

// String names a standard the way the text output and log lines refer to
// it.
func (s StandardKind) String() string {
	switch s {
	case Standard80211b:
		return "802.11b"
	case Standard80211g:
		return "802.11g"
	case Standard80211a:
		return "802.11a"
	case StandardEthernet10:
		return "ethernet10"
	case StandardEthernet100:
		return "ethernet100"
	case StandardEthernet1000:
		return "ethernet1000"
	case StandardActiveTag:
		return "activetag"
	case StandardZigBee:
		return "zigbee"
	case Standard80216e:
		return "802.16e"
	default:
		return "unknown"
	}
}

// IsWired reports whether the standard has no variable RF component.
func (s StandardKind) IsWired() bool {
	switch s {
	case StandardEthernet10, StandardEthernet100, StandardEthernet1000:
		return true
	default:
		return false
	}
}

// IsOFDM reports whether Doppler degradation applies: WiMAX
// and the OFDM rates of 802.11a/g, never DSSS rates or Ethernet. Per-rate
// OFDM/DSSS distinction within 802.11g is handled in internal/phy/wlan;
// this reports the coarse per-standard default.
func (s StandardKind) IsOFDM() bool {
	switch s {
	case Standard80211a, Standard80216e:
		return true
	default:
		return false
	}
}

// FixedWindow is one piecewise-constant deltaQ override.
// Nil fields fall through to the computed model.
type FixedWindow struct {
	Start    time.Duration
	End      time.Duration
	Bandwidth *float64
	Loss      *float64
	Delay     *float64
	Jitter    *float64
}

// DeltaQ is the 4-tuple a connection's link quality is characterized by
// at an instant.
type DeltaQ struct {
	BandwidthBps float64
	LossRate     float64
	DelayMs      float64
	JitterMs     float64
}

// DeltaQMask records which of the four fields in a DeltaQ were pinned by
// a fixed-deltaQ override (as opposed to computed by the model) for a
// given tick.
type DeltaQMask struct {
	BandwidthDefined bool
	LossDefined      bool
	DelayDefined     bool
	JitterDefined    bool
}

// Any reports whether at least one field is overridden.
func (m DeltaQMask) Any() bool {
	return m.BandwidthDefined || m.LossDefined || m.DelayDefined || m.JitterDefined
}

// Connection is a logical link between two interfaces, carrying both the
// static configuration and the dynamic fields recomputed every tick.
type Connection struct {
	Name string
	ID   ConnID

	FromNode  NodeID
	FromIface IfaceID
	ToNode    NodeID
	ToIface   IfaceID

	ThroughEnv EnvID

	PacketSize           int
	Channel              int
	Standard             StandardKind
	RTSCTSThresholdBytes int
	ConsiderInterference bool
	AdaptiveRate         bool

	// EnableMACEmulation selects ZigBee's MAC-level retransmission loss
	// model (loss_rate = FER^ZigBeeMaxTransmissions, delay/jitter
	// FER-weighted over the retransmission distribution) over the default
	// PHY-only model (loss_rate = FER combined additively with
	// interference FER, delay/jitter taken at zero retransmissions).
	// Per-connection rather than a process-wide switch, since a single
	// scenario can mix ZigBee links some of which deliberately disable
	// MAC emulation; see zigbee.c's enable_MAC_emulation global, which
	// defaulted to FALSE.
	EnableMACEmulation bool

	OperatingRate    int // index into the standard's rate table
	NewOperatingRate int // ARF look-ahead

	FixedWindows []FixedWindow

	Dynamic DeltaQ
	Mask    DeltaQMask

	DistanceM          float64
	PrDBm              float64
	SNRdB              float64
	FER                float64
	InterferenceFER    float64
	NumRetransmissions float64
	ConcurrentStations int
	InterferenceNoiseDBm float64
	CompatibilityMode  bool

	// warnedClamp is set the first time distance() is clamped to
	// MinDistance for this connection, so the clamp is recorded once per
	// connection per run rather than every tick. Nothing logs it.
	warnedClamp bool
}

// WarnedClamp / MarkClamped implement the "record a warning at the first
// clamp per connection per tick" rule from "Per tick" here
// means the caller resets this when it wants re-arming; the engine resets
// it never within a run, matching the source behavior of warning once.
func (c *Connection) WarnedClamp() bool     { return c.warnedClamp }
func (c *Connection) MarkClamped()          { c.warnedClamp = true }

// Motion describes how one node's position evolves over time.
type MotionType int

const (
	MotionLinear MotionType = iota
	MotionBehavioral
	MotionTrace
)

// TraceSample is one (t, position) sample from an external motion trace.
type TraceSample struct {
	Time     time.Duration
	Position Coordinate
}

// TraceSource is the external collaborator for MotionTrace motions:
// something that can hand back the first sample after a given time,
// for linear interpolation to the current sub-step.
type TraceSource interface {
	Next(after time.Duration) (TraceSample, bool)
}

// Motion is one node's movement specification.
type Motion struct {
	Node NodeID
	Type MotionType

	Start time.Duration
	Stop  time.Duration

	// Velocity is used directly for MotionLinear unless DeriveVelocity is
	// set, in which case it is overwritten once, on the first step, with
	// (Destination-start position)/(Stop-Start).
	Velocity       [3]float64
	DeriveVelocity bool
	Destination    Coordinate
	NominalSpeedMps float64

	// Region is the optional polygon MotionBehavioral samples a fresh
	// Destination from (uniformly, by rejection sampling its bounding
	// box) each time the node reaches its current one. Nil means
	// Destination is fixed for the whole motion.
	Region []Coordinate

	Trace TraceSource // only for MotionTrace

	// initialized records whether Velocity/Destination has been derived
	// yet, for the "computed once" cases (MotionLinear's derived
	// velocity, MotionBehavioral's first region sample).
	initialized bool

	// Trace interpolation window: the last sample at or before the
	// current time (traceLeft) and the next one beyond it (traceRight,
	// valid only once traceHaveRight is set). traceLeft starts out at
	// (Start, node's initial position) so the first sub-step before any
	// sample arrives holds still rather than jumping.
	traceLeft      TraceSample
	traceRight     TraceSample
	traceHaveRight bool
}

func (m *Motion) Initialized() bool { return m.initialized }
func (m *Motion) MarkInitialized()  { m.initialized = true }

// TraceWindow returns the current trace interpolation window.
func (m *Motion) TraceWindow() (left, right TraceSample, haveRight bool) {
	return m.traceLeft, m.traceRight, m.traceHaveRight
}

// SetTraceLeft anchors the interpolation window's left edge, consuming
// any pending right sample.
func (m *Motion) SetTraceLeft(s TraceSample) {
	m.traceLeft = s
	m.traceHaveRight = false
}

// SetTraceRight records the next sample to interpolate toward.
func (m *Motion) SetTraceRight(s TraceSample) {
	m.traceRight = s
	m.traceHaveRight = true
}

// Scenario owns every entity. All cross-entity references elsewhere in
// this module are indices into these slices.
type Scenario struct {
	CartesianCoordSyst bool
	StartTime          time.Duration
	Duration           time.Duration
	Step               time.Duration
	MotionStepDivider   int
	JpgisFilename       string

	Nodes        []Node
	Interfaces   []Interface
	Environments []Environment
	Objects      []Object
	Connections  []Connection
	Motions      []Motion

	nameToNode NameIndex
	nameToIface NameIndex
	nameToEnv   NameIndex

	resolved bool
}

// NameIndex is the name->index map kept only at parse/resolve time; after
// Resolve runs, callers should not need it (every reference has already
// become an integer id), but it's kept on Scenario for error reporting
// and for incremental scenario edits in tests.
type NameIndex map[string]int
