// Package phy defines the per-standard PHY/MAC dispatch of one
// Model implementation per standard family (802.11a/b/g, 802.16e/WiMAX,
// 802.15.4/ZigBee, active tag, Ethernet), selected through a Registry
// keyed by scenario.StandardKind rather than an inheritance hierarchy.
package phy

import (
	"time"

	"github.com/qomet-project/qomet/internal/qrand"
	"github.com/qomet-project/qomet/internal/scenario"
)

// Ctx bundles everything a Model needs to update one connection for one
// tick: the owning scenario (for node/interface/environment lookups), the
// connection itself, and the shared RNG handle for shadow-fading draws.
type Ctx struct {
	Scenario *scenario.Scenario
	Conn     *scenario.Connection
	Env      *scenario.Environment
	TxIface  *scenario.Interface
	RxIface  *scenario.Interface
	TxNode   *scenario.Node
	RxNode   *scenario.Node
	Rand     *qrand.Rand
	Now      time.Duration

	// RelativeVelocityMps is the magnitude of the tx/rx relative velocity,
	// used by OFDM Doppler degradation; computed by the caller (deltaq)
	// from the two nodes' Velocity fields so phy stays free of motion
	// bookkeeping.
	RelativeVelocityMps float64
}

// Model implements the six per-connection operations every standard
// provides.
type Model interface {
	// UpdateConnection recomputes distance and Pr (/§4.2) and
	// stores them on c.Conn.
	UpdateConnection(c *Ctx) error

	// FER returns the (size-adapted) frame error rate for the connection's
	// current operating rate, combining environment and interference
	// noise as the standard's model specifies.
	FER(c *Ctx) (float64, error)

	// LossRate returns the packet loss rate, internally computing FER.
	// May differ from FER (e.g. FER^max_transmissions for 802.11/ZigBee).
	LossRate(c *Ctx) (float64, error)

	// OperatingRate runs adaptive rate selection (no-op for standards
	// without ARF) and updates c.Conn.OperatingRate/NewOperatingRate.
	OperatingRate(c *Ctx) error

	// DelayJitter returns one-way delay and jitter in milliseconds.
	DelayJitter(c *Ctx) (delayMs, jitterMs float64, err error)

	// Bandwidth returns the achievable bandwidth in bits/sec.
	Bandwidth(c *Ctx) (bps float64, err error)
}

// Registry dispatches by scenario.StandardKind.
type Registry struct {
	models map[scenario.StandardKind]Model
}

// NewRegistry builds an empty registry; callers Register each standard's
// Model (internal/phy/wlan, wimax, zigbee, activetag, ethernet each expose
// a constructor + the StandardKind(s) they serve).
func NewRegistry() *Registry {
	return &Registry{models: make(map[scenario.StandardKind]Model)}
}

// Register associates a Model with one or more standards.
func (r *Registry) Register(m Model, standards ...scenario.StandardKind) {
	for _, s := range standards {
		r.models[s] = m
	}
}

// For returns the Model registered for a standard, or nil if none.
func (r *Registry) For(s scenario.StandardKind) Model {
	return r.models[s]
}

// MinNoiseDBm is the floor AddPowers treats as "no contribution" for
// interference/noise composition (/§4.3).
const MinNoiseDBm = -200.0

// MaxFER is the clamp calls for.
const MaxFER = 0.999999999
