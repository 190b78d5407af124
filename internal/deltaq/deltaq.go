// Package deltaq implements the per-tick orchestration that
// ties motion, interference, and the per-standard PHY/MAC models
// (internal/phy) into the four-tuple (bandwidth, loss, delay, jitter) a
// connection reports at a given instant. Grounded directly on
// deltaQ/connection.c's connection_deltaQ/connection_do_compute and
// deltaQ/scenario.c's scenario_deltaQ -- including two asymmetries those
// functions carry between standards that a from-scratch design would
// have been tempted to "fix": WLAN gates its delay/jitter recompute on
// OR (either field undefined) while every other standard gates on AND
// (both undefined), and only WLAN ever calls its retransmissions
// estimator -- ZigBee has an equivalent function in zigbee.c that
// connection_do_compute simply never reaches.
package deltaq

import (
	"time"

	"github.com/qomet-project/qomet/internal/geo"
	"github.com/qomet-project/qomet/internal/interference"
	"github.com/qomet-project/qomet/internal/phy"
	"github.com/qomet-project/qomet/internal/phy/wlan"
	"github.com/qomet-project/qomet/internal/qometerr"
	"github.com/qomet-project/qomet/internal/qrand"
	"github.com/qomet-project/qomet/internal/scenario"
)

// Engine bundles the per-tick collaborators: the PHY/MAC registry, the
// attenuation memoization cache, and the RNG stream. One Engine serves a
// whole run; Rand.Split gives RunParallel's per-group goroutines their
// own independent stream without touching the shared one.
type Engine struct {
	Registry *phy.Registry
	Cache    *interference.AttenuationCache
	Rand     *qrand.Rand
}

// NewEngine wires a ready-to-run Engine.
func NewEngine(reg *phy.Registry, rnd *qrand.Rand) *Engine {
	return &Engine{
		Registry: reg,
		Cache:    interference.NewAttenuationCache(),
		Rand:     rnd,
	}
}

func isWLAN(s scenario.StandardKind) bool {
	switch s {
	case scenario.Standard80211a, scenario.Standard80211b, scenario.Standard80211g:
		return true
	default:
		return false
	}
}

// gateClosed reports whether the delay/jitter recompute is skipped for
// this standard given the mask -- WLAN's "either field pinned" OR gate
// versus every other standard's "both fields pinned" AND gate
// (connection.c: compare the WLAN branch's `||` against every other
// branch's `&&`).
func gateClosed(standard scenario.StandardKind, mask scenario.DeltaQMask) bool {
	if isWLAN(standard) {
		return mask.DelayDefined || mask.JitterDefined
	}
	return mask.DelayDefined && mask.JitterDefined
}

// Tick recomputes one connection's deltaQ for time now: applies any
// fixed-deltaQ override active at now, calls the standard's
// UpdateConnection/interference/loss/retransmissions/ARF/delay-jitter/
// bandwidth in the order connection_do_compute dispatches them, and
// reports whether anything changed (connection_do_compute's
// deltaQ_changed, used by Precompute's convergence loop and by callers
// that only want to emit output on change).
//
// Tick runs the interference sweep itself, scoped to this one
// connection. Callers ticking every connection in a tick one at a time
// (Run, Precompute) can use Tick directly; RunParallel instead runs
// interference.Sweep once for the whole scenario up front (it mutates
// scenario-wide interface bookkeeping and isn't safe to call
// concurrently for two connections at once) and calls tickCompute
// directly for each connection's remaining, connection-owned fields.
func (e *Engine) Tick(sc *scenario.Scenario, connID scenario.ConnID, now time.Duration) (changed bool, err error) {
	conn := sc.Conn(connID)
	ctx, model, err := e.buildCtx(sc, conn, now)
	if err != nil {
		return false, err
	}
	if err := interference.SweepOne(sc, e.Registry, e.Cache, conn, e.Rand, now); err != nil {
		return false, err
	}
	return tickCompute(ctx, model)
}

// buildCtx resolves the standard's Model, applies the fixed-deltaQ
// window active at now, and assembles the phy.Ctx every subsequent step
// shares -- the portion of connection_deltaQ/connection_do_compute that
// precedes the standard's interference call.
func (e *Engine) buildCtx(sc *scenario.Scenario, conn *scenario.Connection, now time.Duration) (*phy.Ctx, phy.Model, error) {
	model := e.Registry.For(conn.Standard)
	if model == nil {
		return nil, nil, qometerr.New(qometerr.KindInput, conn.Name, qometerr.ErrMalformedInput)
	}

	// SPECIAL: assign current operating rate from the last tick's ARF
	// look-ahead (connection_do_compute's first line).
	conn.OperatingRate = conn.NewOperatingRate

	applyFixedWindow(conn, now)

	txNode, rxNode := sc.Node(conn.FromNode), sc.Node(conn.ToNode)
	ctx := &phy.Ctx{
		Scenario:            sc,
		Conn:                conn,
		Env:                 sc.Env(conn.ThroughEnv),
		TxIface:              sc.Iface(conn.FromIface),
		RxIface:              sc.Iface(conn.ToIface),
		TxNode:               txNode,
		RxNode:               rxNode,
		Rand:                 e.Rand,
		Now:                  now,
		RelativeVelocityMps:  geo.Length(geo.Sub(txNode.Velocity, rxNode.Velocity)),
	}
	if err := model.UpdateConnection(ctx); err != nil {
		return nil, nil, err
	}
	return ctx, model, nil
}

// tickCompute runs everything connection_do_compute does after the
// standard's interference call: loss rate, WLAN-only retransmissions,
// ARF, delay/jitter (with its per-standard gating), and bandwidth. It
// touches only fields owned by ctx.Conn, so it's safe to call
// concurrently for connections with distinct receivers.
func tickCompute(ctx *phy.Ctx, model phy.Model) (changed bool, err error) {
	conn := ctx.Conn
	old := conn.Dynamic

	if !conn.Mask.LossDefined {
		lr, err := model.LossRate(ctx)
		if err != nil {
			return false, err
		}
		conn.Dynamic.LossRate = lr
	}

	if isWLAN(conn.Standard) {
		wlan.Retransmissions(ctx)
	}

	if conn.AdaptiveRate {
		if err := model.OperatingRate(ctx); err != nil {
			return false, err
		}
	}

	if !gateClosed(conn.Standard, conn.Mask) {
		delayMs, jitterMs, err := model.DelayJitter(ctx)
		if err != nil {
			return false, err
		}
		conn.Dynamic.DelayMs = delayMs
		conn.Dynamic.JitterMs = jitterMs
	}

	if !conn.Mask.BandwidthDefined {
		bps, err := model.Bandwidth(ctx)
		if err != nil {
			return false, err
		}
		conn.Dynamic.BandwidthBps = bps
	}

	changed = conn.OperatingRate != conn.NewOperatingRate ||
		old.LossRate != conn.Dynamic.LossRate ||
		old.DelayMs != conn.Dynamic.DelayMs ||
		old.JitterMs != conn.Dynamic.JitterMs ||
		old.BandwidthBps != conn.Dynamic.BandwidthBps

	return changed, nil
}

// applyFixedWindow pins whichever of the four deltaQ fields a fixed-
// deltaQ window active at now overrides, and records which
// fields were pinned in conn.Mask so Tick knows which recomputes to
// skip. A connection with no active window clears every flag, letting
// the model recompute all four fields as usual.
func applyFixedWindow(conn *scenario.Connection, now time.Duration) {
	var mask scenario.DeltaQMask
	if w, ok := conn.ActiveWindow(now); ok {
		if w.Bandwidth != nil {
			conn.Dynamic.BandwidthBps = *w.Bandwidth
			mask.BandwidthDefined = true
		}
		if w.Loss != nil {
			conn.Dynamic.LossRate = *w.Loss
			mask.LossDefined = true
		}
		if w.Delay != nil {
			conn.Dynamic.DelayMs = *w.Delay
			mask.DelayDefined = true
		}
		if w.Jitter != nil {
			conn.Dynamic.JitterMs = *w.Jitter
			mask.JitterDefined = true
		}
	}
	conn.Mask = mask
}
