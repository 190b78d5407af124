// Package interference implements per-connection scoring of
// interference from every other active connection in the scenario,
// grounded on deltaQ/connection.c's standard-specific dispatch
// (wlan_interference / zigbee_interference / active_tag_interference).
// WiMAX never appears here: connection_do_compute's WIMAX_802_16 branch
// has no interference call at all (the commented-out stub left in the
// source reuses zigbee_interference, but it was never wired up) --
// WiMAX's interference is owned by the ns-3 coupling, not deltaQ, per
// internal/phy/wimax.
package interference

import (
	"time"

	gomath "math"

	"github.com/qomet-project/qomet/internal/phy"
	"github.com/qomet-project/qomet/internal/phy/activetag"
	"github.com/qomet-project/qomet/internal/phy/wlan"
	"github.com/qomet-project/qomet/internal/phy/zigbee"
	"github.com/qomet-project/qomet/internal/propagation"
	"github.com/qomet-project/qomet/internal/qrand"
	"github.com/qomet-project/qomet/internal/scenario"
)

// Sweep recomputes every interference-dependent field
// (ConcurrentStations/InterferenceNoiseDBm/CompatibilityMode for WLAN and
// ZigBee, InterferenceFER for ActiveTag) for each connection with
// ConsiderInterference set, and resets them to their "no interference"
// value for connections that have it cleared -- mirroring
// connection_do_compute's if/else around each standard's *_interference
// call exactly, including the quirks it left in (ActiveTag's
// interference_noise reset is commented out in the source, so ActiveTag
// never touches InterferenceNoiseDBm at all; ZigBee's reset value is its
// own, colder, noise floor rather than WLAN's).
func Sweep(sc *scenario.Scenario, reg *phy.Registry, cache *AttenuationCache, rnd *qrand.Rand, now time.Duration) error {
	for i := range sc.Connections {
		if err := SweepOne(sc, reg, cache, &sc.Connections[i], rnd, now); err != nil {
			return err
		}
	}
	return nil
}

// SweepOne runs the same per-standard dispatch as Sweep but for a single
// connection, against the scenario's current state. This is the primitive
// connection_do_compute actually calls (once per connection, whether from
// scenario_deltaQ's per-tick pass over every connection or from
// initialize_flows' per-connection precompute convergence loop, which only
// ever touches one connection at a time against the rest of the scenario's
// possibly-still-converging state). Sweep's all-connections pass is built
// on top of this, not the other way around.
func SweepOne(sc *scenario.Scenario, reg *phy.Registry, cache *AttenuationCache, conn *scenario.Connection, rnd *qrand.Rand, now time.Duration) error {
	switch conn.Standard {
	case scenario.Standard80211a, scenario.Standard80211b, scenario.Standard80211g:
		if conn.ConsiderInterference {
			return sweepWLAN(sc, reg, cache, conn, rnd, now)
		}
		conn.ConcurrentStations = 0
		conn.InterferenceNoiseDBm = phy.MinNoiseDBm
	case scenario.StandardZigBee:
		if conn.ConsiderInterference {
			return sweepZigBee(sc, reg, cache, conn, rnd)
		}
		conn.ConcurrentStations = 0
		conn.InterferenceNoiseDBm = zigbee.MinimumNoisePowerDBm
	case scenario.StandardActiveTag:
		if conn.ConsiderInterference {
			return sweepActiveTag(sc, reg, conn, rnd)
		}
		conn.ConcurrentStations = 0
	default:
		// Ethernet: no RF model, no interference. WiMAX: see package doc.
	}
	return nil
}

// resetAccounted clears the per-sweep "already charged as an interferer"
// marker on every interface. wlan.c/zigbee.c call
// scenario_reset_node_interference_flag at the *start of each
// connection's own* interference computation, not once per tick -- so a
// transmitter that interferes with two different receivers is charged
// against both, but counted only once per receiver even if it appears
// under more than one connection entry.
func resetAccounted(sc *scenario.Scenario) {
	for i := range sc.Interfaces {
		sc.Interfaces[i].SetAccounted(false)
	}
}

// wlanFamily groups the two mutually-interfering 802.11 camps: b/g share
// the 2.4 GHz DSSS/CCK-vs-OFDM table, a is 5 GHz and only interferes with
// itself. wlan.c's wlan_interference checks exactly this pairing.
func wlanFamily(s scenario.StandardKind) int {
	switch s {
	case scenario.Standard80211b, scenario.Standard80211g:
		return 1
	case scenario.Standard80211a:
		return 2
	default:
		return 0
	}
}

func sweepWLAN(sc *scenario.Scenario, reg *phy.Registry, cache *AttenuationCache, conn *scenario.Connection, rnd *qrand.Rand, now time.Duration) error {
	conn.ConcurrentStations = 0
	conn.InterferenceNoiseDBm = phy.MinNoiseDBm
	resetAccounted(sc)

	fam := wlanFamily(conn.Standard)
	rxIface := sc.Iface(conn.ToIface)
	threshold := wlan.LowestRateThresholdDBm(rxIface.Adapter, conn.Standard)

	for i := range sc.Connections {
		other := &sc.Connections[i]
		if other == conn {
			continue
		}
		if wlanFamily(other.Standard) != fam {
			continue
		}
		// wlan_interference skips an interferer whose transmitter is the
		// same node as the affected connection's own receiver.
		if other.FromNode == conn.ToNode {
			continue
		}
		fromIface := sc.Iface(other.FromIface)
		if fromIface.Accounted() {
			continue
		}
		fromIface.SetAccounted(true)

		pr, err := virtualPr(sc, reg, conn, other, rnd)
		if err != nil {
			return err
		}

		chDist := int(gomath.Abs(float64(conn.Channel - other.Channel)))
		pr += cache.wlanAttenuation(other.Standard, other.OperatingRate, chDist)

		if fromIface.NoiseSource {
			if now >= fromIface.NoiseStart && now < fromIface.NoiseEnd {
				conn.InterferenceNoiseDBm = propagation.AddPowers(conn.InterferenceNoiseDBm, pr, phy.MinNoiseDBm)
			}
			continue
		}

		if pr < threshold {
			conn.InterferenceNoiseDBm = propagation.AddPowers(conn.InterferenceNoiseDBm, pr, phy.MinNoiseDBm)
		} else {
			conn.ConcurrentStations++
			if conn.Standard == scenario.Standard80211g && other.Standard == scenario.Standard80211b {
				conn.CompatibilityMode = true
			}
		}
	}
	return nil
}

// wlanChannelAttenuationDB implements compute_channel_interference's
// DSSS/CCK-vs-OFDM inter-channel attenuation table, selected by whether
// the *interfering* connection's current rate uses DSSS/CCK framing.
func wlanChannelAttenuationDB(standard scenario.StandardKind, rateIdx, channelDistance int) float64 {
	cd := float64(channelDistance)
	if standard != scenario.Standard80211a && wlan.IsDSSSRate(standard, rateIdx) {
		switch {
		case channelDistance == 0:
			return 0
		case channelDistance <= 4:
			return 10 * gomath.Log10((22.0-cd*5)/22.0)
		case channelDistance <= 8:
			return 10*gomath.Log10((44.0-cd*5)/44.0) - 30
		default:
			return -50.0
		}
	}
	switch {
	case channelDistance == 0:
		return 0
	case channelDistance <= 3:
		return 10 * gomath.Log10((18.0-cd*5)/18.0)
	case channelDistance <= 7:
		return 10*gomath.Log10((40.0-cd*5)/40.0) - 28
	default:
		return -40.0
	}
}

func sweepZigBee(sc *scenario.Scenario, reg *phy.Registry, cache *AttenuationCache, conn *scenario.Connection, rnd *qrand.Rand) error {
	conn.ConcurrentStations = 0
	conn.InterferenceNoiseDBm = zigbee.MinimumNoisePowerDBm
	resetAccounted(sc)

	threshold := zigbee.Jennic.PrThresholds[0]

	for i := range sc.Connections {
		other := &sc.Connections[i]
		if other == conn || other.Standard != scenario.StandardZigBee {
			continue
		}
		fromIface := sc.Iface(other.FromIface)
		if fromIface.Accounted() {
			continue
		}
		fromIface.SetAccounted(true)

		pr, err := virtualPr(sc, reg, conn, other, rnd)
		if err != nil {
			return err
		}
		chDist := int(gomath.Abs(float64(conn.Channel - other.Channel)))
		pr += cache.zigbeeAttenuation(chDist)

		if pr < threshold {
			conn.InterferenceNoiseDBm = propagation.AddPowers(conn.InterferenceNoiseDBm, pr, zigbee.MinimumNoisePowerDBm)
		} else {
			conn.ConcurrentStations++
		}
	}
	return nil
}

// sweepActiveTag implements active_tag_interference: rather than a Pr
// threshold, every other active-tag connection contributes a fixed
// fraction of its own (1 - FER) to the affected connection's
// InterferenceFER, accumulated additively (not via AddPowers -- there is
// no "noise power" here, only an empirical error-rate fraction).
func sweepActiveTag(sc *scenario.Scenario, reg *phy.Registry, conn *scenario.Connection, rnd *qrand.Rand) error {
	conn.InterferenceFER = 0
	resetAccounted(sc)

	model := reg.For(scenario.StandardActiveTag)

	for i := range sc.Connections {
		other := &sc.Connections[i]
		if other == conn || other.Standard != scenario.StandardActiveTag {
			continue
		}
		fromIface := sc.Iface(other.FromIface)
		if fromIface.Accounted() {
			continue
		}
		fromIface.SetAccounted(true)

		virtual := *other
		virtual.ToNode = conn.ToNode
		virtual.ToIface = conn.ToIface

		ctx := &phy.Ctx{
			Scenario: sc,
			Conn:     &virtual,
			Env:      sc.Env(virtual.ThroughEnv),
			TxIface:  sc.Iface(virtual.FromIface),
			RxIface:  sc.Iface(virtual.ToIface),
			TxNode:   sc.Node(virtual.FromNode),
			RxNode:   sc.Node(virtual.ToNode),
			Rand:     rnd,
		}
		if err := model.UpdateConnection(ctx); err != nil {
			return err
		}
		f, err := model.FER(ctx)
		if err != nil {
			return err
		}
		conn.InterferenceFER += activetag.SNode.InterferenceFraction * (1 - f)
	}
	return nil
}

// virtualPr computes the received power of a one-off "virtual" connection
// from other's transmitter to conn's receiver, following
// compute_channel_interference's (connection_i->from_node,
// connection->to_node) pairing. The virtual connection's receiving
// interface is taken from the *affected* connection (conn.ToIface), not
// recomputed via the interfering connection's own positional interface
// index the way the C source does -- original_source's own comment on
// this ("later use better environment calculation") flags it as a known
// rough edge, and re-using the real receiving interface is the more
// faithful choice once node interfaces are addressed by a flat,
// non-positional id (see DESIGN.md Open Question decisions).
func virtualPr(sc *scenario.Scenario, reg *phy.Registry, conn, other *scenario.Connection, rnd *qrand.Rand) (float64, error) {
	model := reg.For(other.Standard)
	if model == nil {
		return phy.MinNoiseDBm, nil
	}

	virtual := *other
	virtual.ToNode = conn.ToNode
	virtual.ToIface = conn.ToIface

	ctx := &phy.Ctx{
		Scenario: sc,
		Conn:     &virtual,
		Env:      sc.Env(virtual.ThroughEnv),
		TxIface:  sc.Iface(virtual.FromIface),
		RxIface:  sc.Iface(virtual.ToIface),
		TxNode:   sc.Node(virtual.FromNode),
		RxNode:   sc.Node(virtual.ToNode),
		Rand:     rnd,
	}
	if err := model.UpdateConnection(ctx); err != nil {
		return 0, err
	}
	return virtual.PrDBm, nil
}
