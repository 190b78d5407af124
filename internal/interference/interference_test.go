package interference

import (
	"testing"
	"time"

	"github.com/qomet-project/qomet/internal/phy"
	"github.com/qomet-project/qomet/internal/phy/wlan"
	"github.com/qomet-project/qomet/internal/phy/zigbee"
	"github.com/qomet-project/qomet/internal/qrand"
	"github.com/qomet-project/qomet/internal/scenario"
)

func newRand(t *testing.T) *qrand.Rand {
	t.Helper()
	r := qrand.New()
	r.Seed(7)
	return &r
}

func baseEnv() scenario.Environment {
	return scenario.Environment{Name: "env", Segments: []scenario.Segment{{Alpha: 2, SigmaDB: 0}}}
}

// twoWLANStations builds a scenario with two 802.11b connections close
// enough to interfere with each other on the same channel.
func twoWLANStations(t *testing.T) (*scenario.Scenario, *phy.Registry) {
	t.Helper()
	sc := &scenario.Scenario{
		Nodes: []scenario.Node{
			{Name: "a", ID: 0, Position: scenario.Coordinate{0, 0, 0}, PtDBm: 15},
			{Name: "b", ID: 1, Position: scenario.Coordinate{5, 0, 0}, PtDBm: 15},
			{Name: "c", ID: 2, Position: scenario.Coordinate{5000, 0, 0}, PtDBm: 15},
		},
		Interfaces: []scenario.Interface{
			{Name: "a0", ID: 0, NodeID: 0, BeamwidthDeg: 360, Pr0DBm: map[scenario.Band]float64{}},
			{Name: "b0", ID: 1, NodeID: 1, BeamwidthDeg: 360, Pr0DBm: map[scenario.Band]float64{}},
			{Name: "c0", ID: 2, NodeID: 2, BeamwidthDeg: 360, Pr0DBm: map[scenario.Band]float64{}},
		},
		Environments: []scenario.Environment{baseEnv()},
		Connections: []scenario.Connection{
			{
				Name: "conn0", ID: 0, FromNode: 1, FromIface: 1, ToNode: 2, ToIface: 2,
				ThroughEnv: 0, Standard: scenario.Standard80211b, Channel: 1,
				PacketSize: 512, ConsiderInterference: true,
			},
			{
				Name: "conn1", ID: 1, FromNode: 0, FromIface: 0, ToNode: 1, ToIface: 1,
				ThroughEnv: 0, Standard: scenario.Standard80211b, Channel: 1,
				PacketSize: 512, ConsiderInterference: true,
			},
		},
	}
	reg := phy.NewRegistry()
	reg.Register(wlan.New(), scenario.Standard80211a, scenario.Standard80211b, scenario.Standard80211g)
	return sc, reg
}

// TestWLANSweepFlagsConcurrentStationOrNoise exercises conn0, whose only
// candidate interferer (conn1, transmitting a->b) is far enough from
// conn0's receiver (node c, 5km out) that its virtual Pr should fall
// below the adapter's lowest-rate threshold and register as noise rather
// than a concurrent CSMA/CA station.
func TestWLANSweepFlagsConcurrentStationOrNoise(t *testing.T) {
	sc, reg := twoWLANStations(t)
	rnd := newRand(t)
	if err := Sweep(sc, reg, nil, rnd, 0); err != nil {
		t.Fatal(err)
	}
	conn0 := &sc.Connections[0]
	if conn0.InterferenceNoiseDBm <= phy.MinNoiseDBm {
		t.Fatalf("expected conn0 to register a noise contribution from the distant interferer, got %v", conn0.InterferenceNoiseDBm)
	}
	if conn0.ConcurrentStations != 0 {
		t.Fatalf("a weak, far-away interferer should count as noise, not a concurrent station; got %d", conn0.ConcurrentStations)
	}
}

// TestWLANSweepSkipsOwnReceiverAsTransmitter covers connection_i->from_node
// == connection->to_node: conn1's only candidate interferer is conn0,
// whose transmitter (node b) is exactly conn1's own receiver, so it must
// be excluded and conn1 should show zero interference effect at all.
func TestWLANSweepSkipsOwnReceiverAsTransmitter(t *testing.T) {
	sc, reg := twoWLANStations(t)
	rnd := newRand(t)
	if err := Sweep(sc, reg, nil, rnd, 0); err != nil {
		t.Fatal(err)
	}
	conn1 := &sc.Connections[1]
	if conn1.ConcurrentStations != 0 || conn1.InterferenceNoiseDBm != phy.MinNoiseDBm {
		t.Fatalf("conn1's only candidate interferer transmits from its own receiver and must be skipped; got concurrent=%d noise=%v",
			conn1.ConcurrentStations, conn1.InterferenceNoiseDBm)
	}
}

func TestWLANSweepDisabledResetsFields(t *testing.T) {
	sc, reg := twoWLANStations(t)
	sc.Connections[1].ConsiderInterference = false
	sc.Connections[1].ConcurrentStations = 3
	sc.Connections[1].InterferenceNoiseDBm = -10
	rnd := newRand(t)
	if err := Sweep(sc, reg, nil, rnd, 0); err != nil {
		t.Fatal(err)
	}
	conn1 := &sc.Connections[1]
	if conn1.ConcurrentStations != 0 {
		t.Fatalf("concurrent stations = %d, want reset to 0", conn1.ConcurrentStations)
	}
	if conn1.InterferenceNoiseDBm != phy.MinNoiseDBm {
		t.Fatalf("interference noise = %v, want reset to floor %v", conn1.InterferenceNoiseDBm, phy.MinNoiseDBm)
	}
}

func TestZigBeeChannelDistanceAttenuationMatchesTable(t *testing.T) {
	cache := NewAttenuationCache()
	if v := cache.zigbeeAttenuation(0); v != 0 {
		t.Fatalf("same-channel attenuation = %v, want 0", v)
	}
	direct := zigbee.ChannelAttenuationDB(9)
	cached := cache.zigbeeAttenuation(9)
	if direct != cached {
		t.Fatalf("cache mismatch: direct=%v cached=%v", direct, cached)
	}
}

func TestWLANChannelAttenuationDSSSVsOFDM(t *testing.T) {
	// b-rate interferer (DSSS/CCK) uses the 22/44 table.
	dsss := wlanChannelAttenuationDB(scenario.Standard80211b, 0, 9)
	if dsss != -50.0 {
		t.Fatalf("DSSS far-channel attenuation = %v, want -50", dsss)
	}
	// a-rate interferer (OFDM) uses the 18/40 table and floors at -40.
	ofdm := wlanChannelAttenuationDB(scenario.Standard80211a, 0, 8)
	if ofdm != -40.0 {
		t.Fatalf("OFDM far-channel attenuation = %v, want -40", ofdm)
	}
}

func TestGraphPartitionGroupsByReceiver(t *testing.T) {
	sc, _ := twoWLANStations(t)
	g := NewGraph(sc)
	groups := g.Partition()
	total := 0
	for _, grp := range groups {
		total += len(grp)
	}
	if total != len(sc.Connections) {
		t.Fatalf("partition dropped connections: got %d total across groups, want %d", total, len(sc.Connections))
	}
	seen := map[scenario.NodeID]int{}
	for _, grp := range groups {
		for _, id := range grp {
			seen[sc.Conn(id).ToNode]++
		}
	}
	for node, count := range seen {
		if count > 1 {
			// fine: that's the point, all connections to the same
			// receiver land in one group -- verify that directly.
			_ = node
		}
	}
	// conn0 and conn1 have different receivers (node 2 and node 1), so
	// they must land in different groups.
	groupOf := func(id scenario.ConnID) int {
		for gi, grp := range groups {
			for _, cid := range grp {
				if cid == id {
					return gi
				}
			}
		}
		return -1
	}
	if groupOf(0) == groupOf(1) {
		t.Fatalf("conn0 and conn1 have different receivers and should be in different groups")
	}
}

func TestSweepNoiseSourceOnlyActiveInItsWindow(t *testing.T) {
	sc, reg := twoWLANStations(t)
	sc.Interfaces[0].NoiseSource = true
	sc.Interfaces[0].NoiseStart = 0
	sc.Interfaces[0].NoiseEnd = 1 * time.Second

	rnd := newRand(t)
	if err := Sweep(sc, reg, nil, rnd, 0); err != nil {
		t.Fatal(err)
	}
	conn0 := &sc.Connections[0]
	if conn0.InterferenceNoiseDBm <= phy.MinNoiseDBm {
		t.Fatalf("expected node a's noise source to contribute within its window, got %v", conn0.InterferenceNoiseDBm)
	}
	if conn0.ConcurrentStations != 0 {
		t.Fatalf("a noise-source interferer must never increment concurrent stations, got %d", conn0.ConcurrentStations)
	}

	sc2, reg2 := twoWLANStations(t)
	sc2.Interfaces[0].NoiseSource = true
	sc2.Interfaces[0].NoiseStart = 0
	sc2.Interfaces[0].NoiseEnd = 1 * time.Second
	rnd2 := newRand(t)
	if err := Sweep(sc2, reg2, nil, rnd2, 10*time.Second); err != nil {
		t.Fatal(err)
	}
	conn0b := &sc2.Connections[0]
	if conn0b.InterferenceNoiseDBm != phy.MinNoiseDBm {
		t.Fatalf("expected no contribution outside the noise source's window, got %v", conn0b.InterferenceNoiseDBm)
	}
}
