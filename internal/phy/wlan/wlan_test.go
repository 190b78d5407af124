package wlan

import (
	"math"
	"testing"
	"time"

	"github.com/qomet-project/qomet/internal/phy"
	"github.com/qomet-project/qomet/internal/qrand"
	"github.com/qomet-project/qomet/internal/scenario"
)

func orinocoCtx(t *testing.T, distanceM float64) *phy.Ctx {
	t.Helper()
	tx := &scenario.Node{Name: "tx", Position: scenario.Coordinate{0, 0, 0}, PtDBm: 15}
	rx := &scenario.Node{Name: "rx", Position: scenario.Coordinate{distanceM, 0, 0}}
	iface := &scenario.Interface{
		Name:         "wlan0",
		Adapter:      scenario.AdapterORiNOCO,
		AntennaGainDBi: 2,
		BeamwidthDeg: 360,
		Pr0DBm:       map[scenario.Band]float64{},
	}
	env := &scenario.Environment{
		Name:     "free-space",
		Segments: []scenario.Segment{{Alpha: 2, SigmaDB: 0, WallDB: 0, LengthM: -1}},
	}
	conn := &scenario.Connection{
		Name:       "c0",
		PacketSize: 1000,
		Standard:   scenario.Standard80211b,
	}
	r := qrand.New()
	r.Seed(1)
	return &phy.Ctx{
		Conn: conn, Env: env, TxIface: iface, RxIface: iface,
		TxNode: tx, RxNode: rx, Rand: &r, Now: 0,
	}
}

func TestScenario1_OneMeter_NearZeroFER(t *testing.T) {
	c := orinocoCtx(t, 1)
	m := New()
	if err := m.UpdateConnection(c); err != nil {
		t.Fatal(err)
	}
	if math.Abs(c.Conn.PrDBm-(-21.05)) > 0.5 {
		t.Fatalf("Pr = %v, want ~-21.05", c.Conn.PrDBm)
	}
	f, err := m.FER(c)
	if err != nil {
		t.Fatal(err)
	}
	if f > 0.01 {
		t.Fatalf("FER at 1m = %v, want near 0", f)
	}
	loss, err := m.LossRate(c)
	if err != nil {
		t.Fatal(err)
	}
	if loss > 0.01 {
		t.Fatalf("loss_rate at 1m = %v, want near 0", loss)
	}
}

func TestScenario2_HundredMeters_ARFSettlesLowestRate(t *testing.T) {
	c := orinocoCtx(t, 100)
	c.Conn.AdaptiveRate = true
	c.Conn.OperatingRate = len(BRates) - 1 // start high, ARF should step down
	m := New()
	if err := m.UpdateConnection(c); err != nil {
		t.Fatal(err)
	}
	if math.Abs(c.Conn.PrDBm-(-61.05)) > 0.5 {
		t.Fatalf("Pr = %v, want ~-61.05", c.Conn.PrDBm)
	}

	// Run ARF to convergence.
	for i := 0; i < len(BRates)+1; i++ {
		if err := m.OperatingRate(c); err != nil {
			t.Fatal(err)
		}
	}
	if c.Conn.OperatingRate != 0 {
		t.Fatalf("operating rate after ARF = %v, want 0 (lowest)", c.Conn.OperatingRate)
	}

	f, err := m.FER(c)
	if err != nil {
		t.Fatal(err)
	}
	if f <= 0 || f >= phy.MaxFER {
		t.Fatalf("FER at 100m, lowest rate = %v, want in (0, MAX_FER)", f)
	}
}

func TestDelayJitterNonNegative(t *testing.T) {
	c := orinocoCtx(t, 10)
	m := New()
	if err := m.UpdateConnection(c); err != nil {
		t.Fatal(err)
	}
	if _, err := m.FER(c); err != nil {
		t.Fatal(err)
	}
	delay, jitter, err := m.DelayJitter(c)
	if err != nil {
		t.Fatal(err)
	}
	if delay <= 0 {
		t.Fatalf("delay = %v, want > 0", delay)
	}
	if jitter < 0 {
		t.Fatalf("jitter = %v, want >= 0", jitter)
	}
}

func TestBandwidthDerivedFromDelay(t *testing.T) {
	c := orinocoCtx(t, 10)
	m := New()
	m.UpdateConnection(c)
	m.FER(c)
	m.DelayJitter(c)
	bw, err := m.Bandwidth(c)
	if err != nil {
		t.Fatal(err)
	}
	if bw <= 0 {
		t.Fatalf("bandwidth = %v, want > 0", bw)
	}
}

func TestDelayJitterAddsRTSCTSOverheadAboveThreshold(t *testing.T) {
	below := orinocoCtx(t, 10)
	below.Conn.RTSCTSThresholdBytes = 2000 // packet_size (1000) <= threshold: no RTS/CTS
	m := New()
	if err := m.UpdateConnection(below); err != nil {
		t.Fatal(err)
	}
	if _, err := m.FER(below); err != nil {
		t.Fatal(err)
	}
	delayBelow, _, err := m.DelayJitter(below)
	if err != nil {
		t.Fatal(err)
	}

	above := orinocoCtx(t, 10)
	above.Conn.RTSCTSThresholdBytes = 500 // packet_size (1000) > threshold: RTS/CTS kicks in
	if err := m.UpdateConnection(above); err != nil {
		t.Fatal(err)
	}
	if _, err := m.FER(above); err != nil {
		t.Fatal(err)
	}
	delayAbove, _, err := m.DelayJitter(above)
	if err != nil {
		t.Fatal(err)
	}

	if delayAbove <= delayBelow {
		t.Fatalf("delay with RTS/CTS threshold exceeded = %v, want > delay without = %v", delayAbove, delayBelow)
	}

	// Crossing the threshold also shrinks the retransmission budget from
	// MaxTransmissions to MaxTransmissionsRTSCTS.
	if got := maxTransmissionsFor(above.Conn); got != MaxTransmissionsRTSCTS {
		t.Fatalf("maxTransmissionsFor(above threshold) = %v, want %v", got, MaxTransmissionsRTSCTS)
	}
}

func TestDelayJitterAddsCTSToSelfInCompatibilityMode(t *testing.T) {
	plain := orinocoCtx(t, 10)
	plain.Conn.Standard = scenario.Standard80211g
	m := New()
	if err := m.UpdateConnection(plain); err != nil {
		t.Fatal(err)
	}
	if _, err := m.FER(plain); err != nil {
		t.Fatal(err)
	}
	delayPlain, _, err := m.DelayJitter(plain)
	if err != nil {
		t.Fatal(err)
	}

	compat := orinocoCtx(t, 10)
	compat.Conn.Standard = scenario.Standard80211g
	compat.Conn.CompatibilityMode = true
	if err := m.UpdateConnection(compat); err != nil {
		t.Fatal(err)
	}
	if _, err := m.FER(compat); err != nil {
		t.Fatal(err)
	}
	delayCompat, _, err := m.DelayJitter(compat)
	if err != nil {
		t.Fatal(err)
	}

	if delayCompat <= delayPlain {
		t.Fatalf("delay in 802.11g compatibility mode = %v, want > non-compatibility delay = %v", delayCompat, delayPlain)
	}
}

func TestInternalDelaysAddToEndpointDelay(t *testing.T) {
	c := orinocoCtx(t, 10)
	c.TxNode.InternalDelay = 5 * time.Millisecond
	c.RxNode.InternalDelay = 5 * time.Millisecond
	m := New()
	m.UpdateConnection(c)
	m.FER(c)
	delay, _, err := m.DelayJitter(c)
	if err != nil {
		t.Fatal(err)
	}
	if delay < 10 {
		t.Fatalf("delay = %v, want >= 10ms from internal delays alone", delay)
	}
}
