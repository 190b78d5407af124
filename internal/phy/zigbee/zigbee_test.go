package zigbee

import (
	"math"
	"testing"
	"time"

	"github.com/qomet-project/qomet/internal/phy"
	"github.com/qomet-project/qomet/internal/qrand"
	"github.com/qomet-project/qomet/internal/scenario"
)

func jennicCtx(t *testing.T, distanceM float64) *phy.Ctx {
	t.Helper()
	tx := &scenario.Node{Name: "tx", Position: scenario.Coordinate{0, 0, 0}, PtDBm: 0}
	rx := &scenario.Node{Name: "rx", Position: scenario.Coordinate{distanceM, 0, 0}}
	iface := &scenario.Interface{
		Name:           "zb0",
		Adapter:        scenario.AdapterJennic,
		AntennaGainDBi: 0,
		BeamwidthDeg:   360,
		Pr0DBm:         map[scenario.Band]float64{},
	}
	env := &scenario.Environment{
		Name:     "free-space",
		Segments: []scenario.Segment{{Alpha: 2, SigmaDB: 0, WallDB: 0, LengthM: -1, NoisePower: MinimumNoisePowerDBm}},
	}
	conn := &scenario.Connection{
		Name:       "c0",
		PacketSize: 50,
		Standard:   scenario.StandardZigBee,
	}
	r := qrand.New()
	r.Seed(1)
	return &phy.Ctx{
		Conn: conn, Env: env, TxIface: iface, RxIface: iface,
		TxNode: tx, RxNode: rx, Rand: &r, Now: 0,
	}
}

// TestScenario4_JennicNoInterference_LossEqualsFER covers
// scenario 4: with no interference and MAC emulation disabled (the
// default), loss_rate reduces to FER exactly since the interference term
// vanishes.
func TestScenario4_JennicNoInterference_LossEqualsFER(t *testing.T) {
	c := jennicCtx(t, 10)
	m := New()
	if err := m.UpdateConnection(c); err != nil {
		t.Fatal(err)
	}
	f, err := m.FER(c)
	if err != nil {
		t.Fatal(err)
	}
	loss, err := m.LossRate(c)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(loss-f) > 1e-9 {
		t.Fatalf("loss_rate = %v, want == FER (%v) with zero interference", loss, f)
	}
}

func TestLossRateWithInterferenceIsProbabilisticOr(t *testing.T) {
	c := jennicCtx(t, 10)
	m := New()
	m.UpdateConnection(c)
	f, _ := m.FER(c)
	c.Conn.InterferenceFER = 0.2
	loss, err := m.LossRate(c)
	if err != nil {
		t.Fatal(err)
	}
	want := f + 0.2 - f*0.2
	if math.Abs(loss-want) > 1e-9 {
		t.Fatalf("loss_rate = %v, want %v", loss, want)
	}
}

func TestLossRateWithMACEmulationUsesRetransmissionPower(t *testing.T) {
	c := jennicCtx(t, 10)
	c.Conn.EnableMACEmulation = true
	m := New()
	m.UpdateConnection(c)
	f, _ := m.FER(c)
	loss, err := m.LossRate(c)
	if err != nil {
		t.Fatal(err)
	}
	want := math.Pow(f, ZigBeeMaxTransmissions)
	if math.Abs(loss-want) > 1e-9 {
		t.Fatalf("loss_rate (MAC emulation) = %v, want FER^%d = %v", loss, ZigBeeMaxTransmissions, want)
	}
}

func TestOperatingRateIsAlwaysZero(t *testing.T) {
	c := jennicCtx(t, 10)
	m := New()
	c.Conn.OperatingRate = 7 // garbage value, should be forced to 0
	if err := m.OperatingRate(c); err != nil {
		t.Fatal(err)
	}
	if c.Conn.OperatingRate != 0 || c.Conn.NewOperatingRate != 0 {
		t.Fatalf("operating rate = %d/%d, want 0/0 (ZigBee has a single fixed rate)", c.Conn.OperatingRate, c.Conn.NewOperatingRate)
	}
}

func TestDelayJitterDefaultIgnoresRetransmissionWeighting(t *testing.T) {
	c := jennicCtx(t, 10)
	m := New()
	m.UpdateConnection(c)
	m.FER(c)
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

func TestDelayJitterMACEmulationDiffersFromDefault(t *testing.T) {
	c1 := jennicCtx(t, 800)
	m := New()
	m.UpdateConnection(c1)
	m.FER(c1)
	d1, _, err := m.DelayJitter(c1)
	if err != nil {
		t.Fatal(err)
	}

	c2 := jennicCtx(t, 800)
	c2.Conn.EnableMACEmulation = true
	m.UpdateConnection(c2)
	m.FER(c2)
	d2, _, err := m.DelayJitter(c2)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(d1-d2) < 1e-9 {
		t.Fatalf("expected MAC-emulation delay (%v) to differ from default (%v) at non-trivial FER", d2, d1)
	}
}

func TestBandwidthDerivedFromDelay(t *testing.T) {
	c := jennicCtx(t, 10)
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

func TestInternalDelaysAddToEndpointDelay(t *testing.T) {
	c := jennicCtx(t, 10)
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

func TestChannelAttenuationTable(t *testing.T) {
	cases := []struct {
		dist int
		want float64
	}{
		{0, 0},
		{1, 10 * math.Log10(17.0/22.0)},
		{9, -50.0},
	}
	for _, tc := range cases {
		got := ChannelAttenuationDB(tc.dist)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("ChannelAttenuationDB(%d) = %v, want %v", tc.dist, got, tc.want)
		}
	}
}
