package activetag

import (
	"math"
	"testing"
	"time"

	"github.com/qomet-project/qomet/internal/phy"
	"github.com/qomet-project/qomet/internal/qrand"
	"github.com/qomet-project/qomet/internal/scenario"
)

func sNodeCtx(t *testing.T, distanceM, wallDB float64, packetSize int) *phy.Ctx {
	t.Helper()
	tx := &scenario.Node{Name: "tag", Position: scenario.Coordinate{0, 0, 0}, PtDBm: 0}
	rx := &scenario.Node{Name: "reader", Position: scenario.Coordinate{distanceM, 0, 0}}
	iface := &scenario.Interface{
		Name:           "tag0",
		AntennaGainDBi: 0,
		BeamwidthDeg:   360,
		Pr0DBm:         map[scenario.Band]float64{},
	}
	env := &scenario.Environment{
		Name:     "env",
		Segments: []scenario.Segment{{Alpha: 2, SigmaDB: 0, WallDB: wallDB, LengthM: -1}},
	}
	conn := &scenario.Connection{
		Name:       "c0",
		PacketSize: packetSize,
		Standard:   scenario.StandardActiveTag,
	}
	r := qrand.New()
	r.Seed(1)
	return &phy.Ctx{
		Conn: conn, Env: env, TxIface: iface, RxIface: iface,
		TxNode: tx, RxNode: rx, Rand: &r, Now: 0,
	}
}

// TestScenario3_LOSWallBlocksGivesFERone covers scenario 3: a
// non-zero wall attenuation on the through-environment forces FER to 1
// outright, regardless of distance.
func TestScenario3_LOSWallBlocksGivesFERone(t *testing.T) {
	c := sNodeCtx(t, 3, 10, 4)
	m := New()
	m.UpdateConnection(c)
	f, err := m.FER(c)
	if err != nil {
		t.Fatal(err)
	}
	if f != 1.0 {
		t.Fatalf("FER with wall attenuation = %v, want 1.0", f)
	}
}

func TestFERAtReferenceDistanceNearHalf(t *testing.T) {
	// DISTANCE_SCALING=0.15 puts 20m at x1=3, where the power-2 curve
	// gives FER~0.5.
	c := sNodeCtx(t, 20, 0, 4)
	m := New()
	m.UpdateConnection(c)
	f, err := m.FER(c)
	if err != nil {
		t.Fatal(err)
	}
	if f < 0.4 || f > 0.8 {
		t.Fatalf("FER at 20m (reference packet size) = %v, want near 0.5", f)
	}
}

func TestFERClampedToUnitInterval(t *testing.T) {
	c := sNodeCtx(t, 10000, 0, 4)
	m := New()
	m.UpdateConnection(c)
	f, err := m.FER(c)
	if err != nil {
		t.Fatal(err)
	}
	if f < 0 || f > 1 {
		t.Fatalf("FER = %v, want in [0,1]", f)
	}
}

func TestFERNearZeroAtSubMeterDistance(t *testing.T) {
	c := sNodeCtx(t, 0.1, 0, 4)
	m := New()
	m.UpdateConnection(c)
	f, err := m.FER(c)
	if err != nil {
		t.Fatal(err)
	}
	if f != 0 {
		t.Fatalf("FER at 0.1m = %v, want 0 (x1 < 0.5 branch)", f)
	}
}

func TestLossRateCombinesFERAndInterferenceProbabilistically(t *testing.T) {
	c := sNodeCtx(t, 20, 0, 4)
	m := New()
	m.UpdateConnection(c)
	f, _ := m.FER(c)
	c.Conn.InterferenceFER = 1.0 / 81.0
	loss, err := m.LossRate(c)
	if err != nil {
		t.Fatal(err)
	}
	want := f + c.Conn.InterferenceFER - f*c.Conn.InterferenceFER
	if math.Abs(loss-want) > 1e-9 {
		t.Fatalf("loss_rate = %v, want %v", loss, want)
	}
}

func TestDelayJitterHasNoVariableComponent(t *testing.T) {
	c := sNodeCtx(t, 5, 0, 4)
	c.TxNode.InternalDelay = 2 * time.Millisecond
	c.RxNode.InternalDelay = 1 * time.Millisecond
	m := New()
	delay, jitter, err := m.DelayJitter(c)
	if err != nil {
		t.Fatal(err)
	}
	if jitter != 0 {
		t.Fatalf("jitter = %v, want 0 (no variable component)", jitter)
	}
	if math.Abs(delay-3) > 1e-9 {
		t.Fatalf("delay = %v, want 3 (sum of internal delays only)", delay)
	}
}

func TestBandwidthIsFixedOperatingRate(t *testing.T) {
	c := sNodeCtx(t, 5, 0, 4)
	m := New()
	bw, err := m.Bandwidth(c)
	if err != nil {
		t.Fatal(err)
	}
	if bw != SNode.OperatingRateBps {
		t.Fatalf("bandwidth = %v, want fixed rate %v", bw, SNode.OperatingRateBps)
	}
}
