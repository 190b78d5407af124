package ethernet

import (
	"testing"
	"time"

	"github.com/qomet-project/qomet/internal/phy"
	"github.com/qomet-project/qomet/internal/scenario"
)

func ethCtx(t *testing.T, standard scenario.StandardKind) *phy.Ctx {
	t.Helper()
	tx := &scenario.Node{Name: "a", Position: scenario.Coordinate{0, 0, 0}}
	rx := &scenario.Node{Name: "b", Position: scenario.Coordinate{1, 0, 0}}
	conn := &scenario.Connection{Name: "c0", PacketSize: 1500, Standard: standard}
	return &phy.Ctx{Conn: conn, TxNode: tx, RxNode: rx}
}

func TestFERAndLossAlwaysZero(t *testing.T) {
	c := ethCtx(t, scenario.StandardEthernet1000)
	m := New()
	f, err := m.FER(c)
	if err != nil || f != 0 {
		t.Fatalf("FER = %v, err = %v, want 0, nil", f, err)
	}
	loss, err := m.LossRate(c)
	if err != nil || loss != 0 {
		t.Fatalf("loss_rate = %v, err = %v, want 0, nil", loss, err)
	}
}

func TestDelayEqualsInternalDelaysOnly(t *testing.T) {
	c := ethCtx(t, scenario.StandardEthernet100)
	c.TxNode.InternalDelay = 1 * time.Millisecond
	c.RxNode.InternalDelay = 2 * time.Millisecond
	m := New()
	delay, jitter, err := m.DelayJitter(c)
	if err != nil {
		t.Fatal(err)
	}
	if delay != 3 {
		t.Fatalf("delay = %v, want 3", delay)
	}
	if jitter != 0 {
		t.Fatalf("jitter = %v, want 0", jitter)
	}
}

func TestBandwidthMatchesStandardRate(t *testing.T) {
	for standard, want := range OperatingRates {
		c := ethCtx(t, standard)
		m := New()
		bw, err := m.Bandwidth(c)
		if err != nil {
			t.Fatal(err)
		}
		if bw != want {
			t.Fatalf("standard %v: bandwidth = %v, want %v", standard, bw, want)
		}
	}
}

func TestOperatingRatePassesThrough(t *testing.T) {
	c := ethCtx(t, scenario.StandardEthernet10)
	c.Conn.OperatingRate = 2
	m := New()
	if err := m.OperatingRate(c); err != nil {
		t.Fatal(err)
	}
	if c.Conn.NewOperatingRate != 2 {
		t.Fatalf("new operating rate = %v, want unchanged 2", c.Conn.NewOperatingRate)
	}
}
