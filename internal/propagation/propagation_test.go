package propagation

import (
	"math"
	"testing"

	"pgregory.net/rapid"
)

func TestAddPowersIdempotence(t *testing.T) {
	const minNoise = -200.0
	rapid.Check(t, func(t *rapid.T) {
		x := rapid.Float64Range(-150, 50).Draw(t, "x")
		got := AddPowers(x, minNoise, minNoise)
		if math.Abs(got-x) > 1e-9 {
			t.Fatalf("AddPowers(%v, floor, floor) = %v, want %v", x, got, x)
		}
	})
}

func TestAddPowersCommutative(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.Float64Range(-150, 50).Draw(t, "a")
		b := rapid.Float64Range(-150, 50).Draw(t, "b")
		floor := -200.0
		if math.Abs(AddPowers(a, b, floor)-AddPowers(b, a, floor)) > 1e-9 {
			t.Fatalf("AddPowers not commutative for %v, %v", a, b)
		}
	})
}

func TestAddPowersIncreasesWithSecondSource(t *testing.T) {
	floor := -200.0
	base := AddPowers(-50, floor, floor)
	withSecond := AddPowers(-50, -50, floor)
	if withSecond <= base {
		t.Fatalf("adding a second equal-power source should raise the sum: base=%v with=%v", base, withSecond)
	}
	// Two equal sources should add ~3.01 dB.
	if math.Abs(withSecond-base-3.0103) > 0.01 {
		t.Fatalf("expected +3.01dB for doubling power, got %v", withSecond-base)
	}
}

func TestReceivedPowerMonotonicInDistanceWithZeroSigma(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		d1 := rapid.Float64Range(1, 500).Draw(t, "d1")
		d2 := d1 + rapid.Float64Range(0.01, 500).Draw(t, "delta")

		base := SingleSegmentParams{
			TxPr0DBm: 15, Alpha: 2, RuntimeDistM: d1, SegmentLengthM: -1,
		}
		pr1 := ReceivedPowerSingleSegment(base)
		base.RuntimeDistM = d2
		pr2 := ReceivedPowerSingleSegment(base)

		if pr2 > pr1 {
			t.Fatalf("Pr not monotone non-increasing in distance: d1=%v pr=%v d2=%v pr=%v", d1, pr1, d2, pr2)
		}
	})
}

func TestPr0MatchesWorkedExample(t *testing.T) {
	// Worked example: Pt=15dBm, gain folded separately, 2.4GHz band,
	// 1m distance => Pr ~ 15 - 40.05 + 4 = -21.05 dBm once gains of 2dBi
	// each side and path loss at alpha=2 are applied.
	pr0 := Pr0(15, 2.4e9, 0)
	got := ReceivedPowerSingleSegment(SingleSegmentParams{
		TxPr0DBm: pr0, TxGainDBi: 2, RxGainDBi: 2, Alpha: 2, RuntimeDistM: 1, SegmentLengthM: -1,
	})
	want := -21.05
	if math.Abs(got-want) > 0.5 {
		t.Fatalf("Pr = %v, want ~%v", got, want)
	}
}

func TestThermalNoiseIncreasesWithBandwidth(t *testing.T) {
	n1 := ThermalNoise(20e6)
	n2 := ThermalNoise(40e6)
	if n2 <= n1 {
		t.Fatalf("thermal noise should increase with bandwidth: 20MHz=%v 40MHz=%v", n1, n2)
	}
}

func TestDopplerLossZeroAtZeroVelocity(t *testing.T) {
	loss := DopplerLoss(DopplerLossParams{CarrierHz: 5e9, SubcarrierHz: 312500, RelativeVelMps: 0})
	if loss != 0 {
		t.Fatalf("DopplerLoss at v=0 = %v, want 0", loss)
	}
}

func TestDopplerLossIncreasesWithVelocity(t *testing.T) {
	l1 := DopplerLoss(DopplerLossParams{CarrierHz: 5e9, SubcarrierHz: 312500, RelativeVelMps: 1})
	l2 := DopplerLoss(DopplerLossParams{CarrierHz: 5e9, SubcarrierHz: 312500, RelativeVelMps: 30})
	if l2 <= l1 {
		t.Fatalf("Doppler loss should grow with relative velocity: v=1 -> %v, v=30 -> %v", l1, l2)
	}
}
