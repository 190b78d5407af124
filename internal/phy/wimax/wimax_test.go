package wimax

import "testing"

func TestCapacity10MHzQPSKHalfSISO(t *testing.T) {
	c, err := NewCapacity(SysBW10, QPSK12, MIMOSISO, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if c.FFTSize != 1024 {
		t.Fatalf("FFTSize = %d, want 1024", c.FFTSize)
	}
	if c.DLSymbols != 35 || c.ULSymbols != 21 {
		t.Fatalf("DLSymbols/ULSymbols = %d/%d, want 35/21", c.DLSymbols, c.ULSymbols)
	}
	if c.DLSlots <= 0 || c.ULSlots <= 0 {
		t.Fatalf("slots must be positive: dl=%d ul=%d", c.DLSlots, c.ULSlots)
	}
	if c.DLDataRateBps <= 0 || c.ULDataRateBps <= 0 {
		t.Fatalf("data rates must be positive: dl=%v ul=%v", c.DLDataRateBps, c.ULDataRateBps)
	}
}

func TestCapacityDeterministicAcrossRuns(t *testing.T) {
	c1, err := NewCapacity(SysBW10, QPSK12, MIMOSISO, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	c2, err := NewCapacity(SysBW10, QPSK12, MIMOSISO, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if c1.DLDataRateBps != c2.DLDataRateBps || c1.DLSlots != c2.DLSlots {
		t.Fatalf("capacity derivation not reproducible: %+v vs %+v", c1, c2)
	}
}

func TestMatrixBDoublesDLRateByMinNtNr(t *testing.T) {
	siso, err := NewCapacity(SysBW10, QAM64_34, MIMOSISO, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	matrixB, err := NewCapacity(SysBW10, QAM64_34, MIMOMatrixB, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if matrixB.DLDataRateBps != siso.DLDataRateBps*2 {
		t.Fatalf("matrix B DL rate = %v, want %v (2x SISO)", matrixB.DLDataRateBps, siso.DLDataRateBps*2)
	}
}

func TestUnsupportedBandwidthErrors(t *testing.T) {
	if _, err := NewCapacity(4.0, QPSK12, MIMOSISO, 1, 1); err == nil {
		t.Fatal("expected error for unsupported system bandwidth")
	}
}

func TestMinThresholdIncreasesWithMCS(t *testing.T) {
	low, err := NewCapacity(SysBW10, QPSK18, MIMOSISO, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	thLow, err := MinThreshold(low)
	if err != nil {
		t.Fatal(err)
	}
	high, err := NewCapacity(SysBW10, QAM64_56, MIMOSISO, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	thHigh, err := MinThreshold(high)
	if err != nil {
		t.Fatal(err)
	}
	if thHigh <= thLow {
		t.Fatalf("higher MCS should require a higher threshold: QPSK1/8=%v QAM64-5/6=%v", thLow, thHigh)
	}
}

func TestNewNs3AdapterThresholdsMonotonic(t *testing.T) {
	a, err := newNs3Adapter()
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < RatesNumber; i++ {
		if a.PrThresholds[i] <= a.PrThresholds[i-1] {
			t.Fatalf("threshold table not increasing at index %d: %v <= %v", i, a.PrThresholds[i], a.PrThresholds[i-1])
		}
	}
}
