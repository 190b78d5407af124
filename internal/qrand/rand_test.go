package qrand

import "testing"

func TestSeedIsReproducible(t *testing.T) {
	a := New()
	a.Seed(12345)
	b := New()
	b.Seed(12345)

	for i := 0; i < 64; i++ {
		av, bv := a.Float64(), b.Float64()
		if av != bv {
			t.Fatalf("draw %d diverged: %v != %v", i, av, bv)
		}
	}
}

func TestDifferentSeedsDiverge(t *testing.T) {
	a := New()
	a.Seed(1)
	b := New()
	b.Seed(2)

	same := true
	for i := 0; i < 16; i++ {
		if a.Float64() != b.Float64() {
			same = false
			break
		}
	}
	if same {
		t.Fatal("expected different seeds to diverge within 16 draws")
	}
}

func TestGaussianZeroStddevIsMean(t *testing.T) {
	r := New()
	r.Seed(7)
	if got := r.Gaussian(3.5, 0); got != 3.5 {
		t.Fatalf("Gaussian(3.5, 0) = %v, want 3.5", got)
	}
}

func TestIntnBounds(t *testing.T) {
	r := New()
	r.Seed(42)
	for i := 0; i < 1000; i++ {
		v := r.Intn(5)
		if v < 0 || v >= 5 {
			t.Fatalf("Intn(5) out of range: %d", v)
		}
	}
}
