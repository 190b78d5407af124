package geo

import (
	"math"
	"testing"

	"pgregory.net/rapid"
)

func TestDistanceSymmetricAndClamped(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := [3]float64{
			rapid.Float64Range(-1000, 1000).Draw(t, "ax"),
			rapid.Float64Range(-1000, 1000).Draw(t, "ay"),
			rapid.Float64Range(-1000, 1000).Draw(t, "az"),
		}
		b := [3]float64{
			rapid.Float64Range(-1000, 1000).Draw(t, "bx"),
			rapid.Float64Range(-1000, 1000).Draw(t, "by"),
			rapid.Float64Range(-1000, 1000).Draw(t, "bz"),
		}
		d1 := Distance(a, b)
		d2 := Distance(b, a)
		if d1 != d2 {
			t.Fatalf("distance not symmetric: %v vs %v", d1, d2)
		}
		if d1 < MinDistance {
			t.Fatalf("distance %v below MinDistance %v", d1, MinDistance)
		}
	})
}

func TestDistanceClampsAtZero(t *testing.T) {
	p := [3]float64{5, 5, 5}
	if d := Distance(p, p); d != MinDistance {
		t.Fatalf("Distance(p,p) = %v, want %v", d, MinDistance)
	}
}

func TestOmniAntennaHasNoAttenuation(t *testing.T) {
	self := [3]float64{0, 0, 0}
	other := [3]float64{10, 10, 0}
	if a := AzimuthAttenuation(0, 360, self, other); a != 0 {
		t.Fatalf("omni azimuth attenuation = %v, want 0", a)
	}
}

func TestDirectionalAttenuationAtBoresight(t *testing.T) {
	self := [3]float64{0, 0, 0}
	other := [3]float64{10, 0, 0} // bearing 0deg
	if a := AzimuthAttenuation(0, 60, self, other); math.Abs(a) > 1e-9 {
		t.Fatalf("boresight attenuation = %v, want ~0", a)
	}
}

func TestDirectionalAttenuationAtHalfBeamwidthIs3dB(t *testing.T) {
	self := [3]float64{0, 0, 0}
	beamwidth := 60.0
	// bearing = half-beamwidth away from boresight (boresight along +x, 0deg)
	rad := (beamwidth / 2) * math.Pi / 180
	other := [3]float64{math.Cos(rad), math.Sin(rad), 0}
	a := AzimuthAttenuation(0, beamwidth, self, other)
	if math.Abs(a-3) > 1e-6 {
		t.Fatalf("half-beamwidth attenuation = %v, want 3", a)
	}
}

func TestDirectionalAttenuationPastBeamwidthIsMax(t *testing.T) {
	self := [3]float64{0, 0, 0}
	other := [3]float64{-10, 0, 0} // 180 degrees away
	a := AzimuthAttenuation(0, 60, self, other)
	if a != AntennaMaxAttenuation {
		t.Fatalf("past-beamwidth attenuation = %v, want %v", a, AntennaMaxAttenuation)
	}
}

func square(minX, minY, maxX, maxY float64) [][3]float64 {
	return [][3]float64{
		{minX, minY, 0}, {maxX, minY, 0}, {maxX, maxY, 0}, {minX, maxY, 0},
	}
}

func TestPointInPolygonInsideAndOutside(t *testing.T) {
	poly := square(0, 0, 10, 10)
	if !PointInPolygon([3]float64{5, 5, 0}, poly) {
		t.Fatal("center of square should be inside")
	}
	if PointInPolygon([3]float64{50, 50, 0}, poly) {
		t.Fatal("far point should be outside")
	}
}

func TestPointInPolygonDegenerate(t *testing.T) {
	if PointInPolygon([3]float64{0, 0, 0}, [][3]float64{{0, 0, 0}, {1, 1, 0}}) {
		t.Fatal("fewer than 3 vertices can never contain a point")
	}
}

func TestBoundingBox(t *testing.T) {
	min, max := BoundingBox(square(-2, -3, 4, 5))
	if min != ([3]float64{-2, -3, 0}) || max != ([3]float64{4, 5, 0}) {
		t.Fatalf("bounding box = %v/%v, want {-2,-3,0}/{4,5,0}", min, max)
	}
}
