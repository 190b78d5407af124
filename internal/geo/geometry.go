// Package geo implements free-function geometry and antenna-pattern
// helpers: distance, and azimuth/elevation directional attenuation.
// Functions operate on plain [3]float64 arrays rather than a Point type
// with methods, preferring small free functions over methods on a
// wrapper type.
package geo

import gomath "math"

// MinDistance mirrors scenario.MinDistance; duplicated here (rather than
// imported) to keep this package dependency-free of scenario, since the
// clamp is a pure geometric concern independent of the data model.
const MinDistance = 0.01

// AntennaMaxAttenuation is the configured large dB value representing "no
// signal" once a bearing falls outside an interface's beamwidth. Matches
// deltaQ/generic.h's ANTENNA_MAX_ATTENUATION.
const AntennaMaxAttenuation = 100.0

// Sub subtracts b from a.
func Sub(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

// Length returns the Euclidean norm of v.
func Length(v [3]float64) float64 {
	return gomath.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// Distance returns the clamped Euclidean distance between a and b.
// Symmetric by construction (Length(Sub(a,b)) == Length(Sub(b,a))).
func Distance(a, b [3]float64) float64 {
	d := Length(Sub(a, b))
	if d < MinDistance {
		return MinDistance
	}
	return d
}

// DistanceUnclamped is Distance without the MIN_DISTANCE floor, used by
// callers that need to detect the clamp themselves (to emit the
// once-per-connection warning calls for).
func DistanceUnclamped(a, b [3]float64) float64 {
	return Length(Sub(a, b))
}

// foldAngle folds a signed angle difference (degrees) into [0, 180].
func foldAngle(deg float64) float64 {
	deg = gomath.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg > 180 {
		deg = 360 - deg
	}
	return deg
}

// bearingXY returns the azimuth (degrees, 0 = +x axis, increasing toward
// +y) from tx to rx in the x-y plane.
func bearingXY(tx, rx [3]float64) float64 {
	dx := rx[0] - tx[0]
	dy := rx[1] - tx[1]
	if dx == 0 && dy == 0 {
		return 0
	}
	return gomath.Atan2(dy, dx) * 180 / gomath.Pi
}

// bearingXZ returns the elevation bearing (degrees) from tx to rx in the
// x-z plane, used analogously to bearingXY for the elevation pattern.
func bearingXZ(tx, rx [3]float64) float64 {
	dx := rx[0] - tx[0]
	dz := rx[2] - tx[2]
	if dx == 0 && dz == 0 {
		return 0
	}
	return gomath.Atan2(dz, dx) * 180 / gomath.Pi
}

// directionalAttenuation implements shared azimuth/elevation
// rule: omni returns 0; outside the half-beamwidth returns
// AntennaMaxAttenuation; otherwise 3 dB at the half-beamwidth edge,
// linear in angle.
func directionalAttenuation(orientationDeg, bearingDeg, beamwidthDeg float64) float64 {
	if beamwidthDeg >= 360 {
		return 0
	}
	delta := foldAngle(orientationDeg - bearingDeg)
	half := beamwidthDeg / 2
	if delta > half {
		return AntennaMaxAttenuation
	}
	return 3 * (2 * delta) / beamwidthDeg
}

// AzimuthAttenuation computes the tx (or rx) antenna's azimuth-pattern
// attenuation toward the other endpoint.
func AzimuthAttenuation(orientationDeg, beamwidthDeg float64, self, other [3]float64) float64 {
	return directionalAttenuation(orientationDeg, bearingXY(self, other), beamwidthDeg)
}

// ElevationAttenuation is the elevation-plane analogue of AzimuthAttenuation.
func ElevationAttenuation(orientationDeg, beamwidthDeg float64, self, other [3]float64) float64 {
	return directionalAttenuation(orientationDeg, bearingXZ(self, other), beamwidthDeg)
}

// DirectionalAttenuation is azimuth + elevation, the total antenna-pattern
// loss an interface applies toward a given peer.
func DirectionalAttenuation(azimuthDeg, elevationDeg, beamwidthDeg float64, self, other [3]float64) float64 {
	return AzimuthAttenuation(azimuthDeg, beamwidthDeg, self, other) +
		ElevationAttenuation(elevationDeg, beamwidthDeg, self, other)
}

// PointInPolygon reports whether p (projected to the x-y plane) lies
// inside the closed polygon described by vertices, via the standard
// even-odd ray-casting test. vertices need not repeat the first point at
// the end; both conventions are handled by wrapping the index. Used by
// internal/motion's behavioral stepper to keep nodes out of building
// footprints.
func PointInPolygon(p [3]float64, vertices [][3]float64) bool {
	if len(vertices) < 3 {
		return false
	}
	inside := false
	n := len(vertices)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := vertices[i][0], vertices[i][1]
		xj, yj := vertices[j][0], vertices[j][1]
		if (yi > p[1]) != (yj > p[1]) {
			xCross := xi + (p[1]-yi)/(yj-yi)*(xj-xi)
			if p[0] < xCross {
				inside = !inside
			}
		}
	}
	return inside
}

// BoundingBox returns the min/max corners of a polygon's vertices in the
// x-y plane, for rejection sampling a random point inside an irregular
// region without needing a full polygon triangulation.
func BoundingBox(vertices [][3]float64) (min, max [3]float64) {
	if len(vertices) == 0 {
		return min, max
	}
	min, max = vertices[0], vertices[0]
	for _, v := range vertices[1:] {
		for k := 0; k < 3; k++ {
			if v[k] < min[k] {
				min[k] = v[k]
			}
			if v[k] > max[k] {
				max[k] = v[k]
			}
		}
	}
	return min, max
}
