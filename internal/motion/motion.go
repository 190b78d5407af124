// Package motion implements per-node position updates: one Stepper per
// scenario.MotionType (Linear, Behavioral, Trace), selected through a
// Registry keyed by the motion's type -- the same tagged-variant
// dispatch internal/phy uses for PHY/MAC models, rather than a type
// switch buried in the engine loop.
package motion

import (
	"time"

	"github.com/qomet-project/qomet/internal/geo"
	"github.com/qomet-project/qomet/internal/qometerr"
	"github.com/qomet-project/qomet/internal/qrand"
	"github.com/qomet-project/qomet/internal/scenario"
)

// Ctx bundles what a Stepper needs to advance one motion by one sub-step.
type Ctx struct {
	Scenario *scenario.Scenario
	Motion   *scenario.Motion
	Node     *scenario.Node
	Rand     *qrand.Rand
	Now      time.Duration // time at the start of this sub-step
	Step     time.Duration // sub-step duration (tick / motion_step_divider)
}

// Stepper advances one node's position (and Velocity) by one sub-step.
type Stepper interface {
	Step(c *Ctx) error
}

// Registry dispatches by scenario.MotionType.
type Registry struct {
	steppers map[scenario.MotionType]Stepper
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{steppers: make(map[scenario.MotionType]Stepper)}
}

// Register associates a Stepper with one or more motion types.
func (r *Registry) Register(s Stepper, types ...scenario.MotionType) {
	for _, t := range types {
		r.steppers[t] = s
	}
}

// For returns the Stepper registered for a motion type, or nil.
func (r *Registry) For(t scenario.MotionType) Stepper {
	return r.steppers[t]
}

// DefaultRegistry wires the three built-in steppers, the combination
// cmd/qomet-engine passes to deltaq.Engine.Run/RunParallel. A caller
// can pass its own registry instead (e.g. with a test
// double for MotionTrace's external collaborator).
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(Linear{}, scenario.MotionLinear)
	r.Register(Behavioral{}, scenario.MotionBehavioral)
	r.Register(Trace{}, scenario.MotionTrace)
	return r
}

// Advance steps every motion active at now ([start,stop))
// exactly once, by the given sub-step duration. The deltaQ engine calls
// this MotionStepDivider times per tick, between deltaQ evaluations.
func Advance(sc *scenario.Scenario, reg *Registry, rnd *qrand.Rand, now, step time.Duration) error {
	for i := range sc.Motions {
		m := &sc.Motions[i]
		if now < m.Start || now >= m.Stop {
			continue
		}
		stepper := reg.For(m.Type)
		if stepper == nil {
			continue
		}
		ctx := &Ctx{
			Scenario: sc,
			Motion:   m,
			Node:     sc.Node(m.Node),
			Rand:     rnd,
			Now:      now,
			Step:     step,
		}
		if err := stepper.Step(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Linear moves a node at a constant velocity, bounded by [Start,Stop):
// "position += velocity*step". If DeriveVelocity is set, the
// velocity itself is computed once, on the first step, from
// (Destination-position)/(Stop-Start).
type Linear struct{}

func (Linear) Step(c *Ctx) error {
	m := c.Motion
	if !m.Initialized() {
		if m.DeriveVelocity {
			dur := (m.Stop - m.Start).Seconds()
			if dur <= 0 {
				return qometerr.New(qometerr.KindGeometry, "linear motion: stop <= start", qometerr.ErrMalformedInput)
			}
			disp := geo.Sub([3]float64(m.Destination), [3]float64(c.Node.Position))
			m.Velocity = [3]float64{disp[0] / dur, disp[1] / dur, disp[2] / dur}
		}
		m.MarkInitialized()
	}

	dt := c.Step.Seconds()
	pos := c.Node.Position
	c.Node.Position = scenario.Coordinate{
		pos[0] + m.Velocity[0]*dt,
		pos[1] + m.Velocity[1]*dt,
		pos[2] + m.Velocity[2]*dt,
	}
	c.Node.Velocity = m.Velocity
	return nil
}

// Behavioral moves a node at its nominal speed toward Destination (or a
// fresh point sampled from Region once the current one is reached), with
// a simple avoidance rule: if the straight-line step would land inside a
// building footprint, the step direction is rotated 90 degrees in the
// x-y plane and retried once; if that's still blocked, the node holds
// still for this sub-step rather than spinning on it indefinitely.
type Behavioral struct{}

func (Behavioral) Step(c *Ctx) error {
	m := c.Motion
	if !m.Initialized() {
		if len(m.Region) > 0 {
			m.Destination = sampleRegion(c.Rand, m.Region)
		}
		m.MarkInitialized()
	}

	dt := c.Step.Seconds()
	maxMove := m.NominalSpeedMps * dt

	toTarget := geo.Sub([3]float64(m.Destination), [3]float64(c.Node.Position))
	dist := geo.Length(toTarget)

	if dist <= maxMove {
		c.Node.Position = m.Destination
		c.Node.Velocity = [3]float64{}
		if len(m.Region) > 0 {
			m.Destination = sampleRegion(c.Rand, m.Region)
		}
		return nil
	}

	dir := [3]float64{toTarget[0] / dist, toTarget[1] / dist, toTarget[2] / dist}
	next := stepTo(c.Node.Position, dir, maxMove)

	if blocksPath(c.Scenario, next) {
		dir = rotateXY90(dir)
		next = stepTo(c.Node.Position, dir, maxMove)
		if blocksPath(c.Scenario, next) {
			c.Node.Velocity = [3]float64{}
			return nil
		}
	}

	c.Node.Velocity = [3]float64{dir[0] * m.NominalSpeedMps, dir[1] * m.NominalSpeedMps, dir[2] * m.NominalSpeedMps}
	c.Node.Position = next
	return nil
}

func stepTo(pos scenario.Coordinate, dir [3]float64, maxMove float64) scenario.Coordinate {
	return scenario.Coordinate{
		pos[0] + dir[0]*maxMove,
		pos[1] + dir[1]*maxMove,
		pos[2] + dir[2]*maxMove,
	}
}

// rotateXY90 rotates a unit direction 90 degrees counter-clockwise in the
// x-y plane, leaving z untouched -- a cheap deflection that keeps the
// node moving rather than implementing full obstacle path-planning.
func rotateXY90(dir [3]float64) [3]float64 {
	return [3]float64{-dir[1], dir[0], dir[2]}
}

// blocksPath reports whether pos falls inside any building object's
// footprint.
func blocksPath(sc *scenario.Scenario, pos scenario.Coordinate) bool {
	for i := range sc.Objects {
		obj := &sc.Objects[i]
		if obj.Type != scenario.ObjectBuilding {
			continue
		}
		if geo.PointInPolygon([3]float64(pos), coordsToVecs(obj.Vertices)) {
			return true
		}
	}
	return false
}

func coordsToVecs(cs []scenario.Coordinate) [][3]float64 {
	out := make([][3]float64, len(cs))
	for i, c := range cs {
		out[i] = [3]float64(c)
	}
	return out
}

// sampleRegion rejection-samples a uniform point inside region's bounding
// box, falling back to the box's center after a bounded number of misses
// (an irregular region can have an arbitrarily small area relative to its
// bounding box, but the node has to go somewhere).
func sampleRegion(rnd *qrand.Rand, region []scenario.Coordinate) scenario.Coordinate {
	verts := coordsToVecs(region)
	min, max := geo.BoundingBox(verts)

	const maxAttempts = 32
	for i := 0; i < maxAttempts; i++ {
		p := [3]float64{
			min[0] + rnd.Float64()*(max[0]-min[0]),
			min[1] + rnd.Float64()*(max[1]-min[1]),
			min[2],
		}
		if geo.PointInPolygon(p, verts) {
			return scenario.Coordinate(p)
		}
	}
	return scenario.Coordinate{(min[0] + max[0]) / 2, (min[1] + max[1]) / 2, min[2]}
}

// Trace reads the next (t,x,y,z) sample from an external
// scenario.TraceSource and interpolates linearly between it and the
// previous one to the current sub-step. The source is an
// external collaborator: this stepper never opens a file
// itself.
type Trace struct{}

func (Trace) Step(c *Ctx) error {
	m := c.Motion
	if m.Trace == nil {
		return qometerr.New(qometerr.KindInput, "trace motion with no TraceSource", qometerr.ErrMalformedInput)
	}

	if !m.Initialized() {
		m.SetTraceLeft(scenario.TraceSample{Time: m.Start, Position: c.Node.Position})
		m.MarkInitialized()
	}

	left, right, haveRight := m.TraceWindow()
	for {
		if !haveRight {
			sample, ok := m.Trace.Next(left.Time)
			if !ok {
				// Exhausted: hold at the last known sample.
				c.Node.Position = left.Position
				c.Node.Velocity = [3]float64{}
				return nil
			}
			m.SetTraceRight(sample)
			right, haveRight = sample, true
		}
		if c.Now < right.Time {
			break
		}
		left = right
		m.SetTraceLeft(left)
		haveRight = false
	}

	frac := 0.0
	span := (right.Time - left.Time).Seconds()
	if span > 0 {
		frac = (c.Now - left.Time).Seconds() / span
	}
	pos := scenario.Coordinate{
		left.Position[0] + frac*(right.Position[0]-left.Position[0]),
		left.Position[1] + frac*(right.Position[1]-left.Position[1]),
		left.Position[2] + frac*(right.Position[2]-left.Position[2]),
	}

	if span > 0 {
		c.Node.Velocity = [3]float64{
			(right.Position[0] - left.Position[0]) / span,
			(right.Position[1] - left.Position[1]) / span,
			(right.Position[2] - left.Position[2]) / span,
		}
	}
	c.Node.Position = pos
	return nil
}
