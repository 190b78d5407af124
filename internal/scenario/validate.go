package scenario

import (
	"fmt"
	"time"

	"github.com/qomet-project/qomet/internal/qometerr"
)

// MaxVertices bounds an Object's polygon/polyline vertex count:
// exceeding it aborts scenario load.
const MaxVertices = 4096

// MaxFixedDeltaQ bounds the number of fixed-deltaQ windows a single
// connection may carry.
const MaxFixedDeltaQ = 256

// Validate checks the invariants a scenario must satisfy before it can
// be ticked. It must run after Resolve.
func (s *Scenario) Validate() error {
	for i := range s.Environments {
		if len(s.Environments[i].Segments) == 0 {
			return qometerr.New(qometerr.KindInput, s.Environments[i].Name,
				fmt.Errorf("%w: environment has no segments", qometerr.ErrMalformedInput))
		}
	}

	for i := range s.Objects {
		o := &s.Objects[i]
		if len(o.Vertices) > MaxVertices {
			return qometerr.New(qometerr.KindGeometry, o.Name, qometerr.ErrVertexOverflow)
		}
		if !o.IsPolyline {
			if len(o.Vertices) < 3 {
				return qometerr.New(qometerr.KindGeometry, o.Name,
					fmt.Errorf("%w: polygon needs >= 3 vertices", qometerr.ErrMalformedInput))
			}
			if o.Vertices[0] != o.Vertices[len(o.Vertices)-1] {
				return qometerr.New(qometerr.KindGeometry, o.Name,
					fmt.Errorf("%w: polygon not closed (first != last vertex)", qometerr.ErrMalformedInput))
			}
		}
	}

	for i := range s.Connections {
		if err := validateFixedWindows(s.Connections[i].FixedWindows); err != nil {
			return qometerr.New(qometerr.KindInput, s.Connections[i].Name, err)
		}
	}

	return nil
}

func validateFixedWindows(ws []FixedWindow) error {
	if len(ws) > MaxFixedDeltaQ {
		return qometerr.ErrTooManyFixedWindows
	}
	for i := 1; i < len(ws); i++ {
		if ws[i].Start < ws[i-1].End {
			return qometerr.ErrFixedWindowOrder
		}
	}
	return nil
}

// AddFixedWindow appends a new override window to a connection, validating
// it against the existing ordered list ("Adding an entry
// validates that start_i >= end_{k-1} and that the total count fits
// MAX_FIXED_DELTAQ").
func (c *Connection) AddFixedWindow(w FixedWindow) error {
	if len(c.FixedWindows) > 0 {
		last := c.FixedWindows[len(c.FixedWindows)-1]
		if w.Start < last.End {
			return qometerr.ErrFixedWindowOrder
		}
	}
	if len(c.FixedWindows)+1 > MaxFixedDeltaQ {
		return qometerr.ErrTooManyFixedWindows
	}
	c.FixedWindows = append(c.FixedWindows, w)
	return nil
}

// ActiveWindow returns the fixed-deltaQ window active at time t, if any
// (select the entry i where start_i <= t < end_i).
func (c *Connection) ActiveWindow(t time.Duration) (FixedWindow, bool) {
	for _, w := range c.FixedWindows {
		if w.Start <= t && t < w.End {
			return w, true
		}
	}
	return FixedWindow{}, false
}
