package scenario

import (
	"testing"
	"time"
)

func twoNodeScenario() *Scenario {
	s := &Scenario{
		Nodes: []Node{
			{Name: "n0", PtDBm: 15, Position: Coordinate{0, 0, 0}},
			{Name: "n1", PtDBm: 15, Position: Coordinate{100, 0, 0}},
		},
		Interfaces: []Interface{
			{Name: "n0if0", NodeID: 0, BeamwidthDeg: 360, Adapter: AdapterORiNOCO, Pr0DBm: map[Band]float64{}},
			{Name: "n1if0", NodeID: 1, BeamwidthDeg: 360, Adapter: AdapterORiNOCO, Pr0DBm: map[Band]float64{}},
		},
		Environments: []Environment{
			{Name: "freespace", Segments: []Segment{{Alpha: 2, LengthM: -1}}},
		},
		Connections: []Connection{
			{Name: "c0", FromNode: 0, FromIface: 0, ToNode: 1, ToIface: 0, ThroughEnv: 0, Standard: Standard80211b},
		},
	}
	s.Nodes[0].Interfaces = []IfaceID{0}
	s.Nodes[1].Interfaces = []IfaceID{0}
	return s
}

func TestResolveAssignsIDs(t *testing.T) {
	s := twoNodeScenario()
	if err := s.Resolve(); err != nil {
		t.Fatal(err)
	}
	if s.Nodes[1].ID != 1 {
		t.Fatalf("expected node 1 id=1, got %d", s.Nodes[1].ID)
	}
	id, ok := s.NodeByName("n1")
	if !ok || id != 1 {
		t.Fatalf("NodeByName(n1) = %d, %v", id, ok)
	}
}

func TestResolveDuplicateNodeNameFails(t *testing.T) {
	s := twoNodeScenario()
	s.Nodes = append(s.Nodes, Node{Name: "n0"})
	if err := s.Resolve(); err == nil {
		t.Fatal("expected duplicate name error")
	}
}

func TestValidateRejectsEmptyEnvironment(t *testing.T) {
	s := twoNodeScenario()
	s.Environments[0].Segments = nil
	if err := s.Resolve(); err != nil {
		t.Fatal(err)
	}
	if err := s.Validate(); err == nil {
		t.Fatal("expected validation error for empty-segment environment")
	}
}

func TestValidateRejectsUnclosedPolygon(t *testing.T) {
	s := twoNodeScenario()
	s.Objects = []Object{{
		Name:     "bldg",
		Vertices: []Coordinate{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}},
	}}
	if err := s.Resolve(); err != nil {
		t.Fatal(err)
	}
	if err := s.Validate(); err == nil {
		t.Fatal("expected validation error for unclosed polygon")
	}
}

func TestValidateAcceptsClosedPolygon(t *testing.T) {
	s := twoNodeScenario()
	s.Objects = []Object{{
		Name:     "bldg",
		Vertices: []Coordinate{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 0, 0}},
	}}
	if err := s.Resolve(); err != nil {
		t.Fatal(err)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestFixedWindowOrderingEnforced(t *testing.T) {
	c := &Connection{}
	bw := 1e6
	if err := c.AddFixedWindow(FixedWindow{Start: 0, End: time.Second, Bandwidth: &bw}); err != nil {
		t.Fatal(err)
	}
	if err := c.AddFixedWindow(FixedWindow{Start: 500 * time.Millisecond, End: 2 * time.Second}); err == nil {
		t.Fatal("expected overlapping window to be rejected")
	}
	if err := c.AddFixedWindow(FixedWindow{Start: time.Second, End: 2 * time.Second}); err != nil {
		t.Fatalf("contiguous window should be accepted: %v", err)
	}
}

func TestActiveWindowSelection(t *testing.T) {
	c := &Connection{}
	bw := 1e6
	_ = c.AddFixedWindow(FixedWindow{Start: 0, End: time.Second, Bandwidth: &bw})
	w, ok := c.ActiveWindow(500 * time.Millisecond)
	if !ok || w.Bandwidth == nil || *w.Bandwidth != bw {
		t.Fatalf("expected active window at t=500ms, got %+v, %v", w, ok)
	}
	if _, ok := c.ActiveWindow(2 * time.Second); ok {
		t.Fatal("expected no active window past all entries")
	}
}
