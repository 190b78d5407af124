package testscenario

import (
	"strings"
	"testing"
)

func TestDecodeEmptyScenario(t *testing.T) {
	sc, err := Decode(strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(sc.Nodes) != 0 || len(sc.Connections) != 0 {
		t.Fatalf("expected an empty scenario, got %+v", sc)
	}
}

func TestDecodeResolvesNodeIDs(t *testing.T) {
	sc, err := Decode(strings.NewReader(`{
		"Nodes": [{"Name": "a"}, {"Name": "b"}],
		"Interfaces": [{"Name": "a0", "NodeID": 0}]
	}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(sc.Nodes) != 2 {
		t.Fatalf("len(Nodes) = %d, want 2", len(sc.Nodes))
	}
	if sc.Nodes[1].ID != 1 {
		t.Fatalf("Nodes[1].ID = %d, want 1 (assigned by Resolve)", sc.Nodes[1].ID)
	}
	id, ok := sc.NodeByName("b")
	if !ok || id != 1 {
		t.Fatalf("NodeByName(b) = (%d, %v), want (1, true)", id, ok)
	}
}

func TestDecodeRejectsDuplicateNodeNames(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"Nodes": [{"Name": "a"}, {"Name": "a"}]}`))
	if err == nil {
		t.Fatal("Decode with duplicate node names should fail Resolve")
	}
}

func TestDecodeRejectsMalformedJSON(t *testing.T) {
	_, err := Decode(strings.NewReader(`not json`))
	if err == nil {
		t.Fatal("Decode with malformed JSON should fail")
	}
}
