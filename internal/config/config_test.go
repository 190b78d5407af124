package config

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoadFillsDefaultsForOmittedKeys(t *testing.T) {
	c, err := Load(strings.NewReader(`{"scenario_path": "scn.xml", "usage_mode": "pairwise"}`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Direction != "both" {
		t.Errorf("Direction = %q, want default %q", c.Direction, "both")
	}
	if c.BroadcastIP != "255.255.255.255" {
		t.Errorf("BroadcastIP = %q, want default", c.BroadcastIP)
	}
	if c.ScenarioPath != "scn.xml" {
		t.Errorf("ScenarioPath = %q, want %q", c.ScenarioPath, "scn.xml")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	c := Default()
	c.ScenarioPath = "scn.xml"
	c.UsageMode = UsageFleet
	c.MyID = 3
	c.EmitMotion = MotionEmitNam

	var buf bytes.Buffer
	if err := c.Save(&buf); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(&buf)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != c {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, c)
	}
}

func TestValidateRejectsMissingScenarioPath(t *testing.T) {
	c := Default()
	c.UsageMode = UsagePairwise
	if err := c.Validate(); err == nil {
		t.Fatal("Validate() = nil, want error for missing scenario_path")
	}
}

func TestValidateRejectsUnknownUsageMode(t *testing.T) {
	c := Default()
	c.ScenarioPath = "scn.xml"
	c.UsageMode = "bogus"
	if err := c.Validate(); err == nil {
		t.Fatal("Validate() = nil, want error for unknown usage_mode")
	}
}

func TestValidateRejectsNonPositivePeriodInFleetMode(t *testing.T) {
	c := Default()
	c.ScenarioPath = "scn.xml"
	c.UsageMode = UsageFleet
	c.PeriodS = 0
	if err := c.Validate(); err == nil {
		t.Fatal("Validate() = nil, want error for non-positive period_s in fleet mode")
	}
}

func TestValidateAcceptsWellFormedPairwiseConfig(t *testing.T) {
	c := Default()
	c.ScenarioPath = "scn.xml"
	c.UsageMode = UsagePairwise
	c.Direction = "out"
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}
