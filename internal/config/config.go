// Package config holds the runtime agent's configuration: plain
// exported fields, JSON-tagged, loaded/saved with encoding/json rather
// than a flag-per-field CLI library.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// UsageMode selects one of shaper.do_wireconf.c's two driving modes.
type UsageMode string

const (
	UsagePairwise UsageMode = "pairwise"
	UsageFleet    UsageMode = "fleet"
)

// MotionEmit selects the motion-trace format, if any, to write.
type MotionEmit string

const (
	MotionEmitNone MotionEmit = "none"
	MotionEmitNam  MotionEmit = "nam"
	MotionEmitNS2  MotionEmit = "ns2"
)

// Config is the runtime agent's full configuration: every key the CLI
// surface accepts, collected into one JSON-loadable struct.
type Config struct {
	ScenarioPath string    `json:"scenario_path"`
	UsageMode    UsageMode `json:"usage_mode"`

	// Pairwise mode.
	FromID    int32  `json:"from_id"`
	FromIP    string `json:"from_ip"`
	ToID      int32  `json:"to_id"`
	ToIP      string `json:"to_ip"`
	RuleID    int    `json:"rule_id"`
	PipeID    int    `json:"pipe_id"`
	Direction string `json:"direction"` // in|out|both

	// Fleet mode.
	MyID        int32  `json:"my_id"`
	SettingsPath string `json:"settings_path"`
	PeriodS     float64 `json:"period_s"`
	BroadcastIP string  `json:"broadcast_ip"`

	// Output.
	EmitText    bool       `json:"emit_text"`
	EmitBinary  bool       `json:"emit_binary"`
	EmitMotion  MotionEmit `json:"emit_motion"`
	DisableDeltaQ bool     `json:"disable_deltaq"`
}

// Default returns a Config with sensible defaults for the keys that
// have one; the rest is zero-valued until a scenario/CLI overlay fills
// it in.
func Default() Config {
	return Config{
		Direction:   "both",
		BroadcastIP: "255.255.255.255",
		PeriodS:     1.0,
		EmitMotion:  MotionEmitNone,
	}
}

// Validate checks the invariants the CLI surface requires before the
// core accepts a Config: a recognized usage mode and direction, a
// scenario path, and a positive period in fleet mode.
func (c Config) Validate() error {
	if c.ScenarioPath == "" {
		return fmt.Errorf("config: scenario_path is required")
	}
	switch c.UsageMode {
	case UsagePairwise, UsageFleet:
	default:
		return fmt.Errorf("config: usage_mode %q is not pairwise or fleet", c.UsageMode)
	}
	switch c.Direction {
	case "in", "out", "both":
	default:
		return fmt.Errorf("config: direction %q is not in, out, or both", c.Direction)
	}
	switch c.EmitMotion {
	case MotionEmitNone, MotionEmitNam, MotionEmitNS2:
	default:
		return fmt.Errorf("config: emit_motion %q is not none, nam, or ns2", c.EmitMotion)
	}
	if c.UsageMode == UsageFleet && c.PeriodS <= 0 {
		return fmt.Errorf("config: period_s must be positive in fleet mode, got %g", c.PeriodS)
	}
	return nil
}

// Load decodes a Config from r, starting from Default so any key the
// file omits keeps its default value.
func Load(r io.Reader) (Config, error) {
	c := Default()
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	return c, nil
}

// LoadFile opens path and decodes it with Load.
func LoadFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Save writes c to w as indented JSON.
func (c Config) Save(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(c)
}

// SaveFile writes c to path.
func (c Config) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	return c.Save(f)
}
