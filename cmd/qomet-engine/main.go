// Command qomet-engine runs the deltaQ simulation core: it loads a
// scenario, ticks it from start to start+duration, and writes whichever
// of the text/binary/motion/settings sinks the configuration asks for.
// Flag handling uses the plain stdlib flag package, no cobra/pflag.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"hash/fnv"
	"os"

	"github.com/qomet-project/qomet/internal/config"
	"github.com/qomet-project/qomet/internal/deltaq"
	"github.com/qomet-project/qomet/internal/motion"
	"github.com/qomet-project/qomet/internal/output"
	"github.com/qomet-project/qomet/internal/phyreg"
	"github.com/qomet-project/qomet/internal/qlog"
	"github.com/qomet-project/qomet/internal/qrand"
	"github.com/qomet-project/qomet/internal/scenario"
	"github.com/qomet-project/qomet/internal/scenario/testscenario"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("qomet-engine", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a JSON configuration file (see internal/config.Config)")
	scenarioPath := fs.String("scenario_path", "", "path to a JSON-encoded scenario (overrides config file)")
	emitText := fs.Bool("emit_text", false, "write a .out text trace next to the scenario")
	emitBinary := fs.Bool("emit_binary", false, "write a .bin binary trace next to the scenario")
	logDir := fs.String("log_dir", "", "directory for rotated engine logs")
	logLevel := fs.String("log_level", "info", "debug|info|warn|error")
	parallel := fs.Bool("parallel", false, "use Engine.RunParallel instead of Engine.Run")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadFile(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		cfg = loaded
	}
	if *scenarioPath != "" {
		cfg.ScenarioPath = *scenarioPath
	}
	cfg.EmitText = cfg.EmitText || *emitText
	cfg.EmitBinary = cfg.EmitBinary || *emitBinary
	if cfg.ScenarioPath == "" {
		fmt.Fprintln(os.Stderr, "qomet-engine: scenario_path is required")
		return 1
	}

	logger := qlog.New("qomet-engine", *logLevel, *logDir)

	raw, err := os.ReadFile(cfg.ScenarioPath)
	if err != nil {
		logger.Error("reading scenario", "error", err)
		return 1
	}
	sc, err := testscenario.Decode(bytes.NewReader(raw))
	if err != nil {
		logger.Error("loading scenario", "error", err)
		return 1
	}

	reg, err := phyreg.Default()
	if err != nil {
		logger.Error("building phy registry", "error", err)
		return 2
	}

	rnd := qrand.New()
	rnd.Seed(seedFromBytes(raw))
	engine := deltaq.NewEngine(reg, &rnd)
	motionReg := motion.DefaultRegistry()

	writers, err := buildWriters(cfg, sc)
	if err != nil {
		logger.Error("setting up output", "error", err)
		return 1
	}
	multi := &output.Multi{Writers: writers}
	defer func() {
		if err := multi.Close(); err != nil {
			logger.Error("closing output", "error", err)
		}
	}()

	onTick := multi.TickFunc(sc)

	if *parallel {
		err = engine.RunParallel(context.Background(), sc, motionReg, onTick)
	} else {
		err = engine.Run(sc, motionReg, onTick)
	}
	if err != nil {
		logger.Error("run failed", "error", err)
		return 1
	}

	if err := writeSettingsSnapshot(cfg, sc); err != nil {
		logger.Error("writing settings snapshot", "error", err)
		return 1
	}
	return 0
}

func buildWriters(cfg config.Config, sc *scenario.Scenario) ([]output.Writer, error) {
	var writers []output.Writer

	if cfg.EmitText {
		f, err := os.Create(cfg.ScenarioPath + ".out")
		if err != nil {
			return nil, err
		}
		writers = append(writers, output.NewTextWriter(f))
	}
	if cfg.EmitBinary {
		f, err := os.Create(cfg.ScenarioPath + ".bin")
		if err != nil {
			return nil, err
		}
		bw, err := output.NewBinaryWriter(f, len(sc.Interfaces), [3]byte{1, 0, 0}, 0, false)
		if err != nil {
			return nil, err
		}
		writers = append(writers, bw)
	}
	switch cfg.EmitMotion {
	case config.MotionEmitNam:
		f, err := os.Create(cfg.ScenarioPath + ".nam")
		if err != nil {
			return nil, err
		}
		writers = append(writers, output.NewMotionWriter(f, output.MotionFormatNam, len(sc.Nodes)))
	case config.MotionEmitNS2:
		f, err := os.Create(cfg.ScenarioPath + ".ns2")
		if err != nil {
			return nil, err
		}
		writers = append(writers, output.NewMotionWriter(f, output.MotionFormatNS2, len(sc.Nodes)))
	}

	return writers, nil
}

// writeSettingsSnapshot writes the run's static per-node/per-interface
// configuration once the run completes, unless the caller asked for no
// output at all.
func writeSettingsSnapshot(cfg config.Config, sc *scenario.Scenario) error {
	if !cfg.EmitText && !cfg.EmitBinary && cfg.EmitMotion == config.MotionEmitNone {
		return nil
	}
	f, err := os.Create(cfg.ScenarioPath + ".settings")
	if err != nil {
		return err
	}
	defer f.Close()
	return output.WriteSettings(f, sc)
}

// seedFromBytes derives a deterministic RNG seed from the scenario's own
// bytes, so re-running the same scenario file reproduces identical
// shadow-fading draws.
func seedFromBytes(b []byte) uint64 {
	h := fnv.New64a()
	h.Write(b)
	return h.Sum64()
}
