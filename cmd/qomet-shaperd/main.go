// Command qomet-shaperd is the real-time shaper driver: it reads deltaQ
// samples (from the engine's binary trace, over a pipe
// in a fuller deployment) and reprograms the host's kernel shaping
// rules/pipes to match, in either pairwise or fleet mode. Flag handling
// uses the plain stdlib flag package, no cobra/pflag.
package main

import (
	"bufio"
	"context"
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/qomet-project/qomet/internal/config"
	"github.com/qomet-project/qomet/internal/qlog"
	"github.com/qomet-project/qomet/internal/scenario"
	"github.com/qomet-project/qomet/internal/shaper"
	"github.com/qomet-project/qomet/internal/shaper/linuxtc"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("qomet-shaperd", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a JSON configuration file (see internal/config.Config)")
	tracePath := fs.String("trace", "", "path to the engine's .bin deltaQ trace")
	logDir := fs.String("log_dir", "", "directory for rotated shaperd logs")
	logLevel := fs.String("log_level", "info", "debug|info|warn|error")
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
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	logger := qlog.New("qomet-shaperd", *logLevel, *logDir)

	facade, err := linuxtc.New()
	if err != nil {
		logger.Error("opening kernel facade", "error", err)
		return 2
	}
	defer facade.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch cfg.UsageMode {
	case config.UsagePairwise:
		return runPairwise(ctx, logger, facade, cfg, *tracePath)
	case config.UsageFleet:
		return runFleet(ctx, logger, facade, cfg, *tracePath)
	default:
		logger.Error("unrecognized usage_mode", "usage_mode", cfg.UsageMode)
		return 1
	}
}

func runPairwise(ctx context.Context, logger *qlog.Logger, facade shaper.KernelFacade, cfg config.Config, tracePath string) int {
	dir := parseDirection(cfg.Direction)
	driver := shaper.NewPairwiseDriver(facade, cfg.RuleID, cfg.PipeID,
		hostCIDR(cfg.FromIP), hostCIDR(cfg.ToIP), dir)

	if err := driver.Start(); err != nil {
		logger.Error("installing rule", "error", err)
		return 2
	}
	defer driver.Teardown()

	return drainTrace(ctx, logger, tracePath, func(from, to uint32, bw, loss, delay, jitter float32) error {
		if int32(from) != cfg.FromID || int32(to) != cfg.ToID {
			return nil
		}
		return driver.Configure(float64(bw), time.Duration(delay*float32(time.Millisecond)), float64(loss))
	})
}

func runFleet(ctx context.Context, logger *qlog.Logger, facade shaper.KernelFacade, cfg config.Config, tracePath string) int {
	peers, err := loadPeers(cfg.SettingsPath)
	if err != nil {
		logger.Error("loading peer settings", "error", err)
		return 1
	}

	myIP := net.ParseIP(peerIP(peers, scenario.NodeID(cfg.MyID)))
	driver, err := shaper.NewFleetDriver(facade, myIP, scenario.NodeID(cfg.MyID), peers,
		net.ParseIP(cfg.BroadcastIP), shaper.DefaultPipeRange)
	if err != nil {
		logger.Error("building fleet driver", "error", err)
		return 2
	}
	if err := driver.Start(); err != nil {
		logger.Error("installing fleet rules", "error", err)
		return 2
	}
	defer driver.Teardown()

	timer := &shaper.DeadlineTimer{Period: time.Duration(cfg.PeriodS * float64(time.Second)), Logger: logger}
	ticks, err := newTraceReader(tracePath)
	if err != nil {
		logger.Error("opening trace", "error", err)
		return 1
	}
	defer ticks.Close()

	traceDone := false
	err = timer.Run(ctx, func(time.Time) error {
		if traceDone {
			return nil
		}
		recs, err := ticks.Next()
		if err == io.EOF {
			traceDone = true
			return nil
		}
		if err != nil {
			return err
		}
		for _, r := range recs {
			if err := driver.Configure(scenario.NodeID(r.to), float64(r.bandwidth),
				time.Duration(r.delay*float32(time.Millisecond)), float64(r.loss)); err != nil {
				return err
			}
		}
		return nil
	})
	return exitCodeFromErr(err)
}

func exitCodeFromErr(err error) int {
	if err == nil {
		return 0
	}
	return 2
}

func parseDirection(s string) shaper.Direction {
	switch s {
	case "in":
		return shaper.DirectionIn
	case "out":
		return shaper.DirectionOut
	default:
		return shaper.DirectionBoth
	}
}

func hostCIDR(ip string) string {
	if strings.Contains(ip, ":") {
		return ip + "/128"
	}
	return ip + "/32"
}

// loadPeers reads a settings_path file of "id ip" lines, the fleet mode
// equivalent of do_wireconf.c's settings file.
func loadPeers(path string) ([]shaper.FleetPeer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var peers []shaper.FleetPeer
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("qomet-shaperd: malformed settings line %q", line)
		}
		id, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("qomet-shaperd: malformed peer id %q: %w", fields[0], err)
		}
		ip := net.ParseIP(fields[1])
		if ip == nil {
			return nil, fmt.Errorf("qomet-shaperd: malformed peer ip %q", fields[1])
		}
		peers = append(peers, shaper.FleetPeer{NodeID: scenario.NodeID(id), IP: ip})
	}
	return peers, sc.Err()
}

func peerIP(peers []shaper.FleetPeer, id scenario.NodeID) string {
	for _, p := range peers {
		if p.NodeID == id {
			return p.IP.String()
		}
	}
	return ""
}

// binRecord mirrors internal/output.BinaryWriter's 24-byte per-connection
// record, read back the way this driver would consume the engine's .bin
// trace in a pipe-fed deployment.
type binRecord struct {
	from, to              uint32
	bandwidth, loss, delay, jitter float32
}

type traceReader struct {
	f   *os.File
	buf *bufio.Reader
}

func newTraceReader(path string) (*traceReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	buf := bufio.NewReader(f)
	// Skip BinaryWriter's fixed header: interface_count (u32),
	// time_record_count (u32), version ([3]byte), revision (i32).
	if _, err := buf.Discard(4 + 4 + 3 + 4); err != nil {
		f.Close()
		return nil, err
	}
	return &traceReader{f: f, buf: buf}, nil
}

func (t *traceReader) Close() error {
	if t.f == nil {
		return nil
	}
	return t.f.Close()
}

// Next reads one time record's worth of binRecords. It returns io.EOF
// once the trace is exhausted.
func (t *traceReader) Next() ([]binRecord, error) {
	if t.buf == nil {
		return nil, io.EOF
	}
	var timeSecs float64
	if err := binary.Read(t.buf, binary.LittleEndian, &timeSecs); err != nil {
		return nil, err
	}
	var count uint32
	if err := binary.Read(t.buf, binary.LittleEndian, &count); err != nil {
		return nil, err
	}
	recs := make([]binRecord, count)
	for i := range recs {
		if err := binary.Read(t.buf, binary.LittleEndian, &recs[i].from); err != nil {
			return nil, err
		}
		if err := binary.Read(t.buf, binary.LittleEndian, &recs[i].to); err != nil {
			return nil, err
		}
		if err := binary.Read(t.buf, binary.LittleEndian, &recs[i].bandwidth); err != nil {
			return nil, err
		}
		if err := binary.Read(t.buf, binary.LittleEndian, &recs[i].loss); err != nil {
			return nil, err
		}
		if err := binary.Read(t.buf, binary.LittleEndian, &recs[i].delay); err != nil {
			return nil, err
		}
		if err := binary.Read(t.buf, binary.LittleEndian, &recs[i].jitter); err != nil {
			return nil, err
		}
	}
	return recs, nil
}

func drainTrace(ctx context.Context, logger *qlog.Logger, path string, apply func(from, to uint32, bw, loss, delay, jitter float32) error) int {
	t, err := newTraceReader(path)
	if err != nil {
		logger.Error("opening trace", "error", err)
		return 1
	}
	defer t.Close()

	for {
		select {
		case <-ctx.Done():
			return 0
		default:
		}

		recs, err := t.Next()
		if err == io.EOF {
			return 0
		}
		if err != nil {
			logger.Error("reading trace", "error", err)
			return 2
		}
		for _, r := range recs {
			if err := apply(r.from, r.to, r.bandwidth, r.loss, r.delay, r.jitter); err != nil {
				logger.Error("reconfiguring pipe", "error", err)
				return 2
			}
		}
	}
}
