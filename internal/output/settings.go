package output

import (
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/qomet-project/qomet/internal/scenario"
)

// Settings is the `.settings` snapshot: the per-node, per-interface
// static configuration the scenario was run with, written once after
// the run completes -- a small serializable struct with its own msgpack
// encoding, rather than hand-rolling a text format for something that's
// read back programmatically more often than by a human.
type Settings struct {
	Nodes []NodeSettings
}

// NodeSettings is one node's static configuration.
type NodeSettings struct {
	ID            int32
	Name          string
	PositionM     [3]float64
	InternalDelay float64 // milliseconds
	TxPowerDBm    float64
	Interfaces    []InterfaceSettings
}

// InterfaceSettings is one interface's static configuration.
type InterfaceSettings struct {
	ID             int32
	Name           string
	Adapter        string
	AntennaGainDBi float64
	AzimuthDeg     float64
	ElevationDeg   float64
	BeamwidthDeg   float64
}

// BuildSettings snapshots a scenario's static (not per-tick) configuration.
func BuildSettings(sc *scenario.Scenario) Settings {
	s := Settings{Nodes: make([]NodeSettings, len(sc.Nodes))}
	for i := range sc.Nodes {
		n := &sc.Nodes[i]
		ns := NodeSettings{
			ID:            int32(n.ID),
			Name:          n.Name,
			PositionM:     [3]float64(n.Position),
			InternalDelay: float64(n.InternalDelay.Microseconds()) / 1000,
			TxPowerDBm:    n.PtDBm,
		}
		for _, ifID := range n.Interfaces {
			iface := sc.Iface(ifID)
			ns.Interfaces = append(ns.Interfaces, InterfaceSettings{
				ID:             int32(iface.ID),
				Name:           iface.Name,
				Adapter:        iface.Adapter.String(),
				AntennaGainDBi: iface.AntennaGainDBi,
				AzimuthDeg:     iface.AzimuthDeg,
				ElevationDeg:   iface.ElevationDeg,
				BeamwidthDeg:   iface.BeamwidthDeg,
			})
		}
		s.Nodes[i] = ns
	}
	return s
}

// WriteSettings msgpack-encodes sc's static configuration to w. Unlike
// TextWriter/BinaryWriter/MotionWriter, there's nothing to do per tick:
// this is called once, after the run completes.
func WriteSettings(w io.Writer, sc *scenario.Scenario) error {
	return msgpack.NewEncoder(w).Encode(BuildSettings(sc))
}

// ReadSettings decodes a snapshot written by WriteSettings.
func ReadSettings(r io.Reader) (Settings, error) {
	var s Settings
	err := msgpack.NewDecoder(r).Decode(&s)
	return s, err
}
