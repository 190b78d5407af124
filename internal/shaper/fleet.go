package shaper

import (
	"net"
	"time"

	"github.com/qomet-project/qomet/internal/qometerr"
	"github.com/qomet-project/qomet/internal/scenario"
)

// PipeRange is the base pipe-id offset for one of fleet mode's three
// rule classes: per-peer outbound, broadcast inbound, and plain inbound.
// do_wireconf.c hard-codes these as MIN_PIPE_ID_OUT=30000,
// MIN_PIPE_ID_IN_BCAST=20000, MIN_PIPE_ID_IN=10000 (a 10000-wide gap
// between classes, implicitly assuming fewer than 10000 peers); made
// explicit and validated here instead, since a scenario's node count
// isn't bounded by this module.
type PipeRange struct {
	Out         int
	InBroadcast int
	In          int
}

// DefaultPipeRange matches do_wireconf.c's literal constants.
var DefaultPipeRange = PipeRange{Out: 30000, InBroadcast: 20000, In: 10000}

// validate reports an error if any two of the three classes' pipe-id
// spans (each peerCount wide) would collide.
func (r PipeRange) validate(peerCount int) error {
	spans := [3][2]int{
		{r.Out, r.Out + peerCount},
		{r.InBroadcast, r.InBroadcast + peerCount},
		{r.In, r.In + peerCount},
	}
	for i := 0; i < len(spans); i++ {
		for j := i + 1; j < len(spans); j++ {
			if spans[i][0] < spans[j][1] && spans[j][0] < spans[i][1] {
				return qometerr.New(qometerr.KindKernelFacade, "", qometerr.ErrPipeRangeCollision)
			}
		}
	}
	return nil
}

// FleetPeer is one other node in the fleet this driver's node can shape
// traffic to/from.
type FleetPeer struct {
	NodeID scenario.NodeID
	IP     net.IP
}

// FleetDriver is do_wireconf.c's usage (2): every connection from one
// node (MyID), driven from a settings-file-equivalent peer list, with an
// additional broadcast-inbound rule per peer.
type FleetDriver struct {
	Facade      KernelFacade
	MyIP        net.IP
	MyID        scenario.NodeID
	Peers       []FleetPeer
	BroadcastIP net.IP
	Range       PipeRange

	outHandles   map[scenario.NodeID]RuleHandle
	bcastHandles map[scenario.NodeID]RuleHandle
	offsets      map[scenario.NodeID]int
}

// NewFleetDriver validates the pipe range against the peer count and
// returns a driver ready for Start.
func NewFleetDriver(facade KernelFacade, myIP net.IP, myID scenario.NodeID, peers []FleetPeer, broadcastIP net.IP, r PipeRange) (*FleetDriver, error) {
	if err := r.validate(len(peers)); err != nil {
		return nil, err
	}
	return &FleetDriver{
		Facade:      facade,
		MyIP:        myIP,
		MyID:        myID,
		Peers:       peers,
		BroadcastIP: broadcastIP,
		Range:       r,
	}, nil
}

// Start installs one outbound rule and one broadcast-inbound rule per
// peer (skipping MyID, which never shapes traffic to itself).
func (f *FleetDriver) Start() error {
	f.outHandles = make(map[scenario.NodeID]RuleHandle, len(f.Peers))
	f.bcastHandles = make(map[scenario.NodeID]RuleHandle, len(f.Peers))
	f.offsets = make(map[scenario.NodeID]int, len(f.Peers))

	for offset, peer := range f.Peers {
		if peer.NodeID == f.MyID {
			continue
		}
		f.offsets[peer.NodeID] = offset

		outPipe := f.Range.Out + offset
		h, err := f.Facade.AddRule(hostCIDR(f.MyIP), hostCIDR(peer.IP), outPipe, DirectionOut)
		if err != nil {
			return err
		}
		f.outHandles[peer.NodeID] = h

		bcastPipe := f.Range.InBroadcast + offset
		h2, err := f.Facade.AddRule(hostCIDR(peer.IP), hostCIDR(f.BroadcastIP), bcastPipe, DirectionIn)
		if err != nil {
			return err
		}
		f.bcastHandles[peer.NodeID] = h2
	}
	return nil
}

// Configure pushes one tick's deltaQ values for the connection to peer
// to both of its pipes (outbound and broadcast-inbound share the same
// shaping figures, as do_wireconf.c's configure calls do).
func (f *FleetDriver) Configure(peer scenario.NodeID, rateBps float64, delay time.Duration, lossFraction float64) error {
	offset, ok := f.offsets[peer]
	if !ok {
		return nil
	}
	if err := f.Facade.ConfigurePipe(f.Range.Out+offset, rateBps, delay, lossFraction); err != nil {
		return err
	}
	return f.Facade.ConfigurePipe(f.Range.InBroadcast+offset, rateBps, delay, lossFraction)
}

// Teardown deletes every installed rule, in reverse order of creation,
// tolerating a partially-started driver.
func (f *FleetDriver) Teardown() error {
	var firstErr error
	for i := len(f.Peers) - 1; i >= 0; i-- {
		peer := f.Peers[i]
		if h, ok := f.bcastHandles[peer.NodeID]; ok {
			if err := f.Facade.DeleteRule(h); err != nil && firstErr == nil {
				firstErr = err
			}
			delete(f.bcastHandles, peer.NodeID)
		}
		if h, ok := f.outHandles[peer.NodeID]; ok {
			if err := f.Facade.DeleteRule(h); err != nil && firstErr == nil {
				firstErr = err
			}
			delete(f.outHandles, peer.NodeID)
		}
	}
	return firstErr
}
