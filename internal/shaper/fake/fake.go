// Package fake provides an in-memory shaper.KernelFacade for tests --
// the collaborator "no rule remains after teardown" property
// test runs against, standing in for a real Linux tc or FreeBSD dummynet
// backend.
package fake

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/qomet-project/qomet/internal/shaper"
)

type rule struct {
	SrcCIDR, DstCIDR string
	PipeID           int
	Direction        shaper.Direction
}

type pipeState struct {
	RateBps      float64
	Delay        time.Duration
	LossFraction float64
}

// Facade records every rule and pipe a driver installs/configures,
// without touching the kernel.
type Facade struct {
	mu    sync.Mutex
	rules map[shaper.RuleHandle]rule
	pipes map[int]pipeState
}

// New returns an empty Facade.
func New() *Facade {
	return &Facade{rules: map[shaper.RuleHandle]rule{}, pipes: map[int]pipeState{}}
}

func (f *Facade) AddRule(srcCIDR, dstCIDR string, pipeID int, dir shaper.Direction) (shaper.RuleHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h := shaper.RuleHandle(uuid.NewString())
	f.rules[h] = rule{SrcCIDR: srcCIDR, DstCIDR: dstCIDR, PipeID: pipeID, Direction: dir}
	return h, nil
}

func (f *Facade) ConfigurePipe(pipeID int, rateBps float64, delay time.Duration, lossFraction float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pipes[pipeID] = pipeState{RateBps: rateBps, Delay: delay, LossFraction: lossFraction}
	return nil
}

func (f *Facade) DeleteRule(handle shaper.RuleHandle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rules[handle]; !ok {
		return fmt.Errorf("fake: no such rule %s", handle)
	}
	delete(f.rules, handle)
	return nil
}

// RuleCount reports how many rules are currently installed, the
// assertion point for the teardown property test.
func (f *Facade) RuleCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rules)
}

// Pipe returns the last configuration pushed to pipeID, for assertions.
func (f *Facade) Pipe(pipeID int) (rateBps float64, delay time.Duration, lossFraction float64, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pipes[pipeID]
	return p.RateBps, p.Delay, p.LossFraction, ok
}

// RouteTable is a static shaper.RouteTable backed by a fixed map, for
// tests that need NextHop resolution without a real routing table.
type RouteTable struct {
	Routes map[string]net.IP // dst.String() -> next hop
}

func (r *RouteTable) NextHop(dst net.IP, _ shaper.Direction) (net.IP, error) {
	if hop, ok := r.Routes[dst.String()]; ok {
		return hop, nil
	}
	return nil, fmt.Errorf("fake: no route to %s", dst)
}
