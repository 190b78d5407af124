package shaper

import "time"

// PairwiseDriver is do_wireconf.c's usage (1): a single rule/pipe pair
// shaping traffic between one (from,to) node, reconfigured from a stream
// of deltaQ updates rather than installed once and left alone.
type PairwiseDriver struct {
	Facade    KernelFacade
	RuleID    int
	PipeID    int
	SrcCIDR   string
	DstCIDR   string
	Direction Direction

	handle    RuleHandle
	installed bool
}

// NewPairwiseDriver builds a driver for one pair; Start installs the
// rule.
func NewPairwiseDriver(facade KernelFacade, ruleID, pipeID int, srcCIDR, dstCIDR string, dir Direction) *PairwiseDriver {
	return &PairwiseDriver{
		Facade:    facade,
		RuleID:    ruleID,
		PipeID:    pipeID,
		SrcCIDR:   srcCIDR,
		DstCIDR:   dstCIDR,
		Direction: dir,
	}
}

// Start installs the rule. Calling Start twice without an intervening
// Teardown is a programmer error; the second AddRule would leak a rule
// no Go-side handle tracks.
func (d *PairwiseDriver) Start() error {
	handle, err := d.Facade.AddRule(d.SrcCIDR, d.DstCIDR, d.PipeID, d.Direction)
	if err != nil {
		return err
	}
	d.handle = handle
	d.installed = true
	return nil
}

// Configure pushes one tick's deltaQ values to the pipe.
func (d *PairwiseDriver) Configure(rateBps float64, delay time.Duration, lossFraction float64) error {
	return d.Facade.ConfigurePipe(d.PipeID, rateBps, delay, lossFraction)
}

// Teardown deletes the installed rule. Safe to call when Start was never
// called or Teardown already ran.
func (d *PairwiseDriver) Teardown() error {
	if !d.installed {
		return nil
	}
	if err := d.Facade.DeleteRule(d.handle); err != nil {
		return err
	}
	d.installed = false
	return nil
}
