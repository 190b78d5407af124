// Package shaper implements/§6: the wire/kernel facade and the
// two driver modes (pairwise, fleet) that keep a kernel traffic shaper in
// sync with the deltaQ engine's output, grounded on
// wireconf/do_wireconf.c's two usage modes (a single configured pair, or
// every connection from one node driven from a settings file) and
// wireconf.c's add_rule/configure_pipe/delete_rule trio.
package shaper

import (
	"fmt"
	"net"
	"time"
)

// Direction mirrors wireconf.h's DIRECTION_BOTH/IN/OUT constants.
type Direction int

const (
	DirectionBoth Direction = iota
	DirectionIn
	DirectionOut
)

func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "in"
	case DirectionOut:
		return "out"
	default:
		return "both"
	}
}

// RuleHandle identifies one installed rule for later deletion. Backed by
// a UUID rather than the kernel's own rule number, so a driver can track
// rules it installed independently of how the backend numbers them
// internally.
type RuleHandle string

// KernelFacade is wire/kernel facade: anything that can
// install a rule routing one CIDR pair through a shaping pipe,
// reconfigure that pipe's rate/delay/loss, and remove the rule again.
// `internal/shaper/linuxtc` and `internal/shaper/fake` both implement it.
type KernelFacade interface {
	// AddRule installs a rule sending traffic from srcCIDR to dstCIDR,
	// in the given direction, through pipeID, returning a handle for
	// later deletion.
	AddRule(srcCIDR, dstCIDR string, pipeID int, dir Direction) (RuleHandle, error)

	// ConfigurePipe (re)configures pipeID's rate/delay/loss. Idempotent:
	// calling it again with new values simply updates the running pipe.
	ConfigurePipe(pipeID int, rateBps float64, delay time.Duration, lossFraction float64) error

	// DeleteRule removes a previously installed rule.
	DeleteRule(handle RuleHandle) error
}

// RouteTable resolves the next hop for a destination, consulted when a
// driver needs to express a rule in terms of the outgoing interface
// rather than a raw destination CIDR.
type RouteTable interface {
	NextHop(dst net.IP, dir Direction) (net.IP, error)
}

// hostCIDR renders ip as a /32 (or /128 for IPv6) host CIDR, the form
// do_wireconf.c's rules are expressed in when driving per-node pairs.
func hostCIDR(ip net.IP) string {
	if ip4 := ip.To4(); ip4 != nil {
		return fmt.Sprintf("%s/32", ip4)
	}
	return fmt.Sprintf("%s/128", ip)
}
