// Package linuxtc implements shaper.KernelFacade against Linux's
// rtnetlink interface directly (golang.org/x/sys/unix sockets, no cgo,
// no shelling out to the `tc` binary), replacing wireconf.c's
// ioctl/netlink calls to ipfw+dummynet or tc+netem.
//
// Each shaping pipe is modeled as its own network device (named
// "qomet-pipeN"), matching dummynet's own per-pipe-is-an-independent-
// queue model more directly than trying to multiplex many flows through
// one qdisc's classes; provisioning that device (veth/ifb pair, routing
// it into the data path) is out of scope here, leaving only this
// facade: low-level kernel transport setup.
// AddRule/DeleteRule add and remove a route sending the given CIDR
// through the pipe's device; ConfigurePipe (re)installs that device's
// root netem qdisc with the requested rate/delay/loss.
package linuxtc

import (
	"encoding/binary"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/qomet-project/qomet/internal/shaper"
)

// tcMsg mirrors Linux's struct tcmsg (rtnetlink.h): not exposed by
// golang.org/x/sys/unix, so reconstructed here field-for-field.
type tcMsg struct {
	Family  uint8
	pad1    uint8
	pad2    uint16
	Ifindex int32
	Handle  uint32
	Parent  uint32
	Info    uint32
}

const (
	tcHRoot = 0xffffffff

	tcaKind    = 1
	tcaOptions = 2

	tcaNetemRate = 6

	rtaDst = 1
	rtaOif = 4
)

// netemQopt mirrors struct tc_netem_qopt: the fixed-size payload every
// netem TCA_OPTIONS attribute starts with.
type netemQopt struct {
	Latency   uint32 // ticks
	Limit     uint32 // max queued packets
	Loss      uint32 // fraction of ^uint32(0)
	Gap       uint32
	Duplicate uint32
	Jitter    uint32 // ticks
}

// netemRate mirrors struct tc_netem_rate, an optional nested attribute
// giving netem its own rate limit (used here instead of a separate tbf
// qdisc, since netem supports both in one qdisc).
type netemRate struct {
	Rate           uint32 // bytes/sec
	PacketOverhead int32
	CellSize       uint32
	CellOverhead   int32
}

type ruleRecord struct {
	cidr string
	oif  int32
	dir  shaper.Direction
}

// Facade is a shaper.KernelFacade backed by a single rtnetlink socket.
type Facade struct {
	fd  int
	seq uint32

	tickInUsec float64

	mu    sync.Mutex
	rules map[shaper.RuleHandle]ruleRecord
}

// New opens the netlink socket and calibrates tc's tick/microsecond
// ratio from /proc/net/psched, the same source tc_core.c's
// tc_core_init reads.
func New() (*Facade, error) {
	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_RAW, unix.NETLINK_ROUTE)
	if err != nil {
		return nil, fmt.Errorf("linuxtc: socket: %w", err)
	}
	if err := unix.Bind(fd, &unix.SockaddrNetlink{Family: unix.AF_NETLINK}); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("linuxtc: bind: %w", err)
	}

	f := &Facade{fd: fd, tickInUsec: 1, rules: map[shaper.RuleHandle]ruleRecord{}}
	if tick, err := readTickInUsec(); err == nil {
		f.tickInUsec = tick
	}
	return f, nil
}

func (f *Facade) Close() error { return unix.Close(f.fd) }

func (f *Facade) usecToTick(us int64) uint32 {
	return uint32(float64(us) * f.tickInUsec)
}

func pipeDevice(pipeID int) string { return fmt.Sprintf("qomet-pipe%d", pipeID) }

// ConfigurePipe (re)installs pipeID's device's root netem qdisc with the
// given rate/delay/loss, idempotent via NLM_F_CREATE|NLM_F_REPLACE.
func (f *Facade) ConfigurePipe(pipeID int, rateBps float64, delay time.Duration, lossFraction float64) error {
	idx, err := ifindex(pipeDevice(pipeID))
	if err != nil {
		return fmt.Errorf("linuxtc: %w", err)
	}

	qopt := netemQopt{
		Latency: f.usecToTick(delay.Microseconds()),
		Limit:   1000,
		Loss:    uint32(lossFraction * float64(^uint32(0))),
	}

	opts := structBytes(qopt)
	if rateBps > 0 {
		rate := netemRate{Rate: uint32(rateBps / 8)}
		opts = append(opts, encodeAttr(tcaNetemRate, structBytes(rate))...)
	}

	payload := append(structBytes(tcMsg{
		Family:  unix.AF_UNSPEC,
		Ifindex: idx,
		Handle:  1 << 16,
		Parent:  tcHRoot,
	}), encodeAttr(tcaKind, nulTerminated("netem"))...)
	payload = append(payload, encodeNestedOptions(opts)...)

	return f.request(unix.RTM_NEWQDISC, unix.NLM_F_CREATE|unix.NLM_F_REPLACE, payload)
}

// AddRule installs a route sending matchCIDR (srcCIDR for inbound rules,
// dstCIDR for outbound ones) through pipeID's device, and returns a
// handle that later deletes exactly that route.
func (f *Facade) AddRule(srcCIDR, dstCIDR string, pipeID int, dir shaper.Direction) (shaper.RuleHandle, error) {
	cidr := dstCIDR
	if dir == shaper.DirectionIn {
		cidr = srcCIDR
	}
	idx, err := ifindex(pipeDevice(pipeID))
	if err != nil {
		return "", fmt.Errorf("linuxtc: %w", err)
	}

	if err := f.addRoute(cidr, idx); err != nil {
		return "", err
	}

	h := shaper.RuleHandle(uuid.NewString())
	f.mu.Lock()
	f.rules[h] = ruleRecord{cidr: cidr, oif: idx, dir: dir}
	f.mu.Unlock()
	return h, nil
}

// DeleteRule removes the route AddRule installed for handle.
func (f *Facade) DeleteRule(handle shaper.RuleHandle) error {
	f.mu.Lock()
	rec, ok := f.rules[handle]
	delete(f.rules, handle)
	f.mu.Unlock()
	if !ok {
		return fmt.Errorf("linuxtc: no such rule %s", handle)
	}
	return f.delRoute(rec.cidr, rec.oif)
}

func (f *Facade) addRoute(cidr string, oif int32) error {
	return f.routeRequest(unix.RTM_NEWROUTE, unix.NLM_F_CREATE|unix.NLM_F_REPLACE, cidr, oif)
}

func (f *Facade) delRoute(cidr string, oif int32) error {
	return f.routeRequest(unix.RTM_DELROUTE, 0, cidr, oif)
}

func (f *Facade) routeRequest(msgType uint16, extraFlags uint16, cidr string, oif int32) error {
	ip, prefix, err := net.ParseCIDR(cidr)
	if err != nil {
		return fmt.Errorf("linuxtc: invalid CIDR %q: %w", cidr, err)
	}
	ones, _ := prefix.Mask.Size()

	rt := unix.RtMsg{
		Family:   unix.AF_INET,
		Dst_len:  uint8(ones),
		Table:    unix.RT_TABLE_MAIN,
		Protocol: unix.RTPROT_STATIC,
		Scope:    unix.RT_SCOPE_LINK,
		Type:     unix.RTN_UNICAST,
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return fmt.Errorf("linuxtc: only IPv4 CIDRs are supported, got %q", cidr)
	}

	payload := append(structBytes(rt), encodeAttr(rtaDst, ip4)...)
	payload = append(payload, encodeAttr(rtaOif, structBytes(uint32(oif)))...)

	return f.request(msgType, extraFlags, payload)
}

// request wraps payload in an NlMsghdr, sends it, and waits for the
// kernel's ack, translating a netlink error ack into a Go error.
func (f *Facade) request(msgType uint16, extraFlags uint16, payload []byte) error {
	f.seq++
	seq := f.seq

	hdr := unix.NlMsghdr{
		Len:   uint32(unix.SizeofNlMsghdr + len(payload)),
		Type:  msgType,
		Flags: unix.NLM_F_REQUEST | unix.NLM_F_ACK | extraFlags,
		Seq:   seq,
	}
	msg := append(structBytes(hdr), payload...)

	if err := unix.Sendto(f.fd, msg, 0, &unix.SockaddrNetlink{Family: unix.AF_NETLINK}); err != nil {
		return fmt.Errorf("linuxtc: sendto: %w", err)
	}

	buf := make([]byte, 4096)
	n, _, err := unix.Recvfrom(f.fd, buf, 0)
	if err != nil {
		return fmt.Errorf("linuxtc: recvfrom: %w", err)
	}
	return parseAck(buf[:n])
}

func parseAck(buf []byte) error {
	if len(buf) < unix.SizeofNlMsghdr+4 {
		return fmt.Errorf("linuxtc: short netlink ack (%d bytes)", len(buf))
	}
	var hdr unix.NlMsghdr
	readStruct(buf, &hdr)
	if hdr.Type != unix.NLMSG_ERROR {
		return fmt.Errorf("linuxtc: unexpected netlink reply type %d", hdr.Type)
	}
	errno := int32(binary.NativeEndian.Uint32(buf[unix.SizeofNlMsghdr:]))
	if errno != 0 {
		return fmt.Errorf("linuxtc: netlink error: %w", unix.Errno(-errno))
	}
	return nil
}

func ifindex(name string) (int32, error) {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return 0, fmt.Errorf("resolving device %q: %w", name, err)
	}
	return int32(iface.Index), nil
}

// readTickInUsec reads the three hex fields /proc/net/psched exposes
// (t2us, us2t, clock_res) and derives tick_in_usec the way tc_core.c's
// tc_core_init does.
func readTickInUsec() (float64, error) {
	data, err := readFile("/proc/net/psched")
	if err != nil {
		return 1, err
	}
	var t2us, us2t, clockRes uint32
	if _, err := fmt.Sscanf(string(data), "%08x%08x%08x", &t2us, &us2t, &clockRes); err != nil {
		return 1, err
	}
	if us2t == 0 {
		return 1, fmt.Errorf("linuxtc: zero us2t in /proc/net/psched")
	}
	return float64(t2us) / float64(us2t), nil
}
