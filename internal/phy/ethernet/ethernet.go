// Package ethernet implements phy.Model for wired 10/100/1000 Mbps
// Ethernet, grounded on deltaQ/ethernet.c: no RF propagation, no errors,
// no jitter -- delay is the two endpoints' internal delay only and
// bandwidth is the nominal link rate.
package ethernet

import (
	"github.com/qomet-project/qomet/internal/geo"
	"github.com/qomet-project/qomet/internal/phy"
	"github.com/qomet-project/qomet/internal/scenario"
)

// OperatingRates mirrors ethernet.c's eth_operating_rates[].
var OperatingRates = map[scenario.StandardKind]float64{
	scenario.StandardEthernet10:   10e6,
	scenario.StandardEthernet100:  100e6,
	scenario.StandardEthernet1000: 1000e6,
}

// Model implements phy.Model for wired Ethernet.
type Model struct{}

// New returns the shared Ethernet model.
func New() *Model { return &Model{} }

// UpdateConnection implements ethernet_connection_update: distance only,
// no Pr -- there is no RF propagation to model.
func (m *Model) UpdateConnection(c *phy.Ctx) error {
	conn := c.Conn
	txPos := c.TxNode.Position
	rxPos := c.RxNode.Position
	conn.DistanceM = geo.Distance(toArr(txPos), toArr(rxPos))
	return nil
}

func toArr(c scenario.Coordinate) [3]float64 { return [3]float64(c) }

// FER implements ethernet_fer: bit-error FER is assumed zero on wired
// Ethernet.
func (m *Model) FER(c *phy.Ctx) (float64, error) {
	c.Conn.FER = 0
	return 0, nil
}

// LossRate implements ethernet_loss_rate: equals FER (zero); the original
// notes packet size and congestion would also contribute but are not
// modeled.
func (m *Model) LossRate(c *phy.Ctx) (float64, error) {
	return m.FER(c)
}

// OperatingRate is a no-op: ethernet_operating_rate passes the configured
// rate through unchanged (no auto-negotiation between mismatched link
// speeds is modeled).
func (m *Model) OperatingRate(c *phy.Ctx) error {
	c.Conn.NewOperatingRate = c.Conn.OperatingRate
	return nil
}

// DelayJitter implements ethernet_delay_jitter: no variable component,
// delay is the sum of the two endpoints' internal delays, jitter is zero.
func (m *Model) DelayJitter(c *phy.Ctx) (float64, float64, error) {
	delayMs := float64(c.TxNode.InternalDelay.Microseconds())/1000.0 + float64(c.RxNode.InternalDelay.Microseconds())/1000.0
	c.Conn.Dynamic.DelayMs = delayMs
	c.Conn.Dynamic.JitterMs = 0
	return delayMs, 0, nil
}

// Bandwidth implements ethernet_bandwidth: the nominal link rate for the
// connection's standard (10/100/1000 Mbps).
func (m *Model) Bandwidth(c *phy.Ctx) (float64, error) {
	bps := OperatingRates[c.Conn.Standard]
	c.Conn.Dynamic.BandwidthBps = bps
	return bps, nil
}
