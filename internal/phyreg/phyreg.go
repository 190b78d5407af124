// Package phyreg wires a phy.Registry with every standard's Model, the
// one piece of construction both cmd/qomet-engine and any future
// engine-embedding caller need identically.
package phyreg

import (
	"fmt"

	"github.com/qomet-project/qomet/internal/phy"
	"github.com/qomet-project/qomet/internal/phy/activetag"
	"github.com/qomet-project/qomet/internal/phy/ethernet"
	"github.com/qomet-project/qomet/internal/phy/wimax"
	"github.com/qomet-project/qomet/internal/phy/wlan"
	"github.com/qomet-project/qomet/internal/phy/zigbee"
	"github.com/qomet-project/qomet/internal/scenario"
)

// Default builds a phy.Registry serving every supported PHY/MAC
// standard.
func Default() (*phy.Registry, error) {
	reg := phy.NewRegistry()
	reg.Register(wlan.New(), scenario.Standard80211a, scenario.Standard80211b, scenario.Standard80211g)
	reg.Register(ethernet.New(), scenario.StandardEthernet10, scenario.StandardEthernet100, scenario.StandardEthernet1000)
	reg.Register(zigbee.New(), scenario.StandardZigBee)
	reg.Register(activetag.New(), scenario.StandardActiveTag)

	wimaxModel, err := wimax.New()
	if err != nil {
		return nil, fmt.Errorf("phyreg: wimax: %w", err)
	}
	reg.Register(wimaxModel, scenario.Standard80216e)

	return reg, nil
}
