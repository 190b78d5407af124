package interference

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/qomet-project/qomet/internal/phy/zigbee"
	"github.com/qomet-project/qomet/internal/scenario"
)

// attenuationKey identifies one inter-channel attenuation lookup: the
// interfering connection's standard/current rate and the channel
// distance to the affected connection. Unlike the virtual connection's
// Pr (which depends on a fresh shadow-fading draw every sweep and so can
// never be cached without breaking RNG-stream determinism), the
// attenuation table lookup is a pure function of these three values and
// is safe to memoize.
type attenuationKey struct {
	standard scenario.StandardKind
	rateIdx  int
	distance int
}

// AttenuationCache bounds the working set of inter-channel attenuation
// lookups during a sweep, backed by golang-lru rather than a
// hand-rolled map+eviction list.
type AttenuationCache struct {
	wlan    *lru.Cache[attenuationKey, float64]
	zigbee  *lru.Cache[int, float64]
}

// DefaultAttenuationCacheSize bounds each table's entry count; channel
// distances are small integers (0-13) crossed with a handful of
// standards/rates, so this comfortably covers any scenario without
// growing unbounded.
const DefaultAttenuationCacheSize = 256

// NewAttenuationCache builds an empty, bounded cache.
func NewAttenuationCache() *AttenuationCache {
	wlanCache, _ := lru.New[attenuationKey, float64](DefaultAttenuationCacheSize)
	zigbeeCache, _ := lru.New[int, float64](DefaultAttenuationCacheSize)
	return &AttenuationCache{wlan: wlanCache, zigbee: zigbeeCache}
}

func (c *AttenuationCache) wlanAttenuation(standard scenario.StandardKind, rateIdx, distance int) float64 {
	if c == nil {
		return wlanChannelAttenuationDB(standard, rateIdx, distance)
	}
	key := attenuationKey{standard: standard, rateIdx: rateIdx, distance: distance}
	if v, ok := c.wlan.Get(key); ok {
		return v
	}
	v := wlanChannelAttenuationDB(standard, rateIdx, distance)
	c.wlan.Add(key, v)
	return v
}

func (c *AttenuationCache) zigbeeAttenuation(distance int) float64 {
	if c == nil {
		return zigbee.ChannelAttenuationDB(distance)
	}
	if v, ok := c.zigbee.Get(distance); ok {
		return v
	}
	v := zigbee.ChannelAttenuationDB(distance)
	c.zigbee.Add(distance, v)
	return v
}
