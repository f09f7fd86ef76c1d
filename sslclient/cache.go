package sslclient

import (
	"net/netip"

	"gossl/internal/metrics"
	"gossl/util"
)

// DefaultCacheSize is the session-cache capacity used when none is
// configured.  Each slot costs a little over MaxSessionData bytes of
// fixed memory, so capacities above recommendedCacheMax draw a warning.
const (
	DefaultCacheSize    = 2
	recommendedCacheMax = 3
	maxCacheSize        = 255
)

// Cache is a fixed-capacity, ordered collection of Sessions indexed by
// server identity.  Capacity is immutable after construction; exactly
// capacity slots always exist, each either empty or populated.  Lookups
// never fail — a miss hands back the next slot of a round-robin
// rotation for the caller to overwrite.
type Cache struct {
	slots []Session
	next  int // round-robin fallback index, advances one per miss
	log   *util.Logger
	stats *metrics.Collector
}

// NewCache allocates all capacity slots up front.  Capacity is clamped
// to [1, 255]; values above the recommended maximum are accepted with
// a warning, since each slot permanently holds its full buffer.
func NewCache(capacity int, logger *util.Logger, stats *metrics.Collector) *Cache {
	switch {
	case capacity < 1:
		capacity = 1
	case capacity > maxCacheSize:
		logger.Warn("session cache capacity %d clamped to %d", capacity, maxCacheSize)
		capacity = maxCacheSize
	}
	if capacity > recommendedCacheMax {
		logger.Warn("session cache capacity %d holds %d KiB of fixed memory; %d or fewer is recommended",
			capacity, capacity*MaxSessionData/1024, recommendedCacheMax)
	}
	return &Cache{
		slots: make([]Session, capacity),
		log:   logger,
		stats: stats,
	}
}

// Size returns the immutable slot count.
func (c *Cache) Size() int { return len(c.slots) }

// Get returns the session slot for the given identity, or — on a miss
// — the next candidate slot in round-robin order for the caller to
// overwrite.  A reference to some slot is always produced.
//
// Matching is exact: the hostname pass runs over every slot before the
// address pass, so a hostname match in a later slot wins over an
// address match in an earlier one.  Pass an empty host (or the zero
// Addr) to skip the corresponding pass.
//
// The returned slot may still hold a stale session from a prior
// identity; the connection controller treats it as material to consult
// for resumption and finalizes the identity association only after a
// successful handshake.
func (c *Cache) Get(host string, addr netip.Addr) *Session {
	if i, ok := c.lookup(host, addr); ok {
		c.stats.CacheHit()
		c.log.Debug("session cache hit: slot %d (%s)", i, describeIdentity(host, addr))
		return &c.slots[i]
	}

	// Miss: rotate.  The index advances on every miss so repeated
	// misses cycle through all slots instead of always evicting the
	// same one.
	i := c.next
	c.next = (c.next + 1) % len(c.slots)
	if !c.slots[i].empty() {
		c.stats.CacheEviction()
		c.log.Debug("session cache miss for %s: rotating into slot %d (evicts %s)",
			describeIdentity(host, addr), i, describeIdentity(c.slots[i].host, c.slots[i].addr))
	} else {
		c.log.Debug("session cache miss for %s: using empty slot %d",
			describeIdentity(host, addr), i)
	}
	return &c.slots[i]
}

// Remove clears the session matching the given identity back to the
// empty state, erasing identity and resumption material.  A no-op when
// nothing matches.
func (c *Cache) Remove(host string, addr netip.Addr) {
	if i, ok := c.lookup(host, addr); ok {
		c.log.Debug("session cache: clearing slot %d (%s)", i, describeIdentity(host, addr))
		c.slots[i].clear()
	}
}

// lookup scans for an exact identity match, hostname pass first.
func (c *Cache) lookup(host string, addr netip.Addr) (int, bool) {
	if host != "" {
		for i := range c.slots {
			if c.slots[i].host == host {
				return i, true
			}
		}
	}
	if addr.IsValid() {
		for i := range c.slots {
			if c.slots[i].addr == addr {
				return i, true
			}
		}
	}
	return 0, false
}

func describeIdentity(host string, addr netip.Addr) string {
	switch {
	case host != "" && addr.IsValid():
		return host + "/" + addr.String()
	case host != "":
		return host
	case addr.IsValid():
		return addr.String()
	default:
		return "<none>"
	}
}
