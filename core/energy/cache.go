package energy

import "github.com/kilianp07/evdemand/core/logger"

// Inputs is the memoization key of a demand calculation. Target SOC and the
// battery profile are not part of it.
type Inputs struct {
	EnergyDeliveredKWh float64
	InitialSocPercent  int
}

// Entry is the last calculation kept by a Cache.
type Entry struct {
	Inputs   Inputs
	DemandWh int
}

// Cache remembers the last demand calculation. It is not safe for
// concurrent use; the owning request serializes access.
type Cache struct {
	last *Entry
	log  logger.Logger
}

// NewCache returns an empty cache logging recalculations to log.
func NewCache(log logger.Logger) *Cache {
	return &Cache{log: logger.OrNop(log)}
}

// Evaluate returns the stored demand when in equals the stored key. Otherwise
// it calls calc, stores the result under in and returns it. The float part of
// the key is compared exactly.
func (c *Cache) Evaluate(in Inputs, calc func(Inputs) int) int {
	if c.last != nil && c.last.Inputs == in {
		return c.last.DemandWh
	}
	c.log.Debugf("energy charged: %v kWh", in.EnergyDeliveredKWh)
	c.last = &Entry{Inputs: in, DemandWh: calc(in)}
	return c.last.DemandWh
}

// Last returns the stored calculation, if any.
func (c *Cache) Last() (Entry, bool) {
	if c.last == nil {
		return Entry{}, false
	}
	return *c.last, true
}
