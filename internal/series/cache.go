package series

import (
	"sync"
	"weak"
)

type field int

const (
	fieldOpen field = iota
	fieldHigh
	fieldLow
	fieldClose
	fieldVolume
	fieldOpenInterest
	fieldWeightedClose
	fieldTypicalPrice
	fieldMedianPrice
	fieldAveragePrice
	fieldTrueRange
	fieldCount
)

// projectionCache memoizes derived series through weak pointers, so the
// garbage collector may drop an entry once no caller holds it. A dropped
// entry is recomputed on the next load.
type projectionCache struct {
	mu      sync.Mutex
	entries [fieldCount]weak.Pointer[Numeric]
}

func (c *projectionCache) load(f field, compute func() *Numeric) *Numeric {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v := c.entries[f].Value(); v != nil {
		return v
	}
	v := compute()
	c.entries[f] = weak.Make(v)
	return v
}
