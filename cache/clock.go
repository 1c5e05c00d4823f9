package cache

import (
	"sync/atomic"
	"time"
)

// Clock supplies access ticks; larger means later.
// Implementations used by Shared must be safe for concurrent use.
type Clock interface{ Now() int64 }

// Counter is a logical clock: every reading is one greater than the last.
// It is safe for concurrent use. The zero value starts at 1.
type Counter struct{ n atomic.Int64 }

// NewCounter returns a Counter whose first reading is 1.
func NewCounter() *Counter { return &Counter{} }

func (c *Counter) Now() int64 { return c.n.Add(1) }

// WallClock reads time.Now in UnixNano.
type WallClock struct{}

func (WallClock) Now() int64 { return time.Now().UnixNano() }
