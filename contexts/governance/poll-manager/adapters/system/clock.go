package system

import (
	"context"
	"errors"
	"sync"
	"time"
)

// SystemClock implements ports.WallClock using wall-clock UTC time.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// ManualClock is a block-height clock advanced by its owner. Heights never
// move backwards.
type ManualClock struct {
	mu     sync.Mutex
	height uint64
}

func NewManualClock(height uint64) *ManualClock {
	return &ManualClock{height: height}
}

func (c *ManualClock) CurrentHeight(context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.height, nil
}

// SetHeight moves the clock to height. Lower heights are ignored.
func (c *ManualClock) SetHeight(height uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if height > c.height {
		c.height = height
	}
}

func (c *ManualClock) Advance(blocks uint64) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.height += blocks
	return c.height
}

// IntervalClock derives the block height from the time elapsed since
// Genesis, one block per Interval.
type IntervalClock struct {
	Genesis  time.Time
	Interval time.Duration
	Now      func() time.Time
}

func (c IntervalClock) CurrentHeight(context.Context) (uint64, error) {
	if c.Interval <= 0 {
		return 0, errors.New("block interval must be positive")
	}
	now := time.Now()
	if c.Now != nil {
		now = c.Now()
	}
	if now.Before(c.Genesis) {
		return 0, nil
	}
	return uint64(now.Sub(c.Genesis) / c.Interval), nil
}
