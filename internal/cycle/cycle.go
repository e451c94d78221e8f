// Package cycle computes the fixed-length assignment windows. Windows are
// counted in whole UTC days from an epoch, so the result never depends on the
// caller's time zone.
package cycle

import (
	"fmt"
	"time"
)

const (
	DefaultLengthDays = 14
	day               = 24 * time.Hour
)

// DefaultEpoch is the first day of cycle zero.
var DefaultEpoch = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

type Calculator struct {
	epoch      time.Time
	lengthDays int64
}

func NewCalculator(epoch time.Time, lengthDays int) (*Calculator, error) {
	if lengthDays <= 0 {
		return nil, fmt.Errorf("cycle length must be positive, got %d", lengthDays)
	}
	return &Calculator{
		epoch:      truncateDay(epoch),
		lengthDays: int64(lengthDays),
	}, nil
}

// Default returns the 14-day calculator anchored at DefaultEpoch.
func Default() *Calculator {
	return &Calculator{epoch: DefaultEpoch, lengthDays: DefaultLengthDays}
}

func (c *Calculator) Epoch() time.Time {
	return c.epoch
}

func (c *Calculator) Length() time.Duration {
	return time.Duration(c.lengthDays) * day
}

// Current returns the first day (00:00 UTC) of the window containing now.
func (c *Calculator) Current(now time.Time) time.Time {
	return c.epoch.AddDate(0, 0, int(c.Index(now)*c.lengthDays))
}

// Next returns the first day of the window after the one containing now.
func (c *Calculator) Next(now time.Time) time.Time {
	return c.Current(now).AddDate(0, 0, int(c.lengthDays))
}

// Index returns the window number of now; window zero starts at the epoch.
func (c *Calculator) Index(now time.Time) int64 {
	days := int64(truncateDay(now).Sub(c.epoch) / day)
	return floorDiv(days, c.lengthDays)
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
