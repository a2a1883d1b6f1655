package domain

import (
	"time"
)

// ExchangeRate is a single stored quotation: Rate units of the base
// currency buy one unit of the target currency on Date. A rate is unique
// per (Base, Target, Date) and is never mutated; re-saving the same key
// replaces the stored value.
type ExchangeRate struct {
	Base   string
	Target string
	Rate   float64
	Date   time.Time
}

// Day truncates t to calendar-day granularity in UTC. All rate keys and
// lookups operate on day precision.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
