package money

import "fmt"

// Denominations is the descending euro note/coin ladder in cents:
// 20€, 10€, 5€, 2€, 1€, 50c, 20c, 10c, 5c, 2c, 1c.
// The ladder is a canonical coin system, so the greedy split below is
// guaranteed to use the minimal number of pieces.
var Denominations = []int64{2000, 1000, 500, 200, 100, 50, 20, 10, 5, 2, 1}

// Breakdown holds one piece count per ladder denomination, in ladder order.
type Breakdown struct {
	Counts []int64 `json:"counts"`
}

// NewBreakdown returns an all-zero breakdown.
func NewBreakdown() Breakdown {
	return Breakdown{Counts: make([]int64, len(Denominations))}
}

// Split decomposes a non-negative amount of cents into ladder denominations
// using greedy integer division. For every n >= 0, Split(n).Total() == n.
func Split(cents int64) (Breakdown, error) {
	if cents < 0 {
		return Breakdown{}, fmt.Errorf("%w: %d cents", ErrNegativeAmount, cents)
	}
	b := NewBreakdown()
	remaining := cents
	for i, denom := range Denominations {
		b.Counts[i] = remaining / denom
		remaining -= b.Counts[i] * denom
	}
	return b, nil
}

// Total returns the weighted sum of the breakdown in cents.
func (b Breakdown) Total() int64 {
	var sum int64
	for i, count := range b.Counts {
		sum += count * Denominations[i]
	}
	return sum
}

// Pieces returns the total number of notes and coins.
func (b Breakdown) Pieces() int64 {
	var n int64
	for _, count := range b.Counts {
		n += count
	}
	return n
}

// Add accumulates another breakdown into this one and returns the result.
func (b Breakdown) Add(other Breakdown) Breakdown {
	sum := NewBreakdown()
	for i := range Denominations {
		sum.Counts[i] = b.count(i) + other.count(i)
	}
	return sum
}

// Count returns the number of pieces of the given denomination value,
// e.g. Count(200) for two-euro coins.
func (b Breakdown) Count(denomination int64) int64 {
	for i, denom := range Denominations {
		if denom == denomination {
			return b.count(i)
		}
	}
	return 0
}

func (b Breakdown) count(i int) int64 {
	if i >= len(b.Counts) {
		return 0
	}
	return b.Counts[i]
}

// String renders the breakdown as a cashier-readable list, largest first,
// skipping zero counts.
func (b Breakdown) String() string {
	out := ""
	for i, denom := range Denominations {
		if b.count(i) == 0 {
			continue
		}
		if out != "" {
			out += ", "
		}
		out += fmt.Sprintf("%dx %s", b.count(i), Format(denom))
	}
	if out == "" {
		return "nothing"
	}
	return out
}
