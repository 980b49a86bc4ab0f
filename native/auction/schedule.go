package auction

import "strings"

const (
	// DefaultDuration is the auction window applied when no override is
	// configured: one full day per roster slot.
	DefaultDuration int64 = 86400
	// MaxCycles caps how many times any roster token re-enters rotation.
	MaxCycles uint64 = 20
	// ReverseEvery marks every fourth appearance of a token as a reverse
	// (settlement-for-token) window.
	ReverseEvery uint64 = 4
)

// Schedule is the rotation record installed exactly once by the
// administrative delegate. Every window assignment afterwards is a pure
// function of (now - StartTime); nothing about the rotation is cached.
type Schedule struct {
	Tokens    []string
	StartTime int64
	Duration  int64
	Gap       int64
	DaysLimit uint64
}

// SlotDuration is the stride between consecutive window starts.
func (s *Schedule) SlotDuration() int64 { return s.Duration + s.Gap }

// TokenIndex locates a symbol on the roster, -1 when absent.
func (s *Schedule) TokenIndex(symbol string) int {
	for i, token := range s.Tokens {
		if token == symbol {
			return i
		}
	}
	return -1
}

// Appearances counts the slots assigned to the roster index with slot number
// at most current. The count is 1-based: the slot that introduces a token is
// its first appearance.
func (s *Schedule) Appearances(index int, current uint64) uint64 {
	n := uint64(len(s.Tokens))
	count := current / n
	if current%n >= uint64(index) {
		count++
	}
	return count
}

// Slot describes the rotation position resolved for a point in time.
type Slot struct {
	Number      uint64
	Index       int
	Token       string
	WindowStart int64
	WindowEnd   int64
	Active      bool
	Appearance  uint64
	Reverse     bool
}

// Resolve computes the slot covering now. Callers guarantee now is not before
// StartTime and the roster is non-empty.
func (s *Schedule) Resolve(now int64) *Slot {
	stride := s.SlotDuration()
	number := uint64((now - s.StartTime) / stride)
	index := int(number % uint64(len(s.Tokens)))
	windowStart := s.StartTime + int64(number)*stride
	windowEnd := windowStart + s.Duration
	appearance := s.Appearances(index, number)
	return &Slot{
		Number:      number,
		Index:       index,
		Token:       s.Tokens[index],
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		Active:      now < windowEnd,
		Appearance:  appearance,
		Reverse:     appearance%ReverseEvery == 0,
	}
}

// NormalizeSymbol canonicalises a roster symbol for lookups.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
