package similarity

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrEmptySequences is returned when both compared sequences are empty and the
// normalized distance would divide by zero.
var ErrEmptySequences = errors.New("division by zero: both token sequences are empty")

// RoundingMode selects how scores are rounded to two decimals.
type RoundingMode string

const (
	// RoundHalfEven rounds exact halves to the even neighbour (0.125 -> 0.12).
	RoundHalfEven RoundingMode = "half_even"
	// RoundHalfAway rounds halves away from zero.
	RoundHalfAway RoundingMode = "half_away"
)

// EmptyPolicy decides what comparing two empty sequences yields.
type EmptyPolicy string

const (
	// EmptyFail reports ErrEmptySequences.
	EmptyFail EmptyPolicy = "fail"
	// EmptyIdentical treats two empty sequences as identical (score 1.0).
	EmptyIdentical EmptyPolicy = "identical"
)

// Engine converts token edit distance into a similarity score.
type Engine struct {
	Rounding    RoundingMode
	EmptyPolicy EmptyPolicy
}

// NewEngine creates an engine, falling back to half-even rounding and the
// failing empty policy for zero values.
func NewEngine(rounding RoundingMode, emptyPolicy EmptyPolicy) *Engine {
	if rounding == "" {
		rounding = RoundHalfEven
	}
	if emptyPolicy == "" {
		emptyPolicy = EmptyFail
	}
	return &Engine{
		Rounding:    rounding,
		EmptyPolicy: emptyPolicy,
	}
}

// Score returns 1 - distance(a, b)/max(len(a), len(b)) rounded to two decimals.
func (e *Engine) Score(a, b []string) (float64, error) {
	longest := max(len(a), len(b))
	if longest == 0 {
		if e.EmptyPolicy == EmptyIdentical {
			return 1.0, nil
		}
		return 0, ErrEmptySequences
	}

	distance := Distance(a, b)
	score := 1 - float64(distance)/float64(longest)

	return Round(score, e.Rounding), nil
}

// Round rounds the exact binary value of v to two decimal places. Scaling by
// 100 first would round twice (0.975 is stored as 0.97499..., so it must
// give 0.97).
func Round(v float64, mode RoundingMode) float64 {
	// Only multiples of 1/8 can sit exactly halfway between two cents.
	if mode == RoundHalfAway && v*8 == math.Trunc(v*8) {
		return math.Round(v*100) / 100
	}

	rounded, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	if err != nil {
		return math.RoundToEven(v*100) / 100
	}
	return rounded
}

// FormatScore renders a score the way Python prints a float: the shortest
// representation, always with a fractional part ("1.0", "0.87", "0.5").
func FormatScore(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// ParseRoundingMode validates a configured rounding mode.
func ParseRoundingMode(s string) (RoundingMode, error) {
	switch RoundingMode(s) {
	case RoundHalfEven, RoundHalfAway:
		return RoundingMode(s), nil
	}
	return "", fmt.Errorf("unknown rounding mode %q (want %q or %q)", s, RoundHalfEven, RoundHalfAway)
}

// ParseEmptyPolicy validates a configured empty-pair policy.
func ParseEmptyPolicy(s string) (EmptyPolicy, error) {
	switch EmptyPolicy(s) {
	case EmptyFail, EmptyIdentical:
		return EmptyPolicy(s), nil
	}
	return "", fmt.Errorf("unknown empty pair policy %q (want %q or %q)", s, EmptyFail, EmptyIdentical)
}
