package srs

import (
	"fmt"
	"math"

	"github.com/doubtroom/flashcard-srs/internal/models"
)

// Policy holds the parameters of the interval curve. NextInterval is pure and
// deterministic: identical inputs always produce identical outputs.
type Policy struct {
	FirstHardDays   int
	FirstMediumDays int
	FirstEasyDays   int

	HardFactor   float64
	MediumFactor float64
	EasyFactor   float64

	MinEasyDays int

	// EarlyHardCapDays bounds the hard interval while a card is still young
	// (at most one prior review).
	EarlyHardCapDays int

	// MaxIntervalDays bounds every computed interval so repeated easy ratings
	// cannot push a card years into the future.
	MaxIntervalDays int
}

func DefaultPolicy() *Policy {
	return &Policy{
		FirstHardDays:    1,
		FirstMediumDays:  3,
		FirstEasyDays:    7,
		HardFactor:       1.2,
		MediumFactor:     2.0,
		EasyFactor:       3.0,
		MinEasyDays:      3,
		EarlyHardCapDays: 10,
		MaxIntervalDays:  365,
	}
}

// InvalidIntervalError indicates a malformed current interval. It is a caller
// bug and is never retried.
type InvalidIntervalError struct {
	IntervalDays int
}

func (e *InvalidIntervalError) Error() string {
	return fmt.Sprintf("invalid current interval: %d days", e.IntervalDays)
}

// NextInterval maps the current interval and a submitted rating to the next
// interval in days. A current interval of 0 is the first-review sentinel;
// anything negative is rejected. reviewCount is the number of ratings already
// recorded before this one.
func (p *Policy) NextInterval(currentIntervalDays, reviewCount int, difficulty models.Difficulty) (int, error) {
	if currentIntervalDays < 0 {
		return 0, &InvalidIntervalError{IntervalDays: currentIntervalDays}
	}

	if currentIntervalDays == 0 {
		switch difficulty {
		case models.DifficultyHard:
			return p.FirstHardDays, nil
		case models.DifficultyMedium:
			return p.FirstMediumDays, nil
		case models.DifficultyEasy:
			return p.FirstEasyDays, nil
		}
		return 0, fmt.Errorf("unknown difficulty rating: %q", difficulty)
	}

	var next int
	switch difficulty {
	case models.DifficultyHard:
		next = int(math.Floor(float64(currentIntervalDays) * p.HardFactor))
		if next < 1 {
			next = 1
		}
		if reviewCount <= 1 && next > p.EarlyHardCapDays {
			next = p.EarlyHardCapDays
		}
	case models.DifficultyMedium:
		next = int(math.Floor(float64(currentIntervalDays) * p.MediumFactor))
		if next < 1 {
			next = 1
		}
	case models.DifficultyEasy:
		next = int(math.Floor(float64(currentIntervalDays) * p.EasyFactor))
		if next < p.MinEasyDays {
			next = p.MinEasyDays
		}
	default:
		return 0, fmt.Errorf("unknown difficulty rating: %q", difficulty)
	}

	if next > p.MaxIntervalDays {
		next = p.MaxIntervalDays
	}

	return next, nil
}
