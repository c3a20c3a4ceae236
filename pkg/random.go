package pkg

import (
	"math/rand/v2"
	"time"
)

// Rand is the source of every probabilistic choice in the engine
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// Clock supplies the current time
type Clock interface {
	Now() time.Time
}

type systemRand struct{}

func (systemRand) Float64() float64 { return rand.Float64() }
func (systemRand) IntN(n int) int   { return rand.IntN(n) }

// SystemRand returns a Rand backed by math/rand/v2
func SystemRand() Rand { return systemRand{} }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock
func SystemClock() Clock { return systemClock{} }

// Pick returns a random element of items. items must not be empty.
func Pick[T any](r Rand, items []T) T {
	return items[r.IntN(len(items))]
}
