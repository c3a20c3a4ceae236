package pkg

import "time"

// ScriptedRand replays predetermined draws. When a script runs out the last
// value repeats; an empty script yields zero.
type ScriptedRand struct {
	Floats []float64
	Ints   []int

	fi, ii int
}

// Float64 returns the next scripted float
func (s *ScriptedRand) Float64() float64 {
	if len(s.Floats) == 0 {
		return 0
	}
	if s.fi >= len(s.Floats) {
		return s.Floats[len(s.Floats)-1]
	}
	v := s.Floats[s.fi]
	s.fi++
	return v
}

// IntN returns the next scripted int, clamped into [0, n)
func (s *ScriptedRand) IntN(n int) int {
	if len(s.Ints) == 0 || n <= 0 {
		return 0
	}
	var v int
	if s.ii >= len(s.Ints) {
		v = s.Ints[len(s.Ints)-1]
	} else {
		v = s.Ints[s.ii]
		s.ii++
	}
	if v >= n {
		v = n - 1
	}
	if v < 0 {
		v = 0
	}
	return v
}

// ManualClock is a Clock that only moves when told to
type ManualClock struct {
	T time.Time
}

// Now returns the current manual time
func (c *ManualClock) Now() time.Time { return c.T }

// Advance moves the clock forward
func (c *ManualClock) Advance(d time.Duration) { c.T = c.T.Add(d) }
