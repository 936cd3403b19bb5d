package random

// Scripted is a deterministic Source that replays fixed sequences. Floats and
// Ints are consumed in order and wrap around when exhausted. Ints are reduced
// modulo n, so a scripted value is always a valid draw.
type Scripted struct {
	Floats []float64
	Ints   []int

	fi, ii int
}

func (s *Scripted) Float64() float64 {
	if len(s.Floats) == 0 {
		return 0
	}
	v := s.Floats[s.fi%len(s.Floats)]
	s.fi++
	return v
}

func (s *Scripted) Intn(n int) int {
	if n <= 0 {
		panic("random: Intn called with non-positive n")
	}
	if len(s.Ints) == 0 {
		return 0
	}
	v := s.Ints[s.ii%len(s.Ints)]
	s.ii++
	if v < 0 {
		v = -v
	}
	return v % n
}

// Always returns a Stream whose Float64 draws are all v and whose Intn draws
// are all 0. Always(1) makes every Chance fail, Always(0) makes every positive
// Chance succeed.
func Always(v float64) *Stream {
	return FromSource(&Scripted{Floats: []float64{v}})
}
