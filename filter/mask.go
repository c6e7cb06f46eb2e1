package filter

import (
	"github.com/phil-mansfield/picdiag"
	"github.com/phil-mansfield/picdiag/rand"
)

// ChunkSize is the number of particles which share one random stream in
// Mask. Changing it changes which particles a Random predicate keeps.
const ChunkSize = 1 << 12

// Mask evaluates every filter on every particle and returns a slice which
// is true for the particles selected by all of them. Each filter is called
// on every particle, so a Random predicate always consumes one draw per
// particle. The work is split across picdiag.NumCores goroutines. The
// result depends on seed but not on the number of goroutines.
func Mask(ps []picdiag.Particle, fs []Filter, seed uint64) []bool {
	mask := make([]bool, len(ps))
	chunks := (len(ps) + ChunkSize - 1) / ChunkSize
	if chunks == 0 {
		return mask
	}
	workers := picdiag.NumCores
	if workers > chunks {
		workers = chunks
	}
	if workers < 1 {
		workers = 1
	}

	out := make(chan int, workers)
	for id := 0; id < workers-1; id++ {
		go chanMask(id, workers, ps, fs, seed, mask, out)
	}
	chanMask(workers-1, workers, ps, fs, seed, mask, out)

	for i := 0; i < workers; i++ {
		<-out
	}
	return mask
}

func chanMask(
	id, workers int, ps []picdiag.Particle, fs []Filter,
	seed uint64, mask []bool, out chan<- int,
) {
	chunks := (len(ps) + ChunkSize - 1) / ChunkSize
	for c := id; c < chunks; c += workers {
		gen := rand.Stream(seed, c)
		end := (c + 1) * ChunkSize
		if end > len(ps) {
			end = len(ps)
		}

		for i := c * ChunkSize; i < end; i++ {
			keep := true
			for _, f := range fs {
				if !f.Select(&ps[i], gen) {
					keep = false
				}
			}
			mask[i] = keep
		}
	}
	out <- id
}

// Compact returns the particles whose mask entry is true, in their
// original order.
func Compact(ps []picdiag.Particle, mask []bool) []picdiag.Particle {
	out := make([]picdiag.Particle, 0, Count(mask))
	for i := range ps {
		if mask[i] {
			out = append(out, ps[i])
		}
	}
	return out
}

// Count returns the number of true entries in mask.
func Count(mask []bool) int {
	n := 0
	for _, ok := range mask {
		if ok {
			n++
		}
	}
	return n
}
