package value

// PrngStream is a deterministic pseudo-random stream. It is a splitmix64
// generator: simple, fast, and — critically for the genotype engine's
// reproducibility invariant (spec.md §8) — fully determined by its seed.
type PrngStream struct {
	state uint64
}

// NewPrngStream seeds a fresh stream.
func NewPrngStream(seed uint64) *PrngStream { return &PrngStream{state: seed} }

// NextUint64 advances the stream and returns the next raw 64-bit value.
func (p *PrngStream) NextUint64() uint64 {
	p.state += 0x9E3779B97F4A7C15
	z := p.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// NextFloat returns a float64 in [0, 1).
func (p *PrngStream) NextFloat() float64 {
	return float64(p.NextUint64()>>11) / (1 << 53)
}

// NextRange returns a float64 in [lo, hi).
func (p *PrngStream) NextRange(lo, hi float64) float64 {
	return lo + p.NextFloat()*(hi-lo)
}

// PrngState is the Var handle variant wrapping a PRNG stream (spec.md §3).
// It uses shared-read semantics: cloning a VM stack cell that holds a
// PrngState shares the same underlying stream, and since the VM is
// single-threaded that is sufficient to let `prng/value` calls advance a
// single logical stream across repeated native invocations.
type PrngState struct {
	Stream *PrngStream
}

func (PrngState) Type() string     { return "prng-state" }
func (PrngState) String() string   { return "PrngState(...)" }

var _ Var = PrngState{}

// Perlin2D returns 2D Perlin noise at (x, y), using the stream's current
// state to permute the standard 256-entry gradient permutation table
// (Ken Perlin's reference permutation, shuffled per call from that state so
// that distinct stream states produce distinct noise fields). Perlin2D does
// not advance the stream; every NextUint64 call does, and so changes the
// field later Perlin2D calls see.
func (p *PrngStream) Perlin2D(x, y float64) float64 {
	perm := p.permutation()
	fade := func(t float64) float64 { return t * t * t * (t*(t*6-15) + 10) }
	lerp := func(t, a, b float64) float64 { return a + t*(b-a) }
	grad := func(hash int, x, y float64) float64 {
		h := hash & 3
		var u, v float64
		if h&1 == 0 {
			u = x
		} else {
			u = -x
		}
		if h&2 == 0 {
			v = y
		} else {
			v = -y
		}
		return u + v
	}

	xi := int(x) & 255
	yi := int(y) & 255
	xf := x - float64(int(x))
	yf := y - float64(int(y))
	if x < 0 {
		xf++
	}
	if y < 0 {
		yf++
	}
	u := fade(xf)
	v := fade(yf)

	aa := perm[(perm[xi]+yi)&255]
	ab := perm[(perm[xi]+yi+1)&255]
	ba := perm[(perm[xi+1]+yi)&255]
	bb := perm[(perm[xi+1]+yi+1)&255]

	x1 := lerp(u, grad(aa, xf, yf), grad(ba, xf-1, yf))
	x2 := lerp(u, grad(ab, xf, yf-1), grad(bb, xf-1, yf-1))
	return lerp(v, x1, x2)
}

func (p *PrngStream) permutation() [512]int {
	var base [256]int
	for i := range base {
		base[i] = i
	}
	// Fisher-Yates shuffle driven deterministically by the stream's current
	// state, so Perlin2D is stable while the stream is not advanced.
	seeded := NewPrngStream(p.state ^ 0xD1B54A32D192ED03)
	for i := 255; i > 0; i-- {
		j := int(seeded.NextUint64() % uint64(i+1))
		base[i], base[j] = base[j], base[i]
	}
	var perm [512]int
	for i := 0; i < 512; i++ {
		perm[i] = base[i&255]
	}
	return perm
}
