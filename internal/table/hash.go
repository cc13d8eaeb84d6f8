package table

const (
	fnvOffset = 14695981039346656037
	fnvPrime  = 1099511628211
)

// hasher is FNV-1a over the name bytes, mixed with a fixed per-table seed.
// It carries no shared state, so every table builds its own.
type hasher struct {
	seed uint64
}

func newHasher() hasher {
	return hasher{seed: fnvOffset}
}

func (h hasher) sum(b []byte) uint64 {
	x := h.seed
	for _, c := range b {
		x ^= uint64(c)
		x *= fnvPrime
	}
	// fold the high bits down, the slot index only uses the low ones
	return x ^ x>>32
}
