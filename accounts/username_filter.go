package accounts

import (
	"hash/fnv"
	"math"
	"math/bits"
	"sync"
)

// UsernameFilter is a bloom filter over known usernames. A negative answer
// is definite, a positive one still has to be confirmed by the repository.
type UsernameFilter struct {
	mu     sync.RWMutex
	words  []uint64
	size   uint64
	probes uint64
	count  int
}

// NewUsernameFilter sizes the filter for capacity usernames at the given
// false positive rate.
func NewUsernameFilter(capacity uint, falsePositiveRate float64) *UsernameFilter {
	capacity = max(capacity, 1)

	if falsePositiveRate <= 0 || falsePositiveRate >= 1 {
		falsePositiveRate = 0.01
	}

	size := filterSize(capacity, falsePositiveRate)

	return &UsernameFilter{
		words:  make([]uint64, (size+63)/64),
		size:   size,
		probes: probeCount(size, capacity),
	}
}

// filterSize is m = -n*ln(p) / ln(2)^2.
func filterSize(capacity uint, falsePositiveRate float64) uint64 {
	m := -float64(capacity) * math.Log(falsePositiveRate) / (math.Ln2 * math.Ln2)

	return max(uint64(math.Ceil(m)), 64)
}

// probeCount is k = m/n * ln(2).
func probeCount(size uint64, capacity uint) uint64 {
	k := math.Round(float64(size) / float64(capacity) * math.Ln2)

	return max(uint64(k), 1)
}

// hashPair splits one 64-bit FNV-1a sum into the two halves used for double
// hashing. The step is odd so it walks every bit.
func hashPair(username string) (uint64, uint64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(username))
	sum := h.Sum64()

	return sum & math.MaxUint32, (sum >> 32) | 1
}

func (f *UsernameFilter) eachBit(username string, fn func(word int, mask uint64) bool) {
	base, step := hashPair(username)

	for i := range f.probes {
		pos := (base + i*step) % f.size
		if !fn(int(pos/64), uint64(1)<<(pos%64)) {
			return
		}
	}
}

func (f *UsernameFilter) Add(username string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.eachBit(username, func(word int, mask uint64) bool {
		f.words[word] |= mask

		return true
	})

	f.count++
}

// MayContain reports false only when username was never added.
func (f *UsernameFilter) MayContain(username string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	found := true

	f.eachBit(username, func(word int, mask uint64) bool {
		found = f.words[word]&mask != 0

		return found
	})

	return found
}

// Len is the number of Add calls, duplicates included.
func (f *UsernameFilter) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.count
}

// FillRatio is the share of bits set. Above one half the false positive rate
// climbs quickly and the filter should be rebuilt larger.
func (f *UsernameFilter) FillRatio() float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()

	set := 0
	for _, word := range f.words {
		set += bits.OnesCount64(word)
	}

	return float64(set) / float64(f.size)
}
