package util

import (
	"math/bits"
	"runtime"
)

// maxShards caps automatic and requested shard counts.
const maxShards = 256

// IsPowerOfTwo reports whether x is a power of two (> 0).
func IsPowerOfTwo(x uint64) bool {
	return x != 0 && (x&(x-1)) == 0
}

// NextPow2 returns the smallest power of two >= x.
// x == 0 yields 1; results that would overflow are clamped to 1<<63.
func NextPow2(x uint64) uint64 {
	if x <= 1 {
		return 1
	}
	n := bits.Len64(x - 1)
	if n >= 64 {
		return 1 << 63
	}
	return 1 << n
}

// ReasonableShardCount picks a shard count from CPU parallelism:
// nextPow2(2*GOMAXPROCS), clamped to [1..256].
func ReasonableShardCount() int {
	p := runtime.GOMAXPROCS(0)
	if p < 1 {
		p = 1
	}
	return int(min(NextPow2(uint64(p*2)), maxShards))
}

// ShardCount resolves a requested shard count for a cache of the given
// total capacity:
//   - requested == 0 => 1
//   - requested < 0  => ReasonableShardCount()
//   - otherwise rounded up to a power of two, at most 256
//
// The result is halved until every shard gets at least one entry.
func ShardCount(requested, capacity int) int {
	var n int
	switch {
	case requested == 0:
		n = 1
	case requested < 0:
		n = ReasonableShardCount()
	default:
		n = int(min(NextPow2(uint64(requested)), maxShards))
	}
	for n > 1 && n > capacity {
		n /= 2
	}
	return n
}

// ShardIndex maps a 64-bit hash to a shard index.
// Power-of-two counts use a mask; other counts fall back to modulo.
func ShardIndex(hash uint64, shards int) int {
	if shards <= 1 {
		return 0
	}
	if IsPowerOfTwo(uint64(shards)) {
		return int(hash & uint64(shards-1))
	}
	return int(hash % uint64(shards))
}
