// Package util contains internal helpers (hashing, sharding).
//revive:disable:var-naming  // allow 'util' as an internal helpers package name
package util

import (
	"cmp"
	"fmt"
	"math"
)

// Fnv64a hashes an ordered key using 64-bit FNV-1a.
// Built-in string, integer and float kinds are hashed without allocating;
// named types (e.g. `type ID string`) fall back to their fmt rendering.
// Equal keys always hash equally, including 0.0 and -0.0.
func Fnv64a[K cmp.Ordered](k K) uint64 {
	switch v := any(k).(type) {
	case string:
		return fnv64aFromString(v)

	// Integer-like keys: hash little-endian bytes of the value.
	case uint8:
		return fnv64aFromUint64(uint64(v))
	case uint16:
		return fnv64aFromUint64(uint64(v))
	case uint32:
		return fnv64aFromUint64(uint64(v))
	case uint64:
		return fnv64aFromUint64(v)
	case uint:
		return fnv64aFromUint64(uint64(v))
	case uintptr:
		return fnv64aFromUint64(uint64(v))
	case int8:
		return fnv64aFromUint64(uint64(uint8(v)))
	case int16:
		return fnv64aFromUint64(uint64(uint16(v)))
	case int32:
		return fnv64aFromUint64(uint64(uint32(v)))
	case int64:
		return fnv64aFromUint64(uint64(v))
	case int:
		return fnv64aFromUint64(uint64(v))

	case float32:
		return fnv64aFromFloat(float64(v))
	case float64:
		return fnv64aFromFloat(v)

	default:
		return fnv64aFromString(fmt.Sprint(k))
	}
}

const (
	fnvOffset64 = 14695981039346656037
	fnvPrime64  = 1099511628211
)

func fnv64aFromString(s string) uint64 {
	h := uint64(fnvOffset64)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= fnvPrime64
	}
	return h
}

func fnv64aFromFloat(f float64) uint64 {
	if f == 0 {
		f = 0 // fold -0 into +0
	}
	return fnv64aFromUint64(math.Float64bits(f))
}

func fnv64aFromUint64(u uint64) uint64 {
	// Hash the 8 little-endian bytes of u without allocating.
	h := uint64(fnvOffset64)
	for i := 0; i < 8; i++ {
		h ^= uint64(byte(u))
		h *= fnvPrime64
		u >>= 8
	}
	return h
}
