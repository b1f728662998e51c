// Package math holds the integer helpers shared by the allocator and the
// file I/O paths.
package math

type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

func Min[T Integer](a, b T) T {
	if a < b {
		return a
	}
	return b
}

func Max[T Integer](a, b T) T {
	if a > b {
		return a
	}
	return b
}

// DivRoundUp returns the number of `b`-sized units needed to hold `a`.
func DivRoundUp[T Integer](a, b T) T {
	return (a + b - 1) / b
}
