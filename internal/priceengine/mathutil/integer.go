// Package mathutil holds the small set of overflow-aware integer helpers
// the monetary engine needs for supply and fee arithmetic.
package mathutil

import (
	"math/bits"
	"strconv"
)

// SafeAdd returns x+y and reports whether the addition overflowed uint64.
func SafeAdd(x, y uint64) (uint64, bool) {
	sum, carryOut := bits.Add64(x, y, 0)
	return sum, carryOut != 0
}

// SafeMul returns x*y and reports whether the multiplication overflowed uint64.
func SafeMul(x, y uint64) (uint64, bool) {
	hi, lo := bits.Mul64(x, y)
	return lo, hi != 0
}

// SafeSub returns x-y and reports whether the subtraction underflowed uint64.
func SafeSub(x, y uint64) (uint64, bool) {
	diff, borrowOut := bits.Sub64(x, y, 0)
	return diff, borrowOut != 0
}

// ParseUint64 parses s as a decimal integer, treating the empty string
// as zero. It does not trim spaces: callers decoding fixed-width padded
// fields from the persistent logs strip the padding first.
func ParseUint64(s string) (uint64, bool) {
	if s == "" {
		return 0, true
	}
	v, err := strconv.ParseUint(s, 10, 64)
	return v, err == nil
}
