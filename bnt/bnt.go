// Package bnt defines the 2-bit DNA base alphabet shared by every
// other package in this module: the four bases A, C, G, T encoded
// 0..3, plus the sentinel value used to mark an edge terminus ($).
package bnt

// BaseTypeNum is the number of real bases in the alphabet.
const BaseTypeNum = 4

// NumBitsInBase is the width of one packed base.
const NumBitsInBase = 2

// NumBaseInUint64 is how many 2-bit bases fit in one uint64 word.
const NumBaseInUint64 = 64 / NumBitsInBase

// NumBaseInUint32 is how many 2-bit bases fit in one uint32 word.
const NumBaseInUint32 = 32 / NumBitsInBase

// NumBaseInByte is how many 2-bit bases fit in one byte.
const NumBaseInByte = 8 / NumBitsInBase

// BaseMask isolates the low NumBitsInBase bits of a word.
const BaseMask = (1 << NumBitsInBase) - 1

// SentinelValue marks an absent/boundary base ($). It is numerically
// distinct from, and larger than, any real base code.
const SentinelValue = 4

// Base2Bnt maps ASCII 'A','C','G','T' (and lowercase) to 0..3.
// Any other byte maps to SentinelValue so callers can detect garbage
// input without a second pass.
var Base2Bnt = func() [256]byte {
	var t [256]byte
	for i := range t {
		t[i] = SentinelValue
	}
	t['A'], t['a'] = 0, 0
	t['C'], t['c'] = 1, 1
	t['G'], t['g'] = 2, 2
	t['T'], t['t'] = 3, 3
	return t
}()

// BntCharUp maps 0..3 back to upper-case ASCII bases; index
// SentinelValue maps to '$'.
var BntCharUp = [5]byte{'A', 'C', 'G', 'T', '$'}

// BntRev is the complement table: BntRev[b] is the complementary base
// code of b (A<->T, C<->G). SentinelValue complements to itself.
var BntRev = [5]byte{3, 2, 1, 0, SentinelValue}

// IsSentinel reports whether b denotes the sentinel ($) base.
func IsSentinel(b byte) bool {
	return b == SentinelValue
}
