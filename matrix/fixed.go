//
// fixed.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package matrix

import (
	"math"
)

const (
	// FractionBits defines the number of fractional bits in the
	// fixed-point encoding of real numbers.
	FractionBits = 16
	scale        = float64(1 << FractionBits)
)

// Encode encodes the real number as a fixed-point integer.
func Encode(v float64) int64 {
	return int64(math.Round(v * scale))
}

// Decode decodes the fixed-point integer into a real number.
func Decode(v int64) float64 {
	return float64(v) / scale
}

// EncodeMatrix encodes the real matrix as a fixed-point matrix.
func EncodeMatrix(m *Matrix[float64]) *Matrix[int64] {
	return Map(m, Encode)
}

// DecodeMatrix decodes the fixed-point matrix into a real matrix.
func DecodeMatrix(m *Matrix[int64]) *Matrix[float64] {
	return Map(m, Decode)
}

// Truncate removes the extra fractional bits from an additive share
// of a fixed-point product. The party 0 shifts its share and the
// party 1 shifts the negation of its share so that the reconstructed
// value is correct up to one unit in the last place with
// overwhelming probability.
func Truncate(share int64, party int) int64 {
	if party == 0 {
		return share >> FractionBits
	}
	return -((-share) >> FractionBits)
}
