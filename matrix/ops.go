//
// ops.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package matrix

import (
	"github.com/markkurossi/duet"
	"github.com/pkg/errors"
)

func binary[T Element](name string, a, b *Matrix[T],
	f func(x, y T) T) (*Matrix[T], error) {

	if !a.SameShape(b) {
		return nil, errors.Wrapf(duet.ErrInvalidArgument,
			"%s: shape mismatch %dx%d != %dx%d",
			name, a.Rows, a.Cols, b.Rows, b.Cols)
	}
	result := New[T](a.Rows, a.Cols)
	for i := range result.Data {
		result.Data[i] = f(a.Data[i], b.Data[i])
	}
	return result, nil
}

// Add returns the element-wise sum a+b. Integer matrices wrap around
// modulo 2^64.
func Add[T Element](a, b *Matrix[T]) (*Matrix[T], error) {
	return binary("add", a, b, func(x, y T) T { return x + y })
}

// Sub returns the element-wise difference a-b.
func Sub[T Element](a, b *Matrix[T]) (*Matrix[T], error) {
	return binary("sub", a, b, func(x, y T) T { return x - y })
}

// Mul returns the element-wise product a*b.
func Mul[T Element](a, b *Matrix[T]) (*Matrix[T], error) {
	return binary("mul", a, b, func(x, y T) T { return x * y })
}

// Xor returns the element-wise exclusive or a^b.
func Xor(a, b *Matrix[int64]) (*Matrix[int64], error) {
	return binary("xor", a, b, func(x, y int64) int64 { return x ^ y })
}

// And returns the element-wise conjunction a&b.
func And(a, b *Matrix[int64]) (*Matrix[int64], error) {
	return binary("and", a, b, func(x, y int64) int64 { return x & y })
}

// Map returns a new matrix with f applied to all elements of m.
func Map[T, R Element](m *Matrix[T], f func(v T) R) *Matrix[R] {
	result := New[R](m.Rows, m.Cols)
	for i, v := range m.Data {
		result.Data[i] = f(v)
	}
	return result
}
