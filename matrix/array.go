//
// array.go
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

// Array implements an external N-dimensional buffer in row-major
// (C-contiguous) layout. Arrays are exchanged with register values;
// all conversions copy the data so the array and the register remain
// independently mutable.
type Array[T any] struct {
	Shape []int
	Data  []T
}

// NewArray creates a two-dimensional array from the data. The data
// slice is used as-is.
func NewArray[T any](rows, cols int, data []T) Array[T] {
	return Array[T]{
		Shape: []int{rows, cols},
		Data:  data,
	}
}

// Ndim returns the number of array dimensions.
func (a Array[T]) Ndim() int {
	return len(a.Shape)
}

// Dims returns the array rows and columns. The array must be
// two-dimensional and its data must match the shape.
func (a Array[T]) Dims() (rows, cols int, err error) {
	if a.Ndim() != 2 {
		return 0, 0, errors.Wrapf(duet.ErrInvalidArgument,
			"number of dimensions must be two, got %d", a.Ndim())
	}
	rows, cols = a.Shape[0], a.Shape[1]
	size, err := Size(rows, cols)
	if err != nil {
		return 0, 0, err
	}
	if size != len(a.Data) {
		return 0, 0, errors.Wrapf(duet.ErrInvalidArgument,
			"shape %v does not match %d elements", a.Shape, len(a.Data))
	}
	return rows, cols, nil
}

// Empty tests if the array has no elements.
func (a Array[T]) Empty() bool {
	return len(a.Data) == 0
}

// At returns the element at row r and column c of a two-dimensional
// array.
func (a Array[T]) At(r, c int) T {
	return a.Data[r*a.Shape[1]+c]
}

// EmptyArray returns an empty 0x0 array.
func EmptyArray[T any]() Array[T] {
	return Array[T]{
		Shape: []int{0, 0},
	}
}

// FromArray creates a new matrix from the array. The array shape is
// validated before any data is copied.
func FromArray[T Element](a Array[T]) (*Matrix[T], error) {
	rows, cols, err := a.Dims()
	if err != nil {
		return nil, err
	}
	return &Matrix[T]{
		Rows: rows,
		Cols: cols,
		Data: append(make([]T, 0, len(a.Data)), a.Data...),
	}, nil
}

// ToArray returns a copy of the matrix as an array.
func ToArray[T Element](m *Matrix[T]) Array[T] {
	return Array[T]{
		Shape: []int{m.Rows, m.Cols},
		Data:  append(make([]T, 0, len(m.Data)), m.Data...),
	}
}

// IntFromBool converts the boolean array into a 1/0 integer matrix.
func IntFromBool(a Array[bool]) (*Matrix[int64], error) {
	rows, cols, err := a.Dims()
	if err != nil {
		return nil, err
	}
	m := New[int64](rows, cols)
	for i, v := range a.Data {
		if v {
			m.Data[i] = 1
		}
	}
	return m, nil
}

// BoolFromInt converts the integer matrix into a boolean
// array. Cells with value 1 are true and all other values are false.
func BoolFromInt(m *Matrix[int64]) Array[bool] {
	result := Array[bool]{
		Shape: []int{m.Rows, m.Cols},
		Data:  make([]bool, len(m.Data)),
	}
	for i, v := range m.Data {
		result.Data[i] = v == 1
	}
	return result
}
