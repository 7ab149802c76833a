//
// matrix.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package matrix implements dense two-dimensional matrices used as
// plaintext values and as secret shares.
package matrix

import (
	"fmt"
	"math"

	"github.com/markkurossi/duet"
	"github.com/pkg/errors"
)

// Element defines the matrix element types.
type Element interface {
	~float64 | ~int64
}

// Matrix implements a dense row-major matrix.
type Matrix[T Element] struct {
	Rows int
	Cols int
	Data []T
}

// New creates a new zero matrix with the given dimensions.
func New[T Element](rows, cols int) *Matrix[T] {
	size, err := Size(rows, cols)
	if err != nil {
		panic(fmt.Sprintf("matrix: %v", err))
	}
	return &Matrix[T]{
		Rows: rows,
		Cols: cols,
		Data: make([]T, size),
	}
}

// Size returns the number of elements in a rows x cols matrix. It
// fails if a dimension is negative or the element count does not fit
// in an int.
func Size(rows, cols int) (int, error) {
	if rows < 0 || cols < 0 {
		return 0, errors.Wrapf(duet.ErrInvalidArgument,
			"invalid dimensions %dx%d", rows, cols)
	}
	if cols != 0 && rows > math.MaxInt/cols {
		return 0, errors.Wrapf(duet.ErrInvalidArgument,
			"dimensions %dx%d overflow", rows, cols)
	}
	return rows * cols, nil
}

// FromRows creates a matrix from the row slices. All rows must have
// the same length.
func FromRows[T Element](rows [][]T) (*Matrix[T], error) {
	if len(rows) == 0 {
		return New[T](0, 0), nil
	}
	m := New[T](len(rows), len(rows[0]))
	for r, row := range rows {
		if len(row) != m.Cols {
			return nil, errors.Wrapf(duet.ErrInvalidArgument,
				"row %d has %d columns, expected %d", r, len(row), m.Cols)
		}
		copy(m.Data[r*m.Cols:], row)
	}
	return m, nil
}

func (m *Matrix[T]) String() string {
	return fmt.Sprintf("%dx%d%v", m.Rows, m.Cols, m.Data)
}

// Shape returns the matrix dimensions.
func (m *Matrix[T]) Shape() (rows, cols int) {
	return m.Rows, m.Cols
}

// Size returns the number of matrix elements.
func (m *Matrix[T]) Size() int {
	return m.Rows * m.Cols
}

// Empty tests if the matrix has no elements.
func (m *Matrix[T]) Empty() bool {
	return m.Size() == 0
}

// At returns the element at row r and column c.
func (m *Matrix[T]) At(r, c int) T {
	return m.Data[r*m.Cols+c]
}

// Set sets the element at row r and column c.
func (m *Matrix[T]) Set(r, c int, v T) {
	m.Data[r*m.Cols+c] = v
}

// Resize resizes the matrix to the given dimensions. The matrix
// contents are zeroed.
func (m *Matrix[T]) Resize(rows, cols int) {
	m.Rows = rows
	m.Cols = cols
	if cap(m.Data) >= rows*cols {
		m.Data = m.Data[:rows*cols]
		clear(m.Data)
	} else {
		m.Data = make([]T, rows*cols)
	}
}

// Reset sets the matrix to the empty 0x0 matrix.
func (m *Matrix[T]) Reset() {
	m.Rows = 0
	m.Cols = 0
	m.Data = nil
}

// Assign sets the matrix to a copy of o.
func (m *Matrix[T]) Assign(o *Matrix[T]) {
	m.Rows = o.Rows
	m.Cols = o.Cols
	m.Data = append([]T(nil), o.Data...)
}

// Clone creates an independent copy of the matrix.
func (m *Matrix[T]) Clone() *Matrix[T] {
	result := &Matrix[T]{}
	result.Assign(m)
	return result
}

// Equal tests if the matrices have the same shape and elements.
func (m *Matrix[T]) Equal(o *Matrix[T]) bool {
	if m.Rows != o.Rows || m.Cols != o.Cols {
		return false
	}
	for i, v := range m.Data {
		if o.Data[i] != v {
			return false
		}
	}
	return true
}

// SameShape tests if the matrices have the same dimensions.
func (m *Matrix[T]) SameShape(o *Matrix[T]) bool {
	return m.Rows == o.Rows && m.Cols == o.Cols
}

// Block returns a copy of the rows x cols sub-matrix starting at
// (row, col).
func (m *Matrix[T]) Block(row, col, rows, cols int) (*Matrix[T], error) {
	if row < 0 || col < 0 || rows < 0 || cols < 0 ||
		row+rows > m.Rows || col+cols > m.Cols {
		return nil, errors.Wrapf(duet.ErrInvalidArgument,
			"block (%d,%d)+%dx%d outside %dx%d matrix",
			row, col, rows, cols, m.Rows, m.Cols)
	}
	result := New[T](rows, cols)
	for r := 0; r < rows; r++ {
		start := (row+r)*m.Cols + col
		copy(result.Data[r*cols:(r+1)*cols], m.Data[start:start+cols])
	}
	return result, nil
}

// Transpose returns the transpose of the matrix.
func (m *Matrix[T]) Transpose() *Matrix[T] {
	result := New[T](m.Cols, m.Rows)
	for r := 0; r < m.Rows; r++ {
		for c := 0; c < m.Cols; c++ {
			result.Data[c*m.Rows+r] = m.Data[r*m.Cols+c]
		}
	}
	return result
}

// Reshape returns a copy of the matrix with new dimensions. The
// elements keep their row-major order.
func (m *Matrix[T]) Reshape(rows, cols int) (*Matrix[T], error) {
	size, err := Size(rows, cols)
	if err != nil {
		return nil, err
	}
	if size != m.Size() {
		return nil, errors.Wrapf(duet.ErrInvalidArgument,
			"can't reshape %dx%d to %dx%d", m.Rows, m.Cols, rows, cols)
	}
	return &Matrix[T]{
		Rows: rows,
		Cols: cols,
		Data: append([]T(nil), m.Data...),
	}, nil
}

// VStack stacks the matrices vertically. An empty operand yields a
// copy of the other operand.
func VStack[T Element](a, b *Matrix[T]) (*Matrix[T], error) {
	if a.Empty() {
		return b.Clone(), nil
	}
	if b.Empty() {
		return a.Clone(), nil
	}
	if a.Cols != b.Cols {
		return nil, errors.Wrapf(duet.ErrInvalidArgument,
			"vstack: column mismatch %d != %d", a.Cols, b.Cols)
	}
	result := New[T](a.Rows+b.Rows, a.Cols)
	copy(result.Data, a.Data)
	copy(result.Data[len(a.Data):], b.Data)
	return result, nil
}

// HStack stacks the matrices horizontally. An empty operand yields a
// copy of the other operand.
func HStack[T Element](a, b *Matrix[T]) (*Matrix[T], error) {
	if a.Empty() {
		return b.Clone(), nil
	}
	if b.Empty() {
		return a.Clone(), nil
	}
	if a.Rows != b.Rows {
		return nil, errors.Wrapf(duet.ErrInvalidArgument,
			"hstack: row mismatch %d != %d", a.Rows, b.Rows)
	}
	cols := a.Cols + b.Cols
	result := New[T](a.Rows, cols)
	for r := 0; r < a.Rows; r++ {
		copy(result.Data[r*cols:], a.Data[r*a.Cols:(r+1)*a.Cols])
		copy(result.Data[r*cols+a.Cols:], b.Data[r*b.Cols:(r+1)*b.Cols])
	}
	return result, nil
}
