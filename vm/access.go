//
// access.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package vm

import (
	"github.com/markkurossi/duet"
	"github.com/markkurossi/duet/matrix"
	"github.com/pkg/errors"
)

// SetPrivateDoubleMatrix sets the private real matrix from the
// array. The call is a no-op if the local party does not own the
// register.
func (vm *VM) SetPrivateDoubleMatrix(addr Address,
	arr matrix.Array[float64]) error {

	r, err := vm.lookup(addr, PrivateDoubleMatrix)
	if err != nil {
		return err
	}
	if !r.visible(vm.party) {
		return nil
	}
	m, err := matrix.FromArray(arr)
	if err != nil {
		return err
	}
	r.f = m
	return nil
}

// GetPrivateDoubleMatrix returns a copy of the private real
// matrix. The result is an empty 0x0 array if the local party does
// not own the register.
func (vm *VM) GetPrivateDoubleMatrix(addr Address) (
	matrix.Array[float64], error) {

	r, err := vm.lookup(addr, PrivateDoubleMatrix)
	if err != nil {
		return matrix.Array[float64]{}, err
	}
	if !r.visible(vm.party) {
		return matrix.EmptyArray[float64](), nil
	}
	return matrix.ToArray(r.f), nil
}

// SetPrivateBoolMatrix sets the private boolean matrix from the
// array. The call is a no-op if the local party does not own the
// register.
func (vm *VM) SetPrivateBoolMatrix(addr Address,
	arr matrix.Array[bool]) error {

	r, err := vm.lookup(addr, PrivateBoolMatrix)
	if err != nil {
		return err
	}
	if !r.visible(vm.party) {
		return nil
	}
	m, err := matrix.IntFromBool(arr)
	if err != nil {
		return err
	}
	r.i = m
	return nil
}

// GetPrivateBoolMatrix returns a copy of the private boolean
// matrix. The result is an empty 0x0 array if the local party does
// not own the register.
func (vm *VM) GetPrivateBoolMatrix(addr Address) (
	matrix.Array[bool], error) {

	r, err := vm.lookup(addr, PrivateBoolMatrix)
	if err != nil {
		return matrix.Array[bool]{}, err
	}
	if !r.visible(vm.party) {
		return matrix.EmptyArray[bool](), nil
	}
	return matrix.BoolFromInt(r.i), nil
}

// SetPublicDoubleMatrix sets the public real matrix from the array.
func (vm *VM) SetPublicDoubleMatrix(addr Address,
	arr matrix.Array[float64]) error {

	r, err := vm.lookup(addr, PublicDoubleMatrix)
	if err != nil {
		return err
	}
	m, err := matrix.FromArray(arr)
	if err != nil {
		return err
	}
	r.f = m
	return nil
}

// GetPublicDoubleMatrix returns a copy of the public real matrix.
func (vm *VM) GetPublicDoubleMatrix(addr Address) (
	matrix.Array[float64], error) {

	r, err := vm.lookup(addr, PublicDoubleMatrix)
	if err != nil {
		return matrix.Array[float64]{}, err
	}
	return matrix.ToArray(r.f), nil
}

// SetPublicBoolMatrix sets the public boolean matrix from the array.
func (vm *VM) SetPublicBoolMatrix(addr Address, arr matrix.Array[bool]) error {
	r, err := vm.lookup(addr, PublicBoolMatrix)
	if err != nil {
		return err
	}
	m, err := matrix.IntFromBool(arr)
	if err != nil {
		return err
	}
	r.i = m
	return nil
}

// GetPublicBoolMatrix returns a copy of the public boolean matrix.
func (vm *VM) GetPublicBoolMatrix(addr Address) (matrix.Array[bool], error) {
	r, err := vm.lookup(addr, PublicBoolMatrix)
	if err != nil {
		return matrix.Array[bool]{}, err
	}
	return matrix.BoolFromInt(r.i), nil
}

// SetArithShareMatrix sets the local arithmetic shares from the
// array.
func (vm *VM) SetArithShareMatrix(addr Address,
	arr matrix.Array[int64]) error {

	r, err := vm.lookup(addr, ArithShareMatrix)
	if err != nil {
		return err
	}
	m, err := matrix.FromArray(arr)
	if err != nil {
		return err
	}
	r.i = m
	return nil
}

// GetArithShareMatrix returns a copy of the local arithmetic shares.
func (vm *VM) GetArithShareMatrix(addr Address) (matrix.Array[int64], error) {
	r, err := vm.lookup(addr, ArithShareMatrix)
	if err != nil {
		return matrix.Array[int64]{}, err
	}
	return matrix.ToArray(r.i), nil
}

// SetBoolShareMatrix sets the local boolean shares from the array.
func (vm *VM) SetBoolShareMatrix(addr Address, arr matrix.Array[int64]) error {
	r, err := vm.lookup(addr, BoolShareMatrix)
	if err != nil {
		return err
	}
	m, err := matrix.FromArray(arr)
	if err != nil {
		return err
	}
	r.i = m
	return nil
}

// GetBoolShareMatrix returns a copy of the local boolean shares.
func (vm *VM) GetBoolShareMatrix(addr Address) (matrix.Array[int64], error) {
	r, err := vm.lookup(addr, BoolShareMatrix)
	if err != nil {
		return matrix.Array[int64]{}, err
	}
	return matrix.ToArray(r.i), nil
}

// SetPublicDouble sets the public real scalar.
func (vm *VM) SetPublicDouble(addr Address, v float64) error {
	r, err := vm.lookup(addr, PublicDouble)
	if err != nil {
		return err
	}
	r.d = v
	return nil
}

// GetPublicDouble returns the public real scalar.
func (vm *VM) GetPublicDouble(addr Address) (float64, error) {
	r, err := vm.lookup(addr, PublicDouble)
	if err != nil {
		return 0, err
	}
	return r.d, nil
}

// SetPublicIndex sets the public integer scalar.
func (vm *VM) SetPublicIndex(addr Address, v int64) error {
	r, err := vm.lookup(addr, PublicIndex)
	if err != nil {
		return err
	}
	r.n = v
	return nil
}

// GetPublicIndex returns the public integer scalar.
func (vm *VM) GetPublicIndex(addr Address) (int64, error) {
	r, err := vm.lookup(addr, PublicIndex)
	if err != nil {
		return 0, err
	}
	return r.n, nil
}

func (vm *VM) lookupMatrix(addr Address, kind Kind) (*register, error) {
	if !kind.Matrix() {
		return nil, errors.Wrapf(duet.ErrInvalidArgument,
			"%s is not a matrix kind", kind)
	}
	return vm.lookup(addr, kind)
}

// Shape returns the shape of the matrix register of the kind. The
// shape of a private register is 0x0 if the local party does not own
// the register.
func (vm *VM) Shape(kind Kind, addr Address) (rows, cols int, err error) {
	r, err := vm.lookupMatrix(addr, kind)
	if err != nil {
		return 0, 0, err
	}
	if !r.visible(vm.party) {
		return 0, 0, nil
	}
	rows, cols = r.shape()
	return
}

// sameOwner verifies that all private registers have the same owner.
func sameOwner(regs ...*register) error {
	for i := 1; i < len(regs); i++ {
		if regs[i].owner != regs[0].owner {
			return errors.Wrapf(duet.ErrInvalidArgument,
				"owner mismatch: %d != %d", regs[i].owner, regs[0].owner)
		}
	}
	return nil
}

// Block sets the register dst to the rows x cols block of the
// register src starting at (row, col). Both registers must be of the
// kind. For private registers, both registers must have the same
// owner and the call is a no-op on the other party.
func (vm *VM) Block(kind Kind, src Address, row, col, rows, cols int,
	dst Address) error {

	s, err := vm.lookupMatrix(src, kind)
	if err != nil {
		return err
	}
	d, err := vm.lookupMatrix(dst, kind)
	if err != nil {
		return err
	}
	if kind.Private() {
		if err := sameOwner(s, d); err != nil {
			return err
		}
		if !s.visible(vm.party) {
			return nil
		}
	}
	if kind.Float() {
		m, err := s.f.Block(row, col, rows, cols)
		if err != nil {
			return err
		}
		d.f = m
	} else {
		m, err := s.i.Block(row, col, rows, cols)
		if err != nil {
			return err
		}
		d.i = m
	}
	return nil
}

// VStack sets the register dst to the vertical stack of registers a
// and b.
func (vm *VM) VStack(kind Kind, a, b, dst Address) error {
	return vm.stack(kind, a, b, dst, matrix.VStack[float64],
		matrix.VStack[int64])
}

// HStack sets the register dst to the horizontal stack of registers
// a and b.
func (vm *VM) HStack(kind Kind, a, b, dst Address) error {
	return vm.stack(kind, a, b, dst, matrix.HStack[float64],
		matrix.HStack[int64])
}

func (vm *VM) stack(kind Kind, a, b, dst Address,
	f func(a, b *matrix.Matrix[float64]) (*matrix.Matrix[float64], error),
	i func(a, b *matrix.Matrix[int64]) (*matrix.Matrix[int64], error)) error {

	ra, err := vm.lookupMatrix(a, kind)
	if err != nil {
		return err
	}
	rb, err := vm.lookupMatrix(b, kind)
	if err != nil {
		return err
	}
	rd, err := vm.lookupMatrix(dst, kind)
	if err != nil {
		return err
	}
	if kind.Private() {
		if err := sameOwner(ra, rb, rd); err != nil {
			return err
		}
		if !ra.visible(vm.party) {
			return nil
		}
	}
	if kind.Float() {
		m, err := f(ra.f, rb.f)
		if err != nil {
			return err
		}
		rd.f = m
	} else {
		m, err := i(ra.i, rb.i)
		if err != nil {
			return err
		}
		rd.i = m
	}
	return nil
}
