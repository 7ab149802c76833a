//
// vm_test.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package vm

import (
	"testing"

	"github.com/markkurossi/duet"
	"github.com/markkurossi/duet/matrix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVM(t *testing.T, party int) *VM {
	vm, err := New(nil, party, nil)
	require.NoError(t, err)
	return vm
}

func TestNew(t *testing.T) {
	_, err := New(nil, 2, nil)
	assert.ErrorIs(t, err, duet.ErrInvalidArgument)
	_, err = New(nil, -1, nil)
	assert.ErrorIs(t, err, duet.ErrInvalidArgument)

	vm := newVM(t, 1)
	assert.Equal(t, 1, vm.PartyID())
	assert.True(t, vm.IsEmpty())
	assert.NotEqual(t, newVM(t, 1).Session(), vm.Session())
}

func TestAllocDelete(t *testing.T) {
	vm := newVM(t, 0)

	a := vm.NewArithShareMatrix()
	b := vm.NewArithShareMatrix()
	assert.NotEqual(t, a, b)
	assert.False(t, vm.IsEmpty())
	assert.Equal(t, 2, vm.Len())

	kind, err := vm.Kind(a)
	require.NoError(t, err)
	assert.Equal(t, ArithShareMatrix, kind)

	require.NoError(t, vm.Delete(a))
	assert.ErrorIs(t, vm.Delete(a), duet.ErrUnknownRegister)
	_, err = vm.GetArithShareMatrix(a)
	assert.ErrorIs(t, err, duet.ErrUnknownRegister)

	// Addresses are never reused.
	c := vm.NewArithShareMatrix()
	assert.NotEqual(t, a, c)

	require.NoError(t, vm.Delete(b))
	require.NoError(t, vm.Delete(c))
	assert.True(t, vm.IsEmpty())
}

func TestAllocOwner(t *testing.T) {
	vm := newVM(t, 0)

	_, err := vm.NewPrivateDoubleMatrix(2)
	assert.ErrorIs(t, err, duet.ErrInvalidArgument)
	_, err = vm.NewPrivateBoolMatrix(-1)
	assert.ErrorIs(t, err, duet.ErrInvalidArgument)
	assert.True(t, vm.IsEmpty())

	addr, err := vm.NewPrivateBoolMatrix(1)
	require.NoError(t, err)
	owner, err := vm.Owner(addr)
	require.NoError(t, err)
	assert.Equal(t, 1, owner)

	_, err = vm.Owner(vm.NewPublicIndex())
	assert.ErrorIs(t, err, duet.ErrTypeMismatch)
}

func TestTypeMismatch(t *testing.T) {
	vm := newVM(t, 0)

	addr := vm.NewPublicDoubleMatrix()
	_, err := vm.GetArithShareMatrix(addr)
	assert.ErrorIs(t, err, duet.ErrTypeMismatch)
	err = vm.SetPublicIndex(addr, 1)
	assert.ErrorIs(t, err, duet.ErrTypeMismatch)
	_, _, err = vm.Shape(PublicBoolMatrix, addr)
	assert.ErrorIs(t, err, duet.ErrTypeMismatch)
	_, _, err = vm.Shape(PublicDouble, vm.NewPublicDouble())
	assert.ErrorIs(t, err, duet.ErrInvalidArgument)
}

func TestPrivateGating(t *testing.T) {
	arr := matrix.NewArray(2, 2, []float64{1, 2, 3, 4})

	owner := newVM(t, 0)
	other := newVM(t, 1)

	for _, vm := range []*VM{owner, other} {
		addr, err := vm.NewPrivateDoubleMatrix(0)
		require.NoError(t, err)
		require.NoError(t, vm.SetPrivateDoubleMatrix(addr, arr))

		got, err := vm.GetPrivateDoubleMatrix(addr)
		require.NoError(t, err)
		rows, cols, err := vm.Shape(PrivateDoubleMatrix, addr)
		require.NoError(t, err)

		if vm.PartyID() == 0 {
			assert.Equal(t, arr, got)
			assert.Equal(t, 2, rows)
			assert.Equal(t, 2, cols)
		} else {
			assert.Equal(t, []int{0, 0}, got.Shape)
			assert.Empty(t, got.Data)
			assert.Equal(t, 0, rows)
			assert.Equal(t, 0, cols)
		}
	}
}

func TestPrivateGatingSkipsValidation(t *testing.T) {
	vm := newVM(t, 1)
	addr, err := vm.NewPrivateBoolMatrix(0)
	require.NoError(t, err)

	// The non-owner may pass any placeholder buffer.
	require.NoError(t, vm.SetPrivateBoolMatrix(addr, matrix.Array[bool]{}))
}

func TestShapeMismatch(t *testing.T) {
	vm := newVM(t, 0)
	addr := vm.NewArithShareMatrix()

	require.NoError(t, vm.SetArithShareMatrix(addr,
		matrix.NewArray(1, 2, []int64{7, 8})))

	err := vm.SetArithShareMatrix(addr, matrix.Array[int64]{
		Shape: []int{2},
		Data:  []int64{1, 2},
	})
	assert.ErrorIs(t, err, duet.ErrInvalidArgument)
	err = vm.SetArithShareMatrix(addr, matrix.NewArray(2, 2, []int64{1}))
	assert.ErrorIs(t, err, duet.ErrInvalidArgument)

	// Dimensions whose product overflows to the data length.
	err = vm.SetArithShareMatrix(addr, matrix.Array[int64]{
		Shape: []int{1 << 32, 1 << 32},
	})
	assert.ErrorIs(t, err, duet.ErrInvalidArgument)
	err = vm.SetPublicBoolMatrix(vm.NewPublicBoolMatrix(), matrix.Array[bool]{
		Shape: []int{1 << 32, 1 << 32},
	})
	assert.ErrorIs(t, err, duet.ErrInvalidArgument)

	// Failed sets leave the register unchanged.
	got, err := vm.GetArithShareMatrix(addr)
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 8}, got.Data)
	rows, cols, err := vm.Shape(ArithShareMatrix, addr)
	require.NoError(t, err)
	assert.Equal(t, 1, rows)
	assert.Equal(t, 2, cols)

	tr := vm.NewArithShareMatrix()
	require.NoError(t, vm.Exec(NewInstruction("transpose",
		ArithShareMatrix, ArithShareMatrix), addr, tr))
}

func TestRoundTrip(t *testing.T) {
	vm := newVM(t, 0)

	pub := vm.NewPublicBoolMatrix()
	bools := matrix.NewArray(2, 3, []bool{true, false, true, true, false, false})
	require.NoError(t, vm.SetPublicBoolMatrix(pub, bools))
	gotBools, err := vm.GetPublicBoolMatrix(pub)
	require.NoError(t, err)
	assert.Equal(t, bools, gotBools)

	shares := vm.NewBoolShareMatrix()
	require.NoError(t, vm.SetBoolShareMatrix(shares,
		matrix.NewArray(1, 1, []int64{1})))
	gotShares, err := vm.GetBoolShareMatrix(shares)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, gotShares.Data)

	d := vm.NewPublicDouble()
	require.NoError(t, vm.SetPublicDouble(d, 2.5))
	v, err := vm.GetPublicDouble(d)
	require.NoError(t, err)
	assert.Equal(t, 2.5, v)

	idx := vm.NewPublicIndex()
	require.NoError(t, vm.SetPublicIndex(idx, -3))
	n, err := vm.GetPublicIndex(idx)
	require.NoError(t, err)
	assert.Equal(t, int64(-3), n)
}

func TestCopySemantics(t *testing.T) {
	vm := newVM(t, 0)
	addr := vm.NewPublicDoubleMatrix()

	data := []float64{1, 2}
	require.NoError(t, vm.SetPublicDoubleMatrix(addr,
		matrix.NewArray(1, 2, data)))
	data[0] = 42

	got, err := vm.GetPublicDoubleMatrix(addr)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, got.Data)

	got.Data[1] = 42
	again, err := vm.GetPublicDoubleMatrix(addr)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, again.Data)
}

func TestBlockStack(t *testing.T) {
	vm := newVM(t, 0)

	src := vm.NewPublicDoubleMatrix()
	require.NoError(t, vm.SetPublicDoubleMatrix(src,
		matrix.NewArray(3, 3, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9})))

	blk := vm.NewPublicDoubleMatrix()
	require.NoError(t, vm.Block(PublicDoubleMatrix, src, 1, 1, 2, 2, blk))
	got, err := vm.GetPublicDoubleMatrix(blk)
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 6, 8, 9}, got.Data)

	err = vm.Block(PublicDoubleMatrix, src, 2, 2, 2, 2, blk)
	assert.ErrorIs(t, err, duet.ErrInvalidArgument)

	dst := vm.NewPublicDoubleMatrix()
	require.NoError(t, vm.VStack(PublicDoubleMatrix, blk, blk, dst))
	rows, cols, err := vm.Shape(PublicDoubleMatrix, dst)
	require.NoError(t, err)
	assert.Equal(t, 4, rows)
	assert.Equal(t, 2, cols)

	require.NoError(t, vm.HStack(PublicDoubleMatrix, src, src, dst))
	rows, cols, err = vm.Shape(PublicDoubleMatrix, dst)
	require.NoError(t, err)
	assert.Equal(t, 3, rows)
	assert.Equal(t, 6, cols)

	err = vm.HStack(PublicDoubleMatrix, src, blk, dst)
	assert.ErrorIs(t, err, duet.ErrInvalidArgument)
}

func TestPrivateBlock(t *testing.T) {
	for party := 0; party < NumParties; party++ {
		vm := newVM(t, party)

		src, err := vm.NewPrivateBoolMatrix(0)
		require.NoError(t, err)
		dst, err := vm.NewPrivateBoolMatrix(0)
		require.NoError(t, err)
		foreign, err := vm.NewPrivateBoolMatrix(1)
		require.NoError(t, err)

		require.NoError(t, vm.SetPrivateBoolMatrix(src,
			matrix.NewArray(2, 2, []bool{true, false, false, true})))
		require.NoError(t, vm.Block(PrivateBoolMatrix, src, 0, 0, 1, 2, dst))

		got, err := vm.GetPrivateBoolMatrix(dst)
		require.NoError(t, err)
		if party == 0 {
			assert.Equal(t, []bool{true, false}, got.Data)
		} else {
			assert.Empty(t, got.Data)
		}

		err = vm.Block(PrivateBoolMatrix, src, 0, 0, 1, 1, foreign)
		assert.ErrorIs(t, err, duet.ErrInvalidArgument)
	}
}

func TestInstruction(t *testing.T) {
	inst, err := ParseInstruction("reshape am ci ci am")
	require.NoError(t, err)
	assert.Equal(t, NewInstruction("reshape", ArithShareMatrix, PublicIndex,
		PublicIndex, ArithShareMatrix), inst)
	assert.Equal(t, "reshape am ci ci am", inst.String())

	_, err = ParseInstruction("add am xx am")
	assert.ErrorIs(t, err, duet.ErrInvalidArgument)
	_, err = ParseInstruction("")
	assert.ErrorIs(t, err, duet.ErrInvalidArgument)

	assert.Contains(t, Instructions(), "mul am am am")
}

func TestExecErrors(t *testing.T) {
	vm := newVM(t, 0)
	a := vm.NewArithShareMatrix()
	c := vm.NewPublicDoubleMatrix()

	err := vm.Exec(NewInstruction("add", ArithShareMatrix, ArithShareMatrix,
		ArithShareMatrix), a, a)
	assert.ErrorIs(t, err, duet.ErrInvalidArgument)

	err = vm.Exec(NewInstruction("div", ArithShareMatrix, ArithShareMatrix,
		ArithShareMatrix), a, a, a)
	assert.ErrorIs(t, err, duet.ErrInvalidArgument)

	err = vm.Exec(NewInstruction("add", ArithShareMatrix, ArithShareMatrix,
		ArithShareMatrix), a, c, a)
	assert.ErrorIs(t, err, duet.ErrTypeMismatch)
}

func TestLocalExec(t *testing.T) {
	vm := newVM(t, 1)

	a := vm.NewArithShareMatrix()
	require.NoError(t, vm.SetArithShareMatrix(a,
		matrix.NewArray(2, 3, []int64{1, 2, 3, 4, 5, 6})))

	tr := vm.NewArithShareMatrix()
	require.NoError(t, vm.Exec(NewInstruction("transpose",
		ArithShareMatrix, ArithShareMatrix), a, tr))
	got, err := vm.GetArithShareMatrix(tr)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2}, got.Shape)
	assert.Equal(t, []int64{1, 4, 2, 5, 3, 6}, got.Data)

	rows := vm.NewPublicIndex()
	cols := vm.NewPublicIndex()
	require.NoError(t, vm.SetPublicIndex(rows, 1))
	require.NoError(t, vm.SetPublicIndex(cols, 6))
	inst, err := ParseInstruction("reshape am ci ci am")
	require.NoError(t, err)
	require.NoError(t, vm.Exec(inst, a, rows, cols, a))
	got, err = vm.GetArithShareMatrix(a)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 6}, got.Shape)

	for _, dims := range [][2]int64{{1, 5}, {-2, -3}, {1 << 32, 1 << 32}} {
		require.NoError(t, vm.SetPublicIndex(rows, dims[0]))
		require.NoError(t, vm.SetPublicIndex(cols, dims[1]))
		assert.ErrorIs(t, vm.Exec(inst, a, rows, cols, a),
			duet.ErrInvalidArgument, "reshape %v", dims)
	}
	got, err = vm.GetArithShareMatrix(a)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 6}, got.Shape)

	// The party 1 does not carry the public operand.
	pub := vm.NewPublicDoubleMatrix()
	require.NoError(t, vm.SetPublicDoubleMatrix(pub,
		matrix.NewArray(1, 6, []float64{1, 1, 1, 1, 1, 1})))
	require.NoError(t, vm.Exec(NewInstruction("add", ArithShareMatrix,
		PublicDoubleMatrix, ArithShareMatrix), a, pub, a))
	got, err = vm.GetArithShareMatrix(a)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6}, got.Data)
}
