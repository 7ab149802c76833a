//
// exec_test.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package vm

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/markkurossi/duet"
	"github.com/markkurossi/duet/matrix"
	"github.com/markkurossi/duet/p2p"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// runParties runs f for both parties over an in-memory connection.
func runParties(t *testing.T, f func(vm *VM) error) {
	c0, c1 := p2p.Pipe()

	var g errgroup.Group
	for party, conn := range []*p2p.Conn{c0, c1} {
		g.Go(func() error {
			vm, err := New(conn, party, nil)
			if err != nil {
				return err
			}
			if err := f(vm); err != nil {
				conn.Close()
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	c0.Close()
	c1.Close()
}

func TestAddShares(t *testing.T) {
	var result [NumParties][]int64

	runParties(t, func(vm *VM) error {
		a := vm.NewArithShareMatrix()
		b := vm.NewArithShareMatrix()
		c := vm.NewArithShareMatrix()

		va := make([]int64, 9)
		vb := make([]int64, 9)
		for i := range va {
			if vm.PartyID() == 0 {
				va[i] = math.MaxInt64
				vb[i] = int64(i)
			} else {
				va[i] = 2
				vb[i] = int64(10 * i)
			}
		}
		if err := vm.SetArithShareMatrix(a, matrix.NewArray(3, 3, va)); err != nil {
			return err
		}
		if err := vm.SetArithShareMatrix(b, matrix.NewArray(3, 3, vb)); err != nil {
			return err
		}
		inst := NewInstruction("add", ArithShareMatrix, ArithShareMatrix,
			ArithShareMatrix)
		if err := vm.Exec(inst, a, b, c); err != nil {
			return err
		}
		// Destination aliasing an operand.
		if err := vm.Exec(inst, c, b, c); err != nil {
			return err
		}
		arr, err := vm.GetArithShareMatrix(c)
		if err != nil {
			return err
		}
		result[vm.PartyID()] = arr.Data
		return nil
	})

	for i := 0; i < 9; i++ {
		sum := uint64(result[0][i]) + uint64(result[1][i])
		expected := uint64(math.MaxInt64) + 2 + 2*uint64(11*i)
		assert.Equal(t, expected, sum, "element %d", i)
	}
}

func TestShareReveal(t *testing.T) {
	input := matrix.NewArray(2, 2, []float64{1.5, -2.25, 0, 1000})
	var result [NumParties]matrix.Array[float64]
	var public [NumParties]matrix.Array[float64]

	runParties(t, func(vm *VM) error {
		priv, err := vm.NewPrivateDoubleMatrix(1)
		if err != nil {
			return err
		}
		out, err := vm.NewPrivateDoubleMatrix(0)
		if err != nil {
			return err
		}
		shares := vm.NewArithShareMatrix()
		pub := vm.NewPublicDoubleMatrix()

		if vm.PartyID() == 1 {
			if err := vm.SetPrivateDoubleMatrix(priv, input); err != nil {
				return err
			}
		}
		if err := vm.Exec(NewInstruction("share", PrivateDoubleMatrix,
			ArithShareMatrix), priv, shares); err != nil {
			return err
		}
		if err := vm.Exec(NewInstruction("reveal", ArithShareMatrix,
			PrivateDoubleMatrix), shares, out); err != nil {
			return err
		}
		if err := vm.Exec(NewInstruction("reveal", ArithShareMatrix,
			PublicDoubleMatrix), shares, pub); err != nil {
			return err
		}
		result[vm.PartyID()], err = vm.GetPrivateDoubleMatrix(out)
		if err != nil {
			return err
		}
		public[vm.PartyID()], err = vm.GetPublicDoubleMatrix(pub)
		return err
	})

	assert.Equal(t, input, result[0])
	assert.Empty(t, result[1].Data)
	assert.Equal(t, input, public[0])
	assert.Equal(t, input, public[1])
}

func TestMulShares(t *testing.T) {
	x := []float64{1.5, -2, 3.25, 0.5}
	y := []float64{2, 4.5, -1, -0.5}
	scalar := 2.0
	var result [NumParties]matrix.Array[float64]
	var scaled [NumParties]matrix.Array[float64]

	runParties(t, func(vm *VM) error {
		px, err := vm.NewPrivateDoubleMatrix(0)
		if err != nil {
			return err
		}
		py, err := vm.NewPrivateDoubleMatrix(1)
		if err != nil {
			return err
		}
		if err := vm.SetPrivateDoubleMatrix(px,
			matrix.NewArray(2, 2, x)); err != nil {
			return err
		}
		if err := vm.SetPrivateDoubleMatrix(py,
			matrix.NewArray(2, 2, y)); err != nil {
			return err
		}
		sx := vm.NewArithShareMatrix()
		sy := vm.NewArithShareMatrix()
		share := NewInstruction("share", PrivateDoubleMatrix,
			ArithShareMatrix)
		if err := vm.Exec(share, px, sx); err != nil {
			return err
		}
		if err := vm.Exec(share, py, sy); err != nil {
			return err
		}
		if err := vm.Exec(NewInstruction("mul", ArithShareMatrix,
			ArithShareMatrix, ArithShareMatrix), sx, sy, sx); err != nil {
			return err
		}
		pub := vm.NewPublicDoubleMatrix()
		reveal := NewInstruction("reveal", ArithShareMatrix,
			PublicDoubleMatrix)
		if err := vm.Exec(reveal, sx, pub); err != nil {
			return err
		}
		result[vm.PartyID()], err = vm.GetPublicDoubleMatrix(pub)
		if err != nil {
			return err
		}

		d := vm.NewPublicDouble()
		if err := vm.SetPublicDouble(d, scalar); err != nil {
			return err
		}
		if err := vm.Exec(NewInstruction("mul", ArithShareMatrix,
			PublicDouble, ArithShareMatrix), sy, d, sy); err != nil {
			return err
		}
		if err := vm.Exec(reveal, sy, pub); err != nil {
			return err
		}
		scaled[vm.PartyID()], err = vm.GetPublicDoubleMatrix(pub)
		return err
	})

	const delta = 1e-3
	for party := 0; party < NumParties; party++ {
		for i := range x {
			assert.InDelta(t, x[i]*y[i], result[party].Data[i], delta)
			assert.InDelta(t, y[i]*scalar, scaled[party].Data[i], delta)
		}
	}
}

func TestBoolShares(t *testing.T) {
	a := []bool{false, false, true, true}
	b := []bool{false, true, false, true}
	var and, xor, not [NumParties]matrix.Array[bool]

	runParties(t, func(vm *VM) error {
		pa, err := vm.NewPrivateBoolMatrix(0)
		if err != nil {
			return err
		}
		pb, err := vm.NewPrivateBoolMatrix(1)
		if err != nil {
			return err
		}
		if err := vm.SetPrivateBoolMatrix(pa,
			matrix.NewArray(1, 4, a)); err != nil {
			return err
		}
		if err := vm.SetPrivateBoolMatrix(pb,
			matrix.NewArray(1, 4, b)); err != nil {
			return err
		}
		sa := vm.NewBoolShareMatrix()
		sb := vm.NewBoolShareMatrix()
		sc := vm.NewBoolShareMatrix()
		share := NewInstruction("share", PrivateBoolMatrix, BoolShareMatrix)
		if err := vm.Exec(share, pa, sa); err != nil {
			return err
		}
		if err := vm.Exec(share, pb, sb); err != nil {
			return err
		}
		pub := vm.NewPublicBoolMatrix()
		reveal := NewInstruction("reveal", BoolShareMatrix, PublicBoolMatrix)
		binary := []struct {
			op     string
			result *[NumParties]matrix.Array[bool]
		}{
			{"and", &and},
			{"xor", &xor},
		}
		for _, bin := range binary {
			if err := vm.Exec(NewInstruction(bin.op, BoolShareMatrix,
				BoolShareMatrix, BoolShareMatrix), sa, sb, sc); err != nil {
				return err
			}
			if err := vm.Exec(reveal, sc, pub); err != nil {
				return err
			}
			bin.result[vm.PartyID()], err = vm.GetPublicBoolMatrix(pub)
			if err != nil {
				return err
			}
		}
		if err := vm.Exec(NewInstruction("not", BoolShareMatrix,
			BoolShareMatrix), sa, sc); err != nil {
			return err
		}
		out, err := vm.NewPrivateBoolMatrix(1)
		if err != nil {
			return err
		}
		if err := vm.Exec(NewInstruction("reveal", BoolShareMatrix,
			PrivateBoolMatrix), sc, out); err != nil {
			return err
		}
		not[vm.PartyID()], err = vm.GetPrivateBoolMatrix(out)
		return err
	})

	for party := 0; party < NumParties; party++ {
		for i := range a {
			assert.Equal(t, a[i] && b[i], and[party].Data[i])
			assert.Equal(t, a[i] != b[i], xor[party].Data[i])
		}
	}
	assert.Empty(t, not[0].Data)
	assert.Equal(t, []bool{true, true, false, false}, not[1].Data)
}

func TestSharePublicOps(t *testing.T) {
	var result [NumParties]matrix.Array[float64]

	runParties(t, func(vm *VM) error {
		priv, err := vm.NewPrivateDoubleMatrix(0)
		if err != nil {
			return err
		}
		if err := vm.SetPrivateDoubleMatrix(priv,
			matrix.NewArray(1, 3, []float64{1, 2, 3})); err != nil {
			return err
		}
		s := vm.NewArithShareMatrix()
		if err := vm.Exec(NewInstruction("share", PrivateDoubleMatrix,
			ArithShareMatrix), priv, s); err != nil {
			return err
		}
		c := vm.NewPublicDoubleMatrix()
		if err := vm.SetPublicDoubleMatrix(c,
			matrix.NewArray(1, 3, []float64{10, 20, 30})); err != nil {
			return err
		}
		// c - (s + c) * c
		t1 := vm.NewArithShareMatrix()
		if err := vm.Exec(NewInstruction("add", ArithShareMatrix,
			PublicDoubleMatrix, ArithShareMatrix), s, c, t1); err != nil {
			return err
		}
		if err := vm.Exec(NewInstruction("mul", PublicDoubleMatrix,
			ArithShareMatrix, ArithShareMatrix), c, t1, t1); err != nil {
			return err
		}
		if err := vm.Exec(NewInstruction("sub", PublicDoubleMatrix,
			ArithShareMatrix, ArithShareMatrix), c, t1, t1); err != nil {
			return err
		}
		pub := vm.NewPublicDoubleMatrix()
		if err := vm.Exec(NewInstruction("reveal", ArithShareMatrix,
			PublicDoubleMatrix), t1, pub); err != nil {
			return err
		}
		result[vm.PartyID()], err = vm.GetPublicDoubleMatrix(pub)
		return err
	})

	for party := 0; party < NumParties; party++ {
		assert.InDeltaSlice(t, []float64{-100, -420, -960},
			result[party].Data, 1e-3)
	}
}

func TestBuffers(t *testing.T) {
	var shape []int
	var buf []byte

	runParties(t, func(vm *VM) error {
		var err error
		if vm.PartyID() == 0 {
			if err := vm.SendShape([]int{2, 3, 4}); err != nil {
				return err
			}
			return vm.SendBuffer([]byte("hello"))
		}
		shape, err = vm.ReceiveShape()
		if err != nil {
			return err
		}
		buf, err = vm.ReceiveBuffer(5)
		return err
	})

	assert.Equal(t, []int{2, 3, 4}, shape)
	assert.Equal(t, []byte("hello"), buf)
}

func TestReceiveMatrixShape(t *testing.T) {
	tests := []struct {
		rows, cols uint32
		overflow   bool
	}{
		{0xffffffff, 0xffffffff, true},
		{2, 2, false},
	}
	for _, test := range tests {
		conn, raw := p2p.RawPipe()
		vm, err := New(conn, 1, nil)
		require.NoError(t, err)

		src, err := vm.NewPrivateDoubleMatrix(0)
		require.NoError(t, err)
		dst := vm.NewArithShareMatrix()

		var g errgroup.Group
		g.Go(func() error {
			var buf [8]byte
			binary.BigEndian.PutUint32(buf[0:], test.rows)
			binary.BigEndian.PutUint32(buf[4:], test.cols)
			if _, err := raw.Write(buf[:]); err != nil {
				return err
			}
			// Close before sending the matrix data.
			return raw.Close()
		})
		err = vm.Exec(NewInstruction("share", PrivateDoubleMatrix,
			ArithShareMatrix), src, dst)
		if test.overflow {
			assert.ErrorIs(t, err, duet.ErrInvalidArgument)
		} else {
			assert.Error(t, err)
		}
		require.NoError(t, g.Wait())

		rows, cols, err := vm.Shape(ArithShareMatrix, dst)
		require.NoError(t, err)
		assert.Equal(t, 0, rows*cols)
		conn.Close()
	}
}
