//
// channel.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package vm

import (
	"encoding/binary"
	"io"

	"github.com/markkurossi/duet"
	"github.com/markkurossi/duet/matrix"
	"github.com/pkg/errors"
)

// SendBuffer sends the raw bytes to the peer and flushes the
// connection. The peer must receive the buffer with ReceiveBuffer
// using the same length.
func (vm *VM) SendBuffer(data []byte) error {
	if err := vm.conn.SendRaw(data); err != nil {
		return err
	}
	return vm.conn.Flush()
}

// ReceiveBuffer receives n raw bytes from the peer.
func (vm *VM) ReceiveBuffer(n int) ([]byte, error) {
	if n < 0 {
		return nil, errors.Wrapf(duet.ErrInvalidArgument,
			"invalid buffer length %d", n)
	}
	buf := make([]byte, n)
	if err := vm.conn.ReceiveRaw(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// SendShape sends the array shape to the peer. The shape is encoded
// as the number of dimensions followed by the dimensions.
func (vm *VM) SendShape(shape []int) error {
	for _, dim := range shape {
		if dim < 0 {
			return errors.Wrapf(duet.ErrInvalidArgument,
				"invalid shape %v", shape)
		}
	}
	if err := vm.conn.SendUint32(len(shape)); err != nil {
		return err
	}
	for _, dim := range shape {
		if err := vm.conn.SendUint32(dim); err != nil {
			return err
		}
	}
	return vm.conn.Flush()
}

// ReceiveShape receives an array shape from the peer.
func (vm *VM) ReceiveShape() ([]int, error) {
	ndim, err := vm.conn.ReceiveUint32()
	if err != nil {
		return nil, err
	}
	var shape []int
	for i := 0; i < ndim; i++ {
		dim, err := vm.conn.ReceiveUint32()
		if err != nil {
			return nil, err
		}
		shape = append(shape, dim)
	}
	if shape == nil {
		shape = []int{}
	}
	return shape, nil
}

func (vm *VM) sendMatrix(m *matrix.Matrix[int64]) error {
	if err := vm.conn.SendUint32(m.Rows); err != nil {
		return err
	}
	if err := vm.conn.SendUint32(m.Cols); err != nil {
		return err
	}
	buf := make([]byte, 8*len(m.Data))
	for i, v := range m.Data {
		binary.BigEndian.PutUint64(buf[i*8:], uint64(v))
	}
	if err := vm.conn.SendRaw(buf); err != nil {
		return err
	}
	return vm.conn.Flush()
}

// receiveChunk is the number of elements receiveMatrix reads at a
// time.
const receiveChunk = 8192

// receiveMatrix receives a matrix from the peer. The data buffer
// grows with the received elements.
func (vm *VM) receiveMatrix() (*matrix.Matrix[int64], error) {
	rows, err := vm.conn.ReceiveUint32()
	if err != nil {
		return nil, err
	}
	cols, err := vm.conn.ReceiveUint32()
	if err != nil {
		return nil, err
	}
	size, err := matrix.Size(rows, cols)
	if err != nil {
		return nil, err
	}
	data := make([]int64, 0, min(size, receiveChunk))
	var buf [8 * receiveChunk]byte
	for len(data) < size {
		n := min(size-len(data), receiveChunk)
		if err := vm.conn.ReceiveRaw(buf[:8*n]); err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			data = append(data, int64(binary.BigEndian.Uint64(buf[i*8:])))
		}
	}
	return &matrix.Matrix[int64]{
		Rows: rows,
		Cols: cols,
		Data: data,
	}, nil
}

// exchangeMatrix sends the local matrix to the peer and returns the
// peer's matrix. The party 0 sends first.
func (vm *VM) exchangeMatrix(m *matrix.Matrix[int64]) (
	*matrix.Matrix[int64], error) {

	if vm.party == 0 {
		if err := vm.sendMatrix(m); err != nil {
			return nil, err
		}
		return vm.receiveMatrix()
	}
	peer, err := vm.receiveMatrix()
	if err != nil {
		return nil, err
	}
	if err := vm.sendMatrix(m); err != nil {
		return nil, err
	}
	return peer, nil
}

// randomUint64s returns n random values.
func (vm *VM) randomUint64s(n int) ([]uint64, error) {
	buf := make([]byte, 8*n)
	if _, err := io.ReadFull(vm.config.GetRandom(), buf); err != nil {
		return nil, err
	}
	result := make([]uint64, n)
	for i := range result {
		result[i] = binary.BigEndian.Uint64(buf[i*8:])
	}
	return result, nil
}
