//
// io.go
//
// Copyright (c) 2023-2026 Markku Rossi
//
// All rights reserved.

package ot

import (
	"crypto/elliptic"
	"math/big"

	"github.com/pkg/errors"
)

// IO is the lock-step message channel the OT protocols run over.
// The p2p.Conn implements it for network peers and Pipe for
// in-process tests.
type IO interface {
	// SendData sends a length-prefixed byte string.
	SendData(val []byte) error

	// SendUint32 sends a 32-bit unsigned value.
	SendUint32(val int) error

	// Flush sends all buffered data to the peer.
	Flush() error

	// ReceiveData receives a length-prefixed byte string.
	ReceiveData() ([]byte, error)

	// ReceiveUint32 receives a 32-bit unsigned value.
	ReceiveUint32() (int, error)
}

// sendCurve announces the curve the sender operates on.
func sendCurve(io IO, curve elliptic.Curve) error {
	if err := io.SendData([]byte(curve.Params().Name)); err != nil {
		return err
	}
	return io.Flush()
}

// expectCurve receives the peer's curve announcement and verifies
// that the peers agree on the curve.
func expectCurve(io IO, curve elliptic.Curve) error {
	name, err := io.ReceiveData()
	if err != nil {
		return err
	}
	if string(name) != curve.Params().Name {
		return errors.Errorf("invalid curve %q, expected %s",
			name, curve.Params().Name)
	}
	return nil
}

func sendPoint(io IO, x, y *big.Int) error {
	if err := io.SendData(x.Bytes()); err != nil {
		return err
	}
	return io.SendData(y.Bytes())
}

// receivePoint receives affine point coordinates and verifies that
// the point is on the curve.
func receivePoint(io IO, curve elliptic.Curve) (x, y *big.Int, err error) {
	size := (curve.Params().BitSize + 7) / 8
	var coords [2]*big.Int
	for i := range coords {
		data, err := io.ReceiveData()
		if err != nil {
			return nil, nil, err
		}
		if len(data) > size {
			return nil, nil, errors.Errorf("coordinate too long: %d > %d",
				len(data), size)
		}
		coords[i] = new(big.Int).SetBytes(data)
	}
	if !curve.IsOnCurve(coords[0], coords[1]) {
		return nil, nil, errors.New("point not on curve")
	}
	return coords[0], coords[1], nil
}
