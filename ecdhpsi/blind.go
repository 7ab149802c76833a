//
// blind.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package ecdhpsi

import (
	"io"
	"math/rand/v2"

	"github.com/markkurossi/duet/p2p"
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/curve25519"
)

// PointSize defines the size of the blinded values in bytes.
const PointSize = curve25519.PointSize

// pointChunk is the number of points ReceivePoints reads at a time.
const pointChunk = 4096

// Point is a blinded value.
type Point [PointSize]byte

// Blinder implements commutative blinding with an X25519 scalar:
// Blind(Blind(p, a), b) == Blind(Blind(p, b), a).
type Blinder struct {
	scalar [curve25519.ScalarSize]byte
	rand   io.Reader
}

// NewBlinder creates a blinder with a random scalar.
func NewBlinder(r io.Reader) (*Blinder, error) {
	b := &Blinder{
		rand: r,
	}
	if _, err := io.ReadFull(r, b.scalar[:]); err != nil {
		return nil, err
	}
	return b, nil
}

// HashToPoint hashes the value into a curve point.
func HashToPoint(value []byte) Point {
	return Point(blake2b.Sum256(value))
}

// Blind blinds the point with the blinder scalar.
func (b *Blinder) Blind(p Point) (Point, error) {
	var result Point
	out, err := curve25519.X25519(b.scalar[:], p[:])
	if err != nil {
		return result, err
	}
	copy(result[:], out)
	return result, nil
}

// BlindAll blinds all points.
func (b *Blinder) BlindAll(points []Point) ([]Point, error) {
	result := make([]Point, len(points))
	for i, p := range points {
		var err error
		result[i], err = b.Blind(p)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// BlindValues hashes and blinds the values.
func (b *Blinder) BlindValues(values []string) ([]Point, error) {
	result := make([]Point, len(values))
	for i, v := range values {
		var err error
		result[i], err = b.Blind(HashToPoint([]byte(v)))
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// Perm returns a random permutation of [0, n).
func (b *Blinder) Perm(n int) ([]int, error) {
	var seed [32]byte
	if _, err := io.ReadFull(b.rand, seed[:]); err != nil {
		return nil, err
	}
	return rand.New(rand.NewChaCha8(seed)).Perm(n), nil
}

// SendPoints sends the points to the peer and flushes the connection.
func SendPoints(conn *p2p.Conn, points []Point) error {
	if err := conn.SendUint32(len(points)); err != nil {
		return err
	}
	buf := make([]byte, len(points)*PointSize)
	for i, p := range points {
		copy(buf[i*PointSize:], p[:])
	}
	if err := conn.SendRaw(buf); err != nil {
		return err
	}
	return conn.Flush()
}

// ReceivePoints receives at most limit points from the peer. A
// negative limit accepts any number of points; the result then grows
// with the received data.
func ReceivePoints(conn *p2p.Conn, limit int) ([]Point, error) {
	count, err := conn.ReceiveUint32()
	if err != nil {
		return nil, err
	}
	if limit >= 0 && count > limit {
		return nil, errors.Wrapf(p2p.ErrTooLarge, "%d points, limit %d",
			count, limit)
	}
	result := make([]Point, 0, min(count, pointChunk))
	for len(result) < count {
		n := min(count-len(result), pointChunk)
		buf := make([]byte, n*PointSize)
		if err := conn.ReceiveRaw(buf); err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			var p Point
			copy(p[:], buf[i*PointSize:])
			result = append(result, p)
		}
	}
	return result, nil
}

// ExpectPoints receives points from the peer and verifies that their
// number is count.
func ExpectPoints(conn *p2p.Conn, count int) ([]Point, error) {
	result, err := ReceivePoints(conn, count)
	if err != nil {
		return nil, err
	}
	if len(result) != count {
		return nil, errors.Errorf("protocol error: got %d points, expected %d",
			len(result), count)
	}
	return result, nil
}
