//
// co.go
//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//
// Chou Orlandi OT - The Simplest Protocol for Oblivious Transfer.
//  - https://eprint.iacr.org/2015/267.pdf

/*

This implementation is derived from the EMP Toolkit's co.h
(https://github.com/emp-toolkit/emp-ot/blob/master/emp-ot/co.h)
with original license as follows:

MIT License

Copyright (c) 2018 Xiao Wang (wangxiao1254@gmail.com)

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.

Enquiries about further applications and development opportunities are welcome.

*/

package ot

import (
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"hash"
	"io"
	"math/big"

	"github.com/pkg/errors"
)

var (
	bo    = binary.BigEndian
	_  OT = &CO{}
)

func kdf(hash hash.Hash, x, y *big.Int, id uint64, digest []byte) []byte {
	hash.Reset()
	hash.Write(x.Bytes())
	hash.Write(y.Bytes())

	var tmp [8]byte
	bo.PutUint64(tmp[:], id)
	hash.Write(tmp[:])

	return hash.Sum(digest)
}

func xor(a, b []byte) []byte {
	l := len(a)
	if len(b) < l {
		l = len(b)
	}
	for i := 0; i < l; i++ {
		a[i] ^= b[i]
	}
	return a[:l]
}

// CO implements CO OT as the OT interface.
type CO struct {
	curve  elliptic.Curve
	hash   hash.Hash
	digest []byte
	rand   io.Reader
	io     IO
}

// NewCO creates a new CO OT implementing the OT interface. The
// argument reader is the entropy source; if it is nil, crypto/rand
// is used.
func NewCO(r io.Reader) *CO {
	if r == nil {
		r = rand.Reader
	}
	return &CO{
		curve:  elliptic.P256(),
		hash:   sha256.New(),
		digest: make([]byte, 0, sha256.Size),
		rand:   r,
	}
}

// InitSender initializes the OT sender.
func (co *CO) InitSender(io IO) error {
	co.io = io
	return sendCurve(io, co.curve)
}

// InitReceiver initializes the OT receiver.
func (co *CO) InitReceiver(io IO) error {
	co.io = io
	return expectCurve(io, co.curve)
}

// Send sends the wire labels with OT.
func (co *CO) Send(wires []Wire) error {
	if co.io == nil {
		return errors.New("not initialized as sender")
	}
	curveParams := co.curve.Params()

	// a <- Zp
	a, err := rand.Int(co.rand, curveParams.N)
	if err != nil {
		return err
	}
	aBytes := a.Bytes()

	// A = G^a
	Ax, Ay := co.curve.ScalarBaseMult(aBytes)

	if err := sendPoint(co.io, Ax, Ay); err != nil {
		return err
	}
	if err := co.io.Flush(); err != nil {
		return err
	}

	// Aa = A^a
	Aax, Aay := co.curve.ScalarMult(Ax, Ay, aBytes)

	// a:    {x,y}
	// a^-1: {x,-y}
	// AaInv = {Aax, -Aay}
	AaInvx := new(big.Int).Set(Aax)
	AaInvy := new(big.Int).Sub(curveParams.P, Aay)

	Bxs := make([]*big.Int, len(wires))
	Bys := make([]*big.Int, len(wires))
	Baxs := make([]*big.Int, len(wires))
	Bays := make([]*big.Int, len(wires))

	for i := range wires {
		BxRaw, ByRaw, err := receivePoint(co.io, co.curve)
		if err != nil {
			return errors.Wrapf(err, "point %d", i)
		}

		Bxs[i], Bys[i] = co.curve.ScalarMult(BxRaw, ByRaw, aBytes)
		Baxs[i], Bays[i] = co.curve.Add(Bxs[i], Bys[i], AaInvx, AaInvy)
	}

	var labelData LabelData
	for i := range wires {
		wires[i].L0.GetData(&labelData)
		e0 := xor(kdf(co.hash, Bxs[i], Bys[i], uint64(i), co.digest),
			labelData[:])
		if err := co.io.SendData(e0); err != nil {
			return err
		}
		wires[i].L1.GetData(&labelData)
		e1 := xor(kdf(co.hash, Baxs[i], Bays[i], uint64(i), co.digest),
			labelData[:])
		if err := co.io.SendData(e1); err != nil {
			return err
		}
	}

	return co.io.Flush()
}

// Receive receives the wire labels with OT based on the flag values.
func (co *CO) Receive(flags []bool, result []Label) error {
	if co.io == nil {
		return errors.New("not initialized as receiver")
	}
	if len(result) < len(flags) {
		return errors.Errorf("result buffer too short: %d < %d",
			len(result), len(flags))
	}
	curveParams := co.curve.Params()

	Ax, Ay, err := receivePoint(co.io, co.curve)
	if err != nil {
		return errors.Wrap(err, "sender point")
	}

	bs := make([][]byte, len(flags))

	for i, flag := range flags {
		// b <= Zp
		b, err := rand.Int(co.rand, curveParams.N)
		if err != nil {
			return err
		}
		bs[i] = b.Bytes()

		Bx, By := co.curve.ScalarBaseMult(bs[i])
		if flag {
			Bx, By = co.curve.Add(Bx, By, Ax, Ay)
		}
		if err := sendPoint(co.io, Bx, By); err != nil {
			return err
		}
	}

	if err := co.io.Flush(); err != nil {
		return err
	}

	for i, flag := range flags {
		Asx, Asy := co.curve.ScalarMult(Ax, Ay, bs[i])

		e0, err := co.io.ReceiveData()
		if err != nil {
			return err
		}
		e1, err := co.io.ReceiveData()
		if err != nil {
			return err
		}
		e := e0
		if flag {
			e = e1
		}
		if len(e) != len(LabelData{}) {
			return errors.Errorf("invalid OT message length %d", len(e))
		}
		data := xor(kdf(co.hash, Asx, Asy, uint64(i), co.digest), e)
		result[i].SetBytes(data)
	}

	return nil
}
