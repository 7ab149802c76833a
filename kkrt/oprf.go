//
// oprf.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package kkrt

import (
	"encoding/binary"
	"io"

	"github.com/markkurossi/duet/ot"
	"github.com/markkurossi/duet/p2p"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/chacha20"
)

const (
	// CodeBits defines the width of the pseudorandom code.
	CodeBits = 512
	// CodeBytes defines the code size in bytes.
	CodeBytes = CodeBits / 8
	// EncodingSize defines the size of the OPRF output.
	EncodingSize = 16
)

// Code is a pseudorandom code word.
type Code [CodeBytes]byte

// Encoding is an OPRF output.
type Encoding [EncodingSize]byte

// NewCode computes the code word of the input.
func NewCode(input []byte) Code {
	return Code(blake2b.Sum512(input))
}

// expand expands the base OT seed into n pseudorandom bits.
func expand(seed ot.Label, n int) ([]byte, error) {
	var data ot.LabelData
	key := blake2b.Sum256(seed.Bytes(&data))
	var nonce [chacha20.NonceSize]byte
	cipher, err := chacha20.NewUnauthenticatedCipher(key[:], nonce[:])
	if err != nil {
		return nil, err
	}
	result := make([]byte, (n+7)/8)
	cipher.XORKeyStream(result, result)
	return result, nil
}

func bit(buf []byte, i int) byte {
	return (buf[i/8] >> (i % 8)) & 1
}

// transpose converts the CodeBits columns of n bits into n rows.
func transpose(cols [][]byte, n int) []Code {
	rows := make([]Code, n)
	for j, col := range cols {
		for r := 0; r < n; r++ {
			if bit(col, r) == 1 {
				rows[r][j/8] |= 1 << (j % 8)
			}
		}
	}
	return rows
}

func encode(row int, q Code) Encoding {
	d, err := blake2b.New(EncodingSize, nil)
	if err != nil {
		panic(err)
	}
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(row))
	d.Write(buf[:])
	d.Write(q[:])

	var result Encoding
	copy(result[:], d.Sum(nil))
	return result
}

// ReceiverOPRF runs the OPRF receiver for the inputs. The receiver is
// the base OT sender. The function returns the OPRF output of each
// input row.
func ReceiverOPRF(conn *p2p.Conn, rand io.Reader, inputs [][]byte) (
	[]Encoding, error) {

	n := len(inputs)
	wires := make([]ot.Wire, CodeBits)
	for i := range wires {
		var err error
		wires[i].L0, err = ot.NewLabel(rand)
		if err != nil {
			return nil, err
		}
		wires[i].L1, err = ot.NewLabel(rand)
		if err != nil {
			return nil, err
		}
	}
	co := ot.NewCO(rand)
	if err := co.InitSender(conn); err != nil {
		return nil, err
	}
	if err := co.Send(wires); err != nil {
		return nil, err
	}

	codes := make([]Code, n)
	for r, input := range inputs {
		codes[r] = NewCode(input)
	}

	t0 := make([][]byte, CodeBits)
	for j := range wires {
		var err error
		t0[j], err = expand(wires[j].L0, n)
		if err != nil {
			return nil, err
		}
		t1, err := expand(wires[j].L1, n)
		if err != nil {
			return nil, err
		}
		u := make([]byte, len(t1))
		for r := 0; r < n; r++ {
			u[r/8] |= bit(codes[r][:], j) << (r % 8)
		}
		for i := range u {
			u[i] ^= t0[j][i] ^ t1[i]
		}
		if err := conn.SendRaw(u); err != nil {
			return nil, err
		}
	}
	if err := conn.Flush(); err != nil {
		return nil, err
	}

	result := make([]Encoding, n)
	for r, t := range transpose(t0, n) {
		result[r] = encode(r, t)
	}
	return result, nil
}

// SenderKey holds the OPRF sender state.
type SenderKey struct {
	s Code
	q []Code
}

// SenderOPRF runs the OPRF sender for n rows. The sender is the base
// OT receiver.
func SenderOPRF(conn *p2p.Conn, rand io.Reader, n int) (*SenderKey, error) {
	key := &SenderKey{}
	if _, err := io.ReadFull(rand, key.s[:]); err != nil {
		return nil, err
	}
	flags := make([]bool, CodeBits)
	for j := range flags {
		flags[j] = bit(key.s[:], j) == 1
	}
	labels := make([]ot.Label, CodeBits)
	co := ot.NewCO(rand)
	if err := co.InitReceiver(conn); err != nil {
		return nil, err
	}
	if err := co.Receive(flags, labels); err != nil {
		return nil, err
	}

	q := make([][]byte, CodeBits)
	for j := range q {
		var err error
		q[j], err = expand(labels[j], n)
		if err != nil {
			return nil, err
		}
		u := make([]byte, len(q[j]))
		if err := conn.ReceiveRaw(u); err != nil {
			return nil, err
		}
		if flags[j] {
			for i := range u {
				q[j][i] ^= u[i]
			}
		}
	}
	key.q = transpose(q, n)
	return key, nil
}

// Rows returns the number of OPRF rows.
func (key *SenderKey) Rows() int {
	return len(key.q)
}

// Eval evaluates the OPRF of the row for the input.
func (key *SenderKey) Eval(row int, input []byte) Encoding {
	code := NewCode(input)
	x := key.q[row]
	for i := range x {
		x[i] ^= key.s[i] & code[i]
	}
	return encode(row, x)
}
