//
// cuckoo.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package kkrt

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

const (
	// SeedSize defines the size of the hash function seed.
	SeedSize = 32
	maxKicks = 500
)

// Hasher implements the keyed bin hash functions.
type Hasher struct {
	seed [SeedSize]byte
	bins int
}

// NewHasher creates a new hasher for the number of bins.
func NewHasher(seed [SeedSize]byte, bins int) *Hasher {
	return &Hasher{
		seed: seed,
		bins: bins,
	}
}

// Bin returns the bin of the value for the hash function fn.
func (h *Hasher) Bin(fn int, value []byte) int {
	d, err := blake2b.New256(h.seed[:])
	if err != nil {
		panic(err)
	}
	d.Write([]byte{byte(fn)})
	d.Write(value)
	sum := d.Sum(nil)
	return int(binary.BigEndian.Uint64(sum) % uint64(h.bins))
}

// Cuckoo implements a cuckoo hash table with a stash. Each bin holds
// at most one value and the values that could not be placed are kept
// in the stash.
type Cuckoo struct {
	Table []int
	Fns   []int
	Stash []int
}

// NewCuckoo places the values in the cuckoo table. The table bins
// hold value indices or -1 for empty bins.
func NewCuckoo(h *Hasher, funNum int, values [][]byte) *Cuckoo {
	c := &Cuckoo{
		Table: make([]int, h.bins),
		Fns:   make([]int, h.bins),
	}
	for i := range c.Table {
		c.Table[i] = -1
	}
	bins := make([][]int, len(values))
	for i, v := range values {
		bins[i] = make([]int, funNum)
		for fn := 0; fn < funNum; fn++ {
			bins[i][fn] = h.Bin(fn, v)
		}
	}
	for i := range values {
		c.insert(bins, funNum, i)
	}
	return c
}

func (c *Cuckoo) insert(bins [][]int, funNum, idx int) {
	var fn int
	for kick := 0; kick < maxKicks; kick++ {
		for f := 0; f < funNum; f++ {
			b := bins[idx][f]
			if c.Table[b] < 0 {
				c.Table[b] = idx
				c.Fns[b] = f
				return
			}
		}
		b := bins[idx][fn]
		evicted, evictedFn := c.Table[b], c.Fns[b]
		c.Table[b] = idx
		c.Fns[b] = fn
		idx = evicted
		fn = (evictedFn + 1) % funNum
	}
	c.Stash = append(c.Stash, idx)
}
