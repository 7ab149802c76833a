//
// main_test.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package main

import (
	"strings"
	"testing"

	"github.com/markkurossi/duet/matrix"
	"github.com/markkurossi/duet/p2p"
	"github.com/markkurossi/duet/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestReadSet(t *testing.T) {
	set, err := readSet(strings.NewReader("a\n\n  b \nc\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, set)
}

func TestReadTable(t *testing.T) {
	tab, err := readTable(strings.NewReader("a, 1, 10\nb, 2, 20\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tab.keys)
	assert.Equal(t, [][]uint64{{1, 2}, {10, 20}}, tab.features)

	_, err = readTable(strings.NewReader("a,1\nb,x\n"))
	assert.Error(t, err)
	_, err = readTable(strings.NewReader("a,1\nb,1,2\n"))
	assert.Error(t, err)
}

func TestReadMatrix(t *testing.T) {
	rows, err := readMatrix(strings.NewReader("1,2.5\n-3,4\n"))
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 2.5}, {-3, 4}}, rows)
}

func TestMul(t *testing.T) {
	inputs := [2]matrix.Array[float64]{
		matrix.NewArray(1, 3, []float64{1, 2, -3}),
		matrix.NewArray(1, 3, []float64{4, 0.5, 2}),
	}
	c0, c1 := p2p.Pipe()
	var result [2]matrix.Array[float64]

	var g errgroup.Group
	for party, conn := range []*p2p.Conn{c0, c1} {
		g.Go(func() error {
			machine, err := vm.New(conn, party, nil)
			if err != nil {
				return err
			}
			result[party], err = mul(machine, inputs[party])
			return err
		})
	}
	require.NoError(t, g.Wait())

	for party := 0; party < 2; party++ {
		assert.InDeltaSlice(t, []float64{4, 1, -6}, result[party].Data, 1e-3)
	}
}

func TestLabels(t *testing.T) {
	c0, c1 := p2p.Pipe()

	var sent uint64
	var g errgroup.Group
	g.Go(func() error {
		var err error
		sent, err = sendLabels(c0, 1000)
		return err
	})
	received, err := receiveLabels(c1)
	require.NoError(t, err)
	require.NoError(t, g.Wait())
	assert.Equal(t, uint64(1008), sent)
	assert.Equal(t, sent, received)
}
