//
// pjc_test.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package pjc

import (
	"testing"

	"github.com/markkurossi/duet"
	"github.com/markkurossi/duet/matrix"
	"github.com/markkurossi/duet/p2p"
	"github.com/markkurossi/duet/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type table struct {
	keys     []string
	features [][]uint64
}

func run(tables [2]table) ([2]*matrix.Matrix[int64], error) {
	c0, c1 := p2p.Pipe()
	var result [2]*matrix.Matrix[int64]

	var g errgroup.Group
	for party, conn := range []*p2p.Conn{c0, c1} {
		g.Go(func() error {
			e := New(nil)
			p := params.New().Set(params.Common, params.IsSender, party == 0)
			if err := e.Init(conn, p); err != nil {
				return err
			}
			var err error
			result[party], err = e.Process(conn, tables[party].keys,
				tables[party].features)
			return err
		})
	}
	err := g.Wait()
	c0.Close()
	c1.Close()
	return result, err
}

func TestPJC(t *testing.T) {
	tables := [2]table{
		{
			keys: []string{"a", "b", "c"},
			features: [][]uint64{
				{1, 2, 3},
			},
		},
		{
			keys: []string{"d", "c", "b"},
			features: [][]uint64{
				{40, 30, 20},
				{400, 300, 200},
			},
		},
	}
	result, err := run(tables)
	require.NoError(t, err)

	sum, err := matrix.Add(result[0], result[1])
	require.NoError(t, err)
	rows, cols := sum.Shape()
	require.Equal(t, 2, rows)
	require.Equal(t, 3, cols)

	var joined [][]int64
	for r := 0; r < rows; r++ {
		joined = append(joined, sum.Data[r*cols:(r+1)*cols])
	}
	assert.ElementsMatch(t, [][]int64{
		{2, 20, 200},
		{3, 30, 300},
	}, joined)
}

func TestPJCNoMatch(t *testing.T) {
	tables := [2]table{
		{keys: []string{"a"}, features: [][]uint64{{1}}},
		{keys: []string{"b"}},
	}
	result, err := run(tables)
	require.NoError(t, err)
	for _, m := range result {
		rows, cols := m.Shape()
		assert.Equal(t, 0, rows)
		assert.Equal(t, 1, cols)
	}
}

func TestValidate(t *testing.T) {
	err := validate([]string{"a", "a"}, nil)
	assert.ErrorIs(t, err, duet.ErrInvalidArgument)
	err = validate([]string{"a", "b"}, [][]uint64{{1}})
	assert.ErrorIs(t, err, duet.ErrInvalidArgument)
	assert.NoError(t, validate([]string{"a"}, [][]uint64{{1}, {2}}))
}
