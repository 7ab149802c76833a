//
// input.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package main

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// readInput reads the input from the file argument or from the
// standard input.
func readInput[T any](args []string, read func(io.Reader) (T, error)) (
	T, error) {

	if len(args) == 0 {
		return read(os.Stdin)
	}
	f, err := os.Open(args[0])
	if err != nil {
		var zero T
		return zero, err
	}
	defer f.Close()
	return read(f)
}

// readSet reads the non-empty input lines.
func readSet(r io.Reader) ([]string, error) {
	var result []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) > 0 {
			result = append(result, line)
		}
	}
	return result, scanner.Err()
}

type table struct {
	keys     []string
	features [][]uint64
}

// readTable reads key,feature... CSV rows. All rows must have the
// same number of features.
func readTable(r io.Reader) (*table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	tab := &table{}
	for i, record := range records {
		if i == 0 {
			tab.features = make([][]uint64, len(record)-1)
		}
		tab.keys = append(tab.keys, record[0])
		for f, field := range record[1:] {
			v, err := strconv.ParseUint(field, 10, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d", i+1)
			}
			tab.features[f] = append(tab.features[f], v)
		}
	}
	return tab, nil
}

// readMatrix reads a real matrix from CSV rows.
func readMatrix(r io.Reader) ([][]float64, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	var result [][]float64
	for i, record := range records {
		var row []float64
		for _, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d", i+1)
			}
			row = append(row, v)
		}
		result = append(result, row)
	}
	return result, nil
}
