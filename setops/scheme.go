//
// scheme.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package setops

import (
	"fmt"

	"github.com/markkurossi/duet"
	"github.com/markkurossi/duet/ecdhpsi"
	"github.com/markkurossi/duet/env"
	"github.com/markkurossi/duet/kkrt"
	"github.com/markkurossi/duet/matrix"
	"github.com/markkurossi/duet/p2p"
	"github.com/markkurossi/duet/params"
	"github.com/markkurossi/duet/pjc"
	"github.com/pkg/errors"
)

// PSIScheme defines the private set intersection schemes.
type PSIScheme int

// PSI schemes.
const (
	PSIECDH PSIScheme = iota
	PSIKKRT
	PSIVOLE
)

var psiSchemes = map[PSIScheme]string{
	PSIECDH: "ecdh",
	PSIKKRT: "kkrt",
	PSIVOLE: "vole",
}

func (s PSIScheme) String() string {
	name, ok := psiSchemes[s]
	if ok {
		return name
	}
	return fmt.Sprintf("{PSIScheme %d}", s)
}

// ParsePSIScheme parses the PSI scheme name.
func ParsePSIScheme(name string) (PSIScheme, error) {
	for s, n := range psiSchemes {
		if n == name {
			return s, nil
		}
	}
	return 0, errors.Wrapf(duet.ErrInvalidArgument,
		"unknown PSI scheme '%s'", name)
}

// PJCScheme defines the private join and compute schemes.
type PJCScheme int

// PJC schemes.
const (
	PJCECDH PJCScheme = iota
	PJCVOLE
)

var pjcSchemes = map[PJCScheme]string{
	PJCECDH: "ecdh",
	PJCVOLE: "vole",
}

func (s PJCScheme) String() string {
	name, ok := pjcSchemes[s]
	if ok {
		return name
	}
	return fmt.Sprintf("{PJCScheme %d}", s)
}

// ParsePJCScheme parses the PJC scheme name.
func ParsePJCScheme(name string) (PJCScheme, error) {
	for s, n := range pjcSchemes {
		if n == name {
			return s, nil
		}
	}
	return 0, errors.Wrapf(duet.ErrInvalidArgument,
		"unknown PJC scheme '%s'", name)
}

// KKRT PSI tunables. Both parties must use the same values.
const (
	KKRTEpsilon = 1.27
	KKRTFunNum  = 3
)

// PSIEngine implements a PSI scheme.
type PSIEngine interface {
	// Init initializes the engine from the parameters.
	Init(conn *p2p.Conn, p params.Params) error

	// Process runs the protocol and returns the intersection.
	Process(conn *p2p.Conn, input []string) ([]string, error)
}

// PJCEngine implements a PJC scheme.
type PJCEngine interface {
	// Init initializes the engine from the parameters.
	Init(conn *p2p.Conn, p params.Params) error

	// Process runs the protocol and returns the shares of the joined
	// features.
	Process(conn *p2p.Conn, keys []string, features [][]uint64) (
		*matrix.Matrix[int64], error)
}

// NewPSIEngine creates the engine for the PSI scheme.
func NewPSIEngine(scheme PSIScheme, config *env.Config) (PSIEngine, error) {
	switch scheme {
	case PSIECDH:
		return ecdhpsi.New(config), nil
	case PSIKKRT:
		return kkrt.New(config), nil
	default:
		return nil, errors.Wrapf(duet.ErrUnsupportedScheme, "PSI %s", scheme)
	}
}

// NewPJCEngine creates the engine for the PJC scheme.
func NewPJCEngine(scheme PJCScheme, config *env.Config) (PJCEngine, error) {
	switch scheme {
	case PJCECDH:
		return pjc.New(config), nil
	default:
		return nil, errors.Wrapf(duet.ErrUnsupportedScheme, "PJC %s", scheme)
	}
}
