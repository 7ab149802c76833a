//
// kind.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package vm

import (
	"fmt"

	"github.com/markkurossi/duet"
	"github.com/pkg/errors"
)

// Kind defines register value kinds. The kind of a register is fixed
// when the register is allocated.
type Kind int

// Register value kinds.
const (
	PrivateDoubleMatrix Kind = iota
	PrivateBoolMatrix
	PublicDoubleMatrix
	PublicBoolMatrix
	ArithShareMatrix
	BoolShareMatrix
	PublicDouble
	PublicIndex
)

var kindNames = map[Kind]string{
	PrivateDoubleMatrix: "pdm",
	PrivateBoolMatrix:   "pbm",
	PublicDoubleMatrix:  "cdm",
	PublicBoolMatrix:    "cbm",
	ArithShareMatrix:    "am",
	BoolShareMatrix:     "bm",
	PublicDouble:        "cd",
	PublicIndex:         "ci",
}

func (k Kind) String() string {
	name, ok := kindNames[k]
	if ok {
		return name
	}
	return fmt.Sprintf("{Kind %d}", k)
}

// ParseKind parses the kind from its short name.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, errors.Wrapf(duet.ErrInvalidArgument, "unknown kind '%s'", name)
}

// Private tests if the kind is visible only to its owner party.
func (k Kind) Private() bool {
	return k == PrivateDoubleMatrix || k == PrivateBoolMatrix
}

// Matrix tests if the kind holds a matrix.
func (k Kind) Matrix() bool {
	return k != PublicDouble && k != PublicIndex
}

// Share tests if the kind holds a secret share.
func (k Kind) Share() bool {
	return k == ArithShareMatrix || k == BoolShareMatrix
}

// Float tests if the kind holds a real matrix.
func (k Kind) Float() bool {
	return k == PrivateDoubleMatrix || k == PublicDoubleMatrix
}
