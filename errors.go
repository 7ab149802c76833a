//
// errors.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package duet implements a two-party secure computation core: a
// register based value store holding private, public, and secret
// shared matrices, and the role negotiation and scheme dispatching
// for private set intersection (PSI) and private join and compute
// (PJC).
//
// The error values of this package classify all caller errors
// reported by the sub-packages. Errors from the network channel or
// from the cryptographic engines are returned unchanged.
package duet

import (
	"github.com/pkg/errors"
)

var (
	// ErrInvalidArgument reports malformed caller input: bad shapes,
	// party IDs out of range, inconsistent negotiation flags, or
	// unknown operations.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnknownRegister reports access to a register address that
	// was never allocated or has been deleted.
	ErrUnknownRegister = errors.New("unknown register")

	// ErrTypeMismatch reports access to a register with an operation
	// for a different register kind.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrUnsupportedScheme reports a declared but unsupported PSI or
	// PJC scheme. It is a specialization of ErrInvalidArgument.
	ErrUnsupportedScheme = errors.WithMessage(ErrInvalidArgument,
		"unsupported scheme")
)
