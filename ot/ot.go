//
// ot.go
//
// Copyright (c) 2023-2026 Markku Rossi
//
// All rights reserved.

// Package ot implements the base 1-out-of-2 oblivious transfer. The
// VM share products run one OT per bit of the multiplier and the KKRT
// OPRF runs its base OTs with the roles reversed.
package ot

// OT is a batched 1-out-of-2 oblivious transfer. After InitSender
// and InitReceiver have been run on the two ends of an IO, the sender
// calls Send with one Wire per transfer and the receiver calls
// Receive with one choice bit per transfer. The receiver learns L1
// of each wire whose bit is set and L0 otherwise; the sender learns
// nothing about the bits. Both sides must agree on the batch size.
type OT interface {
	// InitSender binds the sender to the channel.
	InitSender(io IO) error

	// InitReceiver binds the receiver to the channel.
	InitReceiver(io IO) error

	// Send transfers the wires.
	Send(wires []Wire) error

	// Receive selects a label from each wire. The result must hold at
	// least len(flags) labels.
	Receive(flags []bool, result []Label) error
}
