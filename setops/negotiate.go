//
// negotiate.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package setops

import (
	"github.com/markkurossi/duet"
	"github.com/markkurossi/duet/p2p"
	"github.com/pkg/errors"
)

// Role defines the negotiated role assignment of a party.
type Role struct {
	// IsSender tells if the party runs the sender side of the
	// cryptographic protocol.
	IsSender bool

	// BothObtain tells if both parties obtain the result.
	BothObtain bool

	// ReceiverOnly tells if only the receiver obtains the result.
	ReceiverOnly bool
}

// SenderObtainResult tells if the sender side obtains the result.
func (r Role) SenderObtainResult() bool {
	return r.BothObtain
}

// Obtain tells if the party owning the role obtains the result.
func (r Role) Obtain() bool {
	return r.BothObtain || !r.IsSender
}

// ResolveRole resolves the role from the local and peer obtain-result
// flags. The function is symmetric: the parties resolve complementary
// roles from the same pair of flags.
//
//	mine  theirs  IsSender       BothObtain
//	true  false   false          false
//	false true    true           false
//	true  true    party == 0     true
//	false false   ErrInvalidArgument
//
// The party 0 tie-break for (true, true) is a convention, not a
// requirement of the underlying schemes.
func ResolveRole(party int, mine, theirs bool) (Role, error) {
	switch {
	case mine && !theirs:
		return Role{
			IsSender:     false,
			ReceiverOnly: true,
		}, nil

	case !mine && theirs:
		return Role{
			IsSender:     true,
			ReceiverOnly: true,
		}, nil

	case mine && theirs:
		return Role{
			IsSender:   party == 0,
			BothObtain: true,
		}, nil

	default:
		return Role{}, errors.Wrap(duet.ErrInvalidArgument,
			"obtain_result: parameter config error")
	}
}

// ExchangeFlags sends the local flag to the peer and receives the
// peer's flag. Both parties must call the function at the same
// protocol step.
func ExchangeFlags(conn *p2p.Conn, mine bool) (bool, error) {
	if err := conn.SendBool(mine); err != nil {
		return false, err
	}
	if err := conn.Flush(); err != nil {
		return false, err
	}
	return conn.ReceiveBool()
}

// NegotiateRole exchanges the obtain-result flags with the peer and
// resolves the role of the party.
func NegotiateRole(conn *p2p.Conn, party int, obtain bool) (Role, error) {
	theirs, err := ExchangeFlags(conn, obtain)
	if err != nil {
		return Role{}, err
	}
	return ResolveRole(party, obtain, theirs)
}

// StaticRole returns the non-negotiated role of the party: the party
// 0 is the sender and both parties obtain the result.
func StaticRole(party int) Role {
	return Role{
		IsSender:   party == 0,
		BothObtain: true,
	}
}
