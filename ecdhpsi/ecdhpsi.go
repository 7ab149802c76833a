//
// ecdhpsi.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package ecdhpsi implements private set intersection with
// commutative X25519 blinding. Both parties blind their hashed
// values with a secret scalar and exchange the blinded values in a
// random order. A party obtaining the result gets its own values
// double-blinded by the peer and intersects them with the peer's
// values it double-blinds itself.
package ecdhpsi

import (
	"github.com/markkurossi/duet"
	"github.com/markkurossi/duet/env"
	"github.com/markkurossi/duet/p2p"
	"github.com/markkurossi/duet/params"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Engine parameters.
const (
	Section      = "ecdh_params"
	ObtainResult = "obtain_result"
)

// Engine implements the ECDH PSI engine.
type Engine struct {
	config      *env.Config
	log         logrus.FieldLogger
	initialized bool
	isSender    bool
	obtain      bool
}

// New creates a new ECDH PSI engine.
func New(config *env.Config) *Engine {
	return &Engine{
		config: config,
		log:    config.GetLogger().WithField("scheme", "ecdh-psi"),
	}
}

// Init initializes the engine from the parameters.
func (e *Engine) Init(conn *p2p.Conn, p params.Params) error {
	var err error
	e.isSender, err = p.Bool(params.Common, params.IsSender)
	if err != nil {
		return err
	}
	e.obtain, err = p.Bool(Section, ObtainResult)
	if err != nil {
		return err
	}
	e.initialized = true
	return nil
}

func unique(input []string) []string {
	seen := make(map[string]bool)
	var result []string
	for _, v := range input {
		if !seen[v] {
			seen[v] = true
			result = append(result, v)
		}
	}
	return result
}

// Process runs the PSI protocol for the input set. It returns the
// intersection in input order if the local party obtains the result,
// and an empty set otherwise.
func (e *Engine) Process(conn *p2p.Conn, input []string) ([]string, error) {
	if !e.initialized {
		return nil, errors.New("ecdh-psi: engine not initialized")
	}

	if err := conn.SendBool(e.obtain); err != nil {
		return nil, err
	}
	if err := conn.Flush(); err != nil {
		return nil, err
	}
	theirs, err := conn.ReceiveBool()
	if err != nil {
		return nil, err
	}
	if !e.obtain && !theirs {
		return nil, errors.Wrap(duet.ErrInvalidArgument,
			"obtain_result: parameter config error")
	}
	senderObtain, receiverObtain := e.obtain, theirs
	if !e.isSender {
		senderObtain, receiverObtain = theirs, e.obtain
	}

	values := unique(input)
	blinder, err := NewBlinder(e.config.GetRandom())
	if err != nil {
		return nil, err
	}
	blinded, err := blinder.BlindValues(values)
	if err != nil {
		return nil, err
	}
	perm, err := blinder.Perm(len(blinded))
	if err != nil {
		return nil, err
	}
	shuffled := make([]Point, len(blinded))
	for i, idx := range perm {
		shuffled[i] = blinded[idx]
	}

	var peer []Point
	if e.isSender {
		if err := SendPoints(conn, shuffled); err != nil {
			return nil, err
		}
		peer, err = ReceivePoints(conn, -1)
	} else {
		peer, err = ReceivePoints(conn, -1)
		if err == nil {
			err = SendPoints(conn, shuffled)
		}
	}
	if err != nil {
		return nil, err
	}
	e.log.Debugf("blinded %d values, peer has %d", len(shuffled), len(peer))

	peerDoubled, err := blinder.BlindAll(peer)
	if err != nil {
		return nil, err
	}

	// Return the double-blinded values, the sender's values first.
	var doubled []Point
	for _, senderRound := range []bool{true, false} {
		if senderRound && !senderObtain || !senderRound && !receiverObtain {
			continue
		}
		if senderRound == e.isSender {
			doubled, err = ExpectPoints(conn, len(shuffled))
		} else {
			err = SendPoints(conn, peerDoubled)
		}
		if err != nil {
			return nil, err
		}
	}
	if !e.obtain {
		return []string{}, nil
	}

	set := make(map[Point]bool)
	for _, p := range peerDoubled {
		set[p] = true
	}
	matched := make([]bool, len(values))
	for i, d := range doubled {
		if set[d] {
			matched[perm[i]] = true
		}
	}
	result := []string{}
	for i, v := range values {
		if matched[i] {
			result = append(result, v)
		}
	}
	e.log.Debugf("intersection has %d values", len(result))
	return result, nil
}
