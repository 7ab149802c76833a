//
// pjc.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package pjc implements private join and compute. The parties join
// their keyed feature tables on the intersection of the keys and
// obtain additive shares of the joined features. The keys are
// matched with commutative X25519 blinding. The intersection rows
// are ordered by their double-blinded keys so both parties agree on
// the row order without revealing the key values.
//
// The join is not hidden. Each party learns which of its own keys
// are in the intersection and the size of the intersection. Only the
// feature values are protected by the additive sharing.
package pjc

import (
	"bytes"
	"encoding/binary"
	"io"
	"sort"

	"github.com/markkurossi/duet"
	"github.com/markkurossi/duet/ecdhpsi"
	"github.com/markkurossi/duet/env"
	"github.com/markkurossi/duet/matrix"
	"github.com/markkurossi/duet/p2p"
	"github.com/markkurossi/duet/params"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Engine implements the PJC engine.
type Engine struct {
	config      *env.Config
	log         logrus.FieldLogger
	initialized bool
	isSender    bool
}

// New creates a new PJC engine.
func New(config *env.Config) *Engine {
	return &Engine{
		config: config,
		log:    config.GetLogger().WithField("scheme", "ecdh-pjc"),
	}
}

// Init initializes the engine from the parameters. The engine only
// reads common.is_sender; the ECDH join has no tunables.
func (e *Engine) Init(conn *p2p.Conn, p params.Params) error {
	var err error
	e.isSender, err = p.Bool(params.Common, params.IsSender)
	if err != nil {
		return err
	}
	e.initialized = true
	return nil
}

func validate(keys []string, features [][]uint64) error {
	seen := make(map[string]bool)
	for _, k := range keys {
		if seen[k] {
			return errors.Wrapf(duet.ErrInvalidArgument, "duplicate key '%s'", k)
		}
		seen[k] = true
	}
	for f, column := range features {
		if len(column) != len(keys) {
			return errors.Wrapf(duet.ErrInvalidArgument,
				"feature %d: got %d values, expected %d",
				f, len(column), len(keys))
		}
	}
	return nil
}

// Process joins the keys with the peer's keys. The features hold the
// feature columns: features[f][i] is the feature f of key i. The
// result has one row per matched key and the sender's feature
// columns followed by the receiver's feature columns. Each cell is
// an additive share modulo 2^64.
func (e *Engine) Process(conn *p2p.Conn, keys []string,
	features [][]uint64) (*matrix.Matrix[int64], error) {

	if !e.initialized {
		return nil, errors.New("ecdh-pjc: engine not initialized")
	}
	if err := validate(keys, features); err != nil {
		return nil, err
	}
	entropy := e.config.GetRandom()

	blinder, err := ecdhpsi.NewBlinder(entropy)
	if err != nil {
		return nil, err
	}
	own, err := blinder.BlindValues(keys)
	if err != nil {
		return nil, err
	}
	peer, err := e.exchange(conn, own, -1)
	if err != nil {
		return nil, err
	}
	peerDoubled, err := blinder.BlindAll(peer)
	if err != nil {
		return nil, err
	}
	ownDoubled, err := e.exchange(conn, peerDoubled, len(own))
	if err != nil {
		return nil, err
	}

	// Order the intersection by the double-blinded keys.
	peerSet := make(map[ecdhpsi.Point]bool)
	for _, p := range peerDoubled {
		peerSet[p] = true
	}
	var rows []ecdhpsi.Point
	for _, p := range ownDoubled {
		if peerSet[p] {
			rows = append(rows, p)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		return bytes.Compare(rows[i][:], rows[j][:]) < 0
	})
	rowOf := make(map[ecdhpsi.Point]int)
	for r, p := range rows {
		rowOf[p] = r
	}
	e.log.Debugf("joined %d rows", len(rows))

	peerFeatures, err := e.exchangeCount(conn, len(features))
	if err != nil {
		return nil, err
	}

	// Mask the own features. The peer gets value-mask and the mask
	// is the local share.
	masks := make([]uint64, len(rows)*len(features))
	var buf [8]byte
	for i := range masks {
		if _, err := io.ReadFull(entropy, buf[:]); err != nil {
			return nil, err
		}
		masks[i] = binary.BigEndian.Uint64(buf[:])
	}
	masked := make([]uint64, len(masks))
	for i, p := range ownDoubled {
		r, ok := rowOf[p]
		if !ok {
			continue
		}
		for f, column := range features {
			idx := r*len(features) + f
			masked[idx] = column[i] - masks[idx]
		}
	}
	expected, err := matrix.Size(len(rows), peerFeatures)
	if err != nil {
		return nil, err
	}
	peerMasked, err := e.exchangeValues(conn, masked, expected)
	if err != nil {
		return nil, err
	}
	if len(peerMasked) != expected {
		return nil, errors.Errorf("protocol error: got %d feature values, "+
			"expected %d", len(peerMasked), expected)
	}

	senderFeatures, receiverFeatures := len(features), peerFeatures
	senderShares, receiverShares := masks, peerMasked
	if !e.isSender {
		senderFeatures, receiverFeatures = receiverFeatures, senderFeatures
		senderShares, receiverShares = receiverShares, senderShares
	}
	result := matrix.New[int64](len(rows), senderFeatures+receiverFeatures)
	for r := 0; r < len(rows); r++ {
		for f := 0; f < senderFeatures; f++ {
			result.Set(r, f, int64(senderShares[r*senderFeatures+f]))
		}
		for f := 0; f < receiverFeatures; f++ {
			result.Set(r, senderFeatures+f,
				int64(receiverShares[r*receiverFeatures+f]))
		}
	}
	return result, nil
}

// exchange sends the points to the peer and receives the peer's
// points. The sender sends first. If count is not negative, the
// number of received points must match it.
func (e *Engine) exchange(conn *p2p.Conn, points []ecdhpsi.Point,
	count int) ([]ecdhpsi.Point, error) {

	receive := func() ([]ecdhpsi.Point, error) {
		if count < 0 {
			return ecdhpsi.ReceivePoints(conn, -1)
		}
		return ecdhpsi.ExpectPoints(conn, count)
	}
	if e.isSender {
		if err := ecdhpsi.SendPoints(conn, points); err != nil {
			return nil, err
		}
		return receive()
	}
	result, err := receive()
	if err != nil {
		return nil, err
	}
	return result, ecdhpsi.SendPoints(conn, points)
}

func (e *Engine) exchangeCount(conn *p2p.Conn, count int) (int, error) {
	send := func() error {
		if err := conn.SendUint32(count); err != nil {
			return err
		}
		return conn.Flush()
	}
	if e.isSender {
		if err := send(); err != nil {
			return 0, err
		}
		return conn.ReceiveUint32()
	}
	result, err := conn.ReceiveUint32()
	if err != nil {
		return 0, err
	}
	return result, send()
}

// exchangeValues sends the values to the peer and receives at most
// limit values from the peer.
func (e *Engine) exchangeValues(conn *p2p.Conn, values []uint64,
	limit int) ([]uint64, error) {

	send := func() error {
		if err := conn.SendUint64s(values); err != nil {
			return err
		}
		return conn.Flush()
	}
	if e.isSender {
		if err := send(); err != nil {
			return nil, err
		}
		return conn.ReceiveUint64s(limit)
	}
	result, err := conn.ReceiveUint64s(limit)
	if err != nil {
		return nil, err
	}
	return result, send()
}
