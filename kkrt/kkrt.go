//
// kkrt.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package kkrt implements private set intersection with the KKRT
// batched oblivious pseudorandom function. The receiver places its
// values in a cuckoo hash table and evaluates the OPRF on the table
// rows. The sender evaluates the OPRF on each of its values for all
// candidate rows and sends the encodings to the receiver. The
// receiver always obtains the intersection. The sender obtains it
// when the sender_obtain_result parameter is set.
package kkrt

import (
	"io"
	"math"
	"math/rand/v2"

	"github.com/markkurossi/duet"
	"github.com/markkurossi/duet/env"
	"github.com/markkurossi/duet/p2p"
	"github.com/markkurossi/duet/params"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Engine parameters.
const (
	Section            = "kkrt_psi_params"
	Epsilon            = "epsilon"
	FunNum             = "fun_num"
	SenderObtainResult = "sender_obtain_result"
)

const (
	stashMarker = 0xff
	dummyMarker = 0xfe
)

// Engine implements the KKRT PSI engine.
type Engine struct {
	config             *env.Config
	log                logrus.FieldLogger
	initialized        bool
	isSender           bool
	senderObtainResult bool
	epsilon            float64
	funNum             int
}

// New creates a new KKRT PSI engine.
func New(config *env.Config) *Engine {
	return &Engine{
		config: config,
		log:    config.GetLogger().WithField("scheme", "kkrt-psi"),
	}
}

// Init initializes the engine from the parameters.
func (e *Engine) Init(conn *p2p.Conn, p params.Params) error {
	var err error
	e.isSender, err = p.Bool(params.Common, params.IsSender)
	if err != nil {
		return err
	}
	e.senderObtainResult, err = p.Bool(Section, SenderObtainResult)
	if err != nil {
		return err
	}
	e.epsilon, err = p.Float(Section, Epsilon)
	if err != nil {
		return err
	}
	e.funNum, err = p.Int(Section, FunNum)
	if err != nil {
		return err
	}
	if e.epsilon < 1 || e.funNum < 1 || e.funNum >= dummyMarker {
		return errors.Wrapf(duet.ErrInvalidArgument,
			"invalid parameters: epsilon=%v, fun_num=%v",
			e.epsilon, e.funNum)
	}
	e.initialized = true
	return nil
}

// Process runs the PSI protocol for the input set. It returns the
// intersection in input order if the local party obtains the result,
// and an empty set otherwise.
func (e *Engine) Process(conn *p2p.Conn, input []string) ([]string, error) {
	if !e.initialized {
		return nil, errors.New("kkrt-psi: engine not initialized")
	}
	values := unique(input)
	if e.isSender {
		return e.sender(conn, values)
	}
	return e.receiver(conn, values)
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

func (e *Engine) bins(n int) int {
	bins := int(math.Ceil(e.epsilon * float64(n)))
	if bins < 1 {
		bins = 1
	}
	return bins
}

func tagged(value string, tag byte) []byte {
	result := make([]byte, len(value)+1)
	copy(result, value)
	result[len(value)] = tag
	return result
}

func (e *Engine) receiver(conn *p2p.Conn, values []string) ([]string, error) {
	entropy := e.config.GetRandom()

	peerSize, err := conn.ReceiveUint32()
	if err != nil {
		return nil, err
	}
	var seed [SeedSize]byte
	if err := conn.ReceiveRaw(seed[:]); err != nil {
		return nil, err
	}
	if err := conn.SendUint32(len(values)); err != nil {
		return nil, err
	}

	raw := make([][]byte, len(values))
	for i, v := range values {
		raw[i] = []byte(v)
	}
	m := e.bins(len(values))
	table := NewCuckoo(NewHasher(seed, m), e.funNum, raw)
	if err := conn.SendUint32(len(table.Stash)); err != nil {
		return nil, err
	}
	if err := conn.Flush(); err != nil {
		return nil, err
	}
	e.log.Debugf("cuckoo: %d values, %d bins, stash %d, peer has %d values",
		len(values), m, len(table.Stash), peerSize)

	inputs := make([][]byte, m+len(table.Stash))
	for b, idx := range table.Table {
		if idx < 0 {
			var dummy [EncodingSize + 1]byte
			if _, err := io.ReadFull(entropy, dummy[:EncodingSize]); err != nil {
				return nil, err
			}
			dummy[EncodingSize] = dummyMarker
			inputs[b] = dummy[:]
		} else {
			inputs[b] = tagged(values[idx], byte(table.Fns[b]))
		}
	}
	for j, idx := range table.Stash {
		inputs[m+j] = tagged(values[idx], stashMarker)
	}

	own, err := ReceiverOPRF(conn, entropy, inputs)
	if err != nil {
		return nil, err
	}

	count, err := conn.ReceiveUint32()
	if err != nil {
		return nil, err
	}
	if count != peerSize*(e.funNum+len(table.Stash)) {
		return nil, errors.Errorf("protocol error: got %d encodings, "+
			"expected %d", count, peerSize*(e.funNum+len(table.Stash)))
	}
	buf := make([]byte, count*EncodingSize)
	if err := conn.ReceiveRaw(buf); err != nil {
		return nil, err
	}
	peer := make(map[Encoding]bool)
	for i := 0; i < count; i++ {
		var enc Encoding
		copy(enc[:], buf[i*EncodingSize:])
		peer[enc] = true
	}

	matched := make([]bool, len(values))
	for b, idx := range table.Table {
		if idx >= 0 && peer[own[b]] {
			matched[idx] = true
		}
	}
	for j, idx := range table.Stash {
		if peer[own[m+j]] {
			matched[idx] = true
		}
	}
	result := []string{}
	for i, v := range values {
		if matched[i] {
			result = append(result, v)
		}
	}
	e.log.Debugf("intersection has %d values", len(result))

	if e.senderObtainResult {
		if err := conn.SendStrings(result); err != nil {
			return nil, err
		}
		if err := conn.Flush(); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (e *Engine) sender(conn *p2p.Conn, values []string) ([]string, error) {
	entropy := e.config.GetRandom()

	var seed [SeedSize]byte
	if _, err := io.ReadFull(entropy, seed[:]); err != nil {
		return nil, err
	}
	if err := conn.SendUint32(len(values)); err != nil {
		return nil, err
	}
	if err := conn.SendRaw(seed[:]); err != nil {
		return nil, err
	}
	if err := conn.Flush(); err != nil {
		return nil, err
	}
	peerSize, err := conn.ReceiveUint32()
	if err != nil {
		return nil, err
	}
	stash, err := conn.ReceiveUint32()
	if err != nil {
		return nil, err
	}
	if stash > peerSize {
		return nil, errors.Errorf("protocol error: stash %d exceeds %d values",
			stash, peerSize)
	}
	m := e.bins(peerSize)
	hasher := NewHasher(seed, m)
	e.log.Debugf("peer has %d values, %d bins, stash %d", peerSize, m, stash)

	key, err := SenderOPRF(conn, entropy, m+stash)
	if err != nil {
		return nil, err
	}

	var encodings []Encoding
	for _, v := range values {
		raw := []byte(v)
		for fn := 0; fn < e.funNum; fn++ {
			encodings = append(encodings,
				key.Eval(hasher.Bin(fn, raw), tagged(v, byte(fn))))
		}
		for j := 0; j < stash; j++ {
			encodings = append(encodings,
				key.Eval(m+j, tagged(v, stashMarker)))
		}
	}

	var permSeed [32]byte
	if _, err := io.ReadFull(entropy, permSeed[:]); err != nil {
		return nil, err
	}
	prg := rand.New(rand.NewChaCha8(permSeed))
	prg.Shuffle(len(encodings), func(i, j int) {
		encodings[i], encodings[j] = encodings[j], encodings[i]
	})

	if err := conn.SendUint32(len(encodings)); err != nil {
		return nil, err
	}
	for _, enc := range encodings {
		if err := conn.SendRaw(enc[:]); err != nil {
			return nil, err
		}
	}
	if err := conn.Flush(); err != nil {
		return nil, err
	}

	if !e.senderObtainResult {
		return []string{}, nil
	}
	// The intersection is a subset of the own values.
	result, err := conn.ReceiveStrings(len(values))
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = []string{}
	}
	return result, nil
}
