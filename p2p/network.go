//
// network.go
//
// Copyright (c) 2020-2026 Markku Rossi
//
// All rights reserved.
//

package p2p

import (
	"context"
	"net"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// RetryDelay specifies the delay between failed connection attempts.
var RetryDelay = 5 * time.Second

// Listen listens for the peer at the address and returns the
// connection to the first accepted peer.
func Listen(ctx context.Context, addr string, log logrus.FieldLogger) (
	*Conn, error) {

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	defer listener.Close()

	log.Infof("listening at %s", listener.Addr())

	type result struct {
		nc  net.Conn
		err error
	}
	ch := make(chan result, 1)
	go func() {
		nc, err := listener.Accept()
		ch <- result{nc, err}
	}()

	select {
	case <-ctx.Done():
		listener.Close()
		return nil, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return nil, r.err
		}
		log.Infof("accepted connection from %s", r.nc.RemoteAddr())
		return NewConn(r.nc), nil
	}
}

// Dial connects to the peer at the address. Failed connection
// attempts are retried every RetryDelay until the context is done.
func Dial(ctx context.Context, addr string, log logrus.FieldLogger) (
	*Conn, error) {

	var dialer net.Dialer
	for {
		log.Debugf("connecting to %s...", addr)
		nc, err := dialer.DialContext(ctx, "tcp", addr)
		if err == nil {
			log.Infof("connected to %s", addr)
			return NewConn(nc), nil
		}
		log.Debugf("connect to %s failed, retrying in %s: %s",
			addr, RetryDelay, err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(RetryDelay):
		}
	}
}

// Connect creates the two-party connection. The party 0 listens at
// the listen address and the party 1 dials the peer address. The
// parties exchange their IDs and verify that they are peers.
func Connect(ctx context.Context, id int, listen, peer string,
	log logrus.FieldLogger) (*Conn, error) {

	var conn *Conn
	var err error

	switch id {
	case 0:
		conn, err = Listen(ctx, listen, log)
	case 1:
		conn, err = Dial(ctx, peer, log)
	default:
		return nil, errors.Errorf("invalid party ID %d", id)
	}
	if err != nil {
		return nil, err
	}
	if err := conn.SendUint32(id); err != nil {
		conn.Close()
		return nil, err
	}
	if err := conn.Flush(); err != nil {
		conn.Close()
		return nil, err
	}
	peerID, err := conn.ReceiveUint32()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if peerID != 1-id {
		conn.Close()
		return nil, errors.Errorf("unexpected peer ID %d, expected %d",
			peerID, 1-id)
	}
	return conn, nil
}
