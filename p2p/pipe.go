//
// pipe.go
//
// Copyright (c) 2025-2026 Markku Rossi
//
// All rights reserved.
//

package p2p

import (
	"net"
)

// Pipe creates two connected in-memory connections for running both
// parties in one process. The parties must run in separate
// goroutines.
func Pipe() (*Conn, *Conn) {
	c0, c1 := net.Pipe()
	return NewConn(c0), NewConn(c1)
}

// RawPipe returns a Conn and the unframed peer end of the pipe.
// Tests use the raw end to inject hand-crafted frames.
func RawPipe() (*Conn, net.Conn) {
	c0, c1 := net.Pipe()
	return NewConn(c0), c1
}
