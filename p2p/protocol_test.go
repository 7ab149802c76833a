//
// protocol_test.go
//
// Copyright (c) 2023-2026 Markku Rossi
//
// All rights reserved.
//

package p2p

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

var tests = []interface{}{
	byte(42),
	true,
	uint16(43),
	uint32(44),
	uint64(0xfedcba9876543210),
	float64(-3.5),
	"Hello, world!",
	[]string{"a", "", "ccc"},
	[]uint64{1, 2, 3},
	make([]byte, 1024),
	make([]byte, 2*1024*1024),
	make([]byte, 64*1024*1024),
}

func writer(c *Conn) error {
	for _, test := range tests {
		var err error
		switch d := test.(type) {
		case byte:
			err = c.SendByte(d)
		case bool:
			err = c.SendBool(d)
		case uint16:
			err = c.SendUint16(int(d))
		case uint32:
			err = c.SendUint32(int(d))
		case uint64:
			err = c.SendUint64(d)
		case float64:
			err = c.SendFloat64(d)
		case string:
			err = c.SendString(d)
		case []string:
			err = c.SendStrings(d)
		case []uint64:
			err = c.SendUint64s(d)
		case []byte:
			err = c.SendData(d)
		default:
			err = fmt.Errorf("writer: invalid data: %v(%T)", test, test)
		}
		if err != nil {
			return err
		}
	}
	return c.Flush()
}

func TestProtocol(t *testing.T) {
	cw, c := Pipe()

	var g errgroup.Group
	g.Go(func() error {
		return writer(cw)
	})

	for _, test := range tests {
		switch d := test.(type) {
		case byte:
			v, err := c.ReceiveByte()
			require.NoError(t, err)
			assert.Equal(t, d, v)

		case bool:
			v, err := c.ReceiveBool()
			require.NoError(t, err)
			assert.Equal(t, d, v)

		case uint16:
			v, err := c.ReceiveUint16()
			require.NoError(t, err)
			assert.Equal(t, int(d), v)

		case uint32:
			v, err := c.ReceiveUint32()
			require.NoError(t, err)
			assert.Equal(t, int(d), v)

		case uint64:
			v, err := c.ReceiveUint64()
			require.NoError(t, err)
			assert.Equal(t, d, v)

		case float64:
			v, err := c.ReceiveFloat64()
			require.NoError(t, err)
			assert.Equal(t, d, v)

		case string:
			v, err := c.ReceiveString()
			require.NoError(t, err)
			assert.Equal(t, d, v)

		case []string:
			v, err := c.ReceiveStrings(len(d))
			require.NoError(t, err)
			assert.Equal(t, d, v)

		case []uint64:
			v, err := c.ReceiveUint64s(len(d))
			require.NoError(t, err)
			assert.Equal(t, d, v)

		case []byte:
			v, err := c.ReceiveData()
			require.NoError(t, err)
			assert.Len(t, v, len(d))

		default:
			t.Errorf("invalid value: %v(%T)", test, test)
		}
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, cw.Stats.Sent.Load(), c.Stats.Recvd.Load())

	assert.NoError(t, cw.Close())
	assert.NoError(t, c.Close())
}

func TestReceiveLimit(t *testing.T) {
	c, raw := RawPipe()
	defer c.Close()

	var g errgroup.Group
	g.Go(func() error {
		var buf [4]byte
		for _, count := range []uint32{3, 3, 0xffffffff} {
			bo.PutUint32(buf[:], count)
			if _, err := raw.Write(buf[:]); err != nil {
				return err
			}
		}
		return raw.Close()
	})

	_, err := c.ReceiveUint64s(2)
	assert.ErrorIs(t, err, ErrTooLarge)
	_, err = c.ReceiveStrings(2)
	assert.ErrorIs(t, err, ErrTooLarge)

	// The announced length is not allocated up front.
	_, err = c.ReceiveData()
	assert.Error(t, err)

	require.NoError(t, g.Wait())
}

func TestConnect(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	l.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	saved := RetryDelay
	RetryDelay = 10 * time.Millisecond
	defer func() {
		RetryDelay = saved
	}()

	log := logrus.New()
	conns := make([]*Conn, 2)

	var g errgroup.Group
	for id := 0; id < 2; id++ {
		id := id
		g.Go(func() error {
			conn, err := Connect(ctx, id, addr, addr, log)
			conns[id] = conn
			return err
		})
	}
	require.NoError(t, g.Wait())

	require.NoError(t, conns[1].SendString("ping"))
	require.NoError(t, conns[1].Flush())
	v, err := conns[0].ReceiveString()
	require.NoError(t, err)
	assert.Equal(t, "ping", v)

	for _, c := range conns {
		assert.NoError(t, c.Close())
	}
}

func TestConnectInvalidID(t *testing.T) {
	_, err := Connect(context.Background(), 2, "", "", logrus.New())
	assert.Error(t, err)
}
