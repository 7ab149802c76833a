//
// protocol.go
//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

// Package p2p implements the synchronous, ordered, and blocking
// communication channel between two parties.
package p2p

import (
	"encoding/binary"
	"io"
	"math"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/markkurossi/duet/ot"
	"github.com/pkg/errors"
)

var (
	_  ot.IO = &Conn{}
	bo       = binary.BigEndian
)

// ErrTooLarge is returned when the peer announces more elements than
// the receiver accepts.
var ErrTooLarge = errors.New("p2p: message too large")

const (
	numBuffers   = 3
	writeBufSize = 64 * 1024
	readBufSize  = 1024 * 1024
)

// Conn implements a protocol connection. All values are framed in
// big-endian byte order. Data sent with the Send functions is
// buffered until Flush is called or the write buffer fills up. The
// Conn must not be used by multiple goroutines concurrently.
type Conn struct {
	conn      io.ReadWriter
	WriteBuf  []byte
	WritePos  int
	ReadBuf   []byte
	ReadStart int
	ReadEnd   int
	Stats     IOStats

	fromWriter chan []byte
	toWriter   chan []byte
	errMu      sync.Mutex
	writerErr  error
	closed     bool
}

// IOStats implements I/O statistics.
type IOStats struct {
	Sent    *atomic.Uint64
	Recvd   *atomic.Uint64
	Flushed *atomic.Uint64
}

// NewIOStats creates a new I/O statistics object.
func NewIOStats() IOStats {
	return IOStats{
		Sent:    new(atomic.Uint64),
		Recvd:   new(atomic.Uint64),
		Flushed: new(atomic.Uint64),
	}
}

// Add adds the argument stats to this IOStats and returns the sum.
func (stats IOStats) Add(o IOStats) IOStats {
	result := NewIOStats()
	result.Sent.Store(stats.Sent.Load() + o.Sent.Load())
	result.Recvd.Store(stats.Recvd.Load() + o.Recvd.Load())
	result.Flushed.Store(stats.Flushed.Load() + o.Flushed.Load())
	return result
}

// Sub returns the difference of this IOStats and the argument stats.
func (stats IOStats) Sub(o IOStats) IOStats {
	result := NewIOStats()
	result.Sent.Store(stats.Sent.Load() - o.Sent.Load())
	result.Recvd.Store(stats.Recvd.Load() - o.Recvd.Load())
	result.Flushed.Store(stats.Flushed.Load() - o.Flushed.Load())
	return result
}

// Snapshot returns a copy of the current counter values.
func (stats IOStats) Snapshot() IOStats {
	return stats.Add(NewIOStats())
}

// Sum returns sum of sent and received bytes.
func (stats IOStats) Sum() uint64 {
	return stats.Sent.Load() + stats.Recvd.Load()
}

// NewConn creates a new connection around the argument connection.
func NewConn(conn io.ReadWriter) *Conn {
	c := &Conn{
		conn:       conn,
		ReadBuf:    make([]byte, readBufSize),
		fromWriter: make(chan []byte, numBuffers),
		toWriter:   make(chan []byte, numBuffers),
		Stats:      NewIOStats(),
	}

	go c.writer()

	c.WriteBuf = <-c.fromWriter

	return c
}

func (c *Conn) writer() {
	for i := 0; i < numBuffers; i++ {
		c.fromWriter <- make([]byte, writeBufSize)
	}

	for buf := range c.toWriter {
		_, err := c.conn.Write(buf)
		if err != nil {
			c.errMu.Lock()
			if c.writerErr == nil {
				c.writerErr = err
			}
			c.errMu.Unlock()
		}
		c.fromWriter <- buf[0:cap(buf)]
	}
	close(c.fromWriter)
}

func (c *Conn) err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.writerErr
}

// Flush flushes any pending data in the connection.
func (c *Conn) Flush() error {
	if c.WritePos > 0 {
		c.Stats.Sent.Add(uint64(c.WritePos))
		c.toWriter <- c.WriteBuf[0:c.WritePos]

		next := <-c.fromWriter
		if err := c.err(); err != nil {
			return err
		}

		c.WriteBuf = next
		c.WritePos = 0
		c.Stats.Flushed.Add(1)
	}
	return nil
}

// Fill fills the input buffer from the connection so that at least n
// bytes are available. Any unused data in the buffer is moved to the
// beginning of the buffer.
func (c *Conn) Fill(n int) error {
	if c.ReadStart < c.ReadEnd {
		copy(c.ReadBuf[0:], c.ReadBuf[c.ReadStart:c.ReadEnd])
		c.ReadEnd -= c.ReadStart
		c.ReadStart = 0
	} else {
		c.ReadStart = 0
		c.ReadEnd = 0
	}
	if n > len(c.ReadBuf) {
		buf := make([]byte, n)
		copy(buf, c.ReadBuf[:c.ReadEnd])
		c.ReadBuf = buf
	}
	for c.ReadStart+n > c.ReadEnd {
		got, err := c.conn.Read(c.ReadBuf[c.ReadEnd:])
		if err != nil {
			return err
		}
		c.Stats.Recvd.Add(uint64(got))
		c.ReadEnd += got
	}
	return nil
}

// Close flushes any pending data and closes the connection.
func (c *Conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if err := c.Flush(); err != nil {
		return err
	}
	close(c.toWriter)
	for range c.fromWriter {
	}
	if err := c.err(); err != nil {
		return err
	}
	closer, ok := c.conn.(io.Closer)
	if ok {
		return closer.Close()
	}
	return nil
}

func (c *Conn) need(count int) error {
	if c.WritePos+count > len(c.WriteBuf) {
		return c.Flush()
	}
	return nil
}

// SendByte sends a byte value.
func (c *Conn) SendByte(val byte) error {
	if err := c.need(1); err != nil {
		return err
	}
	c.WriteBuf[c.WritePos] = val
	c.WritePos++
	return nil
}

// SendBool sends a boolean value as one byte.
func (c *Conn) SendBool(val bool) error {
	var b byte
	if val {
		b = 1
	}
	return c.SendByte(b)
}

// SendUint16 sends an uint16 value.
func (c *Conn) SendUint16(val int) error {
	if err := c.need(2); err != nil {
		return err
	}
	bo.PutUint16(c.WriteBuf[c.WritePos:], uint16(val))
	c.WritePos += 2
	return nil
}

// SendUint32 sends an uint32 value.
func (c *Conn) SendUint32(val int) error {
	if err := c.need(4); err != nil {
		return err
	}
	bo.PutUint32(c.WriteBuf[c.WritePos:], uint32(val))
	c.WritePos += 4
	return nil
}

// SendUint64 sends an uint64 value.
func (c *Conn) SendUint64(val uint64) error {
	if err := c.need(8); err != nil {
		return err
	}
	bo.PutUint64(c.WriteBuf[c.WritePos:], val)
	c.WritePos += 8
	return nil
}

// SendFloat64 sends a float64 value.
func (c *Conn) SendFloat64(val float64) error {
	return c.SendUint64(math.Float64bits(val))
}

// SendRaw sends binary data without a length prefix. The peer must
// know the data length.
func (c *Conn) SendRaw(val []byte) error {
	for len(val) > 0 {
		if c.WritePos >= len(c.WriteBuf) {
			if err := c.Flush(); err != nil {
				return err
			}
		}
		n := copy(c.WriteBuf[c.WritePos:], val)
		c.WritePos += n
		val = val[n:]
	}
	return nil
}

// SendData sends binary data with an uint32 length prefix.
func (c *Conn) SendData(val []byte) error {
	if len(val) > math.MaxUint32 {
		return errors.Errorf("data too long: %d", len(val))
	}
	if err := c.SendUint32(len(val)); err != nil {
		return err
	}
	return c.SendRaw(val)
}

// SendString sends a string value.
func (c *Conn) SendString(val string) error {
	return c.SendData([]byte(val))
}

// SendStrings sends a string array.
func (c *Conn) SendStrings(val []string) error {
	if err := c.SendUint32(len(val)); err != nil {
		return err
	}
	for _, s := range val {
		if err := c.SendString(s); err != nil {
			return err
		}
	}
	return nil
}

// SendUint64s sends an uint64 array.
func (c *Conn) SendUint64s(val []uint64) error {
	if err := c.SendUint32(len(val)); err != nil {
		return err
	}
	for _, v := range val {
		if err := c.SendUint64(v); err != nil {
			return err
		}
	}
	return nil
}

// SendLabel sends an OT label.
func (c *Conn) SendLabel(val ot.Label, data *ot.LabelData) error {
	return c.SendRaw(val.Bytes(data))
}

// ReceiveByte receives a byte value.
func (c *Conn) ReceiveByte() (byte, error) {
	if c.ReadStart+1 > c.ReadEnd {
		if err := c.Fill(1); err != nil {
			return 0, err
		}
	}
	val := c.ReadBuf[c.ReadStart]
	c.ReadStart++
	return val, nil
}

// ReceiveBool receives a boolean value. Any non-zero byte is true.
func (c *Conn) ReceiveBool() (bool, error) {
	b, err := c.ReceiveByte()
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

// ReceiveUint16 receives an uint16 value.
func (c *Conn) ReceiveUint16() (int, error) {
	if c.ReadStart+2 > c.ReadEnd {
		if err := c.Fill(2); err != nil {
			return 0, err
		}
	}
	val := bo.Uint16(c.ReadBuf[c.ReadStart:])
	c.ReadStart += 2

	return int(val), nil
}

// ReceiveUint32 receives an uint32 value.
func (c *Conn) ReceiveUint32() (int, error) {
	if c.ReadStart+4 > c.ReadEnd {
		if err := c.Fill(4); err != nil {
			return 0, err
		}
	}
	val := bo.Uint32(c.ReadBuf[c.ReadStart:])
	c.ReadStart += 4

	return int(val), nil
}

// ReceiveUint64 receives an uint64 value.
func (c *Conn) ReceiveUint64() (uint64, error) {
	if c.ReadStart+8 > c.ReadEnd {
		if err := c.Fill(8); err != nil {
			return 0, err
		}
	}
	val := bo.Uint64(c.ReadBuf[c.ReadStart:])
	c.ReadStart += 8

	return val, nil
}

// ReceiveFloat64 receives a float64 value.
func (c *Conn) ReceiveFloat64() (float64, error) {
	v, err := c.ReceiveUint64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// ReceiveRaw receives len(buf) bytes of binary data into buf.
func (c *Conn) ReceiveRaw(buf []byte) error {
	if c.ReadStart+len(buf) > c.ReadEnd {
		if err := c.Fill(len(buf)); err != nil {
			return err
		}
	}
	copy(buf, c.ReadBuf[c.ReadStart:c.ReadStart+len(buf)])
	c.ReadStart += len(buf)
	return nil
}

// ReceiveData receives length-prefixed binary data.
func (c *Conn) ReceiveData() ([]byte, error) {
	l, err := c.ReceiveUint32()
	if err != nil {
		return nil, err
	}
	// The buffer grows with the received data.
	result := make([]byte, 0, min(l, readBufSize))
	for len(result) < l {
		start := len(result)
		n := min(l-start, readBufSize)
		result = slices.Grow(result, n)[:start+n]
		if err := c.ReceiveRaw(result[start:]); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// ReceiveString receives a string value.
func (c *Conn) ReceiveString() (string, error) {
	data, err := c.ReceiveData()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ReceiveStrings receives a string array of at most limit elements.
func (c *Conn) ReceiveStrings(limit int) ([]string, error) {
	count, err := c.receiveCount(limit)
	if err != nil {
		return nil, err
	}
	result := make([]string, 0, count)
	for i := 0; i < count; i++ {
		s, err := c.ReceiveString()
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, nil
}

// ReceiveUint64s receives an uint64 array of at most limit elements.
func (c *Conn) ReceiveUint64s(limit int) ([]uint64, error) {
	count, err := c.receiveCount(limit)
	if err != nil {
		return nil, err
	}
	result := make([]uint64, count)
	for i := 0; i < count; i++ {
		result[i], err = c.ReceiveUint64()
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (c *Conn) receiveCount(limit int) (int, error) {
	count, err := c.ReceiveUint32()
	if err != nil {
		return 0, err
	}
	if count > limit {
		return 0, errors.Wrapf(ErrTooLarge, "%d elements, limit %d",
			count, limit)
	}
	return count, nil
}

// ReceiveLabel receives an OT label.
func (c *Conn) ReceiveLabel(val *ot.Label, data *ot.LabelData) error {
	if err := c.ReceiveRaw(data[:]); err != nil {
		return err
	}
	val.SetData(data)
	return nil
}
