// Copyright (c) 2020 Shivaram Lingamneni
// released under the MIT license

package irc

import (
	"bytes"
	"net"
	"sync"

	"github.com/ergochat/irc-go/ircreader"
)

const (
	// we do not accept message tags from clients, so the read buffer only
	// needs to cover a raw 512-byte message plus a little slack
	maxLineLen        = 512
	initialBufferSize = maxLineLen
	maxReadQBytes     = maxLineLen + 1024
)

var (
	crlf = []byte{'\r', '\n'}
)

// IRCConn wraps a stream connection with incremental line framing on the
// read side and serialized, CRLF-terminated writes on the write side.
type IRCConn struct {
	conn      net.Conn
	reader    ircreader.Reader
	writeLock sync.Mutex
}

func NewIRCConn(conn net.Conn) *IRCConn {
	cc := &IRCConn{
		conn: conn,
	}
	cc.reader.Initialize(conn, initialBufferSize, maxReadQBytes)
	return cc
}

// ReadLine blocks until a complete line has arrived, then returns it with
// the terminator, surrounding whitespace, and stray control bytes removed.
// A line split across reads is reassembled; a single read may satisfy
// several calls.
func (cc *IRCConn) ReadLine() (line []byte, err error) {
	line, err = cc.reader.ReadLine()
	if err != nil {
		return nil, err
	}
	return bytes.TrimFunc(line, func(r rune) bool {
		return r == ' ' || r < 0x20
	}), nil
}

// WriteLine writes out a line, appending CRLF if it is not already present.
// Lines from concurrent writers are never interleaved.
func (cc *IRCConn) WriteLine(buf []byte) (err error) {
	if !bytes.HasSuffix(buf, crlf) {
		buf = append(buf, crlf...)
	}
	cc.writeLock.Lock()
	defer cc.writeLock.Unlock()
	_, err = cc.conn.Write(buf)
	return
}

func (cc *IRCConn) RemoteAddr() net.Addr {
	return cc.conn.RemoteAddr()
}

func (cc *IRCConn) Close() error {
	return cc.conn.Close()
}
