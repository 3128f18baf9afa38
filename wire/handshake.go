// Package wire implements the riv core wire protocol: the server
// handshake, the client request line, framed messages, and the
// image-stream sub-protocol layered on top of them.
package wire

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/rivcore/riv/errors"
	"github.com/rivcore/riv/rerr"
)

// ByteOrder is the server's native byte order. The handshake, request
// line, and all framed messages the server emits use it; a client is
// expected to match it after observing the handshake.
var ByteOrder = binary.LittleEndian

// MagicPrefix is the fixed 5-byte tag that opens the handshake, followed
// by the 32-bit test word and 32-bit float below.
var MagicPrefix = [5]byte{'R', 'I', 'V', 0x13, 0x57}

// magicSuffix is the remaining three fixed bytes of the 8-byte magic.
var magicSuffix = [3]byte{0x9B, 0xDF, 0x00}

// TestWord is the value the server writes, and a conforming client
// expects, in native byte order.
const TestWord uint32 = 0x12345678

// SwappedTestWord is TestWord's byte-swapped form: observing it instead
// of TestWord signals the peer is using the opposite byte order.
const SwappedTestWord uint32 = 0x78563412

// TestFloat is the IEEE-754 float32 written after TestWord.
const TestFloat float32 = 2.71828175

// HandshakeSize is the total size in bytes of the handshake message.
const HandshakeSize = 16

// WriteHandshake writes the fixed 16-byte handshake to w.
func WriteHandshake(w io.Writer) error {
	buf := make([]byte, HandshakeSize)
	copy(buf[0:5], MagicPrefix[:])
	copy(buf[5:8], magicSuffix[:])
	ByteOrder.PutUint32(buf[8:12], TestWord)
	ByteOrder.PutUint32(buf[12:16], math.Float32bits(TestFloat))

	_, err := w.Write(buf)
	if err != nil {
		return rerr.New(rerr.SocketError, errors.Wrap(err, "write handshake"))
	}
	return nil
}

// ReadHandshake reads and validates the 16-byte handshake from r. It
// returns a ProtocolViolation error if the magic prefix/suffix mismatch,
// and a distinct ProtocolViolation (wrapping ErrByteOrderMismatch) if the
// test word is present but byte-swapped — an explicit "wrong endianness"
// signal rather than a generic framing failure.
func ReadHandshake(r io.Reader) error {
	buf := make([]byte, HandshakeSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return rerr.New(rerr.SocketError, errors.Wrap(err, "read handshake"))
	}

	for i := 0; i < 5; i++ {
		if buf[i] != MagicPrefix[i] {
			return rerr.Newf(rerr.ProtocolViolation, "handshake magic prefix mismatch at byte %d", i)
		}
	}
	for i := 0; i < 3; i++ {
		if buf[5+i] != magicSuffix[i] {
			return rerr.Newf(rerr.ProtocolViolation, "handshake magic suffix mismatch at byte %d", i)
		}
	}

	word := ByteOrder.Uint32(buf[8:12])
	switch word {
	case TestWord:
		// ok
	case SwappedTestWord:
		return rerr.New(rerr.ProtocolViolation, errors.Wrap(ErrByteOrderMismatch, "handshake test word"))
	default:
		return rerr.Newf(rerr.ProtocolViolation, "handshake test word %#x is neither native nor swapped", word)
	}

	gotFloat := math.Float32frombits(ByteOrder.Uint32(buf[12:16]))
	if gotFloat != TestFloat {
		return rerr.Newf(rerr.ProtocolViolation, "handshake test float %v does not match expected %v", gotFloat, TestFloat)
	}

	return nil
}

// ErrByteOrderMismatch is a sentinel identifying a byte-order mismatch,
// distinguishable via errors.Is from any other ProtocolViolation cause.
var ErrByteOrderMismatch = errors.New("byte order mismatch")
