package wire

import (
	"encoding/binary"
	"io"

	"github.com/rivcore/riv/errors"
	"github.com/rivcore/riv/rerr"
)

// MaxRequestLineSize bounds the length prefix on a client request line,
// guarding against a hostile or corrupt length field forcing an
// unbounded allocation.
const MaxRequestLineSize = 64 * 1024

// Status codes replied to a client request line (§4.2).
const (
	StatusOK                  = 200
	StatusBadRequest          = 400
	StatusNotFound            = 404
	StatusUnsupportedMedia    = 415
	StatusInternalError       = 500
)

// ReadRequestLine reads a client request: a 32-bit length prefix followed
// by that many bytes of URL-decoded path/query/fragment text. An empty
// request line ("" after a zero-length prefix) is returned as ("", nil);
// the caller is expected to treat it as a silent drop (§4.3 edge cases).
func ReadRequestLine(r io.Reader) (string, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return "", rerr.New(rerr.PeerDisconnected, errors.Wrap(err, "read request length"))
	}

	length := binary.LittleEndian.Uint32(lenBuf[:])
	if length > MaxRequestLineSize {
		return "", rerr.Newf(rerr.ProtocolViolation, "request length %d exceeds maximum %d", length, MaxRequestLineSize)
	}
	if length == 0 {
		return "", nil
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return "", rerr.New(rerr.PeerDisconnected, errors.Wrap(err, "read request body"))
	}
	return string(body), nil
}

// WriteRequestLine writes a client request line in the same framing
// ReadRequestLine consumes. It is used by test clients and by any future
// in-process broker that issues requests on a session's behalf.
func WriteRequestLine(w io.Writer, line string) error {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(line)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return rerr.New(rerr.SocketError, errors.Wrap(err, "write request length"))
	}
	if _, err := io.WriteString(w, line); err != nil {
		return rerr.New(rerr.SocketError, errors.Wrap(err, "write request body"))
	}
	return nil
}

// WriteStatus writes a 16-bit status code reply.
func WriteStatus(w io.Writer, status uint16) error {
	var buf [2]byte
	ByteOrder.PutUint16(buf[:], status)
	if _, err := w.Write(buf[:]); err != nil {
		return rerr.New(rerr.SocketError, errors.Wrap(err, "write status"))
	}
	return nil
}

// ReadStatus reads a 16-bit status code reply.
func ReadStatus(r io.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, rerr.New(rerr.SocketError, errors.Wrap(err, "read status"))
	}
	return ByteOrder.Uint16(buf[:]), nil
}
