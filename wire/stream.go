package wire

import (
	"io"

	"github.com/rivcore/riv/errors"
	"github.com/rivcore/riv/rerr"
)

// Image-stream request ops (client → server, §4.2).
const (
	OpClose   uint8 = 0
	OpRestart uint8 = 1
	OpNext    uint8 = 2
)

// StreamRequestSize is the fixed size of an image-stream request:
// 1-byte op, 4-byte arg.
const StreamRequestSize = 5

// StreamRequest is a single 5-byte image-stream sub-message.
type StreamRequest struct {
	Op  uint8
	Arg uint32
}

// ReadStreamRequest reads one 5-byte image-stream request.
func ReadStreamRequest(r io.Reader) (StreamRequest, error) {
	buf := make([]byte, StreamRequestSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return StreamRequest{}, rerr.New(rerr.PeerDisconnected, errors.Wrap(err, "read stream request"))
	}
	return StreamRequest{
		Op:  buf[0],
		Arg: ByteOrder.Uint32(buf[1:5]),
	}, nil
}

// WriteStreamRequest writes one 5-byte image-stream request.
func WriteStreamRequest(w io.Writer, req StreamRequest) error {
	buf := make([]byte, StreamRequestSize)
	buf[0] = req.Op
	ByteOrder.PutUint32(buf[1:5], req.Arg)
	if _, err := w.Write(buf); err != nil {
		return rerr.New(rerr.SocketError, errors.Wrap(err, "write stream request"))
	}
	return nil
}

// ValidateRestartArg checks the arg of an op=1 (restart) request.
//
// Like ReadHandshake, it rejects a byte-swapped test word: either
// detection — an arg that matches neither the expected value nor its
// byte-swapped form ("invalid time-code"), or an arg that is exactly the
// byte-swapped form ("byte order switch") — is fatal. The two causes are
// distinguished (only the second wraps ErrByteOrderMismatch) so callers
// can tell which one fired.
func ValidateRestartArg(arg uint32) error {
	switch arg {
	case TestWord:
		return nil
	case SwappedTestWord:
		return rerr.New(rerr.ProtocolViolation, errors.Wrap(ErrByteOrderMismatch, "restart request byte order switch"))
	default:
		return rerr.Newf(rerr.ProtocolViolation, "restart request invalid time-code arg %#x", arg)
	}
}

// ImageDataBlob is the body of an image_data_blob message (server →
// client only): u32 subtype, u32 time_code, metadata blob, payload blob.
// Both blobs are length-prefixed with a u32 so the client can split them
// without a shared schema for the metadata contents.
type ImageDataBlob struct {
	Subtype  uint32
	TimeCode uint32
	Metadata []byte
	Payload  []byte
}

// EncodeImageDataBlob serialises an ImageDataBlob into a message body.
func EncodeImageDataBlob(blob ImageDataBlob) []byte {
	size := 4 + 4 + 4 + len(blob.Metadata) + 4 + len(blob.Payload)
	buf := make([]byte, size)

	offset := 0
	ByteOrder.PutUint32(buf[offset:offset+4], blob.Subtype)
	offset += 4
	ByteOrder.PutUint32(buf[offset:offset+4], blob.TimeCode)
	offset += 4
	ByteOrder.PutUint32(buf[offset:offset+4], uint32(len(blob.Metadata)))
	offset += 4
	copy(buf[offset:offset+len(blob.Metadata)], blob.Metadata)
	offset += len(blob.Metadata)
	ByteOrder.PutUint32(buf[offset:offset+4], uint32(len(blob.Payload)))
	offset += 4
	copy(buf[offset:offset+len(blob.Payload)], blob.Payload)

	return buf
}

// DecodeImageDataBlob parses a message body into an ImageDataBlob.
func DecodeImageDataBlob(body []byte) (ImageDataBlob, error) {
	if len(body) < 12 {
		return ImageDataBlob{}, rerr.Newf(rerr.ProtocolViolation, "image_data_blob body too short: %d bytes", len(body))
	}

	offset := 0
	subtype := ByteOrder.Uint32(body[offset : offset+4])
	offset += 4
	timeCode := ByteOrder.Uint32(body[offset : offset+4])
	offset += 4
	metaLen := int(ByteOrder.Uint32(body[offset : offset+4]))
	offset += 4

	if offset+metaLen+4 > len(body) {
		return ImageDataBlob{}, rerr.Newf(rerr.ProtocolViolation, "image_data_blob metadata length %d exceeds body", metaLen)
	}
	metadata := body[offset : offset+metaLen]
	offset += metaLen

	payloadLen := int(ByteOrder.Uint32(body[offset : offset+4]))
	offset += 4
	if offset+payloadLen > len(body) {
		return ImageDataBlob{}, rerr.Newf(rerr.ProtocolViolation, "image_data_blob payload length %d exceeds body", payloadLen)
	}
	payload := body[offset : offset+payloadLen]

	return ImageDataBlob{
		Subtype:  subtype,
		TimeCode: timeCode,
		Metadata: metadata,
		Payload:  payload,
	}, nil
}
