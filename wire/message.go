package wire

import (
	"io"

	"github.com/rivcore/riv/errors"
	"github.com/rivcore/riv/rerr"
)

// MaxMessageBodySize bounds a framed message body, guarding against a
// corrupt or hostile size field forcing an unbounded allocation.
const MaxMessageBodySize = 64 * 1024 * 1024

// Reserved message ids. Ids below UserMessageIDThreshold are library
// control messages; the rest are delivered to the provider's
// user-message callbacks untouched.
const (
	QueryDataChannelsID uint32 = 100
	DataChannelsID      uint32 = 101
	ImageDataBlobID     uint32 = 102

	UserMessageIDThreshold uint32 = 1000
)

// IsUserMessage reports whether id is an application message rather than
// a library control message.
func IsUserMessage(id uint32) bool {
	return id >= UserMessageIDThreshold
}

// Message is a single framed wire message: 32-bit id, 32-bit body size,
// body bytes.
type Message struct {
	ID   uint32
	Body []byte
}

// WriteMessage writes a framed message to w.
func WriteMessage(w io.Writer, msg Message) error {
	header := make([]byte, 8)
	ByteOrder.PutUint32(header[0:4], msg.ID)
	ByteOrder.PutUint32(header[4:8], uint32(len(msg.Body)))

	if _, err := w.Write(header); err != nil {
		return rerr.New(rerr.SocketError, errors.Wrap(err, "write message header"))
	}
	if len(msg.Body) > 0 {
		if _, err := w.Write(msg.Body); err != nil {
			return rerr.New(rerr.SocketError, errors.Wrap(err, "write message body"))
		}
	}
	return nil
}

// ReadMessage reads a framed message from r.
func ReadMessage(r io.Reader) (Message, error) {
	header := make([]byte, 8)
	if _, err := io.ReadFull(r, header); err != nil {
		return Message{}, rerr.New(rerr.PeerDisconnected, errors.Wrap(err, "read message header"))
	}

	id := ByteOrder.Uint32(header[0:4])
	size := ByteOrder.Uint32(header[4:8])
	if size > MaxMessageBodySize {
		return Message{}, rerr.Newf(rerr.ProtocolViolation, "message %d body size %d exceeds maximum %d", id, size, MaxMessageBodySize)
	}

	body := make([]byte, size)
	if size > 0 {
		if _, err := io.ReadFull(r, body); err != nil {
			return Message{}, rerr.New(rerr.PeerDisconnected, errors.Wrap(err, "read message body"))
		}
	}
	return Message{ID: id, Body: body}, nil
}

// DataChannel describes one entry in a data_channels reply (§4.2).
type DataChannel struct {
	Name    string
	Type    uint16
	Subtype uint16
	Quality uint8
}

// EncodeDataChannels builds the body of a data_channels (id 101) reply:
// u32 count followed by count records of
// {u16 name_len, name_len bytes ASCII, u16 type, u16 subtype, u8 quality}.
func EncodeDataChannels(channels []DataChannel) []byte {
	size := 4
	for _, c := range channels {
		size += 2 + len(c.Name) + 2 + 2 + 1
	}

	buf := make([]byte, size)
	ByteOrder.PutUint32(buf[0:4], uint32(len(channels)))
	offset := 4
	for _, c := range channels {
		ByteOrder.PutUint16(buf[offset:offset+2], uint16(len(c.Name)))
		offset += 2
		copy(buf[offset:offset+len(c.Name)], c.Name)
		offset += len(c.Name)
		ByteOrder.PutUint16(buf[offset:offset+2], c.Type)
		offset += 2
		ByteOrder.PutUint16(buf[offset:offset+2], c.Subtype)
		offset += 2
		buf[offset] = c.Quality
		offset++
	}
	return buf
}

// DecodeDataChannels parses the body of a data_channels reply.
func DecodeDataChannels(body []byte) ([]DataChannel, error) {
	if len(body) < 4 {
		return nil, rerr.Newf(rerr.ProtocolViolation, "data_channels body too short: %d bytes", len(body))
	}
	count := ByteOrder.Uint32(body[0:4])

	channels := make([]DataChannel, 0, count)
	offset := 4
	for i := uint32(0); i < count; i++ {
		if offset+2 > len(body) {
			return nil, rerr.Newf(rerr.ProtocolViolation, "data_channels record %d: truncated name length", i)
		}
		nameLen := int(ByteOrder.Uint16(body[offset : offset+2]))
		offset += 2

		if offset+nameLen+5 > len(body) {
			return nil, rerr.Newf(rerr.ProtocolViolation, "data_channels record %d: truncated record", i)
		}
		name := string(body[offset : offset+nameLen])
		offset += nameLen

		typ := ByteOrder.Uint16(body[offset : offset+2])
		offset += 2
		subtype := ByteOrder.Uint16(body[offset : offset+2])
		offset += 2
		quality := body[offset]
		offset++

		channels = append(channels, DataChannel{Name: name, Type: typ, Subtype: subtype, Quality: quality})
	}
	return channels, nil
}
