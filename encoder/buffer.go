// Package encoder implements the image encoders and the three-worker
// encoder pipeline of spec.md §4.4: input collector, encoder worker,
// output dispatcher, wired together over two slots and a FIFO of
// pending requests.
package encoder

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"sync/atomic"

	"github.com/rivcore/riv/errors"
	"github.com/rivcore/riv/rerr"
	"github.com/rivcore/riv/wire"
)

// Subtype identifies the concrete encoding of an image-stream channel.
type Subtype uint16

const (
	SubtypeRGBRaw Subtype = 1
	SubtypeRGBZip Subtype = 2
)

// ChannelType is the wire channel type for image streams.
const ChannelType uint16 = 1

// Buffer is an immutable, reference-counted encoded frame. Its
// lifetime extends until the last output dispatcher finishes sending
// it (spec.md §3 "Buffer").
type Buffer struct {
	Subtype  uint16
	TimeCode uint32
	Metadata []byte
	Payload  []byte

	refs atomic.Int32
}

// NewBuffer returns a buffer with one reference already held.
func NewBuffer(subtype uint16, timeCode uint32, metadata, payload []byte) *Buffer {
	b := &Buffer{Subtype: subtype, TimeCode: timeCode, Metadata: metadata, Payload: payload}
	b.refs.Store(1)
	return b
}

// Retain increments the reference count, returning the same buffer
// for chaining at call sites that hand it to multiple dispatchers.
func (b *Buffer) Retain() *Buffer {
	b.refs.Add(1)
	return b
}

// Release decrements the reference count. It reports whether this was
// the last reference, at which point the caller may stop holding on
// to the buffer's backing memory.
func (b *Buffer) Release() bool {
	return b.refs.Add(-1) == 0
}

// ToImageDataBlob renders the buffer as a wire image_data_blob body.
func (b *Buffer) ToImageDataBlob() wire.ImageDataBlob {
	return wire.ImageDataBlob{
		Subtype:  uint32(b.Subtype),
		TimeCode: b.TimeCode,
		Metadata: b.Metadata,
		Payload:  b.Payload,
	}
}

// dimensionsMetadata packs the uncompressed width/height so a client
// can reconstruct an rgb_zip payload after inflating it.
func dimensionsMetadata(width, height int) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(width))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(height))
	return buf
}

// EncodeFunc transforms a snapshotted top-down RGB frame into an
// encoded payload and metadata blob.
type EncodeFunc func(pixels []byte, width, height int) (payload, metadata []byte, err error)

// EncodeRGBRaw is the identity encoder: the payload is a copy of the
// snapshotted pixels, per spec.md §4.4 ("rgb_raw is a copy").
func EncodeRGBRaw(pixels []byte, width, height int) ([]byte, []byte, error) {
	payload := make([]byte, len(pixels))
	copy(payload, pixels)
	return payload, dimensionsMetadata(width, height), nil
}

// EncodeRGBZip zlib-deflates the snapshotted pixels, carrying the
// uncompressed dimensions in the metadata blob so a client can size
// its inflate buffer (spec.md §4.4).
func EncodeRGBZip(pixels []byte, width, height int) ([]byte, []byte, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(pixels); err != nil {
		return nil, nil, rerr.New(rerr.InternalError, errors.Wrap(err, "zlib deflate"))
	}
	if err := w.Close(); err != nil {
		return nil, nil, rerr.New(rerr.InternalError, errors.Wrap(err, "zlib close"))
	}
	return buf.Bytes(), dimensionsMetadata(width, height), nil
}

// EncoderFor resolves the encode function for a channel subtype.
func EncoderFor(subtype Subtype) (EncodeFunc, error) {
	switch subtype {
	case SubtypeRGBRaw:
		return EncodeRGBRaw, nil
	case SubtypeRGBZip:
		return EncodeRGBZip, nil
	default:
		return nil, rerr.Newf(rerr.UnsupportedMedia, "unsupported image-stream subtype %d", subtype)
	}
}
