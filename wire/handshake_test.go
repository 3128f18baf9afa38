package wire

import (
	"bytes"
	"testing"

	"github.com/rivcore/riv/errors"
)

func TestWriteHandshakeMatchesScenarioBytes(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHandshake(&buf); err != nil {
		t.Fatalf("WriteHandshake: %v", err)
	}

	want := []byte{
		0x52, 0x49, 0x56, 0x13, 0x57, 0x9B, 0xDF, 0x00,
		0x78, 0x56, 0x34, 0x12, 0x4D, 0xF8, 0x2D, 0x40,
	}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("handshake bytes = % X, want % X", buf.Bytes(), want)
	}
}

func TestReadHandshakeAccepts(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHandshake(&buf); err != nil {
		t.Fatalf("WriteHandshake: %v", err)
	}
	if err := ReadHandshake(&buf); err != nil {
		t.Fatalf("ReadHandshake: %v", err)
	}
}

func TestReadHandshakeRejectsBadMagic(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHandshake(&buf); err != nil {
		t.Fatalf("WriteHandshake: %v", err)
	}
	corrupted := buf.Bytes()
	corrupted[2] = 'X'

	if err := ReadHandshake(bytes.NewReader(corrupted)); err == nil {
		t.Fatal("expected error for corrupted magic")
	}
}

func TestReadHandshakeDetectsByteOrderSwitch(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHandshake(&buf); err != nil {
		t.Fatalf("WriteHandshake: %v", err)
	}
	raw := buf.Bytes()
	// Swap the test word's byte order in place.
	raw[8], raw[9], raw[10], raw[11] = raw[11], raw[10], raw[9], raw[8]

	err := ReadHandshake(bytes.NewReader(raw))
	if err == nil {
		t.Fatal("expected error for byte-swapped test word")
	}
	if !errors.Is(err, ErrByteOrderMismatch) {
		t.Errorf("expected ErrByteOrderMismatch, got %v", err)
	}
}
