package wire

import (
	"bytes"
	"testing"

	"github.com/rivcore/riv/errors"
)

func TestStreamRequestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	in := StreamRequest{Op: OpNext, Arg: 30}
	if err := WriteStreamRequest(&buf, in); err != nil {
		t.Fatalf("WriteStreamRequest: %v", err)
	}

	out, err := ReadStreamRequest(&buf)
	if err != nil {
		t.Fatalf("ReadStreamRequest: %v", err)
	}
	if out != in {
		t.Errorf("got %+v, want %+v", out, in)
	}
}

func TestFramePullOrdering(t *testing.T) {
	// Scenario 4: three op=2 requests with time-codes 10, 20, 30.
	var buf bytes.Buffer
	timeCodes := []uint32{10, 20, 30}
	for _, tc := range timeCodes {
		if err := WriteStreamRequest(&buf, StreamRequest{Op: OpNext, Arg: tc}); err != nil {
			t.Fatalf("WriteStreamRequest: %v", err)
		}
	}

	for _, want := range timeCodes {
		req, err := ReadStreamRequest(&buf)
		if err != nil {
			t.Fatalf("ReadStreamRequest: %v", err)
		}
		if req.Op != OpNext || req.Arg != want {
			t.Errorf("got %+v, want time-code %d", req, want)
		}
	}
}

func TestValidateRestartArgAccepts(t *testing.T) {
	if err := ValidateRestartArg(TestWord); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestValidateRestartArgByteOrderSwitch(t *testing.T) {
	err := ValidateRestartArg(SwappedTestWord)
	if err == nil {
		t.Fatal("expected error for byte-swapped restart arg")
	}
	if !errors.Is(err, ErrByteOrderMismatch) {
		t.Errorf("expected ErrByteOrderMismatch, got %v", err)
	}
}

func TestValidateRestartArgInvalidTimeCode(t *testing.T) {
	err := ValidateRestartArg(0xDEADBEEF)
	if err == nil {
		t.Fatal("expected error for invalid restart arg")
	}
	if errors.Is(err, ErrByteOrderMismatch) {
		t.Error("invalid time-code should be distinguishable from a byte-order switch")
	}
}

func TestImageDataBlobRoundTrip(t *testing.T) {
	in := ImageDataBlob{
		Subtype:  1,
		TimeCode: 42,
		Metadata: []byte{0x01, 0x02},
		Payload:  []byte("pixelbytes"),
	}
	body := EncodeImageDataBlob(in)

	out, err := DecodeImageDataBlob(body)
	if err != nil {
		t.Fatalf("DecodeImageDataBlob: %v", err)
	}
	if out.Subtype != in.Subtype || out.TimeCode != in.TimeCode {
		t.Errorf("got %+v, want %+v", out, in)
	}
	if !bytes.Equal(out.Metadata, in.Metadata) || !bytes.Equal(out.Payload, in.Payload) {
		t.Errorf("got %+v, want %+v", out, in)
	}
}
