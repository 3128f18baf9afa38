package wire

import (
	"bytes"
	"testing"
)

func TestMessageRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	in := Message{ID: QueryDataChannelsID, Body: nil}
	if err := WriteMessage(&buf, in); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}

	out, err := ReadMessage(&buf)
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if out.ID != in.ID || len(out.Body) != 0 {
		t.Errorf("got %+v, want %+v", out, in)
	}
}

func TestMessageOversizedBody(t *testing.T) {
	var buf bytes.Buffer
	header := make([]byte, 8)
	ByteOrder.PutUint32(header[0:4], DataChannelsID)
	ByteOrder.PutUint32(header[4:8], MaxMessageBodySize+1)
	buf.Write(header)

	if _, err := ReadMessage(&buf); err == nil {
		t.Fatal("expected error for oversized message body")
	}
}

func TestIsUserMessage(t *testing.T) {
	if IsUserMessage(QueryDataChannelsID) {
		t.Error("QueryDataChannelsID should not be a user message")
	}
	if !IsUserMessage(1000) {
		t.Error("1000 should be the first user message id")
	}
	if IsUserMessage(999) {
		t.Error("999 should still be a library control id")
	}
}

func TestDataChannelsRoundTrip(t *testing.T) {
	channels := []DataChannel{
		{Name: "rgb_raw", Type: 1, Subtype: 1, Quality: 100},
		{Name: "rgb_zip", Type: 1, Subtype: 2, Quality: 80},
	}

	body := EncodeDataChannels(channels)
	got, err := DecodeDataChannels(body)
	if err != nil {
		t.Fatalf("DecodeDataChannels: %v", err)
	}
	if len(got) != len(channels) {
		t.Fatalf("got %d channels, want %d", len(got), len(channels))
	}
	for i := range channels {
		if got[i] != channels[i] {
			t.Errorf("channel %d: got %+v, want %+v", i, got[i], channels[i])
		}
	}
}

func TestDataChannelsScenarioOneChannel(t *testing.T) {
	channels := []DataChannel{{Name: "rgb_raw", Type: 1, Subtype: 1, Quality: 1}}
	body := EncodeDataChannels(channels)

	got, err := DecodeDataChannels(body)
	if err != nil {
		t.Fatalf("DecodeDataChannels: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d channels, want 1", len(got))
	}
	if got[0].Name != "rgb_raw" || got[0].Type != 1 || got[0].Subtype != 1 || got[0].Quality == 0 {
		t.Errorf("got %+v", got[0])
	}
}

func TestDecodeDataChannelsTruncated(t *testing.T) {
	if _, err := DecodeDataChannels([]byte{0x01, 0x00, 0x00, 0x00}); err == nil {
		t.Fatal("expected error for truncated data_channels body")
	}
}
