package rerr

import (
	"testing"

	"github.com/rivcore/riv/errors"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{ResourceNotFound, 404},
		{UnsupportedMedia, 415},
		{BadRequest, 400},
		{ProtocolViolation, 400},
		{InternalError, 500},
		{PeerDisconnected, 500},
		{SocketError, 500},
		{AbortedByHook, 500},
		{NullArgument, 500},
	}
	for _, tt := range tests {
		if got := tt.kind.StatusCode(); got != tt.want {
			t.Errorf("%s.StatusCode() = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestNewAndUnwrap(t *testing.T) {
	base := errors.New("boom")
	err := New(ProtocolViolation, base)

	if err.Error() != "boom" {
		t.Errorf("Error() = %q, want %q", err.Error(), "boom")
	}
	if !errors.Is(err, base) {
		t.Error("expected errors.Is to find the wrapped base error")
	}
	if err.StatusCode() != 400 {
		t.Errorf("StatusCode() = %d, want 400", err.StatusCode())
	}
}

func TestKindOf(t *testing.T) {
	wrapped := New(ResourceNotFound, errors.New("no such binding"))
	if got := KindOf(wrapped); got != ResourceNotFound {
		t.Errorf("KindOf() = %s, want %s", got, ResourceNotFound)
	}

	plain := errors.New("unrelated failure")
	if got := KindOf(plain); got != InternalError {
		t.Errorf("KindOf(plain) = %s, want %s (conservative default)", got, InternalError)
	}
}

func TestWithContextAndOperation(t *testing.T) {
	err := Newf(BadRequest, "missing query parameter %q", "n").
		WithOperation("session.parseRequest").
		WithContext("uri", "riv://host/provider")

	if err.Operation != "session.parseRequest" {
		t.Errorf("Operation = %q, want %q", err.Operation, "session.parseRequest")
	}
	if err.Context["uri"] != "riv://host/provider" {
		t.Errorf("Context[uri] = %v, want riv://host/provider", err.Context["uri"])
	}
}
