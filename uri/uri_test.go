package uri

import "testing"

func TestParseBuildRoundTrip(t *testing.T) {
	cases := []string{
		"riv://test-host:52000/x%20y",
		"riv://10.0.0.5:52000/x%20y",
		"riv://example.com/cam-1?n=2a&t=1&s=2",
	}
	for _, raw := range cases {
		u, err := Parse(raw)
		if err != nil {
			t.Fatalf("Parse(%q): %v", raw, err)
		}
		got := u.Build()
		if got != raw {
			t.Errorf("round trip mismatch: Parse(%q).Build() = %q", raw, got)
		}
	}
}

func TestControlURIScenarioSix(t *testing.T) {
	got := ControlURI("test-host", 52000, "x y")
	want := "riv://test-host:52000/x%20y"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	got = ControlURI("10.0.0.5", 52000, "x y")
	want = "riv://10.0.0.5:52000/x%20y"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDataURIQueryParams(t *testing.T) {
	raw := DataURI("host", 52000, "cam", 0x2a, 1, 2)
	u, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !u.IsData {
		t.Fatal("expected IsData true")
	}
	if u.BindID != 0x2a || u.Type != 1 || u.Subtype != 2 {
		t.Errorf("got %+v", u)
	}
	if u.Name != "cam" {
		t.Errorf("got name %q, want cam", u.Name)
	}
}

func TestParseRejectsWrongScheme(t *testing.T) {
	if _, err := Parse("http://host/path"); err == nil {
		t.Fatal("expected error for non-riv scheme")
	}
}

func TestParseRejectsMissingQueryParam(t *testing.T) {
	if _, err := Parse("riv://host/path?n=1&t=1"); err == nil {
		t.Fatal("expected error for missing s= parameter")
	}
}

func TestParseRejectsNoHost(t *testing.T) {
	if _, err := Parse("riv:///path"); err == nil {
		t.Fatal("expected error for missing host")
	}
}

func TestIPv6HostBracketing(t *testing.T) {
	raw := ControlURI("::1", 52000, "cam")
	want := "riv://[::1]:52000/cam"
	if raw != want {
		t.Errorf("got %q, want %q", raw, want)
	}

	u, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if u.Host != "::1" {
		t.Errorf("got host %q, want ::1", u.Host)
	}
	if u.Build() != raw {
		t.Errorf("round trip mismatch: got %q, want %q", u.Build(), raw)
	}
}

func TestParseRequestLineScenarioOne(t *testing.T) {
	u, err := ParseRequestLine("TEST")
	if err != nil {
		t.Fatalf("ParseRequestLine: %v", err)
	}
	if u.Name != "TEST" || u.IsData {
		t.Fatalf("got %+v, want plain control request for TEST", u)
	}
}

func TestParseRequestLineWithQuery(t *testing.T) {
	u, err := ParseRequestLine("cam?n=2a&t=1&s=2")
	if err != nil {
		t.Fatalf("ParseRequestLine: %v", err)
	}
	if !u.IsData || u.Name != "cam" || u.BindID != 0x2a || u.Type != 1 || u.Subtype != 2 {
		t.Fatalf("got %+v", u)
	}
}

func TestParseRequestLineWithUserPrefix(t *testing.T) {
	u, err := ParseRequestLine("alice@cam")
	if err != nil {
		t.Fatalf("ParseRequestLine: %v", err)
	}
	if u.User != "alice" || u.Name != "cam" {
		t.Fatalf("got %+v, want user=alice name=cam", u)
	}
}

func TestParseRequestLineDecodesPath(t *testing.T) {
	u, err := ParseRequestLine("x%20y")
	if err != nil {
		t.Fatalf("ParseRequestLine: %v", err)
	}
	if u.Name != "x y" {
		t.Fatalf("got name %q, want \"x y\"", u.Name)
	}
}

func TestParseRequestLineMissingQueryParam(t *testing.T) {
	if _, err := ParseRequestLine("cam?n=1&t=1"); err == nil {
		t.Fatal("expected error for missing s= parameter")
	}
}

func TestUserPrefixRoundTrip(t *testing.T) {
	raw := "riv://alice@host:52000/cam"
	u, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if u.User != "alice" {
		t.Errorf("got user %q, want alice", u.User)
	}
	if u.Build() != raw {
		t.Errorf("round trip mismatch: got %q, want %q", u.Build(), raw)
	}
}
