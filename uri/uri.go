// Package uri parses and builds riv:// URIs: the control URI
// (riv://host[:port]/<url-encoded-name>) and the data URI, which adds
// ?n=<hex-id>&t=<type>&s=<subtype> query parameters (§6).
package uri

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/rivcore/riv/errors"
	"github.com/rivcore/riv/rerr"
)

// Scheme is the fixed URI scheme riv core uses.
const Scheme = "riv"

// URI is a parsed riv:// URI. IsData reports whether this is a data
// channel URI (query parameters present) or a bare control URI.
type URI struct {
	User string // optional "user@" prefix
	Host string
	Port int // 0 means "not specified"
	Name string // decoded provider/path name

	IsData  bool
	BindID  uint64 // n=, hex-encoded arena index
	Type    uint16 // t=
	Subtype uint16 // s=

	Fragment string
}

// Parse parses a riv:// URI into its components.
func Parse(raw string) (URI, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return URI{}, rerr.New(rerr.BadRequest, errors.Wrap(err, "parse uri"))
	}
	if u.Scheme != Scheme {
		return URI{}, rerr.Newf(rerr.BadRequest, "uri scheme %q is not %q", u.Scheme, Scheme)
	}

	var out URI
	if u.User != nil {
		out.User = u.User.Username()
	}

	host := u.Hostname()
	if host == "" {
		return URI{}, rerr.Newf(rerr.BadRequest, "uri %q has no host", raw)
	}
	out.Host = host

	if portStr := u.Port(); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return URI{}, rerr.Newf(rerr.BadRequest, "uri %q has invalid port %q", raw, portStr)
		}
		out.Port = port
	}

	out.Name = strings.TrimPrefix(u.Path, "/")
	out.Fragment = u.Fragment

	if rawQuery := u.RawQuery; rawQuery != "" {
		values, err := url.ParseQuery(rawQuery)
		if err != nil {
			return URI{}, rerr.New(rerr.BadRequest, errors.Wrap(err, "parse uri query"))
		}

		out.IsData = true
		nStr, tStr, sStr := values.Get("n"), values.Get("t"), values.Get("s")
		if nStr == "" || tStr == "" || sStr == "" {
			return URI{}, rerr.Newf(rerr.BadRequest, "data uri %q missing required n=/t=/s= parameter", raw)
		}

		bindID, err := strconv.ParseUint(nStr, 16, 64)
		if err != nil {
			return URI{}, rerr.Newf(rerr.BadRequest, "data uri %q has invalid n= value %q", raw, nStr)
		}
		out.BindID = bindID

		typ, err := strconv.ParseUint(tStr, 10, 16)
		if err != nil {
			return URI{}, rerr.Newf(rerr.BadRequest, "data uri %q has invalid t= value %q", raw, tStr)
		}
		out.Type = uint16(typ)

		subtype, err := strconv.ParseUint(sStr, 10, 16)
		if err != nil {
			return URI{}, rerr.Newf(rerr.BadRequest, "data uri %q has invalid s= value %q", raw, sStr)
		}
		out.Subtype = uint16(subtype)
	}

	return out, nil
}

// ParseRequestLine parses the wire request line a client sends after
// the handshake: an optional "user@" prefix, a URL-encoded path, an
// optional "?query", and an optional "#fragment" — the same
// components as a riv:// URI, minus the scheme and host, since those
// are already fixed by the TCP connection itself (spec.md §4.2).
func ParseRequestLine(line string) (URI, error) {
	var out URI

	if hash := strings.IndexByte(line, '#'); hash >= 0 {
		out.Fragment = line[hash+1:]
		line = line[:hash]
	}

	var rawQuery string
	if q := strings.IndexByte(line, '?'); q >= 0 {
		rawQuery = line[q+1:]
		line = line[:q]
	}

	if at := strings.IndexByte(line, '@'); at >= 0 {
		out.User = line[:at]
		line = line[at+1:]
	}

	name, err := url.PathUnescape(line)
	if err != nil {
		return URI{}, rerr.New(rerr.BadRequest, errors.Wrap(err, "decode request path"))
	}
	out.Name = name

	if rawQuery != "" {
		values, err := url.ParseQuery(rawQuery)
		if err != nil {
			return URI{}, rerr.New(rerr.BadRequest, errors.Wrap(err, "parse request query"))
		}

		out.IsData = true
		nStr, tStr, sStr := values.Get("n"), values.Get("t"), values.Get("s")
		if nStr == "" || tStr == "" || sStr == "" {
			return URI{}, rerr.Newf(rerr.BadRequest, "request %q missing required n=/t=/s= parameter", line)
		}

		bindID, err := strconv.ParseUint(nStr, 16, 64)
		if err != nil {
			return URI{}, rerr.Newf(rerr.BadRequest, "request has invalid n= value %q", nStr)
		}
		out.BindID = bindID

		typ, err := strconv.ParseUint(tStr, 10, 16)
		if err != nil {
			return URI{}, rerr.Newf(rerr.BadRequest, "request has invalid t= value %q", tStr)
		}
		out.Type = uint16(typ)

		subtype, err := strconv.ParseUint(sStr, 10, 16)
		if err != nil {
			return URI{}, rerr.Newf(rerr.BadRequest, "request has invalid s= value %q", sStr)
		}
		out.Subtype = uint16(subtype)
	}

	return out, nil
}

// Build renders a URI back to its canonical string form. Build(Parse(s))
// is the identity for any canonical form Build itself produces (§8).
func (u URI) Build() string {
	var b strings.Builder
	b.WriteString(Scheme)
	b.WriteString("://")
	if u.User != "" {
		b.WriteString(url.User(u.User).String())
		b.WriteByte('@')
	}

	host := u.Host
	if ip := net.ParseIP(host); ip != nil && strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	b.WriteString(host)
	if u.Port != 0 {
		fmt.Fprintf(&b, ":%d", u.Port)
	}

	b.WriteByte('/')
	b.WriteString(url.PathEscape(u.Name))

	if u.IsData {
		fmt.Fprintf(&b, "?n=%x&t=%d&s=%d", u.BindID, u.Type, u.Subtype)
	}

	if u.Fragment != "" {
		b.WriteByte('#')
		b.WriteString(u.Fragment)
	}

	return b.String()
}

// ControlURI builds a control URI: riv://host[:port]/<url-encoded-name>.
func ControlURI(host string, port int, name string) string {
	return URI{Host: host, Port: port, Name: name}.Build()
}

// DataURI builds a data channel URI: the control URI plus n=/t=/s=.
func DataURI(host string, port int, name string, bindID uint64, typ, subtype uint16) string {
	return URI{
		Host: host, Port: port, Name: name,
		IsData: true, BindID: bindID, Type: typ, Subtype: subtype,
	}.Build()
}
