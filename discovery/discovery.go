// Package discovery implements public-URI enumeration (spec.md §4.6):
// given a provider, the set of riv:// URIs by which an external
// client could reach it through one communicator.
package discovery

import (
	"net"
	"os"
	"sync"

	"github.com/rivcore/riv/errors"
	"github.com/rivcore/riv/rerr"
	"github.com/rivcore/riv/uri"
)

// ifaceAddrs is the piece of net.Interface enumeration actually
// consulted: its up/loopback flags and its bound addresses.
type ifaceAddrs struct {
	flags net.Flags
	addrs []net.Addr
}

// lookupHostname and listInterfaceAddrs are indirected so tests can
// substitute a fixed machine topology (spec.md §8 scenario 6) without
// depending on the actual host running the test.
var lookupHostname = os.Hostname

var listInterfaceAddrs = func() ([]ifaceAddrs, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	out := make([]ifaceAddrs, 0, len(ifaces))
	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		out = append(out, ifaceAddrs{flags: iface.Flags, addrs: addrs})
	}
	return out, nil
}

// Enumerator produces and caches the public URI set for providers
// reachable through one communicator on a fixed port.
type Enumerator struct {
	port int

	mu    sync.Mutex
	cache map[string][]string
}

// New returns an enumerator for communicator listening on port.
func New(port int) *Enumerator {
	return &Enumerator{port: port, cache: make(map[string][]string)}
}

// URIs returns the public URI set for a provider, identified by a
// stable key (e.g. its graph id or name) and display name (the
// URL-encoded path segment). Results are cached per key until
// Invalidate is called (spec.md §4.6 "small cache keyed by provider
// identity").
func (e *Enumerator) URIs(key, name string) ([]string, error) {
	e.mu.Lock()
	if cached, ok := e.cache[key]; ok {
		e.mu.Unlock()
		return cached, nil
	}
	e.mu.Unlock()

	uris, err := e.enumerate(name)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.cache[key] = uris
	e.mu.Unlock()
	return uris, nil
}

// Invalidate drops a provider's cached URI set, e.g. on provider name
// change, so the next URIs call rebuilds it (spec.md §8 "never
// returns stale URIs for a different provider").
func (e *Enumerator) Invalidate(key string) {
	e.mu.Lock()
	delete(e.cache, key)
	e.mu.Unlock()
}

func (e *Enumerator) enumerate(name string) ([]string, error) {
	var out []string

	if hostname, err := lookupHostname(); err == nil && hostname != "" {
		out = append(out, uri.ControlURI(hostname, e.port, name))
	}

	ifaces, err := listInterfaceAddrs()
	if err != nil {
		return nil, rerr.New(rerr.SocketError, errors.Wrap(err, "enumerate network interfaces"))
	}

	for _, iface := range ifaces {
		if iface.flags&net.FlagUp == 0 || iface.flags&net.FlagLoopback != 0 {
			continue
		}

		for _, a := range iface.addrs {
			ipNet, ok := a.(*net.IPNet)
			if !ok || ipNet.IP.IsLoopback() {
				continue
			}
			out = append(out, uri.ControlURI(ipNet.IP.String(), e.port, name))
		}
	}

	return out, nil
}
