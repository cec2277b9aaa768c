package auth

import (
	"net"
	"net/http"
	"strings"
)

// ClientIdentifier returns the address used to bucket login attempts. It
// expects chi's RealIP middleware to have already rewritten RemoteAddr from
// the forwarding headers. Requests with no usable address all share the
// UnknownClient bucket.
func ClientIdentifier(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if addr == "" {
		return UnknownClient
	}
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	if addr == "" {
		return UnknownClient
	}
	return addr
}
