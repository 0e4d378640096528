// Package identity extracts the network identity used as the ban/mute
// moderation key across reconnects.
package identity

import "net/http"

// ForwardedForHeader is the header checked for a first-hop proxy address.
const ForwardedForHeader = "X-Forwarded-For"

// Unknown is returned when neither a forwarded-for header nor a peer
// address is available.
const Unknown = "unknown"

// Extract returns the client's network identity: the forwarded-for header
// value verbatim if present (no comma-list parsing, matching the source's
// first-hop convention), else the peer address, else Unknown.
//
// Identity is advisory and trivially spoofable by the header; this is an
// accepted limitation, not a bug (see DESIGN.md).
func Extract(header http.Header, peerAddr string) string {
	if v := header.Get(ForwardedForHeader); v != "" {
		return v
	}
	if peerAddr != "" {
		return peerAddr
	}
	return Unknown
}
