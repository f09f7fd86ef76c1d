// Package sslclient implements a TLS client adapter with a fixed-size
// session-resumption cache.
//
// The adapter layers a conventional connect / write / read / flush /
// stop surface over two collaborators it does not own the internals
// of: a byte-stream [transport.Transport] and a TLS [Engine].  Its own
// policy is the session cache (identity matching, round-robin
// eviction) and the connection lifecycle (one active connection,
// buffered writes, pump-on-available).  Memory for sessions is
// allocated once at construction and never grown.
package sslclient

import "net/netip"

// MaxSessionData bounds the resumption material stored per session.
// Serialized tickets larger than this are not cached; the next connect
// to that identity performs a full handshake.
const MaxSessionData = 2048

// Session is a by-value record of one resumable TLS session: the
// server identity it was negotiated with and the opaque material
// needed to shortcut the next handshake.  Sessions live inside the
// cache's fixed array and are never allocated individually.
type Session struct {
	host    string
	addr    netip.Addr
	data    [MaxSessionData]byte
	dataLen int
	valid   bool
}

// Host returns the hostname identity, empty for address-only sessions.
func (s *Session) Host() string { return s.host }

// Addr returns the address identity; the zero Addr when unknown.
func (s *Session) Addr() netip.Addr { return s.addr }

// Valid reports whether the session holds usable resumption material.
func (s *Session) Valid() bool { return s.valid }

// Data returns the resumption material, or nil when the session is not
// valid.  The returned slice aliases the session's internal buffer and
// must not be retained across cache operations.
func (s *Session) Data() []byte {
	if !s.valid {
		return nil
	}
	return s.data[:s.dataLen]
}

// empty reports whether the slot is unused: no identity and no
// material.  Empty slots are always preferred for reuse.
func (s *Session) empty() bool {
	return s.host == "" && !s.addr.IsValid() && !s.valid
}

// set associates the slot with a new identity and material.  Oversized
// material is dropped (identity is still recorded) and set reports
// false so the caller can log a diagnostic.
func (s *Session) set(host string, addr netip.Addr, data []byte) bool {
	s.host = host
	s.addr = addr
	if len(data) == 0 {
		s.dataLen = 0
		s.valid = false
		return true
	}
	if len(data) > MaxSessionData {
		s.dataLen = 0
		s.valid = false
		return false
	}
	s.dataLen = copy(s.data[:], data)
	s.valid = true
	return true
}

// clear returns the slot to the unused state.
func (s *Session) clear() {
	*s = Session{}
}
