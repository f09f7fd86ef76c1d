package engine

import (
	"crypto/tls"
	"encoding/binary"
	"fmt"

	"gossl/util"
)

// Serialized session layout: one version byte, a big-endian uint16
// ticket length, the ticket, then the crypto/tls session state.
const sessionCodecVersion = 1

// captureCache bridges the adapter's by-value session material to
// crypto/tls's ClientSessionCache interface.  It is single-slot and
// single-connection: Get serves the material the connect call offered,
// Put captures whatever ticket the server issues so the adapter can
// fold it back into its own cache.
type captureCache struct {
	log      *util.Logger
	restored *tls.ClientSessionState
	data     []byte // latest serialized ticket from the server
}

func newCaptureCache(material []byte, log *util.Logger) *captureCache {
	c := &captureCache{log: log}
	if len(material) > 0 {
		cs, err := decodeSession(material)
		if err != nil {
			// Stale or corrupt material falls back to a full
			// handshake; it is not an error.
			log.Debug("cached session material unusable: %v", err)
		} else {
			c.restored = cs
		}
	}
	return c
}

// Get offers the restored session to the handshake.
func (c *captureCache) Get(string) (*tls.ClientSessionState, bool) {
	if c.restored == nil {
		return nil, false
	}
	return c.restored, true
}

// Put captures a server-issued ticket.  crypto/tls passes nil to
// invalidate a session the server refused; the capture is cleared so
// the adapter does not re-cache it.
func (c *captureCache) Put(_ string, cs *tls.ClientSessionState) {
	if cs == nil {
		c.data = nil
		return
	}
	data, err := encodeSession(cs)
	if err != nil {
		c.log.Debug("session ticket not serializable: %v", err)
		return
	}
	c.data = data
}

// exported returns the latest serialized ticket, nil if none arrived.
func (c *captureCache) exported() []byte { return c.data }

func encodeSession(cs *tls.ClientSessionState) ([]byte, error) {
	ticket, state, err := cs.ResumptionState()
	if err != nil {
		return nil, fmt.Errorf("resumption state: %w", err)
	}
	if state == nil {
		return nil, fmt.Errorf("no session state attached")
	}
	stateBytes, err := state.Bytes()
	if err != nil {
		return nil, fmt.Errorf("serializing state: %w", err)
	}
	if len(ticket) > 0xffff {
		return nil, fmt.Errorf("ticket too large (%d bytes)", len(ticket))
	}

	out := make([]byte, 0, 3+len(ticket)+len(stateBytes))
	out = append(out, sessionCodecVersion)
	out = binary.BigEndian.AppendUint16(out, uint16(len(ticket)))
	out = append(out, ticket...)
	out = append(out, stateBytes...)
	return out, nil
}

func decodeSession(data []byte) (*tls.ClientSessionState, error) {
	if len(data) < 3 {
		return nil, fmt.Errorf("truncated session material")
	}
	if data[0] != sessionCodecVersion {
		return nil, fmt.Errorf("unknown session codec version %d", data[0])
	}
	tlen := int(binary.BigEndian.Uint16(data[1:3]))
	if len(data) < 3+tlen {
		return nil, fmt.Errorf("truncated ticket")
	}
	ticket := data[3 : 3+tlen]

	state, err := tls.ParseSessionState(data[3+tlen:])
	if err != nil {
		return nil, fmt.Errorf("parsing state: %w", err)
	}
	return tls.NewResumptionState(ticket, state)
}
