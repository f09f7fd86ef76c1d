// Package entropy supplies the seed material mixed into the TLS
// engine's random source.
//
// The seed source is deliberately low-quality (clock jitter, the
// software analogue of sampling a floating analog pin) and is never
// used as the sole source of secret randomness: it is HKDF-expanded
// and XOR-mixed with the OS CSPRNG, so the result is at least as
// strong as crypto/rand alone.
package entropy

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"runtime"
	"time"

	"golang.org/x/crypto/hkdf"
)

// SeedSize is the number of seed bytes gathered before a handshake.
const SeedSize = 16

// Source produces a fixed-size seed of supplementary randomness.
type Source interface {
	// Seed fills p with seed bytes.
	Seed(p []byte) error
}

// Jitter is a Source sampling the least-significant bits of the
// monotonic clock across scheduler yields.  One bit per sample, eight
// samples per byte.
type Jitter struct{}

// Seed fills p from clock-jitter samples.
func (Jitter) Seed(p []byte) error {
	for i := range p {
		var b byte
		for bit := 0; bit < 8; bit++ {
			runtime.Gosched()
			b = b<<1 | byte(time.Now().UnixNano()&1)
		}
		p[i] = b
	}
	return nil
}

// Fixed is a Source returning a repeating pattern.  Test use only.
type Fixed byte

// Seed fills p with the fixed byte.
func (f Fixed) Seed(p []byte) error {
	for i := range p {
		p[i] = byte(f)
	}
	return nil
}

// Reader returns a random stream for the engine: every byte is the XOR
// of the OS CSPRNG with an HKDF-SHA256 expansion of seed.  The HKDF
// stream is re-keyed transparently when an expansion block is
// exhausted, so the reader never runs dry mid-handshake.
func Reader(seed []byte) io.Reader {
	return &mixedReader{seed: append([]byte(nil), seed...)}
}

type mixedReader struct {
	seed  []byte
	kdf   io.Reader
	epoch uint32
}

func (m *mixedReader) Read(p []byte) (int, error) {
	if _, err := io.ReadFull(rand.Reader, p); err != nil {
		return 0, fmt.Errorf("system entropy: %w", err)
	}

	mask := make([]byte, len(p))
	filled := 0
	for filled < len(mask) {
		if m.kdf == nil {
			info := make([]byte, 4)
			binary.BigEndian.PutUint32(info, m.epoch)
			m.kdf = hkdf.New(sha256.New, m.seed, nil, info)
			m.epoch++
		}
		n, err := m.kdf.Read(mask[filled:])
		filled += n
		if err != nil {
			// Expansion block exhausted: re-key and continue.
			m.kdf = nil
		}
	}

	for i := range p {
		p[i] ^= mask[i]
	}
	return len(p), nil
}
