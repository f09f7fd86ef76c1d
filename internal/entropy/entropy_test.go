package entropy

import (
	"bytes"
	"io"
	"testing"
)

func TestJitter_FillsSeed(t *testing.T) {
	seed := make([]byte, SeedSize)
	if err := (Jitter{}).Seed(seed); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	// Clock-jitter bits are weak but a run of sixteen identical bytes
	// would mean the sampling is broken outright.
	allSame := true
	for _, b := range seed[1:] {
		if b != seed[0] {
			allSame = false
			break
		}
	}
	if allSame {
		t.Errorf("seed %x shows no variation at all", seed)
	}
}

func TestFixed_Seed(t *testing.T) {
	seed := make([]byte, 8)
	if err := Fixed(0xA5).Seed(seed); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if !bytes.Equal(seed, bytes.Repeat([]byte{0xA5}, 8)) {
		t.Errorf("seed = %x, want repeated 0xA5", seed)
	}
}

func TestReader_FillsRequestedLength(t *testing.T) {
	for _, n := range []int{1, 16, 64, 1024} {
		r := Reader([]byte("seed"))
		buf := make([]byte, n)
		got, err := io.ReadFull(r, buf)
		if err != nil || got != n {
			t.Fatalf("ReadFull(%d) = (%d, %v)", n, got, err)
		}
	}
}

func TestReader_OutputVaries(t *testing.T) {
	r := Reader([]byte("seed"))
	a := make([]byte, 32)
	b := make([]byte, 32)
	if _, err := io.ReadFull(r, a); err != nil {
		t.Fatal(err)
	}
	if _, err := io.ReadFull(r, b); err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(a, b) {
		t.Error("consecutive reads produced identical output")
	}

	// Two readers with the same seed still differ: the OS CSPRNG is
	// mixed in, so the seed never determines the stream.
	c := make([]byte, 32)
	if _, err := io.ReadFull(Reader([]byte("seed")), c); err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(a, c) {
		t.Error("output should not be a pure function of the seed")
	}
}

// The HKDF expansion re-keys after 255 hash blocks; reads past that
// boundary must keep working.
func TestReader_SurvivesRekey(t *testing.T) {
	r := Reader(make([]byte, SeedSize))
	buf := make([]byte, 10000)
	if _, err := io.ReadFull(r, buf); err != nil {
		t.Fatalf("long read: %v", err)
	}
	if bytes.Equal(buf[:32], make([]byte, 32)) {
		t.Error("output looks unmixed")
	}
}
