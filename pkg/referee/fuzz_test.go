// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package referee

import (
	"bytes"
	"math/rand"
	"os"
	"strconv"
	"testing"
	"time"
)

// getFuzzRounds returns the number of fuzz rounds from FUZZ_ROUNDS env var, default 1000
func getFuzzRounds() int {
	if envRounds := os.Getenv("FUZZ_ROUNDS"); envRounds != "" {
		if rounds, err := strconv.Atoi(envRounds); err == nil && rounds > 0 {
			return rounds
		}
	}
	return 1000
}

// getFuzzSeed returns the seed from FUZZ_SEED env var, or generates one from current time
func getFuzzSeed() int64 {
	if envSeed := os.Getenv("FUZZ_SEED"); envSeed != "" {
		if seed, err := strconv.ParseInt(envSeed, 10, 64); err == nil {
			return seed
		}
	}
	return time.Now().UnixNano()
}

// newFuzzRng creates a new random number generator and logs the seed for reproducibility
func newFuzzRng(t *testing.T) *rand.Rand {
	seed := getFuzzSeed()
	t.Logf("Seed: %d (reproduce with FUZZ_SEED=%d)", seed, seed)
	return rand.New(rand.NewSource(seed))
}

// randomKnownCmd picks a registered cmd id and a payload of its size
func randomKnownCmd(rng *rand.Rand) (uint16, []byte) {
	k := defaultKinds[rng.Intn(len(defaultKinds))]
	size := k.Size
	if !k.Fixed() {
		size += rng.Intn(k.MaxSize - k.Size + 1)
	}
	payload := make([]byte, size)
	rng.Read(payload)
	return k.CmdID, payload
}

// ============================================================
// Session Fuzz Tests
// ============================================================

// TestFuzzSession_RandomBytes feeds random bytes in random chunks and
// verifies the session never panics or outgrows its buffer
func TestFuzzSession_RandomBytes(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		s := NewSession()
		data := make([]byte, rng.Intn(1024)+1)
		rng.Read(data)

		for len(data) > 0 {
			n := rng.Intn(64) + 1
			if n > len(data) {
				n = len(data)
			}
			s.Feed(data[:n])
			data = data[n:]

			if s.Buffered() > RxBufferSize {
				t.Fatalf("round %d: buffered %d bytes", i, s.Buffered())
			}
		}
	}
}

// TestFuzzSession_FramesInNoise embeds valid frames between random noise
// that contains no SOF byte and checks every frame is recovered
func TestFuzzSession_FramesInNoise(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		var seen []uint16
		s := NewSession(WithObserver(func(f *Frame, rec Record, err error) {
			seen = append(seen, f.CmdID())
		}))

		var stream []byte
		var sent []uint16
		frames := rng.Intn(5) + 1
		for j := 0; j < frames; j++ {
			noise := make([]byte, rng.Intn(16))
			rng.Read(noise)
			noise = bytes.ReplaceAll(noise, []byte{StartByte}, []byte{0x00})
			stream = append(stream, noise...)

			cmdID, payload := randomKnownCmd(rng)
			frame, err := EncodeFrame(uint8(j), cmdID, payload)
			if err != nil {
				t.Fatalf("round %d: encode failed: %v", i, err)
			}
			stream = append(stream, frame...)
			sent = append(sent, cmdID)
		}

		s.Feed(stream)

		if len(seen) != len(sent) {
			t.Fatalf("round %d: recovered %d of %d frames", i, len(seen), len(sent))
		}
		for j := range sent {
			if seen[j] != sent[j] {
				t.Errorf("round %d: frame %d cmd 0x%04X, expected 0x%04X", i, j, seen[j], sent[j])
			}
		}
		if s.Stats().DispatchErrors != 0 {
			t.Errorf("round %d: %d dispatch errors for well-sized payloads", i, s.Stats().DispatchErrors)
		}
	}
}

// TestFuzzDecodeOne_RoundTrip encodes random payloads and decodes them back
func TestFuzzDecodeOne_RoundTrip(t *testing.T) {
	rounds := getFuzzRounds()
	rng := newFuzzRng(t)
	t.Logf("Running %d fuzz rounds", rounds)

	for i := 0; i < rounds; i++ {
		cmdID := uint16(rng.Intn(0x10000))
		payload := make([]byte, rng.Intn(MaxPayloadSize+1))
		rng.Read(payload)

		frame, err := EncodeFrame(uint8(i), cmdID, payload)
		if err != nil {
			t.Fatalf("round %d: encode failed: %v", i, err)
		}
		res := DecodeOne(frame)
		if res.Status != StatusComplete {
			t.Fatalf("round %d: status %s (%v)", i, res.Status, res.Err)
		}
		if res.Frame.CmdID() != cmdID || !bytes.Equal(res.Frame.Payload(), payload) {
			t.Fatalf("round %d: round trip mismatch", i)
		}
	}
}
