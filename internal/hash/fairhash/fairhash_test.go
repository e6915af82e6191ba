package fairhash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDigestKnownVector(t *testing.T) {
	t.Parallel()

	// FIPS 180-2 test vector.
	require.Equal(t,
		"ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		Digest("abc"),
	)
}

func TestKeyedDigestKnownVector(t *testing.T) {
	t.Parallel()

	// RFC 4231 test case 2.
	require.Equal(t,
		"164b7a7bfcf819e2e395fbe73b56e0a387bd64222e831fd610270cd7ea2505549758bf75c05a994a6d034f65f8f0e6fdcaeab1a34d4a6b4b636e070a38bce737",
		KeyedDigest("Jefe", "what do ya want for nothing?"),
	)
}

func TestMessage(t *testing.T) {
	t.Parallel()

	require.Equal(t, "lucky:42", Message("lucky", 42))
	require.Equal(t, "s:0", Message("s", 0))
}

func TestExtractRollFirstChunkBelowThreshold(t *testing.T) {
	t.Parallel()

	// 0x00001 = 1 < 10000, scan stops at the first chunk.
	require.InDelta(t, 0.01, ExtractRoll("00001ffffffffff"), 1e-9)
}

func TestExtractRollSkipsHighChunks(t *testing.T) {
	t.Parallel()

	// 0xfffff = 1048575 >= 10000, 0x00010 = 16 wins.
	require.InDelta(t, 0.16, ExtractRoll("fffff00010"), 1e-9)
}

func TestExtractRollExhaustsInput(t *testing.T) {
	t.Parallel()

	// Both chunks >= 10000; the last chunk read becomes the roll:
	// 1048575 % 10000 = 8575.
	require.InDelta(t, 85.75, ExtractRoll("ffffffffff"), 1e-9)
}

func TestExtractRollThresholdBoundary(t *testing.T) {
	t.Parallel()

	// 0x02710 = 10000 exactly: the scan must continue past it.
	require.InDelta(t, 0.01, ExtractRoll("0271000001"), 1e-9)
	// ...and use it when input runs out.
	require.InDelta(t, 0.0, ExtractRoll("02710"), 1e-9)
}

func TestExtractRollShortInput(t *testing.T) {
	t.Parallel()

	// No full chunk available: the 10001 sentinel survives,
	// 10001 % 10000 = 1.
	require.InDelta(t, 0.01, ExtractRoll("ab"), 1e-9)
	require.InDelta(t, 0.01, ExtractRoll(""), 1e-9)
}

func TestOutcomeDeterministicAndInRange(t *testing.T) {
	t.Parallel()

	first := Outcome("hunter2", "client-seed", 7)
	second := Outcome("hunter2", "client-seed", 7)
	require.Equal(t, first, second)
	require.GreaterOrEqual(t, first, 0.0)
	require.Less(t, first, 100.0)

	// A different nonce must reach a different derivation message.
	require.NotEqual(t,
		KeyedDigest("hunter2", Message("client-seed", 7)),
		KeyedDigest("hunter2", Message("client-seed", 8)),
	)
}
