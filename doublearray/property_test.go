package doublearray

import (
	"math/rand"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/stretchr/testify/require"
)

const (
	propertyRuns = 50
	numKeys      = 500
)

func generateSortedKeys(r *rand.Rand, n, maxLen int) []string {
	set := make(map[string]bool, n)
	keys := make([]string, 0, n)
	for len(keys) < n {
		length := 1 + r.Intn(maxLen)
		var sb strings.Builder
		for i := 0; i < length; i++ {
			// A narrow alphabet forces deep prefix and suffix sharing.
			sb.WriteByte(byte('a' + r.Intn(4)))
		}
		key := sb.String()
		if !set[key] {
			set[key] = true
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

func TestDictionary_Properties(t *testing.T) {
	bar := progressbar.Default(propertyRuns)
	for run := 0; run < propertyRuns; run++ {
		seed := time.Now().UnixNano()
		r := rand.New(rand.NewSource(seed))

		keys := generateSortedKeys(r, numKeys, 12)
		oracle := make(map[string]int32, len(keys))
		byteKeys := make([][]byte, len(keys))
		values := make([]int32, len(keys))
		for i, key := range keys {
			byteKeys[i] = []byte(key)
			values[i] = r.Int31()
			oracle[key] = values[i]
		}

		var d DoubleArray
		require.NoError(t, d.Build(byteKeys, values, nil), "seed: %d", seed)

		// The image stays within a small factor of the plain-trie bound;
		// layout rounds up in 256-unit blocks.
		maxLen := 0
		for _, key := range keys {
			if len(key) > maxLen {
				maxLen = len(key)
			}
		}
		require.LessOrEqual(t, d.Size(), 2*nextPow2(numKeys*maxLen+1),
			"image larger than the trie bound (seed: %d)", seed)

		// Every stored key resolves to its value.
		for _, key := range keys {
			require.Equal(t, oracle[key], d.ExactMatchSearch([]byte(key), 0),
				"key %q (seed: %d)", key, seed)
		}

		// Near-miss probes: mutations of stored keys answer exactly as the
		// oracle does.
		results := make([]ResultPair, 16)
		for i := 0; i < 2000; i++ {
			probe := mutateKey(r, keys[r.Intn(len(keys))])

			want, ok := oracle[probe]
			if !ok {
				want = NotFound
			}
			require.Equal(t, want, d.ExactMatchSearch([]byte(probe), 0),
				"probe %q (seed: %d)", probe, seed)

			n := d.CommonPrefixSearch([]byte(probe), results, 0)
			var expected []ResultPair
			for l := 1; l <= len(probe); l++ {
				if v, ok := oracle[probe[:l]]; ok {
					expected = append(expected, ResultPair{Value: v, Length: l})
				}
			}
			require.Equal(t, len(expected), n, "probe %q (seed: %d)", probe, seed)
			if n > len(results) {
				n = len(results)
			}
			for j := 0; j < n; j++ {
				require.Equal(t, expected[j], results[j], "probe %q (seed: %d)", probe, seed)
			}
		}

		bar.Add(1)
	}
}

func TestTraverse_ComposesOnRandomSplits(t *testing.T) {
	seed := time.Now().UnixNano()
	r := rand.New(rand.NewSource(seed))

	keys := generateSortedKeys(r, numKeys, 16)
	byteKeys := make([][]byte, len(keys))
	for i, key := range keys {
		byteKeys[i] = []byte(key)
	}

	var d DoubleArray
	require.NoError(t, d.Build(byteKeys, nil, nil), "seed: %d", seed)

	for i := 0; i < 500; i++ {
		key := []byte(keys[r.Intn(len(keys))] + "abcd"[r.Intn(4):][:1])

		var wholePos uint32
		wholeKeyPos := 0
		whole := d.Traverse(key, &wholePos, &wholeKeyPos)

		split := r.Intn(len(key) + 1)
		var nodePos uint32
		keyPos := 0
		first := d.Traverse(key[:split], &nodePos, &keyPos)
		if first == Diverged {
			require.Equal(t, Diverged, whole, "key %q split %d (seed: %d)", key, split, seed)
			require.Equal(t, wholeKeyPos, keyPos, "key %q split %d (seed: %d)", key, split, seed)
			require.Equal(t, wholePos, nodePos, "key %q split %d (seed: %d)", key, split, seed)
			continue
		}

		got := d.Traverse(key, &nodePos, &keyPos)
		require.Equal(t, whole, got, "key %q split %d (seed: %d)", key, split, seed)
		require.Equal(t, wholeKeyPos, keyPos, "key %q split %d (seed: %d)", key, split, seed)
		require.Equal(t, wholePos, nodePos, "key %q split %d (seed: %d)", key, split, seed)
	}
}

// Builds a dictionary large enough to push the DAWG hash table through
// several doublings and the layout through block freezing, then verifies
// that nothing was lost on the way.
func TestBuilderRehashKeepsAllStates(t *testing.T) {
	seed := int64(1)
	r := rand.New(rand.NewSource(seed))

	keys := generateSortedKeys(r, 20_000, 24)
	byteKeys := make([][]byte, len(keys))
	for i, key := range keys {
		byteKeys[i] = []byte(key)
	}

	var d DoubleArray
	require.NoError(t, d.Build(byteKeys, nil, nil), "seed: %d", seed)
	require.Greater(t, d.Size(), numExtras, "image too small to exercise block freezing")

	for i, key := range keys {
		require.Equal(t, int32(i), d.ExactMatchSearch([]byte(key), 0),
			"key %q (seed: %d)", key, seed)
	}
}

func mutateKey(r *rand.Rand, key string) string {
	buf := []byte(key)
	switch r.Intn(4) {
	case 0: // replace a byte
		buf[r.Intn(len(buf))] = byte('a' + r.Intn(5))
	case 1: // extend
		buf = append(buf, byte('a'+r.Intn(5)))
	case 2: // truncate
		buf = buf[:1+r.Intn(len(buf))]
	case 3: // keep as is
	}
	return string(buf)
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
