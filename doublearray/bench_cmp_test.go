package doublearray

import (
	"math/rand"
	"sort"
	"testing"

	iradix "github.com/hashicorp/go-immutable-radix"
)

func generateBenchKeys(n int) [][]byte {
	r := rand.New(rand.NewSource(42))
	set := make(map[string]bool, n)
	keys := make([]string, 0, n)
	for len(keys) < n {
		length := 4 + r.Intn(12)
		buf := make([]byte, length)
		for i := range buf {
			buf[i] = byte('a' + r.Intn(26))
		}
		if !set[string(buf)] {
			set[string(buf)] = true
			keys = append(keys, string(buf))
		}
	}
	sort.Strings(keys)

	byteKeys := make([][]byte, n)
	for i, key := range keys {
		byteKeys[i] = []byte(key)
	}
	return byteKeys
}

func setupDoubleArray(b *testing.B, n int) (*DoubleArray, [][]byte) {
	b.Helper()
	b.StopTimer()
	keys := generateBenchKeys(n)
	var d DoubleArray
	if err := d.Build(keys, nil, nil); err != nil {
		b.Fatal(err)
	}
	b.StartTimer()
	return &d, keys
}

func setupIradixTree(b *testing.B, n int) (*iradix.Tree, [][]byte) {
	b.Helper()
	b.StopTimer()
	keys := generateBenchKeys(n)
	tree := iradix.New()
	for i, key := range keys {
		tree, _, _ = tree.Insert(key, i)
	}
	b.StartTimer()
	return tree, keys
}

func setupStdMap(b *testing.B, n int) (map[string]int32, [][]byte) {
	b.Helper()
	b.StopTimer()
	keys := generateBenchKeys(n)
	m := make(map[string]int32, n)
	for i, key := range keys {
		m[string(key)] = int32(i)
	}
	b.StartTimer()
	return m, keys
}

func BenchmarkDoubleArray_ExactMatch(b *testing.B) {
	d, keys := setupDoubleArray(b, 100_000)
	for i := 0; i < b.N; i++ {
		d.ExactMatchSearch(keys[i%len(keys)], 0)
	}
}

func Benchmark_iradix_Get(b *testing.B) {
	tree, keys := setupIradixTree(b, 100_000)
	for i := 0; i < b.N; i++ {
		tree.Get(keys[i%len(keys)])
	}
}

func Benchmark_StdMap_Get(b *testing.B) {
	m, keys := setupStdMap(b, 100_000)
	for i := 0; i < b.N; i++ {
		_ = m[string(keys[i%len(keys)])]
	}
}

func BenchmarkDoubleArray_CommonPrefixSearch(b *testing.B) {
	d, keys := setupDoubleArray(b, 100_000)
	results := make([]ResultPair, 16)
	for i := 0; i < b.N; i++ {
		d.CommonPrefixSearch(keys[i%len(keys)], results, 0)
	}
}

func BenchmarkDoubleArray_Build(b *testing.B) {
	keys := generateBenchKeys(10_000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var d DoubleArray
		if err := d.Build(keys, nil, nil); err != nil {
			b.Fatal(err)
		}
	}
}
