// Command dartsdict builds and queries double-array dictionary images.
//
// Build an image from a lexicon of sorted unique keys, one per line
// (optionally "key<TAB>value"):
//
//	dartsdict build -lexicon words.txt -out words.da
//
// Query an image:
//
//	dartsdict lookup -dict words.da word...
//	dartsdict lookup -dict words.da -prefix sentence
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/amitdo/darts-clone/doublearray"
	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/zeebo/xxh3"
	"golang.org/x/exp/slices"
)

func main() {
	if len(os.Args) < 2 {
		fail("usage: dartsdict <build|lookup> [flags]")
	}

	switch os.Args[1] {
	case "build":
		runBuild(os.Args[2:])
	case "lookup":
		runLookup(os.Args[2:])
	default:
		fail("unknown subcommand %q", os.Args[1])
	}
}

func runBuild(args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	var (
		lexiconPath = fs.String("lexicon", "", "Input lexicon, sorted unique keys, one per line")
		outPath     = fs.String("out", "dict.da", "Output image path")
		tabValues   = fs.Bool("tab", false, "Lines are key<TAB>value instead of bare keys")
		quiet       = fs.Bool("quiet", false, "Suppress the progress bar")
	)
	fs.Parse(args)

	if *lexiconPath == "" {
		fail("build: -lexicon is required")
	}

	keys, values, err := readLexicon(*lexiconPath, *tabValues)
	if err != nil {
		fail("build: %v", err)
	}
	if !slices.IsSortedFunc(keys, func(a, b []byte) bool {
		return string(a) < string(b)
	}) {
		fail("build: %s is not sorted; the builder requires strict lexicographic order", *lexiconPath)
	}

	var progress doublearray.ProgressFunc
	if !*quiet {
		bar := progressbar.Default(int64(len(keys) + 1))
		progress = func(done, total int) { bar.Add(1) }
	}

	var d doublearray.DoubleArray
	if err := d.Build(keys, values, progress); err != nil {
		fail("build: %v", err)
	}
	if err := d.Save(*outPath); err != nil {
		fail("build: %v", err)
	}

	fmt.Printf("keys:        %s\n", humanize.Comma(int64(len(keys))))
	fmt.Printf("units:       %s\n", humanize.Comma(int64(d.Size())))
	fmt.Printf("image:       %s\n", humanize.Bytes(uint64(d.TotalBytes())))
	fmt.Printf("fingerprint: %016x\n", lexiconFingerprint(keys))
	fmt.Printf("saved:       %s\n", *outPath)
}

func runLookup(args []string) {
	fs := flag.NewFlagSet("lookup", flag.ExitOnError)
	var (
		dictPath = fs.String("dict", "dict.da", "Dictionary image path")
		prefix   = fs.Bool("prefix", false, "Report every dictionary key that prefixes the argument")
	)
	fs.Parse(args)

	var d doublearray.DoubleArray
	if err := d.Open(*dictPath, 0, 0); err != nil {
		fail("lookup: %v", err)
	}

	results := make([]doublearray.ResultPair, 64)
	for _, arg := range fs.Args() {
		key := []byte(arg)
		if *prefix {
			n := d.CommonPrefixSearch(key, results, 0)
			fmt.Printf("%s: %d match(es)\n", arg, n)
			for _, r := range results[:min(n, len(results))] {
				fmt.Printf("  %s = %d\n", arg[:r.Length], r.Value)
			}
			continue
		}
		if value := d.ExactMatchSearch(key, 0); value != doublearray.NotFound {
			fmt.Printf("%s = %d\n", arg, value)
		} else {
			fmt.Printf("%s: not found\n", arg)
		}
	}
}

// readLexicon loads keys (and values with -tab) preserving file order.
func readLexicon(path string, tabValues bool) ([][]byte, []int32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	var keys [][]byte
	var values []int32

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1<<16), 1<<20)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}
		if !tabValues {
			keys = append(keys, []byte(line))
			continue
		}
		key, valueText, ok := strings.Cut(line, "\t")
		if !ok {
			return nil, nil, fmt.Errorf("%s:%d: missing value column", path, lineNo)
		}
		value, err := strconv.ParseInt(valueText, 10, 32)
		if err != nil {
			return nil, nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		keys = append(keys, []byte(key))
		values = append(values, int32(value))
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	if tabValues {
		return keys, values, nil
	}
	return keys, nil, nil
}

// lexiconFingerprint hashes the key set so two images can be traced back to
// the same input without keeping the lexicon around.
func lexiconFingerprint(keys [][]byte) uint64 {
	h := xxh3.New()
	for _, key := range keys {
		h.Write(key)
		h.Write([]byte{'\n'})
	}
	return h.Sum64()
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
