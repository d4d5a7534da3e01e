//go:build ignore

// Package main generates a synthetic corpus for benchmarking and profiling.
// Usage: go run scripts/generate-test-corpus.go -chapters 200 -output testdata/bench.tsv
//
// The output is the TSV import format, so it can be loaded with
// `tanach import` and searched with --profile-cpu.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/noamulm-dev/Tanach100/internal/corpus"
)

var (
	numChapters = flag.Int("chapters", 200, "Number of chapters to generate, filled in canonical order")
	versesPer   = flag.Int("verses", 30, "Verses per chapter")
	outputPath  = flag.String("output", "testdata/bench.tsv", "Output file")
	seed        = flag.Int64("seed", 42, "Random seed for reproducibility")
)

// Letters in descending Torah frequency, with their rough weights.
const byFrequency = "יוהאלמרתבנשעכדחקפצגזסט"

var weights = []int{104, 101, 87, 72, 67, 66, 56, 55, 50, 46, 38, 30, 28, 25, 23, 16, 15, 10, 10, 8, 6, 6}

var finals = map[rune]rune{'כ': 'ך', 'מ': 'ם', 'נ': 'ן', 'פ': 'ף', 'צ': 'ץ'}

func main() {
	flag.Parse()
	rand.Seed(*seed)

	if err := os.MkdirAll(filepath.Dir(*outputPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}
	f, err := os.Create(*outputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	pool := letterPool()
	generated, verses := 0, 0

	fmt.Printf("Generating %d chapters of %d verses in %s\n", *numChapters, *versesPer, *outputPath)
	for _, book := range corpus.Books {
		for ch := 1; ch <= book.Chapters && generated < *numChapters; ch++ {
			for v := 1; v <= *versesPer; v++ {
				fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", book.ID, ch, v, randomVerse(pool))
				verses++
			}
			generated++
		}
	}
	if err := w.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated %d chapters, %d verses.\n", generated, verses)
}

func letterPool() []rune {
	var pool []rune
	for i, r := range []rune(byFrequency) {
		for range weights[i] {
			pool = append(pool, r)
		}
	}
	return pool
}

func randomVerse(pool []rune) string {
	words := make([]string, 6+rand.Intn(10))
	for i := range words {
		n := 2 + rand.Intn(5)
		word := make([]rune, n)
		for k := range word {
			word[k] = pool[rand.Intn(len(pool))]
		}
		if final, ok := finals[word[n-1]]; ok {
			word[n-1] = final
		}
		words[i] = string(word)
	}
	return strings.Join(words, " ")
}
