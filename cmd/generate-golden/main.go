// Command generate-golden writes the factorial golden file used by the
// engine tests. Run it from the repository root.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
)

// GoldenData is one entry of the golden file.
type GoldenData struct {
	N      uint64 `json:"n"`
	Result string `json:"result"`
}

// targets spans small values, the int64 boundary (20!, 21!) and sizes large
// enough for the parallel product tree.
var targets = []uint64{0, 1, 2, 3, 5, 10, 20, 21, 24, 50, 100, 500, 1000, 2500}

func main() {
	outputDir := flag.String("out", "internal/engine/testdata", "Output directory for the golden file")
	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	data := make([]GoldenData, 0, len(targets))
	for _, n := range targets {
		data = append(data, GoldenData{N: n, Result: factorial(n).String()})
		fmt.Printf("Generated %d!\n", n)
	}

	filename := filepath.Join(*outputDir, "factorial_golden.json")
	file, err := os.Create(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Successfully generated golden file at %s\n", filename)
}

// factorial is the oracle: a plain math/big product, independent of the
// engine's backends.
func factorial(n uint64) *big.Int {
	if n < 2 {
		return big.NewInt(1)
	}
	return new(big.Int).MulRange(1, int64(n))
}
