package main

// Example command that demonstrates loading a Kandinsky split, masking its
// concept supervision and converting a small batch into gomlx tensors using
// the helpers provided in the package.
//
// Usage:
//   go run ./example [base path] [split]
//
// Note: this example expects raw renders under <base>/<split>/images and
// metadata under <base>/<split>/meta. If nothing is found the example will
// print an error and exit.

import (
	"fmt"
	"log"
	"os"

	"github.com/Noofbiz/kand/concepts"
	"github.com/Noofbiz/kand/datasets"
)

func main() {
	base, split := "../data/kandinsky", "train"
	if len(os.Args) > 1 {
		base = os.Args[1]
	}
	if len(os.Args) > 2 {
		split = os.Args[2]
	}

	ds, err := datasets.NewKANDDataset(base, split, datasets.Options{Finetuning: 1})
	if err != nil {
		log.Fatalf("failed to load %s/%s: %v", base, split, err)
	}
	fmt.Printf("Loaded %s: %d samples\n", ds.Name(), ds.Len())

	tag, err := ds.MaskByName(string(concepts.Red), concepts.Policy{})
	if err != nil {
		log.Fatalf("failed to mask concepts: %v", err)
	}
	fmt.Printf("Applied %s, withheld fraction %.3f\n", tag, ds.Coverage().Total())

	// Prepare a small batch (first N examples)
	n := min(8, ds.Len())
	if n == 0 {
		return
	}
	indices := make([]int, n)
	for i := range n {
		indices[i] = i
	}

	samples, err := ds.Batch(indices)
	if err != nil {
		log.Fatalf("failed to build batch: %v", err)
	}

	// Convert to flat contiguous buffers and then to gomlx tensors
	flat, err := datasets.MakeBatchFlat(samples)
	if err != nil {
		log.Fatalf("failed to make batch flat: %v", err)
	}
	p, l, c, err := flat.ToGomlxTensors()
	if err != nil {
		log.Fatalf("failed to convert batch to gomlx tensors: %v", err)
	}

	fmt.Printf("Created tensors: payload=%s labels=%s concepts=%s\n", p.Shape(), l.Shape(), c.Shape())
	fmt.Printf("  Payload shape per sample: %v\n", flat.PayloadShape)
	fmt.Printf("  First example labels: %v\n", samples[0].Labels)
	fmt.Printf("  First example concepts: %v\n", samples[0].Concepts)
}
