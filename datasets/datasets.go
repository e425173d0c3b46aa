package datasets

import (
	"runtime"

	"github.com/gomlx/gomlx/pkg/core/tensors"

	"github.com/Noofbiz/kand/concepts"
)

// This file provides the shared types of the Kandinsky concept datasets.
//
// Four loaders read the same benchmark from different on-disk layouts:
//
// KANDDataset
//   - raw PNG renders in <base>/<split>/images plus one metadata record per
//     sample in <base>/<split>/meta
//
// PreKANDDataset
//   - precomputed .npy arrays, one file per sample, under
//     <base>/<split>/{images,labels,concepts}
//
// MiniKANDDataset
//   - one directory of nine panels per sample, metadata in <base>/<split>_meta
//
// CLIPKANDDataset
//   - one row per sample in a saved embedding table, metadata in
//     <base>/kand-3k/<split>_meta
//
// Every loader builds the same three aligned columns: a payload, a 4-wide
// label vector and an (N, 3, 6) concept tensor. Row i of each column refers
// to the same sample for the whole lifetime of the dataset. The concept
// tensor is the only mutable part and only changes through Mask.

// LabelWidth is the number of labels per sample: one class per figure
// followed by the global label.
const LabelWidth = concepts.Figures + 1

// Payload is the per-sample input: an image in CHW layout or an embedding
// row. Data is row-major over Shape.
type Payload struct {
	Data  []float32
	Shape []int
}

// Sample is one aligned row of a dataset.
type Sample struct {
	// ID is the on-disk sample number.
	ID       int
	Payload  Payload
	Labels   [LabelWidth]int64
	Concepts concepts.Block
}

// Options tunes dataset construction.
type Options struct {
	// Finetuning is the number of finetuning units. Rows below the derived
	// start offset keep their supervision under the global policies.
	Finetuning int

	// Workers bounds the parallel per-sample read loop. Zero means NumCPU.
	Workers int

	// FeatureDim is the row width of the CLIP embedding table. Zero means
	// DefaultFeatureDim.
	FeatureDim int

	// CachePath, when set, stores the assembled labels and concepts in a gob
	// file and reuses them on the next construction.
	CachePath string

	// BatchSize is used by Yield. Zero means 32.
	BatchSize int
}

// DefaultFeatureDim is the concatenated width of three CLIP ViT-B/32 embeddings.
const DefaultFeatureDim = 3 * 512

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.FeatureDim <= 0 {
		o.FeatureDim = DefaultFeatureDim
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 32
	}
	return o
}

// Dataset is implemented by every loader.
type Dataset interface {
	Len() int
	Example(i int) (*Sample, error)
	Batch(indices []int) ([]*Sample, error)
	Tensors(indices []int) (payload, labels, concepts *tensors.Tensor, err error)

	// Mask is the single mutation entry point of the concept tensor.
	Mask(p concepts.Policy) (concepts.Tag, error)
	MaskByName(name string, params concepts.Policy) (concepts.Tag, error)
	Tag() concepts.Tag
	Coverage() concepts.Coverage

	Labels() [][LabelWidth]int64
	Concepts() []concepts.Block
	Convention() Convention
	Name() string

	// To implement gomlx's train.Dataset interface
	Yield() (any, []*tensors.Tensor, []*tensors.Tensor, error)
	Reset()
}
