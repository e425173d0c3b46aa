package datasets

import (
	"fmt"
	"path/filepath"

	"github.com/Noofbiz/kand/concepts"
)

// PreKANDDataset loads precomputed per-sample arrays from
// <base>/<split>/{images,labels,concepts}/NNNNN.npy. Every file holds a
// single sample; all embeddings share one width. Everything is held in
// memory after construction.
type PreKANDDataset struct {
	*assembler

	BasePath string
	Split    string

	embeddings [][]float32
	embShape   []int
}

type preSample struct {
	rec   record
	emb   []float32
	shape []int
}

// NewPreKANDDataset counts the entries of <split>/images and reads the three
// arrays of every sample 0..N-1.
func NewPreKANDDataset(base, split string, opts Options) (*PreKANDDataset, error) {
	opts = opts.withDefaults()
	conv, err := ConventionFor(VariantPreKAND)
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(base, split)
	entries, err := glob(filepath.Join(dir, "images", "*"))
	if err != nil {
		return nil, err
	}
	n := len(entries)

	samples := make([]preSample, n)
	err = parallelFor(n, opts.Workers, func(i int) error {
		s, err := readPreSample(dir, i)
		if err != nil {
			return err
		}
		samples[i] = s
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load %s split %q: %w", VariantPreKAND, split, err)
	}

	d := &PreKANDDataset{BasePath: base, Split: split, embeddings: make([][]float32, n)}
	recs := make([]record, n)
	ids := make([]int, n)
	for i, s := range samples {
		if i == 0 {
			d.embShape = s.shape
		} else if len(s.emb) != len(samples[0].emb) {
			return nil, fmt.Errorf("%w: sample %d embedding has %d values, sample 0 has %d",
				ErrMalformedRecord, i, len(s.emb), len(samples[0].emb))
		}
		d.embeddings[i] = s.emb
		recs[i] = s.rec
		ids[i] = i
	}

	d.assembler, err = newAssembler(fmt.Sprintf("%s/%s", VariantPreKAND, split), conv, opts, ids, recs, d.loadPayload)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func readPreSample(dir string, i int) (preSample, error) {
	name := sampleName(i) + ".npy"

	img, err := readNpy(filepath.Join(dir, "images", name))
	if err != nil {
		return preSample{}, err
	}
	lab, err := readNpy(filepath.Join(dir, "labels", name))
	if err != nil {
		return preSample{}, err
	}
	con, err := readNpy(filepath.Join(dir, "concepts", name))
	if err != nil {
		return preSample{}, err
	}

	var s preSample
	if len(img.Data) == 0 {
		return preSample{}, fmt.Errorf("%w: sample %d has an empty embedding", ErrMalformedRecord, i)
	}
	s.emb = narrow(img.Data)
	s.shape = squeezeLeading(img.Shape)

	if len(lab.Data) != LabelWidth {
		return preSample{}, fmt.Errorf("%w: sample %d labels have %d values, want %d",
			ErrMalformedRecord, i, len(lab.Data), LabelWidth)
	}
	for k, v := range lab.Data {
		if s.rec.Labels[k], err = nonNegativeInt(v); err != nil {
			return preSample{}, fmt.Errorf("%w: sample %d label %d: %v", ErrMalformedRecord, i, k, err)
		}
	}

	if len(con.Data) != concepts.Figures*concepts.Slots {
		return preSample{}, fmt.Errorf("%w: sample %d concepts have %d values, want %d",
			ErrMalformedRecord, i, len(con.Data), concepts.Figures*concepts.Slots)
	}
	for k, v := range con.Data {
		f, slot := k/concepts.Slots, k%concepts.Slots
		if s.rec.Concepts[f][slot], err = nonNegativeInt(v); err != nil {
			return preSample{}, fmt.Errorf("%w: sample %d concept (%d,%d): %v", ErrMalformedRecord, i, f, slot, err)
		}
	}
	return s, nil
}

// squeezeLeading drops a leading batch dimension of one, so a (1, D) file
// yields a [D] payload.
func squeezeLeading(shape []int) []int {
	if len(shape) > 1 && shape[0] == 1 {
		return append([]int(nil), shape[1:]...)
	}
	if len(shape) == 0 {
		return []int{1}
	}
	return append([]int(nil), shape...)
}

func (d *PreKANDDataset) loadPayload(i int) (Payload, error) {
	return Payload{
		Data:  append([]float32(nil), d.embeddings[i]...),
		Shape: append([]int(nil), d.embShape...),
	}, nil
}
