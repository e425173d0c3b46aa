package datasets

import (
	"fmt"
	"path/filepath"
)

// CLIPKANDDataset pairs the kand-3k metadata with a saved CLIP embedding
// table: <base>/saved_activations/kandinsky_<split>_clip_ViT-B32.npy holds
// one FeatureDim-wide row per sample.
type CLIPKANDDataset struct {
	*assembler

	BasePath string
	Split    string

	// Files are the normalized sample names the rows were matched against.
	Files []string

	features   []float32
	featureDim int
	text       npyArray
}

// NewCLIPKANDDataset normalizes the sample listing of kand-3k/<split>, reads
// one metadata record per sample and loads both embedding tables.
func NewCLIPKANDDataset(base, split string, opts Options) (*CLIPKANDDataset, error) {
	opts = opts.withDefaults()
	conv, err := ConventionFor(VariantCLIPKAND)
	if err != nil {
		return nil, err
	}

	listing, err := glob(filepath.Join(base, "kand-3k", split, "*"))
	if err != nil {
		return nil, err
	}
	files := NormalizeFilenames(listing)
	n := len(files)
	metaDir := filepath.Join(base, "kand-3k", split+"_meta")

	recs, err := cachedRecords(opts.CachePath, newCacheKey(VariantCLIPKAND, base, split, n), func() ([]record, error) {
		return readRecords(n, opts.Workers, func(i int) (record, error) {
			path, err := resolveMeta(metaDir, i)
			if err != nil {
				return record{}, err
			}
			return readMeta(path)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load %s split %q: %w", VariantCLIPKAND, split, err)
	}

	d := &CLIPKANDDataset{BasePath: base, Split: split, Files: files, featureDim: opts.FeatureDim}
	activations := filepath.Join(base, "saved_activations")

	table, err := readNpy(filepath.Join(activations, fmt.Sprintf("kandinsky_%s_clip_ViT-B32.npy", split)))
	if err != nil {
		return nil, fmt.Errorf("failed to load %s feature table: %w", VariantCLIPKAND, err)
	}
	if len(table.Data)%d.featureDim != 0 {
		return nil, fmt.Errorf("%w: feature table with %d values cannot be reshaped to (-1, %d)",
			ErrMalformedRecord, len(table.Data), d.featureDim)
	}
	if rows := len(table.Data) / d.featureDim; rows != n {
		return nil, fmt.Errorf("%w: feature table has %d rows for %d samples", ErrMalformedRecord, rows, n)
	}
	d.features = narrow(table.Data)

	d.text, err = readNpy(filepath.Join(activations, "kandinsky_filtered_ViT-B32.npy"))
	if err != nil {
		return nil, fmt.Errorf("failed to load %s text table: %w", VariantCLIPKAND, err)
	}

	ids := make([]int, n)
	for i := range ids {
		ids[i] = i
	}
	d.assembler, err = newAssembler(fmt.Sprintf("%s/%s", VariantCLIPKAND, split), conv, opts, ids, recs, d.loadPayload)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// FeatureDim returns the width of a payload row.
func (d *CLIPKANDDataset) FeatureDim() int {
	return d.featureDim
}

// TextTable returns a copy of the text embedding table and its shape.
func (d *CLIPKANDDataset) TextTable() ([]float64, []int) {
	return append([]float64(nil), d.text.Data...), append([]int(nil), d.text.Shape...)
}

func (d *CLIPKANDDataset) loadPayload(i int) (Payload, error) {
	row := d.features[i*d.featureDim : (i+1)*d.featureDim]
	return Payload{Data: append([]float32(nil), row...), Shape: []int{d.featureDim}}, nil
}
