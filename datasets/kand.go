package datasets

import (
	"fmt"
	"path/filepath"
)

// KANDDataset loads raw renders: <base>/<split>/images/NNNNN.png with one
// metadata record per sample in <base>/<split>/meta. Images are decoded on
// demand; labels and concepts are read once at construction.
type KANDDataset struct {
	*assembler

	BasePath string
	Split    string

	imagesDir string
	metaDir   string
}

// NewKANDDataset counts the PNG files of the split and reads the metadata
// record of every sample 0..N-1.
func NewKANDDataset(base, split string, opts Options) (*KANDDataset, error) {
	opts = opts.withDefaults()
	conv, err := ConventionFor(VariantKAND)
	if err != nil {
		return nil, err
	}

	d := &KANDDataset{
		BasePath:  base,
		Split:     split,
		imagesDir: filepath.Join(base, split, "images"),
		metaDir:   filepath.Join(base, split, "meta"),
	}
	pngs, err := glob(filepath.Join(d.imagesDir, "*.png"))
	if err != nil {
		return nil, err
	}
	n := len(pngs)

	recs, err := cachedRecords(opts.CachePath, newCacheKey(VariantKAND, base, split, n), func() ([]record, error) {
		return readRecords(n, opts.Workers, d.readSample)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load %s split %q: %w", VariantKAND, split, err)
	}

	ids := make([]int, n)
	for i := range ids {
		ids[i] = i
	}
	d.assembler, err = newAssembler(fmt.Sprintf("%s/%s", VariantKAND, split), conv, opts, ids, recs, d.loadPayload)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (d *KANDDataset) imagePath(i int) string {
	return filepath.Join(d.imagesDir, sampleName(i)+".png")
}

func (d *KANDDataset) readSample(i int) (record, error) {
	if err := requireFile(d.imagePath(i)); err != nil {
		return record{}, err
	}
	path, err := resolveMeta(d.metaDir, i)
	if err != nil {
		return record{}, err
	}
	return readMeta(path)
}

func (d *KANDDataset) loadPayload(i int) (Payload, error) {
	return decodeImage(d.imagePath(i))
}
