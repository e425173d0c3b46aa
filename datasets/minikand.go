package datasets

import (
	"fmt"
	"os"
	"path/filepath"
)

// Panels is the number of images rendered per multi-panel sample.
const Panels = 9

// MiniKANDDataset loads multi-panel samples: <base>/<split>/NNNNN/ holds
// Panels images 00000.png..00008.png and <base>/<split>_meta/NNNNN holds
// the metadata. The payload is the panels joined along the width axis.
type MiniKANDDataset struct {
	*assembler

	BasePath string
	Split    string

	samplesDir string
	metaDir    string
}

// NewMiniKANDDataset lists the sample directories of the split and reads the
// metadata record of every sample 0..N-1.
func NewMiniKANDDataset(base, split string, opts Options) (*MiniKANDDataset, error) {
	opts = opts.withDefaults()
	conv, err := ConventionFor(VariantMiniKAND)
	if err != nil {
		return nil, err
	}

	d := &MiniKANDDataset{
		BasePath:   base,
		Split:      split,
		samplesDir: filepath.Join(base, split),
		metaDir:    filepath.Join(base, split+"_meta"),
	}
	entries, err := glob(filepath.Join(d.samplesDir, "*"))
	if err != nil {
		return nil, err
	}
	n := len(entries)

	recs, err := cachedRecords(opts.CachePath, newCacheKey(VariantMiniKAND, base, split, n), func() ([]record, error) {
		return readRecords(n, opts.Workers, d.readSample)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load %s split %q: %w", VariantMiniKAND, split, err)
	}

	ids := make([]int, n)
	for i := range ids {
		ids[i] = i
	}
	d.assembler, err = newAssembler(fmt.Sprintf("%s/%s", VariantMiniKAND, split), conv, opts, ids, recs, d.loadPayload)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (d *MiniKANDDataset) panelPath(i, panel int) string {
	return filepath.Join(d.samplesDir, sampleName(i), sampleName(panel)+".png")
}

func (d *MiniKANDDataset) readSample(i int) (record, error) {
	dir := filepath.Join(d.samplesDir, sampleName(i))
	if st, err := os.Stat(dir); err != nil || !st.IsDir() {
		return record{}, fmt.Errorf("%w: %s", ErrMissingArtifact, dir)
	}
	for p := range Panels {
		if err := requireFile(d.panelPath(i, p)); err != nil {
			return record{}, err
		}
	}
	path, err := resolveMeta(d.metaDir, i)
	if err != nil {
		return record{}, err
	}
	return readMeta(path)
}

func (d *MiniKANDDataset) loadPayload(i int) (Payload, error) {
	panels := make([]Payload, Panels)
	for p := range Panels {
		img, err := decodeImage(d.panelPath(i, p))
		if err != nil {
			return Payload{}, err
		}
		panels[p] = img
	}
	return concatWidth(panels)
}
