package datasets

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sbinet/npyio"
	"gopkg.in/yaml.v3"

	"github.com/Noofbiz/kand/concepts"
	"github.com/Noofbiz/kand/logging"
)

// ExportPrecomputed writes every sample of ds into the precomputed layout
// under <outDir>/<split>/{images,labels,concepts}/NNNNN.npy, which loads back
// through NewPreKANDDataset. Payloads are flattened to 1-D float32 arrays.
// A manifest.yaml next to the arrays records where they came from. Only
// unmasked datasets can be exported.
func ExportPrecomputed(ds Dataset, outDir, split string, workers int) error {
	if tag := ds.Tag(); tag.Version != 0 {
		return fmt.Errorf("refusing to export masked concepts (%s)", tag)
	}

	dir := filepath.Join(outDir, split)
	for _, sub := range []string{"images", "labels", "concepts"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			return fmt.Errorf("mkdir %s: %w", filepath.Join(dir, sub), err)
		}
	}

	err := parallelFor(ds.Len(), workers, func(i int) error {
		s, err := ds.Example(i)
		if err != nil {
			return err
		}
		name := sampleName(i) + ".npy"

		if err := writeNpy(filepath.Join(dir, "images", name), s.Payload.Data); err != nil {
			return err
		}
		if err := writeNpy(filepath.Join(dir, "labels", name), s.Labels[:]); err != nil {
			return err
		}
		flat := make([]int64, 0, concepts.Figures*concepts.Slots)
		for f := range concepts.Figures {
			flat = append(flat, s.Concepts[f][:]...)
		}
		return writeNpy(filepath.Join(dir, "concepts", name), flat)
	})
	if err != nil {
		return fmt.Errorf("failed to export %s: %w", ds.Name(), err)
	}

	m := Manifest{
		ID:        uuid.New().String(),
		Source:    ds.Name(),
		Variant:   ds.Convention().Variant,
		Samples:   ds.Len(),
		CreatedAt: time.Now().UTC(),
	}
	if ds.Len() > 0 {
		s, err := ds.Example(0)
		if err != nil {
			return err
		}
		m.PayloadShape = s.Payload.Shape
	}
	if err := writeManifest(filepath.Join(dir, ManifestName), m); err != nil {
		return err
	}
	logging.Logger.Info("exported precomputed split", "dataset", ds.Name(), "dir", dir, "samples", ds.Len(), "id", m.ID)
	return nil
}

func writeNpy(path string, val any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := npyio.Write(f, val); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// ManifestName is the file ExportPrecomputed writes next to the arrays.
const ManifestName = "manifest.yaml"

// Manifest describes an exported split.
type Manifest struct {
	ID      string  `yaml:"id"`
	Source  string  `yaml:"source"`
	Variant Variant `yaml:"variant"`
	Samples int     `yaml:"samples"`
	// PayloadShape is the payload shape before flattening.
	PayloadShape []int     `yaml:"payload_shape,flow"`
	CreatedAt    time.Time `yaml:"created_at"`
}

func writeManifest(path string, m Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// ReadManifest reads the manifest of an exported split directory.
func ReadManifest(dir string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return m, fmt.Errorf("%w: %s", ErrMissingArtifact, filepath.Join(dir, ManifestName))
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("%w: %s: %v", ErrMalformedRecord, ManifestName, err)
	}
	return m, nil
}
