package datasets

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Noofbiz/kand/concepts"
)

// metaExtensions are tried in order when resolving a sample's metadata.
var metaExtensions = []string{".yaml", ".yml", ".json"}

// figureRecord is one figure entry of a metadata record:
// c holds [colors, shapes, sizes] and y the two class components.
type figureRecord struct {
	C [][]float64 `yaml:"c" json:"c"`
	Y []float64   `yaml:"y" json:"y"`
}

// globalLabel accepts either an integer or a boolean.
type globalLabel struct {
	set   bool
	value float64
}

func (g *globalLabel) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("global label must be a scalar, got %s", node.Tag)
	}
	if node.Tag == "!!null" {
		return fmt.Errorf("global label is null")
	}
	if node.Tag == "!!bool" {
		var b bool
		if err := node.Decode(&b); err != nil {
			return err
		}
		g.set, g.value = true, boolToFloat(b)
		return nil
	}
	var v float64
	if err := node.Decode(&v); err != nil {
		return err
	}
	g.set, g.value = true, v
	return nil
}

func (g *globalLabel) UnmarshalJSON(data []byte) error {
	if strings.TrimSpace(string(data)) == "null" {
		return fmt.Errorf("global label is null")
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		g.set, g.value = true, boolToFloat(b)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	g.set, g.value = true, v
	return nil
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

type metaRecord struct {
	Fig0 *figureRecord `yaml:"fig0" json:"fig0"`
	Fig1 *figureRecord `yaml:"fig1" json:"fig1"`
	Fig2 *figureRecord `yaml:"fig2" json:"fig2"`
	Y    globalLabel   `yaml:"y" json:"y"`
}

// record is the extracted supervision of one sample.
type record struct {
	Labels   [LabelWidth]int64
	Concepts concepts.Block
}

// resolveMeta returns the metadata path of sample idx inside dir.
func resolveMeta(dir string, idx int) (string, error) {
	stem := filepath.Join(dir, sampleName(idx))
	for _, ext := range metaExtensions {
		p := stem + ext
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %s{%s}", ErrMissingArtifact, stem, strings.Join(metaExtensions, ","))
}

// readMeta decodes and extracts the metadata record at path.
func readMeta(path string) (record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return record{}, fmt.Errorf("%w: %s", ErrMissingArtifact, path)
		}
		return record{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var m metaRecord
	if filepath.Ext(path) == ".json" {
		err = json.Unmarshal(data, &m)
	} else {
		err = yaml.Unmarshal(data, &m)
	}
	if err != nil {
		return record{}, fmt.Errorf("%w: %s: %v", ErrMalformedRecord, path, err)
	}

	rec, err := m.extract()
	if err != nil {
		return record{}, fmt.Errorf("%w: %s: %v", ErrMalformedRecord, path, err)
	}
	return rec, nil
}

// extract keeps the first two rows of c per figure (colors, shapes), derives
// the figure class 3*y0+y1 and appends the global label.
func (m *metaRecord) extract() (record, error) {
	var rec record
	for f, fig := range []*figureRecord{m.Fig0, m.Fig1, m.Fig2} {
		if fig == nil {
			return record{}, fmt.Errorf("missing fig%d", f)
		}
		if len(fig.C) < 2 {
			return record{}, fmt.Errorf("fig%d: c has %d rows, need at least 2", f, len(fig.C))
		}
		for row := 0; row < 2; row++ {
			if len(fig.C[row]) != concepts.ObjectsPerFigure {
				return record{}, fmt.Errorf("fig%d: c[%d] has %d values, want %d",
					f, row, len(fig.C[row]), concepts.ObjectsPerFigure)
			}
			for j, v := range fig.C[row] {
				n, err := nonNegativeInt(v)
				if err != nil {
					return record{}, fmt.Errorf("fig%d: c[%d][%d]: %v", f, row, j, err)
				}
				rec.Concepts[f][row*concepts.ObjectsPerFigure+j] = n
			}
		}

		if len(fig.Y) != 2 {
			return record{}, fmt.Errorf("fig%d: y has %d components, want 2", f, len(fig.Y))
		}
		var y [2]int64
		for k, v := range fig.Y {
			n, err := nonNegativeInt(v)
			if err != nil {
				return record{}, fmt.Errorf("fig%d: y[%d]: %v", f, k, err)
			}
			if n > 2 {
				return record{}, fmt.Errorf("fig%d: y[%d]=%d outside [0, 2]", f, k, n)
			}
			y[k] = n
		}
		rec.Labels[f] = 3*y[0] + y[1]
	}

	if !m.Y.set {
		return record{}, fmt.Errorf("missing global label y")
	}
	g, err := nonNegativeInt(m.Y.value)
	if err != nil {
		return record{}, fmt.Errorf("y: %v", err)
	}
	rec.Labels[concepts.Figures] = g
	return rec, nil
}

func nonNegativeInt(v float64) (int64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return 0, fmt.Errorf("value %v is not an integer", v)
	}
	if v < 0 {
		return 0, fmt.Errorf("value %v is negative", v)
	}
	if v > math.MaxInt32 {
		return 0, fmt.Errorf("value %v is out of range", v)
	}
	return int64(v), nil
}
