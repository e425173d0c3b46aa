package datasets

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sbinet/npyio"

	"github.com/Noofbiz/kand/concepts"
)

// expectedRecord is the supervision written by writeMeta for sample i.
func expectedRecord(i int) record {
	var rec record
	for f := range concepts.Figures {
		for j := range concepts.ObjectsPerFigure {
			rec.Concepts[f][j] = int64((i + f + j) % 3)
			rec.Concepts[f][j+concepts.ObjectsPerFigure] = int64((i + 2*f + j) % 3)
		}
		rec.Labels[f] = int64(3*((i+f)%3) + (i*f)%3)
	}
	rec.Labels[concepts.Figures] = int64(i % 2)
	return rec
}

// metaYAML renders the metadata record of sample i. The global label is a
// boolean for even i and an integer for odd i.
func metaYAML(i int) string {
	var b strings.Builder
	for f := range concepts.Figures {
		var colors, shapes []string
		for j := range concepts.ObjectsPerFigure {
			colors = append(colors, fmt.Sprint((i+f+j)%3))
			shapes = append(shapes, fmt.Sprint((i+2*f+j)%3))
		}
		fmt.Fprintf(&b, "fig%d:\n  c: [[%s], [%s], [7, 7, 7]]\n  y: [%d, %d]\n",
			f, strings.Join(colors, ", "), strings.Join(shapes, ", "), (i+f)%3, (i*f)%3)
	}
	if i%2 == 0 {
		b.WriteString("y: false\n")
	} else {
		b.WriteString("y: 1\n")
	}
	return b.String()
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// writeMeta writes the metadata record of sample i into dir.
func writeMeta(t *testing.T, dir string, i int) {
	t.Helper()
	writeFile(t, filepath.Join(dir, sampleName(i)+".yaml"), metaYAML(i))
}

// writePNG writes a w x h image filled with c.
func writePNG(t *testing.T, path string, w, h int, c color.NRGBA) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create %s: %v", filepath.Dir(path), err)
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, c)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create png %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode png %s: %v", path, err)
	}
}

// writeTestNpy writes val as a .npy file.
func writeTestNpy(t *testing.T, path string, val any) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create %s: %v", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create npy %s: %v", path, err)
	}
	defer f.Close()
	if err := npyio.Write(f, val); err != nil {
		t.Fatalf("failed to write npy %s: %v", path, err)
	}
}

// sampleColor is the fill of sample i in raw-image fixtures.
func sampleColor(i int) color.NRGBA {
	return color.NRGBA{R: uint8(10 * i), G: 51, B: 255, A: 255}
}

// buildKAND lays out n raw-image samples of 4x2 pixels under base/split.
func buildKAND(t *testing.T, base, split string, n int) {
	t.Helper()
	for i := range n {
		writePNG(t, filepath.Join(base, split, "images", sampleName(i)+".png"), 4, 2, sampleColor(i))
		writeMeta(t, filepath.Join(base, split, "meta"), i)
	}
}

func testOptions() Options {
	return Options{Workers: 3}
}
