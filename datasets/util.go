package datasets

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/sbinet/npyio"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
)

// sampleName is the five-digit zero-padded stem of sample idx.
func sampleName(idx int) string {
	return fmt.Sprintf("%05d", idx)
}

// parallelFor runs fn for every index in [0, n) with at most workers
// goroutines. The first error cancels the remaining work.
func parallelFor(n, workers int, fn func(i int) error) error {
	var g errgroup.Group
	g.SetLimit(max(workers, 1))
	for i := range n {
		g.Go(func() error { return fn(i) })
	}
	return g.Wait()
}

// readRecords reads n records into preallocated slots so row i always holds
// sample i regardless of completion order.
func readRecords(n, workers int, read func(i int) (record, error)) ([]record, error) {
	recs := make([]record, n)
	err := parallelFor(n, workers, func(i int) error {
		r, err := read(i)
		if err != nil {
			return err
		}
		recs[i] = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// requireFile returns ErrMissingArtifact when path does not exist.
func requireFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrMissingArtifact, path)
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return nil
}

// glob lists matches of pattern, failing with ErrMissingArtifact when there
// are none.
func glob(pattern string) ([]string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to glob pattern %s: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: nothing matches %s", ErrMissingArtifact, pattern)
	}
	return matches, nil
}

// npyArray is a NumPy array widened to float64.
type npyArray struct {
	Data  []float64
	Shape []int
}

// readNpy reads a C-ordered .npy file of any supported numeric dtype.
func readNpy(path string) (npyArray, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return npyArray{}, fmt.Errorf("%w: %s", ErrMissingArtifact, path)
		}
		return npyArray{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r, err := npyio.NewReader(f)
	if err != nil {
		return npyArray{}, fmt.Errorf("%w: %s: %v", ErrMalformedRecord, path, err)
	}
	shape := append([]int(nil), r.Header.Descr.Shape...)
	if r.Header.Descr.Fortran && spannedDims(shape) > 1 {
		return npyArray{}, fmt.Errorf("%w: %s: fortran-ordered arrays are not supported", ErrMalformedRecord, path)
	}

	var data []float64
	switch r.Header.Descr.Type {
	case "<f8":
		err = r.Read(&data)
	case "<f4":
		var v []float32
		if err = r.Read(&v); err == nil {
			data = widen(v)
		}
	case "<i8":
		var v []int64
		if err = r.Read(&v); err == nil {
			data = widen(v)
		}
	case "<i4":
		var v []int32
		if err = r.Read(&v); err == nil {
			data = widen(v)
		}
	case "|u1":
		var v []uint8
		if err = r.Read(&v); err == nil {
			data = widen(v)
		}
	case "|b1":
		var v []bool
		if err = r.Read(&v); err == nil {
			data = make([]float64, len(v))
			for i, b := range v {
				data[i] = boolToFloat(b)
			}
		}
	default:
		return npyArray{}, fmt.Errorf("%w: %s: unsupported dtype %q", ErrMalformedRecord, path, r.Header.Descr.Type)
	}
	if err != nil {
		return npyArray{}, fmt.Errorf("%w: %s: %v", ErrMalformedRecord, path, err)
	}
	return npyArray{Data: data, Shape: shape}, nil
}

func widen[T float32 | int64 | int32 | uint8](v []T) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

func narrow(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

// spannedDims counts dimensions larger than one.
func spannedDims(shape []int) int {
	n := 0
	for _, d := range shape {
		if d > 1 {
			n++
		}
	}
	return n
}

// decodeImage decodes an image file into a 3xHxW float32 payload scaled to
// [0, 1]. Alpha is dropped without compositing.
func decodeImage(path string) (Payload, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Payload{}, fmt.Errorf("%w: %s", ErrMissingArtifact, path)
		}
		return Payload{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %s: %v", ErrMalformedRecord, path, err)
	}

	b := img.Bounds()
	h, w := b.Dy(), b.Dx()
	plane := h * w
	data := make([]float32, 3*plane)
	for y := range h {
		for x := range w {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			off := y*w + x
			data[off] = float32(c.R) / 255
			data[plane+off] = float32(c.G) / 255
			data[2*plane+off] = float32(c.B) / 255
		}
	}
	return Payload{Data: data, Shape: []int{3, h, w}}, nil
}

// concatWidth joins CHW payloads side by side along the width axis.
func concatWidth(panels []Payload) (Payload, error) {
	if len(panels) == 0 {
		return Payload{}, fmt.Errorf("no panels to concatenate")
	}
	c, h := panels[0].Shape[0], panels[0].Shape[1]
	total := 0
	for i, p := range panels {
		if len(p.Shape) != 3 || p.Shape[0] != c || p.Shape[1] != h {
			return Payload{}, fmt.Errorf("%w: panel %d has shape %v, want [%d %d W]", ErrMalformedRecord, i, p.Shape, c, h)
		}
		total += p.Shape[2]
	}

	data := make([]float32, c*h*total)
	offset := 0
	for _, p := range panels {
		w := p.Shape[2]
		for ch := range c {
			for y := range h {
				src := p.Data[(ch*h+y)*w : (ch*h+y+1)*w]
				copy(data[(ch*h+y)*total+offset:], src)
			}
		}
		offset += w
	}
	return Payload{Data: data, Shape: []int{c, h, total}}, nil
}
