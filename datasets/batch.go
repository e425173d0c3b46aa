package datasets

import (
	"fmt"
	"slices"

	"github.com/gomlx/gomlx/pkg/core/tensors"

	"github.com/Noofbiz/kand/concepts"
)

// BatchFlat stores a batch in flat contiguous buffers
type BatchFlat struct {
	Payload  []float32
	Labels   []int64
	Concepts []int64

	BatchSize int
	// PayloadShape is the per-sample payload shape shared by the batch.
	PayloadShape []int
	PayloadDim   int
}

// MakeBatchFlat flattens samples into contiguous buffers. All payloads must
// share one shape.
func MakeBatchFlat(samples []*Sample) (*BatchFlat, error) {
	if len(samples) == 0 {
		return &BatchFlat{}, nil
	}

	shape := slices.Clone(samples[0].Payload.Shape)
	dim := len(samples[0].Payload.Data)
	b := &BatchFlat{
		Payload:      make([]float32, len(samples)*dim),
		Labels:       make([]int64, 0, len(samples)*LabelWidth),
		Concepts:     make([]int64, 0, len(samples)*concepts.Figures*concepts.Slots),
		BatchSize:    len(samples),
		PayloadShape: shape,
		PayloadDim:   dim,
	}
	for i, s := range samples {
		if !slices.Equal(s.Payload.Shape, shape) || len(s.Payload.Data) != dim {
			return nil, fmt.Errorf("inconsistent payload shape at example %d: expected %v, got %v",
				i, shape, s.Payload.Shape)
		}
		copy(b.Payload[i*dim:], s.Payload.Data)
		b.Labels = append(b.Labels, s.Labels[:]...)
		for f := range concepts.Figures {
			b.Concepts = append(b.Concepts, s.Concepts[f][:]...)
		}
	}
	return b, nil
}

// ToGomlxTensors converts the batch to gomlx tensors: payload as
// [batch, payloadDim] float32, labels as [batch, 4] int64 and concepts as
// [batch, 3, 6] int64.
func (b *BatchFlat) ToGomlxTensors() (payload, labels, conceptsT *tensors.Tensor, err error) {
	// handle empty batch gracefully
	if b.BatchSize == 0 {
		return tensors.FromAnyValue(make([][]float32, 0)),
			tensors.FromAnyValue(make([][]int64, 0)),
			tensors.FromAnyValue(make([][][]int64, 0)), nil
	}
	if b.PayloadDim == 0 {
		return nil, nil, nil, fmt.Errorf("cannot convert a batch with empty payloads")
	}

	p := make([][]float32, b.BatchSize)
	l := make([][]int64, b.BatchSize)
	c := make([][][]int64, b.BatchSize)
	rowWidth := concepts.Figures * concepts.Slots
	for i := range b.BatchSize {
		p[i] = b.Payload[i*b.PayloadDim : (i+1)*b.PayloadDim]
		l[i] = b.Labels[i*LabelWidth : (i+1)*LabelWidth]
		c[i] = make([][]int64, concepts.Figures)
		for f := range concepts.Figures {
			off := i*rowWidth + f*concepts.Slots
			c[i][f] = b.Concepts[off : off+concepts.Slots]
		}
	}
	return tensors.FromAnyValue(p), tensors.FromAnyValue(l), tensors.FromAnyValue(c), nil
}
