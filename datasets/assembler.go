package datasets

import (
	"fmt"
	"io"
	"sync"

	"github.com/gomlx/gomlx/pkg/core/tensors"

	"github.com/Noofbiz/kand/concepts"
	"github.com/Noofbiz/kand/logging"
)

// assembler holds the aligned columns shared by every loader. Row i of ids,
// labels and the concept tensor always refer to the same sample.
type assembler struct {
	name       string
	convention Convention
	opts       Options

	ids      []int
	labels   [][LabelWidth]int64
	concepts *concepts.Tensor

	// payload returns the input of row i.
	payload func(i int) (Payload, error)

	mu     sync.Mutex
	cursor int
}

func newAssembler(name string, conv Convention, opts Options, ids []int, recs []record, payload func(int) (Payload, error)) (*assembler, error) {
	if len(ids) != len(recs) {
		return nil, fmt.Errorf("%s: %d ids but %d records", name, len(ids), len(recs))
	}
	labels := make([][LabelWidth]int64, len(recs))
	blocks := make([]concepts.Block, len(recs))
	for i, r := range recs {
		labels[i] = r.Labels
		blocks[i] = r.Concepts
	}
	ct, err := concepts.NewTensor(blocks)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedRecord, name, err)
	}

	logging.Logger.Debug("assembled dataset", "name", name, "samples", len(ids))
	return &assembler{
		name:       name,
		convention: conv,
		opts:       opts,
		ids:        append([]int(nil), ids...),
		labels:     labels,
		concepts:   ct,
		payload:    payload,
	}, nil
}

// Len returns the number of samples.
func (a *assembler) Len() int {
	return len(a.ids)
}

// Name returns the name of the dataset
func (a *assembler) Name() string {
	return a.name
}

// Convention returns the masking convention of the layout.
func (a *assembler) Convention() Convention {
	return a.convention
}

// Example returns row i: its payload, labels and current concepts.
func (a *assembler) Example(i int) (*Sample, error) {
	if i < 0 || i >= len(a.ids) {
		return nil, fmt.Errorf("index %d out of range [0, %d)", i, len(a.ids))
	}
	p, err := a.payload(i)
	if err != nil {
		return nil, fmt.Errorf("failed to load payload of sample %d: %w", a.ids[i], err)
	}
	c, err := a.concepts.Row(i)
	if err != nil {
		return nil, err
	}
	return &Sample{ID: a.ids[i], Payload: p, Labels: a.labels[i], Concepts: c}, nil
}

// Batch returns the rows at indices, in order.
func (a *assembler) Batch(indices []int) ([]*Sample, error) {
	out := make([]*Sample, len(indices))
	for k, i := range indices {
		s, err := a.Example(i)
		if err != nil {
			return nil, err
		}
		out[k] = s
	}
	return out, nil
}

// Tensors reads a batch of examples and returns them as gomlx tensors
func (a *assembler) Tensors(indices []int) (payload, labels, concepts *tensors.Tensor, err error) {
	samples, err := a.Batch(indices)
	if err != nil {
		return nil, nil, nil, err
	}
	b, err := MakeBatchFlat(samples)
	if err != nil {
		return nil, nil, nil, err
	}
	return b.ToGomlxTensors()
}

// Yield returns the next sequential batch of BatchSize rows. It returns
// io.EOF once every row has been yielded; Reset starts over.
func (a *assembler) Yield() (spec any, inputs []*tensors.Tensor, labels []*tensors.Tensor, err error) {
	a.mu.Lock()
	start := a.cursor
	end := min(start+a.opts.BatchSize, len(a.ids))
	a.cursor = end
	a.mu.Unlock()

	if start >= end {
		return nil, nil, nil, io.EOF
	}
	indices := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		indices = append(indices, i)
	}
	p, l, c, err := a.Tensors(indices)
	if err != nil {
		return nil, nil, nil, err
	}
	return a.name, []*tensors.Tensor{p}, []*tensors.Tensor{l, c}, nil
}

// Reset rewinds Yield to the first row.
func (a *assembler) Reset() {
	a.mu.Lock()
	a.cursor = 0
	a.mu.Unlock()
}

// Labels returns a copy of the label column.
func (a *assembler) Labels() [][LabelWidth]int64 {
	out := make([][LabelWidth]int64, len(a.labels))
	copy(out, a.labels)
	return out
}

// Concepts returns a copy of the current concept column.
func (a *assembler) Concepts() []concepts.Block {
	return a.concepts.Rows()
}

// Coverage reports how much concept supervision is withheld.
func (a *assembler) Coverage() concepts.Coverage {
	return a.concepts.Coverage()
}

// Tag reports the policy currently applied to the concept tensor.
func (a *assembler) Tag() concepts.Tag {
	return a.concepts.Tag()
}

// Mask applies p to the concept tensor. Payloads and labels never change.
func (a *assembler) Mask(p concepts.Policy) (concepts.Tag, error) {
	tag, err := a.concepts.Apply(p)
	if err != nil {
		return tag, fmt.Errorf("failed to apply %q to %s: %w", p.Name, a.name, err)
	}
	logging.Logger.Debug("masked concepts", "dataset", a.name, "tag", tag.String())
	return tag, nil
}

// MaskByName resolves name under the layout's convention, derives the start
// row from Options.Finetuning and applies the policy.
func (a *assembler) MaskByName(name string, params concepts.Policy) (concepts.Tag, error) {
	p, err := a.convention.Policy(name, params, a.opts.Finetuning)
	if err != nil {
		return a.Tag(), err
	}
	if p.Start > 0 {
		logging.Logger.Info("finetuning prefix active", "dataset", a.name, "rows", p.Start)
	}
	return a.Mask(p)
}
