package concepts

import (
	"fmt"
	"sync"
)

// Layout of a single sample's concept block.
const (
	// Figures is the number of figures in every sample.
	Figures = 3
	// Slots is the number of attribute slots per figure: 3 color slots
	// followed by 3 shape slots.
	Slots = 6
	// ObjectsPerFigure is the number of objects inside a figure.
	ObjectsPerFigure = Slots / 2

	// Withheld marks an entry whose supervision has been removed.
	Withheld int64 = -1
)

// Block is the (figure, slot) concept record of one sample.
type Block [Figures][Slots]int64

// Tensor is the (N, Figures, Slots) concept tensor of a dataset.
//
// The tensor is owned by a dataset. The only way to change its contents
// after construction is Apply, which holds the write lock for the whole
// policy so readers never observe a partially applied mask.
type Tensor struct {
	mu   sync.RWMutex
	rows []Block
	tag  Tag
}

// NewTensor builds a tensor from per-sample blocks. Blocks are copied.
// Negative values are rejected: the sentinel is only ever written by Apply.
func NewTensor(rows []Block) (*Tensor, error) {
	cp := make([]Block, len(rows))
	for i, b := range rows {
		for f := range Figures {
			for s := range Slots {
				if b[f][s] < 0 {
					return nil, fmt.Errorf("row %d figure %d slot %d: negative concept value %d", i, f, s, b[f][s])
				}
			}
		}
		cp[i] = b
	}
	return &Tensor{rows: cp}, nil
}

// Len returns the number of rows.
func (t *Tensor) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// Row returns a copy of row i.
func (t *Tensor) Row(i int) (Block, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if i < 0 || i >= len(t.rows) {
		return Block{}, fmt.Errorf("row %d out of range [0, %d)", i, len(t.rows))
	}
	return t.rows[i], nil
}

// Rows returns a copy of every row.
func (t *Tensor) Rows() []Block {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Block, len(t.rows))
	copy(out, t.rows)
	return out
}

// Flat returns the tensor in row-major (N*Figures*Slots) order.
func (t *Tensor) Flat() []int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]int64, 0, len(t.rows)*Figures*Slots)
	for _, b := range t.rows {
		for f := range Figures {
			out = append(out, b[f][:]...)
		}
	}
	return out
}

// Tag reports the policy most recently applied to the tensor.
func (t *Tensor) Tag() Tag {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tag
}

// Apply validates p and then mutates the tensor in place. On a validation
// failure the tensor is left untouched and the returned error wraps
// ErrInvalidPolicyParameter.
func (t *Tensor) Apply(p Policy) (Tag, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p = p.withDefaults()
	if err := p.validate(len(t.rows)); err != nil {
		return t.tag, err
	}

	switch p.Name {
	case Red:
		maskRed(t.rows, p)
	case RedAndSquares:
		maskRedAndSquares(t.rows, p)
	case RedSquare:
		maskRedSquare(t.rows, p)
	case RedAndSquaresAndCircle:
		maskRedAndSquaresAndCircle(t.rows, p)
	case ByObject:
		maskByObject(t.rows, p)
	case Specific:
		maskSpecific(t.rows, p)
	case All:
		maskAll(t.rows, p)
	}

	t.tag = Tag{Policy: p.Name, Version: t.tag.Version + 1, Start: p.Start}
	return t.tag, nil
}
