package concepts

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPolicyParameter is returned when a masking policy is rejected
// before any mutation takes place.
var ErrInvalidPolicyParameter = errors.New("invalid policy parameter")

// Name identifies a masking policy.
type Name string

const (
	// Red withholds all color supervision and every non-zero shape.
	Red Name = "red"
	// RedAndSquares withholds every non-zero color and shape.
	RedAndSquares Name = "red-and-squares"
	// RedSquare keeps only the first RetainLimit red squares per object.
	RedSquare Name = "red-square"
	// RedAndSquaresAndCircle withholds colors whenever v != 0 || v != 1
	// and every non-zero shape.
	RedAndSquaresAndCircle Name = "red-and-squares-and-circle"
	// ByObject keeps a single object's color and shape below Start.
	ByObject Name = "object"
	// Specific keeps a single object per listed sample.
	Specific Name = "specific"
	// All withholds every entry of rows >= Start.
	All Name = "all"
)

// DefaultRetainLimit is the number of red squares kept per object by RedSquare.
const DefaultRetainLimit = 10

var knownNames = []Name{Red, RedAndSquares, RedSquare, RedAndSquaresAndCircle, ByObject, Specific, All}

// ParseName resolves a policy name, case-insensitively.
func ParseName(s string) (Name, error) {
	n := Name(strings.ToLower(strings.TrimSpace(s)))
	for _, k := range knownNames {
		if n == k {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: unknown policy %q", ErrInvalidPolicyParameter, s)
}

// Names lists every supported policy.
func Names() []Name {
	out := make([]Name, len(knownNames))
	copy(out, knownNames)
	return out
}

// ScopeKind selects which rows the squares policies touch.
type ScopeKind int

const (
	// FromStart covers rows [Start, N).
	FromStart ScopeKind = iota
	// FixedPrefix covers rows [0, Prefix) regardless of Start.
	FixedPrefix
)

// Scope is the row range of RedAndSquares and RedAndSquaresAndCircle.
type Scope struct {
	Kind   ScopeKind
	Prefix int
}

func (s Scope) String() string {
	if s.Kind == FixedPrefix {
		return fmt.Sprintf("prefix[:%d]", s.Prefix)
	}
	return "start"
}

// Policy is one masking request.
type Policy struct {
	Name Name

	// Start exempts rows below it from the global policies and bounds the
	// retained prefix of ByObject.
	Start int

	// Scope applies to RedAndSquares and RedAndSquaresAndCircle.
	Scope Scope

	// Object is the flat object id in [0, Figures*ObjectsPerFigure) for ByObject.
	Object int

	// Samples, FigureIdx and ObjectIdx are the parallel lists of Specific.
	Samples   []int
	FigureIdx []int
	ObjectIdx []int

	// RetainLimit caps the red squares kept per object by RedSquare.
	// Zero means DefaultRetainLimit.
	RetainLimit int
}

// Tag records which policy a tensor currently carries. Version counts
// successful Apply calls.
type Tag struct {
	Policy  Name
	Version int
	Start   int
}

func (t Tag) String() string {
	if t.Version == 0 {
		return "unmasked"
	}
	return fmt.Sprintf("%s@v%d(start=%d)", t.Policy, t.Version, t.Start)
}

func (p Policy) withDefaults() Policy {
	if p.RetainLimit == 0 {
		p.RetainLimit = DefaultRetainLimit
	}
	return p
}

func (p Policy) validate(n int) error {
	if p.Start < 0 {
		return fmt.Errorf("%w: start %d is negative", ErrInvalidPolicyParameter, p.Start)
	}
	if p.RetainLimit < 0 {
		return fmt.Errorf("%w: retain limit %d is negative", ErrInvalidPolicyParameter, p.RetainLimit)
	}
	if p.Scope.Kind == FixedPrefix && p.Scope.Prefix < 0 {
		return fmt.Errorf("%w: prefix %d is negative", ErrInvalidPolicyParameter, p.Scope.Prefix)
	}

	switch p.Name {
	case Red, RedAndSquares, RedSquare, RedAndSquaresAndCircle, All:
		return nil
	case ByObject:
		if p.Object < 0 || p.Object >= Figures*ObjectsPerFigure {
			return fmt.Errorf("%w: object %d outside [0, %d)", ErrInvalidPolicyParameter, p.Object, Figures*ObjectsPerFigure)
		}
		return nil
	case Specific:
		if len(p.Samples) != len(p.FigureIdx) || len(p.Samples) != len(p.ObjectIdx) {
			return fmt.Errorf("%w: specific lists differ in length: samples=%d figures=%d objects=%d",
				ErrInvalidPolicyParameter, len(p.Samples), len(p.FigureIdx), len(p.ObjectIdx))
		}
		for k := range p.Samples {
			if p.Samples[k] < 0 || p.Samples[k] >= n {
				return fmt.Errorf("%w: sample %d outside [0, %d)", ErrInvalidPolicyParameter, p.Samples[k], n)
			}
			if p.FigureIdx[k] < 0 || p.FigureIdx[k] >= Figures {
				return fmt.Errorf("%w: figure %d outside [0, %d)", ErrInvalidPolicyParameter, p.FigureIdx[k], Figures)
			}
			if p.ObjectIdx[k] < 0 || p.ObjectIdx[k] >= ObjectsPerFigure {
				return fmt.Errorf("%w: object %d outside [0, %d)", ErrInvalidPolicyParameter, p.ObjectIdx[k], ObjectsPerFigure)
			}
		}
		return nil
	case "":
		return fmt.Errorf("%w: empty policy name", ErrInvalidPolicyParameter)
	default:
		return fmt.Errorf("%w: unknown policy %q", ErrInvalidPolicyParameter, p.Name)
	}
}
