package datasets

import (
	"errors"
	"fmt"

	"github.com/Noofbiz/kand/concepts"
)

// Variant names a dataset layout.
type Variant string

const (
	VariantKAND     Variant = "kand"
	VariantPreKAND  Variant = "prekand"
	VariantMiniKAND Variant = "minikand"
	VariantCLIPKAND Variant = "clipkand"
)

// Variants lists every supported layout.
func Variants() []Variant {
	return []Variant{VariantKAND, VariantPreKAND, VariantMiniKAND, VariantCLIPKAND}
}

// Convention holds the per-variant rules that turn a policy name and a
// finetuning count into a concrete concepts.Policy.
type Convention struct {
	Variant Variant

	// RowsPerUnit converts Options.Finetuning into a start row.
	RowsPerUnit int

	// SquaresScope is the row range of the squares policies.
	SquaresScope concepts.Scope

	// UnknownAsAll resolves unrecognised policy names to concepts.All
	// instead of failing.
	UnknownAsAll bool
}

// SquaresPrefix is the fixed prefix the multi-panel layout masks with the
// squares policies.
const SquaresPrefix = 20

// ConventionFor returns the convention of a variant.
func ConventionFor(v Variant) (Convention, error) {
	switch v {
	case VariantKAND, VariantPreKAND, VariantCLIPKAND:
		return Convention{Variant: v, RowsPerUnit: 100, SquaresScope: concepts.Scope{Kind: concepts.FromStart}}, nil
	case VariantMiniKAND:
		return Convention{
			Variant:      v,
			RowsPerUnit:  1,
			SquaresScope: concepts.Scope{Kind: concepts.FixedPrefix, Prefix: SquaresPrefix},
			UnknownAsAll: true,
		}, nil
	}
	return Convention{}, fmt.Errorf("unknown dataset variant %q", v)
}

// Start converts a finetuning count into the first row subject to masking.
func (c Convention) Start(finetuning int) int {
	if finetuning <= 0 {
		return 0
	}
	return finetuning * c.RowsPerUnit
}

// Resolve maps a policy name under this convention.
func (c Convention) Resolve(name string) (concepts.Name, error) {
	n, err := concepts.ParseName(name)
	if err == nil {
		return n, nil
	}
	if c.UnknownAsAll && errors.Is(err, concepts.ErrInvalidPolicyParameter) {
		return concepts.All, nil
	}
	return "", err
}

// Policy builds the concrete policy for name. Name, Start and Scope are set
// from the convention; the remaining fields of params are kept.
func (c Convention) Policy(name string, params concepts.Policy, finetuning int) (concepts.Policy, error) {
	n, err := c.Resolve(name)
	if err != nil {
		return concepts.Policy{}, err
	}
	params.Name = n
	params.Start = c.Start(finetuning)
	params.Scope = c.SquaresScope
	return params, nil
}
