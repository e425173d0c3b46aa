package datasets

import (
	"fmt"
	"strings"
)

// ParseVariant resolves a layout name, case-insensitively.
func ParseVariant(s string) (Variant, error) {
	v := Variant(strings.ToLower(strings.TrimSpace(s)))
	for _, k := range Variants() {
		if v == k {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown dataset variant %q", s)
}

// Open builds the dataset of the given layout.
func Open(v Variant, base, split string, opts Options) (Dataset, error) {
	switch v {
	case VariantKAND:
		d, err := NewKANDDataset(base, split, opts)
		if err != nil {
			return nil, err
		}
		return d, nil
	case VariantPreKAND:
		d, err := NewPreKANDDataset(base, split, opts)
		if err != nil {
			return nil, err
		}
		return d, nil
	case VariantMiniKAND:
		d, err := NewMiniKANDDataset(base, split, opts)
		if err != nil {
			return nil, err
		}
		return d, nil
	case VariantCLIPKAND:
		d, err := NewCLIPKANDDataset(base, split, opts)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
	return nil, fmt.Errorf("unknown dataset variant %q", v)
}
