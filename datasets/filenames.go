package datasets

import (
	"regexp"
	"slices"
	"strconv"
)

// numberBeforeExt finds the first run of digits followed by an extension.
var numberBeforeExt = regexp.MustCompile(`(\d+)\..`)

// stripDuplicateMarker removes "_1", "_2" and "_3" markers sitting right
// before an extension ("003_2.png" -> "003.png"). These mark duplicate
// renders of the same sample.
func stripDuplicateMarker(name string) string {
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		if name[i] == '_' && i+3 < len(name) &&
			(name[i+1] == '1' || name[i+1] == '2' || name[i+1] == '3') &&
			name[i+2] == '.' && name[i+3] != '\n' {
			i++
			continue
		}
		out = append(out, name[i])
	}
	return string(out)
}

// numericKey returns the integer embedded right before the extension, or 0.
func numericKey(name string) int64 {
	m := numberBeforeExt.FindStringSubmatch(name)
	if m == nil {
		return 0
	}
	v, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// SortNumeric stable-sorts names in place by the integer embedded right
// before their extension. Names without one sort as 0.
func SortNumeric(names []string) {
	slices.SortStableFunc(names, func(a, b string) int {
		ka, kb := numericKey(a), numericKey(b)
		switch {
		case ka < kb:
			return -1
		case ka > kb:
			return 1
		}
		return 0
	})
}

// NormalizeFilenames strips duplicate-render markers, removes duplicates
// (first occurrence wins) and returns the names sorted numerically.
func NormalizeFilenames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		c := stripDuplicateMarker(n)
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	SortNumeric(out)
	return out
}
