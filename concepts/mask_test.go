package concepts

import (
	"errors"
	"reflect"
	"testing"
)

// fixture builds n rows whose entries cycle through 0..2 so every policy has
// zero and non-zero values to work on.
func fixture(t *testing.T, n int) *Tensor {
	t.Helper()
	rows := make([]Block, n)
	for r := range rows {
		for f := range Figures {
			for s := range Slots {
				rows[r][f][s] = int64((r + f + s) % 3)
			}
		}
	}
	ct, err := NewTensor(rows)
	if err != nil {
		t.Fatalf("NewTensor failed: %v", err)
	}
	return ct
}

func mustApply(t *testing.T, ct *Tensor, p Policy) Tag {
	t.Helper()
	tag, err := ct.Apply(p)
	if err != nil {
		t.Fatalf("Apply(%s) failed: %v", p.Name, err)
	}
	return tag
}

func TestNewTensorRejectsSentinel(t *testing.T) {
	rows := []Block{{}}
	rows[0][1][4] = Withheld
	if _, err := NewTensor(rows); err == nil {
		t.Fatalf("expected NewTensor to reject a negative value")
	}
}

func TestRedStartZero(t *testing.T) {
	ct := fixture(t, 8)
	before := ct.Rows()

	mustApply(t, ct, Policy{Name: Red})

	after := ct.Rows()
	for r := range after {
		for f := range Figures {
			for s := 0; s < 3; s++ {
				if after[r][f][s] != Withheld {
					t.Fatalf("row %d fig %d color slot %d: got %d want -1", r, f, s, after[r][f][s])
				}
			}
			for s := 3; s < 6; s++ {
				want := int64(0)
				if before[r][f][s] != 0 {
					want = Withheld
				}
				if after[r][f][s] != want {
					t.Fatalf("row %d fig %d shape slot %d: got %d want %d", r, f, s, after[r][f][s], want)
				}
			}
		}
	}
}

func TestRedRespectsStart(t *testing.T) {
	ct := fixture(t, 6)
	before := ct.Rows()

	mustApply(t, ct, Policy{Name: Red, Start: 4})

	after := ct.Rows()
	for r := 0; r < 4; r++ {
		if after[r] != before[r] {
			t.Fatalf("row %d below start was modified: %v -> %v", r, before[r], after[r])
		}
	}
	if after[4][0][0] != Withheld || after[5][2][1] != Withheld {
		t.Fatalf("rows at or above start were not masked: %v %v", after[4], after[5])
	}
}

func TestRedAndSquaresScopes(t *testing.T) {
	ct := fixture(t, 30)
	before := ct.Rows()

	mustApply(t, ct, Policy{Name: RedAndSquares, Scope: Scope{Kind: FixedPrefix, Prefix: 20}, Start: 25})

	after := ct.Rows()
	for r := range after {
		for f := range Figures {
			for s := range Slots {
				want := before[r][f][s]
				if r < 20 && want != 0 {
					want = Withheld
				}
				if after[r][f][s] != want {
					t.Fatalf("row %d fig %d slot %d: got %d want %d", r, f, s, after[r][f][s], want)
				}
			}
		}
	}

	ct = fixture(t, 30)
	mustApply(t, ct, Policy{Name: RedAndSquares, Start: 25})
	after = ct.Rows()
	if after[0] != before[0] {
		t.Fatalf("FromStart scope touched row 0")
	}
	for f := range Figures {
		for s := range Slots {
			if before[26][f][s] != 0 && after[26][f][s] != Withheld {
				t.Fatalf("row 26 fig %d slot %d kept non-zero value %d", f, s, after[26][f][s])
			}
		}
	}
}

func TestRedSquareRetainsFirstTen(t *testing.T) {
	const n = 20
	rows := make([]Block, n)
	// Column (fig 1, object 2): rows 0..11 are red squares, the rest are not.
	for r := range rows {
		for f := range Figures {
			for s := range Slots {
				rows[r][f][s] = 1
			}
		}
		if r < 12 {
			rows[r][1][2] = 0
			rows[r][1][5] = 0
		}
	}
	ct, err := NewTensor(rows)
	if err != nil {
		t.Fatalf("NewTensor failed: %v", err)
	}

	mustApply(t, ct, Policy{Name: RedSquare})

	after := ct.Rows()
	for r := range after {
		color, shape := after[r][1][2], after[r][1][5]
		if r < 10 {
			if color != 0 || shape != 0 {
				t.Fatalf("row %d should be retained, got color=%d shape=%d", r, color, shape)
			}
			continue
		}
		if color != Withheld || shape != Withheld {
			t.Fatalf("row %d should be masked, got color=%d shape=%d", r, color, shape)
		}
	}
	// Objects that are never red squares lose both slots everywhere.
	if after[0][0][0] != Withheld || after[0][0][3] != Withheld {
		t.Fatalf("non-qualifying object was not masked: %v", after[0][0])
	}
}

func TestRedSquareRetainLimit(t *testing.T) {
	rows := make([]Block, 5)
	ct, err := NewTensor(rows)
	if err != nil {
		t.Fatalf("NewTensor failed: %v", err)
	}
	mustApply(t, ct, Policy{Name: RedSquare, RetainLimit: 2})
	after := ct.Rows()
	if after[1][0][0] != 0 || after[2][0][0] != Withheld {
		t.Fatalf("retain limit 2 not honoured: %v", after[:3])
	}
}

func TestRedAndSquaresAndCircleMasksEveryColor(t *testing.T) {
	ct := fixture(t, 6)
	before := ct.Rows()

	mustApply(t, ct, Policy{Name: RedAndSquaresAndCircle})

	after := ct.Rows()
	for r := range after {
		for f := range Figures {
			for s := 0; s < 3; s++ {
				if after[r][f][s] != Withheld {
					t.Fatalf("row %d fig %d color slot %d kept %d", r, f, s, after[r][f][s])
				}
			}
			for s := 3; s < 6; s++ {
				if before[r][f][s] == 0 && after[r][f][s] != 0 {
					t.Fatalf("row %d fig %d shape slot %d: zero was masked", r, f, s)
				}
			}
		}
	}
}

func TestByObject(t *testing.T) {
	ct := fixture(t, 6)
	before := ct.Rows()

	// object 5 -> figure 1, object 2 -> slots 2 and 5
	mustApply(t, ct, Policy{Name: ByObject, Object: 5, Start: 3})

	after := ct.Rows()
	for r := range after {
		for f := range Figures {
			for s := range Slots {
				want := Withheld
				if r < 3 && f == 1 && (s == 2 || s == 5) {
					want = before[r][f][s]
				}
				if after[r][f][s] != want {
					t.Fatalf("row %d fig %d slot %d: got %d want %d", r, f, s, after[r][f][s], want)
				}
			}
		}
	}
}

func TestSpecific(t *testing.T) {
	ct := fixture(t, 6)
	before := ct.Rows()

	mustApply(t, ct, Policy{
		Name:      Specific,
		Samples:   []int{2, 4},
		FigureIdx: []int{0, 1},
		ObjectIdx: []int{1, 2},
	})

	after := ct.Rows()
	keep := map[int]struct {
		fig   int
		slots [2]int
	}{
		2: {0, [2]int{1, 4}},
		4: {1, [2]int{2, 5}},
	}
	for r := range after {
		k, listed := keep[r]
		for f := range Figures {
			for s := range Slots {
				want := Withheld
				if listed && f == k.fig && (s == k.slots[0] || s == k.slots[1]) {
					want = before[r][f][s]
				}
				if after[r][f][s] != want {
					t.Fatalf("row %d fig %d slot %d: got %d want %d", r, f, s, after[r][f][s], want)
				}
			}
		}
	}
}

func TestAll(t *testing.T) {
	ct := fixture(t, 4)
	before := ct.Rows()
	mustApply(t, ct, Policy{Name: All, Start: 2})
	after := ct.Rows()
	if after[1] != before[1] {
		t.Fatalf("row below start was modified")
	}
	cov := ct.Coverage()
	if cov.FullyWithheldRows != 2 {
		t.Fatalf("expected 2 fully withheld rows, got %d", cov.FullyWithheldRows)
	}
}

func TestPoliciesAreIdempotent(t *testing.T) {
	policies := []Policy{
		{Name: Red, Start: 2},
		{Name: RedAndSquares, Start: 1},
		{Name: RedAndSquares, Scope: Scope{Kind: FixedPrefix, Prefix: 20}},
		{Name: RedSquare},
		{Name: RedAndSquaresAndCircle, Scope: Scope{Kind: FixedPrefix, Prefix: 20}},
		{Name: ByObject, Object: 7, Start: 10},
		{Name: Specific, Samples: []int{3, 3, 9}, FigureIdx: []int{0, 2, 1}, ObjectIdx: []int{1, 0, 2}},
		{Name: All, Start: 5},
	}
	for _, p := range policies {
		t.Run(string(p.Name), func(t *testing.T) {
			ct := fixture(t, 40)
			mustApply(t, ct, p)
			once := ct.Flat()
			tag := mustApply(t, ct, p)
			if !reflect.DeepEqual(once, ct.Flat()) {
				t.Fatalf("second application changed the tensor")
			}
			if tag.Version != 2 || tag.Policy != p.Name {
				t.Fatalf("unexpected tag after two applications: %+v", tag)
			}
		})
	}
}

func TestInvalidParametersLeaveTensorUntouched(t *testing.T) {
	cases := []Policy{
		{Name: ByObject, Object: 9},
		{Name: ByObject, Object: -1},
		{Name: Specific, Samples: []int{1, 2}, FigureIdx: []int{0}, ObjectIdx: []int{0, 1}},
		{Name: Specific, Samples: []int{10}, FigureIdx: []int{0}, ObjectIdx: []int{0}},
		{Name: Specific, Samples: []int{1}, FigureIdx: []int{3}, ObjectIdx: []int{0}},
		{Name: Red, Start: -1},
		{Name: "blue"},
		{},
	}
	for _, p := range cases {
		ct := fixture(t, 10)
		before := ct.Flat()
		tag, err := ct.Apply(p)
		if !errors.Is(err, ErrInvalidPolicyParameter) {
			t.Fatalf("Apply(%+v): expected ErrInvalidPolicyParameter, got %v", p, err)
		}
		if tag.Version != 0 {
			t.Fatalf("Apply(%+v): tag advanced on failure: %+v", p, tag)
		}
		if !reflect.DeepEqual(before, ct.Flat()) {
			t.Fatalf("Apply(%+v): tensor mutated on failure", p)
		}
	}
}

func TestParseName(t *testing.T) {
	for _, n := range Names() {
		got, err := ParseName(" " + string(n) + " ")
		if err != nil || got != n {
			t.Fatalf("ParseName(%q) = %q, %v", n, got, err)
		}
	}
	if _, err := ParseName("Red-Square"); err != nil {
		t.Fatalf("ParseName should be case-insensitive: %v", err)
	}
	if _, err := ParseName("green"); !errors.Is(err, ErrInvalidPolicyParameter) {
		t.Fatalf("expected ErrInvalidPolicyParameter, got %v", err)
	}
}

func TestCoverage(t *testing.T) {
	ct := fixture(t, 10)
	if got := ct.Coverage().Total(); got != 0 {
		t.Fatalf("fresh tensor has withheld fraction %v", got)
	}
	mustApply(t, ct, Policy{Name: Red})
	cov := ct.Coverage()
	for f := range Figures {
		for s := 0; s < 3; s++ {
			if cov.Fraction(f, s) != 1 {
				t.Fatalf("color slot (%d,%d) fraction %v, want 1", f, s, cov.Fraction(f, s))
			}
		}
	}
	if cov.Total() <= 0.5 || cov.Total() >= 1 {
		t.Fatalf("unexpected total withheld fraction %v", cov.Total())
	}
}
