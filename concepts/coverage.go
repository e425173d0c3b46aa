package concepts

// Coverage summarises how much supervision is still visible.
type Coverage struct {
	Rows int
	// Withheld[f][s] counts rows whose (f, s) entry is the sentinel.
	Withheld [Figures][Slots]int
	// FullyWithheldRows counts rows with no visible entry left.
	FullyWithheldRows int
}

// Fraction returns the withheld fraction of slot (f, s).
func (c Coverage) Fraction(f, s int) float64 {
	if c.Rows == 0 {
		return 0
	}
	return float64(c.Withheld[f][s]) / float64(c.Rows)
}

// Total returns the withheld fraction over every entry.
func (c Coverage) Total() float64 {
	if c.Rows == 0 {
		return 0
	}
	sum := 0
	for f := range Figures {
		for s := range Slots {
			sum += c.Withheld[f][s]
		}
	}
	return float64(sum) / float64(c.Rows*Figures*Slots)
}

// Coverage counts withheld entries in the tensor.
func (t *Tensor) Coverage() Coverage {
	t.mu.RLock()
	defer t.mu.RUnlock()

	c := Coverage{Rows: len(t.rows)}
	for _, b := range t.rows {
		visible := false
		for f := range Figures {
			for s := range Slots {
				if b[f][s] == Withheld {
					c.Withheld[f][s]++
				} else {
					visible = true
				}
			}
		}
		if !visible {
			c.FullyWithheldRows++
		}
	}
	return c
}
