package concepts

// rowRange returns the [lo, hi) rows a scope covers in a tensor of n rows.
func rowRange(n int, start int, scope Scope) (lo, hi int) {
	if scope.Kind == FixedPrefix {
		return 0, min(scope.Prefix, n)
	}
	return min(start, n), n
}

func withholdNonZero(b *Block, f, s int) {
	if b[f][s] != 0 {
		b[f][s] = Withheld
	}
}

func withholdRow(b *Block) {
	for f := range Figures {
		for s := range Slots {
			b[f][s] = Withheld
		}
	}
}

// keepOnly withholds every (figure, slot) pair of b except the color and
// shape slots of object obj in figure fig.
func keepOnly(b *Block, fig, obj int) {
	for f := range Figures {
		for s := range Slots {
			if f == fig && (s == obj || s == obj+Slots/2) {
				continue
			}
			b[f][s] = Withheld
		}
	}
}

func maskRed(rows []Block, p Policy) {
	lo, hi := rowRange(len(rows), p.Start, Scope{Kind: FromStart})
	for r := lo; r < hi; r++ {
		for f := range Figures {
			for s := 0; s < ObjectsPerFigure; s++ {
				rows[r][f][s] = Withheld
			}
			for s := ObjectsPerFigure; s < Slots; s++ {
				withholdNonZero(&rows[r], f, s)
			}
		}
	}
}

func maskRedAndSquares(rows []Block, p Policy) {
	lo, hi := rowRange(len(rows), p.Start, p.Scope)
	for r := lo; r < hi; r++ {
		for f := range Figures {
			for s := range Slots {
				withholdNonZero(&rows[r], f, s)
			}
		}
	}
}

// maskRedSquare walks every row in order and, per object, keeps at most
// RetainLimit rows whose color and shape are both 0. Every other row loses
// both slots of that object. Start does not apply.
func maskRedSquare(rows []Block, p Policy) {
	for f := range Figures {
		for j := 0; j < ObjectsPerFigure; j++ {
			kept := 0
			for r := range rows {
				square := rows[r][f][j] == 0 && rows[r][f][j+ObjectsPerFigure] == 0
				if square && kept < p.RetainLimit {
					kept++
					continue
				}
				rows[r][f][j] = Withheld
				rows[r][f][j+ObjectsPerFigure] = Withheld
			}
		}
	}
}

// maskRedAndSquaresAndCircle keeps the historical color condition
// v != 0 || v != 1, which holds for every value.
func maskRedAndSquaresAndCircle(rows []Block, p Policy) {
	lo, hi := rowRange(len(rows), p.Start, p.Scope)
	for r := lo; r < hi; r++ {
		for f := range Figures {
			for s := 0; s < ObjectsPerFigure; s++ {
				notZero := rows[r][f][s] != 0
				notOne := rows[r][f][s] != 1
				if notZero || notOne {
					rows[r][f][s] = Withheld
				}
			}
			for s := ObjectsPerFigure; s < Slots; s++ {
				withholdNonZero(&rows[r], f, s)
			}
		}
	}
}

func maskByObject(rows []Block, p Policy) {
	fig := p.Object / Figures
	obj := p.Object % Figures
	start := min(p.Start, len(rows))
	for r := start; r < len(rows); r++ {
		withholdRow(&rows[r])
	}
	for r := 0; r < start; r++ {
		keepOnly(&rows[r], fig, obj)
	}
}

func maskSpecific(rows []Block, p Policy) {
	listed := make(map[int]bool, len(p.Samples))
	for _, idx := range p.Samples {
		listed[idx] = true
	}
	for r := range rows {
		if !listed[r] {
			withholdRow(&rows[r])
		}
	}
	for k, idx := range p.Samples {
		keepOnly(&rows[idx], p.FigureIdx[k], p.ObjectIdx[k])
	}
}

func maskAll(rows []Block, p Policy) {
	for r := min(p.Start, len(rows)); r < len(rows); r++ {
		withholdRow(&rows[r])
	}
}
