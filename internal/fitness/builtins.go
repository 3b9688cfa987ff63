package fitness

// Builtins returns fresh instances of the built-in benchmarks.
func Builtins() []Function {
	return []Function{
		&blockFunc{
			name: "onemax", desc: "ONEMAX",
			block: 1, score: ones, optimal: allOnes,
		},
		&blockFunc{
			name: "quadratic", desc: "Quadratic 0.9 0 0 1",
			block: 2, score: quadratic, optimal: allOnes,
		},
		&blockFunc{
			name: "f3deceptive", desc: "3-deceptive",
			block: 3, score: deceptive3, optimal: allOnes,
		},
		&blockFunc{
			name: "trap5", desc: "5-order trap",
			block: 5, score: trap5, optimal: allOnes,
		},
		&blockFunc{
			name: "f3deceptive-bipolar", desc: "3-deceptive bipolar",
			block: 6, score: bipolar, optimal: uniformBlocks6,
		},
		&blockFunc{
			name: "f3deceptive-overlapping", desc: "3-deceptive overlapping in 1 bit",
			block: 3, overlap: 1, score: deceptive3, optimal: allOnes,
		},
	}
}

func ones(b []byte) float64 {
	s := 0
	for _, v := range b {
		s += int(v)
	}
	return float64(s)
}

func quadratic(b []byte) float64 {
	switch {
	case b[0] == 0 && b[1] == 0:
		return 0.9
	case b[0] == 1 && b[1] == 1:
		return 1
	default:
		return 0
	}
}

func deceptive3(b []byte) float64 {
	return deceptive(int(ones(b)))
}

// deceptive scores u ones in a 3-bit block: 000 is a local optimum and 111
// the global one.
func deceptive(u int) float64 {
	switch u {
	case 0:
		return 0.9
	case 1:
		return 0.8
	case 3:
		return 1
	default:
		return 0
	}
}

func trap5(b []byte) float64 {
	u := ones(b)
	if u < 5 {
		return 4 - u
	}
	return 5
}

func bipolar(b []byte) float64 {
	d := int(ones(b)) - 3
	if d < 0 {
		d = -d
	}
	return deceptive(d)
}

func allOnes(x []byte) bool {
	for _, v := range x {
		if v != 1 {
			return false
		}
	}
	return true
}

// uniformBlocks6 accepts strings whose 6-bit blocks are each all 0 or all 1.
func uniformBlocks6(x []byte) bool {
	for i := 0; i+6 <= len(x); i += 6 {
		for _, v := range x[i+1 : i+6] {
			if v != x[i] {
				return false
			}
		}
	}
	return true
}
