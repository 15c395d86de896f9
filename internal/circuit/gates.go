package circuit

// Gate is a combinational gate over any number of inputs.
type Gate struct {
	kind Kind
}

func newGate(kind Kind) *Gate { return &Gate{kind: kind} }

func (g *Gate) Kind() Kind { return g.kind }

func (g *Gate) Eval(in, out []Level, t float64) {
	high := 0
	for _, v := range in {
		if v == High {
			high++
		}
	}
	n := len(in)

	var result bool
	switch g.kind {
	case KindAnd:
		result = high == n
	case KindNand:
		result = high != n
	case KindOr:
		result = high > 0
	case KindNor:
		result = high == 0
	case KindXor:
		result = high%2 == 1
	case KindXnor:
		result = high%2 == 0
	case KindNot:
		result = high == 0
	case KindBuffer:
		result = high > 0
	}
	out[0] = FromBool(result)
}
