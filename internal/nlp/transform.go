package nlp

import "math"

// boxTransform maps unconstrained z to x inside the box
//
//	[l, u]   x = l + (u−l)·sin²(z)
//	[l, ∞)   x = l + z²
//	(−∞, u]  x = u − z²
//	(−∞, ∞)  x = z
type boxTransform struct {
	lower, upper []float64
	kind         []boundKind
}

type boundKind uint8

const (
	unbounded boundKind = iota
	lowerOnly
	upperOnly
	twoSided
	fixed
)

func newBoxTransform(p *Problem) *boxTransform {
	t := &boxTransform{
		lower: make([]float64, p.Dim),
		upper: make([]float64, p.Dim),
		kind:  make([]boundKind, p.Dim),
	}
	for i := 0; i < p.Dim; i++ {
		lo, hi := p.bounds(i)
		t.lower[i], t.upper[i] = lo, hi

		switch {
		case lo == hi:
			t.kind[i] = fixed
		case !math.IsInf(lo, 0) && !math.IsInf(hi, 0):
			t.kind[i] = twoSided
		case !math.IsInf(lo, 0):
			t.kind[i] = lowerOnly
		case !math.IsInf(hi, 0):
			t.kind[i] = upperOnly
		default:
			t.kind[i] = unbounded
		}
	}
	return t
}

// toExternal writes x(z) into x
func (t *boxTransform) toExternal(x, z []float64) {
	for i, zi := range z {
		lo, hi := t.lower[i], t.upper[i]
		switch t.kind[i] {
		case fixed:
			x[i] = lo
		case twoSided:
			s := math.Sin(zi)
			x[i] = lo + (hi-lo)*s*s
			// 반올림으로 경계를 넘지 않도록
			x[i] = math.Min(math.Max(x[i], lo), hi)
		case lowerOnly:
			x[i] = lo + zi*zi
		case upperOnly:
			x[i] = hi - zi*zi
		default:
			x[i] = zi
		}
	}
}

// toInternal writes a z with x(z) == x into z (x must be inside the box)
func (t *boxTransform) toInternal(z, x []float64) {
	for i, xi := range x {
		lo, hi := t.lower[i], t.upper[i]
		switch t.kind[i] {
		case fixed:
			z[i] = 0
		case twoSided:
			r := (xi - lo) / (hi - lo)
			r = math.Min(math.Max(r, 0), 1)
			z[i] = math.Asin(math.Sqrt(r))
		case lowerOnly:
			z[i] = math.Sqrt(math.Max(xi-lo, 0))
		case upperOnly:
			z[i] = math.Sqrt(math.Max(hi-xi, 0))
		default:
			z[i] = xi
		}
	}
}

// chain converts ∂L/∂x into ∂L/∂z in place
func (t *boxTransform) chain(grad, z []float64) {
	for i, zi := range z {
		lo, hi := t.lower[i], t.upper[i]
		switch t.kind[i] {
		case fixed:
			grad[i] = 0
		case twoSided:
			grad[i] *= (hi - lo) * math.Sin(2*zi)
		case lowerOnly:
			grad[i] *= 2 * zi
		case upperOnly:
			grad[i] *= -2 * zi
		}
	}
}
