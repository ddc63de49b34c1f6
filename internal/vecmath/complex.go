package vecmath

import (
	"fmt"
	"math"
)

// SaturatedValue stands in for an infinite result (open circuit, division by zero).
const SaturatedValue = 1e12

type Complex struct {
	Re, Im float64
}

func Real(re float64) Complex {
	return Complex{Re: re}
}

func Imag(im float64) Complex {
	return Complex{Im: im}
}

func (c Complex) Add(o Complex) Complex {
	return Complex{c.Re + o.Re, c.Im + o.Im}
}

func (c Complex) Sub(o Complex) Complex {
	return Complex{c.Re - o.Re, c.Im - o.Im}
}

func (c Complex) Mul(o Complex) Complex {
	return Complex{
		Re: c.Re*o.Re - c.Im*o.Im,
		Im: c.Re*o.Im + c.Im*o.Re,
	}
}

func (c Complex) Scale(f float64) Complex {
	return Complex{c.Re * f, c.Im * f}
}

// Div returns c/o. A divisor with magnitude below Epsilon yields
// SaturatedValue, and components that would overflow are clamped to
// ±SaturatedValue. The divisor is scaled by its larger component first so
// large operands do not overflow the denominator.
func (c Complex) Div(o Complex) Complex {
	if o.Magnitude() < Epsilon {
		return Real(SaturatedValue)
	}
	var q Complex
	if math.Abs(o.Re) >= math.Abs(o.Im) {
		r := o.Im / o.Re
		d := o.Re + o.Im*r
		q = Complex{(c.Re + c.Im*r) / d, (c.Im - c.Re*r) / d}
	} else {
		r := o.Re / o.Im
		d := o.Im + o.Re*r
		q = Complex{(c.Re*r + c.Im) / d, (c.Im*r - c.Re) / d}
	}
	return Complex{saturate(q.Re), saturate(q.Im)}
}

func saturate(v float64) float64 {
	if math.IsInf(v, 0) {
		return math.Copysign(SaturatedValue, v)
	}
	return v
}

func (c Complex) Inverse() Complex {
	return Real(1).Div(c)
}

func (c Complex) Magnitude() float64 {
	return math.Hypot(c.Re, c.Im)
}

func (c Complex) Phase() float64 {
	return math.Atan2(c.Im, c.Re)
}

func (c Complex) Conjugate() Complex {
	return Complex{c.Re, -c.Im}
}

func (c Complex) String() string {
	if c.Im < 0 {
		return fmt.Sprintf("%.6g-%.6gj", c.Re, -c.Im)
	}
	return fmt.Sprintf("%.6g+%.6gj", c.Re, c.Im)
}
