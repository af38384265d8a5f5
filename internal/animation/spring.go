// Package animation moves window frames toward their layout targets
// over time instead of teleporting them. It offers two motion models: a
// closed-form damped spring and classic easing curves, driven by a
// ticker synced to the display refresh interval.
package animation

import "math"

// Spring is a damped harmonic oscillator evaluated in closed form. The
// closed form makes the motion independent of tick rate: a dropped
// frame changes smoothness, never the trajectory.
type Spring struct {
	// Frequency is the undamped natural frequency in rad/s. Higher is
	// snappier.
	Frequency float64

	// Damping is the damping ratio. Below 1 the motion overshoots and
	// oscillates, at 1 it converges as fast as possible without
	// overshoot, above 1 it creeps.
	Damping float64
}

// DefaultSpring settles a typical window move in about a quarter second
// without visible overshoot.
var DefaultSpring = Spring{Frequency: 18, Damping: 1}

// Evaluate returns displacement and velocity at time t (seconds) for
// initial displacement x0 and initial velocity v0. Displacement decays
// toward zero; the caller adds it to the target position.
func (s Spring) Evaluate(x0, v0, t float64) (x, v float64) {
	w := s.Frequency
	z := s.Damping
	if w <= 0 {
		return 0, 0
	}

	switch {
	case z < 1:
		// Underdamped: decaying sinusoid.
		wd := w * math.Sqrt(1-z*z)
		decay := math.Exp(-z * w * t)
		cos := math.Cos(wd * t)
		sin := math.Sin(wd * t)
		c2 := (v0 + z*w*x0) / wd
		x = decay * (x0*cos + c2*sin)
		v = decay * ((c2*wd-x0*z*w)*cos - (x0*wd+c2*z*w)*sin)
	case z == 1:
		// Critically damped.
		decay := math.Exp(-w * t)
		c2 := v0 + w*x0
		x = decay * (x0 + c2*t)
		v = decay * (c2 - w*(x0+c2*t))
	default:
		// Overdamped: sum of two real exponentials.
		d := w * math.Sqrt(z*z-1)
		r1 := -z*w + d
		r2 := -z*w - d
		c2 := (v0 - r1*x0) / (r2 - r1)
		c1 := x0 - c2
		e1 := math.Exp(r1 * t)
		e2 := math.Exp(r2 * t)
		x = c1*e1 + c2*e2
		v = c1*r1*e1 + c2*r2*e2
	}
	return x, v
}

// Settle thresholds: a window within half a pixel of its target moving
// slower than a pixel per second reads as stationary.
const (
	settleDisplacement = 0.5
	settleVelocity     = 1.0
)

// Settled reports whether the motion state counts as at rest.
func Settled(x, v float64) bool {
	return math.Abs(x) < settleDisplacement && math.Abs(v) < settleVelocity
}
