package trajectory

// Option applies a configuration option to the Solver.
type Option func(*Solver)

// WithGravity sets the downward acceleration. Applied only when positive.
func WithGravity(g float64) Option {
	return func(s *Solver) {
		if g > 0 {
			s.gravity = g
		}
	}
}
