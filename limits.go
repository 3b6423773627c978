package arm

// Range is the safe mechanical travel range of one joint, in joint units.
// Configured at startup (with optional calibration-block overrides) and
// immutable afterwards.
type Range struct {
	Min float64
	Max float64
}

// Clamp constrains v to the range and reports whether it had to. A clamped
// command is still honored at the boundary, never dropped; the caller records
// the clamp as an out-of-range fault.
func (r Range) Clamp(v float64) (float64, bool) {
	if v < r.Min {
		return r.Min, true
	}
	if v > r.Max {
		return r.Max, true
	}
	return v, false
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Span returns the width of the range.
func (r Range) Span() float64 {
	return r.Max - r.Min
}

// PercentOf maps a position within the range to 0..100. The position must
// already be clamped.
func (r Range) PercentOf(v float64) float64 {
	span := r.Span()
	if span == 0 {
		return 0
	}
	return (v - r.Min) / span * 100
}
