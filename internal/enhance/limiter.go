package enhance

// Limiter is a hard ceiling applied after the gate so re-quantized samples
// keep headroom and never overflow int16.
type Limiter struct {
	Ceiling float64
}

// Apply clamps x to [-Ceiling, Ceiling].
func (l Limiter) Apply(x float64) float64 {
	return max(-l.Ceiling, min(l.Ceiling, x))
}
