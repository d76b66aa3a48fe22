package sim

// Params are the knobs of one simulation. Only ForceStrength scales the
// forces; the per-force coefficients are always derived from it.
type Params struct {
	ForceStrength     float64
	LinkDistance      float64
	ChargeDistanceMax float64
	CollisionMargin   float64
	AlphaDecay        float64
	AlphaMin          float64
	VelocityDecay     float64
}

// DefaultParams mirrors the tuning the mentoring graph has always used.
func DefaultParams() Params {
	return Params{
		ForceStrength:     100,
		LinkDistance:      30,
		ChargeDistanceMax: 500,
		CollisionMargin:   50,
		AlphaDecay:        0.05,
		AlphaMin:          0.001,
		VelocityDecay:     0.4,
	}
}

// Coefficients are the four per-force strengths for one restart.
type Coefficients struct {
	Link      float64
	Charge    float64
	Center    float64
	Collision float64
}

// CoefficientsFor derives all four coefficients from a single strength, so
// they can never drift apart. A strength of zero switches every force off.
func CoefficientsFor(strength float64) Coefficients {
	return Coefficients{
		Link:      0.0001 * strength,
		Charge:    -strength,
		Center:    0.003 * strength,
		Collision: 0.003 * strength,
	}
}
