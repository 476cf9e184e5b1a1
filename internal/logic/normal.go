package logic

import "math"

// cdfClampZ bounds the standard-normal argument; beyond it the tail mass
// is below float64 resolution and iteration is pointless.
const cdfClampZ = 6.5

// cdfTermCutoff terminates the Maclaurin expansion once successive terms
// drop to machine-epsilon scale.
var cdfTermCutoff = math.Exp(-23)

// stdNormalCDF evaluates the standard normal CDF via the convergent
// Maclaurin series
//
//	Phi(z) = 1/2 + phi(z) * sum_{k>=0} z^(2k+1) / (1*3*...*(2k+1))
//
// terminating when the next term falls below cdfTermCutoff.
func stdNormalCDF(z float64) float64 {
	if z < -cdfClampZ {
		return 0
	}
	if z > cdfClampZ {
		return 1
	}

	term := z
	var sum float64
	for k := 0; math.Abs(term) > cdfTermCutoff; k++ {
		sum += term
		term *= z * z / float64(2*k+3)
	}

	return 0.5 + sum*math.Exp(-z*z/2)/math.Sqrt(2*math.Pi)
}
