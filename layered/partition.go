package layered

import "github.com/notargets/gopave/bessel"

// AxisTolerance is the radius below which the evaluation point is taken to
// lie on the load axis
const AxisTolerance = 1.e-10

// Partition fills bounds with panel boundaries in the transform variable m,
// where the integrand oscillates as J0(m r/H) J1(m a/H). It merges the J0
// zeros scaled by H/r with the J1 zeros scaled by H/a, bounds[0] = 0. On the
// load axis J0(0) = 1 and only the J1 zeros are used.
func Partition(r, a, H float64, bounds *[bessel.NumZeros + 1]float64) {
	var (
		zt     = bessel.Zeros()
		rH, aH = r / H, a / H
	)
	bounds[0] = 0
	if r <= AxisTolerance {
		for i := 0; i < bessel.NumZeros; i++ {
			bounds[i+1] = zt.J1[i] / aH
		}
		return
	}
	var j0, j1 int
	for i := 0; i < bessel.NumZeros; i++ {
		z0, z1 := zt.J0[j0]/rH, zt.J1[j1]/aH
		if z0 > z1 {
			bounds[i+1] = z1
			j1++
		} else {
			bounds[i+1] = z0
			j0++
		}
	}
}
