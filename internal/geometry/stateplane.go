package geometry

// Oregon North state plane (EPSG 2914): NAD83(HARN) Lambert Conformal Conic,
// international feet. The maintenance feature datasets carry this CRS; the
// conversions here serve centroid extraction in WGS-84 for deliverables.

import "math"

const (
	orFalseEastingFt = 8202099.737532808 // 2,500,000 m
	orFalseNorthing  = 0.0
	orPhi0Deg        = 43.66666666666666 // latitude of origin
	orPhi1Deg        = 44.33333333333334 // standard parallel 1
	orPhi2Deg        = 46.0              // standard parallel 2
	orLon0Deg        = -120.5            // central meridian

	intlFtPerMeter = 3.280839895013123
	grs80SemiMajor = 6378137.0
	grs80E2        = 0.00669438002290
)

var (
	orN    float64
	orF    float64
	orRho0 float64
)

func init() {
	phi0 := orPhi0Deg * math.Pi / 180
	phi1 := orPhi1Deg * math.Pi / 180
	phi2 := orPhi2Deg * math.Pi / 180

	m1 := lccM(phi1)
	m2 := lccM(phi2)
	t0 := lccT(phi0)
	t1 := lccT(phi1)
	t2 := lccT(phi2)

	orN = math.Log(m1/m2) / math.Log(t1/t2)

	aFt := grs80SemiMajor * intlFtPerMeter
	orF = aFt * m1 / (orN * math.Pow(t1, orN))
	orRho0 = orF * math.Pow(t0, orN)
}

func lccM(phi float64) float64 {
	return math.Cos(phi) / math.Sqrt(1-grs80E2*math.Sin(phi)*math.Sin(phi))
}

func lccT(phi float64) float64 {
	e := math.Sqrt(grs80E2)
	return math.Tan(math.Pi/4-phi/2) / math.Pow((1-e*math.Sin(phi))/(1+e*math.Sin(phi)), e/2)
}

// wgs84ToORNorth converts decimal degrees to Oregon North feet, returning
// (northing, easting).
func wgs84ToORNorth(latDeg, lonDeg float64) (northingFt, eastingFt float64) {
	phi := latDeg * math.Pi / 180
	lambda := lonDeg * math.Pi / 180
	lambda0 := orLon0Deg * math.Pi / 180

	rho := orF * math.Pow(lccT(phi), orN)
	theta := orN * (lambda - lambda0)

	eastingFt = rho*math.Sin(theta) + orFalseEastingFt
	northingFt = orRho0 - rho*math.Cos(theta) + orFalseNorthing
	return
}

// orNorthToWGS84 converts Oregon North feet to decimal degrees, returning
// (lat, lon). The latitude recovery iterates the ellipsoidal series to
// convergence, which takes a handful of rounds at survey precision.
func orNorthToWGS84(northingFt, eastingFt float64) (latDeg, lonDeg float64) {
	x := eastingFt - orFalseEastingFt
	y := orRho0 - (northingFt - orFalseNorthing)

	rho := math.Sqrt(x*x + y*y)
	if orN < 0 {
		rho = -rho
	}
	t := math.Pow(rho/orF, 1/orN)
	theta := math.Atan2(x, y)

	lambda0 := orLon0Deg * math.Pi / 180
	lambda := theta/orN + lambda0

	e := math.Sqrt(grs80E2)
	phi := math.Pi/2 - 2*math.Atan(t)
	for i := 0; i < 10; i++ {
		es := e * math.Sin(phi)
		next := math.Pi/2 - 2*math.Atan(t*math.Pow((1-es)/(1+es), e/2))
		if math.Abs(next-phi) < 1e-12 {
			phi = next
			break
		}
		phi = next
	}

	return phi * 180 / math.Pi, lambda * 180 / math.Pi
}
