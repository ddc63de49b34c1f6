// Package geodesy converts between geographic coordinates, Earth-centered
// Cartesian (ECEF) coordinates and local East-North-Up frames, and measures
// great-circle and ellipsoidal distances on the WGS-84 ellipsoid.
//
// Every iterative routine is bounded: [Vincenty] stops after maxIter passes
// and falls back to [Haversine]; [ECEFToGeo] always runs a fixed number of
// latitude refinements.
package geodesy

import (
	"math"

	"github.com/san-kum/emsim/internal/vecmath"
)

// WGS-84 ellipsoid.
const (
	SemiMajorAxis = 6378137.0
	Flattening    = 1 / 298.257223563
	SemiMinorAxis = SemiMajorAxis * (1 - Flattening)

	// EarthRadius is the fixed spherical radius used by Haversine.
	EarthRadius = SemiMajorAxis

	// ECEFLatitudeIterations is the fixed refinement count in ECEFToGeo.
	ECEFLatitudeIterations = 10

	DefaultVincentyIterations = 200
	vincentyTolerance         = 1e-12

	deg2rad = math.Pi / 180
	rad2deg = 180 / math.Pi
)

var eccentricitySq = Flattening * (2 - Flattening)

// Geo is a geographic position: degrees latitude/longitude, meters altitude.
type Geo struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
	Alt float64 `json:"alt" yaml:"alt"`
}

// Haversine returns the great-circle distance in meters on a sphere of radius EarthRadius.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * deg2rad
	dLon := (lon2 - lon1) * deg2rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*deg2rad)*math.Cos(lat2*deg2rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	// rounding can push a just past 1 for antipodal points
	a = math.Min(1, math.Max(0, a))
	return EarthRadius * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

type VincentyResult struct {
	Distance   float64
	Iterations int
	// Converged is false when the haversine fallback produced Distance.
	Converged bool
}

// Vincenty solves the inverse geodesic problem on the WGS-84 ellipsoid.
// When the longitude update has not dropped below 1e-12 after maxIter passes
// the haversine distance is returned instead.
func Vincenty(lat1, lon1, lat2, lon2 float64, maxIter int) VincentyResult {
	if lat1 == lat2 && lon1 == lon2 {
		return VincentyResult{Converged: true}
	}

	a, b, f := SemiMajorAxis, SemiMinorAxis, Flattening
	L := (lon2 - lon1) * deg2rad
	u1 := math.Atan((1 - f) * math.Tan(lat1*deg2rad))
	u2 := math.Atan((1 - f) * math.Tan(lat2*deg2rad))
	sinU1, cosU1 := math.Sincos(u1)
	sinU2, cosU2 := math.Sincos(u2)

	lambda := L
	var sinSigma, cosSigma, sigma, cosSqAlpha, cos2SigmaM float64
	converged := false
	iter := 0

	for iter < maxIter {
		iter++
		sinLambda, cosLambda := math.Sincos(lambda)
		sinSigma = math.Sqrt(math.Pow(cosU2*sinLambda, 2) +
			math.Pow(cosU1*sinU2-sinU1*cosU2*cosLambda, 2))
		if sinSigma == 0 {
			return VincentyResult{Iterations: iter, Converged: true}
		}
		cosSigma = sinU1*sinU2 + cosU1*cosU2*cosLambda
		sigma = math.Atan2(sinSigma, cosSigma)
		sinAlpha := cosU1 * cosU2 * sinLambda / sinSigma
		cosSqAlpha = 1 - sinAlpha*sinAlpha
		cos2SigmaM = 0
		if cosSqAlpha != 0 {
			// equatorial line: cosSqAlpha = 0
			cos2SigmaM = cosSigma - 2*sinU1*sinU2/cosSqAlpha
		}
		c := f / 16 * cosSqAlpha * (4 + f*(4-3*cosSqAlpha))
		prev := lambda
		lambda = L + (1-c)*f*sinAlpha*
			(sigma+c*sinSigma*(cos2SigmaM+c*cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)))
		if math.Abs(lambda-prev) < vincentyTolerance {
			converged = true
			break
		}
	}

	if !converged {
		return VincentyResult{
			Distance:   Haversine(lat1, lon1, lat2, lon2),
			Iterations: iter,
		}
	}

	uSq := cosSqAlpha * (a*a - b*b) / (b * b)
	A := 1 + uSq/16384*(4096+uSq*(-768+uSq*(320-175*uSq)))
	B := uSq / 1024 * (256 + uSq*(-128+uSq*(74-47*uSq)))
	deltaSigma := B * sinSigma * (cos2SigmaM + B/4*(cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)-
		B/6*cos2SigmaM*(-3+4*sinSigma*sinSigma)*(-3+4*cos2SigmaM*cos2SigmaM)))

	return VincentyResult{
		Distance:   b * A * (sigma - deltaSigma),
		Iterations: iter,
		Converged:  true,
	}
}

// VincentyDistance is Vincenty with DefaultVincentyIterations, returning only the distance.
func VincentyDistance(lat1, lon1, lat2, lon2 float64) float64 {
	return Vincenty(lat1, lon1, lat2, lon2, DefaultVincentyIterations).Distance
}

// GeoToECEF converts a geographic position to Earth-centered Cartesian meters.
func GeoToECEF(g Geo) vecmath.Vector3 {
	sinLat, cosLat := math.Sincos(g.Lat * deg2rad)
	sinLon, cosLon := math.Sincos(g.Lon * deg2rad)
	n := primeVerticalRadius(sinLat)
	return vecmath.Vector3{
		X: (n + g.Alt) * cosLat * cosLon,
		Y: (n + g.Alt) * cosLat * sinLon,
		Z: (n*(1-eccentricitySq) + g.Alt) * sinLat,
	}
}

// ECEFToGeo inverts GeoToECEF. Latitude is refined exactly
// ECEFLatitudeIterations times; there is no convergence check.
func ECEFToGeo(p vecmath.Vector3) Geo {
	lon := math.Atan2(p.Y, p.X)
	rho := math.Hypot(p.X, p.Y)
	lat := math.Atan2(p.Z, rho*(1-eccentricitySq))

	var alt float64
	for i := 0; i < ECEFLatitudeIterations; i++ {
		sinLat, cosLat := math.Sincos(lat)
		n := primeVerticalRadius(sinLat)
		alt = altitude(rho, p.Z, sinLat, cosLat, n)
		lat = math.Atan2(p.Z, rho*(1-eccentricitySq*n/(n+alt)))
	}
	sinLat, cosLat := math.Sincos(lat)
	alt = altitude(rho, p.Z, sinLat, cosLat, primeVerticalRadius(sinLat))

	return Geo{Lat: lat * rad2deg, Lon: lon * rad2deg, Alt: alt}
}

func altitude(rho, z, sinLat, cosLat, n float64) float64 {
	if math.Abs(cosLat) < 1e-10 {
		return math.Abs(z) - n*(1-eccentricitySq)
	}
	return rho/cosLat - n
}

func primeVerticalRadius(sinLat float64) float64 {
	return SemiMajorAxis / math.Sqrt(1-eccentricitySq*sinLat*sinLat)
}

// RotateToENU rotates an ECEF direction into the East-North-Up frame at lat/lon (degrees).
func RotateToENU(d vecmath.Vector3, lat, lon float64) vecmath.Vector3 {
	sinLat, cosLat := math.Sincos(lat * deg2rad)
	sinLon, cosLon := math.Sincos(lon * deg2rad)
	return vecmath.Vector3{
		X: -sinLon*d.X + cosLon*d.Y,
		Y: -sinLat*cosLon*d.X - sinLat*sinLon*d.Y + cosLat*d.Z,
		Z: cosLat*cosLon*d.X + cosLat*sinLon*d.Y + sinLat*d.Z,
	}
}

// RotateFromENU is the transpose of RotateToENU.
func RotateFromENU(e vecmath.Vector3, lat, lon float64) vecmath.Vector3 {
	sinLat, cosLat := math.Sincos(lat * deg2rad)
	sinLon, cosLon := math.Sincos(lon * deg2rad)
	return vecmath.Vector3{
		X: -sinLon*e.X - sinLat*cosLon*e.Y + cosLat*cosLon*e.Z,
		Y: cosLon*e.X - sinLat*sinLon*e.Y + cosLat*sinLon*e.Z,
		Z: cosLat*e.Y + sinLat*e.Z,
	}
}

// ECEFToENU expresses the ECEF point p in the local frame anchored at origin.
func ECEFToENU(p vecmath.Vector3, origin Geo) vecmath.Vector3 {
	return RotateToENU(p.Sub(GeoToECEF(origin)), origin.Lat, origin.Lon)
}

// ENUToECEF maps local East-North-Up meters around origin back to ECEF.
func ENUToECEF(enu vecmath.Vector3, origin Geo) vecmath.Vector3 {
	return GeoToECEF(origin).Add(RotateFromENU(enu, origin.Lat, origin.Lon))
}
