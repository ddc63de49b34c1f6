package geodesy

import (
	"math"
	"testing"

	"github.com/san-kum/emsim/internal/vecmath"
)

func TestHaversine_SamePoint(t *testing.T) {
	points := [][2]float64{{0, 0}, {45.5, -73.56}, {-33.44, -70.66}, {89.9, 179.9}}
	for _, p := range points {
		if d := Haversine(p[0], p[1], p[0], p[1]); d != 0 {
			t.Errorf("Haversine(%v, %v) = %f, want 0", p, p, d)
		}
	}
}

func TestHaversine_EquatorDegree(t *testing.T) {
	want := EarthRadius * math.Pi / 180
	got := Haversine(0, 0, 0, 1)
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("expected %.6f m, got %.6f m", want, got)
	}
}

func TestVincenty_FlindersPeakBuninyong(t *testing.T) {
	lat1 := -(37 + 57.0/60 + 3.72030/3600)
	lon1 := 144 + 25.0/60 + 29.52440/3600
	lat2 := -(37 + 39.0/60 + 10.15610/3600)
	lon2 := 143 + 55.0/60 + 35.38390/3600

	res := Vincenty(lat1, lon1, lat2, lon2, DefaultVincentyIterations)
	if !res.Converged {
		t.Fatal("expected convergence")
	}
	if math.Abs(res.Distance-54972.271) > 1e-3 {
		t.Errorf("expected 54972.271 m, got %.4f m", res.Distance)
	}
}

func TestVincenty_CoincidentPoints(t *testing.T) {
	res := Vincenty(10, 20, 10, 20, DefaultVincentyIterations)
	if res.Distance != 0 || !res.Converged {
		t.Errorf("expected converged zero distance, got %+v", res)
	}
	if d := VincentyDistance(-5, 5, -5, 5); d != 0 {
		t.Errorf("expected 0, got %f", d)
	}
}

func TestVincenty_FallbackToHaversine(t *testing.T) {
	lat1, lon1, lat2, lon2 := 40.7128, -74.0060, 51.5074, -0.1278

	res := Vincenty(lat1, lon1, lat2, lon2, 0)
	if res.Converged {
		t.Error("expected non-convergence with zero iterations")
	}
	if want := Haversine(lat1, lon1, lat2, lon2); res.Distance != want {
		t.Errorf("expected haversine %f, got %f", want, res.Distance)
	}

	full := Vincenty(lat1, lon1, lat2, lon2, DefaultVincentyIterations)
	if !full.Converged {
		t.Fatal("expected convergence with default iterations")
	}
	if rel := math.Abs(full.Distance-res.Distance) / full.Distance; rel > 0.006 {
		t.Errorf("haversine deviates %.4f from ellipsoidal distance", rel)
	}
}

func TestGeoECEFRoundTrip(t *testing.T) {
	tests := []Geo{
		{Lat: 0, Lon: 0, Alt: 0},
		{Lat: 45.5, Lon: -73.56, Alt: 120},
		{Lat: -33.44, Lon: -70.66, Alt: 520.25},
		{Lat: 64.1, Lon: 179.5, Alt: 10000},
		{Lat: -80, Lon: -179.9, Alt: -50},
	}

	for _, g := range tests {
		back := ECEFToGeo(GeoToECEF(g))
		if math.Abs(back.Lat-g.Lat) > 1e-6 || math.Abs(back.Lon-g.Lon) > 1e-6 {
			t.Errorf("round trip %+v -> %+v", g, back)
		}
		if math.Abs(back.Alt-g.Alt) > 0.01 {
			t.Errorf("altitude round trip %f -> %f", g.Alt, back.Alt)
		}
	}
}

func TestGeoToECEF_Equator(t *testing.T) {
	p := GeoToECEF(Geo{})
	if math.Abs(p.X-SemiMajorAxis) > 1e-6 || math.Abs(p.Y) > 1e-6 || math.Abs(p.Z) > 1e-6 {
		t.Errorf("expected (a, 0, 0), got %v", p)
	}
}

func TestECEFToENU(t *testing.T) {
	origin := Geo{Lat: 48.85, Lon: 2.35, Alt: 35}

	up := ECEFToENU(GeoToECEF(Geo{Lat: origin.Lat, Lon: origin.Lon, Alt: origin.Alt + 100}), origin)
	if math.Abs(up.X) > 1e-6 || math.Abs(up.Y) > 1e-6 || math.Abs(up.Z-100) > 1e-6 {
		t.Errorf("expected (0, 0, 100), got %v", up)
	}

	local := vecmath.Vec(250, -75, 12)
	back := ECEFToENU(ENUToECEF(local, origin), origin)
	if back.Sub(local).Magnitude() > 1e-6 {
		t.Errorf("ENU round trip %v -> %v", local, back)
	}

	east := ECEFToENU(GeoToECEF(Geo{Lat: origin.Lat, Lon: origin.Lon + 0.001, Alt: origin.Alt}), origin)
	if east.X <= 0 || math.Abs(east.Y) > 1 {
		t.Errorf("expected point east of origin, got %v", east)
	}
}

func TestAntipodes_Finite(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
	}{
		{"off equator", 10, 20, -10, -160},
		{"equator", 0, 0, 0, 180},
		{"mid latitude", 45, 7, -45, -173},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Haversine(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.IsNaN(h) || math.Abs(h-math.Pi*EarthRadius) > 1 {
				t.Errorf("expected half circumference %f, got %f", math.Pi*EarthRadius, h)
			}

			res := Vincenty(tt.lat1, tt.lon1, tt.lat2, tt.lon2, DefaultVincentyIterations)
			if math.IsNaN(res.Distance) || res.Distance < 1.99e7 || res.Distance > math.Pi*EarthRadius+1 {
				t.Errorf("expected an antipodal distance, got %+v", res)
			}
		})
	}
}
