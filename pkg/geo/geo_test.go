package geo

import (
	"math"
	"testing"
)

func TestDistanceKm_KnownDistance(t *testing.T) {
	// Abidjan Plateau to Yamoussoukro, roughly 212 km apart.
	abidjan := Coordinate{Lat: 5.3364, Lon: -4.0267}
	yamoussoukro := Coordinate{Lat: 6.8276, Lon: -5.2893}

	d := DistanceKm(abidjan, yamoussoukro)
	if d < 200 || d > 225 {
		t.Errorf("expected ~212 km, got %f", d)
	}
}

func TestDistanceKm_ZeroForSamePoint(t *testing.T) {
	p := Coordinate{Lat: 5.3364, Lon: -4.0267}
	if d := DistanceKm(p, p); d != 0 {
		t.Errorf("expected 0, got %f", d)
	}
}

func TestDistanceKm_Symmetric(t *testing.T) {
	a := Coordinate{Lat: 5.30, Lon: -4.02}
	b := Coordinate{Lat: 7.69, Lon: -5.03}

	if DistanceKm(a, b) != DistanceKm(b, a) {
		t.Error("distance should be symmetric")
	}
}

func TestDistanceKm_Monotonic(t *testing.T) {
	// Three points on (approximately) the same meridian, B between A and C.
	a := Coordinate{Lat: 5.0, Lon: -4.0}
	b := Coordinate{Lat: 6.0, Lon: -4.0}
	c := Coordinate{Lat: 8.0, Lon: -4.0}

	ac := DistanceKm(a, c)
	if ab := DistanceKm(a, b); ac < ab {
		t.Errorf("d(A,C)=%f should be >= d(A,B)=%f", ac, ab)
	}
	if bc := DistanceKm(b, c); ac < bc {
		t.Errorf("d(A,C)=%f should be >= d(B,C)=%f", ac, bc)
	}
}

func TestPathLengthKm(t *testing.T) {
	tests := []struct {
		name   string
		coords []Coordinate
		min    float64
		max    float64
	}{
		{
			name:   "empty path",
			coords: nil,
			min:    0,
			max:    0,
		},
		{
			name:   "single point",
			coords: []Coordinate{{Lat: 5.3, Lon: -4.0}},
			min:    0,
			max:    0,
		},
		{
			name: "two points one degree of latitude apart",
			coords: []Coordinate{
				{Lat: 5.0, Lon: -4.0},
				{Lat: 6.0, Lon: -4.0},
			},
			min: 110,
			max: 112,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PathLengthKm(tt.coords)
			if got < tt.min || got > tt.max {
				t.Errorf("expected length in [%f, %f], got %f", tt.min, tt.max, got)
			}
		})
	}
}

func TestCoordinate_Valid(t *testing.T) {
	tests := []struct {
		name  string
		coord Coordinate
		want  bool
	}{
		{"valid", Coordinate{Lat: 5.3, Lon: -4.0}, true},
		{"lat out of range", Coordinate{Lat: 91, Lon: 0}, false},
		{"lon out of range", Coordinate{Lat: 0, Lon: -181}, false},
		{"NaN lat", Coordinate{Lat: math.NaN(), Lon: 0}, false},
		{"Inf lon", Coordinate{Lat: 0, Lon: math.Inf(1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.coord.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBounds(t *testing.T) {
	box := Bounds(
		Coordinate{Lat: 5.31, Lon: -4.00},
		Coordinate{Lat: 5.30, Lon: -4.02},
	)

	if box.MinLat != 5.30 || box.MaxLat != 5.31 {
		t.Errorf("unexpected lat bounds: %+v", box)
	}
	if box.MinLon != -4.02 || box.MaxLon != -4.00 {
		t.Errorf("unexpected lon bounds: %+v", box)
	}
}

func TestBoundingBox_Pad(t *testing.T) {
	box := BoundingBox{MinLat: 5, MinLon: -5, MaxLat: 6, MaxLon: -4}
	padded := box.Pad(0.1)

	if padded.MinLat >= box.MinLat || padded.MaxLat <= box.MaxLat {
		t.Errorf("expected lat span to grow, got %+v", padded)
	}
	if padded.MinLon >= box.MinLon || padded.MaxLon <= box.MaxLon {
		t.Errorf("expected lon span to grow, got %+v", padded)
	}

	// Zero fraction is a no-op.
	if box.Pad(0) != box {
		t.Error("Pad(0) should return the box unchanged")
	}
}

func TestBoundingBox_Center(t *testing.T) {
	box := BoundingBox{MinLat: 5, MinLon: -5, MaxLat: 6, MaxLon: -4}
	center := box.Center()
	if center.Lat != 5.5 || center.Lon != -4.5 {
		t.Errorf("unexpected center: %+v", center)
	}
}
