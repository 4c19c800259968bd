package utils

import (
	"math"
	"testing"
	"time"
)

func TestUnixFloatRoundTrip(t *testing.T) {
	orig := time.Unix(1700000000, 500_000_000)
	back := FloatToTime(UnixSecondsToFloat(orig))
	if d := back.Sub(orig); d > time.Millisecond || d < -time.Millisecond {
		t.Errorf("round trip drifted by %v", d)
	}
}

func TestHaversineKM(t *testing.T) {
	if d := HaversineKM(40.752998, -73.977056, 40.752998, -73.977056); d != 0 {
		t.Errorf("identical points should be 0 km, got %f", d)
	}

	// Grand Central to Times Square
	d := HaversineKM(40.752998, -73.977056, 40.758899, -73.985130)
	if d <= 0.5 || d >= 2.0 {
		t.Errorf("expected 0.5 < d < 2.0 km, got %f", d)
	}

	if math.Abs(KMToMiles(1)-0.621371) > 1e-9 {
		t.Errorf("unexpected miles conversion %f", KMToMiles(1))
	}
	t.Logf("✓ Grand Central to Times Square: %.3f km", d)
}
