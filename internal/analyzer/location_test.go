package analyzer

import "testing"

func TestLocationDistance_Equal(t *testing.T) {
	if d := LocationDistance("Kimironko", "kimironko"); d != 0 {
		t.Errorf("Expected distance 0 for equal areas. Got: %d", d)
	}
}

func TestLocationDistance_Adjacent(t *testing.T) {
	if d := LocationDistance("kimironko", "remera"); d != 1 {
		t.Errorf("Expected distance 1 for adjacent areas. Got: %d", d)
	}
}

func TestLocationDistance_AdjacentIsSymmetric(t *testing.T) {
	// The adjacency table is authored one-directional; lookups must be
	// symmetric regardless of row order.
	if d := LocationDistance("remera", "kimironko"); d != 1 {
		t.Errorf("Expected symmetric adjacency lookup to also yield 1. Got: %d", d)
	}
}

func TestLocationDistance_SameDistrict(t *testing.T) {
	if d := LocationDistance("kimironko", "kacyiru"); d != 2 {
		t.Errorf("Expected distance 2 for same-district areas. Got: %d", d)
	}
}

func TestLocationDistance_Unrelated(t *testing.T) {
	if d := LocationDistance("kimironko", "gahanga"); d != 3 {
		t.Errorf("Expected distance 3 for unrelated areas. Got: %d", d)
	}
}
