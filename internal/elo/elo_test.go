package elo

import "testing"

func TestCalculateIsSymmetricWhenKFactorsMatch(t *testing.T) {
	ab := Calculate(1200, 1400, Win, 32)
	ba := Calculate(1400, 1200, Loss, 32)

	if ab.ChangeA != ba.ChangeB {
		t.Errorf("expected ab.ChangeA (%d) == ba.ChangeB (%d)", ab.ChangeA, ba.ChangeB)
	}
}

func TestCalculateDrawProducesNoChangeForEqualRatings(t *testing.T) {
	c := Calculate(1000, 1000, Draw, 32)
	if c.ChangeA != 0 || c.ChangeB != 0 {
		t.Errorf("expected no change on an even draw, got A=%d B=%d", c.ChangeA, c.ChangeB)
	}
}

func TestCalculateNeverDropsBelowFloor(t *testing.T) {
	c := Calculate(105, 105, Loss, 32)
	if c.NewA < Floor {
		t.Errorf("rating fell below floor: %d", c.NewA)
	}
	if c.NewA != Floor {
		t.Errorf("expected an even-match loss from 105 (-16) to floor at %d, got %d", Floor, c.NewA)
	}
}

func TestCalculateWinnerGainsLoserLoses(t *testing.T) {
	c := Calculate(1500, 1500, Win, 32)
	if c.ChangeA <= 0 {
		t.Errorf("expected winner to gain rating, got %d", c.ChangeA)
	}
	if c.ChangeB >= 0 {
		t.Errorf("expected loser to lose rating, got %d", c.ChangeB)
	}
}
