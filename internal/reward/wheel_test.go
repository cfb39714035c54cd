package reward

import (
	"errors"
	"math"
	"testing"
)

func TestNewWheelRejectsEmpty(t *testing.T) {
	_, err := NewWheel(nil)
	if !errors.Is(err, ErrEmptyWheel) {
		t.Fatalf("expected empty wheel error, got: %v", err)
	}
}

func TestNewWheelRejectsNonPositiveWeight(t *testing.T) {
	_, err := NewWheel([]Prize{
		{Label: "a", Weight: 10},
		{Label: "b", Weight: 0},
	})
	if !errors.Is(err, ErrInvalidWeight) {
		t.Fatalf("expected invalid weight error, got: %v", err)
	}
}

func TestNewWheelNormalizesWeightsTo100(t *testing.T) {
	wheel, err := NewWheel([]Prize{
		{Label: "a", Weight: 1},
		{Label: "b", Weight: 1},
		{Label: "c", Weight: 2},
	})
	if err != nil {
		t.Fatalf("NewWheel error: %v", err)
	}
	prizes := wheel.Prizes()
	if len(prizes) != 3 {
		t.Fatalf("expected 3 prizes, got %d", len(prizes))
	}
	total := 0.0
	for _, p := range prizes {
		total += p.Weight
	}
	if math.Abs(total-100) > 1e-9 {
		t.Fatalf("expected normalized weights to sum to 100, got %f", total)
	}
	if math.Abs(prizes[2].Weight-50) > 1e-9 {
		t.Fatalf("expected weight 50 for prize c, got %f", prizes[2].Weight)
	}
	if prizes[0].Index != 0 || prizes[2].Index != 2 {
		t.Fatalf("unexpected prize indexes: %+v", prizes)
	}
}

func TestPickIsDeterministic(t *testing.T) {
	wheel, err := NewWheel([]Prize{
		{Label: "a", Weight: 25},
		{Label: "b", Weight: 25},
		{Label: "c", Weight: 50},
	})
	if err != nil {
		t.Fatalf("NewWheel error: %v", err)
	}

	// 边界落点命中累计权重首次达到 roll 的奖项
	cases := []struct {
		roll  float64
		label string
	}{
		{0, "a"},
		{24.999, "a"},
		{25, "a"},
		{25.001, "b"},
		{50, "b"},
		{50.001, "c"},
		{99.999, "c"},
		{100, "c"},
	}
	for _, tc := range cases {
		got := wheel.Pick(tc.roll)
		if got.Label != tc.label {
			t.Fatalf("roll %f: expected %s, got %s", tc.roll, tc.label, got.Label)
		}
		again := wheel.Pick(tc.roll)
		if again.Index != got.Index {
			t.Fatalf("roll %f: pick not deterministic", tc.roll)
		}
	}
}

func TestPickClampsOutOfRangeRolls(t *testing.T) {
	wheel, err := NewWheel([]Prize{
		{Label: "a", Weight: 50},
		{Label: "b", Weight: 50},
	})
	if err != nil {
		t.Fatalf("NewWheel error: %v", err)
	}
	if got := wheel.Pick(-5); got.Label != "a" {
		t.Fatalf("expected negative roll to clamp to first prize, got %s", got.Label)
	}
	if got := wheel.Pick(150); got.Label != "b" {
		t.Fatalf("expected oversized roll to clamp to last prize, got %s", got.Label)
	}
}

func TestPrizesReturnsCopy(t *testing.T) {
	wheel, err := NewWheel([]Prize{
		{Label: "a", Weight: 100},
	})
	if err != nil {
		t.Fatalf("NewWheel error: %v", err)
	}
	prizes := wheel.Prizes()
	prizes[0].Label = "mutated"
	if wheel.Prizes()[0].Label != "a" {
		t.Fatalf("expected internal prizes to be unaffected by caller mutation")
	}
}
