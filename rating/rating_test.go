package rating

import (
	"math"
	"testing"
)

func TestComputeDeltaZeroSum(t *testing.T) {
	cases := []struct {
		rating1, rating2 int
		points1, points2 int
		p1Won            bool
		sets1, sets2     int
	}{
		{1200, 1200, 22, 10, true, 2, 0},
		{1500, 1100, 33, 28, false, 1, 2},
		{900, 1600, 11, 0, true, 1, 0},
		{1000, 1000, 0, 0, true, 3, 1},
		{1350, 1290, 44, 41, false, 3, 4},
	}
	for _, c := range cases {
		out := ComputeDelta(c.rating1, c.rating2, c.points1, c.points2, c.p1Won, c.sets1, c.sets2)
		gain1 := out.NewRating1 - c.rating1
		gain2 := out.NewRating2 - c.rating2
		if gain1 != -gain2 {
			t.Fatalf("not zero-sum: gain1=%d gain2=%d for %+v", gain1, gain2, c)
		}
		if gain1 != out.Delta {
			t.Fatalf("delta mismatch: gain1=%d delta=%d for %+v", gain1, out.Delta, c)
		}
	}
}

func TestExpectedScore(t *testing.T) {
	out := ComputeDelta(1200, 1200, 0, 0, true, 1, 0)
	if out.ExpectedScore1 != 0.5 {
		t.Fatalf("equal ratings: expected score = %f, want 0.5", out.ExpectedScore1)
	}

	prev := 0.0
	for _, diff := range []int{-400, -200, -50, 0, 50, 200, 400} {
		out := ComputeDelta(1200+diff, 1200, 0, 0, true, 1, 0)
		if out.ExpectedScore1 <= prev {
			t.Fatalf("expected score not strictly increasing at diff %d: %f <= %f", diff, out.ExpectedScore1, prev)
		}
		prev = out.ExpectedScore1
	}
}

func TestFormatMultiplierTable(t *testing.T) {
	cases := []struct {
		setsToWin int
		want      float64
	}{
		{1, 0.512},
		{2, 0.64},
		{3, 0.8},
		{4, 1.0},
		{0, 0.512},
		{5, 0.512},
	}
	for _, c := range cases {
		if got := formatMultiplier(c.setsToWin); got != c.want {
			t.Fatalf("formatMultiplier(%d) = %f, want %f", c.setsToWin, got, c.want)
		}
	}
}

func TestPointsFactorZeroTotal(t *testing.T) {
	if got := pointsFactor(0, 0); got != 1.0 {
		t.Fatalf("pointsFactor(0,0) = %f, want 1.0", got)
	}
}

func TestPointsFactorBounds(t *testing.T) {
	lo := pointsFactor(0, 50)
	hi := pointsFactor(50, 0)
	if math.Abs(lo-0.65) > 1e-9 || math.Abs(hi-1.35) > 1e-9 {
		t.Fatalf("pointsFactor bounds = [%f, %f], want [0.65, 1.35]", lo, hi)
	}
}

// End-to-end scenario: 1200 vs 1200, best_of_3, winner 2-0 with points
// 22-10 must move 17 points.
func TestComputeDeltaScenario(t *testing.T) {
	out := ComputeDelta(1200, 1200, 22, 10, true, 2, 0)

	if out.ExpectedScore1 != 0.5 {
		t.Fatalf("expected score = %f, want 0.5", out.ExpectedScore1)
	}
	if out.FormatMultiplier != 0.64 {
		t.Fatalf("multiplier = %f, want 0.64", out.FormatMultiplier)
	}
	wantPF := 1.0 + (22.0/32.0-0.5)*0.7
	if math.Abs(out.PointsFactor-wantPF) > 1e-9 {
		t.Fatalf("points factor = %f, want %f", out.PointsFactor, wantPF)
	}
	if out.Delta != 17 {
		t.Fatalf("delta = %d, want 17", out.Delta)
	}
	if out.NewRating1 != 1217 || out.NewRating2 != 1183 {
		t.Fatalf("new ratings = %d/%d, want 1217/1183", out.NewRating1, out.NewRating2)
	}
}

func TestComputeDeltaLoserSide(t *testing.T) {
	out := ComputeDelta(1200, 1200, 10, 22, false, 0, 2)
	if out.Delta != -17 {
		t.Fatalf("delta = %d, want -17", out.Delta)
	}
}
