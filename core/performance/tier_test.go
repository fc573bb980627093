package performance

import (
	"testing"

	"github.com/walimuhq/walimu/core/tutoring"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name            string
		score           float64
		hasMinimumData  bool
		wantTier        tutoring.Tier
		wantMaxStudents int
	}{
		{name: "zero", score: 0, hasMinimumData: true, wantTier: tutoring.Tier1, wantMaxStudents: 1},
		{name: "just below tier 2", score: 69.99, hasMinimumData: true, wantTier: tutoring.Tier1, wantMaxStudents: 1},
		{name: "tier 2 lower bound", score: 70, hasMinimumData: true, wantTier: tutoring.Tier2, wantMaxStudents: 3},
		{name: "just below tier 3", score: 84.99, hasMinimumData: true, wantTier: tutoring.Tier2, wantMaxStudents: 3},
		{name: "tier 3 lower bound", score: 85, hasMinimumData: true, wantTier: tutoring.Tier3, wantMaxStudents: 6},
		{name: "perfect", score: 100, hasMinimumData: true, wantTier: tutoring.Tier3, wantMaxStudents: 6},
		{name: "gate dominates a perfect score", score: 100, hasMinimumData: false, wantTier: tutoring.Tier1, wantMaxStudents: 1},
		{name: "gate dominates a mid score", score: 75, hasMinimumData: false, wantTier: tutoring.Tier1, wantMaxStudents: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tier, maxStudents := Classify(tt.score, tt.hasMinimumData)
			if tier != tt.wantTier {
				t.Errorf("Classify() tier = %d, want %d", tier, tt.wantTier)
			}
			if maxStudents != tt.wantMaxStudents {
				t.Errorf("Classify() maxStudents = %d, want %d", maxStudents, tt.wantMaxStudents)
			}
		})
	}
}

func TestMaxStudentsForTier(t *testing.T) {
	caps := map[tutoring.Tier]int{tutoring.Tier1: 1, tutoring.Tier2: 3, tutoring.Tier3: 6}
	for tier, want := range caps {
		if got := tutoring.MaxStudentsForTier(tier); got != want {
			t.Errorf("MaxStudentsForTier(%d) = %d, want %d", tier, got, want)
		}
	}
	// unknown tiers fall back to the most conservative capacity
	if got := tutoring.MaxStudentsForTier(tutoring.Tier(42)); got != 1 {
		t.Errorf("MaxStudentsForTier(42) = %d, want 1", got)
	}
}
