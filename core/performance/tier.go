package performance

import (
	"github.com/walimuhq/walimu/core/tutoring"
)

// Tier thresholds: inclusive at the lower bound, exclusive at the upper.
const (
	tier2Threshold = 70
	tier3Threshold = 85
)

// Classify maps a weighted score to a capacity tier and its student capacity.
// Pure and deterministic. A tutor without minimum data is held at tier 1
// regardless of score: one lucky 5-star rating with no track record must not
// promote. There is no hysteresis; consecutive recomputations may move a
// tutor up or down freely.
func Classify(score float64, hasMinimumData bool) (tutoring.Tier, int) {
	if !hasMinimumData {
		return tutoring.Tier1, tutoring.MaxStudentsForTier(tutoring.Tier1)
	}

	var tier tutoring.Tier
	switch {
	case score >= tier3Threshold:
		tier = tutoring.Tier3
	case score >= tier2Threshold:
		tier = tutoring.Tier2
	default:
		tier = tutoring.Tier1
	}
	return tier, tutoring.MaxStudentsForTier(tier)
}
