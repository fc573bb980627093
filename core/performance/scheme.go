// Package performance implements the tutor performance scoring engine:
// metric aggregation over historical records, weighted scoring, capacity
// tier classification and the snapshot write-back on the tutor profile.
package performance

import (
	"github.com/walimuhq/walimu/core"
)

// Aggregation scopes
type Scope string

const (
	// ScopeActivePairings aggregates sessions/assignments recorded against the
	// tutor's accepted & active pairings only.
	ScopeActivePairings Scope = "pairing"
	// ScopeTutor aggregates everything recorded against the tutor.
	ScopeTutor Scope = "tutor"
)

// Rating sources
type RatingSource string

const (
	RatingFromReviews  RatingSource = "reviews"
	RatingFromSessions RatingSource = "sessions"
)

type (
	// Weights are the per-metric multipliers of the weighted sum. They are
	// expected to add up to 1.
	Weights struct {
		Attendance  float64
		Assignments float64
		Exams       float64
		Ratings     float64
	}

	// Scheme captures everything that differed between the two historical
	// scoring variants, so both stay expressible without code duplication:
	// weighting, aggregation scope, rating source and the minimum-data gate.
	Scheme struct {
		Name         string
		Scope        Scope
		RatingSource RatingSource
		Weights      Weights

		// minimum-data gate; a zero value disables the corresponding check
		MinSessions          int
		MinGradedAssignments int
	}
)

var (
	// SchemeA scores per active pairing, splitting the non-attendance weight
	// across assignments, exams and marketplace reviews. No minimum-data gate.
	SchemeA = Scheme{
		Name:         "pairing",
		Scope:        ScopeActivePairings,
		RatingSource: RatingFromReviews,
		Weights: Weights{
			Attendance:  0.30,
			Assignments: 0.25,
			Exams:       0.25,
			Ratings:     0.20,
		},
	}

	// SchemeB scores the tutor globally from attendance, assignments and
	// in-session student ratings, gated on a minimum volume of history.
	SchemeB = Scheme{
		Name:         "tutor",
		Scope:        ScopeTutor,
		RatingSource: RatingFromSessions,
		Weights: Weights{
			Attendance:  0.30,
			Assignments: 0.30,
			Ratings:     0.40,
		},
		MinSessions:          3,
		MinGradedAssignments: 1,
	}
)

// Gated reports whether the scheme applies a minimum-data gate at all.
func (s Scheme) Gated() bool {
	return s.MinSessions > 0 || s.MinGradedAssignments > 0
}

// SchemeFromConfig resolves the production scheme, applying any gate
// overrides from configuration. Unknown names fall back to SchemeB, the
// gated variant.
func SchemeFromConfig(conf core.PerformanceConfig) Scheme {
	var s Scheme
	switch conf.Scheme {
	case SchemeA.Name:
		s = SchemeA
	default:
		s = SchemeB
	}
	if s.Gated() {
		if conf.MinSessions > 0 {
			s.MinSessions = conf.MinSessions
		}
		if conf.MinGradedAssignments > 0 {
			s.MinGradedAssignments = conf.MinGradedAssignments
		}
	}
	return s
}
