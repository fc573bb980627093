package performance

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/walimuhq/walimu/core"
	"github.com/walimuhq/walimu/core/tutoring"
)

const defaultReadRetries = 3

// Aggregator pulls the raw counts & averages behind the four metrics. Every
// run recomputes from scratch; no state is retained between invocations.
type Aggregator struct {
	pairings    tutoring.PairingRepository
	sessions    tutoring.SessionRepository
	assignments tutoring.AssignmentRepository
	exams       tutoring.ExamRepository
	reviews     tutoring.ReviewRepository
	logger      core.Logger
	retries     int
}

func NewAggregator(repos Repositories, logger core.Logger, retries int) *Aggregator {
	if retries <= 0 {
		retries = defaultReadRetries
	}
	return &Aggregator{
		pairings:    repos.Pairings,
		sessions:    repos.Sessions,
		assignments: repos.Assignments,
		exams:       repos.Exams,
		reviews:     repos.Reviews,
		logger:      logger,
		retries:     retries,
	}
}

// Aggregate produces the four ratios in [0, 100] plus the raw volumes behind
// them. A failure fetching one metric type degrades that metric to 0 with a
// warning and never aborts computation of the others; resolving the pairing
// scope itself is the only read that can fail the whole aggregation.
func (ag *Aggregator) Aggregate(ctx context.Context, tutor tutoring.Tutor, scheme Scheme) (Metrics, Totals, error) {
	var m Metrics
	var t Totals

	sessionFilter := tutoring.SessionFilter{TutorID: tutor.ID}
	assignmentFilter := tutoring.AssignmentFilter{TutorID: tutor.ID}
	var studentIDs []string

	if scheme.Scope == ScopeActivePairings {
		var pairings []tutoring.Pairing
		err := ag.withRetry(ctx, "pairings", func() error {
			var perr error
			pairings, perr = ag.pairings.QueryTutorPairings(
				ctx, tutor.ID, []string{tutoring.PairingAccepted, tutoring.PairingActive})
			return perr
		})
		if err != nil {
			return m, t, errors.Wrap(err, "querying active pairings")
		}

		// non-nil empty slices scope the reads to nothing
		pairingIDs := make([]string, 0, len(pairings))
		studentIDs = make([]string, 0, len(pairings))
		for _, p := range pairings {
			pairingIDs = append(pairingIDs, p.ID)
			studentIDs = append(studentIDs, p.StudentID)
		}
		sessionFilter.PairingIDs = pairingIDs
		assignmentFilter.PairingIDs = pairingIDs
	}

	// attendance & in-session ratings
	var sessStats tutoring.SessionStats
	if err := ag.withRetry(ctx, "sessions", func() error {
		var serr error
		sessStats, serr = ag.sessions.SessionStats(ctx, sessionFilter)
		return serr
	}); err != nil {
		ag.warn(tutor.ID, "sessions", err)
	} else {
		t.Sessions = sessStats.Total
		t.CompletedSessions = sessStats.Completed
		if sessStats.Total > 0 {
			m.Attendance = float64(sessStats.Attended) / float64(sessStats.Total) * 100
		}
		if scheme.RatingSource == RatingFromSessions {
			t.Ratings = sessStats.RatingCount
			if sessStats.RatingCount > 0 {
				m.Ratings = sessStats.RatingAvg / 5 * 100
			}
		}
	}

	// graded assignments
	var asgStats tutoring.AssignmentStats
	if err := ag.withRetry(ctx, "assignments", func() error {
		var aerr error
		asgStats, aerr = ag.assignments.AssignmentStats(ctx, assignmentFilter)
		return aerr
	}); err != nil {
		ag.warn(tutor.ID, "assignments", err)
	} else {
		t.GradedAssignments = asgStats.Graded
		if asgStats.Graded > 0 {
			m.Assignments = asgStats.GradePctAvg
		}
	}

	// exams, for the students in the tutor's active pairings
	if scheme.Weights.Exams > 0 {
		var examStats tutoring.ExamStats
		if err := ag.withRetry(ctx, "exams", func() error {
			var eerr error
			examStats, eerr = ag.exams.ExamStats(ctx, studentIDs)
			return eerr
		}); err != nil {
			ag.warn(tutor.ID, "exams", err)
		} else {
			t.Exams = examStats.Count
			if examStats.Count > 0 {
				m.Exams = examStats.ScoreAvg
			}
		}
	}

	// marketplace reviews
	if scheme.RatingSource == RatingFromReviews {
		var revStats tutoring.ReviewStats
		if err := ag.withRetry(ctx, "reviews", func() error {
			var rerr error
			revStats, rerr = ag.reviews.ReviewStats(ctx, tutor.ID)
			return rerr
		}); err != nil {
			ag.warn(tutor.ID, "reviews", err)
		} else {
			t.Ratings = revStats.Count
			if revStats.Count > 0 {
				m.Ratings = revStats.RatingAvg / 5 * 100
			}
		}
	}

	m.Attendance = core.Clamp(m.Attendance, 0, 100)
	m.Assignments = core.Clamp(m.Assignments, 0, 100)
	m.Exams = core.Clamp(m.Exams, 0, 100)
	m.Ratings = core.Clamp(m.Ratings, 0, 100)
	return m, t, nil
}

// withRetry runs fn up to ag.retries times, waiting 100ms longer between each
// attempt, so a transient storage hiccup does not degrade a metric to 0.
func (ag *Aggregator) withRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= ag.retries; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == ag.retries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
		}
	}
	return errors.Wrapf(err, "fetching %s", op)
}

func (ag *Aggregator) warn(tutorID, metric string, err error) {
	ag.logger.Warn(fmt.Sprintf("aggregating %s for tutor %s: %v; metric degraded to 0", metric, tutorID, err), err)
}
