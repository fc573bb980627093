package performance

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"github.com/walimuhq/walimu/core/tutoring"
	testutil "github.com/walimuhq/walimu/tests"
)

func testTutor() tutoring.Tutor {
	return tutoring.Tutor{ID: "t1", Name: "Awe Tutor", Email: "tutor@test.cd"}
}

func newTestAggregator(s *stubs, retries int) *Aggregator {
	return NewAggregator(s.repos(), testutil.NewLogger(), retries)
}

func TestAggregator_tutorScope(t *testing.T) {
	s := newStubs(testTutor())
	s.sessions.stats = tutoring.SessionStats{Total: 10, Completed: 8, Attended: 9, RatingCount: 4, RatingAvg: 4.5}
	s.assignments.stats = tutoring.AssignmentStats{Total: 5, Graded: 3, GradePctAvg: 72.5}

	m, totals, err := newTestAggregator(s, 1).Aggregate(context.Background(), testTutor(), SchemeB)
	if err != nil {
		t.Fatalf("Aggregate() failed: %v", err)
	}

	if m.Attendance != 90 {
		t.Errorf("Attendance = %v, want 90", m.Attendance)
	}
	if m.Assignments != 72.5 {
		t.Errorf("Assignments = %v, want 72.5", m.Assignments)
	}
	if m.Ratings != 90 { // 4.5/5 * 100
		t.Errorf("Ratings = %v, want 90", m.Ratings)
	}
	if m.Exams != 0 { // scheme B carries no exam weight
		t.Errorf("Exams = %v, want 0", m.Exams)
	}
	if s.exams.calls != 0 {
		t.Errorf("exams queried %d times, want 0", s.exams.calls)
	}
	if s.reviews.calls != 0 {
		t.Errorf("reviews queried %d times, want 0", s.reviews.calls)
	}
	if s.pairings.calls != 0 {
		t.Errorf("pairings queried %d times, want 0 for tutor scope", s.pairings.calls)
	}

	if totals.CompletedSessions != 8 || totals.GradedAssignments != 3 || totals.Ratings != 4 {
		t.Errorf("unexpected totals: %+v", totals)
	}
}

func TestAggregator_pairingScope(t *testing.T) {
	s := newStubs(testTutor())
	s.pairings.pairings = []tutoring.Pairing{
		{ID: "p1", TutorID: "t1", StudentID: "s1", Status: tutoring.PairingActive},
		{ID: "p2", TutorID: "t1", StudentID: "s2", Status: tutoring.PairingAccepted},
	}
	s.sessions.stats = tutoring.SessionStats{Total: 4, Completed: 4, Attended: 3}
	s.assignments.stats = tutoring.AssignmentStats{Total: 3, Graded: 2, GradePctAvg: 80}
	s.exams.stats = tutoring.ExamStats{Count: 2, ScoreAvg: 65}
	s.reviews.stats = tutoring.ReviewStats{Count: 3, RatingAvg: 4}

	m, totals, err := newTestAggregator(s, 1).Aggregate(context.Background(), testTutor(), SchemeA)
	if err != nil {
		t.Fatalf("Aggregate() failed: %v", err)
	}

	if m.Attendance != 75 {
		t.Errorf("Attendance = %v, want 75", m.Attendance)
	}
	if m.Assignments != 80 {
		t.Errorf("Assignments = %v, want 80", m.Assignments)
	}
	if m.Exams != 65 {
		t.Errorf("Exams = %v, want 65", m.Exams)
	}
	if m.Ratings != 80 { // reviews: 4/5 * 100
		t.Errorf("Ratings = %v, want 80", m.Ratings)
	}
	if totals.Ratings != 3 {
		t.Errorf("totals.Ratings = %d, want 3 (from reviews)", totals.Ratings)
	}
	if s.reviews.calls != 1 {
		t.Errorf("reviews queried %d times, want 1", s.reviews.calls)
	}
}

func TestAggregator_pairingScopeFailureIsFatal(t *testing.T) {
	s := newStubs(testTutor())
	s.pairings.failures = 10

	_, _, err := newTestAggregator(s, 2).Aggregate(context.Background(), testTutor(), SchemeA)
	if errors.Cause(err) != errTestStorage {
		t.Fatalf("Aggregate() error = %v, want %v", err, errTestStorage)
	}
	if s.pairings.calls != 2 {
		t.Errorf("pairings queried %d times, want 2 (retried once)", s.pairings.calls)
	}
}

func TestAggregator_metricFailureDegradesToZero(t *testing.T) {
	s := newStubs(testTutor())
	s.sessions.failures = 10 // never recovers
	s.assignments.stats = tutoring.AssignmentStats{Total: 2, Graded: 2, GradePctAvg: 90}

	m, totals, err := newTestAggregator(s, 2).Aggregate(context.Background(), testTutor(), SchemeB)
	if err != nil {
		t.Fatalf("Aggregate() failed: %v", err)
	}
	if m.Attendance != 0 || m.Ratings != 0 {
		t.Errorf("degraded metrics should be 0, got attendance=%v ratings=%v", m.Attendance, m.Ratings)
	}
	// the failing read never aborts the healthy ones
	if m.Assignments != 90 {
		t.Errorf("Assignments = %v, want 90", m.Assignments)
	}
	if totals.CompletedSessions != 0 {
		t.Errorf("totals.CompletedSessions = %d, want 0", totals.CompletedSessions)
	}
}

func TestAggregator_retryRecovers(t *testing.T) {
	s := newStubs(testTutor())
	s.sessions.failures = 1 // fails once, then succeeds
	s.sessions.stats = tutoring.SessionStats{Total: 2, Completed: 2, Attended: 2}

	m, _, err := newTestAggregator(s, 3).Aggregate(context.Background(), testTutor(), SchemeB)
	if err != nil {
		t.Fatalf("Aggregate() failed: %v", err)
	}
	if m.Attendance != 100 {
		t.Errorf("Attendance = %v, want 100 after retry", m.Attendance)
	}
	if s.sessions.calls != 2 {
		t.Errorf("sessions queried %d times, want 2", s.sessions.calls)
	}
}

func TestAggregator_zeroHistory(t *testing.T) {
	s := newStubs(testTutor())

	m, totals, err := newTestAggregator(s, 1).Aggregate(context.Background(), testTutor(), SchemeB)
	if err != nil {
		t.Fatalf("Aggregate() failed: %v", err)
	}
	if (m != Metrics{}) {
		t.Errorf("Metrics = %+v, want all zero", m)
	}
	if (totals != Totals{}) {
		t.Errorf("Totals = %+v, want all zero", totals)
	}
}

func TestAggregator_noActivePairingsScopesToNothing(t *testing.T) {
	s := newStubs(testTutor())
	// stats would be non-zero on an unscoped read; the aggregator must pass
	// an empty non-nil pairing scope instead
	s.sessions.stats = tutoring.SessionStats{Total: 6, Completed: 6, Attended: 6}

	m, _, err := newTestAggregator(s, 1).Aggregate(context.Background(), testTutor(), SchemeA)
	if err != nil {
		t.Fatalf("Aggregate() failed: %v", err)
	}
	if m.Attendance != 0 {
		t.Errorf("Attendance = %v, want 0 with no active pairings", m.Attendance)
	}
}
