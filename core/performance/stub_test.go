package performance

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"github.com/walimuhq/walimu/core"
	"github.com/walimuhq/walimu/core/tutoring"
	appfs "github.com/walimuhq/walimu/fs"
	emailsvc "github.com/walimuhq/walimu/services/email"
	testutil "github.com/walimuhq/walimu/tests"
)

var errTestStorage = errors.New("storage unavailable")

func testPerfConfig(scheme string, minSessions, minGraded, retries int) core.PerformanceConfig {
	return core.PerformanceConfig{
		Scheme:               scheme,
		MinSessions:          minSessions,
		MinGradedAssignments: minGraded,
		ReadRetries:          retries,
	}
}

// Read stubs. failures > 0 makes the next calls fail before succeeding, so
// retry behavior is observable via calls.

type stubTutors struct {
	tutor     tutoring.Tutor
	getErr    error
	updateErr error
	conflicts int // UpdateSnapshot fails with ErrVersionConflict this many times
	updates   []tutoring.Snapshot
}

func (s *stubTutors) CreateTutor(_ context.Context, t tutoring.Tutor) (tutoring.Tutor, error) {
	return t, nil
}

func (s *stubTutors) GetTutor(_ context.Context, filter tutoring.TutorGetFilter) (tutoring.Tutor, error) {
	if s.getErr != nil {
		return tutoring.Tutor{}, s.getErr
	}
	if filter.ID == s.tutor.ID || filter.Email == s.tutor.Email {
		return s.tutor, nil
	}
	return tutoring.Tutor{}, tutoring.ErrTutorNotFound
}

func (s *stubTutors) UpdateSnapshot(_ context.Context, tutorID string, snap tutoring.Snapshot, expectedVersion int64) (tutoring.Tutor, error) {
	if s.updateErr != nil {
		return tutoring.Tutor{}, s.updateErr
	}
	if s.conflicts > 0 {
		s.conflicts--
		return tutoring.Tutor{}, tutoring.ErrVersionConflict
	}
	if tutorID != s.tutor.ID {
		return tutoring.Tutor{}, tutoring.ErrTutorNotFound
	}
	s.updates = append(s.updates, snap)
	snap.Version = expectedVersion + 1
	updated := s.tutor
	updated.Snapshot = snap
	s.tutor = updated
	return updated, nil
}

type stubPairings struct {
	pairings []tutoring.Pairing
	failures int
	calls    int
}

func (s *stubPairings) CreatePairing(_ context.Context, p tutoring.Pairing) (tutoring.Pairing, error) {
	return p, nil
}

func (s *stubPairings) UpdatePairing(_ context.Context, p tutoring.Pairing) (tutoring.Pairing, error) {
	return p, nil
}

func (s *stubPairings) QueryTutorPairings(_ context.Context, tutorID string, statuses []string) ([]tutoring.Pairing, error) {
	s.calls++
	if s.failures > 0 {
		s.failures--
		return nil, errTestStorage
	}
	return s.pairings, nil
}

type stubSessions struct {
	stats    tutoring.SessionStats
	failures int
	calls    int
}

func (s *stubSessions) CreateSession(_ context.Context, sess tutoring.Session) (tutoring.Session, error) {
	return sess, nil
}

func (s *stubSessions) UpdateSession(_ context.Context, sess tutoring.Session) (tutoring.Session, error) {
	return sess, nil
}

func (s *stubSessions) GetSession(_ context.Context, id string) (tutoring.Session, error) {
	return tutoring.Session{}, tutoring.ErrRecordNotFound
}

func (s *stubSessions) SessionStats(_ context.Context, filter tutoring.SessionFilter) (tutoring.SessionStats, error) {
	s.calls++
	if s.failures > 0 {
		s.failures--
		return tutoring.SessionStats{}, errTestStorage
	}
	if filter.PairingIDs != nil && len(filter.PairingIDs) == 0 {
		return tutoring.SessionStats{}, nil
	}
	return s.stats, nil
}

type stubAssignments struct {
	stats    tutoring.AssignmentStats
	failures int
	calls    int
}

func (s *stubAssignments) CreateAssignment(_ context.Context, a tutoring.Assignment) (tutoring.Assignment, error) {
	return a, nil
}

func (s *stubAssignments) UpdateAssignment(_ context.Context, a tutoring.Assignment) (tutoring.Assignment, error) {
	return a, nil
}

func (s *stubAssignments) GetAssignment(_ context.Context, id string) (tutoring.Assignment, error) {
	return tutoring.Assignment{}, tutoring.ErrRecordNotFound
}

func (s *stubAssignments) AssignmentStats(_ context.Context, filter tutoring.AssignmentFilter) (tutoring.AssignmentStats, error) {
	s.calls++
	if s.failures > 0 {
		s.failures--
		return tutoring.AssignmentStats{}, errTestStorage
	}
	return s.stats, nil
}

type stubExams struct {
	stats    tutoring.ExamStats
	failures int
	calls    int
}

func (s *stubExams) CreateExam(_ context.Context, e tutoring.Exam) (tutoring.Exam, error) {
	return e, nil
}

func (s *stubExams) ExamStats(_ context.Context, studentIDs []string) (tutoring.ExamStats, error) {
	s.calls++
	if s.failures > 0 {
		s.failures--
		return tutoring.ExamStats{}, errTestStorage
	}
	if len(studentIDs) == 0 {
		return tutoring.ExamStats{}, nil
	}
	return s.stats, nil
}

type stubReviews struct {
	stats    tutoring.ReviewStats
	failures int
	calls    int
}

func (s *stubReviews) CreateReview(_ context.Context, r tutoring.Review) (tutoring.Review, error) {
	return r, nil
}

func (s *stubReviews) ReviewStats(_ context.Context, tutorID string) (tutoring.ReviewStats, error) {
	s.calls++
	if s.failures > 0 {
		s.failures--
		return tutoring.ReviewStats{}, errTestStorage
	}
	return s.stats, nil
}

type stubs struct {
	tutors      *stubTutors
	pairings    *stubPairings
	sessions    *stubSessions
	assignments *stubAssignments
	exams       *stubExams
	reviews     *stubReviews
}

func newStubs(tutor tutoring.Tutor) *stubs {
	return &stubs{
		tutors:      &stubTutors{tutor: tutor},
		pairings:    &stubPairings{},
		sessions:    &stubSessions{},
		assignments: &stubAssignments{},
		exams:       &stubExams{},
		reviews:     &stubReviews{},
	}
}

func (s *stubs) repos() Repositories {
	return Repositories{
		Tutors:      s.tutors,
		Pairings:    s.pairings,
		Sessions:    s.sessions,
		Assignments: s.assignments,
		Exams:       s.exams,
		Reviews:     s.reviews,
	}
}

func newTestService(t *testing.T, s *stubs, scheme string) *Service {
	t.Helper()

	conf := testutil.NewConfig()
	conf.Performance.Scheme = scheme
	logger := testutil.NewLogger()
	core.ParseEmailTemplates(appfs.FS, conf, logger)
	emailsvc.ClearSentMessages()
	return NewService(s.repos(), emailsvc.NewConsoleServiceMock(conf), logger, conf)
}
