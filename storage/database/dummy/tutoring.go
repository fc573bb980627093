package dummydb

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/walimuhq/walimu/core/tutoring"
)

// ---------------------------------------------------------------- pairings

type pairingRepository struct {
	db *pairingTable
}

var _ tutoring.PairingRepository = (*pairingRepository)(nil)

func NewPairingRepository(db *DB) *pairingRepository {
	return &pairingRepository{db: db.pairing}
}

func (repo *pairingRepository) CreatePairing(_ context.Context, p tutoring.Pairing) (tutoring.Pairing, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	p.ID = uuid.New().String()
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	if p.Status == "" {
		p.Status = tutoring.PairingPending
	}
	repo.db.table[p.ID] = &p
	return p, nil
}

func (repo *pairingRepository) UpdatePairing(_ context.Context, p tutoring.Pairing) (tutoring.Pairing, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[p.ID]
	if !ok {
		return tutoring.Pairing{}, tutoring.ErrRecordNotFound
	}
	orig.Status = p.Status
	orig.UpdatedAt = time.Now().UTC()
	return *orig, nil
}

func (repo *pairingRepository) QueryTutorPairings(_ context.Context, tutorID string, statuses []string) ([]tutoring.Pairing, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var pairings []tutoring.Pairing
	for _, p := range repo.db.table {
		if p.TutorID != tutorID {
			continue
		}
		if len(statuses) > 0 && !contains(statuses, p.Status) {
			continue
		}
		pairings = append(pairings, *p)
	}
	return pairings, nil
}

func contains(vals []string, val string) bool {
	for _, v := range vals {
		if v == val {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------- sessions

type sessionRepository struct {
	db *sessionTable
}

var _ tutoring.SessionRepository = (*sessionRepository)(nil)

func NewSessionRepository(db *DB) *sessionRepository {
	return &sessionRepository{db: db.session}
}

func (repo *sessionRepository) CreateSession(_ context.Context, s tutoring.Session) (tutoring.Session, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	s.ID = uuid.New().String()
	now := time.Now().UTC()
	s.CreatedAt, s.UpdatedAt = now, now
	if s.Status == "" {
		s.Status = tutoring.SessionScheduled
	}
	repo.db.table[s.ID] = &s
	return s, nil
}

func (repo *sessionRepository) UpdateSession(_ context.Context, s tutoring.Session) (tutoring.Session, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[s.ID]
	if !ok {
		return tutoring.Session{}, tutoring.ErrRecordNotFound
	}
	orig.Status = s.Status
	orig.Attended = s.Attended
	orig.Rating = s.Rating
	orig.UpdatedAt = time.Now().UTC()
	return *orig, nil
}

func (repo *sessionRepository) GetSession(_ context.Context, id string) (tutoring.Session, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.table[id]; ok {
		return *s, nil
	}
	return tutoring.Session{}, tutoring.ErrRecordNotFound
}

func (repo *sessionRepository) SessionStats(_ context.Context, filter tutoring.SessionFilter) (tutoring.SessionStats, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var stats tutoring.SessionStats
	var ratingSum int
	for _, s := range repo.db.table {
		if s.TutorID != filter.TutorID {
			continue
		}
		if filter.PairingIDs != nil && !contains(filter.PairingIDs, s.PairingID) {
			continue
		}
		stats.Total++
		if s.IsCompleted() {
			stats.Completed++
		}
		if s.Attended != nil && *s.Attended {
			stats.Attended++
		}
		if s.Rating != nil {
			stats.RatingCount++
			ratingSum += *s.Rating
		}
	}
	if stats.RatingCount > 0 {
		stats.RatingAvg = float64(ratingSum) / float64(stats.RatingCount)
	}
	return stats, nil
}

// ------------------------------------------------------------- assignments

type assignmentRepository struct {
	db *assignmentTable
}

var _ tutoring.AssignmentRepository = (*assignmentRepository)(nil)

func NewAssignmentRepository(db *DB) *assignmentRepository {
	return &assignmentRepository{db: db.assignment}
}

func (repo *assignmentRepository) CreateAssignment(_ context.Context, a tutoring.Assignment) (tutoring.Assignment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	a.ID = uuid.New().String()
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	if a.Status == "" {
		a.Status = tutoring.AssignmentPending
	}
	if a.MaxScore == 0 {
		a.MaxScore = 100
	}
	repo.db.table[a.ID] = &a
	return a, nil
}

func (repo *assignmentRepository) UpdateAssignment(_ context.Context, a tutoring.Assignment) (tutoring.Assignment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[a.ID]
	if !ok {
		return tutoring.Assignment{}, tutoring.ErrRecordNotFound
	}
	orig.Status = a.Status
	orig.Score = a.Score
	orig.UpdatedAt = time.Now().UTC()
	return *orig, nil
}

func (repo *assignmentRepository) GetAssignment(_ context.Context, id string) (tutoring.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if a, ok := repo.db.table[id]; ok {
		return *a, nil
	}
	return tutoring.Assignment{}, tutoring.ErrRecordNotFound
}

func (repo *assignmentRepository) AssignmentStats(_ context.Context, filter tutoring.AssignmentFilter) (tutoring.AssignmentStats, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var stats tutoring.AssignmentStats
	var gradePctSum float64
	for _, a := range repo.db.table {
		if a.TutorID != filter.TutorID {
			continue
		}
		if filter.PairingIDs != nil && !contains(filter.PairingIDs, a.PairingID) {
			continue
		}
		stats.Total++
		if a.IsGraded() {
			stats.Graded++
			gradePctSum += a.GradePct()
		}
	}
	if stats.Graded > 0 {
		stats.GradePctAvg = gradePctSum / float64(stats.Graded)
	}
	return stats, nil
}

// ------------------------------------------------------------------- exams

type examRepository struct {
	db *examTable
}

var _ tutoring.ExamRepository = (*examRepository)(nil)

func NewExamRepository(db *DB) *examRepository {
	return &examRepository{db: db.exam}
}

func (repo *examRepository) CreateExam(_ context.Context, e tutoring.Exam) (tutoring.Exam, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	e.ID = uuid.New().String()
	repo.db.table[e.ID] = &e
	return e, nil
}

func (repo *examRepository) ExamStats(_ context.Context, studentIDs []string) (tutoring.ExamStats, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var stats tutoring.ExamStats
	var scoreSum float64
	for _, e := range repo.db.table {
		if !contains(studentIDs, e.StudentID) {
			continue
		}
		stats.Count++
		scoreSum += e.Score
	}
	if stats.Count > 0 {
		stats.ScoreAvg = scoreSum / float64(stats.Count)
	}
	return stats, nil
}

// ----------------------------------------------------------------- reviews

type reviewRepository struct {
	db *reviewTable
}

var _ tutoring.ReviewRepository = (*reviewRepository)(nil)

func NewReviewRepository(db *DB) *reviewRepository {
	return &reviewRepository{db: db.review}
}

func (repo *reviewRepository) CreateReview(_ context.Context, r tutoring.Review) (tutoring.Review, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	r.ID = uuid.New().String()
	r.CreatedAt = time.Now().UTC()
	repo.db.table[r.ID] = &r
	return r, nil
}

func (repo *reviewRepository) ReviewStats(_ context.Context, tutorID string) (tutoring.ReviewStats, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var stats tutoring.ReviewStats
	var ratingSum int
	for _, r := range repo.db.table {
		if r.TutorID != tutorID {
			continue
		}
		stats.Count++
		ratingSum += r.Rating
	}
	if stats.Count > 0 {
		stats.RatingAvg = float64(ratingSum) / float64(stats.Count)
	}
	return stats, nil
}
