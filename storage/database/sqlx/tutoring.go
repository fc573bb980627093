package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/walimuhq/walimu/core/tutoring"
)

// ---------------------------------------------------------------- pairings

type pairingRow struct {
	ID        string    `db:"id"`
	TutorID   string    `db:"tutor_id"`
	StudentID string    `db:"student_id"`
	CourseID  string    `db:"course_id"`
	Status    string    `db:"status"`
	CreatedAt null.Time `db:"created_at"`
	UpdatedAt null.Time `db:"updated_at"`
}

func (row pairingRow) unpack() tutoring.Pairing {
	return tutoring.Pairing{
		ID:        row.ID,
		TutorID:   row.TutorID,
		StudentID: row.StudentID,
		CourseID:  row.CourseID,
		Status:    row.Status,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
}

type pairingRepository struct {
	db *sqlx.DB
}

var _ tutoring.PairingRepository = (*pairingRepository)(nil)

func NewPairingRepository(db *sqlx.DB) *pairingRepository {
	return &pairingRepository{db: db}
}

func (repo pairingRepository) CreatePairing(ctx context.Context, p tutoring.Pairing) (tutoring.Pairing, error) {
	p.ID = uuid.New().String()
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	if p.Status == "" {
		p.Status = tutoring.PairingPending
	}
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO pairing (id, tutor_id, student_id, course_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.TutorID, p.StudentID, p.CourseID, p.Status, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return tutoring.Pairing{}, errors.Wrap(err, "inserting pairing")
	}
	return p, nil
}

func (repo pairingRepository) UpdatePairing(ctx context.Context, p tutoring.Pairing) (tutoring.Pairing, error) {
	var row pairingRow
	err := repo.db.GetContext(ctx, &row, `
		UPDATE pairing SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING *`,
		p.ID, p.Status,
	)
	if err == sql.ErrNoRows {
		return tutoring.Pairing{}, tutoring.ErrRecordNotFound
	}
	if err != nil {
		return tutoring.Pairing{}, errors.Wrap(err, "updating pairing")
	}
	return row.unpack(), nil
}

func (repo pairingRepository) QueryTutorPairings(ctx context.Context, tutorID string, statuses []string) ([]tutoring.Pairing, error) {
	query := `SELECT * FROM pairing WHERE tutor_id = $1`
	args := []interface{}{tutorID}
	if len(statuses) > 0 {
		query += ` AND status = ANY($2)`
		args = append(args, pq.Array(statuses))
	}
	query += ` ORDER BY created_at`

	var rows []pairingRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying pairings")
	}
	pairings := make([]tutoring.Pairing, 0, len(rows))
	for _, row := range rows {
		pairings = append(pairings, row.unpack())
	}
	return pairings, nil
}

// ---------------------------------------------------------------- sessions

type sessionRow struct {
	ID          string      `db:"id"`
	TutorID     string      `db:"tutor_id"`
	StudentID   string      `db:"student_id"`
	PairingID   null.String `db:"pairing_id"`
	Status      string      `db:"status"`
	Attended    null.Bool   `db:"attended"`
	Rating      null.Int    `db:"rating"`
	ScheduledAt null.Time   `db:"scheduled_at"`
	CreatedAt   null.Time   `db:"created_at"`
	UpdatedAt   null.Time   `db:"updated_at"`
}

func (row sessionRow) unpack() tutoring.Session {
	s := tutoring.Session{
		ID:          row.ID,
		TutorID:     row.TutorID,
		StudentID:   row.StudentID,
		PairingID:   row.PairingID.String,
		Status:      row.Status,
		Attended:    row.Attended.Ptr(),
		ScheduledAt: row.ScheduledAt.Time,
		CreatedAt:   row.CreatedAt.Time,
		UpdatedAt:   row.UpdatedAt.Time,
	}
	if row.Rating.Valid {
		rating := row.Rating.Int
		s.Rating = &rating
	}
	return s
}

type sessionRepository struct {
	db *sqlx.DB
}

var _ tutoring.SessionRepository = (*sessionRepository)(nil)

func NewSessionRepository(db *sqlx.DB) *sessionRepository {
	return &sessionRepository{db: db}
}

func (repo sessionRepository) CreateSession(ctx context.Context, s tutoring.Session) (tutoring.Session, error) {
	s.ID = uuid.New().String()
	now := time.Now().UTC()
	s.CreatedAt, s.UpdatedAt = now, now
	if s.Status == "" {
		s.Status = tutoring.SessionScheduled
	}
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO session (id, tutor_id, student_id, pairing_id, status, attended, rating, scheduled_at, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, '')::uuid, $5, $6, $7, $8, $9, $10)`,
		s.ID, s.TutorID, s.StudentID, s.PairingID, s.Status, s.Attended, s.Rating, s.ScheduledAt, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return tutoring.Session{}, errors.Wrap(err, "inserting session")
	}
	return s, nil
}

func (repo sessionRepository) UpdateSession(ctx context.Context, s tutoring.Session) (tutoring.Session, error) {
	var row sessionRow
	err := repo.db.GetContext(ctx, &row, `
		UPDATE session SET
			status     = $2,
			attended   = $3,
			rating     = $4,
			updated_at = now()
		WHERE id = $1
		RETURNING *`,
		s.ID, s.Status, s.Attended, s.Rating,
	)
	if err == sql.ErrNoRows {
		return tutoring.Session{}, tutoring.ErrRecordNotFound
	}
	if err != nil {
		return tutoring.Session{}, errors.Wrap(err, "updating session")
	}
	return row.unpack(), nil
}

func (repo sessionRepository) GetSession(ctx context.Context, id string) (tutoring.Session, error) {
	var row sessionRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM session WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return tutoring.Session{}, tutoring.ErrRecordNotFound
	}
	if err != nil {
		return tutoring.Session{}, errors.Wrap(err, "getting session")
	}
	return row.unpack(), nil
}

func (repo sessionRepository) SessionStats(ctx context.Context, filter tutoring.SessionFilter) (tutoring.SessionStats, error) {
	// an empty non-nil pairing scope matches nothing
	if filter.PairingIDs != nil && len(filter.PairingIDs) == 0 {
		return tutoring.SessionStats{}, nil
	}

	query := `
		SELECT
			COUNT(*)                                        AS total,
			COUNT(*) FILTER (WHERE status = 'completed')    AS completed,
			COUNT(*) FILTER (WHERE attended)                AS attended,
			COUNT(rating)                                   AS rating_count,
			COALESCE(AVG(rating), 0)                        AS rating_avg
		FROM session
		WHERE tutor_id = $1`
	args := []interface{}{filter.TutorID}
	if filter.PairingIDs != nil {
		query += ` AND pairing_id = ANY($2)`
		args = append(args, pq.Array(filter.PairingIDs))
	}

	var stats struct {
		Total       int     `db:"total"`
		Completed   int     `db:"completed"`
		Attended    int     `db:"attended"`
		RatingCount int     `db:"rating_count"`
		RatingAvg   float64 `db:"rating_avg"`
	}
	if err := repo.db.GetContext(ctx, &stats, query, args...); err != nil {
		return tutoring.SessionStats{}, errors.Wrap(err, "aggregating sessions")
	}
	return tutoring.SessionStats(stats), nil
}

// ------------------------------------------------------------- assignments

type assignmentRow struct {
	ID        string       `db:"id"`
	TutorID   string       `db:"tutor_id"`
	StudentID string       `db:"student_id"`
	CourseID  string       `db:"course_id"`
	PairingID null.String  `db:"pairing_id"`
	Status    string       `db:"status"`
	Score     null.Float64 `db:"score"`
	MaxScore  float64      `db:"max_score"`
	CreatedAt null.Time    `db:"created_at"`
	UpdatedAt null.Time    `db:"updated_at"`
}

func (row assignmentRow) unpack() tutoring.Assignment {
	return tutoring.Assignment{
		ID:        row.ID,
		TutorID:   row.TutorID,
		StudentID: row.StudentID,
		CourseID:  row.CourseID,
		PairingID: row.PairingID.String,
		Status:    row.Status,
		Score:     row.Score.Ptr(),
		MaxScore:  row.MaxScore,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
}

type assignmentRepository struct {
	db *sqlx.DB
}

var _ tutoring.AssignmentRepository = (*assignmentRepository)(nil)

func NewAssignmentRepository(db *sqlx.DB) *assignmentRepository {
	return &assignmentRepository{db: db}
}

func (repo assignmentRepository) CreateAssignment(ctx context.Context, a tutoring.Assignment) (tutoring.Assignment, error) {
	a.ID = uuid.New().String()
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	if a.Status == "" {
		a.Status = tutoring.AssignmentPending
	}
	if a.MaxScore == 0 {
		a.MaxScore = 100
	}
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO assignment (id, tutor_id, student_id, course_id, pairing_id, status, score, max_score, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, '')::uuid, $6, $7, $8, $9, $10)`,
		a.ID, a.TutorID, a.StudentID, a.CourseID, a.PairingID, a.Status, a.Score, a.MaxScore, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return tutoring.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return a, nil
}

func (repo assignmentRepository) UpdateAssignment(ctx context.Context, a tutoring.Assignment) (tutoring.Assignment, error) {
	var row assignmentRow
	err := repo.db.GetContext(ctx, &row, `
		UPDATE assignment SET
			status     = $2,
			score      = $3,
			updated_at = now()
		WHERE id = $1
		RETURNING *`,
		a.ID, a.Status, a.Score,
	)
	if err == sql.ErrNoRows {
		return tutoring.Assignment{}, tutoring.ErrRecordNotFound
	}
	if err != nil {
		return tutoring.Assignment{}, errors.Wrap(err, "updating assignment")
	}
	return row.unpack(), nil
}

func (repo assignmentRepository) GetAssignment(ctx context.Context, id string) (tutoring.Assignment, error) {
	var row assignmentRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM assignment WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return tutoring.Assignment{}, tutoring.ErrRecordNotFound
	}
	if err != nil {
		return tutoring.Assignment{}, errors.Wrap(err, "getting assignment")
	}
	return row.unpack(), nil
}

func (repo assignmentRepository) AssignmentStats(ctx context.Context, filter tutoring.AssignmentFilter) (tutoring.AssignmentStats, error) {
	if filter.PairingIDs != nil && len(filter.PairingIDs) == 0 {
		return tutoring.AssignmentStats{}, nil
	}

	query := `
		SELECT
			COUNT(*)                                     AS total,
			COUNT(*) FILTER (WHERE status = 'graded')    AS graded,
			COALESCE(AVG(score / max_score * 100) FILTER (WHERE status = 'graded' AND max_score > 0), 0) AS grade_pct_avg
		FROM assignment
		WHERE tutor_id = $1`
	args := []interface{}{filter.TutorID}
	if filter.PairingIDs != nil {
		query += ` AND pairing_id = ANY($2)`
		args = append(args, pq.Array(filter.PairingIDs))
	}

	var stats struct {
		Total       int     `db:"total"`
		Graded      int     `db:"graded"`
		GradePctAvg float64 `db:"grade_pct_avg"`
	}
	if err := repo.db.GetContext(ctx, &stats, query, args...); err != nil {
		return tutoring.AssignmentStats{}, errors.Wrap(err, "aggregating assignments")
	}
	return tutoring.AssignmentStats(stats), nil
}

// ------------------------------------------------------------------- exams

type examRepository struct {
	db *sqlx.DB
}

var _ tutoring.ExamRepository = (*examRepository)(nil)

func NewExamRepository(db *sqlx.DB) *examRepository {
	return &examRepository{db: db}
}

func (repo examRepository) CreateExam(ctx context.Context, e tutoring.Exam) (tutoring.Exam, error) {
	e.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO exam (id, student_id, course_id, score, taken_at)
		VALUES ($1, $2, $3, $4, $5)`,
		e.ID, e.StudentID, e.CourseID, e.Score, e.TakenAt,
	)
	if err != nil {
		return tutoring.Exam{}, errors.Wrap(err, "inserting exam")
	}
	return e, nil
}

func (repo examRepository) ExamStats(ctx context.Context, studentIDs []string) (tutoring.ExamStats, error) {
	if len(studentIDs) == 0 {
		return tutoring.ExamStats{}, nil
	}

	var stats struct {
		Count    int     `db:"count"`
		ScoreAvg float64 `db:"score_avg"`
	}
	err := repo.db.GetContext(ctx, &stats, `
		SELECT COUNT(*) AS count, COALESCE(AVG(score), 0) AS score_avg
		FROM exam
		WHERE student_id = ANY($1)`,
		pq.Array(studentIDs),
	)
	if err != nil {
		return tutoring.ExamStats{}, errors.Wrap(err, "aggregating exams")
	}
	return tutoring.ExamStats(stats), nil
}

// ----------------------------------------------------------------- reviews

type reviewRepository struct {
	db *sqlx.DB
}

var _ tutoring.ReviewRepository = (*reviewRepository)(nil)

func NewReviewRepository(db *sqlx.DB) *reviewRepository {
	return &reviewRepository{db: db}
}

func (repo reviewRepository) CreateReview(ctx context.Context, r tutoring.Review) (tutoring.Review, error) {
	r.ID = uuid.New().String()
	r.CreatedAt = time.Now().UTC()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO review (id, tutor_id, student_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		r.ID, r.TutorID, r.StudentID, r.Rating, r.Comment, r.CreatedAt,
	)
	if err != nil {
		return tutoring.Review{}, errors.Wrap(err, "inserting review")
	}
	return r, nil
}

func (repo reviewRepository) ReviewStats(ctx context.Context, tutorID string) (tutoring.ReviewStats, error) {
	var stats struct {
		Count     int     `db:"count"`
		RatingAvg float64 `db:"rating_avg"`
	}
	err := repo.db.GetContext(ctx, &stats, `
		SELECT COUNT(*) AS count, COALESCE(AVG(rating), 0) AS rating_avg
		FROM review
		WHERE tutor_id = $1`,
		tutorID,
	)
	if err != nil {
		return tutoring.ReviewStats{}, errors.Wrap(err, "aggregating reviews")
	}
	return tutoring.ReviewStats(stats), nil
}
