package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/walimuhq/walimu/core/tutoring"
)

type tutorRow struct {
	ID               string         `db:"id"`
	UserID           null.String    `db:"user_id"`
	Name             string         `db:"name"`
	Email            string         `db:"email"`
	Bio              string         `db:"bio"`
	Subjects         pq.StringArray `db:"subjects"`
	PerformanceScore float64        `db:"performance_score"`
	CapacityTier     int            `db:"capacity_tier"`
	Tier             int            `db:"tier"`
	MaxStudents      int            `db:"max_students"`
	Metrics          null.JSON      `db:"metrics"`
	TierSource       string         `db:"tier_source"`
	OverrideReason   null.String    `db:"override_reason"`
	OverriddenBy     null.String    `db:"overridden_by"`
	PerfUpdatedAt    null.Time      `db:"performance_updated_at"`
	Version          int64          `db:"version"`
	CreatedAt        null.Time      `db:"created_at"`
	UpdatedAt        null.Time      `db:"updated_at"`
}

func (row tutorRow) unpack() (tutoring.Tutor, error) {
	t := tutoring.Tutor{
		ID:        row.ID,
		UserID:    row.UserID.String,
		Name:      row.Name,
		Email:     row.Email,
		Bio:       row.Bio,
		Subjects:  row.Subjects,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
		Snapshot: tutoring.Snapshot{
			PerformanceScore: row.PerformanceScore,
			CapacityTier:     tutoring.Tier(row.CapacityTier),
			LegacyTier:       tutoring.Tier(row.Tier),
			MaxStudents:      row.MaxStudents,
			TierSource:       row.TierSource,
			OverrideReason:   row.OverrideReason.String,
			OverriddenBy:     row.OverriddenBy.String,
			UpdatedAt:        row.PerfUpdatedAt.Ptr(),
			Version:          row.Version,
		},
	}
	if row.Metrics.Valid {
		if err := json.Unmarshal(row.Metrics.JSON, &t.Metrics); err != nil {
			return tutoring.Tutor{}, errors.Wrap(err, "decoding tutor metrics")
		}
	}
	return t, nil
}

type tutorRepository struct {
	db *sqlx.DB
}

var _ tutoring.TutorRepository = (*tutorRepository)(nil) // interface compliance check

func NewTutorRepository(db *sqlx.DB) *tutorRepository {
	return &tutorRepository{db: db}
}

func (repo tutorRepository) CreateTutor(ctx context.Context, t tutoring.Tutor) (tutoring.Tutor, error) {
	t.ID = uuid.New().String()
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	if t.CapacityTier == 0 {
		t.CapacityTier = tutoring.Tier1
		t.LegacyTier = tutoring.Tier1
		t.MaxStudents = tutoring.MaxStudentsForTier(tutoring.Tier1)
		t.TierSource = tutoring.TierSourceAuto
	}
	metrics, err := json.Marshal(t.Metrics)
	if err != nil {
		return tutoring.Tutor{}, errors.Wrap(err, "encoding tutor metrics")
	}

	_, err = repo.db.ExecContext(ctx, `
		INSERT INTO tutor_profile (
			id, user_id, name, email, bio, subjects,
			performance_score, capacity_tier, tier, max_students, metrics, tier_source, version,
			created_at, updated_at
		) VALUES ($1, NULLIF($2, '')::uuid, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		t.ID, t.UserID, t.Name, t.Email, t.Bio, pq.StringArray(t.Subjects),
		t.PerformanceScore, int(t.CapacityTier), int(t.LegacyTier), t.MaxStudents, metrics, t.TierSource, t.Version,
		t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return tutoring.Tutor{}, errors.Wrap(err, "inserting tutor")
	}
	return t, nil
}

func (repo tutorRepository) GetTutor(ctx context.Context, filter tutoring.TutorGetFilter) (tutoring.Tutor, error) {
	var row tutorRow
	var err error
	switch {
	case filter.ID != "":
		err = repo.db.GetContext(ctx, &row, `SELECT * FROM tutor_profile WHERE id = $1`, filter.ID)
	case filter.UserID != "":
		err = repo.db.GetContext(ctx, &row, `SELECT * FROM tutor_profile WHERE user_id = $1`, filter.UserID)
	case filter.Email != "":
		err = repo.db.GetContext(ctx, &row, `SELECT * FROM tutor_profile WHERE email = $1`, filter.Email)
	default:
		return tutoring.Tutor{}, tutoring.ErrTutorNotFound
	}
	if err == sql.ErrNoRows {
		return tutoring.Tutor{}, tutoring.ErrTutorNotFound
	}
	if err != nil {
		return tutoring.Tutor{}, errors.Wrap(err, "getting tutor")
	}
	return row.unpack()
}

// UpdateSnapshot overwrites the performance snapshot columns in a single
// guarded UPDATE. The version predicate makes the write a compare-and-swap:
// zero rows affected on an existing tutor means a concurrent writer won.
func (repo tutorRepository) UpdateSnapshot(ctx context.Context, tutorID string, snap tutoring.Snapshot, expectedVersion int64) (tutoring.Tutor, error) {
	metrics, err := json.Marshal(snap.Metrics)
	if err != nil {
		return tutoring.Tutor{}, errors.Wrap(err, "encoding tutor metrics")
	}

	var row tutorRow
	err = repo.db.GetContext(ctx, &row, `
		UPDATE tutor_profile SET
			performance_score      = $3,
			capacity_tier          = $4,
			tier                   = $5,
			max_students           = $6,
			metrics                = $7,
			tier_source            = $8,
			override_reason        = NULLIF($9, ''),
			overridden_by          = NULLIF($10, ''),
			performance_updated_at = $11,
			version                = version + 1,
			updated_at             = now()
		WHERE id = $1 AND version = $2
		RETURNING *`,
		tutorID, expectedVersion,
		snap.PerformanceScore, int(snap.CapacityTier), int(snap.LegacyTier), snap.MaxStudents,
		metrics, snap.TierSource, snap.OverrideReason, snap.OverriddenBy, snap.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		// distinguish a missing tutor from a lost race
		var exists bool
		if err = repo.db.GetContext(ctx, &exists, `SELECT true FROM tutor_profile WHERE id = $1`, tutorID); err == sql.ErrNoRows {
			return tutoring.Tutor{}, tutoring.ErrTutorNotFound
		} else if err != nil {
			return tutoring.Tutor{}, errors.Wrap(err, "checking tutor")
		}
		return tutoring.Tutor{}, tutoring.ErrVersionConflict
	}
	if err != nil {
		return tutoring.Tutor{}, errors.Wrap(err, "updating tutor snapshot")
	}
	return row.unpack()
}
