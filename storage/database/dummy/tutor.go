package dummydb

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/walimuhq/walimu/core/tutoring"
)

type tutorRepository struct {
	db *tutorTable
}

var _ tutoring.TutorRepository = (*tutorRepository)(nil) // interface compliance check

func NewTutorRepository(db *DB) *tutorRepository {
	return &tutorRepository{db: db.tutor}
}

func (repo *tutorRepository) CreateTutor(_ context.Context, t tutoring.Tutor) (tutoring.Tutor, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	t.ID = uuid.New().String()
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	if t.CapacityTier == 0 {
		t.CapacityTier = tutoring.Tier1
		t.LegacyTier = tutoring.Tier1
		t.MaxStudents = tutoring.MaxStudentsForTier(tutoring.Tier1)
		t.TierSource = tutoring.TierSourceAuto
	}
	repo.db.table[t.ID] = &t
	return t, nil
}

func (repo *tutorRepository) GetTutor(_ context.Context, filter tutoring.TutorGetFilter) (tutoring.Tutor, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	switch {
	case filter.ID != "":
		if t, ok := repo.db.table[filter.ID]; ok {
			return *t, nil
		}
	case filter.UserID != "":
		for _, t := range repo.db.table {
			if t.UserID == filter.UserID {
				return *t, nil
			}
		}
	case filter.Email != "":
		for _, t := range repo.db.table {
			if t.Email == filter.Email {
				return *t, nil
			}
		}
	}
	return tutoring.Tutor{}, tutoring.ErrTutorNotFound
}

func (repo *tutorRepository) UpdateSnapshot(_ context.Context, tutorID string, snap tutoring.Snapshot, expectedVersion int64) (tutoring.Tutor, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	t, ok := repo.db.table[tutorID]
	if !ok {
		return tutoring.Tutor{}, tutoring.ErrTutorNotFound
	}
	if t.Version != expectedVersion {
		return tutoring.Tutor{}, tutoring.ErrVersionConflict
	}

	snap.Version = expectedVersion + 1
	t.Snapshot = snap
	t.UpdatedAt = time.Now().UTC()
	return *t, nil
}
