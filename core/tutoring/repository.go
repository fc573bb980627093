package tutoring

import (
	"context"

	"github.com/pkg/errors"
)

var (
	// errors
	ErrTutorNotFound   = errors.New("tutor not found")
	ErrVersionConflict = errors.New("tutor record was modified concurrently")
	ErrRecordNotFound  = errors.New("record not found")
)

type (
	// TutorGetFilter selects a single Tutor. Only one field is consulted; ID wins.
	TutorGetFilter struct {
		ID     string
		UserID string
		Email  string
	}

	// SessionFilter scopes session aggregation. PairingIDs nil means
	// tutor-global scope; an empty non-nil slice matches nothing.
	SessionFilter struct {
		TutorID    string
		PairingIDs []string
	}

	// SessionStats are the raw counts the attendance & rating metrics are
	// derived from.
	SessionStats struct {
		Total     int
		Completed int
		Attended  int
		// student-submitted session ratings (1-5)
		RatingCount int
		RatingAvg   float64
	}

	AssignmentFilter struct {
		TutorID    string
		PairingIDs []string
	}

	// AssignmentStats cover graded assignments only. GradePctAvg is the mean
	// of score/maxScore*100 over them.
	AssignmentStats struct {
		Total       int
		Graded      int
		GradePctAvg float64
	}

	// ExamStats cover exam records for a set of students; scores are already
	// percentages.
	ExamStats struct {
		Count    int
		ScoreAvg float64
	}

	// ReviewStats cover review records for a tutor.
	ReviewStats struct {
		Count     int
		RatingAvg float64
	}

	TutorRepository interface {
		CreateTutor(ctx context.Context, t Tutor) (Tutor, error)
		GetTutor(ctx context.Context, filter TutorGetFilter) (Tutor, error)
		// UpdateSnapshot overwrites the tutor's performance snapshot in a single
		// write, bumping Version. Fails with ErrVersionConflict when the stored
		// version no longer matches expectedVersion.
		UpdateSnapshot(ctx context.Context, tutorID string, snap Snapshot, expectedVersion int64) (Tutor, error)
	}

	PairingRepository interface {
		CreatePairing(ctx context.Context, p Pairing) (Pairing, error)
		UpdatePairing(ctx context.Context, p Pairing) (Pairing, error)
		// QueryTutorPairings returns the tutor's pairings with any of the given
		// statuses; all statuses when none given.
		QueryTutorPairings(ctx context.Context, tutorID string, statuses []string) ([]Pairing, error)
	}

	SessionRepository interface {
		CreateSession(ctx context.Context, s Session) (Session, error)
		UpdateSession(ctx context.Context, s Session) (Session, error)
		GetSession(ctx context.Context, id string) (Session, error)
		SessionStats(ctx context.Context, filter SessionFilter) (SessionStats, error)
	}

	AssignmentRepository interface {
		CreateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		UpdateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		GetAssignment(ctx context.Context, id string) (Assignment, error)
		AssignmentStats(ctx context.Context, filter AssignmentFilter) (AssignmentStats, error)
	}

	ExamRepository interface {
		CreateExam(ctx context.Context, e Exam) (Exam, error)
		// ExamStats aggregates exam records for the given students. Matches
		// nothing when studentIDs is empty.
		ExamStats(ctx context.Context, studentIDs []string) (ExamStats, error)
	}

	ReviewRepository interface {
		CreateReview(ctx context.Context, r Review) (Review, error)
		ReviewStats(ctx context.Context, tutorID string) (ReviewStats, error)
	}
)
