package tutoring

import (
	"time"

	"github.com/pkg/errors"

	"github.com/walimuhq/walimu/core"
)

var (
	ErrPairingNotPending      = errors.New("pairing is not pending")
	ErrPairingNotAccepted     = errors.New("pairing is not accepted")
	ErrSessionCompleted       = errors.New("session is already completed")
	ErrSessionNotComplete     = errors.New("session is not completed yet")
	ErrAssignmentGraded       = errors.New("assignment is already graded")
	ErrAssignmentNotPending   = errors.New("assignment has already been submitted")
	ErrAssignmentNotSubmitted = errors.New("assignment has not been submitted")
)

// Accept moves a pending pairing to accepted.
func (p *Pairing) Accept() error {
	if p.Status != PairingPending {
		return ErrPairingNotPending
	}
	p.Status = PairingAccepted
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// Decline moves a pending pairing to declined.
func (p *Pairing) Decline() error {
	if p.Status != PairingPending {
		return ErrPairingNotPending
	}
	p.Status = PairingDeclined
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// Activate moves an accepted pairing to active.
func (p *Pairing) Activate() error {
	if p.Status != PairingAccepted {
		return ErrPairingNotAccepted
	}
	p.Status = PairingActive
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// Complete marks a scheduled session completed with the tutor-reported
// attendance flag. A session is immutable once completed.
func (s *Session) Complete(attended bool) error {
	if s.IsCompleted() {
		return ErrSessionCompleted
	}
	s.Status = SessionCompleted
	s.Attended = &attended
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// Rate records the student-submitted rating after completion.
func (s *Session) Rate(rating int) error {
	if !s.IsCompleted() {
		return ErrSessionNotComplete
	}
	if rating < 1 || rating > 5 {
		return core.NewValidationError(
			errors.New("invalid rating"),
			core.FieldError{Field: "rating", Error: "rating must be between 1 and 5"},
		)
	}
	s.Rating = &rating
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// Submit moves a pending assignment to submitted.
func (a *Assignment) Submit() error {
	if a.Status != AssignmentPending {
		return ErrAssignmentNotPending
	}
	a.Status = AssignmentSubmitted
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// Grade fixes the score on a submitted assignment. The score is immutable
// thereafter.
func (a *Assignment) Grade(score float64) error {
	if a.IsGraded() {
		return ErrAssignmentGraded
	}
	if a.Status != AssignmentSubmitted {
		return ErrAssignmentNotSubmitted
	}
	if score < 0 {
		return core.NewValidationError(
			errors.New("invalid score"),
			core.FieldError{Field: "score", Error: "score cannot be negative"},
		)
	}
	a.Status = AssignmentGraded
	a.Score = &score
	a.UpdatedAt = time.Now().UTC()
	return nil
}
