package performance

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/walimuhq/walimu/core"
	"github.com/walimuhq/walimu/core/tutoring"
)

// casRetries bounds re-runs of the full read-aggregate-write cycle when the
// optimistic-concurrency write loses a race.
const casRetries = 2

type (
	Repositories struct {
		Tutors      tutoring.TutorRepository
		Pairings    tutoring.PairingRepository
		Sessions    tutoring.SessionRepository
		Assignments tutoring.AssignmentRepository
		Exams       tutoring.ExamRepository
		Reviews     tutoring.ReviewRepository
	}

	// Result is the outcome of a scoring run (or a manual override). Success
	// is always true here; the API error handler emits the success=false
	// counterpart so clients can discriminate on one field.
	Result struct {
		Success          bool                   `json:"success"`
		TutorID          string                 `json:"tutorId"`
		PerformanceScore float64                `json:"performanceScore"`
		Tier             tutoring.Tier          `json:"tier"`
		MaxStudents      int                    `json:"maxStudents"`
		Metrics          tutoring.MetricsRecord `json:"metrics"`
		HasMinimumData   bool                   `json:"hasMinimumData"`
		Message          string                 `json:"message"`
	}

	// OverrideTier is an administrator's manual tier override. It bypasses
	// scoring & classification entirely; a justification is mandatory.
	OverrideTier struct {
		TutorID string        `json:"tutorId" validate:"required"`
		NewTier tutoring.Tier `json:"newTier" validate:"required"`
		Reason  string        `json:"reason"`
		AdminID string        `json:"adminIdentity"`
	}

	ServiceInterface interface {
		Calculate(ctx context.Context, tutorID string) (Result, error)
		Recalculate(ctx context.Context, tutorRef string) (Result, error)
		Override(ctx context.Context, ov OverrideTier) (Result, error)
		GetSnapshot(ctx context.Context, tutorID string) (tutoring.Tutor, error)
	}

	Service struct {
		repos   Repositories
		agg     *Aggregator
		scheme  Scheme // scheme applied by Recalculate; Calculate is fixed to SchemeA
		mailSvc core.EmailService
		logger  core.Logger
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repos Repositories, mailSvc core.EmailService, logger core.Logger, conf *core.Config) *Service {
	return &Service{
		repos:   repos,
		agg:     NewAggregator(repos, logger, conf.Performance.ReadRetries),
		scheme:  SchemeFromConfig(conf.Performance),
		mailSvc: mailSvc,
		logger:  logger,
	}
}

// Calculate scores the tutor per active pairing (scheme A) and persists the
// snapshot.
func (svc *Service) Calculate(ctx context.Context, tutorID string) (Result, error) {
	tutor, err := svc.repos.Tutors.GetTutor(ctx, tutoring.TutorGetFilter{ID: tutorID})
	if err != nil {
		return Result{}, err
	}
	return svc.recompute(ctx, tutor, SchemeA)
}

// Recalculate scores the tutor with the configured production scheme
// (scheme B by default, including its minimum-data gate). tutorRef may be a
// tutor ID or the tutor's email address.
func (svc *Service) Recalculate(ctx context.Context, tutorRef string) (Result, error) {
	filter := tutoring.TutorGetFilter{ID: tutorRef}
	if _, err := mail.ParseAddress(tutorRef); err == nil {
		filter = tutoring.TutorGetFilter{Email: core.CleanString(tutorRef, true /* lower */)}
	}
	tutor, err := svc.repos.Tutors.GetTutor(ctx, filter)
	if err != nil {
		return Result{}, err
	}
	return svc.recompute(ctx, tutor, svc.scheme)
}

// GetSnapshot returns the tutor's profile with its latest performance snapshot.
func (svc *Service) GetSnapshot(ctx context.Context, tutorID string) (tutoring.Tutor, error) {
	return svc.repos.Tutors.GetTutor(ctx, tutoring.TutorGetFilter{ID: tutorID})
}

// Override sets tier & capacity directly, recording who did it and why. The
// next automatic recomputation overwrites these values but logs a warning
// when doing so.
func (svc *Service) Override(ctx context.Context, ov OverrideTier) (Result, error) {
	if core.CleanString(ov.Reason) == "" {
		return Result{}, core.NewValidationError(
			errors.New("override justification is required"),
			core.FieldError{Field: "reason", Error: "a justification is required to override a tutor's tier"},
		)
	}
	if !tutoring.ValidTier(ov.NewTier) {
		return Result{}, core.NewValidationError(
			errors.New("invalid tier"),
			core.FieldError{Field: "newTier", Error: "tier must be 1, 2 or 3"},
		)
	}

	tutor, err := svc.repos.Tutors.GetTutor(ctx, tutoring.TutorGetFilter{ID: ov.TutorID})
	if err != nil {
		return Result{}, err
	}

	now := time.Now().UTC()
	snap := tutor.Snapshot
	snap.CapacityTier = ov.NewTier
	snap.LegacyTier = ov.NewTier
	snap.MaxStudents = tutoring.MaxStudentsForTier(ov.NewTier)
	snap.TierSource = tutoring.TierSourceManual
	snap.OverrideReason = core.CleanString(ov.Reason)
	snap.OverriddenBy = ov.AdminID
	snap.UpdatedAt = &now

	updated, err := svc.repos.Tutors.UpdateSnapshot(ctx, tutor.ID, snap, tutor.Version)
	if err != nil {
		return Result{}, errors.Wrap(err, "writing tier override")
	}

	svc.logger.Info(fmt.Sprintf(
		"tier override: tutor %s set to tier %d (max %d students) by %s: %s",
		tutor.ID, snap.CapacityTier, snap.MaxStudents, ov.AdminID, snap.OverrideReason))
	if updated.CapacityTier != tutor.CapacityTier {
		svc.notifyTierChange(tutor, updated.Snapshot)
	}

	return Result{
		Success:          true,
		TutorID:          tutor.ID,
		PerformanceScore: updated.PerformanceScore,
		Tier:             updated.CapacityTier,
		MaxStudents:      updated.MaxStudents,
		Metrics:          updated.Metrics,
		HasMinimumData:   true,
		Message:          fmt.Sprintf("Tier manually set to %d by an administrator.", snap.CapacityTier),
	}, nil
}

// recompute runs the full read-aggregate-write cycle, re-running it from
// scratch when the optimistic-concurrency write detects a concurrent update.
func (svc *Service) recompute(ctx context.Context, tutor tutoring.Tutor, scheme Scheme) (Result, error) {
	var res Result
	var err error
	for attempt := 0; ; attempt++ {
		res, err = svc.recomputeOnce(ctx, tutor, scheme)
		if errors.Cause(err) != tutoring.ErrVersionConflict || attempt >= casRetries {
			return res, err
		}
		// lost the write race; reload and recompute from fresh reads
		tutor, err = svc.repos.Tutors.GetTutor(ctx, tutoring.TutorGetFilter{ID: tutor.ID})
		if err != nil {
			return Result{}, err
		}
	}
}

func (svc *Service) recomputeOnce(ctx context.Context, tutor tutoring.Tutor, scheme Scheme) (Result, error) {
	metrics, totals, err := svc.agg.Aggregate(ctx, tutor, scheme)
	if err != nil {
		return Result{}, err
	}

	score := ComputeScore(metrics, scheme.Weights)
	hasMin := totals.HasMinimumData(scheme)
	tier, maxStudents := Classify(score, hasMin)

	if tutor.TierSource == tutoring.TierSourceManual {
		svc.logger.Warn(fmt.Sprintf(
			"recompute overwrites manual override on tutor %s (was tier %d by %s: %s)",
			tutor.ID, tutor.CapacityTier, tutor.OverriddenBy, tutor.OverrideReason))
	}

	now := time.Now().UTC()
	snap := tutoring.Snapshot{
		PerformanceScore: score,
		CapacityTier:     tier,
		LegacyTier:       tier,
		MaxStudents:      maxStudents,
		Metrics:          metrics.Record(),
		TierSource:       tutoring.TierSourceAuto,
		UpdatedAt:        &now,
	}

	updated, err := svc.repos.Tutors.UpdateSnapshot(ctx, tutor.ID, snap, tutor.Version)
	if err != nil {
		if errors.Cause(err) == tutoring.ErrVersionConflict {
			return Result{}, err
		}
		return Result{}, errors.Wrap(err, "writing performance snapshot")
	}

	if updated.CapacityTier != tutor.CapacityTier {
		svc.notifyTierChange(tutor, updated.Snapshot)
	}

	return Result{
		Success:          true,
		TutorID:          tutor.ID,
		PerformanceScore: score,
		Tier:             tier,
		MaxStudents:      maxStudents,
		Metrics:          metrics.Record(),
		HasMinimumData:   hasMin,
		Message:          buildMessage(score, tier, maxStudents, hasMin, scheme),
	}, nil
}

func buildMessage(score float64, tier tutoring.Tier, maxStudents int, hasMin bool, scheme Scheme) string {
	if !hasMin && scheme.Gated() {
		return fmt.Sprintf(
			"Score computed at %.2f but capacity held at tier %d (%d student max): "+
				"at least %d completed sessions and %d graded assignment(s) are required before promotion.",
			score, tier, maxStudents, scheme.MinSessions, scheme.MinGradedAssignments)
	}
	return fmt.Sprintf("Performance score %.2f places the tutor in tier %d (up to %d concurrent students).",
		score, tier, maxStudents)
}

// notifyTierChange emails the tutor about their new capacity tier.
// Fire-and-forget: the email service sends concurrently and scoring never
// fails on notification problems.
func (svc *Service) notifyTierChange(tutor tutoring.Tutor, snap tutoring.Snapshot) {
	if tutor.Email == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: tutor.Name, Address: tutor.Email}},
		Subject:      "Your tutoring capacity tier changed",
		TemplateName: "tier-change",
		TemplateData: struct {
			Name        string
			Tier        tutoring.Tier
			MaxStudents int
			Score       float64
		}{tutor.Name, snap.CapacityTier, snap.MaxStudents, snap.PerformanceScore},
	})
}
