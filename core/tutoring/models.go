package tutoring

import (
	"time"
)

// Pairing statuses
const (
	PairingPending  = "pending"
	PairingAccepted = "accepted"
	PairingActive   = "active"
	PairingDeclined = "declined"
)

// Session statuses
const (
	SessionScheduled = "scheduled"
	SessionCompleted = "completed"
)

// Assignment statuses
const (
	AssignmentPending   = "pending"
	AssignmentSubmitted = "submitted"
	AssignmentGraded    = "graded"
)

// Tier is a discrete capacity class determining how many students a tutor
// may be concurrently paired with.
type Tier int

const (
	Tier1 Tier = 1
	Tier2 Tier = 2
	Tier3 Tier = 3
)

var tierCapacities = map[Tier]int{
	Tier1: 1,
	Tier2: 3,
	Tier3: 6,
}

// MaxStudentsForTier is the single source of the tier → capacity mapping.
// capacity is never set independently of the tier.
func MaxStudentsForTier(t Tier) int {
	if max, ok := tierCapacities[t]; ok {
		return max
	}
	return tierCapacities[Tier1]
}

// ValidTier reports whether t is one of the known capacity tiers.
func ValidTier(t Tier) bool {
	_, ok := tierCapacities[t]
	return ok
}

// Tier sources
const (
	TierSourceAuto   = "auto"
	TierSourceManual = "manual"
)

type (
	// Tutor is a tutor's marketplace profile. The performance snapshot fields
	// are overwritten wholesale on every recomputation; Version guards the
	// read-aggregate-write cycle with optimistic concurrency.
	Tutor struct {
		ID        string    `json:"id"`
		UserID    string    `json:"user_id"`
		Name      string    `json:"name"`
		Email     string    `json:"email"`
		Bio       string    `json:"bio,omitempty"`
		Subjects  []string  `json:"subjects,omitempty"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`

		Snapshot
	}

	// Snapshot is the stored result of the most recent scoring computation.
	Snapshot struct {
		PerformanceScore float64       `json:"performance_score"`
		CapacityTier     Tier          `json:"capacity_tier"`
		LegacyTier       Tier          `json:"tier"` // duplicate kept for older consumers
		MaxStudents      int           `json:"max_students"`
		Metrics          MetricsRecord `json:"metrics"`
		TierSource       string        `json:"tier_source"` // auto | manual
		OverrideReason   string        `json:"override_reason,omitempty"`
		OverriddenBy     string        `json:"overridden_by,omitempty"`
		UpdatedAt        *time.Time    `json:"performance_updated_at,omitempty"`
		Version          int64         `json:"-"`
	}

	// MetricsRecord is the per-metric breakdown persisted with a snapshot.
	MetricsRecord struct {
		AttendanceRate float64 `json:"attendance_rate"`
		AssignmentRate float64 `json:"assignment_rate"`
		ExamRate       float64 `json:"exam_rate"`
		RatingRate     float64 `json:"rating_rate"`
	}

	Pairing struct {
		ID        string    `json:"id"`
		TutorID   string    `json:"tutor_id"`
		StudentID string    `json:"student_id"`
		CourseID  string    `json:"course_id"`
		Status    string    `json:"status"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	}

	Session struct {
		ID          string    `json:"id"`
		TutorID     string    `json:"tutor_id"`
		StudentID   string    `json:"student_id"`
		PairingID   string    `json:"pairing_id,omitempty"`
		Status      string    `json:"status"`
		Attended    *bool     `json:"attended,omitempty"` // tutor-reported, set on completion
		Rating      *int      `json:"rating,omitempty"`   // student-submitted, 1-5
		ScheduledAt time.Time `json:"scheduled_at"`
		CreatedAt   time.Time `json:"created_at"`
		UpdatedAt   time.Time `json:"updated_at"`
	}

	Assignment struct {
		ID        string    `json:"id"`
		TutorID   string    `json:"tutor_id"`
		StudentID string    `json:"student_id"`
		CourseID  string    `json:"course_id"`
		PairingID string    `json:"pairing_id,omitempty"`
		Status    string    `json:"status"`
		Score     *float64  `json:"score,omitempty"` // fixed once graded
		MaxScore  float64   `json:"max_score"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	}

	// Exam scores are already percentages; their lifecycle is owned elsewhere.
	Exam struct {
		ID        string    `json:"id"`
		StudentID string    `json:"student_id"`
		CourseID  string    `json:"course_id"`
		Score     float64   `json:"score"`
		TakenAt   time.Time `json:"taken_at"`
	}

	Review struct {
		ID        string    `json:"id"`
		TutorID   string    `json:"tutor_id"`
		StudentID string    `json:"student_id"`
		Rating    int       `json:"rating"` // 1-5
		Comment   string    `json:"comment,omitempty"`
		CreatedAt time.Time `json:"created_at"`
	}
)

// CountsTowardMetrics reports whether sessions & assignments recorded against
// this pairing feed the pairing-scoped aggregation.
func (p *Pairing) CountsTowardMetrics() bool {
	return p.Status == PairingAccepted || p.Status == PairingActive
}

func (s *Session) IsCompleted() bool { return s.Status == SessionCompleted }

func (a *Assignment) IsGraded() bool { return a.Status == AssignmentGraded }

// GradePct is the graded score as a percentage of MaxScore. Zero when the
// assignment is ungraded or has no max score.
func (a *Assignment) GradePct() float64 {
	if !a.IsGraded() || a.Score == nil || a.MaxScore <= 0 {
		return 0
	}
	return *a.Score / a.MaxScore * 100
}
