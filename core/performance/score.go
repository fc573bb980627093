package performance

import (
	"github.com/walimuhq/walimu/core"
	"github.com/walimuhq/walimu/core/tutoring"
)

// Metrics are the four aggregated ratios, each in [0, 100]. A metric with no
// underlying data is 0 and still contributes 0 to the weighted sum; sparse
// history deliberately understates performance.
type Metrics struct {
	Attendance  float64
	Assignments float64
	Exams       float64
	Ratings     float64
}

// Totals carry the raw volumes behind the metrics; the minimum-data gate is
// evaluated against them.
type Totals struct {
	Sessions          int
	CompletedSessions int
	GradedAssignments int
	Exams             int
	Ratings           int
}

// HasMinimumData applies the scheme's gate: enough completed sessions AND
// enough graded assignments. Always true for ungated schemes.
func (t Totals) HasMinimumData(s Scheme) bool {
	return t.CompletedSessions >= s.MinSessions && t.GradedAssignments >= s.MinGradedAssignments
}

// Record converts the metrics to their persisted breakdown form.
func (m Metrics) Record() tutoring.MetricsRecord {
	return tutoring.MetricsRecord{
		AttendanceRate: core.Round2(m.Attendance),
		AssignmentRate: core.Round2(m.Assignments),
		ExamRate:       core.Round2(m.Exams),
		RatingRate:     core.Round2(m.Ratings),
	}
}

// ComputeScore combines the metrics into a single weighted percentage.
// Pure: no side effects. Each input ratio is clamped to [0, 100] first so
// malformed upstream data (eg. assignment score > maxScore) cannot push the
// result out of range; the output is clamped and rounded to 2 decimals.
func ComputeScore(m Metrics, w Weights) float64 {
	score := core.Clamp(m.Attendance, 0, 100)*w.Attendance +
		core.Clamp(m.Assignments, 0, 100)*w.Assignments +
		core.Clamp(m.Exams, 0, 100)*w.Exams +
		core.Clamp(m.Ratings, 0, 100)*w.Ratings
	return core.Round2(core.Clamp(score, 0, 100))
}
