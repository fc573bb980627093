package tests

import (
	"context"
	"net/http"
	"testing"

	echoapi "github.com/walimuhq/walimu/apps/api/echo"
	"github.com/walimuhq/walimu/core/performance"
	"github.com/walimuhq/walimu/core/tutoring"
	"github.com/walimuhq/walimu/core/user"
	emailsvc "github.com/walimuhq/walimu/services/email"
	testutil "github.com/walimuhq/walimu/tests"
)

func seedSession(t *testing.T, tutorID, pairingID string, attended bool, rating *int) {
	t.Helper()

	_, err := sessionRepo.CreateSession(context.Background(), tutoring.Session{
		TutorID:   tutorID,
		PairingID: pairingID,
		Status:    tutoring.SessionCompleted,
		Attended:  &attended,
		Rating:    rating,
	})
	if err != nil {
		t.Fatalf("seedSession(): %v", err)
	}
}

func seedGradedAssignment(t *testing.T, tutorID, pairingID string, score, maxScore float64) {
	t.Helper()

	_, err := assignmentRepo.CreateAssignment(context.Background(), tutoring.Assignment{
		TutorID:   tutorID,
		PairingID: pairingID,
		Status:    tutoring.AssignmentGraded,
		Score:     &score,
		MaxScore:  maxScore,
	})
	if err != nil {
		t.Fatalf("seedGradedAssignment(): %v", err)
	}
}

func iPtr(i int) *int { return &i }

func Test_performanceApi_recalculate(t *testing.T) {
	db.Reset()
	emailsvc.ClearSentMessages()

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin01", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	student := testutil.CreateUser(t, usrRepo, "Hero", "hero01", "hero@test.cd", "", []string{user.RoleStudent}, true)
	adminToken := getToken(t, admin)

	// 4/4 attended (100), 1 graded at 80%, ratings 5 & 4 (avg 4.5)
	tut := testutil.CreateTutor(t, tutorRepo, "Awe Tutor", "tutor@test.cd")
	seedSession(t, tut.ID, "", true, iPtr(5))
	seedSession(t, tut.ID, "", true, iPtr(4))
	seedSession(t, tut.ID, "", true, nil)
	seedSession(t, tut.ID, "", true, nil)
	seedGradedAssignment(t, tut.ID, "", 80, 100)

	// strong numbers but not enough history for promotion
	newbie := testutil.CreateTutor(t, tutorRepo, "Newbie", "newbie@test.cd")
	seedSession(t, newbie.ID, "", true, iPtr(5))
	seedSession(t, newbie.ID, "", true, iPtr(5))
	seedGradedAssignment(t, newbie.ID, "", 50, 100)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{
			name: "Admin required", token: getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marshalObj(t, errPermDenied),
		},
		{
			name: "required fields", token: adminToken, wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpFieldErrs{Error: map[string]string{"tutor": "this field is required"}}),
		},
		{
			name: "unknown tutor", token: adminToken, wantCode: http.StatusNotFound,
			body:     marshalObj(t, echoapi.RecalculateRequest{Tutor: "b06ae594-f1c6-47e9-b40f-e12c4a6d8e24"}),
			wantData: marshalObj(t, errTutorNotFound),
		},
		{
			name: "scored & promoted", token: adminToken, wantCode: http.StatusOK,
			body: marshalObj(t, echoapi.RecalculateRequest{Tutor: tut.ID}),
			wantData: marshalObj(t, performance.Result{
				Success:          true,
				TutorID:          tut.ID,
				PerformanceScore: 90, // 100*.30 + 80*.30 + 90*.40
				Tier:             tutoring.Tier3,
				MaxStudents:      6,
				Metrics:          tutoring.MetricsRecord{AttendanceRate: 100, AssignmentRate: 80, RatingRate: 90},
				HasMinimumData:   true,
				Message:          "Performance score 90.00 places the tutor in tier 3 (up to 6 concurrent students).",
			}),
		},
		{
			name: "tutor found by email", token: adminToken, wantCode: http.StatusOK,
			body: marshalObj(t, echoapi.RecalculateRequest{Tutor: "newbie@test.cd"}),
			wantData: marshalObj(t, performance.Result{
				Success:          true,
				TutorID:          newbie.ID,
				PerformanceScore: 85, // 100*.30 + 50*.30 + 100*.40
				Tier:             tutoring.Tier1,
				MaxStudents:      1,
				Metrics:          tutoring.MetricsRecord{AttendanceRate: 100, AssignmentRate: 50, RatingRate: 100},
				HasMinimumData:   false,
				Message: "Score computed at 85.00 but capacity held at tier 1 (1 student max): " +
					"at least 3 completed sessions and 1 graded assignment(s) are required before promotion.",
			}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/performance/recalculate"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// the snapshot is persisted with a bumped version
	refreshed, err := tutorRepo.GetTutor(context.Background(), tutoring.TutorGetFilter{ID: tut.ID})
	if err != nil {
		t.Fatalf("GetTutor(): %v", err)
	}
	if refreshed.CapacityTier != tutoring.Tier3 || refreshed.MaxStudents != 6 {
		t.Errorf("failed! stored tier = %d (max %d); want 3 (max 6)", refreshed.CapacityTier, refreshed.MaxStudents)
	}
	if refreshed.Version != 1 {
		t.Errorf("failed! Version = %d; want 1", refreshed.Version)
	}

	// the promoted tutor was notified; the held one was not
	if len(emailsvc.SentMessages) != 1 {
		t.Fatalf("failed! len(SentMessages) = %d; want 1", len(emailsvc.SentMessages))
	}
	if to := emailsvc.SentMessages[0].To[0].Address; to != "tutor@test.cd" {
		t.Errorf("failed! To = %q; want tutor@test.cd", to)
	}
}

func Test_performanceApi_calculate(t *testing.T) {
	db.Reset()
	emailsvc.ClearSentMessages()

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin01", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	student := testutil.CreateUser(t, usrRepo, "Hero", "hero01", "hero@test.cd", "", []string{user.RoleStudent}, true)
	adminToken := getToken(t, admin)

	// no pairings at all; everything scores zero but a baseline is written
	idle := testutil.CreateTutor(t, tutorRepo, "Idle", "idle@test.cd")

	// one active pairing: 2/2 attended (100), 1 graded at 60%, one exam at 70,
	// one review at 4/5
	tut := testutil.CreateTutor(t, tutorRepo, "Awe Tutor", "tutor@test.cd")
	pairing, err := pairingRepo.CreatePairing(context.Background(), tutoring.Pairing{
		TutorID:   tut.ID,
		StudentID: "s1",
		Status:    tutoring.PairingActive,
	})
	if err != nil {
		t.Fatalf("CreatePairing(): %v", err)
	}
	seedSession(t, tut.ID, pairing.ID, true, nil)
	seedSession(t, tut.ID, pairing.ID, true, nil)
	seedGradedAssignment(t, tut.ID, pairing.ID, 60, 100)
	if _, err = examRepo.CreateExam(context.Background(), tutoring.Exam{StudentID: "s1", Score: 70}); err != nil {
		t.Fatalf("CreateExam(): %v", err)
	}
	if _, err = reviewRepo.CreateReview(context.Background(), tutoring.Review{TutorID: tut.ID, Rating: 4}); err != nil {
		t.Fatalf("CreateReview(): %v", err)
	}

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{
			name: "Admin required", token: getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marshalObj(t, errPermDenied),
		},
		{
			name: "required fields", token: adminToken, wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpFieldErrs{Error: map[string]string{"tutorId": "this field is required"}}),
		},
		{
			name: "unknown tutor", token: adminToken, wantCode: http.StatusNotFound,
			body:     marshalObj(t, echoapi.CalculateRequest{TutorID: "b06ae594-f1c6-47e9-b40f-e12c4a6d8e24"}),
			wantData: marshalObj(t, errTutorNotFound),
		},
		{
			name: "no pairings scores zero", token: adminToken, wantCode: http.StatusOK,
			body: marshalObj(t, echoapi.CalculateRequest{TutorID: idle.ID}),
			wantData: marshalObj(t, performance.Result{
				Success:        true,
				TutorID:        idle.ID,
				Tier:           tutoring.Tier1,
				MaxStudents:    1,
				HasMinimumData: true,
				Message:        "Performance score 0.00 places the tutor in tier 1 (up to 1 concurrent students).",
			}),
		},
		{
			name: "scored per active pairing", token: adminToken, wantCode: http.StatusOK,
			body: marshalObj(t, echoapi.CalculateRequest{TutorID: tut.ID}),
			wantData: marshalObj(t, performance.Result{
				Success:          true,
				TutorID:          tut.ID,
				PerformanceScore: 78.5, // 100*.30 + 60*.25 + 70*.25 + 80*.20
				Tier:             tutoring.Tier2,
				MaxStudents:      3,
				Metrics:          tutoring.MetricsRecord{AttendanceRate: 100, AssignmentRate: 60, ExamRate: 70, RatingRate: 80},
				HasMinimumData:   true,
				Message:          "Performance score 78.50 places the tutor in tier 2 (up to 3 concurrent students).",
			}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/performance/calculate"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_performanceApi_overrideTier(t *testing.T) {
	db.Reset()
	emailsvc.ClearSentMessages()

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin01", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	student := testutil.CreateUser(t, usrRepo, "Hero", "hero01", "hero@test.cd", "", []string{user.RoleStudent}, true)
	adminToken := getToken(t, admin)

	tut := testutil.CreateTutor(t, tutorRepo, "Awe Tutor", "tutor@test.cd")

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{
			name: "Admin required", token: getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marshalObj(t, errPermDenied),
		},
		{
			name: "required fields", token: adminToken, wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpFieldErrs{Error: map[string]string{
				"tutorId": "this field is required",
				"newTier": "this field is required",
			}}),
		},
		{
			name: "reason required", token: adminToken, wantCode: http.StatusBadRequest,
			body:     marshalObj(t, performance.OverrideTier{TutorID: tut.ID, NewTier: tutoring.Tier2}),
			wantData: marshalObj(t, httpFieldErrs{Error: map[string]string{"reason": "a justification is required to override a tutor's tier"}}),
		},
		{
			name: "invalid tier", token: adminToken, wantCode: http.StatusBadRequest,
			body:     marshalObj(t, performance.OverrideTier{TutorID: tut.ID, NewTier: tutoring.Tier(9), Reason: "because"}),
			wantData: marshalObj(t, httpFieldErrs{Error: map[string]string{"newTier": "tier must be 1, 2 or 3"}}),
		},
		{
			name: "unknown tutor", token: adminToken, wantCode: http.StatusNotFound,
			body:     marshalObj(t, performance.OverrideTier{TutorID: "b06ae594-f1c6-47e9-b40f-e12c4a6d8e24", NewTier: tutoring.Tier2, Reason: "because"}),
			wantData: marshalObj(t, errTutorNotFound),
		},
		{
			name: "tier overridden", token: adminToken, wantCode: http.StatusOK,
			body: marshalObj(t, performance.OverrideTier{TutorID: tut.ID, NewTier: tutoring.Tier2, Reason: "pilot program"}),
			wantData: marshalObj(t, performance.Result{
				Success:        true,
				TutorID:        tut.ID,
				Tier:           tutoring.Tier2,
				MaxStudents:    3,
				HasMinimumData: true,
				Message:        "Tier manually set to 2 by an administrator.",
			}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/performance/override-tier"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// who & why are recorded; the admin's identity defaults from the token
	refreshed, err := tutorRepo.GetTutor(context.Background(), tutoring.TutorGetFilter{ID: tut.ID})
	if err != nil {
		t.Fatalf("GetTutor(): %v", err)
	}
	if refreshed.TierSource != tutoring.TierSourceManual {
		t.Errorf("failed! TierSource = %q; want %q", refreshed.TierSource, tutoring.TierSourceManual)
	}
	if refreshed.OverrideReason != "pilot program" {
		t.Errorf("failed! OverrideReason = %q; want %q", refreshed.OverrideReason, "pilot program")
	}
	if refreshed.OverriddenBy != admin.ID {
		t.Errorf("failed! OverriddenBy = %q; want %q", refreshed.OverriddenBy, admin.ID)
	}
	if len(emailsvc.SentMessages) != 1 {
		t.Errorf("failed! len(SentMessages) = %d; want 1", len(emailsvc.SentMessages))
	}
}

func Test_performanceApi_snapshot(t *testing.T) {
	db.Reset()

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin01", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	student := testutil.CreateUser(t, usrRepo, "Hero", "hero01", "hero@test.cd", "", []string{user.RoleStudent}, true)
	tutorUsr := testutil.CreateUser(t, usrRepo, "Awe Tutor", "tutor01", "tutor@test.cd", "", []string{user.RoleTutor}, true)

	tut, err := tutorRepo.CreateTutor(context.Background(), tutoring.Tutor{
		UserID: tutorUsr.ID,
		Name:   tutorUsr.Name,
		Email:  tutorUsr.Email,
	})
	if err != nil {
		t.Fatalf("CreateTutor(): %v", err)
	}

	tests := []httpTest{
		{name: "Auth required", path: "/v1/tutors/" + tut.ID + "/performance", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{
			name: "Other users denied", path: "/v1/tutors/" + tut.ID + "/performance", token: getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marshalObj(t, errPermDenied),
		},
		{
			name: "Tutor reads own snapshot", path: "/v1/tutors/" + tut.ID + "/performance", token: getToken(t, tutorUsr),
			wantCode: http.StatusOK, wantData: marshalObj(t, tut),
		},
		{
			name: "Admin reads any snapshot", path: "/v1/tutors/" + tut.ID + "/performance", token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marshalObj(t, tut),
		},
		{
			name: "Unknown tutor", path: "/v1/tutors/b06ae594-f1c6-47e9-b40f-e12c4a6d8e24/performance", token: getToken(t, admin),
			wantCode: http.StatusNotFound, wantData: marshalObj(t, errTutorNotFound),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
