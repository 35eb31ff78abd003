package main

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/fhirbootcamp/api/internal/domain/admin"
	"github.com/fhirbootcamp/api/internal/domain/byod"
	"github.com/fhirbootcamp/api/internal/domain/commerce"
	"github.com/fhirbootcamp/api/internal/domain/ingest"
	"github.com/fhirbootcamp/api/internal/domain/lab"
	"github.com/fhirbootcamp/api/internal/domain/points"
	"github.com/fhirbootcamp/api/internal/domain/quiz"
	"github.com/fhirbootcamp/api/internal/platform/artifacts"
	"github.com/fhirbootcamp/api/internal/platform/fhir"
)

type stubPublisher struct{}

func (stubPublisher) CreateResource(_ context.Context, _, _ string, _ map[string]interface{}) (*fhir.CreateResult, error) {
	return &fhir.CreateResult{ID: "obs-1"}, nil
}

func TestCourseTitleAdapter(t *testing.T) {
	ctx := context.Background()
	catalog := commerce.NewMemCatalogRepository()
	if err := commerce.SeedCatalog(ctx, catalog); err != nil {
		t.Fatalf("SeedCatalog failed: %v", err)
	}
	svc := commerce.NewService(catalog, commerce.NewMemPurchaseRepository(), "", zerolog.Nop())
	adapter := &courseTitleAdapter{svc: svc}

	title, err := adapter.CourseTitle(ctx, "health-data-bootcamp")
	if err != nil {
		t.Fatalf("CourseTitle failed: %v", err)
	}
	if title == "" {
		t.Error("expected a course title")
	}

	if _, err := adapter.CourseTitle(ctx, "missing"); err == nil {
		t.Error("expected error for unknown course")
	}
}

func TestGamificationWiring(t *testing.T) {
	ctx := context.Background()

	store, err := artifacts.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	labSvc := lab.NewService(lab.NewMemProgressRepository(), lab.NewMemArtifactRepository(), store)
	ingestSvc := ingest.NewService(ingest.NewMemBundleRepository(), labSvc, nil, zerolog.Nop())

	quizzes, err := quiz.LoadFixtures()
	if err != nil {
		t.Fatalf("LoadFixtures failed: %v", err)
	}
	quizSvc := quiz.NewService(quiz.NewMemQuizRepository(quizzes), quiz.NewMemAttemptRepository())

	byodSvc := byod.NewService(byod.NewMemSessionRepository(), byod.NewMemObservationRepository(),
		byod.NewMemAppRepository(), stubPublisher{}, labSvc, zerolog.Nop())

	badges := points.NewMemBadgeRepository()
	if err := points.SeedBadges(ctx, badges); err != nil {
		t.Fatalf("SeedBadges failed: %v", err)
	}
	pointsSvc := points.NewService(points.NewMemLedgerRepository(), badges, zerolog.Nop())

	wireGamification(ingestSvc, quizSvc, byodSvc, pointsSvc, zerolog.Nop())

	// Pass every quiz with the correct answers; the third pass should also
	// earn the QUIZ_MASTER badge.
	for _, q := range quizzes {
		req := quiz.GradeRequest{SessionID: "sess-1"}
		for _, question := range q.Questions {
			for _, choice := range question.Choices {
				if choice.Correct {
					req.Answers = append(req.Answers, quiz.AnswerRequest{
						QuestionID: question.ID, ChoiceID: choice.ID,
					})
				}
			}
		}
		result, err := quizSvc.Grade(ctx, q.Slug, req)
		if err != nil {
			t.Fatalf("Grade %s failed: %v", q.Slug, err)
		}
		if !result.Passed {
			t.Fatalf("full-marks attempt on %s did not pass: %+v", q.Slug, result)
		}
	}

	summary, err := pointsSvc.UserSummary(ctx, "sess-1")
	if err != nil {
		t.Fatalf("UserSummary failed: %v", err)
	}
	// 3 quizzes x 25 points plus the 25-point QUIZ_MASTER badge.
	if summary.Balance != 100 {
		t.Errorf("balance = %d, want 100", summary.Balance)
	}
	foundBadge := false
	for _, b := range summary.Badges {
		if b.Code == "QUIZ_MASTER" {
			foundBadge = true
		}
	}
	if !foundBadge {
		t.Errorf("QUIZ_MASTER badge not awarded: %+v", summary.Badges)
	}

	// Re-grading does not double-award.
	req := quiz.GradeRequest{SessionID: "sess-1"}
	q := quizzes[0]
	for _, question := range q.Questions {
		for _, choice := range question.Choices {
			if choice.Correct {
				req.Answers = append(req.Answers, quiz.AnswerRequest{
					QuestionID: question.ID, ChoiceID: choice.ID,
				})
			}
		}
	}
	if _, err := quizSvc.Grade(ctx, q.Slug, req); err != nil {
		t.Fatalf("re-grade failed: %v", err)
	}
	balance, err := pointsSvc.Balance(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Balance failed: %v", err)
	}
	if balance != 100 {
		t.Errorf("balance after re-grade = %d, want 100", balance)
	}
}

func TestResetterRegistration(t *testing.T) {
	ctx := context.Background()

	store, err := artifacts.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	labSvc := lab.NewService(lab.NewMemProgressRepository(), lab.NewMemArtifactRepository(), store)
	ingestSvc := ingest.NewService(ingest.NewMemBundleRepository(), labSvc, nil, zerolog.Nop())
	quizzes, err := quiz.LoadFixtures()
	if err != nil {
		t.Fatalf("LoadFixtures failed: %v", err)
	}
	quizSvc := quiz.NewService(quiz.NewMemQuizRepository(quizzes), quiz.NewMemAttemptRepository())
	byodSvc := byod.NewService(byod.NewMemSessionRepository(), byod.NewMemObservationRepository(),
		byod.NewMemAppRepository(), stubPublisher{}, labSvc, zerolog.Nop())
	badges := points.NewMemBadgeRepository()
	if err := points.SeedBadges(ctx, badges); err != nil {
		t.Fatalf("SeedBadges failed: %v", err)
	}
	pointsSvc := points.NewService(points.NewMemLedgerRepository(), badges, zerolog.Nop())

	catalog := commerce.NewMemCatalogRepository()
	if err := commerce.SeedCatalog(ctx, catalog); err != nil {
		t.Fatalf("SeedCatalog failed: %v", err)
	}
	commerceSvc := commerce.NewService(catalog, commerce.NewMemPurchaseRepository(), "", zerolog.Nop())

	adminSvc := admin.NewService(admin.NewMemFlagRepository(), admin.NewMemUserRepository(), commerceSvc, zerolog.Nop())
	registerResetters(adminSvc, labSvc, ingestSvc, quizSvc, byodSvc, pointsSvc)

	if _, err := labSvc.UpsertProgress(ctx, &lab.LabProgress{SessionID: "sess-1", LabDay: 1, StepName: "connect", Completed: true}); err != nil {
		t.Fatalf("UpsertProgress failed: %v", err)
	}

	report, err := adminSvc.ResetClass(ctx)
	if err != nil {
		t.Fatalf("ResetClass failed: %v", err)
	}
	if report.Cleared["lab"] != 1 {
		t.Errorf("lab cleared = %d, want 1", report.Cleared["lab"])
	}
	for _, area := range []string{"lab", "bundles", "quizzes", "byod", "points"} {
		if _, ok := report.Cleared[area]; !ok {
			t.Errorf("area %s missing from reset report", area)
		}
	}
}
