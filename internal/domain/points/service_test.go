package points

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
)

func newPointsService(t *testing.T) *Service {
	t.Helper()
	badges := NewMemBadgeRepository()
	if err := SeedBadges(context.Background(), badges); err != nil {
		t.Fatalf("SeedBadges failed: %v", err)
	}
	return NewService(NewMemLedgerRepository(), badges, zerolog.Nop())
}

func TestAwardQuizCompletion_OncePerQuiz(t *testing.T) {
	svc := newPointsService(t)
	ctx := context.Background()

	first, err := svc.AwardQuizCompletion(ctx, "user-123", "day1_quiz", 85)
	if err != nil {
		t.Fatalf("AwardQuizCompletion failed: %v", err)
	}
	if !first.Success || first.PointsAwarded != 25 {
		t.Errorf("first award = %+v", first)
	}

	second, err := svc.AwardQuizCompletion(ctx, "user-123", "day1_quiz", 90)
	if err != nil {
		t.Fatalf("duplicate award errored: %v", err)
	}
	if second.Success {
		t.Error("duplicate award should not succeed")
	}
	if second.Reason != "Points already awarded for this quiz" {
		t.Errorf("reason = %q", second.Reason)
	}
	if second.Balance != 25 {
		t.Errorf("balance after duplicate = %d, want 25", second.Balance)
	}

	// A different quiz still awards.
	third, err := svc.AwardQuizCompletion(ctx, "user-123", "day2_quiz", 100)
	if err != nil {
		t.Fatalf("AwardQuizCompletion failed: %v", err)
	}
	if !third.Success || third.Balance != 50 {
		t.Errorf("third award = %+v", third)
	}
}

func TestAwardBadge_OncePerBadge(t *testing.T) {
	svc := newPointsService(t)
	ctx := context.Background()

	first, err := svc.AwardBadge(ctx, "user-123", "BYOD_CHAMP")
	if err != nil {
		t.Fatalf("AwardBadge failed: %v", err)
	}
	if !first.Success || first.PointsAwarded != 50 {
		t.Errorf("first award = %+v", first)
	}

	second, err := svc.AwardBadge(ctx, "user-123", "BYOD_CHAMP")
	if err != nil {
		t.Fatalf("duplicate badge errored: %v", err)
	}
	if second.Success || second.Reason != "Badge already earned" {
		t.Errorf("duplicate badge = %+v", second)
	}

	if _, err := svc.AwardBadge(ctx, "user-123", "NO_SUCH_BADGE"); err != ErrBadgeNotFound {
		t.Errorf("expected ErrBadgeNotFound, got %v", err)
	}

	summary, err := svc.UserSummary(ctx, "user-123")
	if err != nil {
		t.Fatalf("UserSummary failed: %v", err)
	}
	if len(summary.Badges) != 1 || summary.Badges[0].Code != "BYOD_CHAMP" {
		t.Errorf("badges = %+v", summary.Badges)
	}
}

func TestAwardObservationPublished_RepeatsPerObservation(t *testing.T) {
	svc := newPointsService(t)
	ctx := context.Background()

	if r, _ := svc.AwardObservationPublished(ctx, "user-123", "obs-001"); !r.Success {
		t.Errorf("obs-001 award = %+v", r)
	}
	if r, _ := svc.AwardObservationPublished(ctx, "user-123", "obs-002"); !r.Success || r.Balance != 20 {
		t.Errorf("obs-002 award = %+v", r)
	}
	// Republishing the same observation does not double-award.
	if r, _ := svc.AwardObservationPublished(ctx, "user-123", "obs-001"); r.Success || r.Balance != 20 {
		t.Errorf("duplicate obs award = %+v", r)
	}
}

func TestRedeem(t *testing.T) {
	svc := newPointsService(t)
	ctx := context.Background()

	for _, quiz := range []string{"q1", "q2", "q3"} {
		if _, err := svc.AwardQuizCompletion(ctx, "user-123", quiz, 90); err != nil {
			t.Fatalf("award failed: %v", err)
		}
	}
	// Balance is now 75.

	result, err := svc.Redeem(ctx, RedeemRequest{UserID: "user-123", ItemID: "template_001", Cost: 50})
	if err != nil {
		t.Fatalf("Redeem failed: %v", err)
	}
	if !result.Success || result.RemainingPoints != 25 {
		t.Errorf("redeem result = %+v", result)
	}

	blocked, err := svc.Redeem(ctx, RedeemRequest{UserID: "user-123", ItemID: "premium_template", Cost: 100})
	if err != nil {
		t.Fatalf("Redeem failed: %v", err)
	}
	if blocked.Success {
		t.Error("redemption over balance should be blocked")
	}
	if blocked.Error != "Insufficient points" || blocked.Required != 100 ||
		blocked.Available != 25 || blocked.Shortfall != 75 {
		t.Errorf("blocked result = %+v", blocked)
	}

	balance, err := svc.Balance(ctx, "user-123")
	if err != nil {
		t.Fatalf("Balance failed: %v", err)
	}
	if balance != 25 {
		t.Errorf("balance = %d, want 25", balance)
	}

	if _, err := svc.Redeem(ctx, RedeemRequest{UserID: "", ItemID: "x", Cost: 1}); err == nil {
		t.Error("expected error for missing userId")
	}
	if _, err := svc.Redeem(ctx, RedeemRequest{UserID: "u", ItemID: "x", Cost: 0}); err == nil {
		t.Error("expected error for non-positive cost")
	}
}

func TestUserSummaryHistory(t *testing.T) {
	svc := newPointsService(t)
	ctx := context.Background()

	if _, err := svc.AwardQuizCompletion(ctx, "user-123", "q1", 80); err != nil {
		t.Fatalf("award failed: %v", err)
	}
	if _, err := svc.Redeem(ctx, RedeemRequest{UserID: "user-123", ItemID: "sticker", Cost: 10}); err != nil {
		t.Fatalf("redeem failed: %v", err)
	}

	summary, err := svc.UserSummary(ctx, "user-123")
	if err != nil {
		t.Fatalf("UserSummary failed: %v", err)
	}
	if summary.Balance != 15 {
		t.Errorf("balance = %d, want 15", summary.Balance)
	}
	if len(summary.History) != 2 {
		t.Fatalf("history length = %d, want 2", len(summary.History))
	}
	if summary.History[1].Points != -10 {
		t.Errorf("redemption entry points = %d, want -10", summary.History[1].Points)
	}

	if _, err := svc.UserSummary(ctx, ""); err == nil {
		t.Error("expected error for empty userId")
	}
}
