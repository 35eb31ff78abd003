package points

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service maintains the gamification ledger. Balances are derived by
// summing a user's entries, so every change goes through the ledger.
type Service struct {
	ledger LedgerRepository
	badges BadgeRepository
	log    zerolog.Logger

	// Serializes redemptions so a balance check and its debit are atomic.
	redeemMu sync.Mutex
}

func NewService(ledger LedgerRepository, badges BadgeRepository, log zerolog.Logger) *Service {
	return &Service{ledger: ledger, badges: badges, log: log}
}

func (s *Service) Balance(ctx context.Context, userID string) (int, error) {
	entries, err := s.ledger.ListByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, e := range entries {
		total += e.Points
	}
	return total, nil
}

// UserSummary returns the balance, earned badges, and full history for a user.
func (s *Service) UserSummary(ctx context.Context, userID string) (*Summary, error) {
	if userID == "" {
		return nil, fmt.Errorf("userId is required")
	}
	entries, err := s.ledger.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := &Summary{UserID: userID, Badges: []*Badge{}, History: entries}
	for _, e := range entries {
		summary.Balance += e.Points
		if e.AwardType == AwardBadgeEarned {
			if badge, err := s.badges.GetByCode(ctx, e.RefID); err == nil {
				summary.Badges = append(summary.Badges, badge)
			}
		}
	}
	if summary.History == nil {
		summary.History = []*LedgerEntry{}
	}
	return summary, nil
}

// AwardQuizCompletion grants points the first time a user completes a quiz.
// Re-grading the same quiz is reported as a no-op, not an error.
func (s *Service) AwardQuizCompletion(ctx context.Context, userID, quizID string, score int) (*AwardResult, error) {
	existing, err := s.ledger.Find(ctx, userID, AwardQuizCompletion, quizID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.duplicate(ctx, userID, "Points already awarded for this quiz")
	}
	return s.append(ctx, &LedgerEntry{
		UserID:    userID,
		AwardType: AwardQuizCompletion,
		RefID:     quizID,
		Points:    PointsQuizCompletion,
		Detail:    fmt.Sprintf("Quiz completed with score %d", score),
	})
}

// AwardBadge grants a badge's points once per (user, badge).
func (s *Service) AwardBadge(ctx context.Context, userID, badgeCode string) (*AwardResult, error) {
	badge, err := s.badges.GetByCode(ctx, badgeCode)
	if err != nil {
		return nil, err
	}
	existing, err := s.ledger.Find(ctx, userID, AwardBadgeEarned, badgeCode)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.duplicate(ctx, userID, "Badge already earned")
	}
	return s.append(ctx, &LedgerEntry{
		UserID:    userID,
		AwardType: AwardBadgeEarned,
		RefID:     badgeCode,
		Points:    badge.Points,
		Detail:    badge.Name,
	})
}

// AwardObservationPublished grants points for each distinct published
// observation. Republishing the same observation id is a no-op.
func (s *Service) AwardObservationPublished(ctx context.Context, userID, observationID string) (*AwardResult, error) {
	existing, err := s.ledger.Find(ctx, userID, AwardObservationPublished, observationID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.duplicate(ctx, userID, "Points already awarded for this observation")
	}
	return s.append(ctx, &LedgerEntry{
		UserID:    userID,
		AwardType: AwardObservationPublished,
		RefID:     observationID,
		Points:    PointsObservationPublished,
		Detail:    "Observation published to FHIR server",
	})
}

// Redeem debits points for an item. Insufficient balance blocks the
// redemption and reports the shortfall.
func (s *Service) Redeem(ctx context.Context, req RedeemRequest) (*RedeemResult, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("userId is required")
	}
	if req.ItemID == "" {
		return nil, fmt.Errorf("itemId is required")
	}
	if req.Cost <= 0 {
		return nil, fmt.Errorf("cost must be positive")
	}

	s.redeemMu.Lock()
	defer s.redeemMu.Unlock()

	balance, err := s.Balance(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if balance < req.Cost {
		return &RedeemResult{
			Error:           "Insufficient points",
			Required:        req.Cost,
			Available:       balance,
			Shortfall:       req.Cost - balance,
			RemainingPoints: balance,
		}, nil
	}

	entry := &LedgerEntry{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		AwardType: AwardRedemption,
		RefID:     req.ItemID,
		Points:    -req.Cost,
		Detail:    fmt.Sprintf("Redeemed %s", req.ItemID),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.ledger.Append(ctx, entry); err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", req.UserID).Str("item_id", req.ItemID).
		Int("cost", req.Cost).Msg("points redeemed")

	return &RedeemResult{
		Success:         true,
		ItemID:          req.ItemID,
		Cost:            req.Cost,
		RemainingPoints: balance - req.Cost,
	}, nil
}

func (s *Service) Badges(ctx context.Context) ([]*Badge, error) {
	return s.badges.List(ctx)
}

func (s *Service) ResetAll(ctx context.Context) error {
	return s.ledger.DeleteAll(ctx)
}

func (s *Service) append(ctx context.Context, entry *LedgerEntry) (*AwardResult, error) {
	entry.ID = uuid.NewString()
	entry.CreatedAt = time.Now().UTC()
	if err := s.ledger.Append(ctx, entry); err != nil {
		return nil, err
	}
	balance, err := s.Balance(ctx, entry.UserID)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", entry.UserID).Str("award_type", entry.AwardType).
		Str("ref_id", entry.RefID).Int("points", entry.Points).Msg("points awarded")
	return &AwardResult{Success: true, PointsAwarded: entry.Points, Balance: balance}, nil
}

func (s *Service) duplicate(ctx context.Context, userID, reason string) (*AwardResult, error) {
	balance, err := s.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &AwardResult{Success: false, Reason: reason, Balance: balance}, nil
}
