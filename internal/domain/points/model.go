package points

import "time"

// Award types recorded in the ledger. Quiz and badge awards fire at most
// once per (user, ref) pair; observation awards repeat for each distinct
// observation.
const (
	AwardQuizCompletion        = "quiz_completion"
	AwardBadgeEarned           = "badge_earned"
	AwardObservationPublished  = "observation_published"
	AwardRedemption            = "redemption"
	PointsQuizCompletion       = 25
	PointsObservationPublished = 10
)

type LedgerEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	AwardType string    `json:"awardType"`
	RefID     string    `json:"refId"`
	Points    int       `json:"points"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Badge struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Points      int    `json:"points"`
}

// AwardResult reports the outcome of an award attempt. Duplicate awards
// return Success=false with a human-readable reason instead of an error.
type AwardResult struct {
	Success       bool   `json:"success"`
	PointsAwarded int    `json:"pointsAwarded,omitempty"`
	Reason        string `json:"reason,omitempty"`
	Balance       int    `json:"balance"`
}

type Summary struct {
	UserID  string         `json:"userId"`
	Balance int            `json:"balance"`
	Badges  []*Badge       `json:"badges"`
	History []*LedgerEntry `json:"history"`
}

type RedeemRequest struct {
	UserID string `json:"userId"`
	ItemID string `json:"itemId"`
	Cost   int    `json:"cost"`
}

type RedeemResult struct {
	Success         bool   `json:"success"`
	ItemID          string `json:"itemId,omitempty"`
	Cost            int    `json:"cost,omitempty"`
	RemainingPoints int    `json:"remainingPoints"`
	Error           string `json:"error,omitempty"`
	Required        int    `json:"required,omitempty"`
	Available       int    `json:"available,omitempty"`
	Shortfall       int    `json:"shortfall,omitempty"`
}
