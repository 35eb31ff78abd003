package points

import "context"

type LedgerRepository interface {
	Append(ctx context.Context, entry *LedgerEntry) error
	ListByUser(ctx context.Context, userID string) ([]*LedgerEntry, error)
	// Find returns the first entry matching (userID, awardType, refID),
	// or nil when none exists.
	Find(ctx context.Context, userID, awardType, refID string) (*LedgerEntry, error)
	DeleteAll(ctx context.Context) error
}

type BadgeRepository interface {
	Upsert(ctx context.Context, badge *Badge) error
	GetByCode(ctx context.Context, code string) (*Badge, error)
	List(ctx context.Context) ([]*Badge, error)
}
