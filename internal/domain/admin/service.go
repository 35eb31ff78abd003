package admin

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fhirbootcamp/api/internal/domain/commerce"
)

// BillingSource exposes the slice of the purchase ledger the console needs.
type BillingSource interface {
	AllPurchases(ctx context.Context) ([]*commerce.Purchase, error)
	ExpireTrials(ctx context.Context) (int, error)
}

// Resetter clears one area's per-class state and reports how many records
// it dropped.
type Resetter func(ctx context.Context) (int, error)

type Service struct {
	flags   FlagRepository
	users   UserRepository
	billing BillingSource
	log     zerolog.Logger

	resetters map[string]Resetter
}

func NewService(flags FlagRepository, users UserRepository, billing BillingSource, log zerolog.Logger) *Service {
	return &Service{
		flags:     flags,
		users:     users,
		billing:   billing,
		log:       log,
		resetters: make(map[string]Resetter),
	}
}

// RegisterResetter adds an area to the class reset. Called once per domain
// during startup wiring.
func (s *Service) RegisterResetter(name string, fn Resetter) {
	s.resetters[name] = fn
}

func (s *Service) Flags(ctx context.Context) ([]*FeatureFlag, error) {
	return s.flags.List(ctx)
}

func (s *Service) Flag(ctx context.Context, key string) (*FeatureFlag, error) {
	return s.flags.GetByKey(ctx, key)
}

func (s *Service) SetFlag(ctx context.Context, key string, req FlagRequest) (*FeatureFlag, error) {
	if key == "" {
		return nil, fmt.Errorf("flag key is required")
	}
	flag := &FeatureFlag{
		Key:         key,
		Enabled:     req.Enabled,
		Description: req.Description,
		UpdatedAt:   time.Now().UTC(),
	}
	if existing, err := s.flags.GetByKey(ctx, key); err == nil && req.Description == "" {
		flag.Description = existing.Description
	}
	if err := s.flags.Upsert(ctx, flag); err != nil {
		return nil, err
	}
	s.log.Info().Str("flag", key).Bool("enabled", req.Enabled).Msg("feature flag updated")
	return flag, nil
}

func (s *Service) DeleteFlag(ctx context.Context, key string) error {
	return s.flags.Delete(ctx, key)
}

// IsEnabled reports a flag's state; unknown flags are off.
func (s *Service) IsEnabled(ctx context.Context, key string) bool {
	flag, err := s.flags.GetByKey(ctx, key)
	return err == nil && flag.Enabled
}

func (s *Service) Users(ctx context.Context) ([]*User, error) {
	return s.users.List(ctx)
}

func (s *Service) CreateUser(ctx context.Context, email, fullName string, roles []string) (*User, error) {
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if len(roles) == 0 {
		roles = []string{"student"}
	}
	u := &User{
		ID:        uuid.NewString(),
		Email:     email,
		FullName:  fullName,
		Roles:     roles,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// PromoteUser grants the admin role. Promoting an admin is a no-op.
func (s *Service) PromoteUser(ctx context.Context, userID string) (*User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.HasRole("admin") {
		return u, nil
	}
	u.Roles = append(u.Roles, "admin")
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", userID).Msg("user promoted to admin")
	return u, nil
}

// Billing aggregates the purchase ledger per user and status, expiring
// stale trials first so the overview reflects current standing.
func (s *Service) Billing(ctx context.Context) (*BillingOverview, error) {
	if s.billing == nil {
		return nil, fmt.Errorf("billing source not configured")
	}
	expired, err := s.billing.ExpireTrials(ctx)
	if err != nil {
		return nil, err
	}
	purchases, err := s.billing.AllPurchases(ctx)
	if err != nil {
		return nil, err
	}

	overview := &BillingOverview{
		TotalPurchases: len(purchases),
		ByStatus:       make(map[string]int),
		TrialsExpired:  expired,
	}
	perUser := make(map[string]*UserBilling)
	for _, p := range purchases {
		overview.ByStatus[p.Status]++
		if p.Status == commerce.StatusActive {
			overview.TotalRevenue += p.AmountPaid
		}
		ub, ok := perUser[p.UserID]
		if !ok {
			ub = &UserBilling{UserID: p.UserID}
			perUser[p.UserID] = ub
		}
		ub.Purchases++
		ub.AmountCts += p.AmountPaid
		ub.SKUs = append(ub.SKUs, p.ProductSKU)
	}
	for _, ub := range perUser {
		overview.ByUser = append(overview.ByUser, ub)
	}
	sort.Slice(overview.ByUser, func(i, j int) bool {
		return overview.ByUser[i].UserID < overview.ByUser[j].UserID
	})
	return overview, nil
}

// ResetClass clears every registered area. A failing area aborts the
// reset and reports which area failed.
func (s *Service) ResetClass(ctx context.Context) (*ResetReport, error) {
	report := &ResetReport{Cleared: make(map[string]int), ResetAt: time.Now().UTC()}
	names := make([]string, 0, len(s.resetters))
	for name := range s.resetters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		n, err := s.resetters[name](ctx)
		if err != nil {
			return nil, fmt.Errorf("reset %s: %w", name, err)
		}
		report.Cleared[name] = n
	}
	s.log.Info().Interface("cleared", report.Cleared).Msg("class state reset")
	return report, nil
}
