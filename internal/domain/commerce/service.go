package commerce

import (
	"context"
	"crypto/hmac"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

var ErrBadSignature = errors.New("webhook signature mismatch")

type Service struct {
	catalog   CatalogRepository
	purchases PurchaseRepository
	log       zerolog.Logger

	// webhookKey is the shared secret checked against the signature header.
	// Empty disables verification (dev mode).
	webhookKey string
}

func NewService(catalog CatalogRepository, purchases PurchaseRepository, webhookKey string, log zerolog.Logger) *Service {
	return &Service{catalog: catalog, purchases: purchases, webhookKey: webhookKey, log: log}
}

func (s *Service) Products(ctx context.Context) ([]*Product, error) {
	return s.catalog.Products(ctx)
}

func (s *Service) Prices(ctx context.Context) ([]*Price, error) {
	return s.catalog.Prices(ctx)
}

func (s *Service) Courses(ctx context.Context) ([]*Course, error) {
	return s.catalog.Courses(ctx)
}

func (s *Service) Course(ctx context.Context, slug string) (*Course, error) {
	return s.catalog.CourseBySlug(ctx, slug)
}

// UpsertCourse creates or replaces a catalog course. A course that names a
// required SKU must point at a known product.
func (s *Service) UpsertCourse(ctx context.Context, course *Course) error {
	if course.Slug == "" {
		return fmt.Errorf("course slug is required")
	}
	if course.Title == "" {
		return fmt.Errorf("course title is required")
	}
	if course.RequiresProductSKU != "" {
		if _, err := s.catalog.ProductBySKU(ctx, course.RequiresProductSKU); err != nil {
			return fmt.Errorf("unknown product sku %s", course.RequiresProductSKU)
		}
	}
	return s.catalog.UpsertCourse(ctx, course)
}

// HasAccess reports whether a user may open a course. Free courses are open
// to everyone; paid ones require an active or trialing purchase of the
// required SKU.
func (s *Service) HasAccess(ctx context.Context, userID, courseSlug string) (bool, error) {
	course, err := s.catalog.CourseBySlug(ctx, courseSlug)
	if err != nil {
		return false, err
	}
	if course.IsFree || course.RequiresProductSKU == "" {
		return true, nil
	}
	if userID == "" {
		return false, nil
	}

	purchases, err := s.purchases.ListByUser(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, p := range purchases {
		if p.ProductSKU == course.RequiresProductSKU && p.ActiveForAccess() {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) PurchasesForUser(ctx context.Context, userID string) ([]*Purchase, error) {
	if userID == "" {
		return nil, fmt.Errorf("userId is required")
	}
	return s.purchases.ListByUser(ctx, userID)
}

func (s *Service) AllPurchases(ctx context.Context) ([]*Purchase, error) {
	return s.purchases.ListAll(ctx)
}

// HandleWebhook verifies, deduplicates, and applies a payment-provider
// event. Unknown event types are acknowledged without action.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	if s.webhookKey != "" && !hmac.Equal([]byte(signature), []byte(s.webhookKey)) {
		return nil, ErrBadSignature
	}

	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("parse webhook payload: %w", err)
	}
	if event.ID == "" {
		return nil, fmt.Errorf("webhook event has no id")
	}

	fresh, err := s.purchases.MarkEventProcessed(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	if !fresh {
		return &WebhookResult{Received: true, Duplicate: true, EventType: event.Type}, nil
	}

	result := &WebhookResult{Received: true, EventType: event.Type}
	var purchase *Purchase
	switch event.Type {
	case "checkout.session.completed":
		purchase, err = s.applyCheckoutCompleted(ctx, event.Data.Object)
	case "charge.refunded":
		purchase, err = s.applyRefund(ctx, event.Data.Object)
	case "customer.subscription.created":
		purchase, err = s.applySubscriptionCreated(ctx, event.Data.Object)
	case "customer.subscription.updated":
		purchase, err = s.applySubscriptionUpdated(ctx, event.Data.Object)
	case "customer.subscription.deleted":
		purchase, err = s.applySubscriptionDeleted(ctx, event.Data.Object)
	default:
		s.log.Debug().Str("event_type", event.Type).Msg("ignoring unsupported webhook event")
		return result, nil
	}
	if err != nil {
		return nil, err
	}

	result.Handled = true
	result.Purchase = purchase
	now := time.Now().UTC()
	result.HandledAt = &now

	s.log.Info().
		Str("event_id", event.ID).
		Str("event_type", event.Type).
		Str("status", purchase.Status).
		Msg("webhook applied")

	return result, nil
}

func (s *Service) applyCheckoutCompleted(ctx context.Context, object map[string]interface{}) (*Purchase, error) {
	if str(object["payment_status"]) != "paid" {
		return nil, fmt.Errorf("checkout session not paid")
	}
	meta := metadata(object)
	userID := str(meta["user_id"])
	sku := str(meta["product_sku"])
	if userID == "" || sku == "" {
		return nil, fmt.Errorf("checkout session missing user_id/product_sku metadata")
	}
	if _, err := s.catalog.ProductBySKU(ctx, sku); err != nil {
		return nil, fmt.Errorf("unknown product sku %s", sku)
	}

	purchase := &Purchase{
		UserID:          userID,
		ProductSKU:      sku,
		StripeSessionID: str(object["id"]),
		Status:          StatusActive,
		AmountPaid:      amountFromLineItems(object),
	}
	if err := s.purchases.Create(ctx, purchase); err != nil {
		return nil, err
	}
	return purchase, nil
}

func (s *Service) applyRefund(ctx context.Context, object map[string]interface{}) (*Purchase, error) {
	sessionID := str(object["checkout_session"])
	if sessionID == "" {
		sessionID = str(object["id"])
	}
	purchase, err := s.purchases.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("no purchase for refunded session %s", sessionID)
	}
	purchase.Status = StatusRefunded
	if err := s.purchases.Update(ctx, purchase); err != nil {
		return nil, err
	}
	return purchase, nil
}

func (s *Service) applySubscriptionCreated(ctx context.Context, object map[string]interface{}) (*Purchase, error) {
	meta := metadata(object)
	userID := str(meta["user_id"])
	sku := str(meta["product_sku"])
	if userID == "" || sku == "" {
		return nil, fmt.Errorf("subscription missing user_id/product_sku metadata")
	}

	purchase := &Purchase{
		UserID:               userID,
		ProductSKU:           sku,
		StripeSubscriptionID: str(object["id"]),
		Status:               StatusActive,
	}
	if trialEnd := unixTime(object["trial_end"]); trialEnd != nil {
		purchase.Status = StatusTrialing
		purchase.TrialEndsAt = trialEnd
	}
	if err := s.purchases.Create(ctx, purchase); err != nil {
		return nil, err
	}
	return purchase, nil
}

func (s *Service) applySubscriptionUpdated(ctx context.Context, object map[string]interface{}) (*Purchase, error) {
	purchase, err := s.purchases.GetBySubscriptionID(ctx, str(object["id"]))
	if err != nil {
		return nil, fmt.Errorf("no purchase for subscription %s", str(object["id"]))
	}
	switch str(object["status"]) {
	case "active":
		purchase.Status = StatusActive
		purchase.TrialEndsAt = nil
	case "trialing":
		purchase.Status = StatusTrialing
		purchase.TrialEndsAt = unixTime(object["trial_end"])
	case "past_due", "unpaid", "incomplete":
		purchase.Status = StatusPastDue
	case "canceled":
		purchase.Status = StatusCanceled
	default:
		return nil, fmt.Errorf("unknown subscription status %q", str(object["status"]))
	}
	if err := s.purchases.Update(ctx, purchase); err != nil {
		return nil, err
	}
	return purchase, nil
}

func (s *Service) applySubscriptionDeleted(ctx context.Context, object map[string]interface{}) (*Purchase, error) {
	purchase, err := s.purchases.GetBySubscriptionID(ctx, str(object["id"]))
	if err != nil {
		return nil, fmt.Errorf("no purchase for subscription %s", str(object["id"]))
	}
	purchase.Status = StatusCanceled
	if at := unixTime(object["canceled_at"]); at != nil {
		purchase.CanceledAt = at
	} else {
		now := time.Now().UTC()
		purchase.CanceledAt = &now
	}
	if err := s.purchases.Update(ctx, purchase); err != nil {
		return nil, err
	}
	return purchase, nil
}

// ExpireTrials moves trialing purchases past their trial end to past_due.
// Returns the number of purchases transitioned.
func (s *Service) ExpireTrials(ctx context.Context) (int, error) {
	purchases, err := s.purchases.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	now := time.Now().UTC()
	expired := 0
	for _, p := range purchases {
		if p.Status != StatusTrialing || p.TrialEndsAt == nil || p.TrialEndsAt.After(now) {
			continue
		}
		p.Status = StatusPastDue
		if err := s.purchases.Update(ctx, p); err != nil {
			return expired, err
		}
		expired++
	}
	return expired, nil
}

func metadata(object map[string]interface{}) map[string]interface{} {
	if m, ok := object["metadata"].(map[string]interface{}); ok {
		return m
	}
	return map[string]interface{}{}
}

func amountFromLineItems(object map[string]interface{}) int {
	items, ok := object["line_items"].(map[string]interface{})
	if !ok {
		return 0
	}
	data, ok := items["data"].([]interface{})
	if !ok {
		return 0
	}
	total := 0
	for _, raw := range data {
		item, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		qty := 1
		if q, ok := item["quantity"].(float64); ok && q > 0 {
			qty = int(q)
		}
		if price, ok := item["price"].(map[string]interface{}); ok {
			if amount, ok := price["unit_amount"].(float64); ok {
				total += int(amount) * qty
			}
		}
	}
	return total
}

func unixTime(v interface{}) *time.Time {
	ts, ok := v.(float64)
	if !ok || ts <= 0 {
		return nil
	}
	t := time.Unix(int64(ts), 0).UTC()
	return &t
}

func str(v interface{}) string {
	s, _ := v.(string)
	return s
}
