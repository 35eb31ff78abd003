package commerce

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newCommerceService(t *testing.T, webhookKey string) *Service {
	t.Helper()
	catalog := NewMemCatalogRepository()
	if err := SeedCatalog(context.Background(), catalog); err != nil {
		t.Fatalf("SeedCatalog failed: %v", err)
	}
	return NewService(catalog, NewMemPurchaseRepository(), webhookKey, zerolog.Nop())
}

func checkoutEvent(eventID, sessionID, userID, sku string) string {
	return fmt.Sprintf(`{
		"id": %q,
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": %q,
			"payment_status": "paid",
			"metadata": {"user_id": %q, "product_sku": %q},
			"line_items": {"data": [{"quantity": 1, "price": {"unit_amount": 29900, "currency": "usd"}}]}
		}}
	}`, eventID, sessionID, userID, sku)
}

func TestSeedCatalog(t *testing.T) {
	svc := newCommerceService(t, "")
	ctx := context.Background()

	products, err := svc.Products(ctx)
	if err != nil {
		t.Fatalf("Products failed: %v", err)
	}
	if len(products) != 3 {
		t.Errorf("expected 3 products, got %d", len(products))
	}

	price, err := svc.catalog.PriceForSKU(ctx, "bootcamp_plus")
	if err != nil {
		t.Fatalf("PriceForSKU failed: %v", err)
	}
	if price.UnitAmount != 59900 {
		t.Errorf("bootcamp_plus price = %d, want 59900", price.UnitAmount)
	}

	course, err := svc.Course(ctx, "fhir-101")
	if err != nil {
		t.Fatalf("Course failed: %v", err)
	}
	if !course.IsFree {
		t.Error("fhir-101 should be free")
	}
}

func TestWebhook_CheckoutCompleted(t *testing.T) {
	svc := newCommerceService(t, "")
	ctx := context.Background()

	result, err := svc.HandleWebhook(ctx,
		[]byte(checkoutEvent("evt_1", "cs_test", "user-123", "bootcamp_basic")), "")
	if err != nil {
		t.Fatalf("HandleWebhook failed: %v", err)
	}
	if !result.Handled || result.Purchase == nil {
		t.Fatalf("unexpected result: %+v", result)
	}
	p := result.Purchase
	if p.Status != StatusActive || p.UserID != "user-123" || p.ProductSKU != "bootcamp_basic" {
		t.Errorf("purchase = %+v", p)
	}
	if p.AmountPaid != 29900 {
		t.Errorf("amountPaid = %d, want 29900", p.AmountPaid)
	}
}

func TestWebhook_DuplicateEventIsIdempotent(t *testing.T) {
	svc := newCommerceService(t, "")
	ctx := context.Background()
	payload := []byte(checkoutEvent("evt_dup", "cs_test", "user-123", "bootcamp_basic"))

	first, err := svc.HandleWebhook(ctx, payload, "")
	if err != nil {
		t.Fatalf("first HandleWebhook failed: %v", err)
	}
	if !first.Handled {
		t.Fatal("first delivery should be handled")
	}

	second, err := svc.HandleWebhook(ctx, payload, "")
	if err != nil {
		t.Fatalf("second HandleWebhook failed: %v", err)
	}
	if second.Handled || !second.Duplicate {
		t.Errorf("second delivery should be a no-op duplicate: %+v", second)
	}

	purchases, _ := svc.PurchasesForUser(ctx, "user-123")
	if len(purchases) != 1 {
		t.Errorf("expected 1 purchase after duplicate delivery, got %d", len(purchases))
	}
}

func TestWebhook_UnknownEventAcknowledged(t *testing.T) {
	svc := newCommerceService(t, "")

	result, err := svc.HandleWebhook(context.Background(),
		[]byte(`{"id":"evt_x","type":"invoice.payment_failed","data":{"object":{}}}`), "")
	if err != nil {
		t.Fatalf("HandleWebhook failed: %v", err)
	}
	if !result.Received || result.Handled {
		t.Errorf("unknown event should be acknowledged but not handled: %+v", result)
	}
}

func TestWebhook_SignatureEnforced(t *testing.T) {
	svc := newCommerceService(t, "whsec_test")

	_, err := svc.HandleWebhook(context.Background(),
		[]byte(checkoutEvent("evt_1", "cs_1", "u", "bootcamp_basic")), "wrong")
	if err != ErrBadSignature {
		t.Errorf("expected ErrBadSignature, got %v", err)
	}

	if _, err := svc.HandleWebhook(context.Background(),
		[]byte(checkoutEvent("evt_2", "cs_2", "user-123", "bootcamp_basic")), "whsec_test"); err != nil {
		t.Errorf("valid signature rejected: %v", err)
	}
}

func TestWebhook_SubscriptionLifecycle(t *testing.T) {
	svc := newCommerceService(t, "")
	ctx := context.Background()
	trialEnd := time.Now().Add(7 * 24 * time.Hour).Unix()

	created := fmt.Sprintf(`{
		"id": "evt_sub_created",
		"type": "customer.subscription.created",
		"data": {"object": {
			"id": "sub_test123",
			"status": "trialing",
			"trial_end": %d,
			"metadata": {"user_id": "user-123", "product_sku": "bootcamp_plus"}
		}}
	}`, trialEnd)

	result, err := svc.HandleWebhook(ctx, []byte(created), "")
	if err != nil {
		t.Fatalf("subscription.created failed: %v", err)
	}
	if result.Purchase.Status != StatusTrialing || result.Purchase.TrialEndsAt == nil {
		t.Errorf("created purchase = %+v", result.Purchase)
	}

	updated := `{
		"id": "evt_sub_updated",
		"type": "customer.subscription.updated",
		"data": {"object": {"id": "sub_test123", "status": "active"}}
	}`
	result, err = svc.HandleWebhook(ctx, []byte(updated), "")
	if err != nil {
		t.Fatalf("subscription.updated failed: %v", err)
	}
	if result.Purchase.Status != StatusActive {
		t.Errorf("updated status = %q, want active", result.Purchase.Status)
	}

	deleted := fmt.Sprintf(`{
		"id": "evt_sub_deleted",
		"type": "customer.subscription.deleted",
		"data": {"object": {"id": "sub_test123", "status": "canceled", "canceled_at": %d}}
	}`, time.Now().Unix())
	result, err = svc.HandleWebhook(ctx, []byte(deleted), "")
	if err != nil {
		t.Fatalf("subscription.deleted failed: %v", err)
	}
	if result.Purchase.Status != StatusCanceled || result.Purchase.CanceledAt == nil {
		t.Errorf("deleted purchase = %+v", result.Purchase)
	}
}

func TestWebhook_RefundTransitionsPurchase(t *testing.T) {
	svc := newCommerceService(t, "")
	ctx := context.Background()

	if _, err := svc.HandleWebhook(ctx,
		[]byte(checkoutEvent("evt_1", "cs_refund_me", "user-123", "bootcamp_basic")), ""); err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	refund := `{
		"id": "evt_refund",
		"type": "charge.refunded",
		"data": {"object": {"id": "ch_1", "checkout_session": "cs_refund_me"}}
	}`
	result, err := svc.HandleWebhook(ctx, []byte(refund), "")
	if err != nil {
		t.Fatalf("refund failed: %v", err)
	}
	if result.Purchase.Status != StatusRefunded {
		t.Errorf("status = %q, want refunded", result.Purchase.Status)
	}
}

func TestHasAccess(t *testing.T) {
	svc := newCommerceService(t, "")
	ctx := context.Background()

	// Free course: open to anonymous users.
	open, err := svc.HasAccess(ctx, "", "fhir-101")
	if err != nil || !open {
		t.Errorf("free course access = %t, %v", open, err)
	}

	// Paid course without a purchase.
	open, err = svc.HasAccess(ctx, "user-123", "health-data-bootcamp")
	if err != nil || open {
		t.Errorf("unpurchased paid course access = %t, %v", open, err)
	}

	if _, err := svc.HandleWebhook(ctx,
		[]byte(checkoutEvent("evt_1", "cs_1", "user-123", "bootcamp_basic")), ""); err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	open, err = svc.HasAccess(ctx, "user-123", "health-data-bootcamp")
	if err != nil || !open {
		t.Errorf("purchased course access = %t, %v", open, err)
	}

	// bootcamp_basic does not unlock the deep dive.
	open, err = svc.HasAccess(ctx, "user-123", "fhir-deep-dive")
	if err != nil || open {
		t.Errorf("wrong-sku access = %t, %v", open, err)
	}

	if _, err := svc.HasAccess(ctx, "user-123", "nope"); err != ErrCourseNotFound {
		t.Errorf("expected ErrCourseNotFound, got %v", err)
	}
}

func TestExpireTrials(t *testing.T) {
	svc := newCommerceService(t, "")
	ctx := context.Background()

	expired := fmt.Sprintf(`{
		"id": "evt_trial",
		"type": "customer.subscription.created",
		"data": {"object": {
			"id": "sub_expired",
			"trial_end": %d,
			"metadata": {"user_id": "user-123", "product_sku": "bootcamp_plus"}
		}}
	}`, time.Now().Add(-time.Hour).Unix())
	if _, err := svc.HandleWebhook(ctx, []byte(expired), ""); err != nil {
		t.Fatalf("subscription.created failed: %v", err)
	}

	n, err := svc.ExpireTrials(ctx)
	if err != nil {
		t.Fatalf("ExpireTrials failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expired = %d, want 1", n)
	}

	purchases, _ := svc.PurchasesForUser(ctx, "user-123")
	if purchases[0].Status != StatusPastDue {
		t.Errorf("status = %q, want past_due", purchases[0].Status)
	}
}
