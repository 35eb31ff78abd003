package commerce

import (
	"time"

	"github.com/google/uuid"
)

// Product is a sellable SKU.
type Product struct {
	SKU         string   `json:"sku"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Active      bool     `json:"active"`
	Features    []string `json:"features,omitempty"`
}

// Price links a product to its payment-provider price.
type Price struct {
	ProductSKU    string `json:"productSku"`
	StripePriceID string `json:"stripePriceId"`
	Currency      string `json:"currency"`
	UnitAmount    int    `json:"unitAmount"`
	Interval      string `json:"interval,omitempty"` // empty for one-time purchases
}

// Course is a deliverable course; paid courses name the SKU that unlocks them.
type Course struct {
	Slug               string `json:"slug"`
	Title              string `json:"title"`
	Summary            string `json:"summary"`
	RequiresProductSKU string `json:"requiresProductSku,omitempty"`
	IsFree             bool   `json:"isFree"`
}

// Purchase statuses.
const (
	StatusActive   = "active"
	StatusTrialing = "trialing"
	StatusPastDue  = "past_due"
	StatusCanceled = "canceled"
	StatusRefunded = "refunded"
)

// Purchase is one user's entitlement to a product, driven through its
// lifecycle by payment-provider webhook events.
type Purchase struct {
	ID                   uuid.UUID  `json:"id"`
	UserID               string     `json:"userId"`
	ProductSKU           string     `json:"productSku"`
	StripeSessionID      string     `json:"stripeSessionId,omitempty"`
	StripeSubscriptionID string     `json:"stripeSubscriptionId,omitempty"`
	Status               string     `json:"status"`
	AmountPaid           int        `json:"amountPaid,omitempty"`
	TrialEndsAt          *time.Time `json:"trialEndsAt,omitempty"`
	CanceledAt           *time.Time `json:"canceledAt,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// ActiveForAccess reports whether this purchase currently grants course
// access.
func (p *Purchase) ActiveForAccess() bool {
	return p.Status == StatusActive || p.Status == StatusTrialing
}

// WebhookEvent is the payment-provider event envelope.
type WebhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object map[string]interface{} `json:"object"`
	} `json:"data"`
}

// WebhookResult reports how an event was handled. Unknown event types are
// acknowledged without action so the provider stops retrying.
type WebhookResult struct {
	Received  bool       `json:"received"`
	Handled   bool       `json:"handled"`
	Duplicate bool       `json:"duplicate,omitempty"`
	Purchase  *Purchase  `json:"purchase,omitempty"`
	EventType string     `json:"eventType,omitempty"`
	HandledAt *time.Time `json:"handledAt,omitempty"`
}
