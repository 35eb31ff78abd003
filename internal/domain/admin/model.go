package admin

import "time"

type FeatureFlag struct {
	Key         string    `json:"key"`
	Enabled     bool      `json:"enabled"`
	Description string    `json:"description,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"createdAt"`
}

func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type FlagRequest struct {
	Enabled     bool   `json:"enabled"`
	Description string `json:"description"`
}

// BillingOverview aggregates the purchase ledger for the console.
type BillingOverview struct {
	TotalPurchases int            `json:"totalPurchases"`
	TotalRevenue   int            `json:"totalRevenue"`
	ByStatus       map[string]int `json:"byStatus"`
	ByUser         []*UserBilling `json:"byUser"`
	TrialsExpired  int            `json:"trialsExpired"`
}

type UserBilling struct {
	UserID    string   `json:"userId"`
	Purchases int      `json:"purchases"`
	AmountCts int      `json:"amountCents"`
	SKUs      []string `json:"skus"`
}

// ResetReport lists how many records each area dropped during a class reset.
type ResetReport struct {
	Cleared map[string]int `json:"cleared"`
	ResetAt time.Time      `json:"resetAt"`
}
