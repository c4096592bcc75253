package models

import (
	"database/sql"
	"fmt"
)

// Tier is the subscription level attached to a user. The users table is the
// single source of truth; the JWT claim and any cached copy are derived views.
type Tier string

const (
	TierFree    Tier = "free"
	TierPlus    Tier = "plus"
	TierPremium Tier = "premium"
)

func ParseTier(s string) (Tier, error) {
	switch Tier(s) {
	case TierFree, TierPlus, TierPremium:
		return Tier(s), nil
	}
	return "", fmt.Errorf("unknown subscription tier: %q", s)
}

func (t Tier) Valid() bool {
	_, err := ParseTier(string(t))
	return err == nil
}

// ActiveBudgetLimit returns the number of active budgets the tier allows,
// or -1 for unlimited.
func (t Tier) ActiveBudgetLimit() int {
	if t == TierFree || t == "" {
		return 2
	}
	return -1
}

type Subscription struct {
	ID                   int            `json:"id,omitempty" db:"id,omitempty"`
	UserID               int            `json:"user_id,omitempty" db:"user_id,omitempty"`
	StripeSubscriptionID string         `json:"stripe_subscription_id,omitempty" db:"stripe_subscription_id,omitempty"`
	Tier                 Tier           `json:"tier,omitempty" db:"tier,omitempty"`
	Status               string         `json:"status,omitempty" db:"status,omitempty"`
	CurrentPeriodEnd     sql.NullString `json:"current_period_end,omitempty" db:"current_period_end,omitempty"`
	CreatedAt            sql.NullString `json:"created_at,omitempty" db:"created_at,omitempty"`
	UpdatedAt            sql.NullString `json:"updated_at,omitempty" db:"updated_at,omitempty"`
}
