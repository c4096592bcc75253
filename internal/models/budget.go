package models

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

type Budget struct {
	ID         int             `json:"id,omitempty" db:"id,omitempty"`
	UserID     int             `json:"user_id,omitempty" db:"user_id,omitempty"`
	CategoryID int             `json:"category_id,omitempty" db:"category_id,omitempty"`
	Amount     decimal.Decimal `json:"amount,omitempty" db:"amount,omitempty"`
	Period     string          `json:"period,omitempty" db:"period,omitempty"`
	StartDate  string          `json:"start_date,omitempty" db:"start_date,omitempty"`
	IsActive   bool            `json:"is_active,omitempty" db:"is_active,omitempty"`
	CreatedAt  sql.NullString  `json:"created_at,omitempty" db:"created_at,omitempty"`
	UpdatedAt  sql.NullString  `json:"updated_at,omitempty" db:"updated_at,omitempty"`
}

func ValidBudgetPeriod(p string) bool {
	return p == "monthly" || p == "yearly"
}
