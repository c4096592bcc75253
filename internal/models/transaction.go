package models

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

type Transaction struct {
	ID             int                `json:"id,omitempty" db:"id,omitempty"`
	UserID         int                `json:"user_id,omitempty" db:"user_id,omitempty"`
	OriginalAmount decimal.Decimal    `json:"original_amount,omitempty" db:"original_amount,omitempty"`
	Description    string             `json:"description,omitempty" db:"description,omitempty"`
	IsParent       bool               `json:"is_parent,omitempty" db:"is_parent,omitempty"`
	Date           string             `json:"date,omitempty" db:"date,omitempty"`
	CategoryID     sql.NullInt64      `json:"category_id,omitempty" db:"category_id,omitempty"`
	Splits         []TransactionSplit `json:"splits,omitempty" db:"-"`
	CreatedAt      sql.NullString     `json:"created_at,omitempty" db:"created_at,omitempty"`
	UpdatedAt      sql.NullString     `json:"updated_at,omitempty" db:"updated_at,omitempty"`
}
