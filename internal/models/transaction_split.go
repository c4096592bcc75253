package models

import (
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"
)

type TransactionSplit struct {
	ID            int             `json:"id,omitempty" db:"id,omitempty"`
	TransactionID int             `json:"transaction_id,omitempty" db:"transaction_id,omitempty"`
	Amount        decimal.Decimal `json:"amount,omitempty" db:"amount,omitempty"`
	CategoryID    int             `json:"category_id,omitempty" db:"category_id,omitempty"`
	Percentage    decimal.Decimal `json:"percentage,omitempty" db:"percentage,omitempty"`
	Description   string          `json:"description,omitempty" db:"description,omitempty"`
	CreatedAt     sql.NullString  `json:"created_at,omitempty" db:"created_at,omitempty"`
}

var (
	ErrNoSplits            = errors.New("at least two splits are required")
	ErrSplitAmountMismatch = errors.New("split amounts must sum to the original transaction amount")
	ErrSplitPercentage     = errors.New("split percentages must sum to 100")
	ErrSplitNotPositive    = errors.New("split amounts must be greater than zero")
	ErrSplitNoCategory     = errors.New("every split needs a category")
)

var hundred = decimal.NewFromInt(100)

// ValidateSplits checks that a set of splits fully partitions the original
// amount: amounts sum exactly to originalAmount and percentages sum to 100.
func ValidateSplits(originalAmount decimal.Decimal, splits []TransactionSplit) error {
	if len(splits) < 2 {
		return ErrNoSplits
	}

	amountSum := decimal.Zero
	percentSum := decimal.Zero
	for _, s := range splits {
		if !s.Amount.IsPositive() {
			return ErrSplitNotPositive
		}
		if s.CategoryID == 0 {
			return ErrSplitNoCategory
		}
		amountSum = amountSum.Add(s.Amount)
		percentSum = percentSum.Add(s.Percentage)
	}

	if !amountSum.Equal(originalAmount) {
		return ErrSplitAmountMismatch
	}
	if !percentSum.Equal(hundred) {
		return ErrSplitPercentage
	}
	return nil
}
