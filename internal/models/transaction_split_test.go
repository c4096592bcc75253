package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func split(amount, percentage string, categoryID int) TransactionSplit {
	return TransactionSplit{
		Amount:     decimal.RequireFromString(amount),
		Percentage: decimal.RequireFromString(percentage),
		CategoryID: categoryID,
	}
}

func TestValidateSplits(t *testing.T) {
	tests := []struct {
		name     string
		original string
		splits   []TransactionSplit
		wantErr  error
	}{
		{
			name:     "valid even split",
			original: "100.00",
			splits: []TransactionSplit{
				split("50.00", "50", 1),
				split("50.00", "50", 2),
			},
		},
		{
			name:     "valid uneven three-way split",
			original: "99.99",
			splits: []TransactionSplit{
				split("33.33", "33.33", 1),
				split("33.33", "33.33", 2),
				split("33.33", "33.34", 3),
			},
		},
		{
			name:     "no splits",
			original: "100.00",
			splits:   nil,
			wantErr:  ErrNoSplits,
		},
		{
			name:     "single split",
			original: "100.00",
			splits: []TransactionSplit{
				split("100.00", "100", 1),
			},
			wantErr: ErrNoSplits,
		},
		{
			name:     "amounts do not sum to original",
			original: "100.00",
			splits: []TransactionSplit{
				split("50.00", "50", 1),
				split("49.99", "50", 2),
			},
			wantErr: ErrSplitAmountMismatch,
		},
		{
			name:     "percentages do not sum to 100",
			original: "100.00",
			splits: []TransactionSplit{
				split("50.00", "50", 1),
				split("50.00", "49", 2),
			},
			wantErr: ErrSplitPercentage,
		},
		{
			name:     "zero amount split",
			original: "100.00",
			splits: []TransactionSplit{
				split("0", "0", 1),
				split("100.00", "100", 2),
			},
			wantErr: ErrSplitNotPositive,
		},
		{
			name:     "negative amount split",
			original: "100.00",
			splits: []TransactionSplit{
				split("-10.00", "-10", 1),
				split("110.00", "110", 2),
			},
			wantErr: ErrSplitNotPositive,
		},
		{
			name:     "split without a category",
			original: "100.00",
			splits: []TransactionSplit{
				split("50.00", "50", 1),
				split("50.00", "50", 0),
			},
			wantErr: ErrSplitNoCategory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSplits(decimal.RequireFromString(tt.original), tt.splits)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}
