package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTier(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Tier
		wantErr bool
	}{
		{name: "free", input: "free", want: TierFree},
		{name: "plus", input: "plus", want: TierPlus},
		{name: "premium", input: "premium", want: TierPremium},
		{name: "empty", input: "", wantErr: true},
		{name: "unknown", input: "gold", wantErr: true},
		{name: "case sensitive", input: "Plus", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTier(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTierActiveBudgetLimit(t *testing.T) {
	assert.Equal(t, 2, TierFree.ActiveBudgetLimit())
	assert.Equal(t, 2, Tier("").ActiveBudgetLimit())
	assert.Equal(t, -1, TierPlus.ActiveBudgetLimit())
	assert.Equal(t, -1, TierPremium.ActiveBudgetLimit())
}
