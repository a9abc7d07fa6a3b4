package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallybook/ledger-engine/ledger"
)

// =============================================================================
// NUMBER FORMATTING
// =============================================================================

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		name    string
		prefix  string
		n       int64
		padding int
		want    string
	}{
		{"padded", "INV", 42, 5, "INV-00042"},
		{"number wider than padding is not truncated", "SALE", 5000, 3, "SALE-5000"},
		{"zero padding", "INV", 7, 0, "INV-7"},
		{"negative padding treated as none", "INV", 7, -3, "INV-7"},
		{"empty prefix drops the separator", "", 42, 5, "00042"},
		{"exact width", "PUR", 12345, 5, "PUR-12345"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ledger.FormatNumber(tt.prefix, tt.n, tt.padding))
		})
	}
}

func TestPreview_MatchesNextAllocation(t *testing.T) {
	cfg := ledger.NumberingConfig{
		TenantID:   ledger.DefaultTenant,
		Prefix:     "INV",
		NextNumber: 42,
		Padding:    5,
	}
	assert.Equal(t, "INV-00042", ledger.Preview(cfg))

	// Preview does not advance the counter.
	assert.Equal(t, "INV-00042", ledger.Preview(cfg))
}

func TestValidateNumberingConfig(t *testing.T) {
	valid := ledger.DefaultNumberingConfig(ledger.DefaultTenant)
	require.NoError(t, ledger.ValidateNumberingConfig(valid))

	zero := valid
	zero.NextNumber = 0
	err := ledger.ValidateNumberingConfig(zero)
	assert.ErrorIs(t, err, ledger.ErrValidation)

	// Negative padding is "no padding", not an error.
	negPad := valid
	negPad.Padding = -1
	require.NoError(t, ledger.ValidateNumberingConfig(negPad))
}
