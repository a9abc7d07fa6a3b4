/*
numbering.go - Invoice numbering sequencer

Derives user-facing invoice identifiers from a persisted prefix/counter/
padding configuration. Preview renders what the next number will look like;
allocation happens atomically inside the invoice-creation transaction (see
mutator.go) so two concurrent creations can never be assigned the same
number.
*/
package ledger

import (
	"context"
	"strconv"
	"strings"
)

// FormatNumber renders a human-readable document number. Padding is a
// minimum width, not a maximum: a number whose digit count exceeds the
// padding is never truncated. Padding <= 0 means no padding.
func FormatNumber(prefix string, n int64, padding int) string {
	num := strconv.FormatInt(n, 10)
	if padding > 0 && len(num) < padding {
		num = strings.Repeat("0", padding-len(num)) + num
	}
	if prefix == "" {
		return num
	}
	return prefix + "-" + num
}

// Preview returns the number the next invoice would receive under cfg,
// without allocating it.
func Preview(cfg NumberingConfig) string {
	return FormatNumber(cfg.Prefix, cfg.NextNumber, cfg.Padding)
}

// ValidateNumberingConfig rejects malformed configs before persistence.
// Negative padding is not an error; it means no padding and is normalized
// to zero on save.
func ValidateNumberingConfig(cfg NumberingConfig) error {
	if cfg.NextNumber < 1 {
		return &ValidationError{Field: "nextNumber", Message: "must be at least 1"}
	}
	return nil
}

// Sequencer reads and persists the numbering configuration. It does not
// allocate numbers for specific invoices; allocation is part of the
// invoice-creation transaction.
type Sequencer struct {
	store Store
}

func NewSequencer(store Store) *Sequencer {
	return &Sequencer{store: store}
}

// Config returns the tenant's numbering config, creating the default row on
// first read.
func (s *Sequencer) Config(ctx context.Context, tenantID string) (NumberingConfig, error) {
	cfg, err := s.store.GetNumberingConfig(ctx, tenantID)
	if err != nil {
		return NumberingConfig{}, err
	}
	if cfg == nil {
		def := DefaultNumberingConfig(tenantID)
		if err := s.store.SaveNumberingConfig(ctx, def); err != nil {
			return NumberingConfig{}, err
		}
		return def, nil
	}
	return *cfg, nil
}

// Persist validates and saves prefix/nextNumber/padding changes from the
// settings surface.
func (s *Sequencer) Persist(ctx context.Context, cfg NumberingConfig) error {
	if err := ValidateNumberingConfig(cfg); err != nil {
		return err
	}
	if cfg.TenantID == "" {
		cfg.TenantID = DefaultTenant
	}
	if cfg.Padding < 0 {
		cfg.Padding = 0
	}
	return s.store.SaveNumberingConfig(ctx, cfg)
}

// allocateNumber performs the atomic read-increment-return against the
// counter row. Callers must pass the transaction-bound store so allocation
// commits or rolls back with the invoice it numbers.
func allocateNumber(ctx context.Context, tx Store, tenantID string) (string, error) {
	cfg, err := tx.GetNumberingConfig(ctx, tenantID)
	if err != nil {
		return "", err
	}
	if cfg == nil {
		def := DefaultNumberingConfig(tenantID)
		cfg = &def
	}
	number := FormatNumber(cfg.Prefix, cfg.NextNumber, cfg.Padding)
	cfg.NextNumber++
	if err := tx.SaveNumberingConfig(ctx, *cfg); err != nil {
		return "", err
	}
	return number, nil
}
