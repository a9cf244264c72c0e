package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/pirs/internal/domain"
)

type lotRepository struct {
	db *DB
}

func NewLotRepository(db *DB) *lotRepository {
	return &lotRepository{db: db}
}

// Blocked returns recalled lots and lots that expired before asOf.
func (r *lotRepository) Blocked(ctx context.Context, asOf time.Time) ([]domain.BlockedLot, error) {
	query := r.db.Rebind(`
		SELECT lot_id, sku, reason, is_recalled, expiry_date
		FROM inventory_lots
		WHERE is_recalled = ? OR (expiry_date IS NOT NULL AND expiry_date < ?)
		ORDER BY lot_id
	`)

	lots := []domain.BlockedLot{}
	if err := r.db.SelectContext(ctx, &lots, query, true, dateOnly(asOf)); err != nil {
		return nil, fmt.Errorf("failed to list blocked lots: %w", err)
	}

	for i := range lots {
		if lots[i].Reason == "" {
			lots[i].Reason = lotReason(lots[i])
		}
	}
	return lots, nil
}

// Block upserts a lot as recalled.
func (r *lotRepository) Block(ctx context.Context, lot domain.BlockedLot) error {
	if lot.LotID == "" {
		return domain.Invalidf("lot id is required")
	}

	var expiry any
	if lot.ExpiryDate != nil {
		expiry = dateOnly(*lot.ExpiryDate)
	}

	query := r.db.Rebind(`
		INSERT INTO inventory_lots (lot_id, sku, reason, is_recalled, expiry_date)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (lot_id)
		DO UPDATE SET
			reason = EXCLUDED.reason,
			is_recalled = EXCLUDED.is_recalled
	`)
	if _, err := r.db.ExecContext(ctx, query, lot.LotID, lot.SKU, lot.Reason, true, expiry); err != nil {
		return fmt.Errorf("failed to block lot %s: %w", lot.LotID, err)
	}
	return nil
}

// Save upserts a lot exactly as given, including its expiry date.
func (r *lotRepository) Save(ctx context.Context, lot domain.BlockedLot) error {
	if lot.LotID == "" {
		return domain.Invalidf("lot id is required")
	}

	var expiry any
	if lot.ExpiryDate != nil {
		expiry = dateOnly(*lot.ExpiryDate)
	}

	query := r.db.Rebind(`
		INSERT INTO inventory_lots (lot_id, sku, reason, is_recalled, expiry_date)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (lot_id)
		DO UPDATE SET
			sku = EXCLUDED.sku,
			reason = EXCLUDED.reason,
			is_recalled = EXCLUDED.is_recalled,
			expiry_date = EXCLUDED.expiry_date
	`)
	if _, err := r.db.ExecContext(ctx, query, lot.LotID, lot.SKU, lot.Reason, lot.Recalled, expiry); err != nil {
		return fmt.Errorf("failed to save lot %s: %w", lot.LotID, err)
	}
	return nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func lotReason(lot domain.BlockedLot) string {
	if lot.Recalled {
		return "recalled"
	}
	return "expired"
}
