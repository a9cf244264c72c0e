package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/pirs/internal/domain"
	"github.com/andresuchdata/pirs/internal/repository"
)

// Stores are the repositories a catalog is written to.
type Stores struct {
	Products repository.ProductRepository
	Sales    repository.SalesRepository
	Orders   repository.OrderRepository
	Lots     repository.LotRepository
}

// Result counts what a seeding run wrote.
type Result struct {
	Products int
	Sales    int
	Orders   int
	Lots     int
	Skipped  int
}

// Apply writes the catalog. Products and orders that already exist are
// skipped, so re-running a catalog is safe. Orders without a date are
// stamped with now.
func Apply(ctx context.Context, c *Catalog, s Stores, now time.Time) (*Result, error) {
	res := &Result{}

	for _, entry := range c.Products {
		p, err := entry.Product()
		if err != nil {
			return res, err
		}
		sales, err := entry.Observations()
		if err != nil {
			return res, err
		}

		if err := s.Products.Create(ctx, p); err != nil {
			if errors.Is(err, domain.ErrDuplicateProduct) {
				log.Debug().Str("sku", p.SKU).Msg("seed: product exists, skipping")
				res.Skipped++
				continue
			}
			return res, err
		}
		res.Products++

		for _, obs := range sales {
			if err := s.Sales.Record(ctx, obs); err != nil {
				return res, err
			}
			res.Sales++
		}
	}

	for _, entry := range c.Orders {
		product, err := s.Products.Get(ctx, entry.SKU)
		if err != nil {
			return res, fmt.Errorf("order %s: %w", entry.ID, err)
		}
		o, err := entry.Order(*product, now.UTC())
		if err != nil {
			return res, err
		}

		if _, err := s.Orders.Get(ctx, o.ID); err == nil {
			res.Skipped++
			continue
		} else if !errors.Is(err, domain.ErrOrderNotFound) {
			return res, err
		}

		if err := s.Orders.Create(ctx, o); err != nil {
			return res, err
		}
		res.Orders++
	}

	for _, entry := range c.Lots {
		lot, err := entry.Lot()
		if err != nil {
			return res, err
		}
		if err := s.Lots.Save(ctx, lot); err != nil {
			return res, err
		}
		res.Lots++
	}

	log.Info().
		Int("products", res.Products).
		Int("sales", res.Sales).
		Int("orders", res.Orders).
		Int("lots", res.Lots).
		Int("skipped", res.Skipped).
		Msg("seed: catalog applied")
	return res, nil
}
