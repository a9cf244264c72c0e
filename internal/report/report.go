// Package report exports the reorder ranking and the stability report as CSV.
package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/pirs/internal/domain"
)

// Source is the slice of the inventory service the exporter reads from.
type Source interface {
	ReorderRanking(ctx context.Context, limit int) ([]domain.ReorderAlert, error)
	Stability(ctx context.Context, filter string) (*domain.StabilityView, error)
}

var (
	reorderHeader   = []string{"Rank", "SKU", "Product Name", "Current Stock", "Lead Time Days", "Days Remaining", "Condition", "Reorder Now", "Suggested Qty"}
	stabilityHeader = []string{"SKU", "Product Name", "Current Stock", "Days Remaining", "Condition"}
)

func formatDays(days float64) string {
	return strconv.FormatFloat(days, 'f', 2, 64)
}

// WriteReorderCSV writes alerts most urgent first.
func WriteReorderCSV(w io.Writer, alerts []domain.ReorderAlert) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(reorderHeader); err != nil {
		return err
	}
	for i, a := range alerts {
		record := []string{
			strconv.Itoa(i + 1),
			a.SKU,
			a.Name,
			strconv.Itoa(a.CurrentStock),
			strconv.Itoa(a.LeadTimeDays),
			formatDays(a.DaysRemaining),
			string(a.Condition),
			strconv.FormatBool(a.ReorderNow),
			strconv.Itoa(a.SuggestedQty),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteStabilityCSV writes items in ascending days-remaining order.
func WriteStabilityCSV(w io.Writer, items []domain.StabilityItem) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(stabilityHeader); err != nil {
		return err
	}
	for _, it := range items {
		record := []string{
			it.SKU,
			it.Name,
			strconv.Itoa(it.CurrentStock),
			formatDays(it.DaysRemaining),
			string(it.Condition),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func exportToCSV(path string, write func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := write(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// Export writes reorder_<date>.csv and stability_<date>.csv into dir and
// returns their paths.
func Export(ctx context.Context, src Source, dir string, asOf time.Time) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export dir %s: %w", dir, err)
	}
	stamp := asOf.Format("20060102")

	alerts, err := src.ReorderRanking(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to build reorder ranking: %w", err)
	}
	view, err := src.Stability(ctx, "all")
	if err != nil {
		return nil, fmt.Errorf("failed to build stability report: %w", err)
	}

	reorderPath := filepath.Join(dir, "reorder_"+stamp+".csv")
	if err := exportToCSV(reorderPath, func(w io.Writer) error { return WriteReorderCSV(w, alerts) }); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", reorderPath, err)
	}

	stabilityPath := filepath.Join(dir, "stability_"+stamp+".csv")
	if err := exportToCSV(stabilityPath, func(w io.Writer) error { return WriteStabilityCSV(w, view.Items) }); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", stabilityPath, err)
	}

	log.Info().
		Int("reorder_rows", len(alerts)).
		Int("stability_rows", len(view.Items)).
		Str("dir", dir).
		Msg("report: exported")
	return []string{reorderPath, stabilityPath}, nil
}
