// internal/service/inventory_service.go
package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/andresuchdata/pirs/internal/cache"
	"github.com/andresuchdata/pirs/internal/domain"
	"github.com/andresuchdata/pirs/internal/engine/reorder"
	"github.com/andresuchdata/pirs/internal/engine/scoring"
	"github.com/andresuchdata/pirs/internal/engine/stability"
	"github.com/andresuchdata/pirs/internal/repository"
)

const (
	minSuggestedQty   = 10
	overstockDays     = 60
	systemOperational = "Operational"
)

// Stability filters.
const (
	FilterAll   = "all"
	FilterLeft  = "left"
	FilterRight = "right"
	FilterRoot  = "root"
)

type InventoryService struct {
	products repository.ProductRepository
	sales    repository.SalesRepository
	model    *scoring.Model
	band     stability.Band
	cache    cache.RankingCache
}

func NewInventoryService(
	products repository.ProductRepository,
	sales repository.SalesRepository,
	model *scoring.Model,
	band stability.Band,
	cacheImpl cache.RankingCache,
) *InventoryService {
	if model == nil {
		model = scoring.Default()
	}
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopRankingCache()
	}
	return &InventoryService{
		products: products,
		sales:    sales,
		model:    model,
		band:     band,
		cache:    cacheImpl,
	}
}

// Snapshot returns the current product catalog.
func (s *InventoryService) Snapshot(ctx context.Context) (domain.ProductSnapshot, error) {
	return s.products.Snapshot(ctx)
}

// Scores takes one catalog snapshot and scores every SKU in it.
func (s *InventoryService) Scores(ctx context.Context) (domain.ProductSnapshot, map[string]float64, error) {
	snapshot, err := s.products.Snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}

	history, err := s.sales.AllHistory(ctx)
	if err != nil {
		return nil, nil, err
	}

	scores, err := s.model.ScoreAll(snapshot, history)
	if err != nil {
		return nil, nil, fmt.Errorf("score catalog: %w", err)
	}
	return snapshot, scores, nil
}

// Score returns the urgency of a single SKU.
func (s *InventoryService) Score(ctx context.Context, sku string) (domain.UrgencyScore, error) {
	p, err := s.products.Get(ctx, sku)
	if err != nil {
		return domain.UrgencyScore{}, err
	}

	history, err := s.sales.History(ctx, sku)
	if err != nil {
		return domain.UrgencyScore{}, err
	}
	return s.model.ScoreProduct(*p, history)
}

// ReorderRanking lists SKUs from most to least urgent. A limit of zero or
// less returns the whole catalog.
func (s *InventoryService) ReorderRanking(ctx context.Context, limit int) ([]domain.ReorderAlert, error) {
	if alerts, ok, err := s.cache.Get(ctx, limit); err == nil && ok {
		return alerts, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("inventory: cache get ranking failed")
	}

	snapshot, scores, err := s.Scores(ctx)
	if err != nil {
		return nil, err
	}

	ordered := reorder.Build(scores).Ordered()
	if limit > 0 && limit < len(ordered) {
		ordered = ordered[:limit]
	}

	alerts := make([]domain.ReorderAlert, 0, len(ordered))
	for _, item := range ordered {
		alerts = append(alerts, newReorderAlert(snapshot[item.SKU], item.Score))
	}

	if err := s.cache.Set(ctx, limit, alerts); err != nil {
		log.Warn().Err(err).Msg("inventory: cache set ranking failed")
	}

	return alerts, nil
}

func newReorderAlert(p domain.Product, days float64) domain.ReorderAlert {
	suggested := p.Stock / 2
	if suggested < minSuggestedQty {
		suggested = minSuggestedQty
	}

	return domain.ReorderAlert{
		SKU:           p.SKU,
		Name:          p.Name,
		CurrentStock:  p.Stock,
		LeadTimeDays:  p.LeadTimeDays,
		DaysRemaining: days,
		Condition:     domain.ClassifyDays(days),
		SuggestedQty:  suggested,
		ReorderNow:    days <= float64(p.LeadTimeDays),
	}
}

// TopPriority returns the most urgent SKU, or nil when the catalog is empty.
func (s *InventoryService) TopPriority(ctx context.Context) (*domain.ReorderAlert, error) {
	snapshot, scores, err := s.Scores(ctx)
	if err != nil {
		return nil, err
	}

	item, ok := reorder.Build(scores).PeekMostUrgent()
	if !ok {
		return nil, nil
	}

	alert := newReorderAlert(snapshot[item.SKU], item.Score)
	return &alert, nil
}

func (s *InventoryService) buildTree(ctx context.Context) (*stability.Tree, error) {
	snapshot, scores, err := s.Scores(ctx)
	if err != nil {
		return nil, err
	}

	skus := make([]string, 0, len(snapshot))
	for sku := range snapshot {
		skus = append(skus, sku)
	}
	sort.Strings(skus)

	items := make([]stability.Item, 0, len(skus))
	for _, sku := range skus {
		items = append(items, stability.Item{SKU: sku, DaysRemaining: scores[sku], Product: snapshot[sku]})
	}

	tree := stability.New(s.band)
	tree.Build(items)
	return tree, nil
}

// Stability classifies the catalog around a pivot SKU. The left cohort holds
// items with fewer days remaining than the root and the right cohort the rest.
func (s *InventoryService) Stability(ctx context.Context, filter string) (*domain.StabilityView, error) {
	if filter == "" {
		filter = FilterAll
	}

	tree, err := s.buildTree(ctx)
	if err != nil {
		return nil, err
	}

	view := &domain.StabilityView{Filter: filter}
	root, hasRoot := tree.Root()
	if hasRoot {
		r := stabilityItem(root)
		view.Root = &r
	}

	var items []stability.Item
	switch filter {
	case FilterAll:
		items = tree.InOrder()
		view.Description = "All items in ascending order of days remaining"
	case FilterLeft:
		items = tree.LeftSubtree()
		if hasRoot {
			view.Description = fmt.Sprintf("Items with fewer than %.2f days remaining (root %s)", root.DaysRemaining, root.Product.Name)
		}
	case FilterRight:
		items = tree.RightSubtree()
		if hasRoot {
			view.Description = fmt.Sprintf("Items with at least %.2f days remaining (root %s)", root.DaysRemaining, root.Product.Name)
		}
	case FilterRoot:
		if hasRoot {
			items = []stability.Item{root}
			view.Description = fmt.Sprintf("Root %s with %.2f days remaining", root.Product.Name, root.DaysRemaining)
		}
	default:
		return nil, domain.Invalidf("unknown stability filter %q", filter)
	}

	view.Items = make([]domain.StabilityItem, 0, len(items))
	for _, it := range items {
		view.Items = append(view.Items, stabilityItem(it))
	}
	view.Count = len(view.Items)
	return view, nil
}

func stabilityItem(it stability.Item) domain.StabilityItem {
	return domain.StabilityItem{
		SKU:           it.SKU,
		Name:          it.Product.Name,
		CurrentStock:  it.Product.Stock,
		DaysRemaining: it.DaysRemaining,
		Condition:     domain.ClassifyDays(it.DaysRemaining),
	}
}

// Summary backs the dashboard cards.
func (s *InventoryService) Summary(ctx context.Context) (*domain.InventorySummary, error) {
	snapshot, scores, err := s.Scores(ctx)
	if err != nil {
		return nil, err
	}

	summary := &domain.InventorySummary{
		TotalSKUCount:       len(snapshot),
		HealthScore:         100,
		TotalInventoryValue: decimal.Zero,
		Overstocked:         []domain.OverstockItem{},
		SystemStatus:        systemOperational,
	}

	stable := 0
	for sku, p := range snapshot {
		days := scores[sku]
		value := p.Price.Mul(decimal.NewFromInt(int64(p.Stock)))
		summary.TotalInventoryValue = summary.TotalInventoryValue.Add(value)

		switch domain.ClassifyDays(days) {
		case domain.ConditionCritical:
			summary.CriticalStockAlert++
		case domain.ConditionStable:
			stable++
		}

		if days > overstockDays && p.Stock > 0 {
			summary.Overstocked = append(summary.Overstocked, domain.OverstockItem{
				SKU:           sku,
				Name:          p.Name,
				DaysRemaining: days,
				Value:         value,
			})
		}
	}

	if total := summary.TotalSKUCount; total > 0 {
		summary.HealthScore = (total - summary.CriticalStockAlert) * 100 / total
		summary.StableSharePct = stable * 100 / total
	}

	sort.Slice(summary.Overstocked, func(i, j int) bool {
		a, b := summary.Overstocked[i], summary.Overstocked[j]
		if !a.Value.Equal(b.Value) {
			return a.Value.GreaterThan(b.Value)
		}
		return a.SKU < b.SKU
	})

	return summary, nil
}

// HeapState exposes the reorder ranker's backing array and parent links.
func (s *InventoryService) HeapState(ctx context.Context) (*domain.HeapState, error) {
	snapshot, scores, err := s.Scores(ctx)
	if err != nil {
		return nil, err
	}

	slots := reorder.Build(scores).Slots()
	raw := make([]domain.HeapSlot, len(slots))
	for i, item := range slots {
		raw[i] = domain.HeapSlot{
			Index:         i,
			Key:           item.SKU,
			Name:          snapshot[item.SKU].Name,
			Value:         item.Score,
			DaysRemaining: item.Score,
		}
	}

	return &domain.HeapState{
		Type:        "min-heap",
		Description: "Reorder ranking: the SKU with the fewest days of stock sits at the root",
		Complexity: map[string]string{
			"build":  "O(n)",
			"peek":   "O(1)",
			"pop":    "O(log n)",
			"update": "O(log n)",
		},
		RawArray: raw,
		Tree:     heapGraph("heap", raw),
		Size:     len(raw),
	}, nil
}

// BSTStructure exposes the stability tree with its in-order path.
func (s *InventoryService) BSTStructure(ctx context.Context) (*domain.TreeState, error) {
	tree, err := s.buildTree(ctx)
	if err != nil {
		return nil, err
	}

	inOrder := tree.InOrder()
	path := make([]string, len(inOrder))
	for i, it := range inOrder {
		path[i] = it.SKU
	}

	return &domain.TreeState{
		Type:        "bst",
		Description: "Stability tree keyed by days remaining; equal keys go right",
		Complexity: map[string]string{
			"insert":   "O(h)",
			"inorder":  "O(n)",
			"worst_h":  "O(n)",
			"expected": "O(log n)",
		},
		Tree:        tree.Structure(),
		InOrderPath: path,
		Root:        tree.RootNode(),
		Height:      tree.Height(),
		Size:        tree.Len(),
	}, nil
}

func (s *InventoryService) CreateProduct(ctx context.Context, p domain.Product) error {
	if err := s.products.Create(ctx, p); err != nil {
		return err
	}
	s.InvalidateRanking(ctx)
	return nil
}

func (s *InventoryService) UpdateStock(ctx context.Context, sku string, stock int) error {
	if err := s.products.UpdateStock(ctx, sku, stock); err != nil {
		return err
	}
	s.InvalidateRanking(ctx)
	return nil
}

func (s *InventoryService) DeleteProduct(ctx context.Context, sku string) error {
	if err := s.products.Delete(ctx, sku); err != nil {
		return err
	}
	s.InvalidateRanking(ctx)
	return nil
}

// InvalidateRanking drops cached rankings after a stock change.
func (s *InventoryService) InvalidateRanking(ctx context.Context) {
	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("inventory: cache invalidate failed")
	}
}
