package reporting

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/stones/internal/domain/models"
	repo "github.com/mamadbah2/stones/internal/repository/sheets"
)

const (
	dateLayout        = "2006-01-02"
	unknownSupplier   = "(unknown)"
	unspecifiedStatus = "(none)"
)

// ErrNoSnapshotStore is returned when snapshot history is requested but no store is configured.
var ErrNoSnapshotStore = errors.New("no snapshot store configured")

// StoneLister is the slice of the stones client reporting depends on.
type StoneLister interface {
	ListStones(ctx context.Context) ([]models.Stone, error)
}

// SnapshotStore persists inventory snapshots.
type SnapshotStore interface {
	SaveInventorySnapshot(ctx context.Context, snapshot models.InventorySnapshot) error
	LatestInventorySnapshot(ctx context.Context) (*models.InventorySnapshot, error)
}

// Service exposes inventory aggregates over the stones backend.
type Service struct {
	lister StoneLister
	sheets repo.Repository
	store  SnapshotStore
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a new reporting service instance. sheets and store may be nil.
func NewService(lister StoneLister, sheets repo.Repository, store SnapshotStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		lister: lister,
		sheets: sheets,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

type supplierAcc struct {
	stones     int
	feet       decimal.Decimal
	investment decimal.Decimal
}

// Summarize aggregates every stone the backend lists. Investment is recomputed
// from each stone's cost fields rather than read from the backend.
func (s *Service) Summarize(ctx context.Context) (models.InventorySummary, error) {
	stones, err := s.lister.ListStones(ctx)
	if err != nil {
		return models.InventorySummary{}, fmt.Errorf("list stones: %w", err)
	}

	var feet, cost, travel decimal.Decimal
	byStatus := make(map[string]int)
	suppliers := make(map[string]*supplierAcc)

	for _, stone := range stones {
		stoneFeet := decimal.NewFromFloat(stone.EstimatedFeet)
		stoneCost := decimal.NewFromFloat(stone.StoneCost)
		stoneTravel := decimal.NewFromFloat(stone.StoneTravelCost)

		feet = feet.Add(stoneFeet)
		cost = cost.Add(stoneCost)
		travel = travel.Add(stoneTravel)

		status := strings.TrimSpace(stone.Status)
		if status == "" {
			status = unspecifiedStatus
		}
		byStatus[status]++

		name := strings.TrimSpace(stone.BoughtFrom)
		if name == "" {
			name = unknownSupplier
		}
		acc, ok := suppliers[name]
		if !ok {
			acc = &supplierAcc{}
			suppliers[name] = acc
		}
		acc.stones++
		acc.feet = acc.feet.Add(stoneFeet)
		acc.investment = acc.investment.Add(stoneCost).Add(stoneTravel)
	}

	summary := models.InventorySummary{
		Stones:          len(stones),
		EstimatedFeet:   feet.InexactFloat64(),
		StoneCost:       cost.InexactFloat64(),
		StoneTravelCost: travel.InexactFloat64(),
		TotalInvestment: cost.Add(travel).InexactFloat64(),
		ByStatus:        byStatus,
		Suppliers:       make([]models.SupplierTotal, 0, len(suppliers)),
	}

	for name, acc := range suppliers {
		summary.Suppliers = append(summary.Suppliers, models.SupplierTotal{
			BoughtFrom:      name,
			Stones:          acc.stones,
			EstimatedFeet:   acc.feet.InexactFloat64(),
			TotalInvestment: acc.investment.InexactFloat64(),
		})
	}
	sort.Slice(summary.Suppliers, func(i, j int) bool {
		a, b := summary.Suppliers[i], summary.Suppliers[j]
		if a.TotalInvestment != b.TotalInvestment {
			return a.TotalInvestment > b.TotalInvestment
		}
		return a.BoughtFrom < b.BoughtFrom
	})

	return summary, nil
}

// FormatSummary renders a short human-readable inventory report.
func FormatSummary(at time.Time, summary models.InventorySummary) string {
	if summary.Stones == 0 {
		return fmt.Sprintf("Inventory (%s): no stones recorded yet.", at.Format(dateLayout))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Inventory (%s): %d stones, %.2f ft, investment %.2f (cost %.2f + travel %.2f).",
		at.Format(dateLayout), summary.Stones, summary.EstimatedFeet,
		summary.TotalInvestment, summary.StoneCost, summary.StoneTravelCost)

	for _, supplier := range summary.Suppliers {
		fmt.Fprintf(&b, "\n- %s: %d stones, %.2f ft, %.2f", supplier.BoughtFrom, supplier.Stones, supplier.EstimatedFeet, supplier.TotalInvestment)
	}
	return b.String()
}

// RecordSnapshot summarizes the inventory and stores the result in every configured store.
// Store failures are logged and the first one is returned after all stores were tried.
func (s *Service) RecordSnapshot(ctx context.Context) (models.InventorySnapshot, error) {
	summary, err := s.Summarize(ctx)
	if err != nil {
		return models.InventorySnapshot{}, err
	}

	snapshot := models.InventorySnapshot{TakenAt: s.now().UTC(), Summary: summary}
	var firstErr error

	if s.store != nil {
		if err := s.store.SaveInventorySnapshot(ctx, snapshot); err != nil {
			s.logger.Error("failed to store inventory snapshot", zap.Error(err))
			firstErr = err
		}
	}

	if s.sheets != nil {
		if err := s.sheets.AppendSnapshot(ctx, snapshot); err != nil {
			s.logger.Error("failed to append inventory row", zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	s.logger.Info("inventory snapshot recorded",
		zap.Int("stones", summary.Stones),
		zap.Float64("total_investment", summary.TotalInvestment))

	return snapshot, firstErr
}

// LatestSnapshot returns the most recent stored snapshot, or nil when none exists yet.
func (s *Service) LatestSnapshot(ctx context.Context) (*models.InventorySnapshot, error) {
	if s.store == nil {
		return nil, ErrNoSnapshotStore
	}
	snapshot, err := s.store.LatestInventorySnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}
	return snapshot, nil
}

// History returns the snapshot totals kept in the inventory sheet, oldest first.
func (s *Service) History(ctx context.Context) ([]models.InventorySnapshot, error) {
	if s.sheets == nil {
		return nil, ErrNoSnapshotStore
	}
	snapshots, err := s.sheets.ReadSnapshots(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot history: %w", err)
	}
	sort.SliceStable(snapshots, func(i, j int) bool {
		return snapshots[i].TakenAt.Before(snapshots[j].TakenAt)
	})
	return snapshots, nil
}
