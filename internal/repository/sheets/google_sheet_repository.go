package sheets

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/stones/internal/config"
	"github.com/mamadbah2/stones/internal/domain/models"
)

const (
	// InventoryRange holds one row per snapshot: date, stones, feet, cost, travel, investment, suppliers.
	InventoryRange = "Inventory!A:G"
	dateLayout     = "2006-01-02"
)

// Repository stores inventory snapshots as spreadsheet rows.
type Repository interface {
	AppendSnapshot(ctx context.Context, snapshot models.InventorySnapshot) error
	ReadSnapshots(ctx context.Context) ([]models.InventorySnapshot, error)
}

// GoogleSheetRepository implements the Repository interface using the official Google Sheets API.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetRepository builds a Google Sheets backed repository instance.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*GoogleSheetRepository, error) {
	return newRepository(ctx, cfg.SpreadsheetID, logger,
		option.WithCredentialsFile(cfg.CredentialsPath),
		option.WithScopes(sheetsapi.SpreadsheetsScope))
}

func newRepository(ctx context.Context, spreadsheetID string, logger *zap.Logger, opts ...option.ClientOption) (*GoogleSheetRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: spreadsheetID,
		logger:        logger,
	}, nil
}

// AppendSnapshot appends the snapshot totals as a new inventory row. Values are
// written RAW so the sheet locale cannot reformat the date or the numbers.
func (r *GoogleSheetRepository) AppendSnapshot(ctx context.Context, snapshot models.InventorySnapshot) error {
	payload := &sheetsapi.ValueRange{Values: [][]interface{}{EncodeRow(snapshot)}}

	call := r.service.Spreadsheets.Values.Append(r.spreadsheetID, InventoryRange, payload).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append inventory row: %w", err)
	}

	r.logger.Debug("inventory row appended", zap.Time("taken_at", snapshot.TakenAt))
	return nil
}

// ReadSnapshots loads every readable inventory row. A header row is skipped
// silently; other unreadable rows are skipped with a warning.
func (r *GoogleSheetRepository) ReadSnapshots(ctx context.Context) ([]models.InventorySnapshot, error) {
	resp, err := r.service.Spreadsheets.Values.Get(r.spreadsheetID, InventoryRange).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("SERIAL_NUMBER").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read inventory range: %w", err)
	}

	snapshots := make([]models.InventorySnapshot, 0, len(resp.Values))
	skipped := 0
	for i, row := range resp.Values {
		snapshot, err := DecodeRow(row)
		if err != nil {
			if i > 0 {
				skipped++
				r.logger.Debug("skip inventory row", zap.Int("row", i+1), zap.Error(err))
			}
			continue
		}
		snapshots = append(snapshots, snapshot)
	}
	if skipped > 0 {
		r.logger.Warn("unreadable inventory rows skipped", zap.Int("count", skipped))
	}
	return snapshots, nil
}

// EncodeRow flattens a snapshot into the inventory sheet column order.
func EncodeRow(snapshot models.InventorySnapshot) []interface{} {
	s := snapshot.Summary
	return []interface{}{
		snapshot.TakenAt.Format(dateLayout),
		s.Stones,
		s.EstimatedFeet,
		s.StoneCost,
		s.StoneTravelCost,
		s.TotalInvestment,
		len(s.Suppliers),
	}
}

// DecodeRow parses an inventory row back into a snapshot. Supplier details are
// not kept in the sheet, so only the totals are restored. Cells may hold the
// written strings or the unformatted numbers the API returns, including a date
// serial number for rows the sheet converted to dates.
func DecodeRow(row []interface{}) (models.InventorySnapshot, error) {
	if len(row) < 6 {
		return models.InventorySnapshot{}, fmt.Errorf("expected at least 6 columns, got %d", len(row))
	}

	date, err := cellDate(row[0])
	if err != nil {
		return models.InventorySnapshot{}, fmt.Errorf("date: %w", err)
	}

	stones, err := cellDecimal(row[1])
	if err != nil {
		return models.InventorySnapshot{}, fmt.Errorf("stones: %w", err)
	}
	if !stones.IsInteger() {
		return models.InventorySnapshot{}, fmt.Errorf("stones: %s is not a whole number", stones)
	}

	numbers := make([]float64, 4)
	for i := range numbers {
		d, err := cellDecimal(row[i+2])
		if err != nil {
			return models.InventorySnapshot{}, fmt.Errorf("column %d: %w", i+3, err)
		}
		numbers[i] = d.InexactFloat64()
	}

	return models.InventorySnapshot{
		TakenAt: date,
		Summary: models.InventorySummary{
			Stones:          int(stones.IntPart()),
			EstimatedFeet:   numbers[0],
			StoneCost:       numbers[1],
			StoneTravelCost: numbers[2],
			TotalInvestment: numbers[3],
		},
	}, nil
}

// sheetsEpoch is day zero of spreadsheet date serial numbers.
var sheetsEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

func cellDate(cell interface{}) (time.Time, error) {
	switch v := cell.(type) {
	case float64:
		return sheetsEpoch.AddDate(0, 0, int(v)), nil
	default:
		return time.Parse(dateLayout, fmt.Sprint(v))
	}
}

func cellDecimal(cell interface{}) (decimal.Decimal, error) {
	switch v := cell.(type) {
	case float64:
		return decimal.NewFromFloat(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	default:
		return decimal.NewFromString(fmt.Sprint(v))
	}
}
