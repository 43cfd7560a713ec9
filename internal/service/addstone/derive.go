package addstone

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/mamadbah2/stones/internal/domain/models"
	"github.com/mamadbah2/stones/internal/validator"
)

var displayPrinter = message.NewPrinter(language.English)

// ValidationError lists the fields that block a submission, keyed by field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", key, e.Fields[key]))
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

// Validate applies the input constraints of the form: required fields must be
// present and numeric fields must not be negative. Non-numeric values pass and
// are coerced to zero when the record is built.
func Validate(f models.FormFields) error {
	v := validator.New()

	v.Check(validator.NotBlank(f.StoneName), models.FieldStoneName, "must be provided")
	v.Check(validator.NotBlank(f.BoughtFrom), models.FieldBoughtFrom, "must be provided")
	v.Check(validator.NotBlank(f.EstimatedFeet), models.FieldEstimatedFeet, "must be provided")
	v.Check(validator.NotBlank(f.StoneCost), models.FieldStoneCost, "must be provided")

	v.Check(validator.NotNegative(f.EstimatedFeet), models.FieldEstimatedFeet, "must be zero or greater")
	v.Check(validator.NotNegative(f.StoneCost), models.FieldStoneCost, "must be zero or greater")
	v.Check(validator.NotNegative(f.StoneTravelCost), models.FieldStoneTravelCost, "must be zero or greater")

	if !v.Valid() {
		return &ValidationError{Fields: v.Errors}
	}
	return nil
}

// ParseAmount converts a numeric input to a non-negative number.
// Blank, unparsable, out-of-range and negative values all become 0.
func ParseAmount(value string) float64 {
	f := parseAmount(value).InexactFloat64()
	if math.IsInf(f, 0) {
		return 0
	}
	return f
}

func parseAmount(value string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// TotalInvestment is the investment shown while the form is being edited.
func TotalInvestment(f models.FormFields) float64 {
	total := parseAmount(f.StoneCost).Add(parseAmount(f.StoneTravelCost)).InexactFloat64()
	if math.IsInf(total, 0) {
		return 0
	}
	return total
}

// InvestmentDisplay renders the read-only investment field, e.g. "Investment: ₹5,200".
func InvestmentDisplay(f models.FormFields) string {
	return displayPrinter.Sprintf("Investment: ₹%v", number.Decimal(TotalInvestment(f), number.MaxFractionDigits(3)))
}

// BuildRecord derives the submission payload from the raw form values.
// An unset or unreadable date falls back to now.
func BuildRecord(f models.FormFields, now time.Time) models.StoneRecord {
	date := now
	if raw := strings.TrimSpace(f.Date); raw != "" {
		if parsed, err := time.Parse(models.DateLayout, raw); err == nil {
			date = parsed
		}
	}

	return models.StoneRecord{
		StoneName:       strings.TrimSpace(f.StoneName),
		Status:          models.StatusFreshStone,
		Date:            date,
		BoughtFrom:      strings.TrimSpace(f.BoughtFrom),
		EstimatedFeet:   ParseAmount(f.EstimatedFeet),
		StoneCost:       ParseAmount(f.StoneCost),
		StoneTravelCost: ParseAmount(f.StoneTravelCost),
	}
}
