package models

import (
	"errors"
	"time"
)

// DateLayout is the layout of the form's date input.
const DateLayout = "2006-01-02"

// Form field names, matching the JSON keys of StoneRecord.
const (
	FieldStoneName       = "stoneName"
	FieldBoughtFrom      = "boughtFrom"
	FieldEstimatedFeet   = "estimatedFeet"
	FieldStoneCost       = "stoneCost"
	FieldStoneTravelCost = "stoneTravelCost"
	FieldDate            = "date"
)

// ErrUnknownField is returned when a field name is not part of the add-stone form.
var ErrUnknownField = errors.New("unknown form field")

// FormFields holds the raw, unvalidated input values of the add-stone form.
type FormFields struct {
	StoneName       string `json:"stoneName"`
	BoughtFrom      string `json:"boughtFrom"`
	EstimatedFeet   string `json:"estimatedFeet"`
	StoneCost       string `json:"stoneCost"`
	StoneTravelCost string `json:"stoneTravelCost"`
	Date            string `json:"date"`
}

// DefaultFields returns an empty form whose date is today's UTC date.
func DefaultFields(now time.Time) FormFields {
	return FormFields{Date: now.UTC().Format(DateLayout)}
}

// Set updates exactly one field by name.
func (f *FormFields) Set(name, value string) error {
	switch name {
	case FieldStoneName:
		f.StoneName = value
	case FieldBoughtFrom:
		f.BoughtFrom = value
	case FieldEstimatedFeet:
		f.EstimatedFeet = value
	case FieldStoneCost:
		f.StoneCost = value
	case FieldStoneTravelCost:
		f.StoneTravelCost = value
	case FieldDate:
		f.Date = value
	default:
		return ErrUnknownField
	}
	return nil
}
