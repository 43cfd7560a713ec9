package models

import (
	"encoding/json"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// StatusFreshStone is assigned to every stone recorded through the add flow.
const StatusFreshStone = "Fresh Stone"

// StoneRecord is the payload sent to the backend when a stone is created or updated.
// The total investment is not a field: it is always derived from the two cost fields.
type StoneRecord struct {
	StoneName       string    `json:"stoneName"`
	Status          string    `json:"status"`
	Date            time.Time `json:"date"`
	BoughtFrom      string    `json:"boughtFrom"`
	EstimatedFeet   float64   `json:"estimatedFeet"`
	StoneCost       float64   `json:"stoneCost"`
	StoneTravelCost float64   `json:"stoneTravelCost"`
}

// TotalInvestment returns stone cost plus travel cost, summed in decimal.
func (r StoneRecord) TotalInvestment() float64 {
	return amount(r.StoneCost).Add(amount(r.StoneTravelCost)).InexactFloat64()
}

func amount(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

type plainRecord StoneRecord

// MarshalJSON emits the record together with its derived totalInvestment.
func (r StoneRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		plainRecord
		TotalInvestment float64 `json:"totalInvestment"`
	}{plainRecord(r), r.TotalInvestment()})
}

// Stone is a persisted stone record as returned by the backend.
type Stone struct {
	ID string
	StoneRecord
}

// MarshalJSON keeps the backend's `_id` key.
func (s Stone) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID string `json:"_id,omitempty"`
		plainRecord
		TotalInvestment float64 `json:"totalInvestment"`
	}{s.ID, plainRecord(s.StoneRecord), s.TotalInvestment()})
}

// UnmarshalJSON accepts either `_id` or `id` as the identifier. Any
// totalInvestment sent by the backend is ignored and recomputed on read.
func (s *Stone) UnmarshalJSON(data []byte) error {
	var aux struct {
		MongoID string `json:"_id"`
		ID      string `json:"id"`
		plainRecord
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	s.ID = aux.MongoID
	if s.ID == "" {
		s.ID = aux.ID
	}
	s.StoneRecord = StoneRecord(aux.plainRecord)
	return nil
}
