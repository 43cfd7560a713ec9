package models

import "time"

// SupplierTotal aggregates the stones bought from one supplier.
type SupplierTotal struct {
	BoughtFrom      string  `bson:"bought_from" json:"boughtFrom"`
	Stones          int     `bson:"stones" json:"stones"`
	EstimatedFeet   float64 `bson:"estimated_feet" json:"estimatedFeet"`
	TotalInvestment float64 `bson:"total_investment" json:"totalInvestment"`
}

// InventorySummary is the aggregate view over every stone the backend lists.
type InventorySummary struct {
	Stones          int             `bson:"stones" json:"stones"`
	EstimatedFeet   float64         `bson:"estimated_feet" json:"estimatedFeet"`
	StoneCost       float64         `bson:"stone_cost" json:"stoneCost"`
	StoneTravelCost float64         `bson:"stone_travel_cost" json:"stoneTravelCost"`
	TotalInvestment float64         `bson:"total_investment" json:"totalInvestment"`
	ByStatus        map[string]int  `bson:"by_status" json:"byStatus"`
	Suppliers       []SupplierTotal `bson:"suppliers" json:"suppliers"`
}

// InventorySnapshot is an InventorySummary stored at a point in time.
type InventorySnapshot struct {
	TakenAt time.Time        `bson:"taken_at" json:"takenAt"`
	Summary InventorySummary `bson:"summary" json:"summary"`
}
