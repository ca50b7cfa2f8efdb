package models

import (
	"time"

	"relocation-quote/internal/distance"
	"relocation-quote/internal/pricing"

	"github.com/google/uuid"
)

// Quote представляет рассчитанное предложение. Не сохраняется.
type Quote struct {
	ID        uuid.UUID              `json:"id"`
	Breakdown pricing.PriceBreakdown `json:"breakdown"`
	Distance  *distance.Result       `json:"distance,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// CreateQuoteRequest представляет запрос на расчёт.
// Если заданы оба адреса, недостающие km_roundtrip и transport_minutes берутся из маршрута.
type CreateQuoteRequest struct {
	Job         pricing.JobInput       `json:"job"`
	Config      *pricing.PartialConfig `json:"config,omitempty"`
	FromAddress string                 `json:"from_address,omitempty"`
	ToAddress   string                 `json:"to_address,omitempty"`
	Depot       *distance.Coordinate   `json:"depot,omitempty"`
}

// DistanceRequest представляет запрос на расчёт пробега
type DistanceRequest struct {
	From  string               `json:"from"`
	To    string               `json:"to"`
	Depot *distance.Coordinate `json:"depot,omitempty"`
}
