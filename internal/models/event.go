package models

import (
	"time"

	"github.com/google/uuid"
)

// EventType представляет тип события Kafka
type EventType string

const (
	EventTypeValuationComputed EventType = "valuation.computed"
)

// Event представляет событие, публикуемое в Kafka
type Event struct {
	ID        uuid.UUID   `json:"id"`
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// ValuationComputedData описывает полезную нагрузку события valuation.computed
type ValuationComputedData struct {
	QuoteID uuid.UUID        `json:"quote_id"`
	Price   string           `json:"price"`
	Method  string           `json:"method"`
	Car     ValuationRequest `json:"car"`
}
