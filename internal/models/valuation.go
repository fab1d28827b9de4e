package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ValuationRequest представляет запрос на оценку автомобиля.
// purchase_value принимается и числом, и строкой ("35000.00").
type ValuationRequest struct {
	AgeInMonths            int             `json:"age_in_months"`
	NumberOfMiles          int             `json:"number_of_miles"`
	NumberOfPreviousOwners int             `json:"number_of_previous_owners"`
	NumberOfCollisions     int             `json:"number_of_collisions"`
	PurchaseValue          decimal.Decimal `json:"purchase_value"`
}

// CreateValuationRequest представляет тело POST /api/valuations.
// Поля-указатели отличают отсутствующее поле (или null) от нуля.
type CreateValuationRequest struct {
	AgeInMonths            *int             `json:"age_in_months"`
	NumberOfMiles          *int             `json:"number_of_miles"`
	NumberOfPreviousOwners *int             `json:"number_of_previous_owners"`
	NumberOfCollisions     *int             `json:"number_of_collisions"`
	PurchaseValue          *decimal.Decimal `json:"purchase_value"`
}

// ToValuationRequest разыменовывает поля; вызывать после проверки обязательных полей.
func (r *CreateValuationRequest) ToValuationRequest() *ValuationRequest {
	return &ValuationRequest{
		AgeInMonths:            *r.AgeInMonths,
		NumberOfMiles:          *r.NumberOfMiles,
		NumberOfPreviousOwners: *r.NumberOfPreviousOwners,
		NumberOfCollisions:     *r.NumberOfCollisions,
		PurchaseValue:          *r.PurchaseValue,
	}
}

// AdjustmentView представляет один шаг расчёта в ответе API
type AdjustmentView struct {
	Step   string `json:"step"`
	Units  int    `json:"units"`
	Factor string `json:"factor"`
	Value  string `json:"value"`
}

// ValuationQuote представляет результат оценки
type ValuationQuote struct {
	ID          uuid.UUID        `json:"id"`
	Price       string           `json:"price"`
	Method      string           `json:"method"`
	Car         ValuationRequest `json:"car"`
	Adjustments []AdjustmentView `json:"adjustments"`
	ComputedAt  time.Time        `json:"computed_at"`
	Cached      bool             `json:"cached"`
}
