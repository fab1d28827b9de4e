package handlers

import (
	"context"

	"car-valuation/internal/models"
)

// ----- Valuations -----

type ValuationService interface {
	Quote(ctx context.Context, req *models.ValuationRequest) (*models.ValuationQuote, error)
}

// ----- Health -----

type RedisHealth interface {
	Health(ctx context.Context) error
}

// KafkaHealthCheck проверяет доступность брокеров.
type KafkaHealthCheck func(brokers []string) error
