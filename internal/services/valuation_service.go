package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"strconv"
	"time"

	"car-valuation/internal/apperror"
	"car-valuation/internal/config"
	"car-valuation/internal/logger"
	"car-valuation/internal/models"
	"car-valuation/internal/redis"
	"car-valuation/internal/valuation"

	"github.com/google/uuid"
)

const defaultQuoteTTL = time.Hour

// QuoteCache хранит готовые оценки между запросами.
type QuoteCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// EventPublisher публикует событие о новой оценке.
type EventPublisher interface {
	PublishValuationComputed(quote *models.ValuationQuote) error
}

// ValuationService оценивает автомобили, кеширует результат в Redis
// и сообщает о каждой новой оценке в Kafka.
type ValuationService struct {
	calc   *valuation.Calculator
	cache  QuoteCache
	events EventPublisher
	log    *logger.Logger
	ttl    time.Duration
}

// NewValuationService создаёт сервис оценки. cache и events могут быть nil.
func NewValuationService(calc *valuation.Calculator, cache QuoteCache, events EventPublisher, log *logger.Logger, cfg *config.ValuationConfig) *ValuationService {
	ttl := defaultQuoteTTL
	if cfg != nil && cfg.CacheTTLMinutes > 0 {
		ttl = time.Duration(cfg.CacheTTLMinutes) * time.Minute
	}
	return &ValuationService{
		calc:   calc,
		cache:  cache,
		events: events,
		log:    log,
		ttl:    ttl,
	}
}

// Quote возвращает оценку автомобиля. Ошибки Redis и Kafka только логируются:
// цена от них не зависит.
func (s *ValuationService) Quote(ctx context.Context, req *models.ValuationRequest) (*models.ValuationQuote, error) {
	car := toCar(req)
	if err := car.Validate(); err != nil {
		return nil, err
	}

	key := redis.GenerateKey(redis.KeyPrefixValuation, quoteKey(s.calc.Method(), car))

	if s.cache != nil {
		var cached models.ValuationQuote
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			cached.Cached = true
			return &cached, nil
		}
		if !apperror.Is(err, apperror.KindNotFound) {
			s.log.WithError(err).WithField("key", key).Warn("Failed to read cached valuation")
		}
	}

	breakdown, err := s.calc.Explain(car)
	if err != nil {
		return nil, err
	}

	quote := newQuote(req, breakdown)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, quote, s.ttl); err != nil {
			s.log.WithError(err).WithField("key", key).Warn("Failed to cache valuation")
		}
	}

	if s.events != nil {
		if err := s.events.PublishValuationComputed(quote); err != nil {
			s.log.WithError(err).WithField("quote_id", quote.ID).Error("Failed to publish valuation computed event")
		}
	}

	s.log.WithFields(map[string]interface{}{
		"quote_id": quote.ID,
		"price":    quote.Price,
		"method":   quote.Method,
	}).Info("Valuation computed")

	return quote, nil
}

func toCar(req *models.ValuationRequest) valuation.Car {
	return valuation.Car{
		AgeInMonths:            req.AgeInMonths,
		NumberOfMiles:          req.NumberOfMiles,
		NumberOfPreviousOwners: req.NumberOfPreviousOwners,
		NumberOfCollisions:     req.NumberOfCollisions,
		PurchaseValue:          req.PurchaseValue,
	}
}

func newQuote(req *models.ValuationRequest, b *valuation.Breakdown) *models.ValuationQuote {
	adjustments := make([]models.AdjustmentView, 0, len(b.Adjustments))
	for _, a := range b.Adjustments {
		adjustments = append(adjustments, models.AdjustmentView{
			Step:   string(a.Step),
			Units:  a.Units,
			Factor: a.Factor.String(),
			Value:  a.Value.String(),
		})
	}

	return &models.ValuationQuote{
		ID:          uuid.New(),
		Price:       b.Price.StringFixed(2),
		Method:      string(b.Method),
		Car:         *req,
		Adjustments: adjustments,
		ComputedAt:  time.Now().UTC(),
	}
}

// quoteKey строит ключ кеша из метода и нормализованных входных данных.
func quoteKey(method valuation.Method, car valuation.Car) string {
	h := fnv.New64a()
	_, _ = fmt.Fprintf(h, "%s|%d|%d|%d|%d|%s",
		method,
		car.AgeInMonths,
		car.NumberOfMiles,
		car.NumberOfPreviousOwners,
		car.NumberOfCollisions,
		car.PurchaseValue.String(),
	)
	return strconv.FormatUint(h.Sum64(), 16)
}
