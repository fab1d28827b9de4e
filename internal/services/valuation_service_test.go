package services

import (
	"context"
	"errors"
	"testing"

	"car-valuation/internal/apperror"
	"car-valuation/internal/config"
	"car-valuation/internal/logger"
	"car-valuation/internal/models"
	"car-valuation/internal/valuation"

	"github.com/shopspring/decimal"
)

type stubPublisher struct {
	published []*models.ValuationQuote
	err       error
}

func (s *stubPublisher) PublishValuationComputed(quote *models.ValuationQuote) error {
	s.published = append(s.published, quote)
	return s.err
}

func scenarioRequest(purchase string, owners int) *models.ValuationRequest {
	return &models.ValuationRequest{
		AgeInMonths:            36,
		NumberOfMiles:          250000,
		NumberOfPreviousOwners: owners,
		NumberOfCollisions:     1,
		PurchaseValue:          decimal.RequireFromString(purchase),
	}
}

func TestValuationService_QuoteComputesCachesAndPublishes(t *testing.T) {
	client, _ := newMiniRedisClient(t)
	pub := &stubPublisher{}
	svc := NewValuationService(valuation.NewCalculator(valuation.MethodLinear), client, pub, logger.NewNop(), &config.ValuationConfig{CacheTTLMinutes: 5})

	quote, err := svc.Quote(context.Background(), scenarioRequest("35000", 0))
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if quote.Price != "21657.02" {
		t.Fatalf("expected 21657.02, got %s", quote.Price)
	}
	if quote.Method != "linear" || quote.Cached {
		t.Fatalf("unexpected quote meta: %+v", quote)
	}
	if len(quote.Adjustments) != 5 || quote.Adjustments[4].Step != "owner_bonus" {
		t.Fatalf("expected owner bonus as last adjustment, got %+v", quote.Adjustments)
	}
	if len(pub.published) != 1 {
		t.Fatalf("expected one event, got %d", len(pub.published))
	}

	again, err := svc.Quote(context.Background(), scenarioRequest("35000.00", 0))
	if err != nil {
		t.Fatalf("second quote failed: %v", err)
	}
	if !again.Cached || again.ID != quote.ID || again.Price != quote.Price {
		t.Fatalf("expected cached quote %s, got %+v", quote.ID, again)
	}
	if len(pub.published) != 1 {
		t.Fatalf("cached quote must not publish again, got %d events", len(pub.published))
	}
}

func TestValuationService_DifferentInputsDifferentKeys(t *testing.T) {
	client, _ := newMiniRedisClient(t)
	svc := NewValuationService(valuation.NewCalculator(valuation.MethodLinear), client, nil, logger.NewNop(), nil)

	first, err := svc.Quote(context.Background(), scenarioRequest("35000", 1))
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	second, err := svc.Quote(context.Background(), scenarioRequest("35000", 3))
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if second.Cached || first.Price == second.Price {
		t.Fatalf("expected distinct quotes, got %s and %s", first.Price, second.Price)
	}
	if second.Price != "14766.15" {
		t.Fatalf("expected 14766.15, got %s", second.Price)
	}
}

func TestValuationService_MethodIsPartOfKey(t *testing.T) {
	linear := quoteKey(valuation.MethodLinear, valuation.Car{PurchaseValue: decimal.NewFromInt(100)})
	compound := quoteKey(valuation.MethodCompound, valuation.Car{PurchaseValue: decimal.NewFromInt(100)})
	if linear == compound {
		t.Fatalf("expected method to change cache key")
	}
}

func TestValuationService_ValidationError(t *testing.T) {
	pub := &stubPublisher{}
	svc := NewValuationService(valuation.NewCalculator(""), nil, pub, logger.NewNop(), nil)

	req := scenarioRequest("35000", 1)
	req.NumberOfCollisions = -2

	_, err := svc.Quote(context.Background(), req)
	if !apperror.Is(err, apperror.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if apperror.FieldOf(err) != "number_of_collisions" {
		t.Fatalf("expected number_of_collisions field, got %q", apperror.FieldOf(err))
	}
	if len(pub.published) != 0 {
		t.Fatalf("invalid request must not publish")
	}
}

func TestValuationService_InfrastructureFailuresAreBestEffort(t *testing.T) {
	client, mr := newMiniRedisClient(t)
	mr.Close()
	pub := &stubPublisher{err: errors.New("kafka down")}
	svc := NewValuationService(valuation.NewCalculator(valuation.MethodLinear), client, pub, logger.NewNop(), nil)

	quote, err := svc.Quote(context.Background(), scenarioRequest("35000", 1))
	if err != nil {
		t.Fatalf("expected quote despite redis/kafka failure, got %v", err)
	}
	if quote.Price != "19688.20" {
		t.Fatalf("expected 19688.20, got %s", quote.Price)
	}
	if len(pub.published) != 1 {
		t.Fatalf("expected publish attempt")
	}
}

func TestValuationService_WithoutCache(t *testing.T) {
	svc := NewValuationService(valuation.NewCalculator(valuation.MethodCompound), nil, nil, logger.NewNop(), nil)

	quote, err := svc.Quote(context.Background(), scenarioRequest("35000", 1))
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if quote.Price != "21208.31" || quote.Method != "compound" {
		t.Fatalf("unexpected quote: %s %s", quote.Price, quote.Method)
	}
	if svc.ttl != defaultQuoteTTL {
		t.Fatalf("expected default ttl, got %v", svc.ttl)
	}
}
