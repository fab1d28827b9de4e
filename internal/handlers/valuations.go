package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"car-valuation/internal/apperror"
	"car-valuation/internal/logger"
	"car-valuation/internal/models"
)

// ValuationHandler представляет обработчик оценок автомобилей
type ValuationHandler struct {
	service ValuationService
	log     *logger.Logger
}

// NewValuationHandler создает новый обработчик оценок
func NewValuationHandler(service ValuationService, log *logger.Logger) *ValuationHandler {
	return &ValuationHandler{
		service: service,
		log:     log,
	}
}

// CreateValuation рассчитывает стоимость автомобиля по телу запроса
func (h *ValuationHandler) CreateValuation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req models.CreateValuationRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	// После объекта допустимы только пробелы.
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Валидация запроса
	if err := h.validateCreateValuationRequest(&req); err != nil {
		writeServiceError(w, h.log, err, "Invalid request")
		return
	}

	quote, err := h.service.Quote(r.Context(), req.ToValuationRequest())
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to compute valuation")
		return
	}

	writeJSONResponse(w, http.StatusOK, quote)
}

// validateCreateValuationRequest требует все поля; отсутствующее поле и null отклоняются.
// Знак значений проверяет калькулятор.
func (h *ValuationHandler) validateCreateValuationRequest(req *models.CreateValuationRequest) error {
	switch {
	case req.AgeInMonths == nil:
		return apperror.InvalidField("age_in_months", "age_in_months is required")
	case req.NumberOfMiles == nil:
		return apperror.InvalidField("number_of_miles", "number_of_miles is required")
	case req.NumberOfPreviousOwners == nil:
		return apperror.InvalidField("number_of_previous_owners", "number_of_previous_owners is required")
	case req.NumberOfCollisions == nil:
		return apperror.InvalidField("number_of_collisions", "number_of_collisions is required")
	case req.PurchaseValue == nil:
		return apperror.InvalidField("purchase_value", "purchase_value is required")
	}
	return nil
}
