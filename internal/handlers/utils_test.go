package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"car-valuation/internal/apperror"
	"car-valuation/internal/logger"
)

func TestWriteJSONResponse(t *testing.T) {
	rr := httptest.NewRecorder()
	writeJSONResponse(rr, http.StatusOK, map[string]string{"ok": "true"})

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content-type: %s", ct)
	}
	if body := rr.Body.String(); body == "" {
		t.Fatalf("empty body")
	}
}

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, http.StatusNotFound, "nothing here")

	var resp ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rr.Code != http.StatusNotFound || resp.Error != "Not Found" || resp.Message != "nothing here" {
		t.Fatalf("unexpected error response: %d %+v", rr.Code, resp)
	}
}

func TestWriteServiceError_Mapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{err: apperror.InvalidField("number_of_miles", "bad"), code: http.StatusBadRequest},
		{err: fmt.Errorf("wrap: %w", apperror.NotFound("missing", nil)), code: http.StatusNotFound},
		{err: apperror.Unavailable("later", nil), code: http.StatusServiceUnavailable},
		{err: errors.New("boom"), code: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		rr := httptest.NewRecorder()
		writeServiceError(rr, logger.NewNop(), tt.err, "internal")
		if rr.Code != tt.code {
			t.Fatalf("%v: expected %d, got %d", tt.err, tt.code, rr.Code)
		}
	}
}
