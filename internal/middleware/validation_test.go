package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"prepai/interview/internal/models"
)

type mockRequest struct {
	Value string `json:"value"`
}

func (m *mockRequest) Validate() error {
	switch m.Value {
	case "error_response":
		return &models.ErrorResponse{Code: "invalid", Message: "invalid"}
	case "generic_error":
		return errors.New("failed")
	default:
		return nil
	}
}

func serveValidated(t *testing.T, body string, next http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	if next == nil {
		next = func(http.ResponseWriter, *http.Request) {}
	}
	handler := ValidateRequest[*mockRequest]()(next)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/test", bytes.NewBufferString(body)))
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp
}

func TestValidateRequestSuccess(t *testing.T) {
	called := false
	rec := serveValidated(t, `{"value":"ok"}`, func(w http.ResponseWriter, r *http.Request) {
		called = true
		if req := GetValidatedRequest[*mockRequest](r); req.Value != "ok" {
			t.Fatalf("expected value ok, got %s", req.Value)
		}
	})

	if !called {
		t.Fatal("expected handler to be called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

func TestValidateRequestEmptyBody(t *testing.T) {
	called := false
	serveValidated(t, "", func(http.ResponseWriter, *http.Request) { called = true })
	if !called {
		t.Fatal("expected empty body to decode to the zero request")
	}
}

func TestValidateRequestInvalidJSON(t *testing.T) {
	rec := serveValidated(t, `{`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Code != "invalid_json" {
		t.Fatalf("expected invalid_json, got %s", resp.Code)
	}
}

func TestValidateRequestTooLarge(t *testing.T) {
	body := `{"value":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	rec := serveValidated(t, body, nil)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
}

func TestValidateRequestValidationErrors(t *testing.T) {
	rec := serveValidated(t, `{"value":"error_response"}`, nil)
	if resp := decodeError(t, rec); rec.Code != http.StatusBadRequest || resp.Code != "invalid" {
		t.Fatalf("expected passthrough error response, got %d %+v", rec.Code, resp)
	}

	rec = serveValidated(t, `{"value":"generic_error"}`, nil)
	if resp := decodeError(t, rec); resp.Code != "validation_error" || resp.Message != "failed" {
		t.Fatalf("expected validation_error, got %+v", resp)
	}
}
