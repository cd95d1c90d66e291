// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielhkuo/truevote/apperr"
	"github.com/danielhkuo/truevote/models"
)

func TestWithLogging_PreservesResponse(t *testing.T) {
	testCases := []struct {
		name       string
		statusCode int
		body       string
	}{
		{"OK", http.StatusOK, "ok"},
		{"Created", http.StatusCreated, `{"id":"123"}`},
		{"BadRequest", http.StatusBadRequest, `{"error":"bad request"}`},
		{"NotFound", http.StatusNotFound, "not found"},
		{"InternalError", http.StatusInternalServerError, "error"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := WithLogging(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.statusCode)
				w.Write([]byte(tc.body))
			})

			req := httptest.NewRequest("POST", "/api/test", nil)
			w := httptest.NewRecorder()

			handler(w, req)

			if w.Code != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, w.Code)
			}
			if w.Body.String() != tc.body {
				t.Errorf("Expected body '%s', got '%s'", tc.body, w.Body.String())
			}
		})
	}
}

func TestSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	Success(w, http.StatusCreated, "poll created", map[string]string{"id": "p1"})

	if w.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected Content-Type 'application/json', got '%s'", ct)
	}

	expected := `{"success":true,"message":"poll created","data":{"id":"p1"}}`
	if body := strings.TrimSpace(w.Body.String()); body != expected {
		t.Errorf("Expected body '%s', got '%s'", expected, body)
	}
}

func TestError_StatusMapping(t *testing.T) {
	var v apperr.Validation
	v.Add("title", "title is required")

	testCases := []struct {
		name       string
		err        error
		statusCode int
		message    string
	}{
		{"validation", v.Err(), http.StatusBadRequest, "validation failed"},
		{"unauthorized", apperr.ErrNotLoggedIn, http.StatusUnauthorized, "must be logged in"},
		{"forbidden", apperr.ErrNotPollOwner, http.StatusForbidden, "only the poll creator may modify this poll"},
		{"not found", apperr.ErrOptionNotFound, http.StatusNotFound, "invalid option"},
		{"conflict", apperr.ErrAlreadyVoted, http.StatusConflict, "already voted"},
		{"dependency", apperr.New(apperr.KindDependency, "file store down"), http.StatusBadGateway, "file store down"},
		{"unavailable", apperr.New(apperr.KindUnavailable, "storage unavailable, try again"), http.StatusServiceUnavailable, "storage unavailable, try again"},
		{"wrapped sentinel", fmt.Errorf("cast: %w", apperr.ErrAlreadyVoted), http.StatusConflict, "already voted"},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, "internal error"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/", nil)

			Error(w, req, tc.err)

			if w.Code != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, w.Code)
			}

			var resp models.APIResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode error response: %v", err)
			}
			if resp.Success {
				t.Error("Expected success=false")
			}
			if resp.Message != tc.message {
				t.Errorf("Expected message '%s', got '%s'", tc.message, resp.Message)
			}
		})
	}
}

func TestError_FieldDetail(t *testing.T) {
	var v apperr.Validation
	v.Add("option_texts", "at least %d options are required", 2)

	w := httptest.NewRecorder()
	Error(w, httptest.NewRequest("POST", "/polls", nil), v.Err())

	var resp models.APIResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	if got := resp.Errors["option_texts"]; len(got) != 1 || got[0] != "at least 2 options are required" {
		t.Errorf("Expected option_texts detail, got %v", resp.Errors)
	}
}

func TestError_RetryAfterOnUnavailable(t *testing.T) {
	w := httptest.NewRecorder()
	Error(w, httptest.NewRequest("POST", "/votes", nil), apperr.New(apperr.KindUnavailable, "busy"))
	if w.Header().Get("Retry-After") == "" {
		t.Error("Expected Retry-After header on 503")
	}
}

func TestParseJSONBody(t *testing.T) {
	t.Run("valid JSON", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{"option_id":"o1","extra":true}`))

		var parsed models.CastVoteRequest
		if err := ParseJSONBody(httptest.NewRecorder(), req, &parsed); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if parsed.OptionID != "o1" {
			t.Errorf("Expected option_id 'o1', got '%s'", parsed.OptionID)
		}
	})

	t.Run("invalid JSON is a validation error", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{invalid json}`))

		var parsed models.CastVoteRequest
		err := ParseJSONBody(httptest.NewRecorder(), req, &parsed)
		if apperr.KindOf(err) != apperr.KindValidation {
			t.Errorf("Expected validation error, got %v", err)
		}
	})

	t.Run("empty body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(""))

		var parsed models.CastVoteRequest
		if err := ParseJSONBody(httptest.NewRecorder(), req, &parsed); err == nil {
			t.Error("Expected error for empty body")
		}
	})

	t.Run("oversized body", func(t *testing.T) {
		body := `{"option_id":"` + strings.Repeat("x", MaxBodyBytes) + `"}`
		req := httptest.NewRequest("POST", "/", strings.NewReader(body))

		var parsed models.CastVoteRequest
		err := ParseJSONBody(httptest.NewRecorder(), req, &parsed)
		if apperr.KindOf(err) != apperr.KindValidation || !strings.Contains(apperr.Message(err), "exceeds") {
			t.Errorf("Expected size validation error, got %v", err)
		}
	})
}

func TestCORS(t *testing.T) {
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("handled"))
	})

	corsHandler := CORS(nextHandler)

	t.Run("preflight OPTIONS request", func(t *testing.T) {
		req := httptest.NewRequest("OPTIONS", "/polls", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		w := httptest.NewRecorder()

		corsHandler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", w.Code)
		}
		if w.Body.String() != "" {
			t.Errorf("Expected empty body for preflight, got '%s'", w.Body.String())
		}
		if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
			t.Error("Expected Access-Control-Allow-Origin to match request origin")
		}
		if !strings.Contains(w.Header().Get("Access-Control-Allow-Headers"), "Authorization") {
			t.Error("Expected Authorization in allowed headers")
		}
	})

	t.Run("request without origin defaults to wildcard", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/polls", nil)
		w := httptest.NewRecorder()

		corsHandler.ServeHTTP(w, req)

		if w.Body.String() != "handled" {
			t.Error("Expected next handler to be called")
		}
		if w.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Error("Expected Access-Control-Allow-Origin to default to '*'")
		}
	})
}

func TestGetClientIP(t *testing.T) {
	testCases := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		expected   string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.2:1234", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.4"}, "10.0.0.2:1234", "198.51.100.4"},
		{"remote addr", nil, "192.0.2.1:5678", "192.0.2.1"},
		{"remote without port", nil, "192.0.2.1", "192.0.2.1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tc.remoteAddr
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			if got := GetClientIP(req); got != tc.expected {
				t.Errorf("Expected %s, got %s", tc.expected, got)
			}
		})
	}
}
