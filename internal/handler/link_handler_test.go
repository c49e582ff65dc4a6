package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/Kosench/shortlink/internal/errors"
	"github.com/Kosench/shortlink/internal/model"
)

type mockLinkService struct {
	links       map[string]*model.StatsResponse
	failWith    error
	lastBase    string
	lastRequest *model.ShortenRequest
}

func newMockLinkService() *mockLinkService {
	return &mockLinkService{
		links: make(map[string]*model.StatsResponse),
	}
}

func (m *mockLinkService) CreateShortLink(ctx context.Context, req *model.ShortenRequest, requestBase string) (*model.ShortenResponse, error) {
	m.lastBase = requestBase
	m.lastRequest = req
	if m.failWith != nil {
		return nil, m.failWith
	}

	m.links["abc1234"] = &model.StatsResponse{Code: "abc1234", URL: req.LongURL, CreatedAt: time.Now()}
	return &model.ShortenResponse{
		Code:     "abc1234",
		ShortURL: requestBase + "/abc1234",
	}, nil
}

func (m *mockLinkService) GetStats(ctx context.Context, code string) (*model.StatsResponse, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}

	stats, exists := m.links[code]
	if !exists {
		return nil, apperrors.ErrLinkNotFound
	}
	return stats, nil
}

func (m *mockLinkService) Resolve(ctx context.Context, code string) (string, error) {
	if m.failWith != nil {
		return "", m.failWith
	}

	stats, exists := m.links[code]
	if !exists {
		return "", fmt.Errorf("link with code '%s': %w", code, apperrors.ErrLinkNotFound)
	}
	stats.Clicks++
	return stats.URL, nil
}

func TestLinkHandler_Shorten(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		requestBody    interface{}
		failWith       error
		expectedStatus int
		expectedFields []string
	}{
		{
			name:           "valid request",
			requestBody:    map[string]string{"longUrl": "example.com"},
			expectedStatus: http.StatusOK,
			expectedFields: []string{"code", "shortUrl"},
		},
		{
			name:           "invalid JSON",
			requestBody:    "invalid json",
			expectedStatus: http.StatusBadRequest,
			expectedFields: []string{"error", "message"},
		},
		{
			name:           "longUrl of wrong type",
			requestBody:    map[string]int{"longUrl": 42},
			expectedStatus: http.StatusBadRequest,
			expectedFields: []string{"error", "message"},
		},
		{
			name:           "validation error",
			requestBody:    map[string]string{"longUrl": "example.com", "custom": "!"},
			failWith:       apperrors.NewValidationError("custom", "Invalid custom code"),
			expectedStatus: http.StatusBadRequest,
			expectedFields: []string{"error", "message", "field"},
		},
		{
			name:           "custom code taken",
			requestBody:    map[string]string{"longUrl": "example.com", "custom": "taken"},
			failWith:       fmt.Errorf("custom code 'taken': %w", apperrors.ErrCodeTaken),
			expectedStatus: http.StatusConflict,
			expectedFields: []string{"error", "message"},
		},
		{
			name:           "allocation exhausted",
			requestBody:    map[string]string{"longUrl": "example.com"},
			failWith:       fmt.Errorf("after 5 attempts: %w", apperrors.ErrAllocationExhausted),
			expectedStatus: http.StatusInternalServerError,
			expectedFields: []string{"error", "message", "code"},
		},
		{
			name:           "other business error",
			requestBody:    map[string]string{"longUrl": "example.com"},
			failWith:       apperrors.NewBusinessError("QUOTA", "quota reached", nil),
			expectedStatus: http.StatusInternalServerError,
			expectedFields: []string{"error", "message", "code"},
		},
		{
			name:           "storage error",
			requestBody:    map[string]string{"longUrl": "example.com"},
			failWith:       apperrors.NewStoreError("postgres", "insert", errors.New("boom")),
			expectedStatus: http.StatusInternalServerError,
			expectedFields: []string{"error", "message"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := newMockLinkService()
			mockService.failWith = tt.failWith

			handler := NewLinkHandler(mockService, nil)
			router := gin.New()
			router.POST("/api/shorten", handler.Shorten)

			var body []byte
			var err error
			if str, ok := tt.requestBody.(string); ok {
				body = []byte(str)
			} else {
				body, err = json.Marshal(tt.requestBody)
				if err != nil {
					t.Fatalf("Failed to marshal request body: %v", err)
				}
			}

			req := httptest.NewRequest("POST", "/api/shorten", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Shorten() status = %d, want %d", w.Code, tt.expectedStatus)
			}

			var response map[string]interface{}
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				t.Fatalf("Failed to unmarshal response: %v", err)
			}

			for _, field := range tt.expectedFields {
				if _, exists := response[field]; !exists {
					t.Errorf("Shorten() response missing field: %s", field)
				}
			}
		})
	}
}

func TestLinkHandler_Shorten_Form(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockService := newMockLinkService()
	handler := NewLinkHandler(mockService, nil)
	router := gin.New()
	router.POST("/api/shorten", handler.Shorten)

	form := url.Values{"longUrl": {"example.com"}, "custom": {"promo"}}
	req := httptest.NewRequest("POST", "/api/shorten", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Shorten() status = %d, want %d", w.Code, http.StatusOK)
	}
	if mockService.lastRequest.LongURL != "example.com" || mockService.lastRequest.Custom != "promo" {
		t.Errorf("Shorten() bound %+v from form", mockService.lastRequest)
	}
}

func TestLinkHandler_Shorten_RequestBase(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"plain request", nil, "http://example.org"},
		{"behind TLS proxy", map[string]string{"X-Forwarded-Proto": "https"}, "https://example.org"},
		{"forwarded host", map[string]string{"X-Forwarded-Proto": "https, http", "X-Forwarded-Host": "sho.rt"}, "https://sho.rt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := newMockLinkService()
			handler := NewLinkHandler(mockService, nil)
			router := gin.New()
			router.POST("/api/shorten", handler.Shorten)

			req := httptest.NewRequest("POST", "http://example.org/api/shorten", bytes.NewBufferString(`{"longUrl":"example.com","custom":"mine"}`))
			req.Header.Set("Content-Type", "application/json")
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if mockService.lastBase != tt.want {
				t.Errorf("request base = %q, want %q", mockService.lastBase, tt.want)
			}
			if mockService.lastRequest.Custom != "mine" {
				t.Errorf("custom = %q, want mine", mockService.lastRequest.Custom)
			}
		})
	}
}

func TestLinkHandler_Stats(t *testing.T) {
	gin.SetMode(gin.TestMode)

	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	mockService := newMockLinkService()
	mockService.links["abc1234"] = &model.StatsResponse{
		Code:      "abc1234",
		URL:       "https://example.com",
		Clicks:    5,
		CreatedAt: created,
	}

	handler := NewLinkHandler(mockService, nil)
	router := gin.New()
	router.GET("/api/stats/:code", handler.Stats)

	t.Run("existing link", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/stats/abc1234", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Stats() status = %d, want %d", w.Code, http.StatusOK)
		}

		var response map[string]interface{}
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}

		if response["code"] != "abc1234" || response["url"] != "https://example.com" || response["clicks"] != float64(5) {
			t.Errorf("Stats() response = %v", response)
		}
		if response["createdAt"] != "2024-03-01T10:00:00Z" {
			t.Errorf("Stats() createdAt = %v", response["createdAt"])
		}
	})

	t.Run("non-existing link", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/stats/notfound", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Stats() status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})
}

func TestLinkHandler_Redirect(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockService := newMockLinkService()
	mockService.links["abc1234"] = &model.StatsResponse{
		Code: "abc1234",
		URL:  "https://example.com",
	}

	handler := NewLinkHandler(mockService, nil)
	router := gin.New()
	router.GET("/:code", handler.Redirect)

	t.Run("successful redirect", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/abc1234", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusFound {
			t.Errorf("Redirect() status = %d, want %d", w.Code, http.StatusFound)
		}

		location := w.Header().Get("Location")
		if location != "https://example.com" {
			t.Errorf("Redirect() Location = %s, want https://example.com", location)
		}

		if mockService.links["abc1234"].Clicks != 1 {
			t.Errorf("clicks = %d, want 1", mockService.links["abc1234"].Clicks)
		}
	})

	t.Run("non-existing link", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/notfound", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Redirect() status = %d, want %d", w.Code, http.StatusNotFound)
		}
		if body := w.Body.String(); body != "Short URL not found" {
			t.Errorf("Redirect() body = %q", body)
		}
	})

	t.Run("storage error", func(t *testing.T) {
		mockService.failWith = apperrors.NewStoreError("mongodb", "increment", errors.New("timeout"))
		defer func() { mockService.failWith = nil }()

		req := httptest.NewRequest("GET", "/abc1234", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("Redirect() status = %d, want %d", w.Code, http.StatusInternalServerError)
		}
	})
}
