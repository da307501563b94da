package middleware_test

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medtrack/pharmacy-be/internal/handlers/middleware"
	"github.com/medtrack/pharmacy-be/internal/pkg/logger"
	"github.com/medtrack/pharmacy-be/test/helpers"
)

func TestRequestID(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := r.Context().Value(logger.ContextKeyRequestID).(string)
		assert.True(t, ok)
		assert.NotEmpty(t, id)
		w.WriteHeader(http.StatusOK)
	})

	wrapped := middleware.RequestID(handler)

	t.Run("generates_new_request_id", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/medicines", nil)
		w := httptest.NewRecorder()

		wrapped.ServeHTTP(w, req)

		id := w.Result().Header.Get("X-Request-ID")
		assert.Len(t, id, 36) // UUID
	})

	t.Run("honors_proxy_request_id", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/medicines", nil)
		req.Header.Set("X-Request-ID", "lb-assigned-42")
		w := httptest.NewRecorder()

		wrapped.ServeHTTP(w, req)

		assert.Equal(t, "lb-assigned-42", w.Result().Header.Get("X-Request-ID"))
	})
}

func TestLogger(t *testing.T) {
	log := helpers.TestLogger()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("test response"))
	})

	wrapped := middleware.Logger(log)(handler)

	req := httptest.NewRequest("GET", "/medicines", nil)
	w := httptest.NewRecorder()

	wrapped.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "test response", w.Body.String())
	assert.NotEmpty(t, w.Result().Header.Get("X-Request-ID"))
	assert.NotEmpty(t, w.Result().Header.Get("X-Trace-ID"))
}

func TestRecovery(t *testing.T) {
	log := helpers.TestLogger()

	tests := []struct {
		name           string
		handler        http.HandlerFunc
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "recovers_from_panic",
			handler: func(w http.ResponseWriter, r *http.Request) {
				panic("boom")
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   "Internal Server Error",
		},
		{
			name: "passes_through_normal_response",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("normal response"))
			},
			expectedStatus: http.StatusOK,
			expectedBody:   "normal response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := middleware.Recovery(log)(tt.handler)

			req := httptest.NewRequest("GET", "/medicines", nil)
			req = req.WithContext(context.WithValue(req.Context(), logger.ContextKeyRequestID, "req-1"))
			w := httptest.NewRecorder()

			wrapped.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
		})
	}
}

func TestRateLimit(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	wrapped := middleware.RateLimit(2, time.Second)(handler)

	doRequest := func(remoteAddr string) int {
		req := httptest.NewRequest("GET", "/medicines", nil)
		req.RemoteAddr = remoteAddr
		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, req)
		return w.Code
	}

	// Burst of two passes, third is rejected.
	assert.Equal(t, http.StatusOK, doRequest("127.0.0.1:1234"))
	assert.Equal(t, http.StatusOK, doRequest("127.0.0.1:1234"))
	assert.Equal(t, http.StatusTooManyRequests, doRequest("127.0.0.1:1234"))

	// Buckets are per IP.
	assert.Equal(t, http.StatusOK, doRequest("192.168.1.1:5678"))
}

func TestCORS(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name           string
		allowedOrigins []string
		requestOrigin  string
		requestMethod  string
		expectedStatus int
		checkHeaders   func(*testing.T, http.Header)
	}{
		{
			name:           "allows_wildcard_origin",
			allowedOrigins: []string{"*"},
			requestOrigin:  "https://pharmacy.example.com",
			requestMethod:  "GET",
			expectedStatus: http.StatusOK,
			checkHeaders: func(t *testing.T, headers http.Header) {
				assert.Equal(t, "https://pharmacy.example.com", headers.Get("Access-Control-Allow-Origin"))
			},
		},
		{
			name:           "allows_listed_origin",
			allowedOrigins: []string{"https://app.example.com", "https://admin.example.com"},
			requestOrigin:  "https://app.example.com",
			requestMethod:  "GET",
			expectedStatus: http.StatusOK,
			checkHeaders: func(t *testing.T, headers http.Header) {
				assert.Equal(t, "https://app.example.com", headers.Get("Access-Control-Allow-Origin"))
			},
		},
		{
			name:           "answers_preflight",
			allowedOrigins: []string{"*"},
			requestOrigin:  "https://pharmacy.example.com",
			requestMethod:  "OPTIONS",
			expectedStatus: http.StatusNoContent,
			checkHeaders: func(t *testing.T, headers http.Header) {
				assert.NotEmpty(t, headers.Get("Access-Control-Allow-Methods"))
				assert.NotEmpty(t, headers.Get("Access-Control-Allow-Headers"))
			},
		},
		{
			name:           "ignores_unlisted_origin",
			allowedOrigins: []string{"https://allowed.com"},
			requestOrigin:  "https://other.com",
			requestMethod:  "GET",
			expectedStatus: http.StatusOK,
			checkHeaders: func(t *testing.T, headers http.Header) {
				assert.Empty(t, headers.Get("Access-Control-Allow-Origin"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := middleware.CORS(tt.allowedOrigins)(handler)

			req := httptest.NewRequest(tt.requestMethod, "/medicines", nil)
			req.Header.Set("Origin", tt.requestOrigin)
			w := httptest.NewRecorder()

			wrapped.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			tt.checkHeaders(t, w.Header())
		})
	}
}

func TestSecureHeaders(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	wrapped := middleware.SecureHeaders(handler)

	req := httptest.NewRequest("GET", "/medicines", nil)
	w := httptest.NewRecorder()

	wrapped.ServeHTTP(w, req)

	headers := w.Result().Header
	assert.Equal(t, "nosniff", headers.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", headers.Get("X-Frame-Options"))
	assert.NotEmpty(t, headers.Get("Content-Security-Policy"))
	assert.Empty(t, headers.Get("Strict-Transport-Security")) // plain HTTP
}

func TestTimeout(t *testing.T) {
	tests := []struct {
		name           string
		timeout        time.Duration
		handlerDelay   time.Duration
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "completes_within_timeout",
			timeout:        100 * time.Millisecond,
			handlerDelay:   10 * time.Millisecond,
			expectedStatus: http.StatusOK,
			expectedBody:   "success",
		},
		{
			name:           "times_out",
			timeout:        50 * time.Millisecond,
			handlerDelay:   200 * time.Millisecond,
			expectedStatus: http.StatusGatewayTimeout,
			expectedBody:   "Request timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-time.After(tt.handlerDelay):
					w.WriteHeader(http.StatusOK)
					w.Write([]byte("success"))
				case <-r.Context().Done():
				}
			})

			wrapped := middleware.Timeout(tt.timeout)(handler)

			req := httptest.NewRequest("GET", "/medicines", nil)
			w := httptest.NewRecorder()

			wrapped.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
		})
	}
}

func TestCompression(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[]}`))
	})

	wrapped := middleware.Compression(handler)

	t.Run("gzips_when_accepted", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/medicines", nil)
		req.Header.Set("Accept-Encoding", "gzip")
		w := httptest.NewRecorder()

		wrapped.ServeHTTP(w, req)

		assert.Equal(t, "gzip", w.Result().Header.Get("Content-Encoding"))

		gz, err := gzip.NewReader(w.Body)
		require.NoError(t, err)
		body, err := io.ReadAll(gz)
		require.NoError(t, err)
		assert.Equal(t, `{"items":[]}`, string(body))
	})

	t.Run("passes_through_otherwise", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/medicines", nil)
		w := httptest.NewRecorder()

		wrapped.ServeHTTP(w, req)

		assert.Empty(t, w.Result().Header.Get("Content-Encoding"))
		assert.Equal(t, `{"items":[]}`, w.Body.String())
	})
}
