package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func corsHandler(cfg CORSConfig) http.Handler {
	return CORS(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestCORS_Origins(t *testing.T) {
	tests := []struct {
		name       string
		cfg        CORSConfig
		origin     string
		wantOrigin string
		wantCreds  string
	}{
		{"wildcard", CORSConfig{AllowedOrigins: []string{"*"}}, "https://shop.example", "*", ""},
		{"wildcard without origin", CORSConfig{AllowedOrigins: []string{"*"}}, "", "*", ""},
		{"wildcard with credentials echoes", CORSConfig{AllowedOrigins: []string{"*"}, AllowCredentials: true}, "https://shop.example", "https://shop.example", "true"},
		{"listed origin", CORSConfig{AllowedOrigins: []string{"https://a.example", "https://shop.example"}}, "https://shop.example", "https://shop.example", ""},
		{"unlisted origin", CORSConfig{AllowedOrigins: []string{"https://a.example"}}, "https://evil.example", "", ""},
		{"no origins configured", CORSConfig{}, "https://shop.example", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/items", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rr := httptest.NewRecorder()
			corsHandler(tt.cfg).ServeHTTP(rr, req)

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, tt.wantOrigin, rr.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.wantCreds, rr.Header().Get("Access-Control-Allow-Credentials"))
		})
	}
}

func TestCORS_ListedOriginSetsVary(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://shop.example")
	rr := httptest.NewRecorder()
	corsHandler(CORSConfig{AllowedOrigins: []string{"https://shop.example"}}).ServeHTTP(rr, req)

	assert.Equal(t, "Origin", rr.Header().Get("Vary"))
	assert.Equal(t, CorrelationHeader, rr.Header().Get("Access-Control-Expose-Headers"))
}

func TestCORS_Preflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/items/1/rating", nil)
	req.Header.Set("Origin", "https://shop.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	corsHandler(CORSConfig{AllowedOrigins: []string{"*"}, MaxAge: 2 * time.Hour}).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())
	assert.Equal(t, "GET, POST, DELETE, OPTIONS", rr.Header().Get("Access-Control-Allow-Methods"))
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	assert.Equal(t, "7200", rr.Header().Get("Access-Control-Max-Age"))
}

func TestCORS_PlainOptionsReachesHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	rr := httptest.NewRecorder()
	corsHandler(CORSConfig{AllowedOrigins: []string{"*"}}).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestCORS_DefaultMaxAge(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rr := httptest.NewRecorder()
	corsHandler(CORSConfig{AllowedOrigins: []string{"*"}}).ServeHTTP(rr, req)

	assert.Equal(t, "3600", rr.Header().Get("Access-Control-Max-Age"))
}
