package services

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func refreshRequest(token string) *http.Request {
	req := httptest.NewRequest("POST", "/api/v1/news/refresh", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestRefreshHandlerRejectsBadSecret(t *testing.T) {
	e := NewNewsEndpoints(nil, nil, &Config{
		News: NewsConfig{RefreshSecret: "topsecret"},
	})

	tests := []struct {
		name  string
		token string
	}{
		{name: "wrong secret", token: "nope"},
		{name: "missing header", token: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			e.RefreshHandler(rec, refreshRequest(tt.token))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestRefreshHandlerRejectsWhenSecretUnset(t *testing.T) {
	e := NewNewsEndpoints(nil, nil, &Config{})

	rec := httptest.NewRecorder()
	e.RefreshHandler(rec, refreshRequest(""))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// An empty bearer token must not match an empty configured secret
	rec = httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/news/refresh", nil)
	req.Header.Set("Authorization", "Bearer ")
	e.RefreshHandler(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
