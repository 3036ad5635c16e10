package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(mw gin.HandlerFunc, header string) (*httptest.ResponseRecorder, *gin.Context) {
	var seen *gin.Context
	r := gin.New()
	r.GET("/", mw, func(c *gin.Context) {
		seen = c
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w, seen
}

func TestCronSecretMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		header string
		want   int
	}{
		{"valid", "s3cret", "Bearer s3cret", http.StatusOK},
		{"lowercase scheme", "s3cret", "bearer s3cret", http.StatusOK},
		{"wrong secret", "s3cret", "Bearer nope", http.StatusUnauthorized},
		{"prefix of secret", "s3cret", "Bearer s3c", http.StatusUnauthorized},
		{"missing header", "s3cret", "", http.StatusUnauthorized},
		{"no scheme", "s3cret", "s3cret", http.StatusUnauthorized},
		{"unset secret", "", "Bearer ", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := serve(CronSecretMiddleware(tt.secret, zap.NewNop()), tt.header)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

type fakeVerifier struct{}

func (fakeVerifier) VerifyIDTokenAndCheckRevoked(_ context.Context, idToken string) (*auth.Token, error) {
	if idToken != "good" {
		return nil, errors.New("id token has invalid signature")
	}
	return &auth.Token{UID: "u1", Claims: map[string]interface{}{"email": "asha@example.com", "name": "Asha"}}, nil
}

func TestFirebaseAuthMiddleware(t *testing.T) {
	w, c := serve(FirebaseAuthMiddleware(fakeVerifier{}), "Bearer good")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if c.GetString(ContextUserID) != "u1" || c.GetString(ContextEmail) != "asha@example.com" || c.GetString(ContextName) != "Asha" {
		t.Errorf("context not populated: %v", c.Keys)
	}

	for _, header := range []string{"", "Bearer bad", "Token good"} {
		if w, _ := serve(FirebaseAuthMiddleware(fakeVerifier{}), header); w.Code != http.StatusUnauthorized {
			t.Errorf("header %q: status = %d, want 401", header, w.Code)
		}
	}
}

func TestCORSMiddleware(t *testing.T) {
	preflight := func(mw gin.HandlerFunc, origin string) *httptest.ResponseRecorder {
		r := gin.New()
		r.Use(mw)
		r.POST("/api/v1/reports/summary", func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest(http.MethodOptions, "/api/v1/reports/summary", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	mw := CORSMiddleware([]string{"http://localhost:3000", " https://app.deadlinemind.local "})
	w := preflight(mw, "https://app.deadlinemind.local")
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.deadlinemind.local" {
		t.Errorf("allowed origin = %q", got)
	}
	if w.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Error("credentials must be allowed for listed origins")
	}
	if w := preflight(mw, "https://evil.example"); w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("unlisted origin was allowed")
	}

	w = preflight(CORSMiddleware([]string{"*"}), "https://anywhere.example")
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("wildcard allowed origin = %q, want *", got)
	}
}
