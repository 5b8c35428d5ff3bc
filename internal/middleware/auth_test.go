package middleware

import (
	"net/http"
	"net/http/httptest"
	"numbers_backend/internal/model"
	"numbers_backend/pkg/token"
	"testing"
	"time"
)

func TestAuthAndRole(t *testing.T) {
	secret := []byte("secret")
	var gotID int64
	handler := Auth(secret)(RequireRole(model.RoleOperator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = OperatorIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})))

	operator, _ := token.GenerateAccessToken(7, model.RoleOperator, secret, time.Minute)
	account, _ := token.GenerateAccessToken(8, model.RoleAccount, secret, time.Minute)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
		{"wrong role", "Bearer " + account, http.StatusForbidden},
		{"operator", "Bearer " + operator, http.StatusNoContent},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		if w.Code != tt.status {
			t.Errorf("%s: status %d, want %d", tt.name, w.Code, tt.status)
		}
	}
	if gotID != 7 {
		t.Errorf("operator id = %d", gotID)
	}
}
