package middleware

import (
	"context"
	"net/http"
	"numbers_backend/internal/model"
	"numbers_backend/pkg/resp"
	"numbers_backend/pkg/token"
	"strconv"
	"strings"
)

type ctxKey struct{}

// Identity - аккаунт или оператор, определенный по access токену
type Identity struct {
	ID   int64
	Role model.Role
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

// AccountIDFromContext ID аккаунта игрока из контекста запроса
func AccountIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := IdentityFromContext(ctx)
	if !ok || id.Role != model.RoleAccount {
		return 0, false
	}
	return id.ID, true
}

// OperatorIDFromContext ID оператора из контекста запроса
func OperatorIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := IdentityFromContext(ctx)
	if !ok || id.Role != model.RoleOperator {
		return 0, false
	}
	return id.ID, true
}

// Auth проверяет Bearer токен и кладет Identity в контекст
func Auth(secretKey []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw, found := strings.CutPrefix(header, "Bearer ")
			if !found || raw == "" {
				resp.WriteError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token", nil)
				return
			}

			claims, err := token.VerifyToken(raw, secretKey)
			if err != nil {
				resp.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid token", nil)
				return
			}

			id, err := strconv.ParseInt(claims.ID, 10, 64)
			if err != nil || (claims.Role != model.RoleAccount && claims.Role != model.RoleOperator) {
				resp.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid token claims", nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), Identity{ID: id, Role: claims.Role})))
		})
	}
}

// RequireRole пропускает только запросы с указанной ролью
func RequireRole(role model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok || id.Role != role {
				resp.WriteError(w, http.StatusForbidden, "forbidden", "requires "+string(role)+" role", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
