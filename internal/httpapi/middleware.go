package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/yingmeanshard/yingshop/internal/auth"
	"github.com/yingmeanshard/yingshop/internal/user/domain"
)

type contextKey string

const (
	ctxKeyUserID contextKey = "user_id"
	ctxKeyRole   contextKey = "role"
)

func userIDFromContext(ctx context.Context) int64 {
	if userID, ok := ctx.Value(ctxKeyUserID).(int64); ok {
		return userID
	}
	return 0
}

func roleFromContext(ctx context.Context) domain.Role {
	if role, ok := ctx.Value(ctxKeyRole).(domain.Role); ok {
		return role
	}
	return ""
}

// AuthMiddleware validates the bearer token when present and stores the user
// identity in the request context. It does not reject anonymous requests;
// RequireAuth does.
func AuthMiddleware(issuer *auth.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			token := strings.TrimPrefix(header, "Bearer ")
			if token == header {
				respondError(w, http.StatusUnauthorized, "unauthorized", "malformed authorization header")
				return
			}

			userID, role, err := issuer.Verify(token)
			if err != nil {
				respondError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyUserID, userID)
			ctx = context.WithValue(ctx, ctxKeyRole, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests without an authenticated user.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userIDFromContext(r.Context()) == 0 {
			respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAction enforces the role policy for a protected action.
func RequireAction(action auth.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userIDFromContext(r.Context()) == 0 {
				respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
				return
			}
			if !auth.Allowed(roleFromContext(r.Context()), action) {
				respondError(w, http.StatusForbidden, "permission_denied", "role is not allowed to perform this action")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
