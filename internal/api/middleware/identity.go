package middleware

import (
	"context"
	"net/http"

	"github.com/Osama-Abo-Bakr/SaaS-RAG-chatbot/internal/pkg/response"
)

type userContextKey struct{}

// Identity reads the authenticated user from the X-User header, set by the
// auth layer in front of this service. Requests without it are rejected;
// every project and conversation lookup is scoped to this identity.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := r.Header.Get("X-User")
		if user == "" {
			response.Error(w, http.StatusUnauthorized, "missing X-User header")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserFromContext returns the identity stored by the Identity middleware.
func UserFromContext(ctx context.Context) string {
	user, _ := ctx.Value(userContextKey{}).(string)
	return user
}
