package http

import (
	"net/http"
	"strings"

	"github.com/mustafakutlankale/my-ecommerce-app/internal/domain"
	"github.com/mustafakutlankale/my-ecommerce-app/pkg/httputil"
	"github.com/mustafakutlankale/my-ecommerce-app/pkg/middleware"
)

// ContentTypeJSON rejects write requests whose body is not declared as JSON.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost {
			if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
				httputil.WriteErrorCode(w, r, http.StatusUnsupportedMediaType,
					"UNSUPPORTED_MEDIA_TYPE", "Content-Type must be application/json")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// actorFrom builds the acting identity from the verified session only. An
// unauthenticated request yields the zero Actor.
func actorFrom(r *http.Request) domain.Actor {
	claims, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		return domain.Actor{}
	}
	return domain.Actor{UserID: claims.UserID, Username: claims.Username, Role: claims.Role}
}
