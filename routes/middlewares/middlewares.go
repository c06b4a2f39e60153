package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/oauth"
	"github.com/mbolis/survey-desk/httpx"
	"github.com/mbolis/survey-desk/log"
	"github.com/mbolis/survey-desk/model"
	"github.com/mbolis/survey-desk/repository"
)

type contextKey struct{ name string }

var adminContextKey = &contextKey{"admin"}

// CurrentAdmin returns the admin authenticated by the Admin middleware.
func CurrentAdmin(ctx context.Context) (model.Admin, bool) {
	admin, ok := ctx.Value(adminContextKey).(model.Admin)
	return admin, ok
}

// Admin middleware to check for the 'admin' role in an OAuth token, and
// to load the admin it was issued to.
func Admin(secret string, store *repository.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return chi.Chain(oauth.Authorize(secret, nil), admin(store)).Handler(next)
	}
}

func hasRole(claims map[string]string, role string) bool {
	rolesClaim, ok := claims[httpx.ClaimRoles]
	if !ok {
		return false
	}
	for _, r := range strings.Split(rolesClaim, ",") {
		if strings.TrimSpace(r) == role {
			return true
		}
	}
	return false
}

func admin(store *repository.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, _ := r.Context().Value(oauth.ClaimsContext).(map[string]string)
			if !hasRole(claims, httpx.RoleAdmin) {
				httpx.LogStatus(w, r, http.StatusForbidden, log.DebugLevel, "auth.not_admin")
				return
			}

			adminID, err := strconv.Atoi(claims[httpx.ClaimAdminID])
			if err != nil {
				httpx.LogStatus(w, r, http.StatusForbidden, log.DebugLevel, "auth.admin_id")
				return
			}

			a, err := store.GetAdminByID(r.Context(), adminID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					// account removed since the token was issued
					httpx.LogStatus(w, r, http.StatusUnauthorized, log.DebugLevel, "auth.admin_gone")
				} else {
					httpx.LogInternalError(w, r, "auth.get_admin", err)
				}
				return
			}

			ctx := context.WithValue(r.Context(), adminContextKey, a)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CookieAuth lets browsers authenticate with the token cookies set at
// login. A rejected access token is replaced using the refresh token
// cookie, and the request is replayed once with the new one.
func CookieAuth(bearerServer *oauth.BearerServer) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("authorization") != "" {
				h.ServeHTTP(w, r)
				return
			}

			token, err := r.Cookie(httpx.AccessTokenCookie)
			if err == nil && token.Value != "" {
				r.Header.Set("authorization", "Bearer "+token.Value)
				buf := httpx.NewResponseBuffer()
				h.ServeHTTP(buf, r)
				if buf.Status() != http.StatusUnauthorized {
					buf.Flush(w)
					return
				}
				r.Header.Del("authorization")
			}

			// token was empty or unauthorized
			refreshToken, err := r.Cookie(httpx.RefreshTokenCookie)
			if err != nil || refreshToken.Value == "" {
				// nothing to refresh with: let the gate answer
				h.ServeHTTP(w, r)
				return
			}

			tokens, err := httpx.RefreshGrant(r.Context(), bearerServer, refreshToken.Value)
			if err != nil {
				var ge *httpx.GrantError
				if !errors.As(err, &ge) {
					httpx.LogInternalError(w, r, "auth.refresh", err)
					return
				}
				httpx.ClearTokenCookies(w)
				httpx.LogStatus(w, r, http.StatusUnauthorized, log.DebugLevel, "auth.refresh.rejected")
				return
			}
			httpx.SetTokenCookies(w, tokens)

			r.Header.Set("authorization", "Bearer "+tokens.AccessToken)
			h.ServeHTTP(w, r)
		})
	}
}
