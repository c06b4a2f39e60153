package routes

import (
	"errors"
	"net/http"
	"regexp"

	"github.com/go-chi/render"
	"github.com/mbolis/survey-desk/app"
	"github.com/mbolis/survey-desk/httpx"
	"github.com/mbolis/survey-desk/log"
	"github.com/mbolis/survey-desk/model"
)

var reRefresh = regexp.MustCompile(`(?i)^refresh\s+(.*)`)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Session is the answer to a successful login: the admin, and the tokens
// also set as cookies.
type Session struct {
	Admin model.Admin `json:"admin"`
	httpx.TokenResponse
}

func renderGrantError(w http.ResponseWriter, r *http.Request, code string, err error) {
	var ge *httpx.GrantError
	if errors.As(err, &ge) {
		httpx.LogStatus(w, r, http.StatusUnauthorized, log.DebugLevel, code)
		return
	}
	httpx.LogInternalError(w, r, code, err)
}

// Login exchanges admin credentials, given with basic auth or as a JSON
// body, for a pair of tokens.
func Login(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		creds := credentials{}
		var ok bool
		creds.Username, creds.Password, ok = r.BasicAuth()
		if !ok {
			if !decodeBody(w, r, &creds) {
				return
			}
		}
		if creds.Username == "" || creds.Password == "" {
			httpx.LogStatus(w, r, http.StatusUnauthorized, log.DebugLevel, "login.credentials")
			return
		}

		tokens, err := httpx.PasswordGrant(r.Context(), app.BearerServer, creds.Username, creds.Password)
		if err != nil {
			log.WithFields(log.Fields{"username": creds.Username}).Info("login refused")
			renderGrantError(w, r, "login.grant", err)
			return
		}

		admin, err := app.GetAdminByUsername(r.Context(), creds.Username)
		if err != nil {
			httpx.RenderError(w, r, "login.get_admin", err)
			return
		}

		httpx.SetTokenCookies(w, tokens)
		render.JSON(w, r, Session{admin, tokens})
	}
}

// Refresh trades a refresh token, from an "Authorization: Refresh" header
// or the refresh cookie, for a new pair of tokens.
func Refresh(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var token string
		if match := reRefresh.FindStringSubmatch(r.Header.Get("authorization")); len(match) > 0 {
			token = match[1]
		} else if c, err := r.Cookie(httpx.RefreshTokenCookie); err == nil {
			token = c.Value
		}
		if token == "" {
			httpx.LogStatus(w, r, http.StatusUnauthorized, log.DebugLevel, "refresh.token")
			return
		}

		tokens, err := httpx.RefreshGrant(r.Context(), app.BearerServer, token)
		if err != nil {
			httpx.ClearTokenCookies(w)
			renderGrantError(w, r, "refresh.grant", err)
			return
		}

		httpx.SetTokenCookies(w, tokens)
		render.JSON(w, r, tokens)
	}
}

func CurrentSession(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		admin, ok := currentAdmin(w, r)
		if !ok {
			return
		}
		render.JSON(w, r, admin)
	}
}

// Logout revokes every refresh token of the admin and drops the cookies.
// Access tokens already issued stay valid until they expire.
func Logout(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		admin, ok := currentAdmin(w, r)
		if !ok {
			return
		}

		err := app.RevokeTokens(r.Context(), admin.Username)
		if err != nil {
			httpx.RenderError(w, r, "logout", err)
			return
		}

		httpx.ClearTokenCookies(w)
		w.WriteHeader(http.StatusNoContent)
	}
}
