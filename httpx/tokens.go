package httpx

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/oauth"
)

const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)

// TokenResponse is what the bearer server answers a successful grant with.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

// GrantError is returned by Grant when the bearer server refuses a grant.
type GrantError struct {
	Status int
}

func (e *GrantError) Error() string {
	return fmt.Sprintf("grant refused with status %d", e.Status)
}

// Grant runs a token grant through bearerServer in process. The bearer
// server only takes its input as a form-encoded request, so one is built.
func Grant(ctx context.Context, bearerServer *oauth.BearerServer, form url.Values) (tokens TokenResponse, err error) {
	body := form.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/", strings.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("content-type", "application/x-www-form-urlencoded")
	req.Header.Set("content-length", strconv.Itoa(len(body)))

	resp := NewResponseBuffer()
	bearerServer.UserCredentials(resp, req)
	if resp.Status() != http.StatusOK {
		err = &GrantError{resp.Status()}
		return
	}

	err = resp.Decode(&tokens)
	return
}

func PasswordGrant(ctx context.Context, bearerServer *oauth.BearerServer, username, password string) (TokenResponse, error) {
	return Grant(ctx, bearerServer, url.Values{
		"grant_type": {"password"},
		"username":   {username},
		"password":   {password},
	})
}

func RefreshGrant(ctx context.Context, bearerServer *oauth.BearerServer, refreshToken string) (TokenResponse, error) {
	return Grant(ctx, bearerServer, url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	})
}

func SetTokenCookies(w http.ResponseWriter, tokens TokenResponse) {
	http.SetCookie(w, &http.Cookie{
		Path:     "/",
		Name:     AccessTokenCookie,
		Value:    tokens.AccessToken,
		MaxAge:   int(tokens.ExpiresIn),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Path:     "/",
		Name:     RefreshTokenCookie,
		Value:    tokens.RefreshToken,
		MaxAge:   int(RefreshTokenTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearTokenCookies(w http.ResponseWriter) {
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Path:     "/",
			Name:     name,
			Value:    "",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
