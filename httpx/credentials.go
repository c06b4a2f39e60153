package httpx

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/oauth"
	"github.com/mbolis/survey-desk/config"
	"github.com/mbolis/survey-desk/log"
	"github.com/mbolis/survey-desk/repository"
	"golang.org/x/crypto/bcrypt"
)

// RefreshTokenTTL bounds how long a refresh token can be redeemed.
const RefreshTokenTTL = 365 * 24 * time.Hour

const (
	RoleAdmin    = "admin"
	ClaimRoles   = "roles"
	ClaimAdminID = "admin_id"
)

var errCouldNotRefresh = errors.New("could not refresh")

type credentialsVerifier struct {
	store *repository.Store
}

// CredentialsVerifier checks admin passwords and keeps track of issued
// refresh tokens in store.
func CredentialsVerifier(store *repository.Store) oauth.CredentialsVerifier {
	return &credentialsVerifier{store}
}

// NewBearerServer issues access tokens of cfg.TokenTTL, encrypted with
// cfg.TokenSecret, to the admins found in store.
func NewBearerServer(store *repository.Store, cfg config.Config) *oauth.BearerServer {
	return oauth.NewBearerServer(cfg.TokenSecret, cfg.TokenTTL, CredentialsVerifier(store), nil)
}

func requestContext(r *http.Request) context.Context {
	if r == nil {
		return context.Background()
	}
	return r.Context()
}

func (cs *credentialsVerifier) ValidateUser(username string, password string, scope string, r *http.Request) error {
	admin, err := cs.store.GetAdminByUsername(requestContext(r), username)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Errorf("credentials.validate_user: %s", err)
		}
		return err
	}

	return bcrypt.CompareHashAndPassword(admin.PasswordHash, []byte(password))
}

func (cs *credentialsVerifier) StoreTokenID(tokenType oauth.TokenType, credential string, tokenID string, refreshTokenID string) error {
	return cs.store.StoreToken(
		context.Background(),
		credential,
		tokenID,
		refreshTokenID,
		time.Now().Add(RefreshTokenTTL),
	)
}

func (cs *credentialsVerifier) ValidateTokenID(tokenType oauth.TokenType, credential string, tokenID string, refreshTokenID string) error {
	expiration, err := cs.store.ConsumeToken(context.Background(), credential, tokenID, refreshTokenID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Errorf("credentials.validate_token: %s", err)
		}
		return errCouldNotRefresh
	}

	if expiration.Before(time.Now()) {
		return errCouldNotRefresh
	}
	return nil
}

func (cs *credentialsVerifier) AddClaims(tokenType oauth.TokenType, credential string, tokenID string, scope string, r *http.Request) (map[string]string, error) {
	admin, err := cs.store.GetAdminByUsername(requestContext(r), credential)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		ClaimRoles:   RoleAdmin,
		ClaimAdminID: strconv.Itoa(admin.ID),
	}, nil
}

func (*credentialsVerifier) AddProperties(tokenType oauth.TokenType, credential string, tokenID string, scope string, r *http.Request) (map[string]string, error) {
	return map[string]string{}, nil
}

func (*credentialsVerifier) ValidateClient(clientID string, clientSecret string, scope string, r *http.Request) error {
	return errors.New("not supported")
}
