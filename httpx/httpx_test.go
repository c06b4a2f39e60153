package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mbolis/survey-desk/config"
	"github.com/mbolis/survey-desk/repository"
	"github.com/mbolis/survey-desk/testutil"
	"github.com/mbolis/survey-desk/validation"
)

func TestRenderError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		question *int
	}{
		{"violation", &validation.ConstraintViolation{Index: 2, Question: "Q3", Reason: "bad"}, http.StatusUnprocessableEntity, testutil.IntPtr(2)},
		{"violation without question", &validation.ConstraintViolation{Index: -1, Reason: "bad"}, http.StatusUnprocessableEntity, nil},
		{"not found", repository.ErrNotFound, http.StatusNotFound, nil},
		{"already answered", repository.ErrAlreadyAnswered, http.StatusConflict, nil},
		{"wrapped not found", fmt.Errorf("lookup: %w", repository.ErrNotFound), http.StatusNotFound, nil},
		{"storage", &repository.StorageError{Op: "db.get_survey", Err: errors.New("disk I/O error")}, http.StatusInternalServerError, nil},
		{"other", errors.New("boom"), http.StatusInternalServerError, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			RenderError(w, r, "test", tt.err)

			testutil.AssertStatus(t, w, tt.status)
			var resp ErrorResponse
			testutil.AssertJSON(t, w, &resp)
			if resp.Error == "" {
				t.Error("Expected an error message")
			}
			if (tt.question == nil) != (resp.Question == nil) ||
				tt.question != nil && *tt.question != *resp.Question {
				t.Errorf("Expected question %v, got %v", tt.question, resp.Question)
			}
		})
	}
}

func TestRenderErrorHidesStorageDetails(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	RenderError(w, r, "test", &repository.StorageError{Op: "db.get_survey", Err: errors.New("secret detail")})

	var resp ErrorResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Error != http.StatusText(http.StatusInternalServerError) {
		t.Errorf("Expected generic message, got %q", resp.Error)
	}
}

func TestResponseBuffer(t *testing.T) {
	buf := NewResponseBuffer()
	if buf.Status() != 0 {
		t.Errorf("Expected status 0 before writing, got %d", buf.Status())
	}

	buf.Header().Set("X-Test", "yes")
	buf.WriteHeader(http.StatusTeapot)
	buf.WriteHeader(http.StatusOK)
	json.NewEncoder(buf).Encode(map[string]int{"id": 7})

	if buf.Status() != http.StatusTeapot {
		t.Errorf("Expected first status to stick, got %d", buf.Status())
	}
	var body map[string]int
	if err := buf.Decode(&body); err != nil || body["id"] != 7 {
		t.Errorf("Unexpected body %v (%v)", body, err)
	}

	w := httptest.NewRecorder()
	if err := buf.Flush(w); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	testutil.AssertStatus(t, w, http.StatusTeapot)
	if w.Header().Get("X-Test") != "yes" {
		t.Error("Expected headers to be copied")
	}

	implicit := NewResponseBuffer()
	implicit.Write([]byte("{}"))
	if implicit.Status() != http.StatusOK {
		t.Errorf("Expected implicit 200, got %d", implicit.Status())
	}
}

func TestPasswordAndRefreshGrants(t *testing.T) {
	store := repository.New(testutil.OpenTestDB(t))
	testutil.CreateTestAdmin(t, store, "alice", "s3cret")
	bs := NewBearerServer(store, config.Config{TokenSecret: "test-secret", TokenTTL: time.Minute})
	ctx := context.Background()

	_, err := PasswordGrant(ctx, bs, "alice", "wrong")
	var ge *GrantError
	if !errors.As(err, &ge) || ge.Status != http.StatusUnauthorized {
		t.Errorf("Expected 401 grant error for wrong password, got %v", err)
	}

	_, err = PasswordGrant(ctx, bs, "nobody", "s3cret")
	if !errors.As(err, &ge) {
		t.Errorf("Expected grant error for unknown admin, got %v", err)
	}

	tokens, err := PasswordGrant(ctx, bs, "alice", "s3cret")
	if err != nil {
		t.Fatalf("PasswordGrant failed: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("Expected tokens, got %+v", tokens)
	}
	if tokens.ExpiresIn != 60 {
		t.Errorf("Expected expires_in 60, got %d", tokens.ExpiresIn)
	}

	refreshed, err := RefreshGrant(ctx, bs, tokens.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshGrant failed: %v", err)
	}
	if refreshed.AccessToken == "" {
		t.Error("Expected a new access token")
	}

	// a refresh token is redeemable once
	_, err = RefreshGrant(ctx, bs, tokens.RefreshToken)
	if !errors.As(err, &ge) {
		t.Errorf("Expected grant error reusing a refresh token, got %v", err)
	}
}

func TestTokenCookies(t *testing.T) {
	w := httptest.NewRecorder()
	SetTokenCookies(w, TokenResponse{AccessToken: "a", RefreshToken: "r", ExpiresIn: 60})

	cookies := w.Result().Cookies()
	if len(cookies) != 2 {
		t.Fatalf("Expected 2 cookies, got %d", len(cookies))
	}
	if cookies[0].Name != AccessTokenCookie || cookies[0].Value != "a" || cookies[0].MaxAge != 60 {
		t.Errorf("Unexpected access cookie %+v", cookies[0])
	}
	if cookies[1].Name != RefreshTokenCookie || cookies[1].Value != "r" {
		t.Errorf("Unexpected refresh cookie %+v", cookies[1])
	}

	w = httptest.NewRecorder()
	ClearTokenCookies(w)
	for _, c := range w.Result().Cookies() {
		if c.MaxAge >= 0 || c.Value != "" {
			t.Errorf("Expected expired cookie, got %+v", c)
		}
	}
}
