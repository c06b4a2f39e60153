// Package testutil provisions migrated throwaway databases and fixtures,
// and wraps the request/response plumbing shared by handler tests.
package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/mbolis/survey-desk/database"
	"github.com/mbolis/survey-desk/model"
	"github.com/mbolis/survey-desk/repository"
	"golang.org/x/crypto/bcrypt"
)

// OpenTestDB opens a fresh, migrated SQLite database under the test's temp
// dir. It is closed when the test ends.
func OpenTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "test.sqlite"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

// CreateTestAdmin provisions an admin account with the given password.
func CreateTestAdmin(t *testing.T, store *repository.Store, username, password string) model.Admin {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	ctx := context.Background()
	id, err := store.CreateAdmin(ctx, username, hash)
	if err != nil {
		t.Fatalf("Failed to create test admin: %v", err)
	}

	return model.Admin{ID: id, Username: username, PasswordHash: hash}
}

// CreateTestSurvey stores draft on behalf of adminID and reads it back.
func CreateTestSurvey(t *testing.T, store *repository.Store, adminID int, draft model.SurveyDraft) model.Survey {
	t.Helper()

	ctx := context.Background()
	id, err := store.CreateSurvey(ctx, adminID, draft)
	if err != nil {
		t.Fatalf("Failed to create test survey: %v", err)
	}

	survey, err := store.GetSurvey(ctx, id)
	if err != nil {
		t.Fatalf("Failed to read test survey back: %v", err)
	}

	return survey
}

func IntPtr(n int) *int {
	return &n
}

// SampleDraft is a two question survey: a closed question accepting one or
// two of three options, and an optional open question.
func SampleDraft(title string) model.SurveyDraft {
	return model.SurveyDraft{
		Title: title,
		Questions: []model.QuestionDraft{
			{
				Title:   "Favourite colours",
				Kind:    model.Closed,
				Min:     1,
				Max:     IntPtr(2),
				Options: []string{"red", "green", "blue"},
			},
			{
				Title: "Anything else?",
				Kind:  model.Open,
			},
		},
	}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body any, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided value
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
