// Command seed provisions an admin account and, optionally, a sample
// survey owned by it.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/mbolis/survey-desk/database"
	"github.com/mbolis/survey-desk/log"
	"github.com/mbolis/survey-desk/model"
	"github.com/mbolis/survey-desk/repository"
	"github.com/mbolis/survey-desk/validation"
	"golang.org/x/crypto/bcrypt"
)

func intPtr(n int) *int {
	return &n
}

var sampleSurvey = model.SurveyDraft{
	Title: "Team Offsite Feedback",
	Questions: []model.QuestionDraft{
		{
			Title:   "Which sessions did you attend?",
			Kind:    model.Closed,
			Min:     1,
			Max:     intPtr(3),
			Options: []string{"Roadmap review", "Architecture workshop", "Retrospective", "Hackathon"},
		},
		{
			Title:   "How would you rate the venue?",
			Kind:    model.Closed,
			Min:     1,
			Max:     intPtr(1),
			Options: []string{"Poor", "Fair", "Good", "Excellent"},
		},
		{
			Title: "What should we change next time?",
			Kind:  model.Open,
			Min:   0,
		},
	},
}

func main() {
	dbUrl := flag.String("db-url", "surveys.sqlite", "path to SQLite3 DB file")
	username := flag.String("username", "admin", "admin username")
	password := flag.String("password", os.Getenv("QS_ADMIN_PASSWORD"), "admin password (default $QS_ADMIN_PASSWORD)")
	sample := flag.Bool("sample", false, "also create a sample survey")
	flag.Parse()

	if *password == "" {
		log.Fatal("seed: missing -password")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Open(*dbUrl)
	if err != nil {
		log.Fatalf("seed: failed to open database: %v", err)
	}
	defer db.Close()

	store := repository.New(db)

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("seed: failed to hash password: %v", err)
	}

	adminID, err := store.CreateAdmin(ctx, *username, hash)
	if err != nil {
		log.Fatalf("seed: failed to create admin %q: %v", *username, err)
	}
	log.Infof("Created admin %q (id %d)", *username, adminID)

	if !*sample {
		return
	}

	if err := validation.ValidateSurvey(sampleSurvey); err != nil {
		log.Fatalf("seed: invalid sample survey: %v", err)
	}
	surveyID, err := store.CreateSurvey(ctx, adminID, validation.NormalizeSurvey(sampleSurvey))
	if err != nil {
		log.Fatalf("seed: failed to create sample survey: %v", err)
	}
	log.Infof("Created sample survey %q (id %d)", sampleSurvey.Title, surveyID)
}
