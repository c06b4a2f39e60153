package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/mbolis/survey-desk/model"
)

func intp(n int) *int { return &n }

func closedQuestion(id, min, max int, optionIDs ...int) model.Question {
	q := model.Question{ID: id, Title: "Q" + string(rune('0'+id)), Kind: model.Closed, Min: min, Max: intp(max)}
	for _, o := range optionIDs {
		q.Options = append(q.Options, model.Answer{ID: o, QuestionID: id, Text: "opt"})
	}
	return q
}

func openQuestion(id, min int) model.Question {
	return model.Question{ID: id, Title: "Open" + string(rune('0'+id)), Kind: model.Open, Min: min}
}

func asViolation(t *testing.T, err error) *ConstraintViolation {
	t.Helper()
	var cv *ConstraintViolation
	if !errors.As(err, &cv) {
		t.Fatalf("Expected ConstraintViolation, got %v", err)
	}
	return cv
}

func TestValidateSurvey(t *testing.T) {
	valid := func() model.SurveyDraft {
		return model.SurveyDraft{
			Title: "S1",
			Questions: []model.QuestionDraft{
				{Title: "Q1", Kind: model.Closed, Min: 1, Max: intp(1), Options: []string{"a", "b"}},
				{Title: "Q2", Kind: model.Open, Min: 0},
			},
		}
	}

	tests := []struct {
		name      string
		mutate    func(d *model.SurveyDraft)
		wantIndex int
		wantInMsg string
	}{
		{"valid", func(d *model.SurveyDraft) {}, 0, ""},
		{"blank title", func(d *model.SurveyDraft) { d.Title = "   " }, -1, "title is required"},
		{"no questions", func(d *model.SurveyDraft) { d.Questions = nil }, -1, "questions"},
		{"blank question title", func(d *model.SurveyDraft) { d.Questions[1].Title = "" }, 1, "title is required"},
		{"unknown kind", func(d *model.SurveyDraft) { d.Questions[1].Kind = "essay" }, 1, "kind"},
		{"negative min", func(d *model.SurveyDraft) { d.Questions[0].Min = -1 }, 0, "min must be at least 0"},
		{"min above max", func(d *model.SurveyDraft) { d.Questions[0].Min = 2 }, 0, "minimum (2) exceeds maximum (1)"},
		{"max above options", func(d *model.SurveyDraft) { d.Questions[0].Max = intp(3) }, 0, "exceeds the number of options"},
		{"zero max", func(d *model.SurveyDraft) { d.Questions[0].Max = intp(0) }, 0, "max must be at least 1"},
		{"missing max", func(d *model.SurveyDraft) { d.Questions[0].Max = nil }, 0, "maximum number of answers"},
		{"no options", func(d *model.SurveyDraft) { d.Questions[0].Options = nil }, 0, "at least one option"},
		{"blank option", func(d *model.SurveyDraft) { d.Questions[0].Options[1] = " " }, 0, "options[1] is required"},
		{"open min above one", func(d *model.SurveyDraft) { d.Questions[1].Min = 2 }, 1, "0 (optional) or 1 (mandatory)"},
		{"open max ignored", func(d *model.SurveyDraft) { d.Questions[1].Max = intp(7) }, 0, ""},
		{"kind case ignored", func(d *model.SurveyDraft) { d.Questions[0].Kind = " Closed " }, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := valid()
			tt.mutate(&d)
			err := ValidateSurvey(d)
			if tt.wantInMsg == "" {
				if err != nil {
					t.Fatalf("Expected no error, got %v", err)
				}
				return
			}
			cv := asViolation(t, err)
			if cv.Index != tt.wantIndex {
				t.Errorf("Expected question index %d, got %d", tt.wantIndex, cv.Index)
			}
			if !strings.Contains(cv.Error(), tt.wantInMsg) {
				t.Errorf("Expected %q in %q", tt.wantInMsg, cv.Error())
			}
		})
	}
}

func TestValidateSurveyNamesOffendingQuestion(t *testing.T) {
	err := ValidateSurvey(model.SurveyDraft{
		Title: "S",
		Questions: []model.QuestionDraft{
			{Title: "Favourite colour", Kind: model.Closed, Min: 0, Max: intp(5), Options: []string{"red"}},
		},
	})
	if err == nil || !strings.Contains(err.Error(), `"Favourite colour"`) {
		t.Fatalf("Expected error naming the question, got %v", err)
	}
}

func TestNormalizeSurveyDoesNotMutateInput(t *testing.T) {
	max := 1
	d := model.SurveyDraft{
		Title: "  S  ",
		Questions: []model.QuestionDraft{
			{Title: " Q ", Kind: model.Closed, Max: &max, Options: []string{" a "}},
			{Title: "O", Kind: model.Open, Max: &max, Options: []string{"x"}},
		},
	}

	n := NormalizeSurvey(d)

	if d.Title != "  S  " || d.Questions[0].Options[0] != " a " {
		t.Error("NormalizeSurvey modified its input")
	}
	if n.Title != "S" || n.Questions[0].Title != "Q" || n.Questions[0].Options[0] != "a" {
		t.Errorf("Unexpected normalized draft: %+v", n)
	}
	if n.Questions[0].Max == &max {
		t.Error("Expected max to be copied")
	}
	if n.Questions[1].Max != nil || n.Questions[1].Options != nil {
		t.Error("Expected max and options of open question to be dropped")
	}
}

func TestValidateClosedAnswer(t *testing.T) {
	q := closedQuestion(1, 1, 2, 10, 11, 12)

	tests := []struct {
		name      string
		selected  []int
		wantInMsg string
	}{
		{"one", []int{10}, ""},
		{"two", []int{10, 12}, ""},
		{"none", nil, "minimum bound"},
		{"three", []int{10, 11, 12}, "maximum bound"},
		{"foreign option", []int{99}, "does not belong"},
		{"duplicate", []int{10, 10}, "more than once"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateClosedAnswer(q, tt.selected)
			if tt.wantInMsg == "" {
				if err != nil {
					t.Fatalf("Expected no error, got %v", err)
				}
				return
			}
			cv := asViolation(t, err)
			if !strings.Contains(cv.Reason, tt.wantInMsg) {
				t.Errorf("Expected %q in %q", tt.wantInMsg, cv.Reason)
			}
		})
	}
}

func TestClosedAnswerCountWithinBounds(t *testing.T) {
	options := []int{1, 2, 3, 4}
	for min := 0; min <= len(options); min++ {
		for max := 1; max <= len(options); max++ {
			if min > max {
				continue
			}
			q := closedQuestion(1, min, max, options...)
			for k := 0; k <= len(options); k++ {
				err := ValidateClosedAnswer(q, options[:k])
				accepted := err == nil
				want := min <= k && k <= max
				if accepted != want {
					t.Errorf("min=%d max=%d k=%d: accepted=%v, want %v (%v)", min, max, k, accepted, want, err)
				}
			}
		}
	}
}

func TestClosedAnswerAllRequired(t *testing.T) {
	q := closedQuestion(1, 3, 3, 1, 2, 3)

	if err := ValidateClosedAnswer(q, []int{3, 1, 2}); err != nil {
		t.Fatalf("Expected full selection to be accepted, got %v", err)
	}
	for _, subset := range [][]int{nil, {1}, {1, 2}, {2, 3}} {
		if err := ValidateClosedAnswer(q, subset); err == nil {
			t.Errorf("Expected subset %v to be rejected", subset)
		}
	}
}

func TestValidateOpenAnswer(t *testing.T) {
	long := strings.Repeat("x", 201)

	cv := asViolation(t, ValidateOpenAnswer(openQuestion(1, 0), long))
	if !strings.Contains(cv.Reason, "length limit") {
		t.Errorf("Expected length violation, got %q", cv.Reason)
	}

	if err := ValidateOpenAnswer(openQuestion(1, 0), strings.Repeat("é", 200)); err != nil {
		t.Errorf("Expected 200 multi-byte characters to be accepted, got %v", err)
	}
	if err := ValidateOpenAnswer(openQuestion(1, 0), ""); err != nil {
		t.Errorf("Expected empty answer to optional question to be accepted, got %v", err)
	}
	if err := ValidateOpenAnswer(openQuestion(1, 1), "  "); err == nil {
		t.Error("Expected blank answer to mandatory question to be rejected")
	}
	if err := ValidateOpenAnswer(closedQuestion(1, 0, 1, 5), "text"); err == nil {
		t.Error("Expected open answer to closed question to be rejected")
	}
}

func TestValidateCompletion(t *testing.T) {
	questions := []model.Question{
		closedQuestion(1, 1, 1, 10, 11),
		openQuestion(2, 0),
		closedQuestion(3, 0, 2, 30, 31),
	}

	tests := []struct {
		name      string
		responses []model.Response
		wantIndex int
		wantInMsg string
	}{
		{"complete", []model.Response{{QuestionID: 1, Options: []int{10}}, {QuestionID: 2, Text: "hi"}}, 0, ""},
		{"mandatory skipped", []model.Response{{QuestionID: 2, Text: "hi"}}, 0, "minimum bound"},
		{"too long", []model.Response{{QuestionID: 1, Options: []int{11}}, {QuestionID: 2, Text: strings.Repeat("a", 201)}}, 1, "length limit"},
		{"duplicate option", []model.Response{{QuestionID: 1, Options: []int{11}}, {QuestionID: 3, Options: []int{30, 31, 30}}}, 2, "more than once"},
		{"foreign question", []model.Response{{QuestionID: 1, Options: []int{10}}, {QuestionID: 9, Text: "x"}}, -1, "does not belong to this survey"},
		{"duplicate question", []model.Response{{QuestionID: 1, Options: []int{10}}, {QuestionID: 1, Options: []int{11}}}, -1, "more than once"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCompletion(questions, tt.responses)
			if tt.wantInMsg == "" {
				if err != nil {
					t.Fatalf("Expected no error, got %v", err)
				}
				return
			}
			cv := asViolation(t, err)
			if cv.Index != tt.wantIndex {
				t.Errorf("Expected index %d, got %d", tt.wantIndex, cv.Index)
			}
			if !strings.Contains(cv.Error(), tt.wantInMsg) {
				t.Errorf("Expected %q in %q", tt.wantInMsg, cv.Error())
			}
		})
	}
}

func TestValidateCompletionRequiresOneAnswer(t *testing.T) {
	questions := []model.Question{openQuestion(1, 0), closedQuestion(2, 0, 1, 20)}

	err := ValidateCompletion(questions, []model.Response{{QuestionID: 1, Text: "   "}})
	cv := asViolation(t, err)
	if !strings.Contains(cv.Reason, "at least one question") {
		t.Errorf("Unexpected reason %q", cv.Reason)
	}

	if err := ValidateCompletion(questions, []model.Response{{QuestionID: 2, Options: []int{20}}}); err != nil {
		t.Errorf("Expected single closed answer to be accepted, got %v", err)
	}
}

func TestScenarioB(t *testing.T) {
	q := closedQuestion(1, 1, 1, 10, 11)
	err := ValidateCompletion([]model.Question{q}, []model.Response{{QuestionID: 1}})
	cv := asViolation(t, err)
	if !strings.Contains(cv.Reason, "minimum") {
		t.Errorf("Expected reason to mention the minimum bound, got %q", cv.Reason)
	}
}

func TestScenarioC(t *testing.T) {
	q := openQuestion(1, 0)
	err := ValidateCompletion([]model.Question{q}, []model.Response{{QuestionID: 1, Text: strings.Repeat("z", 201)}})
	cv := asViolation(t, err)
	if !strings.Contains(cv.Reason, "length") {
		t.Errorf("Expected length violation, got %q", cv.Reason)
	}
}

func TestValidateUserName(t *testing.T) {
	if err := ValidateUserName("Ada"); err != nil {
		t.Errorf("Expected valid name, got %v", err)
	}
	if err := ValidateUserName("  "); err == nil {
		t.Error("Expected blank name to be rejected")
	}
	if err := ValidateUserName(strings.Repeat("n", 201)); err == nil {
		t.Error("Expected long name to be rejected")
	}
}
