// Package validation holds the rules a survey definition and a user's
// submission must satisfy before anything is written to storage.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/mbolis/survey-desk/model"
)

// ConstraintViolation describes why a survey or a submission was rejected.
// Index is the zero-based position of the offending question, or -1 when
// the problem is not tied to a single question.
type ConstraintViolation struct {
	Index    int
	Question string
	Reason   string
}

func (v *ConstraintViolation) Error() string {
	if v.Question == "" {
		return v.Reason
	}
	return fmt.Sprintf("question %q: %s", v.Question, v.Reason)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json names, so reasons match what the client sent
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func violation(index int, question string, reason string, args ...any) error {
	return &ConstraintViolation{
		Index:    index,
		Question: question,
		Reason:   fmt.Sprintf(reason, args...),
	}
}

func fromFieldErrors(err error, index int, question string) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	return violation(index, question, "%s", describe(fieldErrs[0]))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s needs at least %s entries", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s fails the %q rule", fe.Field(), fe.Tag())
}

// NormalizeSurvey returns a copy of d with surrounding blanks trimmed,
// the kind lower-cased, and fields that do not apply to a question's kind
// (the maximum and options of open questions) dropped.
func NormalizeSurvey(d model.SurveyDraft) model.SurveyDraft {
	out := model.SurveyDraft{
		Title:     strings.TrimSpace(d.Title),
		Questions: make([]model.QuestionDraft, len(d.Questions)),
	}
	for i, q := range d.Questions {
		nq := model.QuestionDraft{
			Title: strings.TrimSpace(q.Title),
			Kind:  model.QuestionKind(strings.ToLower(strings.TrimSpace(string(q.Kind)))),
			Min:   q.Min,
		}
		if nq.Kind != model.Open {
			if q.Max != nil {
				bound := *q.Max
				nq.Max = &bound
			}
			if q.Options != nil {
				nq.Options = make([]string, len(q.Options))
				for j, o := range q.Options {
					nq.Options[j] = strings.TrimSpace(o)
				}
			}
		}
		out.Questions[i] = nq
	}
	return out
}

// ValidateSurvey checks a survey definition. The draft is normalized
// first, so blank titles are rejected even when padded with spaces.
func ValidateSurvey(d model.SurveyDraft) error {
	d = NormalizeSurvey(d)

	if err := validate.Struct(d); err != nil {
		return fromFieldErrors(err, -1, "")
	}

	for i, q := range d.Questions {
		if err := validate.Struct(q); err != nil {
			return fromFieldErrors(err, i, q.Title)
		}

		switch q.Kind {
		case model.Closed:
			if len(q.Options) == 0 {
				return violation(i, q.Title, "a closed question needs at least one option")
			}
			if q.Max == nil {
				return violation(i, q.Title, "a closed question needs a maximum number of answers")
			}
			if *q.Max < 1 {
				return violation(i, q.Title, "max must be at least 1")
			}
			if q.Min > *q.Max {
				return violation(i, q.Title, "minimum (%d) exceeds maximum (%d)", q.Min, *q.Max)
			}
			if *q.Max > len(q.Options) {
				return violation(i, q.Title, "maximum (%d) exceeds the number of options (%d)", *q.Max, len(q.Options))
			}
		case model.Open:
			if q.Min > 1 {
				return violation(i, q.Title, "minimum of an open question must be 0 (optional) or 1 (mandatory)")
			}
		}
	}
	return nil
}

// ValidateUserName checks the display name an anonymous user gives
// before answering.
func ValidateUserName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return violation(-1, "", "name is required")
	}
	if utf8.RuneCountInString(name) > model.MaxTextLength {
		return violation(-1, "", "name must be at most %d characters long", model.MaxTextLength)
	}
	return nil
}

// ValidateClosedAnswer checks the options a user selected for a closed
// question against the question's option list and bounds.
func ValidateClosedAnswer(q model.Question, selected []int) error {
	if q.Kind != model.Closed {
		return violation(-1, q.Title, "not a closed question")
	}

	options := make(map[int]bool, len(q.Options))
	for _, o := range q.Options {
		options[o.ID] = false
	}
	for _, id := range selected {
		seen, ok := options[id]
		if !ok {
			return violation(-1, q.Title, "option %d does not belong to this question", id)
		}
		if seen {
			return violation(-1, q.Title, "option %d selected more than once", id)
		}
		options[id] = true
	}

	k := len(selected)
	if k < q.Min {
		return violation(-1, q.Title, "at least %d option(s) must be selected (minimum bound), got %d", q.Min, k)
	}
	limit := len(q.Options)
	if q.Max != nil && *q.Max < limit {
		limit = *q.Max
	}
	if k > limit {
		return violation(-1, q.Title, "at most %d option(s) may be selected (maximum bound), got %d", limit, k)
	}
	return nil
}

// ValidateOpenAnswer checks the text a user wrote for an open question.
func ValidateOpenAnswer(q model.Question, text string) error {
	if q.Kind != model.Open {
		return violation(-1, q.Title, "not an open question")
	}
	if n := utf8.RuneCountInString(text); n > model.MaxTextLength {
		return violation(-1, q.Title, "answer is %d characters long, exceeding the length limit of %d", n, model.MaxTextLength)
	}
	if q.Mandatory() && strings.TrimSpace(text) == "" {
		return violation(-1, q.Title, "an answer is mandatory")
	}
	return nil
}

// ValidateCompletion checks a submission against the questions it answers.
// Questions without a response are treated as left empty. The submission is
// accepted only if every question passes its own rules and at least one of
// them received a non-empty answer.
func ValidateCompletion(questions []model.Question, responses []model.Response) error {
	known := make(map[int]bool, len(questions))
	for _, q := range questions {
		known[q.ID] = true
	}

	byQuestion := make(map[int]model.Response, len(responses))
	for _, r := range responses {
		if !known[r.QuestionID] {
			return violation(-1, "", "question %d does not belong to this survey", r.QuestionID)
		}
		if _, dup := byQuestion[r.QuestionID]; dup {
			return violation(-1, "", "question %d answered more than once", r.QuestionID)
		}
		byQuestion[r.QuestionID] = r
	}

	answered := 0
	for i, q := range questions {
		r := byQuestion[q.ID]

		var err error
		switch q.Kind {
		case model.Closed:
			err = ValidateClosedAnswer(q, r.Options)
		case model.Open:
			err = ValidateOpenAnswer(q, r.Text)
		default:
			err = violation(i, q.Title, "unknown question kind %q", q.Kind)
		}
		if err != nil {
			var cv *ConstraintViolation
			if errors.As(err, &cv) {
				cv.Index = i
			}
			return err
		}

		if !IsEmpty(q, r) {
			answered++
		}
	}

	if answered == 0 {
		return violation(-1, "", "at least one question must be answered")
	}
	return nil
}

// IsEmpty reports whether r carries nothing worth storing for q.
func IsEmpty(q model.Question, r model.Response) bool {
	if q.Kind == model.Closed {
		return len(r.Options) == 0
	}
	return strings.TrimSpace(r.Text) == ""
}
