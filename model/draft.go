package model

// SurveyDraft is a survey as submitted by an admin, before it has ids.
type SurveyDraft struct {
	Title     string          `json:"title" validate:"required,max=200"`
	Questions []QuestionDraft `json:"questions" validate:"min=1"`
}

type QuestionDraft struct {
	Title   string       `json:"title" validate:"required,max=200"`
	Kind    QuestionKind `json:"kind" validate:"oneof=closed open"`
	Min     int          `json:"min" validate:"gte=0"`
	Max     *int         `json:"max,omitempty" validate:"omitempty,gte=1"`
	Options []string     `json:"options,omitempty" validate:"dive,required,max=200"`
}

// Completion is one user's submission for a whole survey.
type Completion struct {
	Name      string     `json:"name"`
	Responses []Response `json:"responses"`
}

// Response answers a single question: Options carries the selected
// answer ids of a closed question, Text the content of an open one.
type Response struct {
	QuestionID int    `json:"questionId"`
	Options    []int  `json:"options,omitempty"`
	Text       string `json:"text,omitempty"`
}
