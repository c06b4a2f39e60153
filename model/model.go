package model

type QuestionKind string

const (
	Closed QuestionKind = "closed"
	Open   QuestionKind = "open"
)

// MaxTextLength bounds free-text answers and option labels, in characters.
const MaxTextLength = 200

type Survey struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	AdminID     int        `json:"adminId"`
	Questions   []Question `json:"questions,omitempty"`
	Completions int        `json:"completions"`
}

type Question struct {
	ID       int          `json:"id"`
	SurveyID int          `json:"surveyId"`
	Title    string       `json:"title"`
	Kind     QuestionKind `json:"kind"`
	Min      int          `json:"min"`
	Max      *int         `json:"max,omitempty"`
	Options  []Answer     `json:"options,omitempty"`
}

// Mandatory reports whether the question must receive an answer.
func (q Question) Mandatory() bool {
	return q.Min > 0
}

// Answer is an option of a closed question, or the text a user
// submitted to an open question.
type Answer struct {
	ID         int    `json:"id"`
	QuestionID int    `json:"questionId"`
	Text       string `json:"text"`
}

type User struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Admin struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash []byte `json:"-"`
}

type UserAnswer struct {
	UserID   int `json:"userId"`
	AnswerID int `json:"answerId"`
}
