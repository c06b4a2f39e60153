package httpx

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/render"
	"github.com/mbolis/survey-desk/log"
	"github.com/mbolis/survey-desk/repository"
	"github.com/mbolis/survey-desk/validation"
)

// ErrorResponse is the body of every failed API call. Question is the
// index of the offending question, when there is one.
type ErrorResponse struct {
	Error    string `json:"error"`
	Question *int   `json:"question,omitempty"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, resp ErrorResponse) {
	render.Status(r, status)
	render.JSON(w, r, resp)
}

// Will log an error, and send an HTTP response with status 500 and default text
func LogInternalError(w http.ResponseWriter, r *http.Request, code string, err error) {
	log.Errorf("%s: %s", code, err)
	writeError(w, r, http.StatusInternalServerError, ErrorResponse{Error: http.StatusText(http.StatusInternalServerError)})
}

// Will log a debug message, and send an HTTP response with status 404 and default text
func LogNotFound(w http.ResponseWriter, r *http.Request, code string, id any) {
	log.Debugf("%s: not found (%v)", code, id)
	writeError(w, r, http.StatusNotFound, ErrorResponse{Error: http.StatusText(http.StatusNotFound)})
}

// Will log an error code at the given level, and send
// an HTTP response with status and default text
func LogStatus(w http.ResponseWriter, r *http.Request, status int, level log.Level, code string) {
	log.Log(level, code)
	writeError(w, r, status, ErrorResponse{Error: http.StatusText(status)})
}

// Will log an error code and message at the given level,
// and send an HTTP response with the given status and formatted message
func LogStatusMsg(w http.ResponseWriter, r *http.Request, status int, level log.Level, code string, msg string, args ...any) {
	errMsg := fmt.Sprintf(msg, args...)
	log.Log(level, code+":", errMsg)
	writeError(w, r, status, ErrorResponse{Error: errMsg})
}

// RenderError answers with the status matching err: 422 for rejected
// input, 404 for missing rows, 409 for repeated answers, 500 for anything
// else.
func RenderError(w http.ResponseWriter, r *http.Request, code string, err error) {
	var cv *validation.ConstraintViolation
	switch {
	case errors.As(err, &cv):
		log.Debugf("%s: %s", code, cv)
		resp := ErrorResponse{Error: cv.Error()}
		if cv.Index >= 0 {
			index := cv.Index
			resp.Question = &index
		}
		writeError(w, r, http.StatusUnprocessableEntity, resp)
	case errors.Is(err, repository.ErrNotFound):
		LogNotFound(w, r, code, err)
	case errors.Is(err, repository.ErrAlreadyAnswered):
		LogStatusMsg(w, r, http.StatusConflict, log.DebugLevel, code, "%s", err)
	default:
		var se *repository.StorageError
		if errors.As(err, &se) {
			code = se.Op
		}
		LogInternalError(w, r, code, err)
	}
}
