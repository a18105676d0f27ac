package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"expenso/internal/core"
	"expenso/internal/log"
)

// Notice is a closed set of messages shown after a redirect.
type Notice string

const (
	NoticeCreated   Notice = "created"
	NoticeUpdated   Notice = "updated"
	NoticeDeleted   Notice = "deleted"
	NoticeNotFound  Notice = "notfound"
	NoticeLoggedOut Notice = "loggedout"
)

var noticeMessages = map[Notice]string{
	NoticeCreated:   "Expense added.",
	NoticeUpdated:   "Expense updated.",
	NoticeDeleted:   "Expense deleted.",
	NoticeNotFound:  "That expense does not exist or is not yours.",
	NoticeLoggedOut: "You have been logged out.",
}

// noticeFromQuery returns the message for ?notice=, or "" for unknown codes.
func noticeFromQuery(r *http.Request) string {
	return noticeMessages[Notice(r.URL.Query().Get("notice"))]
}

func redirectWithNotice(w http.ResponseWriter, r *http.Request, path string, n Notice) {
	http.Redirect(w, r, path+"?"+url.Values{"notice": {string(n)}}.Encode(), http.StatusSeeOther)
}

const genericErrorMessage = "Something went wrong. Please try again."

// errorStatus maps a service error to the status and message shown to the
// user. Storage causes are never exposed.
func errorStatus(err error) (int, string) {
	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity, validationMessage(ve)
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, core.ErrNotFound.Error()
	default:
		return http.StatusInternalServerError, genericErrorMessage
	}
}

var fieldLabels = map[string]string{
	"amount":      "the amount",
	"category_id": "the category",
	"date":        "the date",
}

func validationMessage(ve *core.ValidationError) string {
	switch {
	case errors.Is(ve, core.ErrMissingField):
		return "Please fill in " + fieldLabels[ve.Field] + "."
	case errors.Is(ve, core.ErrInvalidAmount):
		return "Amount must be a positive number with at most two decimals."
	case errors.Is(ve, core.ErrInvalidDate):
		return "Date must be a valid date (YYYY-MM-DD)."
	case errors.Is(ve, core.ErrInvalidCategory):
		return "Please choose a valid category."
	case errors.Is(ve, core.ErrNoteTooLong):
		return "Note is too long."
	default:
		return ve.Error()
	}
}

// writeServiceError logs server-side failures and answers with a plain
// status and message.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := errorStatus(err)
	if status >= http.StatusInternalServerError {
		log.FromContext(r.Context()).Failure(r.Context(), "Request failed", err, log.FieldPath, r.URL.Path)
	}
	if wantsJSON(r) {
		writeJSON(w, status, map[string]string{"error": msg})
		return
	}
	http.Error(w, msg, status)
}

func wantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
