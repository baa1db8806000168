package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/harrylevesque/revisitor/internal/auth"
	"github.com/harrylevesque/revisitor/internal/export"
	"github.com/harrylevesque/revisitor/internal/feedback"
	"github.com/harrylevesque/revisitor/internal/models"
	"github.com/harrylevesque/revisitor/internal/nostr"
	"github.com/harrylevesque/revisitor/internal/notes"
	"github.com/harrylevesque/revisitor/internal/review"
	"github.com/harrylevesque/revisitor/internal/utils"
)

// classify turns err into a CustomError. Errors the user can act on keep
// their own text; anything else is described by fallback.
func classify(err error, title, fallback string) *utils.CustomError {
	var ce *utils.CustomError
	if errors.As(err, &ce) {
		return ce
	}
	code := http.StatusInternalServerError
	message := fallback
	switch {
	case errors.Is(err, auth.ErrNotLoggedIn):
		code, title, message = http.StatusUnauthorized, "Login Required", err.Error()
	case errors.Is(err, auth.ErrReadOnly):
		code, message = http.StatusForbidden, "A secret key is required to publish."
	case errors.Is(err, notes.ErrNoteNotFound):
		code, message = http.StatusNotFound, "Note not found."
	case errors.Is(err, export.ErrNoNotes):
		code, title, message = http.StatusNotFound, err.Error(), "You don't have any notes to export."
	case errors.Is(err, notes.ErrEmptyComment),
		errors.Is(err, feedback.ErrInvalidRating),
		errors.Is(err, feedback.ErrImprovementsTooLong),
		errors.Is(err, feedback.ErrInvalidRecipient):
		code, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, feedback.ErrAlreadySubmitted):
		code, message = http.StatusConflict, err.Error()
	case errors.Is(err, review.ErrQueueEmpty):
		code, message = http.StatusNotFound, err.Error()
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, nostr.ErrIncomplete):
		code = http.StatusGatewayTimeout
	}
	if message == "" {
		message = err.Error()
	}
	return &utils.CustomError{Code: code, Title: title, Message: message, Err: err}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// fail writes err as a destructive toast.
func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error, title, fallback string) {
	ce := classify(err, title, fallback)
	if ce.Title == "" {
		ce.Title = "Error"
	}
	fields := []zap.Field{zap.String("path", r.URL.Path), zap.Int("status", ce.Code), zap.Error(err)}
	if ce.Code >= http.StatusInternalServerError {
		h.logger.Error("request failed", fields...)
	} else {
		h.logger.Info("request rejected", fields...)
	}
	writeJSON(w, ce.Code, models.Toast{Title: ce.Title, Description: ce.Message, Variant: models.VariantDestructive})
}
