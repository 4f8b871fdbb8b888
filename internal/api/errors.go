package api

import (
	"errors"
	"net/http"

	"github.com/clipdeck/clipdeck-agent/internal/ai"
	"github.com/clipdeck/clipdeck-agent/internal/recorder"
	"github.com/clipdeck/clipdeck-agent/internal/session"
	"github.com/clipdeck/clipdeck-agent/internal/transport"
)

// writeDomainError maps sentinel errors from the inner packages onto the API
// error envelope. Anything unrecognized is an internal error.
func writeDomainError(w http.ResponseWriter, err error) {
	var collabErr *ai.CollaboratorError

	switch {
	case errors.Is(err, session.ErrOversizedFile):
		WriteError(w, http.StatusRequestEntityTooLarge, err.Error(), "OVERSIZED_FILE")
	case errors.Is(err, session.ErrUnsupportedType):
		WriteError(w, http.StatusUnsupportedMediaType, err.Error(), "UNSUPPORTED_TYPE")
	case errors.Is(err, session.ErrUnknownSlot):
		WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
	case errors.Is(err, transport.ErrRateNotAllowed):
		WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
	case errors.Is(err, recorder.ErrMissingVideo):
		WriteError(w, http.StatusBadRequest, err.Error(), "MISSING_INPUT")
	case errors.Is(err, recorder.ErrCaptureUnsupported):
		WriteError(w, http.StatusUnprocessableEntity, err.Error(), "CAPTURE_UNSUPPORTED")
	case errors.Is(err, recorder.ErrBusy):
		WriteError(w, http.StatusConflict, err.Error(), "RECORDER_BUSY")
	case errors.Is(err, recorder.ErrNotRecording):
		WriteError(w, http.StatusConflict, err.Error(), "BAD_REQUEST")
	case errors.Is(err, ai.ErrNoOutput):
		WriteError(w, http.StatusBadGateway, err.Error(), "NO_OUTPUT")
	case errors.As(err, &collabErr):
		WriteError(w, http.StatusBadGateway, err.Error(), "COLLABORATOR_UNAVAILABLE")
	default:
		WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
	}
}
