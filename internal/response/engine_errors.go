package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prepstack/mockexam-backend/internal/engine"
)

// FailEngine maps a typed engine error onto the API error taxonomy. The
// engine guarantees rejected events are no-ops on state, so every mapping
// here is a safe, recoverable client error except the internal fallback.
func FailEngine(c *gin.Context, err error) {
	switch {
	case errors.Is(err, engine.ErrDefinitionNotFound):
		Fail(c, http.StatusNotFound, ErrDefinitionNotFound)
	case errors.Is(err, engine.ErrMalformedDefinition):
		Fail(c, http.StatusUnprocessableEntity, ErrMalformedDefinition)
	case errors.Is(err, engine.ErrInvalidAnswerFormat):
		Fail(c, http.StatusBadRequest, ErrInvalidAnswerFormat)
	case errors.Is(err, engine.ErrSectionLocked):
		Fail(c, http.StatusConflict, ErrSectionLocked)
	case errors.Is(err, engine.ErrInvalidTransition):
		Fail(c, http.StatusConflict, ErrInvalidTransition)
	case errors.Is(err, engine.ErrUnknownQuestion):
		Fail(c, http.StatusBadRequest, ErrUnknownQuestion)
	default:
		Fail(c, http.StatusInternalServerError, ErrInternal)
	}
}
