package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/survey-backend/internal/domain/survey"
	"github.com/yungbote/survey-backend/internal/http/response"
	"github.com/yungbote/survey-backend/internal/platform/apierr"
	"github.com/yungbote/survey-backend/internal/platform/ctxutil"
	"github.com/yungbote/survey-backend/internal/platform/logger"
	"github.com/yungbote/survey-backend/internal/services"
)

const (
	msgInvalidPayload = "Invalid survey payload."
	msgEmailRequired  = "Email is required."
	msgDuplicateEmail = "Email already submitted."
	msgSubmitFailed   = "Failed to process the survey."
	msgSubmitted      = "Survey submitted successfully!"
)

type SurveyHandler struct {
	svc services.SubmissionService
	log *logger.Logger
}

func NewSurveyHandler(log *logger.Logger, svc services.SubmissionService) *SurveyHandler {
	return &SurveyHandler{svc: svc, log: log.With("handler", "SurveyHandler")}
}

type SubmitResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Survey  *types.Record `json:"survey"`
}

// POST /api/survey/submit
func (h *SurveyHandler) Submit(c *gin.Context) {
	var sub types.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		response.RespondError(c, apierr.New(http.StatusBadRequest, "invalid_payload", msgInvalidPayload, err))
		return
	}

	stored, err := h.svc.Submit(c.Request.Context(), sub.Record())
	if err != nil {
		ae := submitError(err)
		if ae.Status >= http.StatusInternalServerError {
			h.log.Error("Survey submission failed", append(ctxutil.LogFields(c.Request.Context()), "error", err)...)
		}
		response.RespondError(c, ae)
		return
	}

	response.RespondOK(c, SubmitResponse{Success: true, Message: msgSubmitted, Survey: stored})
}

func submitError(err error) *apierr.Error {
	switch {
	case errors.Is(err, types.ErrEmailRequired):
		return apierr.New(http.StatusBadRequest, "email_required", msgEmailRequired, err)
	case errors.Is(err, types.ErrDuplicateEmail):
		return apierr.New(http.StatusBadRequest, "duplicate_email", msgDuplicateEmail, err)
	default:
		return apierr.New(http.StatusInternalServerError, "submit_failed", msgSubmitFailed, err)
	}
}
