package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"prepai/interview/internal/middleware"
	"prepai/interview/internal/models"
	"prepai/interview/internal/repositories"
	"prepai/interview/internal/utils"
)

type InterviewStore interface {
	CreateInterview(ctx context.Context, params models.CreateInterviewParams) (string, error)
	GetByID(ctx context.Context, id string) (*models.Interview, error)
	ListByUser(ctx context.Context, userID string) ([]models.InterviewSummary, error)
	ListLatest(ctx context.Context, userID string, limit int) ([]models.Interview, error)
}

type FeedbackReader interface {
	GetByInterview(ctx context.Context, interviewID, userID string) (*models.Feedback, error)
}

type InterviewHandler struct {
	interviews InterviewStore
	feedback   FeedbackReader
	logger     *zap.Logger
}

func NewInterviewHandler(interviews InterviewStore, feedback FeedbackReader, logger *zap.Logger) *InterviewHandler {
	return &InterviewHandler{
		interviews: interviews,
		feedback:   feedback,
		logger:     utils.LoggerOrDefault(logger),
	}
}

func (h *InterviewHandler) CreateInterviewHandler(w http.ResponseWriter, r *http.Request) {
	req := middleware.GetValidatedRequest[*models.CreateInterviewRequest](r)

	id, err := h.interviews.CreateInterview(r.Context(), models.CreateInterviewParams{
		UserID:    middleware.UserIDFromContext(r.Context()),
		Role:      req.Role,
		Type:      utils.NormalizeType(req.Type),
		Level:     utils.NormalizeLevel(req.Level),
		Techstack: utils.NormalizeTechstack(req.Techstack),
		Questions: req.Questions,
		Finalized: req.Finalized,
	})
	if err != nil {
		h.logger.Error("Failed to create interview", zap.Error(err))
		utils.JSON(w, http.StatusInternalServerError, models.ErrorResponse{Code: "interview_create_failed", Message: "Failed to create interview"})
		return
	}
	utils.JSON(w, http.StatusCreated, models.Resp{OK: true, Info: map[string]string{"interview_id": id}})
}

func (h *InterviewHandler) ListInterviewsHandler(w http.ResponseWriter, r *http.Request) {
	interviews, err := h.interviews.ListByUser(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		h.logger.Error("Failed to list interviews", zap.Error(err))
		utils.JSON(w, http.StatusInternalServerError, models.ErrorResponse{Code: "interview_list_failed", Message: "Failed to list interviews"})
		return
	}
	utils.JSON(w, http.StatusOK, interviews)
}

// LatestInterviewsHandler lists finalized interviews created by other users.
func (h *InterviewHandler) LatestInterviewsHandler(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			utils.JSON(w, http.StatusBadRequest, models.ErrorResponse{Code: "invalid_limit", Message: "limit must be a positive integer"})
			return
		}
		limit = n
	}

	interviews, err := h.interviews.ListLatest(r.Context(), middleware.UserIDFromContext(r.Context()), limit)
	if err != nil {
		h.logger.Error("Failed to list latest interviews", zap.Error(err))
		utils.JSON(w, http.StatusInternalServerError, models.ErrorResponse{Code: "interview_list_failed", Message: "Failed to list interviews"})
		return
	}
	utils.JSON(w, http.StatusOK, interviews)
}

func (h *InterviewHandler) GetInterviewHandler(w http.ResponseWriter, r *http.Request) {
	interview, ok := h.loadInterview(w, r)
	if !ok {
		return
	}

	resp := models.FeedbackViewResponse{Interview: *interview}
	fb, err := h.feedback.GetByInterview(r.Context(), interview.ID, middleware.UserIDFromContext(r.Context()))
	switch {
	case err == nil:
		resp.Feedback = fb
	case errors.Is(err, repositories.ErrFeedbackNotFound):
	default:
		h.logger.Error("Failed to load feedback", zap.String("interview_id", interview.ID), zap.Error(err))
		utils.JSON(w, http.StatusInternalServerError, models.ErrorResponse{Code: "feedback_lookup_failed", Message: "Failed to load feedback"})
		return
	}
	utils.JSON(w, http.StatusOK, resp)
}

func (h *InterviewHandler) GetFeedbackHandler(w http.ResponseWriter, r *http.Request) {
	interview, ok := h.loadInterview(w, r)
	if !ok {
		return
	}
	fb, err := h.feedback.GetByInterview(r.Context(), interview.ID, middleware.UserIDFromContext(r.Context()))
	if errors.Is(err, repositories.ErrFeedbackNotFound) {
		utils.JSON(w, http.StatusNotFound, models.ErrorResponse{Code: "feedback_not_found", Message: "No feedback for this interview yet"})
		return
	}
	if err != nil {
		h.logger.Error("Failed to load feedback", zap.String("interview_id", interview.ID), zap.Error(err))
		utils.JSON(w, http.StatusInternalServerError, models.ErrorResponse{Code: "feedback_lookup_failed", Message: "Failed to load feedback"})
		return
	}
	utils.JSON(w, http.StatusOK, fb)
}

func (h *InterviewHandler) loadInterview(w http.ResponseWriter, r *http.Request) (*models.Interview, bool) {
	interview, err := h.interviews.GetByID(r.Context(), chi.URLParam(r, "interviewID"))
	if errors.Is(err, repositories.ErrInterviewNotFound) {
		utils.JSON(w, http.StatusNotFound, models.ErrorResponse{Code: "interview_not_found", Message: "Interview not found"})
		return nil, false
	}
	if err != nil {
		h.logger.Error("Failed to load interview", zap.Error(err))
		utils.JSON(w, http.StatusInternalServerError, models.ErrorResponse{Code: "interview_lookup_failed", Message: "Failed to load interview"})
		return nil, false
	}
	return interview, true
}
