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
	"prepai/interview/internal/repositories/mongo"
	"prepai/interview/internal/utils"
)

const defaultSetSize = 5

type QuestionBank interface {
	GetSet(ctx context.Context, role, level string, amount int) ([]string, error)
	Insert(ctx context.Context, questions []mongo.Question) error
}

type QuestionHandler struct {
	bank   QuestionBank
	logger *zap.Logger
}

func NewQuestionHandler(bank QuestionBank, logger *zap.Logger) *QuestionHandler {
	return &QuestionHandler{bank: bank, logger: utils.LoggerOrDefault(logger)}
}

// GetQuestionSetHandler samples a question set for an interview-mode call.
func (h *QuestionHandler) GetQuestionSetHandler(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	role := chi.URLParam(r, "role")
	level := utils.NormalizeLevel(r.URL.Query().Get("level"))

	amount := defaultSetSize
	if raw := r.URL.Query().Get("amount"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			utils.JSON(w, http.StatusBadRequest, models.ErrorResponse{Code: "invalid_amount", Message: "amount must be a positive integer"})
			return
		}
		amount = n
	}

	questions, err := h.bank.GetSet(r.Context(), role, level, amount)
	if errors.Is(err, mongo.ErrNoQuestions) {
		utils.JSON(w, http.StatusNotFound, models.ErrorResponse{Code: "no_questions", Message: "No questions found for role " + role})
		return
	}
	if err != nil {
		h.logger.Error("Failed to load question set", zap.String("role", role), zap.Error(err))
		utils.JSON(w, http.StatusInternalServerError, models.ErrorResponse{Code: "question_bank_error", Message: "Failed to load questions"})
		return
	}

	utils.JSON(w, http.StatusOK, models.QuestionSetResponse{
		Role:      role,
		Level:     level,
		Questions: questions,
	})
}

// AddQuestionsHandler stores questions for a role in the bank.
func (h *QuestionHandler) AddQuestionsHandler(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	req := middleware.GetValidatedRequest[*models.AddQuestionsRequest](r)
	role := chi.URLParam(r, "role")

	questions := make([]mongo.Question, 0, len(req.Questions))
	for _, text := range req.Questions {
		questions = append(questions, mongo.Question{
			Text:      text,
			Role:      role,
			Level:     req.Level,
			Type:      utils.NormalizeType(req.Type),
			Techstack: utils.NormalizeTechstack(req.Techstack),
		})
	}
	if err := h.bank.Insert(r.Context(), questions); err != nil {
		h.logger.Error("Failed to add questions", zap.String("role", role), zap.Error(err))
		utils.JSON(w, http.StatusInternalServerError, models.ErrorResponse{Code: "question_bank_error", Message: "Failed to store questions"})
		return
	}

	h.logger.Info("Added questions to bank", zap.String("role", role), zap.Int("count", len(questions)))
	utils.JSON(w, http.StatusCreated, models.Resp{OK: true, Info: map[string]int{"added": len(questions)}})
}

func (h *QuestionHandler) available(w http.ResponseWriter) bool {
	if h.bank == nil {
		utils.JSON(w, http.StatusServiceUnavailable, models.ErrorResponse{Code: "question_bank_unavailable", Message: "Question bank is not configured"})
		return false
	}
	return true
}
