package routers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"prepai/interview/internal/handlers"
	"prepai/interview/internal/middleware"
	"prepai/interview/internal/models"
)

// APIRoutes mounts the authenticated API; auth wraps every route under /api/v1.
func APIRoutes(router *chi.Mux, auth func(http.Handler) http.Handler, agentHandler *handlers.AgentHandler, interviewHandler *handlers.InterviewHandler, questionHandler *handlers.QuestionHandler) {
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(auth)

		r.Route("/agents", func(r chi.Router) {
			r.Post("/", agentHandler.CreateAgentHandler)
			r.Get("/{agentID}", agentHandler.GetAgentHandler)
			r.Delete("/{agentID}", agentHandler.DeleteAgentHandler)
			r.With(middleware.ValidateRequest[*models.StartCallRequest]()).Post("/{agentID}/call", agentHandler.StartCallHandler)
			r.Post("/{agentID}/end", agentHandler.EndCallHandler)
			r.Get("/{agentID}/events", agentHandler.EventsHandler)
		})

		r.Route("/interviews", func(r chi.Router) {
			r.With(middleware.ValidateRequest[*models.CreateInterviewRequest]()).Post("/", interviewHandler.CreateInterviewHandler)
			r.Get("/", interviewHandler.ListInterviewsHandler)
			r.Get("/latest", interviewHandler.LatestInterviewsHandler)
			r.Get("/{interviewID}", interviewHandler.GetInterviewHandler)
			r.Get("/{interviewID}/feedback", interviewHandler.GetFeedbackHandler)
		})

		r.Get("/questions/sets/{role}", questionHandler.GetQuestionSetHandler)
		r.With(middleware.ValidateRequest[*models.AddQuestionsRequest]()).Post("/questions/sets/{role}", questionHandler.AddQuestionsHandler)
	})
}
