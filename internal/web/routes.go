package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/facegate/internal/capture"
	"github.com/kozaktomas/facegate/internal/enrollment"
	"github.com/kozaktomas/facegate/internal/recognition"
	"github.com/kozaktomas/facegate/internal/roster"
	"github.com/kozaktomas/facegate/internal/web/handlers"
)

func (s *Server) setupRoutes(r *roster.Roster, recognizer *recognition.Service, enroller *enrollment.Enroller, captures capture.Store) {
	recognizeHandler := handlers.NewRecognizeHandler(recognizer)
	enrollHandler := handlers.NewEnrollHandler(enroller)
	studentsHandler := handlers.NewStudentsHandler(r)
	capturesHandler := handlers.NewCapturesHandler(captures)

	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(api chi.Router) {
		api.Post("/recognize", recognizeHandler.Recognize)

		api.Post("/enroll", enrollHandler.EnrollImage)
		api.Post("/enroll/vector", enrollHandler.EnrollVector)

		api.Get("/students", studentsHandler.List)
		api.Get("/students/{id}", studentsHandler.Get)

		api.Get("/captures", capturesHandler.List)
	})
}
