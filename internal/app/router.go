package app

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"elderline/internal/app/observability"
	"elderline/internal/assessment"
	"elderline/internal/auth"
	"elderline/internal/feedback"
	"elderline/internal/profile"
	"elderline/internal/question"
	"elderline/internal/report"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(cfg Config, db *sql.DB, bank *question.Bank) (http.Handler, error) {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	collector := observability.NewCollector(db)
	r.Use(collector.Middleware)
	r.Use(CSRFMiddleware(cfg.CSRFEnforced))

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, time.Duration(cfg.TokenTTLHours)*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("token manager: %w", err)
	}

	mailer := auth.NewSMTPMailer(auth.SMTPConfig{
		Host: cfg.SMTPHost,
		Port: cfg.SMTPPort,
		User: cfg.SMTPUser,
		Pass: cfg.SMTPPass,
		From: cfg.SMTPFrom,
	})

	authSvc := auth.NewService(db, auth.ServiceConfig{
		Tokens: tokens,
		Mailer: mailer,
	})
	authHandler := auth.NewHandler(authSvc)

	profileSvc := profile.NewService(db)
	profileHandler := profile.NewHandler(profileSvc)

	questionHandler := question.NewHandler(bank)

	testManager := assessment.NewManager(assessment.ManagerConfig{
		Store:    assessment.NewStore(db),
		Bank:     bank,
		Profiles: profileSvc,
	})
	testHandler := assessment.NewHandler(testManager)

	feedbackSvc := feedback.NewService(db)
	feedbackHandler := feedback.NewHandler(feedbackSvc)

	reportSvc := report.NewService(db, bank)
	reportHandler := report.NewHandler(reportSvc)

	authLimiter := NewIPRateLimiter(cfg.AuthRateLimitPerMin, time.Minute)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	r.Get("/metrics", collector.MetricsHandler)

	r.Route("/api/v1", func(api chi.Router) {
		api.Group(func(public chi.Router) {
			public.Use(RateLimitMiddleware(authLimiter))
			public.Post("/auth/register", authHandler.Register)
			public.Post("/auth/login", authHandler.Login)
			public.Post("/auth/reset/request", authHandler.RequestReset)
			public.Post("/auth/reset/confirm", authHandler.ConfirmReset)
		})

		api.Group(func(secure chi.Router) {
			secure.Use(authHandler.RequireAuth)
			secure.Get("/auth/me", authHandler.Me)
			secure.Post("/auth/logout", authHandler.Logout)

			secure.Get("/profile/details", profileHandler.GetDetails)
			secure.Put("/profile/details", profileHandler.UpsertDetails)

			secure.Get("/modules", questionHandler.ListModules)
			secure.Get("/modules/{id}", questionHandler.GetModule)
			secure.Get("/categories", questionHandler.ListCategories)

			secure.Post("/test/start", testHandler.Start)
			secure.Get("/test/session", testHandler.GetSession)
			secure.Post("/test/answer", testHandler.SelectAnswer)
			secure.Post("/test/next", testHandler.Next)
			secure.Post("/test/previous", testHandler.Previous)
			secure.Post("/test/submit", testHandler.Submit)
			secure.Get("/test/attempts", testHandler.MyAttempt)

			secure.Post("/feedback", feedbackHandler.Submit)

			secure.Group(func(admin chi.Router) {
				admin.Use(authHandler.RequireRoles(auth.RoleAdmin))
				admin.Get("/admin/attempts", reportHandler.ListAttempts)
				admin.Get("/admin/attempts/export.csv", reportHandler.ExportCSV)
				admin.Get("/admin/attempts/export.xlsx", reportHandler.ExportExcel)
				admin.Delete("/admin/attempts/{id}", reportHandler.ResetAttempt)
				admin.Get("/admin/analysis/questions", reportHandler.QuestionAnalysis)
				admin.Get("/admin/analysis/modules", reportHandler.ModuleAnalysis)
				admin.Get("/admin/analysis/categories", reportHandler.CategoryAnalysis)
				admin.Get("/admin/analysis/suggestions", reportHandler.Suggestions)
				admin.Get("/admin/stats", reportHandler.DashboardStats)
				admin.Get("/admin/feedback", feedbackHandler.List)
			})
		})
	})

	return r, nil
}
