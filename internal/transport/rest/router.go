package rest

import (
	"net/http"
	"ssbprep/internal/service"
	"ssbprep/internal/transport/rest/handler"
	"ssbprep/internal/transport/rest/middleware"
	"ssbprep/internal/transport/ws"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService     *service.AuthService
	StimulusService *service.StimulusService
	ScorerService   *service.ScorerService
	SessionService  *service.SessionService
	HistoryService  *service.HistoryService
	WSHub           *ws.Hub
	AllowedOrigins  string
	Logger          *zap.Logger
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	stimulusHandler := handler.NewStimulusHandler(c.StimulusService)
	assessmentHandler := handler.NewAssessmentHandler(c.ScorerService, c.StimulusService, c.HistoryService)
	sessionHandler := handler.NewSessionHandler(c.SessionService)
	historyHandler := handler.NewHistoryHandler(c.HistoryService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.SessionService, c.AllowedOrigins, c.Logger)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware(c.AllowedOrigins))
	r.Use(middleware.RequestLogger(c.Logger))

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// WebSocket routes (identity via token query param)
	v1.HandleFunc("/ws/sessions/{id}", wsHandler.SessionWS).Methods("GET")

	// Public routes; identity is optional and only enables history
	public := v1.NewRoute().Subrouter()
	public.Use(authMW.OptionalUser)

	public.HandleFunc("/stimuli/images", stimulusHandler.ListImages).Methods("GET", "OPTIONS")
	public.HandleFunc("/stimuli/words", stimulusHandler.ListWords).Methods("GET", "OPTIONS")
	public.HandleFunc("/assessment/tat/evaluate", assessmentHandler.EvaluateTAT).Methods("POST", "OPTIONS")
	public.HandleFunc("/assessment/wat/evaluate", assessmentHandler.EvaluateWAT).Methods("POST", "OPTIONS")

	public.HandleFunc("/sessions", sessionHandler.Start).Methods("POST", "OPTIONS")
	public.HandleFunc("/sessions/{id}", sessionHandler.Get).Methods("GET", "OPTIONS")
	public.HandleFunc("/sessions/{id}", sessionHandler.Abandon).Methods("DELETE", "OPTIONS")
	public.HandleFunc("/sessions/{id}/draft", sessionHandler.SaveDraft).Methods("PUT", "OPTIONS")
	public.HandleFunc("/sessions/{id}/submit", sessionHandler.Submit).Methods("POST", "OPTIONS")
	public.HandleFunc("/sessions/{id}/skip", sessionHandler.Skip).Methods("POST", "OPTIONS")

	public.HandleFunc("/leaderboard/{testType}", historyHandler.Leaderboard).Methods("GET", "OPTIONS")

	// User routes (require user auth)
	userRoutes := v1.NewRoute().Subrouter()
	userRoutes.Use(authMW.RequireUser)

	userRoutes.HandleFunc("/history", historyHandler.List).Methods("GET", "OPTIONS")

	return r
}

func corsMiddleware(allowedOrigins string) mux.MiddlewareFunc {
	if allowedOrigins == "" {
		allowedOrigins = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
