package api

import (
	"net/http"

	"github.com/garnizeh/crm/internal/auth"
	"github.com/garnizeh/crm/internal/config"
	"github.com/garnizeh/crm/internal/db"
	"github.com/garnizeh/crm/internal/enquiry"
	"github.com/garnizeh/crm/internal/events"
	"github.com/garnizeh/crm/internal/metrics"
	"github.com/garnizeh/crm/internal/repository/sqlstore"
	"github.com/gorilla/mux"
)

func SetupRoutes(cfg *config.Config, version, buildTime string, db *db.DB, publisher events.Publisher, m *metrics.Metrics) *mux.Router {
	if m == nil {
		m = metrics.New()
	}

	r := mux.NewRouter()

	// Middleware chain
	middlewares := []mux.MiddlewareFunc{LoggingMiddleware, CORSMiddleware, RecoveryMiddleware, MetricsMiddleware(m)}
	r.Use(middlewares...)

	// mux skips middlewares for unmatched routes, so the fallback gets them explicitly
	notFound := chain(http.HandlerFunc(routeNotFound), middlewares...)
	r.NotFoundHandler = notFound
	r.MethodNotAllowedHandler = notFound

	// Repository
	store := sqlstore.New(db, logger)

	// Services
	authService := auth.NewService(store, cfg.Auth, logger)
	enquiryService := enquiry.NewService(store, logger,
		enquiry.WithPublisher(publisher),
		enquiry.WithClaimObserver(m),
	)

	// Create handlers
	systemHandler := NewSystemHandler(db)
	employeesHandler := NewEmployeesHandler(authService)
	enquiriesHandler := NewEnquiriesHandler(enquiryService)
	requireAuth := RequireAuth(authService)

	// Open endpoints
	r.HandleFunc("/", systemHandler.RootHandler).Methods("GET")
	r.HandleFunc("/version", systemHandler.VersionHandler(version, buildTime)).Methods("GET")
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")
	r.Handle("/metrics", m.Handler()).Methods("GET")
	r.HandleFunc("/api/employees/register", employeesHandler.Register).Methods("POST")
	r.HandleFunc("/api/employees/login", employeesHandler.Login).Methods("POST")
	r.HandleFunc("/api/enquiries/public", enquiriesHandler.Submit).Methods("POST")

	// Protected routes
	r.Handle("/api/enquiries/public", requireAuth(http.HandlerFunc(enquiriesHandler.ListPublic))).Methods("GET")
	r.Handle("/api/enquiries/private", requireAuth(http.HandlerFunc(enquiriesHandler.ListPrivate))).Methods("GET")
	r.Handle("/api/enquiries/{id}/claim", requireAuth(http.HandlerFunc(enquiriesHandler.Claim))).Methods("PATCH")

	return r
}

func routeNotFound(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, "Route not found.", http.StatusNotFound)
}
