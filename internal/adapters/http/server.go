package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"scorify/internal/apperror"
	"scorify/internal/auth"
	"scorify/internal/domain"
	"scorify/internal/metrics"
	"scorify/internal/services/accounts"
	"scorify/internal/services/customers"
	"scorify/internal/services/reports"
)

// Reports computes the sales performance views.
type Reports interface {
	Monthly(ctx context.Context, f reports.Filter) ([12]reports.MonthlyBucket, error)
	Summary(ctx context.Context, f reports.Filter) (reports.Summary, error)
}

// Accounts authenticates and lists users.
type Accounts interface {
	Login(ctx context.Context, email, password string) (accounts.User, string, error)
	Register(ctx context.Context, r accounts.Registration) (accounts.User, error)
	Me(ctx context.Context, id string) (accounts.User, error)
	ListSales(ctx context.Context) ([]accounts.User, error)
}

// Customers serves the customer table, its export, detail view and
// dashboard counts.
type Customers interface {
	List(ctx context.Context, q customers.Query) (customers.Page, error)
	ExportCSV(ctx context.Context, w io.Writer, q customers.Query) error
	DashboardStats(ctx context.Context, id auth.Identity) (customers.DashboardStats, error)
	AdminStats(ctx context.Context) (customers.AdminStats, error)
	CustomerDetail(ctx context.Context, id string) (customers.Detail, error)
}

type Server struct {
	reports   Reports
	accounts  Accounts
	customers Customers
	tokens    *auth.Issuer

	log          *slog.Logger
	gatherer     prometheus.Gatherer
	health       func(context.Context) error
	secureCookie bool
	now          func() time.Time
}

// Option configures a Server.
type Option func(*Server)

func WithLogger(l *slog.Logger) Option { return func(s *Server) { s.log = l } }

// WithGatherer exposes g on /metrics.
func WithGatherer(g prometheus.Gatherer) Option { return func(s *Server) { s.gatherer = g } }

// WithHealthCheck makes /healthz report 503 when check fails.
func WithHealthCheck(check func(context.Context) error) Option {
	return func(s *Server) { s.health = check }
}

// WithSecureCookie marks the session cookie Secure.
func WithSecureCookie(secure bool) Option { return func(s *Server) { s.secureCookie = secure } }

func WithClock(now func() time.Time) Option { return func(s *Server) { s.now = now } }

func New(rep Reports, acc Accounts, cust Customers, tokens *auth.Issuer, opts ...Option) *Server {
	s := &Server{
		reports:   rep,
		accounts:  acc,
		customers: cust,
		tokens:    tokens,
		log:       slog.Default(),
		gatherer:  prometheus.DefaultGatherer,
		now:       time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Routes returns the full API router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/logout", s.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(s.tokens.Middleware)

			r.Get("/auth/me", s.handleMe)
			r.Get("/reports/sales/monthly", s.handleSalesMonthly)
			r.Get("/reports/sales/summary", s.handleSalesSummary)
			r.Get("/dashboard/stats", s.handleDashboardStats)
			r.Get("/customers", s.handleCustomers)
			r.Get("/customers/{id}", s.handleCustomerDetail)
			r.Get("/export/csv", s.handleExportCSV)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(domain.RoleAdmin))

				r.Post("/auth/register", s.handleRegister)
				r.Get("/reports/admin/monthly", s.handleAdminMonthly)
				r.Get("/reports/admin/summary", s.handleAdminSummary)
				r.Get("/reports/admin/sales", s.handleAdminSales)
				r.Get("/admin/stats", s.handleAdminStats)
			})
		})
	})
	return r
}

// requestLogger logs one line per request and counts it by route pattern.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		// Unmatched paths share one metric series.
		route := ""
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		metrics.ObserveRequest(route, r.Method, status)
		s.log.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			s.log.Error("health check failed", "err", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func statusOf(kind apperror.Kind) int {
	switch kind {
	case apperror.KindInvalid:
		return http.StatusBadRequest
	case apperror.KindUnauthorized:
		return http.StatusUnauthorized
	case apperror.KindForbidden:
		return http.StatusForbidden
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as {"error": msg}. Internal details only reach the log.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusOf(apperror.KindOf(err))
	if code == http.StatusInternalServerError {
		op := "unknown"
		var ae *apperror.AppError
		if errors.As(err, &ae) {
			op = ae.Op
		}
		s.log.Error("request failed",
			"op", op,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"err", err,
		)
	}
	writeJSON(w, code, map[string]string{"error": apperror.Message(err)})
}
