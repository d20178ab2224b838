package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-mcsaon/internal/auth"
	authmw "github.com/mind-engage/mindengage-mcsaon/internal/auth/middleware"
	"github.com/mind-engage/mindengage-mcsaon/internal/bank"
	"github.com/mind-engage/mindengage-mcsaon/internal/eventlog"
	"github.com/mind-engage/mindengage-mcsaon/internal/metrics"
	"github.com/mind-engage/mindengage-mcsaon/internal/rbac"
	"github.com/mind-engage/mindengage-mcsaon/internal/restore"
	"github.com/mind-engage/mindengage-mcsaon/internal/storage"
)

type Deps struct {
	Service     *bank.Service
	Restorer    *restore.Restorer
	Auth        *authmw.AuthService
	Accounts    []authmw.Account
	Checker     *rbac.Checker
	Blobs       storage.BlobStore // optional
	Events      eventlog.Reader   // optional
	Metrics     *metrics.Metrics  // optional
	Log         *zap.Logger
	CORSOrigins []string
	LoginRate   int // login attempts per IP per minute; 0 means 10
	// Ready reports whether backing services are reachable.
	Ready func(ctx context.Context) error
}

func NewRouter(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Checker == nil {
		d.Checker = rbac.NewChecker(nil)
	}
	if d.Restorer == nil {
		d.Restorer = restore.NewRestorer(d.Service.Store(), d.Log)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger(d.Log), middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(d.Metrics.Middleware)
	if len(d.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   d.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Group(func(ar chi.Router) {
		ar.Use(RateLimiter(d.LoginRate, time.Minute))
		ar.Post("/auth/login", authmw.LoginHandler(d.Auth, d.Accounts...))
		ar.Post("/auth/guest", auth.GuestLoginHandler(d.Auth, false))
	})

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(authmw.JWTMiddleware(d.Auth))

		pr.With(d.Checker.Require(rbac.PermQuestionEdit)).
			Post("/questions", SaveQuestionHandler(d.Service))
		pr.With(d.Checker.Require(rbac.PermQuestionEdit)).
			Post("/questions/validate", ValidateQuestionHandler(d.Service))
		pr.With(d.Checker.Require(rbac.PermQuestionEdit)).
			Get("/questions", ListQuestionsHandler(d.Service))
		pr.With(d.Checker.Require(rbac.PermQuestionView)).
			Get("/questions/{id}", GetQuestionHandler(d.Service, d.Checker))
		pr.With(d.Checker.Require(rbac.PermQuestionEdit)).
			Delete("/questions/{id}", DeleteQuestionHandler(d.Service))

		pr.With(d.Checker.Require(rbac.PermQuestionGrade)).
			Post("/questions/{id}/grade", GradeHandler(d.Service))
		pr.With(d.Checker.Require(rbac.PermQuestionEdit)).
			Get("/questions/{id}/responses", ResponsesHandler(d.Service))
		pr.With(d.Checker.Require(rbac.PermQuestionEdit)).
			Post("/questions/{id}/duplicate", DuplicateHandler(d.Restorer))

		pr.With(d.Checker.Require(rbac.PermQuestionExport)).
			Get("/questions/{id}/export", ExportHandler(d.Service, d.Blobs, d.Log))
		pr.With(d.Checker.Require(rbac.PermQuestionEdit)).
			Post("/questions/import", ImportHandler(d.Service, d.Log))
		pr.With(d.Checker.Require(rbac.PermQuestionExport)).
			Get("/questions/{id}/backup", BackupHandler(d.Service))
		pr.With(d.Checker.Require(rbac.PermQuestionEdit)).
			Post("/questions/restore", RestoreHandler(d.Restorer, d.Log))

		if d.Events != nil {
			pr.With(d.Checker.Require(rbac.PermQuestionEdit)).
				Get("/questions/{id}/events", EventsHandler(d.Events))
		}
		if d.Blobs != nil {
			pr.With(d.Checker.Require(rbac.PermQuestionExport)).
				Route("/exports", func(er chi.Router) { MountExports(er, d.Blobs) })
		}
	})

	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics.Handler())
	}
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.Ready != nil {
			if err := d.Ready(r.Context()); err != nil {
				http.Error(w, "not ready: "+err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(200)
	})
	return r
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("took", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
